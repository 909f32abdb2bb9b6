// Package parser compiles the string filter grammar into expression trees.
//
// The grammar is folded strictly left-to-right in operator scan order:
// `A == 1 && B == 2 || C == 3` compiles to `((A && B) || C)`, never with
// AND binding tighter than OR. Parsing is a total function over untrusted
// text: malformed input, unknown properties, unconvertible literals, and
// unbalanced brackets all yield a nil expression, never an error.
package parser

import (
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/thisisjab/queryspec/ast"
	"github.com/thisisjab/queryspec/fault"
	"github.com/thisisjab/queryspec/lexer"
	"github.com/thisisjab/queryspec/metadata"
	"github.com/thisisjab/queryspec/predicate"
	"github.com/thisisjab/queryspec/token"
)

type Parser struct {
	target    reflect.Type
	l         *lexer.Lexer
	curToken  token.Token
	peekToken token.Token
	failed    bool
}

// New creates a parser bound to a target entity type. A nil type (or a
// map/interface type) resolves properties dynamically per entity.
func New(target reflect.Type) *Parser {
	return &Parser{target: target}
}

// Parse is generic sugar over New + Parse for a compile-time entity type.
func Parse[T any](text string) ast.Expr {
	return New(reflect.TypeOf((*T)(nil)).Elem()).Parse(text)
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

// Parse compiles filter text into an expression tree, or nil when the
// text is empty or malformed in any way.
func (p *Parser) Parse(text string) ast.Expr {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	p.l = lexer.New(text)
	p.failed = false
	p.nextToken()
	p.nextToken()

	e := p.parseExpr()
	if p.failed || e == nil || p.curToken.Type != token.EOF {
		return nil
	}

	return e
}

// ParseMap builds an implicit AND-conjunction of EqualTo comparisons over
// all entries, in sorted key order for a stable tree. The result is
// all-or-nothing: an empty map, an unresolvable property, or an
// unconvertible value makes the whole result nil.
func (p *Parser) ParseMap(values map[string]string) ast.Expr {
	if len(values) == 0 {
		return nil
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var tree ast.Expr
	for _, k := range keys {
		cmp, err := predicate.Compile(p.target, k, ast.EqualTo, values[k])
		if err != nil {
			return nil
		}
		if tree == nil {
			tree = cmp
		} else {
			tree = &ast.Logical{Op: ast.AndAlso, Left: tree, Right: cmp}
		}
	}

	return tree
}

// Comparison is the explicit programmatic entry point for callers without
// compile-time generics. Unlike Parse it is fed programmer-supplied wiring
// rather than untrusted text, so missing arguments are reported as faults
// instead of a silent nil.
func Comparison(target reflect.Type, property string, op ast.ComparisonOperator, literal string) (ast.Expr, error) {
	if target == nil {
		return nil, fault.New(fault.BadInputCode, "target type is required")
	}
	if property == "" {
		return nil, fault.New(fault.BadInputCode, "property name is required")
	}
	return predicate.Compile(target, property, op, literal)
}

func (p *Parser) fail() ast.Expr {
	p.failed = true
	return nil
}

func (p *Parser) parseExpr() ast.Expr {
	left := p.parseTerm()
	if p.failed {
		return nil
	}

	for p.curToken.IsLogicalOperator() {
		op := ast.AndAlso
		if p.curToken.Type == token.OR || p.curToken.Type == token.OROR {
			op = ast.OrElse
		}

		p.nextToken()

		right := p.parseTerm()
		if p.failed {
			return nil
		}

		// Fold strictly in scan order; && and || carry no precedence
		// over & and | written earlier.
		left = &ast.Logical{Op: op, Left: left, Right: right}
	}

	return left
}

func (p *Parser) parseTerm() ast.Expr {
	switch p.curToken.Type {
	case token.LPAREN:
		p.nextToken()
		inner := p.parseExpr()
		if p.failed || inner == nil {
			return p.fail()
		}
		if p.curToken.Type != token.RPAREN {
			return p.fail()
		}
		p.nextToken()
		return inner
	case token.IDENT:
		return p.parseComparison()
	default:
		return p.fail()
	}
}

func (p *Parser) parseComparison() ast.Expr {
	prop := p.curToken.Literal

	switch {
	case p.peekToken.Type == token.LPAREN:
		return p.parseMethodCall(prop)
	case p.peekToken.IsComparisonOperator():
		return p.parseBinary(prop)
	case p.peekToken.IsArithmeticOperator():
		return p.parseArithmetic(prop)
	default:
		return p.fail()
	}
}

// parseMethodCall handles `Path.Contains("literal")` and friends. The
// method name lexes as the last segment of the dotted identifier.
func (p *Parser) parseMethodCall(ident string) ast.Expr {
	dot := strings.LastIndex(ident, ".")
	if dot <= 0 || dot == len(ident)-1 {
		return p.fail()
	}

	path := ident[:dot]
	op, ok := lookupStringMethod(ident[dot+1:])
	if !ok {
		return p.fail()
	}

	p.nextToken() // onto '('
	p.nextToken() // onto the argument

	if !isLiteralToken(p.curToken.Type) {
		return p.fail()
	}
	term := p.curToken.Literal

	p.nextToken()
	if p.curToken.Type != token.RPAREN {
		return p.fail()
	}
	p.nextToken()

	e, err := predicate.Compile(p.target, path, op, term)
	if err != nil {
		return p.fail()
	}
	return e
}

func (p *Parser) parseBinary(prop string) ast.Expr {
	var op ast.ComparisonOperator
	switch p.peekToken.Type {
	case token.EQUAL:
		op = ast.EqualTo
	case token.NOTEQUAL:
		op = ast.NotEqualTo
	case token.LESS:
		op = ast.LessThan
	case token.LESSEQUAL:
		op = ast.LessOrEqual
	case token.GREATER:
		op = ast.GreaterThan
	case token.GREATEREQUAL:
		op = ast.GreaterOrEqual
	default:
		return p.fail()
	}

	p.nextToken() // onto the operator
	p.nextToken() // onto the literal

	text, ok := p.readLiteral()
	if !ok {
		return p.fail()
	}

	e, err := predicate.Compile(p.target, prop, op, text)
	if err != nil {
		return p.fail()
	}
	return e
}

func (p *Parser) parseArithmetic(prop string) ast.Expr {
	var op ast.ArithmeticOperator
	switch p.peekToken.Type {
	case token.PLUS:
		op = ast.Add
	case token.MINUS:
		op = ast.Subtract
	case token.STAR:
		op = ast.Multiply
	case token.SLASH:
		op = ast.Divide
	case token.PERCENT:
		op = ast.Modulo
	}

	if _, err := metadata.Resolve(p.target, prop); err != nil {
		return p.fail()
	}

	p.nextToken() // onto the operator
	p.nextToken() // onto the operand

	node := &ast.Arithmetic{Path: prop, Op: op}

	switch p.curToken.Type {
	case token.IDENT:
		if _, err := metadata.Resolve(p.target, p.curToken.Literal); err != nil {
			return p.fail()
		}
		node.OperandPath = p.curToken.Literal
	case token.INT:
		n, err := strconv.ParseInt(p.curToken.Literal, 10, 64)
		if err != nil {
			return p.fail()
		}
		node.OperandValue = n
	case token.DECIMAL:
		f, err := strconv.ParseFloat(p.curToken.Literal, 64)
		if err != nil {
			return p.fail()
		}
		node.OperandValue = f
	default:
		return p.fail()
	}

	p.nextToken()
	return node
}

// readLiteral consumes the literal tokens of a comparison right-hand side
// and returns them as coercible text.
func (p *Parser) readLiteral() (string, bool) {
	// A leading minus makes a negative number.
	if p.curToken.Type == token.MINUS {
		if p.peekToken.Type != token.INT && p.peekToken.Type != token.DECIMAL {
			return "", false
		}
		p.nextToken()
		text := "-" + p.curToken.Literal
		p.nextToken()
		return text, true
	}

	if !isLiteralToken(p.curToken.Type) {
		return "", false
	}

	text := p.curToken.Literal
	p.nextToken()
	return text, true
}

func isLiteralToken(t token.TokenType) bool {
	switch t {
	case token.STRING, token.IDENT, token.INT, token.DECIMAL, token.TRUE, token.FALSE, token.NULL:
		return true
	default:
		return false
	}
}

func lookupStringMethod(name string) (ast.ComparisonOperator, bool) {
	switch name {
	case "Contains":
		return ast.Contains, true
	case "StartsWith":
		return ast.StartsWith, true
	case "EndsWith":
		return ast.EndsWith, true
	default:
		return 0, false
	}
}
