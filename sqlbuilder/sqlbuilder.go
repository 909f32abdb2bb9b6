// Package sqlbuilder renders a compiled query specification into a
// parameterized SELECT statement. It only produces text and arguments;
// executing the statement belongs to whatever repository consumes it.
package sqlbuilder

import (
	"fmt"
	"slices"
	"strings"

	"github.com/thisisjab/queryspec/ast"
	"github.com/thisisjab/queryspec/fault"
	"github.com/thisisjab/queryspec/spec"
)

// Options holds configuration for the SQL query builder.
type Options struct {
	// Table is the name of the table to select from.
	Table string

	// Columns is the list of columns to SELECT. If empty, SELECT *.
	Columns []string

	// AllowedOrderFields is a whitelist of field names permitted in
	// ORDER BY clauses. This prevents injection through malicious sort
	// parameters. If empty, any resolvable field may be used.
	AllowedOrderFields []string
}

// Builder renders SELECT queries with WHERE, ORDER BY, LIMIT and OFFSET
// clauses from query specifications.
type Builder struct {
	opts Options
}

// New creates a builder with the given options.
func New(opts Options) *Builder {
	return &Builder{opts: opts}
}

// Result holds the generated SQL query and its arguments.
type Result struct {
	Query string
	Args  []any
}

// Build renders a complete SELECT statement from a query specification.
func Build[T any](b *Builder, q *spec.Query[T]) (Result, error) {
	if b.opts.Table == "" {
		return Result{}, fault.New(fault.BadInputCode, "table name is required")
	}

	selectCols := "*"
	if len(b.opts.Columns) > 0 {
		selectCols = strings.Join(b.opts.Columns, ", ")
	}

	parts := []string{fmt.Sprintf("SELECT %s FROM %s", selectCols, b.opts.Table)}
	var args []any

	where, whereArgs, err := b.renderExpr(q.Predicate())
	if err != nil {
		return Result{}, fmt.Errorf("failed to build where clause: %w", err)
	}
	if where != "" {
		parts = append(parts, "WHERE "+where)
		args = append(args, whereArgs...)
	}

	orderBy, err := b.renderOrderBy(q.Orders.Descriptors())
	if err != nil {
		return Result{}, fmt.Errorf("failed to build order by clause: %w", err)
	}
	if orderBy != "" {
		parts = append(parts, orderBy)
	}

	if take, ok := q.Take(); ok {
		parts = append(parts, fmt.Sprintf("LIMIT %d", take))
	}
	if skip, ok := q.Skip(); ok {
		parts = append(parts, fmt.Sprintf("OFFSET %d", skip))
	}

	return Result{Query: strings.Join(parts, " "), Args: args}, nil
}

// renderExpr recursively walks the expression tree and generates SQL.
func (b *Builder) renderExpr(e ast.Expr) (string, []any, error) {
	if e == nil {
		return "", nil, nil
	}

	switch n := e.(type) {
	case *ast.Logical:
		op := "AND"
		if n.Op == ast.OrElse {
			op = "OR"
		}
		left, leftArgs, err := b.renderExpr(n.Left)
		if err != nil {
			return "", nil, err
		}
		right, rightArgs, err := b.renderExpr(n.Right)
		if err != nil {
			return "", nil, err
		}
		// Wrap in parentheses so the database keeps the fold order.
		return fmt.Sprintf("(%s %s %s)", left, op, right), append(leftArgs, rightArgs...), nil

	case *ast.Comparison:
		return b.renderComparison(n)

	case *ast.MethodCall:
		return b.renderMethodCall(n)

	case *ast.Bool:
		if n.Value {
			return "1 = 1", nil, nil
		}
		return "1 = 0", nil, nil

	case *ast.Arithmetic:
		return "", nil, fault.New(fault.BadInputCode,
			fmt.Sprintf("expression `%s` is not a boolean predicate", n.Source()))

	default:
		return "", nil, fmt.Errorf("unknown expression node type: %T", e)
	}
}

func (b *Builder) renderComparison(n *ast.Comparison) (string, []any, error) {
	if err := checkFieldName(n.Path); err != nil {
		return "", nil, err
	}

	var op string
	switch n.Op {
	case ast.EqualTo:
		op = "="
	case ast.NotEqualTo:
		op = "<>"
	case ast.GreaterThan:
		op = ">"
	case ast.GreaterOrEqual:
		op = ">="
	case ast.LessThan:
		op = "<"
	case ast.LessOrEqual:
		op = "<="
	default:
		return "", nil, fmt.Errorf("unsupported operator: %v", n.Op)
	}

	if n.Value == nil {
		if n.Op == ast.EqualTo {
			return fmt.Sprintf("%s IS NULL", field(n.Path)), nil, nil
		}
		if n.Op == ast.NotEqualTo {
			return fmt.Sprintf("%s IS NOT NULL", field(n.Path)), nil, nil
		}
		return "", nil, fault.New(fault.BadInputCode, "null literals only support equality")
	}

	return fmt.Sprintf("%s %s ?", field(n.Path), op), []any{n.Value}, nil
}

func (b *Builder) renderMethodCall(n *ast.MethodCall) (string, []any, error) {
	if err := checkFieldName(n.Path); err != nil {
		return "", nil, err
	}

	term := escapeLike(n.Term)

	var pattern string
	switch n.Op {
	case ast.Contains:
		pattern = "%" + term + "%"
	case ast.StartsWith:
		pattern = term + "%"
	case ast.EndsWith:
		pattern = "%" + term
	default:
		return "", nil, fmt.Errorf("unsupported string method: %v", n.Op)
	}

	return fmt.Sprintf(`%s LIKE ? ESCAPE '\'`, field(n.Path)), []any{pattern}, nil
}

func (b *Builder) renderOrderBy(orders []spec.OrderDescriptor) (string, error) {
	if len(orders) == 0 {
		return "", nil
	}

	var parts []string
	for _, o := range orders {
		if err := checkFieldName(o.Property); err != nil {
			return "", err
		}
		if len(b.opts.AllowedOrderFields) > 0 && !slices.Contains(b.opts.AllowedOrderFields, o.Property) {
			return "", fault.New(fault.BadInputCode,
				fmt.Sprintf("field `%s` is not allowed for sorting", o.Property))
		}

		direction := "ASC"
		if o.Direction.IsDescending() {
			direction = "DESC"
		}
		parts = append(parts, fmt.Sprintf("%s %s", field(o.Property), direction))
	}

	return "ORDER BY " + strings.Join(parts, ", "), nil
}

// field renders a dotted property path as a SQL column reference.
func field(path string) string {
	return strings.ReplaceAll(path, ".", "_")
}

// checkFieldName rejects property paths that could smuggle SQL syntax.
func checkFieldName(path string) error {
	if path == "" {
		return fault.New(fault.BadInputCode, "field name is empty")
	}
	for _, r := range path {
		ok := r == '.' || r == '_' ||
			r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
		if !ok {
			return fault.New(fault.BadInputCode, fmt.Sprintf("invalid field name: %s", path))
		}
	}
	return nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
