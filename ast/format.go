package ast

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Lambda renders the full canonical lambda form of an expression,
// e.g. `x => ((x.A == 1) AndAlso (x.B == 2))`.
func Lambda(e Expr) string {
	if e == nil {
		return ""
	}
	return "x => " + e.Canonical()
}

func (n *Comparison) Canonical() string {
	return fmt.Sprintf("(x.%s %s %s)", n.Path, n.Op, FormatLiteral(n.Value))
}

func (n *Comparison) Source() string {
	return fmt.Sprintf("(%s %s %s)", n.Path, n.Op, FormatLiteral(n.Value))
}

func (n *Logical) Canonical() string {
	return fmt.Sprintf("(%s %s %s)", n.Left.Canonical(), n.Op, n.Right.Canonical())
}

func (n *Logical) Source() string {
	sym := "&&"
	if n.Op == OrElse {
		sym = "||"
	}
	return fmt.Sprintf("(%s %s %s)", n.Left.Source(), sym, n.Right.Source())
}

func (n *MethodCall) Canonical() string {
	return fmt.Sprintf("x.%s.%s(%s)", n.Path, n.Op, quote(n.Term))
}

func (n *MethodCall) Source() string {
	return fmt.Sprintf("%s.%s(%s)", n.Path, n.Op, quote(n.Term))
}

func (n *Arithmetic) Canonical() string {
	return fmt.Sprintf("(x.%s %s %s)", n.Path, n.Op, n.operand("x."))
}

func (n *Arithmetic) Source() string {
	return fmt.Sprintf("(%s %s %s)", n.Path, n.Op, n.operand(""))
}

func (n *Arithmetic) operand(receiver string) string {
	if n.OperandPath != "" {
		return receiver + n.OperandPath
	}
	return LiteralText(n.OperandValue)
}

func (n *Bool) Canonical() string {
	if n.Value {
		return "True"
	}
	return "False"
}

// Source returns empty text: constant nodes arise only from the nil
// descriptor policy and are never serialized.
func (n *Bool) Source() string {
	return ""
}

// FormatLiteral renders a coerced literal value back into grammar text.
// String-like values are quoted so the parser reads them back verbatim.
func FormatLiteral(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return quote(t)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return quote(t.Format(time.RFC3339Nano))
	case uuid.UUID:
		return quote(t.String())
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "null"
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.String:
		return quote(rv.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	default:
		return fmt.Sprintf("%v", v)
	}
}

// LiteralText renders a literal value as plain unquoted text, the form
// stored on filter descriptors.
func LiteralText(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case uuid.UUID:
		return t.String()
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "null"
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Float32 || rv.Kind() == reflect.Float64 {
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	}

	return fmt.Sprintf("%v", rv.Interface())
}

// quote mirrors the lexer's quoted-string reading: only quotes and
// backslashes are escaped, everything else passes through verbatim.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}
