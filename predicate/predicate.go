// Package predicate builds single comparison and string-method nodes from
// a property path, a comparison operator, and literal text. It is the leaf
// compiler underneath both the grammar parser and the filter builders.
package predicate

import (
	"fmt"
	"reflect"

	"github.com/thisisjab/queryspec/ast"
	"github.com/thisisjab/queryspec/coerce"
	"github.com/thisisjab/queryspec/fault"
	"github.com/thisisjab/queryspec/metadata"
)

// Compile resolves the property path against the target type, coerces the
// literal to the property's type, and returns the corresponding node.
// String-method operators are only valid for string-typed (or dynamically
// resolved) properties. A nil target type compiles dynamically.
func Compile(target reflect.Type, path string, op ast.ComparisonOperator, literal string) (ast.Expr, error) {
	if path == "" {
		return nil, fault.New(fault.BadInputCode, "property path is empty")
	}

	acc, err := metadata.Resolve(target, path)
	if err != nil {
		return nil, err
	}

	if op.IsStringMethod() {
		if t := acc.Type(); t != nil && t.Kind() != reflect.String {
			return nil, fault.New(fault.PropertyNotFoundCode,
				fmt.Sprintf("property `%s` is %s, %s requires a string property", path, t, op))
		}
		return &ast.MethodCall{Path: path, Op: op, Term: literal}, nil
	}

	value, err := coerce.Literal(literal, acc.Type())
	if err != nil {
		return nil, err
	}

	return &ast.Comparison{Path: path, Op: op, Value: value}, nil
}

// AlwaysTrue is the compilation of a nil filter descriptor: an explicit
// policy case, not an error.
func AlwaysTrue() ast.Expr {
	return &ast.Bool{Value: true}
}

// Selector is an eagerly validated property selector for one entity type.
type Selector[T any] struct {
	path string
}

// Field builds a typed selector. The path must be a plain member access:
// dotted identifiers only, no calls, indexes, or other expression syntax,
// and it must resolve on T.
func Field[T any](path string) (Selector[T], error) {
	if !isMemberAccess(path) {
		return Selector[T]{}, fault.New(fault.BadInputCode,
			fmt.Sprintf("selector `%s` is not a plain member access", path))
	}
	if _, err := metadata.Resolve(typeOf[T](), path); err != nil {
		return Selector[T]{}, err
	}
	return Selector[T]{path: path}, nil
}

// Path returns the validated property path.
func (s Selector[T]) Path() string {
	return s.path
}

// Compare compiles a predicate node for the selected property.
func (s Selector[T]) Compare(op ast.ComparisonOperator, literal string) (ast.Expr, error) {
	if s.path == "" {
		return nil, fault.New(fault.BadInputCode, "selector is empty")
	}
	return Compile(typeOf[T](), s.path, op, literal)
}

func isMemberAccess(path string) bool {
	if path == "" {
		return false
	}
	start := true
	for _, r := range path {
		switch {
		case r == '.':
			if start {
				return false
			}
			start = true
		case r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
			start = false
		case r >= '0' && r <= '9':
			if start {
				return false
			}
		default:
			return false
		}
	}
	return !start
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
