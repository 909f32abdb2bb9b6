package spec

import (
	"github.com/thisisjab/queryspec/ast"
	"github.com/thisisjab/queryspec/coerce"
	"github.com/thisisjab/queryspec/fault"
	"github.com/thisisjab/queryspec/metadata"
	"github.com/thisisjab/queryspec/predicate"
)

// FilterBuilder is an ordered, index-addressable list of filter
// descriptors for one entity type. Add validates eagerly: an unknown
// property or an unconvertible literal panics with a fault, since a
// programmatic Add is programmer wiring, not untrusted text. Duplicate
// adds are allowed and produce duplicate entries.
type FilterBuilder[T any] struct {
	items []*FilterDescriptor
}

func NewFilterBuilder[T any]() *FilterBuilder[T] {
	return &FilterBuilder[T]{}
}

// Add appends a comparison built from a plain property name.
func (b *FilterBuilder[T]) Add(property string, op ast.ComparisonOperator, value string) *FilterBuilder[T] {
	return b.AddDescriptor(&FilterDescriptor{Property: property, Operator: op, Value: value})
}

// AddSelector appends a comparison built from an eagerly validated
// typed selector.
func (b *FilterBuilder[T]) AddSelector(s predicate.Selector[T], op ast.ComparisonOperator, value string) *FilterBuilder[T] {
	return b.AddDescriptor(&FilterDescriptor{Property: s.Path(), Operator: op, Value: value})
}

// AddDescriptor appends a ready-made descriptor. A nil descriptor is
// programmer error and panics.
func (b *FilterBuilder[T]) AddDescriptor(d *FilterDescriptor) *FilterBuilder[T] {
	if d == nil {
		panic(fault.New(fault.BadInputCode, "filter descriptor is nil"))
	}

	if _, err := predicate.Compile(typeOf[T](), d.Property, d.Operator, d.Value); err != nil {
		panic(err)
	}

	if d.ValueType == "" {
		if acc, err := metadata.Resolve(typeOf[T](), d.Property); err == nil {
			d.ValueType = coerce.TypeName(acc.Type())
		}
	}

	b.items = append(b.items, d)
	return b
}

// Remove drops the first descriptor matching property, operator and
// value. Removing an absent entry is a no-op, not an error.
func (b *FilterBuilder[T]) Remove(property string, op ast.ComparisonOperator, value string) *FilterBuilder[T] {
	for i, d := range b.items {
		if d.Property == property && d.Operator == op && d.Value == value {
			b.items = append(b.items[:i], b.items[i+1:]...)
			break
		}
	}
	return b
}

// RemoveDescriptor drops the first entry equal to d; a no-op when absent.
func (b *FilterBuilder[T]) RemoveDescriptor(d *FilterDescriptor) *FilterBuilder[T] {
	if d == nil {
		return b
	}
	for i, it := range b.items {
		if it == d || *it == *d {
			b.items = append(b.items[:i], b.items[i+1:]...)
			break
		}
	}
	return b
}

// Clear empties the list unconditionally.
func (b *FilterBuilder[T]) Clear() *FilterBuilder[T] {
	b.items = nil
	return b
}

func (b *FilterBuilder[T]) Len() int {
	return len(b.items)
}

// At returns the descriptor at index i.
func (b *FilterBuilder[T]) At(i int) *FilterDescriptor {
	return b.items[i]
}

// Descriptors returns a copy of the list in order.
func (b *FilterBuilder[T]) Descriptors() []FilterDescriptor {
	out := make([]FilterDescriptor, len(b.items))
	for i, d := range b.items {
		out[i] = *d
	}
	return out
}

// Compile folds all descriptors into one AND-combined predicate, in list
// order. An empty list compiles to nil (no filter).
func (b *FilterBuilder[T]) Compile() ast.Expr {
	var tree ast.Expr
	for _, d := range b.items {
		cmp := compileDescriptor[T](d)
		if tree == nil {
			tree = cmp
		} else {
			tree = &ast.Logical{Op: ast.AndAlso, Left: tree, Right: cmp}
		}
	}
	return tree
}

// compileDescriptor compiles one descriptor; a nil descriptor is the
// explicit always-true policy case.
func compileDescriptor[T any](d *FilterDescriptor) ast.Expr {
	if d == nil {
		return predicate.AlwaysTrue()
	}
	e, err := predicate.Compile(typeOf[T](), d.Property, d.Operator, d.Value)
	if err != nil {
		// Descriptors were validated at Add/read time; a failure here
		// means the descriptor was mutated into an invalid state.
		panic(err)
	}
	return e
}
