package spec

import (
	"sort"

	"github.com/thisisjab/queryspec/ast"
	"github.com/thisisjab/queryspec/fault"
	"github.com/thisisjab/queryspec/predicate"
)

// SearchBuilder is an ordered list of substring ("LIKE") search terms with
// SQL-like grouping: terms sharing a group are OR-combined, distinct
// groups are AND-combined.
type SearchBuilder[T any] struct {
	items []*SearchDescriptor
}

func NewSearchBuilder[T any]() *SearchBuilder[T] {
	return &SearchBuilder[T]{}
}

// Add appends a search term. The property must resolve on T and be
// string-typed; anything else panics with a fault.
func (b *SearchBuilder[T]) Add(property, term string, group int) *SearchBuilder[T] {
	return b.AddDescriptor(&SearchDescriptor{Property: property, Term: term, Group: group})
}

// AddSelector appends a search term from a typed selector.
func (b *SearchBuilder[T]) AddSelector(s predicate.Selector[T], term string, group int) *SearchBuilder[T] {
	return b.AddDescriptor(&SearchDescriptor{Property: s.Path(), Term: term, Group: group})
}

// AddDescriptor appends a ready-made descriptor. A nil descriptor panics.
func (b *SearchBuilder[T]) AddDescriptor(d *SearchDescriptor) *SearchBuilder[T] {
	if d == nil {
		panic(fault.New(fault.BadInputCode, "search descriptor is nil"))
	}
	if _, err := predicate.Compile(typeOf[T](), d.Property, ast.Contains, d.Term); err != nil {
		panic(err)
	}
	b.items = append(b.items, d)
	return b
}

// Remove drops the first descriptor matching property, term and group;
// a no-op when absent.
func (b *SearchBuilder[T]) Remove(property, term string, group int) *SearchBuilder[T] {
	for i, d := range b.items {
		if d.Property == property && d.Term == term && d.Group == group {
			b.items = append(b.items[:i], b.items[i+1:]...)
			break
		}
	}
	return b
}

// Clear empties the list unconditionally.
func (b *SearchBuilder[T]) Clear() *SearchBuilder[T] {
	b.items = nil
	return b
}

func (b *SearchBuilder[T]) Len() int {
	return len(b.items)
}

// At returns the descriptor at index i.
func (b *SearchBuilder[T]) At(i int) *SearchDescriptor {
	return b.items[i]
}

// Descriptors returns a copy of the list in order.
func (b *SearchBuilder[T]) Descriptors() []SearchDescriptor {
	out := make([]SearchDescriptor, len(b.items))
	for i, d := range b.items {
		out[i] = *d
	}
	return out
}

// Compile folds the descriptors into one predicate: OR within each group
// in add order, AND across groups in ascending group order. An empty list
// compiles to nil (no search).
func (b *SearchBuilder[T]) Compile() ast.Expr {
	if len(b.items) == 0 {
		return nil
	}

	grouped := make(map[int][]*SearchDescriptor)
	var groups []int
	for _, d := range b.items {
		if _, seen := grouped[d.Group]; !seen {
			groups = append(groups, d.Group)
		}
		grouped[d.Group] = append(grouped[d.Group], d)
	}
	sort.Ints(groups)

	var tree ast.Expr
	for _, g := range groups {
		var clause ast.Expr
		for _, d := range grouped[g] {
			term := ast.Expr(&ast.MethodCall{Path: d.Property, Op: ast.Contains, Term: d.Term})
			if clause == nil {
				clause = term
			} else {
				clause = &ast.Logical{Op: ast.OrElse, Left: clause, Right: term}
			}
		}
		if tree == nil {
			tree = clause
		} else {
			tree = &ast.Logical{Op: ast.AndAlso, Left: tree, Right: clause}
		}
	}

	return tree
}
