package spec

import (
	"reflect"
	"sort"

	"github.com/thisisjab/queryspec/ast"
	"github.com/thisisjab/queryspec/fault"
	"github.com/thisisjab/queryspec/metadata"
	"github.com/thisisjab/queryspec/predicate"
)

// OrderBuilder is an ordered list of sort criteria. The first Add fixes
// the primary direction; every later Add's requested direction is
// rewritten to the matching "Then" variant regardless of what was asked
// for, so a list is always one primary followed by tie-breakers.
type OrderBuilder[T any] struct {
	items []*OrderDescriptor
}

func NewOrderBuilder[T any]() *OrderBuilder[T] {
	return &OrderBuilder[T]{}
}

// Add appends a sort criterion. An unknown property panics with a fault.
func (b *OrderBuilder[T]) Add(property string, direction OrderDirection) *OrderBuilder[T] {
	return b.AddDescriptor(&OrderDescriptor{Property: property, Direction: direction})
}

// AddSelector appends a sort criterion from a typed selector.
func (b *OrderBuilder[T]) AddSelector(s predicate.Selector[T], direction OrderDirection) *OrderBuilder[T] {
	return b.AddDescriptor(&OrderDescriptor{Property: s.Path(), Direction: direction})
}

// AddDescriptor appends a ready-made descriptor, normalizing its
// direction to keep the primary/then invariant.
func (b *OrderBuilder[T]) AddDescriptor(d *OrderDescriptor) *OrderBuilder[T] {
	if d == nil {
		panic(fault.New(fault.BadInputCode, "order descriptor is nil"))
	}
	if _, err := metadata.Resolve(typeOf[T](), d.Property); err != nil {
		panic(err)
	}

	if len(b.items) == 0 {
		d.Direction = d.Direction.primary()
	} else {
		d.Direction = d.Direction.then()
	}

	b.items = append(b.items, d)
	return b
}

// Remove drops the first criterion for the property, in any direction
// variant. Removing an absent entry is a no-op. The remaining list is
// re-normalized so a promoted tie-breaker becomes the new primary.
func (b *OrderBuilder[T]) Remove(property string) *OrderBuilder[T] {
	for i, d := range b.items {
		if d.Property == property {
			b.items = append(b.items[:i], b.items[i+1:]...)
			break
		}
	}
	b.normalize()
	return b
}

// Clear empties the list unconditionally.
func (b *OrderBuilder[T]) Clear() *OrderBuilder[T] {
	b.items = nil
	return b
}

func (b *OrderBuilder[T]) Len() int {
	return len(b.items)
}

// At returns the descriptor at index i.
func (b *OrderBuilder[T]) At(i int) *OrderDescriptor {
	return b.items[i]
}

// Descriptors returns a copy of the list in order.
func (b *OrderBuilder[T]) Descriptors() []OrderDescriptor {
	out := make([]OrderDescriptor, len(b.items))
	for i, d := range b.items {
		out[i] = *d
	}
	return out
}

func (b *OrderBuilder[T]) normalize() {
	for i, d := range b.items {
		if i == 0 {
			d.Direction = d.Direction.primary()
		} else {
			d.Direction = d.Direction.then()
		}
	}
}

// Sort returns a sorted copy of src, applying the criteria as one stable
// multi-key comparison in list order. Values that cannot be ordered
// against each other keep their relative positions.
func (b *OrderBuilder[T]) Sort(src []T) []T {
	out := make([]T, len(src))
	copy(out, src)

	if len(b.items) == 0 {
		return out
	}

	accessors := make([]*metadata.Accessor, len(b.items))
	for i, d := range b.items {
		acc, err := metadata.Resolve(reflect.TypeOf((*T)(nil)).Elem(), d.Property)
		if err != nil {
			panic(err)
		}
		accessors[i] = acc
	}

	sort.SliceStable(out, func(i, j int) bool {
		for k, d := range b.items {
			va, okA := accessors[k].Load(out[i])
			vb, okB := accessors[k].Load(out[j])

			// Missing values sort first.
			if !okA || va == nil || !okB || vb == nil {
				aMissing := !okA || va == nil
				bMissing := !okB || vb == nil
				if aMissing == bMissing {
					continue
				}
				if d.Direction.IsDescending() {
					return bMissing
				}
				return aMissing
			}

			cmp, err := ast.CompareValues(va, vb)
			if err != nil || cmp == 0 {
				continue
			}
			if d.Direction.IsDescending() {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})

	return out
}
