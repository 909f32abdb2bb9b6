package spec

import (
	"fmt"
	"reflect"

	"github.com/thisisjab/queryspec/fault"
	"github.com/thisisjab/queryspec/metadata"
)

// SelectBuilder is an ordered list of projection mappings from a source
// entity type T into a result type R. R may be a concrete struct or a
// dynamic shape (map / any); dynamic destinations are keyed by path text.
type SelectBuilder[T, R any] struct {
	items []*SelectDescriptor
}

func NewSelectBuilder[T, R any]() *SelectBuilder[T, R] {
	return &SelectBuilder[T, R]{}
}

// Add appends a mapping with the destination defaulted: a same-named
// member of R, or the source path itself for dynamic result shapes. When
// R has no same-named compatible member, an explicit destination is
// required and Add panics.
func (b *SelectBuilder[T, R]) Add(source string) *SelectBuilder[T, R] {
	return b.AddDescriptor(&SelectDescriptor{Source: source})
}

// AddAs appends a mapping with an explicit destination member.
func (b *SelectBuilder[T, R]) AddAs(source, destination string) *SelectBuilder[T, R] {
	return b.AddDescriptor(&SelectDescriptor{Source: source, Destination: destination})
}

// AddDescriptor appends a ready-made descriptor after validating both
// ends of the mapping. A nil descriptor panics.
func (b *SelectBuilder[T, R]) AddDescriptor(d *SelectDescriptor) *SelectBuilder[T, R] {
	if d == nil {
		panic(fault.New(fault.BadInputCode, "select descriptor is nil"))
	}

	srcAcc, err := metadata.Resolve(typeOf[T](), d.Source)
	if err != nil {
		panic(err)
	}

	rt := typeOf[R]()

	if d.Destination == "" {
		d.Destination = d.Source
		if !dynamicType(rt) {
			if _, err := metadata.Resolve(rt, d.Source); err != nil {
				panic(fault.New(fault.BadInputCode,
					fmt.Sprintf("type %s has no member `%s`; an explicit destination is required", rt, d.Source)).WithOriginal(err))
			}
		}
	}

	if !dynamicType(rt) {
		dstAcc, err := metadata.Resolve(rt, d.Destination)
		if err != nil {
			panic(err)
		}
		if err := checkAssignable(srcAcc.Type(), dstAcc.Type()); err != nil {
			panic(err)
		}
	}

	b.items = append(b.items, d)
	return b
}

// Remove drops the first mapping for the source path; a no-op when absent.
func (b *SelectBuilder[T, R]) Remove(source string) *SelectBuilder[T, R] {
	for i, d := range b.items {
		if d.Source == source {
			b.items = append(b.items[:i], b.items[i+1:]...)
			break
		}
	}
	return b
}

// Clear empties the list unconditionally.
func (b *SelectBuilder[T, R]) Clear() *SelectBuilder[T, R] {
	b.items = nil
	return b
}

func (b *SelectBuilder[T, R]) Len() int {
	return len(b.items)
}

// At returns the descriptor at index i.
func (b *SelectBuilder[T, R]) At(i int) *SelectDescriptor {
	return b.items[i]
}

// Descriptors returns a copy of the list in order.
func (b *SelectBuilder[T, R]) Descriptors() []SelectDescriptor {
	out := make([]SelectDescriptor, len(b.items))
	for i, d := range b.items {
		out[i] = *d
	}
	return out
}

// Compile builds the projection function. With zero descriptors:
// identical source and result types compile to the identity, a dynamic
// result type compiles to no projection at all (nil function, nil error;
// the caller should skip the select stage), and differing concrete types
// fail as an ambiguous projection. Unmapped destination members keep
// their zero values.
func (b *SelectBuilder[T, R]) Compile() (func(T) (R, error), error) {
	st := typeOf[T]()
	rt := typeOf[R]()

	if len(b.items) == 0 {
		if st == rt {
			return func(e T) (R, error) {
				return any(e).(R), nil
			}, nil
		}
		if dynamicType(rt) {
			return nil, nil
		}
		return nil, fault.New(fault.BadInputCode,
			fmt.Sprintf("projection from %s to %s is ambiguous without select descriptors", st, rt))
	}

	sources := make([]*metadata.Accessor, len(b.items))
	for i, d := range b.items {
		acc, err := metadata.Resolve(st, d.Source)
		if err != nil {
			return nil, err
		}
		sources[i] = acc
	}

	if dynamicType(rt) {
		items := b.items
		return func(e T) (R, error) {
			out := make(map[string]any, len(items))
			for i, d := range items {
				if v, ok := sources[i].Load(e); ok {
					out[d.Destination] = v
				}
			}
			r, ok := any(out).(R)
			if !ok {
				var zero R
				return zero, fault.New(fault.TypeConversionCode,
					fmt.Sprintf("dynamic projection result type must accept map[string]any, got %s", rt))
			}
			return r, nil
		}, nil
	}

	destinations := make([]*metadata.Accessor, len(b.items))
	for i, d := range b.items {
		acc, err := metadata.Resolve(rt, d.Destination)
		if err != nil {
			return nil, err
		}
		destinations[i] = acc
	}

	return func(e T) (R, error) {
		out := new(R)
		for i := range b.items {
			v, ok := sources[i].Load(e)
			if !ok {
				continue
			}
			if err := destinations[i].Store(out, v); err != nil {
				var zero R
				return zero, err
			}
		}
		return *out, nil
	}, nil
}

func checkAssignable(src, dst reflect.Type) error {
	if src == nil || dst == nil {
		return nil
	}
	if src.AssignableTo(dst) || src.ConvertibleTo(dst) {
		return nil
	}
	return fault.New(fault.TypeConversionCode,
		fmt.Sprintf("cannot project %s into %s", src, dst))
}
