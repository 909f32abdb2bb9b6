package metadata

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/thisisjab/queryspec/fault"
)

type segment struct {
	name  string
	index []int // struct field index chain; nil for dynamic lookup
}

// Accessor is a resolved dotted property path for one target type. It is
// built once per (type, path) pair and cached, so repeated evaluation does
// not pay for reflection lookups again.
type Accessor struct {
	path     string
	segments []segment
	typ      reflect.Type // nil when the terminal type is only known at runtime
}

type cacheKey struct {
	t    reflect.Type
	path string
}

var cache sync.Map

// Resolve validates a dotted property path against a target type and
// returns a reusable accessor. A nil type, or a type that bottoms out in
// maps or interfaces, resolves dynamically: the path is accepted and
// looked up per entity at evaluation time.
func Resolve(t reflect.Type, path string) (*Accessor, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fault.New(fault.PropertyNotFoundCode, "property path is empty")
	}

	key := cacheKey{t: t, path: path}
	if v, ok := cache.Load(key); ok {
		return v.(*Accessor), nil
	}

	acc, err := resolve(t, path)
	if err != nil {
		return nil, err
	}

	cache.Store(key, acc)
	return acc, nil
}

func resolve(t reflect.Type, path string) (*Accessor, error) {
	acc := &Accessor{path: path}
	cur := t

	for _, name := range strings.Split(path, ".") {
		if name == "" {
			return nil, fault.New(fault.PropertyNotFoundCode, fmt.Sprintf("property path `%s` is malformed", path))
		}

		if cur == nil {
			acc.segments = append(acc.segments, segment{name: name})
			continue
		}

		for cur.Kind() == reflect.Pointer {
			cur = cur.Elem()
		}

		switch cur.Kind() {
		case reflect.Struct:
			f, ok := cur.FieldByName(name)
			if !ok || f.PkgPath != "" {
				return nil, fault.New(fault.PropertyNotFoundCode, fmt.Sprintf("type %s has no property `%s`", cur, name))
			}
			acc.segments = append(acc.segments, segment{name: name, index: f.Index})
			cur = f.Type
		case reflect.Map:
			if cur.Key().Kind() != reflect.String {
				return nil, fault.New(fault.PropertyNotFoundCode, fmt.Sprintf("type %s is not addressable by property name", cur))
			}
			acc.segments = append(acc.segments, segment{name: name})
			cur = cur.Elem()
			if cur.Kind() == reflect.Interface {
				cur = nil
			}
		case reflect.Interface:
			acc.segments = append(acc.segments, segment{name: name})
			cur = nil
		default:
			return nil, fault.New(fault.PropertyNotFoundCode, fmt.Sprintf("type %s has no property `%s`", cur, name))
		}
	}

	if cur != nil && cur.Kind() == reflect.Interface {
		cur = nil
	}
	acc.typ = cur

	return acc, nil
}

// Path returns the dotted path the accessor was resolved from.
func (a *Accessor) Path() string {
	return a.path
}

// Type returns the terminal property type, or nil when the path resolves
// dynamically and the type is only known per entity.
func (a *Accessor) Type() reflect.Type {
	return a.typ
}

// Load walks the path on one entity. The second return is false when the
// path is broken for this entity: a nil intermediate pointer, a missing
// map key, or a dynamic segment that does not exist on the concrete value.
// A valid path ending in a nil value yields (nil, true).
func (a *Accessor) Load(entity any) (any, bool) {
	v := reflect.ValueOf(entity)

	for _, s := range a.segments {
		for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
			if v.IsNil() {
				return nil, false
			}
			v = v.Elem()
		}

		switch v.Kind() {
		case reflect.Struct:
			if s.index != nil {
				// A promoted field's index chain may pass through a nil
				// embedded pointer; FieldByIndex would panic on it.
				f, err := v.FieldByIndexErr(s.index)
				if err != nil {
					return nil, false
				}
				v = f
			} else {
				f := v.FieldByName(s.name)
				if !f.IsValid() {
					return nil, false
				}
				v = f
			}
		case reflect.Map:
			if v.Type().Key().Kind() != reflect.String {
				return nil, false
			}
			mv := v.MapIndex(reflect.ValueOf(s.name).Convert(v.Type().Key()))
			if !mv.IsValid() {
				return nil, false
			}
			v = mv
		default:
			return nil, false
		}
	}

	if !v.IsValid() {
		return nil, false
	}

	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, true
		}
		v = v.Elem()
	}

	return v.Interface(), true
}

// Store assigns a value through the path on a pointer-to-struct target,
// allocating intermediate nil pointers along the way. Used by projection
// compilation; dynamic (map) destinations are handled by the caller.
func (a *Accessor) Store(target any, value any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return fault.New(fault.BadInputCode, "store target must be a non-nil pointer")
	}
	v = v.Elem()

	for i, s := range a.segments {
		for v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}

		if v.Kind() != reflect.Struct || s.index == nil {
			return fault.New(fault.PropertyNotFoundCode, fmt.Sprintf("cannot store through `%s`", a.path))
		}

		for _, fi := range s.index {
			for v.Kind() == reflect.Pointer {
				if v.IsNil() {
					v.Set(reflect.New(v.Type().Elem()))
				}
				v = v.Elem()
			}
			v = v.Field(fi)
		}

		if i == len(a.segments)-1 {
			break
		}
	}

	if !v.CanSet() {
		return fault.New(fault.BadInputCode, fmt.Sprintf("property `%s` is not settable", a.path))
	}

	rv := reflect.ValueOf(value)
	if !rv.IsValid() {
		v.Set(reflect.Zero(v.Type()))
		return nil
	}
	if rv.Type().AssignableTo(v.Type()) {
		v.Set(rv)
		return nil
	}
	if rv.Type().ConvertibleTo(v.Type()) {
		v.Set(rv.Convert(v.Type()))
		return nil
	}

	return fault.New(fault.TypeConversionCode, fmt.Sprintf("cannot assign %T to property `%s` (%s)", value, a.path, v.Type()))
}
