// Package spec holds the query specification surface: descriptors, the
// ordered builder family, the Query aggregate, and the JSON converters.
//
// Descriptors capture one unit of filter/order/select/search intent prior
// to compilation. They are created only through a builder's Add methods or
// JSON deserialization, and each builder instance exclusively owns its
// descriptor list.
package spec

import (
	"reflect"

	"github.com/thisisjab/queryspec/ast"
	"github.com/thisisjab/queryspec/fault"
)

// FilterDescriptor describes one comparison between a property and a
// literal. Value holds the literal as text; it is coerced to the
// property's type when the descriptor is validated and compiled.
type FilterDescriptor struct {
	Property  string
	ValueType string
	Value     string
	Operator  ast.ComparisonOperator
}

// OrderDirection is the requested sort direction of one order descriptor.
// Only the first descriptor in a list carries a primary direction; later
// descriptors are rewritten to the matching "Then" variant.
type OrderDirection uint8

const (
	OrderBy OrderDirection = iota
	OrderByDescending
	ThenBy
	ThenByDescending
)

func (d OrderDirection) String() string {
	switch d {
	case OrderBy:
		return "OrderBy"
	case OrderByDescending:
		return "OrderByDescending"
	case ThenBy:
		return "ThenBy"
	case ThenByDescending:
		return "ThenByDescending"
	}
	return "unknown"
}

// ParseOrderDirection is the inverse of String, used by the JSON reader.
func ParseOrderDirection(s string) (OrderDirection, error) {
	switch s {
	case "OrderBy":
		return OrderBy, nil
	case "OrderByDescending":
		return OrderByDescending, nil
	case "ThenBy":
		return ThenBy, nil
	case "ThenByDescending":
		return ThenByDescending, nil
	}
	return 0, fault.New(fault.BadFormatCode, "unknown order direction `"+s+"`")
}

// IsDescending reports the effective direction regardless of variant.
func (d OrderDirection) IsDescending() bool {
	return d == OrderByDescending || d == ThenByDescending
}

func (d OrderDirection) primary() OrderDirection {
	if d.IsDescending() {
		return OrderByDescending
	}
	return OrderBy
}

func (d OrderDirection) then() OrderDirection {
	if d.IsDescending() {
		return ThenByDescending
	}
	return ThenBy
}

// OrderDescriptor describes one sorting criterion.
type OrderDescriptor struct {
	Property  string
	Direction OrderDirection
}

// SelectDescriptor maps one source property into a destination member of
// the projection result.
type SelectDescriptor struct {
	Source      string
	Destination string
}

// SearchDescriptor describes one substring search term. Descriptors that
// share a Group are OR-combined; distinct groups are AND-combined.
type SearchDescriptor struct {
	Property string
	Term     string
	Group    int
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// dynamicType reports whether values of t are shaped per instance (maps,
// interfaces) rather than by a fixed set of members.
func dynamicType(t reflect.Type) bool {
	if t == nil {
		return true
	}
	switch t.Kind() {
	case reflect.Map, reflect.Interface:
		return true
	default:
		return false
	}
}
