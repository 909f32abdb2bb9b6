package spec

import (
	"bytes"
	"encoding/json"

	"github.com/thisisjab/queryspec/ast"
	"github.com/thisisjab/queryspec/coerce"
	"github.com/thisisjab/queryspec/fault"
	"github.com/thisisjab/queryspec/metadata"
	"github.com/thisisjab/queryspec/parser"
	"github.com/thisisjab/queryspec/predicate"
)

// The wire format for a filter descriptor is its defining expression in
// grammar text, e.g. `(Name == "John")`. Reading re-derives the tree
// through the grammar parser, so the writer's stringification and the
// parser's conventions must stay in lockstep.
type filterElement struct {
	ValueType  string `json:"valueType,omitempty"`
	Expression string `json:"expression"`
}

type orderElement struct {
	Property  string `json:"property"`
	Direction string `json:"direction"`
}

type selectElement struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

type searchElement struct {
	Property string `json:"property"`
	Term     string `json:"term"`
	Group    int    `json:"group"`
}

func formatFault(msg string, err error) error {
	f := fault.New(fault.BadFormatCode, msg)
	if err != nil {
		f = f.WithOriginal(err)
	}
	return f
}

// readElements demands a top-level JSON array and decodes every element
// strictly; a single invalid element aborts the entire read.
func readElements[E any](data []byte) ([]E, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, formatFault("descriptor list must be a JSON array", err)
	}
	// Unmarshalling `null` into a slice is a silent no-op; only an actual
	// array token is acceptable here.
	if raw == nil {
		return nil, formatFault("descriptor list must be a JSON array", nil)
	}

	out := make([]E, len(raw))
	for i, r := range raw {
		dec := json.NewDecoder(bytes.NewReader(r))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&out[i]); err != nil {
			return nil, formatFault("descriptor element has an invalid shape", err)
		}
	}
	return out, nil
}

func (b *FilterBuilder[T]) MarshalJSON() ([]byte, error) {
	elements := make([]filterElement, len(b.items))
	for i, d := range b.items {
		e, err := predicate.Compile(typeOf[T](), d.Property, d.Operator, d.Value)
		if err != nil {
			return nil, err
		}
		elements[i] = filterElement{ValueType: d.ValueType, Expression: e.Source()}
	}
	return json.Marshal(elements)
}

func (b *FilterBuilder[T]) UnmarshalJSON(data []byte) error {
	elements, err := readElements[filterElement](data)
	if err != nil {
		return err
	}

	p := parser.New(typeOf[T]())
	items := make([]*FilterDescriptor, len(elements))

	for i, el := range elements {
		if el.Expression == "" {
			return formatFault("filter element is missing its expression", nil)
		}

		e := p.Parse(el.Expression)
		if e == nil {
			return formatFault("filter expression `"+el.Expression+"` cannot be parsed", nil)
		}

		d, err := descriptorFromExpr[T](e)
		if err != nil {
			return err
		}
		items[i] = d
	}

	b.items = items
	return nil
}

// descriptorFromExpr deconstructs a single-comparison tree back into a
// filter descriptor. Compound trees are not valid descriptor elements.
func descriptorFromExpr[T any](e ast.Expr) (*FilterDescriptor, error) {
	switch n := e.(type) {
	case *ast.Comparison:
		d := &FilterDescriptor{Property: n.Path, Operator: n.Op, Value: ast.LiteralText(n.Value)}
		if acc, err := metadata.Resolve(typeOf[T](), n.Path); err == nil {
			d.ValueType = coerce.TypeName(acc.Type())
		}
		return d, nil
	case *ast.MethodCall:
		d := &FilterDescriptor{Property: n.Path, Operator: n.Op, Value: n.Term}
		if acc, err := metadata.Resolve(typeOf[T](), n.Path); err == nil {
			d.ValueType = coerce.TypeName(acc.Type())
		}
		return d, nil
	default:
		return nil, formatFault("filter element must hold exactly one comparison", nil)
	}
}

func (b *OrderBuilder[T]) MarshalJSON() ([]byte, error) {
	elements := make([]orderElement, len(b.items))
	for i, d := range b.items {
		elements[i] = orderElement{Property: d.Property, Direction: d.Direction.String()}
	}
	return json.Marshal(elements)
}

func (b *OrderBuilder[T]) UnmarshalJSON(data []byte) error {
	elements, err := readElements[orderElement](data)
	if err != nil {
		return err
	}

	items := make([]*OrderDescriptor, len(elements))
	for i, el := range elements {
		if el.Property == "" {
			return formatFault("order element is missing its property", nil)
		}
		if _, err := metadata.Resolve(typeOf[T](), el.Property); err != nil {
			return formatFault("order property `"+el.Property+"` does not resolve", err)
		}
		dir, err := ParseOrderDirection(el.Direction)
		if err != nil {
			return err
		}
		items[i] = &OrderDescriptor{Property: el.Property, Direction: dir}
	}

	b.items = items
	b.normalize()
	return nil
}

func (b *SelectBuilder[T, R]) MarshalJSON() ([]byte, error) {
	elements := make([]selectElement, len(b.items))
	for i, d := range b.items {
		elements[i] = selectElement{Source: d.Source, Destination: d.Destination}
	}
	return json.Marshal(elements)
}

func (b *SelectBuilder[T, R]) UnmarshalJSON(data []byte) error {
	elements, err := readElements[selectElement](data)
	if err != nil {
		return err
	}

	items := make([]*SelectDescriptor, len(elements))
	for i, el := range elements {
		if el.Source == "" {
			return formatFault("select element is missing its source", nil)
		}
		if _, err := metadata.Resolve(typeOf[T](), el.Source); err != nil {
			return formatFault("select source `"+el.Source+"` does not resolve", err)
		}
		d := &SelectDescriptor{Source: el.Source, Destination: el.Destination}
		if d.Destination == "" {
			d.Destination = d.Source
		}
		if rt := typeOf[R](); !dynamicType(rt) {
			if _, err := metadata.Resolve(rt, d.Destination); err != nil {
				return formatFault("select destination `"+d.Destination+"` does not resolve", err)
			}
		}
		items[i] = d
	}

	b.items = items
	return nil
}

func (b *SearchBuilder[T]) MarshalJSON() ([]byte, error) {
	elements := make([]searchElement, len(b.items))
	for i, d := range b.items {
		elements[i] = searchElement{Property: d.Property, Term: d.Term, Group: d.Group}
	}
	return json.Marshal(elements)
}

func (b *SearchBuilder[T]) UnmarshalJSON(data []byte) error {
	elements, err := readElements[searchElement](data)
	if err != nil {
		return err
	}

	items := make([]*SearchDescriptor, len(elements))
	for i, el := range elements {
		if el.Property == "" {
			return formatFault("search element is missing its property", nil)
		}
		if _, err := predicate.Compile(typeOf[T](), el.Property, ast.Contains, el.Term); err != nil {
			return formatFault("search property `"+el.Property+"` is not searchable", err)
		}
		items[i] = &SearchDescriptor{Property: el.Property, Term: el.Term, Group: el.Group}
	}

	b.items = items
	return nil
}

// presentList reports whether an envelope field carries an actual list.
// A missing field and an explicit null both mean "leave the builder empty".
func presentList(raw json.RawMessage) bool {
	return len(raw) > 0 && string(bytes.TrimSpace(raw)) != "null"
}

type queryEnvelope struct {
	Filters  json.RawMessage `json:"filters"`
	Orders   json.RawMessage `json:"orders"`
	Searches json.RawMessage `json:"searches"`
	Skip     *int            `json:"skip"`
	Take     *int            `json:"take"`
	Hints    hintsEnvelope   `json:"hints"`
}

type hintsEnvelope struct {
	NoTracking         bool `json:"noTracking"`
	SplitQuery         bool `json:"splitQuery"`
	IgnoreQueryFilters bool `json:"ignoreQueryFilters"`
	IgnoreAutoIncludes bool `json:"ignoreAutoIncludes"`
}

func (q *Query[T]) MarshalJSON() ([]byte, error) {
	filters, err := q.Filters.MarshalJSON()
	if err != nil {
		return nil, err
	}
	orders, err := q.Orders.MarshalJSON()
	if err != nil {
		return nil, err
	}
	searches, err := q.Searches.MarshalJSON()
	if err != nil {
		return nil, err
	}

	return json.Marshal(queryEnvelope{
		Filters:  filters,
		Orders:   orders,
		Searches: searches,
		Skip:     q.skip,
		Take:     q.take,
		Hints: hintsEnvelope{
			NoTracking:         q.Hints.NoTracking,
			SplitQuery:         q.Hints.SplitQuery,
			IgnoreQueryFilters: q.Hints.IgnoreQueryFilters,
			IgnoreAutoIncludes: q.Hints.IgnoreAutoIncludes,
		},
	})
}

func (q *Query[T]) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return formatFault("query must be a JSON object", nil)
	}

	var env queryEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return formatFault("query must be a JSON object", err)
	}

	if env.Skip != nil && *env.Skip < 0 {
		return formatFault("skip cannot be negative", nil)
	}
	if env.Take != nil && *env.Take < 0 {
		return formatFault("take cannot be negative", nil)
	}

	if q.Filters == nil {
		q.Filters = NewFilterBuilder[T]()
	}
	if q.Orders == nil {
		q.Orders = NewOrderBuilder[T]()
	}
	if q.Searches == nil {
		q.Searches = NewSearchBuilder[T]()
	}

	if presentList(env.Filters) {
		if err := q.Filters.UnmarshalJSON(env.Filters); err != nil {
			return err
		}
	}
	if presentList(env.Orders) {
		if err := q.Orders.UnmarshalJSON(env.Orders); err != nil {
			return err
		}
	}
	if presentList(env.Searches) {
		if err := q.Searches.UnmarshalJSON(env.Searches); err != nil {
			return err
		}
	}

	q.skip = env.Skip
	q.take = env.Take
	q.Hints = Hints{
		NoTracking:         env.Hints.NoTracking,
		SplitQuery:         env.Hints.SplitQuery,
		IgnoreQueryFilters: env.Hints.IgnoreQueryFilters,
		IgnoreAutoIncludes: env.Hints.IgnoreAutoIncludes,
	}
	return nil
}
