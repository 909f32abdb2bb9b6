package spec

import (
	"fmt"

	"github.com/thisisjab/queryspec/ast"
	"github.com/thisisjab/queryspec/fault"
)

// Hints are execution flags passed through opaquely to whatever
// collaborator executes the compiled expressions; this package does not
// interpret them.
type Hints struct {
	NoTracking         bool
	SplitQuery         bool
	IgnoreQueryFilters bool
	IgnoreAutoIncludes bool
}

// Query aggregates the filter, order and search builders plus paging and
// execution hints for one entity type. A Query instance owns its builders
// exclusively; descriptors are never shared between queries.
type Query[T any] struct {
	Filters  *FilterBuilder[T]
	Orders   *OrderBuilder[T]
	Searches *SearchBuilder[T]
	Hints    Hints

	skip *int
	take *int
}

func NewQuery[T any]() *Query[T] {
	return &Query[T]{
		Filters:  NewFilterBuilder[T](),
		Orders:   NewOrderBuilder[T](),
		Searches: NewSearchBuilder[T](),
	}
}

// SetSkip sets the number of leading records to drop. Negative values are
// rejected at assignment time, not at execution time.
func (q *Query[T]) SetSkip(n int) *Query[T] {
	if n < 0 {
		panic(fault.New(fault.BadInputCode, fmt.Sprintf("skip cannot be negative, got %d", n)))
	}
	q.skip = &n
	return q
}

// SetTake sets the maximum number of records to keep. Negative values are
// rejected at assignment time.
func (q *Query[T]) SetTake(n int) *Query[T] {
	if n < 0 {
		panic(fault.New(fault.BadInputCode, fmt.Sprintf("take cannot be negative, got %d", n)))
	}
	q.take = &n
	return q
}

// Skip returns the configured skip, if any.
func (q *Query[T]) Skip() (int, bool) {
	if q.skip == nil {
		return 0, false
	}
	return *q.skip, true
}

// Take returns the configured take, if any.
func (q *Query[T]) Take() (int, bool) {
	if q.take == nil {
		return 0, false
	}
	return *q.take, true
}

// SetPage is paging sugar: Skip=(page-1)*pageSize, Take=pageSize. Both
// arguments must be at least 1.
func (q *Query[T]) SetPage(page, pageSize int) *Query[T] {
	if page < 1 {
		panic(fault.New(fault.BadInputCode, fmt.Sprintf("page must be at least 1, got %d", page)))
	}
	if pageSize < 1 {
		panic(fault.New(fault.BadInputCode, fmt.Sprintf("page size must be at least 1, got %d", pageSize)))
	}
	return q.SetSkip((page - 1) * pageSize).SetTake(pageSize)
}

// Clear resets every builder and the paging fields to their defaults.
func (q *Query[T]) Clear() *Query[T] {
	q.Filters.Clear()
	q.Orders.Clear()
	q.Searches.Clear()
	q.skip = nil
	q.take = nil
	return q
}

// Predicate compiles the current filters and search groups into one
// AND-combined expression, or nil when the query has neither.
func (q *Query[T]) Predicate() ast.Expr {
	filter := q.Filters.Compile()
	search := q.Searches.Compile()

	switch {
	case filter == nil:
		return search
	case search == nil:
		return filter
	default:
		return &ast.Logical{Op: ast.AndAlso, Left: filter, Right: search}
	}
}

// IsSatisfiedBy compiles the current filter and evaluates it in memory
// against one instance. This is a client-side check; it has no meaning
// for queries destined to remote execution.
func (q *Query[T]) IsSatisfiedBy(entity T) bool {
	return ast.Matches(q.Predicate(), entity)
}

// Apply runs the query in memory over a slice: filter, sort, then paging.
// An empty query returns the source unchanged aside from paging.
func (q *Query[T]) Apply(src []T) []T {
	out := src

	if pred := q.Predicate(); pred != nil {
		out = make([]T, 0, len(src))
		for _, e := range src {
			if ast.Matches(pred, e) {
				out = append(out, e)
			}
		}
	}

	out = q.Orders.Sort(out)

	if q.skip != nil {
		if *q.skip >= len(out) {
			out = nil
		} else {
			out = out[*q.skip:]
		}
	}
	if q.take != nil && *q.take < len(out) {
		out = out[:*q.take]
	}

	return out
}

// ProjectionQuery additionally owns a select builder mapping T into a
// result type R, and an optional one-to-many flattening selector that
// replaces the projection when set.
type ProjectionQuery[T, R any] struct {
	Query[T]
	Selects *SelectBuilder[T, R]

	// Flatten expands one entity into many results; when non-nil it
	// takes the place of the select stage entirely.
	Flatten func(T) []R
}

func NewProjectionQuery[T, R any]() *ProjectionQuery[T, R] {
	return &ProjectionQuery[T, R]{
		Query: Query[T]{
			Filters:  NewFilterBuilder[T](),
			Orders:   NewOrderBuilder[T](),
			Searches: NewSearchBuilder[T](),
		},
		Selects: NewSelectBuilder[T, R](),
	}
}

// Clear resets the base query, the select builder, and the flattening
// selector.
func (q *ProjectionQuery[T, R]) Clear() *ProjectionQuery[T, R] {
	q.Query.Clear()
	q.Selects.Clear()
	q.Flatten = nil
	return q
}

// Apply runs the query in memory: filter, sort, paging, then either the
// flattening selector or the compiled projection.
func (q *ProjectionQuery[T, R]) Apply(src []T) ([]R, error) {
	base := q.Query.Apply(src)

	if q.Flatten != nil {
		var out []R
		for _, e := range base {
			out = append(out, q.Flatten(e)...)
		}
		return out, nil
	}

	project, err := q.Selects.Compile()
	if err != nil {
		return nil, err
	}

	// No descriptors against a dynamic result shape means no select stage:
	// the entities pass through as they are.
	if project == nil {
		out := make([]R, 0, len(base))
		for _, e := range base {
			r, ok := any(e).(R)
			if !ok {
				return nil, fault.New(fault.TypeConversionCode,
					fmt.Sprintf("cannot pass %T through as %T without select descriptors", e, *new(R)))
			}
			out = append(out, r)
		}
		return out, nil
	}

	out := make([]R, 0, len(base))
	for _, e := range base {
		r, err := project(e)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
