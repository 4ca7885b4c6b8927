package resolve

import (
	"context"
	"fmt"
	"time"

	"github.com/fbz-tec/storexport/core/catalog"
	"github.com/fbz-tec/storexport/internal/logger"
)

// Request describes one resolution.
type Request struct {
	Kind    catalog.Kind
	Filters FilterSpec
	// IncludeVariations interleaves product variations after their parents.
	IncludeVariations bool
}

// Result is the frozen, ordered working set of an export.
type Result struct {
	IDs   []int64
	Total int
}

// Resolver turns filter specifications into ordered identifier lists.
type Resolver struct {
	src catalog.IDSource
	now func() time.Time
	loc *time.Location
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock overrides the time source used for relative date ranges.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithLocation sets the zone date bounds are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(r *Resolver) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// New creates a Resolver over src.
func New(src catalog.IDSource, opts ...Option) *Resolver {
	r := &Resolver{src: src, now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the ordered ids matching req. Zero matches is not an error.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Result, error) {
	spec := req.Filters.WithDefaults(req.Kind)
	dates, err := spec.Window(req.Kind, r.now(), r.loc)
	if err != nil {
		return Result{}, err
	}

	var ids []int64
	switch req.Kind {
	case catalog.KindProduct:
		ids, err = r.products(ctx, spec, dates, req.IncludeVariations)
	case catalog.KindUser:
		ids, err = r.src.UserIDs(ctx, catalog.UserQuery{Roles: Selection(spec.UserRoles), Dates: dates})
	case catalog.KindOrder:
		ids, err = r.src.OrderIDs(ctx, catalog.OrderQuery{Statuses: Selection(spec.OrderStatuses), Dates: dates})
	default:
		return Result{}, fmt.Errorf("unknown entity kind %q", req.Kind)
	}
	if err != nil {
		return Result{}, fmt.Errorf("error resolving %s ids: %w", req.Kind, err)
	}
	if ids == nil {
		ids = []int64{}
	}

	logger.Debug("Resolved %d %s id(s)", len(ids), req.Kind)
	return Result{IDs: ids, Total: len(ids)}, nil
}

func (r *Resolver) products(ctx context.Context, spec FilterSpec, dates *catalog.DateRange, withVariations bool) ([]int64, error) {
	types := Selection(spec.ProductTypes)
	statuses := Selection(spec.ProductStatuses)

	top, err := r.src.ProductIDs(ctx, catalog.ProductQuery{Types: types, Statuses: statuses, Dates: dates})
	if err != nil {
		return nil, err
	}
	if !withVariations {
		return top, nil
	}

	parents := top
	// Variations carry no type of their own, so a type filter that excludes
	// variable products still pulls in variable parents.
	if types != nil && !containsString(types, catalog.ProductTypeVariable) {
		variable, err := r.src.ProductIDs(ctx, catalog.ProductQuery{
			Types:    []string{catalog.ProductTypeVariable},
			Statuses: statuses,
			Dates:    dates,
		})
		if err != nil {
			return nil, err
		}
		parents = union(top, variable)
	}
	if len(parents) == 0 {
		return top, nil
	}

	variations, err := r.src.VariationIDs(ctx, catalog.VariationQuery{ParentIDs: parents, Statuses: statuses, Dates: dates})
	if err != nil {
		return nil, err
	}
	logger.Debug("Found %d variation(s) for %d parent(s)", len(variations), len(parents))
	return Interleave(top, variations), nil
}

// Interleave orders ids parent-then-children: each top-level id is followed
// by its variations in storage order, and variations whose parent is not in
// top are appended last. No id is emitted twice.
func Interleave(top []int64, variations []catalog.Variation) []int64 {
	children := make(map[int64][]int64)
	var parentOrder []int64
	for _, v := range variations {
		if _, ok := children[v.ParentID]; !ok {
			parentOrder = append(parentOrder, v.ParentID)
		}
		children[v.ParentID] = append(children[v.ParentID], v.ID)
	}

	out := make([]int64, 0, len(top)+len(variations))
	seen := make(map[int64]bool, cap(out))
	emit := func(id int64) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	for _, id := range top {
		emit(id)
		for _, child := range children[id] {
			emit(child)
		}
		delete(children, id)
	}
	for _, parent := range parentOrder {
		for _, child := range children[parent] {
			emit(child)
		}
	}
	return out
}

func union(a, b []int64) []int64 {
	seen := make(map[int64]bool, len(a)+len(b))
	out := make([]int64, 0, len(a)+len(b))
	for _, list := range [][]int64{a, b} {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

func containsString(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
