package catalog

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record id does not resolve to a stored record.
var ErrNotFound = errors.New("record not found")

// DateColumn selects which timestamp a date range applies to.
type DateColumn string

const (
	DateCreated  DateColumn = "created"
	DateModified DateColumn = "modified"
)

// DateRange is an inclusive [After, Before] window; a nil bound is open.
type DateRange struct {
	Column DateColumn
	After  *time.Time
	Before *time.Time
}

// Contains reports whether t lies inside the window.
func (r *DateRange) Contains(t time.Time) bool {
	if r == nil {
		return true
	}
	if r.After != nil && t.Before(*r.After) {
		return false
	}
	if r.Before != nil && t.After(*r.Before) {
		return false
	}
	return true
}

// ProductQuery selects top-level (non-variation) products.
// Empty Types/Statuses mean no restriction.
type ProductQuery struct {
	Types    []string
	Statuses []string
	Dates    *DateRange
	Limit    int
}

// VariationQuery selects variations whose parent is in ParentIDs.
type VariationQuery struct {
	ParentIDs []int64
	Statuses  []string
	Dates     *DateRange
}

// UserQuery selects users holding any of Roles.
type UserQuery struct {
	Roles []string
	Dates *DateRange
	Limit int
}

// OrderQuery selects orders in any of Statuses.
type OrderQuery struct {
	Statuses []string
	Dates    *DateRange
	Limit    int
}

// IDSource answers identifier queries. Results are in the store's natural
// order (ascending id) and a query with no match returns an empty slice.
type IDSource interface {
	ProductIDs(ctx context.Context, q ProductQuery) ([]int64, error)
	VariationIDs(ctx context.Context, q VariationQuery) ([]Variation, error)
	UserIDs(ctx context.Context, q UserQuery) ([]int64, error)
	OrderIDs(ctx context.Context, q OrderQuery) ([]int64, error)
}

// RecordSource loads records and their associated metadata read-only.
// Loaders return ErrNotFound for unknown ids.
type RecordSource interface {
	Product(ctx context.Context, id int64) (*Product, error)
	User(ctx context.Context, id int64) (*User, error)
	Order(ctx context.Context, id int64) (*Order, error)

	// Meta returns the value stored under key for a record and whether it exists.
	Meta(ctx context.Context, kind Kind, id int64, key string) (any, bool, error)
	// Terms returns the terms of taxonomy attached to a product, ordered by name.
	Terms(ctx context.Context, productID int64, taxonomy string) ([]Term, error)
	Term(ctx context.Context, id int64) (*Term, error)
	AttachmentURL(ctx context.Context, id int64) (string, error)
	LineItems(ctx context.Context, orderID int64) ([]LineItem, error)
	Notes(ctx context.Context, orderID int64) ([]Note, error)
}

// CatalogSource exposes what is available for export selection.
type CatalogSource interface {
	SampleIDs(ctx context.Context, kind Kind, limit int) ([]int64, error)
	MetaKeys(ctx context.Context, kind Kind, ids []int64) ([]string, error)
	Taxonomies(ctx context.Context) ([]string, error)
	HasVariations(ctx context.Context) (bool, error)
	ProductTypes(ctx context.Context) ([]string, error)
	UserRoles(ctx context.Context) ([]string, error)
	OrderStatusCounts(ctx context.Context) (map[string]int, error)
}

// Source is the full storage-access surface used by the export engine.
type Source interface {
	IDSource
	RecordSource
	CatalogSource
}

func restricts(values []string) bool {
	return len(values) > 0
}

func statusVisible(status string, allowed []string) bool {
	if !restricts(allowed) {
		return !hiddenStatuses[status]
	}
	return contains(allowed, status)
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
