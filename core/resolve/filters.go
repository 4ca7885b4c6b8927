package resolve

import (
	"fmt"
	"strings"
	"time"

	"github.com/fbz-tec/storexport/core/catalog"
)

// Sentinels meaning "no restriction" in a selection list.
const (
	All = "all"
	Any = "any"
)

// Date range choices.
const (
	RangeAll     = "all"
	RangeLast30  = "last30"
	RangeLast60  = "last60"
	RangeLast90  = "last90"
	RangeLast180 = "last180"
	RangeCustom  = "custom"
)

// Product export modes select which timestamp the date range applies to.
const (
	ModeAll      = "all"
	ModeCreated  = "created"
	ModeModified = "modified"
)

// DateLayout is the layout of explicit from/to bounds.
const DateLayout = "2006-01-02"

var rangeDays = map[string]int{
	RangeLast30:  30,
	RangeLast60:  60,
	RangeLast90:  90,
	RangeLast180: 180,
}

// FilterSpec is the closed set of recognized filter keys. Keys that do not
// apply to the requested kind are ignored.
type FilterSpec struct {
	ProductTypes    []string `json:"product_types,omitempty" yaml:"product_types,omitempty"`
	ProductStatuses []string `json:"product_statuses,omitempty" yaml:"product_statuses,omitempty"`
	ExportMode      string   `json:"export_mode,omitempty" yaml:"export_mode,omitempty" validate:"omitempty,oneof=all created modified"`
	UserRoles       []string `json:"user_roles,omitempty" yaml:"user_roles,omitempty"`
	OrderStatuses   []string `json:"order_statuses,omitempty" yaml:"order_statuses,omitempty"`
	DateRange       string   `json:"date_range,omitempty" yaml:"date_range,omitempty" validate:"omitempty,oneof=all last30 last60 last90 last180 custom"`
	DateFrom        string   `json:"date_from,omitempty" yaml:"date_from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DateTo          string   `json:"date_to,omitempty" yaml:"date_to,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// WithDefaults fills the per-kind defaults: products are exported regardless
// of date unless a mode is chosen, with last30 as the default range; users and
// orders default to every date.
func (f FilterSpec) WithDefaults(kind catalog.Kind) FilterSpec {
	if kind == catalog.KindProduct {
		if f.ExportMode == "" {
			f.ExportMode = ModeAll
		}
		if f.DateRange == "" {
			f.DateRange = RangeLast30
		}
		return f
	}
	if f.DateRange == "" {
		f.DateRange = RangeAll
	}
	return f
}

// DateFiltered reports whether the date range restricts the selection for kind.
func (f FilterSpec) DateFiltered(kind catalog.Kind) bool {
	f = f.WithDefaults(kind)
	if kind == catalog.KindProduct && f.ExportMode == ModeAll {
		return false
	}
	return f.DateRange != RangeAll
}

// Window translates the date selection into a concrete range relative to now.
// A nil range means no date restriction.
func (f FilterSpec) Window(kind catalog.Kind, now time.Time, loc *time.Location) (*catalog.DateRange, error) {
	f = f.WithDefaults(kind)
	if !f.DateFiltered(kind) {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}

	column := catalog.DateCreated
	if kind == catalog.KindProduct && f.ExportMode == ModeModified {
		column = catalog.DateModified
	}

	if days, ok := rangeDays[f.DateRange]; ok {
		local := now.In(loc).AddDate(0, 0, -days)
		after := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		return &catalog.DateRange{Column: column, After: &after}, nil
	}

	if f.DateRange != RangeCustom {
		return nil, fmt.Errorf("unknown date range %q", f.DateRange)
	}

	r := &catalog.DateRange{Column: column}
	if f.DateFrom != "" {
		from, err := time.ParseInLocation(DateLayout, f.DateFrom, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid date_from %q: %w", f.DateFrom, err)
		}
		r.After = &from
	}
	if f.DateTo != "" {
		to, err := time.ParseInLocation(DateLayout, f.DateTo, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid date_to %q: %w", f.DateTo, err)
		}
		// the upper bound covers the whole day
		end := to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		r.Before = &end
	}
	if r.After == nil && r.Before == nil {
		return nil, nil
	}
	return r, nil
}

// Selection normalizes a selection list: empty or containing a sentinel
// means no restriction and yields nil.
func Selection(values []string) []string {
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if strings.EqualFold(v, All) || strings.EqualFold(v, Any) {
			return nil
		}
		out = append(out, v)
	}
	return out
}
