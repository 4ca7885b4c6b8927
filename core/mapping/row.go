package mapping

import (
	"github.com/elliotchance/orderedmap/v3"
)

// Row is one exported record: column key to display value, in insertion order.
type Row = orderedmap.OrderedMap[string, string]

// NewRow returns an empty Row.
func NewRow() *Row {
	return orderedmap.NewOrderedMap[string, string]()
}

// Keys returns the column keys of r in order.
func Keys(r *Row) []string {
	keys := make([]string, 0, r.Len())
	for k := range r.AllFromFront() {
		keys = append(keys, k)
	}
	return keys
}

// Values projects r onto headers, yielding "" for absent keys.
func Values(r *Row, headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i], _ = r.Get(h)
	}
	return out
}

// Selection is the user-chosen column set of an export.
type Selection struct {
	Fields     []string `json:"fields" yaml:"fields"`
	Meta       []string `json:"meta" yaml:"meta"`
	Taxonomies []string `json:"taxonomies" yaml:"taxonomies"`
}

// Empty reports whether nothing at all was selected.
func (s Selection) Empty() bool {
	return len(s.Fields) == 0 && len(s.Meta) == 0 && len(s.Taxonomies) == 0
}

// Columns is the union of selected fields, meta keys and taxonomies, in that
// order, with ID first and duplicates removed.
func (s Selection) Columns() []string {
	seen := map[string]bool{FieldID: true}
	out := []string{FieldID}
	for _, group := range [][]string{s.Fields, s.Meta, s.Taxonomies} {
		for _, c := range group {
			if c != "" && !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// HasField reports whether name is among the selected standard fields.
func (s Selection) HasField(name string) bool {
	return containsString(s.Fields, name)
}

func containsString(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// WithFields returns a copy of s with names appended when absent.
func (s Selection) WithFields(names ...string) Selection {
	fields := append([]string(nil), s.Fields...)
	for _, n := range names {
		if !containsString(fields, n) {
			fields = append(fields, n)
		}
	}
	s.Fields = fields
	return s
}
