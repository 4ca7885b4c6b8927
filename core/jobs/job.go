package jobs

import (
	"math"
	"time"

	"github.com/fbz-tec/storexport/core/catalog"
	"github.com/fbz-tec/storexport/core/mapping"
	"github.com/fbz-tec/storexport/core/resolve"
)

// State is the lifecycle state of a job.
type State string

const (
	StateCreated   State = "created"
	StateWriting   State = "writing"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Terminal reports whether no further batch may run.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Job is the durable, resumable state of one export request.
type Job struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Kind    catalog.Kind `json:"kind"`
	Dir     string       `json:"dir"`
	Created time.Time    `json:"created_at"`
	Updated time.Time    `json:"updated_at"`

	Selection   mapping.Selection  `json:"selection"`
	Filters     resolve.FilterSpec `json:"filters"`
	ColumnOrder []string           `json:"column_order,omitempty"`
	HeaderMap   map[string]string  `json:"header_map,omitempty"`
	Compression string             `json:"compression"`

	// IDs is frozen at creation.
	IDs   []int64 `json:"ids"`
	Total int     `json:"total"`

	// Per-format state is keyed by format name. Offsets holds the byte size
	// of each file at the last committed batch.
	Formats       []string          `json:"formats"`
	CurrentFormat string            `json:"current_format"`
	Files         map[string]string `json:"files"`
	Downloads     map[string]string `json:"downloads"`
	Written       map[string]int    `json:"written"`
	Offsets       map[string]int64  `json:"offsets"`
	Started       map[string]bool   `json:"started"`
	Fallbacks     map[string]bool   `json:"fallbacks"`

	// Headers is empty until the first non-empty batch fixes it.
	Headers []string `json:"headers,omitempty"`
	Labels  []string `json:"labels,omitempty"`

	Processed int    `json:"processed"`
	Batch     int    `json:"batch"`
	State     State  `json:"state"`
	Failure   string `json:"failure,omitempty"`

	// Revision is bumped by every successful Save.
	Revision int64 `json:"revision"`
}

// initMaps replaces nil per-format maps with empty ones. JSON decodes an
// absent or null map as nil.
func (j *Job) initMaps() {
	if j.Files == nil {
		j.Files = map[string]string{}
	}
	if j.Downloads == nil {
		j.Downloads = map[string]string{}
	}
	if j.Written == nil {
		j.Written = map[string]int{}
	}
	if j.Offsets == nil {
		j.Offsets = map[string]int64{}
	}
	if j.Started == nil {
		j.Started = map[string]bool{}
	}
	if j.Fallbacks == nil {
		j.Fallbacks = map[string]bool{}
	}
}

// FormatIndex is the position of CurrentFormat in Formats, or -1.
func (j *Job) FormatIndex() int {
	for i, f := range j.Formats {
		if f == j.CurrentFormat {
			return i
		}
	}
	return -1
}

// IsLastFormat reports whether CurrentFormat is the last requested format.
func (j *Job) IsLastFormat() bool {
	return j.FormatIndex() == len(j.Formats)-1
}

// NextFormat returns the format following CurrentFormat, or "".
func (j *Job) NextFormat() string {
	i := j.FormatIndex()
	if i < 0 || i+1 >= len(j.Formats) {
		return ""
	}
	return j.Formats[i+1]
}

// FormatDone reports whether every id has been processed for the current format.
func (j *Job) FormatDone() bool {
	return j.Processed >= j.Total
}

// NextSlice returns up to size ids starting at Processed.
func (j *Job) NextSlice(size int) []int64 {
	if j.Processed >= len(j.IDs) || size <= 0 {
		return nil
	}
	end := j.Processed + size
	if end > len(j.IDs) {
		end = len(j.IDs)
	}
	return j.IDs[j.Processed:end]
}

// Progress is the completion percentage of the current format, rounded to
// two decimals. A zero total reports 100.
func (j *Job) Progress() float64 {
	if j.Total <= 0 {
		return 100
	}
	p := float64(j.Processed) / float64(j.Total) * 100
	if p > 100 {
		p = 100
	}
	return math.Round(p*100) / 100
}

// HeadersFixed reports whether the output columns are known.
func (j *Job) HeadersFixed() bool {
	return len(j.Headers) > 0
}
