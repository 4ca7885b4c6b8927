package writers

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fbz-tec/storexport/core/mapping"
	"github.com/fbz-tec/storexport/internal/logger"
)

const (
	FormatCSV         = "csv"
	FormatSpreadsheet = "spreadsheet"
	FormatXML         = "xml"
	FormatJSON        = "json"
)

// Formats lists the supported formats in canonical order.
var Formats = []string{FormatCSV, FormatSpreadsheet, FormatXML, FormatJSON}

var aliases = map[string]string{
	"excel": FormatSpreadsheet,
	"xlsx":  FormatSpreadsheet,
}

var extensions = map[string]string{
	FormatCSV:         "csv",
	FormatSpreadsheet: "xlsx",
	FormatXML:         "xml",
	FormatJSON:        "json",
}

var contentTypes = map[string]string{
	FormatCSV:         "text/csv; charset=utf-8",
	FormatSpreadsheet: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FormatXML:         "application/xml; charset=utf-8",
	FormatJSON:        "application/json; charset=utf-8",
}

// Normalize maps a format name or alias to its canonical name.
// It returns "" for unknown names.
func Normalize(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	if canonical, ok := aliases[f]; ok {
		return canonical
	}
	if _, ok := extensions[f]; ok {
		return f
	}
	return ""
}

// Extension returns the file extension (without dot) used for format.
func Extension(format string) string {
	return extensions[Normalize(format)]
}

// ContentType returns the MIME type served for format.
func ContentType(format string) string {
	if ct, ok := contentTypes[Normalize(format)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Target describes the file a Writer owns. Written is the number of rows
// already persisted by earlier activations and Offset the byte size of the
// file at that checkpoint. Resume discards anything written past Offset.
type Target struct {
	Path    string
	Headers []string
	Labels  []string
	Written int
	Offset  int64
}

// Writer is an append-only sink for one (job, format) pair. A job drives it
// across process activations: Open or Resume, any number of Append calls,
// then Suspend to checkpoint or Close to finalize.
type Writer interface {
	// Open truncates the target and writes the format preamble.
	Open(t Target) error
	// Resume reopens a target previously suspended after t.Written rows.
	Resume(t Target) error
	// Append writes rows in header order and returns how many were written.
	Append(rows []*mapping.Row) (int, error)
	// Suspend flushes and releases the file without finalizing it.
	Suspend() error
	// Close writes the format trailer and releases the file.
	Close() error
	// Written is the total number of rows persisted, including earlier activations.
	Written() int
	// Offset is the byte size of the file after the last Suspend.
	Offset() int64
}

// Labels computes the display label of each header: headerMap[h] when set, h otherwise.
func Labels(headers []string, headerMap map[string]string) []string {
	labels := make([]string, len(headers))
	for i, h := range headers {
		if l, ok := headerMap[h]; ok && strings.TrimSpace(l) != "" {
			labels[i] = l
		} else {
			labels[i] = h
		}
	}
	return labels
}

func (t Target) validate() error {
	if strings.TrimSpace(t.Path) == "" {
		return fmt.Errorf("writer: empty output path")
	}
	if len(t.Labels) != len(t.Headers) {
		return fmt.Errorf("writer: %d headers but %d labels", len(t.Headers), len(t.Labels))
	}
	return nil
}

// rewind cuts path back to the checkpoint offset so rows appended by an
// activation that was never committed are written again exactly once.
func rewind(path string, offset int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot reopen output: %w", err)
	}
	size := info.Size()
	if size < offset {
		return fmt.Errorf("output %s is %d bytes, checkpoint expects %d", path, size, offset)
	}
	if size > offset {
		logger.Debug("Discarding %d uncommitted bytes of %s", size-offset, path)
		if err := os.Truncate(path, offset); err != nil {
			return fmt.Errorf("cannot rewind output: %w", err)
		}
	}
	return nil
}

func sizeOf(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("cannot stat output: %w", err)
	}
	return info.Size(), nil
}

type Factory func() Writer

var registry = map[string]Factory{}

func Register(format string, factory Factory) error {
	format = strings.ToLower(strings.TrimSpace(format))
	if _, exists := registry[format]; exists {
		return fmt.Errorf("writer: format %q already registered", format)
	}
	registry[format] = factory
	return nil
}

// New returns a fresh Writer for format or alias.
func New(format string) (Writer, error) {
	factory, ok := registry[Normalize(format)]
	if !ok {
		return nil, fmt.Errorf("unsupported format: %q (available: %s)",
			format, strings.Join(List(), ", "))
	}
	return factory(), nil
}

func List() []string {
	formats := make([]string, 0, len(registry))
	for name := range registry {
		formats = append(formats, name)
	}
	sort.Strings(formats)
	return formats
}

func MustRegister(format string, factory Factory) {
	if err := Register(format, factory); err != nil {
		panic(err)
	}
}
