package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fbz-tec/storexport/core/catalog"
	"github.com/fbz-tec/storexport/core/jobs"
	"github.com/fbz-tec/storexport/core/mapping"
	"github.com/fbz-tec/storexport/core/output"
	"github.com/fbz-tec/storexport/core/resolve"
	"github.com/fbz-tec/storexport/core/validation"
	"github.com/fbz-tec/storexport/core/writers"
	"github.com/fbz-tec/storexport/internal/logger"
	"github.com/gosimple/slug"
)

// maxPathAttempts bounds the suffixes tried when an output path is taken.
const maxPathAttempts = 100

// CreateRequest is one export request.
type CreateRequest struct {
	Kind        string             `json:"kind" yaml:"kind" validate:"required"`
	Name        string             `json:"name,omitempty" yaml:"name,omitempty" validate:"max=120"`
	Fields      []string           `json:"fields" yaml:"fields"`
	Meta        []string           `json:"meta,omitempty" yaml:"meta,omitempty"`
	Taxonomies  []string           `json:"taxonomies,omitempty" yaml:"taxonomies,omitempty"`
	Filters     resolve.FilterSpec `json:"filters" yaml:"filters"`
	Formats     []string           `json:"formats,omitempty" yaml:"formats,omitempty"`
	ColumnOrder []string           `json:"column_order,omitempty" yaml:"column_order,omitempty"`
	HeaderMap   map[string]string  `json:"header_map,omitempty" yaml:"header_map,omitempty"`
	// Compression overrides the engine default for this job.
	Compression string `json:"compression,omitempty" yaml:"compression,omitempty"`
}

// Selection returns the requested column selection.
func (r CreateRequest) Selection() mapping.Selection {
	return mapping.Selection{Fields: r.Fields, Meta: r.Meta, Taxonomies: r.Taxonomies}
}

// CreateResult identifies a newly created job.
type CreateResult struct {
	JobID   string   `json:"job_id"`
	Total   int      `json:"total_items"`
	Formats []string `json:"formats"`
}

// NormalizeFormats canonicalizes formats, silently dropping unknown names and
// duplicates. An empty result defaults to csv.
func NormalizeFormats(formats []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, f := range formats {
		if n := writers.Normalize(f); n != "" && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return []string{writers.FormatCSV}
	}
	return out
}

// CreateExport validates req, resolves and freezes its identifiers and
// allocates one output file per format. No job exists when it fails.
func (e *Engine) CreateExport(ctx context.Context, req CreateRequest) (CreateResult, error) {
	if err := validation.Struct(req); err != nil {
		return CreateResult{}, newError(KindValidation, err, "invalid export request")
	}
	kind, err := catalog.ParseKind(req.Kind)
	if err != nil {
		return CreateResult{}, newError(KindValidation, err, "unrecognized entity kind")
	}
	if err := validation.Filters(req.Filters); err != nil {
		return CreateResult{}, newError(KindValidation, err, "malformed filters")
	}

	sel := req.Selection()
	if sel.Empty() {
		return CreateResult{}, newError(KindValidation, nil, "select at least one field, meta key or taxonomy")
	}
	if kind == catalog.KindProduct {
		sel = sel.WithFields(mapping.FieldProductType, mapping.FieldProductStatus)
	}

	compression := e.compression
	if req.Compression != "" {
		compression = strings.ToLower(strings.TrimSpace(req.Compression))
	}
	if err := output.ValidateCompression(compression); err != nil {
		return CreateResult{}, newError(KindValidation, err, "invalid compression")
	}

	formats := NormalizeFormats(req.Formats)

	res, err := e.resolver.Resolve(ctx, resolve.Request{
		Kind:              kind,
		Filters:           req.Filters,
		IncludeVariations: kind == catalog.KindProduct && mapping.NeedsVariations(sel.Fields),
	})
	if err != nil {
		return CreateResult{}, newError(KindValidation, err, "cannot resolve filters")
	}
	if res.Total == 0 {
		return CreateResult{}, emptyResult(kind, req.Filters)
	}

	id := e.newID()
	created := e.now()
	files, err := e.allocateFiles(req.Name, kind, formats, created.Unix())
	if err != nil {
		return CreateResult{}, err
	}

	job := &jobs.Job{
		ID:            id,
		Name:          req.Name,
		Kind:          kind,
		Dir:           e.dir,
		Created:       created,
		Updated:       created,
		Selection:     sel,
		Filters:       req.Filters,
		ColumnOrder:   req.ColumnOrder,
		HeaderMap:     req.HeaderMap,
		Compression:   compression,
		IDs:           res.IDs,
		Total:         res.Total,
		Formats:       formats,
		CurrentFormat: formats[0],
		Files:         files,
		Downloads:     map[string]string{},
		Written:       map[string]int{},
		Offsets:       map[string]int64{},
		Started:       map[string]bool{},
		Fallbacks:     map[string]bool{},
		State:         jobs.StateCreated,
	}
	if err := e.store.Create(ctx, job); err != nil {
		removeFiles(files)
		return CreateResult{}, newError(KindInternal, err, "cannot persist job")
	}

	logger.With("job "+shortID(id)).Info("Created %s export: %d item(s), formats %s",
		kind, res.Total, strings.Join(formats, ", "))
	return CreateResult{JobID: id, Total: res.Total, Formats: formats}, nil
}

func emptyResult(kind catalog.Kind, f resolve.FilterSpec) *Error {
	e := newError(KindEmptyResult, nil, "no %s matches these filters", kind)
	if f.WithDefaults(kind).DateRange == resolve.RangeCustom {
		e.Hint = "try broadening the custom date range"
	} else if f.DateFiltered(kind) {
		e.Hint = "try a wider date range"
	}
	return e
}

// allocateFiles reserves one empty output file per format under the export
// directory, named <slug>_<format>_<unix>.<ext>.
func (e *Engine) allocateFiles(name string, kind catalog.Kind, formats []string, unix int64) (map[string]string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, newError(KindStorageWrite, err, "output directory is not creatable")
	}

	base := slug.Make(name)
	if base == "" {
		base = string(kind) + "-export"
	}

	files := make(map[string]string, len(formats))
	for _, f := range formats {
		path, err := reserve(e.dir, fmt.Sprintf("%s_%s_%d", base, f, unix), writers.Extension(f))
		if err != nil {
			removeFiles(files)
			return nil, newError(KindStorageWrite, err, "output file is not creatable")
		}
		files[f] = path
	}
	return files, nil
}

// reserve creates stem.ext exclusively, falling back to stem-2.ext, stem-3.ext...
func reserve(dir, stem, ext string) (string, error) {
	for i := 1; i <= maxPathAttempts; i++ {
		name := stem
		if i > 1 {
			name = fmt.Sprintf("%s-%d", stem, i)
		}
		path := filepath.Join(dir, name+"."+ext)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		f.Close()
		return path, nil
	}
	return "", fmt.Errorf("no free output path for %s.%s", stem, ext)
}

func removeFiles(files map[string]string) {
	for _, p := range files {
		os.Remove(p)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
