package export

import (
	"context"

	"github.com/fbz-tec/storexport/core/catalog"
	"github.com/fbz-tec/storexport/core/mapping"
	"github.com/fbz-tec/storexport/core/resolve"
	"github.com/fbz-tec/storexport/internal/logger"
)

// PreviewSize is the number of top-level records a preview samples.
const PreviewSize = 10

// PreviewRequest selects the columns of a preview.
type PreviewRequest struct {
	Kind       string   `json:"kind" validate:"required"`
	Fields     []string `json:"fields"`
	Meta       []string `json:"meta,omitempty"`
	Taxonomies []string `json:"taxonomies,omitempty"`
}

// Preview holds sampled rows projected onto Columns.
type Preview struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// PreviewSample maps a small fixed sample with the export mapper. It is
// read-only and creates no job.
func (e *Engine) PreviewSample(ctx context.Context, req PreviewRequest) (Preview, error) {
	kind, err := catalog.ParseKind(req.Kind)
	if err != nil {
		return Preview{}, newError(KindValidation, err, "unrecognized entity kind")
	}
	sel := mapping.Selection{Fields: req.Fields, Meta: req.Meta, Taxonomies: req.Taxonomies}
	if sel.Empty() {
		return Preview{}, newError(KindValidation, nil, "select at least one field, meta key or taxonomy")
	}
	if !sel.HasField(mapping.FieldID) {
		return Preview{}, newError(KindValidation, nil, "the %s field is required", mapping.FieldID)
	}

	var ids []int64
	if kind == catalog.KindProduct {
		sel = sel.WithFields(mapping.FieldProductType, mapping.FieldProductStatus)
		hasVariations, err := e.src.HasVariations(ctx)
		if err != nil {
			return Preview{}, newError(KindInternal, err, "cannot inspect catalog")
		}
		if hasVariations && !mapping.NeedsVariations(sel.Fields) {
			return Preview{}, newError(KindValidation, nil,
				"products have variations: select %q or %q", mapping.FieldParentID, mapping.FieldVariantOf)
		}
		ids, err = e.productSample(ctx, hasVariations)
		if err != nil {
			return Preview{}, newError(KindInternal, err, "cannot sample products")
		}
	} else {
		ids, err = e.src.SampleIDs(ctx, kind, PreviewSize)
		if err != nil {
			return Preview{}, newError(KindInternal, err, "cannot sample %s records", kind)
		}
	}

	columns := sel.Columns()
	preview := Preview{Rows: [][]string{}}
	for _, id := range ids {
		row, err := e.mapper.Map(ctx, kind, id, sel)
		if err != nil {
			logger.Debug("Preview skipping %s %d: %v", kind, id, err)
			continue
		}
		if preview.Columns == nil {
			preview.Columns = mapping.Keys(row)
		}
		preview.Rows = append(preview.Rows, mapping.Values(row, preview.Columns))
	}
	if preview.Columns == nil {
		preview.Columns = columns
	}
	return preview, nil
}

// productSample returns the first published top-level products followed by
// their published variations.
func (e *Engine) productSample(ctx context.Context, withVariations bool) ([]int64, error) {
	published := []string{catalog.StatusPublish}
	top, err := e.src.ProductIDs(ctx, catalog.ProductQuery{Statuses: published, Limit: PreviewSize})
	if err != nil || !withVariations || len(top) == 0 {
		return top, err
	}
	variations, err := e.src.VariationIDs(ctx, catalog.VariationQuery{ParentIDs: top, Statuses: published})
	if err != nil {
		return nil, err
	}
	return resolve.Interleave(top, variations), nil
}
