package export

import (
	"context"

	"github.com/fbz-tec/storexport/core/catalog"
	"github.com/fbz-tec/storexport/core/mapping"
)

// metaSampleSize is the number of records scanned for meta keys.
const metaSampleSize = 100

// internalOrderMeta are bookkeeping keys never offered for orders.
var internalOrderMeta = map[string]bool{"_edit_lock": true, "_edit_last": true}

// Catalog lists what can be selected for one kind.
type Catalog struct {
	Kind       catalog.Kind `json:"kind"`
	Fields     []string     `json:"fields"`
	Meta       []string     `json:"meta"`
	Taxonomies []string     `json:"taxonomies"`
	Required   []string     `json:"required"`
}

// Describe returns the field catalog of kind.
func (e *Engine) Describe(ctx context.Context, kindName string) (Catalog, error) {
	kind, err := catalog.ParseKind(kindName)
	if err != nil {
		return Catalog{}, newError(KindValidation, err, "unrecognized entity kind")
	}

	out := Catalog{Kind: kind, Fields: mapping.StandardFields(kind), Taxonomies: []string{}, Required: []string{mapping.FieldID}}

	ids, err := e.src.SampleIDs(ctx, kind, metaSampleSize)
	if err != nil {
		return Catalog{}, newError(KindInternal, err, "cannot sample %s records", kind)
	}
	keys, err := e.src.MetaKeys(ctx, kind, ids)
	if err != nil {
		return Catalog{}, newError(KindInternal, err, "cannot list meta keys")
	}
	out.Meta = make([]string, 0, len(keys))
	for _, k := range keys {
		if kind == catalog.KindOrder && internalOrderMeta[k] {
			continue
		}
		out.Meta = append(out.Meta, k)
	}

	if kind != catalog.KindProduct {
		return out, nil
	}

	if out.Taxonomies, err = e.src.Taxonomies(ctx); err != nil {
		return Catalog{}, newError(KindInternal, err, "cannot list taxonomies")
	}
	hasVariations, err := e.src.HasVariations(ctx)
	if err != nil {
		return Catalog{}, newError(KindInternal, err, "cannot inspect catalog")
	}
	out.Required = append(out.Required, mapping.FieldProductType, mapping.FieldProductStatus)
	if hasVariations {
		out.Required = append(out.Required, mapping.FieldParentID)
	} else {
		fields := out.Fields[:0]
		for _, f := range out.Fields {
			if f != mapping.FieldParentID {
				fields = append(fields, f)
			}
		}
		out.Fields = fields
	}
	return out, nil
}

// Options lists the filter choices available for kind.
func (e *Engine) Options(ctx context.Context, kindName string) ([]catalog.Option, error) {
	kind, err := catalog.ParseKind(kindName)
	if err != nil {
		return nil, newError(KindValidation, err, "unrecognized entity kind")
	}
	opts, err := catalog.Options(ctx, e.src, kind)
	if err != nil {
		return nil, newError(KindInternal, err, "cannot list %s options", kind)
	}
	return opts, nil
}
