package mapping

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fbz-tec/storexport/core/catalog"
	"github.com/fbz-tec/storexport/core/formatters"
	"github.com/fbz-tec/storexport/internal/logger"
)

// maxCategoryDepth bounds parent walks over a malformed term tree.
const maxCategoryDepth = 32

// Mapper turns records into Rows. It performs read-only lookups only.
type Mapper struct {
	src    catalog.RecordSource
	values formatters.ValueFormatter
}

// NewMapper creates a Mapper reading from src and rendering values with f.
func NewMapper(src catalog.RecordSource, f formatters.ValueFormatter) *Mapper {
	return &Mapper{src: src, values: f}
}

// Map loads the record kind/id and maps it. A record that cannot be loaded
// yields an error wrapping catalog.ErrNotFound.
func (m *Mapper) Map(ctx context.Context, kind catalog.Kind, id int64, sel Selection) (*Row, error) {
	switch kind {
	case catalog.KindProduct:
		p, err := m.src.Product(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("error loading product %d: %w", id, err)
		}
		return m.MapProduct(ctx, p, sel), nil
	case catalog.KindUser:
		u, err := m.src.User(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("error loading user %d: %w", id, err)
		}
		return m.MapUser(ctx, u, sel), nil
	case catalog.KindOrder:
		o, err := m.src.Order(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("error loading order %d: %w", id, err)
		}
		return m.MapOrder(ctx, o, sel), nil
	}
	return nil, fmt.Errorf("unknown entity kind %q", kind)
}

// MapProduct maps a product or variation. A variation always carries both
// the parent and variant-of columns. Other products carry them empty when
// either one is requested.
func (m *Mapper) MapProduct(ctx context.Context, p *catalog.Product, sel Selection) *Row {
	row := NewRow()
	row.Set(FieldID, m.values.Format(p.ID))

	switch {
	case p.IsVariation():
		for _, name := range []string{FieldParentID, FieldVariantOf} {
			row.Set(name, productFields.lookup(name)(ctx, m, p))
		}
	case sel.HasField(FieldParentID) || sel.HasField(FieldVariantOf):
		row.Set(FieldParentID, "")
		row.Set(FieldVariantOf, "")
	}

	for _, field := range sel.Fields {
		if field == FieldID || field == FieldParentID || field == FieldVariantOf {
			continue
		}
		row.Set(field, productFields.lookup(field)(ctx, m, p))
	}

	m.appendMeta(ctx, row, catalog.KindProduct, p.ID, sel.Meta)

	for _, tax := range sel.Taxonomies {
		row.Set(tax, m.termNames(ctx, p.ID, tax))
	}
	return row
}

// MapUser maps a user account.
func (m *Mapper) MapUser(ctx context.Context, u *catalog.User, sel Selection) *Row {
	return mapRecord(ctx, m, u, u.ID, catalog.KindUser, userFields, sel)
}

// MapOrder maps an order.
func (m *Mapper) MapOrder(ctx context.Context, o *catalog.Order, sel Selection) *Row {
	return mapRecord(ctx, m, o, o.ID, catalog.KindOrder, orderFields, sel)
}

func mapRecord[T any](ctx context.Context, m *Mapper, rec *T, id int64, kind catalog.Kind, reg *registry[T], sel Selection) *Row {
	row := NewRow()
	row.Set(FieldID, m.values.Format(id))
	for _, field := range sel.Fields {
		if field == FieldID {
			continue
		}
		row.Set(field, reg.lookup(field)(ctx, m, rec))
	}
	m.appendMeta(ctx, row, kind, id, sel.Meta)
	return row
}

func (m *Mapper) appendMeta(ctx context.Context, row *Row, kind catalog.Kind, id int64, keys []string) {
	for _, key := range keys {
		if key == FieldID {
			continue
		}
		row.Set(key, m.meta(ctx, kind, id, key))
	}
}

func (m *Mapper) meta(ctx context.Context, kind catalog.Kind, id int64, key string) string {
	v, ok, err := m.src.Meta(ctx, kind, id, key)
	if err != nil {
		logger.Debug("Meta %q of %s %d unavailable: %v", key, kind, id, err)
		return ""
	}
	if !ok {
		return ""
	}
	return m.values.Format(v)
}

func (m *Mapper) termNames(ctx context.Context, productID int64, taxonomy string) string {
	terms, err := m.src.Terms(ctx, productID, taxonomy)
	if err != nil {
		logger.Debug("Terms %q of product %d unavailable: %v", taxonomy, productID, err)
		return ""
	}
	names := make([]string, 0, len(terms))
	for _, t := range terms {
		names = append(names, t.Name)
	}
	return strings.Join(names, listSeparator)
}

func (m *Mapper) parentSKU(ctx context.Context, parentID int64) string {
	parent, err := m.src.Product(ctx, parentID)
	if err != nil {
		if !errors.Is(err, catalog.ErrNotFound) {
			logger.Debug("Parent product %d unavailable: %v", parentID, err)
		}
		return ""
	}
	return parent.SKU
}

func (m *Mapper) attachmentURL(ctx context.Context, id int64) string {
	if id == 0 {
		return ""
	}
	url, err := m.src.AttachmentURL(ctx, id)
	if err != nil {
		return ""
	}
	return url
}

func (m *Mapper) gallery(ctx context.Context, productID int64) string {
	raw := m.meta(ctx, catalog.KindProduct, productID, GalleryMetaKey)
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	var urls []string
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		if url := m.attachmentURL(ctx, id); url != "" {
			urls = append(urls, url)
		}
	}
	return strings.Join(urls, listSeparator)
}

// categoryPaths renders each category as its root-to-leaf path.
func (m *Mapper) categoryPaths(ctx context.Context, productID int64) string {
	terms, err := m.src.Terms(ctx, productID, CategoryTaxonomy)
	if err != nil || len(terms) == 0 {
		return ""
	}
	paths := make([]string, 0, len(terms))
	for _, t := range terms {
		chain := []string{t.Name}
		parentID := t.ParentID
		for depth := 0; parentID != 0 && depth < maxCategoryDepth; depth++ {
			parent, err := m.src.Term(ctx, parentID)
			if err != nil {
				break
			}
			chain = append(chain, parent.Name)
			parentID = parent.ParentID
		}
		for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
			chain[i], chain[j] = chain[j], chain[i]
		}
		paths = append(paths, strings.Join(chain, categoryPathSeparator))
	}
	return strings.Join(paths, listSeparator)
}

func (m *Mapper) categoryURLs(ctx context.Context, productID int64) string {
	terms, err := m.src.Terms(ctx, productID, CategoryTaxonomy)
	if err != nil || len(terms) == 0 {
		return ""
	}
	urls := make([]string, 0, len(terms))
	for _, t := range terms {
		urls = append(urls, t.URL)
	}
	return strings.Join(urls, listSeparator)
}

func (m *Mapper) lineItems(ctx context.Context, orderID int64) string {
	items, err := m.src.LineItems(ctx, orderID)
	if err != nil {
		return ""
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s x %d", it.Name, it.Quantity))
	}
	return strings.Join(parts, listSeparator)
}

func (m *Mapper) notes(ctx context.Context, orderID int64) string {
	notes, err := m.src.Notes(ctx, orderID)
	if err != nil {
		return ""
	}
	parts := make([]string, 0, len(notes))
	for _, n := range notes {
		parts = append(parts, n.Content)
	}
	return strings.Join(parts, listSeparator)
}
