package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	firstUpper  = cases.Title(language.English, cases.NoLower)
	labelSpacer = strings.NewReplacer("_", " ", "-", " ")
)

// Label turns a slug such as "shop_manager" or "wc-on-hold" into "Shop manager" / "On hold".
func Label(slug string) string {
	s := labelSpacer.Replace(strings.TrimPrefix(slug, "wc-"))
	if s == "" {
		return s
	}
	head, tail, _ := strings.Cut(s, " ")
	if tail == "" {
		return firstUpper.String(head)
	}
	return firstUpper.String(head) + " " + tail
}

// ProductTypeOptions lists the product types in use, "simple" always first.
func ProductTypeOptions(ctx context.Context, src CatalogSource) ([]Option, error) {
	types, err := src.ProductTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing product types: %w", err)
	}
	opts := []Option{{Value: ProductTypeSimple, Label: Label(ProductTypeSimple)}}
	for _, t := range types {
		if t == ProductTypeSimple {
			continue
		}
		opts = append(opts, Option{Value: t, Label: Label(t)})
	}
	return opts, nil
}

// UserRoleOptions lists the roles held by at least one user, sorted by label.
func UserRoleOptions(ctx context.Context, src CatalogSource) ([]Option, error) {
	roles, err := src.UserRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing user roles: %w", err)
	}
	opts := make([]Option, 0, len(roles))
	for _, r := range roles {
		opts = append(opts, Option{Value: r, Label: Label(r)})
	}
	sortByLabel(opts)
	return opts, nil
}

// OrderStatusOptions lists order statuses that have orders, with counts, sorted by label.
func OrderStatusOptions(ctx context.Context, src CatalogSource) ([]Option, error) {
	counts, err := src.OrderStatusCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing order statuses: %w", err)
	}
	opts := make([]Option, 0, len(counts))
	for status, n := range counts {
		if hiddenStatuses[status] {
			continue
		}
		opts = append(opts, Option{Value: status, Label: Label(status), Count: n})
	}
	sortByLabel(opts)
	return opts, nil
}

// Options returns the filter options for kind.
func Options(ctx context.Context, src CatalogSource, kind Kind) ([]Option, error) {
	switch kind {
	case KindProduct:
		return ProductTypeOptions(ctx, src)
	case KindUser:
		return UserRoleOptions(ctx, src)
	case KindOrder:
		return OrderStatusOptions(ctx, src)
	}
	return nil, fmt.Errorf("unknown entity kind %q", kind)
}

func sortByLabel(opts []Option) {
	sort.SliceStable(opts, func(i, j int) bool {
		if opts[i].Label == opts[j].Label {
			return opts[i].Value < opts[j].Value
		}
		return opts[i].Label < opts[j].Label
	})
}
