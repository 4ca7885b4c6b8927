package catalog

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"product", KindProduct, false},
		{" User ", KindUser, false},
		{"ORDER", KindOrder, false},
		{"coupon", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDateRangeContains(t *testing.T) {
	after := testNow.AddDate(0, 0, -30)
	before := testNow
	r := &DateRange{After: &after, Before: &before}

	if !r.Contains(after) || !r.Contains(before) {
		t.Error("range bounds should be inclusive")
	}
	if r.Contains(after.Add(-time.Second)) {
		t.Error("instant before lower bound should be excluded")
	}
	if r.Contains(before.Add(time.Second)) {
		t.Error("instant after upper bound should be excluded")
	}

	var open *DateRange
	if !open.Contains(time.Time{}) {
		t.Error("nil range should contain everything")
	}
}

func TestMemoryStoreProductIDs(t *testing.T) {
	s := NewDemoStore(testNow)
	ctx := context.Background()

	tests := []struct {
		name string
		q    ProductQuery
		want []int64
	}{
		{"unrestricted hides trash", ProductQuery{}, []int64{1, 2, 3}},
		{"type filter", ProductQuery{Types: []string{ProductTypeVariable}}, []int64{2}},
		{"status filter", ProductQuery{Statuses: []string{"draft"}}, []int64{3}},
		{"explicit trash", ProductQuery{Statuses: []string{"trash"}}, []int64{4}},
		{"limit", ProductQuery{Limit: 2}, []int64{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ProductIDs(ctx, tt.q)
			if err != nil {
				t.Fatalf("ProductIDs() error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ProductIDs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMemoryStoreProductIDsDates(t *testing.T) {
	s := NewDemoStore(testNow)
	after := testNow.AddDate(0, 0, -30)

	created, _ := s.ProductIDs(context.Background(), ProductQuery{Dates: &DateRange{Column: DateCreated, After: &after}})
	if !reflect.DeepEqual(created, []int64{1, 2}) {
		t.Errorf("created filter = %v, want [1 2]", created)
	}

	recent := testNow.AddDate(0, 0, -1)
	modified, _ := s.ProductIDs(context.Background(), ProductQuery{Dates: &DateRange{Column: DateModified, After: &recent}})
	if !reflect.DeepEqual(modified, []int64{1}) {
		t.Errorf("modified filter = %v, want [1]", modified)
	}
}

func TestMemoryStoreNoMatchIsEmptyNotNil(t *testing.T) {
	s := NewDemoStore(testNow)
	ids, err := s.ProductIDs(context.Background(), ProductQuery{Types: []string{"grouped"}})
	if err != nil {
		t.Fatalf("ProductIDs() error: %v", err)
	}
	if ids == nil || len(ids) != 0 {
		t.Errorf("ProductIDs() = %#v, want empty non-nil slice", ids)
	}
}

func TestMemoryStoreVariationIDs(t *testing.T) {
	s := NewDemoStore(testNow)
	got, err := s.VariationIDs(context.Background(), VariationQuery{ParentIDs: []int64{2}})
	if err != nil {
		t.Fatalf("VariationIDs() error: %v", err)
	}
	want := []Variation{{20, 2}, {21, 2}, {22, 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("VariationIDs() = %v, want %v", got, want)
	}

	none, _ := s.VariationIDs(context.Background(), VariationQuery{ParentIDs: []int64{1}})
	if len(none) != 0 {
		t.Errorf("simple product should have no variations, got %v", none)
	}
}

func TestMemoryStoreUserAndOrderIDs(t *testing.T) {
	s := NewDemoStore(testNow)
	ctx := context.Background()

	users, _ := s.UserIDs(ctx, UserQuery{Roles: []string{"customer"}})
	if !reflect.DeepEqual(users, []int64{2, 3}) {
		t.Errorf("UserIDs(customer) = %v, want [2 3]", users)
	}

	orders, _ := s.OrderIDs(ctx, OrderQuery{Statuses: []string{"wc-completed", "wc-on-hold"}})
	if !reflect.DeepEqual(orders, []int64{101, 103}) {
		t.Errorf("OrderIDs() = %v, want [101 103]", orders)
	}
}

func TestMemoryStoreLoadersAndDelete(t *testing.T) {
	s := NewDemoStore(testNow)
	ctx := context.Background()

	p, err := s.Product(ctx, 2)
	if err != nil || p.Name != "Linen Shirt" {
		t.Fatalf("Product(2) = %v, %v", p, err)
	}

	s.Delete(KindProduct, 2)
	if _, err := s.Product(ctx, 2); !errors.Is(err, ErrNotFound) {
		t.Errorf("Product(2) after delete error = %v, want ErrNotFound", err)
	}
	if _, ok, _ := s.Meta(ctx, KindProduct, 2, "_price"); ok {
		t.Error("meta should be removed with its record")
	}
	if _, err := s.User(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("User(99) error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreTermsSortedByName(t *testing.T) {
	s := NewDemoStore(testNow)
	terms, err := s.Terms(context.Background(), 2, "product_tag")
	if err != nil {
		t.Fatalf("Terms() error: %v", err)
	}
	if len(terms) != 2 || terms[0].Name != "cotton" || terms[1].Name != "summer" {
		t.Errorf("Terms() = %v, want [cotton summer]", terms)
	}
}

func TestMemoryStoreCatalog(t *testing.T) {
	s := NewDemoStore(testNow)
	ctx := context.Background()

	keys, _ := s.MetaKeys(ctx, KindUser, []int64{1, 2, 3})
	if !reflect.DeepEqual(keys, []string{"billing_city", "first_name", "last_name"}) {
		t.Errorf("MetaKeys() = %v", keys)
	}

	tax, _ := s.Taxonomies(ctx)
	if !reflect.DeepEqual(tax, []string{"product_cat", "product_tag"}) {
		t.Errorf("Taxonomies() = %v", tax)
	}

	has, _ := s.HasVariations(ctx)
	if !has {
		t.Error("HasVariations() = false, want true")
	}

	sample, _ := s.SampleIDs(ctx, KindProduct, 10)
	if !reflect.DeepEqual(sample, []int64{1, 2, 3, 4}) {
		t.Errorf("SampleIDs() = %v", sample)
	}
}
