package catalog

import (
	"context"
	"reflect"
	"testing"
)

func TestLabel(t *testing.T) {
	tests := map[string]string{
		"simple":        "Simple",
		"shop_manager":  "Shop manager",
		"wc-on-hold":    "On hold",
		"wc-completed":  "Completed",
		"administrator": "Administrator",
		"":              "",
	}
	for in, want := range tests {
		if got := Label(in); got != want {
			t.Errorf("Label(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProductTypeOptionsSimpleFirst(t *testing.T) {
	s := NewMemoryStore()
	s.AddProduct(Product{ID: 1, Type: "variable", Status: StatusPublish})
	s.AddProduct(Product{ID: 2, Type: "grouped", Status: "draft"})
	s.AddProduct(Product{ID: 3, Type: "external", Status: "trash"})

	opts, err := ProductTypeOptions(context.Background(), s)
	if err != nil {
		t.Fatalf("ProductTypeOptions() error: %v", err)
	}
	var values []string
	for _, o := range opts {
		values = append(values, o.Value)
	}
	if want := []string{"simple", "grouped", "variable"}; !reflect.DeepEqual(values, want) {
		t.Errorf("values = %v, want %v", values, want)
	}
}

func TestOrderStatusOptionsCounts(t *testing.T) {
	s := NewDemoStore(testNow)
	s.AddOrder(Order{ID: 200, Status: "wc-completed"}, nil, nil)
	s.AddOrder(Order{ID: 201, Status: "trash"}, nil, nil)

	opts, err := Options(context.Background(), s, KindOrder)
	if err != nil {
		t.Fatalf("Options() error: %v", err)
	}
	want := []Option{
		{Value: "wc-completed", Label: "Completed", Count: 2},
		{Value: "wc-on-hold", Label: "On hold", Count: 1},
		{Value: "wc-processing", Label: "Processing", Count: 1},
	}
	if !reflect.DeepEqual(opts, want) {
		t.Errorf("Options(order) = %v, want %v", opts, want)
	}
}

func TestUserRoleOptionsSortedByLabel(t *testing.T) {
	opts, err := Options(context.Background(), NewDemoStore(testNow), KindUser)
	if err != nil {
		t.Fatalf("Options() error: %v", err)
	}
	var labels []string
	for _, o := range opts {
		labels = append(labels, o.Label)
	}
	if want := []string{"Administrator", "Customer", "Shop manager"}; !reflect.DeepEqual(labels, want) {
		t.Errorf("labels = %v, want %v", labels, want)
	}
}
