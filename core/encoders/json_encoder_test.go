package encoders

import (
	"encoding/json"
	"testing"

	"github.com/fbz-tec/storexport/core/mapping"
)

func TestEncodeRowOrderAndLabels(t *testing.T) {
	enc, err := NewOrderedJsonEncoder([]string{"b", "a", "missing"}, []string{"Bee", "a", "missing"})
	if err != nil {
		t.Fatalf("NewOrderedJsonEncoder() error: %v", err)
	}
	row := mapping.NewRow()
	row.Set("a", "<x & y>")
	row.Set("b", "2")

	got, err := enc.EncodeRow(row)
	if err != nil {
		t.Fatalf("EncodeRow() error: %v", err)
	}
	want := "  {\n    \"Bee\": \"2\",\n    \"a\": \"<x & y>\",\n    \"missing\": \"\"\n  }"
	if string(got) != want {
		t.Errorf("EncodeRow() =\n%s\nwant\n%s", got, want)
	}

	var decoded map[string]string
	if err := json.Unmarshal(got, &decoded); err != nil {
		t.Fatalf("encoded row is not valid JSON: %v", err)
	}
}

func TestEncodeRowEmptyHeaders(t *testing.T) {
	enc, _ := NewOrderedJsonEncoder(nil, nil)
	got, err := enc.EncodeRow(mapping.NewRow())
	if err != nil || string(got) != "{}" {
		t.Errorf("EncodeRow() = %q, %v; want {}", got, err)
	}
}

func TestNewOrderedJsonEncoderMismatch(t *testing.T) {
	if _, err := NewOrderedJsonEncoder([]string{"a"}, nil); err == nil {
		t.Error("expected error for mismatched labels")
	}
}
