package jobs

import (
	"testing"
)

func TestFormatNavigation(t *testing.T) {
	j := &Job{Formats: []string{"csv", "json", "xml"}, CurrentFormat: "csv"}
	if j.FormatIndex() != 0 || j.IsLastFormat() || j.NextFormat() != "json" {
		t.Errorf("csv: index %d last %v next %q", j.FormatIndex(), j.IsLastFormat(), j.NextFormat())
	}
	j.CurrentFormat = "xml"
	if !j.IsLastFormat() || j.NextFormat() != "" {
		t.Error("xml should be the last format")
	}
	j.CurrentFormat = "yaml"
	if j.FormatIndex() != -1 || j.NextFormat() != "" {
		t.Error("unknown current format should have no index")
	}
}

func TestNextSlice(t *testing.T) {
	j := &Job{IDs: []int64{1, 2, 3, 4, 5}, Total: 5}
	tests := []struct {
		processed, size int
		want            []int64
	}{
		{0, 2, []int64{1, 2}},
		{4, 2, []int64{5}},
		{5, 2, nil},
		{0, 0, nil},
	}
	for _, tt := range tests {
		j.Processed = tt.processed
		got := j.NextSlice(tt.size)
		if len(got) != len(tt.want) {
			t.Errorf("NextSlice(%d) at %d = %v, want %v", tt.size, tt.processed, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("NextSlice(%d) at %d = %v, want %v", tt.size, tt.processed, got, tt.want)
			}
		}
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		processed, total int
		want             float64
	}{
		{100, 150, 66.67},
		{150, 150, 100},
		{1, 3, 33.33},
		{0, 0, 100},
		{200, 150, 100},
	}
	for _, tt := range tests {
		j := &Job{Processed: tt.processed, Total: tt.total}
		if got := j.Progress(); got != tt.want {
			t.Errorf("Progress(%d/%d) = %v, want %v", tt.processed, tt.total, got, tt.want)
		}
	}
}

func TestStateTerminal(t *testing.T) {
	if StateWriting.Terminal() || StateCreated.Terminal() || !StateCompleted.Terminal() || !StateFailed.Terminal() {
		t.Error("Terminal() mismatch")
	}
}
