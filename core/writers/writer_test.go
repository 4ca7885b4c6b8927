package writers

import (
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/fbz-tec/storexport/core/mapping"
	"github.com/xuri/excelize/v2"
)

var (
	testHeaders = []string{"h1", "h2", "h3"}
	testLabels  = Labels(testHeaders, map[string]string{"h2": "Second"})
)

func row(pairs ...string) *mapping.Row {
	r := mapping.NewRow()
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(pairs[i], pairs[i+1])
	}
	return r
}

func testRows() []*mapping.Row {
	return []*mapping.Row{
		row("h1", "a", "h2", "b & <c>", "h3", "x,y"),
		row("h3", "only3", "h1", "z"),
	}
}

// writeAll writes rows in two activations: the first batch via Open, the rest via Resume.
func writeAll(t *testing.T, format, path string, rows []*mapping.Row) {
	t.Helper()
	target := Target{Path: path, Headers: testHeaders, Labels: testLabels}

	w, err := New(format)
	if err != nil {
		t.Fatalf("New(%s) error: %v", format, err)
	}
	if err := w.Open(target); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if _, err := w.Append(rows[:1]); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if err := w.Suspend(); err != nil {
		t.Fatalf("Suspend() error: %v", err)
	}

	target.Written, target.Offset = w.Written(), w.Offset()
	w, _ = New(format)
	if err := w.Resume(target); err != nil {
		t.Fatalf("Resume() error: %v", err)
	}
	if n, err := w.Append(rows[1:]); err != nil || n != len(rows)-1 {
		t.Fatalf("Append() = %d, %v", n, err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if w.Written() != len(rows) {
		t.Errorf("Written() = %d, want %d", w.Written(), len(rows))
	}
}

var wantRecords = []map[string]string{
	{"h1": "a", "Second": "b & <c>", "h3": "x,y"},
	{"h1": "z", "Second": "", "h3": "only3"},
}

func TestLabels(t *testing.T) {
	if !reflect.DeepEqual(testLabels, []string{"h1", "Second", "h3"}) {
		t.Errorf("Labels() = %v", testLabels)
	}
	if got := Labels([]string{"a"}, nil); got[0] != "a" {
		t.Errorf("Labels(nil map) = %v", got)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	writeAll(t, FormatCSV, path, testRows())

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if !reflect.DeepEqual(records[0], testLabels) {
		t.Fatalf("header row = %v, want %v", records[0], testLabels)
	}
	for i, want := range wantRecords {
		got := map[string]string{}
		for j, label := range records[0] {
			got[label] = records[i+1][j]
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("record %d = %v, want %v", i, got, want)
		}
	}
}

func TestJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	writeAll(t, FormatJSON, path, testRows())

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got []map[string]string
	if err := json.Unmarshal(content, &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, content)
	}
	if !reflect.DeepEqual(got, wantRecords) {
		t.Errorf("records = %v, want %v", got, wantRecords)
	}
	// keys follow header order
	if i, j := strings.Index(string(content), `"h1"`), strings.Index(string(content), `"Second"`); i > j {
		t.Error("keys are not in header order")
	}
}

func TestXMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xml")
	writeAll(t, FormatXML, path, testRows())

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(content), "<?xml") {
		t.Error("expected XML declaration at start")
	}
	got := decodeXMLRows(t, content)
	if !reflect.DeepEqual(got, wantRecords) {
		t.Errorf("records = %v, want %v", got, wantRecords)
	}
}

func decodeXMLRows(t *testing.T, content []byte) []map[string]string {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(string(content)))
	var (
		rows    []map[string]string
		current map[string]string
		field   string
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("invalid XML: %v", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case xmlRootElement:
			case xmlRowElement:
				current = map[string]string{}
			default:
				field = el.Name.Local
				current[field] = ""
			}
		case xml.CharData:
			if field != "" {
				current[field] += string(el)
			}
		case xml.EndElement:
			if el.Name.Local == xmlRowElement {
				rows = append(rows, current)
			}
			field = ""
		}
	}
	return rows
}

func TestSpreadsheetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	writeAll(t, FormatSpreadsheet, path, testRows())

	if _, err := os.Stat(SidecarPath(path)); !os.IsNotExist(err) {
		t.Error("row buffer should be removed after Close")
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Sheet1")
	if err != nil {
		t.Fatalf("GetRows() error: %v", err)
	}
	if len(rows) != 3 || !reflect.DeepEqual(rows[0], testLabels) {
		t.Fatalf("rows = %v", rows)
	}
	if rows[1][1] != "b & <c>" || rows[2][2] != "only3" {
		t.Errorf("unexpected data rows %v", rows[1:])
	}
}

func TestSpreadsheetSplitsSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "split.xlsx")
	w := newXlsxWriter()
	w.maxRows = 3
	if err := w.Open(Target{Path: path, Headers: []string{"ID"}, Labels: []string{"ID"}}); err != nil {
		t.Fatal(err)
	}
	var rows []*mapping.Row
	for _, id := range []string{"1", "2", "3", "4", "5"} {
		rows = append(rows, row("ID", id))
	}
	if _, err := w.Append(rows); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if sheets := f.GetSheetList(); len(sheets) != 3 {
		t.Errorf("sheets = %v, want 3 sheets", sheets)
	}
}

func TestZeroAppends(t *testing.T) {
	for _, format := range Formats {
		t.Run(format, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "empty."+Extension(format))
			w, err := New(format)
			if err != nil {
				t.Fatal(err)
			}
			if err := w.Open(Target{Path: path, Headers: testHeaders, Labels: testLabels}); err != nil {
				t.Fatalf("Open() error: %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close() error: %v", err)
			}
			content, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("output missing: %v", err)
			}
			if format == FormatJSON {
				var v []any
				if err := json.Unmarshal(content, &v); err != nil || len(v) != 0 {
					t.Errorf("empty JSON = %q (%v)", content, err)
				}
			}
		})
	}
}

// TestResumeDiscardsUncommittedRows replays the second activation after a
// lost checkpoint: the rows it appended must appear exactly once.
func TestResumeDiscardsUncommittedRows(t *testing.T) {
	rows := testRows()
	for _, format := range Formats {
		t.Run(format, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "replay."+Extension(format))
			target := Target{Path: path, Headers: testHeaders, Labels: testLabels}

			w, _ := New(format)
			if err := w.Open(target); err != nil {
				t.Fatalf("Open() error: %v", err)
			}
			if _, err := w.Append(rows[:1]); err != nil {
				t.Fatal(err)
			}
			if err := w.Suspend(); err != nil {
				t.Fatal(err)
			}
			checkpoint := target
			checkpoint.Written, checkpoint.Offset = w.Written(), w.Offset()

			// appended and flushed but never committed
			w, _ = New(format)
			if err := w.Resume(checkpoint); err != nil {
				t.Fatalf("Resume() error: %v", err)
			}
			if _, err := w.Append(rows[1:]); err != nil {
				t.Fatal(err)
			}
			if err := w.Suspend(); err != nil {
				t.Fatal(err)
			}

			w, _ = New(format)
			if err := w.Resume(checkpoint); err != nil {
				t.Fatalf("Resume() replay error: %v", err)
			}
			if _, err := w.Append(rows[1:]); err != nil {
				t.Fatal(err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close() error: %v", err)
			}
			if w.Written() != len(rows) {
				t.Errorf("Written() = %d, want %d", w.Written(), len(rows))
			}

			if got := readRecords(t, format, path); !reflect.DeepEqual(got, wantRecords) {
				t.Errorf("records = %v, want %v", got, wantRecords)
			}
		})
	}
}

func TestResumeRejectsShortFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.csv")
	if err := os.WriteFile(path, []byte("h1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w, _ := New(FormatCSV)
	if err := w.Resume(Target{Path: path, Headers: testHeaders, Labels: testLabels, Written: 1, Offset: 100}); err == nil {
		t.Error("Resume() past the end of the file should fail")
	}
}

// readRecords decodes any format into label-keyed records.
func readRecords(t *testing.T, format, path string) []map[string]string {
	t.Helper()
	var table [][]string
	switch format {
	case FormatJSON:
		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		var got []map[string]string
		if err := json.Unmarshal(content, &got); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, content)
		}
		return got
	case FormatXML:
		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		return decodeXMLRows(t, content)
	case FormatCSV:
		f, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()
		if table, err = csv.NewReader(f).ReadAll(); err != nil {
			t.Fatalf("invalid CSV: %v", err)
		}
	case FormatSpreadsheet:
		f, err := excelize.OpenFile(path)
		if err != nil {
			t.Fatalf("OpenFile() error: %v", err)
		}
		defer f.Close()
		if table, err = f.GetRows("Sheet1"); err != nil {
			t.Fatalf("GetRows() error: %v", err)
		}
	}
	var records []map[string]string
	for _, r := range table[1:] {
		rec := map[string]string{}
		for j, label := range table[0] {
			if j < len(r) {
				rec[label] = r[j]
			} else {
				rec[label] = ""
			}
		}
		records = append(records, rec)
	}
	return records
}

func TestResumeMissingSpreadsheetBuffer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.xlsx")
	w, _ := New(FormatSpreadsheet)
	if err := w.Resume(Target{Path: path, Headers: testHeaders, Labels: testLabels, Written: 3}); err == nil {
		t.Error("Resume() without row buffer should fail")
	}
}

func TestTagName(t *testing.T) {
	tests := map[string]string{
		"Title":                "Title",
		"Product Gallery URLs": "Product_Gallery_URLs",
		"_price":               "_price",
		"2nd":                  "_2nd",
		"-x":                   "_-x",
		"":                     "_",
		"a.b/c":                "a_b_c",
	}
	for in, want := range tests {
		if got := TagName(in); got != want {
			t.Errorf("TagName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeAndRegistry(t *testing.T) {
	if Normalize("Excel") != FormatSpreadsheet || Normalize("CSV") != FormatCSV || Normalize("yaml") != "" {
		t.Error("Normalize() mismatch")
	}
	if Extension("excel") != "xlsx" || Extension(FormatJSON) != "json" {
		t.Error("Extension() mismatch")
	}
	if !strings.HasPrefix(ContentType(FormatCSV), "text/csv") || ContentType("nope") != "application/octet-stream" {
		t.Error("ContentType() mismatch")
	}
	if got := List(); !reflect.DeepEqual(got, []string{"csv", "json", "spreadsheet", "xml"}) {
		t.Errorf("List() = %v", got)
	}
	if _, err := New("yaml"); err == nil {
		t.Error("New(yaml) should fail")
	}
	if w, fell := NewOrFallback("yaml"); !fell || w == nil {
		t.Error("NewOrFallback(yaml) should return the CSV fallback")
	}
}

func TestOpenRejectsMismatchedLabels(t *testing.T) {
	w, _ := New(FormatCSV)
	if err := w.Open(Target{Path: filepath.Join(t.TempDir(), "x.csv"), Headers: testHeaders, Labels: []string{"a"}}); err == nil {
		t.Error("Open() with mismatched labels should fail")
	}
}
