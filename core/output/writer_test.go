package output

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

const payload = "ID,Title\n1,Canvas Cap\n2,Linen Shirt\n"

func writeSource(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCompressFile(t *testing.T) {
	tests := []struct {
		compression string
		wantSuffix  string
		read        func(t *testing.T, path string) string
	}{
		{
			compression: None,
			wantSuffix:  ".csv",
			read:        readPlain,
		},
		{
			compression: GZIP,
			wantSuffix:  ".csv.gz",
			read: func(t *testing.T, path string) string {
				f := openFile(t, path)
				r, err := gzip.NewReader(f)
				if err != nil {
					t.Fatalf("gzip.NewReader() error: %v", err)
				}
				return readAll(t, r)
			},
		},
		{
			compression: ZSTD,
			wantSuffix:  ".csv.zst",
			read: func(t *testing.T, path string) string {
				r, err := zstd.NewReader(openFile(t, path))
				if err != nil {
					t.Fatalf("zstd.NewReader() error: %v", err)
				}
				defer r.Close()
				return readAll(t, r)
			},
		},
		{
			compression: LZ4,
			wantSuffix:  ".csv.lz4",
			read: func(t *testing.T, path string) string {
				return readAll(t, lz4.NewReader(openFile(t, path)))
			},
		},
		{
			compression: ZIP,
			wantSuffix:  ".zip",
			read: func(t *testing.T, path string) string {
				zr, err := zip.OpenReader(path)
				if err != nil {
					t.Fatalf("zip.OpenReader() error: %v", err)
				}
				defer zr.Close()
				if len(zr.File) != 1 || zr.File[0].Name != "report_csv_1.csv" {
					t.Fatalf("unexpected zip entries %v", zr.File)
				}
				rc, err := zr.File[0].Open()
				if err != nil {
					t.Fatal(err)
				}
				defer rc.Close()
				return readAll(t, rc)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.compression, func(t *testing.T) {
			src := writeSource(t, "report_csv_1.csv")
			dst, err := CompressFile(src, tt.compression, "csv")
			if err != nil {
				t.Fatalf("CompressFile() error: %v", err)
			}
			if !strings.HasSuffix(dst, tt.wantSuffix) {
				t.Errorf("CompressFile() path = %s, want suffix %s", dst, tt.wantSuffix)
			}
			if dst != CompressedPath(src, tt.compression) {
				t.Errorf("CompressedPath() = %s, want %s", CompressedPath(src, tt.compression), dst)
			}
			if tt.compression != None {
				if _, err := os.Stat(src); !os.IsNotExist(err) {
					t.Error("uncompressed source should be removed")
				}
			}
			if got := tt.read(t, dst); got != payload {
				t.Errorf("content = %q, want %q", got, payload)
			}
		})
	}
}

func TestCompressFileMissingSource(t *testing.T) {
	if _, err := CompressFile(filepath.Join(t.TempDir(), "nope.csv"), GZIP, "csv"); err == nil {
		t.Error("CompressFile() on a missing file should fail")
	}
}

func TestCreateWriterInvalidCompression(t *testing.T) {
	_, err := CreateWriter(OutputConfig{Path: filepath.Join(t.TempDir(), "x.csv"), Compression: "rar"})
	if err == nil || !strings.Contains(err.Error(), "unsupported compression") {
		t.Errorf("CreateWriter() error = %v", err)
	}
	if ValidateCompression(" GZIP ") != nil || ValidateCompression("") != nil || ValidateCompression("rar") == nil {
		t.Error("ValidateCompression() mismatch")
	}
}

func TestOpenFileAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	for i, chunk := range []string{"a\n", "b\n"} {
		w, err := OpenFile(path, i > 0)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
	}
	if got := readPlain(t, path); got != "a\nb\n" {
		t.Errorf("content = %q, want %q", got, "a\nb\n")
	}

	w, _ := OpenFile(path, false)
	w.Close()
	if got := readPlain(t, path); got != "" {
		t.Errorf("truncating open left %q", got)
	}
}

func TestDetermineZipEntryName(t *testing.T) {
	tests := []struct {
		path, format, want string
	}{
		{"/out/report.zip", "csv", "report.csv"},
		{"/out/report.csv.zip", "csv", "report.csv"},
		{"/out/DATA.ZIP", "json", "data.json"},
		{"/out/.zip", "xlsx", "export.xlsx"},
		{"/out/raw.zip", "", "raw"},
	}
	for _, tt := range tests {
		if got := determineZipEntryName(tt.path, tt.format); got != tt.want {
			t.Errorf("determineZipEntryName(%q, %q) = %q, want %q", tt.path, tt.format, got, tt.want)
		}
	}
}

func TestFixExtension(t *testing.T) {
	tests := map[string]string{
		"out/a.csv":  "out/a.zip",
		"out/a.ZIP":  "out/a.ZIP",
		"out/a.zip":  "out/a.zip",
		"out/noext":  "out/noext.zip",
		"out/a.b.cd": "out/a.b.zip",
	}
	for in, want := range tests {
		if got := fixExtension(in, ".zip"); got != want {
			t.Errorf("fixExtension(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCompositeWriteCloser_NilCloseFunc(t *testing.T) {
	c := &compositeWriteCloser{Writer: &bytes.Buffer{}}
	if err := c.Close(); err != nil {
		t.Errorf("Close() with nil closeFunc = %v", err)
	}
}

func openFile(t *testing.T, path string) *os.File {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func readAll(t *testing.T, r io.Reader) string {
	t.Helper()
	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	return string(b)
}

func readPlain(t *testing.T, path string) string {
	return readAll(t, openFile(t, path))
}
