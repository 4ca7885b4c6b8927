package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fbz-tec/storexport/internal/logger"
)

const (
	None = "none"
	GZIP = "gzip"
	ZIP  = "zip"
	ZSTD = "zstd"
	LZ4  = "lz4"
)

// Compressions lists the supported compression names.
var Compressions = []string{None, GZIP, ZIP, ZSTD, LZ4}

// OutputConfig holds configuration for output file creation.
type OutputConfig struct {
	Path        string
	Compression string
	Format      string
}

// CreateWriter creates a new writer based on the output configuration.
// Supports various compression formats: none, gzip, zip, zstd, lz4.
// Returns an error if the compression type is unsupported or file creation fails.
func CreateWriter(cfg OutputConfig) (io.WriteCloser, error) {
	switch normalize(cfg.Compression) {
	case None:
		return newFileWriter(cfg.Path)
	case GZIP:
		return newGzipWriter(cfg.Path)
	case ZIP:
		return newZipWriter(cfg.Path, cfg.Format)
	case ZSTD:
		return newZstdWriter(cfg.Path)
	case LZ4:
		return newLz4Writer(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported compression type %q", cfg.Compression)
	}
}

// ValidateCompression reports whether name is a supported compression.
func ValidateCompression(name string) error {
	n := normalize(name)
	for _, c := range Compressions {
		if n == c {
			return nil
		}
	}
	return fmt.Errorf("unsupported compression type %q (available: %s)", name, strings.Join(Compressions, ", "))
}

// CompressedPath returns the path CreateWriter writes to for path.
func CompressedPath(path, compression string) string {
	switch normalize(compression) {
	case GZIP:
		return withSuffix(path, ".gz")
	case ZIP:
		return fixExtension(path, ".zip")
	case ZSTD:
		return withSuffix(path, ".zst")
	case LZ4:
		return withSuffix(path, ".lz4")
	}
	return path
}

// CompressFile compresses a finished file in place and removes the original.
// It returns the path of the compressed file, which is src itself for "none".
func CompressFile(src, compression, format string) (string, error) {
	if normalize(compression) == None {
		return src, nil
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("error opening %s for compression: %w", filepath.Base(src), err)
	}
	defer in.Close()

	out, err := CreateWriter(OutputConfig{Path: src, Compression: compression, Format: format})
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", fmt.Errorf("error compressing %s: %w", filepath.Base(src), err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("error finalizing compressed file: %w", err)
	}

	in.Close()
	if err := os.Remove(src); err != nil {
		logger.Warn("Could not remove uncompressed file %s: %v", src, err)
	}
	dst := CompressedPath(src, compression)
	logger.Debug("Compressed %s -> %s", filepath.Base(src), filepath.Base(dst))
	return dst, nil
}

func normalize(compression string) string {
	c := strings.ToLower(strings.TrimSpace(compression))
	if c == "" {
		return None
	}
	return c
}

func withSuffix(path, suffix string) string {
	if strings.HasSuffix(strings.ToLower(path), suffix) {
		return path
	}
	return path + suffix
}
