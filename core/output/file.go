package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fbz-tec/storexport/internal/logger"
)

// bufferSize of 256KB keeps per-batch flushes cheap on large exports.
const bufferSize = 256 * 1024

func newFileWriter(path string) (io.WriteCloser, error) {
	return OpenFile(path, false)
}

// OpenFile opens path for buffered writing. With appendMode the existing
// content is kept and writes go to the end; otherwise the file is truncated.
func OpenFile(path string, appendMode bool) (io.WriteCloser, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendMode {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
		logger.Debug("Reopening output file for append: %s", path)
	} else {
		logger.Debug("Creating uncompressed output file: %s", path)
	}
	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("error creating file: %w", err)
	}
	return newBufferedWriteCloser(file, bufferSize), nil
}
