package writers

import (
	"github.com/fbz-tec/storexport/internal/logger"
)

// Fallback returns the CSV writer used when a format's own writer cannot be
// built or opened. It writes CSV content at the originally intended path.
func Fallback() Writer {
	return &csvWriter{}
}

// NewOrFallback returns the writer for format, degrading to Fallback when the
// format has no usable writer. The boolean reports whether the fallback is in use.
func NewOrFallback(format string) (Writer, bool) {
	w, err := New(format)
	if err != nil {
		logger.Warn("Writer for %q unavailable, falling back to CSV: %v", format, err)
		return Fallback(), true
	}
	return w, false
}
