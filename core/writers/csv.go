package writers

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/fbz-tec/storexport/core/mapping"
	"github.com/fbz-tec/storexport/core/output"
	"github.com/fbz-tec/storexport/internal/logger"
)

type csvWriter struct {
	target  Target
	file    io.WriteCloser
	csv     *csv.Writer
	written int
	offset  int64
}

func (w *csvWriter) Open(t Target) error {
	if err := w.attach(t, false); err != nil {
		return err
	}
	if err := w.csv.Write(t.Labels); err != nil {
		return fmt.Errorf("error writing headers: %w", err)
	}
	logger.Debug("CSV headers written: %d columns", len(t.Labels))
	return nil
}

func (w *csvWriter) Resume(t Target) error {
	if err := rewind(t.Path, t.Offset); err != nil {
		return err
	}
	return w.attach(t, true)
}

func (w *csvWriter) attach(t Target, appendMode bool) error {
	if err := t.validate(); err != nil {
		return err
	}
	file, err := output.OpenFile(t.Path, appendMode)
	if err != nil {
		return err
	}
	w.target = t
	w.file = file
	w.csv = csv.NewWriter(file)
	w.written = t.Written
	return nil
}

func (w *csvWriter) Append(rows []*mapping.Row) (int, error) {
	if w.csv == nil {
		return 0, fmt.Errorf("csv writer is not open")
	}
	n := 0
	for _, row := range rows {
		if err := w.csv.Write(mapping.Values(row, w.target.Headers)); err != nil {
			return n, fmt.Errorf("error writing row: %w", err)
		}
		n++
	}
	w.written += n
	return n, nil
}

func (w *csvWriter) Suspend() error {
	return w.release()
}

func (w *csvWriter) Close() error {
	if err := w.release(); err != nil {
		return err
	}
	logger.Debug("CSV export finalized: %d rows", w.written)
	return nil
}

func (w *csvWriter) release() error {
	if w.file == nil {
		return nil
	}
	w.csv.Flush()
	err := w.csv.Error()
	if cerr := w.file.Close(); cerr != nil && err == nil {
		err = cerr
	}
	w.file, w.csv = nil, nil
	if err != nil {
		return fmt.Errorf("error flushing CSV output: %w", err)
	}
	w.offset, err = sizeOf(w.target.Path)
	return err
}

func (w *csvWriter) Written() int {
	return w.written
}

func (w *csvWriter) Offset() int64 {
	return w.offset
}

func init() {
	MustRegister(FormatCSV, func() Writer { return &csvWriter{} })
}
