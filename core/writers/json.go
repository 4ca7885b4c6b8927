package writers

import (
	"fmt"
	"io"

	"github.com/fbz-tec/storexport/core/encoders"
	"github.com/fbz-tec/storexport/core/mapping"
	"github.com/fbz-tec/storexport/core/output"
	"github.com/fbz-tec/storexport/internal/logger"
)

// jsonWriter streams a JSON array. The file is valid JSON only after Close.
type jsonWriter struct {
	path    string
	file    io.WriteCloser
	encoder encoders.OrderedJsonEncoder
	written int
	offset  int64
}

func (w *jsonWriter) Open(t Target) error {
	if err := w.attach(t, false); err != nil {
		return err
	}
	if _, err := w.file.Write([]byte("[\n")); err != nil {
		return fmt.Errorf("error writing JSON opening bracket: %w", err)
	}
	return nil
}

func (w *jsonWriter) Resume(t Target) error {
	if err := rewind(t.Path, t.Offset); err != nil {
		return err
	}
	return w.attach(t, true)
}

func (w *jsonWriter) attach(t Target, appendMode bool) error {
	if err := t.validate(); err != nil {
		return err
	}
	enc, err := encoders.NewOrderedJsonEncoder(t.Headers, t.Labels)
	if err != nil {
		return err
	}
	file, err := output.OpenFile(t.Path, appendMode)
	if err != nil {
		return err
	}
	w.path = t.Path
	w.file = file
	w.encoder = enc
	w.written = t.Written
	return nil
}

func (w *jsonWriter) Append(rows []*mapping.Row) (int, error) {
	if w.file == nil {
		return 0, fmt.Errorf("json writer is not open")
	}
	n := 0
	for _, row := range rows {
		if w.written > 0 {
			if _, err := w.file.Write([]byte(",\n")); err != nil {
				return n, fmt.Errorf("error writing separator: %w", err)
			}
		}
		data, err := w.encoder.EncodeRow(row)
		if err != nil {
			return n, fmt.Errorf("error encoding row: %w", err)
		}
		if _, err := w.file.Write(data); err != nil {
			return n, fmt.Errorf("error writing row: %w", err)
		}
		w.written++
		n++
	}
	return n, nil
}

func (w *jsonWriter) Suspend() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	if err != nil {
		return err
	}
	w.offset, err = sizeOf(w.path)
	return err
}

func (w *jsonWriter) Close() error {
	if w.file == nil {
		return nil
	}
	closing := "\n]\n"
	if w.written == 0 {
		closing = "]\n"
	}
	if _, err := w.file.Write([]byte(closing)); err != nil {
		w.file.Close()
		w.file = nil
		return fmt.Errorf("error writing JSON closing bracket: %w", err)
	}
	logger.Debug("JSON export finalized: %d rows", w.written)
	return w.Suspend()
}

func (w *jsonWriter) Written() int {
	return w.written
}

func (w *jsonWriter) Offset() int64 {
	return w.offset
}

func init() {
	MustRegister(FormatJSON, func() Writer { return &jsonWriter{} })
}
