package writers

import (
	"encoding/xml"
	"fmt"
	"io"
	"regexp"

	"github.com/fbz-tec/storexport/core/mapping"
	"github.com/fbz-tec/storexport/core/output"
	"github.com/fbz-tec/storexport/internal/logger"
)

const (
	xmlRootElement = "data"
	xmlRowElement  = "row"
)

var invalidTagChars = regexp.MustCompile(`[^A-Za-z0-9_\-]`)

// TagName derives an element name from a display label. Characters outside
// [A-Za-z0-9_-] become "_"; a name that cannot start an element is prefixed with "_".
func TagName(label string) string {
	tag := invalidTagChars.ReplaceAllString(label, "_")
	if tag == "" {
		return "_"
	}
	if c := tag[0]; (c >= '0' && c <= '9') || c == '-' {
		tag = "_" + tag
	}
	return tag
}

type xmlWriter struct {
	target  Target
	tags    []xml.Name
	file    io.WriteCloser
	encoder *xml.Encoder
	written int
	offset  int64
}

func (w *xmlWriter) Open(t Target) error {
	if err := w.attach(t, false); err != nil {
		return err
	}
	if _, err := io.WriteString(w.file, xml.Header+"<"+xmlRootElement+">\n"); err != nil {
		return fmt.Errorf("error writing XML header: %w", err)
	}
	logger.Debug("XML header written")
	return nil
}

func (w *xmlWriter) Resume(t Target) error {
	if err := rewind(t.Path, t.Offset); err != nil {
		return err
	}
	return w.attach(t, true)
}

func (w *xmlWriter) attach(t Target, appendMode bool) error {
	if err := t.validate(); err != nil {
		return err
	}
	file, err := output.OpenFile(t.Path, appendMode)
	if err != nil {
		return err
	}
	w.target = t
	w.tags = make([]xml.Name, len(t.Labels))
	for i, l := range t.Labels {
		w.tags[i] = xml.Name{Local: TagName(l)}
	}
	w.file = file
	w.encoder = xml.NewEncoder(file)
	w.written = t.Written
	return nil
}

func (w *xmlWriter) Append(rows []*mapping.Row) (int, error) {
	if w.file == nil {
		return 0, fmt.Errorf("xml writer is not open")
	}
	n := 0
	for _, row := range rows {
		if err := w.writeRow(row); err != nil {
			return n, err
		}
		w.written++
		n++
	}
	return n, nil
}

func (w *xmlWriter) writeRow(row *mapping.Row) error {
	if _, err := io.WriteString(w.file, "  <"+xmlRowElement+">\n"); err != nil {
		return fmt.Errorf("error opening <%s>: %w", xmlRowElement, err)
	}
	for i, h := range w.target.Headers {
		v, _ := row.Get(h)
		if _, err := io.WriteString(w.file, "    "); err != nil {
			return err
		}
		if err := w.encoder.EncodeElement(v, xml.StartElement{Name: w.tags[i]}); err != nil {
			return fmt.Errorf("error encoding field %s: %w", w.tags[i].Local, err)
		}
		// the encoder buffers; flush before interleaving raw whitespace
		if err := w.encoder.Flush(); err != nil {
			return fmt.Errorf("error flushing XML encoder: %w", err)
		}
		if _, err := io.WriteString(w.file, "\n"); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w.file, "  </"+xmlRowElement+">\n"); err != nil {
		return fmt.Errorf("error closing </%s>: %w", xmlRowElement, err)
	}
	return nil
}

func (w *xmlWriter) Suspend() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file, w.encoder = nil, nil
	if err != nil {
		return err
	}
	w.offset, err = sizeOf(w.target.Path)
	return err
}

func (w *xmlWriter) Close() error {
	if w.file == nil {
		return nil
	}
	if _, err := io.WriteString(w.file, "</"+xmlRootElement+">\n"); err != nil {
		w.Suspend()
		return fmt.Errorf("error ending </%s>: %w", xmlRootElement, err)
	}
	logger.Debug("XML export finalized: %d rows", w.written)
	return w.Suspend()
}

func (w *xmlWriter) Written() int {
	return w.written
}

func (w *xmlWriter) Offset() int64 {
	return w.offset
}

func init() {
	MustRegister(FormatXML, func() Writer { return &xmlWriter{} })
}
