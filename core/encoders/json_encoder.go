package encoders

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/fbz-tec/storexport/core/mapping"
)

// OrderedJsonEncoder encodes rows as JSON objects whose keys follow a fixed
// header order and carry display labels.
type OrderedJsonEncoder struct {
	headers []string
	labels  []string
}

// NewOrderedJsonEncoder creates an encoder for headers; labels[i] is the key
// written for headers[i].
func NewOrderedJsonEncoder(headers, labels []string) (OrderedJsonEncoder, error) {
	if len(headers) != len(labels) {
		return OrderedJsonEncoder{}, fmt.Errorf("json encoder: %d headers but %d labels", len(headers), len(labels))
	}
	return OrderedJsonEncoder{headers: headers, labels: labels}, nil
}

// EncodeRow encodes one row, absent keys rendering as "".
func (o OrderedJsonEncoder) EncodeRow(row *mapping.Row) ([]byte, error) {

	if len(o.headers) == 0 {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer

	// Pre-allocate memory to avoid reallocation
	buf.Grow(len(o.headers) * 32)

	buf.WriteString("  {\n")

	for i, h := range o.headers {
		if i > 0 {
			buf.WriteString(",\n")
		}
		buf.WriteString("    ")

		key, err := marshalWithoutHTMLEscape(o.labels[i])
		if err != nil {
			return nil, fmt.Errorf("error marshaling key %q: %w", o.labels[i], err)
		}
		buf.Write(key)
		buf.WriteString(": ")

		v, _ := row.Get(h)
		value, err := marshalWithoutHTMLEscape(v)
		if err != nil {
			return nil, fmt.Errorf("error marshaling value for key %q: %w", h, err)
		}
		buf.Write(value)
	}

	buf.WriteString("\n  }")
	return buf.Bytes(), nil
}

func marshalWithoutHTMLEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(v); err != nil {
		return nil, err
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
