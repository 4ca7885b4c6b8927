package formatters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fbz-tec/storexport/internal/logger"
)

var timeFormatReplacer = strings.NewReplacer(
	"yyyy", "2006",
	"yy", "06",
	"MM", "01",
	"dd", "02",
	"HH", "15",
	"mm", "04",
	"ss", "05",
	"SSS", "000", // Milliseconds
	"S", "0", // Deciseconds
)

// ValueFormatter renders record attributes as the display strings stored in a row.
type ValueFormatter struct {
	layout string
	loc    *time.Location
}

// NewValueFormatter builds a formatter from a user time format such as
// "yyyy-MM-dd HH:mm:ss" and an optional IANA time zone.
func NewValueFormatter(userTimefmt, timeZone string) ValueFormatter {
	if userTimefmt == "" {
		userTimefmt = "yyyy-MM-dd HH:mm:ss"
	}
	layout, loc := UserTimeZoneFormat(userTimefmt, timeZone)
	return ValueFormatter{layout: layout, loc: loc}
}

// Time formats t, returning "" for the zero time.
func (f ValueFormatter) Time(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(f.loc).Format(f.layout)
}

// Format converts any scalar or composite value to its display string.
// Composite values (maps, slices other than []string) are rendered as JSON.
func (f ValueFormatter) Format(v any) string {
	if v == nil {
		return ""
	}

	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case bool:
		if val {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return formatFloat(float64(val))
	case float64:
		return formatFloat(val)
	case json.Number:
		return val.String()
	case time.Time:
		return f.Time(val)
	case *time.Time:
		if val == nil {
			return ""
		}
		return f.Time(*val)
	case fmt.Stringer:
		return val.String()
	case []string:
		return strings.Join(val, ", ")
	default:
		return ToJSON(val)
	}
}

// ToJSON marshals v without HTML escaping; marshal failures yield "".
func ToJSON(v any) string {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		logger.Debug("Unable to encode value %T as JSON: %v", v, err)
		return ""
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}

func formatFloat(v float64) string {
	if v == float64(int64(v)) && v < 1e15 && v > -1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return fmt.Sprintf("%.15g", v)
}

// UserTimeZoneFormat converts a user time format and resolves the zone,
// falling back to local time for an unknown zone.
func UserTimeZoneFormat(userTimefmt string, timeZone string) (string, *time.Location) {

	layout := ConvertUserTimeFormat(userTimefmt)

	if timeZone == "" {
		return layout, time.Local
	}

	loc, err := time.LoadLocation(timeZone)

	if err != nil {
		logger.Warn("Invalid timezone %q, using local time: %v", timeZone, err)
		return layout, time.Local
	}

	return layout, loc
}

func ConvertUserTimeFormat(userTimefmt string) string {
	return timeFormatReplacer.Replace(userTimefmt)
}
