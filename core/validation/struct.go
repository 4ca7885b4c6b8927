package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/fbz-tec/storexport/core/resolve"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var messages = map[string]string{
	"required": "field '%s' is required",
	"oneof":    "field '%s' must be one of: %s",
	"datetime": "field '%s' must be a date formatted as %s",
	"min":      "field '%s' must contain at least %s item(s)",
	"dive":     "field '%s' contains an invalid entry",
}

// FieldErrors maps a payload field name to a readable message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fe[k])
	}
	return strings.Join(parts, "; ")
}

// Struct validates s against its `validate` tags. Messages name fields by
// their json tag. It returns nil or a FieldErrors.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid payload: %w", err)
	}

	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	out := FieldErrors{}
	for _, e := range verrs {
		name := e.Field()
		if f, ok := t.FieldByName(e.StructField()); ok {
			if tag := strings.Split(f.Tag.Get("json"), ",")[0]; tag != "" && tag != "-" {
				name = tag
			}
		}
		out[name] = message(name, e)
	}
	return out
}

func message(name string, e validator.FieldError) string {
	msg, ok := messages[e.Tag()]
	if !ok {
		return fmt.Sprintf("field '%s' is invalid: %s", name, e.Tag())
	}
	if strings.Count(msg, "%s") == 2 {
		return fmt.Sprintf(msg, name, e.Param())
	}
	return fmt.Sprintf(msg, name)
}

// Filters validates a filter payload, including the order of custom bounds.
func Filters(f resolve.FilterSpec) error {
	if err := Struct(f); err != nil {
		return err
	}
	if f.DateFrom != "" && f.DateTo != "" {
		from, _ := time.Parse(resolve.DateLayout, f.DateFrom)
		to, _ := time.Parse(resolve.DateLayout, f.DateTo)
		if from.After(to) {
			return FieldErrors{"date_from": "field 'date_from' must not be after 'date_to'"}
		}
	}
	return nil
}
