// Package validation applies a model.Schema to raw form input. Validate is
// pure and total: it never performs I/O, never panics on odd input, and maps
// the same FormValues onto the same outcome every time.
package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goliatone/go-healthform/pkg/model"
)

// Validate checks every field of schema against values. On success it returns
// a Record and nil errors; otherwise it returns nil and one FieldError per
// failing field. Keys in values that the schema does not declare are ignored.
func Validate(schema *model.Schema, values model.FormValues) (*Record, Errors) {
	if schema == nil {
		return nil, Errors{"": {Kind: KindRequired, Message: "form schema is not configured"}}
	}

	errs := make(Errors)
	typed := make(map[string]Value, schema.Len())

	for _, field := range schema.Fields() {
		value, fe, ok := validateField(field, values[field.Name])
		if !ok {
			errs[field.Name] = fe
			continue
		}
		typed[field.Name] = value
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return &Record{schema: schema, values: typed}, nil
}

// Field validates a single raw value against spec. It is exported for
// interactive surfaces that check input as it is typed.
func Field(spec model.FieldSpec, raw any) *FieldError {
	if _, fe, ok := validateField(spec, raw); !ok {
		return &fe
	}
	return nil
}

func validateField(field model.FieldSpec, raw any) (Value, FieldError, bool) {
	if isBlank(raw) {
		return Value{}, fieldError(field, KindRequired, field.Messages.Required), false
	}

	switch field.Kind {
	case model.FieldKindNumeric:
		n, ok := toNumber(raw)
		if !ok || (field.Integer && n != math.Trunc(n)) {
			return Value{}, fieldError(field, KindFormat, field.Messages.Format), false
		}
		if n < field.Min || n > field.Max {
			return Value{}, fieldError(field, KindRange, field.Messages.Range), false
		}
		return Value{Kind: model.FieldKindNumeric, Number: n, Integer: field.Integer}, FieldError{}, true

	case model.FieldKindEnum:
		code, ok := toCode(raw)
		if !ok {
			return Value{}, fieldError(field, KindSelection, field.Messages.Selection), false
		}
		if _, found := field.Option(code); !found {
			return Value{}, fieldError(field, KindSelection, field.Messages.Selection), false
		}
		return Value{Kind: model.FieldKindEnum, Code: code}, FieldError{}, true
	}

	return Value{}, fieldError(field, KindFormat, field.Messages.Format), false
}

func isBlank(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case json.Number:
		return strings.TrimSpace(v.String()) == ""
	case []string:
		return len(v) == 0 || strings.TrimSpace(v[0]) == ""
	}
	return false
}

func toNumber(raw any) (float64, bool) {
	var n float64
	switch v := raw.(type) {
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	case []string:
		return toNumber(v[0])
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		n = parsed
	case int:
		n = float64(v)
	case int8:
		n = float64(v)
	case int16:
		n = float64(v)
	case int32:
		n = float64(v)
	case int64:
		n = float64(v)
	case uint:
		n = float64(v)
	case uint8:
		n = float64(v)
	case uint16:
		n = float64(v)
	case uint32:
		n = float64(v)
	case uint64:
		n = float64(v)
	case float32:
		n = float64(v)
	case float64:
		n = v
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func toCode(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v), true
	case []string:
		return toCode(v[0])
	case json.Number:
		return strings.TrimSpace(v.String()), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), true
	case float32, float64:
		n, ok := toNumber(v)
		if !ok || n != math.Trunc(n) {
			return "", false
		}
		return strconv.FormatFloat(n, 'f', -1, 64), true
	}
	return "", false
}

func fieldError(field model.FieldSpec, kind ErrorKind, template string) FieldError {
	return FieldError{
		Field:   field.Name,
		Kind:    kind,
		Message: renderMessage(template, field),
	}
}

func renderMessage(template string, field model.FieldSpec) string {
	replacer := strings.NewReplacer(
		"{label}", field.DisplayLabel(),
		"{name}", field.Name,
		"{min}", formatNumber(field.Min),
		"{max}", formatNumber(field.Max),
		"{unit}", field.Unit,
	)
	return strings.Join(strings.Fields(replacer.Replace(template)), " ")
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
