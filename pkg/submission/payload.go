package submission

import (
	"fmt"

	"github.com/goliatone/go-healthform/pkg/model"
	"github.com/goliatone/go-healthform/pkg/validation"
)

// Payload is the JSON body sent to the prediction endpoint. Every value is
// numeric: integers as int64, decimals as float64, enum codes as their mapped
// option values.
type Payload map[string]any

// BuildPayload converts a validated record into the request payload.
func BuildPayload(record *validation.Record) (Payload, error) {
	if record == nil {
		return nil, fmt.Errorf("submission: record is nil")
	}
	schema := record.Schema()
	payload := make(Payload, schema.Len())

	for _, field := range schema.Fields() {
		value, ok := record.Value(field.Name)
		if !ok {
			return nil, fmt.Errorf("submission: record is missing field %q", field.Name)
		}
		switch field.Kind {
		case model.FieldKindNumeric:
			if field.Integer {
				payload[field.Name] = int64(value.Number)
			} else {
				payload[field.Name] = value.Number
			}
		case model.FieldKindEnum:
			opt, found := field.Option(value.Code)
			if !found {
				return nil, fmt.Errorf("submission: field %q has no option for code %q", field.Name, value.Code)
			}
			payload[field.Name] = opt.Value
		default:
			return nil, fmt.Errorf("submission: field %q has unsupported kind %q", field.Name, field.Kind)
		}
	}
	return payload, nil
}
