package validation

import (
	"github.com/goliatone/go-healthform/pkg/model"
)

// Value is one typed, bounds-checked field value.
type Value struct {
	Kind    model.FieldKind
	Number  float64
	Integer bool
	Code    string
}

// Record is a fully validated form snapshot. Only Validate can build one, so
// holding a *Record means every FieldSpec passed at the same time.
type Record struct {
	schema *model.Schema
	values map[string]Value
}

// Schema returns the schema the record was validated against.
func (r *Record) Schema() *model.Schema {
	if r == nil {
		return nil
	}
	return r.schema
}

// Value returns the typed value for name.
func (r *Record) Value(name string) (Value, bool) {
	if r == nil {
		return Value{}, false
	}
	v, ok := r.values[name]
	return v, ok
}

// Number returns a numeric field's value.
func (r *Record) Number(name string) (float64, bool) {
	v, ok := r.Value(name)
	if !ok || v.Kind != model.FieldKindNumeric {
		return 0, false
	}
	return v.Number, true
}

// Code returns an enum field's selected option code.
func (r *Record) Code(name string) (string, bool) {
	v, ok := r.Value(name)
	if !ok || v.Kind != model.FieldKindEnum {
		return "", false
	}
	return v.Code, true
}

// Names lists the record's fields in schema order.
func (r *Record) Names() []string {
	if r == nil {
		return nil
	}
	return r.schema.Names()
}
