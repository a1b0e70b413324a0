package model

import (
	"sort"
	"strings"
)

// FieldKind enumerates the validation families a FieldSpec can belong to.
type FieldKind string

const (
	FieldKindNumeric FieldKind = "numeric"
	FieldKindEnum    FieldKind = "enum"
)

// Option is one allowed value of an enum field. Code is what the user picks
// (and what forms post back); Value is the number sent to the prediction API.
type Option struct {
	Code  string `yaml:"code" json:"code"`
	Value int    `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

// Messages holds the human-readable error templates for a field. Templates may
// reference {label}, {min}, {max} and {unit}.
type Messages struct {
	Required  string `yaml:"required,omitempty" json:"required,omitempty"`
	Format    string `yaml:"format,omitempty" json:"format,omitempty"`
	Range     string `yaml:"range,omitempty" json:"range,omitempty"`
	Selection string `yaml:"selection,omitempty" json:"selection,omitempty"`
}

// merge returns m with blank templates filled from fallback.
func (m Messages) merge(fallback Messages) Messages {
	if strings.TrimSpace(m.Required) == "" {
		m.Required = fallback.Required
	}
	if strings.TrimSpace(m.Format) == "" {
		m.Format = fallback.Format
	}
	if strings.TrimSpace(m.Range) == "" {
		m.Range = fallback.Range
	}
	if strings.TrimSpace(m.Selection) == "" {
		m.Selection = fallback.Selection
	}
	return m
}

// FieldSpec is the declarative validation rule for a single input.
type FieldSpec struct {
	Name     string    `yaml:"name" json:"name"`
	Label    string    `yaml:"label,omitempty" json:"label,omitempty"`
	Kind     FieldKind `yaml:"kind" json:"kind"`
	Integer  bool      `yaml:"integer,omitempty" json:"integer,omitempty"`
	Min      float64   `yaml:"min,omitempty" json:"min,omitempty"`
	Max      float64   `yaml:"max,omitempty" json:"max,omitempty"`
	Unit     string    `yaml:"unit,omitempty" json:"unit,omitempty"`
	Help     string    `yaml:"help,omitempty" json:"help,omitempty"`
	Options  []Option  `yaml:"options,omitempty" json:"options,omitempty"`
	Messages Messages  `yaml:"messages,omitempty" json:"messages,omitempty"`
}

// DisplayLabel falls back to the field name when no label is configured.
func (f FieldSpec) DisplayLabel() string {
	if strings.TrimSpace(f.Label) != "" {
		return f.Label
	}
	return f.Name
}

// Option resolves an enum option by its code.
func (f FieldSpec) Option(code string) (Option, bool) {
	for _, opt := range f.Options {
		if opt.Code == code {
			return opt, true
		}
	}
	return Option{}, false
}

// Codes lists the allowed option codes in declaration order.
func (f FieldSpec) Codes() []string {
	out := make([]string, 0, len(f.Options))
	for _, opt := range f.Options {
		out = append(out, opt.Code)
	}
	return out
}

// FormValues maps field names to raw user input. Values are strings as typed
// or posted, or numbers when decoded from JSON/YAML.
type FormValues map[string]any

// Clone returns a shallow copy; raw values are immutable scalars.
func (v FormValues) Clone() FormValues {
	out := make(FormValues, len(v))
	for key, value := range v {
		out[key] = value
	}
	return out
}

// Keys returns the field names in lexical order.
func (v FormValues) Keys() []string {
	keys := make([]string, 0, len(v))
	for key := range v {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// SubmissionResult is the prediction returned by the external service.
type SubmissionResult struct {
	DiseaseProbability float64 `json:"disease_probability"`
	Recommendation     string  `json:"recommendation"`
}
