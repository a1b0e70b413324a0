package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultMessages are applied to every field that does not override them.
var DefaultMessages = Messages{
	Required:  "{label} is required",
	Format:    "{label} must be a number",
	Range:     "{label} must be between {min} and {max}",
	Selection: "Select a valid option for {label}",
}

// Schema is the immutable, ordered set of FieldSpecs for one form.
type Schema struct {
	name   string
	title  string
	fields []FieldSpec
	index  map[string]int
}

type schemaDocument struct {
	Name     string      `yaml:"name" json:"name"`
	Title    string      `yaml:"title" json:"title"`
	Messages Messages    `yaml:"messages,omitempty" json:"messages,omitempty"`
	Fields   []FieldSpec `yaml:"fields" json:"fields"`
}

// NewSchema validates the field list and returns an immutable Schema. Blank
// message templates are filled from defaults (or DefaultMessages when the
// zero value is passed).
func NewSchema(name, title string, defaults Messages, fields []FieldSpec) (*Schema, error) {
	if len(fields) == 0 {
		return nil, errors.New("model: schema has no fields")
	}
	defaults = defaults.merge(DefaultMessages)

	s := &Schema{
		name:   strings.TrimSpace(name),
		title:  strings.TrimSpace(title),
		fields: make([]FieldSpec, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}

	for i, field := range fields {
		field.Name = strings.TrimSpace(field.Name)
		if field.Name == "" {
			return nil, fmt.Errorf("model: field %d has an empty name", i)
		}
		if _, exists := s.index[field.Name]; exists {
			return nil, fmt.Errorf("model: duplicate field %q", field.Name)
		}
		if err := checkField(field); err != nil {
			return nil, err
		}
		field.Messages = field.Messages.merge(defaults)
		field.Options = append([]Option(nil), field.Options...)

		s.index[field.Name] = len(s.fields)
		s.fields = append(s.fields, field)
	}
	return s, nil
}

func checkField(field FieldSpec) error {
	switch field.Kind {
	case FieldKindNumeric:
		if field.Min > field.Max {
			return fmt.Errorf("model: field %q has min %v greater than max %v", field.Name, field.Min, field.Max)
		}
		if len(field.Options) > 0 {
			return fmt.Errorf("model: numeric field %q must not declare options", field.Name)
		}
	case FieldKindEnum:
		if len(field.Options) == 0 {
			return fmt.Errorf("model: enum field %q declares no options", field.Name)
		}
		codes := make(map[string]struct{}, len(field.Options))
		values := make(map[int]struct{}, len(field.Options))
		for _, opt := range field.Options {
			code := strings.TrimSpace(opt.Code)
			if code == "" {
				return fmt.Errorf("model: enum field %q has an option with an empty code", field.Name)
			}
			if _, dup := codes[code]; dup {
				return fmt.Errorf("model: enum field %q repeats code %q", field.Name, code)
			}
			if _, dup := values[opt.Value]; dup {
				return fmt.Errorf("model: enum field %q maps two codes onto value %d", field.Name, opt.Value)
			}
			codes[code] = struct{}{}
			values[opt.Value] = struct{}{}
		}
	default:
		return fmt.Errorf("model: field %q has unknown kind %q", field.Name, field.Kind)
	}
	return nil
}

// Name identifies the schema (for logs and metrics).
func (s *Schema) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// Title is the human-facing form heading.
func (s *Schema) Title() string {
	if s == nil {
		return ""
	}
	return s.title
}

// Fields returns a copy of the field specs in declaration order.
func (s *Schema) Fields() []FieldSpec {
	if s == nil {
		return nil
	}
	out := make([]FieldSpec, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field looks a spec up by name.
func (s *Schema) Field(name string) (FieldSpec, bool) {
	if s == nil {
		return FieldSpec{}, false
	}
	idx, ok := s.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return s.fields[idx], true
}

// Names lists the field names in declaration order.
func (s *Schema) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.fields))
	for i, field := range s.fields {
		out[i] = field.Name
	}
	return out
}

// Len reports the number of fields.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// LoadSchema parses a YAML (or JSON) schema document. Unknown keys are
// rejected so typos in bounds or option lists surface at startup.
func LoadSchema(data []byte) (*Schema, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("model: schema document is empty")
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc schemaDocument
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("model: decode schema: %w", err)
	}
	return NewSchema(doc.Name, doc.Title, doc.Messages, doc.Fields)
}

// LoadSchemaFile reads and parses a schema document from disk.
func LoadSchemaFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("model: read schema %s: %w", path, err)
	}
	return LoadSchema(data)
}

func (s *Schema) document() schemaDocument {
	return schemaDocument{
		Name:   s.name,
		Title:  s.title,
		Fields: s.Fields(),
	}
}

// MarshalYAML renders the schema back into its document form. Field messages
// are emitted fully resolved.
func (s *Schema) MarshalYAML() (any, error) {
	if s == nil {
		return nil, nil
	}
	return s.document(), nil
}

// MarshalJSON mirrors MarshalYAML.
func (s *Schema) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	return json.Marshal(s.document())
}

var (
	defaultOnce   sync.Once
	defaultSchema *Schema
	defaultErr    error
)

// Default returns the embedded cardiovascular risk schema.
func Default() *Schema {
	defaultOnce.Do(func() {
		defaultSchema, defaultErr = LoadSchema(embeddedCardioSchema)
	})
	if defaultErr != nil {
		panic(defaultErr)
	}
	return defaultSchema
}
