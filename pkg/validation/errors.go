package validation

import (
	"sort"
	"strings"
)

// ErrorKind classifies why a field failed validation.
type ErrorKind string

const (
	KindRequired  ErrorKind = "required"
	KindFormat    ErrorKind = "format"
	KindRange     ErrorKind = "range"
	KindSelection ErrorKind = "selection"
)

// FieldError is the validation failure reported for a single field.
type FieldError struct {
	Field   string    `json:"field"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Errors maps field names to their validation failure. A nil or empty map
// means the form is valid.
type Errors map[string]FieldError

// Error joins the messages in field-name order so the output is stable.
func (e Errors) Error() string {
	if len(e) == 0 {
		return ""
	}
	parts := make([]string, 0, len(e))
	for _, name := range e.Fields() {
		parts = append(parts, name+": "+e[name].Message)
	}
	return "validation: " + strings.Join(parts, "; ")
}

// Fields returns the failing field names sorted lexically.
func (e Errors) Fields() []string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Message returns the message for name, or "" when the field is valid.
func (e Errors) Message(name string) string {
	if e == nil {
		return ""
	}
	return e[name].Message
}

// Messages flattens the errors into the field path → messages shape renderers
// consume.
func (e Errors) Messages() map[string][]string {
	if len(e) == 0 {
		return nil
	}
	out := make(map[string][]string, len(e))
	for name, fe := range e {
		out[name] = []string{fe.Message}
	}
	return out
}

// Clone copies the map so callers can hand it out without aliasing.
func (e Errors) Clone() Errors {
	if e == nil {
		return nil
	}
	out := make(Errors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Without returns a copy of e minus the named field.
func (e Errors) Without(name string) Errors {
	if _, ok := e[name]; !ok {
		return e.Clone()
	}
	out := make(Errors, len(e))
	for k, v := range e {
		if k != name {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
