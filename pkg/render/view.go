package render

import (
	"fmt"
	"strconv"

	"github.com/goliatone/go-healthform/pkg/controller"
	"github.com/goliatone/go-healthform/pkg/model"
)

// Fixed user-facing copy. Failure causes never reach presenters.
const (
	FailureMessage = "Something went wrong while getting your result. Please try again later."
	PendingMessage = "Calculating your result..."
	MissingMessage = "No result found."
)

// View is the presenter-neutral projection of a State.
type View struct {
	Title          string        `json:"title"`
	Status         string        `json:"status"`
	Fields         []FieldView   `json:"fields,omitempty"`
	HasErrors      bool          `json:"has_errors,omitempty"`
	Result         *ResultView   `json:"result,omitempty"`
	Message        string        `json:"message,omitempty"`
	Action         string        `json:"-"`
	RetryAction    string        `json:"-"`
	RefreshSeconds int           `json:"-"`
	Hidden         []HiddenField `json:"-"`
}

// FieldView is one form control with its current raw value and error.
type FieldView struct {
	Name    string       `json:"name"`
	Label   string       `json:"label"`
	Kind    string       `json:"kind"`
	Unit    string       `json:"unit,omitempty"`
	Help    string       `json:"help,omitempty"`
	Min     string       `json:"min,omitempty"`
	Max     string       `json:"max,omitempty"`
	Step    string       `json:"step,omitempty"`
	Value   string       `json:"value,omitempty"`
	Error   string       `json:"error,omitempty"`
	Options []OptionView `json:"options,omitempty"`
}

// OptionView is one choice of an enum field.
type OptionView struct {
	Code     string `json:"code"`
	Label    string `json:"label"`
	Selected bool   `json:"selected,omitempty"`
}

// ResultView is a successful prediction ready for display.
type ResultView struct {
	Probability    string  `json:"-"`
	Value          float64 `json:"disease_probability"`
	Recommendation string  `json:"recommendation"`
}

// FormatProbability renders p in its shortest decimal form, e.g. 0.23.
func FormatProbability(p float64) string {
	return FormatNumber(p)
}

// FormatNumber renders v without exponent or trailing zeros.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// NewView projects state onto schema. Fields are only included while the
// form is editable.
func NewView(schema *model.Schema, state controller.State, options Options) View {
	view := View{
		Status:         state.Status.String(),
		Action:         options.Action,
		RetryAction:    options.RetryAction,
		RefreshSeconds: options.RefreshSeconds,
		Hidden:         SortedHiddenFields(options.Hidden),
	}
	if view.Action == "" {
		view.Action = "/submissions"
	}
	if schema != nil {
		view.Title = schema.Title()
	}

	switch state.Status {
	case controller.StatusIdle:
		if schema != nil {
			view.Fields = fieldViews(schema, state)
		}
		view.HasErrors = len(state.Errors) > 0
	case controller.StatusPending:
		view.Message = PendingMessage
	case controller.StatusSuccess:
		if state.Result == nil {
			view.Message = MissingMessage
			break
		}
		view.Result = &ResultView{
			Probability:    FormatProbability(state.Result.DiseaseProbability),
			Value:          state.Result.DiseaseProbability,
			Recommendation: state.Result.Recommendation,
		}
	case controller.StatusError:
		view.Message = FailureMessage
	}
	return view
}

func fieldViews(schema *model.Schema, state controller.State) []FieldView {
	specs := schema.Fields()
	out := make([]FieldView, 0, len(specs))
	for _, spec := range specs {
		field := FieldView{
			Name:  spec.Name,
			Label: spec.DisplayLabel(),
			Kind:  string(spec.Kind),
			Unit:  spec.Unit,
			Help:  spec.Help,
			Value: rawString(state.Values[spec.Name]),
			Error: state.Errors.Message(spec.Name),
		}
		switch spec.Kind {
		case model.FieldKindNumeric:
			field.Min = FormatNumber(spec.Min)
			field.Max = FormatNumber(spec.Max)
			field.Step = "any"
			if spec.Integer {
				field.Step = "1"
			}
		case model.FieldKindEnum:
			for _, opt := range spec.Options {
				field.Options = append(field.Options, OptionView{
					Code:     opt.Code,
					Label:    opt.Label,
					Selected: field.Value == opt.Code,
				})
			}
		}
		out = append(out, field)
	}
	return out
}

func rawString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case []string:
		if len(value) == 0 {
			return ""
		}
		return value[0]
	case float64:
		return FormatNumber(value)
	case float32:
		return strconv.FormatFloat(float64(value), 'f', -1, 32)
	default:
		return fmt.Sprint(value)
	}
}
