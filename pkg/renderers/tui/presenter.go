package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-healthform/pkg/controller"
	"github.com/goliatone/go-healthform/pkg/model"
	"github.com/goliatone/go-healthform/pkg/render"
)

// TextPresenter prints form states for terminals and scripts.
type TextPresenter struct {
	format OutputFormat
	theme  Theme
}

var _ render.Presenter = (*TextPresenter)(nil)

// NewTextPresenter returns a presenter for format; unknown formats fall back
// to pretty text.
func NewTextPresenter(format OutputFormat, theme Theme) *TextPresenter {
	if format != OutputFormatJSON {
		format = OutputFormatPrettyText
	}
	return &TextPresenter{format: format, theme: theme}
}

// Name is the output format, so presenters register as "pretty" and "json".
func (p *TextPresenter) Name() string {
	return string(p.format)
}

func (p *TextPresenter) ContentType() string {
	if p.format == OutputFormatJSON {
		return "application/json"
	}
	return "text/plain; charset=utf-8"
}

func (p *TextPresenter) Present(_ context.Context, schema *model.Schema, state controller.State, options render.Options) ([]byte, error) {
	view := render.NewView(schema, state, options)
	if p.format == OutputFormatJSON {
		return jsonView(view)
	}
	return []byte(p.pretty(view)), nil
}

func jsonView(view render.View) ([]byte, error) {
	payload := struct {
		Status  string             `json:"status"`
		Result  *render.ResultView `json:"result,omitempty"`
		Errors  map[string]string  `json:"errors,omitempty"`
		Message string             `json:"message,omitempty"`
	}{
		Status:  view.Status,
		Result:  view.Result,
		Message: view.Message,
	}
	for _, field := range view.Fields {
		if field.Error == "" {
			continue
		}
		if payload.Errors == nil {
			payload.Errors = make(map[string]string)
		}
		payload.Errors[field.Name] = field.Error
	}
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("tui: encode json: %w", err)
	}
	return append(out, '\n'), nil
}

func (p *TextPresenter) pretty(view render.View) string {
	var b strings.Builder
	switch {
	case view.Result != nil:
		fmt.Fprintf(&b, "%sDisease probability: %s\n", p.theme.InfoPrefix, view.Result.Probability)
		if rec := strings.TrimSpace(view.Result.Recommendation); rec != "" {
			fmt.Fprintf(&b, "%s\n", rec)
		}
	case view.Status == controller.StatusError.String():
		fmt.Fprintf(&b, "%s%s\n", p.theme.ErrorPrefix, view.Message)
	case view.Message != "":
		fmt.Fprintf(&b, "%s%s\n", p.theme.InfoPrefix, view.Message)
	case view.HasErrors:
		fmt.Fprintf(&b, "%sPlease correct the following fields:\n", p.theme.ErrorPrefix)
		for _, field := range view.Fields {
			if field.Error == "" {
				continue
			}
			fmt.Fprintf(&b, "  - %s: %s\n", field.Label, field.Error)
		}
	default:
		for _, field := range view.Fields {
			fmt.Fprintf(&b, "%s: %s\n", field.Label, field.Value)
		}
	}
	return b.String()
}
