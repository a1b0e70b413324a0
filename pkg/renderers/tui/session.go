package tui

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-healthform/pkg/controller"
	"github.com/goliatone/go-healthform/pkg/model"
	"github.com/goliatone/go-healthform/pkg/render"
)

// Session walks a user through one form in the terminal: every field is
// prompted, failed fields are asked again with their message, and the
// outcome is printed once the request settles.
type Session struct {
	form       *controller.Controller
	driver     PromptDriver
	format     OutputFormat
	presenter  render.Presenter
	theme      Theme
	logger     *zap.Logger
	offerRetry bool
}

// New builds a session around form. The survey driver is used unless
// WithPromptDriver says otherwise.
func New(form *controller.Controller, options ...Option) (*Session, error) {
	if form == nil {
		return nil, ErrNoController
	}
	s := &Session{
		form:       form,
		format:     OutputFormatPrettyText,
		logger:     zap.NewNop(),
		offerRetry: true,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	if s.driver == nil {
		s.driver = NewSurveyDriver(nil)
	}
	return s, nil
}

// Run prompts, submits and prints until the form ends in Success, or in Error
// without a retry. It returns the final state; errors are reserved for
// aborts, cancelled contexts and driver failures.
func (s *Session) Run(ctx context.Context) (controller.State, error) {
	if ctx == nil {
		return controller.State{}, fmt.Errorf("tui: context is required")
	}
	schema := s.form.Schema()
	presenter := s.presenter
	if presenter == nil {
		presenter = NewTextPresenter(s.format, s.theme)
	}

	for _, field := range schema.Fields() {
		if err := s.promptField(ctx, field); err != nil {
			return s.form.State(), err
		}
	}

	for {
		state := s.form.Submit(ctx)
		if state.Status == controller.StatusIdle {
			if err := s.correct(ctx, schema, state); err != nil {
				return s.form.State(), err
			}
			continue
		}

		if state.Status == controller.StatusPending {
			if err := s.driver.Info(ctx, s.theme.InfoPrefix+render.PendingMessage); err != nil {
				return state, err
			}
		}
		final, err := s.form.Wait(ctx)
		if err != nil {
			return final, err
		}
		s.logger.Debug("form settled", zap.Stringer("status", final.Status))

		out, err := presenter.Present(ctx, schema, final, render.Options{})
		if err != nil {
			return final, err
		}
		if err := s.driver.Info(ctx, strings.TrimRight(string(out), "\n")); err != nil {
			return final, err
		}

		if final.Status != controller.StatusError || !s.offerRetry {
			return final, nil
		}
		retry, err := s.driver.Confirm(ctx, ConfirmConfig{Message: "Try again?", Default: true})
		if err != nil {
			return final, err
		}
		if !retry {
			return final, nil
		}
		s.form.Reset()
	}
}

// correct shows each validation message and asks for that field again.
func (s *Session) correct(ctx context.Context, schema *model.Schema, state controller.State) error {
	for _, field := range schema.Fields() {
		message := state.Errors.Message(field.Name)
		if message == "" {
			continue
		}
		if err := s.driver.Info(ctx, s.theme.ErrorPrefix+message); err != nil {
			return err
		}
		if err := s.promptField(ctx, field); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) promptField(ctx context.Context, field model.FieldSpec) error {
	current := currentValue(s.form.State().Values[field.Name])

	switch field.Kind {
	case model.FieldKindEnum:
		labels := make([]string, len(field.Options))
		defaultIdx := -1
		for i, opt := range field.Options {
			labels[i] = opt.Label
			if opt.Code == current {
				defaultIdx = i
			}
		}
		for {
			idx, err := s.driver.Select(ctx, SelectConfig{
				Message:      field.DisplayLabel(),
				Options:      labels,
				DefaultIndex: defaultIdx,
				Help:         field.Help,
			})
			if err != nil {
				return err
			}
			if idx < 0 || idx >= len(field.Options) {
				if err := s.driver.Info(ctx, fmt.Sprintf("%sInvalid %s selection", s.theme.ErrorPrefix, field.DisplayLabel())); err != nil {
					return err
				}
				continue
			}
			s.form.Set(field.Name, field.Options[idx].Code)
			return nil
		}

	default:
		input, err := s.driver.Input(ctx, InputConfig{
			Message: numericMessage(field),
			Default: current,
			Help:    numericHelp(field),
		})
		if err != nil {
			return err
		}
		s.form.Set(field.Name, strings.TrimSpace(input))
		return nil
	}
}

func numericMessage(field model.FieldSpec) string {
	if field.Unit == "" {
		return field.DisplayLabel()
	}
	return fmt.Sprintf("%s (%s)", field.DisplayLabel(), field.Unit)
}

func numericHelp(field model.FieldSpec) string {
	if field.Help != "" {
		return field.Help
	}
	return strings.TrimSpace(fmt.Sprintf("Between %s and %s %s",
		render.FormatNumber(field.Min), render.FormatNumber(field.Max), field.Unit))
}

func currentValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	default:
		return fmt.Sprint(value)
	}
}
