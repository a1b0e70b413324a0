package tui

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-healthform/pkg/render"
)

// OutputFormat controls how results are printed.
type OutputFormat string

const (
	// OutputFormatJSON emits the view as JSON.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatPrettyText emits a human-friendly text summary.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// Theme captures optional prefixes the session applies when printing. Keep
// minimal to avoid coupling session logic to ANSI specifics.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// Option configures a Session.
type Option func(*Session)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithOutputFormat selects how the outcome is printed.
func WithOutputFormat(format OutputFormat) Option {
	return func(s *Session) {
		if format != "" {
			s.format = format
		}
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(s *Session) {
		s.theme = theme
	}
}

// WithPresenter prints results through presenter instead of the built-in
// text presenter for the output format.
func WithPresenter(presenter render.Presenter) Option {
	return func(s *Session) {
		if presenter != nil {
			s.presenter = presenter
		}
	}
}

// WithLogger attaches a zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRetryPrompt toggles the "try again" question after a failure.
func WithRetryPrompt(enabled bool) Option {
	return func(s *Session) {
		s.offerRetry = enabled
	}
}
