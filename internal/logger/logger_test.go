package logger_test

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-healthform/internal/logger"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":        zapcore.InfoLevel,
		"info":    zapcore.InfoLevel,
		"DEBUG":   zapcore.DebugLevel,
		" warn ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for input, want := range cases {
		got, err := logger.ParseLevel(input)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", input, got, want)
		}
	}
	if _, err := logger.ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNew(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		l, err := logger.New("debug", format)
		if err != nil {
			t.Fatalf("New(debug, %q): %v", format, err)
		}
		if !l.Core().Enabled(zapcore.DebugLevel) {
			t.Fatalf("format %q: debug level not enabled", format)
		}
	}

	l, err := logger.New("warn", "json")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("info should be disabled at warn level")
	}

	if _, err := logger.New("info", "xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
