package gotemplate_test

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-healthform/pkg/render/template/gotemplate"
)

func newEngine(t *testing.T, files fstest.MapFS) *gotemplate.Engine {
	t.Helper()
	engine, err := gotemplate.New(gotemplate.WithFS(files))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngine_RenderTemplateWritesToOutputs(t *testing.T) {
	engine := newEngine(t, fstest.MapFS{
		"hello.tpl": {Data: []byte("Hello {{ name }}!")},
	})

	var sb strings.Builder
	got, err := engine.RenderTemplate("hello", map[string]any{"name": "Ada"}, &sb)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Hello Ada!" || sb.String() != got {
		t.Fatalf("unexpected output %q / %q", got, sb.String())
	}
}

func TestEngine_GlobalContext(t *testing.T) {
	engine := newEngine(t, fstest.MapFS{
		"env.tpl": {Data: []byte("{{ settings.env }}")},
	})
	if err := engine.GlobalContext(map[string]any{"settings": map[string]any{"env": "staging"}}); err != nil {
		t.Fatalf("global context: %v", err)
	}
	got, err := engine.RenderTemplate("env.tpl", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "staging" {
		t.Fatalf("got %q", got)
	}
}

func TestEngine_StructFieldsSurvive(t *testing.T) {
	type view struct {
		Action string `json:"-"`
	}
	engine := newEngine(t, fstest.MapFS{})
	got, err := engine.RenderString("{{ view.Action }}", map[string]any{"view": view{Action: "/go"}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "/go" {
		t.Fatalf("got %q", got)
	}
}

func TestEngine_DefaultFilters(t *testing.T) {
	engine := newEngine(t, fstest.MapFS{})
	got, err := engine.RenderString("{{ p|decimal }} {{ p|percent }} [{{ s|trim }}]", map[string]any{
		"p": 0.23,
		"s": "  x  ",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "0.23 23% [x]" {
		t.Fatalf("got %q", got)
	}
}

func TestEngine_RegisterFilter(t *testing.T) {
	engine := newEngine(t, fstest.MapFS{})
	err := engine.RegisterFilter("healthform_shout", func(input any, _ any) (any, error) {
		s, _ := input.(string)
		if s == "" {
			return nil, errors.New("empty")
		}
		return strings.ToUpper(s) + "!", nil
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := engine.RegisterFilter("healthform_shout", func(any, any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected duplicate filter error")
	}

	got, err := engine.RenderString("{{ word|healthform_shout }}", map[string]any{"word": "hi"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "HI!" {
		t.Fatalf("got %q", got)
	}
}

func TestNew_RequiresSource(t *testing.T) {
	if _, err := gotemplate.New(); err == nil {
		t.Fatalf("expected error without a template source")
	}
}
