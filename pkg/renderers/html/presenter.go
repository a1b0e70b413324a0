// Package html renders the form workflow as server-side HTML pages.
package html

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-healthform/pkg/controller"
	"github.com/goliatone/go-healthform/pkg/model"
	"github.com/goliatone/go-healthform/pkg/render"
	rendertemplate "github.com/goliatone/go-healthform/pkg/render/template"
	"github.com/goliatone/go-healthform/pkg/render/template/gotemplate"
)

// Template names inside the bundle.
const (
	TemplateForm    = "form.tpl"
	TemplatePending = "pending.tpl"
	TemplateSuccess = "success.tpl"
	TemplateError   = "error.tpl"
	TemplateMissing = "missing.tpl"
)

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	manifest         *theme.Manifest
	variant          string
}

// WithTemplatesFS supplies an alternate template bundle.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithTheme replaces the default manifest and picks a variant ("" for base).
func WithTheme(manifest *theme.Manifest, variant string) Option {
	return func(cfg *config) {
		if manifest != nil {
			cfg.manifest = manifest
		}
		cfg.variant = variant
	}
}

// Presenter implements render.Presenter for browsers.
type Presenter struct {
	templates rendertemplate.TemplateRenderer
	theme     Theme
}

var _ render.Presenter = (*Presenter)(nil)

// New constructs the HTML presenter.
func New(options ...Option) (*Presenter, error) {
	cfg := config{templateFS: TemplatesFS(), manifest: DefaultManifest()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(gotemplate.WithFS(cfg.templateFS))
		if err != nil {
			return nil, fmt.Errorf("html presenter: configure template renderer: %w", err)
		}
		renderer = engine
	}

	resolved, err := ResolveTheme(cfg.manifest, cfg.variant)
	if err != nil {
		return nil, err
	}

	return &Presenter{templates: renderer, theme: resolved}, nil
}

func (p *Presenter) Name() string {
	return "html"
}

func (p *Presenter) ContentType() string {
	return "text/html; charset=utf-8"
}

// Present picks the page for state.Status and renders it.
func (p *Presenter) Present(_ context.Context, schema *model.Schema, state controller.State, options render.Options) ([]byte, error) {
	view := render.NewView(schema, state, options)
	return p.render(templateFor(state), view)
}

// PresentMissing renders the page shown when there is no result to display.
func (p *Presenter) PresentMissing(_ context.Context, schema *model.Schema) ([]byte, error) {
	view := render.View{Status: "missing", Message: render.MissingMessage}
	if schema != nil {
		view.Title = schema.Title()
	}
	return p.render(TemplateMissing, view)
}

func (p *Presenter) render(name string, view render.View) ([]byte, error) {
	if p.templates == nil {
		return nil, fmt.Errorf("html presenter: template renderer is nil")
	}

	data := map[string]any{
		"view":        view,
		"theme_name":  p.theme.Name,
		"theme_style": p.theme.CSSVarsStyle(),
	}
	if view.Result != nil {
		data["recommendation_html"] = RenderRecommendation(view.Result.Recommendation)
	}

	result, err := p.templates.RenderTemplate(name, data)
	if err != nil {
		return nil, fmt.Errorf("html presenter: render %s: %w", name, err)
	}
	return []byte(result), nil
}

func templateFor(state controller.State) string {
	switch state.Status {
	case controller.StatusPending:
		return TemplatePending
	case controller.StatusSuccess:
		if state.Result == nil {
			return TemplateMissing
		}
		return TemplateSuccess
	case controller.StatusError:
		return TemplateError
	default:
		return TemplateForm
	}
}
