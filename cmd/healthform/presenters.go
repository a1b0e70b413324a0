package main

import (
	"fmt"

	"github.com/goliatone/go-healthform/pkg/render"
	"github.com/goliatone/go-healthform/pkg/renderers/html"
	"github.com/goliatone/go-healthform/pkg/renderers/tui"
)

// newPresenters registers every output format the commands accept.
func newPresenters() (*render.Registry, error) {
	page, err := html.New()
	if err != nil {
		return nil, fmt.Errorf("healthform: %w", err)
	}

	registry := render.NewRegistry()
	for _, presenter := range []render.Presenter{
		tui.NewTextPresenter(tui.OutputFormatPrettyText, tui.Theme{}),
		tui.NewTextPresenter(tui.OutputFormatJSON, tui.Theme{}),
		page,
	} {
		if err := registry.Register(presenter); err != nil {
			return nil, fmt.Errorf("healthform: %w", err)
		}
	}
	return registry, nil
}

func presenterFor(registry *render.Registry, output string) (render.Presenter, error) {
	presenter, err := registry.Get(output)
	if err != nil {
		return nil, fmt.Errorf("healthform: unknown output %q: %w", output, err)
	}
	return presenter, nil
}
