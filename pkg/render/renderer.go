package render

import (
	"context"

	"github.com/goliatone/go-healthform/pkg/controller"
	"github.com/goliatone/go-healthform/pkg/model"
)

// Presenter turns a form State into bytes (HTML, text, JSON).
type Presenter interface {
	Name() string
	ContentType() string
	Present(ctx context.Context, schema *model.Schema, state controller.State, options Options) ([]byte, error)
}
