package render

import (
	"context"

	"github.com/goliatone/go-formschema/pkg/schema"
	"github.com/goliatone/go-formschema/pkg/validation"
)

// Renderer turns a View into a byte representation (HTML, JSON, ...).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, view View, options RenderOptions) ([]byte, error)
}

// Session is the live form an interactive renderer edits.
type Session interface {
	Binding
	Schema() schema.Schema
	View(ctx context.Context) (View, error)
	Validate() validation.ErrorMap
}

// Interactive renderers drive a Session instead of producing a document.
type Interactive interface {
	Name() string
	Run(ctx context.Context, session Session) error
}
