// Package formschema turns declarative form schemas into live, validated
// forms and renders them as HTML, JSON or terminal prompts.
package formschema

import (
	"context"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formschema/pkg/orchestrator"
	"github.com/goliatone/go-formschema/pkg/render"
	"github.com/goliatone/go-formschema/pkg/schema"
)

// Definition aliases orchestrator.Definition: schema, rules and initial
// values travelling together.
type Definition = orchestrator.Definition

// Request aliases orchestrator.Request.
type Request = orchestrator.Request

// RenderOptions describes per-request overrides such as the submit action,
// hidden fields, theme and locale.
type RenderOptions = render.RenderOptions

// FieldSubset aliases render.FieldSubset for callers rendering only some
// sections or fields.
type FieldSubset = render.FieldSubset

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// GenerateHTML loads the schema, rules and values documents and renders the
// initial form. Rules and values may be nil.
func GenerateHTML(ctx context.Context, schemaSrc, rulesSrc, valuesSrc schema.Source, options ...orchestrator.Option) ([]byte, error) {
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		Schema: schemaSrc,
		Rules:  rulesSrc,
		Values: valuesSrc,
	})
}

// GenerateFromOpenAPI imports an operation's request body as a form and
// renders it with the named renderer. An empty name picks the default.
func GenerateFromOpenAPI(ctx context.Context, source schema.Source, operationID, rendererName string, options ...orchestrator.Option) ([]byte, error) {
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		OpenAPI:     source,
		OperationID: operationID,
		Renderer:    rendererName,
	})
}

// WithThemeSelector passes a go-theme selector through to the orchestrator.
func WithThemeSelector(selector theme.ThemeSelector) orchestrator.Option {
	return orchestrator.WithThemeSelector(selector)
}

// WithThemeFallbacks forwards fallback partials used when deriving renderer
// configuration from a theme selection.
func WithThemeFallbacks(fallbacks map[string]string) orchestrator.Option {
	return orchestrator.WithThemeFallbacks(fallbacks)
}
