package render

import (
	"github.com/goliatone/go-theme"
)

// RenderOptions describe per-request data renderers use to customise their
// output without touching the view.
type RenderOptions struct {
	// Action is the submit target. Empty posts back to the current URL.
	Action string
	// Method defaults to POST.
	Method string
	// Title is shown above the form when set.
	Title string
	// Hidden inputs emitted with every submission (session tokens, CSRF).
	Hidden []HiddenField
	// Theme supplies partial overrides, CSS variables, and asset URLs.
	Theme *theme.RendererConfig
	// Locale and Translator localise renderer chrome; LocalizeSchema uses
	// the same pair for schema text.
	Locale     string
	Translator Translator
	OnMissing  MissingTranslationHandler
	// OptionsURL builds the endpoint a browser queries for an async field.
	// When nil renderers fall back to the field's own URL.
	OptionsURL func(fieldID string) string
}

// FormMethod returns Method or POST.
func (o RenderOptions) FormMethod() string {
	if o.Method == "" {
		return "POST"
	}
	return o.Method
}
