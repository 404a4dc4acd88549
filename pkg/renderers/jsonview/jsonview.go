// Package jsonview serialises a form view so a browser runtime can draw it.
package jsonview

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formschema/pkg/render"
)

// Name is the registry name of this renderer.
const Name = "json"

// Option customises the renderer.
type Option func(*Renderer)

// WithIndent pretty prints the payload.
func WithIndent(indent string) Option {
	return func(r *Renderer) {
		r.indent = indent
	}
}

// Renderer writes the view model as JSON.
type Renderer struct {
	indent string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the renderer.
func New(options ...Option) *Renderer {
	r := &Renderer{}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Renderer) Name() string {
	return Name
}

func (r *Renderer) ContentType() string {
	return "application/json"
}

// Payload is the document Render emits.
type Payload struct {
	Form   FormMeta          `json:"form"`
	Theme  *ThemeMeta        `json:"theme,omitempty"`
	Labels map[string]string `json:"labels"`
	View   render.View       `json:"view"`
}

// FormMeta carries the submission target.
type FormMeta struct {
	Action  string               `json:"action,omitempty"`
	Method  string               `json:"method"`
	Title   string               `json:"title,omitempty"`
	Hidden  []render.HiddenField `json:"hidden,omitempty"`
	Options map[string]string    `json:"optionsUrls,omitempty"`
}

// ThemeMeta is the serialisable part of a theme selection.
type ThemeMeta struct {
	Name     string            `json:"name,omitempty"`
	Variant  string            `json:"variant,omitempty"`
	Partials map[string]string `json:"partials,omitempty"`
	Tokens   map[string]string `json:"tokens,omitempty"`
	CSSVars  map[string]string `json:"cssVars,omitempty"`
}

// Build assembles the payload without encoding it.
func Build(view render.View, opts render.RenderOptions) Payload {
	payload := Payload{
		Form: FormMeta{
			Action: opts.Action,
			Method: opts.FormMethod(),
			Title:  opts.Title,
			Hidden: render.NormalizeHiddenFields(opts.Hidden...),
		},
		Theme: themeMeta(opts.Theme),
		Labels: map[string]string{
			"submit":    render.Translate(opts, "actions.submit", "Submit"),
			"cancel":    render.Translate(opts, "actions.cancel", "Cancel"),
			"addRow":    render.Translate(opts, "actions.addRow", "Add row"),
			"removeRow": render.Translate(opts, "actions.removeRow", "Remove"),
		},
		View: view,
	}
	if opts.OptionsURL != nil {
		urls := make(map[string]string)
		for _, section := range view.Sections {
			for _, ctrl := range section.Controls {
				if ctrl.Kind == render.KindAsync {
					urls[ctrl.ID] = opts.OptionsURL(ctrl.ID)
				}
			}
		}
		if len(urls) > 0 {
			payload.Form.Options = urls
		}
	}
	return payload
}

// Render encodes the payload.
func (r *Renderer) Render(_ context.Context, view render.View, opts render.RenderOptions) ([]byte, error) {
	payload := Build(view, opts)
	var (
		out []byte
		err error
	)
	if r.indent != "" {
		out, err = json.MarshalIndent(payload, "", r.indent)
	} else {
		out, err = json.Marshal(payload)
	}
	if err != nil {
		return nil, fmt.Errorf("json renderer: marshal view: %w", err)
	}
	return out, nil
}

func themeMeta(cfg *theme.RendererConfig) *ThemeMeta {
	if cfg == nil {
		return nil
	}
	return &ThemeMeta{
		Name:     cfg.Theme,
		Variant:  cfg.Variant,
		Partials: copyStringMap(cfg.Partials),
		Tokens:   copyStringMap(cfg.Tokens),
		CSSVars:  copyStringMap(cfg.CSSVars),
	}
}

func copyStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
