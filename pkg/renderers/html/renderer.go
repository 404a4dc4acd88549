// Package html renders a form view as server-side HTML through pongo2
// templates. Each control kind has its own partial under controls/; themes
// may point a kind at a different partial via RendererConfig.Partials.
package html

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/goliatone/go-formschema/pkg/render"
	rendertemplate "github.com/goliatone/go-formschema/pkg/render/template"
	"github.com/goliatone/go-formschema/pkg/render/template/pongo"
	"github.com/goliatone/go-formschema/pkg/values"
)

//go:embed templates/*.tmpl templates/controls/*.tmpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the embedded template bundle rooted at templates/.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

// Name is the registry name of this renderer.
const Name = "html"

// Option configures the renderer.
type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateDir      string
	templateRenderer rendertemplate.TemplateRenderer
	classes          Classes
	document         bool
	stylesheet       string
	script           string
}

// WithTemplatesFS supplies an alternate template bundle.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir layers templates from a directory on disk over the
// embedded bundle, so a single partial can be overridden.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		if _, err := os.Stat(path); err == nil {
			cfg.templateDir = path
		}
	}
}

// WithTemplateRenderer injects a custom template engine.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithClasses overrides the CSS class names used in the markup.
func WithClasses(classes Classes) Option {
	return func(cfg *config) {
		cfg.classes = cfg.classes.merge(classes)
	}
}

// WithDocument wraps the form in a full HTML page.
func WithDocument(stylesheet string) Option {
	return func(cfg *config) {
		cfg.document = true
		cfg.stylesheet = stylesheet
	}
}

// WithScript adds a deferred script to document pages.
func WithScript(src string) Option {
	return func(cfg *config) {
		cfg.script = src
	}
}

// Renderer renders form views to HTML.
type Renderer struct {
	templates  rendertemplate.TemplateRenderer
	classes    Classes
	document   bool
	stylesheet string
	script     string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS(), classes: DefaultClasses()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	engine := cfg.templateRenderer
	if engine == nil {
		opts := []pongo.Option{pongo.WithFS(cfg.templateFS), pongo.WithExtension(".tmpl")}
		if cfg.templateDir != "" {
			opts = append(opts, pongo.WithBaseDir(cfg.templateDir))
		}
		built, err := pongo.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
		}
		engine = built
	}

	return &Renderer{
		templates:  engine,
		classes:    cfg.classes,
		document:   cfg.document,
		stylesheet: cfg.stylesheet,
		script:     cfg.script,
	}, nil
}

func (r *Renderer) Name() string {
	return Name
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

type sectionData struct {
	Title    string   `json:"title,omitempty"`
	Controls []string `json:"controls"`
}

// Render draws every control through its partial, then assembles the form.
func (r *Renderer) Render(_ context.Context, view render.View, opts render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("html renderer: template renderer is nil")
	}
	labels := r.labels(opts)

	sections := make([]sectionData, 0, len(view.Sections))
	for _, section := range view.Sections {
		sd := sectionData{Title: section.Title, Controls: make([]string, 0, len(section.Controls))}
		for _, ctrl := range section.Controls {
			markup, err := r.renderControl(ctrl, labels, opts)
			if err != nil {
				return nil, err
			}
			sd.Controls = append(sd.Controls, markup)
		}
		sections = append(sections, sd)
	}

	data := map[string]any{
		"classes":     r.classes,
		"labels":      labels,
		"method":      opts.FormMethod(),
		"action":      opts.Action,
		"title":       opts.Title,
		"hidden":      render.NormalizeHiddenFields(opts.Hidden...),
		"form_errors": view.FormErrors,
		"sections":    sections,
		"submitting":  view.Submitting,
	}
	applyTheme(data, opts)

	form, err := r.templates.RenderTemplate("form", data)
	if err != nil {
		return nil, fmt.Errorf("html renderer: render form: %w", err)
	}
	if !r.document {
		return []byte(form), nil
	}
	return r.page(opts, opts.Title, form)
}

// ResultEntry is one submitted value shown on the result page.
type ResultEntry struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ResultView describes the page shown after a submit or cancel.
type ResultView struct {
	Title   string
	Message string
	Entries []ResultEntry
	Back    string
}

// ResultEntries turns submitted values into display rows ordered by labels
// when provided, then by key.
func ResultEntries(vals values.Values, labels map[string]string) []ResultEntry {
	keys := vals.Keys()
	sort.SliceStable(keys, func(i, j int) bool {
		return labelFor(keys[i], labels) < labelFor(keys[j], labels)
	})
	out := make([]ResultEntry, 0, len(keys))
	for _, key := range keys {
		out = append(out, ResultEntry{Label: labelFor(key, labels), Value: displayValue(vals[key])})
	}
	return out
}

// RenderResult draws the submit result page.
func (r *Renderer) RenderResult(_ context.Context, result ResultView, opts render.RenderOptions) ([]byte, error) {
	labels := r.labels(opts)
	data := map[string]any{
		"classes": r.classes,
		"labels":  labels,
		"title":   result.Title,
		"message": result.Message,
		"entries": result.Entries,
		"back":    result.Back,
	}
	out, err := r.templates.RenderTemplate("result", data)
	if err != nil {
		return nil, fmt.Errorf("html renderer: render result: %w", err)
	}
	if !r.document {
		return []byte(out), nil
	}
	return r.page(opts, result.Title, out)
}

func (r *Renderer) page(opts render.RenderOptions, title, content string) ([]byte, error) {
	stylesheet := r.stylesheet
	if opts.Theme != nil && opts.Theme.AssetURL != nil {
		if themed := opts.Theme.AssetURL("formschema.css"); themed != "" {
			stylesheet = themed
		}
	}
	lang := opts.Locale
	if lang == "" {
		lang = "en"
	}
	page, err := r.templates.RenderTemplate("page", map[string]any{
		"lang":       lang,
		"title":      title,
		"stylesheet": stylesheet,
		"script":     r.script,
		"content":    content,
	})
	if err != nil {
		return nil, fmt.Errorf("html renderer: render page: %w", err)
	}
	return []byte(page), nil
}

func (r *Renderer) renderControl(ctrl render.Control, labels map[string]string, opts render.RenderOptions) (string, error) {
	name := partialFor(ctrl.Kind, opts)
	optionsURL := ctrl.URL
	if ctrl.Kind == render.KindAsync && opts.OptionsURL != nil {
		optionsURL = opts.OptionsURL(ctrl.ID)
	}
	markup, err := r.templates.RenderTemplate(name, map[string]any{
		"control":     ctrl,
		"classes":     r.classes,
		"labels":      labels,
		"options_url": optionsURL,
	})
	if err != nil {
		return "", fmt.Errorf("html renderer: render %s control %q: %w", ctrl.Kind, ctrl.ID, err)
	}
	return markup, nil
}

func partialFor(kind render.Kind, opts render.RenderOptions) string {
	name := "controls/" + string(kind)
	if opts.Theme != nil {
		if override := strings.TrimSpace(opts.Theme.Partials[name]); override != "" {
			return override
		}
	}
	return name
}

func (r *Renderer) labels(opts render.RenderOptions) map[string]string {
	return map[string]string{
		"submit":     render.Translate(opts, "actions.submit", "Submit"),
		"cancel":     render.Translate(opts, "actions.cancel", "Cancel"),
		"add_row":    render.Translate(opts, "actions.addRow", "Add row"),
		"remove_row": render.Translate(opts, "actions.removeRow", "Remove"),
		"choose":     render.Translate(opts, "controls.choose", "Choose…"),
		"search":     render.Translate(opts, "controls.search", "Search…"),
		"auto_hint":  render.Translate(opts, "controls.autoHint", "Separate entries with commas"),
		"back":       render.Translate(opts, "actions.back", "Back to the form"),
	}
}

func applyTheme(data map[string]any, opts render.RenderOptions) {
	if opts.Theme == nil {
		return
	}
	data["theme"] = opts.Theme.Theme
	data["variant"] = opts.Theme.Variant
	data["style"] = cssVarsStyle(opts.Theme.CSSVars)
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		name := strings.TrimSpace(key)
		value := strings.TrimSpace(vars[key])
		if name == "" || value == "" {
			continue
		}
		if !strings.HasPrefix(name, "--") {
			name = "--" + name
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString(";")
	}
	return b.String()
}

func labelFor(key string, labels map[string]string) string {
	if label, ok := labels[key]; ok && label != "" {
		return label
	}
	return key
}

func displayValue(value any) string {
	if rows, ok := value.([]map[string]any); ok {
		parts := make([]string, 0, len(rows))
		for _, row := range rows {
			cells := make([]string, 0, len(row))
			keys := make([]string, 0, len(row))
			for key := range row {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				cells = append(cells, key+"="+values.String(row[key]))
			}
			parts = append(parts, "{"+strings.Join(cells, ", ")+"}")
		}
		return strings.Join(parts, " ")
	}
	return values.String(value)
}
