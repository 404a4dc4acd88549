package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goliatone/go-theme"

	"github.com/goliatone/go-formschema/pkg/form"
	"github.com/goliatone/go-formschema/pkg/openapi"
	"github.com/goliatone/go-formschema/pkg/render"
	"github.com/goliatone/go-formschema/pkg/renderers/html"
	"github.com/goliatone/go-formschema/pkg/renderers/jsonview"
	"github.com/goliatone/go-formschema/pkg/schema"
	"github.com/goliatone/go-formschema/pkg/validation"
	"github.com/goliatone/go-formschema/pkg/values"
)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLoader injects the document loader.
func WithLoader(loader *schema.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = loader
	}
}

// WithImporter injects the OpenAPI importer.
func WithImporter(importer *openapi.Importer) Option {
	return func(o *Orchestrator) {
		o.importer = importer
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits one.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithOptionSource resolves async options while building views.
func WithOptionSource(lookup render.OptionLookup) Option {
	return func(o *Orchestrator) {
		o.options = lookup
	}
}

// WithThemeSelector resolves theme/variant names into renderer config.
func WithThemeSelector(selector theme.ThemeSelector) Option {
	return func(o *Orchestrator) {
		o.themes = selector
	}
}

// WithThemeFallbacks sets partials used when a theme does not override them.
func WithThemeFallbacks(fallbacks map[string]string) Option {
	return func(o *Orchestrator) {
		o.themeFallbacks = fallbacks
	}
}

// WithLogger injects the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator loads definitions and renders them. Missing dependencies get
// the built-in implementations.
type Orchestrator struct {
	loader          *schema.Loader
	importer        *openapi.Importer
	registry        *render.Registry
	defaultRenderer string
	options         render.OptionLookup
	themes          theme.ThemeSelector
	themeFallbacks  map[string]string
	logger          *slog.Logger
	initialiseErr   error
}

// New constructs an Orchestrator.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{logger: slog.Default()}
	for _, opt := range options {
		if opt != nil {
			opt(o)
		}
	}
	o.applyDefaults()
	return o
}

func (o *Orchestrator) applyDefaults() {
	if o.loader == nil {
		o.loader = schema.NewLoader()
	}
	if o.importer == nil {
		o.importer = openapi.New(openapi.WithLogger(o.logger))
	}
	if o.registry == nil {
		o.registry = render.NewRegistry()
		renderer, err := html.New()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
			return
		}
		o.registry.MustRegister(renderer)
		o.registry.MustRegister(jsonview.New())
	}
}

// Registry exposes the renderer registry.
func (o *Orchestrator) Registry() *render.Registry {
	return o.registry
}

// Request describes where a definition comes from and how to render it.
type Request struct {
	// Definition bypasses loading when set.
	Definition *Definition

	// Schema, Rules and Values name formschema documents. Rules is optional;
	// a missing Values document falls back to the schema's zero values.
	Schema schema.Source
	Rules  schema.Source
	Values schema.Source

	// OpenAPI and OperationID import the definition from an operation's
	// request body instead of Schema.
	OpenAPI     schema.Source
	OperationID string

	// Renderer names the renderer; empty picks the default.
	Renderer string

	// Subset limits rendering to some sections or fields.
	Subset render.FieldSubset

	// ThemeName and ThemeVariant are resolved through the theme selector.
	ThemeName    string
	ThemeVariant string

	RenderOptions render.RenderOptions
}

// Load resolves the request's definition and checks it.
func (o *Orchestrator) Load(ctx context.Context, req Request) (Definition, error) {
	def, err := o.Resolve(ctx, req)
	if err != nil {
		return Definition{}, err
	}
	if err := def.Check(); err != nil {
		return Definition{}, fmt.Errorf("orchestrator: invalid definition: %w", err)
	}
	return def, nil
}

// Resolve loads the request's definition without checking it, for callers
// such as linters that report problems instead of failing on them.
func (o *Orchestrator) Resolve(ctx context.Context, req Request) (Definition, error) {
	if ctx == nil {
		return Definition{}, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return Definition{}, err
	}
	if o.initialiseErr != nil {
		return Definition{}, o.initialiseErr
	}

	switch {
	case req.Definition != nil:
		return *req.Definition, nil
	case req.OpenAPI != nil:
		return o.importOperation(ctx, req)
	case req.Schema != nil:
		return o.loadDocuments(ctx, req)
	default:
		return Definition{}, errors.New("orchestrator: schema, openapi source or definition is required")
	}
}

func (o *Orchestrator) importOperation(ctx context.Context, req Request) (Definition, error) {
	if req.OperationID == "" {
		return Definition{}, errors.New("orchestrator: operation id is required")
	}
	data, err := o.loader.Read(ctx, req.OpenAPI)
	if err != nil {
		return Definition{}, fmt.Errorf("orchestrator: load openapi: %w", err)
	}
	result, err := o.importer.Import(ctx, data, req.OperationID)
	if err != nil {
		return Definition{}, fmt.Errorf("orchestrator: import %q: %w", req.OperationID, err)
	}
	return Definition{Schema: result.Schema, Rules: result.Rules, Values: result.Values}, nil
}

func (o *Orchestrator) loadDocuments(ctx context.Context, req Request) (Definition, error) {
	s, err := o.loader.Load(ctx, req.Schema)
	if err != nil {
		return Definition{}, fmt.Errorf("orchestrator: load schema: %w", err)
	}
	def := Definition{Schema: s}

	if req.Rules != nil {
		data, err := o.loader.Read(ctx, req.Rules)
		if err != nil {
			return Definition{}, fmt.Errorf("orchestrator: load rules: %w", err)
		}
		if def.Rules, err = validation.ParseRulesetSpec(data, req.Rules.Location()); err != nil {
			return Definition{}, fmt.Errorf("orchestrator: %w", err)
		}
	}

	if req.Values == nil {
		def.Values = s.ZeroValues()
		return def, nil
	}
	data, err := o.loader.Read(ctx, req.Values)
	if err != nil {
		return Definition{}, fmt.Errorf("orchestrator: load values: %w", err)
	}
	vals, err := ParseValues(data, req.Values.Location())
	if err != nil {
		return Definition{}, err
	}
	def.Values = vals
	return def, nil
}

// ParseValues decodes a JSON or YAML values document.
func ParseValues(data []byte, name string) (values.Values, error) {
	var vals values.Values
	if err := schema.DecodeDocument(data, name, &vals); err != nil {
		return nil, fmt.Errorf("orchestrator: decode values %s: %w", name, err)
	}
	if vals == nil {
		vals = values.Values{}
	}
	return vals, nil
}

// Generate loads the definition, builds a fresh form session and renders its
// initial view.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	def, err := o.Load(ctx, req)
	if err != nil {
		return nil, err
	}
	f, err := def.NewForm(form.WithOptionSource(o.options), form.WithLogger(o.logger))
	if err != nil {
		return nil, fmt.Errorf("orchestrator: start form: %w", err)
	}
	return o.Render(ctx, f, req)
}

// Render draws the current view of a live form.
func (o *Orchestrator) Render(ctx context.Context, f *form.Form, req Request) ([]byte, error) {
	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return nil, err
	}
	view, err := o.View(ctx, f, req)
	if err != nil {
		return nil, err
	}
	opts, err := o.RenderOptions(req)
	if err != nil {
		return nil, err
	}
	output, err := renderer.Render(ctx, view, opts)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, nil
}

// View builds the form's view, localised and narrowed to the subset.
func (o *Orchestrator) View(ctx context.Context, f *form.Form, req Request) (render.View, error) {
	s := f.Schema()
	if req.RenderOptions.Translator != nil {
		s = render.LocalizeSchema(s, req.RenderOptions)
	}
	if !req.Subset.Empty() {
		s = render.ApplySubset(s, req.Subset)
	}
	view, err := f.ViewOf(ctx, s)
	if err != nil {
		return render.View{}, fmt.Errorf("orchestrator: build view: %w", err)
	}
	return view, nil
}

// RenderOptions resolves the request's theme into its render options.
func (o *Orchestrator) RenderOptions(req Request) (render.RenderOptions, error) {
	opts := req.RenderOptions
	if opts.Theme != nil || o.themes == nil {
		return opts, nil
	}
	cfg, err := o.resolveTheme(req.ThemeName, req.ThemeVariant)
	if err != nil {
		return opts, err
	}
	opts.Theme = cfg
	return opts, nil
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}
	target := name
	if target == "" {
		target = o.defaultRenderer
	}
	renderer, err := o.registry.Get(target)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	return renderer, nil
}
