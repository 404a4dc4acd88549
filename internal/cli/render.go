package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formschema/internal/demo"
	"github.com/goliatone/go-formschema/pkg/options"
	"github.com/goliatone/go-formschema/pkg/orchestrator"
	"github.com/goliatone/go-formschema/pkg/render"
	"github.com/goliatone/go-formschema/pkg/renderers/html"
	"github.com/goliatone/go-formschema/pkg/renderers/jsonview"
)

// RenderOptions holds the render command flags.
type RenderOptions struct {
	Renderer  string
	Output    string
	Action    string
	Title     string
	Locale    string
	Templates string
	Document  bool
	Sections  []string
	Fields    []string
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the initial form as HTML or JSON",
		Long: `Render the form's initial view once and write it to stdout or a file.

Async option lists are fetched while rendering; relative option URLs are
resolved against FORMSCHEMA_BASE_URL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd, rootOpts, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.Renderer, "renderer", "r", html.Name, "renderer name (html|json)")
	flags.StringVarP(&opts.Output, "output", "o", "", "write output to a file instead of stdout")
	flags.StringVar(&opts.Action, "action", "", "form action URL")
	flags.StringVar(&opts.Title, "title", "", "form title")
	flags.StringVar(&opts.Locale, "locale", "", "locale for labels and messages")
	flags.StringVar(&opts.Templates, "templates", "", "directory of template overrides")
	flags.BoolVar(&opts.Document, "document", false, "wrap HTML output in a full page")
	flags.StringSliceVar(&opts.Sections, "sections", nil, "only render these sections (by title)")
	flags.StringSliceVar(&opts.Fields, "fields", nil, "only render these field ids")

	return cmd
}

func runRender(cmd *cobra.Command, rootOpts *RootOptions, opts *RenderOptions) error {
	registry := render.NewRegistry()
	htmlOpts := []html.Option{html.WithTemplatesDir(firstNonEmpty(opts.Templates, rootOpts.config.TemplatesDir))}
	if opts.Document {
		htmlOpts = append(htmlOpts, html.WithDocument(""))
	}
	renderer, err := html.New(htmlOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "configure html renderer", err)
	}
	registry.MustRegister(renderer)
	registry.MustRegister(jsonview.New(jsonview.WithIndent("  ")))

	orch := orchestrator.New(
		orchestrator.WithRegistry(registry),
		orchestrator.WithOptionSource(rootOpts.optionSource()),
		orchestrator.WithLogger(rootOpts.logger),
	)

	req, err := rootOpts.request()
	if err != nil {
		return err
	}
	req.Renderer = opts.Renderer
	req.Subset = render.FieldSubset{Sections: opts.Sections, Fields: opts.Fields}
	req.RenderOptions = render.RenderOptions{
		Action: opts.Action,
		Title:  opts.Title,
	}
	if locale := firstNonEmpty(opts.Locale, rootOpts.config.Locale); locale != "" && rootOpts.usesDemo() {
		translator, err := demo.Translations()
		if err != nil {
			return WrapExitError(ExitCommandError, "load translations", err)
		}
		req.RenderOptions.Locale = locale
		req.RenderOptions.Translator = translator
	}

	out, err := orch.Generate(cmd.Context(), req)
	if err != nil {
		return WrapExitError(ExitCommandError, "render form", err)
	}
	return writeOutput(cmd, opts.Output, out)
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return WrapExitError(ExitCommandError, "write output", err)
		}
		if len(data) > 0 && data[len(data)-1] != '\n' {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return WrapExitError(ExitCommandError, "write output", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func (o *RootOptions) optionSource() *options.Source {
	opts := []options.SourceOption{
		options.WithTimeout(o.config.OptionsTimeout),
		options.WithLogger(o.logger),
	}
	if o.config.BaseURL != "" {
		opts = append(opts, options.WithBaseURL(o.config.BaseURL))
	}
	if cache := o.optionCache(); cache != nil {
		opts = append(opts, options.WithCache(cache))
	}
	return options.New(opts...)
}
