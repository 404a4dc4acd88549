// Package cli wires the formschema commands.
package cli

import (
	"context"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formschema/internal/config"
	"github.com/goliatone/go-formschema/internal/demo"
	"github.com/goliatone/go-formschema/internal/logging"
	"github.com/goliatone/go-formschema/pkg/orchestrator"
	"github.com/goliatone/go-formschema/pkg/renderers/tui"
	"github.com/goliatone/go-formschema/pkg/schema"
)

// RootOptions holds the flags shared by every command. Empty document flags
// fall back to FORMSCHEMA_* environment settings, then to the embedded demo
// form.
type RootOptions struct {
	Schema    string
	Rules     string
	Values    string
	OpenAPI   string
	Operation string
	LogLevel  string
	LogFormat string

	config config.Config
	logger *slog.Logger
	// driver replaces the survey prompts in tests.
	driver tui.PromptDriver
}

// NewRootCommand creates the formschema command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	opts.logger = slog.Default()

	cmd := &cobra.Command{
		Use:   "formschema",
		Short: "Render and serve declarative forms",
		Long: `formschema turns a schema of sections and fields, an optional ruleset and
initial values into a live form: HTML pages, a JSON view model, or
terminal prompts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.prepare(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.Schema, "schema", "", "schema document (yaml or json)")
	flags.StringVar(&opts.Rules, "rules", "", "ruleset document")
	flags.StringVar(&opts.Values, "values", "", "initial values document")
	flags.StringVar(&opts.OpenAPI, "openapi", "", "OpenAPI document to import the form from")
	flags.StringVar(&opts.Operation, "operation", "", "operation id used with --openapi")
	flags.StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")
	flags.StringVar(&opts.LogFormat, "log-format", "", "log format (text|json)")

	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewPromptCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewJSONSchemaCommand(opts))
	cmd.AddCommand(NewImportOpenAPICommand(opts))

	return cmd
}

func (o *RootOptions) prepare(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "load configuration", err)
	}
	o.config = cfg

	flags := cmd.Flags()
	fallback := func(name string, dst *string, value string) {
		if !flags.Changed(name) && *dst == "" {
			*dst = value
		}
	}
	fallback("schema", &o.Schema, cfg.SchemaPath)
	fallback("rules", &o.Rules, cfg.RulesPath)
	fallback("values", &o.Values, cfg.ValuesPath)
	fallback("log-level", &o.LogLevel, cfg.LogLevel)
	fallback("log-format", &o.LogFormat, cfg.LogFormat)

	logger, _, err := logging.New(o.LogLevel, o.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "configure logging", err)
	}
	o.logger = logger
	slog.SetDefault(logger)
	return nil
}

// usesDemo reports whether no document was named.
func (o *RootOptions) usesDemo() bool {
	return o.Schema == "" && o.OpenAPI == ""
}

// request describes the definition the flags point at.
func (o *RootOptions) request() (orchestrator.Request, error) {
	switch {
	case o.OpenAPI != "":
		if o.Operation == "" {
			return orchestrator.Request{}, NewExitError(ExitCommandError, "--operation is required with --openapi")
		}
		return orchestrator.Request{OpenAPI: source(o.OpenAPI), OperationID: o.Operation}, nil
	case o.Schema != "":
		req := orchestrator.Request{Schema: source(o.Schema)}
		if o.Rules != "" {
			req.Rules = source(o.Rules)
		}
		if o.Values != "" {
			req.Values = source(o.Values)
		}
		return req, nil
	default:
		def, err := demo.Definition()
		if err != nil {
			return orchestrator.Request{}, WrapExitError(ExitCommandError, "load demo form", err)
		}
		return orchestrator.Request{Definition: &def}, nil
	}
}

// definition loads and checks the definition the flags point at.
func (o *RootOptions) definition(ctx context.Context, orch *orchestrator.Orchestrator) (orchestrator.Definition, error) {
	req, err := o.request()
	if err != nil {
		return orchestrator.Definition{}, err
	}
	def, err := orch.Load(ctx, req)
	if err != nil {
		return orchestrator.Definition{}, WrapExitError(ExitCommandError, "load form", err)
	}
	return def, nil
}

func source(location string) schema.Source {
	if isURL(location) {
		return schema.SourceFromURL(location)
	}
	return schema.SourceFromFile(location)
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
