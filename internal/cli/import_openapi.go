package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formschema/pkg/openapi"
	"github.com/goliatone/go-formschema/pkg/orchestrator"
	"github.com/goliatone/go-formschema/pkg/schema"
)

// ImportOptions holds the import-openapi command flags.
type ImportOptions struct {
	Operation string
	OutDir    string
	Format    string
}

// NewImportOpenAPICommand creates the import-openapi command.
func NewImportOpenAPICommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{}

	cmd := &cobra.Command{
		Use:   "import-openapi <document>",
		Short: "Convert an OpenAPI request body into form documents",
		Long: `Import the request body of one OpenAPI operation as a schema, ruleset and
initial values. Without --operation the document's operations are listed.

With --out-dir the three documents are written as schema.yaml, rules.yaml
and values.json, ready for --schema, --rules and --values.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, rootOpts, args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Operation, "operation", "", "operation id to import")
	flags.StringVar(&opts.OutDir, "out-dir", "", "write schema, rules and values documents to this directory")
	flags.StringVar(&opts.Format, "format", "yaml", "stdout format for the combined definition (yaml|json)")

	return cmd
}

func runImport(cmd *cobra.Command, rootOpts *RootOptions, location string, opts *ImportOptions) error {
	ctx := cmd.Context()
	data, err := schema.NewLoader().Read(ctx, source(location))
	if err != nil {
		return WrapExitError(ExitCommandError, "read openapi document", err)
	}
	importer := openapi.New(openapi.WithLogger(rootOpts.logger))

	if opts.Operation == "" {
		ops, err := importer.Operations(ctx, data)
		if err != nil {
			return WrapExitError(ExitCommandError, "list operations", err)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "OPERATION\tMETHOD\tPATH\tBODY")
		for _, op := range ops {
			body := "-"
			if op.HasBody {
				body = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", op.ID, op.Method, op.Path, body)
		}
		return w.Flush()
	}

	result, err := importer.Import(ctx, data, opts.Operation)
	if err != nil {
		return WrapExitError(ExitCommandError, "import operation", err)
	}
	def := orchestrator.Definition{Schema: result.Schema, Rules: result.Rules, Values: result.Values}

	if opts.OutDir != "" {
		return writeDefinition(opts.OutDir, def)
	}

	var out []byte
	switch opts.Format {
	case "json":
		out, err = json.MarshalIndent(def, "", "  ")
	case "yaml", "":
		out, err = yaml.Marshal(def)
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown format %q", opts.Format))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "encode definition", err)
	}
	return writeOutput(cmd, "", out)
}

func writeDefinition(dir string, def orchestrator.Definition) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return WrapExitError(ExitCommandError, "create output directory", err)
	}
	schemaDoc, err := yaml.Marshal(def.Schema)
	if err != nil {
		return WrapExitError(ExitCommandError, "encode schema", err)
	}
	rulesDoc, err := yaml.Marshal(def.Rules)
	if err != nil {
		return WrapExitError(ExitCommandError, "encode rules", err)
	}
	valuesDoc, err := json.MarshalIndent(def.Values, "", "  ")
	if err != nil {
		return WrapExitError(ExitCommandError, "encode values", err)
	}
	files := map[string][]byte{
		"schema.yaml": schemaDoc,
		"rules.yaml":  rulesDoc,
		"values.json": append(valuesDoc, '\n'),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return WrapExitError(ExitCommandError, "write "+name, err)
		}
	}
	return nil
}
