package cli

import (
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formschema/pkg/schema"
)

// NewJSONSchemaCommand creates the jsonschema command.
func NewJSONSchemaCommand(_ *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "jsonschema",
		Short: "Print the JSON Schema of schema documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := json.MarshalIndent(schema.DocumentSchema(), "", "  ")
			if err != nil {
				return WrapExitError(ExitCommandError, "encode json schema", err)
			}
			return writeOutput(cmd, output, data)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the schema to a file instead of stdout")

	return cmd
}
