package cli

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formschema/pkg/orchestrator"
	"github.com/goliatone/go-formschema/pkg/validation"
)

// CheckOptions holds the check command flags.
type CheckOptions struct {
	JSON bool
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Lint the schema, ruleset and initial values",
		Long: `Check that every field has a valid type and an initial value, that async
fields have a URL, and that every rule targets a declared field. Exits 1
when problems are found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, rootOpts, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print the result as JSON")

	return cmd
}

func runCheck(cmd *cobra.Command, rootOpts *RootOptions, opts *CheckOptions) error {
	req, err := rootOpts.request()
	if err != nil {
		return err
	}
	orch := orchestrator.New(orchestrator.WithLogger(rootOpts.logger))
	def, err := orch.Resolve(cmd.Context(), req)
	if err != nil {
		return WrapExitError(ExitCommandError, "load form", err)
	}

	result := lint(def)
	out := cmd.OutOrStdout()
	if opts.JSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return WrapExitError(ExitCommandError, "encode result", err)
		}
		fmt.Fprintln(out, string(data))
	} else if result.Valid {
		fmt.Fprintln(out, "ok: form definition is valid")
	} else {
		fmt.Fprintf(out, "found %d problem(s)\n", len(result.Issues))
		for _, issue := range result.Issues {
			if issue.Field != "" {
				fmt.Fprintf(out, "  %s: %s\n", issue.Field, issue.Message)
				continue
			}
			fmt.Fprintf(out, "  %s\n", issue.Message)
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("check failed with %d problem(s)", len(result.Issues)))
	}
	return nil
}

func lint(def orchestrator.Definition) validation.LintResult {
	rules, err := def.Ruleset()
	if err != nil {
		result := validation.Lint(def.Schema, def.Values, nil)
		result.Issues = append(result.Issues, validation.Issue{Message: err.Error()})
		result.Valid = false
		return result
	}
	return validation.Lint(def.Schema, def.Values, rules)
}
