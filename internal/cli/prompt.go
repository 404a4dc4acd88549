package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formschema/pkg/form"
	"github.com/goliatone/go-formschema/pkg/orchestrator"
	"github.com/goliatone/go-formschema/pkg/renderers/tui"
)

// PromptOptions holds the prompt command flags.
type PromptOptions struct {
	Format string
	Output string
}

// NewPromptCommand creates the prompt command.
func NewPromptCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PromptOptions{}

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Fill the form in the terminal",
		Long: `Prompt for every field in the terminal, re-asking the ones that fail
validation, then print the submitted values.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPrompt(cmd, rootOpts, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Format, "output-format", string(tui.OutputFormatJSON), "values format (json|form|pretty)")
	flags.StringVarP(&opts.Output, "output", "o", "", "write values to a file instead of stdout")

	return cmd
}

func runPrompt(cmd *cobra.Command, rootOpts *RootOptions, opts *PromptOptions) error {
	ctx := cmd.Context()
	source := rootOpts.optionSource()
	def, err := rootOpts.definition(ctx, orchestrator.New(orchestrator.WithLogger(rootOpts.logger)))
	if err != nil {
		return err
	}
	f, err := def.NewForm(form.WithOptionSource(source), form.WithLogger(rootOpts.logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "start form", err)
	}

	renderer := tui.New(tui.WithPromptDriver(rootOpts.driver), tui.WithLogger(rootOpts.logger))
	if err := renderer.Run(ctx, f); err != nil {
		if errors.Is(err, tui.ErrInvalid) {
			return WrapExitError(ExitFailure, "form is still invalid", err)
		}
		return WrapExitError(ExitCommandError, "prompt", err)
	}

	result, err := f.Submit(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("submit (%s)", result.Status), err)
	}
	out, err := tui.Encode(result.Values, tui.OutputFormat(opts.Format))
	if err != nil {
		return WrapExitError(ExitCommandError, "encode values", err)
	}
	return writeOutput(cmd, opts.Output, out)
}
