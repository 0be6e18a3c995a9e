package cli

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/querygate/internal/planner"
)

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <intent-file>",
		Short: "Convert an intent into a query",
		Long: `Plan a structured intent (.json, .yaml or .yml) into a query.

Measures become aggregations and dimensions become group-by columns.
The ordering defaults to the primary measure, descending unless the raw
question asks for the lowest values, and the limit defaults to 10.
Text output is the query as YAML, ready for validate, compile or run.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(rootOpts, args[0], cmd)
		},
	}
}

func runPlan(opts *RootOptions, intentFile string, cmd *cobra.Command) error {
	if _, err := opts.settings(cmd); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	in, err := readIntent(intentFile)
	if err != nil {
		return formatter.Fail(ExitCommandError, errorCode(err), err)
	}
	q, err := planner.Plan(in)
	if err != nil {
		return formatter.Fail(ExitCommandError, errorCode(err), err)
	}

	if formatter.Format == "json" {
		return formatter.Success(q)
	}

	data, err := yaml.Marshal(q)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}
	_, err = formatter.Writer.Write(data)
	return err
}
