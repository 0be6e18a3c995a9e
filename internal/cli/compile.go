package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/querygate/internal/engine"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Dataset string
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query-file>",
		Short: "Validate a query and print the SQL it compiles to",
		Long: `Validate and gate a query file, then print the parameterized SQL and
its bound values. A profiling query (no select, filters, grouping or
aggregations) prints a profiling notice instead. Nothing is executed and
nothing is audited.

Exit codes:
  0 - Query compiled
  1 - Query blocked
  2 - Command error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Dataset, "dataset", "", "dataset id (overrides the query's dataset_id)")

	return cmd
}

func runCompile(opts *CompileOptions, queryFile string, cmd *cobra.Command) error {
	cfg, err := opts.settings(cmd)
	if err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	q, err := readQuery(queryFile)
	if err != nil {
		return formatter.Fail(ExitCommandError, errorCode(err), err)
	}

	catalog, err := openCatalog(cfg)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLoadFailed, err)
	}
	defer catalog.Close()

	provider, err := schemaProvider(cfg, catalog)
	if err != nil {
		return formatter.Fail(ExitCommandError, errorCode(err), err)
	}

	pl := engine.NewPipeline(provider, nil,
		engine.WithPolicy(cfg.Policy()),
		engine.WithThresholds(cfg.Thresholds()),
		engine.WithLogger(opts.logger()))

	resp, err := pl.Execute(cmd.Context(), engine.Request{Query: q, DatasetID: opts.Dataset})
	if err != nil {
		return formatter.Fail(ExitCommandError, errorCode(err), err)
	}

	return outputVerdict(formatter, resp, resp.Decision, func(w io.Writer) {
		writeGateReport(w, reportOf(resp))
		writeCompiled(w, resp)
	})
}

// reportOf extracts the gate report from a pipeline response.
func reportOf(resp *engine.Response) GateReport {
	return GateReport{DatasetID: resp.DatasetID, Validation: resp.Validation, Decision: resp.Decision}
}

// writeCompiled prints the compiled SQL and parameters, or the profiling
// notice. Blocked responses print nothing.
func writeCompiled(w io.Writer, resp *engine.Response) {
	switch {
	case !resp.Decision.Action.Allowed():
		return
	case resp.Profiling:
		fmt.Fprintf(w, "Profiling request for dataset %s\n", resp.DatasetID)
	default:
		fmt.Fprintln(w, resp.SQL)
		if len(resp.Params) > 0 {
			params := make([]string, len(resp.Params))
			for i, p := range resp.Params {
				params[i] = fmt.Sprintf("%#v", p)
			}
			fmt.Fprintf(w, "-- params: %s\n", strings.Join(params, ", "))
		}
	}
}
