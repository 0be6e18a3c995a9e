package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/querygate/internal/engine"
	"github.com/roach88/querygate/internal/planner"
	"github.com/roach88/querygate/internal/schema"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Intent  bool   // input file is an intent to plan first
	Dataset string // overrides the query's dataset_id
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <query-file>",
		Short: "Validate, gate and execute a query",
		Long: `Run a query file through the full pipeline: validate against the dataset
schema, apply the confidence gate, compile to parameterized SQL, execute
on the configured engine and record the request in the audit log.

With --intent the file is a structured intent that is planned into a
query first.

Exit codes:
  0 - Query executed
  1 - Query blocked
  2 - Command error (unreadable file, unknown dataset, engine failure, etc.)

Examples:
  querygate run top_genres.yaml
  querygate run question.json --intent
  querygate run top_genres.yaml --engine sqlite3 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Intent, "intent", false, "treat the input file as an intent")
	cmd.Flags().StringVar(&opts.Dataset, "dataset", "", "dataset id (overrides the query's dataset_id)")

	return cmd
}

func runQuery(opts *RunOptions, inputFile string, cmd *cobra.Command) error {
	cfg, err := opts.settings(cmd)
	if err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	req, err := buildRequest(inputFile, opts.Intent)
	if err != nil {
		return formatter.Fail(ExitCommandError, errorCode(err), err)
	}
	req.DatasetID = opts.Dataset

	catalog, err := openCatalog(cfg)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLoadFailed, err)
	}
	defer catalog.Close()

	provider, err := schemaProvider(cfg, catalog)
	if err != nil {
		return formatter.Fail(ExitCommandError, errorCode(err), err)
	}

	exec, err := openEngine(cfg, opts.logger())
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeExecution, err)
	}
	defer exec.Close()

	pl := engine.NewPipeline(provider, exec,
		engine.WithAudit(catalog),
		engine.WithPolicy(cfg.Policy()),
		engine.WithThresholds(cfg.Thresholds()),
		engine.WithLogger(opts.logger()))

	resp, err := pl.Execute(cmd.Context(), req)
	if err != nil {
		return formatter.Fail(ExitCommandError, errorCode(err), err)
	}
	formatter.VerboseLog("Request %s: %s", resp.RequestID, resp.Status)

	return outputVerdict(formatter, resp, resp.Decision, func(w io.Writer) {
		writeGateReport(w, reportOf(resp))
		if formatter.Verbose && resp.SQL != "" {
			fmt.Fprintln(w, resp.SQL)
		}
		writeOutcome(w, resp.Outcome)
		writeChart(w, resp.Chart)
	})
}

// buildRequest reads a query file, or plans an intent file.
func buildRequest(path string, intent bool) (engine.Request, error) {
	if !intent {
		q, err := readQuery(path)
		if err != nil {
			return engine.Request{}, err
		}
		return engine.Request{Query: q}, nil
	}

	in, err := readIntent(path)
	if err != nil {
		return engine.Request{}, err
	}
	q, err := planner.Plan(in)
	if err != nil {
		return engine.Request{}, err
	}
	return engine.Request{Query: q, RawQuery: in.RawQuery}, nil
}

// writeOutcome renders result rows, or the profile as one row per column.
func writeOutcome(w io.Writer, o *engine.Outcome) {
	switch {
	case o == nil:
	case o.Result != nil:
		renderTable(w, o.Result.Columns, o.Result.Rows)
	case o.Profile != nil:
		p := o.Profile
		fmt.Fprintf(w, "Dataset %s: %d rows\n", p.DatasetID, p.RowCount)
		rows := make([][]any, len(p.Columns))
		for i, c := range p.Columns {
			rows[i] = []any{c.Name, c.PhysicalType, c.NullCount, c.DistinctCount}
		}
		renderTable(w, []string{"column", "type", "nulls", "distinct"}, rows)
	}
}

func writeChart(w io.Writer, c *schema.ChartSuggestion) {
	if c == nil {
		return
	}
	types := make([]string, len(c.Types))
	for i, t := range c.Types {
		types[i] = string(t)
	}
	fmt.Fprintf(w, "Chart: %s (%s)\n", strings.Join(types, ", "), c.Title())
}
