package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/querygate/internal/gate"
	"github.com/roach88/querygate/internal/validator"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Dataset string // overrides the query's dataset_id
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <query-file>",
		Short: "Validate a query and show the gate decision",
		Long: `Validate a query file (.json, .yaml or .yml) against its dataset schema.

Column names are normalized, synonyms resolved, missing aggregations and
group-by columns inferred, and the row limit clamped. The result lists every
correction and error, the confidence score and the gate decision. Nothing
is executed.

The schema comes from --schema when given, otherwise from the catalog.

Exit codes:
  0 - Query allowed (EXECUTE or EXECUTE_WITH_WARNING)
  1 - Query blocked
  2 - Command error (unreadable file, unknown dataset, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Dataset, "dataset", "", "dataset id (overrides the query's dataset_id)")

	return cmd
}

func runValidate(opts *ValidateOptions, queryFile string, cmd *cobra.Command) error {
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

	v := validator.New(provider,
		validator.WithPolicy(cfg.Policy()),
		validator.WithLogger(opts.logger()))

	datasetID := opts.Dataset
	if datasetID == "" {
		datasetID = q.DatasetID
	}
	formatter.VerboseLog("Validating %s against dataset %q", queryFile, datasetID)

	res, err := v.Validate(cmd.Context(), q, datasetID)
	if err != nil {
		return formatter.Fail(ExitCommandError, errorCode(err), err)
	}

	report := GateReport{
		DatasetID:  res.CorrectedQuery.DatasetID,
		Validation: res,
		Decision:   cfg.Thresholds().Decide(res),
	}
	return outputGateReport(formatter, report)
}

// outputGateReport prints a report. A blocked query is exit code 1.
func outputGateReport(formatter *OutputFormatter, report GateReport) error {
	return outputVerdict(formatter, report, report.Decision, func(w io.Writer) {
		writeGateReport(w, report)
	})
}

// outputVerdict prints data as JSON, or calls text. A blocked decision is
// an error response with exit code 1.
func outputVerdict(formatter *OutputFormatter, data any, decision gate.Decision, text func(io.Writer)) error {
	blocked := !decision.Action.Allowed()

	if formatter.Format == "json" {
		response := CLIResponse{Status: "ok", Data: data}
		if blocked {
			response.Status = "error"
			response.Error = &CLIError{Code: ErrCodeBlocked, Message: decision.Message}
		}
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
	} else {
		text(formatter.Writer)
	}

	if blocked {
		return reported(NewExitError(ExitFailure, fmt.Sprintf("query blocked: %s", decision.Message)))
	}
	return nil
}
