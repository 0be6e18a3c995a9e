package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/querygate/internal/store"
)

// AuditListOptions holds flags for the audit list command.
type AuditListOptions struct {
	*RootOptions
	Dataset     string
	Fingerprint string
	Limit       int
}

// NewAuditCommand creates the audit command group.
func NewAuditCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the query audit log",
		Long: `Every request that reaches the gate through "querygate run" is recorded:
the planned and corrected query, corrections, validation errors, confidence,
decision, final SQL and execution status.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newAuditListCommand(rootOpts))
	cmd.AddCommand(newAuditShowCommand(rootOpts))

	return cmd
}

func newAuditListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AuditListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List audited requests, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuditList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Dataset, "dataset", "", "only requests against this dataset")
	cmd.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "only requests with this query fingerprint")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of records (0 for all)")

	return cmd
}

func runAuditList(opts *AuditListOptions, cmd *cobra.Command) error {
	cfg, err := opts.settings(cmd)
	if err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	if opts.Limit < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidInput,
			fmt.Errorf("--limit must not be negative, got %d", opts.Limit))
	}

	catalog, err := openCatalog(cfg)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLoadFailed, err)
	}
	defer catalog.Close()

	records, err := catalog.ListAudit(cmd.Context(), store.AuditFilter{
		DatasetID:   opts.Dataset,
		Fingerprint: opts.Fingerprint,
		Limit:       opts.Limit,
	})
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(records)
	}

	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{
			r.ID,
			r.DatasetID,
			r.Decision,
			string(r.Status),
			fmt.Sprintf("%.2f", r.Confidence),
			r.RowCount,
			r.CreatedAt.Format(time.RFC3339),
		}
	}
	renderTable(formatter.Writer,
		[]string{"id", "dataset", "decision", "status", "confidence", "rows", "created"}, rows)
	return nil
}

func newAuditShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <request-id>",
		Short:         "Show one audited request",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.settings(cmd)
			if err != nil {
				return err
			}
			formatter := rootOpts.formatter(cmd)

			catalog, err := openCatalog(cfg)
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeLoadFailed, err)
			}
			defer catalog.Close()

			rec, err := catalog.GetAudit(cmd.Context(), args[0])
			if err != nil {
				return formatter.Fail(ExitCommandError, errorCode(err), err)
			}

			if formatter.Format == "json" {
				return formatter.Success(rec)
			}
			writeAuditRecord(formatter, rec)
			return nil
		},
	}
}

func writeAuditRecord(formatter *OutputFormatter, rec store.AuditRecord) {
	w := formatter.Writer
	fmt.Fprintf(w, "Request:     %s\n", rec.ID)
	fmt.Fprintf(w, "Dataset:     %s\n", rec.DatasetID)
	fmt.Fprintf(w, "Created:     %s\n", rec.CreatedAt.Format(time.RFC3339))
	if rec.RawQuery != "" {
		fmt.Fprintf(w, "Question:    %s\n", rec.RawQuery)
	}
	fmt.Fprintf(w, "Fingerprint: %s\n", rec.Fingerprint)
	fmt.Fprintf(w, "Decision:    %s (confidence %.2f)\n", rec.Decision, rec.Confidence)
	fmt.Fprintf(w, "Status:      %s\n", rec.Status)
	fmt.Fprintf(w, "Rows:        %d\n", rec.RowCount)
	if rec.ErrorMessage != "" {
		fmt.Fprintf(w, "Error:       %s\n", rec.ErrorMessage)
	}
	if len(rec.Errors) > 0 {
		fmt.Fprintf(w, "Validation:  %s\n", strings.Join(rec.Errors, "; "))
	}
	if rec.FinalSQL != "" {
		fmt.Fprintf(w, "SQL:         %s\n", rec.FinalSQL)
	}
	if formatter.Verbose {
		fmt.Fprintf(w, "Planned:     %s\n", rec.PlannedQuery)
		fmt.Fprintf(w, "Corrected:   %s\n", rec.CorrectedQuery)
		fmt.Fprintf(w, "Corrections: %s\n", rec.Corrections)
	}
}
