package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/querygate/internal/querysql"
	"github.com/roach88/querygate/internal/schema"
	"github.com/roach88/querygate/internal/store"
)

// DatasetInfo is a catalog entry with its columns.
type DatasetInfo struct {
	store.Dataset
	Columns []schema.Column `json:"columns"`
}

// NewDatasetCommand creates the dataset command group.
func NewDatasetCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Manage the dataset catalog",
		Long: `Import CSV files into the execution engine and manage the catalog of
dataset schemas that queries are validated against.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newDatasetImportCommand(rootOpts))
	cmd.AddCommand(newDatasetDeclareCommand(rootOpts))
	cmd.AddCommand(newDatasetShowCommand(rootOpts))
	cmd.AddCommand(newDatasetListCommand(rootOpts))
	cmd.AddCommand(newDatasetDeleteCommand(rootOpts))

	return cmd
}

func newDatasetImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <id> <csv-file>",
		Short: "Load a CSV file as a dataset",
		Long: `Load a CSV file with a header row into the execution engine as the
backing table of dataset <id>, replacing any previous data, and record the
inferred schema in the catalog.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDatasetImport(rootOpts, args[0], args[1], cmd)
		},
	}
}

func runDatasetImport(opts *RootOptions, id, csvFile string, cmd *cobra.Command) error {
	cfg, err := opts.settings(cmd)
	if err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	source, err := filepath.Abs(csvFile)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, err)
	}

	catalog, err := openCatalog(cfg)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLoadFailed, err)
	}
	defer catalog.Close()

	exec, err := openEngine(cfg, opts.logger())
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeExecution, err)
	}
	defer exec.Close()

	formatter.VerboseLog("Loading %s into %s", source, exec.Driver())
	imp, err := exec.Import(cmd.Context(), id, source)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLoadFailed, err)
	}

	ds := store.Dataset{
		ID:         id,
		Table:      imp.Table,
		SourcePath: source,
		Kind:       schema.Classify(imp.Snapshot),
		RowCount:   imp.RowCount,
	}
	if err := catalog.PutDataset(cmd.Context(), ds, imp.Snapshot); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err)
	}

	return showDataset(formatter, catalog, id, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Imported %s: %d rows\n", id, imp.RowCount)
	}, cmd)
}

func newDatasetDeclareCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "declare <schema-file>",
		Short: "Register dataset schemas without data",
		Long: `Record the datasets declared in a schema file (.yaml, .yml or .cue) in
the catalog. Declared datasets can be validated and compiled; running
them needs a backing table in the engine.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDatasetDeclare(rootOpts, args[0], cmd)
		},
	}
}

func runDatasetDeclare(opts *RootOptions, schemaFile string, cmd *cobra.Command) error {
	cfg, err := opts.settings(cmd)
	if err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	provider, err := schema.LoadFile(schemaFile)
	if err != nil {
		return formatter.Fail(ExitCommandError, errorCode(err), err)
	}

	catalog, err := openCatalog(cfg)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLoadFailed, err)
	}
	defer catalog.Close()

	ids := provider.DatasetIDs()
	for _, id := range ids {
		snap, err := provider.Schema(cmd.Context(), id)
		if err != nil {
			return formatter.Fail(ExitCommandError, errorCode(err), err)
		}
		table := snap.Table()
		if table == "" {
			table = querysql.TableName(id)
		}
		ds := store.Dataset{ID: id, Table: table, Kind: schema.Classify(snap)}
		if err := catalog.PutDataset(cmd.Context(), ds, snap); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err)
		}
		formatter.VerboseLog("Declared %s (%d columns)", id, snap.Len())
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]any{"declared": ids})
	}
	fmt.Fprintf(formatter.Writer, "✓ Declared %d dataset(s)\n", len(ids))
	for _, id := range ids {
		fmt.Fprintf(formatter.Writer, "  %s\n", id)
	}
	return nil
}

func newDatasetShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <id>",
		Short:         "Show a dataset's schema",
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

			return showDataset(formatter, catalog, args[0], nil, cmd)
		},
	}
}

// showDataset prints a catalog entry and its columns. header, if set,
// runs before the text rendering.
func showDataset(formatter *OutputFormatter, catalog *store.Store, id string, header func(io.Writer), cmd *cobra.Command) error {
	ds, err := catalog.GetDataset(cmd.Context(), id)
	if err != nil {
		return formatter.Fail(ExitCommandError, errorCode(err), err)
	}
	snap, err := catalog.Schema(cmd.Context(), id)
	if err != nil {
		return formatter.Fail(ExitCommandError, errorCode(err), err)
	}
	info := DatasetInfo{Dataset: ds, Columns: snap.Columns()}

	if formatter.Format == "json" {
		return formatter.Success(info)
	}

	w := formatter.Writer
	if header != nil {
		header(w)
	}
	fmt.Fprintf(w, "Dataset: %s\n", ds.ID)
	fmt.Fprintf(w, "Table:   %s\n", ds.Table)
	if ds.Kind != "" {
		fmt.Fprintf(w, "Kind:    %s\n", ds.Kind)
	}
	if ds.SourcePath != "" {
		fmt.Fprintf(w, "Source:  %s\n", ds.SourcePath)
	}
	fmt.Fprintf(w, "Rows:    %d\n", ds.RowCount)

	rows := make([][]any, len(info.Columns))
	for i, c := range info.Columns {
		rows[i] = []any{c.Name, c.PhysicalType, c.SemanticType.String()}
	}
	renderTable(w, []string{"column", "physical", "semantic"}, rows)
	return nil
}

func newDatasetListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List catalog datasets",
		Args:          cobra.NoArgs,
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

			datasets, err := catalog.ListDatasets(cmd.Context())
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
			}

			if formatter.Format == "json" {
				return formatter.Success(datasets)
			}
			rows := make([][]any, len(datasets))
			for i, ds := range datasets {
				rows[i] = []any{ds.ID, ds.Kind, ds.RowCount, ds.CreatedAt.Format(time.RFC3339)}
			}
			renderTable(formatter.Writer, []string{"id", "kind", "rows", "created"}, rows)
			return nil
		},
	}
}

func newDatasetDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a dataset from the catalog",
		Long: `Remove a dataset and its columns from the catalog. Audit records that
reference the dataset are kept.`,
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

			if err := catalog.DeleteDataset(cmd.Context(), args[0]); err != nil {
				return formatter.Fail(ExitCommandError, errorCode(err), err)
			}

			if formatter.Format == "json" {
				return formatter.Success(map[string]string{"deleted": args[0]})
			}
			fmt.Fprintf(formatter.Writer, "✓ Deleted %s\n", args[0])
			return nil
		},
	}
}
