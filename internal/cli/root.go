package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/querygate/internal/config"
)

// RootOptions holds global flags and the resolved configuration.
type RootOptions struct {
	ConfigFile string
	Verbose    bool
	Format     string // "json" | "text"

	// Config and Logger are set by the root command before any subcommand
	// runs. Subcommands built on their own fall back to defaults.
	Config *config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the querygate CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "querygate",
		Short: "querygate - validate, gate and run analytical queries",
		Long: `querygate checks structured analytical queries against a dataset's schema,
auto-corrects what it safely can, scores how much it had to guess, and only
lets confident queries reach the execution engine.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			cfg, err := config.Load(opts.ConfigFile, cmd.Flags())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load configuration", err)
			}
			opts.apply(cfg, cmd)
			if cfg.FileUsed != "" {
				opts.Logger.Debug("loaded config", "file", cfg.FileUsed)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default: ./querygate.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().String("store", "", "path to the catalog database")
	cmd.PersistentFlags().String("schema", "", "schema file (.yaml or .cue) used instead of the catalog")
	cmd.PersistentFlags().String("engine", "", "execution engine (duckdb|sqlite3)")
	cmd.PersistentFlags().String("dsn", "", "execution engine data source")
	cmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error)")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return ValidFormats, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("engine", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"duckdb", "sqlite3"}, cobra.ShellCompDirectiveNoFileComp
	})

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewDatasetCommand(opts))
	cmd.AddCommand(NewAuditCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// apply installs the resolved configuration and a stderr logger.
func (o *RootOptions) apply(cfg *config.Config, cmd *cobra.Command) {
	o.Config = cfg
	o.Format = cfg.Format
	o.Verbose = cfg.Verbose

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	o.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// settings returns the configuration, loading defaults when the command
// runs without the root pre-run.
func (o *RootOptions) settings(cmd *cobra.Command) (*config.Config, error) {
	if o.Config != nil {
		return o.Config, nil
	}
	cfg, err := config.Load(o.ConfigFile, nil)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	format, verbose := o.Format, o.Verbose
	o.apply(cfg, cmd)
	// Options set directly on a detached command win over defaults.
	if format != "" {
		o.Format = format
	}
	o.Verbose = o.Verbose || verbose
	return cfg, nil
}

// logger returns the configured logger or the default.
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// formatter builds the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
