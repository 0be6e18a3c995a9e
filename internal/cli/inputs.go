package cli

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/querygate/internal/config"
	"github.com/roach88/querygate/internal/engine"
	"github.com/roach88/querygate/internal/planner"
	"github.com/roach88/querygate/internal/queryir"
	"github.com/roach88/querygate/internal/schema"
	"github.com/roach88/querygate/internal/store"
)

// memoryPath is the sqlite path for a throwaway database.
const memoryPath = ":memory:"

// readQuery decodes a query file; the extension picks JSON or YAML.
func readQuery(path string) (*queryir.Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read query file: %w", err)
	}
	var q *queryir.Query
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		q, err = queryir.DecodeJSON(bytes.NewReader(data))
	case ".yaml", ".yml":
		q, err = queryir.DecodeYAML(data)
	default:
		return nil, fmt.Errorf("unsupported query file extension %q (want .json, .yaml or .yml)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return q, nil
}

// readIntent decodes an intent file; the extension picks JSON or YAML.
func readIntent(path string) (*planner.Intent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read intent file: %w", err)
	}
	var in *planner.Intent
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		in, err = planner.DecodeJSON(bytes.NewReader(data))
	case ".yaml", ".yml":
		in, err = planner.DecodeYAML(data)
	default:
		return nil, fmt.Errorf("unsupported intent file extension %q (want .json, .yaml or .yml)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}

// openCatalog opens the catalog at cfg.StorePath, creating its directory.
func openCatalog(cfg *config.Config) (*store.Store, error) {
	if cfg.StorePath != memoryPath {
		if err := os.MkdirAll(filepath.Dir(cfg.StorePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	return store.Open(cfg.StorePath)
}

// engineDSN returns the engine data source. Without an explicit dsn the
// engine database lives next to the catalog so imported tables survive
// between invocations.
func engineDSN(cfg *config.Config, driver engine.Driver) string {
	if cfg.Engine.DSN != "" || cfg.StorePath == memoryPath {
		return cfg.Engine.DSN
	}
	name := "data.duckdb"
	if driver == engine.DriverSQLite {
		name = "data.sqlite"
	}
	return filepath.Join(filepath.Dir(cfg.StorePath), name)
}

// openEngine opens the configured execution engine.
func openEngine(cfg *config.Config, logger *slog.Logger) (*engine.Executor, error) {
	driver, err := cfg.Driver()
	if err != nil {
		return nil, err
	}
	return engine.Open(driver, engineDSN(cfg, driver), logger)
}

// schemaProvider returns the schema file's provider when one is
// configured, else the catalog.
func schemaProvider(cfg *config.Config, catalog *store.Store) (schema.Provider, error) {
	if cfg.SchemaFile == "" {
		return catalog, nil
	}
	return schema.LoadFile(cfg.SchemaFile)
}

// errorCode maps a failure to its CLI error code.
func errorCode(err error) string {
	var execErr *engine.ExecutionError
	switch {
	case errors.Is(err, schema.ErrSchemaNotFound), errors.Is(err, sql.ErrNoRows):
		return ErrCodeNotFound
	case errors.Is(err, fs.ErrNotExist):
		return ErrCodeLoadFailed
	case errors.As(err, &execErr):
		return ErrCodeExecution
	default:
		return ErrCodeInvalidInput
	}
}
