package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/querygate/internal/querysql"
)

// Driver names a supported execution engine. The value is the
// database/sql driver name.
type Driver string

const (
	DriverDuckDB Driver = "duckdb"
	DriverSQLite Driver = "sqlite3"
)

// ParseDriver parses an engine name. "sqlite" is accepted for sqlite3.
func ParseDriver(s string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "duckdb", "":
		return DriverDuckDB, nil
	case "sqlite3", "sqlite":
		return DriverSQLite, nil
	default:
		return "", fmt.Errorf("unknown engine driver %q (want duckdb or sqlite3)", s)
	}
}

// Executor runs compiled statements against an analytical database.
//
// One Executor owns one *sql.DB. Compiled statements carry their literal
// values as parameters; the executor never builds SQL from values.
type Executor struct {
	db     *sql.DB
	driver Driver
	logger *slog.Logger
}

// Open opens an executor. An empty dsn opens an in-memory database.
func Open(driver Driver, dsn string, logger *slog.Logger) (*Executor, error) {
	if driver == DriverSQLite && dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// Each sqlite ":memory:" connection is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return NewExecutor(db, driver, logger), nil
}

// NewExecutor wraps an already-open database.
func NewExecutor(db *sql.DB, driver Driver, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{db: db, driver: driver, logger: logger}
}

// Close closes the underlying database.
func (e *Executor) Close() error {
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}

// Driver returns the engine the executor talks to.
func (e *Executor) Driver() Driver {
	return e.driver
}

// DB returns the underlying database connection.
func (e *Executor) DB() *sql.DB {
	return e.db
}

// Result is the tabular output of a statement.
type Result struct {
	Columns  []string `json:"columns"`
	Rows     [][]any  `json:"rows"`
	RowCount int      `json:"row_count"`
}

// ColumnProfile holds per-column profiling statistics.
type ColumnProfile struct {
	Name          string `json:"name"`
	PhysicalType  string `json:"physical_type"`
	NullCount     int64  `json:"null_count"`
	DistinctCount int64  `json:"distinct_count"`
}

// Profile is the output of a profiling request.
type Profile struct {
	DatasetID string          `json:"dataset_id"`
	Table     string          `json:"table"`
	RowCount  int64           `json:"row_count"`
	Columns   []ColumnProfile `json:"columns"`
}

// Outcome holds exactly one of Result or Profile.
type Outcome struct {
	Result  *Result  `json:"result,omitempty"`
	Profile *Profile `json:"profile,omitempty"`
}

// RowCount returns the number of result rows, or the profiled row count.
func (o *Outcome) RowCount() int64 {
	switch {
	case o == nil:
		return 0
	case o.Result != nil:
		return int64(o.Result.RowCount)
	case o.Profile != nil:
		return o.Profile.RowCount
	default:
		return 0
	}
}

// Run executes a compiled query. A ProfilingSignal produces a Profile,
// a *Statement produces a Result.
func (e *Executor) Run(ctx context.Context, c querysql.Compiled) (*Outcome, error) {
	switch c := c.(type) {
	case querysql.ProfilingSignal:
		p, err := e.Profile(ctx, c.DatasetID, c.Table)
		if err != nil {
			return nil, err
		}
		return &Outcome{Profile: p}, nil
	case *querysql.Statement:
		r, err := e.Query(ctx, c)
		if err != nil {
			return nil, err
		}
		return &Outcome{Result: r}, nil
	default:
		return nil, fmt.Errorf("unsupported compiled query %T", c)
	}
}

// Query runs a statement and buffers its rows.
func (e *Executor) Query(ctx context.Context, stmt *querysql.Statement) (*Result, error) {
	query, args := stmt.SQL()
	e.logger.Debug("executing statement", "driver", e.driver, "sql", query, "params", len(args))

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, e.classify(ctx, stmt.Table, query, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, newExecutionError(ErrCodeExecutionFailed, "", query, "read columns", err)
	}

	result := &Result{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, newExecutionError(ErrCodeExecutionFailed, "", query, "scan row", err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, newExecutionError(ErrCodeExecutionFailed, "", query, "iterate rows", err)
	}
	result.RowCount = len(result.Rows)
	return result, nil
}

// classify turns a driver error into an ExecutionError, reporting a
// missing backing table distinctly.
func (e *Executor) classify(ctx context.Context, table, query string, err error) error {
	if table != "" {
		if exists, lookupErr := e.TableExists(ctx, table); lookupErr == nil && !exists {
			return newExecutionError(ErrCodeDatasetMissing, "", query,
				fmt.Sprintf("table %s does not exist", table), err)
		}
	}
	return newExecutionError(ErrCodeExecutionFailed, "", query, "statement failed", err)
}

// PhysicalColumn is a column as the engine reports it.
type PhysicalColumn struct {
	Name string
	Type string
}

// Columns introspects a table's columns in declaration order.
func (e *Executor) Columns(ctx context.Context, table string) ([]PhysicalColumn, error) {
	var query string
	switch e.driver {
	case DriverDuckDB:
		query = `SELECT column_name, data_type FROM information_schema.columns
			WHERE table_name = ? ORDER BY ordinal_position`
	case DriverSQLite:
		query = `SELECT name, type FROM pragma_table_info(?) ORDER BY cid`
	default:
		return nil, fmt.Errorf("unsupported driver %q", e.driver)
	}

	rows, err := e.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("introspect %s: %w", table, err)
	}
	defer rows.Close()

	var cols []PhysicalColumn
	for rows.Next() {
		var c PhysicalColumn
		if err := rows.Scan(&c.Name, &c.Type); err != nil {
			return nil, fmt.Errorf("scan column of %s: %w", table, err)
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// TableExists reports whether the engine holds the table.
func (e *Executor) TableExists(ctx context.Context, table string) (bool, error) {
	cols, err := e.Columns(ctx, table)
	if err != nil {
		return false, err
	}
	return len(cols) > 0, nil
}

// Profile computes row, null and distinct counts for every column of table.
func (e *Executor) Profile(ctx context.Context, datasetID, table string) (*Profile, error) {
	cols, err := e.Columns(ctx, table)
	if err != nil {
		return nil, newExecutionError(ErrCodeProfileFailed, datasetID, "", "introspect table", err)
	}
	if len(cols) == 0 {
		return nil, newExecutionError(ErrCodeDatasetMissing, datasetID, "",
			fmt.Sprintf("table %s does not exist", table), nil)
	}

	p := &Profile{DatasetID: datasetID, Table: table, Columns: make([]ColumnProfile, 0, len(cols))}
	countSQL := "SELECT COUNT(*) FROM " + querysql.QuoteIdent(table)
	if err := e.db.QueryRowContext(ctx, countSQL).Scan(&p.RowCount); err != nil {
		return nil, newExecutionError(ErrCodeProfileFailed, datasetID, countSQL, "count rows", err)
	}

	for _, c := range cols {
		col := querysql.QuoteIdent(c.Name)
		statSQL := fmt.Sprintf("SELECT COUNT(*) - COUNT(%s), COUNT(DISTINCT %s) FROM %s",
			col, col, querysql.QuoteIdent(table))
		cp := ColumnProfile{Name: c.Name, PhysicalType: c.Type}
		if err := e.db.QueryRowContext(ctx, statSQL).Scan(&cp.NullCount, &cp.DistinctCount); err != nil {
			return nil, newExecutionError(ErrCodeProfileFailed, datasetID, statSQL,
				fmt.Sprintf("profile column %s", c.Name), err)
		}
		p.Columns = append(p.Columns, cp)
	}

	e.logger.Debug("profiled dataset", "dataset", datasetID, "rows", p.RowCount, "columns", len(p.Columns))
	return p, nil
}
