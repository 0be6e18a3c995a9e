package engine

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/roach88/querygate/internal/querysql"
	"github.com/roach88/querygate/internal/schema"
)

// Imported describes a dataset loaded into the engine.
type Imported struct {
	Snapshot *schema.Snapshot
	Table    string
	RowCount int64
}

// Import loads a CSV file as the backing table of datasetID, replacing any
// previous table, and derives the dataset's schema snapshot from the
// engine's view of the loaded columns.
func (e *Executor) Import(ctx context.Context, datasetID, path string) (*Imported, error) {
	table := querysql.TableName(datasetID)

	n, err := e.LoadCSV(ctx, table, path)
	if err != nil {
		var ee *ExecutionError
		if errors.As(err, &ee) {
			ee.DatasetID = datasetID
		}
		return nil, err
	}

	phys, err := e.Columns(ctx, table)
	if err != nil {
		return nil, newExecutionError(ErrCodeLoadFailed, datasetID, "", "introspect loaded table", err)
	}

	cols := make([]schema.Column, len(phys))
	for i, c := range phys {
		cols[i] = schema.Column{
			Name:         c.Name,
			PhysicalType: c.Type,
			SemanticType: schema.InferSemanticType(c.Name, c.Type),
		}
	}
	snap, err := schema.NewSnapshot(datasetID, cols)
	if err != nil {
		return nil, newExecutionError(ErrCodeLoadFailed, datasetID, "", "build schema snapshot", err)
	}

	e.logger.Info("imported dataset", "dataset", datasetID, "table", table, "rows", n, "columns", len(cols))
	return &Imported{Snapshot: snap.WithTable(table), Table: table, RowCount: n}, nil
}

// LoadCSV creates or replaces table with the contents of a CSV file with a
// header row and returns the number of rows loaded.
func (e *Executor) LoadCSV(ctx context.Context, table, path string) (int64, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, newExecutionError(ErrCodeLoadFailed, "", "", "open "+path, err)
	}

	switch e.driver {
	case DriverDuckDB:
		return e.loadCSVDuckDB(ctx, table, path)
	case DriverSQLite:
		return e.loadCSVSQLite(ctx, table, path)
	default:
		return 0, fmt.Errorf("unsupported driver %q", e.driver)
	}
}

func (e *Executor) loadCSVDuckDB(ctx context.Context, table, path string) (int64, error) {
	// read_csv_auto takes its path as a literal, not a bound parameter.
	literal := "'" + strings.ReplaceAll(path, "'", "''") + "'"
	stmt := fmt.Sprintf("CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv_auto(%s)",
		querysql.QuoteIdent(table), literal)
	if _, err := e.db.ExecContext(ctx, stmt); err != nil {
		return 0, newExecutionError(ErrCodeLoadFailed, "", stmt, "load csv", err)
	}
	return e.countRows(ctx, table)
}

func (e *Executor) countRows(ctx context.Context, table string) (int64, error) {
	var n int64
	q := "SELECT COUNT(*) FROM " + querysql.QuoteIdent(table)
	if err := e.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, newExecutionError(ErrCodeLoadFailed, "", q, "count loaded rows", err)
	}
	return n, nil
}

// loadCSVSQLite reads the file twice: once to infer column affinities,
// once to insert inside a single transaction.
func (e *Executor) loadCSVSQLite(ctx context.Context, table, path string) (int64, error) {
	header, types, err := inferCSVTypes(path)
	if err != nil {
		return 0, newExecutionError(ErrCodeLoadFailed, "", "", "read csv", err)
	}

	defs := make([]string, len(header))
	marks := make([]string, len(header))
	for i, name := range header {
		defs[i] = querysql.QuoteIdent(name) + " " + types[i]
		marks[i] = "?"
	}
	quoted := querysql.QuoteIdent(table)
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoted, strings.Join(defs, ", "))
	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoted, strings.Join(marks, ", "))

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, newExecutionError(ErrCodeLoadFailed, "", "", "begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoted); err != nil {
		return 0, newExecutionError(ErrCodeLoadFailed, "", "", "drop previous table", err)
	}
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return 0, newExecutionError(ErrCodeLoadFailed, "", create, "create table", err)
	}

	ins, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return 0, newExecutionError(ErrCodeLoadFailed, "", insert, "prepare insert", err)
	}
	defer ins.Close()

	f, err := os.Open(path)
	if err != nil {
		return 0, newExecutionError(ErrCodeLoadFailed, "", "", "open "+path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	if _, err := r.Read(); err != nil {
		return 0, newExecutionError(ErrCodeLoadFailed, "", "", "read header", err)
	}
	var n int64
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, newExecutionError(ErrCodeLoadFailed, "", "", fmt.Sprintf("read row %d", n+1), err)
		}
		args := make([]any, len(header))
		for i := range header {
			args[i] = csvValue(rec[i], types[i])
		}
		if _, err := ins.ExecContext(ctx, args...); err != nil {
			return 0, newExecutionError(ErrCodeLoadFailed, "", insert, fmt.Sprintf("insert row %d", n+1), err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, newExecutionError(ErrCodeLoadFailed, "", "", "commit", err)
	}
	return n, nil
}

// inferCSVTypes picks INTEGER, REAL or TEXT per column. Empty cells are
// NULL and do not influence the choice; an all-empty column is TEXT.
func inferCSVTypes(path string) ([]string, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
		if header[i] == "" {
			return nil, nil, fmt.Errorf("column %d has an empty header", i+1)
		}
	}

	isInt := make([]bool, len(header))
	isReal := make([]bool, len(header))
	seen := make([]bool, len(header))
	for i := range header {
		isInt[i], isReal[i] = true, true
	}

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		for i, cell := range rec {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			seen[i] = true
			if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
				isInt[i] = false
			}
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				isReal[i] = false
			}
		}
	}

	types := make([]string, len(header))
	for i := range header {
		switch {
		case !seen[i]:
			types[i] = "TEXT"
		case isInt[i]:
			types[i] = "INTEGER"
		case isReal[i]:
			types[i] = "REAL"
		default:
			types[i] = "TEXT"
		}
	}
	return header, types, nil
}

func csvValue(cell, typ string) any {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}
	switch typ {
	case "INTEGER":
		if v, err := strconv.ParseInt(cell, 10, 64); err == nil {
			return v
		}
	case "REAL":
		if v, err := strconv.ParseFloat(cell, 64); err == nil {
			return v
		}
	}
	return cell
}
