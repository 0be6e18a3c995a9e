package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/querygate/internal/schema"
)

// Schema implements schema.Provider. Unknown datasets return a
// *schema.NotFoundError.
func (s *Store) Schema(ctx context.Context, datasetID string) (*schema.Snapshot, error) {
	ds, err := s.GetDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, physical_type, semantic_type
		FROM dataset_columns
		WHERE dataset_id = ?
		ORDER BY position ASC
	`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var cols []schema.Column
	for rows.Next() {
		var col schema.Column
		var semantic string
		if err := rows.Scan(&col.Name, &col.PhysicalType, &semantic); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		if col.SemanticType, err = schema.ParseSemanticType(semantic); err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}

	snap, err := schema.NewSnapshot(datasetID, cols)
	if err != nil {
		return nil, err
	}
	return snap.WithTable(ds.Table), nil
}

// GetDataset returns one catalog entry.
func (s *Store) GetDataset(ctx context.Context, id string) (Dataset, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, table_name, source_path, kind, row_count, created_at
		FROM datasets
		WHERE id = ?
	`, id)
	ds, err := scanDataset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Dataset{}, &schema.NotFoundError{DatasetID: id}
	}
	return ds, err
}

// ListDatasets returns every catalog entry ordered by id.
// Returns an empty slice (not nil) when the catalog is empty.
func (s *Store) ListDatasets(ctx context.Context) ([]Dataset, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, table_name, source_path, kind, row_count, created_at
		FROM datasets
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query datasets: %w", err)
	}
	defer rows.Close()

	out := []Dataset{}
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate datasets: %w", err)
	}
	return out, nil
}

// GetAudit returns one audit record. A missing id yields sql.ErrNoRows.
func (s *Store) GetAudit(ctx context.Context, id string) (AuditRecord, error) {
	row := s.db.QueryRowContext(ctx, auditSelect+` WHERE id = ?`, id)
	rec, err := scanAudit(row)
	if err != nil {
		return AuditRecord{}, fmt.Errorf("get audit %s: %w", id, err)
	}
	return rec, nil
}

// ListAudit returns audit records, newest first.
func (s *Store) ListAudit(ctx context.Context, f AuditFilter) ([]AuditRecord, error) {
	var where []string
	var args []any
	if f.DatasetID != "" {
		where = append(where, "dataset_id = ?")
		args = append(args, f.DatasetID)
	}
	if f.Fingerprint != "" {
		where = append(where, "fingerprint = ?")
		args = append(args, f.Fingerprint)
	}

	query := auditSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id COLLATE BINARY DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit: %w", err)
	}
	defer rows.Close()

	out := []AuditRecord{}
	for rows.Next() {
		rec, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit: %w", err)
	}
	return out, nil
}

const auditSelect = `
	SELECT id, dataset_id, raw_query, planned_query, fingerprint, corrected_query,
	       corrections, validation_errors, confidence_score, decision, final_sql,
	       execution_status, error_message, row_count, created_at
	FROM query_audit`

type scanner interface {
	Scan(dest ...any) error
}

func scanDataset(row scanner) (Dataset, error) {
	var ds Dataset
	var created string
	if err := row.Scan(&ds.ID, &ds.Table, &ds.SourcePath, &ds.Kind, &ds.RowCount, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Dataset{}, err
		}
		return Dataset{}, fmt.Errorf("scan dataset: %w", err)
	}
	t, err := parseTime(created)
	if err != nil {
		return Dataset{}, err
	}
	ds.CreatedAt = t
	return ds, nil
}

func scanAudit(row scanner) (AuditRecord, error) {
	var rec AuditRecord
	var planned, corrected, corrections, errs, status, created string
	err := row.Scan(
		&rec.ID,
		&rec.DatasetID,
		&rec.RawQuery,
		&planned,
		&rec.Fingerprint,
		&corrected,
		&corrections,
		&errs,
		&rec.Confidence,
		&rec.Decision,
		&rec.FinalSQL,
		&status,
		&rec.ErrorMessage,
		&rec.RowCount,
		&created,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AuditRecord{}, err
		}
		return AuditRecord{}, fmt.Errorf("scan audit: %w", err)
	}

	rec.PlannedQuery = json.RawMessage(planned)
	rec.CorrectedQuery = json.RawMessage(corrected)
	rec.Corrections = json.RawMessage(corrections)
	rec.Status = Status(status)
	if rec.Errors, err = unmarshalStrings(errs); err != nil {
		return AuditRecord{}, err
	}
	if rec.CreatedAt, err = parseTime(created); err != nil {
		return AuditRecord{}, err
	}
	return rec, nil
}
