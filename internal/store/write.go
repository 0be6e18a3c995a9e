package store

import (
	"context"
	"fmt"

	"github.com/roach88/querygate/internal/schema"
)

// PutDataset records a dataset and replaces its column metadata.
// Columns are stored in snapshot order. A zero CreatedAt is set to now.
func (s *Store) PutDataset(ctx context.Context, ds Dataset, snap *schema.Snapshot) error {
	if ds.ID == "" {
		return fmt.Errorf("put dataset: id is required")
	}
	if snap == nil {
		return fmt.Errorf("put dataset %s: snapshot is required", ds.ID)
	}
	if snap.DatasetID() != ds.ID {
		return fmt.Errorf("put dataset %s: snapshot describes %s", ds.ID, snap.DatasetID())
	}
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put dataset %s: %w", ds.ID, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO datasets (id, table_name, source_path, kind, row_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			table_name = excluded.table_name,
			source_path = excluded.source_path,
			kind = excluded.kind,
			row_count = excluded.row_count
	`,
		ds.ID,
		ds.Table,
		ds.SourcePath,
		ds.Kind,
		ds.RowCount,
		formatTime(ds.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put dataset %s: %w", ds.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM dataset_columns WHERE dataset_id = ?`, ds.ID); err != nil {
		return fmt.Errorf("put dataset %s: clear columns: %w", ds.ID, err)
	}

	for i, col := range snap.Columns() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO dataset_columns (dataset_id, position, name, physical_type, semantic_type)
			VALUES (?, ?, ?, ?, ?)
		`,
			ds.ID,
			i,
			col.Name,
			col.PhysicalType,
			col.SemanticType.String(),
		)
		if err != nil {
			return fmt.Errorf("put dataset %s: column %q: %w", ds.ID, col.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("put dataset %s: commit: %w", ds.ID, err)
	}
	return nil
}

// DeleteDataset removes a dataset and its columns. Audit rows are kept.
// Deleting an unknown dataset returns a *schema.NotFoundError.
func (s *Store) DeleteDataset(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete dataset %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete dataset %s: %w", id, err)
	}
	if n == 0 {
		return &schema.NotFoundError{DatasetID: id}
	}
	return nil
}

// WriteAudit inserts an audit record.
// Uses ON CONFLICT(id) DO NOTHING so a retried write of the same request
// is a no-op. A zero CreatedAt is set to now.
func (s *Store) WriteAudit(ctx context.Context, rec AuditRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("write audit: id is required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}

	errorsJSON, err := marshalStrings(rec.Errors)
	if err != nil {
		return fmt.Errorf("write audit: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO query_audit
		(id, dataset_id, raw_query, planned_query, fingerprint, corrected_query,
		 corrections, validation_errors, confidence_score, decision, final_sql,
		 execution_status, error_message, row_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.DatasetID,
		rec.RawQuery,
		rawOr(rec.PlannedQuery, "null"),
		rec.Fingerprint,
		rawOr(rec.CorrectedQuery, "null"),
		rawOr(rec.Corrections, "[]"),
		errorsJSON,
		rec.Confidence,
		rec.Decision,
		rec.FinalSQL,
		string(rec.Status),
		rec.ErrorMessage,
		rec.RowCount,
		formatTime(rec.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("write audit: %w", err)
	}
	return nil
}
