package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func auditRecord(id, dataset string, n int) AuditRecord {
	return AuditRecord{
		ID:             id,
		DatasetID:      dataset,
		RawQuery:       "top genres by sales",
		PlannedQuery:   json.RawMessage(`{"dataset_id":"` + dataset + `","group_by":["Genre"]}`),
		Fingerprint:    "fp-" + dataset,
		CorrectedQuery: json.RawMessage(`{"dataset_id":"` + dataset + `"}`),
		Corrections:    json.RawMessage(`[{"field":"aggregations","original":null,"corrected":"SUM(Global_Sales)","reason":"inferred"}]`),
		Errors:         nil,
		Confidence:     0.85,
		Decision:       "EXECUTE_WITH_WARNING",
		FinalSQL:       `SELECT "Genre" FROM "dataset_vgsales"`,
		Status:         StatusSuccess,
		RowCount:       12,
		CreatedAt:      fixedTime(n),
	}
}

func TestWriteAudit_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := auditRecord("req-1", "vgsales", 0)
	require.NoError(t, s.WriteAudit(ctx, rec))

	got, err := s.GetAudit(ctx, "req-1")
	require.NoError(t, err)

	assert.Equal(t, rec.DatasetID, got.DatasetID)
	assert.JSONEq(t, string(rec.PlannedQuery), string(got.PlannedQuery))
	assert.JSONEq(t, string(rec.Corrections), string(got.Corrections))
	assert.Equal(t, []string{}, got.Errors)
	assert.Equal(t, 0.85, got.Confidence)
	assert.Equal(t, StatusSuccess, got.Status)
	assert.Equal(t, int64(12), got.RowCount)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
}

func TestWriteAudit_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := auditRecord("req-1", "vgsales", 0)
	require.NoError(t, s.WriteAudit(ctx, rec))

	rec.Status = StatusFailed
	require.NoError(t, s.WriteAudit(ctx, rec))

	got, err := s.GetAudit(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, got.Status, "first write wins")
}

func TestWriteAudit_BlockedDefaults(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteAudit(ctx, AuditRecord{
		ID:          "req-b",
		DatasetID:   "sales",
		Fingerprint: "fp",
		Errors:      []string{`column "x" not found`},
		Confidence:  0.75,
		Decision:    "BLOCK",
		Status:      StatusBlocked,
		CreatedAt:   fixedTime(1),
	}))

	got, err := s.GetAudit(ctx, "req-b")
	require.NoError(t, err)
	assert.Equal(t, "null", string(got.PlannedQuery))
	assert.Equal(t, "[]", string(got.Corrections))
	assert.Equal(t, []string{`column "x" not found`}, got.Errors)
	assert.Empty(t, got.FinalSQL)
}

func TestWriteAudit_RequiresID(t *testing.T) {
	s := createTestStore(t)
	assert.Error(t, s.WriteAudit(context.Background(), AuditRecord{}))
}

func TestGetAudit_Missing(t *testing.T) {
	s := createTestStore(t)
	_, err := s.GetAudit(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListAudit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteAudit(ctx, auditRecord("a", "vgsales", 1)))
	require.NoError(t, s.WriteAudit(ctx, auditRecord("b", "iris", 2)))
	require.NoError(t, s.WriteAudit(ctx, auditRecord("c", "vgsales", 3)))

	all, err := s.ListAudit(ctx, AuditFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].ID, all[1].ID, all[2].ID})

	vg, err := s.ListAudit(ctx, AuditFilter{DatasetID: "vgsales"})
	require.NoError(t, err)
	require.Len(t, vg, 2)
	assert.Equal(t, "c", vg[0].ID)

	limited, err := s.ListAudit(ctx, AuditFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)

	byFP, err := s.ListAudit(ctx, AuditFilter{Fingerprint: "fp-iris"})
	require.NoError(t, err)
	require.Len(t, byFP, 1)
	assert.Equal(t, "b", byFP[0].ID)

	none, err := s.ListAudit(ctx, AuditFilter{DatasetID: "missing"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
