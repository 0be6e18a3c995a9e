package store

import (
	"encoding/json"
	"time"
)

// Dataset is one catalog entry.
type Dataset struct {
	ID         string    `json:"id"`
	Table      string    `json:"table"`
	SourcePath string    `json:"source_path,omitempty"`
	Kind       string    `json:"kind,omitempty"`
	RowCount   int64     `json:"row_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// Status is the execution outcome of an audited request.
type Status string

const (
	StatusBlocked  Status = "BLOCKED"
	StatusSuccess  Status = "SUCCESS"
	StatusFailed   Status = "FAILED"
	StatusProfiled Status = "PROFILED"
)

// AuditRecord is one audited pipeline request. Query and correction
// payloads are kept as the JSON the pipeline produced.
type AuditRecord struct {
	ID             string          `json:"id"`
	DatasetID      string          `json:"dataset_id"`
	RawQuery       string          `json:"raw_query,omitempty"`
	PlannedQuery   json.RawMessage `json:"planned_query"`
	Fingerprint    string          `json:"fingerprint"`
	CorrectedQuery json.RawMessage `json:"corrected_query,omitempty"`
	Corrections    json.RawMessage `json:"corrections"`
	Errors         []string        `json:"validation_errors"`
	Confidence     float64         `json:"confidence_score"`
	Decision       string          `json:"decision"`
	FinalSQL       string          `json:"final_sql,omitempty"`
	Status         Status          `json:"execution_status"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	RowCount       int64           `json:"row_count"`
	CreatedAt      time.Time       `json:"created_at"`
}

// AuditFilter narrows ListAudit. Zero values match everything.
type AuditFilter struct {
	DatasetID   string
	Fingerprint string
	Limit       int
}
