package harness

import (
	"github.com/roach88/querygate/internal/validator"
)

// Trace is the golden-comparable account of one scenario run.
// It leaves out the fingerprint and timestamps.
type Trace struct {
	Scenario    string                 `json:"scenario"`
	RequestID   string                 `json:"request_id"`
	DatasetID   string                 `json:"dataset_id"`
	Valid       bool                   `json:"valid"`
	Corrections []validator.Correction `json:"corrections"`
	Errors      []string               `json:"errors"`
	Confidence  float64                `json:"confidence"`
	FollowUps   []string               `json:"follow_ups,omitempty"`
	Action      string                 `json:"action"`
	Message     string                 `json:"message,omitempty"`
	SQL         string                 `json:"sql,omitempty"`
	Params      []any                  `json:"params,omitempty"`
	Profiling   bool                   `json:"profiling,omitempty"`
	Status      string                 `json:"status,omitempty"`
	RowCount    int64                  `json:"row_count,omitempty"`
	Rows        [][]any                `json:"rows,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	Trace *Trace `json:"trace"`

	// Errors contains failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
