package validator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/querygate/internal/queryir"
	"github.com/roach88/querygate/internal/schema"
)

const clarifyQuestion = "Can you clarify the columns or aggregation you want?"

// Validator validates queries against snapshots served by a Provider.
// It holds no per-request state and is safe for concurrent use.
type Validator struct {
	provider schema.Provider
	policy   Policy
	logger   *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithPolicy replaces the default scoring policy.
func WithPolicy(p Policy) Option {
	return func(v *Validator) { v.policy = p }
}

// WithLogger sets the logger used for per-pass debug output.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) { v.logger = l }
}

// New creates a Validator.
func New(provider schema.Provider, opts ...Option) *Validator {
	v := &Validator{
		provider: provider,
		policy:   DefaultPolicy(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Policy returns the scoring policy in use.
func (v *Validator) Policy() Policy {
	return v.policy
}

// Validate loads the snapshot for datasetID and validates q against it.
// The only error returned is a failed schema load; errors.Is(err,
// schema.ErrSchemaNotFound) identifies an unknown dataset. Query problems
// are reported in the result.
//
// An empty datasetID falls back to q.DatasetID. The corrected query is
// bound to the dataset that was validated against.
func (v *Validator) Validate(ctx context.Context, q *queryir.Query, datasetID string) (*ValidationResult, error) {
	if q == nil {
		return nil, fmt.Errorf("validate: nil query")
	}
	if datasetID == "" {
		datasetID = q.DatasetID
	}
	snap, err := v.provider.Schema(ctx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return v.ValidateSnapshot(q, snap), nil
}

// ValidateSnapshot runs the correction fold and hard checks against an
// already-loaded snapshot. q is not modified.
func (v *Validator) ValidateSnapshot(q *queryir.Query, snap *schema.Snapshot) *ValidationResult {
	current := q.Clone()
	current.DatasetID = snap.DatasetID()

	var corrections []Correction
	for _, p := range Passes() {
		next, made := p.Apply(PassInput{Query: current, Snapshot: snap, Policy: v.policy})
		current = next
		corrections = append(corrections, made...)
		v.logger.Debug("validation pass",
			"dataset", snap.DatasetID(),
			"pass", p.Name,
			"corrections", len(made))
	}

	errs := check(current, snap)
	if corrections == nil {
		corrections = []Correction{}
	}
	if errs == nil {
		errs = []string{}
	}
	score := v.policy.Score(len(corrections), len(errs))

	result := &ValidationResult{
		IsValid:         len(errs) == 0,
		CorrectedQuery:  current,
		Corrections:     corrections,
		Errors:          errs,
		ConfidenceScore: score,
	}
	if score < v.policy.FollowUpBelow {
		result.FollowUps = []string{clarifyQuestion}
	}

	v.logger.Debug("validation complete",
		"dataset", snap.DatasetID(),
		"valid", result.IsValid,
		"corrections", len(corrections),
		"errors", len(errs),
		"confidence", score)
	return result
}
