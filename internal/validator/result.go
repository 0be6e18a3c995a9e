package validator

import (
	"encoding/json"
	"math"

	"github.com/roach88/querygate/internal/queryir"
)

// Correction records one automatic rewrite.
type Correction struct {
	Field     string
	Original  queryir.Scalar
	Corrected queryir.Scalar
	Reason    string
}

type correctionJSON struct {
	Field     string `json:"field"`
	Original  any    `json:"original"`
	Corrected any    `json:"corrected"`
	Reason    string `json:"reason"`
}

// MarshalJSON implements json.Marshaler.
func (c Correction) MarshalJSON() ([]byte, error) {
	return json.Marshal(correctionJSON{
		Field:     c.Field,
		Original:  queryir.Native(c.Original),
		Corrected: queryir.Native(c.Corrected),
		Reason:    c.Reason,
	})
}

// ValidationResult is the outcome of one validation call.
// Corrections are in the order they were applied.
type ValidationResult struct {
	IsValid         bool           `json:"is_valid"`
	CorrectedQuery  *queryir.Query `json:"corrected_query"`
	Corrections     []Correction   `json:"corrections"`
	Errors          []string       `json:"errors"`
	ConfidenceScore float64        `json:"confidence_score"`
	FollowUps       []string       `json:"follow_ups,omitempty"`
}

// Policy holds the scoring constants and the row limit ceiling.
type Policy struct {
	CorrectionPenalty float64
	CorrectionCap     float64
	ErrorPenalty      float64
	ErrorCap          float64
	Floor             float64
	// FollowUpBelow adds a clarification question when the score is lower.
	FollowUpBelow float64
	MaxLimit      int
}

// DefaultPolicy returns the standard scoring constants.
func DefaultPolicy() Policy {
	return Policy{
		CorrectionPenalty: 0.15,
		CorrectionCap:     0.3,
		ErrorPenalty:      0.25,
		ErrorCap:          0.5,
		Floor:             0.1,
		FollowUpBelow:     0.6,
		MaxLimit:          1000,
	}
}

// Score computes the confidence for the given counts, rounded to two
// decimals and clamped to [Floor, 1].
func (p Policy) Score(corrections, errors int) float64 {
	penalty := math.Min(float64(corrections)*p.CorrectionPenalty, p.CorrectionCap) +
		math.Min(float64(errors)*p.ErrorPenalty, p.ErrorCap)
	score := math.Round((1.0-penalty)*100) / 100
	return math.Max(p.Floor, math.Min(1.0, score))
}
