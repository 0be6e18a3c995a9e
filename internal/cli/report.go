package cli

import (
	"fmt"
	"io"

	"github.com/roach88/querygate/internal/gate"
	"github.com/roach88/querygate/internal/queryir"
	"github.com/roach88/querygate/internal/validator"
)

// GateReport is the validation outcome and gate decision for one query.
type GateReport struct {
	DatasetID  string                      `json:"dataset_id"`
	Validation *validator.ValidationResult `json:"validation"`
	Decision   gate.Decision               `json:"decision"`
}

// writeGateReport prints the verdict line, corrections, errors and
// follow-ups in text form.
func writeGateReport(w io.Writer, r GateReport) {
	res := r.Validation
	if r.Decision.Action.Allowed() {
		fmt.Fprintf(w, "✓ %s (confidence %.2f, %s)\n", r.DatasetID, res.ConfidenceScore, r.Decision.Action)
	} else {
		fmt.Fprintf(w, "✗ %s blocked (confidence %.2f)\n", r.DatasetID, res.ConfidenceScore)
	}

	for _, c := range res.Corrections {
		fmt.Fprintf(w, "  corrected %s: %s -> %s (%s)\n",
			c.Field, scalarText(c.Original), scalarText(c.Corrected), c.Reason)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(w, "  error: %s\n", e)
	}
	for _, q := range res.FollowUps {
		fmt.Fprintf(w, "  follow-up: %s\n", q)
	}
	if r.Decision.Message != "" {
		fmt.Fprintf(w, "  %s\n", r.Decision.Message)
	}
}

func scalarText(v queryir.Scalar) string {
	if v == nil {
		return "null"
	}
	return v.String()
}
