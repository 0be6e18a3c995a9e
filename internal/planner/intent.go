package planner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/querygate/internal/queryir"
)

// Kind is the analytical shape of an intent.
type Kind string

const (
	KindAggregation  Kind = "aggregation"
	KindComparison   Kind = "comparison"
	KindTrend        Kind = "trend"
	KindRanking      Kind = "ranking"
	KindDistribution Kind = "distribution"
)

// Valid reports whether k is a known kind. The empty kind is valid and
// treated as an aggregation.
func (k Kind) Valid() bool {
	switch k {
	case "", KindAggregation, KindComparison, KindTrend, KindRanking, KindDistribution:
		return true
	default:
		return false
	}
}

// Intent is a structured analytical request.
type Intent struct {
	DatasetID      string                `json:"dataset_id" yaml:"dataset_id"`
	Kind           Kind                  `json:"intent_type,omitempty" yaml:"intent_type,omitempty"`
	Dimensions     []string              `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
	Measures       []queryir.Aggregation `json:"measures,omitempty" yaml:"measures,omitempty"`
	Filters        []queryir.Filter      `json:"filters,omitempty" yaml:"filters,omitempty"`
	OrderBy        string                `json:"order_by,omitempty" yaml:"order_by,omitempty"`
	OrderDirection queryir.Direction     `json:"order_direction" yaml:"order_direction"`
	Limit          int                   `json:"limit,omitempty" yaml:"limit,omitempty"`
	RawQuery       string                `json:"raw_query,omitempty" yaml:"raw_query,omitempty"`
}

// IntentError reports a malformed intent.
type IntentError struct {
	Field   string
	Message string
}

func (e *IntentError) Error() string {
	if e.Field == "" {
		return "invalid intent: " + e.Message
	}
	return fmt.Sprintf("invalid intent: %s: %s", e.Field, e.Message)
}

// Check reports the first structural problem with the intent.
func (in *Intent) Check() error {
	if strings.TrimSpace(in.DatasetID) == "" {
		return &IntentError{Field: "dataset_id", Message: "is required"}
	}
	if !in.Kind.Valid() {
		return &IntentError{Field: "intent_type", Message: fmt.Sprintf("unknown kind %q", in.Kind)}
	}
	if in.Limit < 0 {
		return &IntentError{Field: "limit", Message: fmt.Sprintf("must not be negative, got %d", in.Limit)}
	}
	for i, m := range in.Measures {
		if m.Column == "" {
			return &IntentError{Field: fmt.Sprintf("measures[%d].column", i), Message: "is required"}
		}
		if !m.Function.Valid() {
			return &IntentError{Field: fmt.Sprintf("measures[%d].function", i), Message: "is required"}
		}
	}
	for i, f := range in.Filters {
		if f.Column == "" {
			return &IntentError{Field: fmt.Sprintf("filters[%d].column", i), Message: "is required"}
		}
	}
	return nil
}

// DecodeJSON reads one Intent from JSON, rejecting unknown fields.
func DecodeJSON(r io.Reader) (*Intent, error) {
	var in Intent
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return nil, &IntentError{Message: err.Error()}
	}
	return &in, nil
}

// DecodeYAML reads one Intent from YAML, rejecting unknown fields.
func DecodeYAML(data []byte) (*Intent, error) {
	var in Intent
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&in); err != nil {
		return nil, &IntentError{Message: err.Error()}
	}
	return &in, nil
}
