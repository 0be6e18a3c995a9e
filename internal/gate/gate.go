// Package gate turns a validation result into an execution decision.
//
// Decide is a total function: every ValidationResult maps to exactly one
// Action. Errors always block; otherwise the confidence score is compared
// against two cut points.
package gate

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/querygate/internal/validator"
)

// Action is what the caller should do with a validated query.
type Action uint8

const (
	Execute Action = iota + 1
	ExecuteWithWarning
	Block
)

func (a Action) String() string {
	switch a {
	case Execute:
		return "EXECUTE"
	case ExecuteWithWarning:
		return "EXECUTE_WITH_WARNING"
	case Block:
		return "BLOCK"
	default:
		return fmt.Sprintf("Action(%d)", uint8(a))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAction parses an action name, ignoring case.
func ParseAction(s string) (Action, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "EXECUTE":
		return Execute, nil
	case "EXECUTE_WITH_WARNING", "WARN":
		return ExecuteWithWarning, nil
	case "BLOCK":
		return Block, nil
	default:
		return 0, fmt.Errorf("unknown action %q", s)
	}
}

// Allowed reports whether the query may run.
func (a Action) Allowed() bool {
	return a == Execute || a == ExecuteWithWarning
}

// Decision is the gate's verdict.
type Decision struct {
	Action  Action `json:"action"`
	Message string `json:"message,omitempty"`
}

// Thresholds are the two cut points on [0,1].
// Scores below Block are blocked; scores below Warning run with a warning.
type Thresholds struct {
	Block   float64
	Warning float64
}

// DefaultThresholds returns block 0.5, warning 0.9.
func DefaultThresholds() Thresholds {
	return Thresholds{Block: 0.5, Warning: 0.9}
}

// Validate rejects thresholds outside [0,1] or in the wrong order.
func (t Thresholds) Validate() error {
	if t.Block < 0 || t.Block > 1 || t.Warning < 0 || t.Warning > 1 {
		return fmt.Errorf("thresholds must lie in [0,1]: block=%v warning=%v", t.Block, t.Warning)
	}
	if t.Block > t.Warning {
		return fmt.Errorf("block threshold %v is above warning threshold %v", t.Block, t.Warning)
	}
	return nil
}

// Decide applies the default thresholds.
func Decide(res *validator.ValidationResult) Decision {
	return DefaultThresholds().Decide(res)
}

// Decide maps a validation result to a decision.
func (t Thresholds) Decide(res *validator.ValidationResult) Decision {
	if res == nil {
		return Decision{Action: Block, Message: "Validation failed: no validation result"}
	}

	if len(res.Errors) > 0 {
		return Decision{
			Action:  Block,
			Message: "Validation failed: " + strings.Join(res.Errors, "; "),
		}
	}

	score := res.ConfidenceScore
	if math.IsNaN(score) {
		return Decision{Action: Block, Message: "Validation failed: confidence score is not a number"}
	}
	if score < t.Block {
		return Decision{
			Action: Block,
			Message: fmt.Sprintf("Confidence score %.2f is too low. "+
				"The column mapping or intent is uncertain; please rephrase the question.", score),
		}
	}

	if score < t.Warning {
		var b strings.Builder
		fmt.Fprintf(&b, "Proceeding with medium confidence (%.2f).", score)
		if n := len(res.Corrections); n > 0 {
			reasons := make([]string, n)
			for i, c := range res.Corrections {
				reasons[i] = c.Reason
			}
			fmt.Fprintf(&b, " Applied %d auto-correction(s): %s.", n, strings.Join(reasons, "; "))
		}
		b.WriteString(" Please verify the results.")
		return Decision{Action: ExecuteWithWarning, Message: b.String()}
	}

	return Decision{Action: Execute, Message: "Query validated successfully."}
}
