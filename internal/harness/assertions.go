package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/querygate/internal/engine"
	"github.com/roach88/querygate/internal/gate"
)

// AssertionError is one failed expectation.
type AssertionError struct {
	Field    string // expectation key, e.g. "corrections"
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("expect.%s: expected %s, got %s", e.Field, e.Expected, e.Actual)
}

// EvaluateExpectations checks a response and returns one message per
// failed expectation, in declaration order.
func EvaluateExpectations(exp Expectation, resp *engine.Response) []string {
	var errs []string
	fail := func(field, expected, actual string) {
		errs = append(errs, (&AssertionError{Field: field, Expected: expected, Actual: actual}).Error())
	}

	v := resp.Validation

	if exp.Valid != nil && *exp.Valid != v.IsValid {
		fail("valid", fmt.Sprint(*exp.Valid), fmt.Sprint(v.IsValid))
	}
	if exp.Corrections != nil && *exp.Corrections != len(v.Corrections) {
		fail("corrections", fmt.Sprintf("%d correction(s)", *exp.Corrections), describeCorrections(resp))
	}
	if exp.Errors != nil && *exp.Errors != len(v.Errors) {
		fail("errors", fmt.Sprintf("%d error(s)", *exp.Errors), fmt.Sprintf("%d %q", len(v.Errors), v.Errors))
	}
	for _, want := range exp.ErrorContains {
		if !anyContains(v.Errors, want) {
			fail("error_contains", fmt.Sprintf("an error containing %q", want), fmt.Sprintf("%q", v.Errors))
		}
	}
	if exp.Action != "" {
		want, err := gate.ParseAction(exp.Action)
		if err != nil {
			fail("action", "a known action", err.Error())
		} else if want != resp.Decision.Action {
			fail("action", want.String(), resp.Decision.Action.String())
		}
	}
	if exp.ConfidenceMin != nil && v.ConfidenceScore < *exp.ConfidenceMin {
		fail("confidence_min", fmt.Sprintf(">= %.2f", *exp.ConfidenceMin), fmt.Sprintf("%.2f", v.ConfidenceScore))
	}
	if exp.ConfidenceMax != nil && v.ConfidenceScore > *exp.ConfidenceMax {
		fail("confidence_max", fmt.Sprintf("<= %.2f", *exp.ConfidenceMax), fmt.Sprintf("%.2f", v.ConfidenceScore))
	}
	for _, want := range exp.SQLContains {
		if !strings.Contains(resp.SQL, want) {
			fail("sql_contains", fmt.Sprintf("SQL containing %q", want), fmt.Sprintf("%q", resp.SQL))
		}
	}
	if exp.Profiling != nil && *exp.Profiling != resp.Profiling {
		fail("profiling", fmt.Sprint(*exp.Profiling), fmt.Sprint(resp.Profiling))
	}
	if exp.RowCount != nil {
		if got := resp.Outcome.RowCount(); got != *exp.RowCount {
			fail("row_count", fmt.Sprint(*exp.RowCount), fmt.Sprint(got))
		}
	}

	return errs
}

func describeCorrections(resp *engine.Response) string {
	cs := resp.Validation.Corrections
	if len(cs) == 0 {
		return "none"
	}
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = fmt.Sprintf("%s (%s)", c.Field, c.Reason)
	}
	return fmt.Sprintf("%d: %s", len(cs), strings.Join(parts, "; "))
}

func anyContains(msgs []string, sub string) bool {
	for _, m := range msgs {
		if strings.Contains(m, sub) {
			return true
		}
	}
	return false
}
