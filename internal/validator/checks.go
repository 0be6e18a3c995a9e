package validator

import (
	"fmt"
	"strings"

	"github.com/roach88/querygate/internal/queryir"
	"github.com/roach88/querygate/internal/schema"
)

// errorList collects distinct error strings in first-seen order.
type errorList struct {
	seen map[string]bool
	errs []string
}

func (l *errorList) add(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if l.seen == nil {
		l.seen = make(map[string]bool)
	}
	if l.seen[msg] {
		return
	}
	l.seen[msg] = true
	l.errs = append(l.errs, msg)
}

// check runs the hard-error checks. It never rewrites the query.
func check(q *queryir.Query, snap *schema.Snapshot) []string {
	var l errorList
	available := strings.Join(snap.Names(), ", ")

	missing := func(name string) bool {
		if snap.Has(name) {
			return false
		}
		l.add("column %q not found (available: %s)", name, available)
		return true
	}

	for _, name := range q.Select {
		missing(name)
	}

	for _, f := range q.Filters {
		if missing(f.Column) {
			continue
		}
		col, _ := snap.Column(f.Column)
		checkFilter(&l, f, col)
	}

	for _, name := range q.GroupBy {
		missing(name)
	}

	if q.OrderBy != "" && !strings.Contains(q.OrderBy, "(") &&
		!snap.Has(q.OrderBy) && !isAggregateAlias(q, q.OrderBy) {
		l.add("order by %q is neither a column nor an aggregate alias", q.OrderBy)
	}

	for _, agg := range q.Aggregations {
		if !agg.Function.Valid() {
			l.add("aggregation on %q has no function", agg.Column)
			continue
		}
		fn := strings.ToLower(agg.Function.String())
		if agg.IsCountStar() {
			if agg.Function != queryir.Count {
				l.add("cannot apply %s to *; only count accepts *", fn)
			}
			continue
		}
		if missing(agg.Column) {
			continue
		}
		col, _ := snap.Column(agg.Column)
		if agg.Function != queryir.Count && col.SemanticType != schema.Numeric {
			l.add("cannot apply %s to non-numeric column %q (%s)", fn, col.Name, col.SemanticType)
		}
	}

	return l.errs
}

// OperatorAllowed reports whether op may filter a column of type t.
// Categorical columns only support equality and membership.
func OperatorAllowed(t schema.SemanticType, op queryir.Operator) bool {
	if !op.Valid() {
		return false
	}
	switch t {
	case schema.Numeric, schema.Date:
		return true
	case schema.Categorical:
		return !op.IsOrdering()
	default:
		return false
	}
}

func checkFilter(l *errorList, f queryir.Filter, col schema.Column) {
	if !f.Operator.Valid() {
		l.add("filter on %q has no operator", f.Column)
		return
	}
	if !OperatorAllowed(col.SemanticType, f.Operator) {
		l.add("operator %s is not valid for %s column %q", f.Operator, col.SemanticType, col.Name)
		return
	}
	if _, isList := f.Value.(queryir.List); isList && !f.Operator.IsMembership() {
		l.add("operator %s on %q needs a single value, got a list", f.Operator, f.Column)
	}
}
