package validator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/querygate/internal/queryir"
	"github.com/roach88/querygate/internal/querysql"
	"github.com/roach88/querygate/internal/schema"
)

// Pass is one step of the correction fold. Apply never mutates its input.
type Pass struct {
	Name  string
	Apply func(in PassInput) (*queryir.Query, []Correction)
}

// PassInput is what every pass sees.
type PassInput struct {
	Query    *queryir.Query
	Snapshot *schema.Snapshot
	Policy   Policy
}

// Passes returns the correction passes in their fixed order.
func Passes() []Pass {
	return []Pass{
		{Name: "normalize", Apply: normalizePass},
		{Name: "synonym", Apply: synonymPass},
		{Name: "aggregate", Apply: aggregatePass},
		{Name: "group_by", Apply: groupByPass},
		{Name: "order_by", Apply: orderByPass},
		{Name: "limit", Apply: limitPass},
	}
}

// columnRef is an addressable column reference inside a query.
type columnRef struct {
	field string
	name  *string
}

// columnRefs lists every column reference of q in a stable order:
// select, aggregations, filters, group_by, then order_by when it is a plain
// name rather than an expression or aggregate alias.
func columnRefs(q *queryir.Query) []columnRef {
	var refs []columnRef
	for i := range q.Select {
		refs = append(refs, columnRef{fmt.Sprintf("select[%d]", i), &q.Select[i]})
	}
	for i := range q.Aggregations {
		refs = append(refs, columnRef{fmt.Sprintf("aggregations[%d].column", i), &q.Aggregations[i].Column})
	}
	for i := range q.Filters {
		refs = append(refs, columnRef{fmt.Sprintf("filters[%d].column", i), &q.Filters[i].Column})
	}
	for i := range q.GroupBy {
		refs = append(refs, columnRef{fmt.Sprintf("group_by[%d]", i), &q.GroupBy[i]})
	}
	if q.OrderBy != "" && !strings.Contains(q.OrderBy, "(") && !isAggregateAlias(q, q.OrderBy) {
		refs = append(refs, columnRef{"order_by", &q.OrderBy})
	}
	return refs
}

func isAggregateAlias(q *queryir.Query, name string) bool {
	for _, agg := range q.Aggregations {
		if querysql.AggregateAlias(agg) == name {
			return true
		}
	}
	return false
}

func rename(field, from, to, reason string) Correction {
	return Correction{
		Field:     field,
		Original:  queryir.String(from),
		Corrected: queryir.String(to),
		Reason:    reason,
	}
}

func normalizePass(in PassInput) (*queryir.Query, []Correction) {
	r := newResolver(in.Snapshot)
	return resolveRefs(in.Query, r, func(term string) (string, string, bool) {
		name, ok := r.normalized(term)
		return name, "normalized column name", ok
	})
}

func synonymPass(in PassInput) (*queryir.Query, []Correction) {
	r := newResolver(in.Snapshot)
	return resolveRefs(in.Query, r, r.synonym)
}

// resolveRefs rewrites every unresolved column reference that resolve can
// map to a schema column. An order_by naming an aggregation's alias follows
// that aggregation when its column is renamed.
func resolveRefs(in *queryir.Query, r *resolver, resolve func(string) (string, string, bool)) (*queryir.Query, []Correction) {
	q := in.Clone()

	aliased := -1
	for i, agg := range q.Aggregations {
		if querysql.AggregateAlias(agg) == q.OrderBy {
			aliased = i
			break
		}
	}

	var out []Correction
	for _, ref := range columnRefs(q) {
		if r.exact(*ref.name) {
			continue
		}
		if name, reason, ok := resolve(*ref.name); ok {
			out = append(out, rename(ref.field, *ref.name, name, reason))
			*ref.name = name
		}
	}

	if aliased >= 0 {
		q.OrderBy = querysql.AggregateAlias(q.Aggregations[aliased])
	}
	return q, out
}

var preferredMetricTokens = []string{"sales", "amount", "revenue"}

// aggregatePass infers an aggregation for a grouped query that has none:
// SUM over the preferred metric, else over the first numeric column not
// already grouped on, else COUNT(*).
func aggregatePass(in PassInput) (*queryir.Query, []Correction) {
	if len(in.Query.Aggregations) > 0 || len(in.Query.GroupBy) == 0 {
		return in.Query, nil
	}
	q := in.Query.Clone()

	var candidates []schema.Column
	for _, c := range in.Snapshot.NumericColumns() {
		if !slices.Contains(q.GroupBy, c.Name) {
			candidates = append(candidates, c)
		}
	}

	agg := queryir.Aggregation{Column: queryir.Star, Function: queryir.Count}
	reason := "no numeric column; counting rows"
	if len(candidates) > 0 {
		agg = queryir.Aggregation{Column: candidates[0].Name, Function: queryir.Sum}
		reason = "inferred sum of first numeric column"
		for _, c := range candidates {
			if containsAny(strings.ToLower(c.Name), preferredMetricTokens) {
				agg.Column = c.Name
				reason = "inferred sum of preferred metric column"
				break
			}
		}
	}
	q.Aggregations = []queryir.Aggregation{agg}

	return q, []Correction{{
		Field:     "aggregations",
		Original:  queryir.Null{},
		Corrected: queryir.String(fmt.Sprintf("%s(%s)", agg.Function, agg.Column)),
		Reason:    reason,
	}}
}

// groupByPass appends every non-numeric select column missing from
// GROUP BY, sorted, as a single correction. A column that is also an
// aggregation target is grouped as well.
func groupByPass(in PassInput) (*queryir.Query, []Correction) {
	if len(in.Query.Aggregations) == 0 {
		return in.Query, nil
	}

	var missing []string
	for _, name := range in.Query.Select {
		col, ok := in.Snapshot.Column(name)
		if !ok || col.SemanticType == schema.Numeric {
			continue
		}
		if slices.Contains(in.Query.GroupBy, name) || slices.Contains(missing, name) {
			continue
		}
		missing = append(missing, name)
	}
	if len(missing) == 0 {
		return in.Query, nil
	}
	slices.Sort(missing)

	q := in.Query.Clone()
	q.GroupBy = append(q.GroupBy, missing...)

	return q, []Correction{{
		Field:     "group_by",
		Original:  queryir.Strings(in.Query.GroupBy...),
		Corrected: queryir.Strings(q.GroupBy...),
		Reason:    "added select columns to GROUP BY: " + strings.Join(missing, ", "),
	}}
}

// orderByPass rewrites an ORDER BY on an aggregated raw column to that
// aggregation's alias, the same name the compiler projects.
func orderByPass(in PassInput) (*queryir.Query, []Correction) {
	orderBy := in.Query.OrderBy
	if orderBy == "" || strings.Contains(orderBy, "(") {
		return in.Query, nil
	}
	for _, agg := range in.Query.Aggregations {
		if agg.IsCountStar() || agg.Column != orderBy {
			continue
		}
		alias := querysql.AggregateAlias(agg)
		q := in.Query.Clone()
		q.OrderBy = alias
		return q, []Correction{rename("order_by", orderBy, alias, "order by the aggregated expression")}
	}
	return in.Query, nil
}

func limitPass(in PassInput) (*queryir.Query, []Correction) {
	limit := in.Query.Limit
	switch {
	case limit < 0:
		q := in.Query.Clone()
		q.Limit = 0
		return q, []Correction{{
			Field:     "limit",
			Original:  queryir.Int(limit),
			Corrected: queryir.Null{},
			Reason:    "ignored non-positive limit",
		}}
	case in.Policy.MaxLimit > 0 && limit > in.Policy.MaxLimit:
		q := in.Query.Clone()
		q.Limit = in.Policy.MaxLimit
		return q, []Correction{{
			Field:     "limit",
			Original:  queryir.Int(limit),
			Corrected: queryir.Int(in.Policy.MaxLimit),
			Reason:    fmt.Sprintf("limit reduced from %d to %d", limit, in.Policy.MaxLimit),
		}}
	default:
		return in.Query, nil
	}
}
