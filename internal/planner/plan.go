package planner

import (
	"strings"

	"github.com/roach88/querygate/internal/queryir"
	"github.com/roach88/querygate/internal/querysql"
)

// DefaultLimit caps results when the intent names no limit.
const DefaultLimit = 10

// ascendingWords flip the sort to ascending when they appear in the
// user's wording.
var ascendingWords = []string{"lowest", "least", "bottom", "minimum"}

// Plan converts an intent into a Query.
//
// Measures become aggregations, dimensions become the group-by list.
// Without an explicit order_by the primary measure's output alias is used,
// so ranking intents sort on the aggregated value. Direction defaults to
// descending and becomes ascending when the raw question asks for the
// lowest, least, bottom or minimum values.
func Plan(in *Intent) (*queryir.Query, error) {
	if in == nil {
		return nil, &IntentError{Message: "nil intent"}
	}
	if err := in.Check(); err != nil {
		return nil, err
	}

	q := &queryir.Query{
		DatasetID:      in.DatasetID,
		OrderBy:        in.OrderBy,
		OrderDirection: in.OrderDirection,
		Limit:          in.Limit,
	}
	if len(in.Dimensions) > 0 {
		q.GroupBy = append([]string(nil), in.Dimensions...)
	}
	if len(in.Measures) > 0 {
		q.Aggregations = append([]queryir.Aggregation(nil), in.Measures...)
	}
	if len(in.Filters) > 0 {
		q.Filters = make([]queryir.Filter, len(in.Filters))
		for i, f := range in.Filters {
			q.Filters[i] = queryir.Filter{Column: f.Column, Operator: f.Operator, Value: queryir.CloneScalar(f.Value)}
		}
	}

	if q.OrderBy == "" && len(q.Aggregations) > 0 {
		q.OrderBy = querysql.AggregateAlias(q.Aggregations[0])
	}
	if asksForLowest(in.RawQuery) {
		q.OrderDirection = queryir.Asc
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	return q, nil
}

func asksForLowest(raw string) bool {
	lower := strings.ToLower(raw)
	for _, w := range ascendingWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
