package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querygate/internal/queryir"
	"github.com/roach88/querygate/internal/testutil"
)

func runPass(t *testing.T, name string, q *queryir.Query) (*queryir.Query, []Correction) {
	t.Helper()
	for _, p := range Passes() {
		if p.Name == name {
			return p.Apply(PassInput{Query: q, Snapshot: testutil.VGSales(), Policy: DefaultPolicy()})
		}
	}
	t.Fatalf("no pass named %q", name)
	return nil, nil
}

func TestPassesOrder(t *testing.T) {
	var names []string
	for _, p := range Passes() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"normalize", "synonym", "aggregate", "group_by", "order_by", "limit"}, names)
}

func TestNormalizePass(t *testing.T) {
	in := &queryir.Query{
		DatasetID: "vgsales",
		Select:    []string{"global sales", "Name"},
		Filters:   []queryir.Filter{{Column: "YEAR", Operator: queryir.Gt, Value: queryir.Int(2000)}},
		OrderBy:   "year",
	}
	out, corr := runPass(t, "normalize", in)

	assert.Equal(t, []string{"Global_Sales", "Name"}, out.Select)
	assert.Equal(t, "Year", out.Filters[0].Column)
	assert.Equal(t, "Year", out.OrderBy)
	require.Len(t, corr, 3)
	assert.Equal(t, "select[0]", corr[0].Field)
	assert.Equal(t, "filters[0].column", corr[1].Field)
	assert.Equal(t, "order_by", corr[2].Field)

	assert.Equal(t, "global sales", in.Select[0], "input untouched")
}

func TestSynonymPassLeavesUnknownAlone(t *testing.T) {
	in := &queryir.Query{DatasetID: "vgsales", Select: []string{"nonexistent_col"}}
	out, corr := runPass(t, "synonym", in)

	assert.Empty(t, corr)
	assert.Equal(t, []string{"nonexistent_col"}, out.Select)
}

func TestAggregatePassSkipsGroupedColumns(t *testing.T) {
	in := &queryir.Query{DatasetID: "vgsales", GroupBy: []string{"Year"}}
	out, corr := runPass(t, "aggregate", in)

	require.Len(t, corr, 1)
	assert.Equal(t, []queryir.Aggregation{{Column: "Global_Sales", Function: queryir.Sum}}, out.Aggregations)
	assert.Equal(t, "inferred sum of preferred metric column", corr[0].Reason)
}

func TestAggregatePassOnlyForGroupedQueries(t *testing.T) {
	in := &queryir.Query{DatasetID: "vgsales", Select: []string{"Name", "Year"}}
	out, corr := runPass(t, "aggregate", in)

	assert.Empty(t, corr)
	assert.Empty(t, out.Aggregations)
}

func TestGroupByPassSingleSortedCorrection(t *testing.T) {
	in := &queryir.Query{
		DatasetID:    "vgsales",
		Select:       []string{"Publisher", "Platform", "Publisher"},
		Aggregations: []queryir.Aggregation{{Column: "Global_Sales", Function: queryir.Sum}},
	}
	out, corr := runPass(t, "group_by", in)

	assert.Equal(t, []string{"Platform", "Publisher"}, out.GroupBy)
	require.Len(t, corr, 1)
	assert.True(t, queryir.EqualScalar(queryir.List{}, corr[0].Original))
	assert.True(t, queryir.EqualScalar(queryir.Strings("Platform", "Publisher"), corr[0].Corrected))
}

func TestOrderByPassIgnoresExpressions(t *testing.T) {
	in := &queryir.Query{
		DatasetID:    "vgsales",
		Aggregations: []queryir.Aggregation{{Column: "Global_Sales", Function: queryir.Sum}},
		OrderBy:      "SUM(Global_Sales)",
	}
	out, corr := runPass(t, "order_by", in)

	assert.Empty(t, corr)
	assert.Equal(t, "SUM(Global_Sales)", out.OrderBy)
}

func TestLimitPass(t *testing.T) {
	out, corr := runPass(t, "limit", &queryir.Query{DatasetID: "vgsales", Limit: 1000})
	assert.Empty(t, corr)
	assert.Equal(t, 1000, out.Limit)

	out, corr = runPass(t, "limit", &queryir.Query{DatasetID: "vgsales", Limit: 1001})
	require.Len(t, corr, 1)
	assert.Equal(t, 1000, out.Limit)
	assert.Equal(t, "limit reduced from 1001 to 1000", corr[0].Reason)
}
