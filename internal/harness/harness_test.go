package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querygate/internal/queryir"
	"github.com/roach88/querygate/internal/schema"
)

func salesDeclaration() schema.Declaration {
	return schema.Declaration{
		ID: "sales",
		Columns: []schema.ColumnDeclaration{
			{Name: "Year", PhysicalType: "BIGINT"},
			{Name: "Genre", PhysicalType: "VARCHAR"},
			{Name: "Global_Sales", PhysicalType: "DOUBLE"},
		},
	}
}

func TestRun_ExecuteWithoutCorrections(t *testing.T) {
	scenario := &Scenario{
		Name:        "clean",
		Description: "Sales by genre",
		Schema:      salesDeclaration(),
		Query: queryir.Query{
			GroupBy:      []string{"Genre"},
			Aggregations: []queryir.Aggregation{{Column: "Global_Sales", Function: queryir.Sum}},
		},
		Expect: Expectation{Action: "EXECUTE", Corrections: ptr(0)},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	tr := result.Trace
	assert.Equal(t, "req-0001", tr.RequestID)
	assert.Equal(t, "sales", tr.DatasetID)
	assert.Equal(t, 1.0, tr.Confidence)
	assert.Equal(t, "EXECUTE", tr.Action)
	assert.Empty(t, tr.Status, "compile-only runs are not audited")
	assert.Contains(t, tr.SQL, `FROM "dataset_sales"`)
}

func TestRun_FailedExpectationsAreReported(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong",
		Description: "Expects the wrong decision",
		Schema:      salesDeclaration(),
		Query:       queryir.Query{Select: []string{"Genre"}},
		Expect:      Expectation{Action: "BLOCK", Valid: ptr(false)},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 2)
}

func TestRun_BlockedIsAudited(t *testing.T) {
	scenario := &Scenario{
		Name:        "blocked",
		Description: "Unknown column",
		Schema:      salesDeclaration(),
		Query:       queryir.Query{Select: []string{"Platform"}},
		Expect:      Expectation{Action: "BLOCK"},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "BLOCKED", result.Trace.Status)
}

func TestRun_InlineDataExecutes(t *testing.T) {
	scenario := &Scenario{
		Name:        "inline",
		Description: "Count rows per genre",
		Schema:      schema.Declaration{ID: "sales"},
		Data:        "Genre,Global_Sales\nAction,1.5\nAction,2.5\nPuzzle,1.0\n",
		Query: queryir.Query{
			GroupBy:        []string{"Genre"},
			Aggregations:   []queryir.Aggregation{{Column: queryir.Star, Function: queryir.Count}},
			OrderBy:        "Genre",
			OrderDirection: queryir.Asc,
		},
		Expect: Expectation{Action: "EXECUTE", RowCount: ptr(int64(2))},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "SUCCESS", result.Trace.Status)
	assert.Equal(t, [][]any{{"Action", int64(2)}, {"Puzzle", int64(1)}}, result.Trace.Rows)
}

func TestRun_InlineProfiling(t *testing.T) {
	scenario := &Scenario{
		Name:        "inline_profile",
		Description: "Describe the data",
		Schema:      schema.Declaration{ID: "sales"},
		Data:        "Genre,Global_Sales\nAction,1.5\nPuzzle,\n",
		Expect:      Expectation{Profiling: ptr(true), RowCount: ptr(int64(2))},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "PROFILED", result.Trace.Status)
}

func TestRun_InvalidSchema(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_schema",
		Description: "Unknown semantic type",
		Schema: schema.Declaration{
			ID:      "sales",
			Columns: []schema.ColumnDeclaration{{Name: "Year", SemanticType: "weekday"}},
		},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid schema")
}

func TestRun_BadInlineData(t *testing.T) {
	scenario := &Scenario{
		Name:        "ragged",
		Description: "Ragged CSV",
		Schema:      schema.Declaration{ID: "sales"},
		Data:        "a,b\n1\n",
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to import scenario data")
}

func TestRun_ShippedScenariosPass(t *testing.T) {
	files, err := Discover(filepath.Join("testdata", "scenarios"), "")
	require.NoError(t, err)
	require.Len(t, files, 6)

	for _, path := range files {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Equal(t, "req-0001", result.Trace.RequestID)
		})
	}
}
