package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rankingIntent = `dataset_id: sales
intent_type: ranking
dimensions: [Genre]
measures:
  - {column: Global_Sales, function: SUM}
limit: 2
raw_query: top genres by global sales
`

func TestRun_RendersRows(t *testing.T) {
	env := newTestEnv(t)
	env.importSales()

	out, err := env.run("run", env.write("q.yaml", rankedQuery))
	require.NoError(t, err)

	assert.Contains(t, out, "EXECUTE_WITH_WARNING")
	assert.Contains(t, out, "SUM_Global_Sales")
	assert.Contains(t, out, "Action")
	assert.Contains(t, out, "Sports")
	assert.NotContains(t, out, "Puzzle")
	assert.Contains(t, out, "(2 rows)")
	assert.Contains(t, out, "Chart: bar (SUM_Global_Sales by Genre)")
}

func TestRun_JSON(t *testing.T) {
	env := newTestEnv(t)
	env.importSales()

	out, err := env.run("--format", "json", "run", env.write("q.yaml", rankedQuery))
	require.NoError(t, err)

	var resp struct {
		RequestID string `json:"request_id"`
		Status    string `json:"status"`
		Outcome   struct {
			Result struct {
				Columns []string `json:"columns"`
				Rows    [][]any  `json:"rows"`
			} `json:"result"`
		} `json:"outcome"`
		Chart struct {
			X     string   `json:"x"`
			Y     string   `json:"y"`
			Types []string `json:"types"`
		} `json:"chart"`
	}
	require.NoError(t, json.Unmarshal(decodeResponse(t, out).Data, &resp))
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, "SUCCESS", resp.Status)
	assert.Equal(t, []string{"Genre", "SUM_Global_Sales"}, resp.Outcome.Result.Columns)
	assert.Equal(t, [][]any{{"Action", 15.0}, {"Sports", 9.0}}, resp.Outcome.Result.Rows)
	assert.Equal(t, "Genre", resp.Chart.X)
	assert.Equal(t, "SUM_Global_Sales", resp.Chart.Y)
	assert.Equal(t, []string{"bar"}, resp.Chart.Types)
}

func TestRun_Intent(t *testing.T) {
	env := newTestEnv(t)
	env.importSales()

	out, err := env.run("run", "--intent", env.write("intent.yaml", rankingIntent))
	require.NoError(t, err)

	// A planned ranking needs no corrections.
	assert.Contains(t, out, "✓ sales (confidence 1.00, EXECUTE)")
	assert.Contains(t, out, "(2 rows)")

	out, err = env.run("--format", "json", "audit", "list")
	require.NoError(t, err)
	var records []struct {
		RawQuery string `json:"raw_query"`
	}
	require.NoError(t, json.Unmarshal(decodeResponse(t, out).Data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "top genres by global sales", records[0].RawQuery)
}

func TestRun_Profile(t *testing.T) {
	env := newTestEnv(t)
	env.importSales()

	out, err := env.run("run", env.write("q.yaml", "dataset_id: sales\n"))
	require.NoError(t, err)
	assert.Contains(t, out, "Dataset sales: 5 rows")
	assert.Contains(t, out, "order_date")
	assert.Contains(t, out, "(4 rows)")
	assert.NotContains(t, out, "Chart:")
}

func TestRun_BlockedIsAudited(t *testing.T) {
	env := newTestEnv(t)
	env.importSales()

	_, err := env.run("run", env.write("q.json", unknownColumnQuery))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	out, err := env.run("audit", "list", "--dataset", "sales")
	require.NoError(t, err)
	assert.Contains(t, out, "BLOCKED")
	assert.Contains(t, out, "(1 rows)")
}

func TestRun_DeclaredDatasetWithoutTable(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run("dataset", "declare", env.write("schema.yaml", irisSchema))
	require.NoError(t, err)

	out, err := env.run("run", env.write("q.yaml", "dataset_id: iris\nselect: [species]\nlimit: 3\n"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E008]")

	out, err = env.run("audit", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "FAILED")
}
