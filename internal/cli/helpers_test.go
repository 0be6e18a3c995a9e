package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const salesCSV = `Year,Genre,Global_Sales,order_date
2010,Action,10.5,2024-01-05
2011,Action,4.5,2024-01-06
2010,Puzzle,2.0,2024-01-07
2012,Sports,8.0,2024-02-01
,Sports,1.0,2024-02-02
`

// rankedQuery needs two corrections: an inferred SUM and an order-by
// rewrite to its alias.
const rankedQuery = `dataset_id: sales
group_by: [Genre]
order_by: Global_Sales
limit: 2
`

const unknownColumnQuery = `{"dataset_id": "sales", "select": ["Nonexistent"]}`

// testEnv is a throwaway catalog and sqlite engine directory.
type testEnv struct {
	t     *testing.T
	dir   string
	store string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	return &testEnv{t: t, dir: dir, store: filepath.Join(dir, "qg", "catalog.db")}
}

// write creates a file in the env directory and returns its path.
func (e *testEnv) write(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(e.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the root command against the env's catalog and engine.
func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()
	cmd := NewRootCommand()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(append([]string{"--store", e.store, "--engine", "sqlite3", "--log-level", "error"}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

// importSales loads the sales CSV as dataset "sales".
func (e *testEnv) importSales() {
	e.t.Helper()
	_, err := e.run("dataset", "import", "sales", e.write("sales.csv", salesCSV))
	require.NoError(e.t, err)
}
