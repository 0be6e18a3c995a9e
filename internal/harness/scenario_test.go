package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querygate/internal/queryir"
	"github.com/roach88/querygate/internal/schema"
)

const minimalScenario = `
name: minimal
description: "Minimal scenario"
schema:
  id: sales
  columns:
    - { name: Genre, semantic_type: categorical }
    - { name: Global_Sales, physical_type: DOUBLE }
query:
  select: [Genre]
  filters:
    - { column: Genre, operator: "=", value: Action }
  order_direction: asc
expect:
  valid: true
  action: execute
`

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, "sales", s.Schema.ID)
	require.Len(t, s.Schema.Columns, 2)

	snap, err := s.Schema.Snapshot()
	require.NoError(t, err)
	col, ok := snap.Column("Global_Sales")
	require.True(t, ok)
	assert.Equal(t, schema.Numeric, col.SemanticType)

	assert.Equal(t, []string{"Genre"}, s.Query.Select)
	require.Len(t, s.Query.Filters, 1)
	assert.Equal(t, queryir.Eq, s.Query.Filters[0].Operator)
	assert.Equal(t, queryir.String("Action"), s.Query.Filters[0].Value)
	assert.Equal(t, queryir.Asc, s.Query.OrderDirection)

	require.NotNil(t, s.Expect.Valid)
	assert.True(t, *s.Expect.Valid)
	assert.Nil(t, s.Expect.Corrections)
}

func TestParseScenario_RejectsUnknownFields(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: "x"
schema: { id: s, columns: [{ name: a }] }
query: {}
expectations: {}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: `{description: d, schema: {id: s, columns: [{name: a}]}}`,
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: `{name: n, schema: {id: s, columns: [{name: a}]}}`,
			want: "description is required",
		},
		{
			name: "missing dataset id",
			yaml: `{name: n, description: d, schema: {columns: [{name: a}]}}`,
			want: "schema.id is required",
		},
		{
			name: "no columns and no data",
			yaml: `{name: n, description: d, schema: {id: s}}`,
			want: "schema.columns is required",
		},
		{
			name: "columns with data",
			yaml: "{name: n, description: d, schema: {id: s, columns: [{name: a}]}, data: \"a\\n1\\n\"}",
			want: "must be empty when data is given",
		},
		{
			name: "row count without data",
			yaml: `{name: n, description: d, schema: {id: s, columns: [{name: a}]}, expect: {row_count: 1}}`,
			want: "row_count needs data",
		},
		{
			name: "dataset mismatch",
			yaml: `{name: n, description: d, schema: {id: s, columns: [{name: a}]}, query: {dataset_id: other}}`,
			want: "does not match",
		},
		{
			name: "bad action",
			yaml: `{name: n, description: d, schema: {id: s, columns: [{name: a}]}, expect: {action: maybe}}`,
			want: "expect.action",
		},
		{
			name: "inverted confidence range",
			yaml: `{name: n, description: d, schema: {id: s, columns: [{name: a}]}, expect: {confidence_min: 0.9, confidence_max: 0.5}}`,
			want: "confidence_min",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yml", "notes.txt", "golden/a.yaml", "nested/c.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}

	files, err := Discover(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yml"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "nested", "c.yaml"),
	}, files)

	files, err = Discover(dir, "b*")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "b.yaml")}, files)

	_, err = Discover(dir, "[")
	assert.Error(t, err)
}
