package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/querygate/internal/queryir"
)

// SQLCompiler compiles validated queries into single-table statements.
//
// The compiler does not re-validate column names or types; callers run the
// validator first. Values are never interpolated into SQL text.
type SQLCompiler struct {
	// Tables maps dataset ids to backing table names. Datasets not present
	// use TableName.
	Tables map[string]string
}

// NewSQLCompiler creates a compiler with no table overrides.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{
		Tables: make(map[string]string),
	}
}

// Compile converts a query into a *Statement, or a ProfilingSignal when the
// query carries no projection, filter, grouping or aggregation.
//
// The profiling check runs before any SQL is built.
func (c *SQLCompiler) Compile(q *queryir.Query) (Compiled, error) {
	if q == nil {
		return nil, fmt.Errorf("cannot compile nil query")
	}

	table, err := c.table(q.DatasetID)
	if err != nil {
		return nil, err
	}

	if q.IsProfiling() {
		return ProfilingSignal{DatasetID: q.DatasetID, Table: table}, nil
	}

	projection, err := compileProjection(q)
	if err != nil {
		return nil, err
	}

	stmt := &Statement{
		Table:      table,
		Projection: projection,
		Where:      compileWhere(q.Filters),
		Limit:      q.Limit,
	}
	if len(q.GroupBy) > 0 {
		stmt.GroupBy = append([]string(nil), q.GroupBy...)
	}
	if q.OrderBy != "" {
		stmt.OrderBy = &OrderBy{
			Expr:      q.OrderBy,
			Raw:       strings.Contains(q.OrderBy, "("),
			Direction: q.OrderDirection,
		}
	}
	return stmt, nil
}

func (c *SQLCompiler) table(datasetID string) (string, error) {
	if strings.TrimSpace(datasetID) == "" {
		return "", fmt.Errorf("query has no dataset id")
	}
	if t, ok := c.Tables[datasetID]; ok && t != "" {
		return t, nil
	}
	return TableName(datasetID), nil
}

// compileProjection applies the projection rule: group-by columns followed
// by one aliased expression per aggregation, or the select list verbatim.
func compileProjection(q *queryir.Query) ([]SelectItem, error) {
	if !q.IsAggregate() {
		items := make([]SelectItem, len(q.Select))
		for i, col := range q.Select {
			items[i] = SelectItem{Column: col}
		}
		return items, nil
	}

	items := make([]SelectItem, 0, len(q.GroupBy)+len(q.Aggregations))
	for _, col := range q.GroupBy {
		items = append(items, SelectItem{Column: col})
	}
	for _, agg := range q.Aggregations {
		if agg.IsCountStar() && agg.Function != queryir.Count {
			return nil, fmt.Errorf("%s(*) is not supported; only COUNT accepts *", agg.Function)
		}
		if !agg.Function.Valid() {
			return nil, fmt.Errorf("aggregation on %q has no function", agg.Column)
		}
		items = append(items, SelectItem{
			Column:   agg.Column,
			Function: agg.Function,
			Alias:    AggregateAlias(agg),
		})
	}
	return items, nil
}

func compileWhere(filters []queryir.Filter) []Predicate {
	if len(filters) == 0 {
		return nil
	}
	preds := make([]Predicate, len(filters))
	for i, f := range filters {
		preds[i] = Predicate{Column: f.Column, Operator: f.Operator, Value: f.Value}
	}
	return preds
}

// AggregateAlias returns the output name of an aggregation:
// "{FUNCTION}_{column with spaces as underscores}", or COUNT_total for *.
// The validator aligns ORDER BY to this same name.
func AggregateAlias(agg queryir.Aggregation) string {
	if agg.IsCountStar() {
		return "COUNT_total"
	}
	return agg.Function.String() + "_" + strings.ReplaceAll(agg.Column, " ", "_")
}

// TableName is the default backing table of a dataset: "dataset_" followed
// by the id with every character outside [A-Za-z0-9] replaced by "_".
func TableName(datasetID string) string {
	return "dataset_" + strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, datasetID)
}
