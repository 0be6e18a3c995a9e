package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/querygate/internal/queryir"
)

// Compiled is the result of compiling a query: either a *Statement or a
// ProfilingSignal. The interface is sealed.
type Compiled interface {
	compiled()
}

// ProfilingSignal reports that the query asked for a dataset profile.
// No SQL is built for it.
type ProfilingSignal struct {
	DatasetID string
	Table     string
}

func (ProfilingSignal) compiled() {}

// SelectItem is one projected expression. Function is zero for a plain
// column reference.
type SelectItem struct {
	Column   string
	Function queryir.AggFunc
	Alias    string
}

// Predicate is one WHERE conjunct.
type Predicate struct {
	Column   string
	Operator queryir.Operator
	Value    queryir.Scalar
}

// OrderBy is the ORDER BY clause. Raw expressions are emitted verbatim.
type OrderBy struct {
	Expr      string
	Raw       bool
	Direction queryir.Direction
}

// Statement is a single-table SELECT.
// An empty Projection selects every column.
type Statement struct {
	Table      string
	Projection []SelectItem
	Where      []Predicate
	GroupBy    []string
	OrderBy    *OrderBy
	Limit      int
}

func (*Statement) compiled() {}

// SQL serializes the statement. Every literal is bound as a ? parameter;
// identifiers go through QuoteIdent and nothing else.
func (s *Statement) SQL() (string, []any) {
	var b strings.Builder
	var params []any

	b.WriteString("SELECT ")
	b.WriteString(s.projectionSQL())
	b.WriteString(" FROM ")
	b.WriteString(QuoteIdent(s.Table))

	if len(s.Where) > 0 {
		parts := make([]string, len(s.Where))
		for i, p := range s.Where {
			sql, ps := p.sql()
			parts[i] = sql
			params = append(params, ps...)
		}
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(parts, " AND "))
	}

	if len(s.GroupBy) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(quoteList(s.GroupBy))
	}

	if s.OrderBy != nil && s.OrderBy.Expr != "" {
		b.WriteString(" ORDER BY ")
		if s.OrderBy.Raw {
			b.WriteString(s.OrderBy.Expr)
		} else {
			b.WriteString(QuoteIdent(s.OrderBy.Expr))
		}
		b.WriteString(" ")
		b.WriteString(s.OrderBy.Direction.String())
	}

	if s.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", s.Limit)
	}

	return b.String(), params
}

// String returns the SQL text with placeholders.
func (s *Statement) String() string {
	sql, _ := s.SQL()
	return sql
}

func (s *Statement) projectionSQL() string {
	if len(s.Projection) == 0 {
		return "*"
	}
	parts := make([]string, len(s.Projection))
	for i, item := range s.Projection {
		parts[i] = item.sql()
	}
	return strings.Join(parts, ", ")
}

func (it SelectItem) sql() string {
	if it.Function == 0 {
		return QuoteIdent(it.Column)
	}
	arg := queryir.Star
	if it.Column != queryir.Star {
		arg = QuoteIdent(it.Column)
	}
	return fmt.Sprintf("%s(%s) AS %s", it.Function, arg, QuoteIdent(it.Alias))
}

func (p Predicate) sql() (string, []any) {
	col := QuoteIdent(p.Column)

	if p.Operator.IsMembership() {
		vals := membershipValues(p.Value)
		if len(vals) == 0 {
			// x IN () is false for every row; x NOT IN () is true.
			if p.Operator == queryir.In {
				return "1 = 0", nil
			}
			return "1 = 1", nil
		}
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(vals)), ", ")
		return fmt.Sprintf("%s %s (%s)", col, p.Operator, marks), vals
	}

	if _, isNull := p.Value.(queryir.Null); isNull || p.Value == nil {
		switch p.Operator {
		case queryir.Eq:
			return col + " IS NULL", nil
		case queryir.Ne:
			return col + " IS NOT NULL", nil
		}
	}

	return fmt.Sprintf("%s %s ?", col, p.Operator), []any{queryir.Native(p.Value)}
}

// membershipValues flattens an IN/NOT IN value; a lone scalar is treated
// as a one-element list.
func membershipValues(v queryir.Scalar) []any {
	switch val := v.(type) {
	case nil:
		return nil
	case queryir.List:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = queryir.Native(e)
		}
		return out
	default:
		return []any{queryir.Native(v)}
	}
}

// QuoteIdent double-quotes an identifier, doubling embedded quotes.
// It is the single place identifiers are escaped.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteList(names []string) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = QuoteIdent(n)
	}
	return strings.Join(parts, ", ")
}
