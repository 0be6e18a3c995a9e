package queryir

import (
	"fmt"
	"slices"
	"strings"
)

// Star is the column placeholder of COUNT(*).
const Star = "*"

// Operator is a filter comparison operator.
type Operator uint8

const (
	Eq Operator = iota + 1
	Ne
	Lt
	Le
	Gt
	Ge
	In
	NotIn
)

// String returns the SQL spelling of the operator.
func (o Operator) String() string {
	switch o {
	case Eq:
		return "="
	case Ne:
		return "!="
	case Lt:
		return "<"
	case Le:
		return "<="
	case Gt:
		return ">"
	case Ge:
		return ">="
	case In:
		return "IN"
	case NotIn:
		return "NOT IN"
	default:
		return fmt.Sprintf("Operator(%d)", uint8(o))
	}
}

// Valid reports whether o is a declared operator.
func (o Operator) Valid() bool {
	return o >= Eq && o <= NotIn
}

// IsOrdering reports whether the operator needs an ordered domain.
func (o Operator) IsOrdering() bool {
	switch o {
	case Lt, Le, Gt, Ge:
		return true
	default:
		return false
	}
}

// IsMembership reports whether the operator tests list membership.
func (o Operator) IsMembership() bool {
	return o == In || o == NotIn
}

// ParseOperator parses the symbolic or word form of an operator.
func ParseOperator(s string) (Operator, error) {
	switch strings.Join(strings.Fields(strings.ToLower(s)), " ") {
	case "=", "==", "eq":
		return Eq, nil
	case "!=", "<>", "ne", "neq":
		return Ne, nil
	case "<", "lt":
		return Lt, nil
	case "<=", "le", "lte":
		return Le, nil
	case ">", "gt":
		return Gt, nil
	case ">=", "ge", "gte":
		return Ge, nil
	case "in":
		return In, nil
	case "not in", "not_in", "nin":
		return NotIn, nil
	default:
		return 0, fmt.Errorf("unknown operator %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Operator) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("invalid operator %d", uint8(o))
	}
	return []byte(strings.ToLower(o.String())), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Operator) UnmarshalText(text []byte) error {
	parsed, err := ParseOperator(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// AggFunc is an aggregation function.
type AggFunc uint8

const (
	Sum AggFunc = iota + 1
	Avg
	Min
	Max
	Count
)

// String returns the upper-case SQL function name.
func (f AggFunc) String() string {
	switch f {
	case Sum:
		return "SUM"
	case Avg:
		return "AVG"
	case Min:
		return "MIN"
	case Max:
		return "MAX"
	case Count:
		return "COUNT"
	default:
		return fmt.Sprintf("AggFunc(%d)", uint8(f))
	}
}

// Valid reports whether f is a declared function.
func (f AggFunc) Valid() bool {
	return f >= Sum && f <= Count
}

// ParseAggFunc parses a function name, ignoring case.
func ParseAggFunc(s string) (AggFunc, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sum", "total":
		return Sum, nil
	case "avg", "average", "mean":
		return Avg, nil
	case "min", "minimum":
		return Min, nil
	case "max", "maximum":
		return Max, nil
	case "count":
		return Count, nil
	default:
		return 0, fmt.Errorf("unknown aggregation function %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f AggFunc) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("invalid aggregation function %d", uint8(f))
	}
	return []byte(strings.ToLower(f.String())), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *AggFunc) UnmarshalText(text []byte) error {
	parsed, err := ParseAggFunc(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Direction is a sort direction. The zero value is Desc.
type Direction uint8

const (
	Desc Direction = iota
	Asc
)

// String returns the SQL keyword.
func (d Direction) String() string {
	if d == Asc {
		return "ASC"
	}
	return "DESC"
}

// ParseDirection parses "asc"/"desc", ignoring case. Empty means Desc.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc", "descending":
		return Desc, nil
	case "asc", "ascending":
		return Asc, nil
	default:
		return Desc, fmt.Errorf("unknown order direction %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(d.String())), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Filter restricts rows: <column> <operator> <value>.
// After validation Column names an existing schema column and Operator is
// legal for that column's semantic type.
type Filter struct {
	Column   string
	Operator Operator
	Value    Scalar
}

// Aggregation is FUNCTION(column). Column is Star only with Count.
type Aggregation struct {
	Column   string  `json:"column" yaml:"column"`
	Function AggFunc `json:"function" yaml:"function"`
}

// IsCountStar reports whether the aggregation is COUNT(*).
func (a Aggregation) IsCountStar() bool {
	return a.Column == Star
}

// Query is the typed analytical request against one dataset.
//
// Limit <= 0 means no limit. OrderBy is either a column name or a
// pre-formed expression (anything containing "("), such as an aggregate
// call.
type Query struct {
	DatasetID      string        `json:"dataset_id" yaml:"dataset_id"`
	Select         []string      `json:"select,omitempty" yaml:"select,omitempty"`
	Filters        []Filter      `json:"filters,omitempty" yaml:"filters,omitempty"`
	GroupBy        []string      `json:"group_by,omitempty" yaml:"group_by,omitempty"`
	Aggregations   []Aggregation `json:"aggregations,omitempty" yaml:"aggregations,omitempty"`
	OrderBy        string        `json:"order_by,omitempty" yaml:"order_by,omitempty"`
	OrderDirection Direction     `json:"order_direction" yaml:"order_direction"`
	Limit          int           `json:"limit,omitempty" yaml:"limit,omitempty"`
}

// IsProfiling reports whether the query asks for a dataset profile rather
// than rows: no projection, no filter, no grouping and no aggregation.
func (q *Query) IsProfiling() bool {
	return len(q.Select) == 0 &&
		len(q.Aggregations) == 0 &&
		len(q.Filters) == 0 &&
		len(q.GroupBy) == 0
}

// IsAggregate reports whether the projection is group-by plus aggregates.
func (q *Query) IsAggregate() bool {
	return len(q.Aggregations) > 0 || len(q.GroupBy) > 0
}

// HasLimit reports whether a positive limit is set.
func (q *Query) HasLimit() bool {
	return q.Limit > 0
}

// Clone returns a deep copy; rewriting the clone never touches q.
func (q *Query) Clone() *Query {
	cp := *q
	cp.Select = slices.Clone(q.Select)
	cp.GroupBy = slices.Clone(q.GroupBy)
	cp.Aggregations = slices.Clone(q.Aggregations)
	if q.Filters != nil {
		cp.Filters = make([]Filter, len(q.Filters))
		for i, f := range q.Filters {
			cp.Filters[i] = Filter{Column: f.Column, Operator: f.Operator, Value: CloneScalar(f.Value)}
		}
	}
	return &cp
}
