package schema

import (
	"fmt"
	"slices"
	"strings"
)

// SemanticType is the analytical role of a column.
// The zero value is invalid; every Column in a Snapshot has one of the
// three declared values.
type SemanticType uint8

const (
	Numeric SemanticType = iota + 1
	Categorical
	Date
)

// String returns the lowercase wire name of the semantic type.
func (t SemanticType) String() string {
	switch t {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	case Date:
		return "date"
	default:
		return fmt.Sprintf("SemanticType(%d)", uint8(t))
	}
}

// Valid reports whether t is one of the declared semantic types.
func (t SemanticType) Valid() bool {
	switch t {
	case Numeric, Categorical, Date:
		return true
	default:
		return false
	}
}

// ParseSemanticType parses a semantic type name, ignoring case.
func ParseSemanticType(s string) (SemanticType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "numeric", "number":
		return Numeric, nil
	case "categorical", "category":
		return Categorical, nil
	case "date", "datetime", "temporal":
		return Date, nil
	default:
		return 0, fmt.Errorf("unknown semantic type %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t SemanticType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid semantic type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *SemanticType) UnmarshalText(text []byte) error {
	parsed, err := ParseSemanticType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Column is the metadata of a single dataset column.
type Column struct {
	Name         string       `json:"name" yaml:"name"`
	PhysicalType string       `json:"physical_type" yaml:"physical_type"`
	SemanticType SemanticType `json:"semantic_type" yaml:"semantic_type"`
}

// IsNumeric reports whether the column can be summed or averaged.
func (c Column) IsNumeric() bool {
	return c.SemanticType == Numeric
}

// Snapshot is the immutable column metadata of one dataset.
// Column order is the order the columns were declared in, which makes
// "first numeric column" style heuristics deterministic.
type Snapshot struct {
	datasetID string
	table     string
	columns   []Column
	index     map[string]int
}

// NewSnapshot builds a Snapshot, rejecting empty, duplicate or untyped columns.
func NewSnapshot(datasetID string, columns []Column) (*Snapshot, error) {
	if strings.TrimSpace(datasetID) == "" {
		return nil, fmt.Errorf("dataset id is required")
	}

	s := &Snapshot{
		datasetID: datasetID,
		columns:   make([]Column, 0, len(columns)),
		index:     make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		if col.Name == "" {
			return nil, fmt.Errorf("dataset %s: column %d has no name", datasetID, i)
		}
		if !col.SemanticType.Valid() {
			return nil, fmt.Errorf("dataset %s: column %q has no semantic type", datasetID, col.Name)
		}
		if _, dup := s.index[col.Name]; dup {
			return nil, fmt.Errorf("dataset %s: duplicate column %q", datasetID, col.Name)
		}
		s.index[col.Name] = len(s.columns)
		s.columns = append(s.columns, col)
	}
	return s, nil
}

// MustSnapshot is NewSnapshot for fixtures; it panics on error.
func MustSnapshot(datasetID string, columns ...Column) *Snapshot {
	s, err := NewSnapshot(datasetID, columns)
	if err != nil {
		panic(err)
	}
	return s
}

// WithTable returns a copy of the snapshot bound to a backing table name.
func (s *Snapshot) WithTable(table string) *Snapshot {
	cp := *s
	cp.table = table
	return &cp
}

// DatasetID returns the dataset the snapshot describes.
func (s *Snapshot) DatasetID() string { return s.datasetID }

// Table returns the backing table name, or "" when the default naming applies.
func (s *Snapshot) Table() string { return s.table }

// Len returns the number of columns.
func (s *Snapshot) Len() int { return len(s.columns) }

// Columns returns a copy of the columns in declaration order.
func (s *Snapshot) Columns() []Column {
	return slices.Clone(s.columns)
}

// Names returns the column names in declaration order.
func (s *Snapshot) Names() []string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by its exact name.
func (s *Snapshot) Column(name string) (Column, bool) {
	i, ok := s.index[name]
	if !ok {
		return Column{}, false
	}
	return s.columns[i], true
}

// Has reports whether a column with the exact name exists.
func (s *Snapshot) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// NumericColumns returns the numeric columns in declaration order.
func (s *Snapshot) NumericColumns() []Column {
	var out []Column
	for _, c := range s.columns {
		if c.SemanticType == Numeric {
			out = append(out, c)
		}
	}
	return out
}
