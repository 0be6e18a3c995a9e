package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSemanticType(t *testing.T) {
	tests := []struct {
		in   string
		want SemanticType
	}{
		{"numeric", Numeric},
		{"NUMERIC", Numeric},
		{" categorical ", Categorical},
		{"date", Date},
		{"datetime", Date},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSemanticType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseSemanticType("numerc")
	assert.Error(t, err)
}

func TestSemanticTypeText(t *testing.T) {
	b, err := Categorical.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "categorical", string(b))

	var st SemanticType
	require.NoError(t, st.UnmarshalText([]byte("Date")))
	assert.Equal(t, Date, st)

	_, err = SemanticType(0).MarshalText()
	assert.Error(t, err)
}

func TestNewSnapshot(t *testing.T) {
	s, err := NewSnapshot("vgsales", []Column{
		{Name: "Year", PhysicalType: "BIGINT", SemanticType: Numeric},
		{Name: "Genre", PhysicalType: "VARCHAR", SemanticType: Categorical},
		{Name: "Global_Sales", PhysicalType: "DOUBLE", SemanticType: Numeric},
	})
	require.NoError(t, err)

	assert.Equal(t, "vgsales", s.DatasetID())
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"Year", "Genre", "Global_Sales"}, s.Names())
	assert.True(t, s.Has("Genre"))
	assert.False(t, s.Has("genre"), "lookup is exact")

	col, ok := s.Column("Global_Sales")
	require.True(t, ok)
	assert.True(t, col.IsNumeric())

	nums := s.NumericColumns()
	require.Len(t, nums, 2)
	assert.Equal(t, "Year", nums[0].Name)
	assert.Equal(t, "Global_Sales", nums[1].Name)
}

func TestNewSnapshotRejectsBadColumns(t *testing.T) {
	_, err := NewSnapshot("", nil)
	assert.Error(t, err)

	_, err = NewSnapshot("ds", []Column{{Name: "", SemanticType: Numeric}})
	assert.Error(t, err)

	_, err = NewSnapshot("ds", []Column{{Name: "a"}})
	assert.ErrorContains(t, err, "no semantic type")

	_, err = NewSnapshot("ds", []Column{
		{Name: "a", SemanticType: Numeric},
		{Name: "a", SemanticType: Categorical},
	})
	assert.ErrorContains(t, err, "duplicate")
}

func TestSnapshotColumnsIsCopy(t *testing.T) {
	s := MustSnapshot("ds", Column{Name: "a", SemanticType: Numeric})
	cols := s.Columns()
	cols[0].Name = "mutated"
	assert.True(t, s.Has("a"))
}

func TestWithTable(t *testing.T) {
	s := MustSnapshot("ds", Column{Name: "a", SemanticType: Numeric})
	bound := s.WithTable("dataset_ds")
	assert.Equal(t, "", s.Table())
	assert.Equal(t, "dataset_ds", bound.Table())
	assert.True(t, bound.Has("a"))
}

func TestInferSemanticType(t *testing.T) {
	tests := []struct {
		name, physical string
		want           SemanticType
	}{
		{"Year", "BIGINT", Numeric},
		{"price", "DECIMAL(18,3)", Numeric},
		{"score", "float64", Numeric},
		{"created", "TIMESTAMP WITH TIME ZONE", Date},
		{"day", "DATE", Date},
		{"order_date", "VARCHAR", Date},
		{"Genre", "VARCHAR", Categorical},
		{"flag", "BOOLEAN", Categorical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferSemanticType(tt.name, tt.physical))
		})
	}
}

func TestClassify(t *testing.T) {
	sales := MustSnapshot("a", Column{Name: "Global_Sales", SemanticType: Numeric})
	customers := MustSnapshot("b", Column{Name: "customer_name", SemanticType: Categorical})
	orders := MustSnapshot("c", Column{Name: "invoice_no", SemanticType: Categorical})
	iris := MustSnapshot("d", Column{Name: "sepal_width", SemanticType: Numeric})

	assert.Equal(t, KindSales, Classify(sales))
	assert.Equal(t, KindCustomer, Classify(customers))
	assert.Equal(t, KindTransaction, Classify(orders))
	assert.Equal(t, KindGeneric, Classify(iris))
}

func TestMemoryProvider(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider(MustSnapshot("iris", Column{Name: "sepal_width", SemanticType: Numeric}))

	s, err := p.Schema(ctx, "iris")
	require.NoError(t, err)
	assert.Equal(t, "iris", s.DatasetID())

	_, err = p.Schema(ctx, "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaNotFound))

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "missing", nf.DatasetID)

	p.Put(MustSnapshot("another", Column{Name: "x", SemanticType: Categorical}))
	assert.Equal(t, []string{"another", "iris"}, p.DatasetIDs())
}

func TestMemoryProviderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryProvider().Schema(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
