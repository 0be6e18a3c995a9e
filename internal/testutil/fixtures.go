// Package testutil provides shared test fixtures: schema snapshots, a
// slog logger bound to testing.T, and deterministic ID and time sources.
package testutil

import "github.com/roach88/querygate/internal/schema"

// VGSales is the video game sales snapshot used across package tests.
func VGSales() *schema.Snapshot {
	return schema.MustSnapshot("vgsales",
		schema.Column{Name: "Name", PhysicalType: "VARCHAR", SemanticType: schema.Categorical},
		schema.Column{Name: "Platform", PhysicalType: "VARCHAR", SemanticType: schema.Categorical},
		schema.Column{Name: "Year", PhysicalType: "BIGINT", SemanticType: schema.Numeric},
		schema.Column{Name: "Genre", PhysicalType: "VARCHAR", SemanticType: schema.Categorical},
		schema.Column{Name: "Publisher", PhysicalType: "VARCHAR", SemanticType: schema.Categorical},
		schema.Column{Name: "Global_Sales", PhysicalType: "DOUBLE", SemanticType: schema.Numeric},
	)
}

// SalesMinimal is the three-column snapshot {Year, Genre, Global_Sales}.
func SalesMinimal() *schema.Snapshot {
	return schema.MustSnapshot("sales",
		schema.Column{Name: "Year", PhysicalType: "BIGINT", SemanticType: schema.Numeric},
		schema.Column{Name: "Genre", PhysicalType: "VARCHAR", SemanticType: schema.Categorical},
		schema.Column{Name: "Global_Sales", PhysicalType: "DOUBLE", SemanticType: schema.Numeric},
	)
}

// Iris is the iris measurements snapshot.
func Iris() *schema.Snapshot {
	return schema.MustSnapshot("iris",
		schema.Column{Name: "sepal_length", PhysicalType: "DOUBLE", SemanticType: schema.Numeric},
		schema.Column{Name: "sepal_width", PhysicalType: "DOUBLE", SemanticType: schema.Numeric},
		schema.Column{Name: "petal_length", PhysicalType: "DOUBLE", SemanticType: schema.Numeric},
		schema.Column{Name: "petal_width", PhysicalType: "DOUBLE", SemanticType: schema.Numeric},
		schema.Column{Name: "species", PhysicalType: "VARCHAR", SemanticType: schema.Categorical},
	)
}

// Orders has no numeric columns; aggregation inference falls back to COUNT(*).
func Orders() *schema.Snapshot {
	return schema.MustSnapshot("orders",
		schema.Column{Name: "order_ref", PhysicalType: "VARCHAR", SemanticType: schema.Categorical},
		schema.Column{Name: "region", PhysicalType: "VARCHAR", SemanticType: schema.Categorical},
		schema.Column{Name: "order_date", PhysicalType: "DATE", SemanticType: schema.Date},
	)
}

// Provider returns a memory provider holding every fixture snapshot.
func Provider() *schema.MemoryProvider {
	return schema.NewMemoryProvider(VGSales(), SalesMinimal(), Iris(), Orders())
}
