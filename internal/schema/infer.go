package schema

import "strings"

var numericPhysical = []string{
	"TINYINT", "SMALLINT", "INTEGER", "INT", "BIGINT", "HUGEINT",
	"UTINYINT", "USMALLINT", "UINTEGER", "UBIGINT", "UHUGEINT",
	"FLOAT", "DOUBLE", "REAL", "DECIMAL", "NUMERIC",
	"INT8", "INT16", "INT32", "INT64", "FLOAT32", "FLOAT64",
}

var datePhysical = []string{"DATE", "TIMESTAMP", "TIME", "DATETIME", "INTERVAL"}

// InferSemanticType derives a semantic type from a column's physical type,
// falling back to its name for text columns that hold dates.
func InferSemanticType(name, physicalType string) SemanticType {
	phys := strings.ToUpper(strings.TrimSpace(physicalType))
	if i := strings.IndexAny(phys, "( "); i > 0 {
		phys = phys[:i]
	}

	for _, p := range datePhysical {
		if strings.HasPrefix(phys, p) {
			return Date
		}
	}
	for _, p := range numericPhysical {
		if phys == p {
			return Numeric
		}
	}

	lower := strings.ToLower(name)
	if strings.Contains(lower, "date") || strings.Contains(lower, "time") {
		return Date
	}
	return Categorical
}

// Dataset classification labels.
const (
	KindSales       = "Sales Data"
	KindCustomer    = "Customer Data"
	KindTransaction = "Transaction Data"
	KindGeneric     = "Generic Tabular Data"
)

// Classify labels a dataset by the vocabulary of its column names.
func Classify(s *Snapshot) string {
	cols := strings.ToLower(strings.Join(s.Names(), " "))

	containsAny := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(cols, w) {
				return true
			}
		}
		return false
	}

	switch {
	case containsAny("sales", "revenue", "amount", "price"):
		return KindSales
	case containsAny("customer", "user", "gender", "age"):
		return KindCustomer
	case containsAny("transaction", "order", "invoice"):
		return KindTransaction
	default:
		return KindGeneric
	}
}
