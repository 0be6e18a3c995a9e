// Package schema describes the read-only column metadata of a dataset.
//
// A Snapshot is the immutable view of one dataset's columns that the
// validator resolves query references against. Snapshots are produced by a
// Provider (in-memory, file-backed, or the SQLite catalog in internal/store)
// and are never mutated once handed out.
//
// SEMANTIC TYPES:
//
// Every column carries a physical type (whatever the storage engine reports,
// e.g. "BIGINT", "VARCHAR", "float64") and a semantic type drawn from a
// closed set:
//
//	Numeric      aggregatable, comparable
//	Categorical  groupable, equality/membership filters only
//	Date         groupable, comparable
//
// The semantic type decides which aggregation functions and filter operators
// are legal for a column. Callers switch over it exhaustively; there is no
// free-form string form inside the module.
//
// FILE FORMATS:
//
// Snapshots can be declared in YAML or CUE:
//
//	datasets:
//	  - id: vgsales
//	    columns:
//	      - {name: Year, physical_type: BIGINT, semantic_type: numeric}
//	      - {name: Genre, physical_type: VARCHAR, semantic_type: categorical}
//
//	datasets: vgsales: columns: [
//		{name: "Year", physical_type: "BIGINT", semantic_type: "numeric"},
//	]
package schema
