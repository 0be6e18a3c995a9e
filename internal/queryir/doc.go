// Package queryir defines the typed query representation shared by the
// planner, the metadata validator, the SQL compiler and the executors.
//
// A Query is the structured form of an analytical request against a single
// flat dataset:
//
//	[intent] → [Query] → validator → [corrected Query] → querysql → [Statement]
//
// Queries are built once per request, rewritten by the validator (which
// works on clones, never on the caller's value), then handed read-only to
// the compiler and executor. They are never reused across requests.
//
// PROFILING REQUESTS:
//
// A Query with no select list, no filters, no group-by and no aggregations
// does not ask for rows at all: it is a profiling request and is executed
// as a dataset summary. IsProfiling is the single definition of that rule.
//
// SEALED VALUES:
//
// Filter values are Scalars. Scalar is a sealed interface using the marker
// method pattern; only String, Int, Float, Bool, Null and List implement
// it, so backends can switch over values exhaustively:
//
//	switch v := value.(type) {
//	case String:
//	case Int:
//	case Float:
//	case Bool:
//	case Null:
//	case List:
//	}
//
// Values are never interpolated into SQL text. The compiler binds them as
// statement parameters.
//
// ENUMS:
//
// Operators, aggregation functions and sort directions are closed enums
// with text (un)marshaling, so JSON and YAML inputs are parsed once at the
// boundary and misspellings fail fast instead of reaching SQL.
package queryir
