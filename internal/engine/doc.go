// Package engine executes gated queries against an embedded analytical
// database and ties the request pipeline together.
//
// Two engines are supported through database/sql: DuckDB (the default,
// in-process and columnar) and SQLite. Both load CSV datasets into a
// backing table named by querysql.TableName and introspect the loaded
// columns to build a schema snapshot.
//
// REQUEST PIPELINE:
//
//  1. Load the dataset's schema snapshot (fatal if missing)
//  2. Validate and auto-correct the query
//  3. Gate on the validation result
//  4. Blocked requests stop here; nothing reaches the engine
//  5. Compile the corrected query to a parameterized statement or a
//     profiling signal
//  6. Run it and audit the outcome
//
// Validation, gating and compilation are pure; the only blocking calls are
// the schema load, the engine and the audit sink. A Pipeline holds no
// per-request state, so independent requests may run concurrently.
//
// ERRORS:
//
// Execution failures are *ExecutionError values and propagate out of the
// pipeline unchanged. They are audited as FAILED first.
package engine
