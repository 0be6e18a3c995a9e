// Package store provides SQLite-backed storage for the dataset catalog and
// the query audit log.
//
// The catalog records each imported dataset, its backing table in the
// execution engine, and its column metadata. Store implements
// schema.Provider, so the validator can load snapshots straight from it.
//
// The audit log keeps one row per pipeline request: the planned query and
// its fingerprint, the corrections and errors the validator reported, the
// gate decision, the final SQL and the execution outcome.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Column rows are removed with their dataset
//
// Timestamps are stored as RFC 3339 text in UTC. List queries order by
// created_at then id so results are stable.
package store
