// Package validator resolves and auto-corrects a query against a dataset's
// schema snapshot.
//
// Validation is a fold over a fixed list of passes. Each pass takes the
// current query and returns a rewritten copy plus the corrections it made:
//
//  1. normalize   casing, spacing and unit-suffix drift ("sepal width" -> sepal_width)
//  2. synonym     substring containment, then semantic synonym groups
//  3. aggregate   infer SUM(metric) or COUNT(*) for a grouped query with no aggregation
//  4. group-by    add non-numeric select columns to GROUP BY
//  5. order-by    bind ORDER BY on an aggregated column to the aggregate alias
//  6. limit       clamp the row limit
//
// Later passes read names produced by earlier ones, so the order is fixed.
// After the fold, hard checks report unresolved columns, aggregation type
// mismatches and operator/type mismatches as strings in
// ValidationResult.Errors. They never surface as Go errors; the only error
// Validate returns is a failure to load the schema.
package validator
