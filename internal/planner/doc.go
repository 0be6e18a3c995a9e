// Package planner turns a structured intent into a Query.
//
// An Intent is what an upstream text-understanding service returns for a
// question such as "top 5 genres by global sales": dimensions, measures,
// filters and ranking hints, plus the user's original wording. The planner
// is deterministic and data-agnostic; it does not look at the schema.
// Column names in the resulting Query may still be misspelled or loosely
// named. Resolving them is the validator's job.
package planner
