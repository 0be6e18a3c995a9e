// Package harness runs end-to-end scenarios through the query pipeline.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	schema:
//	  id: sales
//	  columns:
//	    - { name: Year, semantic_type: numeric }
//	    - { name: Genre, semantic_type: categorical }
//	data: |            # optional inline CSV; runs against SQLite
//	  Year,Genre
//	  2010,Action
//	query:
//	  group_by: [Genre]
//	expect:
//	  valid: true
//	  corrections: 1
//	  action: EXECUTE_WITH_WARNING
//	  confidence_min: 0.75
//	  sql_contains: ["GROUP BY \"Genre\""]
//
// Without data the pipeline compiles allowed queries but does not execute
// them. With data the CSV is imported into an in-memory SQLite engine, the
// schema columns come from the import, and the query runs.
//
// # Deterministic Testing
//
// Every scenario gets a fresh in-memory catalog, sequential request ids
// (req-0001, ...) and testutil.DeterministicClock, so traces are stable
// enough for golden comparison:
//
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
