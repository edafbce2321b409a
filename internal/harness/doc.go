// Package harness runs generation scenarios.
//
// A scenario is a YAML file naming a schema, the sampling options and a
// fixed "now", plus assertions over the generated records:
//
//	name: people_born_in_may
//	description: every person is born in May 2021
//	schema: schemas/people.cue
//	seed: 7
//	size: 5
//	assertions:
//	  - type: record_count
//	    collection: people
//	    count: 5
//	  - type: text_range
//	    collection: people
//	    path: born
//	    min: "2021-05-01"
//	    max: "2021-05-31"
//	  - type: deterministic
//
// Every run is written to a fresh in-memory store; the deterministic
// assertion replays it from the stored schema JSON and compares hashes,
// the same check `synth replay` performs on a file-backed store.
package harness
