// Package dataset reads labelled SDR datasets and replays them through a
// fresh classifier.
//
// A dataset file holds patterns to learn, queries with the label they are
// expected to predict, and optionally positioned samples for the spatial
// voter. YAML, TOML and JSON are accepted, chosen by file extension:
//
//	name: digits
//	classifier:
//	  max_recorded_elements: 5
//	patterns:
//	  - {label: one, sdr: [1, 2, 3]}
//	queries:
//	  - {sdr: [1, 2, 4], expect: one}
//	objects:
//	  training:
//	    - {label: cat, sdr: [1, 2], frame: {tl_x: 0, tl_y: 0, br_x: 4, br_y: 4}}
//	  rounds:
//	    - expect: cat
//	      samples:
//	        - {sdr: [1, 2], frame: {tl_x: 10, tl_y: 10, br_x: 0, br_y: 0}}
//
// Evaluate and EvaluateAll give every dataset its own classifier, so
// datasets can be evaluated concurrently.
package dataset
