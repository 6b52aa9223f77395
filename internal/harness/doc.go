// Package harness runs reconciliation scenarios against the coalescer.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	operation: coalesce        # clean | coalesce | combine
//	identity_field: urn        # optional, default "urn"
//	strategies:                # optional overrides, same shape as a strategy YAML file
//	  strategies:
//	    incidents: { kind: union_by_key, key: urn }
//	store:                     # optional records used to resolve sibling references
//	  - urn: urn:li:dataset:x
//	input:                     # a record, or a list of records for combine
//	  urn: urn:li:dataset:y
//	assertions:
//	  - type: equals
//	    path: description
//	    value: "warehouse table"
//	  - type: identities
//	    path: globalTags.tags
//	    key: tag.urn
//	    ids: [urn:li:tag:a, urn:li:tag:b]
//
// # Assertion Types
//
//   - equals: the value at path equals value
//   - absent: path does not resolve
//   - length: the array or object at path has count entries
//   - contains: the array at path contains value
//   - identities: the string at key (default: the identity field) of each
//     element of the array at path, in order
//   - input_unchanged: the operation did not modify its input
//
// Paths are dotted; a numeric segment indexes an array, so "0.entity.urn"
// reads the first combine row. An empty path is the whole output.
//
// # Golden Files
//
// RunWithGolden compares the canonical JSON of a scenario's output with
// testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
