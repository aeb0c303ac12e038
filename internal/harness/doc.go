// Package harness runs version scenarios as executable contract tests.
//
// A scenario describes one pipeline invocation: where the version comes
// from, which schema shapes it, which overrides and bumps apply, and what
// the rendered output must be.
//
// # Scenario Format
//
//	name: bump_minor
//	description: "Bumping minor resets patch"
//	input: "1.2.3"
//	bumps:
//	  minor: ""
//	expect:
//	  semver: "1.3.0"
//	  pep440: "1.3.0"
//	assertions:
//	  - type: var_equals
//	    field: patch
//	    value: "0"
//
// The source defaults to vcs when a vcs block is present, stdin when
// input is set, and none otherwise.
//
// # Assertion Types
//
//   - var_equals: a var renders to value, or is unset when absent is true
//   - section_contains: a schema section carries a var component
//   - section_length: a schema section has exactly count components
//
// # Deterministic Testing
//
// Every run uses a fixed clock (the scenario's clock, or
// testutil.DefaultUnix) so timestamps, outputs, and golden snapshots are
// reproducible.
package harness
