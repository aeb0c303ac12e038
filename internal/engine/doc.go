// Package engine transforms versions.
//
// Apply is the pure core: it takes a Zerv and a set of Operations
// (overrides, bumps, and schema-position specs) and returns a new Zerv.
// Directives are validated before anything changes, and the input Zerv is
// never modified.
//
// DETERMINISM:
//
// Apply walks the precedence order front to back. For the same input it
// produces the same output. The package reads no clock and does no I/O.
package engine
