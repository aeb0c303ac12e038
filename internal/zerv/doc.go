// Package zerv provides the canonical version model.
//
// A Zerv pairs a Schema (three ordered token lists plus a precedence order)
// with a Vars table holding the field values. Every external format (PEP 440,
// SemVer, display templates) converts to and from this model.
//
// This package performs no I/O and holds no global state. Other internal
// packages import zerv; zerv imports nothing internal.
//
// Key constraints:
//   - Schema fields are private and every mutation re-validates the schema
//   - Primary fields (major, minor, patch) live only in core, in order
//   - Secondary fields (epoch, pre_release, post, dev) live only in extra_core
//   - Context fields may appear anywhere, any number of times
//   - Timestamps are always rendered in UTC
package zerv
