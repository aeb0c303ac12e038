// Package ir is the serialized form of a Zerv: the document model read
// and written by the "zerv" input and output formats, its canonical JSON
// encoding, and content fingerprints.
//
// Key constraints:
//   - NO float types in canonical values; numbers are int64 or uint64
//   - null is forbidden in canonical JSON
//   - all JSON and YAML keys use snake_case
//   - canonical JSON follows RFC 8785 key ordering
package ir
