// Package store keeps a SQLite history of rendered versions.
//
// Every successful `zerv version --record <db>` appends one row holding
// the rendered output, the output format, and the final Zerv document in
// canonical JSON together with its fingerprint.
//
// # Ordering
//
// Rows are ordered by seq, an autoincrement column assigned on insert.
// Timestamps are informational and never used for ordering.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON
//
// Schema changes are tracked with PRAGMA user_version.
package store
