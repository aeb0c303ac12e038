// Package semver converts between Semantic Versioning 2.0.0 strings and
// the canonical zerv model.
//
// Parsing, validation, and rendering use github.com/blang/semver/v4.
// SemVer has no native epoch, post, or dev release, so those values are
// carried as labeled pre-release identifiers ("epoch.2", "post.1",
// "dev.3") and recognized again on decoding.
package semver
