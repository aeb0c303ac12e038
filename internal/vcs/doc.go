// Package vcs maps version-control state into zerv Vars.
//
// Repository acquisition is out of scope: callers supply a Data snapshot
// (usually decoded from JSON produced by a git wrapper) and this package
// parses its tag, applies CLI context overrides, and fills the context
// fields of the value table.
package vcs
