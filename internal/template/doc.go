// Package template renders display strings from a final Zerv.
//
// Templates use text/template syntax over a map context whose keys match
// the schema field vocabulary:
//
//	v{{.major}}.{{.minor}}.{{.patch}}-{{.bumped_branch}}
//	{{.semver}}+{{hash .bumped_branch 4}}
//	{{add .major 1}}.0.0
//
// Absent fields render as the empty string, so {{if .post}} tests for
// presence. The pre_release key is always a map with label and number
// entries. Helper functions are add, sanitize, hash, hash_int, prefix,
// and format_timestamp.
package template
