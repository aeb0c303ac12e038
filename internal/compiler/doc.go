// Package compiler turns schema sources into validated zerv schemas.
//
// ParseSchema reads the schema text format and FormatSchema prints it:
//
//	(
//	    core: [var("major"), var("minor"), var("patch")],
//	    extra_core: [var("pre_release")],
//	    build: [str("build"), int(1)],
//	    precedence_order: [major, minor, patch, pre_release_label, pre_release_num],
//	)
//
// CompileCUE reads the same structure written as a CUE document and checks
// it against an embedded #Schema definition.
//
// Syntax problems are reported as ValidationError (E001-E009) with line
// and column. Rule violations found once the schema is assembled are
// returned as *zerv.SchemaError unchanged.
package compiler
