// Package pep440 parses and renders PEP 440 version identifiers and
// converts them to and from the canonical zerv model.
//
// Rendering always produces the normalized form:
//
//	[N!]N(.N)*[{a|b|rc}N][.postN][.devN][+local]
//
// Parsing accepts the permissive spellings the PEP allows (a leading "v",
// "alpha"/"c"/"preview" labels, "-N" post releases, "-" and "_"
// separators) and normalizes them.
package pep440
