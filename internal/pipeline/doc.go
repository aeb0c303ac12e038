// Package pipeline runs one `zerv version` computation end to end.
//
// Run wraps engine.Apply with everything around it:
//  1. Load the source: a VCS snapshot, stdin (version text or a Zerv
//     document), or nothing at all (0.0.0 stamped with the Clock).
//  2. Apply context overrides (--tag-version, --clean, --distance, ...).
//  3. Resolve the schema: schema text, a preset, or the document's own.
//  4. Render override values that are templates against the pre-bump vars.
//  5. Apply overrides, bumps, and the reset cascade.
//  6. Render the output format or template, then optionally record it.
//
// The only clock read is the none source's timestamp, and it goes
// through Clock.
package pipeline
