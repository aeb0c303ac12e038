// Package presets provides the named schemas selectable with --schema.
//
// Two families exist. The standard family uses a
// major.minor.patch core; the calver family uses a YYYY.MM.DD.patch core.
// Each family has fixed variants that differ in their extra_core
// (base, prerelease, post, dev), optionally followed by a build context of
// branch, distance, and short commit hash.
//
// The bare family names ("standard", "calver") select a variant from the
// repository state carried in the Vars:
//
//	dirty                  -> base-prerelease-post-dev + context
//	distance > 0           -> base-prerelease-post + context
//	pre-release and post   -> base-prerelease-post
//	pre-release            -> base-prerelease
//	otherwise              -> base
//
// The "-no-context" and "-context" suffixes on a family name keep the smart
// selection but force the build section off or on.
package presets
