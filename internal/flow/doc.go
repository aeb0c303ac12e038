// Package flow derives branch-aware pre-release versions.
//
// A flow build reads the current version once, resolves the branch
// through an ordered list of BranchRules, and asks the pipeline for the
// bumps that turn the tag into a pre-release of the next version:
//
//	develop      1.2.3 -> 1.2.4-beta.1.post<distance>
//	release/2    1.2.3 -> 1.2.4-rc.2.post1.dev<timestamp>
//	feature/x    1.2.3 -> 1.2.4-alpha.<hash>.post<distance>
//
// A clean build on the tag gets no bumps at all.
package flow
