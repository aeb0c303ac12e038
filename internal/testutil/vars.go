package testutil

import (
	"github.com/roach88/zerv/internal/zerv"
)

// VarsBuilder assembles zerv.Vars fixtures.
//
//	vars := testutil.Version(1, 2, 3).PreRelease(zerv.Rc, 1).Branch("main").Vars()
type VarsBuilder struct {
	vars zerv.Vars
}

// Version starts a builder with major, minor, and patch set.
func Version(major, minor, patch uint64) *VarsBuilder {
	return &VarsBuilder{vars: zerv.Vars{
		Major: zerv.Ptr(major),
		Minor: zerv.Ptr(minor),
		Patch: zerv.Ptr(patch),
	}}
}

// Epoch sets the epoch.
func (b *VarsBuilder) Epoch(n uint64) *VarsBuilder {
	b.vars.Epoch = zerv.Ptr(n)
	return b
}

// PreRelease sets the pre-release label and number.
func (b *VarsBuilder) PreRelease(label zerv.PreReleaseLabel, n uint64) *VarsBuilder {
	b.vars.PreRelease = &zerv.PreRelease{Label: label, Number: zerv.Ptr(n)}
	return b
}

// Post sets the post-release number.
func (b *VarsBuilder) Post(n uint64) *VarsBuilder {
	b.vars.Post = zerv.Ptr(n)
	return b
}

// Dev sets the dev-release number.
func (b *VarsBuilder) Dev(n uint64) *VarsBuilder {
	b.vars.Dev = zerv.Ptr(n)
	return b
}

// Distance sets the commit distance.
func (b *VarsBuilder) Distance(n uint64) *VarsBuilder {
	b.vars.Distance = zerv.Ptr(n)
	return b
}

// Dirty sets the dirty flag.
func (b *VarsBuilder) Dirty(dirty bool) *VarsBuilder {
	b.vars.Dirty = zerv.Ptr(dirty)
	return b
}

// Branch sets the bumped branch.
func (b *VarsBuilder) Branch(name string) *VarsBuilder {
	b.vars.BumpedBranch = zerv.Ptr(name)
	return b
}

// Commit sets the bumped commit hash.
func (b *VarsBuilder) Commit(hash string) *VarsBuilder {
	b.vars.BumpedCommitHash = zerv.Ptr(hash)
	return b
}

// Timestamp sets the bumped timestamp in Unix seconds.
func (b *VarsBuilder) Timestamp(sec int64) *VarsBuilder {
	b.vars.BumpedTimestamp = zerv.Ptr(sec)
	return b
}

// Custom sets the custom variables from a JSON object. It panics on
// malformed JSON.
func (b *VarsBuilder) Custom(data string) *VarsBuilder {
	if err := b.vars.SetCustomJSON(data); err != nil {
		panic(err)
	}
	return b
}

// Vars returns a copy of the built values.
func (b *VarsBuilder) Vars() zerv.Vars {
	return b.vars.Clone()
}

// Zerv pairs the built values with schema.
func (b *VarsBuilder) Zerv(schema *zerv.Schema) *zerv.Zerv {
	return zerv.New(schema.Clone(), b.Vars())
}

// StandardSchema returns the [Major, Minor, Patch] core with the
// pre-release, post, and dev extra core and no build.
func StandardSchema() *zerv.Schema {
	return zerv.MustSchema(
		[]zerv.Component{zerv.F(zerv.VarMajor), zerv.F(zerv.VarMinor), zerv.F(zerv.VarPatch)},
		[]zerv.Component{zerv.F(zerv.VarEpoch), zerv.F(zerv.VarPreRelease), zerv.F(zerv.VarPost), zerv.F(zerv.VarDev)},
		nil,
		nil,
	)
}
