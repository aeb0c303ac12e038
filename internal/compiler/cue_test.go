package compiler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/zerv/internal/zerv"
)

func TestCompileCUE(t *testing.T) {
	s, err := CompileCUE("release.cue", `
		core: [{var: "major"}, {var: "minor"}, {var: "patch"}]
		extra_core: [{var: "pre_release"}, {str: "nightly"}]
		build: [{var: "bumped_branch"}, {"int": 7}, {ts: "compact_date"}]
		precedence_order: ["major", "minor", "patch", "pre_release_label", "pre_release_num"]
	`)
	require.NoError(t, err)

	assert.Equal(t, []zerv.Component{zerv.F(zerv.VarMajor), zerv.F(zerv.VarMinor), zerv.F(zerv.VarPatch)}, s.Core())
	assert.Equal(t, []zerv.Component{zerv.F(zerv.VarPreRelease), zerv.Literal{Text: "nightly"}}, s.ExtraCore())
	assert.Equal(t, []zerv.Component{
		zerv.F(zerv.VarBumpedBranch), zerv.Integer{Value: 7}, zerv.Timestamp{Pattern: "compact_date"},
	}, s.Build())
	assert.Equal(t, 5, s.Precedence().Len())
}

func TestCompileCUEDefaults(t *testing.T) {
	s, err := CompileCUE("minimal.cue", `core: [{var: "major"}]`)
	require.NoError(t, err)

	assert.Len(t, s.Core(), 1)
	assert.Empty(t, s.ExtraCore())
	assert.Empty(t, s.Build())
	assert.True(t, s.Precedence().IsDefault())
}

func TestCompileCUEMatchesText(t *testing.T) {
	fromCUE, err := CompileCUE("calver.cue", `
		core: [{ts: "YYYY"}, {ts: "0M"}, {var: "patch"}]
		build: [{var: "custom.build.id"}]
	`)
	require.NoError(t, err)

	fromText, err := ParseSchema(`(core: [ts("YYYY"), ts("0M"), var("patch")], build: [var("custom.build.id")])`)
	require.NoError(t, err)

	assert.True(t, fromCUE.Equal(fromText))
}

func TestCompileCUEErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `core: [`},
		{"unknown key", `core: [{var: "major"}], layers: []`},
		{"two keys in one component", `core: [{var: "major", str: "x"}]`},
		{"unknown component key", `core: [{lit: "x"}]`},
		{"negative integer", `build: [{"int": -1}]`},
		{"unknown precedence", `core: [{var: "major"}], precedence_order: ["majr"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileCUE("bad.cue", tt.src)
			require.Error(t, err)
		})
	}
}

func TestCompileCUEUnknownField(t *testing.T) {
	_, err := CompileCUE("bad.cue", `core: [{var: "majr"}]`)
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "core[0].var", ce.Field)
}

func TestCompileCUERuleError(t *testing.T) {
	_, err := CompileCUE("bad.cue", `core: [{var: "patch"}, {var: "major"}]`)
	require.Error(t, err)
	assert.True(t, zerv.IsSchemaError(err))
}

func TestCompileSource(t *testing.T) {
	s, err := CompileSource("schema.cue", `core: [{var: "major"}]`)
	require.NoError(t, err)
	assert.Len(t, s.Core(), 1)

	s, err = CompileSource("schema.txt", `(core: [var("major"), var("minor")])`)
	require.NoError(t, err)
	assert.Len(t, s.Core(), 2)
}
