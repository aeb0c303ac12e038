package template

import (
	"github.com/roach88/zerv/internal/pep440"
	"github.com/roach88/zerv/internal/semver"
	"github.com/roach88/zerv/internal/zerv"
)

// Context is the read-only data a template is rendered against.
type Context map[string]any

// NewContext builds the context for z. The pep440 and semver keys hold
// the rendered versions of z in the default codecs.
func NewContext(z *zerv.Zerv) Context {
	ctx := NewVarsContext(z.Vars)
	ctx["pep440"] = pep440.FromZerv(z).String()
	ctx["semver"] = semver.FromZerv(z).String()
	return ctx
}

// NewVarsContext builds a context from vars alone, without renderings.
func NewVarsContext(vars zerv.Vars) Context {
	ctx := Context{}
	for _, f := range []zerv.Var{
		zerv.VarMajor, zerv.VarMinor, zerv.VarPatch, zerv.VarEpoch,
		zerv.VarPost, zerv.VarDev, zerv.VarDistance,
	} {
		ctx[f.String()] = uintValue(vars, f)
	}
	for _, f := range []zerv.Var{
		zerv.VarBumpedBranch, zerv.VarBumpedCommitHash, zerv.VarBumpedCommitHashShort,
		zerv.VarLastBranch, zerv.VarLastCommitHash,
	} {
		v, _ := vars.Value(f)
		ctx[f.String()] = v
	}
	ctx[zerv.VarDirty.String()] = optional(vars.Dirty)
	ctx[zerv.VarBumpedTimestamp.String()] = optional(vars.BumpedTimestamp)
	ctx[zerv.VarLastTimestamp.String()] = optional(vars.LastTimestamp)

	last := ""
	if vars.LastCommitHash != nil {
		last = *vars.LastCommitHash
		if len(last) > 7 {
			last = last[:7]
		}
	}
	ctx["last_commit_hash_short"] = last

	pre := map[string]any{"label": "", "number": ""}
	if vars.PreRelease != nil {
		pre["label"] = vars.PreRelease.Label.String()
		pre["number"] = optional(vars.PreRelease.Number)
	}
	ctx[zerv.VarPreRelease.String()] = pre

	custom := vars.Clone().Custom
	if custom == nil {
		custom = map[string]any{}
	}
	ctx["custom"] = custom
	return ctx
}

func uintValue(vars zerv.Vars, f zerv.Var) any {
	var p *uint64
	switch f.Kind {
	case zerv.KindMajor:
		p = vars.Major
	case zerv.KindMinor:
		p = vars.Minor
	case zerv.KindPatch:
		p = vars.Patch
	case zerv.KindEpoch:
		p = vars.Epoch
	case zerv.KindPost:
		p = vars.Post
	case zerv.KindDev:
		p = vars.Dev
	case zerv.KindDistance:
		p = vars.Distance
	}
	return optional(p)
}

func optional[T any](p *T) any {
	if p == nil {
		return ""
	}
	return *p
}
