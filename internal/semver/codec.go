package semver

import (
	"strconv"
	"strings"

	bsemver "github.com/blang/semver/v4"

	"github.com/roach88/zerv/internal/zerv"
)

// FormatName is the name of this format in errors and flags.
const FormatName = "semver"

// DefaultSchema returns the schema used for schema-aware conversion.
func DefaultSchema() *zerv.Schema {
	return zerv.MustSchema(
		[]zerv.Component{zerv.F(zerv.VarMajor), zerv.F(zerv.VarMinor), zerv.F(zerv.VarPatch)},
		[]zerv.Component{zerv.F(zerv.VarEpoch), zerv.F(zerv.VarPreRelease), zerv.F(zerv.VarPost), zerv.F(zerv.VarDev)},
		nil,
		nil,
	)
}

// FromZerv encodes z. It accepts any valid schema and never fails.
//
// The first three numeric core values become major, minor, and patch;
// any further core value is appended to the build metadata. Secondary
// fields in extra_core become pre-release identifiers, labeled where
// SemVer has no slot of its own. Other extra_core values are appended to
// the pre-release too, since ToZerv decodes unknown pre-release
// identifiers into extra_core; build values always go to the build
// metadata.
func FromZerv(z *zerv.Zerv) *Version {
	v := &Version{}
	vars := z.Vars

	slots := []*uint64{&v.Major, &v.Minor, &v.Patch}
	filled := 0
	for _, c := range z.Schema.Core() {
		if filled < len(slots) {
			if val, ok := zerv.Resolve(c, vars, zerv.UIntSanitizer); ok {
				if n, err := strconv.ParseUint(val, 10, 64); err == nil {
					*slots[filled] = n
					filled++
					continue
				}
			}
		}
		appendBuild(v, c, vars)
	}

	for _, c := range z.Schema.ExtraCore() {
		f, ok := c.(zerv.Field)
		if !ok || !f.Var.IsSecondary() {
			if val, ok := zerv.Resolve(c, vars, zerv.SemVerSanitizer); ok {
				appendPre(v, strings.Split(val, ".")...)
			}
			continue
		}
		values := zerv.ResolveExpanded(f.Var, vars, zerv.SemVerSanitizer)
		if len(values) == 0 {
			continue
		}
		switch f.Var.Kind {
		case zerv.KindEpoch:
			appendPre(v, labelEpoch, values[0])
		case zerv.KindPost:
			appendPre(v, labelPost, values[0])
		case zerv.KindDev:
			appendPre(v, labelDev, values[0])
		default:
			appendPre(v, values...)
		}
	}

	for _, c := range z.Schema.Build() {
		appendBuild(v, c, vars)
	}
	return v
}

// FromZervWithSchema encodes z's values through schema s. Only the
// default schema is supported.
func FromZervWithSchema(z *zerv.Zerv, s *zerv.Schema) (*Version, error) {
	if err := checkSchema(s); err != nil {
		return nil, err
	}
	return FromZerv(zerv.New(s, z.Vars)), nil
}

// ToZerv decodes v. Core is always [major, minor, patch]. Pre-release
// identifiers are scanned left to right: "epoch N", "post N", "dev N",
// and a pre-release label with an optional number set their fields and
// add a field token to extra_core; anything else becomes a literal or
// integer token there. Build metadata becomes literal or integer tokens
// in build.
func ToZerv(v *Version) *zerv.Zerv {
	vars := zerv.Vars{
		Major: zerv.Ptr(v.Major),
		Minor: zerv.Ptr(v.Minor),
		Patch: zerv.Ptr(v.Patch),
	}
	extraCore := scanPreRelease(v.Pre, &vars)

	var build []zerv.Component
	for _, b := range v.Build {
		if n, err := strconv.ParseUint(b, 10, 64); err == nil {
			build = append(build, zerv.Integer{Value: n})
			continue
		}
		build = append(build, zerv.Literal{Text: b})
	}

	schema := zerv.MustSchema(DefaultSchema().Core(), extraCore, build, nil)
	return zerv.New(schema, vars)
}

// ToZervWithSchema decodes v into schema s. Only the default schema is
// supported.
func ToZervWithSchema(v *Version, s *zerv.Schema) (*zerv.Zerv, error) {
	if err := checkSchema(s); err != nil {
		return nil, err
	}
	return ToZerv(v), nil
}

func checkSchema(s *zerv.Schema) error {
	if !s.Equal(DefaultSchema()) {
		return &zerv.UnsupportedError{
			Format: FormatName,
			Reason: "custom schemas are not supported for SemVer conversion",
		}
	}
	return nil
}

func scanPreRelease(pre []bsemver.PRVersion, vars *zerv.Vars) []zerv.Component {
	var extraCore []zerv.Component
	claim := func(slot **uint64, v zerv.Var, n uint64) bool {
		if *slot != nil {
			return false
		}
		*slot = zerv.Ptr(n)
		extraCore = append(extraCore, zerv.F(v))
		return true
	}
	claimLabel := func(text string, n *uint64) bool {
		if vars.PreRelease != nil {
			return false
		}
		label, err := zerv.ParsePreReleaseLabel(text)
		if err != nil {
			return false
		}
		vars.PreRelease = &zerv.PreRelease{Label: label, Number: n}
		extraCore = append(extraCore, zerv.F(zerv.VarPreRelease))
		return true
	}

	for i := 0; i < len(pre); i++ {
		id := pre[i]
		if id.IsNum {
			extraCore = append(extraCore, zerv.Integer{Value: id.VersionNum})
			continue
		}
		if i+1 < len(pre) && pre[i+1].IsNum {
			n := pre[i+1].VersionNum
			var ok bool
			switch strings.ToLower(id.VersionStr) {
			case labelEpoch:
				ok = claim(&vars.Epoch, zerv.VarEpoch, n)
			case labelPost:
				ok = claim(&vars.Post, zerv.VarPost, n)
			case labelDev:
				ok = claim(&vars.Dev, zerv.VarDev, n)
			default:
				ok = claimLabel(id.VersionStr, zerv.Ptr(n))
			}
			if ok {
				i++
				continue
			}
		}
		if claimLabel(id.VersionStr, nil) {
			continue
		}
		extraCore = append(extraCore, zerv.Literal{Text: id.VersionStr})
	}
	return extraCore
}

func appendPre(v *Version, parts ...string) {
	for _, part := range parts {
		if part == "" {
			continue
		}
		if id, err := bsemver.NewPRVersion(part); err == nil {
			v.Pre = append(v.Pre, id)
		}
	}
}

func appendBuild(v *Version, c zerv.Component, vars zerv.Vars) {
	val, ok := zerv.Resolve(c, vars, zerv.SemVerSanitizer)
	if !ok {
		return
	}
	for _, part := range strings.Split(val, ".") {
		if part == "" {
			continue
		}
		if b, err := bsemver.NewBuildVersion(part); err == nil {
			v.Build = append(v.Build, b)
		}
	}
}
