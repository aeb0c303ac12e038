package pep440

import (
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/roach88/zerv/internal/zerv"
)

// FormatName is the name of this format in errors and flags.
const FormatName = "pep440"

// DefaultSchema returns the schema every PEP 440 version decodes into.
func DefaultSchema() *zerv.Schema {
	return zerv.MustSchema(
		[]zerv.Component{zerv.F(zerv.VarMajor), zerv.F(zerv.VarMinor), zerv.F(zerv.VarPatch)},
		[]zerv.Component{zerv.F(zerv.VarEpoch), zerv.F(zerv.VarPreRelease), zerv.F(zerv.VarPost), zerv.F(zerv.VarDev)},
		nil,
		nil,
	)
}

// FromZerv encodes z. It accepts any valid schema and never fails:
// numeric core values fill the release segment, secondary fields in
// extra_core fill their native slots, and everything else is appended
// to the local label.
func FromZerv(z *zerv.Zerv) *Version {
	v := &Version{}
	vars := z.Vars

	for _, c := range z.Schema.Core() {
		if val, ok := zerv.Resolve(c, vars, zerv.UIntSanitizer); ok {
			if n, err := strconv.ParseUint(val, 10, 64); err == nil {
				v.Release = append(v.Release, n)
				continue
			}
		}
		v.appendLocal(c, vars)
	}
	if len(v.Release) == 0 {
		v.Release = []uint64{0}
	}

	for _, c := range z.Schema.ExtraCore() {
		f, ok := c.(zerv.Field)
		if !ok || !f.Var.IsSecondary() {
			v.appendLocal(c, vars)
			continue
		}
		switch f.Var.Kind {
		case zerv.KindEpoch:
			if n, ok := resolveUint(c, vars); ok {
				v.Epoch = n
			}
		case zerv.KindPreRelease:
			v.setPreRelease(zerv.ResolveExpanded(f.Var, vars, zerv.PEP440LocalSanitizer))
		case zerv.KindPost:
			if n, ok := resolveUint(c, vars); ok {
				v.Post = &n
			}
		case zerv.KindDev:
			if n, ok := resolveUint(c, vars); ok {
				v.Dev = &n
			}
		}
	}

	for _, c := range z.Schema.Build() {
		v.appendLocal(c, vars)
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

// ToZerv decodes v into the default schema. Release segments beyond the
// third become Integer tokens in core; local segments become Literal or
// Integer tokens in build.
func ToZerv(v *Version) *zerv.Zerv {
	vars := zerv.Vars{}
	slots := []**uint64{&vars.Major, &vars.Minor, &vars.Patch}
	core := DefaultSchema().Core()
	for i, seg := range v.Release {
		if i < len(slots) {
			*slots[i] = zerv.Ptr(seg)
			continue
		}
		core = append(core, zerv.Integer{Value: seg})
	}
	if v.Epoch > 0 {
		vars.Epoch = zerv.Ptr(v.Epoch)
	}
	if v.Pre != nil {
		vars.PreRelease = &zerv.PreRelease{Label: v.Pre.Label, Number: zerv.Ptr(v.Pre.Number)}
	}
	vars.Post = clone(v.Post)
	vars.Dev = clone(v.Dev)

	var build []zerv.Component
	for _, seg := range v.Local {
		if seg.Type == intstr.Int {
			build = append(build, zerv.Integer{Value: uint64(seg.IntVal)})
			continue
		}
		build = append(build, zerv.Literal{Text: seg.StrVal})
	}

	schema := zerv.MustSchema(core, DefaultSchema().ExtraCore(), build, nil)
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
			Reason: "custom schemas are not supported for PEP 440 conversion",
		}
	}
	return nil
}

func clone(p *uint64) *uint64 {
	if p == nil {
		return nil
	}
	return zerv.Ptr(*p)
}

func resolveUint(c zerv.Component, vars zerv.Vars) (uint64, bool) {
	val, ok := zerv.Resolve(c, vars, zerv.UIntSanitizer)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(val, 10, 64)
	return n, err == nil
}

func (v *Version) setPreRelease(expanded []string) {
	if len(expanded) == 0 {
		return
	}
	label, err := zerv.ParsePreReleaseLabel(expanded[0])
	if err != nil {
		return
	}
	pre := &PreRelease{Label: label}
	if len(expanded) > 1 {
		if n, err := strconv.ParseUint(expanded[1], 10, 64); err == nil {
			pre.Number = n
		}
	}
	v.Pre = pre
}

// appendLocal resolves c for the local label and appends each
// dot-separated piece.
func (v *Version) appendLocal(c zerv.Component, vars zerv.Vars) {
	val, ok := zerv.Resolve(c, vars, zerv.PEP440LocalSanitizer)
	if !ok {
		return
	}
	for _, part := range strings.Split(val, ".") {
		if part != "" {
			v.Local = append(v.Local, localSegment(part))
		}
	}
}
