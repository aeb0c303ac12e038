package presets

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/zerv/internal/zerv"
)

// Family names.
const (
	Standard = "standard"
	CalVer   = "calver"
)

// Variant is the extra_core shape of a fixed preset.
type Variant int

const (
	Base Variant = iota
	BasePreRelease
	BasePreReleasePost
	BasePreReleasePostDev
)

var variantSuffixes = map[Variant]string{
	Base:                  "base",
	BasePreRelease:        "base-prerelease",
	BasePreReleasePost:    "base-prerelease-post",
	BasePreReleasePostDev: "base-prerelease-post-dev",
}

func (v Variant) String() string {
	return variantSuffixes[v]
}

// contextMode says how the build context is chosen for a smart preset.
type contextMode int

const (
	contextSmart contextMode = iota
	contextOff
	contextOn
)

// preset is one registry entry. Fixed presets have smart == false.
type preset struct {
	family  string
	variant Variant
	context bool
	smart   bool
	mode    contextMode
}

var registry = buildRegistry()

func buildRegistry() map[string]preset {
	r := map[string]preset{}
	for _, family := range []string{Standard, CalVer} {
		r[family] = preset{family: family, smart: true, mode: contextSmart}
		r[family+"-no-context"] = preset{family: family, smart: true, mode: contextOff}
		r[family+"-context"] = preset{family: family, smart: true, mode: contextOn}
		for v, suffix := range variantSuffixes {
			name := family + "-" + suffix
			r[name] = preset{family: family, variant: v}
			r[name+"-context"] = preset{family: family, variant: v, context: true}
		}
	}
	return r
}

// Names returns every preset name, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsPreset reports whether name is a known preset.
func IsPreset(name string) bool {
	_, ok := registry[strings.TrimSpace(name)]
	return ok
}

// Resolve returns the schema for a preset name. Smart presets inspect vars
// to pick a variant; fixed presets ignore them.
func Resolve(name string, vars zerv.Vars) (*zerv.Schema, error) {
	p, ok := registry[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("unknown schema preset %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	if !p.smart {
		return Build(p.family, p.variant, p.context), nil
	}

	variant := Select(vars)
	withContext := false
	switch p.mode {
	case contextSmart:
		withContext = isDirty(vars) || distance(vars) > 0
	case contextOn:
		withContext = true
	}
	return Build(p.family, variant, withContext), nil
}

// Select picks the variant a smart preset uses for vars.
func Select(vars zerv.Vars) Variant {
	switch {
	case isDirty(vars):
		return BasePreReleasePostDev
	case distance(vars) > 0 || (vars.PreRelease != nil && vars.Post != nil):
		return BasePreReleasePost
	case vars.PreRelease != nil:
		return BasePreRelease
	default:
		return Base
	}
}

func isDirty(vars zerv.Vars) bool {
	return vars.Dirty != nil && *vars.Dirty
}

func distance(vars zerv.Vars) uint64 {
	if vars.Distance == nil {
		return 0
	}
	return *vars.Distance
}

// Build assembles a fixed preset schema. Unknown families fall back to
// the standard core.
func Build(family string, variant Variant, withContext bool) *zerv.Schema {
	var build []zerv.Component
	if withContext {
		build = BuildContext()
	}
	return zerv.MustSchema(core(family), extraCore(variant), build, nil)
}

func core(family string) []zerv.Component {
	if family == CalVer {
		return []zerv.Component{
			zerv.Timestamp{Pattern: "YYYY"},
			zerv.Timestamp{Pattern: "MM"},
			zerv.Timestamp{Pattern: "DD"},
			zerv.F(zerv.VarPatch),
		}
	}
	return []zerv.Component{zerv.F(zerv.VarMajor), zerv.F(zerv.VarMinor), zerv.F(zerv.VarPatch)}
}

func extraCore(v Variant) []zerv.Component {
	comps := []zerv.Component{zerv.F(zerv.VarEpoch)}
	if v >= BasePreRelease {
		comps = append(comps, zerv.F(zerv.VarPreRelease))
	}
	if v >= BasePreReleasePost {
		comps = append(comps, zerv.F(zerv.VarPost))
	}
	if v >= BasePreReleasePostDev {
		comps = append(comps, zerv.F(zerv.VarDev))
	}
	return comps
}

// BuildContext is the build section added by context presets.
func BuildContext() []zerv.Component {
	return []zerv.Component{
		zerv.F(zerv.VarBumpedBranch),
		zerv.F(zerv.VarDistance),
		zerv.F(zerv.VarBumpedCommitHashShort),
	}
}
