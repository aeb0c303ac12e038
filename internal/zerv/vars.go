package zerv

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PreReleaseLabel is the kind of a pre-release.
type PreReleaseLabel int

const (
	Alpha PreReleaseLabel = iota
	Beta
	Rc
)

// ParsePreReleaseLabel accepts the flexible spellings used by both grammars:
// alpha|a, beta|b, rc|c|preview|pre. Matching is case-insensitive.
func ParsePreReleaseLabel(s string) (PreReleaseLabel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "alpha", "a":
		return Alpha, nil
	case "beta", "b":
		return Beta, nil
	case "rc", "c", "preview", "pre":
		return Rc, nil
	}
	return 0, fmt.Errorf("invalid pre-release label %q: must be one of alpha, beta, rc", s)
}

// String returns the long form used by SemVer and in documents.
func (l PreReleaseLabel) String() string {
	switch l {
	case Alpha:
		return "alpha"
	case Beta:
		return "beta"
	default:
		return "rc"
	}
}

// PEP440 returns the normalized PEP 440 spelling.
func (l PreReleaseLabel) PEP440() string {
	switch l {
	case Alpha:
		return "a"
	case Beta:
		return "b"
	default:
		return "rc"
	}
}

// PreRelease is a label with an optional number.
type PreRelease struct {
	Label  PreReleaseLabel
	Number *uint64
}

// Vars is the value table of a Zerv. Every slot is optional.
// Timestamps are unix seconds.
type Vars struct {
	Major      *uint64
	Minor      *uint64
	Patch      *uint64
	Epoch      *uint64
	PreRelease *PreRelease
	Post       *uint64
	Dev        *uint64

	Distance         *uint64
	Dirty            *bool
	BumpedBranch     *string
	BumpedCommitHash *string
	BumpedTimestamp  *int64
	LastBranch       *string
	LastCommitHash   *string
	LastTimestamp    *int64

	// Custom holds user-supplied JSON, addressed by dotted paths.
	Custom map[string]any
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Clone returns a deep copy.
func (v Vars) Clone() Vars {
	out := Vars{
		Major:            clonePtr(v.Major),
		Minor:            clonePtr(v.Minor),
		Patch:            clonePtr(v.Patch),
		Epoch:            clonePtr(v.Epoch),
		Post:             clonePtr(v.Post),
		Dev:              clonePtr(v.Dev),
		Distance:         clonePtr(v.Distance),
		Dirty:            clonePtr(v.Dirty),
		BumpedBranch:     clonePtr(v.BumpedBranch),
		BumpedCommitHash: clonePtr(v.BumpedCommitHash),
		BumpedTimestamp:  clonePtr(v.BumpedTimestamp),
		LastBranch:       clonePtr(v.LastBranch),
		LastCommitHash:   clonePtr(v.LastCommitHash),
		LastTimestamp:    clonePtr(v.LastTimestamp),
		Custom:           cloneJSON(v.Custom),
	}
	if v.PreRelease != nil {
		out.PreRelease = &PreRelease{Label: v.PreRelease.Label, Number: clonePtr(v.PreRelease.Number)}
	}
	return out
}

func cloneJSON(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneJSONValue(v)
	}
	return out
}

func cloneJSONValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneJSON(val)
	case []any:
		arr := make([]any, len(val))
		for i, e := range val {
			arr[i] = cloneJSONValue(e)
		}
		return arr
	default:
		return val
	}
}

// SetCustomJSON replaces the custom table with a decoded JSON object.
func (v *Vars) SetCustomJSON(data string) error {
	var custom map[string]any
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&custom); err != nil {
		return fmt.Errorf("custom must be a JSON object: %w", err)
	}
	v.Custom = custom
	return nil
}

// CustomValue looks up a dotted path in the custom table. Only string,
// number, and bool leaves resolve.
func (v Vars) CustomValue(path string) (string, bool) {
	var cur any = v.Custom
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		cur, ok = m[key]
		if !ok {
			return "", false
		}
	}
	switch val := cur.(type) {
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case uint64:
		return strconv.FormatUint(val, 10), true
	}
	return "", false
}

// shortHashLen is the length of BumpedCommitHashShort.
const shortHashLen = 7

// Value returns the raw text of a var, or false when it is unset.
// PreRelease yields its long label; use ResolveExpanded for the number.
func (v Vars) Value(f Var) (string, bool) {
	u := func(p *uint64) (string, bool) {
		if p == nil {
			return "", false
		}
		return strconv.FormatUint(*p, 10), true
	}
	s := func(p *string) (string, bool) {
		if p == nil {
			return "", false
		}
		return *p, true
	}
	i := func(p *int64) (string, bool) {
		if p == nil {
			return "", false
		}
		return strconv.FormatInt(*p, 10), true
	}

	switch f.Kind {
	case KindMajor:
		return u(v.Major)
	case KindMinor:
		return u(v.Minor)
	case KindPatch:
		return u(v.Patch)
	case KindEpoch:
		return u(v.Epoch)
	case KindPreRelease:
		if v.PreRelease == nil {
			return "", false
		}
		return v.PreRelease.Label.String(), true
	case KindPost:
		return u(v.Post)
	case KindDev:
		return u(v.Dev)
	case KindDistance:
		return u(v.Distance)
	case KindDirty:
		if v.Dirty == nil {
			return "", false
		}
		return strconv.FormatBool(*v.Dirty), true
	case KindBumpedBranch:
		return s(v.BumpedBranch)
	case KindBumpedCommitHash:
		return s(v.BumpedCommitHash)
	case KindBumpedCommitHashShort:
		if v.BumpedCommitHash == nil {
			return "", false
		}
		h := *v.BumpedCommitHash
		if len(h) > shortHashLen {
			h = h[:shortHashLen]
		}
		return h, true
	case KindBumpedTimestamp:
		return i(v.BumpedTimestamp)
	case KindLastBranch:
		return s(v.LastBranch)
	case KindLastCommitHash:
		return s(v.LastCommitHash)
	case KindLastTimestamp:
		return i(v.LastTimestamp)
	case KindCustom:
		return v.CustomValue(f.Path)
	}
	return "", false
}

// Timestamp returns the timestamp used by Timestamp tokens:
// BumpedTimestamp, falling back to LastTimestamp.
func (v Vars) Timestamp() (int64, bool) {
	if v.BumpedTimestamp != nil {
		return *v.BumpedTimestamp, true
	}
	if v.LastTimestamp != nil {
		return *v.LastTimestamp, true
	}
	return 0, false
}
