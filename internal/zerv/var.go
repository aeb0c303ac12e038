package zerv

import (
	"fmt"
	"strings"
)

// VarKind identifies an addressable field.
type VarKind int

const (
	KindMajor VarKind = iota
	KindMinor
	KindPatch
	KindEpoch
	KindPreRelease
	KindPost
	KindDev
	KindDistance
	KindDirty
	KindBumpedBranch
	KindBumpedCommitHash
	KindBumpedCommitHashShort
	KindBumpedTimestamp
	KindLastBranch
	KindLastCommitHash
	KindLastTimestamp
	KindCustom
)

// Category partitions vars by where they may be placed in a schema.
type Category int

const (
	// CategoryPrimary vars live only in core, once each, in order.
	CategoryPrimary Category = iota
	// CategorySecondary vars live only in extra_core, once each.
	CategorySecondary
	// CategoryContext vars may appear anywhere.
	CategoryContext
)

func (c Category) String() string {
	switch c {
	case CategoryPrimary:
		return "primary"
	case CategorySecondary:
		return "secondary"
	default:
		return "context"
	}
}

// Var names a field. Path is only set for custom fields and holds the
// dotted lookup path into Vars.Custom.
type Var struct {
	Kind VarKind
	Path string
}

var (
	VarMajor                 = Var{Kind: KindMajor}
	VarMinor                 = Var{Kind: KindMinor}
	VarPatch                 = Var{Kind: KindPatch}
	VarEpoch                 = Var{Kind: KindEpoch}
	VarPreRelease            = Var{Kind: KindPreRelease}
	VarPost                  = Var{Kind: KindPost}
	VarDev                   = Var{Kind: KindDev}
	VarDistance              = Var{Kind: KindDistance}
	VarDirty                 = Var{Kind: KindDirty}
	VarBumpedBranch          = Var{Kind: KindBumpedBranch}
	VarBumpedCommitHash      = Var{Kind: KindBumpedCommitHash}
	VarBumpedCommitHashShort = Var{Kind: KindBumpedCommitHashShort}
	VarBumpedTimestamp       = Var{Kind: KindBumpedTimestamp}
	VarLastBranch            = Var{Kind: KindLastBranch}
	VarLastCommitHash        = Var{Kind: KindLastCommitHash}
	VarLastTimestamp         = Var{Kind: KindLastTimestamp}
)

// CustomVar returns a var addressing a dotted path in the custom table.
func CustomVar(path string) Var {
	return Var{Kind: KindCustom, Path: path}
}

const customPrefix = "custom."

var varNames = map[VarKind]string{
	KindMajor:                 "major",
	KindMinor:                 "minor",
	KindPatch:                 "patch",
	KindEpoch:                 "epoch",
	KindPreRelease:            "pre_release",
	KindPost:                  "post",
	KindDev:                   "dev",
	KindDistance:              "distance",
	KindDirty:                 "dirty",
	KindBumpedBranch:          "bumped_branch",
	KindBumpedCommitHash:      "bumped_commit_hash",
	KindBumpedCommitHashShort: "bumped_commit_hash_short",
	KindBumpedTimestamp:       "bumped_timestamp",
	KindLastBranch:            "last_branch",
	KindLastCommitHash:        "last_commit_hash",
	KindLastTimestamp:         "last_timestamp",
}

// ParseVar parses a field name from the schema vocabulary.
func ParseVar(name string) (Var, error) {
	if path, ok := strings.CutPrefix(name, customPrefix); ok {
		if path == "" || strings.HasPrefix(path, ".") || strings.HasSuffix(path, ".") || strings.Contains(path, "..") {
			return Var{}, fmt.Errorf("invalid custom field path %q", name)
		}
		return CustomVar(path), nil
	}
	for kind, n := range varNames {
		if n == name {
			return Var{Kind: kind}, nil
		}
	}
	return Var{}, fmt.Errorf("unknown field %q", name)
}

// String returns the schema vocabulary name of the var.
func (v Var) String() string {
	if v.Kind == KindCustom {
		return customPrefix + v.Path
	}
	if n, ok := varNames[v.Kind]; ok {
		return n
	}
	return fmt.Sprintf("var(%d)", int(v.Kind))
}

// Category returns where the var may be placed.
func (v Var) Category() Category {
	switch v.Kind {
	case KindMajor, KindMinor, KindPatch:
		return CategoryPrimary
	case KindEpoch, KindPreRelease, KindPost, KindDev:
		return CategorySecondary
	default:
		return CategoryContext
	}
}

func (v Var) IsPrimary() bool   { return v.Category() == CategoryPrimary }
func (v Var) IsSecondary() bool { return v.Category() == CategorySecondary }
func (v Var) IsContext() bool   { return v.Category() == CategoryContext }

// primaryOrder is the required relative order of primary vars in core.
func (v Var) primaryOrder() int {
	switch v.Kind {
	case KindMajor:
		return 0
	case KindMinor:
		return 1
	case KindPatch:
		return 2
	}
	return -1
}
