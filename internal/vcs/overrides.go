package vcs

import (
	"fmt"

	"github.com/roach88/zerv/internal/zerv"
)

// ContextOverrides are the CLI flags that replace parts of a snapshot.
type ContextOverrides struct {
	TagVersion *string
	Distance   *uint64
	Dirty      *bool
	Branch     *string
	CommitHash *string

	// BumpedTimestamp is unix seconds.
	BumpedTimestamp *int64

	// Clean forces distance 0 and a clean tree.
	Clean bool

	// NoBumpContext drops all repository context: no distance, no dirty
	// state, no branch, no commit hash.
	NoBumpContext bool
}

// ConflictError reports two context overrides that contradict each other.
type ConflictError struct {
	// Field is the override that loses to the other, e.g. distance or dirty.
	Field   string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// Validate rejects contradictory combinations with a *ConflictError.
func (o ContextOverrides) Validate() error {
	if o.Clean && o.Distance != nil {
		return &ConflictError{Field: "distance", Message: "cannot use --clean with --distance"}
	}
	if o.Clean && o.Dirty != nil {
		return &ConflictError{Field: "dirty", Message: "cannot use --clean with --dirty or --no-dirty"}
	}
	if o.NoBumpContext && o.Dirty != nil && *o.Dirty {
		return &ConflictError{Field: "dirty", Message: "cannot use --no-bump-context with --dirty"}
	}
	return nil
}

// ApplyContextOverrides returns data with the overrides applied. Clean is
// applied first so explicit values win over it. A tag override must parse
// as SemVer or PEP 440.
func ApplyContextOverrides(data Data, o ContextOverrides) (Data, error) {
	if err := o.Validate(); err != nil {
		return Data{}, err
	}

	out := data
	if o.Clean {
		out.Distance = 0
		out.Dirty = false
	}
	if o.TagVersion != nil {
		if _, _, err := ParseVersion(*o.TagVersion, FormatAuto); err != nil {
			return Data{}, fmt.Errorf("--tag-version: %w", err)
		}
		tag := *o.TagVersion
		out.TagVersion = &tag
	}
	if o.Distance != nil {
		out.Distance = *o.Distance
	}
	if o.Dirty != nil {
		out.Dirty = *o.Dirty
	}
	if o.Branch != nil {
		branch := *o.Branch
		out.Branch = &branch
	}
	if o.CommitHash != nil {
		out.CommitHash = *o.CommitHash
	}
	if o.BumpedTimestamp != nil {
		out.CommitTimestamp = *o.BumpedTimestamp
	}

	if o.NoBumpContext {
		out.Distance = 0
		out.Dirty = false
		out.Branch = nil
		out.CommitHash = ""
	}
	return out, nil
}

// ApplyToVars applies o directly to vars, for sources that carry no
// snapshot. A tag override replaces the version fields with the tag
// parsed in inputFormat and keeps the repository context.
func ApplyToVars(vars zerv.Vars, o ContextOverrides, inputFormat string) (zerv.Vars, error) {
	if err := o.Validate(); err != nil {
		return zerv.Vars{}, err
	}

	out := vars.Clone()
	if o.Clean {
		out.Distance = zerv.Ptr[uint64](0)
		out.Dirty = zerv.Ptr(false)
	}
	if o.TagVersion != nil {
		z, _, err := ParseVersion(*o.TagVersion, inputFormat)
		if err != nil {
			return zerv.Vars{}, fmt.Errorf("--tag-version: %w", err)
		}
		tag := z.Vars
		out.Major, out.Minor, out.Patch = tag.Major, tag.Minor, tag.Patch
		out.Epoch, out.PreRelease = tag.Epoch, tag.PreRelease
		out.Post, out.Dev = tag.Post, tag.Dev
	}
	if o.Distance != nil {
		out.Distance = zerv.Ptr(*o.Distance)
	}
	if o.Dirty != nil {
		out.Dirty = zerv.Ptr(*o.Dirty)
	}
	if o.Branch != nil {
		out.BumpedBranch = zerv.Ptr(*o.Branch)
	}
	if o.CommitHash != nil {
		out.BumpedCommitHash = zerv.Ptr(*o.CommitHash)
	}
	if o.BumpedTimestamp != nil {
		out.BumpedTimestamp = zerv.Ptr(*o.BumpedTimestamp)
	}

	if o.NoBumpContext {
		out.Distance = zerv.Ptr[uint64](0)
		out.Dirty = zerv.Ptr(false)
		out.BumpedBranch = nil
		out.BumpedCommitHash = nil
	}
	return out, nil
}
