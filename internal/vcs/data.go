package vcs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/zerv/internal/zerv"
)

// ErrNoTagsFound is returned when the snapshot carries no version tag.
var ErrNoTagsFound = errors.New("no version tags found in repository")

// Data is a snapshot of repository state.
type Data struct {
	// TagVersion is the latest version tag, for example "v1.2.3".
	TagVersion *string `json:"tag_version,omitempty"`

	// Distance is the number of commits from the tag to HEAD.
	Distance uint64  `json:"distance"`
	Dirty    bool    `json:"dirty"`
	Branch   *string `json:"branch,omitempty"`

	// CommitHash is the full HEAD hash; CommitHashPrefix is prepended to
	// it and to TagCommitHash ("g" in git describe style).
	CommitHash       string `json:"commit_hash"`
	CommitHashPrefix string `json:"commit_hash_prefix,omitempty"`

	// Timestamps are unix seconds.
	CommitTimestamp int64   `json:"commit_timestamp"`
	TagTimestamp    *int64  `json:"tag_timestamp,omitempty"`
	TagCommitHash   *string `json:"tag_commit_hash,omitempty"`
}

// DecodeData reads a JSON snapshot. Unknown keys are rejected.
func DecodeData(r io.Reader) (Data, error) {
	var d Data
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return Data{}, fmt.Errorf("decode vcs data: %w", err)
	}
	return d, nil
}

// ToVars parses the tag with inputFormat and layers the repository context
// on top of the parsed version fields.
func ToVars(data Data, inputFormat string) (zerv.Vars, error) {
	if data.TagVersion == nil {
		return zerv.Vars{}, ErrNoTagsFound
	}
	z, _, err := ParseVersion(*data.TagVersion, inputFormat)
	if err != nil {
		return zerv.Vars{}, fmt.Errorf("parse tag %q: %w", *data.TagVersion, err)
	}

	vars := z.Vars.Clone()
	vars.Distance = zerv.Ptr(data.Distance)
	vars.Dirty = zerv.Ptr(data.Dirty)
	if data.Branch != nil {
		vars.BumpedBranch = zerv.Ptr(*data.Branch)
	}
	if data.CommitHash != "" {
		vars.BumpedCommitHash = zerv.Ptr(data.CommitHashPrefix + data.CommitHash)
	}
	if data.TagCommitHash != nil {
		vars.LastCommitHash = zerv.Ptr(data.CommitHashPrefix + *data.TagCommitHash)
	}
	vars.BumpedTimestamp = zerv.Ptr(data.CommitTimestamp)
	if data.TagTimestamp != nil {
		vars.LastTimestamp = zerv.Ptr(*data.TagTimestamp)
	}
	return vars, nil
}
