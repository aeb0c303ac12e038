package flow

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/roach88/zerv/internal/zerv"
)

// ErrInvalidRules marks branch rules or flow settings that cannot be used.
var ErrInvalidRules = errors.New("invalid branch rules")

// PostMode selects how post is bumped on a branch build.
type PostMode string

const (
	// PostModeTag bumps post by one, counting builds since the tag.
	PostModeTag PostMode = "tag"
	// PostModeCommit bumps post by the commit distance.
	PostModeCommit PostMode = "commit"
)

// ParsePostMode accepts "tag" or "commit", case-insensitively.
func ParsePostMode(s string) (PostMode, error) {
	switch PostMode(strings.ToLower(strings.TrimSpace(s))) {
	case PostModeTag:
		return PostModeTag, nil
	case PostModeCommit:
		return PostModeCommit, nil
	}
	return "", fmt.Errorf("%w: post mode %q must be one of %s, %s", ErrInvalidRules, s, PostModeTag, PostModeCommit)
}

// BranchRule maps branches matching Pattern to pre-release settings.
// A pattern ending in "/*" matches any branch under that prefix and takes
// its number from the branch name; any other pattern matches exactly and
// must carry an explicit number.
type BranchRule struct {
	Pattern         string   `yaml:"pattern" json:"pattern"`
	PreReleaseLabel string   `yaml:"pre_release_label" json:"pre_release_label"`
	PreReleaseNum   *uint64  `yaml:"pre_release_num,omitempty" json:"pre_release_num,omitempty"`
	PostMode        PostMode `yaml:"post_mode" json:"post_mode"`
}

// Resolved is what a branch resolves to before flag overrides.
type Resolved struct {
	Label zerv.PreReleaseLabel
	// Number is nil when the branch carries no number; the flow then
	// derives one from the branch name hash.
	Number   *uint64
	PostMode PostMode
}

func (r BranchRule) wildcardPrefix() (string, bool) {
	if !strings.HasSuffix(r.Pattern, "/*") {
		return "", false
	}
	return strings.TrimSuffix(r.Pattern, "*"), true
}

// Validate checks the label, post mode, and the number rule for the
// pattern kind.
func (r BranchRule) Validate() error {
	if strings.TrimSpace(r.Pattern) == "" {
		return fmt.Errorf("%w: rule has an empty pattern", ErrInvalidRules)
	}
	if _, err := zerv.ParsePreReleaseLabel(r.PreReleaseLabel); err != nil {
		return fmt.Errorf("%w: pattern %q: %v", ErrInvalidRules, r.Pattern, err)
	}
	if _, err := ParsePostMode(string(r.PostMode)); err != nil {
		return fmt.Errorf("pattern %q: %w", r.Pattern, err)
	}

	_, wildcard := r.wildcardPrefix()
	if wildcard && r.PreReleaseNum != nil {
		return fmt.Errorf("%w: wildcard pattern %q cannot set pre_release_num; the number comes from the branch name",
			ErrInvalidRules, r.Pattern)
	}
	if !wildcard && r.PreReleaseNum == nil {
		return fmt.Errorf("%w: exact pattern %q must set pre_release_num (or use %q)",
			ErrInvalidRules, r.Pattern, r.Pattern+"/*")
	}
	return nil
}

// Matches reports whether branch falls under the rule. A wildcard needs
// something after its prefix: "release/*" does not match "release/".
func (r BranchRule) Matches(branch string) bool {
	if prefix, ok := r.wildcardPrefix(); ok {
		return strings.HasPrefix(branch, prefix) && len(branch) > len(prefix)
	}
	return r.Pattern == branch
}

// ResolveForBranch resolves the rule for a branch it matches. Wildcard
// rules read the first run of digits after the prefix, so release/2 and
// release/v2-hotfix both give 2.
func (r BranchRule) ResolveForBranch(branch string) Resolved {
	label, _ := zerv.ParsePreReleaseLabel(r.PreReleaseLabel)
	mode, _ := ParsePostMode(string(r.PostMode))
	out := Resolved{Label: label, PostMode: mode}
	if r.PreReleaseNum != nil {
		out.Number = zerv.Ptr(*r.PreReleaseNum)
		return out
	}
	out.Number = r.branchNumber(branch)
	return out
}

func (r BranchRule) branchNumber(branch string) *uint64 {
	prefix, ok := r.wildcardPrefix()
	if !ok || !strings.HasPrefix(branch, prefix) {
		return nil
	}
	rest := strings.TrimLeftFunc(branch[len(prefix):], func(c rune) bool { return !unicode.IsDigit(c) })
	end := strings.IndexFunc(rest, func(c rune) bool { return !unicode.IsDigit(c) })
	if end >= 0 {
		rest = rest[:end]
	}
	if rest == "" {
		return nil
	}
	n, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// Rules is an ordered rule list; the first match wins.
type Rules []BranchRule

// DefaultRules are the GitFlow rules: develop builds are beta.1 counting
// commits, release/N builds are rc.N counting builds since the tag.
func DefaultRules() Rules {
	return Rules{
		{Pattern: "develop", PreReleaseLabel: "beta", PreReleaseNum: zerv.Ptr[uint64](1), PostMode: PostModeCommit},
		{Pattern: "release/*", PreReleaseLabel: "rc", PostMode: PostModeTag},
	}
}

// ParseRules decodes a YAML (or JSON) list of rules and validates each.
func ParseRules(text string) (Rules, error) {
	var rules Rules
	if err := yaml.Unmarshal([]byte(text), &rules); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return rules, nil
}

// Validate validates every rule.
func (rs Rules) Validate() error {
	for i, r := range rs {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return nil
}

// Find returns the first rule matching branch.
func (rs Rules) Find(branch string) (BranchRule, bool) {
	for _, r := range rs {
		if r.Matches(branch) {
			return r, true
		}
	}
	return BranchRule{}, false
}

// ResolveForBranch resolves branch through the first matching rule.
// Unmatched branches (feature branches, main, an unknown branch) build
// as alpha with a hashed number, counting commits.
func (rs Rules) ResolveForBranch(branch string) Resolved {
	if r, ok := rs.Find(branch); ok {
		return r.ResolveForBranch(branch)
	}
	return Resolved{Label: zerv.Alpha, PostMode: PostModeCommit}
}
