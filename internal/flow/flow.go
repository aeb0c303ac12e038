package flow

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/roach88/zerv/internal/logger"
	"github.com/roach88/zerv/internal/pipeline"
	"github.com/roach88/zerv/internal/presets"
	"github.com/roach88/zerv/internal/zerv"
)

// DefaultHashBranchLen is the digit count of a hashed pre-release number.
const DefaultHashBranchLen = 5

// Options are the flow settings. Label, Number, and PostMode replace what
// the branch rules resolve to when set.
type Options struct {
	Label         *zerv.PreReleaseLabel
	Number        *uint64
	PostMode      PostMode
	HashBranchLen int
	Rules         Rules
}

// DefaultOptions uses the GitFlow rules with nothing forced.
func DefaultOptions() Options {
	return Options{HashBranchLen: DefaultHashBranchLen, Rules: DefaultRules()}
}

// Validate checks the hash length, post mode, and rules.
func (o Options) Validate() error {
	if o.HashBranchLen < 1 || o.HashBranchLen > 10 {
		return fmt.Errorf("%w: hash-branch-len must be between 1 and 10, got %d", ErrInvalidRules, o.HashBranchLen)
	}
	if o.PostMode != "" {
		if _, err := ParsePostMode(string(o.PostMode)); err != nil {
			return err
		}
	}
	return o.Rules.Validate()
}

// Plan is the set of bumps a flow build applies on top of the current
// version.
type Plan struct {
	Branch   string
	Resolved Resolved
	// Bumps is empty on a clean tagged build: the tag is the version.
	Bumps map[zerv.Precedence]string
	// MarkDirty forces the dirty flag so tag-mode builds pick the dirty
	// schema variant and carry a dev stamp.
	MarkDirty bool
}

// Plan resolves the branch in vars and derives the bumps. dirtyGiven is
// true when the caller set the dirty state explicitly.
//
// A build off the tag (dirty or at a distance) bumps patch when the tag
// is final, moves to the resolved pre-release label and number, bumps
// post by the distance (commit mode) or by one (tag mode), and stamps dev
// with the commit timestamp when dirty.
func (o Options) Plan(vars zerv.Vars, dirtyGiven bool) Plan {
	branch := ""
	if vars.BumpedBranch != nil {
		branch = *vars.BumpedBranch
	}
	resolved := o.Rules.ResolveForBranch(branch)
	if o.Label != nil {
		resolved.Label = *o.Label
	}
	if o.Number != nil {
		resolved.Number = zerv.Ptr(*o.Number)
	}
	if o.PostMode != "" {
		resolved.PostMode, _ = ParsePostMode(string(o.PostMode))
	}

	plan := Plan{Branch: branch, Resolved: resolved, Bumps: map[zerv.Precedence]string{}}

	dirty := vars.Dirty != nil && *vars.Dirty
	var distance uint64
	if vars.Distance != nil {
		distance = *vars.Distance
	}
	if !dirty && distance == 0 {
		return plan
	}

	if !dirtyGiven && resolved.PostMode == PostModeTag {
		plan.MarkDirty = true
		dirty = true
	}

	if vars.PreRelease == nil {
		plan.Bumps[zerv.PrecedencePatch] = "1"
	}
	plan.Bumps[zerv.PrecedencePreReleaseLabel] = resolved.Label.String()
	if resolved.Number != nil {
		plan.Bumps[zerv.PrecedencePreReleaseNum] = strconv.FormatUint(*resolved.Number, 10)
	} else {
		plan.Bumps[zerv.PrecedencePreReleaseNum] = fmt.Sprintf("{{hash_int .bumped_branch %d}}", o.HashBranchLen)
	}
	switch resolved.PostMode {
	case PostModeTag:
		plan.Bumps[zerv.PrecedencePost] = "1"
	default:
		plan.Bumps[zerv.PrecedencePost] = strconv.FormatUint(distance, 10)
	}
	if dirty && vars.BumpedTimestamp != nil && *vars.BumpedTimestamp >= 0 {
		plan.Bumps[zerv.PrecedenceDev] = strconv.FormatInt(*vars.BumpedTimestamp, 10)
	}
	return plan
}

// Run computes the flow version for req in two passes: the first reads
// the current vars, the second applies the plan. Overrides, bumps, and
// section specs already on req are replaced by the plan.
func Run(ctx context.Context, p *pipeline.Pipeline, req pipeline.Request, opts Options) (*pipeline.Result, Plan, error) {
	if err := opts.Validate(); err != nil {
		return nil, Plan{}, err
	}
	if err := checkSchema(req); err != nil {
		return nil, Plan{}, err
	}
	ctx = logger.WithName(ctx, "flow")

	// Both passes read the source, so stdin is buffered once.
	var input []byte
	if req.Stdin != nil {
		var err error
		if input, err = io.ReadAll(req.Stdin); err != nil {
			return nil, Plan{}, fmt.Errorf("read stdin: %w", err)
		}
		req.Stdin = bytes.NewReader(input)
	}

	req.Overrides = nil
	req.Bumps = nil
	req.Sections = nil

	vars, err := p.Vars(ctx, req)
	if err != nil {
		return nil, Plan{}, err
	}
	plan := opts.Plan(vars, req.Context.Dirty != nil)
	logger.DebugKV(ctx, "resolved branch",
		"branch", plan.Branch,
		"label", plan.Resolved.Label.String(),
		"post_mode", string(plan.Resolved.PostMode),
		"bumps", len(plan.Bumps))

	if input != nil {
		req.Stdin = bytes.NewReader(input)
	}
	if len(plan.Bumps) > 0 {
		req.Bumps = plan.Bumps
	}
	if plan.MarkDirty {
		req.Context.Dirty = zerv.Ptr(true)
	}

	res, err := p.Run(ctx, req)
	if err != nil {
		return nil, Plan{}, err
	}
	return res, plan, nil
}

// checkSchema limits flow builds to the standard preset family; other
// schemas have no pre-release slot for the plan to fill.
func checkSchema(req pipeline.Request) error {
	if req.SchemaText != "" {
		return fmt.Errorf("%w: flow builds use a standard schema preset, not schema text", ErrInvalidRules)
	}
	if req.Preset == "" {
		return nil
	}
	if !presets.IsPreset(req.Preset) {
		return fmt.Errorf("%w: unknown schema preset %q", ErrInvalidRules, req.Preset)
	}
	if !strings.HasPrefix(req.Preset, presets.Standard) {
		return fmt.Errorf("%w: flow builds only support %s presets, got %q", ErrInvalidRules, presets.Standard, req.Preset)
	}
	return nil
}
