package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/roach88/zerv/internal/engine"
	"github.com/roach88/zerv/internal/flow"
	"github.com/roach88/zerv/internal/logger"
	"github.com/roach88/zerv/internal/pipeline"
	"github.com/roach88/zerv/internal/zerv"
)

// FlowOptions holds flags for the flow command.
type FlowOptions struct {
	*VersionOptions

	PreReleaseLabel string
	PreReleaseNum   uint64
	PostMode        string
	HashBranchLen   int
	BranchRules     string
	BranchRulesFile string
}

// FlowResult is the JSON payload of the flow command.
type FlowResult struct {
	Version         string  `json:"version"`
	Format          string  `json:"format"`
	Fingerprint     string  `json:"fingerprint"`
	RecordID        string  `json:"record_id,omitempty"`
	Branch          string  `json:"branch"`
	PreReleaseLabel string  `json:"pre_release_label"`
	PreReleaseNum   *uint64 `json:"pre_release_num,omitempty"`
	PostMode        string  `json:"post_mode"`
	Bumped          bool    `json:"bumped"`
}

// NewFlowCommand creates the flow command.
func NewFlowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FlowOptions{
		VersionOptions: &VersionOptions{
			RootOptions: rootOpts,
			Overrides:   map[zerv.Precedence]*string{},
			Bumps:       map[zerv.Precedence]*string{},
		},
	}

	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Compute a branch-aware pre-release version",
		Long: `Compute a version whose pre-release comes from the branch.

A clean build on a tag is the tag itself. Any other build bumps patch
(when the tag is final), takes the pre-release label and number its branch
rule gives, and bumps post:
  develop     beta.1, post counts commits since the tag
  release/N   rc.N, post counts builds since the tag
  other       alpha with a number hashed from the branch name

Rules are a YAML or JSON list of {pattern, pre_release_label,
pre_release_num, post_mode}. A pattern ending in /* takes its number from
the branch name; an exact pattern must set pre_release_num.

Exit codes:
  0 - Version computed
  1 - Invalid version or schema
  2 - Command error (bad flags, invalid rules, unreadable files)

Examples:
  zerv flow --vcs-data repo.json
  zerv flow --vcs-data repo.json --output-format pep440
  zerv flow --source none --tag-version 1.2.3 --distance 4 --bumped-branch develop
  zerv flow --vcs-data repo.json --pre-release-label rc --pre-release-num 2
  zerv flow --vcs-data repo.json --branch-rules '[{pattern: qa/*, pre_release_label: beta, post_mode: tag}]'`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlow(opts, cmd)
		},
	}

	f := cmd.Flags()
	opts.addSourceFlags(f)
	f.StringVar(&opts.PreReleaseLabel, "pre-release-label", "", "pre-release label for every branch (alpha|beta|rc)")
	f.Uint64Var(&opts.PreReleaseNum, "pre-release-num", 0, "pre-release number for every branch")
	f.StringVar(&opts.PostMode, "post-mode", "", "post bump mode for every branch (tag|commit)")
	f.IntVar(&opts.HashBranchLen, "hash-branch-len", flow.DefaultHashBranchLen, "digits in a hashed pre-release number (1-10)")
	f.StringVar(&opts.BranchRules, "branch-rules", "", "branch rules as YAML or JSON (default: GitFlow rules)")
	f.StringVar(&opts.BranchRulesFile, "branch-rules-file", "", "file holding branch rules")

	return cmd
}

func runFlow(opts *FlowOptions, cmd *cobra.Command) error {
	ctx := logger.WithKV(cmd.Context(), "command", "flow")
	formatter := opts.formatter(cmd)

	flowOpts, err := opts.flowOptions(cmd.Flags())
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArgs, err)
	}

	req, err := opts.buildRequest(cmd)
	if err != nil {
		if be := engine.GetBumpError(err); be != nil {
			return formatter.Fail(ExitFailure, string(be.Code), err)
		}
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArgs, err)
	}

	pipeOpts, closeStore, err := recorderOptions(ctx, opts.Record)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err)
	}
	defer closeStore()

	result, plan, err := flow.Run(ctx, pipeline.New(pipeOpts...), req, flowOpts)
	if err != nil {
		exitCode, code := classifyError(err)
		return formatter.Fail(exitCode, code, err)
	}
	formatter.VerboseLog("branch=%q label=%s post_mode=%s bumps=%d",
		plan.Branch, plan.Resolved.Label, plan.Resolved.PostMode, len(plan.Bumps))

	if opts.Format != "json" {
		fmt.Fprintln(formatter.Writer, result.Output)
		return nil
	}
	payload := FlowResult{
		Version:         result.Output,
		Format:          result.Format,
		Fingerprint:     result.Fingerprint,
		Branch:          plan.Branch,
		PreReleaseLabel: plan.Resolved.Label.String(),
		PreReleaseNum:   plan.Resolved.Number,
		PostMode:        string(plan.Resolved.PostMode),
		Bumped:          len(plan.Bumps) > 0,
	}
	if result.Record != nil {
		payload.RecordID = result.Record.ID.String()
	}
	return formatter.Success(payload)
}

// flowOptions turns the flow flags into flow.Options. Flags left unset
// defer to the branch rules.
func (o *FlowOptions) flowOptions(flags *pflag.FlagSet) (flow.Options, error) {
	opts := flow.DefaultOptions()
	opts.HashBranchLen = o.HashBranchLen

	if flags.Changed("pre-release-label") {
		label, err := zerv.ParsePreReleaseLabel(o.PreReleaseLabel)
		if err != nil {
			return flow.Options{}, fmt.Errorf("--pre-release-label: %w", err)
		}
		opts.Label = &label
	}
	if flags.Changed("pre-release-num") {
		opts.Number = zerv.Ptr(o.PreReleaseNum)
	}
	if flags.Changed("post-mode") {
		mode, err := flow.ParsePostMode(o.PostMode)
		if err != nil {
			return flow.Options{}, fmt.Errorf("--post-mode: %w", err)
		}
		opts.PostMode = mode
	}

	text := o.BranchRules
	switch {
	case o.BranchRules != "" && o.BranchRulesFile != "":
		return flow.Options{}, errors.New("use only one of --branch-rules, --branch-rules-file")
	case o.BranchRulesFile != "":
		data, err := os.ReadFile(filepath.Clean(o.BranchRulesFile))
		if err != nil {
			return flow.Options{}, fmt.Errorf("read branch rules: %w", err)
		}
		text = string(data)
	}
	if text != "" {
		rules, err := flow.ParseRules(text)
		if err != nil {
			return flow.Options{}, err
		}
		opts.Rules = rules
	}
	return opts, opts.Validate()
}
