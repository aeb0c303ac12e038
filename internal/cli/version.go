package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/roach88/zerv/internal/compiler"
	"github.com/roach88/zerv/internal/config"
	"github.com/roach88/zerv/internal/engine"
	"github.com/roach88/zerv/internal/flow"
	"github.com/roach88/zerv/internal/logger"
	"github.com/roach88/zerv/internal/pipeline"
	"github.com/roach88/zerv/internal/presets"
	"github.com/roach88/zerv/internal/store"
	"github.com/roach88/zerv/internal/vcs"
	"github.com/roach88/zerv/internal/zerv"
)

// VersionOptions holds flags for the version command.
type VersionOptions struct {
	*RootOptions

	Source      string
	InputFormat string
	VCSData     string

	OutputFormat   string
	OutputTemplate string
	OutputPrefix   string

	Schema     string
	SchemaText string
	SchemaFile string

	TagVersion       string
	Distance         uint64
	Dirty            bool
	NoDirty          bool
	Clean            bool
	BumpedBranch     string
	BumpedCommitHash string
	BumpedTimestamp  int64
	NoBumpContext    bool

	Custom string

	// Overrides and Bumps are keyed by precedence entry.
	Overrides map[zerv.Precedence]*string
	Bumps     map[zerv.Precedence]*string

	Core, ExtraCore, Build             []string
	BumpCore, BumpExtraCore, BumpBuild []string

	Record string
}

// VersionResult is the JSON payload of the version command.
type VersionResult struct {
	Version     string `json:"version"`
	Format      string `json:"format"`
	Fingerprint string `json:"fingerprint"`
	RecordID    string `json:"record_id,omitempty"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VersionOptions{
		RootOptions: rootOpts,
		Overrides:   map[zerv.Precedence]*string{},
		Bumps:       map[zerv.Precedence]*string{},
	}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Compute a version",
		Long: `Compute a version from repository data, stdin, or nothing.

The version is shaped by a schema (a preset, schema text, or a CUE file),
adjusted by field overrides, then bumped. Each bump resets every field of
lower precedence.

Exit codes:
  0 - Version computed
  1 - Invalid version, schema, or bump
  2 - Command error (bad flags, unreadable files)

Examples:
  zerv version --source none --tag-version 1.2.3 --bump-minor
  zerv version --vcs-data repo.json --output-format pep440
  echo 1.2.3-rc.1 | zerv version --source stdin --bump-pre-release-num
  zerv version --vcs-data - --output-template "{{.major}}.{{.minor}}" < repo.json
  zerv version --source none --schema-text '(core: [var("major")])' --major 4`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(opts, cmd)
		},
	}

	f := cmd.Flags()
	opts.addSourceFlags(f)

	for _, p := range zerv.DefaultPrecedenceOrder().List() {
		name := flagName(p)
		opts.Overrides[p] = f.String(name, "", fmt.Sprintf("override %s (a value, a template, or none)", p))

		bump := f.String("bump-"+name, "", fmt.Sprintf("bump %s", p))
		opts.Bumps[p] = bump
		if p != zerv.PrecedencePreReleaseLabel {
			f.Lookup("bump-" + name).NoOptDefVal = "1"
		}
	}

	f.StringArrayVar(&opts.Core, "core", nil, "core override index=value (repeatable, ~N counts from the end)")
	f.StringArrayVar(&opts.ExtraCore, "extra-core", nil, "extra core override index=value (repeatable)")
	f.StringArrayVar(&opts.Build, "build", nil, "build override index=value (repeatable)")
	f.StringArrayVar(&opts.BumpCore, "bump-core", nil, "core bump index[=n] (repeatable)")
	f.StringArrayVar(&opts.BumpExtraCore, "bump-extra-core", nil, "extra core bump index[=n] (repeatable)")
	f.StringArrayVar(&opts.BumpBuild, "bump-build", nil, "build bump index[=n] (repeatable)")

	return cmd
}

// addSourceFlags registers the flags version and flow share: source,
// schema, output, context overrides, and recording.
func (o *VersionOptions) addSourceFlags(f *pflag.FlagSet) {
	f.StringVar(&o.Source, "source", "", "version source (vcs|stdin|none); defaults to vcs with --vcs-data, else none")
	f.StringVar(&o.InputFormat, "input-format", "", "how tags and stdin are parsed (auto|semver|pep440|zerv)")
	f.StringVar(&o.VCSData, "vcs-data", "", "repository data as JSON (file path, or - for stdin)")

	f.StringVar(&o.OutputFormat, "output-format", "", "output format (semver|pep440|zerv)")
	f.StringVar(&o.OutputTemplate, "output-template", "", "render the version with a template")
	f.StringVar(&o.OutputPrefix, "output-prefix", "", "prefix added to the output, e.g. v")

	f.StringVar(&o.Schema, "schema", "", "schema preset name")
	f.StringVar(&o.SchemaText, "schema-text", "", "inline schema text")
	f.StringVar(&o.SchemaFile, "schema-file", "", "schema file (.cue files are compiled as CUE)")

	f.StringVar(&o.TagVersion, "tag-version", "", "override the tag version")
	f.Uint64Var(&o.Distance, "distance", 0, "override the distance from the tag")
	f.BoolVar(&o.Dirty, "dirty", false, "mark the working tree dirty")
	f.BoolVar(&o.NoDirty, "no-dirty", false, "mark the working tree clean")
	f.BoolVar(&o.Clean, "clean", false, "distance 0 and a clean tree")
	f.StringVar(&o.BumpedBranch, "bumped-branch", "", "override the branch name")
	f.StringVar(&o.BumpedCommitHash, "bumped-commit-hash", "", "override the commit hash")
	f.Int64Var(&o.BumpedTimestamp, "bumped-timestamp", 0, "override the commit timestamp (unix seconds)")
	f.BoolVar(&o.NoBumpContext, "no-bump-context", false, "drop distance, dirty state, branch, and commit hash")

	f.StringVar(&o.Custom, "custom", "", "custom vars as a JSON object")
	f.StringVar(&o.Record, "record", "", "append the result to a history database")
}

// flagName maps a precedence entry to its flag spelling.
func flagName(p zerv.Precedence) string {
	return strings.ReplaceAll(p.String(), "_", "-")
}

func runVersion(opts *VersionOptions, cmd *cobra.Command) error {
	ctx := logger.WithKV(cmd.Context(), "command", "version")
	formatter := opts.formatter(cmd)

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

	formatter.VerboseLog("source=%s input_format=%s", req.Source, req.InputFormat)

	result, err := pipeline.New(pipeOpts...).Run(ctx, req)
	if err != nil {
		exitCode, code := classifyError(err)
		return formatter.Fail(exitCode, code, err)
	}

	if opts.Format != "json" {
		fmt.Fprintln(formatter.Writer, result.Output)
		return nil
	}
	payload := VersionResult{
		Version:     result.Output,
		Format:      result.Format,
		Fingerprint: result.Fingerprint,
	}
	if result.Record != nil {
		payload.RecordID = result.Record.ID.String()
	}
	return formatter.Success(payload)
}

// recorderOptions opens the history database at path, if any, and returns
// the pipeline option that records into it.
func recorderOptions(ctx context.Context, path string) ([]pipeline.Option, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	st, err := store.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	return []pipeline.Option{pipeline.WithRecorder(st)}, func() { st.Close() }, nil
}

// buildRequest merges flags over the config file into a pipeline request.
func (o *VersionOptions) buildRequest(cmd *cobra.Command) (pipeline.Request, error) {
	cfg := o.config()
	flags := cmd.Flags()

	req := pipeline.Request{
		Source:       o.Source,
		InputFormat:  o.InputFormat,
		Custom:       o.Custom,
		OutputPrefix: o.OutputPrefix,
	}
	if req.InputFormat == "" {
		req.InputFormat = cfg.InputFormat
	}

	if o.VCSData != "" && req.Source == "" {
		req.Source = pipeline.SourceVCS
	}
	if req.Source == "" {
		req.Source = pipeline.SourceNone
	}

	in := cmd.InOrStdin()
	if o.VCSData != "" {
		if o.VCSData == "-" && req.Source == pipeline.SourceStdin {
			return pipeline.Request{}, errors.New("--vcs-data - cannot be combined with --source stdin")
		}
		data, err := readVCSData(o.VCSData, in)
		if err != nil {
			return pipeline.Request{}, err
		}
		if data.CommitHashPrefix == "" {
			data.CommitHashPrefix = cfg.CommitHashPrefix
		}
		req.VCSData = &data
	}
	if req.Source == pipeline.SourceStdin {
		req.Stdin = in
	}

	ctxOverrides, err := o.contextOverrides(flags)
	if err != nil {
		return pipeline.Request{}, err
	}
	req.Context = ctxOverrides

	if err := o.applySchema(&req, cfg); err != nil {
		return pipeline.Request{}, err
	}
	o.applyOutput(&req, cfg, flags)

	for p, value := range o.Overrides {
		if flags.Changed(flagName(p)) {
			if req.Overrides == nil {
				req.Overrides = map[zerv.Precedence]string{}
			}
			req.Overrides[p] = *value
		}
	}
	for p, value := range o.Bumps {
		if flags.Changed("bump-" + flagName(p)) {
			if req.Bumps == nil {
				req.Bumps = map[zerv.Precedence]string{}
			}
			req.Bumps[p] = *value
		}
	}

	sections := map[zerv.Section]pipeline.SectionSpecs{
		zerv.SectionCore:      {Overrides: o.Core, Bumps: o.BumpCore},
		zerv.SectionExtraCore: {Overrides: o.ExtraCore, Bumps: o.BumpExtraCore},
		zerv.SectionBuild:     {Overrides: o.Build, Bumps: o.BumpBuild},
	}
	for sec, specs := range sections {
		if len(specs.Overrides) == 0 && len(specs.Bumps) == 0 {
			continue
		}
		if req.Sections == nil {
			req.Sections = map[zerv.Section]pipeline.SectionSpecs{}
		}
		req.Sections[sec] = specs
	}

	return req, req.Validate()
}

func (o *VersionOptions) contextOverrides(flags *pflag.FlagSet) (vcs.ContextOverrides, error) {
	var c vcs.ContextOverrides
	if o.Dirty && o.NoDirty {
		return c, errors.New("cannot use --dirty with --no-dirty")
	}
	if flags.Changed("tag-version") {
		c.TagVersion = &o.TagVersion
	}
	if flags.Changed("distance") {
		c.Distance = &o.Distance
	}
	switch {
	case o.Dirty:
		c.Dirty = zerv.Ptr(true)
	case o.NoDirty:
		c.Dirty = zerv.Ptr(false)
	}
	if flags.Changed("bumped-branch") {
		c.Branch = &o.BumpedBranch
	}
	if flags.Changed("bumped-commit-hash") {
		c.CommitHash = &o.BumpedCommitHash
	}
	if flags.Changed("bumped-timestamp") {
		c.BumpedTimestamp = &o.BumpedTimestamp
	}
	c.Clean = o.Clean
	c.NoBumpContext = o.NoBumpContext
	return c, nil
}

// applySchema picks the schema source. Flags win over the config file; a
// config schema that is not a preset name is schema text. The default
// preset is left implicit so stdin documents keep their own schema.
func (o *VersionOptions) applySchema(req *pipeline.Request, cfg *config.Config) error {
	given := 0
	for _, s := range []string{o.Schema, o.SchemaText, o.SchemaFile} {
		if s != "" {
			given++
		}
	}
	if given > 1 {
		return errors.New("use only one of --schema, --schema-text, --schema-file")
	}

	switch {
	case o.Schema != "":
		req.Preset = o.Schema
	case o.SchemaText != "":
		req.SchemaText = o.SchemaText
	case o.SchemaFile != "":
		data, err := os.ReadFile(filepath.Clean(o.SchemaFile))
		if err != nil {
			return fmt.Errorf("read schema file: %w", err)
		}
		req.SchemaName = o.SchemaFile
		req.SchemaText = string(data)
	case cfg.Schema == "" || cfg.Schema == config.DefaultSchema:
	case presets.IsPreset(cfg.Schema):
		req.Preset = cfg.Schema
	default:
		req.SchemaText = cfg.Schema
	}
	return nil
}

// applyOutput merges output flags with the config. A template from
// either source suppresses the configured output format.
func (o *VersionOptions) applyOutput(req *pipeline.Request, cfg *config.Config, flags *pflag.FlagSet) {
	req.OutputTemplate = o.OutputTemplate
	req.OutputFormat = o.OutputFormat

	if flags.Changed("output-format") || flags.Changed("output-template") {
		return
	}
	if cfg.Template != "" {
		req.OutputTemplate = cfg.Template
		return
	}
	req.OutputFormat = cfg.OutputFormat
}

// readVCSData reads a repository snapshot from a file, or from in when
// path is "-".
func readVCSData(path string, in io.Reader) (vcs.Data, error) {
	if path == "-" {
		return vcs.DecodeData(in)
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return vcs.Data{}, fmt.Errorf("open vcs data: %w", err)
	}
	defer f.Close()
	return vcs.DecodeData(f)
}

// classifyError maps a pipeline error to an exit code and response code.
func classifyError(err error) (int, string) {
	if errors.Is(err, pipeline.ErrInvalidRequest) || errors.Is(err, flow.ErrInvalidRules) {
		return ExitCommandError, ErrCodeInvalidArgs
	}
	if be := engine.GetBumpError(err); be != nil {
		return ExitFailure, string(be.Code)
	}
	var se *zerv.SchemaError
	if errors.As(err, &se) {
		return ExitFailure, se.Code
	}
	var ve compiler.ValidationError
	if errors.As(err, &ve) {
		return ExitFailure, ve.Code
	}
	return ExitFailure, ErrCodePipeline
}
