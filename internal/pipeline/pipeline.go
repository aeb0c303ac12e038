package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/zerv/internal/compiler"
	"github.com/roach88/zerv/internal/engine"
	"github.com/roach88/zerv/internal/ir"
	"github.com/roach88/zerv/internal/logger"
	"github.com/roach88/zerv/internal/pep440"
	"github.com/roach88/zerv/internal/presets"
	"github.com/roach88/zerv/internal/semver"
	"github.com/roach88/zerv/internal/store"
	"github.com/roach88/zerv/internal/template"
	"github.com/roach88/zerv/internal/vcs"
	"github.com/roach88/zerv/internal/zerv"
)

// Sources a version can be read from.
const (
	SourceVCS   = "vcs"
	SourceStdin = "stdin"
	SourceNone  = "none"
)

// Formats. FormatZerv reads or writes a Zerv document; the auto input
// format accepts SemVer, PEP 440, or a document.
const (
	FormatAuto   = vcs.FormatAuto
	FormatSemVer = semver.FormatName
	FormatPEP440 = pep440.FormatName
	FormatZerv   = "zerv"
)

// ErrInvalidRequest marks requests rejected before any work is done.
var ErrInvalidRequest = errors.New("invalid request")

// Recorder stores rendered versions.
type Recorder interface {
	Append(ctx context.Context, rec store.Record) (store.Record, error)
}

// SectionSpecs are the index=value overrides and index[=value] bumps for
// one schema section.
type SectionSpecs struct {
	Overrides []string
	Bumps     []string
}

// Request describes one version computation.
type Request struct {
	// Source is SourceVCS, SourceStdin, or SourceNone.
	Source      string
	InputFormat string
	VCSData     *vcs.Data
	Stdin       io.Reader

	Context vcs.ContextOverrides

	// Custom is a JSON object stored as the custom vars.
	Custom string

	// Preset names a schema preset. SchemaText is schema text, or a CUE
	// document when SchemaName ends in ".cue". At most one may be set.
	Preset     string
	SchemaName string
	SchemaText string

	// Overrides and Bumps are keyed by precedence entry. Values may be
	// templates, rendered against the vars before any bump.
	Overrides map[zerv.Precedence]string
	Bumps     map[zerv.Precedence]string
	Sections  map[zerv.Section]SectionSpecs

	// OutputFormat and OutputTemplate are mutually exclusive. With
	// neither set the output is SemVer.
	OutputFormat   string
	OutputTemplate string
	OutputPrefix   string
}

// Validate rejects contradictory or incomplete requests. Contradicting
// context overrides come back as a CONFLICTING_OVERRIDE *engine.BumpError,
// everything else wraps ErrInvalidRequest.
func (r Request) Validate() error {
	switch r.Source {
	case SourceVCS:
		if r.VCSData == nil {
			return fmt.Errorf("%w: source %q requires VCS data", ErrInvalidRequest, r.Source)
		}
	case SourceStdin:
		if r.Stdin == nil {
			return fmt.Errorf("%w: source %q requires input", ErrInvalidRequest, r.Source)
		}
	case SourceNone:
	default:
		return fmt.Errorf("%w: unknown source %q (supported: %s, %s, %s)",
			ErrInvalidRequest, r.Source, SourceVCS, SourceStdin, SourceNone)
	}

	switch strings.ToLower(r.InputFormat) {
	case "", FormatAuto, FormatSemVer, FormatPEP440:
	case FormatZerv:
		if r.Source != SourceStdin {
			return fmt.Errorf("%w: input format %q is only supported with source %q",
				ErrInvalidRequest, FormatZerv, SourceStdin)
		}
	default:
		return fmt.Errorf("%w: unknown input format %q", ErrInvalidRequest, r.InputFormat)
	}

	if err := r.Context.Validate(); err != nil {
		var ce *vcs.ConflictError
		if errors.As(err, &ce) {
			return &engine.BumpError{
				Code:    engine.ErrCodeConflictingOverride,
				Field:   ce.Field,
				Index:   -1,
				Message: ce.Message,
			}
		}
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if r.Preset != "" && r.SchemaText != "" {
		return fmt.Errorf("%w: cannot use both a schema preset and schema text", ErrInvalidRequest)
	}
	if r.OutputTemplate != "" && r.OutputFormat != "" {
		return fmt.Errorf("%w: cannot use both an output template and an output format", ErrInvalidRequest)
	}
	switch strings.ToLower(r.OutputFormat) {
	case "", FormatSemVer, FormatPEP440, FormatZerv:
	default:
		return fmt.Errorf("%w: unknown output format %q (supported: %s, %s, %s)",
			ErrInvalidRequest, r.OutputFormat, FormatSemVer, FormatPEP440, FormatZerv)
	}
	return nil
}

// Result is the outcome of a pipeline run.
type Result struct {
	// Output is the rendered version, prefix included.
	Output string
	// Format is the output format, or "template".
	Format      string
	Zerv        *zerv.Zerv
	Document    ir.Document
	Fingerprint string
	// Record is set when the pipeline has a Recorder.
	Record *store.Record
}

// Pipeline runs version requests.
type Pipeline struct {
	clock    Clock
	recorder Recorder
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock sets the clock used by the none source.
func WithClock(c Clock) Option {
	return func(p *Pipeline) {
		p.clock = c
	}
}

// WithRecorder records every successful result.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) {
		p.recorder = r
	}
}

// New creates a pipeline reading the system clock.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{clock: SystemClock{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run computes the version described by req.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	ctx = logger.WithName(ctx, "pipeline")

	vars, loaded, err := p.load(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.Custom != "" {
		if err := vars.SetCustomJSON(req.Custom); err != nil {
			return nil, fmt.Errorf("--custom: %w", err)
		}
	}

	schema, err := resolveSchema(req, vars, loaded)
	if err != nil {
		return nil, err
	}

	ops, err := buildOperations(req, template.NewVarsContext(vars))
	if err != nil {
		return nil, err
	}
	logger.DebugKV(ctx, "applying operations",
		"overrides", len(ops.Overrides), "bumps", len(ops.Bumps), "positions", len(ops.Positions))

	out, err := engine.Apply(zerv.New(schema, vars), ops)
	if err != nil {
		return nil, err
	}

	output, format, err := Render(out, req)
	if err != nil {
		return nil, err
	}

	doc := ir.FromZerv(out)
	fp, err := ir.Fingerprint(doc)
	if err != nil {
		return nil, err
	}
	res := &Result{Output: output, Format: format, Zerv: out, Document: doc, Fingerprint: fp}
	logger.DebugKV(ctx, "rendered version", "output", output, "format", format, "fingerprint", fp)

	if p.recorder != nil {
		rec, err := p.recorder.Append(ctx, store.Record{Fingerprint: fp, Format: format, Output: output, Document: doc})
		if err != nil {
			return nil, fmt.Errorf("record version: %w", err)
		}
		res.Record = &rec
	}
	return res, nil
}

// Vars loads req's source with its context overrides and custom vars and
// returns the value table before any override or bump. Nothing is
// rendered or recorded.
func (p *Pipeline) Vars(ctx context.Context, req Request) (zerv.Vars, error) {
	if err := req.Validate(); err != nil {
		return zerv.Vars{}, err
	}
	vars, _, err := p.load(logger.WithName(ctx, "pipeline"), req)
	if err != nil {
		return zerv.Vars{}, err
	}
	if req.Custom != "" {
		if err := vars.SetCustomJSON(req.Custom); err != nil {
			return zerv.Vars{}, fmt.Errorf("--custom: %w", err)
		}
	}
	return vars, nil
}

// load reads the source and applies the context overrides. The schema is
// non-nil only for Zerv documents.
func (p *Pipeline) load(ctx context.Context, req Request) (zerv.Vars, *zerv.Schema, error) {
	format := strings.ToLower(req.InputFormat)

	switch req.Source {
	case SourceVCS:
		data, err := vcs.ApplyContextOverrides(*req.VCSData, req.Context)
		if err != nil {
			return zerv.Vars{}, nil, err
		}
		vars, err := vcs.ToVars(data, format)
		if err != nil {
			return zerv.Vars{}, nil, err
		}
		logger.DebugKV(ctx, "loaded vcs data", "tag", *data.TagVersion, "distance", data.Distance, "dirty", data.Dirty)
		return vars, nil, nil

	case SourceStdin:
		raw, err := io.ReadAll(req.Stdin)
		if err != nil {
			return zerv.Vars{}, nil, fmt.Errorf("read stdin: %w", err)
		}
		text := strings.TrimSpace(string(raw))
		if text == "" {
			return zerv.Vars{}, nil, errors.New("no input on stdin")
		}

		if format == FormatZerv || (isAuto(format) && looksLikeDocument(text)) {
			doc, err := ir.Decode(strings.NewReader(text))
			if err != nil {
				return zerv.Vars{}, nil, err
			}
			z, err := doc.ToZerv()
			if err != nil {
				return zerv.Vars{}, nil, err
			}
			vars, err := vcs.ApplyToVars(z.Vars, req.Context, FormatAuto)
			if err != nil {
				return zerv.Vars{}, nil, err
			}
			logger.DebugKV(ctx, "loaded zerv document from stdin")
			return vars, z.Schema, nil
		}

		z, matched, err := vcs.ParseVersion(text, format)
		if err != nil {
			return zerv.Vars{}, nil, err
		}
		vars, err := vcs.ApplyToVars(z.Vars, req.Context, format)
		if err != nil {
			return zerv.Vars{}, nil, err
		}
		logger.DebugKV(ctx, "loaded version from stdin", "version", text, "format", matched)
		return vars, nil, nil
	}

	vars := zerv.Vars{
		Major:           zerv.Ptr[uint64](0),
		Minor:           zerv.Ptr[uint64](0),
		Patch:           zerv.Ptr[uint64](0),
		BumpedTimestamp: zerv.Ptr(p.clock.Now().Unix()),
	}
	vars, err := vcs.ApplyToVars(vars, req.Context, format)
	if err != nil {
		return zerv.Vars{}, nil, err
	}
	return vars, nil, nil
}

func isAuto(format string) bool {
	return format == "" || format == FormatAuto
}

// looksLikeDocument reports whether stdin holds a Zerv document rather
// than version text.
func looksLikeDocument(text string) bool {
	return strings.HasPrefix(text, "{") || strings.Contains(text, "schema:")
}

func resolveSchema(req Request, vars zerv.Vars, loaded *zerv.Schema) (*zerv.Schema, error) {
	switch {
	case req.SchemaText != "":
		name := req.SchemaName
		if name == "" {
			name = "schema"
		}
		return compiler.CompileSource(name, req.SchemaText)
	case req.Preset != "":
		return presets.Resolve(req.Preset, vars)
	case loaded != nil:
		return loaded, nil
	}
	return presets.Resolve(presets.Standard, vars)
}

// buildOperations renders template values against tctx and parses them.
func buildOperations(req Request, tctx template.Context) (engine.Operations, error) {
	var ops engine.Operations
	entries := zerv.DefaultPrecedenceOrder().List()

	for _, p := range entries {
		value, ok := req.Overrides[p]
		if !ok {
			continue
		}
		rendered, err := template.RenderValue(value, tctx)
		if err != nil {
			return engine.Operations{}, fmt.Errorf("override %s: %w", p, err)
		}
		ov, err := engine.ParseOverride(p, rendered)
		if err != nil {
			return engine.Operations{}, err
		}
		ops.SetOverride(p, ov)
	}
	for _, p := range entries {
		value, ok := req.Bumps[p]
		if !ok {
			continue
		}
		rendered, err := template.RenderValue(value, tctx)
		if err != nil {
			return engine.Operations{}, fmt.Errorf("bump %s: %w", p, err)
		}
		b, err := engine.ParseBump(p, rendered)
		if err != nil {
			return engine.Operations{}, err
		}
		ops.SetBump(p, b)
	}

	for _, sec := range zerv.Sections {
		specs, ok := req.Sections[sec]
		if !ok {
			continue
		}
		overrides, err := renderAll(specs.Overrides, tctx)
		if err != nil {
			return engine.Operations{}, fmt.Errorf("%s override: %w", sec, err)
		}
		bumps, err := renderAll(specs.Bumps, tctx)
		if err != nil {
			return engine.Operations{}, fmt.Errorf("%s bump: %w", sec, err)
		}
		parsed, err := engine.ParsePositionSpecs(sec, overrides, bumps)
		if err != nil {
			return engine.Operations{}, err
		}
		ops.Positions = append(ops.Positions, parsed...)
	}
	return ops, nil
}

func renderAll(values []string, tctx template.Context) ([]string, error) {
	out := make([]string, len(values))
	for i, v := range values {
		rendered, err := template.RenderValue(v, tctx)
		if err != nil {
			return nil, err
		}
		out[i] = rendered
	}
	return out, nil
}

// Render renders z in the request's output format or template and adds
// the prefix.
func Render(z *zerv.Zerv, req Request) (string, string, error) {
	if req.OutputTemplate != "" {
		out, err := template.Render(req.OutputTemplate, template.NewContext(z))
		if err != nil {
			return "", "", err
		}
		return req.OutputPrefix + out, "template", nil
	}

	format := strings.ToLower(req.OutputFormat)
	var out string
	switch format {
	case "", FormatSemVer:
		format = FormatSemVer
		out = semver.FromZerv(z).String()
	case FormatPEP440:
		out = pep440.FromZerv(z).String()
	case FormatZerv:
		data, err := ir.Encode(ir.FromZerv(z), ir.EncodingJSON)
		if err != nil {
			return "", "", err
		}
		out = strings.TrimRight(string(data), "\n")
	}
	return req.OutputPrefix + out, format, nil
}
