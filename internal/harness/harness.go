package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/zerv/internal/ir"
	"github.com/roach88/zerv/internal/logger"
	"github.com/roach88/zerv/internal/pep440"
	"github.com/roach88/zerv/internal/pipeline"
	"github.com/roach88/zerv/internal/semver"
	"github.com/roach88/zerv/internal/testutil"
	"github.com/roach88/zerv/internal/vcs"
	"github.com/roach88/zerv/internal/zerv"
)

// Run executes a scenario through the pipeline with a fixed clock.
// A returned error means the scenario itself could not be turned into a
// request; pipeline failures are reported through the Result.
func Run(s *Scenario) (*Result, error) {
	return RunContext(context.Background(), s)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, s *Scenario) (*Result, error) {
	ctx = logger.WithName(ctx, "harness")

	req, err := BuildRequest(s)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	clock := testutil.NewSteppingClock()
	if s.Clock != 0 {
		clock.Set(time.Unix(s.Clock, 0))
	}
	p := pipeline.New(pipeline.WithClock(clock))

	logger.DebugKV(ctx, "running scenario", "name", s.Name, "source", req.Source)

	result := NewResult()
	out, err := p.Run(ctx, req)
	if err != nil {
		result.Err = err.Error()
		switch {
		case s.Expect.Error == "":
			result.AddError(fmt.Sprintf("unexpected error: %v", err))
		case !strings.Contains(err.Error(), s.Expect.Error):
			result.AddError(fmt.Sprintf("error mismatch: expected %q in %q", s.Expect.Error, err.Error()))
		}
		return result, nil
	}

	result.zerv = out.Zerv
	result.Output = out.Output
	result.SemVer = semver.FromZerv(out.Zerv).String()
	result.PEP440 = pep440.FromZerv(out.Zerv).String()
	result.Fingerprint = out.Fingerprint
	doc := out.Document
	result.Document = &doc

	if s.Expect.Error != "" {
		result.AddError(fmt.Sprintf("expected error containing %q, got output %q", s.Expect.Error, out.Output))
	}
	check := func(name, want, got string) {
		if want != "" && want != got {
			result.AddError(fmt.Sprintf("%s mismatch: expected %q, got %q", name, want, got))
		}
	}
	check("output", s.Expect.Output, result.Output)
	check("semver", s.Expect.SemVer, result.SemVer)
	check("pep440", s.Expect.PEP440, result.PEP440)
	if s.Expect.Zerv != "" {
		if msg := compareDocument(s.Expect.Zerv, result.Fingerprint); msg != "" {
			result.AddError(msg)
		}
	}

	for _, msg := range EvaluateAssertions(result, s.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// BuildRequest converts a scenario into a pipeline request.
func BuildRequest(s *Scenario) (pipeline.Request, error) {
	req := pipeline.Request{
		Source:         s.Source,
		InputFormat:    s.InputFormat,
		Preset:         s.Schema,
		SchemaText:     s.SchemaText,
		OutputFormat:   s.OutputFormat,
		OutputTemplate: s.OutputTemplate,
		OutputPrefix:   s.OutputPrefix,
		Context: vcs.ContextOverrides{
			TagVersion:      s.Context.TagVersion,
			Distance:        s.Context.Distance,
			Dirty:           s.Context.Dirty,
			Branch:          s.Context.Branch,
			CommitHash:      s.Context.CommitHash,
			BumpedTimestamp: s.Context.BumpedTimestamp,
			Clean:           s.Context.Clean,
			NoBumpContext:   s.Context.NoBumpContext,
		},
	}

	if req.Source == "" {
		switch {
		case s.VCS != nil:
			req.Source = pipeline.SourceVCS
		case s.Input != "":
			req.Source = pipeline.SourceStdin
		default:
			req.Source = pipeline.SourceNone
		}
	}

	switch req.Source {
	case pipeline.SourceVCS:
		raw, err := json.Marshal(s.VCS)
		if err != nil {
			return pipeline.Request{}, fmt.Errorf("vcs: %w", err)
		}
		data, err := vcs.DecodeData(bytes.NewReader(raw))
		if err != nil {
			return pipeline.Request{}, fmt.Errorf("vcs: %w", err)
		}
		req.VCSData = &data
	case pipeline.SourceStdin:
		req.Stdin = strings.NewReader(s.Input)
	}

	if len(s.Custom) > 0 {
		raw, err := json.Marshal(s.Custom)
		if err != nil {
			return pipeline.Request{}, fmt.Errorf("custom: %w", err)
		}
		req.Custom = string(raw)
	}

	if len(s.Overrides) > 0 {
		req.Overrides = make(map[zerv.Precedence]string, len(s.Overrides))
		for name, value := range s.Overrides {
			p, err := zerv.ParsePrecedence(name)
			if err != nil {
				return pipeline.Request{}, err
			}
			req.Overrides[p] = value
		}
	}
	if len(s.Bumps) > 0 {
		req.Bumps = make(map[zerv.Precedence]string, len(s.Bumps))
		for name, value := range s.Bumps {
			p, err := zerv.ParsePrecedence(name)
			if err != nil {
				return pipeline.Request{}, err
			}
			req.Bumps[p] = value
		}
	}
	if len(s.Positions) > 0 {
		req.Sections = make(map[zerv.Section]pipeline.SectionSpecs, len(s.Positions))
		for name, spec := range s.Positions {
			sec, err := zerv.ParseSection(name)
			if err != nil {
				return pipeline.Request{}, err
			}
			req.Sections[sec] = pipeline.SectionSpecs{Overrides: spec.Overrides, Bumps: spec.Bumps}
		}
	}
	return req, nil
}

// compareDocument checks an expected document against a fingerprint.
func compareDocument(expected, fingerprint string) string {
	doc, err := ir.Decode(strings.NewReader(expected))
	if err != nil {
		return fmt.Sprintf("expect.zerv: %v", err)
	}
	want, err := ir.Fingerprint(doc)
	if err != nil {
		return fmt.Sprintf("expect.zerv: %v", err)
	}
	if want != fingerprint {
		return fmt.Sprintf("zerv mismatch: expected fingerprint %s, got %s", want, fingerprint)
	}
	return ""
}
