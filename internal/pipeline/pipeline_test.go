package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/zerv/internal/engine"
	"github.com/roach88/zerv/internal/ir"
	"github.com/roach88/zerv/internal/store"
	"github.com/roach88/zerv/internal/vcs"
	"github.com/roach88/zerv/internal/zerv"
)

const pipelineUnix int64 = 1704423845

func newTestPipeline(opts ...Option) *Pipeline {
	return New(append([]Option{WithClock(UnixClock(pipelineUnix))}, opts...)...)
}

func stdinRequest(text string) Request {
	return Request{Source: SourceStdin, Stdin: strings.NewReader(text)}
}

func sampleVCSData() *vcs.Data {
	return &vcs.Data{
		TagVersion:       zerv.Ptr("v1.2.3"),
		Distance:         5,
		Branch:           zerv.Ptr("main"),
		CommitHash:       "abcdef1234567890",
		CommitHashPrefix: "g",
		CommitTimestamp:  pipelineUnix,
	}
}

func TestPipelineScenarios(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{
			name: "bump minor resets patch",
			req: Request{
				Source:  SourceNone,
				Context: vcs.ContextOverrides{TagVersion: zerv.Ptr("1.2.3")},
				Bumps:   map[zerv.Precedence]string{zerv.PrecedenceMinor: ""},
			},
			want: "1.3.0",
		},
		{
			name: "post release in pep440",
			req: func() Request {
				r := stdinRequest("1.2.3.post5")
				r.InputFormat = FormatPEP440
				r.Preset = "standard-base-prerelease-post"
				r.OutputFormat = FormatPEP440
				return r
			}(),
			want: "1.2.3.post5",
		},
		{
			name: "release candidate in semver",
			req:  stdinRequest("1.2.3-rc.1"),
			want: "1.2.3-rc.1",
		},
		{
			name: "major bump drops pre-release and build",
			req: func() Request {
				r := stdinRequest("1.5.2-rc.1+build.456")
				r.Context.Branch = zerv.Ptr("main")
				r.SchemaText = `(
					core: [var("major"), var("minor"), var("patch")],
					extra_core: [var("pre_release")],
					build: [var("bumped_branch"), str("build"), int(456)],
				)`
				r.Bumps = map[zerv.Precedence]string{zerv.PrecedenceMajor: "1"}
				return r
			}(),
			want: "2.0.0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newTestPipeline().Run(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Output)
		})
	}
}

func TestPipelineSchemaTextKeepsBuild(t *testing.T) {
	r := stdinRequest("1.5.2-rc.1+build.456")
	r.Context.Branch = zerv.Ptr("main")
	r.SchemaText = `(core: [var("major"), var("minor"), var("patch")], build: [var("bumped_branch")])`

	res, err := newTestPipeline().Run(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "1.5.2+main", res.Output)
}

func TestPipelineVCSSource(t *testing.T) {
	res, err := newTestPipeline().Run(context.Background(), Request{
		Source:         SourceVCS,
		VCSData:        sampleVCSData(),
		OutputTemplate: "{{.major}}.{{.minor}}.{{.patch}}+{{.distance}}.{{.bumped_branch}}.{{.bumped_commit_hash_short}}",
	})
	require.NoError(t, err)

	assert.Equal(t, "1.2.3+5.main.gabcdef", res.Output)
	assert.Equal(t, "template", res.Format)
	assert.True(t, zerv.ContainsVar(res.Zerv.Schema.ExtraCore(), zerv.VarPost), "distance selects the post variant")
	assert.Len(t, res.Zerv.Schema.Build(), 3, "distance adds the context build")
}

func TestPipelineVCSContextOverrides(t *testing.T) {
	res, err := newTestPipeline().Run(context.Background(), Request{
		Source:  SourceVCS,
		VCSData: sampleVCSData(),
		Context: vcs.ContextOverrides{Clean: true},
	})
	require.NoError(t, err)

	assert.Equal(t, "1.2.3", res.Output)
	assert.Empty(t, res.Zerv.Schema.Build())
}

func TestPipelineVarsSkipsOperations(t *testing.T) {
	r := Request{
		Source:  SourceVCS,
		VCSData: sampleVCSData(),
		Context: vcs.ContextOverrides{Dirty: zerv.Ptr(true)},
		Bumps:   map[zerv.Precedence]string{zerv.PrecedenceMajor: ""},
		Custom:  `{"team": "core"}`,
	}
	rec := &countingRecorder{}

	vars, err := newTestPipeline(WithRecorder(rec)).Vars(context.Background(), r)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), *vars.Major, "bumps are not applied")
	assert.Equal(t, uint64(5), *vars.Distance)
	assert.True(t, *vars.Dirty)
	assert.Equal(t, "core", vars.Custom["team"])
	assert.Zero(t, rec.calls)
}

type countingRecorder struct {
	calls int
}

func (r *countingRecorder) Append(_ context.Context, rec store.Record) (store.Record, error) {
	r.calls++
	return rec, nil
}

func TestPipelineVCSWithoutTag(t *testing.T) {
	data := sampleVCSData()
	data.TagVersion = nil

	_, err := newTestPipeline().Run(context.Background(), Request{Source: SourceVCS, VCSData: data})
	require.Error(t, err)
	assert.True(t, errors.Is(err, vcs.ErrNoTagsFound))
}

func TestPipelineNoneSource(t *testing.T) {
	res, err := newTestPipeline().Run(context.Background(), Request{
		Source:         SourceNone,
		OutputTemplate: `{{.semver}} {{format_timestamp .bumped_timestamp "compact_date"}}`,
	})
	require.NoError(t, err)
	assert.Equal(t, "0.0.0 20240105", res.Output)
}

func TestPipelineTemplateOverrides(t *testing.T) {
	r := stdinRequest("1.2.3")
	r.Overrides = map[zerv.Precedence]string{zerv.PrecedencePatch: "{{add .patch 10}}"}

	res, err := newTestPipeline().Run(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "1.2.13", res.Output)
}

func TestPipelineOverrideClearsPreRelease(t *testing.T) {
	r := stdinRequest("1.2.3-beta.4")
	r.Overrides = map[zerv.Precedence]string{zerv.PrecedencePreReleaseLabel: "none"}

	res, err := newTestPipeline().Run(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", res.Output)
}

func TestPipelinePositionalBump(t *testing.T) {
	r := stdinRequest("1.2.3")
	r.Sections = map[zerv.Section]SectionSpecs{
		zerv.SectionCore: {Bumps: []string{"~1"}},
	}

	res, err := newTestPipeline().Run(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "1.2.4", res.Output)
}

func TestPipelineConflictingOverride(t *testing.T) {
	r := stdinRequest("1.2.3")
	r.Overrides = map[zerv.Precedence]string{zerv.PrecedenceMajor: "5"}
	r.Sections = map[zerv.Section]SectionSpecs{
		zerv.SectionCore: {Overrides: []string{"0=6"}},
	}

	_, err := newTestPipeline().Run(context.Background(), r)
	require.Error(t, err)
	assert.True(t, engine.IsConflictingOverride(err))
}

func TestPipelineOutputFormats(t *testing.T) {
	t.Run("prefix", func(t *testing.T) {
		r := stdinRequest("1.2.3")
		r.OutputPrefix = "v"
		res, err := newTestPipeline().Run(context.Background(), r)
		require.NoError(t, err)
		assert.Equal(t, "v1.2.3", res.Output)
		assert.Equal(t, FormatSemVer, res.Format)
	})

	t.Run("zerv document", func(t *testing.T) {
		r := stdinRequest("1.2.3")
		r.OutputFormat = FormatZerv
		res, err := newTestPipeline().Run(context.Background(), r)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(res.Output, "{"))
		assert.False(t, strings.HasSuffix(res.Output, "\n"))

		doc, err := ir.DecodeJSON(strings.NewReader(res.Output))
		require.NoError(t, err)
		assert.Equal(t, res.Fingerprint, ir.MustFingerprint(doc))
	})
}

func TestPipelineStdinDocument(t *testing.T) {
	z := zerv.New(
		zerv.MustSchema([]zerv.Component{zerv.F(zerv.VarMajor), zerv.F(zerv.VarMinor), zerv.F(zerv.VarPatch)},
			[]zerv.Component{zerv.F(zerv.VarPost)}, nil, nil),
		zerv.Vars{Major: zerv.Ptr[uint64](2), Minor: zerv.Ptr[uint64](0), Patch: zerv.Ptr[uint64](1), Post: zerv.Ptr[uint64](3)},
	)
	for _, encoding := range []string{ir.EncodingJSON, ir.EncodingYAML} {
		t.Run(encoding, func(t *testing.T) {
			data, err := ir.Encode(ir.FromZerv(z), encoding)
			require.NoError(t, err)

			r := stdinRequest(string(data))
			r.OutputFormat = FormatPEP440
			r.Bumps = map[zerv.Precedence]string{zerv.PrecedencePost: "2"}
			res, err := newTestPipeline().Run(context.Background(), r)
			require.NoError(t, err)
			assert.Equal(t, "2.0.1.post5", res.Output)
			assert.True(t, res.Zerv.Schema.Equal(z.Schema), "document schema is kept")
		})
	}
}

func TestPipelineCUESchema(t *testing.T) {
	r := stdinRequest("1.2.3")
	r.SchemaName = "release.cue"
	r.SchemaText = `core: [{var: "major"}, {var: "minor"}]`

	res, err := newTestPipeline().Run(context.Background(), r)
	require.NoError(t, err)
	assert.Len(t, res.Zerv.Schema.Core(), 2)
}

func TestPipelineCustomVars(t *testing.T) {
	r := stdinRequest("1.2.3")
	r.Custom = `{"build": {"id": 77}}`
	r.OutputTemplate = "{{.semver}}+b{{.custom.build.id}}"

	res, err := newTestPipeline().Run(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3+b77", res.Output)

	r = stdinRequest("1.2.3")
	r.Custom = `[1]`
	_, err = newTestPipeline().Run(context.Background(), r)
	require.Error(t, err)
}

func TestPipelineRecordsHistory(t *testing.T) {
	ctx := context.Background()
	history, err := store.Open(ctx, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { history.Close() })

	res, err := newTestPipeline(WithRecorder(history)).Run(ctx, stdinRequest("1.2.3"))
	require.NoError(t, err)
	require.NotNil(t, res.Record)

	latest, err := history.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", latest.Output)
	assert.Equal(t, res.Fingerprint, latest.Fingerprint)
	assert.Equal(t, res.Record.ID, latest.ID)
}

func TestRequestValidate(t *testing.T) {
	data := sampleVCSData()
	tests := []struct {
		name string
		req  Request
	}{
		{"unknown source", Request{Source: "svn"}},
		{"vcs without data", Request{Source: SourceVCS}},
		{"stdin without reader", Request{Source: SourceStdin}},
		{"unknown input format", Request{Source: SourceNone, InputFormat: "maven"}},
		{"zerv input outside stdin", Request{Source: SourceVCS, VCSData: data, InputFormat: FormatZerv}},
		{"preset and schema text", Request{Source: SourceNone, Preset: "standard", SchemaText: "(core: [])"}},
		{"template and format", Request{Source: SourceNone, OutputTemplate: "x", OutputFormat: FormatSemVer}},
		{"unknown output format", Request{Source: SourceNone, OutputFormat: "npm"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRequest))
		})
	}

	require.NoError(t, Request{Source: SourceVCS, VCSData: data, InputFormat: "SemVer"}.Validate())
}

func TestRequestValidateContextConflicts(t *testing.T) {
	tests := []struct {
		name  string
		ctx   vcs.ContextOverrides
		field string
	}{
		{"clean with distance", vcs.ContextOverrides{Clean: true, Distance: zerv.Ptr[uint64](3)}, "distance"},
		{"clean with dirty", vcs.ContextOverrides{Clean: true, Dirty: zerv.Ptr(true)}, "dirty"},
		{"dirty without context", vcs.ContextOverrides{NoBumpContext: true, Dirty: zerv.Ptr(true)}, "dirty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := stdinRequest("1.2.3")
			r.Context = tt.ctx

			_, err := newTestPipeline().Run(context.Background(), r)
			require.Error(t, err)
			assert.True(t, engine.IsConflictingOverride(err))
			assert.False(t, errors.Is(err, ErrInvalidRequest))
			assert.Equal(t, tt.field, engine.GetBumpError(err).Field)
		})
	}
}

func TestPipelineErrorsLeaveNoRecord(t *testing.T) {
	ctx := context.Background()
	history, err := store.Open(ctx, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { history.Close() })

	r := stdinRequest("1.2.3")
	r.Bumps = map[zerv.Precedence]string{zerv.PrecedenceEpoch: "x"}
	_, err = newTestPipeline(WithRecorder(history)).Run(ctx, r)
	require.Error(t, err)

	_, err = history.Latest(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
