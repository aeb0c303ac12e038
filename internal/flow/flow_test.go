package flow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/zerv/internal/pipeline"
	"github.com/roach88/zerv/internal/vcs"
	"github.com/roach88/zerv/internal/zerv"
)

const flowUnix int64 = 1704423845

const shape = "{{.major}}.{{.minor}}.{{.patch}}-{{.pre_release.label}}.{{.pre_release.number}}.post{{.post}}.dev{{.dev}}"

func newTestPipeline() *pipeline.Pipeline {
	return pipeline.New(pipeline.WithClock(pipeline.UnixClock(flowUnix)))
}

func vcsRequest(branch string, distance uint64, dirty bool) pipeline.Request {
	return pipeline.Request{
		Source: pipeline.SourceVCS,
		VCSData: &vcs.Data{
			TagVersion:      zerv.Ptr("v1.2.3"),
			Distance:        distance,
			Dirty:           dirty,
			Branch:          zerv.Ptr(branch),
			CommitHash:      "abcdef1234567890",
			CommitTimestamp: flowUnix,
		},
		OutputTemplate: shape,
	}
}

func TestPlanCleanTagHasNoBumps(t *testing.T) {
	vars := zerv.Vars{
		Major: zerv.Ptr[uint64](1), Minor: zerv.Ptr[uint64](0), Patch: zerv.Ptr[uint64](0),
		Distance: zerv.Ptr[uint64](0), Dirty: zerv.Ptr(false), BumpedBranch: zerv.Ptr("release/2"),
	}
	plan := DefaultOptions().Plan(vars, false)

	assert.Empty(t, plan.Bumps)
	assert.False(t, plan.MarkDirty)
	assert.Equal(t, zerv.Rc, plan.Resolved.Label)
}

func TestPlanBumps(t *testing.T) {
	base := func() zerv.Vars {
		return zerv.Vars{
			Major: zerv.Ptr[uint64](1), Minor: zerv.Ptr[uint64](2), Patch: zerv.Ptr[uint64](3),
			Distance: zerv.Ptr[uint64](4), Dirty: zerv.Ptr(false), BumpedTimestamp: zerv.Ptr(flowUnix),
		}
	}

	t.Run("develop counts commits", func(t *testing.T) {
		vars := base()
		vars.BumpedBranch = zerv.Ptr("develop")
		plan := DefaultOptions().Plan(vars, false)

		assert.Equal(t, map[zerv.Precedence]string{
			zerv.PrecedencePatch:           "1",
			zerv.PrecedencePreReleaseLabel: "beta",
			zerv.PrecedencePreReleaseNum:   "1",
			zerv.PrecedencePost:            "4",
		}, plan.Bumps)
		assert.False(t, plan.MarkDirty)
	})

	t.Run("release counts builds and marks dirty", func(t *testing.T) {
		vars := base()
		vars.BumpedBranch = zerv.Ptr("release/5")
		plan := DefaultOptions().Plan(vars, false)

		assert.True(t, plan.MarkDirty)
		assert.Equal(t, "rc", plan.Bumps[zerv.PrecedencePreReleaseLabel])
		assert.Equal(t, "5", plan.Bumps[zerv.PrecedencePreReleaseNum])
		assert.Equal(t, "1", plan.Bumps[zerv.PrecedencePost])
		assert.Equal(t, "1704423845", plan.Bumps[zerv.PrecedenceDev])
	})

	t.Run("explicit dirty state is kept", func(t *testing.T) {
		vars := base()
		vars.BumpedBranch = zerv.Ptr("release/5")
		plan := DefaultOptions().Plan(vars, true)

		assert.False(t, plan.MarkDirty)
		assert.NotContains(t, plan.Bumps, zerv.PrecedenceDev)
	})

	t.Run("unmatched branch hashes the number", func(t *testing.T) {
		vars := base()
		vars.BumpedBranch = zerv.Ptr("feature/login")
		opts := DefaultOptions()
		opts.HashBranchLen = 3
		plan := opts.Plan(vars, false)

		assert.Equal(t, "alpha", plan.Bumps[zerv.PrecedencePreReleaseLabel])
		assert.Equal(t, "{{hash_int .bumped_branch 3}}", plan.Bumps[zerv.PrecedencePreReleaseNum])
	})

	t.Run("pre-release tag keeps patch", func(t *testing.T) {
		vars := base()
		vars.PreRelease = &zerv.PreRelease{Label: zerv.Beta, Number: zerv.Ptr[uint64](2)}
		plan := DefaultOptions().Plan(vars, false)

		assert.NotContains(t, plan.Bumps, zerv.PrecedencePatch)
	})

	t.Run("flags beat rules", func(t *testing.T) {
		vars := base()
		vars.BumpedBranch = zerv.Ptr("develop")
		opts := DefaultOptions()
		opts.Label = zerv.Ptr(zerv.Rc)
		opts.Number = zerv.Ptr[uint64](7)
		opts.PostMode = PostModeTag
		plan := opts.Plan(vars, false)

		assert.Equal(t, "rc", plan.Bumps[zerv.PrecedencePreReleaseLabel])
		assert.Equal(t, "7", plan.Bumps[zerv.PrecedencePreReleaseNum])
		assert.Equal(t, "1", plan.Bumps[zerv.PrecedencePost])
		assert.True(t, plan.MarkDirty)
	})
}

func TestOptionsValidate(t *testing.T) {
	opts := DefaultOptions()
	require.NoError(t, opts.Validate())

	opts.HashBranchLen = 11
	assert.True(t, errors.Is(opts.Validate(), ErrInvalidRules))

	opts = DefaultOptions()
	opts.PostMode = "hourly"
	assert.True(t, errors.Is(opts.Validate(), ErrInvalidRules))

	opts = DefaultOptions()
	opts.Rules = Rules{{Pattern: "develop", PreReleaseLabel: "beta", PostMode: PostModeCommit}}
	assert.True(t, errors.Is(opts.Validate(), ErrInvalidRules))
}

func TestRun(t *testing.T) {
	tests := []struct {
		name string
		req  pipeline.Request
		want string
	}{
		{
			name: "develop",
			req:  vcsRequest("develop", 4, false),
			want: "1.2.4-beta.1.post4.dev",
		},
		{
			name: "release branch",
			req:  vcsRequest("release/3", 4, false),
			want: "1.2.4-rc.3.post1.dev1704423845",
		},
		{
			name: "dirty develop",
			req:  vcsRequest("develop", 0, true),
			want: "1.2.4-beta.1.post0.dev1704423845",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, plan, err := Run(context.Background(), newTestPipeline(), tt.req, DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Output)
			assert.NotEmpty(t, plan.Bumps)
		})
	}
}

func TestRunCleanTag(t *testing.T) {
	req := vcsRequest("release/3", 4, true)
	req.OutputTemplate = ""
	req.Context = vcs.ContextOverrides{Clean: true}

	res, plan, err := Run(context.Background(), newTestPipeline(), req, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", res.Output)
	assert.Empty(t, plan.Bumps)
}

func TestRunReadsStdinOnce(t *testing.T) {
	req := pipeline.Request{
		Source: pipeline.SourceStdin,
		Stdin:  strings.NewReader("2.0.0-beta.2"),
		Context: vcs.ContextOverrides{
			Distance: zerv.Ptr[uint64](3),
			Branch:   zerv.Ptr("develop"),
		},
		OutputFormat: pipeline.FormatPEP440,
	}

	res, _, err := Run(context.Background(), newTestPipeline(), req, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Output, "2.0.0b1.post3"), res.Output)
}

func TestRunDropsCallerBumps(t *testing.T) {
	req := vcsRequest("develop", 0, false)
	req.OutputTemplate = ""
	req.Bumps = map[zerv.Precedence]string{zerv.PrecedenceMajor: ""}

	res, _, err := Run(context.Background(), newTestPipeline(), req, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", res.Output)
}

func TestRunRejectsOtherSchemas(t *testing.T) {
	tests := map[string]pipeline.Request{
		"calver preset": {Source: pipeline.SourceNone, Preset: "calver"},
		"unknown":       {Source: pipeline.SourceNone, Preset: "nightly"},
		"schema text":   {Source: pipeline.SourceNone, SchemaText: `(core: [var("major")])`},
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := Run(context.Background(), newTestPipeline(), req, DefaultOptions())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRules))
		})
	}
}
