package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/zerv/internal/config"
	"github.com/roach88/zerv/internal/engine"
	"github.com/roach88/zerv/internal/ir"
	"github.com/roach88/zerv/internal/store"
)

const sampleVCSJSON = `{
  "tag_version": "v1.2.3",
  "distance": 5,
  "dirty": false,
  "branch": "main",
  "commit_hash": "abcdef1234567890",
  "commit_hash_prefix": "g",
  "commit_timestamp": 1704423845
}`

// execVersion runs the version command with opts and returns stdout.
func execVersion(t *testing.T, opts *RootOptions, stdin string, args ...string) (string, error) {
	t.Helper()

	buf := &bytes.Buffer{}
	cmd := NewVersionCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestVersionCommand(t *testing.T) {
	vcsFile := writeFile(t, "repo.json", sampleVCSJSON)

	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{
			name: "bump minor resets patch",
			args: []string{"--tag-version", "1.2.3", "--bump-minor"},
			want: "1.3.0",
		},
		{
			name: "bump by value",
			args: []string{"--tag-version", "1.2.3", "--bump-major=2"},
			want: "3.0.0",
		},
		{
			name: "no source yields zero version",
			args: nil,
			want: "0.0.0",
		},
		{
			name:  "stdin converted to pep440",
			stdin: "1.2.3-rc.1\n",
			args:  []string{"--source", "stdin", "--output-format", "pep440"},
			want:  "1.2.3rc1",
		},
		{
			name: "vcs data file with template",
			args: []string{
				"--vcs-data", vcsFile,
				"--output-template", "{{.major}}.{{.minor}}.{{.patch}}+{{.distance}}.{{.bumped_branch}}.{{.bumped_commit_hash_short}}",
			},
			want: "1.2.3+5.main.gabcdef",
		},
		{
			name:  "vcs data from stdin made clean",
			stdin: sampleVCSJSON,
			args:  []string{"--vcs-data", "-", "--clean"},
			want:  "1.2.3",
		},
		{
			name: "output prefix",
			args: []string{"--tag-version", "1.2.3", "--output-prefix", "v"},
			want: "v1.2.3",
		},
		{
			name: "template override",
			args: []string{"--tag-version", "1.2.3", "--patch", "{{add .patch 10}}"},
			want: "1.2.13",
		},
		{
			name: "override clears pre-release",
			args: []string{"--tag-version", "1.2.3-beta.4", "--pre-release-label", "none"},
			want: "1.2.3",
		},
		{
			name: "positional bump from the end",
			args: []string{"--tag-version", "1.2.3", "--bump-core", "~1"},
			want: "1.2.4",
		},
		{
			name: "custom vars",
			args: []string{"--tag-version", "1.2.3", "--custom", `{"build": {"id": 77}}`, "--output-template", "{{.semver}}+b{{.custom.build.id}}"},
			want: "1.2.3+b77",
		},
		{
			name: "schema text keeps build",
			args: []string{
				"--tag-version", "1.5.2", "--bumped-branch", "main",
				"--schema-text", `(core: [var("major"), var("minor"), var("patch")], build: [var("bumped_branch")])`,
			},
			want: "1.5.2+main",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execVersion(t, &RootOptions{Format: "text"}, tt.stdin, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want+"\n", out)
		})
	}
}

func TestVersionCommandErrors(t *testing.T) {
	tests := []struct {
		name     string
		stdin    string
		args     []string
		exitCode int
		code     string
		contains string
	}{
		{
			name:     "clean with distance",
			args:     []string{"--clean", "--distance", "3"},
			exitCode: ExitFailure,
			code:     string(engine.ErrCodeConflictingOverride),
			contains: "cannot use --clean with --distance",
		},
		{
			name:     "clean with dirty",
			args:     []string{"--clean", "--dirty"},
			exitCode: ExitFailure,
			code:     string(engine.ErrCodeConflictingOverride),
			contains: "field=dirty",
		},
		{
			name:     "dirty and no-dirty",
			args:     []string{"--dirty", "--no-dirty"},
			exitCode: ExitCommandError,
			code:     ErrCodeInvalidArgs,
			contains: "--no-dirty",
		},
		{
			name:     "two schema sources",
			args:     []string{"--schema", "standard", "--schema-text", `(core: [var("major")])`},
			exitCode: ExitCommandError,
			code:     ErrCodeInvalidArgs,
			contains: "only one of",
		},
		{
			name:     "template and format",
			args:     []string{"--output-template", "{{.major}}", "--output-format", "pep440"},
			exitCode: ExitCommandError,
			code:     ErrCodeInvalidArgs,
			contains: "output template",
		},
		{
			name:     "unknown source",
			args:     []string{"--source", "git"},
			exitCode: ExitCommandError,
			code:     ErrCodeInvalidArgs,
			contains: "unknown source",
		},
		{
			name:     "stdin claimed twice",
			args:     []string{"--source", "stdin", "--vcs-data", "-"},
			exitCode: ExitCommandError,
			code:     ErrCodeInvalidArgs,
			contains: "--vcs-data -",
		},
		{
			name:     "missing vcs data file",
			args:     []string{"--vcs-data", filepath.Join(t.TempDir(), "missing.json")},
			exitCode: ExitCommandError,
			code:     ErrCodeInvalidArgs,
			contains: "open vcs data",
		},
		{
			name:     "conflicting override",
			args:     []string{"--tag-version", "1.2.3", "--major", "5", "--core", "0=6"},
			exitCode: ExitFailure,
			code:     "CONFLICTING_OVERRIDE",
		},
		{
			name:     "bad schema text",
			args:     []string{"--tag-version", "1.2.3", "--schema-text", `(core: [var("nope")])`},
			exitCode: ExitFailure,
			code:     "E007",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execVersion(t, &RootOptions{Format: "text"}, tt.stdin, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.exitCode, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.code+"]")
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestVersionCommandJSON(t *testing.T) {
	out, err := execVersion(t, &RootOptions{Format: "json"}, "", "--tag-version", "1.2.3", "--bump-minor")
	require.NoError(t, err)

	var resp struct {
		Status  string        `json:"status"`
		Data    VersionResult `json:"data"`
		TraceID string        `json:"trace_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.3.0", resp.Data.Version)
	assert.Equal(t, "semver", resp.Data.Format)
	assert.Len(t, resp.Data.Fingerprint, 64)
	assert.Empty(t, resp.Data.RecordID)
	assert.NotEmpty(t, resp.TraceID)
}

func TestVersionCommandJSONError(t *testing.T) {
	out, err := execVersion(t, &RootOptions{Format: "json"}, "", "--clean", "--distance", "1")
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(engine.ErrCodeConflictingOverride), resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "field=distance")
}

func TestVersionCommandZervOutput(t *testing.T) {
	schema := writeFile(t, "release.cue", `core: [{var: "major"}, {var: "minor"}]`)

	out, err := execVersion(t, &RootOptions{Format: "text"}, "",
		"--tag-version", "1.2.3", "--schema-file", schema, "--output-format", "zerv")
	require.NoError(t, err)

	doc, err := ir.DecodeJSON(strings.NewReader(out))
	require.NoError(t, err)
	assert.Len(t, doc.Schema.Core, 2)
	require.NotNil(t, doc.Vars.Minor)
	assert.Equal(t, uint64(2), *doc.Vars.Minor)
}

func TestVersionCommandRecord(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	out, err := execVersion(t, &RootOptions{Format: "json"}, "", "--tag-version", "1.2.3", "--record", db)
	require.NoError(t, err)

	var resp struct {
		Data VersionResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotEmpty(t, resp.Data.RecordID)

	ctx := context.Background()
	st, err := store.Open(ctx, db)
	require.NoError(t, err)
	defer st.Close()

	latest, err := st.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", latest.Output)
	assert.Equal(t, resp.Data.RecordID, latest.ID.String())
	assert.Equal(t, resp.Data.Fingerprint, latest.Fingerprint)
}

func TestVersionCommandConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		args []string
		want string
	}{
		{
			name: "config output format",
			cfg:  config.Config{OutputFormat: "pep440"},
			args: []string{"--tag-version", "1.2.3-rc.1"},
			want: "1.2.3rc1",
		},
		{
			name: "config template",
			cfg:  config.Config{Template: "{{.major}}.{{.minor}}"},
			args: []string{"--tag-version", "1.2.3"},
			want: "1.2",
		},
		{
			name: "flag format beats config template",
			cfg:  config.Config{Template: "{{.major}}.{{.minor}}"},
			args: []string{"--tag-version", "1.2.3", "--output-format", "semver"},
			want: "1.2.3",
		},
		{
			name: "config schema text",
			cfg:  config.Config{Schema: `(core: [var("major"), var("minor"), var("patch")], build: [var("bumped_branch")])`},
			args: []string{"--tag-version", "1.2.3", "--bumped-branch", "dev"},
			want: "1.2.3+dev",
		},
		{
			name: "flag schema beats config schema",
			cfg:  config.Config{Schema: `(core: [var("major"), var("minor"), var("patch")], build: [var("bumped_branch")])`},
			args: []string{"--tag-version", "1.2.3", "--bumped-branch", "dev", "--schema", "standard"},
			want: "1.2.3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			out, err := execVersion(t, &RootOptions{Format: "text", Config: &cfg}, "", tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want+"\n", out)
		})
	}
}

func TestFlagName(t *testing.T) {
	cmd := NewVersionCommand(&RootOptions{Format: "text"})
	assert.NotNil(t, cmd.Flags().Lookup("pre-release-num"))
	assert.NotNil(t, cmd.Flags().Lookup("bump-epoch"))
	assert.Nil(t, cmd.Flags().Lookup("pre_release_num"))
}
