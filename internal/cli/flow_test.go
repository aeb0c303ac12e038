package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execFlow runs the flow command with opts and returns stdout.
func execFlow(t *testing.T, opts *RootOptions, stdin string, args ...string) (string, error) {
	t.Helper()

	buf := &bytes.Buffer{}
	cmd := NewFlowCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

const flowShape = "{{.major}}.{{.minor}}.{{.patch}}-{{.pre_release.label}}.{{.pre_release.number}}.post{{.post}}"

func TestFlowCommand(t *testing.T) {
	rulesFile := writeFile(t, "rules.yaml", `
- pattern: qa/*
  pre_release_label: beta
  post_mode: commit
`)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "clean tag is the tag",
			args: []string{"--tag-version", "1.2.3", "--bumped-branch", "develop"},
			want: "1.2.3",
		},
		{
			name: "develop",
			args: []string{"--tag-version", "1.2.3", "--distance", "4", "--bumped-branch", "develop",
				"--output-template", flowShape},
			want: "1.2.4-beta.1.post4",
		},
		{
			name: "release branch number",
			args: []string{"--tag-version", "1.2.3", "--distance", "4", "--bumped-branch", "release/2",
				"--no-dirty", "--output-template", flowShape},
			want: "1.2.4-rc.2.post1",
		},
		{
			name: "flags beat rules",
			args: []string{"--tag-version", "1.2.3", "--distance", "4", "--bumped-branch", "develop",
				"--pre-release-label", "rc", "--pre-release-num", "9", "--output-template", flowShape},
			want: "1.2.4-rc.9.post4",
		},
		{
			name: "rules from file",
			args: []string{"--tag-version", "1.2.3", "--distance", "2", "--bumped-branch", "qa/17",
				"--branch-rules-file", rulesFile, "--output-template", flowShape},
			want: "1.2.4-beta.17.post2",
		},
		{
			name: "inline rules",
			args: []string{"--tag-version", "2.0.0", "--distance", "1", "--bumped-branch", "staging",
				"--branch-rules", `[{pattern: staging, pre_release_label: rc, pre_release_num: 3, post_mode: commit}]`,
				"--output-template", flowShape},
			want: "2.0.1-rc.3.post1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execFlow(t, &RootOptions{Format: "text"}, "", tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want+"\n", out)
		})
	}
}

func TestFlowCommandErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{
			name:     "bad label",
			args:     []string{"--pre-release-label", "gamma"},
			wantCode: ExitCommandError,
			wantOut:  ErrCodeInvalidArgs,
		},
		{
			name:     "bad post mode",
			args:     []string{"--post-mode", "weekly"},
			wantCode: ExitCommandError,
			wantOut:  "post mode",
		},
		{
			name:     "hash length out of range",
			args:     []string{"--hash-branch-len", "0"},
			wantCode: ExitCommandError,
			wantOut:  "hash-branch-len",
		},
		{
			name:     "wildcard rule with number",
			args:     []string{"--branch-rules", `[{pattern: qa/*, pre_release_label: rc, pre_release_num: 1, post_mode: tag}]`},
			wantCode: ExitCommandError,
			wantOut:  "wildcard pattern",
		},
		{
			name:     "both rule sources",
			args:     []string{"--branch-rules", "[]", "--branch-rules-file", "rules.yaml"},
			wantCode: ExitCommandError,
			wantOut:  "use only one of",
		},
		{
			name:     "calver schema",
			args:     []string{"--schema", "calver"},
			wantCode: ExitCommandError,
			wantOut:  "standard",
		},
		{
			name:     "clean with distance",
			args:     []string{"--clean", "--distance", "1"},
			wantCode: ExitFailure,
			wantOut:  "CONFLICTING_OVERRIDE",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execFlow(t, &RootOptions{Format: "text"}, "", tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, GetExitCode(err))
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestFlowCommandJSON(t *testing.T) {
	out, err := execFlow(t, &RootOptions{Format: "json"}, "",
		"--tag-version", "1.2.3", "--distance", "3", "--bumped-branch", "release/4", "--output-format", "pep440")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   FlowResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "release/4", resp.Data.Branch)
	assert.Equal(t, "rc", resp.Data.PreReleaseLabel)
	require.NotNil(t, resp.Data.PreReleaseNum)
	assert.Equal(t, uint64(4), *resp.Data.PreReleaseNum)
	assert.Equal(t, "tag", resp.Data.PostMode)
	assert.True(t, resp.Data.Bumped)
	assert.Equal(t, "pep440", resp.Data.Format)
	assert.True(t, strings.HasPrefix(resp.Data.Version, "1.2.4rc4.post1.dev"), resp.Data.Version)
}
