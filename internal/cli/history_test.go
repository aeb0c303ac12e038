package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/zerv/internal/config"
)

func execHistory(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()

	buf := &bytes.Buffer{}
	cmd := NewHistoryCommand(opts)
	cmd.SetOut(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// recordVersions appends one version per tag to the database at db.
func recordVersions(t *testing.T, db string, tags ...string) {
	t.Helper()
	for _, tag := range tags {
		_, err := execVersion(t, &RootOptions{Format: "text"}, "", "--tag-version", tag, "--bumped-timestamp", "1704423845", "--record", db)
		require.NoError(t, err)
	}
}

func TestHistoryList(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	recordVersions(t, db, "1.0.0", "1.1.0", "1.2.0")

	out, err := execHistory(t, &RootOptions{Format: "text"}, "--db", db)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[0], "1.2.0"), "newest first: %q", lines[0])
	assert.True(t, strings.HasSuffix(lines[2], "1.0.0"))
}

func TestHistoryListLimitJSON(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	recordVersions(t, db, "1.0.0", "1.1.0", "1.2.0")

	out, err := execHistory(t, &RootOptions{Format: "json"}, "--db", db, "--limit", "2")
	require.NoError(t, err)

	var resp struct {
		Data struct {
			Versions []HistoryEntry `json:"versions"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Versions, 2)
	assert.Equal(t, "1.2.0", resp.Data.Versions[0].Output)
	assert.Equal(t, "1.1.0", resp.Data.Versions[1].Output)
	assert.Greater(t, resp.Data.Versions[0].Seq, resp.Data.Versions[1].Seq)
	assert.Nil(t, resp.Data.Versions[0].Document)
}

func TestHistoryByFingerprint(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	recordVersions(t, db, "1.0.0", "2.0.0", "1.0.0")

	out, err := execHistory(t, &RootOptions{Format: "json"}, "--db", db, "--limit", "1")
	require.NoError(t, err)
	var latest struct {
		Data struct {
			Versions []HistoryEntry `json:"versions"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &latest))
	require.Len(t, latest.Data.Versions, 1)
	fp := latest.Data.Versions[0].Fingerprint

	out, err = execHistory(t, &RootOptions{Format: "json"}, "--db", db, "--fingerprint", fp)
	require.NoError(t, err)
	var matches struct {
		Data struct {
			Versions []HistoryEntry `json:"versions"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &matches))
	require.Len(t, matches.Data.Versions, 2)
	for _, v := range matches.Data.Versions {
		assert.Equal(t, "1.0.0", v.Output)
	}
}

func TestHistoryEmpty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	out, err := execHistory(t, &RootOptions{Format: "text"}, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No versions recorded.")
}

func TestHistoryDBFromConfig(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	recordVersions(t, db, "3.1.4")

	cfg := config.Default()
	cfg.HistoryDB = db
	out, err := execHistory(t, &RootOptions{Format: "text", Config: cfg})
	require.NoError(t, err)
	assert.Contains(t, out, "3.1.4")
}

func TestHistoryNoDatabase(t *testing.T) {
	out, err := execHistory(t, &RootOptions{Format: "text"})
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeStore+"]")
	assert.Contains(t, out, "no history database")
}

func TestHistoryShow(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	recordVersions(t, db, "1.0.0", "1.2.3-rc.1")

	out, err := execHistory(t, &RootOptions{Format: "text"}, "--db", db, "show", "latest")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:     1.2.3-rc.1")
	assert.Contains(t, out, "schema:")
	assert.Contains(t, out, "label: rc")

	out, err = execHistory(t, &RootOptions{Format: "json"}, "--db", db, "show", "latest")
	require.NoError(t, err)
	var resp struct {
		Data HistoryEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Data.Document)

	out, err = execHistory(t, &RootOptions{Format: "text"}, "--db", db, "show", resp.Data.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "ID:          "+resp.Data.ID)
}

func TestHistoryShowErrors(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	tests := []struct {
		name     string
		ref      string
		exitCode int
		code     string
	}{
		{"empty history", "latest", ExitFailure, ErrCodeNotFound},
		{"unknown id", "8c4f1f4e-9a52-4d0e-a8a8-2d1c8f3b6a11", ExitFailure, ErrCodeNotFound},
		{"malformed id", "not-a-uuid", ExitCommandError, ErrCodeInvalidArgs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execHistory(t, &RootOptions{Format: "text"}, "--db", db, "show", tt.ref)
			require.Error(t, err)
			assert.Equal(t, tt.exitCode, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}
