package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/zerv/internal/pep440"
	"github.com/roach88/zerv/internal/semver"
	"github.com/roach88/zerv/internal/vcs"
)

// CheckResult reports which formats accept a version.
type CheckResult struct {
	Version string `json:"version"`
	// Normalized maps format name to the canonical rendering.
	Normalized map[string]string `json:"normalized"`
	// NewerThan is the baseline the version was ordered against.
	NewerThan string `json:"newer_than,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	var inputFormat, newerThan string

	cmd := &cobra.Command{
		Use:   "check <version>",
		Short: "Check that a version string is valid",
		Long: `Check a version string against SemVer, PEP 440, or both.

With --input-format auto (the default) the version passes if either
format accepts it, and every accepting format is listed.

Exit codes:
  0 - Valid version
  1 - Invalid version, or not newer than --newer-than
  2 - Unknown format

Examples:
  zerv check 1.2.3-rc.1
  zerv check 1.0.0.post2 --input-format pep440
  zerv check 1.3.0-rc.1 --newer-than 1.2.9`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], inputFormat, newerThan, cmd)
		},
	}

	cmd.Flags().StringVar(&inputFormat, "input-format", vcs.FormatAuto, "format to check against (auto|semver|pep440)")
	cmd.Flags().StringVar(&newerThan, "newer-than", "", "also require the version to sort after this one")
	return cmd
}

func runCheck(opts *RootOptions, version, format, newerThan string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	result := CheckResult{Version: version, Normalized: map[string]string{}}

	checkPEP440 := func() bool {
		v, err := pep440.Parse(version)
		if err != nil {
			formatter.VerboseLog("pep440: %v", err)
			return false
		}
		result.Normalized[pep440.FormatName] = v.String()
		return true
	}
	checkSemVer := func() bool {
		v, err := semver.Parse(version)
		if err != nil {
			formatter.VerboseLog("semver: %v", err)
			return false
		}
		result.Normalized[semver.FormatName] = v.String()
		return true
	}

	var valid bool
	switch strings.ToLower(format) {
	case pep440.FormatName:
		valid = checkPEP440()
	case semver.FormatName:
		valid = checkSemVer()
	case vcs.FormatAuto, "":
		p, s := checkPEP440(), checkSemVer()
		valid = p || s
	default:
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArgs,
			fmt.Errorf("unknown format %q (supported: %s, %s, %s)",
				format, vcs.FormatAuto, semver.FormatName, pep440.FormatName))
	}

	if !valid {
		return formatter.Fail(ExitFailure, ErrCodeInvalidVersion, fmt.Errorf("invalid version: %s", version))
	}

	if newerThan != "" {
		c, used, err := compareVersions(version, newerThan, result.Normalized)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeInvalidVersion, err)
		}
		formatter.VerboseLog("%s: %s vs %s = %d", used, version, newerThan, c)
		if c <= 0 {
			return formatter.Fail(ExitFailure, ErrCodeNotNewer,
				fmt.Errorf("%s is not newer than %s (%s ordering)", version, newerThan, used))
		}
		result.NewerThan = newerThan
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	if _, ok := result.Normalized[pep440.FormatName]; ok {
		fmt.Fprintln(formatter.Writer, "✓ Valid PEP440 version")
	}
	if _, ok := result.Normalized[semver.FormatName]; ok {
		fmt.Fprintln(formatter.Writer, "✓ Valid SemVer version")
	}
	if result.NewerThan != "" {
		fmt.Fprintf(formatter.Writer, "✓ Newer than %s\n", result.NewerThan)
	}
	return nil
}

// compareVersions orders version against base in the first format that
// accepted version and also parses base, SemVer first.
func compareVersions(version, base string, accepted map[string]string) (int, string, error) {
	if _, ok := accepted[semver.FormatName]; ok {
		if c, err := semver.Compare(version, base); err == nil {
			return c, semver.FormatName, nil
		}
	}
	if _, ok := accepted[pep440.FormatName]; ok {
		v, err := pep440.Parse(version)
		if err != nil {
			return 0, "", err
		}
		if b, err := pep440.Parse(base); err == nil {
			return v.Compare(*b), pep440.FormatName, nil
		}
	}
	return 0, "", fmt.Errorf("invalid version: %s cannot be ordered against %s", base, version)
}
