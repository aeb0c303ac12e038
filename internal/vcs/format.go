package vcs

import (
	"fmt"
	"strings"

	"github.com/roach88/zerv/internal/pep440"
	"github.com/roach88/zerv/internal/semver"
	"github.com/roach88/zerv/internal/zerv"
)

// FormatAuto tries SemVer first and falls back to PEP 440.
const FormatAuto = "auto"

// ParseVersion parses version text in the named format and returns the
// decoded Zerv together with the format that matched.
func ParseVersion(text, format string) (*zerv.Zerv, string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case semver.FormatName:
		v, err := semver.Parse(text)
		if err != nil {
			return nil, "", err
		}
		return semver.ToZerv(v), semver.FormatName, nil
	case pep440.FormatName:
		v, err := pep440.Parse(text)
		if err != nil {
			return nil, "", err
		}
		return pep440.ToZerv(v), pep440.FormatName, nil
	case FormatAuto, "":
		if v, err := semver.Parse(text); err == nil {
			return semver.ToZerv(v), semver.FormatName, nil
		}
		if v, err := pep440.Parse(text); err == nil {
			return pep440.ToZerv(v), pep440.FormatName, nil
		}
		return nil, "", fmt.Errorf("version %q is neither SemVer nor PEP 440", text)
	}
	return nil, "", fmt.Errorf("unknown input format %q (supported: %s, %s, %s)",
		format, FormatAuto, semver.FormatName, pep440.FormatName)
}
