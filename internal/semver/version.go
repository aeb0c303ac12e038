package semver

import (
	"errors"
	"fmt"
	"strings"

	bsemver "github.com/blang/semver/v4"
)

// ErrInvalidVersion is returned when text is not a SemVer version.
var ErrInvalidVersion = errors.New("invalid SemVer version")

// Version is a parsed SemVer version.
type Version = bsemver.Version

// Parse parses a SemVer string. A leading "v" or "V" is accepted.
func Parse(s string) (*Version, error) {
	text := strings.TrimSpace(s)
	text = strings.TrimPrefix(strings.TrimPrefix(text, "v"), "V")
	v, err := bsemver.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, s, err)
	}
	return &v, nil
}

// Labeled pre-release identifiers for fields SemVer cannot express.
const (
	labelEpoch = "epoch"
	labelPost  = "post"
	labelDev   = "dev"
)

// Compare parses a and b and orders them by SemVer precedence, returning
// -1, 0, or +1. Build metadata does not take part in the ordering.
func Compare(a, b string) (int, error) {
	va, err := Parse(a)
	if err != nil {
		return 0, err
	}
	vb, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return va.Compare(*vb), nil
}
