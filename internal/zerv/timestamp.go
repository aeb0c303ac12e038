package zerv

import (
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/strftime"
)

// Timestamp presets.
const (
	PresetCompactDate     = "compact_date"
	PresetCompactDateTime = "compact_datetime"
)

var timestampPresets = map[string]string{
	PresetCompactDate:     "%Y%m%d",
	PresetCompactDateTime: "%Y%m%d%H%M%S",
}

// timestampUnit maps a unit token to a zero-padded strftime directive.
// Unpadded tokens reuse the directive and trim leading zeros.
type timestampUnit struct {
	token     string
	directive string
	padded    bool
}

// Longest tokens first so YYYY wins over YY.
var timestampUnits = []timestampUnit{
	{"YYYY", "%Y", true},
	{"YY", "%y", true},
	{"MM", "%m", false},
	{"0M", "%m", true},
	{"DD", "%d", false},
	{"0D", "%d", true},
	{"HH", "%H", false},
	{"0H", "%H", true},
	{"mm", "%M", false},
	{"0m", "%M", true},
	{"SS", "%S", false},
	{"0S", "%S", true},
	{"WW", "%W", false},
	{"0W", "%W", true},
}

// tokenizeTimestamp splits a unit-token pattern such as "YYYY0M".
func tokenizeTimestamp(pattern string) ([]timestampUnit, error) {
	var units []timestampUnit
	rest := pattern
	for rest != "" {
		matched := false
		for _, u := range timestampUnits {
			if strings.HasPrefix(rest, u.token) {
				units = append(units, u)
				rest = rest[len(u.token):]
				matched = true
				break
			}
		}
		if !matched {
			return nil, fmt.Errorf("invalid timestamp pattern %q: unexpected %q", pattern, rest)
		}
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("invalid timestamp pattern: empty")
	}
	return units, nil
}

// ValidateTimestampPattern reports whether pattern is a unit-token
// sequence, a preset, or a raw strftime pattern starting with '%'.
func ValidateTimestampPattern(pattern string) error {
	if _, ok := timestampPresets[pattern]; ok {
		return nil
	}
	if strings.HasPrefix(pattern, "%") {
		if _, err := strftime.New(pattern); err != nil {
			return fmt.Errorf("invalid strftime pattern %q: %w", pattern, err)
		}
		return nil
	}
	_, err := tokenizeTimestamp(pattern)
	return err
}

// FormatTimestamp renders unix seconds in UTC with pattern.
func FormatTimestamp(unix int64, pattern string) (string, error) {
	t := time.Unix(unix, 0).UTC()

	if preset, ok := timestampPresets[pattern]; ok {
		return strftime.Format(preset, t)
	}
	if strings.HasPrefix(pattern, "%") {
		return strftime.Format(pattern, t)
	}

	units, err := tokenizeTimestamp(pattern)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, u := range units {
		s, err := strftime.Format(u.directive, t)
		if err != nil {
			return "", err
		}
		if !u.padded {
			s = trimLeadingZeros(s)
		}
		sb.WriteString(s)
	}
	return sb.String(), nil
}

// trimLeadingZeros strips leading zeros, keeping a single "0".
func trimLeadingZeros(s string) string {
	t := strings.TrimLeft(s, "0")
	if t == "" && s != "" {
		return "0"
	}
	return t
}
