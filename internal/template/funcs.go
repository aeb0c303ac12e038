package template

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/zerv/internal/zerv"
)

const (
	defaultHashLength   = 7
	defaultPrefixLength = 10
	defaultTimeFormat   = "%Y-%m-%d"
)

func funcMap() map[string]any {
	return map[string]any{
		"add":              add,
		"sanitize":         sanitize,
		"hash":             hash,
		"hash_int":         hashInt,
		"prefix":           prefix,
		"format_timestamp": formatTimestamp,
	}
}

func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

func toUint(v any) (uint64, error) {
	switch val := v.(type) {
	case uint64:
		return val, nil
	case int:
		if val < 0 {
			return 0, fmt.Errorf("negative value %d", val)
		}
		return uint64(val), nil
	case int64:
		if val < 0 {
			return 0, fmt.Errorf("negative value %d", val)
		}
		return uint64(val), nil
	case json.Number:
		return strconv.ParseUint(val.String(), 10, 64)
	case string:
		if val == "" {
			return 0, fmt.Errorf("value is absent")
		}
		return strconv.ParseUint(val, 10, 64)
	}
	return 0, fmt.Errorf("cannot use %T as a number", v)
}

func toInt64(v any) (int64, error) {
	switch val := v.(type) {
	case int64:
		return val, nil
	case int:
		return int64(val), nil
	case uint64:
		return int64(val), nil
	case json.Number:
		return val.Int64()
	case string:
		if val == "" {
			return 0, fmt.Errorf("timestamp is absent")
		}
		return strconv.ParseInt(val, 10, 64)
	}
	return 0, fmt.Errorf("cannot use %T as a timestamp", v)
}

// optionalLength reads an optional trailing length argument.
func optionalLength(args []int, def int) int {
	if len(args) > 0 && args[0] > 0 {
		return args[0]
	}
	return def
}

func add(a, b any) (uint64, error) {
	x, err := toUint(a)
	if err != nil {
		return 0, fmt.Errorf("add: %w", err)
	}
	y, err := toUint(b)
	if err != nil {
		return 0, fmt.Errorf("add: %w", err)
	}
	return x + y, nil
}

// sanitize cleans a value for a grammar. The preset defaults to semver.
func sanitize(value any, preset ...string) (string, error) {
	name := "semver"
	if len(preset) > 0 {
		name = preset[0]
	}
	var s zerv.Sanitizer
	switch strings.ToLower(name) {
	case "semver", "semver_str", "dotted":
		s = zerv.SemVerSanitizer
	case "pep440", "pep440_local_str", "lower_dotted":
		s = zerv.PEP440LocalSanitizer
	case "uint":
		s = zerv.UIntSanitizer
	case "key":
		s = zerv.KeySanitizer
	default:
		return "", fmt.Errorf("sanitize: unknown preset %q", name)
	}
	return s.Sanitize(toString(value)), nil
}

// hash returns a hex SHA-256 prefix of value.
func hash(value any, length ...int) string {
	sum := sha256.Sum256([]byte(toString(value)))
	return truncate(hex.EncodeToString(sum[:]), optionalLength(length, defaultHashLength))
}

// hashInt returns a decimal prefix derived from the SHA-256 of value.
func hashInt(value any, length ...int) string {
	sum := sha256.Sum256([]byte(toString(value)))
	n := binary.BigEndian.Uint64(sum[:8])
	return truncate(strconv.FormatUint(n, 10), optionalLength(length, defaultHashLength))
}

func prefix(value any, length ...int) string {
	return truncate(toString(value), optionalLength(length, defaultPrefixLength))
}

// formatTimestamp formats unix seconds in UTC. The format accepts the
// schema timestamp vocabulary: unit tokens, presets, or strftime.
func formatTimestamp(value any, format ...string) (string, error) {
	ts, err := toInt64(value)
	if err != nil {
		return "", fmt.Errorf("format_timestamp: %w", err)
	}
	pattern := defaultTimeFormat
	if len(format) > 0 && format[0] != "" {
		pattern = format[0]
	}
	out, err := zerv.FormatTimestamp(ts, pattern)
	if err != nil {
		return "", fmt.Errorf("format_timestamp: %w", err)
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
