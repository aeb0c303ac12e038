package zerv

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// SanitizerKind selects the cleaning rules of a target grammar.
type SanitizerKind int

const (
	// SanitizeUInt keeps only unsigned integers, without leading zeros.
	SanitizeUInt SanitizerKind = iota
	// SanitizePEP440Local produces dot-separated lowercase alphanumerics.
	SanitizePEP440Local
	// SanitizeSemVer produces dot-separated SemVer identifiers.
	SanitizeSemVer
	// SanitizeKey produces lowercase dot-separated keys.
	SanitizeKey
)

// Sanitizer cleans resolved values for one grammar. It is a pure value.
type Sanitizer struct {
	Kind SanitizerKind
}

var (
	UIntSanitizer        = Sanitizer{Kind: SanitizeUInt}
	PEP440LocalSanitizer = Sanitizer{Kind: SanitizePEP440Local}
	SemVerSanitizer      = Sanitizer{Kind: SanitizeSemVer}
	KeySanitizer         = Sanitizer{Kind: SanitizeKey}
)

// Sanitize cleans value. An empty result means nothing survived.
func (s Sanitizer) Sanitize(value string) string {
	switch s.Kind {
	case SanitizeUInt:
		return sanitizeUInt(value)
	case SanitizePEP440Local:
		return joinSegments(norm.NFC.String(lowerString(value)), isLowerAlnum, true)
	case SanitizeSemVer:
		return joinSegments(norm.NFC.String(value), isSemVerIdentChar, true)
	default:
		return joinSegments(norm.NFC.String(lowerString(value)), isKeyChar, false)
	}
}

// Label returns the pre-release label spelling for the grammar.
func (s Sanitizer) Label(l PreReleaseLabel) string {
	if s.Kind == SanitizePEP440Local {
		return l.PEP440()
	}
	return l.String()
}

// Split sanitizes value and splits it into dot-separated pieces.
func (s Sanitizer) Split(value string) []string {
	v := s.Sanitize(value)
	if v == "" {
		return nil
	}
	if s.Kind == SanitizeUInt {
		return []string{v}
	}
	return strings.Split(v, ".")
}

// lowerString folds case. Casers are stateful, so one is built per call.
func lowerString(s string) string {
	return cases.Lower(language.Und).String(s)
}

func sanitizeUInt(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return ""
	}
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return ""
		}
	}
	return trimLeadingZeros(v)
}

func isLowerAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

func isSemVerIdentChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-'
}

func isKeyChar(r rune) bool {
	return isLowerAlnum(r) || r == '_'
}

// joinSegments replaces runs of disallowed characters with '.', trims
// dots at both ends, and optionally strips leading zeros from numeric
// segments.
func joinSegments(value string, allowed func(rune) bool, trimNumeric bool) string {
	segments := strings.FieldsFunc(value, func(r rune) bool { return !allowed(r) })
	out := segments[:0]
	for _, seg := range segments {
		if trimNumeric && isDigits(seg) {
			seg = trimLeadingZeros(seg)
		}
		if seg != "" {
			out = append(out, seg)
		}
	}
	return strings.Join(out, ".")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
