package pep440

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/roach88/zerv/internal/zerv"
)

// ErrInvalidVersion is returned when text is not a PEP 440 version.
var ErrInvalidVersion = errors.New("invalid PEP 440 version")

// PreRelease is the {a|b|rc}N segment. PEP 440 has no pre-release without
// a number, so a missing number normalizes to 0.
type PreRelease struct {
	Label  zerv.PreReleaseLabel
	Number uint64
}

// Version is a PEP 440 version identifier. Epoch 0 is not rendered.
type Version struct {
	Epoch   uint64
	Release []uint64
	Pre     *PreRelease
	Post    *uint64
	Dev     *uint64
	Local   []intstr.IntOrString
}

var reVersion = regexp.MustCompile(`(?i)^\s*` + regexp.MustCompile(`(?:\s+|#.*)`).ReplaceAllString(`
	v?
	(?:
	    (?:(?P<epoch>[0-9]+)!)?                   # epoch
	    (?P<release>[0-9]+(?:\.[0-9]+)*)          # release segment
	    (?P<pre>
	        [-_\.]?
	        (?P<pre_l>alpha|beta|preview|pre|rc|a|b|c)
	        [-_\.]?
	        (?P<pre_n>[0-9]+)?
	    )?
	    (?P<post>
	        (?:-(?P<post_n1>[0-9]+))
	        |
	        (?:
	            [-_\.]?
	            (?P<post_l>post|rev|r)
	            [-_\.]?
	            (?P<post_n2>[0-9]+)?
	        )
	    )?
	    (?P<dev>
	        [-_\.]?
	        (?P<dev_l>dev)
	        [-_\.]?
	        (?P<dev_n>[0-9]+)?
	    )?
	)
	(?:\+(?P<local>[a-z0-9]+(?:[-_\.][a-z0-9]+)*))?
`, ``) + `\s*$`)

// Parse parses and normalizes a PEP 440 version.
func Parse(s string) (*Version, error) {
	match := reVersion.FindStringSubmatch(s)
	if match == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}
	group := func(name string) string { return match[reVersion.SubexpIndex(name)] }

	var v Version
	var err error
	if epoch := group("epoch"); epoch != "" {
		if v.Epoch, err = parseNumber("epoch", epoch); err != nil {
			return nil, err
		}
	}
	for _, seg := range strings.Split(group("release"), ".") {
		n, err := parseNumber("release", seg)
		if err != nil {
			return nil, err
		}
		v.Release = append(v.Release, n)
	}

	if label := group("pre_l"); label != "" {
		l, err := zerv.ParsePreReleaseLabel(label)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidVersion, err)
		}
		n, err := parseOptional("pre-release", group("pre_n"))
		if err != nil {
			return nil, err
		}
		v.Pre = &PreRelease{Label: l, Number: n}
	}
	if group("post") != "" {
		n, err := parseOptional("post-release", group("post_n1")+group("post_n2"))
		if err != nil {
			return nil, err
		}
		v.Post = &n
	}
	if group("dev") != "" {
		n, err := parseOptional("dev-release", group("dev_n"))
		if err != nil {
			return nil, err
		}
		v.Dev = &n
	}

	localParts := strings.FieldsFunc(group("local"), func(r rune) bool {
		return strings.ContainsRune("-_.", r)
	})
	for _, part := range localParts {
		v.Local = append(v.Local, localSegment(strings.ToLower(part)))
	}
	return &v, nil
}

func parseNumber(segment, text string) (uint64, error) {
	n, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q out of range", ErrInvalidVersion, segment, text)
	}
	return n, nil
}

func parseOptional(segment, text string) (uint64, error) {
	if text == "" {
		return 0, nil
	}
	return parseNumber(segment, text)
}

// localSegment types a local label piece. Numbers that fit an int32 are
// kept as integers; anything else stays text.
func localSegment(part string) intstr.IntOrString {
	if n, err := strconv.ParseUint(part, 10, 64); err == nil && n <= math.MaxInt32 {
		return intstr.FromInt32(int32(n))
	}
	return intstr.FromString(part)
}

// String renders the normalized form.
func (v Version) String() string {
	var b strings.Builder
	if v.Epoch > 0 {
		fmt.Fprintf(&b, "%d!", v.Epoch)
	}
	if len(v.Release) == 0 {
		b.WriteString("0")
	}
	for i, seg := range v.Release {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.FormatUint(seg, 10))
	}
	if v.Pre != nil {
		fmt.Fprintf(&b, "%s%d", v.Pre.Label.PEP440(), v.Pre.Number)
	}
	if v.Post != nil {
		fmt.Fprintf(&b, ".post%d", *v.Post)
	}
	if v.Dev != nil {
		fmt.Fprintf(&b, ".dev%d", *v.Dev)
	}
	sep := "+"
	for _, local := range v.Local {
		b.WriteString(sep)
		b.WriteString(local.String())
		sep = "."
	}
	return b.String()
}

// IsFinal reports whether v has no pre, post, dev, or local segment.
func (v Version) IsFinal() bool {
	return v.Pre == nil && v.Post == nil && v.Dev == nil && len(v.Local) == 0
}
