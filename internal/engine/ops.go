package engine

import (
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/zerv/internal/zerv"
)

// Override is an absolute value for one precedence entry.
// Exactly one of Number, Label, or Clear is meaningful: Number for numeric
// fields and pre_release_num, Label for pre_release_label, and Clear
// to make the field absent.
type Override struct {
	Number *uint64
	Label  *zerv.PreReleaseLabel
	Clear  bool
}

// Bump is a relative change for one precedence entry. Label is the target
// label of a pre_release_label bump; numeric bumps add Increment.
type Bump struct {
	Increment uint64
	Label     *zerv.PreReleaseLabel
}

// DefaultBump is the bump applied when a flag carries no value.
var DefaultBump = Bump{Increment: 1}

// PositionSpec addresses a schema position directly. Index may be
// negative, counting from the end of the section.
type PositionSpec struct {
	Section  zerv.Section
	Index    int
	Override *string
	Bump     *string
}

// Operations is the full set of directives applied to one Zerv.
type Operations struct {
	Overrides map[zerv.Precedence]Override
	Bumps     map[zerv.Precedence]Bump
	Positions []PositionSpec
}

// IsEmpty reports whether ops would leave a Zerv unchanged.
func (o Operations) IsEmpty() bool {
	return len(o.Overrides) == 0 && len(o.Bumps) == 0 && len(o.Positions) == 0
}

// SetOverride records an override, creating the map if needed.
func (o *Operations) SetOverride(p zerv.Precedence, ov Override) {
	if o.Overrides == nil {
		o.Overrides = map[zerv.Precedence]Override{}
	}
	o.Overrides[p] = ov
}

// SetBump records a bump, creating the map if needed.
func (o *Operations) SetBump(p zerv.Precedence, b Bump) {
	if o.Bumps == nil {
		o.Bumps = map[zerv.Precedence]Bump{}
	}
	o.Bumps[p] = b
}

// ParseIndex parses a schema index. "~N" is accepted for -N so that
// negative indices survive flag parsing.
func ParseIndex(s string) (int, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "~"); ok {
		s = "-" + rest
	}
	return strconv.Atoi(s)
}

// ParsePositionSpecs parses index=value override specs and index[=value]
// bump specs for one section. A bump without a value bumps by 1. Specs
// are merged by index and sorted ascending; repeated indices are errors.
func ParsePositionSpecs(section zerv.Section, overrides, bumps []string) ([]PositionSpec, error) {
	byIndex := map[int]*PositionSpec{}
	get := func(idx int) *PositionSpec {
		if ps, ok := byIndex[idx]; ok {
			return ps
		}
		ps := &PositionSpec{Section: section, Index: idx}
		byIndex[idx] = ps
		return ps
	}

	for _, raw := range overrides {
		idxText, value, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, positionError(ErrCodeInvalidSpec, section.String(), -1,
				"override %q must have the form index=value", raw)
		}
		idx, err := ParseIndex(idxText)
		if err != nil {
			return nil, positionError(ErrCodeInvalidSpec, section.String(), -1,
				"invalid index in %q: %v", raw, err)
		}
		ps := get(idx)
		if ps.Override != nil {
			return nil, positionError(ErrCodeDuplicateIndex, section.String(), -1,
				"duplicate override for index %d", idx)
		}
		ps.Override = &value
	}

	for _, raw := range bumps {
		idxText, value, ok := strings.Cut(raw, "=")
		if !ok {
			value = "1"
		}
		idx, err := ParseIndex(idxText)
		if err != nil {
			return nil, positionError(ErrCodeInvalidSpec, section.String(), -1,
				"invalid index in %q: %v", raw, err)
		}
		ps := get(idx)
		if ps.Bump != nil {
			return nil, positionError(ErrCodeDuplicateIndex, section.String(), -1,
				"duplicate bump for index %d", idx)
		}
		ps.Bump = &value
	}

	specs := make([]PositionSpec, 0, len(byIndex))
	for _, ps := range byIndex {
		specs = append(specs, *ps)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Index < specs[j].Index })
	return specs, nil
}

// normalizeIndex maps a possibly negative index into [0, length).
func normalizeIndex(section zerv.Section, index, length int) (int, error) {
	i := index
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return 0, positionError(ErrCodeIndexOutOfBounds, section.String(), index,
			"Index %d out of bounds for schema of length %d", index, length)
	}
	return i, nil
}

// parseUint parses a non-negative decimal value.
func parseUint(field, value string) (uint64, error) {
	v := strings.TrimSpace(value)
	if strings.HasPrefix(v, "-") {
		return 0, fieldError(ErrCodeInvalidSpec, field, "negative value %q is not allowed", value)
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fieldError(ErrCodeInvalidSpec, field, "invalid number %q", value)
	}
	return n, nil
}

// ParseOverride parses the value of a named override. "none" clears the
// field; pre_release_label takes a label, every other entry a number.
func ParseOverride(p zerv.Precedence, value string) (Override, error) {
	if isNone(value) {
		return Override{Clear: true}, nil
	}
	if p == zerv.PrecedencePreReleaseLabel {
		label, err := zerv.ParsePreReleaseLabel(value)
		if err != nil {
			return Override{}, fieldError(ErrCodeInvalidSpec, p.String(), "%v", err)
		}
		return Override{Label: &label}, nil
	}
	n, err := parseUint(p.String(), value)
	if err != nil {
		return Override{}, err
	}
	return Override{Number: &n}, nil
}

// ParseBump parses the value of a named bump. An empty value bumps by 1;
// pre_release_label takes the target label.
func ParseBump(p zerv.Precedence, value string) (Bump, error) {
	if p == zerv.PrecedencePreReleaseLabel {
		label, err := zerv.ParsePreReleaseLabel(value)
		if err != nil {
			return Bump{}, fieldError(ErrCodeInvalidSpec, p.String(), "%v", err)
		}
		return Bump{Label: &label}, nil
	}
	if strings.TrimSpace(value) == "" {
		return DefaultBump, nil
	}
	n, err := parseUint(p.String(), value)
	if err != nil {
		return Bump{}, err
	}
	return Bump{Increment: n}, nil
}
