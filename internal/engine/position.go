package engine

import (
	"strings"

	"github.com/roach88/zerv/internal/zerv"
)

// positionalOps holds field directives produced by schema-position specs.
type positionalOps struct {
	overrides map[zerv.Precedence]Override
	bumps     map[zerv.Precedence]Bump
}

// resolvePositions applies literal and integer edits to copies of the
// schema sections and converts field-token specs into field directives.
func resolvePositions(schema *zerv.Schema, specs []PositionSpec) ([3][]zerv.Component, positionalOps, error) {
	sections := [3][]zerv.Component{schema.Core(), schema.ExtraCore(), schema.Build()}
	ops := positionalOps{
		overrides: map[zerv.Precedence]Override{},
		bumps:     map[zerv.Precedence]Bump{},
	}
	order := schema.Precedence()

	type key struct {
		section zerv.Section
		index   int
	}
	seenOverride := map[key]int{}
	seenBump := map[key]int{}

	for _, spec := range specs {
		comps := sections[spec.Section]
		idx, err := normalizeIndex(spec.Section, spec.Index, len(comps))
		if err != nil {
			return sections, ops, err
		}
		k := key{spec.Section, idx}
		if spec.Override != nil {
			if prev, dup := seenOverride[k]; dup {
				return sections, ops, positionError(ErrCodeDuplicateIndex, spec.Section.String(), spec.Index,
					"index %d addresses the same position as index %d", spec.Index, prev)
			}
			seenOverride[k] = spec.Index
		}
		if spec.Bump != nil {
			if prev, dup := seenBump[k]; dup {
				return sections, ops, positionError(ErrCodeDuplicateIndex, spec.Section.String(), spec.Index,
					"index %d addresses the same position as index %d", spec.Index, prev)
			}
			seenBump[k] = spec.Index
		}

		switch c := comps[idx].(type) {
		case zerv.Timestamp:
			return sections, ops, positionError(ErrCodeInvalidBumpTarget, spec.Section.String(), spec.Index,
				"cannot modify %s: timestamps are generated dynamically", c)
		case zerv.Literal:
			if spec.Override != nil {
				c.Text = *spec.Override
			}
			if spec.Bump != nil {
				c.Text = *spec.Bump
			}
			comps[idx] = c
		case zerv.Integer:
			if spec.Override != nil {
				n, err := parseUint(c.String(), *spec.Override)
				if err != nil {
					return sections, ops, withPosition(err, spec)
				}
				c.Value = n
			}
			if spec.Bump != nil {
				inc, err := parseUint(c.String(), *spec.Bump)
				if err != nil {
					return sections, ops, withPosition(err, spec)
				}
				if c.Value, err = addUint(c.String(), c.Value, inc); err != nil {
					return sections, ops, withPosition(err, spec)
				}
			}
			comps[idx] = c
		case zerv.Field:
			if err := fieldPositionOps(order, c.Var, spec, ops); err != nil {
				return sections, ops, err
			}
		}
	}
	return sections, ops, nil
}

func withPosition(err error, spec PositionSpec) error {
	if be := GetBumpError(err); be != nil {
		be.Section = spec.Section.String()
		be.Index = spec.Index
	}
	return err
}

// fieldPositionOps converts a spec on a field token into field directives.
// Pre-release tokens take a number (the pre-release number) or a label.
func fieldPositionOps(order zerv.PrecedenceOrder, v zerv.Var, spec PositionSpec, ops positionalOps) error {
	p, ok := zerv.PrecedenceFor(v)
	if !ok || !order.Contains(p) {
		return positionError(ErrCodeInvalidBumpTarget, spec.Section.String(), spec.Index,
			"cannot process field %s: only primary and secondary fields in the precedence order can be modified", v)
	}

	if spec.Override != nil {
		target, ov, err := parseFieldOverride(p, v, *spec.Override)
		if err != nil {
			return withPosition(err, spec)
		}
		ops.overrides[target] = ov
	}
	if spec.Bump != nil {
		target, b, err := parseFieldBump(p, v, *spec.Bump)
		if err != nil {
			return withPosition(err, spec)
		}
		ops.bumps[target] = b
	}
	return nil
}

func isNone(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "none", "null", "":
		return true
	}
	return false
}

func parseFieldOverride(p zerv.Precedence, v zerv.Var, value string) (zerv.Precedence, Override, error) {
	if v.Kind == zerv.KindPreRelease {
		if isNone(value) {
			return zerv.PrecedencePreReleaseLabel, Override{Clear: true}, nil
		}
		if n, err := parseUint(v.String(), value); err == nil {
			return zerv.PrecedencePreReleaseNum, Override{Number: &n}, nil
		}
		label, err := zerv.ParsePreReleaseLabel(value)
		if err != nil {
			return p, Override{}, fieldError(ErrCodeInvalidSpec, v.String(), "%v", err)
		}
		return zerv.PrecedencePreReleaseLabel, Override{Label: &label}, nil
	}
	n, err := parseUint(v.String(), value)
	if err != nil {
		return p, Override{}, err
	}
	return p, Override{Number: &n}, nil
}

func parseFieldBump(p zerv.Precedence, v zerv.Var, value string) (zerv.Precedence, Bump, error) {
	if v.Kind == zerv.KindPreRelease {
		if n, err := parseUint(v.String(), value); err == nil {
			return zerv.PrecedencePreReleaseNum, Bump{Increment: n}, nil
		}
		label, err := zerv.ParsePreReleaseLabel(value)
		if err != nil {
			return p, Bump{}, fieldError(ErrCodeInvalidSpec, v.String(), "%v", err)
		}
		return zerv.PrecedencePreReleaseLabel, Bump{Label: &label}, nil
	}
	n, err := parseUint(v.String(), value)
	if err != nil {
		return p, Bump{}, err
	}
	return p, Bump{Increment: n}, nil
}

// mergeOperations combines named directives with positional ones. A field
// addressed both ways is a conflict.
func mergeOperations(ops Operations, pos positionalOps) (map[zerv.Precedence]Override, map[zerv.Precedence]Bump, error) {
	overrides := make(map[zerv.Precedence]Override, len(ops.Overrides)+len(pos.overrides))
	for p, ov := range ops.Overrides {
		if err := checkOverrideShape(p, ov); err != nil {
			return nil, nil, err
		}
		overrides[p] = ov
	}
	for p, ov := range pos.overrides {
		if _, dup := overrides[p]; dup {
			return nil, nil, fieldError(ErrCodeConflictingOverride, p.String(),
				"%s is overridden both by name and by schema position", p)
		}
		overrides[p] = ov
	}

	bumps := make(map[zerv.Precedence]Bump, len(ops.Bumps)+len(pos.bumps))
	for p, b := range ops.Bumps {
		bumps[p] = b
	}
	for p, b := range pos.bumps {
		if _, dup := bumps[p]; dup {
			return nil, nil, fieldError(ErrCodeConflictingOverride, p.String(),
				"%s is bumped both by name and by schema position", p)
		}
		bumps[p] = b
	}
	return overrides, bumps, nil
}

// checkOverrideShape ensures an override carries the value kind its
// field expects.
func checkOverrideShape(p zerv.Precedence, ov Override) error {
	if ov.Clear {
		return nil
	}
	if p == zerv.PrecedencePreReleaseLabel {
		if ov.Label == nil {
			return fieldError(ErrCodeInvalidSpec, p.String(), "override of %s requires a label", p)
		}
		return nil
	}
	if ov.Number == nil {
		return fieldError(ErrCodeInvalidSpec, p.String(), "override of %s requires a number", p)
	}
	return nil
}
