package engine

import (
	"math"

	"github.com/roach88/zerv/internal/zerv"
)

// Apply runs overrides, bumps, and the reset cascade over z and returns a
// new Zerv. z is never modified. All directives are validated before any
// value changes, so an error means nothing was applied.
//
// The pass walks the precedence order front to back. For each entry an
// override is applied first, then a bump. A bump resets every entry of
// greater rank, even when its increment is zero. After the pass, a
// section (other than core) that references a field which lost its value
// and has no remaining primary or secondary field with a value is
// cleared, together with every section after it.
func Apply(z *zerv.Zerv, ops Operations) (*zerv.Zerv, error) {
	order := z.Schema.Precedence()

	sections, positional, err := resolvePositions(z.Schema, ops.Positions)
	if err != nil {
		return nil, err
	}
	overrides, bumps, err := mergeOperations(ops, positional)
	if err != nil {
		return nil, err
	}
	if err := checkTargets(order, overrides, bumps); err != nil {
		return nil, err
	}

	vars := z.Vars.Clone()
	lost := map[zerv.VarKind]bool{}

	for i := 0; i < order.Len(); i++ {
		p := order.At(i)
		if ov, ok := overrides[p]; ok {
			applyOverride(&vars, p, ov)
			delete(lost, p.Var().Kind)
		}
		if b, ok := bumps[p]; ok {
			if err := applyBump(&vars, p, b); err != nil {
				return nil, err
			}
			delete(lost, p.Var().Kind)
			for j := i + 1; j < order.Len(); j++ {
				if resetField(&vars, order.At(j)) {
					lost[order.At(j).Var().Kind] = true
				}
			}
		}
	}

	schema, err := z.Schema.WithSections(pruneSections(sections, vars, lost))
	if err != nil {
		return nil, err
	}
	return zerv.New(schema, vars), nil
}

// checkTargets rejects directives for entries outside the precedence order
// and pre_release_label bumps without a label.
func checkTargets(order zerv.PrecedenceOrder, overrides map[zerv.Precedence]Override, bumps map[zerv.Precedence]Bump) error {
	for p := range overrides {
		if !order.Contains(p) {
			return fieldError(ErrCodeInvalidBumpTarget, p.String(), "field %s is not in the precedence order", p)
		}
	}
	for p, b := range bumps {
		if !order.Contains(p) {
			return fieldError(ErrCodeInvalidBumpTarget, p.String(), "field %s is not in the precedence order", p)
		}
		if p == zerv.PrecedencePreReleaseLabel && b.Label == nil {
			return fieldError(ErrCodeInvalidBumpTarget, p.String(), "pre_release_label bump requires a target label")
		}
	}
	return nil
}

func numericSlot(vars *zerv.Vars, p zerv.Precedence) **uint64 {
	switch p {
	case zerv.PrecedenceEpoch:
		return &vars.Epoch
	case zerv.PrecedenceMajor:
		return &vars.Major
	case zerv.PrecedenceMinor:
		return &vars.Minor
	case zerv.PrecedencePatch:
		return &vars.Patch
	case zerv.PrecedencePost:
		return &vars.Post
	case zerv.PrecedenceDev:
		return &vars.Dev
	}
	return nil
}

func applyOverride(vars *zerv.Vars, p zerv.Precedence, ov Override) {
	switch p {
	case zerv.PrecedencePreReleaseLabel:
		switch {
		case ov.Clear:
			vars.PreRelease = nil
		case ov.Label != nil && vars.PreRelease != nil:
			vars.PreRelease.Label = *ov.Label
		case ov.Label != nil:
			vars.PreRelease = &zerv.PreRelease{Label: *ov.Label, Number: zerv.Ptr(uint64(0))}
		}
	case zerv.PrecedencePreReleaseNum:
		switch {
		case ov.Clear && vars.PreRelease != nil:
			vars.PreRelease.Number = nil
		case ov.Number != nil && vars.PreRelease != nil:
			vars.PreRelease.Number = zerv.Ptr(*ov.Number)
		case ov.Number != nil:
			vars.PreRelease = &zerv.PreRelease{Label: zerv.Alpha, Number: zerv.Ptr(*ov.Number)}
		}
	default:
		slot := numericSlot(vars, p)
		switch {
		case ov.Clear:
			*slot = nil
		case ov.Number != nil:
			*slot = zerv.Ptr(*ov.Number)
		}
	}
}

func addUint(field string, base, inc uint64) (uint64, error) {
	if base > math.MaxUint64-inc {
		return 0, fieldError(ErrCodeInvalidBumpTarget, field, "bump by %d overflows %d", inc, base)
	}
	return base + inc, nil
}

func applyBump(vars *zerv.Vars, p zerv.Precedence, b Bump) error {
	switch p {
	case zerv.PrecedencePreReleaseLabel:
		vars.PreRelease = &zerv.PreRelease{Label: *b.Label, Number: zerv.Ptr(uint64(0))}
		return nil
	case zerv.PrecedencePreReleaseNum:
		if vars.PreRelease == nil {
			vars.PreRelease = &zerv.PreRelease{Label: zerv.Alpha}
		}
		var base uint64
		if vars.PreRelease.Number != nil {
			base = *vars.PreRelease.Number
		}
		n, err := addUint(p.String(), base, b.Increment)
		if err != nil {
			return err
		}
		vars.PreRelease.Number = &n
		return nil
	}
	slot := numericSlot(vars, p)
	var base uint64
	if *slot != nil {
		base = **slot
	}
	n, err := addUint(p.String(), base, b.Increment)
	if err != nil {
		return err
	}
	*slot = &n
	return nil
}

// resetField returns a field to its baseline. It reports whether a value
// that was present became absent.
func resetField(vars *zerv.Vars, p zerv.Precedence) bool {
	switch p {
	case zerv.PrecedenceEpoch, zerv.PrecedenceMajor, zerv.PrecedenceMinor, zerv.PrecedencePatch:
		*numericSlot(vars, p) = zerv.Ptr(uint64(0))
		return false
	case zerv.PrecedencePreReleaseLabel:
		had := vars.PreRelease != nil
		vars.PreRelease = nil
		return had
	case zerv.PrecedencePreReleaseNum:
		if vars.PreRelease != nil {
			vars.PreRelease.Number = zerv.Ptr(uint64(0))
		}
		return false
	default:
		slot := numericSlot(vars, p)
		had := *slot != nil
		*slot = nil
		return had
	}
}

// pruneSections clears every section from the first incoherent one on.
// Core is never cleared, and nothing is cleared when core is empty since
// the result would have no version left.
func pruneSections(sections [3][]zerv.Component, vars zerv.Vars, lost map[zerv.VarKind]bool) ([]zerv.Component, []zerv.Component, []zerv.Component) {
	if len(lost) == 0 || len(sections[zerv.SectionCore]) == 0 {
		return sections[0], sections[1], sections[2]
	}
	for _, sec := range []zerv.Section{zerv.SectionExtraCore, zerv.SectionBuild} {
		if incoherent(sections[sec], vars, lost) {
			for s := sec; s <= zerv.SectionBuild; s++ {
				sections[s] = nil
			}
			break
		}
	}
	return sections[0], sections[1], sections[2]
}

// incoherent reports whether comps references a lost field and has no
// primary or secondary field that still carries a value.
func incoherent(comps []zerv.Component, vars zerv.Vars, lost map[zerv.VarKind]bool) bool {
	refsLost := false
	for _, c := range comps {
		f, ok := c.(zerv.Field)
		if !ok {
			continue
		}
		if lost[f.Var.Kind] {
			refsLost = true
			continue
		}
		if !f.Var.IsContext() {
			if _, set := vars.Value(f.Var); set {
				return false
			}
		}
	}
	return refsLost
}
