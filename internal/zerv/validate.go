package zerv

import (
	"fmt"
)

// Validate checks schema rules in order: non-empty, placement, primary
// ordering, duplicates, then timestamp patterns. It returns the first
// violation and never modifies s.
func Validate(s *Schema) error {
	if s.Len() == 0 {
		return &SchemaError{
			Code:    ErrSchemaEmpty,
			Index:   -1,
			Message: "schema must contain at least one component in core, extra_core, or build sections",
		}
	}
	checks := []func(*Schema) error{
		validatePlacement,
		validatePrimaryOrder,
		validateDuplicates,
	}
	for _, check := range checks {
		if err := check(s); err != nil {
			return err
		}
	}
	for _, sec := range Sections {
		if err := validateTimestamps(sec, s.Section(sec)); err != nil {
			return err
		}
	}
	return nil
}

func placementError(code string, sec Section, i int, c Component, msg string) error {
	return &SchemaError{Code: code, Section: sec.String(), Index: i, Component: c.String(), Message: msg}
}

func validatePlacement(s *Schema) error {
	for i, c := range s.core {
		if v, ok := fieldVar(c); ok && v.IsSecondary() {
			return placementError(ErrSecondaryInCore, SectionCore, i, c,
				fmt.Sprintf("secondary component %s must be in extra_core section", v))
		}
	}
	for i, c := range s.extraCore {
		if v, ok := fieldVar(c); ok && v.IsPrimary() {
			return placementError(ErrPrimaryInExtraCore, SectionExtraCore, i, c,
				fmt.Sprintf("primary component %s must be in core section", v))
		}
	}
	for i, c := range s.build {
		if v, ok := fieldVar(c); ok && !v.IsContext() {
			return placementError(ErrFieldInBuild, SectionBuild, i, c,
				fmt.Sprintf("%s component %s is not allowed in build section", v.Category(), v))
		}
	}
	return nil
}

func validatePrimaryOrder(s *Schema) error {
	last, lastIdx := -1, -1
	for i, c := range s.core {
		v, ok := fieldVar(c)
		if !ok || !v.IsPrimary() {
			continue
		}
		if v.primaryOrder() < last {
			return placementError(ErrPrimaryOrder, SectionCore, i, c,
				fmt.Sprintf("primary components must be in order: major → minor → patch (%s found after %s at index %d)",
					v, s.core[lastIdx], lastIdx))
		}
		last, lastIdx = v.primaryOrder(), i
	}
	return nil
}

func validateDuplicates(s *Schema) error {
	if err := findDuplicate(SectionCore, s.core, Var.IsPrimary, ErrDuplicatePrimary, "primary"); err != nil {
		return err
	}
	return findDuplicate(SectionExtraCore, s.extraCore, Var.IsSecondary, ErrDuplicateSecondary, "secondary")
}

func findDuplicate(sec Section, comps []Component, match func(Var) bool, code, kind string) error {
	seen := map[VarKind]int{}
	for i, c := range comps {
		v, ok := fieldVar(c)
		if !ok || !match(v) {
			continue
		}
		if first, dup := seen[v.Kind]; dup {
			return placementError(code, sec, i, c,
				fmt.Sprintf("duplicate %s component %s (first at index %d)", kind, v, first))
		}
		seen[v.Kind] = i
	}
	return nil
}

func validateTimestamps(sec Section, comps []Component) error {
	for i, c := range comps {
		ts, ok := c.(Timestamp)
		if !ok {
			continue
		}
		if err := ValidateTimestampPattern(ts.Pattern); err != nil {
			return placementError(ErrInvalidTimestamp, sec, i, c, err.Error())
		}
	}
	return nil
}
