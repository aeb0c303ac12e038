package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/zerv/internal/zerv"
)

// AssertionError is returned when an assertion fails.
// It includes the final version to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Version  string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Version != "" {
		fmt.Fprintf(&buf, "  Version: %s\n", e.Version)
	}
	return buf.String()
}

// assertVarEquals checks the rendered value of a var.
func assertVarEquals(z *zerv.Zerv, a Assertion, version string) error {
	f, err := zerv.ParseVar(a.Field)
	if err != nil {
		return err
	}
	got, ok := z.Vars.Value(f)

	switch {
	case a.Absent && !ok:
		return nil
	case a.Absent:
		return &AssertionError{
			Type:     AssertVarEquals,
			Expected: fmt.Sprintf("%s unset", a.Field),
			Actual:   fmt.Sprintf("%s = %q", a.Field, got),
			Version:  version,
		}
	case !ok:
		return &AssertionError{
			Type:     AssertVarEquals,
			Expected: fmt.Sprintf("%s = %q", a.Field, a.Value),
			Actual:   fmt.Sprintf("%s unset", a.Field),
			Version:  version,
		}
	case got != a.Value:
		return &AssertionError{
			Type:     AssertVarEquals,
			Expected: fmt.Sprintf("%s = %q", a.Field, a.Value),
			Actual:   fmt.Sprintf("%s = %q", a.Field, got),
			Version:  version,
		}
	}
	return nil
}

// assertSectionContains checks that a section holds a var component.
func assertSectionContains(z *zerv.Zerv, a Assertion, version string) error {
	sec, err := zerv.ParseSection(a.Section)
	if err != nil {
		return err
	}
	f, err := zerv.ParseVar(a.Field)
	if err != nil {
		return err
	}
	comps := z.Schema.Section(sec)
	if zerv.ContainsVar(comps, f) {
		return nil
	}
	return &AssertionError{
		Type:     AssertSectionContains,
		Expected: fmt.Sprintf("%s contains var(%q)", a.Section, a.Field),
		Actual:   fmt.Sprintf("%s = %s", a.Section, formatComponents(comps)),
		Version:  version,
	}
}

// assertSectionLength checks the number of components in a section.
func assertSectionLength(z *zerv.Zerv, a Assertion, version string) error {
	sec, err := zerv.ParseSection(a.Section)
	if err != nil {
		return err
	}
	comps := z.Schema.Section(sec)
	if len(comps) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertSectionLength,
		Expected: fmt.Sprintf("%s has %d components", a.Section, a.Count),
		Actual:   fmt.Sprintf("%s = %s", a.Section, formatComponents(comps)),
		Version:  version,
	}
}

func formatComponents(comps []zerv.Component) string {
	parts := make([]string, len(comps))
	for i, c := range comps {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// EvaluateAssertions runs all assertions against a successful result and
// returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	if result.zerv == nil {
		if len(assertions) == 0 {
			return nil
		}
		return []string{"assertions require a successful run"}
	}

	var errors []string
	for i, assertion := range assertions {
		var err error
		switch assertion.Type {
		case AssertVarEquals:
			err = assertVarEquals(result.zerv, assertion, result.SemVer)
		case AssertSectionContains:
			err = assertSectionContains(result.zerv, assertion, result.SemVer)
		case AssertSectionLength:
			err = assertSectionLength(result.zerv, assertion, result.SemVer)
		default:
			err = fmt.Errorf("unknown assertion type: %s", assertion.Type)
		}
		if err != nil {
			errors = append(errors, fmt.Sprintf("assertion %d (%s): %v", i, assertion.Type, err))
		}
	}
	return errors
}
