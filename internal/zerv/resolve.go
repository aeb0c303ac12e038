package zerv

import (
	"strconv"
)

// Resolve turns a component into output text for one grammar.
// It returns false when the component yields nothing: an unset field,
// a missing timestamp, or a value the sanitizer rejects entirely.
func Resolve(c Component, vars Vars, s Sanitizer) (string, bool) {
	switch comp := c.(type) {
	case Literal:
		v := s.Sanitize(comp.Text)
		return v, v != ""
	case Integer:
		return strconv.FormatUint(comp.Value, 10), true
	case Field:
		raw, ok := vars.Value(comp.Var)
		if !ok {
			return "", false
		}
		if comp.Var.Kind == KindPreRelease {
			raw = s.Label(vars.PreRelease.Label)
		}
		v := s.Sanitize(raw)
		return v, v != ""
	case Timestamp:
		unix, ok := vars.Timestamp()
		if !ok {
			return "", false
		}
		formatted, err := FormatTimestamp(unix, comp.Pattern)
		if err != nil {
			return "", false
		}
		v := s.Sanitize(formatted)
		return v, v != ""
	}
	return "", false
}

// ResolveExpanded resolves a var into its output tokens. PreRelease
// expands to [label, number] (number only when set); every other var
// expands to at most one element.
func ResolveExpanded(v Var, vars Vars, s Sanitizer) []string {
	if v.Kind == KindPreRelease {
		if vars.PreRelease == nil {
			return nil
		}
		out := []string{s.Label(vars.PreRelease.Label)}
		if n := vars.PreRelease.Number; n != nil {
			out = append(out, strconv.FormatUint(*n, 10))
		}
		return out
	}
	val, ok := Resolve(Field{Var: v}, vars, s)
	if !ok {
		return nil
	}
	return []string{val}
}
