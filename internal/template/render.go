package template

import (
	"fmt"
	"strings"
	texttemplate "text/template"
)

// Render executes tmpl against ctx. Unknown keys are errors.
func Render(tmpl string, ctx Context) (string, error) {
	t, err := texttemplate.New("zerv").
		Option("missingkey=error").
		Funcs(funcMap()).
		Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	var b strings.Builder
	if err := t.Execute(&b, ctx); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return b.String(), nil
}

// IsTemplate reports whether s contains template actions.
func IsTemplate(s string) bool {
	return strings.Contains(s, "{{")
}

// RenderValue renders s when it is a template and returns it unchanged
// otherwise. Override values go through here before they are parsed.
func RenderValue(s string, ctx Context) (string, error) {
	if !IsTemplate(s) {
		return s, nil
	}
	out, err := Render(s, ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
