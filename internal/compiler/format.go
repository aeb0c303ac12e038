package compiler

import (
	"strings"

	"github.com/roach88/zerv/internal/zerv"
)

// FormatSchema prints s in the schema text format, one key per line.
// precedence_order is printed only when it differs from the default.
// ParseSchema(FormatSchema(s)) yields a schema equal to s.
func FormatSchema(s *zerv.Schema) string {
	var b strings.Builder
	b.WriteString("(\n")
	writeSection(&b, keyCore, s.Core())
	writeSection(&b, keyExtraCore, s.ExtraCore())
	writeSection(&b, keyBuild, s.Build())
	if order := s.Precedence(); !order.IsDefault() {
		names := make([]string, 0, order.Len())
		for _, p := range order.List() {
			names = append(names, p.String())
		}
		b.WriteString("    " + keyPrecedence + ": [" + strings.Join(names, ", ") + "],\n")
	}
	b.WriteString(")\n")
	return b.String()
}

// FormatSchemaInline prints s on a single line, suitable for a flag value.
func FormatSchemaInline(s *zerv.Schema) string {
	lines := strings.Split(strings.TrimSpace(FormatSchema(s)), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	inner := strings.TrimSuffix(strings.Join(lines[1:len(lines)-1], " "), ",")
	return "(" + inner + ")"
}

func writeSection(b *strings.Builder, key string, comps []zerv.Component) {
	parts := make([]string, len(comps))
	for i, c := range comps {
		parts[i] = c.String()
	}
	b.WriteString("    " + key + ": [" + strings.Join(parts, ", ") + "],\n")
}
