package compiler

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/zerv/internal/zerv"
)

//go:embed schema.cue
var schemaDefinition string

// componentKeys are the single keys a CUE component struct may carry.
var componentKeys = []string{"var", "str", "int", "ts"}

// CompileCUE compiles a CUE schema document. The document is unified
// with the embedded #Schema definition, so unknown keys, malformed
// components, and unknown precedence names are rejected by CUE itself.
//
//	core: [{var: "major"}, {var: "minor"}, {var: "patch"}]
//	extra_core: [{var: "pre_release"}]
//	build: [{str: "build"}, {"int": 1}, {ts: "compact_date"}]
//	precedence_order: ["major", "minor", "patch"]
func CompileCUE(filename, src string) (*zerv.Schema, error) {
	ctx := cuecontext.New()

	def := ctx.CompileString(schemaDefinition, cue.Filename("schema.cue"))
	if err := def.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	doc := ctx.CompileString(src, cue.Filename(filename))
	if err := doc.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v := def.LookupPath(cue.ParsePath("#Schema")).Unify(doc)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	core, err := compileComponents(v, keyCore)
	if err != nil {
		return nil, err
	}
	extraCore, err := compileComponents(v, keyExtraCore)
	if err != nil {
		return nil, err
	}
	build, err := compileComponents(v, keyBuild)
	if err != nil {
		return nil, err
	}
	order, err := compilePrecedence(v)
	if err != nil {
		return nil, err
	}
	return zerv.NewSchema(core, extraCore, build, order)
}

func compileComponents(v cue.Value, section string) ([]zerv.Component, error) {
	list, _ := v.LookupPath(cue.ParsePath(section)).Default()
	iter, err := list.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var comps []zerv.Component
	for i := 0; iter.Next(); i++ {
		item := iter.Value()
		field := fmt.Sprintf("%s[%d]", section, i)
		c, err := compileComponent(item, field)
		if err != nil {
			return nil, err
		}
		comps = append(comps, c)
	}
	return comps, nil
}

func compileComponent(item cue.Value, field string) (zerv.Component, error) {
	for _, key := range componentKeys {
		val := item.LookupPath(cue.MakePath(cue.Str(key)))
		if !val.Exists() {
			continue
		}
		if key == "int" {
			n, err := val.Uint64()
			if err != nil {
				return nil, formatCUEError(err)
			}
			return zerv.Integer{Value: n}, nil
		}

		text, err := val.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		switch key {
		case "var":
			v, err := zerv.ParseVar(text)
			if err != nil {
				return nil, &CompileError{Field: field + ".var", Message: err.Error(), Pos: val.Pos()}
			}
			return zerv.F(v), nil
		case "str":
			return zerv.Literal{Text: text}, nil
		default:
			return zerv.Timestamp{Pattern: text}, nil
		}
	}
	return nil, &CompileError{
		Field:   field,
		Message: "component must have exactly one of var, str, int, ts",
		Pos:     item.Pos(),
	}
}

func compilePrecedence(v cue.Value) ([]zerv.Precedence, error) {
	val := v.LookupPath(cue.ParsePath(keyPrecedence))
	if !val.Exists() {
		return nil, nil
	}
	iter, err := val.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var order []zerv.Precedence
	for iter.Next() {
		name, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		p, err := zerv.ParsePrecedence(name)
		if err != nil {
			return nil, &CompileError{Field: keyPrecedence, Message: err.Error(), Pos: iter.Value().Pos()}
		}
		order = append(order, p)
	}
	if len(order) == 0 {
		return nil, nil
	}
	return order, nil
}

// CompileSource dispatches on the file name: ".cue" files are compiled
// as CUE documents, anything else is parsed as schema text.
func CompileSource(filename, src string) (*zerv.Schema, error) {
	if strings.HasSuffix(filename, ".cue") {
		return CompileCUE(filename, src)
	}
	return ParseSchema(src)
}
