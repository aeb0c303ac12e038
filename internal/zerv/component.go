package zerv

import (
	"fmt"
	"strconv"
)

// Component is a sealed interface for schema tokens.
// Only Literal, Integer, Field, and Timestamp implement it.
type Component interface {
	component()
	// String renders the token in schema text form, e.g. var("major").
	String() string
}

// Literal is a fixed text token.
type Literal struct {
	Text string
}

func (Literal) component() {}

func (c Literal) String() string { return "str(" + strconv.Quote(c.Text) + ")" }

// Integer is a fixed numeric token.
type Integer struct {
	Value uint64
}

func (Integer) component() {}

func (c Integer) String() string { return fmt.Sprintf("int(%d)", c.Value) }

// Field references a var.
type Field struct {
	Var Var
}

func (Field) component() {}

func (c Field) String() string { return "var(" + strconv.Quote(c.Var.String()) + ")" }

// Timestamp renders BumpedTimestamp (or LastTimestamp) with a pattern.
// Timestamp tokens are never writable by overrides or bumps.
type Timestamp struct {
	Pattern string
}

func (Timestamp) component() {}

func (c Timestamp) String() string { return "ts(" + strconv.Quote(c.Pattern) + ")" }

// F is shorthand for a field token.
func F(v Var) Component { return Field{Var: v} }

// fieldVar returns the var of a field token.
func fieldVar(c Component) (Var, bool) {
	if f, ok := c.(Field); ok {
		return f.Var, true
	}
	return Var{}, false
}

// ContainsVar reports whether comps holds a field token for v.
func ContainsVar(comps []Component, v Var) bool {
	for _, c := range comps {
		if fv, ok := fieldVar(c); ok && fv == v {
			return true
		}
	}
	return false
}
