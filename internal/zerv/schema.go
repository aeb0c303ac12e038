package zerv

import (
	"fmt"
)

// Section names one of the three component lists of a schema.
type Section int

const (
	SectionCore Section = iota
	SectionExtraCore
	SectionBuild
)

// Sections lists the sections in rendering order.
var Sections = []Section{SectionCore, SectionExtraCore, SectionBuild}

func (s Section) String() string {
	switch s {
	case SectionCore:
		return "core"
	case SectionExtraCore:
		return "extra_core"
	default:
		return "build"
	}
}

// ParseSection parses core, extra_core, or build. Hyphens are accepted.
func ParseSection(name string) (Section, error) {
	switch name {
	case "core":
		return SectionCore, nil
	case "extra_core", "extra-core":
		return SectionExtraCore, nil
	case "build":
		return SectionBuild, nil
	}
	return 0, &SchemaError{
		Code:    ErrUnknownSection,
		Index:   -1,
		Message: fmt.Sprintf("unknown section %q: must be one of core, extra_core, build", name),
	}
}

// Schema describes how a version is assembled. Fields are private;
// every setter validates a copy and only commits when it is valid.
type Schema struct {
	core       []Component
	extraCore  []Component
	build      []Component
	precedence PrecedenceOrder
}

// NewSchema builds and validates a schema. A nil order selects the
// default precedence order.
func NewSchema(core, extraCore, build []Component, order []Precedence) (*Schema, error) {
	if order == nil {
		order = DefaultPrecedence
	}
	po, err := NewPrecedenceOrder(order)
	if err != nil {
		return nil, &SchemaError{Code: ErrInvalidPrecedence, Section: "precedence_order", Index: -1, Message: err.Error()}
	}
	s := &Schema{
		core:       cloneComponents(core),
		extraCore:  cloneComponents(extraCore),
		build:      cloneComponents(build),
		precedence: po,
	}
	if err := Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// MustSchema is NewSchema for static schemas; it panics on error.
func MustSchema(core, extraCore, build []Component, order []Precedence) *Schema {
	s, err := NewSchema(core, extraCore, build, order)
	if err != nil {
		panic(err)
	}
	return s
}

func cloneComponents(c []Component) []Component {
	if c == nil {
		return []Component{}
	}
	return append([]Component(nil), c...)
}

// Core returns a copy of the core components.
func (s *Schema) Core() []Component { return cloneComponents(s.core) }

// ExtraCore returns a copy of the extra_core components.
func (s *Schema) ExtraCore() []Component { return cloneComponents(s.extraCore) }

// Build returns a copy of the build components.
func (s *Schema) Build() []Component { return cloneComponents(s.build) }

// Precedence returns the precedence order.
func (s *Schema) Precedence() PrecedenceOrder { return s.precedence }

// Section returns a copy of the named section.
func (s *Schema) Section(sec Section) []Component {
	switch sec {
	case SectionCore:
		return s.Core()
	case SectionExtraCore:
		return s.ExtraCore()
	default:
		return s.Build()
	}
}

// Len returns the total number of components.
func (s *Schema) Len() int {
	return len(s.core) + len(s.extraCore) + len(s.build)
}

// Clone returns an independent copy.
func (s *Schema) Clone() *Schema {
	return &Schema{
		core:       cloneComponents(s.core),
		extraCore:  cloneComponents(s.extraCore),
		build:      cloneComponents(s.build),
		precedence: s.precedence,
	}
}

// commit validates next and copies it into s on success.
func (s *Schema) commit(next *Schema) error {
	if err := Validate(next); err != nil {
		return err
	}
	*s = *next
	return nil
}

// SetSection replaces the named section.
func (s *Schema) SetSection(sec Section, comps []Component) error {
	next := s.Clone()
	switch sec {
	case SectionCore:
		next.core = cloneComponents(comps)
	case SectionExtraCore:
		next.extraCore = cloneComponents(comps)
	default:
		next.build = cloneComponents(comps)
	}
	return s.commit(next)
}

func (s *Schema) SetCore(comps []Component) error      { return s.SetSection(SectionCore, comps) }
func (s *Schema) SetExtraCore(comps []Component) error { return s.SetSection(SectionExtraCore, comps) }
func (s *Schema) SetBuild(comps []Component) error     { return s.SetSection(SectionBuild, comps) }

// Push appends a component to the named section.
func (s *Schema) Push(sec Section, c Component) error {
	return s.SetSection(sec, append(s.Section(sec), c))
}

func (s *Schema) PushCore(c Component) error      { return s.Push(SectionCore, c) }
func (s *Schema) PushExtraCore(c Component) error { return s.Push(SectionExtraCore, c) }
func (s *Schema) PushBuild(c Component) error     { return s.Push(SectionBuild, c) }

// SetPrecedence replaces the precedence order.
func (s *Schema) SetPrecedence(order []Precedence) error {
	po, err := NewPrecedenceOrder(order)
	if err != nil {
		return &SchemaError{Code: ErrInvalidPrecedence, Section: "precedence_order", Index: -1, Message: err.Error()}
	}
	next := s.Clone()
	next.precedence = po
	return s.commit(next)
}

// Equal reports whether two schemas have the same components and order.
func (s *Schema) Equal(o *Schema) bool {
	if s == nil || o == nil {
		return s == o
	}
	return componentsEqual(s.core, o.core) &&
		componentsEqual(s.extraCore, o.extraCore) &&
		componentsEqual(s.build, o.build) &&
		precedenceEqual(s.precedence, o.precedence)
}

func componentsEqual(a, b []Component) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func precedenceEqual(a, b PrecedenceOrder) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if a.At(i) != b.At(i) {
			return false
		}
	}
	return true
}

// WithSections returns a validated copy of s with replaced sections.
func (s *Schema) WithSections(core, extraCore, build []Component) (*Schema, error) {
	next := &Schema{
		core:       cloneComponents(core),
		extraCore:  cloneComponents(extraCore),
		build:      cloneComponents(build),
		precedence: s.precedence,
	}
	if err := Validate(next); err != nil {
		return nil, err
	}
	return next, nil
}

// Zerv pairs a schema with its values. It is the unit of transformation.
type Zerv struct {
	Schema *Schema
	Vars   Vars
}

// New builds a Zerv.
func New(schema *Schema, vars Vars) *Zerv {
	return &Zerv{Schema: schema, Vars: vars}
}

// Clone returns a deep copy.
func (z *Zerv) Clone() *Zerv {
	return &Zerv{Schema: z.Schema.Clone(), Vars: z.Vars.Clone()}
}
