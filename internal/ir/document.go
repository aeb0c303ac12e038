package ir

import (
	"errors"
	"fmt"

	"github.com/roach88/zerv/internal/zerv"
)

// Document is the serialized form of a Zerv.
type Document struct {
	Schema SchemaDoc `json:"schema" yaml:"schema"`
	Vars   VarsDoc   `json:"vars" yaml:"vars"`
}

// SchemaDoc mirrors zerv.Schema. An empty PrecedenceOrder means the
// default order.
type SchemaDoc struct {
	Core            []ComponentDoc `json:"core" yaml:"core"`
	ExtraCore       []ComponentDoc `json:"extra_core" yaml:"extra_core"`
	Build           []ComponentDoc `json:"build" yaml:"build"`
	PrecedenceOrder []string       `json:"precedence_order,omitempty" yaml:"precedence_order,omitempty"`
}

// ComponentDoc is one schema token. Exactly one field is set.
type ComponentDoc struct {
	Var *string `json:"var,omitempty" yaml:"var,omitempty"`
	Str *string `json:"str,omitempty" yaml:"str,omitempty"`
	Int *uint64 `json:"int,omitempty" yaml:"int,omitempty"`
	Ts  *string `json:"ts,omitempty" yaml:"ts,omitempty"`
}

// PreReleaseDoc mirrors zerv.PreRelease with the long label spelling.
type PreReleaseDoc struct {
	Label  string  `json:"label" yaml:"label"`
	Number *uint64 `json:"number,omitempty" yaml:"number,omitempty"`
}

// VarsDoc mirrors zerv.Vars. Absent values are omitted. The short
// commit hash is derived and never stored.
type VarsDoc struct {
	Major      *uint64        `json:"major,omitempty" yaml:"major,omitempty"`
	Minor      *uint64        `json:"minor,omitempty" yaml:"minor,omitempty"`
	Patch      *uint64        `json:"patch,omitempty" yaml:"patch,omitempty"`
	Epoch      *uint64        `json:"epoch,omitempty" yaml:"epoch,omitempty"`
	PreRelease *PreReleaseDoc `json:"pre_release,omitempty" yaml:"pre_release,omitempty"`
	Post       *uint64        `json:"post,omitempty" yaml:"post,omitempty"`
	Dev        *uint64        `json:"dev,omitempty" yaml:"dev,omitempty"`

	Distance         *uint64 `json:"distance,omitempty" yaml:"distance,omitempty"`
	Dirty            *bool   `json:"dirty,omitempty" yaml:"dirty,omitempty"`
	BumpedBranch     *string `json:"bumped_branch,omitempty" yaml:"bumped_branch,omitempty"`
	BumpedCommitHash *string `json:"bumped_commit_hash,omitempty" yaml:"bumped_commit_hash,omitempty"`
	BumpedTimestamp  *int64  `json:"bumped_timestamp,omitempty" yaml:"bumped_timestamp,omitempty"`
	LastBranch       *string `json:"last_branch,omitempty" yaml:"last_branch,omitempty"`
	LastCommitHash   *string `json:"last_commit_hash,omitempty" yaml:"last_commit_hash,omitempty"`
	LastTimestamp    *int64  `json:"last_timestamp,omitempty" yaml:"last_timestamp,omitempty"`

	Custom map[string]any `json:"custom,omitempty" yaml:"custom,omitempty"`
}

// FromZerv converts z into a document.
func FromZerv(z *zerv.Zerv) Document {
	var order []string
	if p := z.Schema.Precedence(); !p.IsDefault() {
		for _, e := range p.List() {
			order = append(order, e.String())
		}
	}

	v := z.Vars.Clone()
	d := Document{
		Schema: SchemaDoc{
			Core:            componentDocs(z.Schema.Core()),
			ExtraCore:       componentDocs(z.Schema.ExtraCore()),
			Build:           componentDocs(z.Schema.Build()),
			PrecedenceOrder: order,
		},
		Vars: VarsDoc{
			Major:            v.Major,
			Minor:            v.Minor,
			Patch:            v.Patch,
			Epoch:            v.Epoch,
			Post:             v.Post,
			Dev:              v.Dev,
			Distance:         v.Distance,
			Dirty:            v.Dirty,
			BumpedBranch:     v.BumpedBranch,
			BumpedCommitHash: v.BumpedCommitHash,
			BumpedTimestamp:  v.BumpedTimestamp,
			LastBranch:       v.LastBranch,
			LastCommitHash:   v.LastCommitHash,
			LastTimestamp:    v.LastTimestamp,
			Custom:           v.Custom,
		},
	}
	if v.PreRelease != nil {
		d.Vars.PreRelease = &PreReleaseDoc{Label: v.PreRelease.Label.String(), Number: v.PreRelease.Number}
	}
	return d
}

func componentDocs(comps []zerv.Component) []ComponentDoc {
	docs := make([]ComponentDoc, 0, len(comps))
	for _, c := range comps {
		switch c := c.(type) {
		case zerv.Field:
			name := c.Var.String()
			docs = append(docs, ComponentDoc{Var: &name})
		case zerv.Literal:
			text := c.Text
			docs = append(docs, ComponentDoc{Str: &text})
		case zerv.Integer:
			n := c.Value
			docs = append(docs, ComponentDoc{Int: &n})
		case zerv.Timestamp:
			pattern := c.Pattern
			docs = append(docs, ComponentDoc{Ts: &pattern})
		}
	}
	return docs
}

// ToZerv converts d back into a Zerv. The schema is validated.
func (d Document) ToZerv() (*zerv.Zerv, error) {
	core, err := toComponents("core", d.Schema.Core)
	if err != nil {
		return nil, err
	}
	extraCore, err := toComponents("extra_core", d.Schema.ExtraCore)
	if err != nil {
		return nil, err
	}
	build, err := toComponents("build", d.Schema.Build)
	if err != nil {
		return nil, err
	}

	var order []zerv.Precedence
	for _, name := range d.Schema.PrecedenceOrder {
		p, err := zerv.ParsePrecedence(name)
		if err != nil {
			return nil, fmt.Errorf("schema.precedence_order: %w", err)
		}
		order = append(order, p)
	}

	schema, err := zerv.NewSchema(core, extraCore, build, order)
	if err != nil {
		return nil, err
	}

	vars := zerv.Vars{
		Major:            d.Vars.Major,
		Minor:            d.Vars.Minor,
		Patch:            d.Vars.Patch,
		Epoch:            d.Vars.Epoch,
		Post:             d.Vars.Post,
		Dev:              d.Vars.Dev,
		Distance:         d.Vars.Distance,
		Dirty:            d.Vars.Dirty,
		BumpedBranch:     d.Vars.BumpedBranch,
		BumpedCommitHash: d.Vars.BumpedCommitHash,
		BumpedTimestamp:  d.Vars.BumpedTimestamp,
		LastBranch:       d.Vars.LastBranch,
		LastCommitHash:   d.Vars.LastCommitHash,
		LastTimestamp:    d.Vars.LastTimestamp,
		Custom:           d.Vars.Custom,
	}
	if pr := d.Vars.PreRelease; pr != nil {
		label, err := zerv.ParsePreReleaseLabel(pr.Label)
		if err != nil {
			return nil, fmt.Errorf("vars.pre_release: %w", err)
		}
		vars.PreRelease = &zerv.PreRelease{Label: label, Number: pr.Number}
	}
	return zerv.New(schema, vars.Clone()), nil
}

func toComponents(section string, docs []ComponentDoc) ([]zerv.Component, error) {
	comps := make([]zerv.Component, 0, len(docs))
	for i, doc := range docs {
		c, err := doc.component()
		if err != nil {
			return nil, fmt.Errorf("schema.%s[%d]: %w", section, i, err)
		}
		comps = append(comps, c)
	}
	return comps, nil
}

func (c ComponentDoc) component() (zerv.Component, error) {
	set := 0
	for _, ok := range []bool{c.Var != nil, c.Str != nil, c.Int != nil, c.Ts != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return nil, errors.New("component must have exactly one of var, str, int, ts")
	}

	switch {
	case c.Var != nil:
		v, err := zerv.ParseVar(*c.Var)
		if err != nil {
			return nil, err
		}
		return zerv.F(v), nil
	case c.Str != nil:
		return zerv.Literal{Text: *c.Str}, nil
	case c.Int != nil:
		return zerv.Integer{Value: *c.Int}, nil
	default:
		return zerv.Timestamp{Pattern: *c.Ts}, nil
	}
}

// Value returns d as a canonical value for hashing.
func (d Document) Value() (Value, error) {
	schema := Object{
		"core":       componentValues(d.Schema.Core),
		"extra_core": componentValues(d.Schema.ExtraCore),
		"build":      componentValues(d.Schema.Build),
	}
	if len(d.Schema.PrecedenceOrder) > 0 {
		order := make(Array, len(d.Schema.PrecedenceOrder))
		for i, p := range d.Schema.PrecedenceOrder {
			order[i] = String(p)
		}
		schema["precedence_order"] = order
	}

	vars := Object{}
	putUint := func(key string, p *uint64) {
		if p != nil {
			vars[key] = Uint(*p)
		}
	}
	putString := func(key string, p *string) {
		if p != nil {
			vars[key] = String(*p)
		}
	}
	putInt := func(key string, p *int64) {
		if p != nil {
			vars[key] = Int(*p)
		}
	}

	v := d.Vars
	putUint("major", v.Major)
	putUint("minor", v.Minor)
	putUint("patch", v.Patch)
	putUint("epoch", v.Epoch)
	putUint("post", v.Post)
	putUint("dev", v.Dev)
	putUint("distance", v.Distance)
	if v.Dirty != nil {
		vars["dirty"] = Bool(*v.Dirty)
	}
	if v.PreRelease != nil {
		pr := Object{"label": String(v.PreRelease.Label)}
		if v.PreRelease.Number != nil {
			pr["number"] = Uint(*v.PreRelease.Number)
		}
		vars["pre_release"] = pr
	}
	putString("bumped_branch", v.BumpedBranch)
	putString("bumped_commit_hash", v.BumpedCommitHash)
	putInt("bumped_timestamp", v.BumpedTimestamp)
	putString("last_branch", v.LastBranch)
	putString("last_commit_hash", v.LastCommitHash)
	putInt("last_timestamp", v.LastTimestamp)
	if len(v.Custom) > 0 {
		custom, err := FromAny(v.Custom)
		if err != nil {
			return nil, fmt.Errorf("vars.custom: %w", err)
		}
		vars["custom"] = custom
	}

	return Object{"schema": schema, "vars": vars}, nil
}

func componentValues(docs []ComponentDoc) Array {
	arr := make(Array, 0, len(docs))
	for _, c := range docs {
		switch {
		case c.Var != nil:
			arr = append(arr, Object{"var": String(*c.Var)})
		case c.Str != nil:
			arr = append(arr, Object{"str": String(*c.Str)})
		case c.Int != nil:
			arr = append(arr, Object{"int": Uint(*c.Int)})
		case c.Ts != nil:
			arr = append(arr, Object{"ts": String(*c.Ts)})
		}
	}
	return arr
}
