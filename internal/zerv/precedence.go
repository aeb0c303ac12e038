package zerv

import (
	"fmt"
	"strings"
)

// Precedence names a bumpable field in the reset cascade. PreRelease is
// split into its label and number so each can rank independently.
type Precedence int

const (
	PrecedenceEpoch Precedence = iota
	PrecedenceMajor
	PrecedenceMinor
	PrecedencePatch
	PrecedencePreReleaseLabel
	PrecedencePreReleaseNum
	PrecedencePost
	PrecedenceDev

	numPrecedences
)

var precedenceNames = [numPrecedences]string{
	"epoch",
	"major",
	"minor",
	"patch",
	"pre_release_label",
	"pre_release_num",
	"post",
	"dev",
}

func (p Precedence) String() string {
	if p < 0 || p >= numPrecedences {
		return fmt.Sprintf("precedence(%d)", int(p))
	}
	return precedenceNames[p]
}

// ParsePrecedence parses a precedence name.
func ParsePrecedence(name string) (Precedence, error) {
	for i, n := range precedenceNames {
		if n == name {
			return Precedence(i), nil
		}
	}
	return 0, fmt.Errorf("unknown precedence %q: must be one of %s", name, strings.Join(precedenceNames[:], ", "))
}

// Var returns the field a precedence entry belongs to.
func (p Precedence) Var() Var {
	switch p {
	case PrecedenceEpoch:
		return VarEpoch
	case PrecedenceMajor:
		return VarMajor
	case PrecedenceMinor:
		return VarMinor
	case PrecedencePatch:
		return VarPatch
	case PrecedencePreReleaseLabel, PrecedencePreReleaseNum:
		return VarPreRelease
	case PrecedencePost:
		return VarPost
	default:
		return VarDev
	}
}

// PrecedenceFor returns the precedence entry a field token bumps.
// PreRelease tokens bump the number.
func PrecedenceFor(v Var) (Precedence, bool) {
	switch v.Kind {
	case KindEpoch:
		return PrecedenceEpoch, true
	case KindMajor:
		return PrecedenceMajor, true
	case KindMinor:
		return PrecedenceMinor, true
	case KindPatch:
		return PrecedencePatch, true
	case KindPreRelease:
		return PrecedencePreReleaseNum, true
	case KindPost:
		return PrecedencePost, true
	case KindDev:
		return PrecedenceDev, true
	}
	return 0, false
}

// DefaultPrecedence is the default bump order.
var DefaultPrecedence = []Precedence{
	PrecedenceEpoch,
	PrecedenceMajor,
	PrecedenceMinor,
	PrecedencePatch,
	PrecedencePreReleaseLabel,
	PrecedencePreReleaseNum,
	PrecedencePost,
	PrecedenceDev,
}

// PrecedenceOrder is a rank bijection over precedence entries with O(1)
// lookup in both directions. The zero value is empty.
type PrecedenceOrder struct {
	order []Precedence
	rank  [numPrecedences]int // index+1, 0 when absent
}

// NewPrecedenceOrder builds an order, rejecting unknown or repeated entries.
func NewPrecedenceOrder(ps []Precedence) (PrecedenceOrder, error) {
	var o PrecedenceOrder
	o.order = make([]Precedence, 0, len(ps))
	for i, p := range ps {
		if p < 0 || p >= numPrecedences {
			return PrecedenceOrder{}, fmt.Errorf("precedence_order[%d]: unknown precedence %d", i, int(p))
		}
		if o.rank[p] != 0 {
			return PrecedenceOrder{}, fmt.Errorf("precedence_order[%d]: duplicate precedence %q", i, p)
		}
		o.order = append(o.order, p)
		o.rank[p] = len(o.order)
	}
	return o, nil
}

// DefaultPrecedenceOrder returns the default order.
func DefaultPrecedenceOrder() PrecedenceOrder {
	o, _ := NewPrecedenceOrder(DefaultPrecedence)
	return o
}

// Len returns the number of entries.
func (o PrecedenceOrder) Len() int { return len(o.order) }

// At returns the entry at rank i.
func (o PrecedenceOrder) At(i int) Precedence { return o.order[i] }

// Rank returns the rank of p, or false when p is not in the order.
func (o PrecedenceOrder) Rank(p Precedence) (int, bool) {
	if p < 0 || p >= numPrecedences || o.rank[p] == 0 {
		return 0, false
	}
	return o.rank[p] - 1, true
}

// Contains reports whether p is in the order.
func (o PrecedenceOrder) Contains(p Precedence) bool {
	_, ok := o.Rank(p)
	return ok
}

// List returns a copy of the entries in rank order.
func (o PrecedenceOrder) List() []Precedence {
	return append([]Precedence(nil), o.order...)
}

// IsDefault reports whether the order equals DefaultPrecedence.
func (o PrecedenceOrder) IsDefault() bool {
	if len(o.order) != len(DefaultPrecedence) {
		return false
	}
	for i, p := range o.order {
		if DefaultPrecedence[i] != p {
			return false
		}
	}
	return true
}
