package pep440

import (
	"cmp"

	"k8s.io/apimachinery/pkg/util/intstr"
)

// Compare orders v against o and returns -1, 0, or +1. Release segments
// are compared as if padded with zeros, so 1.0 equals 1.0.0.
func (v Version) Compare(o Version) int {
	if c := cmp.Compare(v.Epoch, o.Epoch); c != 0 {
		return c
	}
	if c := compareRelease(v.Release, o.Release); c != 0 {
		return c
	}
	if c := cmp.Compare(v.preKey(), o.preKey()); c != 0 {
		return c
	}
	if v.Pre != nil && o.Pre != nil {
		if c := cmp.Compare(v.Pre.Label, o.Pre.Label); c != 0 {
			return c
		}
		if c := cmp.Compare(v.Pre.Number, o.Pre.Number); c != 0 {
			return c
		}
	}
	if c := compareOptional(v.Post, o.Post, -1); c != 0 {
		return c
	}
	if c := compareOptional(v.Dev, o.Dev, 1); c != 0 {
		return c
	}
	return compareLocal(v.Local, o.Local)
}

// Less reports whether v sorts before o.
func (v Version) Less(o Version) bool {
	return v.Compare(o) < 0
}

// preKey ranks the pre-release slot: a bare dev release sorts before any
// pre-release, and a version without a pre-release sorts after one.
func (v Version) preKey() int {
	switch {
	case v.Pre != nil:
		return 0
	case v.Post == nil && v.Dev != nil:
		return -1
	default:
		return 1
	}
}

func compareRelease(a, b []uint64) int {
	n := max(len(a), len(b))
	for i := 0; i < n; i++ {
		var x, y uint64
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		if c := cmp.Compare(x, y); c != 0 {
			return c
		}
	}
	return 0
}

// compareOptional compares two optional numbers; missing sorts as the
// sign of absent (-1 lowest, +1 highest).
func compareOptional(a, b *uint64, absent int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return absent
	case b == nil:
		return -absent
	}
	return cmp.Compare(*a, *b)
}

// compareLocal orders local labels segment by segment. Numeric segments
// sort after text, and a label that is a prefix of another sorts first.
func compareLocal(a, b []intstr.IntOrString) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		x, y := a[i], b[i]
		switch {
		case x.Type == intstr.Int && y.Type == intstr.Int:
			if c := cmp.Compare(x.IntVal, y.IntVal); c != 0 {
				return c
			}
		case x.Type == intstr.Int:
			return 1
		case y.Type == intstr.Int:
			return -1
		default:
			if c := cmp.Compare(x.StrVal, y.StrVal); c != 0 {
				return c
			}
		}
	}
	return cmp.Compare(len(a), len(b))
}
