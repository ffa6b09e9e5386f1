// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scale

import (
	"math"

	"github.com/aclements/go-markres/data"
	"github.com/aclements/go-markres/spec"
)

// index maps category keys to their position in a domain.
type index struct {
	domain []any
	pos    map[any]int
}

func newIndex(domain []any) index {
	x := index{domain: domain, pos: make(map[any]int, len(domain))}
	for i, v := range domain {
		k := valueKey(v)
		if _, ok := x.pos[k]; !ok {
			x.pos[k] = i
		}
	}
	return x
}

func (x index) lookup(v any) (int, bool) {
	i, ok := x.pos[valueKey(v)]
	return i, ok
}

// band is a band or point scale. Point scales are band scales with
// zero bandwidth whose Map returns the band center.
type band struct {
	typ spec.ScaleType
	index

	lo, hi    float64
	step      float64
	bandwidth float64
	start     float64
	reverse   bool
}

// newBand returns a band (or point) scale over domain with range
// [lo, hi]. padding is the fraction of a step between bands; for
// point scales it is the outer padding.
func newBand(typ spec.ScaleType, domain []any, lo, hi, padding float64) *band {
	b := &band{typ: typ, index: newIndex(domain), lo: lo, hi: hi}
	r0, r1 := lo, hi
	if r1 < r0 {
		r0, r1 = r1, r0
		b.reverse = true
	}
	n := float64(len(domain))
	inner, outer := padding, padding
	if typ == spec.ScalePoint {
		inner = 1
	}
	b.step = (r1 - r0) / math.Max(1, n-inner+2*outer)
	b.start = r0 + (r1-r0-b.step*(n-inner))/2
	b.bandwidth = b.step * (1 - inner)
	return b
}

func (b *band) Type() spec.ScaleType { return b.typ }

func (b *band) Bandwidth() float64 { return b.bandwidth }

func (b *band) Map(v any) any {
	i, ok := b.lookup(v)
	if !ok {
		return nil
	}
	if b.reverse {
		i = len(b.domain) - 1 - i
	}
	return b.start + float64(i)*b.step
}

// Invert returns the domain value whose band contains r, or the
// nearest one if r falls between bands.
func (b *band) Invert(r any) (any, bool) {
	f, ok := data.Float(r)
	if !ok || len(b.domain) == 0 || b.step == 0 {
		return nil, false
	}
	center := b.bandwidth / 2
	i := int(math.Round((f - b.start - center) / b.step))
	if i < 0 {
		i = 0
	} else if i >= len(b.domain) {
		i = len(b.domain) - 1
	}
	if b.reverse {
		i = len(b.domain) - 1 - i
	}
	return b.domain[i], true
}

func (b *band) Domain() []any { return append([]any(nil), b.domain...) }

func (b *band) Range() []any { return []any{b.lo, b.hi} }

func (b *band) Ticks(n int) []any { return thin(b.domain, n) }

// ordinal maps categories to a discrete range, cycling through the
// range if the domain is longer.
type ordinal struct {
	index
	rng []any
}

func newOrdinal(domain, rng []any) *ordinal {
	return &ordinal{index: newIndex(domain), rng: rng}
}

func (o *ordinal) Type() spec.ScaleType { return spec.ScaleOrdinal }

func (o *ordinal) Map(v any) any {
	i, ok := o.lookup(v)
	if !ok || len(o.rng) == 0 {
		return nil
	}
	return o.rng[i%len(o.rng)]
}

// Invert returns the first domain value mapped to r.
func (o *ordinal) Invert(r any) (any, bool) {
	k := valueKey(r)
	for i, v := range o.rng {
		if valueKey(v) == k && i < len(o.domain) {
			return o.domain[i], true
		}
	}
	return nil, false
}

func (o *ordinal) Domain() []any { return append([]any(nil), o.domain...) }

func (o *ordinal) Range() []any { return append([]any(nil), o.rng...) }

func (o *ordinal) Ticks(n int) []any { return thin(o.domain, n) }

// thin returns at most n evenly spaced values of vs.
func thin(vs []any, n int) []any {
	if n <= 0 {
		return nil
	}
	if len(vs) <= n {
		return append([]any(nil), vs...)
	}
	step := (len(vs) + n - 1) / n
	var out []any
	for i := 0; i < len(vs); i += step {
		out = append(out, vs[i])
	}
	return out
}
