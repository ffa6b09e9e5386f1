// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scale

import (
	"image/color"
	"math"

	"github.com/aclements/go-gg/palette"
	mscale "github.com/aclements/go-moremath/scale"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/aclements/go-markres/data"
	"github.com/aclements/go-markres/diag"
	"github.com/aclements/go-markres/spec"
)

// continuous is a linear, sqrt, pow, log, or sequential scale.
//
// Values are first transformed (by a power or logarithm), then
// normalized to [0, 1] over the transformed domain, then mapped to
// either a numeric range or a color palette.
type continuous struct {
	typ spec.ScaleType

	// min and max are the untransformed domain.
	min, max float64

	// lin normalizes transformed values.
	lin      mscale.Linear
	fwd, inv func(float64) float64

	// lo and hi are the numeric range. If colors is non-nil, the
	// scale maps to colors instead.
	lo, hi float64
	colors palette.Continuous

	clamp bool
	base  float64
}

// newContinuous returns a continuous scale of type typ over [min,
// max] after applying the nice and zero options of s.
func newContinuous(typ spec.ScaleType, min, max float64, s spec.ScaleSpec) (*continuous, error) {
	c := &continuous{typ: typ, clamp: s.Clamp}
	id := func(x float64) float64 { return x }
	c.fwd, c.inv = id, id

	switch typ {
	case spec.ScaleSqrt:
		c.fwd, c.inv = powFuncs(0.5)
	case spec.ScalePow:
		e := s.Exponent
		if e == 0 {
			e = 1
		}
		c.fwd, c.inv = powFuncs(e)
	case spec.ScaleLog:
		c.base = s.Base
		if c.base == 0 {
			c.base = 10
		}
		if c.base <= 0 || c.base == 1 {
			return nil, diag.Errorf(diag.CodeInvalidOption, "log base %g", c.base)
		}
		if min <= 0 && max >= 0 {
			return nil, diag.Errorf(diag.CodeIncompatibleScaleType, "log scale domain [%g, %g] includes zero", min, max)
		}
		c.fwd, c.inv = logFuncs(c.base, min < 0)
	}

	if s.Zero && typ != spec.ScaleLog {
		min, max = math.Min(min, 0), math.Max(max, 0)
	}
	if s.Nice {
		min, max = c.nice(min, max)
	}
	c.min, c.max = min, max
	c.lin = mscale.Linear{Min: c.fwd(min), Max: c.fwd(max)}
	return c, nil
}

func powFuncs(e float64) (fwd, inv func(float64) float64) {
	p := func(e float64) func(float64) float64 {
		return func(x float64) float64 {
			if x < 0 {
				return -math.Pow(-x, e)
			}
			return math.Pow(x, e)
		}
	}
	return p(e), p(1 / e)
}

func logFuncs(base float64, negative bool) (fwd, inv func(float64) float64) {
	lb := math.Log(base)
	if negative {
		return func(x float64) float64 { return -math.Log(-x) / lb },
			func(y float64) float64 { return -math.Exp(-y * lb) }
	}
	return func(x float64) float64 { return math.Log(x) / lb },
		func(y float64) float64 { return math.Exp(y * lb) }
}

// nice extends [min, max] outward to round values.
func (c *continuous) nice(min, max float64) (float64, float64) {
	if min == max {
		return min, max
	}
	if c.typ == spec.ScaleLog {
		lb := math.Log(c.base)
		if min > 0 {
			return math.Pow(c.base, math.Floor(math.Log(min)/lb)), math.Pow(c.base, math.Ceil(math.Log(max)/lb))
		}
		return -math.Pow(c.base, math.Ceil(math.Log(-min)/lb)), -math.Pow(c.base, math.Floor(math.Log(-max)/lb))
	}
	major, _ := mscale.Linear{Min: min, Max: max}.Ticks(mscale.TickOptions{Max: 10})
	if len(major) < 2 {
		return min, max
	}
	step := major[1] - major[0]
	return math.Floor(min/step) * step, math.Ceil(max/step) * step
}

func (c *continuous) Type() spec.ScaleType { return c.typ }

// normalize maps v to [0, 1] over the domain.
func (c *continuous) normalize(v any) (float64, bool) {
	f, ok := data.Float(v)
	if !ok || math.IsNaN(f) {
		return 0, false
	}
	if c.typ == spec.ScaleLog && (f == 0 || (f < 0) != (c.min < 0)) {
		return 0, false
	}
	t := c.fwd(f)
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 0, false
	}
	if c.lin.Min == c.lin.Max {
		// A single-valued domain maps to the middle of the range.
		return 0.5, true
	}
	u := c.lin.Map(t)
	if c.clamp || c.colors != nil {
		u = math.Max(0, math.Min(1, u))
	}
	return u, true
}

func (c *continuous) Map(v any) any {
	u, ok := c.normalize(v)
	if !ok {
		return nil
	}
	if c.colors != nil {
		return hexColor(c.colors.Map(u))
	}
	return c.lo + u*(c.hi-c.lo)
}

func (c *continuous) Invert(r any) (any, bool) {
	if c.colors != nil {
		return nil, false
	}
	f, ok := data.Float(r)
	if !ok {
		return nil, false
	}
	u := 0.0
	if c.hi != c.lo {
		u = (f - c.lo) / (c.hi - c.lo)
	}
	t := c.lin.Min + u*(c.lin.Max-c.lin.Min)
	return c.inv(t), true
}

func (c *continuous) Domain() []any { return []any{c.min, c.max} }

func (c *continuous) Range() []any {
	if c.colors != nil {
		return []any{hexColor(c.colors.Map(0)), hexColor(c.colors.Map(1))}
	}
	return []any{c.lo, c.hi}
}

func (c *continuous) Ticks(n int) []any {
	if n <= 0 {
		return nil
	}
	if c.min == c.max {
		return []any{c.min}
	}
	var ticks []float64
	if c.typ == spec.ScaleLog {
		ticks = c.logTicks(n)
	} else {
		ticks, _ = mscale.Linear{Min: c.min, Max: c.max}.Ticks(mscale.TickOptions{Max: n})
	}
	out := make([]any, len(ticks))
	for i, t := range ticks {
		out[i] = t
	}
	return out
}

// logTicks returns the integer powers of the base within the domain,
// thinned to at most n.
func (c *continuous) logTicks(n int) []float64 {
	lo, hi := c.lin.Min, c.lin.Max
	if lo > hi {
		lo, hi = hi, lo
	}
	first, last := math.Ceil(lo-1e-9), math.Floor(hi+1e-9)
	count := int(last-first) + 1
	if count <= 0 {
		return nil
	}
	step := 1
	for count/step > n {
		step++
	}
	var ticks []float64
	for e := first; e <= last; e += float64(step) {
		ticks = append(ticks, c.inv(e))
	}
	if ticks[0] > ticks[len(ticks)-1] {
		for i, j := 0, len(ticks)-1; i < j; i, j = i+1, j-1 {
			ticks[i], ticks[j] = ticks[j], ticks[i]
		}
	}
	return ticks
}

// hexColor formats c as #rrggbb.
func hexColor(c color.Color) string {
	cf, _ := colorful.MakeColor(c)
	return cf.Hex()
}

// parseGradient builds a continuous palette from a list of CSS hex
// colors.
func parseGradient(rng []any) (palette.Continuous, error) {
	g := palette.RGBGradient{}
	for _, v := range rng {
		s, ok := v.(string)
		if !ok {
			return nil, diag.Errorf(diag.CodeInvalidOption, "color range value %v is not a string", v)
		}
		cf, err := colorful.Hex(s)
		if err != nil {
			return nil, diag.Errorf(diag.CodeInvalidOption, "color range value %q: %v", s, err)
		}
		r, gr, b := cf.RGB255()
		g.Colors = append(g.Colors, color.RGBA{r, gr, b, 255})
	}
	if len(g.Colors) < 2 {
		return nil, diag.Errorf(diag.CodeInvalidOption, "color range needs at least two colors")
	}
	return g, nil
}
