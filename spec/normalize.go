// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spec

import (
	"fmt"
	"math"
	"sort"

	"github.com/aclements/go-markres/diag"
)

// Normalize returns a fully defaulted copy of m. It fails with
// diag.UnknownMarkKind if m's kind is not in reg, with
// diag.UnknownChannel if m encodes a channel its kind does not
// expose, and with diag.InvalidOption if m's layout options belong to
// another kind or are out of range. If reg is nil, the default
// registry is used.
//
// Normalize does not modify m.
func Normalize(m Mark, reg *Registry) (Mark, error) {
	if reg == nil {
		reg = DefaultRegistry()
	}
	ki, err := reg.Lookup(m.kind)
	if err != nil {
		return Mark{}, err
	}
	m = m.Clone()
	kind := m.kind.String()

	if m.Encode == nil {
		m.Encode = make(map[Channel][]Encodable)
	}
	for ch, es := range m.Encode {
		if !ki.Accepts(ch) {
			return Mark{}, &diag.Error{Code: diag.CodeUnknownChannel, Mark: kind, Channel: string(ch), Detail: "channel not exposed by this kind"}
		}
		// Drop zero entries so "declared but empty" and "not
		// declared" look the same downstream.
		var keep []Encodable
		for _, e := range es {
			if !e.IsZero() {
				keep = append(keep, e)
			}
		}
		if len(keep) == 0 {
			delete(m.Encode, ch)
		} else {
			m.Encode[ch] = keep
		}
	}
	for ch, e := range ki.Defaults {
		if _, ok := m.Encode[ch]; !ok {
			m.Encode[ch] = []Encodable{e}
		}
	}
	if m.Scale == nil {
		m.Scale = make(map[Channel]ScaleSpec)
	}
	for ch := range m.Scale {
		if !ki.Accepts(ch) {
			return Mark{}, &diag.Error{Code: diag.CodeUnknownChannel, Mark: kind, Channel: string(ch), Detail: "scale declared for a channel not exposed by this kind"}
		}
	}

	m.Padding = m.Padding.normalize()
	m.Margin = m.Margin.normalize()
	m.Inset = m.Inset.normalize()

	m.Coordinate = m.Coordinate.normalize()

	switch {
	case m.kind.Structured():
		if m.Layout == nil {
			m.Layout = defaultLayout(m.kind)
		}
		if lk := m.Layout.LayoutKind(); lk != m.kind {
			return Mark{}, &diag.Error{Code: diag.CodeInvalidOption, Mark: kind, Detail: fmt.Sprintf("layout options for %s", lk)}
		}
		m.Layout = m.Layout.withDefaults()
		if err := m.Layout.Validate(); err != nil {
			return Mark{}, err
		}
	case m.Layout != nil:
		return Mark{}, &diag.Error{Code: diag.CodeInvalidOption, Mark: kind, Detail: "layout options given for a kind without its own layout"}
	}

	if m.Style == nil {
		m.Style = Style{}
	}

	m.Axis = m.Axis.normalize(m.Encode, X, Y)
	m.Legend = m.Legend.normalize(m.Encode, Color, Size, ShapeCh, Opacity)
	m.Animate = m.Animate.normalize()

	if m.Tooltip == nil {
		m.Tooltip = defaultTooltip(m.Encode)
	}
	return m, nil
}

func (s Sides) normalize() Sides {
	all := 0.0
	if s.All != nil {
		all = *s.All
	}
	fill := func(p **float64) {
		if *p == nil {
			*p = Float(all)
		}
	}
	fill(&s.Top)
	fill(&s.Right)
	fill(&s.Bottom)
	fill(&s.Left)
	return s
}

func (c Coordinate) normalize() Coordinate {
	if c.Type == "" {
		c.Type = Cartesian
	}
	polarDefaults(&c.StartAngle, &c.EndAngle, &c.InnerRadius, &c.OuterRadius)
	for i := range c.Transforms {
		t := &c.Transforms[i]
		switch t.Type {
		case TransformPolar, TransformHelix:
			polarDefaults(&t.StartAngle, &t.EndAngle, &t.InnerRadius, &t.OuterRadius)
		case TransformFisheye:
			if t.FocusX == 0 && t.FocusY == 0 {
				t.FocusX, t.FocusY = 0.5, 0.5
			}
			if t.DistortionX == 0 && t.DistortionY == 0 {
				t.DistortionX, t.DistortionY = 2, 2
			}
		}
	}
	return c
}

// polarDefaults fills the angle range and outer radius. Angles start
// at 12 o'clock and run clockwise.
func polarDefaults(start, end, inner, outer *float64) {
	if *start == 0 && *end == 0 {
		*start, *end = -math.Pi/2, 3*math.Pi/2
	}
	if *outer == 0 {
		*outer = 1
	}
	if *inner > *outer {
		*inner = *outer
	}
}

func (g Guides) normalize(enc map[Channel][]Encodable, chs ...Channel) Guides {
	if g.Hidden {
		return Guides{Hidden: true}
	}
	if g.ByChannel == nil {
		g.ByChannel = make(map[Channel]*Guide)
	}
	for _, ch := range chs {
		if _, ok := g.ByChannel[ch]; ok {
			continue
		}
		if es := enc[ch]; len(es) > 0 && es[0].Kind() != ConstKind {
			g.ByChannel[ch] = &Guide{}
		}
	}
	for ch, gd := range g.ByChannel {
		if gd == nil {
			g.ByChannel[ch] = &Guide{}
		}
	}
	return g
}

func (a *Animate) normalize() *Animate {
	if a != nil && a.Disabled {
		return &Animate{Disabled: true}
	}
	var out Animate
	if a != nil {
		out = *a
	}
	phase := func(p **Animation, typ string) {
		if *p == nil {
			*p = &Animation{}
		} else {
			c := **p
			*p = &c
		}
		if (*p).Type == "" {
			(*p).Type = typ
		}
		if (*p).Duration == 0 {
			(*p).Duration = 300
		}
		if (*p).Easing == "" {
			(*p).Easing = "ease"
		}
		if (*p).Fill == "" {
			(*p).Fill = "both"
		}
	}
	phase(&out.Enter, "fadeIn")
	phase(&out.Update, "morphing")
	phase(&out.Exit, "fadeOut")
	return &out
}

// tooltipOrder lists the channels a default tooltip shows first.
var tooltipOrder = map[Channel]int{X: 0, Y: 1, Position: 2, Color: 3, Size: 4, Value: 5}

// defaultTooltip returns a tooltip with one item per field-encoded
// channel.
func defaultTooltip(enc map[Channel][]Encodable) *Tooltip {
	var chs []Channel
	for ch, es := range enc {
		if ch.Enter() {
			continue
		}
		switch ch {
		case Key, GroupKey, TooltipCh, TitleCh, LabelCh, ShapeCh:
			continue
		}
		for _, e := range es {
			if e.Kind() == FieldKind {
				chs = append(chs, ch)
				break
			}
		}
	}
	sort.Slice(chs, func(i, j int) bool {
		oi, iok := tooltipOrder[chs[i]]
		oj, jok := tooltipOrder[chs[j]]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		}
		return chs[i] < chs[j]
	})
	t := &Tooltip{}
	for _, ch := range chs {
		t.Items = append(t.Items, TooltipItem{Channel: ch})
	}
	return t
}
