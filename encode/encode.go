// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package encode resolves a mark's channel encodings against its
// dataset and binds the results to scales.
package encode

import (
	"errors"
	"sort"

	"github.com/aclements/go-markres/data"
	"github.com/aclements/go-markres/diag"
	"github.com/aclements/go-markres/scale"
	"github.com/aclements/go-markres/spec"
)

// Channels holds the raw, unscaled values of every resolved channel,
// one per dataset row.
type Channels struct {
	// N is the number of rows.
	N int

	Values map[spec.Channel][]any

	// Order lists the channels in resolution order: enter*
	// channels first, then the rest by name.
	Order []spec.Channel

	// Fields records the data field behind a channel, if its last
	// encoding was a field reference.
	Fields map[spec.Channel]string

	// Constant is set for channels whose encodings are all
	// literals.
	Constant map[spec.Channel]bool
}

// Get returns the values of ch, or nil if ch is not resolved.
func (c *Channels) Get(ch spec.Channel) []any { return c.Values[ch] }

// Has reports whether ch was resolved.
func (c *Channels) Has(ch spec.Channel) bool {
	_, ok := c.Values[ch]
	return ok
}

// Resolve evaluates every encoded channel of m against ds. See
// ResolveOnly.
func Resolve(ds *data.Dataset, m spec.Mark, d *diag.Diagnostics) (*Channels, error) {
	return ResolveOnly(ds, m, nil, d)
}

// ResolveOnly evaluates the encoded channels of m for which keep
// returns true (all channels if keep is nil) against ds.
//
// A literal is broadcast to every row. A field reference is looked up
// in every row; rows missing the field yield nil and are counted in d.
// A function is called once per row.
//
// Several encodings on a positional channel (x, y, position) expand
// into its sub-channels: x, x1, x2, ... and position0, position1, ....
// On any other channel, later encodings override earlier ones wherever
// they produce a non-nil value.
//
// ResolveOnly fails with diag.FieldNotFound if a field reference names
// a field the dataset does not have.
func ResolveOnly(ds *data.Dataset, m spec.Mark, keep func(spec.Channel) bool, d *diag.Diagnostics) (*Channels, error) {
	if d == nil {
		d = new(diag.Diagnostics)
	}
	c := &Channels{
		N:        ds.Len(),
		Values:   make(map[spec.Channel][]any),
		Fields:   make(map[spec.Channel]string),
		Constant: make(map[spec.Channel]bool),
	}
	r := resolver{ds: ds, kind: m.Kind().String(), d: d}

	var chs []spec.Channel
	for ch, es := range m.Encode {
		if len(es) > 0 && (keep == nil || keep(ch)) {
			chs = append(chs, ch)
		}
	}
	sort.Slice(chs, func(i, j int) bool {
		ei, ej := chs[i].Enter(), chs[j].Enter()
		if ei != ej {
			return ei
		}
		return chs[i] < chs[j]
	})

	// Expanded positional sub-channels are written first so that an
	// explicit encoding of the same sub-channel takes precedence.
	explicit := make(map[spec.Channel]bool)
	for _, ch := range chs {
		explicit[ch] = true
	}
	for _, ch := range chs {
		es := m.Encode[ch]
		if !ch.Positional() || (len(es) == 1 && ch != spec.Position) {
			continue
		}
		for i, e := range es {
			sub := ch.Sub(i)
			if i > 0 && explicit[sub] {
				continue
			}
			if err := r.set(c, sub, []spec.Encodable{e}); err != nil {
				return nil, err
			}
		}
	}
	for _, ch := range chs {
		es := m.Encode[ch]
		if ch.Positional() && (len(es) > 1 || ch == spec.Position) {
			continue
		}
		if err := r.set(c, ch, es); err != nil {
			return nil, err
		}
	}
	return c, nil
}

type resolver struct {
	ds   *data.Dataset
	kind string
	d    *diag.Diagnostics
}

// set resolves the stacked encodings es into channel ch of c.
func (r *resolver) set(c *Channels, ch spec.Channel, es []spec.Encodable) error {
	var vals []any
	constant := true
	field := ""
	for _, e := range es {
		v, err := r.eval(ch, e)
		if err != nil {
			return err
		}
		if e.Kind() != spec.ConstKind {
			constant = false
		}
		field = e.FieldName()
		if vals == nil {
			vals = v
			continue
		}
		for i, x := range v {
			if x != nil {
				vals[i] = x
			}
		}
	}
	if vals == nil {
		vals = []any{}
	}
	if _, ok := c.Values[ch]; !ok {
		c.Order = append(c.Order, ch)
	}
	c.Values[ch] = vals
	c.Constant[ch] = constant
	if field != "" {
		c.Fields[ch] = field
	} else {
		delete(c.Fields, ch)
	}
	return nil
}

// eval resolves a single encoding to one value per row.
func (r *resolver) eval(ch spec.Channel, e spec.Encodable) ([]any, error) {
	n := r.ds.Len()
	out := make([]any, n)
	switch e.Kind() {
	case spec.ConstKind:
		v := e.Value()
		for i := range out {
			out[i] = v
		}

	case spec.FieldKind:
		name := e.FieldName()
		if !r.ds.Has(name) && (n > 0 || len(r.ds.Columns()) > 0) {
			return nil, &diag.Error{Code: diag.CodeFieldNotFound, Mark: r.kind, Channel: string(ch), Field: name, Detail: "no such field in dataset"}
		}
		missing := 0
		for i := range out {
			v, ok := r.ds.Value(i, name)
			if !ok {
				missing++
				continue
			}
			out[i] = v
		}
		r.d.AddMissing(string(ch), missing)

	case spec.ComputeKind:
		fn := e.Func()
		col := data.Column{Name: string(ch)}
		if c, ok := r.ds.Column(string(ch)); ok {
			col = c
		}
		for i := range out {
			out[i] = fn(r.ds.Row(i), i, r.ds, col)
		}
	}
	return out, nil
}

// Hint returns the scale type marks of kind k prefer for categorical
// positions: band for kinds that draw bars or boxes, point otherwise.
func Hint(k spec.Kind) spec.ScaleType {
	switch k {
	case spec.Interval, spec.Rect, spec.Cell, spec.Box, spec.BoxPlot, spec.RangeX:
		return spec.ScaleBand
	}
	return spec.ScalePoint
}

// ScaleSpec returns the scale declaration that applies to ch in m. A
// sub-channel such as y1 uses its base channel's declaration unless it
// has its own.
func ScaleSpec(m spec.Mark, ch spec.Channel) spec.ScaleSpec {
	if s, ok := m.Scale[ch]; ok {
		return s
	}
	if sch, ok := scale.Channel(ch); ok {
		return m.Scale[sch]
	}
	return spec.ScaleSpec{}
}

// scaled reports whether ch of c maps through a scale and returns its
// key.
func scaled(c *Channels, m spec.Mark, markKey string, ch spec.Channel) (scale.Key, spec.ScaleSpec, bool) {
	s := ScaleSpec(m, ch)
	if s.Type == spec.ScaleIdentity {
		return scale.Key{}, s, false
	}
	_, declared := m.Scale[ch]
	if sch, ok := scale.Channel(ch); ok {
		_, d2 := m.Scale[sch]
		declared = declared || d2
	}
	// Literal channels are drawn as given unless a scale is declared.
	if c.Constant[ch] && !declared {
		return scale.Key{}, s, false
	}
	k, ok := scale.KeyFor(ch, markKey, s)
	return k, s, ok
}

// Observe feeds the scaled channels of c into sess. order is the
// mark's position in the chart and markKey identifies it for
// independent scales.
func Observe(sess *scale.Session, c *Channels, m spec.Mark, order int, markKey string) error {
	hint := Hint(m.Kind())
	for _, ch := range c.Order {
		k, s, ok := scaled(c, m, markKey, ch)
		if !ok {
			continue
		}
		err := sess.Observe(scale.Observation{
			Key:      k,
			Order:    order,
			MarkKind: m.Kind().String(),
			Spec:     s,
			Hint:     hint,
			Values:   c.Values[ch],
		})
		if err != nil {
			return diag.AnnotateMark(err, m.Kind().String())
		}
	}
	return nil
}

// Bound holds scaled channel values.
type Bound struct {
	N      int
	Values map[spec.Channel][]any

	// Raw is the unscaled input.
	Raw *Channels

	// Scales records the scale each scaled channel went through.
	Scales map[spec.Channel]scale.Scale
}

// Get returns the scaled values of ch, or nil if ch is not resolved.
func (b *Bound) Get(ch spec.Channel) []any { return b.Values[ch] }

// Has reports whether ch was resolved.
func (b *Bound) Has(ch spec.Channel) bool {
	_, ok := b.Values[ch]
	return ok
}

// Float returns the i'th value of ch as a float64.
func (b *Bound) Float(ch spec.Channel, i int) (float64, bool) {
	vs := b.Values[ch]
	if i >= len(vs) {
		return 0, false
	}
	return data.Float(vs[i])
}

// Bind passes the values of c through their scales in the frozen
// session sess. Channels without a scale pass through unchanged.
// Values a scale cannot map become nil and are counted in d.
func Bind(c *Channels, sess *scale.Session, m spec.Mark, markKey string, d *diag.Diagnostics) (*Bound, error) {
	if d == nil {
		d = new(diag.Diagnostics)
	}
	b := &Bound{
		N:      c.N,
		Values: make(map[spec.Channel][]any, len(c.Values)),
		Raw:    c,
		Scales: make(map[spec.Channel]scale.Scale),
	}
	for _, ch := range c.Order {
		raw := c.Values[ch]
		k, _, ok := scaled(c, m, markKey, ch)
		if !ok {
			b.Values[ch] = raw
			continue
		}
		sc, err := sess.Scale(k)
		if errors.Is(err, scale.ErrNoScale) {
			b.Values[ch] = raw
			continue
		} else if err != nil {
			return nil, err
		}
		out := make([]any, len(raw))
		unmapped := 0
		for i, v := range raw {
			if v == nil {
				continue
			}
			if out[i] = sc.Map(v); out[i] == nil {
				unmapped++
			}
		}
		d.AddMissing(string(ch), unmapped)
		b.Values[ch] = out
		b.Scales[ch] = sc
	}
	return b, nil
}
