// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chart

import (
	"fmt"
	"math"

	"github.com/aclements/go-markres/coord"
	"github.com/aclements/go-markres/data"
	"github.com/aclements/go-markres/diag"
	"github.com/aclements/go-markres/encode"
	"github.com/aclements/go-markres/layout"
	"github.com/aclements/go-markres/spec"
)

// layout runs the layout of a structured mark and resolves its
// channels against the resulting node and link rows. Layouts only
// depend on the raw data, so this happens before scales are built.
func (st *markState) layout(opts Options) error {
	m := st.spec()
	ds := st.res.Data
	d := st.res.Diagnostics
	var (
		r   *layout.Result
		err error
	)
	switch l := m.Layout.(type) {
	case *spec.TreemapLayout:
		value, missing, verr := valueFunc(m, ds)
		if verr != nil {
			return verr
		}
		r, err = layout.Treemap(ds, value, l)
		d.AddMissing(string(spec.Value), *missing)
	case *spec.PackLayout:
		value, missing, verr := valueFunc(m, ds)
		if verr != nil {
			return verr
		}
		r, err = layout.Pack(ds, value, l)
		d.AddMissing(string(spec.Value), *missing)
	case *spec.TreeLayout:
		value, missing, verr := valueFunc(m, ds)
		if verr != nil {
			return verr
		}
		r, err = layout.Tree(ds, value, l)
		d.AddMissing(string(spec.Value), *missing)
	case *spec.SankeyLayout:
		var g *layout.Graph
		if g, err = st.graph(); err == nil {
			r, err = layout.Sankey(g, l)
		}
	case *spec.ForceLayout:
		var g *layout.Graph
		if g, err = st.graph(); err == nil {
			r, err = layout.Force(g, l)
		}
	case *spec.WordCloudLayout:
		var words []layout.Word
		if words, err = st.words(); err == nil {
			w, h := l.Width, l.Height
			if w <= 0 || h <= 0 {
				a := plotArea(opts.Area, m)
				w, h = a.Width, a.Height
			}
			r, err = layout.WordCloud(words, w, h, l)
		}
	default:
		return diag.Errorf(diag.CodeInvalidOption, "no layout for options %T", m.Layout)
	}
	if err != nil {
		return err
	}
	d.AddDropped(r.Dropped)
	if !r.Converged {
		d.AddNotConverged(m.Kind().String())
	}
	st.res.Layout = r
	st.res.Nodes = nodeRows(r.Nodes)

	// Positions come from the layout, so positional channels and
	// the layout's own inputs are not encoded again.
	graph := m.Kind() == spec.Sankey || m.Kind() == spec.ForceGraph
	own := func(ch spec.Channel) bool {
		switch base, _ := ch.Split(); base {
		case spec.X, spec.Y, spec.Position, spec.Source, spec.Target, spec.Value, spec.TextCh:
			return true
		}
		return false
	}
	st.main, err = encode.ResolveOnly(st.res.Nodes, m, func(ch spec.Channel) bool {
		if _, ok := ch.Unprefixed("link"); ok {
			return false
		}
		if u, ok := ch.Unprefixed("node"); ok {
			return !own(u)
		}
		return !own(ch)
	}, d)
	if err != nil {
		return err
	}
	if graph {
		st.res.Links = linkRows(r)
		st.links, err = encode.ResolveOnly(st.res.Links, m, func(ch spec.Channel) bool {
			u, ok := ch.Unprefixed("link")
			return ok && !own(u)
		}, d)
	} else if len(r.Links) > 0 {
		st.res.Links = linkRows(r)
	}
	return err
}

// valueFunc returns the leaf weight function of a hierarchy mark. It
// evaluates the value channel's last encoding against each datum,
// including nested rows that are not in ds. Without a value encoding
// every leaf weighs 1. The returned counter tallies data without a
// usable weight.
func valueFunc(m spec.Mark, ds *data.Dataset) (layout.ValueFunc, *int, error) {
	missing := new(int)
	es := m.Encode[spec.Value]
	if len(es) == 0 {
		return func(data.Row, int) float64 { return 1 }, missing, nil
	}
	e := es[len(es)-1]
	if e.Kind() == spec.FieldKind && ds.Len() > 0 && !ds.Has(e.FieldName()) {
		return nil, nil, &diag.Error{Code: diag.CodeFieldNotFound, Mark: m.Kind().String(), Channel: string(spec.Value), Field: e.FieldName(), Detail: "no such field in dataset"}
	}
	col, ok := ds.Column(string(spec.Value))
	if !ok {
		col = data.Column{Name: string(spec.Value)}
	}
	return func(row data.Row, i int) float64 {
		var v any
		switch e.Kind() {
		case spec.ConstKind:
			v = e.Value()
		case spec.FieldKind:
			v = row[e.FieldName()]
		case spec.ComputeKind:
			v = e.Func()(row, i, ds, col)
		}
		f, ok := data.Float(v)
		if !ok || math.IsNaN(f) {
			*missing++
			return 0
		}
		return f
	}, missing, nil
}

// graph builds the graph of a sankey or force mark from its source,
// target, and value channels. A row with both a source and a target is
// a link. A row with only a source declares a node and supplies its
// datum.
func (st *markState) graph() (*layout.Graph, error) {
	m := st.spec()
	ds := st.res.Data
	c, err := encode.ResolveOnly(ds, m, func(ch spec.Channel) bool {
		return ch == spec.Source || ch == spec.Target || ch == spec.Value
	}, st.res.Diagnostics)
	if err != nil {
		return nil, err
	}
	g := new(layout.Graph)
	src, dst, val := c.Get(spec.Source), c.Get(spec.Target), c.Get(spec.Value)
	for i := 0; i < c.N; i++ {
		if src == nil || src[i] == nil {
			continue
		}
		s := fmt.Sprint(src[i])
		if dst == nil || dst[i] == nil {
			g.AddNode(s, i, ds.Row(i))
			continue
		}
		v := 1.0
		if val != nil {
			f, ok := data.Float(val[i])
			if !ok || math.IsNaN(f) {
				st.res.Diagnostics.AddMissing(string(spec.Value), 1)
				f = 0
			}
			v = f
		}
		g.AddLink(s, fmt.Sprint(dst[i]), v, i, ds.Row(i))
	}
	return g, nil
}

// words builds the word list of a word cloud from its text and value
// channels. Rows without text are skipped.
func (st *markState) words() ([]layout.Word, error) {
	m := st.spec()
	ds := st.res.Data
	c, err := encode.ResolveOnly(ds, m, func(ch spec.Channel) bool {
		return ch == spec.TextCh || ch == spec.Value
	}, st.res.Diagnostics)
	if err != nil {
		return nil, err
	}
	text, val := c.Get(spec.TextCh), c.Get(spec.Value)
	var words []layout.Word
	for i := 0; i < c.N; i++ {
		if text == nil || text[i] == nil {
			continue
		}
		w := 1.0
		if val != nil {
			if f, ok := data.Float(val[i]); ok {
				w = f
			}
		}
		words = append(words, layout.Word{Text: fmt.Sprint(text[i]), Weight: w, Row: i, Datum: ds.Row(i)})
	}
	return words, nil
}

// nodeRows derives one row per layout node.
func nodeRows(nodes []layout.Node) *data.Dataset {
	rows := make([]data.Row, len(nodes))
	for i, n := range nodes {
		r := make(data.Row, len(n.Datum)+8)
		for k, v := range n.Datum {
			r[k] = v
		}
		set := func(k string, v any) {
			if _, ok := r[k]; !ok {
				r[k] = v
			}
		}
		set("id", n.ID)
		set("name", n.Name)
		set("depth", float64(n.Depth))
		set("height", float64(n.Height))
		set("value", n.Value)
		set("leaf", n.Leaf)
		if n.FontSize > 0 {
			set("fontSize", n.FontSize)
			set("rotate", n.Rotate)
		}
		rows[i] = r
	}
	return data.New(rows)
}

// linkRows derives one row per layout link.
func linkRows(r *layout.Result) *data.Dataset {
	rows := make([]data.Row, len(r.Links))
	for i, l := range r.Links {
		row := make(data.Row, len(l.Datum)+3)
		for k, v := range l.Datum {
			row[k] = v
		}
		set := func(k string, v any) {
			if _, ok := row[k]; !ok {
				row[k] = v
			}
		}
		set("source", r.Nodes[l.Source].ID)
		set("target", r.Nodes[l.Target].ID)
		set("value", l.Value)
		rows[i] = row
	}
	return data.New(rows)
}

func (e *emitter) treemap() {
	r := e.st.res.Layout
	for i, n := range r.Nodes {
		if !n.Leaf {
			continue
		}
		e.add(Primitive{Type: PrimRect, Role: "node", Row: i, Points: rect(e.pl, n.X0, n.Y0, n.X1, n.Y1), Style: e.style(e.b, i, true, "node")})
	}
}

// square maps a unit-square point so that the unit square becomes the
// largest square centered in the plot area. Circular layouts use it to
// stay circular in non-square areas.
func (e *emitter) square(x, y float64) (coord.Point, float64) {
	a := e.pl.Area()
	side := math.Min(a.Width, a.Height)
	u := coord.Point{X: 0.5 + (x-0.5)*side/a.Width, Y: 0.5 + (y-0.5)*side/a.Height}
	return e.pl.Apply(u), side
}

func (e *emitter) pack() {
	r := e.st.res.Layout
	for i, n := range r.Nodes {
		c, side := e.square(n.X, n.Y)
		e.add(Primitive{Type: PrimCircle, Role: "node", Row: i, Points: []coord.Point{c}, R: n.R * side, Style: e.style(e.b, i, true, "node")})
	}
}

func (e *emitter) tree() {
	r := e.st.res.Layout
	for i, l := range r.Links {
		s, t := r.Nodes[l.Source], r.Nodes[l.Target]
		pts := curve(e.pl, []coord.Point{{X: s.X, Y: s.Y}, {X: t.X, Y: t.Y}})
		e.add(Primitive{Type: PrimLine, Role: "link", Row: i, Points: pts, Style: e.style(nil, i, false, "")})
	}
	for i, n := range r.Nodes {
		e.add(Primitive{
			Type:   PrimCircle,
			Role:   "node",
			Row:    i,
			Points: []coord.Point{e.pl.Apply(coord.Point{X: n.X, Y: n.Y})},
			R:      e.size(e.b, spec.Size, i, 4),
			Style:  e.style(e.b, i, true, "node"),
		})
	}
}

func (e *emitter) sankey() {
	r := e.st.res.Layout
	fills := make([]string, len(r.Nodes))
	for i, n := range r.Nodes {
		st := e.style(e.b, i, true, "node")
		fills[i], _ = st["fill"].(string)
		e.add(Primitive{Type: PrimRect, Role: "node", Row: i, Points: rect(e.pl, n.X0, n.Y0, n.X1, n.Y1), Style: st})
	}
	for i, l := range r.Links {
		s, t := r.Nodes[l.Source], r.Nodes[l.Target]
		st := e.style(e.lb, i, true, "link")
		if !e.lb.Has(spec.Color.Prefixed("link")) {
			st["fill"] = fade(fills[l.Source], 0.5)
		}
		pts := apply(e.pl, ribbon(s.X1, l.Y0, t.X0, l.Y1, l.Width))
		e.add(Primitive{Type: PrimPolygon, Role: "link", Row: i, Points: pts, Style: st})
	}
}

func (e *emitter) force() {
	r := e.st.res.Layout
	for i, l := range r.Links {
		s, t := r.Nodes[l.Source], r.Nodes[l.Target]
		p, _ := e.square(s.X, s.Y)
		q, _ := e.square(t.X, t.Y)
		st := e.style(e.lb, i, false, "link")
		if _, ok := num(e.lb, spec.Size.Prefixed("link"), i); !ok {
			st["lineWidth"] = l.Width
		}
		e.add(Primitive{Type: PrimLine, Role: "link", Row: i, Points: []coord.Point{p, q}, Style: st})
	}
	for i, n := range r.Nodes {
		c, _ := e.square(n.X, n.Y)
		e.add(Primitive{
			Type:   PrimCircle,
			Role:   "node",
			Row:    i,
			Points: []coord.Point{c},
			R:      e.size(e.b, spec.Size.Prefixed("node"), i, 6),
			Style:  e.style(e.b, i, true, "node"),
		})
	}
}

func (e *emitter) wordCloud() {
	r := e.st.res.Layout
	for i, n := range r.Nodes {
		st := e.style(e.b, i, true, "")
		st["fontSize"] = n.FontSize
		st["fontFamily"] = e.theme.FontFamily
		st["rotate"] = n.Rotate
		st["textAlign"] = "center"
		st["textBaseline"] = "middle"
		e.add(Primitive{
			Type:   PrimText,
			Role:   "node",
			Row:    i,
			Points: []coord.Point{e.pl.Apply(coord.Point{X: n.X, Y: n.Y})},
			Text:   n.Name,
			Style:  st,
		})
	}
}
