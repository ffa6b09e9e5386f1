// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chart

import (
	"fmt"
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"

	"github.com/aclements/go-markres/coord"
	"github.com/aclements/go-markres/data"
	"github.com/aclements/go-markres/diag"
	"github.com/aclements/go-markres/encode"
	"github.com/aclements/go-markres/scale"
	"github.com/aclements/go-markres/spec"
	"github.com/aclements/go-markres/tooltip"
)

// An emitter turns one mark's bound channels into primitives.
type emitter struct {
	st    *markState
	pl    *coord.Pipeline
	theme Theme

	// b holds the bound channels of the mark's rows (node rows for
	// structured kinds) and lb those of its link rows.
	b, lb *encode.Bound

	out []Primitive

	// anchors records the pixel bounds of each row's geometry for
	// placing labels.
	anchors map[anchorKey]box
}

type anchorKey struct {
	role string
	row  int
}

func (e *emitter) add(p Primitive) {
	e.out = append(e.out, p)
	if p.Row < 0 || p.Role == "label" {
		return
	}
	min, max := p.Bounds()
	k := anchorKey{p.Role, p.Row}
	if old, ok := e.anchors[k]; ok {
		min.X, min.Y = math.Min(min.X, old.x0), math.Min(min.Y, old.y0)
		max.X, max.Y = math.Max(max.X, old.x1), math.Max(max.Y, old.y1)
	}
	e.anchors[k] = box{min.X, min.Y, max.X, max.Y}
}

// dispatch emits the geometry of every mark kind.
func (e *emitter) dispatch() error {
	switch k := e.st.spec().Kind(); k {
	case spec.Interval:
		e.intervals()
	case spec.Rect, spec.Cell, spec.Range, spec.RangeX, spec.RangeY:
		e.rects(k)
	case spec.Point, spec.Node, spec.Shape:
		e.symbols()
	case spec.Text:
		e.texts()
	case spec.Image:
		e.images()
	case spec.Line, spec.Path:
		e.lines()
	case spec.Area:
		e.areas()
	case spec.Polygon:
		e.polygons()
	case spec.Edge, spec.Link, spec.Connector:
		e.edges(k == spec.Connector)
	case spec.Vector:
		e.vectors()
	case spec.LineX, spec.LineY:
		e.rules(k == spec.LineX)
	case spec.Box:
		e.boxes()
	case spec.BoxPlot:
		return e.boxplots()
	case spec.Treemap:
		e.treemap()
	case spec.Pack:
		e.pack()
	case spec.Tree:
		e.tree()
	case spec.Sankey:
		e.sankey()
	case spec.ForceGraph:
		e.force()
	case spec.WordCloud:
		e.wordCloud()
	default:
		return &diag.Error{Code: diag.CodeUnknownMarkKind, Mark: k.String(), Detail: "no geometry for this kind"}
	}
	return nil
}

// num returns the i'th value of ch as a float64.
func num(b *encode.Bound, ch spec.Channel, i int) (float64, bool) {
	if b == nil {
		return 0, false
	}
	f, ok := b.Float(ch, i)
	return f, ok && !math.IsNaN(f)
}

// bandwidth returns the band width of the scale behind ch, or 0.
func bandwidth(b *encode.Bound, ch spec.Channel) float64 {
	base, _ := ch.Split()
	for _, c := range []spec.Channel{ch, base} {
		if sc, ok := b.Scales[c].(scale.Banded); ok {
			return sc.Bandwidth()
		}
	}
	return 0
}

// pos returns the position of row i on channel ch, centered in its
// band. An unencoded channel sits in the middle of the square.
func (e *emitter) pos(ch spec.Channel, i int) (float64, bool) {
	if !e.b.Has(ch) {
		return 0.5, true
	}
	v, ok := num(e.b, ch, i)
	return v + bandwidth(e.b, ch)/2, ok
}

// span returns the extent of row i along the axis of base: from the
// base channel to its first sub-channel, or across the band when the
// sub-channel is not encoded.
func (e *emitter) span(base spec.Channel, i int) (lo, hi float64, ok bool) {
	if !e.b.Has(base) {
		return 0, 1, true
	}
	lo, ok = num(e.b, base, i)
	if !ok {
		return 0, 0, false
	}
	if e.b.Has(base.Sub(1)) {
		hi, ok = num(e.b, base.Sub(1), i)
		return lo, hi, ok
	}
	return lo, lo + bandwidth(e.b, base), true
}

// baseline returns the position of zero on the y scale, clamped to
// the unit square. Without a continuous y scale it is the bottom.
func (e *emitter) baseline() float64 {
	sc, ok := e.b.Scales[spec.Y]
	if !ok || scale.CategoryOf(sc.Type()) != scale.Continuous {
		return 1
	}
	f, ok := data.Float(sc.Map(0.0))
	if !ok || math.IsNaN(f) {
		return 1
	}
	return math.Max(0, math.Min(1, f))
}

// style resolves the style of row i of b. Theme tokens come first,
// then encoded channels, then the mark's declared style. prefix
// selects graph channels ("node" or "link"), falling back to the
// unprefixed channel.
func (e *emitter) style(b *encode.Bound, i int, filled bool, prefix string) map[string]any {
	get := func(ch spec.Channel) (any, bool) {
		if b == nil {
			return nil, false
		}
		chs := []spec.Channel{ch}
		if prefix != "" {
			chs = []spec.Channel{ch.Prefixed(prefix), ch}
		}
		for _, c := range chs {
			if vs := b.Get(c); i < len(vs) && vs[i] != nil {
				return vs[i], true
			}
		}
		return nil, false
	}
	st := map[string]any{"opacity": e.theme.Opacity}
	col := e.theme.Stroke
	if filled {
		col = e.theme.Fill
	}
	if v, ok := get(spec.Color); ok {
		if c, ok := color(v); ok {
			col = c
		}
	}
	if filled {
		st["fill"] = col
	} else {
		st["stroke"] = col
		st["lineWidth"] = e.theme.LineWidth
		if v, ok := get(spec.Size); ok {
			if f, ok := data.Float(v); ok {
				st["lineWidth"] = f
			}
		}
	}
	if v, ok := get(spec.Opacity); ok {
		if f, ok := data.Float(v); ok {
			st["opacity"] = f
		}
	}
	for k, v := range e.st.spec().Style {
		st[k] = v
	}
	return st
}

// size returns the size channel of row i in pixels.
func (e *emitter) size(b *encode.Bound, ch spec.Channel, i int, def float64) float64 {
	if f, ok := num(b, ch, i); ok {
		return f
	}
	return def
}

func (e *emitter) intervals() {
	b := e.b
	for i := 0; i < b.N; i++ {
		x0, x1, ok := e.span(spec.X, i)
		if !ok {
			continue
		}
		if x0 == x1 {
			// A continuous x has no bands; draw a thin bar.
			w := 0.8 / float64(max(b.N, 1))
			x0, x1 = x0-w/2, x0+w/2
		}
		y0, ok := num(b, spec.Y, i)
		if !ok {
			continue
		}
		y1 := e.baseline()
		if b.Has(spec.Y1) {
			if y1, ok = num(b, spec.Y1, i); !ok {
				continue
			}
		}
		e.add(Primitive{Type: PrimRect, Row: i, Points: rect(e.pl, x0, y0, x1, y1), Style: e.style(b, i, true, "")})
	}
}

func (e *emitter) rects(k spec.Kind) {
	b := e.b
	for i := 0; i < b.N; i++ {
		x0, x1, okx := e.span(spec.X, i)
		y0, y1, oky := e.span(spec.Y, i)
		switch k {
		case spec.RangeX:
			y0, y1, oky = 0, 1, true
		case spec.RangeY:
			x0, x1, okx = 0, 1, true
		}
		if !okx || !oky {
			continue
		}
		e.add(Primitive{Type: PrimRect, Row: i, Points: rect(e.pl, x0, y0, x1, y1), Style: e.style(b, i, true, "")})
	}
}

func (e *emitter) symbols() {
	b := e.b
	for i := 0; i < b.N; i++ {
		x, okx := e.pos(spec.X, i)
		y, oky := e.pos(spec.Y, i)
		if !okx || !oky {
			continue
		}
		sym := "point"
		if vs := b.Get(spec.ShapeCh); i < len(vs) {
			if s, ok := vs[i].(string); ok {
				sym = s
			}
		}
		e.add(Primitive{
			Type:   PrimSymbol,
			Row:    i,
			Points: []coord.Point{e.pl.Apply(coord.Point{X: x, Y: y})},
			R:      e.size(b, spec.Size, i, 3),
			Symbol: sym,
			Style:  e.style(b, i, true, ""),
		})
	}
}

func (e *emitter) texts() {
	b := e.b
	for i := 0; i < b.N; i++ {
		x, okx := e.pos(spec.X, i)
		y, oky := e.pos(spec.Y, i)
		vs := b.Get(spec.TextCh)
		if !okx || !oky || i >= len(vs) || vs[i] == nil {
			continue
		}
		st := e.style(b, i, true, "")
		st["fontSize"] = e.size(b, spec.FontSize, i, e.theme.FontSize)
		st["fontFamily"] = e.theme.FontFamily
		for _, ch := range []spec.Channel{spec.FontWeight, spec.FontStyle, spec.Rotate, spec.TextAlign, spec.TextBaseline} {
			if v := b.Get(ch); i < len(v) && v[i] != nil {
				st[string(ch)] = v[i]
			}
		}
		e.add(Primitive{
			Type:   PrimText,
			Row:    i,
			Points: []coord.Point{e.pl.Apply(coord.Point{X: x, Y: y})},
			Text:   fmt.Sprint(vs[i]),
			Style:  st,
		})
	}
}

func (e *emitter) images() {
	b := e.b
	for i := 0; i < b.N; i++ {
		x, okx := e.pos(spec.X, i)
		y, oky := e.pos(spec.Y, i)
		var src string
		if vs := b.Get(spec.Src); i < len(vs) {
			src, _ = vs[i].(string)
		}
		if !okx || !oky || src == "" {
			continue
		}
		e.add(Primitive{
			Type:   PrimImage,
			Row:    i,
			Points: []coord.Point{e.pl.Apply(coord.Point{X: x, Y: y})},
			R:      e.size(b, spec.Size, i, 32),
			Src:    src,
			Style:  map[string]any{"opacity": e.theme.Opacity},
		})
	}
}

// groups splits the rows into series: by the series channel if it is
// encoded, otherwise by color, otherwise one group. Groups are in
// order of first appearance and keep their rows in input order.
func (e *emitter) groups() [][]int {
	b := e.b
	var key []any
	for _, ch := range []spec.Channel{spec.Series, spec.Color} {
		if b.Raw.Has(ch) && !b.Raw.Constant[ch] {
			key = b.Raw.Get(ch)
			break
		}
	}
	if key == nil {
		all := make([]int, b.N)
		for i := range all {
			all[i] = i
		}
		return [][]int{all}
	}
	var out [][]int
	index := make(map[string]int)
	for i := 0; i < b.N; i++ {
		k := fmt.Sprint(key[i])
		g, ok := index[k]
		if !ok {
			g = len(out)
			index[k] = g
			out = append(out, nil)
		}
		out[g] = append(out[g], i)
	}
	return out
}

func (e *emitter) lines() {
	for _, rows := range e.groups() {
		var pts []coord.Point
		var used []int
		for _, i := range rows {
			x, okx := e.pos(spec.X, i)
			y, oky := e.pos(spec.Y, i)
			if !okx || !oky {
				continue
			}
			pts = append(pts, coord.Point{X: x, Y: y})
			used = append(used, i)
			e.anchors[anchorKey{"", i}] = pointBox(e.pl.Apply(coord.Point{X: x, Y: y}))
		}
		if len(used) == 0 {
			continue
		}
		e.out = append(e.out, Primitive{Type: PrimLine, Row: -1, Rows: used, Points: curve(e.pl, pts), Style: e.style(e.b, used[0], false, "")})
	}
}

func (e *emitter) areas() {
	base := e.baseline()
	for _, rows := range e.groups() {
		var top, bottom []coord.Point
		var used []int
		for _, i := range rows {
			x, okx := e.pos(spec.X, i)
			y, oky := num(e.b, spec.Y, i)
			if !okx || !oky {
				continue
			}
			y1 := base
			if e.b.Has(spec.Y1) {
				if y1, oky = num(e.b, spec.Y1, i); !oky {
					continue
				}
			}
			top = append(top, coord.Point{X: x, Y: y})
			bottom = append(bottom, coord.Point{X: x, Y: y1})
			used = append(used, i)
			e.anchors[anchorKey{"", i}] = pointBox(e.pl.Apply(coord.Point{X: x, Y: y}))
		}
		if len(used) == 0 {
			continue
		}
		for l, r := 0, len(bottom)-1; l < r; l, r = l+1, r-1 {
			bottom[l], bottom[r] = bottom[r], bottom[l]
		}
		pts := append(curve(e.pl, top), curve(e.pl, bottom)...)
		e.out = append(e.out, Primitive{Type: PrimArea, Row: -1, Rows: used, Points: pts, Style: e.style(e.b, used[0], true, "")})
	}
}

// polygons draws one closed outline per row through the points
// (x, y), (x1, y1), (x2, y2), ... as far as both are encoded.
func (e *emitter) polygons() {
	b := e.b
rows:
	for i := 0; i < b.N; i++ {
		var pts []coord.Point
		for k := 0; b.Has(spec.X.Sub(k)) && b.Has(spec.Y.Sub(k)); k++ {
			x, okx := num(b, spec.X.Sub(k), i)
			y, oky := num(b, spec.Y.Sub(k), i)
			if !okx || !oky {
				continue rows
			}
			pts = append(pts, coord.Point{X: x, Y: y})
		}
		if len(pts) < 3 {
			continue
		}
		closed := curve(e.pl, append(pts, pts[0]))
		e.add(Primitive{Type: PrimPolygon, Row: i, Points: closed[:len(closed)-1], Style: e.style(b, i, true, "")})
	}
}

// edges draws a segment from (x, y) to (x1, y1) per row. Connectors
// route through the vertical midpoint with right angles.
func (e *emitter) edges(connector bool) {
	b := e.b
	for i := 0; i < b.N; i++ {
		x0, ok0 := e.pos(spec.X, i)
		y0, ok1 := e.pos(spec.Y, i)
		x1, ok2 := e.pos(spec.X1, i)
		y1, ok3 := e.pos(spec.Y1, i)
		if !ok0 || !ok1 || !ok2 || !ok3 {
			continue
		}
		pts := []coord.Point{{X: x0, Y: y0}, {X: x1, Y: y1}}
		if connector {
			ym := (y0 + y1) / 2
			pts = []coord.Point{{X: x0, Y: y0}, {X: x0, Y: ym}, {X: x1, Y: ym}, {X: x1, Y: y1}}
		}
		e.add(Primitive{Type: PrimLine, Row: i, Points: curve(e.pl, pts), Style: e.style(b, i, false, "")})
	}
}

// vectors draws an arrow per row from (x, y), size pixels long,
// rotated by the rotate channel in degrees.
func (e *emitter) vectors() {
	b := e.b
	for i := 0; i < b.N; i++ {
		x, okx := e.pos(spec.X, i)
		y, oky := e.pos(spec.Y, i)
		if !okx || !oky {
			continue
		}
		l := e.size(b, spec.Size, i, 10)
		a := e.size(b, spec.Rotate, i, 0) * math.Pi / 180
		p := e.pl.Apply(coord.Point{X: x, Y: y})
		q := coord.Point{X: p.X + l*math.Cos(a), Y: p.Y + l*math.Sin(a)}
		st := e.style(b, i, false, "")
		st["lineWidth"] = e.theme.LineWidth
		e.add(Primitive{Type: PrimLine, Row: i, Points: []coord.Point{p, q}, Symbol: "arrow", Style: st})
	}
}

// rules draws a line across the whole plot at x (vertical) or y.
func (e *emitter) rules(vertical bool) {
	b := e.b
	for i := 0; i < b.N; i++ {
		var pts []coord.Point
		if vertical {
			x, ok := e.pos(spec.X, i)
			if !ok {
				continue
			}
			pts = []coord.Point{{X: x, Y: 0}, {X: x, Y: 1}}
		} else {
			y, ok := e.pos(spec.Y, i)
			if !ok {
				continue
			}
			pts = []coord.Point{{X: 0, Y: y}, {X: 1, Y: y}}
		}
		e.add(Primitive{Type: PrimLine, Row: i, Points: curve(e.pl, pts), Style: e.style(b, i, false, "")})
	}
}

// fiveNum holds box plot statistics in scaled y units.
type fiveNum struct {
	lo, q1, med, q3, hi float64
}

// box draws the parts of a box plot at x0..x1.
func (e *emitter) box(row int, rows []int, x0, x1 float64, f fiveNum) {
	fill := e.style(e.b, row, true, "")
	stroke := e.style(e.b, row, false, "")
	xm := (x0 + x1) / 2
	e.add(Primitive{Type: PrimRect, Role: "box", Row: row, Rows: rows, Points: rect(e.pl, x0, f.q1, x1, f.q3), Style: fill})
	e.add(Primitive{Type: PrimLine, Role: "median", Row: row, Rows: rows, Points: curve(e.pl, []coord.Point{{X: x0, Y: f.med}, {X: x1, Y: f.med}}), Style: stroke})
	for _, w := range [][2]float64{{f.q1, f.lo}, {f.q3, f.hi}} {
		pts := []coord.Point{{X: xm, Y: w[0]}, {X: xm, Y: w[1]}}
		e.add(Primitive{Type: PrimLine, Role: "whisker", Row: row, Rows: rows, Points: curve(e.pl, pts), Style: stroke})
	}
}

// boxes draws precomputed boxes: y through y4 are the low whisker,
// first quartile, median, third quartile, and high whisker.
func (e *emitter) boxes() {
	b := e.b
	chs := []spec.Channel{spec.Y, spec.Y.Sub(1), spec.Y.Sub(2), spec.Y.Sub(3), spec.Y.Sub(4)}
rows:
	for i := 0; i < b.N; i++ {
		x0, x1, ok := e.span(spec.X, i)
		if !ok {
			continue
		}
		var v [5]float64
		for k, ch := range chs {
			if v[k], ok = num(b, ch, i); !ok {
				continue rows
			}
		}
		e.box(i, nil, x0, x1, fiveNum{v[0], v[1], v[2], v[3], v[4]})
	}
}

// boxplots groups rows by x and draws the distribution of each
// group's raw y values: the box spans the quartiles, whiskers reach
// the furthest values within 1.5 IQR, and values beyond are drawn as
// outliers.
func (e *emitter) boxplots() error {
	b := e.b
	raw := b.Raw.Get(spec.Y)
	if len(raw) < b.N {
		return &diag.Error{Code: diag.CodeInvalidOption, Mark: spec.BoxPlot.String(), Channel: string(spec.Y), Detail: "box plots summarize the y channel, which is not encoded"}
	}
	sc := b.Scales[spec.Y]
	mapY := func(v float64) float64 {
		if sc == nil {
			return v
		}
		f, _ := data.Float(sc.Map(v))
		return f
	}
	type group struct {
		rows []int
		ys   []float64
	}
	var order []string
	groups := make(map[string]*group)
	xs := b.Raw.Get(spec.X)
	for i := 0; i < b.N; i++ {
		y, ok := data.Float(raw[i])
		if !ok || math.IsNaN(y) {
			continue
		}
		k := ""
		if xs != nil {
			k = fmt.Sprint(xs[i])
		}
		g := groups[k]
		if g == nil {
			g = new(group)
			groups[k] = g
			order = append(order, k)
		}
		g.rows = append(g.rows, i)
		g.ys = append(g.ys, y)
	}
	for _, k := range order {
		g := groups[k]
		row := g.rows[0]
		x0, x1, ok := e.span(spec.X, row)
		if !ok {
			continue
		}
		if x0 == x1 {
			x0, x1 = x0-0.05, x0+0.05
		}
		s := stats.Sample{Xs: append([]float64(nil), g.ys...)}
		sort.Float64s(s.Xs)
		s.Sorted = true
		q1, med, q3 := s.Quantile(0.25), s.Quantile(0.5), s.Quantile(0.75)
		iqr := q3 - q1
		lo, hi := stats.Bounds(s.Xs)
		loFence, hiFence := q1-1.5*iqr, q3+1.5*iqr
		for _, y := range s.Xs {
			if y >= loFence {
				lo = y
				break
			}
		}
		for j := len(s.Xs) - 1; j >= 0; j-- {
			if s.Xs[j] <= hiFence {
				hi = s.Xs[j]
				break
			}
		}
		e.box(row, g.rows, x0, x1, fiveNum{mapY(lo), mapY(q1), mapY(med), mapY(q3), mapY(hi)})
		for j, y := range g.ys {
			if y < loFence || y > hiFence {
				i := g.rows[j]
				e.add(Primitive{
					Type:   PrimSymbol,
					Role:   "outlier",
					Row:    i,
					Points: []coord.Point{e.pl.Apply(coord.Point{X: (x0 + x1) / 2, Y: mapY(y)})},
					R:      3,
					Symbol: "point",
					Style:  e.style(b, i, true, ""),
				})
			}
		}
	}
	return nil
}

// labels emits the data labels of the mark. Simple kinds label their
// rows; structured kinds label their nodes and, with link labels,
// their links.
func (e *emitter) labels() error {
	m := e.st.spec()
	res := e.st.res
	type job struct {
		role  string
		specs []spec.LabelSpec
		ds    *data.Dataset
	}
	var jobs []job
	if m.Kind().Structured() {
		jobs = []job{
			{"node", append(append([]spec.LabelSpec(nil), m.Labels...), m.NodeLabels...), res.Nodes},
			{"link", m.LinkLabels, res.Links},
		}
	} else {
		jobs = []job{{"", m.Labels, res.Data}}
	}
	base := tooltip.New(m, res.Data)
	for _, j := range jobs {
		if len(j.specs) == 0 || j.ds == nil {
			continue
		}
		p := base.WithLabels(j.specs, j.ds)
		for i := 0; i < p.Len(); i++ {
			bx, ok := e.anchors[anchorKey{j.role, i}]
			if !ok {
				continue
			}
			ls, err := p.Labels(i)
			if err != nil {
				return err
			}
			for _, l := range ls {
				e.out = append(e.out, e.label(bx, l, i))
			}
		}
	}
	return nil
}

func (e *emitter) label(bx box, l tooltip.Label, row int) Primitive {
	at := coord.Point{X: (bx.x0 + bx.x1) / 2, Y: (bx.y0 + bx.y1) / 2}
	align, baseline := "center", "middle"
	switch l.Position {
	case "top":
		at.Y, baseline = bx.y0, "bottom"
	case "bottom":
		at.Y, baseline = bx.y1, "top"
	case "left":
		at.X, align = bx.x0, "right"
	case "right":
		at.X, align = bx.x1, "left"
	}
	at.X += l.Dx
	at.Y += l.Dy
	st := map[string]any{
		"fill":         e.theme.TextFill,
		"fontSize":     e.theme.FontSize,
		"fontFamily":   e.theme.FontFamily,
		"textAlign":    align,
		"textBaseline": baseline,
	}
	for k, v := range l.Style {
		st[k] = v
	}
	return Primitive{Type: PrimText, Role: "label", Row: row, Points: []coord.Point{at}, Text: l.Text, Style: st}
}

type box struct {
	x0, y0, x1, y1 float64
}

func pointBox(p coord.Point) box { return box{p.X, p.Y, p.X, p.Y} }
