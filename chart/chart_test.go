// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chart

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aclements/go-markres/coord"
	"github.com/aclements/go-markres/data"
	"github.com/aclements/go-markres/diag"
	"github.com/aclements/go-markres/scale"
	"github.com/aclements/go-markres/spec"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var square = Options{Area: Area{Width: 100, Height: 100}}

func build(t *testing.T, opts Options, marks ...spec.Mark) *Chart {
	t.Helper()
	c, err := Build(context.Background(), marks, opts)
	require.NoError(t, err)
	return c
}

func role(ps []Primitive, r string) []Primitive {
	var out []Primitive
	for _, p := range ps {
		if p.Role == r {
			out = append(out, p)
		}
	}
	return out
}

func inArea(t *testing.T, a Area, pts ...coord.Point) {
	t.Helper()
	const eps = 1e-9
	for _, p := range pts {
		assert.True(t, p.X >= a.X-eps && p.X <= a.X+a.Width+eps, "x %g outside %v", p.X, a)
		assert.True(t, p.Y >= a.Y-eps && p.Y <= a.Y+a.Height+eps, "y %g outside %v", p.Y, a)
	}
}

func TestPointScatter(t *testing.T) {
	ds := data.New([]data.Row{{"a": 1.0, "b": 2.0}, {"a": 3.0, "b": 4.0}})
	m := spec.New(spec.Point).
		WithData(ds).
		WithEncode(spec.X, spec.Field("a")).
		WithEncode(spec.Y, spec.Field("b"))
	c := build(t, square, m)

	ps := c.Primitives()
	require.Len(t, ps, 2)
	for i, p := range ps {
		assert.Equal(t, PrimSymbol, p.Type)
		assert.Equal(t, i, p.Row)
		assert.Equal(t, "mark0", p.Mark)
		assert.Equal(t, "point", p.Kind)
		require.Len(t, p.Points, 1)
		inArea(t, square.Area, p.Points...)
	}
	// Larger a is further right; larger b is higher up.
	assert.Less(t, ps[0].Points[0].X, ps[1].Points[0].X)
	assert.Greater(t, ps[0].Points[0].Y, ps[1].Points[0].Y)
	assert.Equal(t, 3.0, ps[0].R)

	_, err := uuid.Parse(c.Session)
	assert.NoError(t, err)
	assert.Contains(t, c.Scales, scale.Key{Channel: spec.X})
	assert.Contains(t, c.Scales, scale.Key{Channel: spec.Y})
}

func TestSharedScales(t *testing.T) {
	a := spec.New(spec.Point).
		WithData(data.New([]data.Row{{"v": 0.0}, {"v": 10.0}})).
		WithEncode(spec.X, spec.Field("v"))
	b := spec.New(spec.Line).
		WithData(data.New([]data.Row{{"w": 20.0}, {"w": 5.0}})).
		WithEncode(spec.X, spec.Field("w"))
	c := build(t, square, a, b)
	require.Len(t, c.Marks, 2)
	x := c.Scales[scale.Key{Channel: spec.X}]
	require.NotNil(t, x)
	assert.Equal(t, []any{0.0, 20.0}, x.Domain())

	// v=10 is halfway along the shared domain.
	ps := c.Marks[0].Primitives
	require.Len(t, ps, 2)
	assert.InDelta(t, 50, ps[1].Points[0].X, 1e-9)
}

func TestIntervalBands(t *testing.T) {
	ds := data.New([]data.Row{
		{"k": "a", "v": 1.0},
		{"k": "b", "v": 3.0},
		{"k": "c", "v": 2.0},
	})
	m := spec.New(spec.Interval).
		WithData(ds).
		WithEncode(spec.X, spec.Field("k")).
		WithEncode(spec.Y, spec.Field("v")).
		WithScale(spec.X, spec.ScaleSpec{Type: spec.ScaleBand}).
		WithScale(spec.Y, spec.ScaleSpec{Zero: true})
	ps := build(t, square, m).Primitives()
	require.Len(t, ps, 3)
	for _, p := range ps {
		require.Len(t, p.Points, 4)
		min, max := p.Bounds()
		assert.InDelta(t, 100.0/3, max.X-min.X, 1e-9)
		// Bars rest on the zero baseline at the bottom.
		assert.InDelta(t, 100, max.Y, 1e-9)
	}
	// The tallest bar reaches the top.
	min, _ := ps[1].Bounds()
	assert.InDelta(t, 0, min.Y, 1e-9)
}

func TestPolarDensifies(t *testing.T) {
	ds := data.New([]data.Row{{"k": "a", "v": 1.0}, {"k": "b", "v": 2.0}})
	m := spec.New(spec.Interval).
		WithData(ds).
		WithEncode(spec.X, spec.Field("k")).
		WithEncode(spec.Y, spec.Field("v")).
		WithCoordinate(spec.Coordinate{Type: spec.Polar})
	ps := build(t, square, m).Primitives()
	require.Len(t, ps, 2)
	for _, p := range ps {
		assert.Len(t, p.Points, 4*densifySteps)
		inArea(t, square.Area, p.Points...)
	}
}

func TestLineSeries(t *testing.T) {
	ds := data.New([]data.Row{
		{"t": 1.0, "v": 1.0, "s": "p"},
		{"t": 1.0, "v": 2.0, "s": "q"},
		{"t": 2.0, "v": 3.0, "s": "p"},
		{"t": 2.0, "v": 4.0, "s": "q"},
		{"t": 3.0, "v": 5.0, "s": "p"},
	})
	m := spec.New(spec.Line).
		WithData(ds).
		WithEncode(spec.X, spec.Field("t")).
		WithEncode(spec.Y, spec.Field("v")).
		WithEncode(spec.Series, spec.Field("s"))
	ps := build(t, square, m).Primitives()
	require.Len(t, ps, 2)
	assert.Equal(t, []int{0, 2, 4}, ps[0].Rows)
	assert.Equal(t, []int{1, 3}, ps[1].Rows)
	for _, p := range ps {
		assert.Equal(t, PrimLine, p.Type)
		assert.Equal(t, 1.0, p.Style["lineWidth"])
		assert.Len(t, p.Points, len(p.Rows))
	}
}

func TestColorStyle(t *testing.T) {
	ds := data.New([]data.Row{{"c": "x"}, {"c": "y"}, {"c": "x"}})
	m := spec.New(spec.Point).
		WithData(ds).
		WithEncode(spec.Color, spec.Field("c"))
	m.Style = spec.Style{"stroke": "black"}
	ps := build(t, square, m).Primitives()
	require.Len(t, ps, 3)
	assert.Equal(t, "#5b8ff9", ps[0].Style["fill"])
	assert.Equal(t, "#5ad8a6", ps[1].Style["fill"])
	assert.Equal(t, ps[0].Style["fill"], ps[2].Style["fill"])
	assert.Equal(t, "black", ps[0].Style["stroke"])
}

func TestBoxPlot(t *testing.T) {
	var rows []data.Row
	for i := 1; i <= 9; i++ {
		rows = append(rows, data.Row{"g": "a", "v": float64(i)})
	}
	rows = append(rows, data.Row{"g": "a", "v": 100.0}, data.Row{"g": "b", "v": 5.0})
	m := spec.New(spec.BoxPlot).
		WithData(data.New(rows)).
		WithEncode(spec.X, spec.Field("g")).
		WithEncode(spec.Y, spec.Field("v"))
	ps := build(t, square, m).Primitives()
	assert.Len(t, role(ps, "box"), 2)
	assert.Len(t, role(ps, "median"), 2)
	assert.Len(t, role(ps, "whisker"), 4)
	out := role(ps, "outlier")
	require.Len(t, out, 1)
	assert.Equal(t, 9, out[0].Row)
	assert.Len(t, role(ps, "box")[0].Rows, 10)
}

func TestLabels(t *testing.T) {
	ds := data.New([]data.Row{{"a": 1.0, "n": "one"}, {"a": 2.0, "n": "two"}})
	m := spec.New(spec.Point).
		WithData(ds).
		WithEncode(spec.X, spec.Field("a"))
	m.Labels = []spec.LabelSpec{{Text: spec.Field("n"), Position: "top"}}
	ps := build(t, square, m).Primitives()
	ls := role(ps, "label")
	require.Len(t, ls, 2)
	assert.Equal(t, "one", ls[0].Text)
	assert.Equal(t, "two", ls[1].Text)
	assert.Equal(t, "bottom", ls[0].Style["textBaseline"])
	// Anchored at the top of the 3px symbol.
	assert.InDelta(t, 50-3, ls[0].Points[0].Y, 1e-9)
}

var tree = data.New([]data.Row{
	{"path": "r/a/a1", "v": 2.0},
	{"path": "r/a/a2", "v": 4.0},
	{"path": "r/b", "v": 3.0},
	{"path": "r/c", "v": 1.0},
})

func TestTreemap(t *testing.T) {
	m := spec.New(spec.Treemap).
		WithData(tree).
		WithEncode(spec.Value, spec.Field("v")).
		WithEncode(spec.Color, spec.Field("depth")).
		WithLayout(&spec.TreemapLayout{Hierarchy: spec.Hierarchy{Path: "path"}})
	opts := Options{Area: Area{X: 10, Y: 20, Width: 200, Height: 100}}
	c := build(t, opts, m)
	r := c.Marks[0]
	require.NotNil(t, r.Layout)
	require.NotNil(t, r.Nodes)
	assert.Equal(t, len(r.Layout.Nodes), r.Nodes.Len())

	ps := r.Primitives
	require.Len(t, ps, 4)
	total := 0.0
	for _, p := range ps {
		assert.Equal(t, "node", p.Role)
		inArea(t, opts.Area, p.Points...)
		min, max := p.Bounds()
		total += (max.X - min.X) * (max.Y - min.Y)
	}
	assert.InDelta(t, 200*100, total, 1e-6)

	// Leaves derive their name from the path.
	name, _ := r.Nodes.Value(ps[0].Row, "name")
	assert.NotEmpty(t, name)
}

func TestPackStaysCircular(t *testing.T) {
	m := spec.New(spec.Pack).
		WithData(tree).
		WithEncode(spec.Value, spec.Field("v")).
		WithLayout(&spec.PackLayout{Hierarchy: spec.Hierarchy{Path: "path"}})
	opts := Options{Area: Area{Width: 300, Height: 100}}
	ps := build(t, opts, m).Primitives()
	require.NotEmpty(t, ps)
	root := ps[0]
	assert.Equal(t, PrimCircle, root.Type)
	assert.InDelta(t, 50, root.R, 1e-9)
	assert.InDelta(t, 150, root.Points[0].X, 1e-9)
	assert.InDelta(t, 50, root.Points[0].Y, 1e-9)
}

func TestTreeLinks(t *testing.T) {
	m := spec.New(spec.Tree).
		WithData(tree).
		WithLayout(&spec.TreeLayout{Hierarchy: spec.Hierarchy{Path: "path"}})
	m.NodeLabels = []spec.LabelSpec{{Text: spec.Field("name")}}
	r := build(t, square, m).Marks[0]
	n := len(r.Layout.Nodes)
	assert.Equal(t, 6, n)
	assert.Len(t, role(r.Primitives, "node"), n)
	assert.Len(t, role(r.Primitives, "link"), n-1)
	assert.Len(t, role(r.Primitives, "label"), n)
	require.NotNil(t, r.Links)
	assert.Equal(t, n-1, r.Links.Len())
}

var flows = data.New([]data.Row{
	{"s": "A", "t": "B", "v": 5.0},
	{"s": "A", "t": "C", "v": 3.0},
	{"s": "B", "t": "D", "v": 5.0},
	{"s": "C", "t": "D", "v": 2.0},
	{"s": "D", "label": "sink"},
})

func TestSankey(t *testing.T) {
	m := spec.New(spec.Sankey).
		WithData(flows).
		WithEncode(spec.Source, spec.Field("s")).
		WithEncode(spec.Target, spec.Field("t")).
		WithEncode(spec.Value, spec.Field("v")).
		WithEncode(spec.Color.Prefixed("node"), spec.Field("id"))
	r := build(t, square, m).Marks[0]
	nodes, links := role(r.Primitives, "node"), role(r.Primitives, "link")
	assert.Len(t, nodes, 4)
	assert.Len(t, links, 4)
	for _, p := range append(nodes, links...) {
		inArea(t, square.Area, p.Points...)
	}

	// D's datum comes from its declaring row.
	label, ok := r.Nodes.Value(3, "label")
	require.True(t, ok)
	assert.Equal(t, "sink", label)
	assert.Equal(t, 4, r.Links.Len())

	// Links fade their source node's color.
	assert.Equal(t, fade(nodes[0].Style["fill"].(string), 0.5), links[0].Style["fill"])
}

func TestForceNotConverged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	ds := data.New([]data.Row{
		{"s": "a", "t": "b"},
		{"s": "b", "t": "c"},
		{"s": "c", "t": "a"},
	})
	m := spec.New(spec.ForceGraph).
		WithData(ds).
		WithEncode(spec.Source, spec.Field("s")).
		WithEncode(spec.Target, spec.Field("t"))
	opts := square
	opts.Layouts = map[spec.Kind]spec.LayoutOptions{spec.ForceGraph: &spec.ForceLayout{Seed: 1, Iterations: 5}}
	r := build(t, opts, m).Marks[0]
	assert.False(t, r.Layout.Converged)
	assert.Equal(t, []string{"forceGraph"}, r.Diagnostics.NotConverged())
	assert.Len(t, role(r.Primitives, "node"), 3)
	assert.Len(t, role(r.Primitives, "link"), 3)
	assert.Equal(t, 1, logs.FilterMessage("layout did not converge").Len())
}

func TestWordCloud(t *testing.T) {
	var rows []data.Row
	for i, w := range []string{"go", "chart", "scale", "layout", "mark"} {
		rows = append(rows, data.Row{"w": w, "n": float64(i + 1)})
	}
	m := spec.New(spec.WordCloud).
		WithData(data.New(rows)).
		WithEncode(spec.TextCh, spec.Field("w")).
		WithEncode(spec.Value, spec.Field("n"))
	r := build(t, Options{Area: Area{Width: 400, Height: 300}}, m).Marks[0]
	require.Len(t, r.Primitives, 5)
	assert.Equal(t, "mark", r.Primitives[0].Text)
	assert.Equal(t, 48.0, r.Primitives[0].Style["fontSize"])
	assert.Equal(t, 0, r.Diagnostics.Dropped())

	r = build(t, Options{Area: Area{Width: 30, Height: 20}}, m).Marks[0]
	assert.Positive(t, r.Diagnostics.Dropped())
	assert.Len(t, r.Primitives, 5-r.Diagnostics.Dropped())
}

func TestEmptyStructured(t *testing.T) {
	for _, k := range []spec.Kind{spec.Treemap, spec.Pack, spec.Tree, spec.Sankey, spec.ForceGraph, spec.WordCloud} {
		m := spec.New(k).WithData(data.New(nil))
		r := build(t, square, m).Marks[0]
		assert.Empty(t, r.Primitives, "%v", k)
		assert.True(t, r.Layout.Converged, "%v", k)
	}
}

func TestErrors(t *testing.T) {
	ds := data.New([]data.Row{{"a": 1.0}})
	tests := []struct {
		name string
		mark spec.Mark
		want error
	}{
		{"unknown kind", spec.New(spec.Kind(99)), diag.UnknownMarkKind},
		{"missing field", spec.New(spec.Point).WithData(ds).WithEncode(spec.X, spec.Field("nope")), diag.FieldNotFound},
		{"missing value field", spec.New(spec.Treemap).WithData(ds).WithEncode(spec.Value, spec.Field("nope")), diag.FieldNotFound},
		{"boxplot without y", spec.New(spec.BoxPlot).WithData(ds).WithEncode(spec.X, spec.Field("a")), diag.InvalidOption},
		{"polar treemap", spec.New(spec.Treemap).WithData(ds).WithCoordinate(spec.Coordinate{Type: spec.Polar}), diag.UnsupportedTransformForMark},
		{"cyclic sankey", spec.New(spec.Sankey).
			WithData(data.New([]data.Row{{"s": "a", "t": "b"}, {"s": "b", "t": "a"}})).
			WithEncode(spec.Source, spec.Field("s")).
			WithEncode(spec.Target, spec.Field("t")), diag.CyclicFlowGraph},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Build(context.Background(), []spec.Mark{test.mark}, square)
			require.Error(t, err)
			assert.True(t, errors.Is(err, test.want), "got %v", err)
		})
	}
}

func TestFieldNotFoundDetail(t *testing.T) {
	m := spec.New(spec.Point).
		WithData(data.New([]data.Row{{"a": 1.0}})).
		WithEncode(spec.Color, spec.Field("nope"))
	_, err := Resolve(context.Background(), m, square)
	var de *diag.Error
	require.True(t, errors.As(err, &de))
	want := diag.Error{Code: diag.CodeFieldNotFound, Mark: "point", Channel: "color", Field: "nope"}
	if diff := cmp.Diff(want, *de, cmpopts.IgnoreFields(diag.Error{}, "Detail", "Err")); diff != "" {
		t.Errorf("error mismatch (-want +got):\n%s", diff)
	}
}

func TestBadOptions(t *testing.T) {
	_, err := Build(context.Background(), nil, Options{})
	assert.Error(t, err)

	opts := square
	opts.Theme.Fill = "not a color"
	_, err = Build(context.Background(), nil, opts)
	assert.Error(t, err)
}

func TestCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := spec.New(spec.Point).WithData(data.New([]data.Row{{"a": 1.0}}))
	_, err := Build(ctx, []spec.Mark{m, m}, square)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPlotArea(t *testing.T) {
	m := spec.New(spec.Point)
	m.Margin = spec.Sides{All: spec.Float(10)}
	m.Inset = spec.Sides{Left: spec.Float(5)}
	nm, err := spec.Normalize(m, nil)
	require.NoError(t, err)
	got := plotArea(Area{Width: 100, Height: 80}, nm)
	assert.Equal(t, Area{X: 15, Y: 10, Width: 75, Height: 60}, got)
}

func TestRibbon(t *testing.T) {
	pts := ribbon(0, 0.2, 1, 0.8, 0.1)
	require.Len(t, pts, 34)
	assert.InDelta(t, 0.15, pts[0].Y, 1e-12)
	assert.InDelta(t, 0.75, pts[16].Y, 1e-12)
	assert.InDelta(t, 0.85, pts[17].Y, 1e-12)
	assert.InDelta(t, 0.25, pts[33].Y, 1e-12)
	for _, p := range pts {
		assert.False(t, math.IsNaN(p.X) || math.IsNaN(p.Y))
	}
}
