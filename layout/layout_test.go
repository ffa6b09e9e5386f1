// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package layout

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aclements/go-markres/data"
	"github.com/aclements/go-markres/diag"
	"github.com/aclements/go-markres/spec"
)

const eps = 1e-9

// normalized returns the defaulted layout options for a mark of kind
// k with options l.
func normalized[L spec.LayoutOptions](t *testing.T, k spec.Kind, l L) L {
	t.Helper()
	m, err := spec.Normalize(spec.New(k).WithLayout(l), nil)
	require.NoError(t, err)
	return m.Layout.(L)
}

func weight(d data.Row, i int) float64 {
	v, _ := data.Float(d["v"])
	return v
}

var tree = data.New([]data.Row{
	{"id": "root"},
	{"id": "a", "parent": "root"},
	{"id": "b", "parent": "root", "v": 3.0},
	{"id": "c", "parent": "root", "v": 1.0},
	{"id": "a1", "parent": "a", "v": 2.0},
	{"id": "a2", "parent": "a", "v": 4.0},
	{"id": "a3", "parent": "a", "v": 1.0},
	{"id": "a4", "parent": "a", "v": 0.5},
})

func TestStratify(t *testing.T) {
	h := normalized(t, spec.Tree, &spec.TreeLayout{Hierarchy: spec.Hierarchy{ID: "id"}}).Hierarchy
	root, err := Stratify(tree, h, weight, spec.SortInput)
	require.NoError(t, err)
	assert.Equal(t, "root", root.ID)
	assert.Equal(t, 11.5, root.Value)
	assert.Equal(t, 2, root.Height)
	var ids []string
	root.Each(func(n *HNode) { ids = append(ids, n.ID) })
	assert.Equal(t, []string{"root", "a", "a1", "a2", "a3", "a4", "b", "c"}, ids)

	root, err = Stratify(tree, h, weight, spec.SortValueDesc)
	require.NoError(t, err)
	assert.Equal(t, "a", root.Children[0].ID)
	assert.Equal(t, "a2", root.Children[0].Children[0].ID)
	assert.Equal(t, "b", root.Children[1].ID)
}

func TestStratifyPath(t *testing.T) {
	ds := data.New([]data.Row{
		{"path": "/fruit/apple", "v": 2},
		{"path": "fruit/pear", "v": 1},
		{"path": "veg/kale", "v": 4},
		{"path": "veg", "name": "Vegetables"},
	})
	h := normalized(t, spec.Tree, &spec.TreeLayout{Hierarchy: spec.Hierarchy{Path: "path"}}).Hierarchy
	root, err := Stratify(ds, h, weight, "")
	require.NoError(t, err)
	// Two top-level paths share a synthesized root.
	assert.Equal(t, -1, root.Row)
	require.Len(t, root.Children, 2)
	fruit, veg := root.Children[0], root.Children[1]
	assert.Equal(t, "fruit", fruit.ID)
	assert.Nil(t, fruit.Datum)
	assert.Equal(t, 3.0, fruit.Value)
	assert.Equal(t, "Vegetables", veg.Name)
	assert.Equal(t, 3, veg.Row)
	assert.Equal(t, "veg/kale", veg.Children[0].ID)
	assert.Equal(t, 2, veg.Children[0].Depth)
}

func TestStratifyNested(t *testing.T) {
	ds := data.New([]data.Row{{
		"name": "root",
		"children": []any{
			map[string]any{"name": "x", "v": 1.0},
			map[string]any{"name": "y", "children": []any{
				map[string]any{"name": "z", "v": 2.0},
			}},
		},
	}})
	h := normalized(t, spec.Tree, &spec.TreeLayout{}).Hierarchy
	root, err := Stratify(ds, h, weight, "")
	require.NoError(t, err)
	assert.Equal(t, "root", root.Name)
	assert.Equal(t, 3.0, root.Value)
	assert.Equal(t, "z", root.Children[1].Children[0].Name)
	assert.Equal(t, -1, root.Children[1].Children[0].Row)

	// A flat list becomes leaves of a synthesized root.
	flat := data.New([]data.Row{{"name": "p", "v": 1}, {"name": "q", "v": 2}})
	root, err = Stratify(flat, h, weight, "")
	require.NoError(t, err)
	assert.Len(t, root.Children, 2)
	assert.Equal(t, 3.0, root.Value)
}

func TestStratifyErrors(t *testing.T) {
	h := normalized(t, spec.Tree, &spec.TreeLayout{Hierarchy: spec.Hierarchy{ID: "id"}}).Hierarchy
	for name, rows := range map[string][]data.Row{
		"duplicate": {{"id": "a"}, {"id": "a"}},
		"orphan":    {{"id": "a"}, {"id": "b", "parent": "zz"}},
		"cycle":     {{"id": "a", "parent": "b"}, {"id": "b", "parent": "a"}},
		"no id":     {{"parent": "a"}},
	} {
		_, err := Stratify(data.New(rows), h, nil, "")
		assert.True(t, errors.Is(err, diag.InvalidOption), "%s: %v", name, err)
	}
}

func area(n Node) float64 { return (n.X1 - n.X0) * (n.Y1 - n.Y0) }

func TestTreemapConservation(t *testing.T) {
	for _, tile := range []string{"squarify", "binary", "slice", "dice", "sliceDice"} {
		t.Run(tile, func(t *testing.T) {
			opts := normalized(t, spec.Treemap, &spec.TreemapLayout{Hierarchy: spec.Hierarchy{ID: "id"}, Tile: tile})
			r, err := Treemap(tree, weight, opts)
			require.NoError(t, err)
			require.Len(t, r.Nodes, 8)

			root := r.Nodes[0]
			assert.InDelta(t, 1, area(root), eps)
			leafArea := 0.0
			children := make(map[int]float64)
			for _, n := range r.Nodes {
				assert.True(t, n.X0 >= -eps && n.Y0 >= -eps && n.X1 <= 1+eps && n.Y1 <= 1+eps, "%s out of bounds: %+v", n.ID, n)
				if n.Leaf {
					leafArea += area(n)
					assert.InDelta(t, n.Value/root.Value, area(n), eps, "%s", n.ID)
				}
				if n.Parent >= 0 {
					children[n.Parent] += area(n)
				}
			}
			assert.InDelta(t, area(root), leafArea, eps)
			for p, sum := range children {
				assert.InDelta(t, area(r.Nodes[p]), sum, eps, "children of %s", r.Nodes[p].ID)
			}
		})
	}
}

func TestTreemapPadding(t *testing.T) {
	opts := normalized(t, spec.Treemap, &spec.TreemapLayout{Hierarchy: spec.Hierarchy{ID: "id"}, PaddingInner: 0.02, PaddingOuter: 0.01})
	r, err := Treemap(tree, weight, opts)
	require.NoError(t, err)
	for _, n := range r.Nodes {
		if n.Parent < 0 {
			continue
		}
		p := r.Nodes[n.Parent]
		assert.True(t, n.X0 >= p.X0+0.01-eps && n.X1 <= p.X1-0.01+eps, "%s escapes its parent", n.ID)
	}

	opts.Tile = "spiral"
	_, err = Treemap(tree, weight, opts)
	assert.True(t, errors.Is(err, diag.InvalidOption))
}

func TestPack(t *testing.T) {
	opts := normalized(t, spec.Pack, &spec.PackLayout{Hierarchy: spec.Hierarchy{ID: "id"}, Padding: 0.01})
	r, err := Pack(tree, weight, opts)
	require.NoError(t, err)
	root := r.Nodes[0]
	assert.InDelta(t, 0.5, root.X, eps)
	assert.InDelta(t, 0.5, root.Y, eps)
	assert.InDelta(t, 0.5, root.R, eps)

	const tol = 1e-6
	for i, n := range r.Nodes {
		if n.Parent < 0 {
			continue
		}
		p := r.Nodes[n.Parent]
		d := math.Hypot(n.X-p.X, n.Y-p.Y)
		assert.LessOrEqual(t, d+n.R, p.R+tol, "%s escapes %s", n.ID, p.ID)
		for _, m := range r.Nodes[i+1:] {
			if m.Parent == n.Parent {
				assert.GreaterOrEqual(t, math.Hypot(n.X-m.X, n.Y-m.Y), n.R+m.R-tol, "%s overlaps %s", n.ID, m.ID)
			}
		}
	}

	// Leaf areas are proportional to value.
	var a2, b3 Node
	for _, n := range r.Nodes {
		switch n.ID {
		case "a2":
			a2 = n
		case "b":
			b3 = n
		}
	}
	assert.InDelta(t, 4.0/3.0, (a2.R*a2.R)/(b3.R*b3.R), 1e-6)
}

func TestTree(t *testing.T) {
	ds := data.New([]data.Row{
		{"id": "r"},
		{"id": "a", "parent": "r"},
		{"id": "b", "parent": "r"},
		{"id": "c", "parent": "r"},
	})
	opts := normalized(t, spec.Tree, &spec.TreeLayout{Hierarchy: spec.Hierarchy{ID: "id"}})
	r, err := Tree(ds, nil, opts)
	require.NoError(t, err)
	want := map[string][2]float64{"r": {0.5, 0}, "a": {1.0 / 6, 1}, "b": {0.5, 1}, "c": {5.0 / 6, 1}}
	for _, n := range r.Nodes {
		assert.InDelta(t, want[n.ID][0], n.X, eps, "%s", n.ID)
		assert.InDelta(t, want[n.ID][1], n.Y, eps, "%s", n.ID)
	}
	require.Len(t, r.Links, 3)
	for _, l := range r.Links {
		assert.Equal(t, 0, l.Source)
	}

	// Cluster puts every leaf on the bottom row.
	opts.Type = "cluster"
	r, err = Tree(tree, weight, opts)
	require.NoError(t, err)
	for _, n := range r.Nodes {
		if n.Leaf {
			assert.InDelta(t, 1, n.Y, eps, "%s", n.ID)
		}
	}

	// A radial tree has its root in the center.
	opts.Type, opts.Radial = "tree", true
	r, err = Tree(tree, weight, opts)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, r.Nodes[0].X, eps)
	assert.InDelta(t, 0.5, r.Nodes[0].Y, eps)
	for _, n := range r.Nodes {
		assert.LessOrEqual(t, math.Hypot(n.X-0.5, n.Y-0.5), 0.5+eps)
	}
}

func TestTidyNoOverlap(t *testing.T) {
	// An unbalanced tree exercises subtree shifting.
	rows := []data.Row{{"id": "r"}}
	add := func(id, parent string) { rows = append(rows, data.Row{"id": id, "parent": parent}) }
	add("a", "r")
	add("b", "r")
	add("a1", "a")
	add("a2", "a")
	add("a3", "a")
	add("b1", "b")
	add("b11", "b1")
	add("b12", "b1")
	add("b13", "b1")
	add("c", "r")
	opts := normalized(t, spec.Tree, &spec.TreeLayout{Hierarchy: spec.Hierarchy{ID: "id"}})
	r, err := Tree(data.New(rows), nil, opts)
	require.NoError(t, err)
	byDepth := make(map[int][]Node)
	for _, n := range r.Nodes {
		byDepth[n.Depth] = append(byDepth[n.Depth], n)
	}
	for d, ns := range byDepth {
		for i := 1; i < len(ns); i++ {
			assert.Less(t, ns[i-1].X, ns[i].X, "depth %d: %s and %s out of order", d, ns[i-1].ID, ns[i].ID)
		}
	}
}

func flows() *Graph {
	g := new(Graph)
	g.AddLink("A", "B", 5, 0, nil)
	g.AddLink("A", "C", 3, 1, nil)
	g.AddLink("B", "D", 5, 2, nil)
	g.AddLink("C", "D", 2, 3, nil)
	g.AddLink("C", "E", 1, 4, nil)
	return g
}

func TestSankeyConservation(t *testing.T) {
	opts := normalized(t, spec.Sankey, &spec.SankeyLayout{})
	r, err := Sankey(flows(), opts)
	require.NoError(t, err)
	require.Len(t, r.Nodes, 5)
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, []string{r.Nodes[0].ID, r.Nodes[1].ID, r.Nodes[2].ID, r.Nodes[3].ID, r.Nodes[4].ID})

	in := make([]float64, len(r.Nodes))
	out := make([]float64, len(r.Nodes))
	for _, l := range r.Links {
		out[l.Source] += l.Width
		in[l.Target] += l.Width
		assert.Greater(t, l.Width, 0.0)
	}
	for i, n := range r.Nodes {
		if n.ID == "B" || n.ID == "C" {
			assert.InDelta(t, in[i], out[i], eps, "%s", n.ID)
		}
		h := n.Y1 - n.Y0
		assert.InDelta(t, math.Max(in[i], out[i]), h, eps, "%s height", n.ID)
		assert.True(t, n.Y0 >= -1e-5 && n.Y1 <= 1+1e-5, "%s out of bounds: %v..%v", n.ID, n.Y0, n.Y1)
	}

	// Columns follow depth, and sinks are justified to the right.
	assert.Equal(t, 0, r.Nodes[0].Depth)
	assert.InDelta(t, 0, r.Nodes[0].X0, eps)
	assert.InDelta(t, 1, r.Nodes[3].X1, eps)
	assert.InDelta(t, 1, r.Nodes[4].X1, eps)

	// Nodes in a column do not overlap.
	cols := make(map[float64][]Node)
	for _, n := range r.Nodes {
		cols[n.X0] = append(cols[n.X0], n)
	}
	for _, c := range cols {
		for i := range c {
			for j := i + 1; j < len(c); j++ {
				a, b := c[i], c[j]
				assert.True(t, a.Y1 <= b.Y0+1e-5 || b.Y1 <= a.Y0+1e-5, "%s overlaps %s", a.ID, b.ID)
			}
		}
	}
}

func TestSankeyCycle(t *testing.T) {
	opts := normalized(t, spec.Sankey, &spec.SankeyLayout{})
	for name, links := range map[string][][2]string{
		"two":  {{"A", "B"}, {"B", "A"}},
		"self": {{"A", "A"}},
		"tail": {{"X", "A"}, {"A", "B"}, {"B", "C"}, {"C", "A"}},
	} {
		g := new(Graph)
		for i, l := range links {
			g.AddLink(l[0], l[1], 1, i, nil)
		}
		_, err := Sankey(g, opts)
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, diag.CyclicFlowGraph), "%s: %v", name, err)
		assert.Equal(t, diag.CodeCyclicFlowGraph, diag.CodeOf(err))
	}
}

func ring(n int) *Graph {
	g := new(Graph)
	for i := 0; i < n; i++ {
		g.AddLink(string(rune('a'+i)), string(rune('a'+(i+1)%n)), 1, i, nil)
	}
	g.AddNode("lonely", n, data.Row{"id": "lonely"})
	return g
}

func TestForceDeterministic(t *testing.T) {
	opts := normalized(t, spec.ForceGraph, &spec.ForceLayout{Seed: 42})
	r1, err := Force(ring(6), opts)
	require.NoError(t, err)
	r2, err := Force(ring(6), opts)
	require.NoError(t, err)
	if diff := cmp.Diff(r1, r2); diff != "" {
		t.Errorf("force layout is not deterministic (-first +second):\n%s", diff)
	}
	assert.True(t, r1.Converged)
	assert.Equal(t, data.Row{"id": "lonely"}, r1.Nodes[6].Datum)
	for _, n := range r1.Nodes {
		assert.True(t, n.X >= 0 && n.X <= 1 && n.Y >= 0 && n.Y <= 1, "%s at %v,%v", n.ID, n.X, n.Y)
	}

	// Linked nodes end up closer than the average pair.
	d := func(i, j int) float64 { return math.Hypot(r1.Nodes[i].X-r1.Nodes[j].X, r1.Nodes[i].Y-r1.Nodes[j].Y) }
	assert.Less(t, d(0, 1), d(0, 3))
}

// TestForceRing checks that a cycle settles into a ring: every link
// is shorter than every chord across it, whatever the seed.
func TestForceRing(t *testing.T) {
	for _, seed := range []uint64{1, 7, 42} {
		t.Run(fmt.Sprint(seed), func(t *testing.T) {
			r, err := Force(ring(6), normalized(t, spec.ForceGraph, &spec.ForceLayout{Seed: seed}))
			require.NoError(t, err)
			d := func(i, j int) float64 { return math.Hypot(r.Nodes[i].X-r.Nodes[j].X, r.Nodes[i].Y-r.Nodes[j].Y) }
			longest := 0.0
			for i := 0; i < 6; i++ {
				longest = math.Max(longest, d(i, (i+1)%6))
			}
			for i := 0; i < 3; i++ {
				assert.Less(t, longest, d(i, i+3), "chord %d-%d", i, i+3)
			}
		})
	}
}

func TestWalkOrder(t *testing.T) {
	g := ring(6)
	g.AddLink("x", "y", 1, 6, nil)
	want := []int{0, 1, 2, 3, 4, 5, 6, 7, 8}
	if diff := cmp.Diff(want, walkOrder(g)); diff != "" {
		t.Errorf("walkOrder (-want +got):\n%s", diff)
	}

	// The walk reaches the hub from the first spoke, then takes
	// the other spokes in link order.
	star := new(Graph)
	for _, s := range []string{"b", "c", "d"} {
		star.AddLink(s, "hub", 1, 0, nil)
	}
	assert.Equal(t, []int{0, 1, 2, 3}, walkOrder(star))
}

func TestForceBudget(t *testing.T) {
	opts := normalized(t, spec.ForceGraph, &spec.ForceLayout{Seed: 1, Iterations: 10})
	r, err := Force(ring(4), opts)
	require.NoError(t, err)
	assert.False(t, r.Converged)
	assert.Equal(t, 10, r.Iterations)

	opts = normalized(t, spec.ForceGraph, &spec.ForceLayout{Seed: 1, EnergyThreshold: 1e3})
	r, err = Force(ring(4), opts)
	require.NoError(t, err)
	assert.True(t, r.Converged)
	assert.Equal(t, 1, r.Iterations)
}

func TestForceRejectsBadOptions(t *testing.T) {
	for name, mod := range map[string]func(*spec.ForceLayout){
		"alphaDecay":    func(o *spec.ForceLayout) { o.AlphaDecay = 1.5 },
		"alphaMin":      func(o *spec.ForceLayout) { o.AlphaMin = 0 },
		"iterations":    func(o *spec.ForceLayout) { o.Iterations = -3 },
		"velocityDecay": func(o *spec.ForceLayout) { o.VelocityDecay = -0.5 },
	} {
		opts := normalized(t, spec.ForceGraph, &spec.ForceLayout{Seed: 1})
		mod(opts)
		r, err := Force(ring(4), opts)
		assert.True(t, errors.Is(err, diag.InvalidOption), "%s: got %v", name, err)
		assert.Nil(t, r, name)
	}

	opts := normalized(t, spec.Sankey, &spec.SankeyLayout{})
	opts.NodeWidth = -0.02
	_, err := Sankey(flows(), opts)
	assert.True(t, errors.Is(err, diag.InvalidOption), "got %v", err)
}

func TestWordCloud(t *testing.T) {
	opts := normalized(t, spec.WordCloud, &spec.WordCloudLayout{})
	words := []Word{
		{Text: "go", Weight: 1, Row: 0},
		{Text: "layout", Weight: 9, Row: 1},
		{Text: "scale", Weight: 5, Row: 2},
		{Text: "mark", Weight: 3, Row: 3},
		{Text: "channel", Weight: 2, Row: 4},
	}
	r, err := WordCloud(words, 400, 300, opts)
	require.NoError(t, err)
	require.Len(t, r.Nodes, len(words))
	assert.Zero(t, r.Dropped)

	// Heaviest first, starting at the center.
	assert.Equal(t, "layout", r.Nodes[0].ID)
	assert.InDelta(t, 0.5, r.Nodes[0].X, eps)
	assert.InDelta(t, 0.5, r.Nodes[0].Y, eps)
	assert.Equal(t, 48.0, r.Nodes[0].FontSize)
	assert.Equal(t, 10.0, r.Nodes[len(r.Nodes)-1].FontSize)

	for i, a := range r.Nodes {
		assert.True(t, a.X0 >= 0 && a.Y0 >= 0 && a.X1 <= 1 && a.Y1 <= 1, "%s outside canvas", a.ID)
		for _, b := range r.Nodes[i+1:] {
			ab := box{a.X0, a.Y0, a.X1, a.Y1}
			assert.False(t, ab.overlaps(box{b.X0, b.Y0, b.X1, b.Y1}), "%s overlaps %s", a.ID, b.ID)
		}
	}
}

func TestWordCloudDrops(t *testing.T) {
	opts := normalized(t, spec.WordCloud, &spec.WordCloudLayout{})
	words := []Word{{Text: "enormous", Weight: 10}, {Text: "i", Weight: 1}}
	r, err := WordCloud(words, 40, 20, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Dropped)
	require.Len(t, r.Nodes, 1)
	assert.Equal(t, "i", r.Nodes[0].ID)
}

func TestEmpty(t *testing.T) {
	ds := data.New(nil)
	tm, err := Treemap(ds, weight, normalized(t, spec.Treemap, &spec.TreemapLayout{}))
	require.NoError(t, err)
	pk, err := Pack(ds, weight, normalized(t, spec.Pack, &spec.PackLayout{}))
	require.NoError(t, err)
	tr, err := Tree(ds, weight, normalized(t, spec.Tree, &spec.TreeLayout{}))
	require.NoError(t, err)
	sk, err := Sankey(new(Graph), normalized(t, spec.Sankey, &spec.SankeyLayout{}))
	require.NoError(t, err)
	fg, err := Force(new(Graph), normalized(t, spec.ForceGraph, &spec.ForceLayout{}))
	require.NoError(t, err)
	wc, err := WordCloud(nil, 100, 100, normalized(t, spec.WordCloud, &spec.WordCloudLayout{}))
	require.NoError(t, err)
	for _, r := range []*Result{tm, pk, tr, sk, fg, wc} {
		assert.Empty(t, r.Nodes)
		assert.Empty(t, r.Links)
		assert.Zero(t, r.Dropped)
		assert.True(t, r.Converged)
	}
}

func TestIdempotent(t *testing.T) {
	opts := normalized(t, spec.Treemap, &spec.TreemapLayout{Hierarchy: spec.Hierarchy{ID: "id"}})
	r1, err := Treemap(tree, weight, opts)
	require.NoError(t, err)
	r2, err := Treemap(tree, weight, opts)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(r1, r2))

	so := normalized(t, spec.Sankey, &spec.SankeyLayout{})
	g := flows()
	s1, err := Sankey(g, so)
	require.NoError(t, err)
	s2, err := Sankey(g, so)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(s1, s2))
}
