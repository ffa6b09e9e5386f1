// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package layout

import (
	"fmt"
	"math"
	"sort"

	"github.com/aclements/go-markres/diag"
	"github.com/aclements/go-markres/spec"
)

// snode is the working state of a sankey node.
type snode struct {
	index          int
	value          float64
	depth, height  int
	layer          int
	x0, x1, y0, y1 float64
	in, out        []*slink
}

type slink struct {
	index          int
	source, target *snode
	value          float64
	width          float64
	y0, y1         float64
}

// Sankey lays out g as a flow diagram. Nodes are placed in columns by
// topological depth and sized by the larger of their inflow and
// outflow; links become bands whose breadth is proportional to their
// value. Sankey fails with diag.CyclicFlowGraph if g has a cycle.
func Sankey(g *Graph, opts *spec.SankeyLayout) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(g.Nodes) == 0 {
		return empty(), nil
	}
	nodes := make([]*snode, len(g.Nodes))
	for i := range nodes {
		nodes[i] = &snode{index: i}
	}
	links := make([]*slink, len(g.Links))
	for i, l := range g.Links {
		v := l.Value
		if !(v > 0) || math.IsInf(v, 1) {
			v = 0
		}
		sl := &slink{index: i, source: nodes[l.Source], target: nodes[l.Target], value: v}
		sl.source.out = append(sl.source.out, sl)
		sl.target.in = append(sl.target.in, sl)
		links[i] = sl
	}
	for _, n := range nodes {
		var in, out float64
		for _, l := range n.in {
			in += l.value
		}
		for _, l := range n.out {
			out += l.value
		}
		n.value = math.Max(in, out)
	}
	if err := sankeyDepths(g, nodes); err != nil {
		return nil, err
	}

	s := sankey{opts: opts, nodes: nodes, links: links}
	s.layers()
	s.breadths()
	for i := 0; i < opts.Iterations; i++ {
		alpha := math.Pow(0.99, float64(i))
		beta := math.Max(1-alpha, float64(i+1)/float64(opts.Iterations))
		s.relaxRightToLeft(alpha, beta)
		s.relaxLeftToRight(alpha, beta)
	}
	for _, n := range nodes {
		n.reorder()
	}
	s.linkBreadths()

	r := graphResult(g)
	for i, n := range nodes {
		rn := &r.Nodes[i]
		rn.Depth, rn.Height, rn.Value = n.depth, n.height, n.value
		rn.Leaf = len(n.out) == 0
		rn.X0, rn.Y0, rn.X1, rn.Y1 = n.x0, n.y0, n.x1, n.y1
		rn.X, rn.Y = (n.x0+n.x1)/2, (n.y0+n.y1)/2
	}
	for i, l := range links {
		rl := &r.Links[i]
		rl.Value, rl.Width, rl.Y0, rl.Y1 = l.value, l.width, l.y0, l.y1
	}
	return r, nil
}

// sankeyDepths assigns every node its depth, the length of the longest
// path from a source, and its height, the longest path to a sink,
// using Kahn's algorithm. Any node left unsorted lies on a cycle.
func sankeyDepths(g *Graph, nodes []*snode) error {
	indeg := make([]int, len(nodes))
	for _, n := range nodes {
		indeg[n.index] = len(n.in)
	}
	var queue, order []*snode
	for _, n := range nodes {
		if indeg[n.index] == 0 {
			queue = append(queue, n)
		}
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)
		for _, l := range n.out {
			t := l.target
			t.depth = max(t.depth, n.depth+1)
			if indeg[t.index]--; indeg[t.index] == 0 {
				queue = append(queue, t)
			}
		}
	}
	if len(order) != len(nodes) {
		for _, n := range nodes {
			if indeg[n.index] > 0 {
				return &diag.Error{
					Code:   diag.CodeCyclicFlowGraph,
					Mark:   spec.Sankey.String(),
					Detail: fmt.Sprintf("node %q is on a cycle", g.Nodes[n.index].ID),
				}
			}
		}
	}
	for i := len(order) - 1; i >= 0; i-- {
		n := order[i]
		for _, l := range n.out {
			n.height = max(n.height, l.target.height+1)
		}
	}
	return nil
}

type sankey struct {
	opts    *spec.SankeyLayout
	nodes   []*snode
	links   []*slink
	columns [][]*snode
	py      float64
}

// layers assigns nodes to columns according to the alignment and
// spreads the columns across the unit square.
func (s *sankey) layers() {
	n := 0
	for _, nd := range s.nodes {
		n = max(n, nd.depth+1)
	}
	for _, nd := range s.nodes {
		switch s.opts.NodeAlign {
		case "left":
			nd.layer = nd.depth
		case "right":
			nd.layer = n - 1 - nd.height
		case "center":
			switch {
			case len(nd.in) > 0:
				nd.layer = nd.depth
			case len(nd.out) > 0:
				m := math.MaxInt
				for _, l := range nd.out {
					m = min(m, l.target.depth)
				}
				nd.layer = m - 1
			default:
				nd.layer = 0
			}
		default:
			if len(nd.out) > 0 {
				nd.layer = nd.depth
			} else {
				nd.layer = n - 1
			}
		}
		nd.layer = max(0, min(n-1, nd.layer))
	}
	s.columns = make([][]*snode, n)
	for _, nd := range s.nodes {
		s.columns[nd.layer] = append(s.columns[nd.layer], nd)
	}
	kx := 0.0
	if n > 1 {
		kx = (1 - s.opts.NodeWidth) / float64(n-1)
	}
	for _, nd := range s.nodes {
		nd.x0 = float64(nd.layer) * kx
		nd.x1 = nd.x0 + s.opts.NodeWidth
	}
}

// breadths assigns initial vertical positions, scaling values so the
// fullest column fits.
func (s *sankey) breadths() {
	maxLen := 0
	for _, c := range s.columns {
		maxLen = max(maxLen, len(c))
	}
	s.py = s.opts.NodePadding
	if maxLen > 1 {
		s.py = math.Min(s.py, 1/float64(maxLen-1))
	}
	ky := math.Inf(1)
	for _, c := range s.columns {
		sum := 0.0
		for _, nd := range c {
			sum += nd.value
		}
		if sum > 0 {
			ky = math.Min(ky, (1-float64(len(c)-1)*s.py)/sum)
		}
	}
	if math.IsInf(ky, 1) {
		ky = 0
	}
	for _, c := range s.columns {
		y := 0.0
		for _, nd := range c {
			nd.y0 = y
			nd.y1 = y + nd.value*ky
			y = nd.y1 + s.py
			for _, l := range nd.out {
				l.width = l.value * ky
			}
		}
		// Spread any leftover space evenly.
		extra := (1 - y + s.py) / float64(len(c)+1)
		for i, nd := range c {
			nd.y0 += extra * float64(i+1)
			nd.y1 += extra * float64(i+1)
		}
	}
	for _, nd := range s.nodes {
		nd.reorder()
	}
}

// reorder sorts a node's links by the position of their other end.
func (n *snode) reorder() {
	sort.SliceStable(n.out, func(i, j int) bool {
		a, b := n.out[i], n.out[j]
		if a.target.y0 != b.target.y0 {
			return a.target.y0 < b.target.y0
		}
		return a.index < b.index
	})
	sort.SliceStable(n.in, func(i, j int) bool {
		a, b := n.in[i], n.in[j]
		if a.source.y0 != b.source.y0 {
			return a.source.y0 < b.source.y0
		}
		return a.index < b.index
	})
}

func (s *sankey) relaxLeftToRight(alpha, beta float64) {
	for i := 1; i < len(s.columns); i++ {
		c := s.columns[i]
		for _, t := range c {
			y, w := 0.0, 0.0
			for _, l := range t.in {
				v := l.value * float64(t.layer-l.source.layer)
				y += s.targetTop(l.source, t) * v
				w += v
			}
			if !(w > 0) {
				continue
			}
			dy := (y/w - t.y0) * alpha
			t.y0 += dy
			t.y1 += dy
			t.reorder()
		}
		sortBreadth(c)
		s.resolveCollisions(c, beta)
	}
}

func (s *sankey) relaxRightToLeft(alpha, beta float64) {
	for i := len(s.columns) - 2; i >= 0; i-- {
		c := s.columns[i]
		for _, src := range c {
			y, w := 0.0, 0.0
			for _, l := range src.out {
				v := l.value * float64(l.target.layer-src.layer)
				y += s.sourceTop(src, l.target) * v
				w += v
			}
			if !(w > 0) {
				continue
			}
			dy := (y/w - src.y0) * alpha
			src.y0 += dy
			src.y1 += dy
			src.reorder()
		}
		sortBreadth(c)
		s.resolveCollisions(c, beta)
	}
}

func sortBreadth(c []*snode) {
	sort.SliceStable(c, func(i, j int) bool { return c[i].y0 < c[j].y0 })
}

func (s *sankey) resolveCollisions(c []*snode, alpha float64) {
	i := len(c) / 2
	subject := c[i]
	s.bottomToTop(c, subject.y0-s.py, i-1, alpha)
	s.topToBottom(c, subject.y1+s.py, i+1, alpha)
	s.bottomToTop(c, 1, len(c)-1, alpha)
	s.topToBottom(c, 0, 0, alpha)
}

// topToBottom pushes nodes i and below down so they start no higher
// than y.
func (s *sankey) topToBottom(c []*snode, y float64, i int, alpha float64) {
	for ; i < len(c); i++ {
		n := c[i]
		if dy := (y - n.y0) * alpha; dy > 1e-6 {
			n.y0 += dy
			n.y1 += dy
		}
		y = n.y1 + s.py
	}
}

// bottomToTop pushes nodes i and above up so they end no lower than y.
func (s *sankey) bottomToTop(c []*snode, y float64, i int, alpha float64) {
	for ; i >= 0; i-- {
		n := c[i]
		if dy := (n.y1 - y) * alpha; dy > 1e-6 {
			n.y0 -= dy
			n.y1 -= dy
		}
		y = n.y0 - s.py
	}
}

// targetTop returns where the top of target would be if the link from
// source attached at its ideal position.
func (s *sankey) targetTop(source, target *snode) float64 {
	y := source.y0 - float64(len(source.out)-1)*s.py/2
	for _, l := range source.out {
		if l.target == target {
			break
		}
		y += l.width + s.py
	}
	for _, l := range target.in {
		if l.source == source {
			break
		}
		y -= l.width
	}
	return y
}

func (s *sankey) sourceTop(source, target *snode) float64 {
	y := target.y0 - float64(len(target.in)-1)*s.py/2
	for _, l := range target.in {
		if l.source == source {
			break
		}
		y += l.width + s.py
	}
	for _, l := range source.out {
		if l.target == target {
			break
		}
		y -= l.width
	}
	return y
}

// linkBreadths stacks each node's links along its edges.
func (s *sankey) linkBreadths() {
	for _, n := range s.nodes {
		y0, y1 := n.y0, n.y0
		for _, l := range n.out {
			l.y0 = y0 + l.width/2
			y0 += l.width
		}
		for _, l := range n.in {
			l.y1 = y1 + l.width/2
			y1 += l.width
		}
	}
}
