// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package layout

import (
	"math"

	"github.com/aclements/go-markres/data"
	"github.com/aclements/go-markres/diag"
	"github.com/aclements/go-markres/spec"
)

// Tree lays out the hierarchy in ds as a node-link diagram, with the
// root at the top and each depth on its own row. Type "tree" produces
// a tidy tree; "cluster" produces a dendrogram with every leaf on the
// bottom row. A radial tree puts the root at the center and maps the
// horizontal position to an angle.
func Tree(ds *data.Dataset, value ValueFunc, opts *spec.TreeLayout) (*Result, error) {
	root, err := Stratify(ds, opts.Hierarchy, value, opts.Sort)
	if err != nil || root == nil {
		return empty(), err
	}
	switch opts.Type {
	case "", "tree":
		tidy(root)
	case "cluster":
		cluster(root)
	default:
		return nil, diag.Errorf(diag.CodeInvalidOption, "unknown tree type %q", opts.Type)
	}
	if opts.Radial {
		root.Each(func(n *HNode) {
			a := n.x*2*math.Pi - math.Pi/2
			r := n.y / 2
			n.x, n.y = 0.5+r*math.Cos(a), 0.5+r*math.Sin(a)
		})
	}
	root.Each(func(n *HNode) {
		n.x0, n.y0, n.x1, n.y1 = n.x, n.y, n.x, n.y
	})
	return flatten(root, true), nil
}

// separation is the distance between neighboring nodes: siblings are
// one unit apart and cousins two.
func separation(a, b *HNode) float64 {
	if a.Parent == b.Parent {
		return 1
	}
	return 2
}

// wnode carries the per-node state of the Buchheim-Walker algorithm.
type wnode struct {
	n        *HNode
	parent   *wnode
	children []*wnode
	i        int

	a, t, A    *wnode
	z, m, c, s float64
}

func (v *wnode) nextLeft() *wnode {
	if len(v.children) > 0 {
		return v.children[0]
	}
	return v.t
}

func (v *wnode) nextRight() *wnode {
	if len(v.children) > 0 {
		return v.children[len(v.children)-1]
	}
	return v.t
}

// tidy positions root with the linear-time tidy tree algorithm of
// Buchheim, Jünger and Leipert, in the unit square.
func tidy(root *HNode) {
	var wrap func(n *HNode, parent *wnode, i int) *wnode
	wrap = func(n *HNode, parent *wnode, i int) *wnode {
		w := &wnode{n: n, parent: parent, i: i}
		w.a = w
		for j, c := range n.Children {
			w.children = append(w.children, wrap(c, w, j))
		}
		return w
	}
	top := &wnode{}
	t := wrap(root, top, 0)
	top.children = []*wnode{t}

	var after func(v *wnode)
	after = func(v *wnode) {
		for _, c := range v.children {
			after(c)
		}
		firstWalk(v)
	}
	after(t)
	top.m = -t.z

	var before func(v *wnode)
	before = func(v *wnode) {
		v.n.x = v.z + v.parent.m
		v.m += v.parent.m
		for _, c := range v.children {
			before(c)
		}
	}
	before(t)

	left, right, bottom := root, root, root
	root.Each(func(n *HNode) {
		if n.x < left.x {
			left = n
		}
		if n.x > right.x {
			right = n
		}
		if n.Depth > bottom.Depth {
			bottom = n
		}
	})
	s := 1.0
	if left != right {
		s = separation(left, right) / 2
	}
	tx := s - left.x
	kx := 1 / (right.x + s + tx)
	ky := 1.0
	if bottom.Depth > 0 {
		ky = 1 / float64(bottom.Depth)
	}
	root.Each(func(n *HNode) {
		n.x = (n.x + tx) * kx
		n.y = float64(n.Depth) * ky
	})
}

func firstWalk(v *wnode) {
	siblings := v.parent.children
	var w *wnode
	if v.i > 0 {
		w = siblings[v.i-1]
	}
	if len(v.children) > 0 {
		executeShifts(v)
		mid := (v.children[0].z + v.children[len(v.children)-1].z) / 2
		if w != nil {
			v.z = w.z + separation(v.n, w.n)
			v.m = v.z - mid
		} else {
			v.z = mid
		}
	} else if w != nil {
		v.z = w.z + separation(v.n, w.n)
	}
	anc := v.parent.A
	if anc == nil {
		anc = siblings[0]
	}
	v.parent.A = apportion(v, w, anc)
}

func executeShifts(v *wnode) {
	shift, change := 0.0, 0.0
	for i := len(v.children) - 1; i >= 0; i-- {
		w := v.children[i]
		w.z += shift
		w.m += shift
		change += w.c
		shift += w.s + change
	}
}

func moveSubtree(wm, wp *wnode, shift float64) {
	change := shift / float64(wp.i-wm.i)
	wp.c -= change
	wp.s += shift
	wm.c += change
	wp.z += shift
	wp.m += shift
}

func nextAncestor(vim, v, ancestor *wnode) *wnode {
	if vim.a.parent == v.parent {
		return vim.a
	}
	return ancestor
}

func apportion(v, w, ancestor *wnode) *wnode {
	if w == nil {
		return ancestor
	}
	vip, vop, vim := v, v, w
	vom := vip.parent.children[0]
	sip, sop, sim, som := vip.m, vop.m, vim.m, vom.m
	for {
		vim, vip = vim.nextRight(), vip.nextLeft()
		if vim == nil || vip == nil {
			break
		}
		vom = vom.nextLeft()
		vop = vop.nextRight()
		vop.a = v
		shift := vim.z + sim - vip.z - sip + separation(vim.n, vip.n)
		if shift > 0 {
			moveSubtree(nextAncestor(vim, v, ancestor), v, shift)
			sip += shift
			sop += shift
		}
		sim += vim.m
		sip += vip.m
		som += vom.m
		sop += vop.m
	}
	if vim != nil && vop.nextRight() == nil {
		vop.t = vim
		vop.m += sim - sop
	}
	if vip != nil && vom.nextLeft() == nil {
		vom.t = vip
		vom.m += sip - som
		ancestor = v
	}
	return ancestor
}

// cluster positions root as a dendrogram: leaves are spaced evenly on
// the bottom row and every parent is centered over its children.
func cluster(root *HNode) {
	var prev *HNode
	x := 0.0
	root.eachAfter(func(n *HNode) {
		if n.Leaf() {
			if prev != nil {
				x += separation(n, prev)
			}
			n.x, n.y = x, 0
			prev = n
			return
		}
		sum, maxY := 0.0, 0.0
		for _, c := range n.Children {
			sum += c.x
			maxY = math.Max(maxY, c.y)
		}
		n.x = sum / float64(len(n.Children))
		n.y = maxY + 1
	})
	left, right := root, root
	for !left.Leaf() {
		left = left.Children[0]
	}
	for !right.Leaf() {
		right = right.Children[len(right.Children)-1]
	}
	x0 := left.x - separation(left, right)/2
	x1 := right.x + separation(right, left)/2
	rootY := root.y
	root.Each(func(n *HNode) {
		n.x = (n.x - x0) / (x1 - x0)
		if rootY > 0 {
			n.y = 1 - n.y/rootY
		} else {
			n.y = 0
		}
	})
}
