// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package layout

import (
	"math"

	"github.com/aclements/go-markres/data"
	"github.com/aclements/go-markres/spec"
)

// Pack lays out the hierarchy in ds as nested circles in the unit
// square. Leaf radii are proportional to the square root of their
// value, so leaf areas are proportional to value.
func Pack(ds *data.Dataset, value ValueFunc, opts *spec.PackLayout) (*Result, error) {
	root, err := Stratify(ds, opts.Hierarchy, value, opts.Sort)
	if err != nil || root == nil {
		return empty(), err
	}
	PackNodes(root, opts.Padding)
	return flatten(root, false), nil
}

// PackNodes lays out root in the unit square. padding is the gap
// between sibling circles, in unit square units.
func PackNodes(root *HNode, padding float64) {
	root.Each(func(n *HNode) {
		if n.Leaf() {
			n.r = math.Sqrt(n.Value)
		}
	})
	root.eachAfter(func(n *HNode) { packChildren(n, 0) })
	if padding > 0 && root.r > 0 {
		// Repack with padding expressed in the units of the
		// unpadded layout.
		k := root.r
		root.eachAfter(func(n *HNode) { packChildren(n, padding*k) })
	}

	root.x, root.y = 0.5, 0.5
	k := 0.0
	if root.r > 0 {
		k = 0.5 / root.r
	}
	root.Each(func(n *HNode) {
		n.r *= k
		if p := n.Parent; p != nil {
			n.x = p.x + k*n.x
			n.y = p.y + k*n.y
		}
	})
	root.Each(func(n *HNode) {
		n.x0, n.y0, n.x1, n.y1 = n.x-n.r, n.y-n.r, n.x+n.r, n.y+n.r
	})
}

// packChildren packs n's children around n's origin and sets n's
// radius to enclose them. Child positions are relative to n.
func packChildren(n *HNode, pad float64) {
	if n.Leaf() {
		return
	}
	cs := make([]*circle, len(n.Children))
	for i, c := range n.Children {
		cs[i] = &circle{r: c.r + pad}
	}
	r := packSiblings(cs)
	for i, c := range n.Children {
		c.x, c.y = cs[i].x, cs[i].y
	}
	n.r = r + pad
}

type circle struct {
	x, y, r float64
}

// place positions c tangent to both a and b.
func place(b, a, c *circle) {
	dx, dy := b.x-a.x, b.y-a.y
	d2 := dx*dx + dy*dy
	if d2 == 0 {
		c.x, c.y = a.x+c.r, a.y
		return
	}
	a2 := (a.r + c.r) * (a.r + c.r)
	b2 := (b.r + c.r) * (b.r + c.r)
	if a2 > b2 {
		x := (d2 + b2 - a2) / (2 * d2)
		y := math.Sqrt(math.Max(0, b2/d2-x*x))
		c.x = b.x - x*dx - y*dy
		c.y = b.y - x*dy + y*dx
	} else {
		x := (d2 + a2 - b2) / (2 * d2)
		y := math.Sqrt(math.Max(0, a2/d2-x*x))
		c.x = a.x + x*dx - y*dy
		c.y = a.y + x*dy + y*dx
	}
}

func intersects(a, b *circle) bool {
	dr := a.r + b.r - 1e-6
	dx, dy := b.x-a.x, b.y-a.y
	return dr > 0 && dr*dr > dx*dx+dy*dy
}

// chain is a node of the front chain.
type chain struct {
	c          *circle
	next, prev *chain
}

func score(n *chain) float64 {
	a, b := n.c, n.next.c
	ab := a.r + b.r
	if ab == 0 {
		return a.x*a.x + a.y*a.y
	}
	dx := (a.x*b.r + b.x*a.r) / ab
	dy := (a.y*b.r + b.y*a.r) / ab
	return dx*dx + dy*dy
}

// packSiblings places circles tangent to each other around the
// origin using Wang et al.'s front-chain algorithm, in input order. It
// returns the radius of the enclosing circle, centered on the origin.
func packSiblings(cs []*circle) float64 {
	n := len(cs)
	if n == 0 {
		return 0
	}
	a := cs[0]
	a.x, a.y = 0, 0
	if n == 1 {
		return a.r
	}
	b := cs[1]
	a.x, b.x, b.y = -b.r, a.r, 0
	if n == 2 {
		return a.r + b.r
	}
	place(b, a, cs[2])

	ca, cb, cc := &chain{c: a}, &chain{c: b}, &chain{c: cs[2]}
	ca.next, cc.prev = cb, cb
	cb.next, ca.prev = cc, cc
	cc.next, cb.prev = ca, ca

pack:
	for i := 3; i < n; i++ {
		c := cs[i]
		place(ca.c, cb.c, c)
		nc := &chain{c: c}

		// Find the closest intersecting circle on the front chain,
		// searching ahead of b and behind a alternately.
		j, k := cb.next, ca.prev
		sj, sk := cb.c.r, ca.c.r
		for {
			if sj <= sk {
				if intersects(j.c, c) {
					cb = j
					ca.next, cb.prev = cb, ca
					i--
					continue pack
				}
				sj += j.c.r
				j = j.next
			} else {
				if intersects(k.c, c) {
					ca = k
					ca.next, cb.prev = cb, ca
					i--
					continue pack
				}
				sk += k.c.r
				k = k.prev
			}
			if j == k.next {
				break
			}
		}

		// Insert c between a and b.
		nc.prev, nc.next = ca, cb
		ca.next, cb.prev = nc, nc
		cb = nc

		// Choose the new closest pair to the centroid.
		best := score(ca)
		for x := nc.next; x != cb; x = x.next {
			if s := score(x); s < best {
				ca, best = x, s
			}
		}
		cb = ca.next
	}

	var front []*circle
	front = append(front, cb.c)
	for x := cb.next; x != cb; x = x.next {
		front = append(front, x.c)
	}
	e := enclose(front)
	for _, c := range cs {
		c.x -= e.x
		c.y -= e.y
	}
	return e.r
}

// enclose returns the smallest circle enclosing cs, using Welzl's
// move-to-front algorithm over the circles in order.
func enclose(cs []*circle) circle {
	var e *circle
	var basis []*circle
	for i, steps := 0, 0; i < len(cs); steps++ {
		if steps > 4*len(cs)*len(cs)+16 {
			return boundingCircle(cs)
		}
		p := cs[i]
		if e != nil && enclosesWeak(e, p) {
			i++
			continue
		}
		basis = extendBasis(basis, p)
		if basis == nil {
			return boundingCircle(cs)
		}
		b := encloseBasis(basis)
		if math.IsNaN(b.r) || math.IsNaN(b.x) || math.IsNaN(b.y) {
			return boundingCircle(cs)
		}
		e = &b
		i = 0
	}
	return *e
}

func extendBasis(B []*circle, p *circle) []*circle {
	if enclosesWeakAll(p, B) {
		return []*circle{p}
	}
	for _, b := range B {
		if enclosesNot(p, b) {
			e := encloseBasis2(b, p)
			if enclosesWeakAll(&e, B) {
				return []*circle{b, p}
			}
		}
	}
	for i := 0; i < len(B)-1; i++ {
		for j := i + 1; j < len(B); j++ {
			ij, ip, jp := encloseBasis2(B[i], B[j]), encloseBasis2(B[i], p), encloseBasis2(B[j], p)
			if enclosesNot(&ij, p) && enclosesNot(&ip, B[j]) && enclosesNot(&jp, B[i]) {
				e := encloseBasis3(B[i], B[j], p)
				if enclosesWeakAll(&e, B) {
					return []*circle{B[i], B[j], p}
				}
			}
		}
	}
	// Numerical trouble; the caller falls back.
	return nil
}

func enclosesNot(a, b *circle) bool {
	dr := a.r - b.r
	dx, dy := b.x-a.x, b.y-a.y
	return dr < 0 || dr*dr < dx*dx+dy*dy
}

func enclosesWeak(a, b *circle) bool {
	dr := a.r - b.r + math.Max(math.Max(a.r, b.r), 1)*1e-9
	dx, dy := b.x-a.x, b.y-a.y
	return dr > 0 && dr*dr > dx*dx+dy*dy
}

func enclosesWeakAll(a *circle, B []*circle) bool {
	for _, b := range B {
		if !enclosesWeak(a, b) {
			return false
		}
	}
	return true
}

func encloseBasis(B []*circle) circle {
	switch len(B) {
	case 1:
		return *B[0]
	case 2:
		return encloseBasis2(B[0], B[1])
	}
	return encloseBasis3(B[0], B[1], B[2])
}

func encloseBasis2(a, b *circle) circle {
	x21, y21, r21 := b.x-a.x, b.y-a.y, b.r-a.r
	l := math.Sqrt(x21*x21 + y21*y21)
	if l == 0 {
		return circle{a.x, a.y, math.Max(a.r, b.r)}
	}
	return circle{
		x: (a.x + b.x + x21/l*r21) / 2,
		y: (a.y + b.y + y21/l*r21) / 2,
		r: (l + a.r + b.r) / 2,
	}
}

func encloseBasis3(a, b, c *circle) circle {
	x1, y1, r1 := a.x, a.y, a.r
	x2, y2, r2 := b.x, b.y, b.r
	x3, y3, r3 := c.x, c.y, c.r
	a2, a3 := x1-x2, x1-x3
	b2, b3 := y1-y2, y1-y3
	c2, c3 := r2-r1, r3-r1
	d1 := x1*x1 + y1*y1 - r1*r1
	d2 := d1 - x2*x2 - y2*y2 + r2*r2
	d3 := d1 - x3*x3 - y3*y3 + r3*r3
	ab := a3*b2 - a2*b3
	xa := (b2*d3-b3*d2)/(ab*2) - x1
	xb := (b3*c2 - b2*c3) / ab
	ya := (a3*d2-a2*d3)/(ab*2) - y1
	yb := (a2*c3 - a3*c2) / ab
	A := xb*xb + yb*yb - 1
	B := 2 * (r1 + xa*xb + ya*yb)
	C := xa*xa + ya*ya - r1*r1
	var r float64
	if math.Abs(A) > 1e-6 {
		r = -(B + math.Sqrt(B*B-4*A*C)) / (2 * A)
	} else {
		r = -C / B
	}
	return circle{x: x1 + xa + xb*r, y: y1 + ya + yb*r, r: r}
}

// boundingCircle returns a circle around the centroid of cs that
// encloses them all. It is not minimal.
func boundingCircle(cs []*circle) circle {
	var e circle
	for _, c := range cs {
		e.x += c.x / float64(len(cs))
		e.y += c.y / float64(len(cs))
	}
	for _, c := range cs {
		e.r = math.Max(e.r, math.Hypot(c.x-e.x, c.y-e.y)+c.r)
	}
	return e
}
