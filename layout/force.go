// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package layout

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/aclements/go-moremath/stats"

	"github.com/aclements/go-markres/spec"
)

type body struct {
	x, y, vx, vy float64
}

// Force lays out g with a force-directed simulation: every pair of
// nodes repels, links act as springs, and a centering force keeps the
// graph in place. The simulation cools geometrically and stops once
// alpha falls below opts.AlphaMin, the mean kinetic energy falls below
// opts.EnergyThreshold, or a budget runs out. In the last case the
// result has Converged set to false.
//
// Given the same graph, options, and seed, Force produces the same
// layout, unless the time budget cuts it short.
func Force(g *Graph, opts *spec.ForceLayout) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	r := graphResult(g)
	if len(g.Nodes) == 0 {
		return r, nil
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	jiggle := func() float64 { return (rng.Float64() - 0.5) * 1e-6 }

	// Start on a circle in depth-first order so that paths and
	// cycles begin untangled, with neighbors about a link apart.
	bodies := make([]body, len(g.Nodes))
	spacing := math.Max(opts.LinkDistance, 10)
	rad := spacing * float64(len(bodies)) / (2 * math.Pi)
	for k, i := range walkOrder(g) {
		a := 2 * math.Pi * float64(k) / float64(len(bodies))
		bodies[i] = body{x: rad*math.Cos(a) + jiggle(), y: rad*math.Sin(a) + jiggle()}
	}

	// Link strengths and biases favor moving the endpoint with
	// fewer links.
	count := make([]int, len(g.Nodes))
	for _, l := range g.Links {
		count[l.Source]++
		count[l.Target]++
	}
	strength := make([]float64, len(g.Links))
	bias := make([]float64, len(g.Links))
	for i, l := range g.Links {
		cs, ct := count[l.Source], count[l.Target]
		strength[i] = 1 / float64(min(cs, ct))
		bias[i] = float64(cs) / float64(cs+ct)
	}

	natural := int(math.Ceil(math.Log(opts.AlphaMin) / math.Log(1-opts.AlphaDecay)))
	limit := natural
	if opts.Iterations > 0 {
		limit = opts.Iterations
	}
	var deadline time.Time
	if opts.TimeBudget > 0 {
		deadline = time.Now().Add(opts.TimeBudget)
	}

	xs := make([]float64, len(bodies))
	ys := make([]float64, len(bodies))
	alpha := 1.0
	converged := false
	iter := 0
	for iter < limit {
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}
		alpha += (0 - alpha) * opts.AlphaDecay
		iter++

		// Links.
		for i, l := range g.Links {
			s, t := &bodies[l.Source], &bodies[l.Target]
			x := t.x + t.vx - s.x - s.vx
			y := t.y + t.vy - s.y - s.vy
			if x == 0 {
				x = jiggle()
			}
			if y == 0 {
				y = jiggle()
			}
			d := math.Sqrt(x*x + y*y)
			k := (d - opts.LinkDistance) / d * alpha * strength[i]
			x, y = x*k, y*k
			b := bias[i]
			t.vx -= x * b
			t.vy -= y * b
			s.vx += x * (1 - b)
			s.vy += y * (1 - b)
		}

		// Many-body repulsion.
		for i := range bodies {
			n := &bodies[i]
			for j := range bodies {
				if i == j {
					continue
				}
				o := &bodies[j]
				x, y := o.x-n.x, o.y-n.y
				if x == 0 {
					x = jiggle()
				}
				if y == 0 {
					y = jiggle()
				}
				l := x*x + y*y
				if l < 1 {
					l = math.Sqrt(l)
				}
				w := opts.ChargeStrength * alpha / l
				n.vx += x * w
				n.vy += y * w
			}
		}

		// Integrate.
		energy := 0.0
		for i := range bodies {
			b := &bodies[i]
			b.vx *= 1 - opts.VelocityDecay
			b.vy *= 1 - opts.VelocityDecay
			b.x += b.vx
			b.y += b.vy
			energy += b.vx*b.vx + b.vy*b.vy
			xs[i], ys[i] = b.x, b.y
		}

		// Center.
		mx, my := stats.Mean(xs), stats.Mean(ys)
		for i := range bodies {
			bodies[i].x -= mx * opts.CenterStrength
			bodies[i].y -= my * opts.CenterStrength
		}

		if alpha < opts.AlphaMin {
			converged = true
			break
		}
		if opts.EnergyThreshold > 0 && energy/float64(len(bodies)) < opts.EnergyThreshold {
			converged = true
			break
		}
	}
	if iter >= natural {
		converged = true
	}

	fit(bodies)
	for i, b := range bodies {
		n := &r.Nodes[i]
		n.X, n.Y = b.x, b.y
		n.X0, n.Y0, n.X1, n.Y1 = b.x, b.y, b.x, b.y
		n.Leaf = true
	}
	for i := range r.Links {
		r.Links[i].Width = 1
	}
	for _, l := range g.Links {
		r.Nodes[l.Source].Value += l.Value
		r.Nodes[l.Target].Value += l.Value
	}
	r.Converged = converged
	r.Iterations = iter
	return r, nil
}

// walkOrder returns the nodes of g in depth-first preorder over its
// undirected links, taking neighbors in link order and starting a new
// walk at the lowest unvisited node.
func walkOrder(g *Graph) []int {
	adj := make([][]int, len(g.Nodes))
	for _, l := range g.Links {
		adj[l.Source] = append(adj[l.Source], l.Target)
		adj[l.Target] = append(adj[l.Target], l.Source)
	}
	seen := make([]bool, len(g.Nodes))
	order := make([]int, 0, len(g.Nodes))
	var stack []int
	for root := range g.Nodes {
		if seen[root] {
			continue
		}
		stack = append(stack[:0], root)
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if seen[i] {
				continue
			}
			seen[i] = true
			order = append(order, i)
			for j := len(adj[i]) - 1; j >= 0; j-- {
				if !seen[adj[i][j]] {
					stack = append(stack, adj[i][j])
				}
			}
		}
	}
	return order
}

// fit scales bodies uniformly into the unit square with a margin,
// centered.
func fit(bodies []body) {
	const margin = 0.05
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, b := range bodies {
		minX, maxX = math.Min(minX, b.x), math.Max(maxX, b.x)
		minY, maxY = math.Min(minY, b.y), math.Max(maxY, b.y)
	}
	span := math.Max(maxX-minX, maxY-minY)
	k := 0.0
	if span > 0 {
		k = (1 - 2*margin) / span
	}
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	for i := range bodies {
		bodies[i].x = 0.5 + (bodies[i].x-cx)*k
		bodies[i].y = 0.5 + (bodies[i].y-cy)*k
	}
}
