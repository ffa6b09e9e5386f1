// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package layout

import (
	"github.com/aclements/go-markres/data"
	"github.com/aclements/go-markres/diag"
	"github.com/aclements/go-markres/spec"
)

// Treemap subdivides the unit square among the nodes of the hierarchy
// in ds, giving every node an area proportional to its value. Without
// padding, the leaves of every node exactly tile it.
func Treemap(ds *data.Dataset, value ValueFunc, opts *spec.TreemapLayout) (*Result, error) {
	root, err := Stratify(ds, opts.Hierarchy, value, opts.Sort)
	if err != nil || root == nil {
		return empty(), err
	}
	if err := TreemapNodes(root, opts); err != nil {
		return nil, err
	}
	return flatten(root, false), nil
}

type tileFunc func(n *HNode, x0, y0, x1, y1 float64)

// TreemapNodes lays out root in the unit square.
func TreemapNodes(root *HNode, opts *spec.TreemapLayout) error {
	var tile tileFunc
	switch opts.Tile {
	case "", "squarify":
		ratio := opts.Ratio
		if ratio <= 1 {
			ratio = 1
		}
		tile = func(n *HNode, x0, y0, x1, y1 float64) { squarify(ratio, n, x0, y0, x1, y1) }
	case "binary":
		tile = binary
	case "slice":
		tile = slice
	case "dice":
		tile = dice
	case "sliceDice":
		tile = func(n *HNode, x0, y0, x1, y1 float64) {
			if n.Depth%2 == 1 {
				slice(n, x0, y0, x1, y1)
			} else {
				dice(n, x0, y0, x1, y1)
			}
		}
	default:
		return diag.Errorf(diag.CodeInvalidOption, "unknown treemap tile %q", opts.Tile)
	}

	inner := opts.PaddingInner / 2
	root.x0, root.y0, root.x1, root.y1 = 0, 0, 1, 1
	root.Each(func(n *HNode) {
		if n.Leaf() {
			return
		}
		x0, y0, x1, y1 := n.x0, n.y0, n.x1, n.y1
		if p := opts.PaddingOuter; p > 0 {
			x0, y0, x1, y1 = x0+p, y0+p, x1-p, y1-p
		}
		x1, y1 = max(x0, x1), max(y0, y1)
		tile(n, x0, y0, x1, y1)
		if inner > 0 {
			for _, c := range n.Children {
				c.x0, c.x1 = shrink(c.x0, c.x1, inner)
				c.y0, c.y1 = shrink(c.y0, c.y1, inner)
			}
		}
	})
	root.Each(func(n *HNode) {
		n.x, n.y = (n.x0+n.x1)/2, (n.y0+n.y1)/2
	})
	return nil
}

func shrink(a, b, p float64) (float64, float64) {
	if b-a <= 2*p {
		m := (a + b) / 2
		return m, m
	}
	return a + p, b - p
}

// dice lays out n's children left to right.
func dice(n *HNode, x0, y0, x1, y1 float64) {
	k := 0.0
	if n.Value > 0 {
		k = (x1 - x0) / n.Value
	}
	for _, c := range n.Children {
		c.y0, c.y1 = y0, y1
		c.x0 = x0
		x0 += c.Value * k
		c.x1 = x0
	}
}

// slice lays out n's children top to bottom.
func slice(n *HNode, x0, y0, x1, y1 float64) {
	k := 0.0
	if n.Value > 0 {
		k = (y1 - y0) / n.Value
	}
	for _, c := range n.Children {
		c.x0, c.x1 = x0, x1
		c.y0 = y0
		y0 += c.Value * k
		c.y1 = y0
	}
}

// binary recursively splits n's children into two groups of roughly
// equal value, alternating the split direction to keep tiles square.
func binary(n *HNode, x0, y0, x1, y1 float64) {
	kids := n.Children
	sums := make([]float64, len(kids)+1)
	for i, c := range kids {
		sums[i+1] = sums[i] + c.Value
	}
	var part func(i, j int, value, x0, y0, x1, y1 float64)
	part = func(i, j int, value, x0, y0, x1, y1 float64) {
		if i >= j-1 {
			c := kids[i]
			c.x0, c.y0, c.x1, c.y1 = x0, y0, x1, y1
			return
		}
		offset := sums[i]
		target := value/2 + offset
		k, hi := i+1, j-1
		for k < hi {
			mid := (k + hi) / 2
			if sums[mid] < target {
				k = mid + 1
			} else {
				hi = mid
			}
		}
		if target-sums[k-1] < sums[k]-target && i+1 < k {
			k--
		}
		left := sums[k] - offset
		right := value - left
		if x1-x0 > y1-y0 {
			xk := x1
			if value > 0 {
				xk = (x0*right + x1*left) / value
			}
			part(i, k, left, x0, y0, xk, y1)
			part(k, j, right, xk, y0, x1, y1)
		} else {
			yk := y1
			if value > 0 {
				yk = (y0*right + y1*left) / value
			}
			part(i, k, left, x0, y0, x1, yk)
			part(k, j, right, x0, yk, x1, y1)
		}
	}
	if len(kids) > 0 {
		part(0, len(kids), n.Value, x0, y0, x1, y1)
	}
}

// squarify lays out n's children in rows whose tiles have an aspect
// ratio as close as possible to ratio, following Bruls et al.
func squarify(ratio float64, n *HNode, x0, y0, x1, y1 float64) {
	kids := n.Children
	value := n.Value
	for i0, i1 := 0, 0; i0 < len(kids); i0 = i1 {
		dx, dy := x1-x0, y1-y0

		// Find the next non-empty node.
		sum := kids[i1].Value
		i1++
		for sum == 0 && i1 < len(kids) {
			sum = kids[i1].Value
			i1++
		}
		minV, maxV := sum, sum
		alpha := 0.0
		if value > 0 && dx > 0 && dy > 0 {
			alpha = max(dy/dx, dx/dy) / (value * ratio)
		}
		beta := sum * sum * alpha
		minRatio := worst(maxV, minV, beta)

		// Keep adding nodes while the aspect ratio holds or
		// improves.
		for ; i1 < len(kids); i1++ {
			v := kids[i1].Value
			sum += v
			minV, maxV = min(minV, v), max(maxV, v)
			beta = sum * sum * alpha
			r := worst(maxV, minV, beta)
			if r > minRatio {
				sum -= v
				break
			}
			minRatio = r
		}

		row := &HNode{Value: sum, Children: kids[i0:i1]}
		if dx < dy {
			ny := y1
			if value > 0 {
				ny = y0 + dy*sum/value
			}
			dice(row, x0, y0, x1, ny)
			y0 = ny
		} else {
			nx := x1
			if value > 0 {
				nx = x0 + dx*sum/value
			}
			slice(row, x0, y0, nx, y1)
			x0 = nx
		}
		value -= sum
	}
}

// worst is the worst aspect ratio of a row. Zero values divide to
// +Inf or NaN, neither of which compares greater, so empty tiles join
// the current row.
func worst(maxV, minV, beta float64) float64 {
	return max(maxV/beta, beta/minV)
}
