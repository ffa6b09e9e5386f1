// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chart

import (
	"math"

	"github.com/aclements/go-markres/coord"
)

// PrimitiveType is the geometry tag of a Primitive.
type PrimitiveType string

const (
	// PrimRect is a rectangle. Points is its outline, which is a
	// densified curve under non-Cartesian coordinates.
	PrimRect PrimitiveType = "rect"

	// PrimPolygon is a closed outline.
	PrimPolygon PrimitiveType = "polygon"

	// PrimArea is a closed outline running along the top of an
	// area and back along its baseline.
	PrimArea PrimitiveType = "area"

	// PrimLine is an open polyline.
	PrimLine PrimitiveType = "line"

	// PrimCircle is a circle of radius R around Points[0].
	PrimCircle PrimitiveType = "circle"

	// PrimSymbol is a point symbol named Symbol, of size R,
	// centered on Points[0].
	PrimSymbol PrimitiveType = "symbol"

	// PrimText is Text anchored at Points[0].
	PrimText PrimitiveType = "text"

	// PrimImage is the image Src centered on Points[0], R pixels
	// across.
	PrimImage PrimitiveType = "image"
)

// Primitive is one piece of positioned, styled geometry. Points are
// in plot area pixels.
type Primitive struct {
	Type PrimitiveType `json:"type"`

	// Mark is the key of the mark that produced the primitive and
	// Kind its kind.
	Mark string `json:"mark"`
	Kind string `json:"kind"`

	// Row is the index of the datum behind the primitive, or -1.
	// Primitives that stand for a group of rows, such as a line,
	// list them in Rows instead. Graph and hierarchy kinds index
	// their derived node or link rows, as told by Role.
	Row  int   `json:"row"`
	Rows []int `json:"rows,omitempty"`

	// Role distinguishes the parts of composite marks: "node" and
	// "link" for graphs and hierarchies, "label" for labels, and
	// "box", "median", "whisker", "outlier" for box plots.
	Role string `json:"role,omitempty"`

	Points []coord.Point `json:"points"`
	R      float64       `json:"r,omitempty"`

	Text   string `json:"text,omitempty"`
	Symbol string `json:"symbol,omitempty"`
	Src    string `json:"src,omitempty"`

	// Style holds resolved style attributes such as fill, stroke,
	// opacity, lineWidth, fontSize, and rotate.
	Style map[string]any `json:"style,omitempty"`

	ZIndex int `json:"zIndex,omitempty"`
}

// Bounds returns the bounding box of p's geometry.
func (p *Primitive) Bounds() (min, max coord.Point) {
	min = coord.Point{X: math.Inf(1), Y: math.Inf(1)}
	max = coord.Point{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, pt := range p.Points {
		min.X, min.Y = math.Min(min.X, pt.X-p.R), math.Min(min.Y, pt.Y-p.R)
		max.X, max.Y = math.Max(max.X, pt.X+p.R), math.Max(max.Y, pt.Y+p.R)
	}
	return
}

// densifySteps is the number of segments each edge of a rectangle is
// cut into before going through a curved coordinate system.
const densifySteps = 32

// rect maps the unit-square rectangle [x0,x1]×[y0,y1] through pl. Under
// non-Cartesian pipelines every edge is densified so it follows the
// coordinate system.
func rect(pl *coord.Pipeline, x0, y0, x1, y1 float64) []coord.Point {
	corners := []coord.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
	if pl.Cartesian() {
		return apply(pl, corners)
	}
	return apply(pl, densify(append(corners, corners[0]), densifySteps))[:4*densifySteps]
}

// densify cuts every segment of the polyline pts into n pieces.
func densify(pts []coord.Point, n int) []coord.Point {
	if len(pts) < 2 {
		return pts
	}
	out := make([]coord.Point, 0, (len(pts)-1)*n+1)
	for i := 0; i+1 < len(pts); i++ {
		a, b := pts[i], pts[i+1]
		for k := 0; k < n; k++ {
			t := float64(k) / float64(n)
			out = append(out, coord.Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t})
		}
	}
	return append(out, pts[len(pts)-1])
}

func apply(pl *coord.Pipeline, pts []coord.Point) []coord.Point {
	out := make([]coord.Point, len(pts))
	for i, p := range pts {
		out[i] = pl.Apply(p)
	}
	return out
}

// curve maps the polyline pts through pl, densifying it first under
// non-Cartesian pipelines.
func curve(pl *coord.Pipeline, pts []coord.Point) []coord.Point {
	if pl.Cartesian() {
		return apply(pl, pts)
	}
	return apply(pl, densify(pts, densifySteps/4))
}

// ribbon returns the outline of a horizontal band from x0 to x1 whose
// center moves from y0 to y1 along a cubic Bezier, with breadth w.
func ribbon(x0, y0, x1, y1, w float64) []coord.Point {
	const n = 16
	xm := (x0 + x1) / 2
	at := func(t, dy float64) coord.Point {
		u := 1 - t
		x := u*u*u*x0 + 3*u*u*t*xm + 3*u*t*t*xm + t*t*t*x1
		y := u*u*u*y0 + 3*u*u*t*y0 + 3*u*t*t*y1 + t*t*t*y1
		return coord.Point{X: x, Y: y + dy}
	}
	pts := make([]coord.Point, 0, 2*(n+1))
	for i := 0; i <= n; i++ {
		pts = append(pts, at(float64(i)/n, -w/2))
	}
	for i := n; i >= 0; i-- {
		pts = append(pts, at(float64(i)/n, w/2))
	}
	return pts
}
