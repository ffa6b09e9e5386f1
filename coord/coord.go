// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package coord implements coordinate transform pipelines.
//
// Marks lay out their geometry in an abstract unit square, where x
// and y both run from 0 to 1 and y grows downward. A Pipeline applies
// an ordered list of transforms to points in that square and finally
// maps the square into the plot area.
package coord

import (
	"fmt"
	"math"
	"strings"

	"github.com/aclements/go-markres/diag"
	"github.com/aclements/go-markres/spec"
)

// Point is a point in the plane.
type Point struct {
	X, Y float64
}

// Area is the plot area a pipeline maps the unit square onto.
type Area struct {
	X, Y, Width, Height float64
}

// A Transform maps a point in the unit square to another point in
// the unit square.
type Transform interface {
	Apply(p Point) Point
	String() string
}

type transpose struct{}

func (transpose) Apply(p Point) Point { return Point{p.Y, p.X} }
func (transpose) String() string      { return "transpose" }

type mirror struct{ x, y bool }

func (r mirror) Apply(p Point) Point {
	if r.x {
		p.X = 1 - p.X
	}
	if r.y {
		p.Y = 1 - p.Y
	}
	return p
}

func (r mirror) String() string {
	switch {
	case r.x && r.y:
		return "reflect"
	case r.x:
		return "reflectX"
	}
	return "reflectY"
}

// polar maps x to an angle and y to a radius. Since y grows
// downward, y = 0 is the outer radius.
type polar struct {
	start, end   float64
	inner, outer float64
}

func (t polar) Apply(p Point) Point {
	theta := t.start + p.X*(t.end-t.start)
	r := t.inner + (1-p.Y)*(t.outer-t.inner)
	return Point{0.5 + r/2*math.Cos(theta), 0.5 + r/2*math.Sin(theta)}
}

func (t polar) String() string {
	return fmt.Sprintf("polar(%.3g..%.3g, r=%.3g..%.3g)", t.start, t.end, t.inner, t.outer)
}

// helix winds x along a spiral of several turns. The radius grows
// with x, and y offsets a point across the spiral's band.
type helix struct {
	start, end   float64
	inner, outer float64
}

func (t helix) Apply(p Point) Point {
	theta := t.start + p.X*(t.end-t.start)
	turns := math.Max(1, (t.end-t.start)/(2*math.Pi))
	band := (t.outer - t.inner) / (turns + 1)
	r := t.inner + (t.outer-t.inner-band)*p.X + (1-p.Y)*band
	return Point{0.5 + r/2*math.Cos(theta), 0.5 + r/2*math.Sin(theta)}
}

func (t helix) String() string { return "helix" }

// fisheye magnifies the neighborhood of a focus point, as in d3's
// fisheye plugin, independently on each axis.
type fisheye struct {
	fx, fy float64
	dx, dy float64
}

func distort(v, focus, d float64) float64 {
	if d == 0 || v == focus {
		return v
	}
	left := v < focus
	m := 1 - focus
	if left {
		m = focus
	}
	if m == 0 {
		m = 1
	}
	sign := 1.0
	if left {
		sign = -1
	}
	return focus + sign*m*(d+1)/(d+m/math.Abs(v-focus))
}

func (t fisheye) Apply(p Point) Point {
	return Point{distort(p.X, t.fx, t.dx), distort(p.Y, t.fy, t.dy)}
}

func (t fisheye) String() string {
	return fmt.Sprintf("fisheye(%.3g,%.3g)", t.fx, t.fy)
}

// NewTransform returns the transform described by t.
func NewTransform(t spec.CoordTransform) (Transform, error) {
	switch t.Type {
	case spec.TransformTranspose:
		return transpose{}, nil
	case spec.TransformReflect:
		return mirror{true, true}, nil
	case spec.TransformReflectX:
		return mirror{x: true}, nil
	case spec.TransformReflectY:
		return mirror{y: true}, nil
	case spec.TransformPolar:
		return polar{t.StartAngle, t.EndAngle, t.InnerRadius, t.OuterRadius}, nil
	case spec.TransformHelix:
		return helix{t.StartAngle, t.EndAngle, t.InnerRadius, t.OuterRadius}, nil
	case spec.TransformFisheye:
		return fisheye{t.FocusX, t.FocusY, t.DistortionX, t.DistortionY}, nil
	}
	return nil, diag.Errorf(diag.CodeInvalidOption, "unknown coordinate transform %q", t.Type)
}

// circular reports whether t bends the unit square into a disc.
func circular(t spec.TransformType) bool {
	return t == spec.TransformPolar || t == spec.TransformHelix
}

// Expand returns the full transform list of c: its declared
// transforms followed by those implied by its type.
func Expand(c spec.Coordinate) ([]spec.CoordTransform, error) {
	ts := append([]spec.CoordTransform(nil), c.Transforms...)
	p := func(t spec.TransformType) spec.CoordTransform {
		return spec.CoordTransform{Type: t, StartAngle: c.StartAngle, EndAngle: c.EndAngle, InnerRadius: c.InnerRadius, OuterRadius: c.OuterRadius}
	}
	switch c.Type {
	case "", spec.Cartesian:
	case spec.Transpose:
		ts = append(ts, spec.CoordTransform{Type: spec.TransformTranspose})
	case spec.Polar:
		ts = append(ts, p(spec.TransformPolar))
	case spec.Theta:
		ts = append(ts, spec.CoordTransform{Type: spec.TransformTranspose}, p(spec.TransformPolar))
	case spec.Radial:
		ts = append(ts, spec.CoordTransform{Type: spec.TransformTranspose}, spec.CoordTransform{Type: spec.TransformReflectY}, p(spec.TransformPolar))
	case spec.Helix:
		ts = append(ts, p(spec.TransformHelix))
	default:
		return nil, diag.Errorf(diag.CodeInvalidOption, "unknown coordinate type %q", c.Type)
	}
	return ts, nil
}

// Pipeline is a compiled coordinate system.
type Pipeline struct {
	transforms []Transform
	circular   bool
	area       Area
}

// Compile builds the pipeline for c mapping onto area.
func Compile(c spec.Coordinate, area Area) (*Pipeline, error) {
	ts, err := Expand(c)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{area: area}
	for _, t := range ts {
		tr, err := NewTransform(t)
		if err != nil {
			return nil, err
		}
		p.transforms = append(p.transforms, tr)
		p.circular = p.circular || circular(t.Type)
	}
	return p, nil
}

// New returns a pipeline applying ts in order, then mapping onto area.
func New(area Area, ts ...Transform) *Pipeline {
	p := &Pipeline{area: area, transforms: append([]Transform(nil), ts...)}
	for _, t := range ts {
		switch t.(type) {
		case polar, helix:
			p.circular = true
		}
	}
	return p
}

// Then returns a pipeline applying p's transforms followed by q's,
// mapping onto q's area.
func (p *Pipeline) Then(q *Pipeline) *Pipeline {
	r := &Pipeline{
		transforms: append(append([]Transform(nil), p.transforms...), q.transforms...),
		circular:   p.circular || q.circular,
		area:       q.area,
	}
	return r
}

// Cartesian reports whether p keeps straight lines straight, so
// rectangles need no densification.
func (p *Pipeline) Cartesian() bool {
	if p.circular {
		return false
	}
	for _, t := range p.transforms {
		if _, ok := t.(fisheye); ok {
			return false
		}
	}
	return true
}

// Unit applies p's transforms to pt without mapping onto the area.
func (p *Pipeline) Unit(pt Point) Point {
	for _, t := range p.transforms {
		pt = t.Apply(pt)
	}
	return pt
}

// Apply maps pt from the unit square into the plot area.
func (p *Pipeline) Apply(pt Point) Point {
	return p.toArea(p.Unit(pt))
}

// toArea maps the unit square onto the area. Circular coordinates keep
// their aspect ratio by using the largest centered square.
func (p *Pipeline) toArea(pt Point) Point {
	a := p.area
	if !p.circular {
		return Point{a.X + pt.X*a.Width, a.Y + pt.Y*a.Height}
	}
	side := math.Min(a.Width, a.Height)
	ox := a.X + (a.Width-side)/2
	oy := a.Y + (a.Height-side)/2
	return Point{ox + pt.X*side, oy + pt.Y*side}
}

// Area returns the plot area.
func (p *Pipeline) Area() Area { return p.area }

func (p *Pipeline) String() string {
	names := make([]string, len(p.transforms))
	for i, t := range p.transforms {
		names[i] = t.String()
	}
	return "[" + strings.Join(names, " ") + "]"
}

// Validate checks that a mark of the kind described by ki can use
// coordinate c. Kinds with their own internal layout reject polar
// family coordinates, and polar family coordinates need both x and y.
func Validate(ki *spec.KindInfo, c spec.Coordinate) error {
	ts, err := Expand(c)
	if err != nil {
		return diag.AnnotateMark(err, ki.Kind.String())
	}
	for _, t := range ts {
		if !circular(t.Type) {
			continue
		}
		if ki.OwnLayout {
			return &diag.Error{Code: diag.CodeUnsupportedTransformForMark, Mark: ki.Kind.String(), Detail: fmt.Sprintf("%s transform cannot remap a %s layout", t.Type, ki.Kind)}
		}
		if !ki.Accepts(spec.X) || !ki.Accepts(spec.Y) {
			return &diag.Error{Code: diag.CodeUnsupportedTransformForMark, Mark: ki.Kind.String(), Detail: fmt.Sprintf("%s transform needs x and y channels", t.Type)}
		}
	}
	return nil
}
