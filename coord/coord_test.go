// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coord

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aclements/go-markres/diag"
	"github.com/aclements/go-markres/spec"
)

var (
	unitArea = Area{0, 0, 1, 1}
	area     = Area{10, 20, 100, 50}
	approx   = cmpopts.EquateApprox(0, 1e-9)
)

var samples = []Point{{0, 0}, {1, 1}, {0.25, 0.75}, {0.5, 0.1}, {0.9, 0.4}}

func TestCartesian(t *testing.T) {
	p, err := Compile(spec.Coordinate{Type: spec.Cartesian}, area)
	require.NoError(t, err)
	assert.True(t, p.Cartesian())
	assert.Equal(t, Point{10, 20}, p.Apply(Point{0, 0}))
	assert.Equal(t, Point{110, 70}, p.Apply(Point{1, 1}))
	assert.Equal(t, Point{60, 45}, p.Apply(Point{0.5, 0.5}))
}

func TestTransposeReflect(t *testing.T) {
	p, err := Compile(spec.Coordinate{Type: spec.Transpose}, unitArea)
	require.NoError(t, err)
	assert.Equal(t, Point{0.75, 0.25}, p.Apply(Point{0.25, 0.75}))

	p, err = Compile(spec.Coordinate{Transforms: []spec.CoordTransform{{Type: spec.TransformReflectX}}}, unitArea)
	require.NoError(t, err)
	assert.Equal(t, Point{0.75, 0.75}, p.Apply(Point{0.25, 0.75}))

	p, err = Compile(spec.Coordinate{Transforms: []spec.CoordTransform{{Type: spec.TransformReflect}}}, unitArea)
	require.NoError(t, err)
	assert.Equal(t, Point{0.75, 0.25}, p.Apply(Point{0.25, 0.75}))
}

func TestPolar(t *testing.T) {
	c, err := spec.Normalize(spec.New(spec.Interval).WithCoordinate(spec.Coordinate{Type: spec.Polar}), nil)
	require.NoError(t, err)
	p, err := Compile(c.Coordinate, Area{0, 0, 200, 100})
	require.NoError(t, err)
	assert.False(t, p.Cartesian())

	// x = 0 starts at 12 o'clock on the outer radius. The disc is
	// centered in the area and as large as the smaller side.
	got := p.Apply(Point{0, 0})
	assert.InDelta(t, 100, got.X, 1e-9)
	assert.InDelta(t, 0, got.Y, 1e-9)

	// A quarter turn is 3 o'clock.
	got = p.Apply(Point{0.25, 0})
	assert.InDelta(t, 150, got.X, 1e-9)
	assert.InDelta(t, 50, got.Y, 1e-9)

	// y = 1 is the center.
	got = p.Apply(Point{0.6, 1})
	assert.InDelta(t, 100, got.X, 1e-9)
	assert.InDelta(t, 50, got.Y, 1e-9)
}

func TestFisheye(t *testing.T) {
	tr, err := NewTransform(spec.CoordTransform{Type: spec.TransformFisheye, FocusX: 0.5, FocusY: 0.5, DistortionX: 2, DistortionY: 2})
	require.NoError(t, err)
	assert.Equal(t, Point{0.5, 0.5}, tr.Apply(Point{0.5, 0.5}))
	if diff := cmp.Diff(Point{0, 1}, tr.Apply(Point{0, 1}), approx); diff != "" {
		t.Errorf("fisheye moved the edges (-want +got):\n%s", diff)
	}
	// Points near the focus spread out.
	near := tr.Apply(Point{0.55, 0.45})
	assert.Greater(t, near.X, 0.55)
	assert.Less(t, near.Y, 0.45)
	assert.False(t, New(unitArea, tr).Cartesian())
}

func TestAssociative(t *testing.T) {
	c := func(ty spec.TransformType) Transform {
		tr, err := NewTransform(spec.CoordTransform{Type: ty, StartAngle: -math.Pi / 2, EndAngle: 3 * math.Pi / 2, OuterRadius: 1, FocusX: 0.3, FocusY: 0.6, DistortionX: 3, DistortionY: 1})
		require.NoError(t, err)
		return tr
	}
	a, b, d := c(spec.TransformTranspose), c(spec.TransformFisheye), c(spec.TransformPolar)

	whole := New(area, a, b, d)
	left := New(area, a, b).Then(New(area, d))
	right := New(area, a).Then(New(area, b, d))
	for _, pt := range samples {
		seq := area2(d.Apply(b.Apply(a.Apply(pt))))
		for name, p := range map[string]*Pipeline{"whole": whole, "left": left, "right": right} {
			if diff := cmp.Diff(seq, p.Apply(pt), approx); diff != "" {
				t.Errorf("%s pipeline at %v (-sequential +got):\n%s", name, pt, diff)
			}
		}
	}
}

// area2 maps a unit point onto the test area the way a circular
// pipeline does.
func area2(p Point) Point {
	side := math.Min(area.Width, area.Height)
	return Point{area.X + (area.Width-side)/2 + p.X*side, area.Y + (area.Height-side)/2 + p.Y*side}
}

func TestOrderMatters(t *testing.T) {
	pt := Point{0.1, 0.3}
	tp := []spec.CoordTransform{{Type: spec.TransformTranspose}, {Type: spec.TransformPolar, StartAngle: 0, EndAngle: 2 * math.Pi, OuterRadius: 1}}
	pt2 := []spec.CoordTransform{tp[1], tp[0]}
	p1, err := Compile(spec.Coordinate{Transforms: tp}, unitArea)
	require.NoError(t, err)
	p2, err := Compile(spec.Coordinate{Transforms: pt2}, unitArea)
	require.NoError(t, err)
	assert.NotEqual(t, p1.Apply(pt), p2.Apply(pt))
}

func TestTypes(t *testing.T) {
	for _, ty := range []spec.CoordinateType{spec.Cartesian, spec.Polar, spec.Theta, spec.Radial, spec.Helix, spec.Transpose} {
		m, err := spec.Normalize(spec.New(spec.Interval).WithCoordinate(spec.Coordinate{Type: ty}), nil)
		require.NoError(t, err)
		p, err := Compile(m.Coordinate, area)
		require.NoError(t, err, "%s", ty)
		for _, pt := range samples {
			got := p.Apply(pt)
			assert.False(t, math.IsNaN(got.X) || math.IsNaN(got.Y), "%s mapped %v to %v", ty, pt, got)
			assert.True(t, got.X >= area.X-1e-9 && got.X <= area.X+area.Width+1e-9, "%s mapped %v to %v", ty, pt, got)
			assert.True(t, got.Y >= area.Y-1e-9 && got.Y <= area.Y+area.Height+1e-9, "%s mapped %v to %v", ty, pt, got)
		}
	}

	_, err := Compile(spec.Coordinate{Type: "parallel"}, area)
	assert.Equal(t, diag.CodeInvalidOption, diag.CodeOf(err))
	_, err = Compile(spec.Coordinate{Transforms: []spec.CoordTransform{{Type: "shear"}}}, area)
	assert.Equal(t, diag.CodeInvalidOption, diag.CodeOf(err))
}

func TestValidate(t *testing.T) {
	reg := spec.DefaultRegistry()
	info := func(k spec.Kind) *spec.KindInfo {
		ki, err := reg.Lookup(k)
		require.NoError(t, err)
		return ki
	}
	polar := spec.Coordinate{Type: spec.Polar}

	err := Validate(info(spec.Treemap), polar)
	require.Error(t, err)
	assert.True(t, errors.Is(err, diag.UnsupportedTransformForMark))
	var de *diag.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "treemap", de.Mark)

	for _, k := range []spec.Kind{spec.Sankey, spec.Pack, spec.ForceGraph, spec.WordCloud} {
		assert.True(t, errors.Is(Validate(info(k), polar), diag.UnsupportedTransformForMark), "%s", k)
		assert.True(t, errors.Is(Validate(info(k), spec.Coordinate{Transforms: []spec.CoordTransform{{Type: spec.TransformHelix}}}), diag.UnsupportedTransformForMark), "%s", k)
		assert.NoError(t, Validate(info(k), spec.Coordinate{Type: spec.Transpose}), "%s", k)
	}
	for _, k := range []spec.Kind{spec.Interval, spec.Point, spec.Line, spec.Tree} {
		assert.NoError(t, Validate(info(k), polar), "%s", k)
		assert.NoError(t, Validate(info(k), spec.Coordinate{Type: spec.Theta}), "%s", k)
	}
}
