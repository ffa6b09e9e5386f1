// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package encode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aclements/go-markres/data"
	"github.com/aclements/go-markres/diag"
	"github.com/aclements/go-markres/scale"
	"github.com/aclements/go-markres/spec"
)

var rows = data.New([]data.Row{
	{"a": 1.0, "b": 2.0, "c": "x"},
	{"a": 3.0, "b": 4.0},
	{"a": 5.0, "b": 6.0, "c": "y"},
})

func TestLiteralBroadcast(t *testing.T) {
	for _, n := range []int{0, 1, 7} {
		rs := make([]data.Row, n)
		for i := range rs {
			rs[i] = data.Row{"v": i}
		}
		m := spec.New(spec.Point).WithEncode(spec.Color, spec.Const("red")).WithEncode(spec.Size, spec.Const(4))
		c, err := Resolve(data.New(rs), m, nil)
		require.NoError(t, err)
		assert.Equal(t, n, c.N)
		for _, ch := range []spec.Channel{spec.Color, spec.Size} {
			vs := c.Get(ch)
			require.Len(t, vs, n)
			for _, v := range vs {
				assert.Equal(t, vs[0], v)
			}
			assert.True(t, c.Constant[ch])
		}
	}
}

func TestFieldAndMissing(t *testing.T) {
	var d diag.Diagnostics
	m := spec.New(spec.Point).WithEncode(spec.X, spec.Field("a")).WithEncode(spec.Color, spec.Field("c"))
	c, err := Resolve(rows, m, &d)
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 3.0, 5.0}, c.Get(spec.X))
	assert.Equal(t, []any{"x", nil, "y"}, c.Get(spec.Color))
	assert.Equal(t, "c", c.Fields[spec.Color])
	assert.Equal(t, 1, d.Missing("color"))
	assert.Equal(t, 0, d.Missing("x"))
}

func TestFieldNotFound(t *testing.T) {
	m := spec.New(spec.Point).WithEncode(spec.Color, spec.Field("missing"))
	_, err := Resolve(rows, m, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, diag.FieldNotFound))
	var de *diag.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "point", de.Mark)
	assert.Equal(t, "color", de.Channel)
	assert.Equal(t, "missing", de.Field)

	// An empty dataset has nothing to check against.
	_, err = Resolve(data.New(nil), m, nil)
	assert.NoError(t, err)
	_, err = Resolve(nil, m, nil)
	assert.NoError(t, err)
}

func TestCompute(t *testing.T) {
	var calls []int
	m := spec.New(spec.Point).WithEncode(spec.Y, spec.Compute(func(d data.Row, i int, ds *data.Dataset, col data.Column) any {
		calls = append(calls, i)
		assert.Same(t, rows, ds)
		assert.Equal(t, "y", col.Name)
		a, _ := data.Float(d["a"])
		return a * 10
	}))
	c, err := Resolve(rows, m, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{10.0, 30.0, 50.0}, c.Get(spec.Y))
	assert.Equal(t, []int{0, 1, 2}, calls)
	assert.False(t, c.Constant[spec.Y])
}

func TestStacking(t *testing.T) {
	m := spec.New(spec.Interval).
		WithEncode(spec.Y, spec.Field("a"), spec.Field("b")).
		WithEncode(spec.Position, spec.Field("a"), spec.Field("b"), spec.Const(0)).
		WithEncode(spec.Color, spec.Const("red"), spec.Field("c"))
	c, err := Resolve(rows, m, nil)
	require.NoError(t, err)

	assert.Equal(t, []any{1.0, 3.0, 5.0}, c.Get(spec.Y))
	assert.Equal(t, []any{2.0, 4.0, 6.0}, c.Get(spec.Y1))
	assert.Equal(t, []any{1.0, 3.0, 5.0}, c.Get("position0"))
	assert.Equal(t, []any{2.0, 4.0, 6.0}, c.Get("position1"))
	assert.Equal(t, []any{0, 0, 0}, c.Get("position2"))
	assert.False(t, c.Has(spec.Position))

	// Later color encodings override where they are defined.
	assert.Equal(t, []any{"x", "red", "y"}, c.Get(spec.Color))
	assert.False(t, c.Constant[spec.Color])

	// An explicit y1 wins over the expanded one.
	m = m.WithEncode(spec.Y1, spec.Const(9))
	c, err = Resolve(rows, m, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{9, 9, 9}, c.Get(spec.Y1))
}

func TestEnterFirst(t *testing.T) {
	m := spec.New(spec.Point).
		WithEncode(spec.X, spec.Field("a")).
		WithEncode(spec.EnterDuration, spec.Const(100)).
		WithEncode(spec.Color, spec.Field("c")).
		WithEncode(spec.EnterType, spec.Const("fadeIn"))
	c, err := Resolve(rows, m, nil)
	require.NoError(t, err)
	assert.Equal(t, []spec.Channel{spec.EnterDuration, spec.EnterType, spec.Color, spec.X}, c.Order)
}

func TestResolveOnly(t *testing.T) {
	m := spec.New(spec.Sankey).
		WithEncode(spec.Source, spec.Field("a")).
		WithEncode("nodeColor", spec.Field("name"))
	c, err := ResolveOnly(rows, m, func(ch spec.Channel) bool {
		_, node := ch.Unprefixed("node")
		return !node
	}, nil)
	require.NoError(t, err)
	assert.True(t, c.Has(spec.Source))
	assert.False(t, c.Has("nodeColor"))
}

func TestBind(t *testing.T) {
	m1 := spec.New(spec.Point).
		WithEncode(spec.X, spec.Field("a")).
		WithEncode(spec.Y, spec.Field("b")).
		WithEncode(spec.Size, spec.Const(3)).
		WithEncode(spec.TextCh, spec.Field("c"))
	m2 := spec.New(spec.Line).
		WithEncode(spec.X, spec.Const(9)).
		WithScale(spec.X, spec.ScaleSpec{Type: spec.ScaleLinear})
	m3 := spec.New(spec.Point).
		WithEncode(spec.Color, spec.Field("c")).
		WithScale(spec.Color, spec.ScaleSpec{Type: spec.ScaleIdentity})

	sess := scale.NewSession(scale.Options{})
	marks := []spec.Mark{m1, m2, m3}
	var chans []*Channels
	for i, m := range marks {
		c, err := Resolve(rows, m, nil)
		require.NoError(t, err)
		require.NoError(t, Observe(sess, c, m, i, ""))
		chans = append(chans, c)
	}
	require.NoError(t, sess.Freeze())

	b, err := Bind(chans[0], sess, m1, "", nil)
	require.NoError(t, err)
	// The x domain is [1, 9] because of the second mark's literal.
	x := b.Get(spec.X)
	assert.InDelta(t, 0.0, x[0], 1e-12)
	assert.InDelta(t, 0.25, x[1], 1e-12)
	assert.InDelta(t, 0.5, x[2], 1e-12)
	y, ok := b.Float(spec.Y, 2)
	require.True(t, ok)
	assert.InDelta(t, 0.0, y, 1e-12)
	assert.Equal(t, []any{3, 3, 3}, b.Get(spec.Size))
	assert.Equal(t, []any{"x", nil, "y"}, b.Get(spec.TextCh))
	assert.Contains(t, b.Scales, spec.X)
	assert.NotContains(t, b.Scales, spec.Size)

	b, err = Bind(chans[2], sess, m3, "", nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"x", nil, "y"}, b.Get(spec.Color))
}

func TestBindUnmapped(t *testing.T) {
	m := spec.New(spec.Point).
		WithEncode(spec.X, spec.Field("c")).
		WithScale(spec.X, spec.ScaleSpec{Type: spec.ScalePoint, Domain: []any{"x"}})
	c, err := Resolve(rows, m, nil)
	require.NoError(t, err)
	sess := scale.NewSession(scale.Options{})
	require.NoError(t, Observe(sess, c, m, 0, ""))
	require.NoError(t, sess.Freeze())

	var d diag.Diagnostics
	b, err := Bind(c, sess, m, "", &d)
	require.NoError(t, err)
	assert.Equal(t, []any{0.5, nil, nil}, b.Get(spec.X))
	assert.Equal(t, 1, d.Missing("x"))
}

func TestHint(t *testing.T) {
	assert.Equal(t, spec.ScaleBand, Hint(spec.Interval))
	assert.Equal(t, spec.ScalePoint, Hint(spec.Line))
}
