// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chart resolves mark specifications into positioned, styled
// geometry.
//
// Build resolves all the marks of one chart against a shared scale
// session. It runs in two phases. First every mark is normalized, its
// channels are resolved against its data (running the layout of
// structured kinds, whose nodes and links are then encoded like data
// rows), and the raw values are observed by the session. Marks are
// processed concurrently in this phase; observation is commutative,
// so the order does not matter. Once every mark has been observed,
// the session freezes its scales and each mark is bound to them,
// dispatched on its kind to produce geometry in the unit square, and
// mapped through its coordinate pipeline into the plot area.
package chart

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aclements/go-markres/coord"
	"github.com/aclements/go-markres/data"
	"github.com/aclements/go-markres/diag"
	"github.com/aclements/go-markres/encode"
	"github.com/aclements/go-markres/layout"
	"github.com/aclements/go-markres/scale"
	"github.com/aclements/go-markres/spec"
	"github.com/aclements/go-markres/tooltip"
)

// Area is the plot area, in pixels.
type Area = coord.Area

// Options configures a chart build.
type Options struct {
	Area  Area
	Theme Theme

	// Registry is the set of mark kinds marks may use. If nil,
	// every built-in kind is allowed.
	Registry *spec.Registry

	// Concurrency bounds the number of marks resolved at once.
	// Zero means GOMAXPROCS.
	Concurrency int

	// Layouts holds default layout options for structured kinds,
	// used by marks that do not declare their own.
	Layouts map[spec.Kind]spec.LayoutOptions
}

// Chart is a resolved chart.
type Chart struct {
	// Session identifies the scale session the chart was built
	// with.
	Session string

	Marks []*Mark

	// Scales holds every scale the marks were bound to.
	Scales map[scale.Key]scale.Scale
}

// Primitives returns the primitives of every mark, in mark order.
func (c *Chart) Primitives() []Primitive {
	var out []Primitive
	for _, m := range c.Marks {
		out = append(out, m.Primitives...)
	}
	return out
}

// Mark is one resolved mark.
type Mark struct {
	// Key identifies the mark within the chart. It is the declared
	// key, or "mark" followed by the mark's index.
	Key  string
	Kind spec.Kind

	// Spec is the normalized mark.
	Spec spec.Mark

	// Data is the mark's input dataset. Nodes and Links are the
	// rows derived from the layout of a structured kind: the
	// input datum of each node or link with its layout attributes
	// (id, name, depth, height, value, ...) filled in where the
	// datum does not have them.
	Data         *data.Dataset
	Nodes, Links *data.Dataset

	// Layout is the result of a structured kind's layout.
	Layout *layout.Result

	Primitives []Primitive

	Diagnostics *diag.Diagnostics
}

// Tooltip returns a projector for the tooltips of the rows primitives
// refer to: node rows for structured kinds and input rows otherwise.
func (m *Mark) Tooltip() *tooltip.Projector {
	ds := m.Data
	if m.Nodes != nil {
		ds = m.Nodes
	}
	return tooltip.New(m.Spec, ds)
}

// markState carries one mark through the build.
type markState struct {
	order int
	ki    *spec.KindInfo
	res   *Mark

	// main holds the channels of the rows primitives are drawn
	// from: input rows for simple kinds, node rows for structured
	// kinds. links holds the link channels of graph kinds.
	main, links *encode.Channels
}

func (st *markState) spec() spec.Mark { return st.res.Spec }

// Build resolves marks into a chart.
func Build(ctx context.Context, marks []spec.Mark, opts Options) (*Chart, error) {
	if opts.Area.Width <= 0 || opts.Area.Height <= 0 {
		return nil, fmt.Errorf("plot area %gx%g is empty", opts.Area.Width, opts.Area.Height)
	}
	opts.Theme = opts.Theme.withDefaults()
	if err := opts.Theme.Validate(); err != nil {
		return nil, err
	}
	n := opts.Concurrency
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}

	sess := scale.NewSession(scale.Options{
		Width:       opts.Area.Width,
		Height:      opts.Area.Height,
		Categorical: opts.Theme.Categorical,
		Sequential:  opts.Theme.Sequential,
		Shapes:      scale.DefaultShapes,
	})
	defer sess.Close()
	lg := log().With(zap.Stringer("session", sess.ID()))
	start := time.Now()

	states := make([]*markState, len(marks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n)
	for i, m := range marks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			st, err := prepare(i, m, opts)
			if err != nil {
				return err
			}
			if err := st.observe(sess); err != nil {
				return err
			}
			states[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := sess.Freeze(); err != nil {
		return nil, err
	}
	lg.Debug("scales frozen", zap.Int("marks", len(marks)), zap.Int("scales", len(sess.Keys())), zap.Duration("elapsed", time.Since(start)))

	c := &Chart{Session: sess.ID().String(), Scales: make(map[scale.Key]scale.Scale)}
	for _, st := range states {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := st.emit(sess, opts); err != nil {
			return nil, err
		}
		st.report(lg)
		c.Marks = append(c.Marks, st.res)
	}
	for _, k := range sess.Keys() {
		sc, err := sess.Scale(k)
		if err != nil {
			return nil, err
		}
		c.Scales[k] = sc
		lg.Debug("scale", zap.Stringer("key", k), zap.String("type", string(sc.Type())), zap.Any("domain", sc.Domain()))
	}
	lg.Debug("chart built", zap.Int("primitives", len(c.Primitives())), zap.Duration("elapsed", time.Since(start)))
	return c, nil
}

// Resolve builds a chart of the single mark m.
func Resolve(ctx context.Context, m spec.Mark, opts Options) (*Mark, error) {
	c, err := Build(ctx, []spec.Mark{m}, opts)
	if err != nil {
		return nil, err
	}
	return c.Marks[0], nil
}

// prepare normalizes the i'th mark, validates its coordinate system,
// runs its layout if it has one, and resolves its channels.
func prepare(i int, m spec.Mark, opts Options) (*markState, error) {
	if m.Layout == nil {
		if l, ok := opts.Layouts[m.Kind()]; ok && l != nil {
			m = m.WithLayout(l)
		}
	}
	nm, err := spec.Normalize(m, opts.Registry)
	if err != nil {
		return nil, err
	}
	reg := opts.Registry
	if reg == nil {
		reg = spec.DefaultRegistry()
	}
	ki, err := reg.Lookup(nm.Kind())
	if err != nil {
		return nil, err
	}
	if err := coord.Validate(ki, nm.Coordinate); err != nil {
		return nil, err
	}
	key := nm.Key
	if key == "" {
		key = fmt.Sprintf("mark%d", i)
	}
	ds := nm.Data
	if ds == nil {
		ds = data.New(nil)
	}
	st := &markState{
		order: i,
		ki:    ki,
		res: &Mark{
			Key:         key,
			Kind:        nm.Kind(),
			Spec:        nm,
			Data:        ds,
			Diagnostics: new(diag.Diagnostics),
		},
	}
	if nm.Kind().Structured() {
		err = st.layout(opts)
	} else {
		st.main, err = encode.Resolve(ds, nm, st.res.Diagnostics)
	}
	if err != nil {
		return nil, diag.AnnotateMark(err, nm.Kind().String())
	}
	return st, nil
}

func (st *markState) observe(sess *scale.Session) error {
	for _, c := range []*encode.Channels{st.main, st.links} {
		if c == nil {
			continue
		}
		if err := encode.Observe(sess, c, st.spec(), st.order, st.res.Key); err != nil {
			return err
		}
	}
	return nil
}

// emit binds st's channels and produces its primitives.
func (st *markState) emit(sess *scale.Session, opts Options) error {
	m := st.spec()
	pl, err := coord.Compile(m.Coordinate, plotArea(opts.Area, m))
	if err != nil {
		return diag.AnnotateMark(err, m.Kind().String())
	}
	e := &emitter{st: st, pl: pl, theme: opts.Theme, anchors: make(map[anchorKey]box)}
	if e.b, err = encode.Bind(st.main, sess, m, st.res.Key, st.res.Diagnostics); err != nil {
		return diag.AnnotateMark(err, m.Kind().String())
	}
	if st.links != nil {
		if e.lb, err = encode.Bind(st.links, sess, m, st.res.Key, st.res.Diagnostics); err != nil {
			return diag.AnnotateMark(err, m.Kind().String())
		}
	}
	if err := e.dispatch(); err != nil {
		return diag.AnnotateMark(err, m.Kind().String())
	}
	if err := e.labels(); err != nil {
		return diag.AnnotateMark(err, m.Kind().String())
	}
	for i := range e.out {
		e.out[i].Mark = st.res.Key
		e.out[i].Kind = m.Kind().String()
		e.out[i].ZIndex = m.ZIndex
	}
	st.res.Primitives = e.out
	return nil
}

// report logs the recovered anomalies of st.
func (st *markState) report(lg *zap.Logger) {
	d := st.res.Diagnostics
	if d.Empty() {
		return
	}
	fields := []zap.Field{zap.String("mark", st.res.Key), zap.Stringer("kind", st.res.Kind)}
	if n := d.Dropped(); n > 0 {
		lg.Warn("layout dropped items", append(fields, zap.Int("dropped", n))...)
	}
	if nc := d.NotConverged(); len(nc) > 0 {
		lg.Warn("layout did not converge", append(fields, zap.Strings("layouts", nc))...)
	}
	lg.Debug("diagnostics", append(fields, zap.Stringer("diagnostics", d))...)
}

// plotArea returns the part of area left to m's geometry once its
// margin, padding, and inset are taken off.
func plotArea(a Area, m spec.Mark) Area {
	for _, s := range []spec.Sides{m.Margin, m.Padding, m.Inset} {
		top, right, bottom, left := s.Values()
		a.X += left
		a.Y += top
		a.Width = max(0, a.Width-left-right)
		a.Height = max(0, a.Height-top-bottom)
	}
	return a
}
