// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package spec defines mark specifications: the declarative
// description of one visual layer of a chart, and the normalizer that
// fills in kind-specific defaults.
//
// A Mark is built once per declarative render, normalized, and then
// treated as immutable. Builder methods such as WithEncode return
// modified copies and leave the receiver untouched.
package spec

import (
	"github.com/aclements/go-markres/data"
)

// Mark is a mark specification.
type Mark struct {
	kind Kind

	Key   string
	Class string

	// Data is the resolved dataset bound to this mark.
	Data *data.Dataset

	// Encode maps channels to one or more stacked encodings.
	Encode map[Channel][]Encodable

	// Scale holds per-channel scale declarations.
	Scale map[Channel]ScaleSpec

	Coordinate Coordinate
	Style      Style
	State      State

	// Layout holds options for structured kinds. Its concrete type
	// must match the mark kind.
	Layout LayoutOptions

	Labels     []LabelSpec
	NodeLabels []LabelSpec
	LinkLabels []LabelSpec

	// Tooltip is nil when the tooltip has not been declared. A
	// declared null tooltip is a Tooltip with Disabled set.
	Tooltip *Tooltip

	Axis    Guides
	Legend  Guides
	Animate *Animate

	Padding Sides
	Margin  Sides
	Inset   Sides

	ZIndex    int
	Frame     bool
	Facet     bool
	Stack     bool
	Cartesian bool
}

// New returns an empty mark of kind k.
func New(k Kind) Mark { return Mark{kind: k} }

// Kind returns the mark's kind. The kind cannot change once a Mark is
// constructed.
func (m Mark) Kind() Kind { return m.kind }

// Encoding returns the encodings declared for ch.
func (m Mark) Encoding(ch Channel) []Encodable { return m.Encode[ch] }

// WithEncode returns a copy of m with ch encoded by es.
func (m Mark) WithEncode(ch Channel, es ...Encodable) Mark {
	m = m.Clone()
	if m.Encode == nil {
		m.Encode = make(map[Channel][]Encodable)
	}
	m.Encode[ch] = append([]Encodable(nil), es...)
	return m
}

// WithScale returns a copy of m with a scale declaration for ch.
func (m Mark) WithScale(ch Channel, s ScaleSpec) Mark {
	m = m.Clone()
	if m.Scale == nil {
		m.Scale = make(map[Channel]ScaleSpec)
	}
	m.Scale[ch] = s
	return m
}

// WithData returns a copy of m bound to ds.
func (m Mark) WithData(ds *data.Dataset) Mark {
	m = m.Clone()
	m.Data = ds
	return m
}

// WithLayout returns a copy of m with layout options l.
func (m Mark) WithLayout(l LayoutOptions) Mark {
	m = m.Clone()
	m.Layout = l
	return m
}

// WithCoordinate returns a copy of m with coordinate c.
func (m Mark) WithCoordinate(c Coordinate) Mark {
	m = m.Clone()
	m.Coordinate = c
	return m
}

// Clone returns a copy of m that shares no mutable maps or slices
// with m. The dataset is shared since it is read-only.
func (m Mark) Clone() Mark {
	if m.Encode != nil {
		enc := make(map[Channel][]Encodable, len(m.Encode))
		for ch, es := range m.Encode {
			enc[ch] = append([]Encodable(nil), es...)
		}
		m.Encode = enc
	}
	if m.Scale != nil {
		sc := make(map[Channel]ScaleSpec, len(m.Scale))
		for ch, s := range m.Scale {
			s.Domain = append([]any(nil), s.Domain...)
			s.Range = append([]any(nil), s.Range...)
			sc[ch] = s
		}
		m.Scale = sc
	}
	m.Coordinate.Transforms = append([]CoordTransform(nil), m.Coordinate.Transforms...)
	m.Style = m.Style.clone()
	m.State = State{
		Active:     m.State.Active.clone(),
		Selected:   m.State.Selected.clone(),
		Inactive:   m.State.Inactive.clone(),
		Unselected: m.State.Unselected.clone(),
	}
	m.Labels = cloneLabels(m.Labels)
	m.NodeLabels = cloneLabels(m.NodeLabels)
	m.LinkLabels = cloneLabels(m.LinkLabels)
	if m.Tooltip != nil {
		t := *m.Tooltip
		t.Items = append([]TooltipItem(nil), t.Items...)
		if t.Title != nil {
			title := *t.Title
			t.Title = &title
		}
		m.Tooltip = &t
	}
	m.Axis = m.Axis.clone()
	m.Legend = m.Legend.clone()
	if m.Animate != nil {
		a := *m.Animate
		m.Animate = &a
	}
	return m
}

func cloneLabels(ls []LabelSpec) []LabelSpec {
	if ls == nil {
		return nil
	}
	out := make([]LabelSpec, len(ls))
	for i, l := range ls {
		l.Style = l.Style.clone()
		out[i] = l
	}
	return out
}

// ScaleType names a scale implementation.
type ScaleType string

const (
	ScaleAuto       ScaleType = ""
	ScaleLinear     ScaleType = "linear"
	ScaleSqrt       ScaleType = "sqrt"
	ScalePow        ScaleType = "pow"
	ScaleLog        ScaleType = "log"
	ScaleBand       ScaleType = "band"
	ScalePoint      ScaleType = "point"
	ScaleOrdinal    ScaleType = "ordinal"
	ScaleSequential ScaleType = "sequential"
	ScaleIdentity   ScaleType = "identity"
)

// ScaleSpec declares how a channel is scaled. The zero value asks
// for an inferred scale.
type ScaleSpec struct {
	Type ScaleType

	// Domain and Range override the inferred domain and default
	// range when non-empty.
	Domain []any
	Range  []any

	// Independent isolates this mark's scale from other marks that
	// encode the same channel.
	Independent bool

	Nice  bool
	Zero  bool
	Clamp bool

	// Exponent is the exponent of a pow scale.
	Exponent float64

	// Base is the base of a log scale.
	Base float64

	// Padding is the band or point padding, in [0,1).
	Padding float64

	// Palette names a color palette for color ranges.
	Palette string
}

// CoordinateType names a coordinate system.
type CoordinateType string

const (
	Cartesian CoordinateType = "cartesian"
	Polar     CoordinateType = "polar"
	Theta     CoordinateType = "theta"
	Radial    CoordinateType = "radial"
	Helix     CoordinateType = "helix"
	Transpose CoordinateType = "transpose"
)

// Coordinate declares the coordinate system of a mark.
type Coordinate struct {
	Type CoordinateType

	// Transforms are applied in order before the coordinate type's
	// own transforms.
	Transforms []CoordTransform

	// Polar-family options. Angles are in radians; radii are
	// fractions of the available radius.
	StartAngle  float64
	EndAngle    float64
	InnerRadius float64
	OuterRadius float64
}

// TransformType names a coordinate transform.
type TransformType string

const (
	TransformTranspose TransformType = "transpose"
	TransformPolar     TransformType = "polar"
	TransformReflect   TransformType = "reflect"
	TransformReflectX  TransformType = "reflectX"
	TransformReflectY  TransformType = "reflectY"
	TransformFisheye   TransformType = "fisheye"
	TransformHelix     TransformType = "helix"
)

// CoordTransform is one step of a coordinate transform list.
type CoordTransform struct {
	Type TransformType

	// Fisheye options.
	FocusX, FocusY           float64
	DistortionX, DistortionY float64

	// Polar and helix options, as in Coordinate.
	StartAngle, EndAngle     float64
	InnerRadius, OuterRadius float64
}

// Style holds style attributes passed through to the renderer.
type Style map[string]any

func (s Style) clone() Style {
	if s == nil {
		return nil
	}
	out := make(Style, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Float returns the numeric style attribute k.
func (s Style) Float(k string) (float64, bool) {
	v, ok := s[k]
	if !ok {
		return 0, false
	}
	return data.Float(v)
}

// Text returns the string style attribute k.
func (s Style) Text(k string) (string, bool) {
	v, ok := s[k].(string)
	return v, ok
}

// State holds interaction-state style variants.
type State struct {
	Active     Style
	Selected   Style
	Inactive   Style
	Unselected Style
}

// LabelSpec declares a data label.
type LabelSpec struct {
	Text     Encodable
	Position string
	Dx, Dy   float64
	Style    Style
}

// Tooltip declares the tooltip of a mark.
type Tooltip struct {
	Disabled bool
	Title    *TooltipTitle
	Items    []TooltipItem
}

// TooltipTitle selects the tooltip title from a field, a channel, or
// an encodable value.
type TooltipTitle struct {
	Field   string
	Channel Channel
	Value   Encodable
}

// TooltipItem is one tooltip row. Exactly one of Field, Channel, or
// Value is normally set; Name and Color override the displayed name
// and marker color.
type TooltipItem struct {
	Name    string
	Color   string
	Channel Channel
	Field   string
	Value   Encodable
}

// TooltipValue may be returned by a computed tooltip item to set the
// name and color along with the value.
type TooltipValue struct {
	Name  string
	Color string
	Value any
}

// Guide configures one axis or legend.
type Guide struct {
	Hidden    bool
	Title     string
	TickCount int
	Position  string
	State     *State
}

// Guides holds the axes or legends of a mark. After normalization
// either Hidden is set and ByChannel is nil (the fully absent form)
// or every guided channel has a non-nil Guide.
type Guides struct {
	Hidden    bool
	ByChannel map[Channel]*Guide
}

func (g Guides) clone() Guides {
	if g.ByChannel == nil {
		return g
	}
	m := make(map[Channel]*Guide, len(g.ByChannel))
	for ch, gd := range g.ByChannel {
		if gd != nil {
			c := *gd
			gd = &c
		}
		m[ch] = gd
	}
	g.ByChannel = m
	return g
}

// Animation configures one animation phase.
type Animation struct {
	Type     string
	Duration float64
	Delay    float64
	Easing   string
	Fill     string
}

// Animate configures enter, update, and exit animations. Disabled is
// the normalized form of "animate: false".
type Animate struct {
	Disabled bool
	Enter    *Animation
	Update   *Animation
	Exit     *Animation
}

// Sides holds per-side box model values. All is a shorthand applied
// to unset sides by Normalize. After normalization every side is
// non-nil.
type Sides struct {
	All                      *float64
	Top, Right, Bottom, Left *float64
}

// Values returns the four sides, treating unset sides as 0.
func (s Sides) Values() (top, right, bottom, left float64) {
	get := func(p *float64) float64 {
		if p == nil {
			return 0
		}
		return *p
	}
	return get(s.Top), get(s.Right), get(s.Bottom), get(s.Left)
}

// Float returns a pointer to v, for populating Sides.
func Float(v float64) *float64 { return &v }
