// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spec

import (
	"sort"

	"github.com/aclements/go-markres/diag"
)

// Kind is the closed set of mark kinds.
type Kind int

const (
	Interval Kind = iota + 1
	Rect
	Line
	Point
	Text
	Cell
	Area
	Node
	Edge
	Link
	Image
	Polygon
	Box
	Vector
	LineX
	LineY
	Connector
	Range
	RangeX
	RangeY
	Sankey
	Path
	Treemap
	Pack
	BoxPlot
	Shape
	ForceGraph
	Tree
	WordCloud

	numKinds = iota
)

var kindNames = [...]string{
	Interval:   "interval",
	Rect:       "rect",
	Line:       "line",
	Point:      "point",
	Text:       "text",
	Cell:       "cell",
	Area:       "area",
	Node:       "node",
	Edge:       "edge",
	Link:       "link",
	Image:      "image",
	Polygon:    "polygon",
	Box:        "box",
	Vector:     "vector",
	LineX:      "lineX",
	LineY:      "lineY",
	Connector:  "connector",
	Range:      "range",
	RangeX:     "rangeX",
	RangeY:     "rangeY",
	Sankey:     "sankey",
	Path:       "path",
	Treemap:    "treemap",
	Pack:       "pack",
	BoxPlot:    "boxplot",
	Shape:      "shape",
	ForceGraph: "forceGraph",
	Tree:       "tree",
	WordCloud:  "wordCloud",
}

func (k Kind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool { return k > 0 && int(k) <= numKinds }

// Structured reports whether k owns a dedicated layout algorithm.
func (k Kind) Structured() bool {
	switch k {
	case Sankey, Treemap, Pack, ForceGraph, Tree, WordCloud:
		return true
	}
	return false
}

// Kinds returns every defined kind in declaration order.
func Kinds() []Kind {
	ks := make([]Kind, 0, numKinds)
	for k := Kind(1); int(k) <= numKinds; k++ {
		ks = append(ks, k)
	}
	return ks
}

// ParseKind returns the kind named s.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s && k != 0 {
			return Kind(k), nil
		}
	}
	return 0, &diag.Error{Code: diag.CodeUnknownMarkKind, Mark: s, Detail: "not a registered mark kind"}
}

// KindInfo describes what a registered mark kind accepts.
type KindInfo struct {
	Kind Kind

	// Channels is the set of channel names the kind exposes.
	Channels map[Channel]bool

	// Defaults are encodings applied by Normalize when the channel
	// is not encoded.
	Defaults map[Channel]Encodable

	// OwnLayout is set for kinds whose internal layout cannot be
	// remapped by non-Cartesian coordinate transforms.
	OwnLayout bool
}

// Accepts reports whether the kind exposes channel ch.
func (ki *KindInfo) Accepts(ch Channel) bool {
	if ki.Channels[ch] {
		return true
	}
	if base, _ := ch.Split(); base != ch && ki.Channels[base] {
		// Stacked positional sub-channels: position2, x1, ...
		return base.Positional()
	}
	return false
}

// ChannelList returns the kind's channels in sorted order.
func (ki *KindInfo) ChannelList() []Channel {
	chs := make([]Channel, 0, len(ki.Channels))
	for ch := range ki.Channels {
		chs = append(chs, ch)
	}
	sort.Slice(chs, func(i, j int) bool { return chs[i] < chs[j] })
	return chs
}

// A Registry is the set of mark kinds a normalizer accepts.
type Registry struct {
	kinds map[Kind]*KindInfo
}

// NewRegistry returns a registry holding the built-in definitions of
// the given kinds.
func NewRegistry(kinds ...Kind) *Registry {
	r := &Registry{kinds: make(map[Kind]*KindInfo)}
	for _, k := range kinds {
		r.kinds[k] = builtinInfo(k)
	}
	return r
}

var defaultRegistry = NewRegistry(Kinds()...)

// DefaultRegistry returns the registry of all built-in kinds.
func DefaultRegistry() *Registry { return defaultRegistry }

// Lookup returns the info for kind k.
func (r *Registry) Lookup(k Kind) (*KindInfo, error) {
	if ki, ok := r.kinds[k]; ok {
		return ki, nil
	}
	return nil, &diag.Error{Code: diag.CodeUnknownMarkKind, Mark: k.String(), Detail: "not a registered mark kind"}
}

// Kinds returns the registered kinds in declaration order.
func (r *Registry) Kinds() []Kind {
	var ks []Kind
	for _, k := range Kinds() {
		if _, ok := r.kinds[k]; ok {
			ks = append(ks, k)
		}
	}
	return ks
}

func builtinInfo(k Kind) *KindInfo {
	ki := &KindInfo{
		Kind:     k,
		Channels: make(map[Channel]bool),
		Defaults: make(map[Channel]Encodable),
	}
	add := func(chs ...Channel) {
		for _, ch := range chs {
			ki.Channels[ch] = true
		}
	}
	graph := func() {
		for _, ch := range baseChannels {
			add(ch.Prefixed("node"), ch.Prefixed("link"))
		}
	}

	switch k {
	case ForceGraph:
		add(Source, Target, Color, Value)
		graph()
	default:
		add(baseChannels...)
	}

	switch k {
	case Interval:
		ki.Defaults[ShapeCh] = Const("rect")
	case Rect, Cell, Range, RangeX, RangeY:
		ki.Defaults[ShapeCh] = Const("rect")
	case Line:
		ki.Defaults[Size] = Const(1.0)
		ki.Defaults[ShapeCh] = Const("line")
	case Area:
		ki.Defaults[ShapeCh] = Const("area")
	case Point:
		ki.Defaults[Size] = Const(3.0)
		ki.Defaults[ShapeCh] = Const("point")
	case Node:
		ki.Defaults[Size] = Const(8.0)
		ki.Defaults[ShapeCh] = Const("point")
	case Edge, Link, LineX, LineY, Connector:
		ki.Defaults[ShapeCh] = Const("line")
	case Text:
		add(TextCh, FontSize, FontWeight, FontStyle, Rotate, TextAlign, TextBaseline)
		ki.Defaults[FontSize] = Const(12.0)
		ki.Defaults[TextAlign] = Const("center")
		ki.Defaults[TextBaseline] = Const("middle")
	case Image:
		add(Src)
		ki.Defaults[Size] = Const(32.0)
	case Vector:
		add(Rotate, Size)
		ki.Defaults[ShapeCh] = Const("vector")
	case Path, Polygon, Shape:
		ki.Defaults[ShapeCh] = Const(k.String())
	case Box, BoxPlot:
		ki.Defaults[ShapeCh] = Const("box")
	case Sankey:
		add(Source, Target, Value)
		graph()
		ki.OwnLayout = true
	case ForceGraph:
		ki.Defaults[Channel("nodeSize")] = Const(6.0)
		ki.OwnLayout = true
	case Treemap, Pack:
		add(Value)
		ki.OwnLayout = true
	case Tree:
		add(Value)
		ki.Defaults[Size] = Const(4.0)
	case WordCloud:
		add(Value, TextCh)
		ki.OwnLayout = true
	}
	return ki
}
