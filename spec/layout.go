// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spec

import (
	"fmt"
	"math"
	"time"

	"github.com/aclements/go-markres/diag"
)

// LayoutOptions is the closed set of per-kind layout option structs:
// *TreemapLayout, *PackLayout, *SankeyLayout, *ForceLayout,
// *TreeLayout and *WordCloudLayout.
type LayoutOptions interface {
	// LayoutKind returns the mark kind the options belong to.
	LayoutKind() Kind

	// Validate reports out-of-range options with
	// diag.InvalidOption. It expects defaulted options.
	Validate() error

	withDefaults() LayoutOptions
}

func invalidLayout(k Kind, format string, args ...any) error {
	return &diag.Error{Code: diag.CodeInvalidOption, Mark: k.String(), Detail: fmt.Sprintf(format, args...)}
}

// nonNegative reports whether every v is a number >= 0. NaN fails.
func nonNegative(vs ...float64) bool {
	for _, v := range vs {
		if !(v >= 0) || math.IsInf(v, 1) {
			return false
		}
	}
	return true
}

// Hierarchy describes how a flat dataset encodes a tree. If ID is
// set, rows are linked by ID and ParentID fields. Otherwise, if Path
// is set, each row's Path field is a Delimiter-separated path whose
// missing ancestors are created implicitly. Otherwise rows may carry
// nested rows in the Children field.
type Hierarchy struct {
	ID        string `json:"id"`
	ParentID  string `json:"parentId"`
	Path      string `json:"path"`
	Delimiter string `json:"delimiter"`
	Children  string `json:"children"`

	// Name is the field that names a node. It defaults to "name".
	Name string `json:"name"`
}

func (h Hierarchy) withDefaults() Hierarchy {
	if h.ID != "" && h.ParentID == "" {
		h.ParentID = "parent"
	}
	if h.Delimiter == "" {
		h.Delimiter = "/"
	}
	if h.Children == "" {
		h.Children = "children"
	}
	if h.Name == "" {
		h.Name = "name"
	}
	return h
}

// Sibling sort orders for hierarchical layouts.
const (
	SortInput     = ""
	SortValueDesc = "-value"
	SortValueAsc  = "value"
	SortNameAsc   = "name"
)

// TreemapLayout configures the treemap layout.
type TreemapLayout struct {
	Hierarchy

	// Tile is one of "squarify", "binary", "slice", "dice",
	// "sliceDice".
	Tile string `json:"tile"`

	// Ratio is the target aspect ratio of squarified tiles.
	Ratio float64 `json:"ratio"`

	PaddingInner float64 `json:"paddingInner"`
	PaddingOuter float64 `json:"paddingOuter"`

	Sort string `json:"sort"`
}

func (*TreemapLayout) LayoutKind() Kind { return Treemap }

func (l *TreemapLayout) Validate() error {
	switch l.Tile {
	case "", "squarify", "binary", "slice", "dice", "sliceDice":
	default:
		return invalidLayout(Treemap, "unknown treemap tile %q", l.Tile)
	}
	if !nonNegative(l.Ratio) {
		return invalidLayout(Treemap, "ratio %g must not be negative", l.Ratio)
	}
	if !nonNegative(l.PaddingInner, l.PaddingOuter) {
		return invalidLayout(Treemap, "padding %g, %g must not be negative", l.PaddingInner, l.PaddingOuter)
	}
	return nil
}

func (l *TreemapLayout) withDefaults() LayoutOptions {
	c := *l
	c.Hierarchy = c.Hierarchy.withDefaults()
	if c.Tile == "" {
		c.Tile = "squarify"
	}
	if c.Ratio == 0 {
		c.Ratio = (1 + math.Sqrt(5)) / 2
	}
	return &c
}

// PackLayout configures the circle-packing layout.
type PackLayout struct {
	Hierarchy
	Padding float64 `json:"padding"`
	Sort    string  `json:"sort"`
}

func (*PackLayout) LayoutKind() Kind { return Pack }

func (l *PackLayout) Validate() error {
	if !nonNegative(l.Padding) {
		return invalidLayout(Pack, "padding %g must not be negative", l.Padding)
	}
	return nil
}

func (l *PackLayout) withDefaults() LayoutOptions {
	c := *l
	c.Hierarchy = c.Hierarchy.withDefaults()
	if c.Sort == "" {
		c.Sort = SortValueDesc
	}
	return &c
}

// SankeyLayout configures the sankey flow layout. Sizes are in
// abstract [0,1] units.
type SankeyLayout struct {
	NodeWidth   float64 `json:"nodeWidth"`
	NodePadding float64 `json:"nodePadding"`

	// NodeAlign is one of "justify", "left", "right", "center".
	NodeAlign string `json:"nodeAlign"`

	// Iterations is the number of relaxation passes.
	Iterations int `json:"iterations"`
}

func (*SankeyLayout) LayoutKind() Kind { return Sankey }

func (l *SankeyLayout) Validate() error {
	if !(l.NodeWidth > 0 && l.NodeWidth < 1) {
		return invalidLayout(Sankey, "nodeWidth %g outside (0, 1)", l.NodeWidth)
	}
	if !(l.NodePadding >= 0 && l.NodePadding < 1) {
		return invalidLayout(Sankey, "nodePadding %g outside [0, 1)", l.NodePadding)
	}
	if l.Iterations < 0 {
		return invalidLayout(Sankey, "negative iterations %d", l.Iterations)
	}
	switch l.NodeAlign {
	case "", "justify", "left", "right", "center":
	default:
		return invalidLayout(Sankey, "unknown node alignment %q", l.NodeAlign)
	}
	return nil
}

func (l *SankeyLayout) withDefaults() LayoutOptions {
	c := *l
	if c.NodeWidth == 0 {
		c.NodeWidth = 0.02
	}
	if c.NodePadding == 0 {
		c.NodePadding = 0.03
	}
	if c.NodeAlign == "" {
		c.NodeAlign = "justify"
	}
	if c.Iterations == 0 {
		c.Iterations = 6
	}
	return &c
}

// ForceLayout configures the force-directed simulation.
type ForceLayout struct {
	// Seed makes the initial jitter reproducible.
	Seed uint64 `json:"seed"`

	// Iterations caps the number of simulation ticks. The default
	// is the number of ticks alpha needs to cool to AlphaMin.
	Iterations int `json:"iterations"`

	// TimeBudget caps wall-clock time. Zero means no cap. In JSON
	// it is given in milliseconds as "timeBudget".
	TimeBudget time.Duration `json:"-"`

	// EnergyThreshold stops the simulation early once the mean
	// kinetic energy per node drops below it. Zero disables it.
	EnergyThreshold float64 `json:"energyThreshold"`

	LinkDistance   float64 `json:"linkDistance"`
	ChargeStrength float64 `json:"chargeStrength"`
	CenterStrength float64 `json:"centerStrength"`
	VelocityDecay  float64 `json:"velocityDecay"`
	AlphaMin       float64 `json:"alphaMin"`
	AlphaDecay     float64 `json:"alphaDecay"`
}

func (*ForceLayout) LayoutKind() Kind { return ForceGraph }

func (l *ForceLayout) Validate() error {
	switch {
	case l.Iterations < 0:
		return invalidLayout(ForceGraph, "negative iterations %d", l.Iterations)
	case l.TimeBudget < 0:
		return invalidLayout(ForceGraph, "negative time budget %v", l.TimeBudget)
	case !nonNegative(l.EnergyThreshold):
		return invalidLayout(ForceGraph, "energyThreshold %g must not be negative", l.EnergyThreshold)
	case !nonNegative(l.LinkDistance):
		return invalidLayout(ForceGraph, "linkDistance %g must not be negative", l.LinkDistance)
	case math.IsNaN(l.ChargeStrength) || math.IsInf(l.ChargeStrength, 0):
		return invalidLayout(ForceGraph, "chargeStrength %g is not finite", l.ChargeStrength)
	case !(l.CenterStrength >= 0 && l.CenterStrength <= 1):
		return invalidLayout(ForceGraph, "centerStrength %g outside [0, 1]", l.CenterStrength)
	case !(l.VelocityDecay >= 0 && l.VelocityDecay <= 1):
		return invalidLayout(ForceGraph, "velocityDecay %g outside [0, 1]", l.VelocityDecay)
	case !(l.AlphaMin > 0 && l.AlphaMin <= 1):
		return invalidLayout(ForceGraph, "alphaMin %g outside (0, 1]", l.AlphaMin)
	case !(l.AlphaDecay > 0 && l.AlphaDecay < 1):
		return invalidLayout(ForceGraph, "alphaDecay %g outside (0, 1)", l.AlphaDecay)
	}
	return nil
}

func (l *ForceLayout) withDefaults() LayoutOptions {
	c := *l
	if c.LinkDistance == 0 {
		c.LinkDistance = 30
	}
	if c.ChargeStrength == 0 {
		c.ChargeStrength = -30
	}
	if c.CenterStrength == 0 {
		c.CenterStrength = 1
	}
	if c.VelocityDecay == 0 {
		c.VelocityDecay = 0.4
	}
	if c.AlphaMin == 0 {
		c.AlphaMin = 0.001
	}
	if c.AlphaDecay == 0 {
		// Cool from 1 to AlphaMin in 300 ticks.
		target := c.AlphaMin
		if !(target > 0 && target < 1) {
			target = 0.001
		}
		c.AlphaDecay = 1 - math.Pow(target, 1.0/300)
	}
	return &c
}

// TreeLayout configures the tree and cluster layouts.
type TreeLayout struct {
	Hierarchy

	// Type is "tree" for a tidy tree or "cluster" for a
	// dendrogram with all leaves at the same depth.
	Type string `json:"type"`

	// Radial lays the tree out around a center point instead of
	// top to bottom.
	Radial bool `json:"radial"`

	Sort string `json:"sort"`
}

func (*TreeLayout) LayoutKind() Kind { return Tree }

func (l *TreeLayout) Validate() error {
	switch l.Type {
	case "", "tree", "cluster":
		return nil
	}
	return invalidLayout(Tree, "unknown tree type %q", l.Type)
}

func (l *TreeLayout) withDefaults() LayoutOptions {
	c := *l
	c.Hierarchy = c.Hierarchy.withDefaults()
	if c.Type == "" {
		c.Type = "tree"
	}
	return &c
}

// WordCloudLayout configures the word cloud layout.
type WordCloudLayout struct {
	// Width and Height are the canvas size in pixels. Zero takes
	// the plot area size.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// FontSize is the [min, max] font size range weights map to.
	FontSize [2]float64 `json:"fontSize"`

	// Padding is the extra space around each word, in pixels.
	Padding float64 `json:"padding"`

	// Spiral is "archimedean" or "rectangular".
	Spiral string `json:"spiral"`

	// Rotations are the rotation angles in degrees, assigned to
	// words in placement order, cycling.
	Rotations []float64 `json:"rotate"`
}

func (*WordCloudLayout) LayoutKind() Kind { return WordCloud }

func (l *WordCloudLayout) Validate() error {
	if !nonNegative(l.Width, l.Height) {
		return invalidLayout(WordCloud, "canvas %gx%g must not be negative", l.Width, l.Height)
	}
	if lo, hi := l.FontSize[0], l.FontSize[1]; !(lo > 0 && hi >= lo) || math.IsInf(hi, 1) {
		return invalidLayout(WordCloud, "font size range [%g, %g] is invalid", lo, hi)
	}
	if !nonNegative(l.Padding) {
		return invalidLayout(WordCloud, "padding %g must not be negative", l.Padding)
	}
	switch l.Spiral {
	case "", "archimedean", "rectangular":
	default:
		return invalidLayout(WordCloud, "unknown spiral %q", l.Spiral)
	}
	for _, r := range l.Rotations {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return invalidLayout(WordCloud, "rotation %g is not finite", r)
		}
	}
	return nil
}

func (l *WordCloudLayout) withDefaults() LayoutOptions {
	c := *l
	c.Rotations = append([]float64(nil), l.Rotations...)
	if c.FontSize == [2]float64{} {
		c.FontSize = [2]float64{10, 48}
	}
	if c.Padding == 0 {
		c.Padding = 1
	}
	if c.Spiral == "" {
		c.Spiral = "archimedean"
	}
	if len(c.Rotations) == 0 {
		c.Rotations = []float64{0}
	}
	return &c
}

// defaultLayout returns the default options for a structured kind.
func defaultLayout(k Kind) LayoutOptions {
	switch k {
	case Treemap:
		return &TreemapLayout{}
	case Pack:
		return &PackLayout{}
	case Sankey:
		return &SankeyLayout{}
	case ForceGraph:
		return &ForceLayout{}
	case Tree:
		return &TreeLayout{}
	case WordCloud:
		return &WordCloudLayout{}
	}
	return nil
}
