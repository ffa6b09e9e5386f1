// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package layout

import (
	"math"
	"sort"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/aclements/go-markres/data"
	"github.com/aclements/go-markres/spec"
)

// Word is one input item of a word cloud.
type Word struct {
	Text   string
	Weight float64
	Row    int
	Datum  data.Row
}

// measureFace is the face word extents are measured with. Its advance
// widths scale linearly with the requested font size.
var measureFace font.Face = basicfont.Face7x13

// measure returns the width and height of text at size, in pixels.
func measure(text string, size float64) (w, h float64) {
	adv := font.MeasureString(measureFace, text)
	m := measureFace.Metrics()
	base := float64(m.Height) / 64
	return float64(adv) / 64 * size / base, size
}

type box struct {
	x0, y0, x1, y1 float64
}

func (a box) overlaps(b box) bool {
	return a.x0 < b.x1 && b.x0 < a.x1 && a.y0 < b.y1 && b.y0 < a.y1
}

// WordCloud places words on a width by height canvas, heaviest first,
// moving each along a spiral from the center until it collides with no
// word placed before it. Words that do not fit are dropped and counted
// in Result.Dropped. Node positions are reported in the unit square;
// FontSize stays in pixels.
func WordCloud(words []Word, width, height float64, opts *spec.WordCloudLayout) (*Result, error) {
	r := &Result{Converged: true}
	if len(words) == 0 || width <= 0 || height <= 0 {
		r.Dropped = len(words)
		return r, nil
	}
	order := make([]int, len(words))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return words[order[i]].Weight > words[order[j]].Weight
	})
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, w := range words {
		lo, hi = math.Min(lo, w.Weight), math.Max(hi, w.Weight)
	}
	sizeOf := func(weight float64) float64 {
		if hi == lo || math.IsNaN(weight) {
			return opts.FontSize[1]
		}
		return opts.FontSize[0] + (weight-lo)/(hi-lo)*(opts.FontSize[1]-opts.FontSize[0])
	}

	spiral := archimedean(width, height)
	if opts.Spiral == "rectangular" {
		spiral = rectangular(width, height)
	}
	maxDelta := math.Hypot(width, height)

	var placed []box
	for k, i := range order {
		w := words[i]
		size := sizeOf(w.Weight)
		rot := 0.0
		if len(opts.Rotations) > 0 {
			rot = opts.Rotations[k%len(opts.Rotations)]
		}
		tw, th := measure(w.Text, size)
		rad := rot * math.Pi / 180
		bw := math.Abs(tw*math.Cos(rad)) + math.Abs(th*math.Sin(rad)) + 2*opts.Padding
		bh := math.Abs(tw*math.Sin(rad)) + math.Abs(th*math.Cos(rad)) + 2*opts.Padding

		next := spiral()
		found := false
		var b box
		for t := 0; ; t++ {
			dx, dy := next(t)
			if math.Hypot(dx, dy) > maxDelta {
				break
			}
			cx, cy := width/2+dx, height/2+dy
			b = box{cx - bw/2, cy - bh/2, cx + bw/2, cy + bh/2}
			if b.x0 < 0 || b.y0 < 0 || b.x1 > width || b.y1 > height {
				continue
			}
			hit := false
			for _, p := range placed {
				if b.overlaps(p) {
					hit = true
					break
				}
			}
			if !hit {
				found = true
				break
			}
		}
		if !found {
			r.Dropped++
			continue
		}
		placed = append(placed, b)
		r.Nodes = append(r.Nodes, Node{
			ID:       w.Text,
			Name:     w.Text,
			Datum:    w.Datum,
			Row:      w.Row,
			Parent:   -1,
			Leaf:     true,
			Value:    w.Weight,
			X:        (b.x0 + b.x1) / 2 / width,
			Y:        (b.y0 + b.y1) / 2 / height,
			X0:       b.x0 / width,
			Y0:       b.y0 / height,
			X1:       b.x1 / width,
			Y1:       b.y1 / height,
			FontSize: size,
			Rotate:   rot,
		})
	}
	return r, nil
}

// A spiral returns a fresh generator of offsets from the canvas
// center, one per step t.
type spiralFunc func() func(t int) (dx, dy float64)

func archimedean(width, height float64) spiralFunc {
	e := width / height
	return func() func(int) (float64, float64) {
		return func(t int) (float64, float64) {
			a := float64(t) * 0.1
			return e * a * math.Cos(a), a * math.Sin(a)
		}
	}
}

func rectangular(width, height float64) spiralFunc {
	return func() func(int) (float64, float64) {
		dy := 4.0
		dx := dy * width / height
		x, y := 0.0, 0.0
		return func(t int) (float64, float64) {
			if t == 0 {
				return 0, 0
			}
			switch int(math.Sqrt(1+4*float64(t))-1) & 3 {
			case 0:
				x += dx
			case 1:
				y += dy
			case 2:
				x -= dx
			default:
				y -= dy
			}
			return x, y
		}
	}
}
