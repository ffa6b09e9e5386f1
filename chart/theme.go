// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chart

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/aclements/go-markres/scale"
)

// Theme holds the style tokens applied where a mark does not encode
// or declare a style.
type Theme struct {
	// Categorical is the palette of categorical color scales.
	Categorical []string

	// Sequential is the color ramp of sequential color scales. If
	// empty, Viridis is used.
	Sequential []string

	Fill      string
	Stroke    string
	LineWidth float64
	Opacity   float64

	FontFamily string
	FontSize   float64
	TextFill   string
}

// DefaultTheme returns the default theme.
func DefaultTheme() Theme {
	return Theme{
		Categorical: append([]string(nil), scale.DefaultCategorical...),
		Fill:        "#5b8ff9",
		Stroke:      "#5b8ff9",
		LineWidth:   1,
		Opacity:     1,
		FontFamily:  "sans-serif",
		FontSize:    12,
		TextFill:    "#1d2129",
	}
}

// Validate checks that every color token of t parses.
func (t Theme) Validate() error {
	check := func(name, c string) error {
		if c == "" {
			return nil
		}
		if _, err := colorful.Hex(c); err != nil {
			return fmt.Errorf("theme %s: %w", name, err)
		}
		return nil
	}
	for i, c := range t.Categorical {
		if err := check(fmt.Sprintf("categorical[%d]", i), c); err != nil {
			return err
		}
	}
	for i, c := range t.Sequential {
		if err := check(fmt.Sprintf("sequential[%d]", i), c); err != nil {
			return err
		}
	}
	if len(t.Sequential) == 1 {
		return fmt.Errorf("theme sequential: need at least two colors")
	}
	for _, kv := range [][2]string{{"fill", t.Fill}, {"stroke", t.Stroke}, {"textFill", t.TextFill}} {
		if err := check(kv[0], kv[1]); err != nil {
			return err
		}
	}
	if t.Opacity < 0 || t.Opacity > 1 {
		return fmt.Errorf("theme opacity %g not in [0, 1]", t.Opacity)
	}
	return nil
}

// withDefaults fills the unset tokens of t from the default theme.
func (t Theme) withDefaults() Theme {
	d := DefaultTheme()
	if len(t.Categorical) == 0 {
		t.Categorical = d.Categorical
	}
	if t.Fill == "" {
		t.Fill = d.Fill
	}
	if t.Stroke == "" {
		t.Stroke = d.Stroke
	}
	if t.LineWidth == 0 {
		t.LineWidth = d.LineWidth
	}
	if t.Opacity == 0 {
		t.Opacity = d.Opacity
	}
	if t.FontFamily == "" {
		t.FontFamily = d.FontFamily
	}
	if t.FontSize == 0 {
		t.FontSize = d.FontSize
	}
	if t.TextFill == "" {
		t.TextFill = d.TextFill
	}
	return t
}

// color canonicalizes a color value. Hex colors are normalized to
// lower-case #rrggbb; anything else, such as a CSS color name, is
// passed through.
func color(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return s, true
	}
	return c.Clamped().Hex(), true
}

// fade mixes c toward white by 1-alpha. Renderers that cannot draw
// translucent strokes use it for links drawn over nodes.
func fade(c string, alpha float64) string {
	col, err := colorful.Hex(c)
	if err != nil {
		return c
	}
	alpha = math.Max(0, math.Min(1, alpha))
	return col.BlendRgb(colorful.Color{R: 1, G: 1, B: 1}, 1-alpha).Clamped().Hex()
}
