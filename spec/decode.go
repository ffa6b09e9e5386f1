// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spec

import (
	"bytes"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/aclements/go-markres/data"
	"github.com/aclements/go-markres/diag"
)

// markDoc is the JSON form of a mark.
type markDoc struct {
	Type       string                     `json:"type"`
	Key        string                     `json:"key"`
	Class      string                     `json:"class"`
	Data       json.RawMessage            `json:"data"`
	Encode     map[string]json.RawMessage `json:"encode"`
	Scale      map[string]scaleDoc        `json:"scale"`
	Coordinate *coordDoc                  `json:"coordinate"`
	Style      Style                      `json:"style"`
	State      map[string]Style           `json:"state"`
	Layout     json.RawMessage            `json:"layout"`
	Labels     []map[string]any           `json:"labels"`
	NodeLabels []map[string]any           `json:"nodeLabels"`
	LinkLabels []map[string]any           `json:"linkLabels"`
	Tooltip    json.RawMessage            `json:"tooltip"`
	Axis       json.RawMessage            `json:"axis"`
	Legend     json.RawMessage            `json:"legend"`
	Animate    json.RawMessage            `json:"animate"`
	Padding    json.RawMessage            `json:"padding"`
	Margin     json.RawMessage            `json:"margin"`
	Inset      json.RawMessage            `json:"inset"`
	ZIndex     int                        `json:"zIndex"`
	Frame      bool                       `json:"frame"`
	Facet      bool                       `json:"facet"`
	Stack      bool                       `json:"stack"`
	Cartesian  bool                       `json:"cartesian"`
}

type scaleDoc struct {
	Type        ScaleType `json:"type"`
	Domain      []any     `json:"domain"`
	Range       []any     `json:"range"`
	Independent bool      `json:"independent"`
	Nice        bool      `json:"nice"`
	Zero        bool      `json:"zero"`
	Clamp       bool      `json:"clamp"`
	Exponent    float64   `json:"exponent"`
	Base        float64   `json:"base"`
	Padding     float64   `json:"padding"`
	Palette     string    `json:"palette"`
}

type transformDoc struct {
	Type        TransformType `json:"type"`
	FocusX      float64       `json:"focusX"`
	FocusY      float64       `json:"focusY"`
	DistortionX float64       `json:"distortionX"`
	DistortionY float64       `json:"distortionY"`
	StartAngle  float64       `json:"startAngle"`
	EndAngle    float64       `json:"endAngle"`
	InnerRadius float64       `json:"innerRadius"`
	OuterRadius float64       `json:"outerRadius"`
}

type coordDoc struct {
	Type        CoordinateType `json:"type"`
	Transform   []transformDoc `json:"transform"`
	StartAngle  float64        `json:"startAngle"`
	EndAngle    float64        `json:"endAngle"`
	InnerRadius float64        `json:"innerRadius"`
	OuterRadius float64        `json:"outerRadius"`
}

type guideDoc struct {
	Title     string `json:"title"`
	TickCount int    `json:"tickCount"`
	Position  string `json:"position"`
}

type animationDoc struct {
	Type     string  `json:"type"`
	Duration float64 `json:"duration"`
	Delay    float64 `json:"delay"`
	Easing   string  `json:"easing"`
	Fill     string  `json:"fill"`
}

type sidesDoc struct {
	Top    *float64 `json:"top"`
	Right  *float64 `json:"right"`
	Bottom *float64 `json:"bottom"`
	Left   *float64 `json:"left"`
}

// Unmarshal parses the JSON form of a single mark. The result is not
// normalized.
//
// In the JSON form, an encoding that is a string names a field, any
// other scalar is a constant, an object {"type": "constant", "value":
// v} is the constant v (so string constants can be written), and an
// array stacks several encodings on one channel. The axis, legend,
// animate and tooltip properties accept true and false as shorthand.
func Unmarshal(b []byte) (Mark, error) {
	var doc markDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return Mark{}, fmt.Errorf("decoding mark: %w", err)
	}
	return doc.mark()
}

// UnmarshalMarks parses a JSON document holding a single mark, an
// array of marks, or an object whose "children" property is an array
// of marks.
func UnmarshalMarks(b []byte) ([]Mark, error) {
	b = bytes.TrimSpace(b)
	var raws []json.RawMessage
	if len(b) > 0 && b[0] == '[' {
		if err := json.Unmarshal(b, &raws); err != nil {
			return nil, fmt.Errorf("decoding marks: %w", err)
		}
	} else {
		var view struct {
			Children []json.RawMessage `json:"children"`
		}
		if err := json.Unmarshal(b, &view); err != nil {
			return nil, fmt.Errorf("decoding marks: %w", err)
		}
		raws = view.Children
		if raws == nil {
			raws = []json.RawMessage{b}
		}
	}
	marks := make([]Mark, 0, len(raws))
	for i, raw := range raws {
		m, err := Unmarshal(raw)
		if err != nil {
			return nil, fmt.Errorf("mark %d: %w", i, err)
		}
		marks = append(marks, m)
	}
	return marks, nil
}

// YAMLToJSON converts a YAML document to JSON so it can be passed to
// Unmarshal or UnmarshalMarks.
func YAMLToJSON(b []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("decoding YAML: %w", err)
	}
	v, err := jsonable(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// jsonable converts YAML maps with non-string keys into JSON objects.
func jsonable(v any) (any, error) {
	switch v := v.(type) {
	case map[string]any:
		for k, e := range v {
			e, err := jsonable(e)
			if err != nil {
				return nil, err
			}
			v[k] = e
		}
		return v, nil
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			e, err := jsonable(e)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(k)] = e
		}
		return out, nil
	case []any:
		for i, e := range v {
			e, err := jsonable(e)
			if err != nil {
				return nil, err
			}
			v[i] = e
		}
		return v, nil
	}
	return v, nil
}

func invalid(kind, format string, args ...any) error {
	e := diag.Errorf(diag.CodeInvalidOption, format, args...)
	e.Mark = kind
	return e
}

func (doc *markDoc) mark() (Mark, error) {
	k, err := ParseKind(doc.Type)
	if err != nil {
		return Mark{}, err
	}
	kind := k.String()
	m := New(k)
	m.Key, m.Class = doc.Key, doc.Class
	m.ZIndex, m.Frame, m.Facet, m.Stack, m.Cartesian = doc.ZIndex, doc.Frame, doc.Facet, doc.Stack, doc.Cartesian
	m.Style = doc.Style
	m.State = State{
		Active:     doc.State["active"],
		Selected:   doc.State["selected"],
		Inactive:   doc.State["inactive"],
		Unselected: doc.State["unselected"],
	}

	if m.Data, err = decodeData(doc.Data); err != nil {
		return Mark{}, invalid(kind, "data: %v", err)
	}

	if len(doc.Encode) > 0 {
		m.Encode = make(map[Channel][]Encodable, len(doc.Encode))
		for name, raw := range doc.Encode {
			es, err := decodeEncodings(raw)
			if err != nil {
				return Mark{}, invalid(kind, "encode.%s: %v", name, err)
			}
			m.Encode[Channel(name)] = es
		}
	}

	if len(doc.Scale) > 0 {
		m.Scale = make(map[Channel]ScaleSpec, len(doc.Scale))
		for name, s := range doc.Scale {
			m.Scale[Channel(name)] = ScaleSpec(s)
		}
	}

	if c := doc.Coordinate; c != nil {
		m.Coordinate = Coordinate{
			Type:        c.Type,
			StartAngle:  c.StartAngle,
			EndAngle:    c.EndAngle,
			InnerRadius: c.InnerRadius,
			OuterRadius: c.OuterRadius,
		}
		for _, t := range c.Transform {
			m.Coordinate.Transforms = append(m.Coordinate.Transforms, CoordTransform(t))
		}
	}

	if m.Layout, err = decodeLayout(k, doc.Layout); err != nil {
		return Mark{}, invalid(kind, "layout: %v", err)
	}

	for _, l := range []struct {
		dst *[]LabelSpec
		src []map[string]any
	}{{&m.Labels, doc.Labels}, {&m.NodeLabels, doc.NodeLabels}, {&m.LinkLabels, doc.LinkLabels}} {
		for _, raw := range l.src {
			ls, err := decodeLabel(raw)
			if err != nil {
				return Mark{}, invalid(kind, "labels: %v", err)
			}
			*l.dst = append(*l.dst, ls)
		}
	}

	if m.Tooltip, err = decodeTooltip(doc.Tooltip); err != nil {
		return Mark{}, invalid(kind, "tooltip: %v", err)
	}
	if m.Axis, err = decodeGuides(doc.Axis); err != nil {
		return Mark{}, invalid(kind, "axis: %v", err)
	}
	if m.Legend, err = decodeGuides(doc.Legend); err != nil {
		return Mark{}, invalid(kind, "legend: %v", err)
	}
	if m.Animate, err = decodeAnimate(doc.Animate); err != nil {
		return Mark{}, invalid(kind, "animate: %v", err)
	}
	for _, s := range []struct {
		dst *Sides
		raw json.RawMessage
		msg string
	}{{&m.Padding, doc.Padding, "padding"}, {&m.Margin, doc.Margin, "margin"}, {&m.Inset, doc.Inset, "inset"}} {
		if *s.dst, err = decodeSides(s.raw); err != nil {
			return Mark{}, invalid(kind, "%s: %v", s.msg, err)
		}
	}
	return m, nil
}

// absent reports whether raw is missing or null.
func absent(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// decodeBool returns the value of raw if it is a JSON boolean.
func decodeBool(raw json.RawMessage) (val, ok bool) {
	switch string(bytes.TrimSpace(raw)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

func decodeData(raw json.RawMessage) (*data.Dataset, error) {
	if absent(raw) {
		return nil, nil
	}
	raw = bytes.TrimSpace(raw)
	if raw[0] == '{' {
		var inline struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(raw, &inline); err != nil {
			return nil, err
		}
		if absent(inline.Value) {
			return nil, fmt.Errorf("object data must carry an inline \"value\" array")
		}
		raw = inline.Value
	}
	return data.Unmarshal(raw)
}

func decodeEncodings(raw json.RawMessage) ([]Encodable, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	if vs, ok := v.([]any); ok {
		es := make([]Encodable, 0, len(vs))
		for _, v := range vs {
			if _, ok := v.([]any); ok {
				return nil, fmt.Errorf("nested encoding arrays are not allowed")
			}
			e, err := encodableOf(v)
			if err != nil {
				return nil, err
			}
			es = append(es, e)
		}
		return es, nil
	}
	e, err := encodableOf(v)
	if err != nil {
		return nil, err
	}
	return []Encodable{e}, nil
}

// encodableOf converts a decoded JSON value to an Encodable.
func encodableOf(v any) (Encodable, error) {
	switch v := v.(type) {
	case nil:
		return Encodable{}, nil
	case string:
		return Field(v), nil
	case map[string]any:
		switch v["type"] {
		case "field":
			name, ok := v["value"].(string)
			if !ok {
				return Encodable{}, fmt.Errorf("field encoding needs a string value")
			}
			return Field(name), nil
		case "constant":
			return Const(v["value"]), nil
		}
		return Encodable{}, fmt.Errorf("encoding object must have type \"field\" or \"constant\"")
	}
	return Const(v), nil
}

func decodeLayout(k Kind, raw json.RawMessage) (LayoutOptions, error) {
	if absent(raw) {
		return nil, nil
	}
	l := defaultLayout(k)
	if l == nil {
		return nil, fmt.Errorf("%s marks take no layout options", k)
	}
	if f, ok := l.(*ForceLayout); ok {
		doc := struct {
			*ForceLayout
			TimeBudget float64 `json:"timeBudget"`
		}{ForceLayout: f}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		f.TimeBudget = time.Duration(doc.TimeBudget * float64(time.Millisecond))
		return f, nil
	}
	if err := json.Unmarshal(raw, l); err != nil {
		return nil, err
	}
	return l, nil
}

func decodeLabel(raw map[string]any) (LabelSpec, error) {
	var ls LabelSpec
	for k, v := range raw {
		switch k {
		case "text":
			e, err := encodableOf(v)
			if err != nil {
				return ls, err
			}
			ls.Text = e
		case "position":
			s, ok := v.(string)
			if !ok {
				return ls, fmt.Errorf("position must be a string")
			}
			ls.Position = s
		case "dx", "dy":
			f, ok := data.Float(v)
			if !ok {
				return ls, fmt.Errorf("%s must be a number", k)
			}
			if k == "dx" {
				ls.Dx = f
			} else {
				ls.Dy = f
			}
		default:
			if ls.Style == nil {
				ls.Style = Style{}
			}
			ls.Style[k] = v
		}
	}
	return ls, nil
}

func decodeTooltip(raw json.RawMessage) (*Tooltip, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	if absent(raw) {
		return &Tooltip{Disabled: true}, nil
	}
	if b, ok := decodeBool(raw); ok {
		if !b {
			return &Tooltip{Disabled: true}, nil
		}
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	t := &Tooltip{}
	var items []any
	switch v := v.(type) {
	case []any:
		items = v
	case map[string]any:
		if title, ok := v["title"]; ok {
			tt, err := tooltipTitle(title)
			if err != nil {
				return nil, err
			}
			t.Title = tt
		}
		switch is := v["items"].(type) {
		case nil:
		case []any:
			items = is
		default:
			return nil, fmt.Errorf("items must be an array")
		}
	default:
		return nil, fmt.Errorf("tooltip must be a boolean, array or object")
	}
	for _, it := range items {
		item, err := tooltipItem(it)
		if err != nil {
			return nil, err
		}
		t.Items = append(t.Items, item)
	}
	return t, nil
}

func tooltipTitle(v any) (*TooltipTitle, error) {
	switch v := v.(type) {
	case string:
		return &TooltipTitle{Field: v}, nil
	case map[string]any:
		t := &TooltipTitle{}
		t.Field, _ = v["field"].(string)
		if ch, ok := v["channel"].(string); ok {
			t.Channel = Channel(ch)
		}
		if val, ok := v["value"]; ok {
			t.Value = Const(val)
		}
		return t, nil
	}
	return nil, fmt.Errorf("title must be a string or object")
}

func tooltipItem(v any) (TooltipItem, error) {
	switch v := v.(type) {
	case string:
		return TooltipItem{Field: v}, nil
	case map[string]any:
		var it TooltipItem
		it.Name, _ = v["name"].(string)
		it.Color, _ = v["color"].(string)
		it.Field, _ = v["field"].(string)
		if ch, ok := v["channel"].(string); ok {
			it.Channel = Channel(ch)
		}
		if val, ok := v["value"]; ok {
			it.Value = Const(val)
		}
		return it, nil
	}
	return TooltipItem{}, fmt.Errorf("item must be a string or object")
}

func decodeGuides(raw json.RawMessage) (Guides, error) {
	if absent(raw) {
		return Guides{}, nil
	}
	if b, ok := decodeBool(raw); ok {
		return Guides{Hidden: !b}, nil
	}
	var byCh map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byCh); err != nil {
		return Guides{}, err
	}
	g := Guides{ByChannel: make(map[Channel]*Guide, len(byCh))}
	for name, raw := range byCh {
		if absent(raw) {
			g.ByChannel[Channel(name)] = &Guide{Hidden: true}
			continue
		}
		if b, ok := decodeBool(raw); ok {
			g.ByChannel[Channel(name)] = &Guide{Hidden: !b}
			continue
		}
		var gd guideDoc
		if err := json.Unmarshal(raw, &gd); err != nil {
			return Guides{}, fmt.Errorf("%s: %w", name, err)
		}
		g.ByChannel[Channel(name)] = &Guide{Title: gd.Title, TickCount: gd.TickCount, Position: gd.Position}
	}
	return g, nil
}

func decodeAnimate(raw json.RawMessage) (*Animate, error) {
	if absent(raw) {
		return nil, nil
	}
	if b, ok := decodeBool(raw); ok {
		if !b {
			return &Animate{Disabled: true}, nil
		}
		return nil, nil
	}
	var doc map[string]*animationDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	a := &Animate{}
	for name, ad := range doc {
		if ad == nil {
			continue
		}
		anim := Animation(*ad)
		switch name {
		case "enter":
			a.Enter = &anim
		case "update":
			a.Update = &anim
		case "exit":
			a.Exit = &anim
		default:
			return nil, fmt.Errorf("unknown animation phase %q", name)
		}
	}
	return a, nil
}

func decodeSides(raw json.RawMessage) (Sides, error) {
	if absent(raw) {
		return Sides{}, nil
	}
	var all float64
	if err := json.Unmarshal(raw, &all); err == nil {
		return Sides{All: Float(all)}, nil
	}
	var doc sidesDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Sides{}, err
	}
	return Sides{Top: doc.Top, Right: doc.Right, Bottom: doc.Bottom, Left: doc.Left}, nil
}
