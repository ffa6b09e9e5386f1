// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tooltip projects tooltip titles, tooltip items, and data
// labels for individual data rows.
//
// Projection is lazy: nothing is computed until a row is asked for,
// and values are never passed through scales. A projected value is
// what the encoding produced for the row, formatted for display.
package tooltip

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/aclements/go-markres/data"
	"github.com/aclements/go-markres/spec"
)

// Payload is the projected tooltip of one row.
type Payload struct {
	Title string `json:"title,omitempty"`
	Items []Item `json:"items"`
}

// Item is one projected tooltip row.
type Item struct {
	Name  string `json:"name,omitempty"`
	Value string `json:"value"`
	Color string `json:"color,omitempty"`

	// Raw is the unformatted value.
	Raw any `json:"-"`
}

// Label is one projected data label.
type Label struct {
	Text     string     `json:"text"`
	Position string     `json:"position,omitempty"`
	Dx       float64    `json:"dx,omitempty"`
	Dy       float64    `json:"dy,omitempty"`
	Style    spec.Style `json:"style,omitempty"`
}

// A Projector projects the tooltip and labels of a mark's rows.
type Projector struct {
	m      spec.Mark
	ds     *data.Dataset
	labels []spec.LabelSpec
	p      *message.Printer
}

// New returns a projector for the rows of ds under mark m. m should
// be normalized, so a mark without a declared tooltip gets one item
// per field-encoded channel.
func New(m spec.Mark, ds *data.Dataset) *Projector {
	return &Projector{m: m, ds: ds, labels: m.Labels, p: message.NewPrinter(language.English)}
}

// WithLanguage returns a copy of p that formats numbers for tag.
func (p *Projector) WithLanguage(tag language.Tag) *Projector {
	q := *p
	q.p = message.NewPrinter(tag)
	return &q
}

// WithLabels returns a copy of p that projects ls against the rows of
// ds. Graph kinds use this for node and link labels.
func (p *Projector) WithLabels(ls []spec.LabelSpec, ds *data.Dataset) *Projector {
	q := *p
	q.labels, q.ds = ls, ds
	return &q
}

// Len returns the number of rows p projects.
func (p *Projector) Len() int { return p.ds.Len() }

// Project returns the tooltip of row i. It returns nil if the mark's
// tooltip is disabled.
func (p *Projector) Project(i int) (*Payload, error) {
	if err := p.check(i); err != nil {
		return nil, err
	}
	t := p.m.Tooltip
	if t != nil && t.Disabled {
		return nil, nil
	}
	out := &Payload{Items: []Item{}}
	if title, ok := p.title(i); ok {
		out.Title = p.format(title)
	}
	if t == nil {
		return out, nil
	}
	for _, it := range t.Items {
		item, ok := p.item(it, i)
		if ok {
			out.Items = append(out.Items, item)
		}
	}
	return out, nil
}

// Labels returns the labels of row i, skipping labels whose text
// resolves to nil.
func (p *Projector) Labels(i int) ([]Label, error) {
	if err := p.check(i); err != nil {
		return nil, err
	}
	var out []Label
	for _, l := range p.labels {
		v := p.eval(l.Text, i, spec.LabelCh)
		if v == nil {
			continue
		}
		out = append(out, Label{Text: p.format(v), Position: l.Position, Dx: l.Dx, Dy: l.Dy, Style: l.Style})
	}
	return out, nil
}

func (p *Projector) check(i int) error {
	if i < 0 || i >= p.ds.Len() {
		return fmt.Errorf("row %d out of range [0, %d)", i, p.ds.Len())
	}
	return nil
}

// title resolves the tooltip title of row i. Without a declared title,
// a mark encoding the title channel uses that.
func (p *Projector) title(i int) (any, bool) {
	var tt *spec.TooltipTitle
	if p.m.Tooltip != nil {
		tt = p.m.Tooltip.Title
	}
	switch {
	case tt == nil:
		if _, ok := p.m.Encode[spec.TitleCh]; !ok {
			return nil, false
		}
		v := p.channel(spec.TitleCh, i)
		return v, v != nil
	case tt.Field != "":
		v, ok := p.ds.Value(i, tt.Field)
		return v, ok
	case tt.Channel != "":
		v := p.channel(tt.Channel, i)
		return v, v != nil
	}
	v := p.eval(tt.Value, i, spec.TitleCh)
	return v, v != nil
}

func (p *Projector) item(it spec.TooltipItem, i int) (Item, bool) {
	out := Item{Name: it.Name, Color: it.Color}
	var v any
	switch {
	case it.Field != "":
		v, _ = p.ds.Value(i, it.Field)
		if out.Name == "" {
			out.Name = it.Field
		}
	case it.Channel != "":
		v = p.channel(it.Channel, i)
		if out.Name == "" {
			out.Name = p.channelName(it.Channel)
		}
	default:
		v = p.eval(it.Value, i, spec.TooltipCh)
		if out.Name == "" {
			out.Name = it.Value.FieldName()
		}
	}
	if tv, ok := v.(spec.TooltipValue); ok {
		if out.Name == "" {
			out.Name = tv.Name
		}
		if out.Color == "" {
			out.Color = tv.Color
		}
		v = tv.Value
	}
	if v == nil {
		return Item{}, false
	}
	out.Raw = v
	out.Value = p.format(v)
	return out, true
}

// encodings returns the encodings behind ch. A sub-channel such as y1
// that was not declared on its own is the matching stacked encoding
// of its base channel.
func (p *Projector) encodings(ch spec.Channel) []spec.Encodable {
	if es, ok := p.m.Encode[ch]; ok {
		if ch.Positional() && len(es) > 1 {
			return es[:1]
		}
		return es
	}
	base, k := ch.Split()
	if es := p.m.Encode[base]; base.Positional() && k < len(es) {
		return es[k : k+1]
	}
	return nil
}

// channel resolves ch for row i. Later encodings override earlier
// ones where they produce a value.
func (p *Projector) channel(ch spec.Channel, i int) any {
	var out any
	for _, e := range p.encodings(ch) {
		if v := p.eval(e, i, ch); v != nil {
			out = v
		}
	}
	return out
}

// channelName is the display name of ch: the field it encodes if its
// last encoding is a field, otherwise the channel itself.
func (p *Projector) channelName(ch spec.Channel) string {
	es := p.encodings(ch)
	if len(es) > 0 {
		if f := es[len(es)-1].FieldName(); f != "" {
			return f
		}
	}
	return string(ch)
}

func (p *Projector) eval(e spec.Encodable, i int, ch spec.Channel) any {
	switch e.Kind() {
	case spec.ConstKind:
		return e.Value()
	case spec.FieldKind:
		v, _ := p.ds.Value(i, e.FieldName())
		return v
	case spec.ComputeKind:
		col := data.Column{Name: string(ch)}
		if c, ok := p.ds.Column(string(ch)); ok {
			col = c
		}
		return e.Func()(p.ds.Row(i), i, p.ds, col)
	}
	return nil
}

// format renders v for display. Integral numbers get digit grouping.
func (p *Projector) format(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case bool:
		return fmt.Sprint(v)
	case time.Time:
		return v.Format(time.RFC3339)
	}
	f, ok := data.Float(v)
	if !ok {
		return fmt.Sprint(v)
	}
	switch {
	case math.IsNaN(f), math.IsInf(f, 0):
		return fmt.Sprint(f)
	case f == math.Trunc(f) && math.Abs(f) < 1<<53:
		return p.p.Sprintf("%d", int64(f))
	}
	return p.p.Sprintf("%v", f)
}
