// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scale

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/aclements/go-gg/palette"
	"github.com/google/uuid"

	"github.com/aclements/go-markres/data"
	"github.com/aclements/go-markres/diag"
	"github.com/aclements/go-markres/spec"
)

var (
	// ErrNotFrozen is returned by Scale before Freeze.
	ErrNotFrozen = errors.New("scale session not frozen")

	// ErrFrozen is returned by Observe after Freeze.
	ErrFrozen = errors.New("scale session already frozen")

	// ErrClosed is returned by every method of a closed session.
	ErrClosed = errors.New("scale session closed")

	// ErrNoScale is returned by Scale for a key that was never
	// observed.
	ErrNoScale = errors.New("no scale for channel")
)

// DefaultCategorical is the default palette of categorical colors.
var DefaultCategorical = []string{
	"#5B8FF9", "#5AD8A6", "#5D7092", "#F6BD16", "#6F5EF9",
	"#6DC8EC", "#945FB9", "#FF9845", "#1E9493", "#FF99C3",
}

// DefaultShapes is the default range of shape scales.
var DefaultShapes = []string{
	"point", "square", "triangle", "hexagon", "diamond",
	"bowtie", "cross", "tick", "plus", "hyphen",
}

// Options configures the default ranges of a session.
type Options struct {
	// Width and Height are the plot area size in pixels. Size
	// ranges are proportional to the smaller of the two.
	Width, Height float64

	// Categorical is the palette of categorical color scales.
	Categorical []string

	// Sequential, if non-empty, is a list of at least two colors
	// to interpolate for sequential color scales. Otherwise they
	// use Viridis.
	Sequential []string

	// Shapes is the range of shape scales.
	Shapes []string
}

// A Key identifies a scale in a session. Marks share the scale for a
// channel unless they declare it independent, in which case Mark
// names the owning mark.
type Key struct {
	Channel spec.Channel
	Mark    string
}

func (k Key) String() string {
	if k.Mark == "" {
		return string(k.Channel)
	}
	return string(k.Channel) + "@" + k.Mark
}

// KeyFor returns the key of the scale that channel ch of the mark
// named markKey maps through. ok is false if ch is not a scaled
// channel.
func KeyFor(ch spec.Channel, markKey string, s spec.ScaleSpec) (k Key, ok bool) {
	sch, ok := Channel(ch)
	if !ok {
		return Key{}, false
	}
	k.Channel = sch
	if s.Independent {
		k.Mark = markKey
	}
	return k, true
}

// Channel returns the channel whose scale ch maps through: x1, x2,
// ... map through x's scale, y1, y2, ... through y's, and graph
// channels such as nodeX keep their prefix. ok is false for channels
// that are displayed as is, such as text and tooltip.
func Channel(ch spec.Channel) (spec.Channel, bool) {
	prefix, base := "", ch
	for _, p := range []string{"node", "link"} {
		if u, ok := ch.Unprefixed(p); ok {
			prefix, base = p, u
			break
		}
	}
	switch b, _ := base.Split(); {
	case b == spec.X || b == spec.Y:
		base = b
	case b == spec.Position:
	case base == spec.Color, base == spec.Size, base == spec.Opacity, base == spec.ShapeCh:
	default:
		return "", false
	}
	if prefix != "" {
		return base.Prefixed(prefix), true
	}
	return base, true
}

// Observation is one mark's contribution to the domain of one scale.
type Observation struct {
	Key Key

	// Order is the position of the mark in the chart. Categories
	// are ordered by (Order, row) of their first appearance, so
	// the order Observe is called in does not matter.
	Order int

	// MarkKind names the observing mark in errors.
	MarkKind string

	// Spec is the mark's scale declaration for the channel.
	Spec spec.ScaleSpec

	// Hint is the scale type the mark prefers if the values turn
	// out to be categorical and no type is declared. Band wins
	// over point when marks disagree.
	Hint spec.ScaleType

	Values []any
}

type firstSeen struct {
	order, row int
	v          any
}

type accum struct {
	declared     spec.ScaleType
	declaredKind string

	spec      spec.ScaleSpec
	specOrder int
	hasSpec   bool

	hint spec.ScaleType

	nnum, nother int
	min, max     float64

	seen map[any]firstSeen
}

type state int

const (
	open state = iota
	frozen
	closed
)

// A Session owns the scales of one chart build.
type Session struct {
	id   uuid.UUID
	opts Options

	mu     sync.Mutex
	state  state
	acc    map[Key]*accum
	scales map[Key]Scale
}

// NewSession returns an open session with a fresh identity.
func NewSession(opts Options) *Session {
	if opts.Width <= 0 {
		opts.Width = 640
	}
	if opts.Height <= 0 {
		opts.Height = 480
	}
	if len(opts.Categorical) == 0 {
		opts.Categorical = DefaultCategorical
	}
	if len(opts.Shapes) == 0 {
		opts.Shapes = DefaultShapes
	}
	return &Session{
		id:   uuid.New(),
		opts: opts,
		acc:  make(map[Key]*accum),
	}
}

// ID returns the session's identity.
func (s *Session) ID() uuid.UUID { return s.id }

// Observe adds o to the domain of o.Key's scale. It is safe to call
// concurrently. It fails with diag.IncompatibleScaleType if o declares
// a scale type that conflicts with another mark's declaration.
func (s *Session) Observe(o Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case frozen:
		return ErrFrozen
	case closed:
		return ErrClosed
	}

	a := s.acc[o.Key]
	if a == nil {
		a = &accum{min: math.Inf(1), max: math.Inf(-1), seen: make(map[any]firstSeen)}
		s.acc[o.Key] = a
	}

	if t := o.Spec.Type; t != spec.ScaleAuto {
		if a.declared != spec.ScaleAuto && a.declared != t {
			return &diag.Error{
				Code:    diag.CodeIncompatibleScaleType,
				Mark:    o.MarkKind,
				Channel: string(o.Key.Channel),
				Detail:  fmt.Sprintf("declared %s, but a %s mark declared %s", t, a.declaredKind, a.declared),
			}
		}
		a.declared, a.declaredKind = t, o.MarkKind
	}
	if isDeclared(o.Spec) && (!a.hasSpec || o.Order < a.specOrder) {
		a.spec, a.specOrder, a.hasSpec = o.Spec, o.Order, true
	}
	if o.Hint == spec.ScaleBand || a.hint == spec.ScaleAuto {
		a.hint = o.Hint
	}

	for row, v := range o.Values {
		if v == nil {
			continue
		}
		if isNumber(v) {
			f, _ := data.Float(v)
			if !math.IsNaN(f) {
				a.nnum++
				a.min, a.max = math.Min(a.min, f), math.Max(a.max, f)
			}
		} else {
			a.nother++
		}
		k := valueKey(v)
		if fs, ok := a.seen[k]; !ok || o.Order < fs.order || (o.Order == fs.order && row < fs.row) {
			a.seen[k] = firstSeen{o.Order, row, v}
		}
	}
	return nil
}

func isDeclared(s spec.ScaleSpec) bool {
	return s.Type != "" || len(s.Domain) > 0 || len(s.Range) > 0 ||
		s.Nice || s.Zero || s.Clamp || s.Exponent != 0 || s.Base != 0 ||
		s.Padding != 0 || s.Palette != ""
}

// Freeze ends the accumulation phase and builds every observed scale.
// If building a scale fails, Freeze returns the error for the first
// failing key in key order; the session is frozen either way.
func (s *Session) Freeze() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case frozen:
		return ErrFrozen
	case closed:
		return ErrClosed
	}
	s.state = frozen

	keys := make([]Key, 0, len(s.acc))
	for k := range s.acc {
		keys = append(keys, k)
	}
	sortKeys(keys)
	s.scales = make(map[Key]Scale, len(keys))
	var first error
	for _, k := range keys {
		sc, err := s.build(k, s.acc[k])
		if err != nil {
			if first == nil {
				first = err
			}
			continue
		}
		s.scales[k] = sc
	}
	return first
}

// Scale returns the scale for k. It returns the same instance for the
// same key for the life of the session.
func (s *Session) Scale(k Key) (Scale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case open:
		return nil, ErrNotFrozen
	case closed:
		return nil, ErrClosed
	}
	sc, ok := s.scales[k]
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrNoScale, k)
	}
	return sc, nil
}

// Keys returns the keys of the built scales in sorted order.
func (s *Session) Keys() []Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]Key, 0, len(s.scales))
	for k := range s.scales {
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys
}

// Close releases the session's scales. Scales handed out earlier
// remain usable.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = closed
	s.acc, s.scales = nil, nil
}

func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Channel != keys[j].Channel {
			return keys[i].Channel < keys[j].Channel
		}
		return keys[i].Mark < keys[j].Mark
	})
}

// baseChannel strips the graph prefix and sub-channel index from a
// scale key's channel.
func baseChannel(ch spec.Channel) spec.Channel {
	for _, p := range []string{"node", "link"} {
		if u, ok := ch.Unprefixed(p); ok {
			ch = u
			break
		}
	}
	b, _ := ch.Split()
	return b
}

func (s *Session) build(k Key, a *accum) (Scale, error) {
	sp := a.spec
	base := baseChannel(k.Channel)
	errorf := func(format string, args ...any) error {
		return &diag.Error{Code: diag.CodeIncompatibleScaleType, Mark: a.declaredKind, Channel: string(k.Channel), Detail: fmt.Sprintf(format, args...)}
	}

	// Explicit domains take precedence over observed values.
	min, max := a.min, a.max
	numeric := a.nother == 0 && a.nnum > 0
	if len(sp.Domain) > 0 {
		numeric = true
		min, max = math.Inf(1), math.Inf(-1)
		for _, v := range sp.Domain {
			if !isNumber(v) {
				numeric = false
				break
			}
			f, _ := data.Float(v)
			min, max = math.Min(min, f), math.Max(max, f)
		}
	}

	typ := a.declared
	if typ == spec.ScaleAuto {
		typ = inferType(base, numeric, a.hint)
	}

	switch CategoryOf(typ) {
	case Identity:
		return identity{}, nil

	case Continuous:
		if !numeric && (a.nother > 0 || len(sp.Domain) > 0) {
			return nil, errorf("%s scale declared for non-numeric values", typ)
		}
		if math.IsInf(min, 1) {
			min, max = 0, 1
		}
		c, err := newContinuous(typ, min, max, sp)
		if err != nil {
			return nil, annotate(err, a.declaredKind, k.Channel)
		}
		if base == spec.Color || typ == spec.ScaleSequential {
			switch sp.Palette {
			case "", "viridis":
				c.colors = palette.Viridis
			default:
				return nil, annotate(diag.Errorf(diag.CodeInvalidOption, "unknown sequential palette %q", sp.Palette), a.declaredKind, k.Channel)
			}
			colors := sp.Range
			if len(colors) == 0 && len(s.opts.Sequential) > 0 {
				colors = stringsToAny(s.opts.Sequential)
			}
			if len(colors) > 0 {
				g, err := parseGradient(colors)
				if err != nil {
					return nil, annotate(err, a.declaredKind, k.Channel)
				}
				c.colors = g
			}
			return c, nil
		}
		c.lo, c.hi = s.numericRange(base)
		if len(sp.Range) >= 2 {
			lo, ok1 := data.Float(sp.Range[0])
			hi, ok2 := data.Float(sp.Range[len(sp.Range)-1])
			if !ok1 || !ok2 {
				return nil, annotate(diag.Errorf(diag.CodeInvalidOption, "range %v is not numeric", sp.Range), a.declaredKind, k.Channel)
			}
			c.lo, c.hi = lo, hi
		}
		return c, nil
	}

	domain := sp.Domain
	if len(domain) == 0 {
		domain = a.domain()
	}
	if CategoryOf(typ) == Ordinal {
		lo, hi := s.numericRange(base)
		if len(sp.Range) >= 2 {
			lo, _ = data.Float(sp.Range[0])
			hi, _ = data.Float(sp.Range[len(sp.Range)-1])
		}
		padding := sp.Padding
		if typ == spec.ScaleBand && padding == 0 && !isDeclared(sp) {
			padding = 0.1
		}
		return newBand(typ, domain, lo, hi, padding), nil
	}
	switch sp.Palette {
	case "", "category10":
	default:
		return nil, annotate(diag.Errorf(diag.CodeInvalidOption, "unknown categorical palette %q", sp.Palette), a.declaredKind, k.Channel)
	}
	rng := sp.Range
	if len(rng) == 0 {
		rng = s.discreteRange(base, len(domain))
	}
	return newOrdinal(domain, rng), nil
}

func annotate(err error, kind string, ch spec.Channel) error {
	var e *diag.Error
	if errors.As(err, &e) {
		e2 := e.WithChannel(string(ch))
		if e2.Mark == "" {
			e2.Mark = kind
		}
		return e2
	}
	return err
}

// domain returns the distinct observed values in first-seen order.
func (a *accum) domain() []any {
	seen := make([]firstSeen, 0, len(a.seen))
	for _, fs := range a.seen {
		seen = append(seen, fs)
	}
	sort.Slice(seen, func(i, j int) bool {
		if seen[i].order != seen[j].order {
			return seen[i].order < seen[j].order
		}
		return seen[i].row < seen[j].row
	})
	out := make([]any, len(seen))
	for i, fs := range seen {
		out[i] = fs.v
	}
	return out
}

func inferType(base spec.Channel, numeric bool, hint spec.ScaleType) spec.ScaleType {
	switch base {
	case spec.X, spec.Y, spec.Position:
		if numeric {
			return spec.ScaleLinear
		}
		if hint == spec.ScaleBand {
			return spec.ScaleBand
		}
		return spec.ScalePoint
	case spec.Color:
		if numeric {
			return spec.ScaleSequential
		}
		return spec.ScaleOrdinal
	case spec.ShapeCh:
		return spec.ScaleOrdinal
	}
	if numeric {
		return spec.ScaleLinear
	}
	return spec.ScaleOrdinal
}

// numericRange returns the default range for a numeric channel.
// Positions are in abstract [0, 1] units, with y reversed so larger
// values are drawn higher.
func (s *Session) numericRange(base spec.Channel) (lo, hi float64) {
	switch base {
	case spec.Y:
		return 1, 0
	case spec.Size:
		m := math.Min(s.opts.Width, s.opts.Height)
		return m * 0.01, m * 0.1
	case spec.Opacity:
		return 0.1, 1
	}
	return 0, 1
}

// discreteRange returns the default range of an ordinal scale with n
// categories.
func (s *Session) discreteRange(base spec.Channel, n int) []any {
	switch base {
	case spec.Color:
		return stringsToAny(s.opts.Categorical)
	case spec.ShapeCh:
		return stringsToAny(s.opts.Shapes)
	}
	lo, hi := s.numericRange(base)
	out := make([]any, n)
	for i := range out {
		if n == 1 {
			out[i] = (lo + hi) / 2
		} else {
			out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
		}
	}
	return out
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
