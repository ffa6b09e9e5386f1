// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scale maps channel values from a data domain to a visual
// range.
//
// Scales are owned by a Session, which lives for one chart build.
// Marks first feed the values they observe for each channel into the
// session with Observe. Once every mark has been observed, Freeze
// infers each scale's type and domain and builds it. After that the
// session hands out the same Scale for the same Key until it is
// closed.
package scale

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/aclements/go-markres/data"
	"github.com/aclements/go-markres/spec"
)

// A Scale maps domain values to range values.
type Scale interface {
	// Type returns the concrete type of the scale.
	Type() spec.ScaleType

	// Map maps a domain value to a range value. It returns nil if
	// v is outside what the scale can map, such as a category
	// that was never observed or a non-positive value on a log
	// scale.
	Map(v any) any

	// Invert maps a range value back to the domain, if the scale
	// supports it.
	Invert(r any) (any, bool)

	// Domain returns the scale's domain. For continuous scales
	// this is [min, max]; for discrete scales it is the list of
	// categories.
	Domain() []any

	// Range returns the scale's range.
	Range() []any

	// Ticks returns at most n representative domain values for
	// guides.
	Ticks(n int) []any
}

// A Banded scale divides its range into equal bands, one per domain
// value. Map returns the start of a value's band.
type Banded interface {
	Scale
	Bandwidth() float64
}

// Category groups scale types by the kind of domain they accept.
type Category int

const (
	Continuous Category = iota
	Ordinal
	Categorical
	Identity
)

func (c Category) String() string {
	switch c {
	case Continuous:
		return "continuous"
	case Ordinal:
		return "ordinal"
	case Categorical:
		return "categorical"
	case Identity:
		return "identity"
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// CategoryOf returns the category of a scale type.
func CategoryOf(t spec.ScaleType) Category {
	switch t {
	case spec.ScaleLinear, spec.ScaleSqrt, spec.ScalePow, spec.ScaleLog, spec.ScaleSequential:
		return Continuous
	case spec.ScaleBand, spec.ScalePoint:
		return Ordinal
	case spec.ScaleOrdinal:
		return Categorical
	}
	return Identity
}

// isNumber reports whether v is a numeric or time value.
func isNumber(v any) bool {
	switch v.(type) {
	case string, bool, nil:
		return false
	}
	_, ok := data.Float(v)
	return ok
}

// valueKey returns a comparable key that identifies v for discrete
// scales. Numbers of different Go types compare equal if they have
// the same value.
func valueKey(v any) any {
	switch v := v.(type) {
	case nil, string, bool:
		return v
	case time.Time:
		return v.UnixNano()
	}
	if f, ok := data.Float(v); ok {
		if math.IsNaN(f) {
			return "NaN"
		}
		return f
	}
	if t := reflect.TypeOf(v); t.Comparable() {
		return v
	}
	return fmt.Sprint(v)
}

// identity is the pass-through scale.
type identity struct{}

func (identity) Type() spec.ScaleType     { return spec.ScaleIdentity }
func (identity) Map(v any) any            { return v }
func (identity) Invert(r any) (any, bool) { return r, true }
func (identity) Domain() []any            { return nil }
func (identity) Range() []any             { return nil }
func (identity) Ticks(n int) []any        { return nil }

// NewIdentity returns a scale that maps every value to itself.
func NewIdentity() Scale { return identity{} }
