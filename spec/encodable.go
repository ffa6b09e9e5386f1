// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spec

import (
	"fmt"

	"github.com/aclements/go-markres/data"
)

// EncodableKind distinguishes the variants of an Encodable.
type EncodableKind int

const (
	// None is the zero Encodable, meaning "not encoded".
	None EncodableKind = iota
	ConstKind
	FieldKind
	ComputeKind
)

// Func computes a value for datum d, the i'th row of ds. col
// describes the column being produced.
type Func func(d data.Row, i int, ds *data.Dataset, col data.Column) any

// An Encodable is a literal constant, a reference to a data field, or
// a per-datum function. Construct one with Const, Field, or Compute.
type Encodable struct {
	kind  EncodableKind
	value any
	field string
	fn    Func
}

// Const returns an Encodable that yields v for every datum.
func Const(v any) Encodable { return Encodable{kind: ConstKind, value: v} }

// Field returns an Encodable that looks up name in every datum.
func Field(name string) Encodable { return Encodable{kind: FieldKind, field: name} }

// Compute returns an Encodable that calls fn for every datum.
func Compute(fn Func) Encodable { return Encodable{kind: ComputeKind, fn: fn} }

// Kind returns which variant e is.
func (e Encodable) Kind() EncodableKind { return e.kind }

// IsZero reports whether e is the zero Encodable.
func (e Encodable) IsZero() bool { return e.kind == None }

// Value returns the literal of a ConstKind Encodable.
func (e Encodable) Value() any { return e.value }

// FieldName returns the field of a FieldKind Encodable.
func (e Encodable) FieldName() string { return e.field }

// Func returns the function of a ComputeKind Encodable.
func (e Encodable) Func() Func { return e.fn }

func (e Encodable) String() string {
	switch e.kind {
	case ConstKind:
		return fmt.Sprintf("const(%v)", e.value)
	case FieldKind:
		return fmt.Sprintf("field(%s)", e.field)
	case ComputeKind:
		return "compute"
	}
	return "none"
}
