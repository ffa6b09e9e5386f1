// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package diag defines the error taxonomy shared by the resolution
// engine and the non-fatal diagnostics that accompany a resolved
// chart.
//
// Structural problems (an unknown mark kind, conflicting scale types,
// a missing field, an unsupported coordinate transform, a cyclic flow
// graph) are reported as *Error values and abort resolution of the
// offending mark. Data-level anomalies are recovered locally and
// counted in a Diagnostics value instead.
package diag

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Code identifies a class of resolution failure. Codes are stable and
// may be compared by callers.
type Code string

const (
	CodeUnknownMarkKind             Code = "unknown_mark_kind"
	CodeUnknownChannel              Code = "unknown_channel"
	CodeIncompatibleScaleType       Code = "incompatible_scale_type"
	CodeFieldNotFound               Code = "field_not_found"
	CodeUnsupportedTransformForMark Code = "unsupported_transform_for_mark"
	CodeCyclicFlowGraph             Code = "cyclic_flow_graph"
	CodeLayoutDidNotConverge        Code = "layout_did_not_converge"
	CodeInvalidOption               Code = "invalid_option"
)

// Sentinel errors for use with errors.Is. An *Error matches the
// sentinel with the same code.
var (
	UnknownMarkKind             = &Error{Code: CodeUnknownMarkKind}
	UnknownChannel              = &Error{Code: CodeUnknownChannel}
	IncompatibleScaleType       = &Error{Code: CodeIncompatibleScaleType}
	FieldNotFound               = &Error{Code: CodeFieldNotFound}
	UnsupportedTransformForMark = &Error{Code: CodeUnsupportedTransformForMark}
	CyclicFlowGraph             = &Error{Code: CodeCyclicFlowGraph}
	LayoutDidNotConverge        = &Error{Code: CodeLayoutDidNotConverge}
	InvalidOption               = &Error{Code: CodeInvalidOption}
)

// Error is a resolution failure with enough context to locate the
// problem in the mark specification.
type Error struct {
	Code Code

	// Mark is the mark kind being resolved, if known.
	Mark string

	// Channel is the channel involved, if any.
	Channel string

	// Field is the data field involved, if any.
	Field string

	// Detail is a human-readable explanation.
	Detail string

	// Err is an optional underlying cause.
	Err error
}

func (e *Error) Error() string {
	b := new(strings.Builder)
	b.WriteString(string(e.Code))
	if e.Mark != "" {
		fmt.Fprintf(b, " in %s mark", e.Mark)
	}
	if e.Channel != "" {
		fmt.Fprintf(b, " channel %q", e.Channel)
	}
	if e.Field != "" {
		fmt.Fprintf(b, " field %q", e.Field)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Errorf returns a new *Error with the given code and a formatted
// detail message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// WithMark returns a copy of e annotated with the mark kind. It is a
// no-op if e already names a mark.
func (e *Error) WithMark(kind string) *Error {
	if e.Mark != "" {
		return e
	}
	e2 := *e
	e2.Mark = kind
	return &e2
}

// WithChannel returns a copy of e annotated with a channel name.
func (e *Error) WithChannel(ch string) *Error {
	e2 := *e
	e2.Channel = ch
	return &e2
}

// CodeOf returns the code of err if it is (or wraps) an *Error, and
// "" otherwise.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// AnnotateMark attaches the mark kind to err if it is an *Error that
// doesn't name one yet. Other errors are returned unchanged.
func AnnotateMark(err error, kind string) error {
	var e *Error
	if errors.As(err, &e) && e.Mark == "" {
		return e.WithMark(kind)
	}
	return err
}

// Diagnostics accumulates non-fatal anomalies found while resolving a
// mark: values that were missing on some rows, word-cloud items that
// could not be placed, iterative layouts that hit their budget.
//
// A Diagnostics is safe for concurrent use.
type Diagnostics struct {
	mu      sync.Mutex
	missing map[string]int
	dropped int
	notConv []string
}

// AddMissing records n rows whose value for channel was missing.
func (d *Diagnostics) AddMissing(channel string, n int) {
	if n == 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.missing == nil {
		d.missing = make(map[string]int)
	}
	d.missing[channel] += n
}

// AddDropped records n items that a layout could not place.
func (d *Diagnostics) AddDropped(n int) {
	d.mu.Lock()
	d.dropped += n
	d.mu.Unlock()
}

// AddNotConverged records that the named layout stopped at its
// iteration or time budget.
func (d *Diagnostics) AddNotConverged(layout string) {
	d.mu.Lock()
	d.notConv = append(d.notConv, layout)
	d.mu.Unlock()
}

// Missing returns the number of rows with a missing value for channel.
func (d *Diagnostics) Missing(channel string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.missing[channel]
}

// Dropped returns the number of items dropped by layouts.
func (d *Diagnostics) Dropped() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// NotConverged returns the names of layouts that did not converge.
func (d *Diagnostics) NotConverged() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.notConv...)
}

// Empty reports whether no anomalies were recorded.
func (d *Diagnostics) Empty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.missing) == 0 && d.dropped == 0 && len(d.notConv) == 0
}

// Merge adds all anomalies recorded in o to d.
func (d *Diagnostics) Merge(o *Diagnostics) {
	if o == nil || o == d {
		return
	}
	o.mu.Lock()
	missing := make(map[string]int, len(o.missing))
	for k, v := range o.missing {
		missing[k] = v
	}
	dropped, notConv := o.dropped, append([]string(nil), o.notConv...)
	o.mu.Unlock()

	for k, v := range missing {
		d.AddMissing(k, v)
	}
	d.AddDropped(dropped)
	for _, l := range notConv {
		d.AddNotConverged(l)
	}
}

func (d *Diagnostics) String() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var parts []string
	keys := make([]string, 0, len(d.missing))
	for k := range d.missing {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("missing %s=%d", k, d.missing[k]))
	}
	if d.dropped > 0 {
		parts = append(parts, fmt.Sprintf("dropped=%d", d.dropped))
	}
	for _, l := range d.notConv {
		parts = append(parts, fmt.Sprintf("%s did not converge", l))
	}
	if len(parts) == 0 {
		return "ok"
	}
	return strings.Join(parts, ", ")
}
