// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package data provides the resolved dataset consumed by the
// resolution engine: an ordered sequence of rows plus column
// descriptors.
//
// A Dataset is produced upstream (by loading and transforming data)
// and is read-only once constructed.
package data

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/goccy/go-json"
)

// Row is a single datum, mapping field names to primitive values.
type Row map[string]any

// ColumnType is the inferred type of a column.
type ColumnType int

const (
	Unknown ColumnType = iota
	Number
	String
	Bool
	Time
	Mixed
)

func (t ColumnType) String() string {
	switch t {
	case Number:
		return "number"
	case String:
		return "string"
	case Bool:
		return "bool"
	case Time:
		return "time"
	case Mixed:
		return "mixed"
	}
	return "unknown"
}

// Column describes one field of a dataset.
type Column struct {
	Name string
	Type ColumnType
}

// Dataset is an ordered sequence of rows with column descriptors.
type Dataset struct {
	rows  []Row
	cols  []Column
	index map[string]int
}

// New returns a Dataset over rows. Columns are inferred: their order
// is the order in which fields are first seen (fields first seen in
// the same row are sorted by name), and their types are inferred from
// all non-nil values.
func New(rows []Row) *Dataset {
	d := &Dataset{rows: rows, index: make(map[string]int)}
	for _, r := range rows {
		var fresh []string
		for k := range r {
			if _, ok := d.index[k]; !ok {
				fresh = append(fresh, k)
			}
		}
		sort.Strings(fresh)
		for _, k := range fresh {
			d.index[k] = len(d.cols)
			d.cols = append(d.cols, Column{Name: k})
		}
	}
	for i := range d.cols {
		d.cols[i].Type = d.inferType(d.cols[i].Name)
	}
	return d
}

// NewWithColumns returns a Dataset with explicitly declared columns.
// Fields of rows that are not declared are not considered columns.
func NewWithColumns(rows []Row, cols []Column) *Dataset {
	d := &Dataset{rows: rows, cols: append([]Column(nil), cols...), index: make(map[string]int)}
	for i, c := range d.cols {
		d.index[c.Name] = i
	}
	return d
}

func (d *Dataset) inferType(name string) ColumnType {
	t := Unknown
	for _, r := range d.rows {
		v, ok := r[name]
		if !ok || v == nil {
			continue
		}
		var vt ColumnType
		switch v.(type) {
		case string:
			vt = String
		case bool:
			vt = Bool
		case time.Time:
			vt = Time
		default:
			if _, ok := Float(v); ok {
				vt = Number
			} else {
				vt = Mixed
			}
		}
		if t == Unknown {
			t = vt
		} else if t != vt {
			return Mixed
		}
	}
	return t
}

// Len returns the number of rows in d. A nil Dataset is empty.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.rows)
}

// Row returns the i'th row.
func (d *Dataset) Row(i int) Row { return d.rows[i] }

// Rows returns all rows. The caller must not modify the result.
func (d *Dataset) Rows() []Row {
	if d == nil {
		return nil
	}
	return d.rows
}

// Columns returns the column descriptors of d.
func (d *Dataset) Columns() []Column {
	if d == nil {
		return nil
	}
	return append([]Column(nil), d.cols...)
}

// Column returns the descriptor for the named column.
func (d *Dataset) Column(name string) (Column, bool) {
	if d == nil {
		return Column{}, false
	}
	i, ok := d.index[name]
	if !ok {
		return Column{}, false
	}
	return d.cols[i], true
}

// Has reports whether d has a column called name.
func (d *Dataset) Has(name string) bool {
	_, ok := d.Column(name)
	return ok
}

// Value returns row i's value for field and whether it was present.
func (d *Dataset) Value(i int, field string) (any, bool) {
	v, ok := d.rows[i][field]
	return v, ok && v != nil
}

// Float converts a primitive numeric value to float64.
func Float(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case time.Time:
		return float64(v.UnixMilli()), true
	}
	return math.NaN(), false
}

// Decode reads a JSON array of objects from r.
func Decode(r io.Reader) (*Dataset, error) {
	var rows []Row
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decoding dataset: %w", err)
	}
	return New(rows), nil
}

// Unmarshal parses a JSON array of objects.
func Unmarshal(b []byte) (*Dataset, error) {
	var rows []Row
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("decoding dataset: %w", err)
	}
	return New(rows), nil
}
