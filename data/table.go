// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package data

import (
	"fmt"
	"math"
	"reflect"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/table"
)

// FromTable converts a go-gg table into a Dataset. Numeric columns of
// any element type become float64 values; other columns keep their
// element values.
func FromTable(t *table.Table) (*Dataset, error) {
	names := t.Columns()
	n := t.Len()
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = make(Row, len(names))
	}
	cols := make([]Column, 0, len(names))
	for _, name := range names {
		seq := t.MustColumn(name)
		sv := reflect.ValueOf(seq)
		if sv.Kind() != reflect.Slice {
			return nil, fmt.Errorf("column %q is %T, not a slice", name, seq)
		}
		if isNumericKind(sv.Type().Elem().Kind()) {
			var xs []float64
			slice.Convert(&xs, seq)
			for i, x := range xs {
				rows[i][name] = x
			}
			cols = append(cols, Column{Name: name, Type: Number})
			continue
		}
		for i := 0; i < n; i++ {
			rows[i][name] = sv.Index(i).Interface()
		}
		cols = append(cols, Column{Name: name})
	}
	d := NewWithColumns(rows, cols)
	for i := range d.cols {
		if d.cols[i].Type == Unknown {
			d.cols[i].Type = d.inferType(d.cols[i].Name)
		}
	}
	return d, nil
}

// ToTable converts d into a go-gg table. Number columns become
// []float64 (missing values are NaN), String columns []string, and
// every other column []interface{}.
func (d *Dataset) ToTable() *table.Table {
	b := new(table.Builder)
	for _, c := range d.cols {
		switch c.Type {
		case Number:
			xs := make([]float64, len(d.rows))
			for i, r := range d.rows {
				x, ok := Float(r[c.Name])
				if !ok {
					x = math.NaN()
				}
				xs[i] = x
			}
			b.Add(c.Name, xs)
		case String:
			ss := make([]string, len(d.rows))
			for i, r := range d.rows {
				ss[i], _ = r[c.Name].(string)
			}
			b.Add(c.Name, ss)
		default:
			vs := make([]interface{}, len(d.rows))
			for i, r := range d.rows {
				vs[i] = r[c.Name]
			}
			b.Add(c.Name, vs)
		}
	}
	return b.Done()
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
