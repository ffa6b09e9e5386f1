// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package layout

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/aclements/go-markres/data"
	"github.com/aclements/go-markres/diag"
	"github.com/aclements/go-markres/spec"
)

// HNode is a node of a hierarchy built by Stratify.
type HNode struct {
	ID    string
	Name  string
	Datum data.Row
	Row   int

	// Value is the node's weight. For internal nodes it is the sum
	// of the children's values.
	Value float64

	Depth  int
	Height int

	Parent   *HNode
	Children []*HNode

	x0, y0, x1, y1 float64
	x, y, r        float64
}

// Leaf reports whether n has no children.
func (n *HNode) Leaf() bool { return len(n.Children) == 0 }

// Each calls f on n and its descendants in pre-order.
func (n *HNode) Each(f func(*HNode)) {
	f(n)
	for _, c := range n.Children {
		c.Each(f)
	}
}

// eachAfter calls f on n and its descendants in post-order.
func (n *HNode) eachAfter(f func(*HNode)) {
	for _, c := range n.Children {
		c.eachAfter(f)
	}
	f(n)
}

// Stratify builds a hierarchy from the rows of ds as described by h.
// It returns nil if ds is empty. Multiple top-level nodes are placed
// under a synthesized root.
//
// Leaf weights come from value; an internal node's value is the sum of
// its children's. Non-positive and NaN weights count as 0. Siblings
// keep their input order unless order is one of the spec.Sort*
// constants.
func Stratify(ds *data.Dataset, h spec.Hierarchy, value ValueFunc, order string) (*HNode, error) {
	if ds.Len() == 0 {
		return nil, nil
	}
	var roots []*HNode
	var err error
	switch {
	case h.ID != "":
		roots, err = stratifyID(ds, h)
	case h.Path != "":
		roots, err = stratifyPath(ds, h)
	default:
		roots, err = stratifyNested(ds, h)
	}
	if err != nil {
		return nil, err
	}

	root := roots[0]
	if len(roots) > 1 {
		root = &HNode{Row: -1, Children: roots}
		for _, c := range roots {
			c.Parent = root
		}
	}
	root.Each(func(n *HNode) {
		if n.Parent != nil {
			n.Depth = n.Parent.Depth + 1
		}
	})
	root.eachAfter(func(n *HNode) {
		if n.Leaf() {
			if value != nil && n.Datum != nil {
				n.Value = value(n.Datum, n.Row)
			}
			if !(n.Value > 0) || math.IsInf(n.Value, 1) {
				n.Value = 0
			}
			return
		}
		n.Value = 0
		for _, c := range n.Children {
			n.Value += c.Value
			if c.Height+1 > n.Height {
				n.Height = c.Height + 1
			}
		}
	})
	if less := siblingOrder(order); less != nil {
		root.Each(func(n *HNode) {
			sort.SliceStable(n.Children, func(i, j int) bool { return less(n.Children[i], n.Children[j]) })
		})
	}
	return root, nil
}

func siblingOrder(order string) func(a, b *HNode) bool {
	switch order {
	case spec.SortValueDesc:
		return func(a, b *HNode) bool { return a.Value > b.Value }
	case spec.SortValueAsc:
		return func(a, b *HNode) bool { return a.Value < b.Value }
	case spec.SortNameAsc:
		return func(a, b *HNode) bool { return a.Name < b.Name }
	}
	return nil
}

func str(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func hierarchyError(format string, args ...any) error {
	return diag.Errorf(diag.CodeInvalidOption, format, args...)
}

func stratifyID(ds *data.Dataset, h spec.Hierarchy) ([]*HNode, error) {
	nodes := make([]*HNode, ds.Len())
	byID := make(map[string]*HNode, ds.Len())
	for i, row := range ds.Rows() {
		id := str(row[h.ID])
		if id == "" {
			return nil, hierarchyError("row %d has no %q", i, h.ID)
		}
		if _, dup := byID[id]; dup {
			return nil, hierarchyError("duplicate id %q", id)
		}
		n := &HNode{ID: id, Name: id, Datum: row, Row: i}
		if name := str(row[h.Name]); name != "" {
			n.Name = name
		}
		nodes[i] = n
		byID[id] = n
	}
	var roots []*HNode
	for i, n := range nodes {
		pid := str(ds.Row(i)[h.ParentID])
		if pid == "" {
			roots = append(roots, n)
			continue
		}
		p, ok := byID[pid]
		if !ok {
			return nil, hierarchyError("node %q has missing parent %q", n.ID, pid)
		}
		n.Parent = p
		p.Children = append(p.Children, n)
	}
	// Every node must be reachable from a root.
	reached := 0
	for _, r := range roots {
		r.Each(func(*HNode) { reached++ })
	}
	if len(roots) == 0 || reached != len(nodes) {
		return nil, hierarchyError("hierarchy has a cycle")
	}
	return roots, nil
}

func stratifyPath(ds *data.Dataset, h spec.Hierarchy) ([]*HNode, error) {
	byPath := make(map[string]*HNode)
	var roots []*HNode
	var node func(path []string) *HNode
	node = func(path []string) *HNode {
		id := strings.Join(path, h.Delimiter)
		if n, ok := byPath[id]; ok {
			return n
		}
		n := &HNode{ID: id, Name: path[len(path)-1], Row: -1}
		byPath[id] = n
		if len(path) == 1 {
			roots = append(roots, n)
		} else {
			p := node(path[:len(path)-1])
			n.Parent = p
			p.Children = append(p.Children, n)
		}
		return n
	}
	for i, row := range ds.Rows() {
		p := strings.Trim(str(row[h.Path]), h.Delimiter)
		if p == "" {
			return nil, hierarchyError("row %d has no %q", i, h.Path)
		}
		n := node(strings.Split(p, h.Delimiter))
		if n.Datum != nil {
			return nil, hierarchyError("duplicate path %q", p)
		}
		n.Datum, n.Row = row, i
		if name := str(row[h.Name]); name != "" {
			n.Name = name
		}
	}
	return roots, nil
}

// stratifyNested builds a hierarchy from rows carrying nested child
// rows. Rows without children become leaves.
func stratifyNested(ds *data.Dataset, h spec.Hierarchy) ([]*HNode, error) {
	var build func(row data.Row, i int, id string, depth int) (*HNode, error)
	build = func(row data.Row, i int, id string, depth int) (*HNode, error) {
		if depth > 1000 {
			return nil, hierarchyError("hierarchy too deep")
		}
		n := &HNode{ID: id, Name: str(row[h.Name]), Datum: row, Row: i}
		if n.Name == "" {
			n.Name = id
		}
		kids, err := childRows(row[h.Children])
		if err != nil {
			return nil, hierarchyError("node %q: %v", id, err)
		}
		for j, k := range kids {
			c, err := build(k, -1, fmt.Sprintf("%s/%d", id, j), depth+1)
			if err != nil {
				return nil, err
			}
			c.Parent = n
			n.Children = append(n.Children, c)
		}
		return n, nil
	}
	var roots []*HNode
	for i, row := range ds.Rows() {
		n, err := build(row, i, fmt.Sprint(i), 0)
		if err != nil {
			return nil, err
		}
		roots = append(roots, n)
	}
	return roots, nil
}

func childRows(v any) ([]data.Row, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case []data.Row:
		return v, nil
	case []map[string]any:
		out := make([]data.Row, len(v))
		for i, r := range v {
			out[i] = r
		}
		return out, nil
	case []any:
		out := make([]data.Row, 0, len(v))
		for _, x := range v {
			switch r := x.(type) {
			case data.Row:
				out = append(out, r)
			case map[string]any:
				out = append(out, r)
			default:
				return nil, fmt.Errorf("child of type %T is not a row", x)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("children of type %T are not rows", v)
}

// flatten returns the nodes of root in pre-order as layout nodes, with
// parent links and tree edges.
func flatten(root *HNode, links bool) *Result {
	r := &Result{Converged: true}
	index := make(map[*HNode]int)
	root.Each(func(n *HNode) {
		parent := -1
		if n.Parent != nil {
			parent = index[n.Parent]
		}
		index[n] = len(r.Nodes)
		r.Nodes = append(r.Nodes, Node{
			ID:     n.ID,
			Name:   n.Name,
			Datum:  n.Datum,
			Row:    n.Row,
			Parent: parent,
			Depth:  n.Depth,
			Height: n.Height,
			Leaf:   n.Leaf(),
			Value:  n.Value,
			X:      n.x,
			Y:      n.y,
			X0:     n.x0,
			Y0:     n.y0,
			X1:     n.x1,
			Y1:     n.y1,
			R:      n.r,
		})
		if links && parent >= 0 {
			r.Links = append(r.Links, Link{Source: parent, Target: index[n], Row: -1, Value: n.Value})
		}
	})
	return r
}
