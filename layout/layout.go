// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package layout implements the layout algorithms of structured mark
// kinds: treemap, pack, tree, sankey, force graph, and word cloud.
//
// Every layout positions nodes (and, for graph kinds, links) in the
// abstract unit square, where x and y run from 0 to 1 and y grows
// downward. Layouts are pure functions of their input. They accept
// empty input, producing an empty Result, and may be re-run freely.
package layout

import (
	"github.com/aclements/go-markres/data"
)

// Node is one positioned node of a layout.
type Node struct {
	// ID identifies the node within the layout: a hierarchy id or
	// path, a graph node name, or a word.
	ID   string
	Name string

	// Datum is the data row behind the node. It is nil for nodes
	// the layout synthesized, such as implicit hierarchy roots.
	Datum data.Row

	// Row is the index of Datum in the input dataset, or -1 if
	// the node does not come from a top-level row.
	Row int

	// Parent is the index of the parent node in Result.Nodes, or
	// -1 for roots and non-hierarchical nodes.
	Parent int

	Depth  int
	Height int
	Leaf   bool
	Value  float64

	// X and Y are the node's center.
	X, Y float64

	// X0, Y0, X1, Y1 bound the node.
	X0, Y0, X1, Y1 float64

	// R is the radius of circular nodes.
	R float64

	// FontSize and Rotate are set by the word cloud layout.
	// Rotate is in degrees.
	FontSize float64
	Rotate   float64
}

// Link is one positioned link of a layout.
type Link struct {
	// Source and Target are indices into Result.Nodes.
	Source, Target int

	Datum data.Row
	Row   int
	Value float64

	// Width is the link's breadth in a sankey layout.
	Width float64

	// Y0 and Y1 are the vertical centers of a sankey link at its
	// source and target ends.
	Y0, Y1 float64
}

// Result is the output of a layout.
type Result struct {
	Nodes []Node
	Links []Link

	// Dropped counts input items the layout could not place.
	Dropped int

	// Converged is false if an iterative layout stopped at its
	// iteration or time budget.
	Converged bool

	// Iterations is the number of iterations an iterative layout
	// ran.
	Iterations int
}

func empty() *Result { return &Result{Converged: true} }

// ValueFunc returns the weight of a data row. i is the row's index in
// the input dataset, or -1 for nested rows.
type ValueFunc func(d data.Row, i int) float64

// Graph is the relational input of the sankey and force layouts.
type Graph struct {
	Nodes []GraphNode
	Links []GraphLink

	index map[string]int
}

// GraphNode is a node of a Graph.
type GraphNode struct {
	ID    string
	Row   int
	Datum data.Row
}

// GraphLink is a link of a Graph. Source and Target are indices into
// Graph.Nodes.
type GraphLink struct {
	Source, Target int
	Value          float64
	Row            int
	Datum          data.Row
}

// AddNode adds a node named id, if not already present, and returns
// its index. A node first created implicitly by a link takes the row
// and datum of a later explicit declaration.
func (g *Graph) AddNode(id string, row int, datum data.Row) int {
	if g.index == nil {
		g.index = make(map[string]int)
	}
	if i, ok := g.index[id]; ok {
		if g.Nodes[i].Datum == nil && datum != nil {
			g.Nodes[i].Row, g.Nodes[i].Datum = row, datum
		}
		return i
	}
	g.index[id] = len(g.Nodes)
	g.Nodes = append(g.Nodes, GraphNode{ID: id, Row: row, Datum: datum})
	return len(g.Nodes) - 1
}

// AddLink adds a link from source to target, creating the endpoints
// in first-seen order.
func (g *Graph) AddLink(source, target string, value float64, row int, datum data.Row) {
	s := g.AddNode(source, -1, nil)
	t := g.AddNode(target, -1, nil)
	g.Links = append(g.Links, GraphLink{Source: s, Target: t, Value: value, Row: row, Datum: datum})
}

// graphResult builds the node and link lists shared by the graph
// layouts. Node positions are filled in by the caller.
func graphResult(g *Graph) *Result {
	r := &Result{Converged: true}
	r.Nodes = make([]Node, len(g.Nodes))
	for i, n := range g.Nodes {
		r.Nodes[i] = Node{ID: n.ID, Name: n.ID, Datum: n.Datum, Row: n.Row, Parent: -1}
	}
	r.Links = make([]Link, len(g.Links))
	for i, l := range g.Links {
		r.Links[i] = Link{Source: l.Source, Target: l.Target, Datum: l.Datum, Row: l.Row, Value: l.Value}
	}
	return r
}
