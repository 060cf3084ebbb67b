// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package depgraph

import (
	"fmt"
	"strings"
)

// Edge is one directed dependency edge in serialized form.
type Edge struct {
	// From is the dependent artifact.
	From string `json:"from"`

	// To is the dependency it requires.
	To string `json:"to"`
}

// Export is the serializable form of a graph. Nodes and edges are sorted,
// so exporting the same graph always yields the same document.
type Export struct {
	Nodes []string `json:"nodes"`
	Edges []Edge   `json:"edges"`
}

// Export renders the graph into its serializable form.
func (g *Graph) Export() Export {
	export := Export{
		Nodes: g.Nodes(),
		Edges: make([]Edge, 0, g.EdgeCount()),
	}
	for _, node := range export.Nodes {
		for _, dep := range g.Successors(node) {
			export.Edges = append(export.Edges, Edge{From: node, To: dep})
		}
	}
	return export
}

// FromExport reconstructs a graph from its serialized form. The result is
// structurally identical to the graph that produced the export.
func FromExport(export Export) *Graph {
	g := New()
	for _, node := range export.Nodes {
		g.AddNode(node)
	}
	for _, edge := range export.Edges {
		g.AddEdge(edge.From, edge.To)
	}
	return g
}

// DOT renders the graph in Graphviz dot syntax for visual inspection.
// Node names are quoted, so arbitrary artifact names are safe.
func (g *Graph) DOT() string {
	var b strings.Builder
	b.WriteString("digraph dependencies {\n")
	b.WriteString("  rankdir=LR;\n")
	for _, node := range g.Nodes() {
		fmt.Fprintf(&b, "  %q;\n", node)
	}
	for _, node := range g.Nodes() {
		for _, dep := range g.Successors(node) {
			fmt.Fprintf(&b, "  %q -> %q;\n", node, dep)
		}
	}
	b.WriteString("}\n")
	return b.String()
}
