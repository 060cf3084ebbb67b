// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package depgraph builds and analyzes the directed dependency graph of a
// mod collection.
//
// Nodes are artifact names plus any externally-named dependencies that
// appear only as edge endpoints (placeholder nodes). Edges point from
// dependent to dependency and carry set semantics: adding the same edge
// twice is a no-op. Self-edges are legal input and are reported as
// one-node cycles by the analyzer.
//
// The graph is built fresh per analysis. All analyzer queries are
// read-only and deterministic: ties between unordered nodes are always
// broken by ascending name, so repeated runs over the same input produce
// identical output.
package depgraph

import "sort"

// Graph is a directed dependency graph over string-named nodes.
//
// Thread Safety: not safe for concurrent mutation. Build the graph fully,
// then query from any number of goroutines.
type Graph struct {
	nodes map[string]struct{}

	// successors maps dependent -> set of dependencies.
	successors map[string]map[string]struct{}

	// predecessors maps dependency -> set of dependents.
	predecessors map[string]map[string]struct{}

	edgeCount int
}

// New creates an empty dependency graph.
func New() *Graph {
	return &Graph{
		nodes:        make(map[string]struct{}),
		successors:   make(map[string]map[string]struct{}),
		predecessors: make(map[string]map[string]struct{}),
	}
}

// Build assembles a graph from a name -> dependency-list mapping.
//
// Every key becomes a node; every listed dependency becomes an edge, with
// unknown endpoints auto-created as placeholder nodes.
func Build(dependencies map[string][]string) *Graph {
	g := New()
	for name, deps := range dependencies {
		g.AddNode(name)
		for _, dep := range deps {
			g.AddEdge(name, dep)
		}
	}
	return g
}

// AddNode adds a node. Adding an existing node is a no-op.
func (g *Graph) AddNode(name string) {
	g.nodes[name] = struct{}{}
}

// AddEdge adds a directed edge from dependent to dependency.
//
// Either endpoint is auto-created as a placeholder node if absent.
// Duplicate edges are ignored; self-edges are representable.
func (g *Graph) AddEdge(dependent, dependency string) {
	g.AddNode(dependent)
	g.AddNode(dependency)

	succ, ok := g.successors[dependent]
	if !ok {
		succ = make(map[string]struct{})
		g.successors[dependent] = succ
	}
	if _, dup := succ[dependency]; dup {
		return
	}
	succ[dependency] = struct{}{}

	pred, ok := g.predecessors[dependency]
	if !ok {
		pred = make(map[string]struct{})
		g.predecessors[dependency] = pred
	}
	pred[dependent] = struct{}{}

	g.edgeCount++
}

// HasNode reports whether the node exists.
func (g *Graph) HasNode(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// HasEdge reports whether the edge exists.
func (g *Graph) HasEdge(dependent, dependency string) bool {
	_, ok := g.successors[dependent][dependency]
	return ok
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int { return g.edgeCount }

// Nodes returns all node names in ascending order.
func (g *Graph) Nodes() []string {
	return sortedKeys(g.nodes)
}

// Successors returns the direct dependencies of a node, in ascending
// order. Unknown nodes yield an empty slice.
func (g *Graph) Successors(name string) []string {
	return sortedKeys(g.successors[name])
}

// Predecessors returns the direct dependents of a node, in ascending
// order. Unknown nodes yield an empty slice.
func (g *Graph) Predecessors(name string) []string {
	return sortedKeys(g.predecessors[name])
}

// OutDegree returns the number of dependencies of a node.
func (g *Graph) OutDegree(name string) int {
	return len(g.successors[name])
}

// InDegree returns the number of dependents of a node.
func (g *Graph) InDegree(name string) int {
	return len(g.predecessors[name])
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
