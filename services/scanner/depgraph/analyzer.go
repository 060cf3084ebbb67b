// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package depgraph

import (
	"container/heap"

	"github.com/simscan/simscan/services/scanner/model"
)

// =============================================================================
// Cycles
// =============================================================================

// HasCycles reports whether the graph contains at least one directed cycle
// (including self-loops).
func (g *Graph) HasCycles() bool {
	_, ok := g.TopologicalSort()
	return !ok
}

// DetectCycles enumerates all elementary cycles in the graph.
//
// Description:
//
//	Each cycle is an ordered node list walking the cycle exactly once;
//	self-loops appear as one-element cycles. A cycle is discovered from
//	its lexicographically smallest node, so every elementary cycle is
//	reported exactly once and the output order is deterministic.
//
//	The search is a bounded DFS: the current path acts as a blocked set,
//	and only nodes ordered at or after the root are visited, so the walk
//	terminates even on densely cyclic graphs.
//
// Outputs:
//
//	[][]string - All elementary cycles, ordered by root node.
//
// Thread Safety: Safe for concurrent use once building is done.
func (g *Graph) DetectCycles() [][]string {
	var cycles [][]string

	roots := g.Nodes()
	onPath := make(map[string]bool, len(g.nodes))
	var path []string

	var visit func(root, node string)
	visit = func(root, node string) {
		onPath[node] = true
		path = append(path, node)

		for _, next := range g.Successors(node) {
			if next == root {
				cycle := make([]string, len(path))
				copy(cycle, path)
				cycles = append(cycles, cycle)
				continue
			}
			// Restricting the walk to nodes after the root guarantees
			// each cycle is found only from its smallest member.
			if next < root || onPath[next] {
				continue
			}
			visit(root, next)
		}

		path = path[:len(path)-1]
		onPath[node] = false
	}

	for _, root := range roots {
		visit(root, root)
	}
	return cycles
}

// =============================================================================
// Topological Sort
// =============================================================================

// TopologicalSort returns a load order in which every dependency appears
// before all of its dependents.
//
// Description:
//
//	Kahn's algorithm over the dependency relation: a node becomes ready
//	once all of its dependencies are placed. Ties between ready nodes
//	are broken by ascending name, making the order deterministic for a
//	given graph.
//
// Outputs:
//
//	[]string - The order, nil when the graph has cycles.
//	bool - False when the graph has cycles.
func (g *Graph) TopologicalSort() ([]string, bool) {
	remaining := make(map[string]int, len(g.nodes))
	ready := &stringHeap{}
	for node := range g.nodes {
		deg := len(g.successors[node])
		remaining[node] = deg
		if deg == 0 {
			heap.Push(ready, node)
		}
	}

	order := make([]string, 0, len(g.nodes))
	for ready.Len() > 0 {
		node := heap.Pop(ready).(string)
		order = append(order, node)
		for dependent := range g.predecessors[node] {
			remaining[dependent]--
			if remaining[dependent] == 0 {
				heap.Push(ready, dependent)
			}
		}
	}

	if len(order) != len(g.nodes) {
		return nil, false
	}
	return order, true
}

// stringHeap is a lexicographic min-heap of node names.
type stringHeap []string

func (h stringHeap) Len() int            { return len(h) }
func (h stringHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h stringHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *stringHeap) Push(x any)         { *h = append(*h, x.(string)) }
func (h *stringHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// =============================================================================
// Reachability
// =============================================================================

// FindDependencies returns every node reachable from the given node by
// following dependent -> dependency edges, excluding the node itself.
// The result is sorted ascending. Unknown nodes yield an empty slice.
func (g *Graph) FindDependencies(name string) []string {
	return g.reach(name, g.successors)
}

// FindDependents returns every node that can reach the given node, i.e.
// everything that transitively depends on it. The result is sorted
// ascending. Unknown nodes yield an empty slice.
func (g *Graph) FindDependents(name string) []string {
	return g.reach(name, g.predecessors)
}

// reach performs a BFS over the given adjacency and returns the visited
// set minus the start node, sorted.
func (g *Graph) reach(start string, adjacency map[string]map[string]struct{}) []string {
	if !g.HasNode(start) {
		return []string{}
	}

	visited := map[string]struct{}{start: {}}
	queue := []string{start}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for next := range adjacency[node] {
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}

	delete(visited, start)
	return sortedKeys(visited)
}

// =============================================================================
// Impact Analysis
// =============================================================================

// Impact describes the consequences of removing a node from the collection.
type Impact struct {
	// Node is the candidate for removal.
	Node string `json:"node"`

	// WillBreak is the number of artifacts that would lose a transitive
	// dependency.
	WillBreak int `json:"will_break"`

	// Affected lists the broken artifacts, sorted ascending.
	Affected []string `json:"affected"`
}

// ImpactOfRemoval computes which artifacts would break if the node were
// removed: exactly its transitive dependents.
func (g *Graph) ImpactOfRemoval(name string) Impact {
	affected := g.FindDependents(name)
	return Impact{
		Node:      name,
		WillBreak: len(affected),
		Affected:  affected,
	}
}

// =============================================================================
// Missing Dependencies
// =============================================================================

// MissingDependency is one edge whose dependency endpoint is not installed.
type MissingDependency struct {
	// Dependent is the artifact declaring the dependency.
	Dependent string `json:"dependent"`

	// Dependency is the name that is not in the known set.
	Dependency string `json:"dependency"`
}

// FindMissingDependencies returns every edge whose dependency endpoint is
// absent from the known-name set. Output is ordered by dependent, then
// dependency; edges are already deduplicated by construction.
func (g *Graph) FindMissingDependencies(known map[string]struct{}) []MissingDependency {
	var missing []MissingDependency
	for _, node := range g.Nodes() {
		for _, dep := range g.Successors(node) {
			if _, ok := known[dep]; !ok {
				missing = append(missing, MissingDependency{
					Dependent:  node,
					Dependency: dep,
				})
			}
		}
	}
	return missing
}

// =============================================================================
// Load Order Validation
// =============================================================================

// LoadOrderIssue flags one artifact loading in a suboptimal position.
type LoadOrderIssue struct {
	// Node is the affected artifact.
	Node string `json:"node"`

	// CurrentPosition is the 1-indexed position in the actual order.
	CurrentPosition int `json:"current_position"`

	// OptimalPosition is the 1-indexed position in the computed order.
	OptimalPosition int `json:"optimal_position"`

	// Reason explains why the position is a problem.
	Reason string `json:"reason"`

	// Severity bands on the positional distance; a hard dependency-order
	// violation is reported with its own reason regardless of distance.
	Severity model.Severity `json:"severity"`
}

// LoadOrderIssues compares an actual load order against the optimal
// topological order.
//
// Description:
//
//	Returns one issue per node that is out of position or that loads
//	before one of its direct dependencies. The latter is a hard
//	violation: its reason text takes precedence over the positional
//	one. When the graph has cycles no optimal order exists and the
//	result is empty. Nodes absent from either order are skipped.
func (g *Graph) LoadOrderIssues(actual []string) []LoadOrderIssue {
	optimal, ok := g.TopologicalSort()
	if !ok {
		return nil
	}

	optimalIndex := make(map[string]int, len(optimal))
	for i, node := range optimal {
		optimalIndex[node] = i
	}
	actualIndex := make(map[string]int, len(actual))
	for i, node := range actual {
		actualIndex[node] = i
	}

	var issues []LoadOrderIssue
	for i, node := range actual {
		opt, inOptimal := optimalIndex[node]
		if !inOptimal {
			continue
		}

		// A node must load after every direct dependency present in the
		// actual order.
		violated := false
		for _, dep := range g.Successors(node) {
			depPos, present := actualIndex[dep]
			if present && i <= depPos {
				violated = true
				break
			}
		}

		currentPos := i + 1
		optimalPos := opt + 1
		if currentPos == optimalPos && !violated {
			continue
		}

		var reason string
		switch {
		case violated:
			reason = "loads before its dependency"
		case optimalPos < currentPos:
			reason = "loads after its dependents"
		default:
			reason = "loads before its dependencies"
		}

		issues = append(issues, LoadOrderIssue{
			Node:            node,
			CurrentPosition: currentPos,
			OptimalPosition: optimalPos,
			Reason:          reason,
			Severity:        positionSeverity(abs(currentPos - optimalPos)),
		})
	}
	return issues
}

// positionSeverity bands the positional distance: up to 5 LOW, 6-20
// MEDIUM, above 20 HIGH.
func positionSeverity(distance int) model.Severity {
	switch {
	case distance > 20:
		return model.SeverityHigh
	case distance > 5:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// =============================================================================
// Statistics
// =============================================================================

// Statistics summarizes the graph for reports.
type Statistics struct {
	// TotalNodes is the number of nodes, placeholders included.
	TotalNodes int `json:"total_nodes"`

	// TotalEdges is the number of distinct dependency edges.
	TotalEdges int `json:"total_edges"`

	// HasCycles reports whether any circular dependency exists.
	HasCycles bool `json:"has_cycles"`

	// CycleCount is the number of elementary cycles.
	CycleCount int `json:"cycle_count"`

	// IsolatedNodes counts nodes with no dependencies and no dependents.
	IsolatedNodes int `json:"isolated_nodes"`

	// MostDependedOn is the node with the most transitive dependents,
	// empty for an empty graph. Ties break by ascending name.
	MostDependedOn string `json:"most_depended_on,omitempty"`

	// MostDependedOnCount is the dependent count for MostDependedOn.
	MostDependedOnCount int `json:"most_depended_on_count,omitempty"`
}

// Stats computes summary statistics for the graph.
func (g *Graph) Stats() Statistics {
	stats := Statistics{
		TotalNodes: g.NodeCount(),
		TotalEdges: g.EdgeCount(),
	}
	stats.CycleCount = len(g.DetectCycles())
	stats.HasCycles = stats.CycleCount > 0

	for _, node := range g.Nodes() {
		if g.InDegree(node) == 0 && g.OutDegree(node) == 0 {
			stats.IsolatedNodes++
		}
		dependents := len(g.FindDependents(node))
		if dependents > stats.MostDependedOnCount {
			stats.MostDependedOn = node
			stats.MostDependedOnCount = dependents
		}
	}
	return stats
}
