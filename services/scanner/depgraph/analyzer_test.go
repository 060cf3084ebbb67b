// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simscan/simscan/services/scanner/model"
)

func TestTopologicalSort_Chain(t *testing.T) {
	// A depends on B, B depends on C: C must load first.
	g := Build(map[string][]string{
		"A": {"B"},
		"B": {"C"},
	})

	order, ok := g.TopologicalSort()
	require.True(t, ok)
	assert.Equal(t, []string{"C", "B", "A"}, order)
}

func TestTopologicalSort_DependencyBeforeDependent(t *testing.T) {
	g := Build(map[string][]string{
		"app":    {"lib1", "lib2"},
		"lib1":   {"base"},
		"lib2":   {"base"},
		"plugin": {"app"},
	})

	order, ok := g.TopologicalSort()
	require.True(t, ok)

	index := make(map[string]int, len(order))
	for i, node := range order {
		index[node] = i
	}
	for _, node := range g.Nodes() {
		for _, dep := range g.Successors(node) {
			assert.Less(t, index[dep], index[node], "%s must load before %s", dep, node)
		}
	}
}

func TestTopologicalSort_DeterministicTieBreak(t *testing.T) {
	g := New()
	g.AddNode("charlie")
	g.AddNode("alpha")
	g.AddNode("bravo")

	order, ok := g.TopologicalSort()
	require.True(t, ok)
	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, order)
}

func TestTopologicalSort_Cycle(t *testing.T) {
	g := Build(map[string][]string{
		"A": {"B"},
		"B": {"C"},
		"C": {"A"},
	})

	order, ok := g.TopologicalSort()
	assert.False(t, ok)
	assert.Nil(t, order)
	assert.True(t, g.HasCycles())
}

func TestTopologicalSort_Empty(t *testing.T) {
	g := New()

	order, ok := g.TopologicalSort()
	assert.True(t, ok)
	assert.Empty(t, order)
	assert.False(t, g.HasCycles())
}

func TestDetectCycles_Triangle(t *testing.T) {
	g := Build(map[string][]string{
		"A": {"B"},
		"B": {"C"},
		"C": {"A"},
	})

	cycles := g.DetectCycles()
	require.Len(t, cycles, 1)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, cycles[0])
	// The cycle is rooted at its smallest member.
	assert.Equal(t, "A", cycles[0][0])
}

func TestDetectCycles_SelfLoop(t *testing.T) {
	g := New()
	g.AddEdge("loop", "loop")
	g.AddEdge("other", "loop")

	cycles := g.DetectCycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"loop"}, cycles[0])
	assert.True(t, g.HasCycles())
}

func TestDetectCycles_MultipleElementary(t *testing.T) {
	// Two distinct cycles sharing node A.
	g := Build(map[string][]string{
		"A": {"B", "C"},
		"B": {"A"},
		"C": {"A"},
	})

	cycles := g.DetectCycles()
	require.Len(t, cycles, 2)
	assert.ElementsMatch(t, []string{"A", "B"}, cycles[0])
	assert.ElementsMatch(t, []string{"A", "C"}, cycles[1])
}

func TestDetectCycles_Acyclic(t *testing.T) {
	g := Build(map[string][]string{
		"A": {"B"},
		"B": {"C"},
	})

	assert.Empty(t, g.DetectCycles())
	assert.False(t, g.HasCycles())
}

func TestFindDependencies(t *testing.T) {
	g := Build(map[string][]string{
		"A": {"B"},
		"B": {"C"},
		"D": {"C"},
	})

	assert.Equal(t, []string{"B", "C"}, g.FindDependencies("A"))
	assert.Equal(t, []string{"C"}, g.FindDependencies("B"))
	assert.Empty(t, g.FindDependencies("C"))
	assert.Empty(t, g.FindDependencies("missing"))
}

func TestFindDependents(t *testing.T) {
	g := Build(map[string][]string{
		"A": {"B"},
		"B": {"C"},
		"D": {"C"},
	})

	assert.Equal(t, []string{"A", "B", "D"}, g.FindDependents("C"))
	assert.Equal(t, []string{"A"}, g.FindDependents("B"))
	assert.Empty(t, g.FindDependents("A"))
}

func TestFindDependenciesAndDependents_AreInverse(t *testing.T) {
	g := Build(map[string][]string{
		"A": {"B", "C"},
		"B": {"D"},
		"C": {"D"},
		"E": {"A"},
	})

	for _, x := range g.Nodes() {
		deps := g.FindDependencies(x)
		for _, y := range deps {
			assert.Contains(t, g.FindDependents(y), x,
				"%s depends on %s, so %s must list %s as dependent", x, y, y, x)
		}
	}
}

func TestImpactOfRemoval(t *testing.T) {
	g := Build(map[string][]string{
		"A": {"B"},
		"B": {"C"},
	})

	impact := g.ImpactOfRemoval("C")
	assert.Equal(t, "C", impact.Node)
	assert.Equal(t, 2, impact.WillBreak)
	assert.Equal(t, []string{"A", "B"}, impact.Affected)

	leaf := g.ImpactOfRemoval("A")
	assert.Equal(t, 0, leaf.WillBreak)
	assert.Empty(t, leaf.Affected)
}

func TestFindMissingDependencies(t *testing.T) {
	g := Build(map[string][]string{
		"X": {"MCCC"},
	})

	missing := g.FindMissingDependencies(map[string]struct{}{"X": {}})
	require.Len(t, missing, 1)
	assert.Equal(t, MissingDependency{Dependent: "X", Dependency: "MCCC"}, missing[0])
}

func TestFindMissingDependencies_AllKnown(t *testing.T) {
	g := Build(map[string][]string{
		"X": {"Y"},
	})

	known := map[string]struct{}{"X": {}, "Y": {}}
	assert.Empty(t, g.FindMissingDependencies(known))
}

func TestFindMissingDependencies_Ordered(t *testing.T) {
	g := Build(map[string][]string{
		"beta":  {"gone2", "gone1"},
		"alpha": {"gone3"},
	})

	known := map[string]struct{}{"alpha": {}, "beta": {}}
	missing := g.FindMissingDependencies(known)
	require.Len(t, missing, 3)
	assert.Equal(t, MissingDependency{Dependent: "alpha", Dependency: "gone3"}, missing[0])
	assert.Equal(t, MissingDependency{Dependent: "beta", Dependency: "gone1"}, missing[1])
	assert.Equal(t, MissingDependency{Dependent: "beta", Dependency: "gone2"}, missing[2])
}

func TestLoadOrderIssues_HardViolation(t *testing.T) {
	// A depends on B but loads first.
	g := Build(map[string][]string{
		"A": {"B"},
	})

	issues := g.LoadOrderIssues([]string{"A", "B"})
	require.Len(t, issues, 2)

	byNode := make(map[string]LoadOrderIssue, len(issues))
	for _, issue := range issues {
		byNode[issue.Node] = issue
	}

	a := byNode["A"]
	assert.Equal(t, "loads before its dependency", a.Reason)
	assert.Equal(t, 1, a.CurrentPosition)
	assert.Equal(t, 2, a.OptimalPosition)
	assert.Equal(t, model.SeverityLow, a.Severity)

	b := byNode["B"]
	assert.Equal(t, "loads after its dependents", b.Reason)
}

func TestLoadOrderIssues_CorrectOrder(t *testing.T) {
	g := Build(map[string][]string{
		"A": {"B"},
		"B": {"C"},
	})

	assert.Empty(t, g.LoadOrderIssues([]string{"C", "B", "A"}))
}

func TestLoadOrderIssues_CyclicGraph(t *testing.T) {
	g := Build(map[string][]string{
		"A": {"B"},
		"B": {"A"},
	})

	assert.Empty(t, g.LoadOrderIssues([]string{"A", "B"}))
}

func TestLoadOrderIssues_SkipsUnknownNodes(t *testing.T) {
	g := Build(map[string][]string{
		"A": {"B"},
	})

	issues := g.LoadOrderIssues([]string{"B", "stranger", "A"})
	// A and B keep their relative dependency order; only the positional
	// shift from the stranger matters, and it stays inside the LOW band.
	for _, issue := range issues {
		assert.NotEqual(t, "stranger", issue.Node)
		assert.Equal(t, model.SeverityLow, issue.Severity)
	}
}

func TestPositionSeverityBands(t *testing.T) {
	tests := []struct {
		distance int
		expected model.Severity
	}{
		{0, model.SeverityLow},
		{5, model.SeverityLow},
		{6, model.SeverityMedium},
		{20, model.SeverityMedium},
		{21, model.SeverityHigh},
		{100, model.SeverityHigh},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, positionSeverity(tc.distance), "distance %d", tc.distance)
	}
}

func TestStats(t *testing.T) {
	g := Build(map[string][]string{
		"A":    {"B"},
		"B":    {"C"},
		"solo": nil,
	})

	stats := g.Stats()
	assert.Equal(t, 4, stats.TotalNodes)
	assert.Equal(t, 2, stats.TotalEdges)
	assert.False(t, stats.HasCycles)
	assert.Equal(t, 0, stats.CycleCount)
	assert.Equal(t, 1, stats.IsolatedNodes)
	assert.Equal(t, "C", stats.MostDependedOn)
	assert.Equal(t, 2, stats.MostDependedOnCount)
}
