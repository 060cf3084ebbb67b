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
)

func TestGraph_AddNode(t *testing.T) {
	g := New()
	g.AddNode("a_mod")
	g.AddNode("a_mod")

	assert.Equal(t, 1, g.NodeCount())
	assert.True(t, g.HasNode("a_mod"))
	assert.False(t, g.HasNode("missing"))
}

func TestGraph_AddEdge_AutoCreatesEndpoints(t *testing.T) {
	g := New()
	g.AddEdge("child", "parent")

	assert.True(t, g.HasNode("child"))
	assert.True(t, g.HasNode("parent"))
	assert.True(t, g.HasEdge("child", "parent"))
	assert.False(t, g.HasEdge("parent", "child"))
	assert.Equal(t, 1, g.EdgeCount())
}

func TestGraph_AddEdge_Deduplicates(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("a", "b")

	assert.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, []string{"b"}, g.Successors("a"))
	assert.Equal(t, []string{"a"}, g.Predecessors("b"))
}

func TestGraph_SelfEdge(t *testing.T) {
	g := New()
	g.AddEdge("loop", "loop")

	assert.Equal(t, 1, g.NodeCount())
	assert.True(t, g.HasEdge("loop", "loop"))
	assert.Equal(t, []string{"loop"}, g.Successors("loop"))
}

func TestGraph_Build(t *testing.T) {
	g := Build(map[string][]string{
		"ui_mod":   {"core_lib"},
		"gameplay": {"core_lib", "ui_mod"},
		"solo":     nil,
	})

	assert.Equal(t, 4, g.NodeCount())
	assert.Equal(t, 3, g.EdgeCount())
	assert.Equal(t, []string{"core_lib", "gameplay", "solo", "ui_mod"}, g.Nodes())
	assert.Equal(t, []string{"core_lib", "ui_mod"}, g.Successors("gameplay"))
	assert.Equal(t, []string{"gameplay", "ui_mod"}, g.Predecessors("core_lib"))
}

func TestGraph_Degrees(t *testing.T) {
	g := Build(map[string][]string{
		"a": {"b", "c"},
		"b": {"c"},
	})

	assert.Equal(t, 2, g.OutDegree("a"))
	assert.Equal(t, 0, g.InDegree("a"))
	assert.Equal(t, 2, g.InDegree("c"))
	assert.Equal(t, 0, g.OutDegree("c"))
	assert.Equal(t, 0, g.OutDegree("missing"))
}

func TestGraph_EmptyAccessors(t *testing.T) {
	g := New()

	assert.Empty(t, g.Nodes())
	assert.Empty(t, g.Successors("missing"))
	assert.Empty(t, g.Predecessors("missing"))
	assert.Equal(t, 0, g.NodeCount())
	assert.Equal(t, 0, g.EdgeCount())
}

func TestGraph_ExportRoundTrip(t *testing.T) {
	g := Build(map[string][]string{
		"a": {"b", "c"},
		"b": {"c"},
		"d": nil,
	})
	g.AddEdge("loop", "loop")

	rebuilt := FromExport(g.Export())

	require.Equal(t, g.Nodes(), rebuilt.Nodes())
	require.Equal(t, g.EdgeCount(), rebuilt.EdgeCount())
	for _, node := range g.Nodes() {
		assert.Equal(t, g.Successors(node), rebuilt.Successors(node), "successors of %s", node)
	}
}

func TestGraph_ExportIsSorted(t *testing.T) {
	g := Build(map[string][]string{
		"zeta":  {"alpha"},
		"alpha": {"mid"},
	})

	export := g.Export()
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, export.Nodes)
	require.Len(t, export.Edges, 2)
	assert.Equal(t, Edge{From: "alpha", To: "mid"}, export.Edges[0])
	assert.Equal(t, Edge{From: "zeta", To: "alpha"}, export.Edges[1])
}

func TestGraph_DOT(t *testing.T) {
	g := Build(map[string][]string{"a": {"b"}})

	dot := g.DOT()
	assert.Contains(t, dot, "digraph dependencies")
	assert.Contains(t, dot, `"a" -> "b";`)
}
