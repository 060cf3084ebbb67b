// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analyzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simscan/simscan/services/scanner/model"
)

// twoOverlappingArtifacts share one tuning instance of a core class.
func twoOverlappingArtifacts() []model.Artifact {
	return []model.Artifact{
		{
			Name: "A.pkg",
			Path: "/mods/A.pkg",
			Type: model.ArtifactPackage,
			Tunings: []model.TuningRecord{
				{InstanceID: 0xAABBCCDD, Name: "buff_a", Class: "Buff", ModulePath: "buffs.a"},
			},
			SizeBytes: 1 << 20,
		},
		{
			Name: "B.pkg",
			Path: "/mods/B.pkg",
			Type: model.ArtifactPackage,
			Tunings: []model.TuningRecord{
				{InstanceID: 0xAABBCCDD, Name: "buff_b", Class: "Buff", ModulePath: "buffs.b"},
			},
			SizeBytes: 1 << 20,
		},
	}
}

func TestAnalyzeArtifacts_DetectsConflicts(t *testing.T) {
	a := New(nil, nil, nil)

	result := a.AnalyzeArtifacts(context.Background(), twoOverlappingArtifacts(), nil)

	require.Len(t, result.Conflicts, 1)
	conflict := result.Conflicts[0]
	assert.Equal(t, model.KindTuningOverlap, conflict.Kind)
	assert.Equal(t, model.SeverityCritical, conflict.Severity)
	assert.Equal(t, []string{"A.pkg", "B.pkg"}, conflict.AffectedArtifacts)
}

func TestAnalyzeArtifacts_Metadata(t *testing.T) {
	a := New(nil, nil, nil)

	result := a.AnalyzeArtifacts(context.Background(), twoOverlappingArtifacts(), nil)

	assert.NotEmpty(t, result.Metadata.RunID)
	assert.Equal(t, Version, result.Metadata.Version)
	assert.Equal(t, "pre-scanned", result.Metadata.ModDirectory)
	assert.Equal(t, 2, result.Metadata.TotalArtifacts)

	// Every run gets a fresh id.
	again := a.AnalyzeArtifacts(context.Background(), twoOverlappingArtifacts(), nil)
	assert.NotEqual(t, result.Metadata.RunID, again.Metadata.RunID)
}

func TestAnalyzeArtifacts_DependenciesAndMissing(t *testing.T) {
	a := New(nil, nil, nil)
	artifacts := []model.Artifact{
		{
			Name:     "X.ts4script",
			Type:     model.ArtifactScript,
			Requires: []string{"MCCC"},
		},
	}

	result := a.AnalyzeArtifacts(context.Background(), artifacts, nil)

	assert.Equal(t, []string{"MCCC"}, result.Dependencies["X.ts4script"])
	require.Len(t, result.MissingDependencies, 1)
	assert.Equal(t, "X.ts4script", result.MissingDependencies[0].Dependent)
	assert.Equal(t, "MCCC", result.MissingDependencies[0].Dependency)
}

func TestAnalyzeArtifacts_PackDependenciesAreKnown(t *testing.T) {
	a := New(nil, nil, nil)
	artifacts := []model.Artifact{
		{
			Name:             "seasons.package",
			Type:             model.ArtifactPackage,
			PackRequirements: map[string]struct{}{"EP05": {}},
		},
	}

	result := a.AnalyzeArtifacts(context.Background(), artifacts, nil)

	assert.Equal(t, []string{"Seasons"}, result.Dependencies["seasons.package"])
	assert.Empty(t, result.MissingDependencies, "packs count as installed")
}

func TestAnalyzeArtifacts_SuggestedLoadOrder(t *testing.T) {
	a := New(nil, nil, nil)
	artifacts := []model.Artifact{
		{Name: "addon", Type: model.ArtifactScript, Requires: []string{"base"}},
		{Name: "base", Type: model.ArtifactScript},
	}

	result := a.AnalyzeArtifacts(context.Background(), artifacts, nil)

	require.NotEmpty(t, result.SuggestedLoadOrder)
	posBase := indexOf(result.SuggestedLoadOrder, "base")
	posAddon := indexOf(result.SuggestedLoadOrder, "addon")
	require.GreaterOrEqual(t, posBase, 0)
	require.GreaterOrEqual(t, posAddon, 0)
	assert.Less(t, posBase, posAddon)
	assert.Empty(t, result.Cycles)
}

func TestAnalyzeArtifacts_Progress(t *testing.T) {
	a := New(nil, nil, nil)

	var stages []string
	progress := func(stage string, done, total int) {
		stages = append(stages, stage)
		assert.Equal(t, totalStages, total)
	}

	a.AnalyzeArtifacts(context.Background(), nil, progress)

	assert.Equal(t, []string{
		StageDetecting, StageDependencies, StageGraph, StageReporting, StageReporting,
	}, stages)
}

func TestAnalyzeArtifacts_EmptyCollection(t *testing.T) {
	a := New(nil, nil, nil)

	result := a.AnalyzeArtifacts(context.Background(), nil, nil)

	assert.Empty(t, result.Conflicts)
	assert.Contains(t, result.Recommendations, "No conflicts detected. Your mod setup looks good.")
	assert.Equal(t, 100.0, result.Performance.PerformanceScore)
}

func TestPerformanceScore_PenalizesConflicts(t *testing.T) {
	a := New(nil, nil, nil)

	conflicts := []model.Conflict{
		{Severity: model.SeverityCritical},
		{Severity: model.SeverityHigh},
		{Severity: model.SeverityMedium},
		{Severity: model.SeverityLow},
	}
	perf := a.performance(twoOverlappingArtifacts(), conflicts)

	// 100 - 2*0.5 mods - 10 - 5 - 2 = 82.
	assert.InDelta(t, 82.0, perf.PerformanceScore, 0.001)
	assert.Equal(t, 2, perf.TotalArtifacts)
	assert.Equal(t, 2, perf.TotalTunings)
	assert.InDelta(t, 2.0, perf.TotalSizeMB, 0.001)
	assert.InDelta(t, 0.2, perf.EstimatedLoadSecs, 0.001)
	assert.InDelta(t, 3.0, perf.EstimatedMemoryMB, 0.001)
}

func TestConflictsBySeverity(t *testing.T) {
	result := &Result{Conflicts: []model.Conflict{
		{Severity: model.SeverityCritical},
		{Severity: model.SeverityCritical},
		{Severity: model.SeverityLow},
	}}

	counts := result.ConflictsBySeverity()
	assert.Equal(t, 2, counts["CRITICAL"])
	assert.Equal(t, 1, counts["LOW"])
	assert.Equal(t, 0, counts["HIGH"])
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
