// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package analyzer orchestrates a full mod collection analysis: scan the
// directory, run the conflict detectors, infer dependencies, build and
// query the dependency graph, and assemble the result with performance
// estimates and recommendations.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/simscan/simscan/services/scanner/depgraph"
	"github.com/simscan/simscan/services/scanner/deps"
	"github.com/simscan/simscan/services/scanner/detect"
	"github.com/simscan/simscan/services/scanner/model"
	"github.com/simscan/simscan/services/scanner/scan"
)

// Version identifies the analysis engine in reports and responses.
const Version = "1.0.0"

// Stage names reported through the progress callback, in pipeline order.
const (
	StageScanning     = "scanning"
	StageDetecting    = "detecting"
	StageDependencies = "dependencies"
	StageGraph        = "graph"
	StageReporting    = "reporting"
)

// Progress is invoked as the pipeline advances. done and total count
// pipeline stages, not files.
type Progress func(stage string, done, total int)

const totalStages = 5

// Metadata identifies one analysis run.
type Metadata struct {
	RunID           string        `json:"run_id"`
	Timestamp       time.Time     `json:"timestamp"`
	Version         string        `json:"version"`
	ModDirectory    string        `json:"mod_directory"`
	Duration        time.Duration `json:"duration_ns"`
	TotalArtifacts  int           `json:"total_artifacts"`
	ArtifactsFailed int           `json:"artifacts_failed"`
}

// PerformanceMetrics estimates the runtime cost of the collection.
type PerformanceMetrics struct {
	TotalArtifacts    int     `json:"total_artifacts"`
	TotalSizeMB       float64 `json:"total_size_mb"`
	TotalResources    int     `json:"total_resources"`
	TotalTunings      int     `json:"total_tunings"`
	TotalScripts      int     `json:"total_scripts"`
	EstimatedLoadSecs float64 `json:"estimated_load_time_seconds"`
	EstimatedMemoryMB float64 `json:"estimated_memory_mb"`
	ComplexityScore   float64 `json:"complexity_score"`
	PerformanceScore  float64 `json:"performance_score"`
}

// Result is the complete outcome of one analysis run.
type Result struct {
	Metadata            Metadata                      `json:"metadata"`
	Artifacts           []model.Artifact              `json:"artifacts"`
	Conflicts           []model.Conflict              `json:"conflicts"`
	Dependencies        map[string][]string           `json:"dependencies"`
	MissingDependencies []depgraph.MissingDependency  `json:"missing_dependencies"`
	Cycles              [][]string                    `json:"cycles"`
	SuggestedLoadOrder  []string                      `json:"suggested_load_order,omitempty"`
	GraphStats          depgraph.Statistics           `json:"graph_stats"`
	Performance         PerformanceMetrics            `json:"performance"`
	Recommendations     []string                      `json:"recommendations"`
	ScanErrors          []scan.FileError              `json:"scan_errors,omitempty"`
}

// ConflictsBySeverity counts conflicts per severity level.
func (r *Result) ConflictsBySeverity() map[string]int {
	counts := make(map[string]int)
	for _, c := range r.Conflicts {
		counts[c.Severity.String()]++
	}
	return counts
}

// Analyzer runs the analysis pipeline.
type Analyzer struct {
	scanner   *scan.Scanner
	detectors []detect.Detector
	deps      *deps.Detector
	log       *slog.Logger
}

// New creates an analyzer. Nil arguments fall back to the default
// scanner options, the standard detector set, and slog.Default.
func New(scanner *scan.Scanner, detectors []detect.Detector, log *slog.Logger) *Analyzer {
	if log == nil {
		log = slog.Default()
	}
	if scanner == nil {
		scanner = scan.New(scan.DefaultOptions(), log)
	}
	if detectors == nil {
		tables := detect.DefaultTables()
		detectors = []detect.Detector{
			detect.NewResourceDetector(tables),
			detect.NewTuningDetector(tables),
			detect.NewModuleDetector(),
		}
	}
	return &Analyzer{
		scanner:   scanner,
		detectors: detectors,
		deps:      deps.NewDetector(),
		log:       log,
	}
}

// AnalyzeDirectory scans dir and analyzes everything found in it.
func (a *Analyzer) AnalyzeDirectory(ctx context.Context, dir string, progress Progress) (*Result, error) {
	ctx, span := tracer.Start(ctx, "analyzer.AnalyzeDirectory",
		trace.WithAttributes(attribute.String("mod.dir", dir)))
	defer span.End()

	start := time.Now()
	report := func(stage string, done int) {
		if progress != nil {
			progress(stage, done, totalStages)
		}
	}

	report(StageScanning, 0)
	scanned, err := a.scanner.Scan(ctx, dir)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("analyzer: scan: %w", err)
	}

	result := a.analyze(ctx, scanned.Artifacts, report)
	result.ScanErrors = scanned.Errors
	result.Metadata = a.metadata(dir, start, len(scanned.Artifacts), len(scanned.Errors))

	a.record(ctx, result)
	span.SetAttributes(
		attribute.Int("artifacts", len(result.Artifacts)),
		attribute.Int("conflicts", len(result.Conflicts)),
	)
	return result, nil
}

// AnalyzeArtifacts analyzes a pre-scanned, frozen artifact list.
func (a *Analyzer) AnalyzeArtifacts(ctx context.Context, artifacts []model.Artifact, progress Progress) *Result {
	ctx, span := tracer.Start(ctx, "analyzer.AnalyzeArtifacts")
	defer span.End()

	start := time.Now()
	report := func(stage string, done int) {
		if progress != nil {
			progress(stage, done, totalStages)
		}
	}

	result := a.analyze(ctx, artifacts, report)
	result.Metadata = a.metadata("pre-scanned", start, len(artifacts), 0)
	a.record(ctx, result)
	return result
}

// analyze runs the post-scan stages over a frozen artifact list.
func (a *Analyzer) analyze(ctx context.Context, artifacts []model.Artifact, report func(string, int)) *Result {
	report(StageDetecting, 1)
	conflicts := a.detectConflicts(ctx, artifacts)

	report(StageDependencies, 2)
	dependencies := a.deps.DetectAll(artifacts)

	report(StageGraph, 3)
	graph := depgraph.Build(dependencies)

	known := make(map[string]struct{}, len(artifacts))
	for _, artifact := range artifacts {
		known[artifact.Name] = struct{}{}
	}
	// Packs are provided by the game, never by another mod.
	for _, packName := range model.PackNames {
		known[packName] = struct{}{}
	}

	result := &Result{
		Artifacts:           artifacts,
		Conflicts:           conflicts,
		Dependencies:        dependencies,
		MissingDependencies: graph.FindMissingDependencies(known),
		Cycles:              graph.DetectCycles(),
		GraphStats:          graph.Stats(),
	}
	if order, ok := graph.TopologicalSort(); ok {
		result.SuggestedLoadOrder = order
	}

	report(StageReporting, 4)
	result.Performance = a.performance(artifacts, conflicts)
	result.Recommendations = a.recommendations(result)
	report(StageReporting, 5)
	return result
}

// detectConflicts runs every registered detector and concatenates the
// findings.
func (a *Analyzer) detectConflicts(ctx context.Context, artifacts []model.Artifact) []model.Conflict {
	_, span := tracer.Start(ctx, "analyzer.detectConflicts")
	defer span.End()

	conflicts := detect.RunAll(a.detectors, artifacts)
	a.log.Info("conflict detection done",
		"artifacts", len(artifacts),
		"conflicts", len(conflicts),
	)
	return conflicts
}

func (a *Analyzer) metadata(dir string, start time.Time, total, failed int) Metadata {
	return Metadata{
		RunID:           uuid.NewString(),
		Timestamp:       start,
		Version:         Version,
		ModDirectory:    dir,
		Duration:        time.Since(start),
		TotalArtifacts:  total,
		ArtifactsFailed: failed,
	}
}

// performance estimates load cost: ~0.1s load and ~1.5x memory per MB,
// with a 0-100 health score that pays for volume and conflicts.
func (a *Analyzer) performance(artifacts []model.Artifact, conflicts []model.Conflict) PerformanceMetrics {
	var totalSize int64
	var resources, tunings, scripts int
	for _, artifact := range artifacts {
		totalSize += artifact.SizeBytes
		resources += len(artifact.Resources)
		tunings += len(artifact.Tunings)
		scripts += len(artifact.Modules)
	}

	sizeMB := float64(totalSize) / 1024 / 1024
	complexity := float64(len(artifacts))/10.0 + float64(resources)/100.0
	if complexity > 100 {
		complexity = 100
	}

	score := 100.0 - float64(len(artifacts))*0.5
	for _, c := range conflicts {
		switch c.Severity {
		case model.SeverityCritical:
			score -= 10
		case model.SeverityHigh:
			score -= 5
		case model.SeverityMedium:
			score -= 2
		}
	}
	if score < 0 {
		score = 0
	}

	return PerformanceMetrics{
		TotalArtifacts:    len(artifacts),
		TotalSizeMB:       sizeMB,
		TotalResources:    resources,
		TotalTunings:      tunings,
		TotalScripts:      scripts,
		EstimatedLoadSecs: sizeMB * 0.1,
		EstimatedMemoryMB: sizeMB * 1.5,
		ComplexityScore:   complexity,
		PerformanceScore:  score,
	}
}

// recommendations turns the findings into actionable advice.
func (a *Analyzer) recommendations(result *Result) []string {
	var recs []string

	critical := 0
	high := 0
	duplicates := 0
	for _, c := range result.Conflicts {
		switch c.Severity {
		case model.SeverityCritical:
			critical++
		case model.SeverityHigh:
			high++
		}
		if c.Kind == model.KindResourceDuplicate {
			duplicates++
		}
	}

	if critical > 0 {
		recs = append(recs, fmt.Sprintf(
			"CRITICAL: %d critical conflicts detected. These may cause crashes or severe instability.", critical))
	}
	if high > 0 {
		recs = append(recs, fmt.Sprintf(
			"HIGH: %d high-severity conflicts detected. These may cause significant issues.", high))
	}
	if duplicates > 0 {
		recs = append(recs,
			"Review duplicate resources and consolidate packages to prevent unintended overrides.")
	}
	if len(result.Cycles) > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d circular dependencies found. Break the cycles to get a reliable load order.", len(result.Cycles)))
	}
	if len(result.MissingDependencies) > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d declared dependencies are not installed. Install them or remove the dependent mods.",
			len(result.MissingDependencies)))
	}
	if len(result.Conflicts) == 0 {
		recs = append(recs, "No conflicts detected. Your mod setup looks good.")
	}
	if len(result.Artifacts) > 100 {
		recs = append(recs, fmt.Sprintf(
			"You have %d mods installed. Consider organizing them into subfolders.", len(result.Artifacts)))
	}
	return recs
}

// record emits run metrics. Metric init failures are logged once and
// metrics are skipped.
func (a *Analyzer) record(ctx context.Context, result *Result) {
	if err := initMetrics(); err != nil {
		a.log.Warn("metrics unavailable", "error", err)
		return
	}
	analysisTotal.Add(ctx, 1)
	analysisLatency.Record(ctx, result.Metadata.Duration.Seconds())
	conflictsFound.Record(ctx, int64(len(result.Conflicts)))
}
