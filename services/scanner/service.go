// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package scanner provides the mod analysis HTTP service.
//
// The service exposes endpoints for:
//   - Running a full analysis over a mods directory
//   - Querying conflicts from the last completed run
//   - Querying the dependency graph (cycles, load order, removal impact)
//   - Streaming analysis progress over a websocket
package scanner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/simscan/simscan/services/scanner/analyzer"
	"github.com/simscan/simscan/services/scanner/config"
	"github.com/simscan/simscan/services/scanner/depgraph"
	"github.com/simscan/simscan/services/scanner/scan"
)

// Service runs analyses and caches the most recent result.
//
// Thread Safety:
//
//	Service is safe for concurrent use. Only one analysis runs at a
//	time; concurrent Analyze calls fail with ErrAnalysisInProgress.
//	Read endpoints serve the last completed result under a read lock.
type Service struct {
	cfg      config.Config
	analyzer *analyzer.Analyzer
	log      *slog.Logger

	mu      sync.RWMutex
	last    *analyzer.Result
	running bool
	started time.Time
}

// NewService creates a service from the given configuration.
//
// Description:
//
//	Builds a scanner from cfg.Scan and wires it into an analyzer with
//	the standard detector set. The service starts with no cached result.
//
// Inputs:
//
//	cfg - Service configuration
//	log - Structured logger, nil falls back to slog.Default
//
// Outputs:
//
//	*Service - The configured service
func NewService(cfg config.Config, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	opts := scan.Options{
		ParseTunings:  cfg.Scan.ParseTunings,
		ParseScripts:  cfg.Scan.ParseScripts,
		ComputeHashes: cfg.Scan.ComputeHashes,
		Recursive:     cfg.Scan.Recursive,
		Workers:       cfg.Scan.Workers,
	}

	return &Service{
		cfg:      cfg,
		analyzer: analyzer.New(scan.New(opts, log), nil, log),
		log:      log,
		started:  time.Now(),
	}
}

// Analyze runs a full analysis over dir and caches the result.
//
// Description:
//
//	Acquires the single analysis slot, runs the pipeline, and stores
//	the result for the read endpoints. The progress callback, when
//	non-nil, is invoked synchronously after each pipeline stage.
//
// Outputs:
//
//	*analyzer.Result - The completed result
//	error - ErrAnalysisInProgress if another run holds the slot,
//	        or the pipeline error
func (s *Service) Analyze(ctx context.Context, dir string, progress analyzer.Progress) (*analyzer.Result, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrAnalysisInProgress
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	result, err := s.analyzer.AnalyzeDirectory(ctx, dir, progress)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.last = result
	s.mu.Unlock()

	return result, nil
}

// LastResult returns the most recent completed analysis.
//
// Returns ErrNoResult when no analysis has finished yet.
func (s *Service) LastResult() (*analyzer.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil, ErrNoResult
	}
	return s.last, nil
}

// Graph rebuilds the dependency graph of the last result.
//
// Returns ErrNoResult when no analysis has finished yet.
func (s *Service) Graph() (*depgraph.Graph, error) {
	result, err := s.LastResult()
	if err != nil {
		return nil, err
	}
	return depgraph.Build(result.Dependencies), nil
}

// Impact reports what would break if the named mod were removed.
//
// Returns ErrUnknownMod when the mod is not in the last result's graph.
func (s *Service) Impact(name string) (depgraph.Impact, error) {
	graph, err := s.Graph()
	if err != nil {
		return depgraph.Impact{}, err
	}
	if !graph.HasNode(name) {
		return depgraph.Impact{}, ErrUnknownMod
	}
	return graph.ImpactOfRemoval(name), nil
}

// Uptime reports how long the service has been running.
func (s *Service) Uptime() time.Duration {
	return time.Since(s.started)
}
