// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package scan discovers mod artifacts on disk and decodes them into
// model.Artifact records ready for conflict analysis.
package scan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/simscan/simscan/services/scanner/dbpf"
	"github.com/simscan/simscan/services/scanner/model"
	"github.com/simscan/simscan/services/scanner/script"
	"github.com/simscan/simscan/services/scanner/tuning"
)

// ErrNotDirectory indicates the scan root is missing or not a directory.
var ErrNotDirectory = errors.New("scan: not a directory")

const defaultWorkers = 4

// Options control what the scanner decodes per artifact.
type Options struct {
	// ParseTunings decodes XML tuning resources inside packages.
	ParseTunings bool

	// ParseScripts analyzes Python modules inside script archives.
	ParseScripts bool

	// ComputeHashes computes a SHA-256 content hash per file.
	ComputeHashes bool

	// Recursive descends into subdirectories.
	Recursive bool

	// Workers bounds the number of files decoded in parallel.
	Workers int
}

// DefaultOptions enables everything with a small worker pool.
func DefaultOptions() Options {
	return Options{
		ParseTunings:  true,
		ParseScripts:  true,
		ComputeHashes: true,
		Recursive:     true,
		Workers:       defaultWorkers,
	}
}

// FileError records a file that could not be fully decoded. The scan
// itself continues past it.
type FileError struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// Result carries everything a scan produced.
type Result struct {
	// Artifacts holds the decoded artifacts, sorted by path.
	Artifacts []model.Artifact

	// Errors lists files that failed to decode, sorted by path.
	Errors []FileError
}

// Scanner discovers and decodes artifacts under a directory tree.
type Scanner struct {
	opts Options
	log  *slog.Logger
}

// New creates a scanner. A nil logger falls back to slog.Default.
func New(opts Options, log *slog.Logger) *Scanner {
	if log == nil {
		log = slog.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	return &Scanner{opts: opts, log: log}
}

// Scan walks the directory and decodes every .package and .ts4script
// file found.
//
// Description:
//
//	Discovery is sequential; decoding runs on a bounded worker pool.
//	A file that fails to decode is reported in Result.Errors with a
//	minimal artifact still emitted, so one corrupt download does not
//	hide the rest of the collection. Cancelling the context stops the
//	pool between files.
//
// Outputs:
//
//	*Result - Artifacts sorted by path plus per-file errors.
//	error - ErrNotDirectory, or the context error on cancellation.
func (s *Scanner) Scan(ctx context.Context, dir string) (*Result, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	files, err := s.findFiles(dir)
	if err != nil {
		return nil, err
	}
	s.log.Info("scan started", "dir", dir, "files", len(files), "workers", s.opts.Workers)

	var mu sync.Mutex
	result := &Result{}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for _, path := range files {
		path := path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			artifact, decodeErr := s.scanFile(path)

			mu.Lock()
			defer mu.Unlock()
			if decodeErr != nil {
				result.Errors = append(result.Errors, FileError{Path: path, Err: decodeErr.Error()})
			}
			if artifact != nil {
				result.Artifacts = append(result.Artifacts, *artifact)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(result.Artifacts, func(i, j int) bool {
		return result.Artifacts[i].Path < result.Artifacts[j].Path
	})
	sort.Slice(result.Errors, func(i, j int) bool {
		return result.Errors[i].Path < result.Errors[j].Path
	})
	s.log.Info("scan finished", "artifacts", len(result.Artifacts), "errors", len(result.Errors))
	return result, nil
}

// findFiles collects candidate mod files under dir, sorted by path.
func (s *Scanner) findFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.log.Warn("walk error", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			if !s.opts.Recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".package", ".ts4script":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan: walk %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// ScanFile decodes one artifact by path. Unsupported extensions yield a
// nil artifact.
func (s *Scanner) ScanFile(path string) (*model.Artifact, error) {
	return s.scanFile(path)
}

func (s *Scanner) scanFile(path string) (*model.Artifact, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".package":
		return s.scanPackage(path)
	case ".ts4script":
		return s.scanScript(path)
	default:
		return nil, nil
	}
}

// scanPackage decodes a DBPF container. On decode failure it returns a
// minimal artifact alongside the error.
func (s *Scanner) scanPackage(path string) (*model.Artifact, error) {
	artifact := &model.Artifact{
		Name:             filepath.Base(path),
		Path:             path,
		Type:             model.ArtifactPackage,
		PackRequirements: make(map[string]struct{}),
	}
	if info, err := os.Stat(path); err == nil {
		artifact.SizeBytes = info.Size()
	}

	if s.opts.ComputeHashes {
		if hash, err := hashFile(path); err == nil {
			artifact.ContentHash = hash
		}
	}

	reader, err := dbpf.Open(path)
	if err != nil {
		return artifact, err
	}
	defer reader.Close()

	artifact.Resources = reader.Records()
	if s.opts.ParseTunings {
		artifact.Tunings = s.extractTunings(reader, path)
		for _, t := range artifact.Tunings {
			for pack := range t.PackRequirements {
				artifact.PackRequirements[pack] = struct{}{}
			}
		}
	}
	return artifact, nil
}

// extractTunings parses every XML tuning resource in the package.
// Individual parse failures are logged and skipped.
func (s *Scanner) extractTunings(reader *dbpf.Reader, path string) []model.TuningRecord {
	var tunings []model.TuningRecord
	for _, rec := range reader.RecordsByType(model.ResourceTypeXMLTuning) {
		data, err := reader.ResourceData(rec)
		if err != nil {
			s.log.Debug("tuning resource unreadable", "package", path, "key", rec.Key.String(), "error", err)
			continue
		}
		parsed, err := tuning.Parse(data)
		if err != nil {
			s.log.Debug("tuning parse failed", "package", path, "key", rec.Key.String(), "error", err)
			continue
		}
		tunings = append(tunings, *parsed)
	}
	return tunings
}

// scanScript decodes a .ts4script archive. On decode failure it returns
// a minimal artifact alongside the error.
func (s *Scanner) scanScript(path string) (*model.Artifact, error) {
	artifact := &model.Artifact{
		Name:             filepath.Base(path),
		Path:             path,
		Type:             model.ArtifactScript,
		PackRequirements: make(map[string]struct{}),
	}
	if info, err := os.Stat(path); err == nil {
		artifact.SizeBytes = info.Size()
	}

	if s.opts.ComputeHashes {
		if hash, err := hashFile(path); err == nil {
			artifact.ContentHash = hash
		}
	}

	result, err := script.Analyze(path)
	if err != nil {
		return artifact, err
	}

	artifact.Version = result.Metadata.Version
	artifact.Author = result.Metadata.Author
	artifact.Requires = append(artifact.Requires, result.Metadata.Requires...)

	if s.opts.ParseScripts {
		artifact.Modules = result.Modules
		for _, mod := range result.Modules {
			for imp := range mod.Imports {
				if strings.Contains(strings.ToLower(imp), "sims4communitylib") {
					artifact.Requires = append(artifact.Requires, "Sims4CommunityLibrary")
				}
			}
		}
	}
	artifact.Requires = dedupStrings(artifact.Requires)
	return artifact, nil
}

// hashFile computes the SHA-256 of a file's contents.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// dedupStrings removes duplicates preserving first-seen order.
func dedupStrings(in []string) []string {
	if len(in) == 0 {
		return in
	}
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
