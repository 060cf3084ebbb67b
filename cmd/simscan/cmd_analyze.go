// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/simscan/simscan/pkg/logging"
	"github.com/simscan/simscan/services/scanner/analyzer"
	"github.com/simscan/simscan/services/scanner/report"
	"github.com/simscan/simscan/services/scanner/scan"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	// Scan flags
	analyzeFlat    bool
	analyzeNoHash  bool
	analyzeWorkers int

	// Output flags
	analyzeJSON    bool
	analyzeOutput  string
	analyzeVerbose bool
	analyzeQuiet   bool
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var analyzeCmd = &cobra.Command{
	Use:   "analyze <mods-dir>",
	Short: "Analyze a mods directory for conflicts",
	Long: `Analyze scans the given directory for .package and .ts4script files,
detects conflicts between them, and analyzes the dependency graph.

Examples:
  simscan analyze ~/Documents/"Electronic Arts"/"The Sims 4"/Mods
  simscan analyze --json ./Mods > report.json
  simscan analyze --output report.txt ./Mods`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeFlat, "flat", false,
		"Do not recurse into subdirectories")
	analyzeCmd.Flags().BoolVar(&analyzeNoHash, "no-hash", false,
		"Skip content hashing (faster, misses duplicate detection)")
	analyzeCmd.Flags().IntVar(&analyzeWorkers, "workers", 0,
		"Parallel scan workers (0 = default)")

	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false,
		"Output the full result as JSON")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "",
		"Write the report to a file instead of stdout")
	analyzeCmd.Flags().BoolVarP(&analyzeVerbose, "verbose", "v", false,
		"Enable debug logging")
	analyzeCmd.Flags().BoolVarP(&analyzeQuiet, "quiet", "q", false,
		"Suppress log output")
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runAnalyze(cmd *cobra.Command, args []string) error {
	logger := newCLILogger(analyzeVerbose, analyzeQuiet)
	defer logger.Close()

	opts := scan.DefaultOptions()
	opts.Recursive = !analyzeFlat
	opts.ComputeHashes = !analyzeNoHash
	if analyzeWorkers > 0 {
		opts.Workers = analyzeWorkers
	}

	pipeline := analyzer.New(scan.New(opts, logger.Slog()), nil, logger.Slog())

	result, err := pipeline.AnalyzeDirectory(cmd.Context(), args[0], nil)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", args[0], err)
	}

	out := os.Stdout
	if analyzeOutput != "" {
		f, err := os.Create(analyzeOutput)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	renderer := report.NewAutoRenderer(out)
	if analyzeJSON {
		return renderer.JSON(out, result)
	}
	return renderer.Text(out, result)
}

// newCLILogger builds the logger for interactive commands.
func newCLILogger(verbose, quiet bool) *logging.Logger {
	level := logging.LevelInfo
	if verbose {
		level = logging.LevelDebug
	}
	return logging.New(logging.Config{
		Level:   level,
		Service: "cli",
		Quiet:   quiet,
	})
}
