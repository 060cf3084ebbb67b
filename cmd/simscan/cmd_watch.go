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
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/simscan/simscan/services/scanner/analyzer"
	"github.com/simscan/simscan/services/scanner/report"
	"github.com/simscan/simscan/services/scanner/scan"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	watchDebounce time.Duration
	watchVerbose  bool
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var watchCmd = &cobra.Command{
	Use:   "watch <mods-dir>",
	Short: "Watch a mods directory and re-analyze on changes",
	Long: `Watch runs an initial analysis, then monitors the directory for
added, changed, or removed mod files. Each change batch triggers a
fresh analysis and prints an updated report.

Examples:
  simscan watch ./Mods
  simscan watch --debounce 2s ./Mods`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", scan.DefaultDebounce,
		"How long to wait after the last change before re-analyzing")
	watchCmd.Flags().BoolVarP(&watchVerbose, "verbose", "v", false,
		"Enable debug logging")
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	logger := newCLILogger(watchVerbose, false)
	defer logger.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline := analyzer.New(scan.New(scan.DefaultOptions(), logger.Slog()), nil, logger.Slog())
	renderer := report.NewAutoRenderer(os.Stdout)

	rerun := func() {
		result, err := pipeline.AnalyzeDirectory(ctx, dir, nil)
		if err != nil {
			logger.Error("analysis failed", "error", err)
			return
		}
		if err := renderer.Text(os.Stdout, result); err != nil {
			logger.Error("render failed", "error", err)
		}
	}

	rerun()

	watcher, err := scan.NewWatcher(dir, func(changes []scan.Change) {
		for _, change := range changes {
			logger.Info("mod file changed", "path", change.Path, "op", change.Op.String())
		}
		rerun()
	}, watchDebounce, logger.Slog())
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	defer watcher.Stop()

	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	fmt.Fprintln(os.Stderr, "Watching for changes. Press Ctrl+C to stop.")
	<-ctx.Done()
	return nil
}
