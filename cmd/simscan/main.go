// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// simscan analyzes Sims 4 mod collections for conflicts and
// dependency problems.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/simscan/simscan/services/scanner/analyzer"
)

var rootCmd = &cobra.Command{
	Use:   "simscan",
	Short: "Sims 4 mod conflict and dependency analyzer",
	Long: `simscan scans a mods directory, detects conflicts between packages
and script mods, and analyzes the dependency graph for cycles,
missing dependencies, and load order problems.`,
	Version:       analyzer.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
}
