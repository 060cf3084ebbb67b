// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package report renders analysis results as plain text or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/simscan/simscan/services/scanner/analyzer"
	"github.com/simscan/simscan/services/scanner/model"
)

const lineWidth = 80

// ANSI colors per severity, used only on terminals.
var severityColors = map[model.Severity]string{
	model.SeverityCritical: "\033[1;31m",
	model.SeverityHigh:     "\033[31m",
	model.SeverityMedium:   "\033[33m",
	model.SeverityLow:      "\033[36m",
}

const colorReset = "\033[0m"

// Renderer writes reports.
type Renderer struct {
	color bool
}

// NewRenderer creates a renderer. Color is applied only when enabled.
func NewRenderer(color bool) *Renderer {
	return &Renderer{color: color}
}

// NewAutoRenderer enables color when w is a terminal.
func NewAutoRenderer(w io.Writer) *Renderer {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Renderer{color: color}
}

// JSON writes the full result as indented JSON.
func (r *Renderer) JSON(w io.Writer, result *analyzer.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// Text writes a human-readable report.
func (r *Renderer) Text(w io.Writer, result *analyzer.Result) error {
	var b strings.Builder

	b.WriteString(strings.Repeat("=", lineWidth) + "\n")
	b.WriteString("MOD ANALYSIS REPORT\n")
	b.WriteString(strings.Repeat("=", lineWidth) + "\n\n")

	r.writeSummary(&b, result)
	r.writeRecommendations(&b, result)
	r.writeConflicts(&b, result)
	r.writeGraph(&b, result)
	r.writeScanErrors(&b, result)

	_, err := io.WriteString(w, b.String())
	return err
}

func (r *Renderer) writeSummary(b *strings.Builder, result *analyzer.Result) {
	counts := result.ConflictsBySeverity()

	b.WriteString("SUMMARY\n")
	b.WriteString(strings.Repeat("-", lineWidth) + "\n")
	fmt.Fprintf(b, "Run ID: %s\n", result.Metadata.RunID)
	fmt.Fprintf(b, "Directory: %s\n", result.Metadata.ModDirectory)
	fmt.Fprintf(b, "Duration: %s\n", result.Metadata.Duration.Round(time.Millisecond))
	fmt.Fprintf(b, "Total Mods: %d\n", result.Metadata.TotalArtifacts)
	fmt.Fprintf(b, "Total Conflicts: %d\n", len(result.Conflicts))
	fmt.Fprintf(b, "  - Critical: %d\n", counts["CRITICAL"])
	fmt.Fprintf(b, "  - High: %d\n", counts["HIGH"])
	fmt.Fprintf(b, "  - Medium: %d\n", counts["MEDIUM"])
	fmt.Fprintf(b, "  - Low: %d\n", counts["LOW"])
	fmt.Fprintf(b, "Performance Score: %.1f/100\n", result.Performance.PerformanceScore)
	fmt.Fprintf(b, "Estimated Load Time: %.1fs\n", result.Performance.EstimatedLoadSecs)
	b.WriteString("\n")
}

func (r *Renderer) writeRecommendations(b *strings.Builder, result *analyzer.Result) {
	if len(result.Recommendations) == 0 {
		return
	}
	b.WriteString("RECOMMENDATIONS\n")
	b.WriteString(strings.Repeat("-", lineWidth) + "\n")
	for _, rec := range result.Recommendations {
		fmt.Fprintf(b, "  * %s\n", rec)
	}
	b.WriteString("\n")
}

func (r *Renderer) writeConflicts(b *strings.Builder, result *analyzer.Result) {
	if len(result.Conflicts) == 0 {
		return
	}
	b.WriteString("CONFLICTS\n")
	b.WriteString(strings.Repeat("-", lineWidth) + "\n")

	severities := []model.Severity{
		model.SeverityCritical, model.SeverityHigh, model.SeverityMedium, model.SeverityLow,
	}
	for _, severity := range severities {
		var group []model.Conflict
		for _, c := range result.Conflicts {
			if c.Severity == severity {
				group = append(group, c)
			}
		}
		if len(group) == 0 {
			continue
		}

		fmt.Fprintf(b, "\n%s SEVERITY (%d):\n", r.colored(severity, severity.String()), len(group))
		b.WriteString(strings.Repeat("-", 40) + "\n")
		for _, c := range group {
			fmt.Fprintf(b, "\n  ID: %s\n", c.ID)
			fmt.Fprintf(b, "  Kind: %s\n", c.Kind)
			fmt.Fprintf(b, "  Description: %s\n", c.Description)
			fmt.Fprintf(b, "  Affected Mods: %s\n", strings.Join(c.AffectedArtifacts, ", "))
			if c.Resolution != "" {
				fmt.Fprintf(b, "  Resolution: %s\n", c.Resolution)
			}
		}
	}
	b.WriteString("\n")
}

func (r *Renderer) writeGraph(b *strings.Builder, result *analyzer.Result) {
	if result.GraphStats.TotalNodes == 0 {
		return
	}
	b.WriteString("DEPENDENCIES\n")
	b.WriteString(strings.Repeat("-", lineWidth) + "\n")
	fmt.Fprintf(b, "Nodes: %d, Edges: %d\n", result.GraphStats.TotalNodes, result.GraphStats.TotalEdges)

	if len(result.Cycles) > 0 {
		fmt.Fprintf(b, "Circular dependencies (%d):\n", len(result.Cycles))
		for _, cycle := range result.Cycles {
			fmt.Fprintf(b, "  %s -> %s\n", strings.Join(cycle, " -> "), cycle[0])
		}
	}
	if len(result.MissingDependencies) > 0 {
		fmt.Fprintf(b, "Missing dependencies (%d):\n", len(result.MissingDependencies))
		for _, missing := range result.MissingDependencies {
			fmt.Fprintf(b, "  %s requires %s (not installed)\n", missing.Dependent, missing.Dependency)
		}
	}
	if len(result.SuggestedLoadOrder) > 0 {
		b.WriteString("Suggested load order:\n")
		for i, name := range result.SuggestedLoadOrder {
			fmt.Fprintf(b, "  %d. %s\n", i+1, name)
		}
	}
	b.WriteString("\n")
}

func (r *Renderer) writeScanErrors(b *strings.Builder, result *analyzer.Result) {
	if len(result.ScanErrors) == 0 {
		return
	}
	b.WriteString("SCAN ERRORS\n")
	b.WriteString(strings.Repeat("-", lineWidth) + "\n")
	for _, fe := range result.ScanErrors {
		fmt.Fprintf(b, "  %s: %s\n", fe.Path, fe.Err)
	}
	b.WriteString("\n")
}

// colored wraps text in the severity's ANSI color when color is on.
func (r *Renderer) colored(severity model.Severity, text string) string {
	if !r.color {
		return text
	}
	code, ok := severityColors[severity]
	if !ok {
		return text
	}
	return code + text + colorReset
}
