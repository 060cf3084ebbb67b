// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analyzer

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Package-level tracer and meter for analysis runs.
var (
	tracer = otel.Tracer("simscan.analyzer")
	meter  = otel.Meter("simscan.analyzer")
)

var (
	analysisLatency metric.Float64Histogram
	analysisTotal   metric.Int64Counter
	conflictsFound  metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		analysisLatency, err = meter.Float64Histogram(
			"analysis_duration_seconds",
			metric.WithDescription("Duration of full analysis runs"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		analysisTotal, err = meter.Int64Counter(
			"analysis_runs_total",
			metric.WithDescription("Total number of analysis runs"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		conflictsFound, err = meter.Int64Histogram(
			"analysis_conflicts_found",
			metric.WithDescription("Number of conflicts found per analysis run"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}
