// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scanner

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/simscan/simscan/services/scanner/analyzer"
	"github.com/simscan/simscan/services/scanner/model"
	"github.com/simscan/simscan/services/scanner/scan"
)

// ServiceVersion is the scanner service version.
const ServiceVersion = analyzer.Version

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is the error code (optional).
	Code string `json:"code,omitempty"`
}

// AnalyzeRequest is the body of POST /v1/scan/analyze.
type AnalyzeRequest struct {
	// Directory is the mods directory to analyze.
	Directory string `json:"directory" binding:"required"`
}

// CyclesResponse is the body of GET /v1/scan/graph/cycles.
type CyclesResponse struct {
	HasCycles bool       `json:"has_cycles"`
	Cycles    [][]string `json:"cycles"`
}

// LoadOrderResponse is the body of GET /v1/scan/graph/loadorder.
type LoadOrderResponse struct {
	// Order is the suggested load order, empty when the graph is cyclic.
	Order []string `json:"order"`

	HasCycles bool `json:"has_cycles"`
}

// HealthResponse is the body of GET /v1/scan/health.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	HasResult     bool    `json:"has_result"`
}

// Handlers contains the HTTP handlers for the scanner service.
type Handlers struct {
	svc *Service
}

// NewHandlers creates handlers for the given service.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// HandleAnalyze handles POST /v1/scan/analyze.
//
// Description:
//
//	Runs a full synchronous analysis of the requested directory and
//	returns the complete result. Long-running; clients wanting progress
//	should use the websocket endpoint instead.
//
// Response:
//
//	200 OK: analyzer.Result
//	400 Bad Request: Validation error or bad directory
//	409 Conflict: Another analysis is running
//	500 Internal Server Error: Processing error
func (h *Handlers) HandleAnalyze(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleAnalyze")

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	logger.Info("Starting analysis", "directory", req.Directory)

	result, err := h.svc.Analyze(c.Request.Context(), req.Directory, nil)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errCode := "ANALYSIS_FAILED"

		if errors.Is(err, ErrAnalysisInProgress) {
			statusCode = http.StatusConflict
			errCode = "ANALYSIS_IN_PROGRESS"
		} else if errors.Is(err, scan.ErrNotDirectory) {
			statusCode = http.StatusBadRequest
			errCode = "NOT_A_DIRECTORY"
		}

		logger.Error("Analysis failed", "error", err)
		c.JSON(statusCode, ErrorResponse{
			Error: err.Error(),
			Code:  errCode,
		})
		return
	}

	logger.Info("Analysis complete",
		"run_id", result.Metadata.RunID,
		"artifacts", result.Metadata.TotalArtifacts,
		"conflicts", len(result.Conflicts))

	c.JSON(http.StatusOK, result)
}

// HandleResult handles GET /v1/scan/result.
//
// Response:
//
//	200 OK: analyzer.Result (the last completed run)
//	404 Not Found: No analysis has completed yet
func (h *Handlers) HandleResult(c *gin.Context) {
	result, err := h.svc.LastResult()
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: err.Error(),
			Code:  "NO_RESULT",
		})
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleConflicts handles GET /v1/scan/conflicts.
//
// Query Parameters:
//
//	severity: Optional minimum severity filter (low, medium, high, critical)
//
// Response:
//
//	200 OK: []model.Conflict
//	400 Bad Request: Unknown severity value
//	404 Not Found: No analysis has completed yet
func (h *Handlers) HandleConflicts(c *gin.Context) {
	result, err := h.svc.LastResult()
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: err.Error(),
			Code:  "NO_RESULT",
		})
		return
	}

	conflicts := result.Conflicts
	if raw := c.Query("severity"); raw != "" {
		minimum, err := model.ParseSeverity(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: err.Error(),
				Code:  "INVALID_SEVERITY",
			})
			return
		}
		filtered := make([]model.Conflict, 0, len(conflicts))
		for _, conflict := range conflicts {
			if conflict.Severity >= minimum {
				filtered = append(filtered, conflict)
			}
		}
		conflicts = filtered
	}

	c.JSON(http.StatusOK, conflicts)
}

// HandleCycles handles GET /v1/scan/graph/cycles.
//
// Response:
//
//	200 OK: CyclesResponse
//	404 Not Found: No analysis has completed yet
func (h *Handlers) HandleCycles(c *gin.Context) {
	graph, err := h.svc.Graph()
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: err.Error(),
			Code:  "NO_RESULT",
		})
		return
	}

	cycles := graph.DetectCycles()
	c.JSON(http.StatusOK, CyclesResponse{
		HasCycles: len(cycles) > 0,
		Cycles:    cycles,
	})
}

// HandleLoadOrder handles GET /v1/scan/graph/loadorder.
//
// Response:
//
//	200 OK: LoadOrderResponse
//	404 Not Found: No analysis has completed yet
func (h *Handlers) HandleLoadOrder(c *gin.Context) {
	graph, err := h.svc.Graph()
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: err.Error(),
			Code:  "NO_RESULT",
		})
		return
	}

	order, ok := graph.TopologicalSort()
	if !ok {
		order = []string{}
	}
	c.JSON(http.StatusOK, LoadOrderResponse{
		Order:     order,
		HasCycles: !ok,
	})
}

// HandleImpact handles GET /v1/scan/graph/impact/:name.
//
// Path Parameters:
//
//	name: Mod name to evaluate for removal
//
// Response:
//
//	200 OK: depgraph.Impact
//	404 Not Found: No result yet, or the mod is not in the graph
func (h *Handlers) HandleImpact(c *gin.Context) {
	name := c.Param("name")

	impact, err := h.svc.Impact(name)
	if err != nil {
		errCode := "NO_RESULT"
		if errors.Is(err, ErrUnknownMod) {
			errCode = "UNKNOWN_MOD"
		}
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: err.Error(),
			Code:  errCode,
		})
		return
	}

	c.JSON(http.StatusOK, impact)
}

// HandleGraphExport handles GET /v1/scan/graph/export.
//
// Query Parameters:
//
//	format: "json" (default) or "dot"
//
// Response:
//
//	200 OK: depgraph.Export as JSON, or Graphviz DOT as text
//	400 Bad Request: Unknown format
//	404 Not Found: No analysis has completed yet
func (h *Handlers) HandleGraphExport(c *gin.Context) {
	graph, err := h.svc.Graph()
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: err.Error(),
			Code:  "NO_RESULT",
		})
		return
	}

	switch c.DefaultQuery("format", "json") {
	case "json":
		c.JSON(http.StatusOK, graph.Export())
	case "dot":
		c.String(http.StatusOK, graph.DOT())
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "format must be json or dot",
			Code:  "INVALID_FORMAT",
		})
	}
}

// HandleHealth handles GET /v1/scan/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	_, err := h.svc.LastResult()
	c.JSON(http.StatusOK, HealthResponse{
		Status:        "ok",
		Version:       ServiceVersion,
		UptimeSeconds: h.svc.Uptime().Seconds(),
		HasResult:     err == nil,
	})
}

// getOrCreateRequestID returns the X-Request-ID header, minting one
// when the client did not send it.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
