// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scanner

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/simscan/simscan/services/scanner/telemetry"
)

// RegisterRoutes registers all scanner routes with the router group.
//
// Description:
//
//	Registers the /scan/* endpoints with the given Gin router group
//	(typically /v1).
//
// Endpoints:
//
//	POST /v1/scan/analyze - Run a full analysis
//	GET  /v1/scan/result - Last completed result
//	GET  /v1/scan/conflicts - Conflicts, optional severity filter
//	GET  /v1/scan/graph/cycles - Dependency cycles
//	GET  /v1/scan/graph/loadorder - Suggested load order
//	GET  /v1/scan/graph/impact/:name - Removal impact for a mod
//	GET  /v1/scan/graph/export - Graph as JSON or DOT
//	GET  /v1/scan/ws/analyze - Websocket analysis with progress
//	GET  /v1/scan/health - Health check
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//	progressRate - Maximum websocket progress updates per second
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers, progressRate float64) {
	scan := rg.Group("/scan")
	{
		scan.POST("/analyze", handlers.HandleAnalyze)
		scan.GET("/result", handlers.HandleResult)
		scan.GET("/conflicts", handlers.HandleConflicts)

		graph := scan.Group("/graph")
		{
			graph.GET("/cycles", handlers.HandleCycles)
			graph.GET("/loadorder", handlers.HandleLoadOrder)
			graph.GET("/impact/:name", handlers.HandleImpact)
			graph.GET("/export", handlers.HandleGraphExport)
		}

		scan.GET("/ws/analyze", HandleAnalyzeWS(handlers.svc, progressRate))

		scan.GET("/health", handlers.HandleHealth)
	}
}

// NewRouter builds the service router with middleware and routes.
//
// Description:
//
//	Creates the Gin engine, applies the otelgin tracing middleware,
//	exposes /metrics when the prometheus exporter is initialized, and
//	registers all scanner routes under /v1.
//
// Inputs:
//
//	handlers - The handlers instance
//	progressRate - Maximum websocket progress updates per second
//
// Outputs:
//
//	*gin.Engine - The configured router
func NewRouter(handlers *Handlers, progressRate float64) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("scanner-service"))

	if mh := telemetry.MetricsHandler(); mh != nil {
		router.GET("/metrics", gin.WrapH(mh))
	}

	v1 := router.Group("/v1")
	RegisterRoutes(v1, handlers, progressRate)

	return router
}
