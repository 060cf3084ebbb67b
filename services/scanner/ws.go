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
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/simscan/simscan/services/scanner/analyzer"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 64 * 1024,
}

// WSAnalyzeRequest is the first message a websocket client sends.
type WSAnalyzeRequest struct {
	Directory string `json:"directory"`
}

// WSProgress streams stage completion to the client.
type WSProgress struct {
	Type  string `json:"type"` // always "progress"
	Stage string `json:"stage"`
	Done  int    `json:"done"`
	Total int    `json:"total"`
}

// WSComplete carries the final analysis result.
type WSComplete struct {
	Type   string           `json:"type"` // always "complete"
	Result *analyzer.Result `json:"result"`
}

// WSError reports a failed run.
type WSError struct {
	Type  string `json:"type"` // always "error"
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func sendJSON(ws *websocket.Conn, v any) error {
	err := ws.WriteJSON(v)
	if err != nil {
		slog.Warn("Failed to write websocket JSON", "error", err)
	}
	return err
}

// HandleAnalyzeWS handles GET /v1/scan/ws/analyze.
//
// Description:
//
//	Upgrades the connection, reads a single WSAnalyzeRequest, runs the
//	analysis, and streams WSProgress messages as stages complete.
//	Progress is throttled to progressRate updates per second; the final
//	update of each run is always delivered. The run ends with a
//	WSComplete or WSError message, after which the connection closes.
//
// Inputs:
//
//	svc - The scanner service
//	progressRate - Maximum progress messages per second
//
// Outputs:
//
//	gin.HandlerFunc - The websocket handler
func HandleAnalyzeWS(svc *Service, progressRate float64) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("Failed to upgrade websocket", "error", err)
			return
		}
		defer ws.Close()
		slog.Info("Websocket client connected")

		var req WSAnalyzeRequest
		if err := ws.ReadJSON(&req); err != nil {
			slog.Info("Websocket client disconnected", "error", err.Error())
			return
		}
		if req.Directory == "" {
			_ = sendJSON(ws, WSError{
				Type:  "error",
				Error: "directory is required",
				Code:  "INVALID_REQUEST",
			})
			return
		}

		// The analyzer invokes progress synchronously from one
		// goroutine, so writes here never interleave.
		limiter := rate.NewLimiter(rate.Limit(progressRate), 1)
		progress := func(stage string, done, total int) {
			if done < total && !limiter.Allow() {
				return
			}
			_ = sendJSON(ws, WSProgress{
				Type:  "progress",
				Stage: stage,
				Done:  done,
				Total: total,
			})
		}

		result, err := svc.Analyze(c.Request.Context(), req.Directory, progress)
		if err != nil {
			code := "ANALYSIS_FAILED"
			if errors.Is(err, ErrAnalysisInProgress) {
				code = "ANALYSIS_IN_PROGRESS"
			}
			_ = sendJSON(ws, WSError{Type: "error", Error: err.Error(), Code: code})
			return
		}

		_ = sendJSON(ws, WSComplete{Type: "complete", Result: result})
	}
}
