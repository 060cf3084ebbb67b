// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/simscan/simscan/pkg/logging"
	"github.com/simscan/simscan/services/scanner"
	"github.com/simscan/simscan/services/scanner/config"
	"github.com/simscan/simscan/services/scanner/telemetry"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	serveConfigPath string
	serveAddr       string
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the mod analysis HTTP service",
	Long: `Serve starts the HTTP API for mod analysis.

The service exposes analysis, conflict, and dependency graph
endpoints under /v1/scan, a websocket progress stream at
/v1/scan/ws/analyze, and prometheus metrics at /metrics.

Examples:
  simscan serve
  simscan serve --config /etc/simscan/config.yaml
  simscan serve --addr :9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "",
		"Path to the YAML config file")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "",
		"Listen address, overrides the config file")
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadServeConfig()
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logger := logging.New(logging.Config{
		Level:   level,
		Service: "server",
		JSON:    cfg.Logging.Format == "json",
	})
	defer logger.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}()

	svc := scanner.NewService(cfg, logger.Slog())
	router := scanner.NewRouter(scanner.NewHandlers(svc), cfg.Server.ProgressRate)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}

	return nil
}

func loadServeConfig() (config.Config, error) {
	var cfg config.Config
	var err error
	if serveConfigPath != "" {
		cfg, err = config.Load(serveConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = config.Default()
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	return cfg, nil
}
