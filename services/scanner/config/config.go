// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads and validates the scanner service configuration
// from YAML, with environment variable overrides for deployment knobs.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/simscan/simscan/services/scanner/telemetry"
)

// MaxConfigFileSize bounds the config file to keep parsing cheap (1MB).
const MaxConfigFileSize = 1024 * 1024

var (
	// ErrFileTooLarge indicates the config file exceeds MaxConfigFileSize.
	ErrFileTooLarge = errors.New("config: file too large")

	// ErrInvalid indicates the configuration failed validation.
	ErrInvalid = errors.New("config: invalid configuration")
)

// ScanConfig controls artifact discovery and decoding.
type ScanConfig struct {
	// ModsDir is the default directory to analyze.
	ModsDir string `yaml:"mods_dir"`

	// Workers bounds parallel file decoding.
	Workers int `yaml:"workers" validate:"gte=0,lte=64"`

	// Recursive descends into subdirectories.
	Recursive bool `yaml:"recursive"`

	// ParseTunings decodes XML tuning resources.
	ParseTunings bool `yaml:"parse_tunings"`

	// ParseScripts analyzes script archives.
	ParseScripts bool `yaml:"parse_scripts"`

	// ComputeHashes computes SHA-256 content hashes.
	ComputeHashes bool `yaml:"compute_hashes"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	// Addr is the listen address, host:port.
	Addr string `yaml:"addr" validate:"required"`

	// ProgressRate caps websocket progress updates per second.
	ProgressRate float64 `yaml:"progress_rate" validate:"gt=0,lte=1000"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" validate:"oneof=debug info warn error"`

	// Format is "json" or "text".
	Format string `yaml:"format" validate:"oneof=json text"`
}

// Config is the root service configuration.
type Config struct {
	Scan      ScanConfig       `yaml:"scan"`
	Server    ServerConfig     `yaml:"server"`
	Logging   LoggingConfig    `yaml:"logging"`
	Telemetry telemetry.Config `yaml:"telemetry"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Scan: ScanConfig{
			Workers:       4,
			Recursive:     true,
			ParseTunings:  true,
			ParseScripts:  true,
			ComputeHashes: true,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ProgressRate: 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: telemetry.DefaultConfig(),
	}
}

// Load reads the YAML file at path, applies environment overrides, and
// validates the result. An empty path loads defaults plus overrides.
//
// Environment overrides:
//
//	SIMSCAN_MODS_DIR - scan.mods_dir
//	SIMSCAN_ADDR - server.addr
//	SIMSCAN_LOG_LEVEL - logging.level
//	SIMSCAN_WORKERS - scan.workers
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		info, err := os.Stat(path)
		if err != nil {
			return cfg, fmt.Errorf("config: stat %s: %w", path, err)
		}
		if info.Size() > MaxConfigFileSize {
			return cfg, fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, path, info.Size())
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration against its constraints.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SIMSCAN_MODS_DIR"); v != "" {
		cfg.Scan.ModsDir = v
	}
	if v := os.Getenv("SIMSCAN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("SIMSCAN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SIMSCAN_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scan.Workers = n
		}
	}
}
