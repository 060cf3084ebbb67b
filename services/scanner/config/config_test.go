// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 20.0, cfg.Server.ProgressRate)
	assert.Equal(t, 4, cfg.Scan.Workers)
	assert.True(t, cfg.Scan.Recursive)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simscan.yaml")
	content := `
scan:
  mods_dir: /srv/mods
  workers: 8
  recursive: false
  parse_tunings: true
  parse_scripts: true
  compute_hashes: false
server:
  addr: ":9999"
  progress_rate: 5
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/mods", cfg.Scan.ModsDir)
	assert.Equal(t, 8, cfg.Scan.Workers)
	assert.False(t, cfg.Scan.Recursive)
	assert.False(t, cfg.Scan.ComputeHashes)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, 5.0, cfg.Server.ProgressRate)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SIMSCAN_MODS_DIR", "/env/mods")
	t.Setenv("SIMSCAN_ADDR", ":7777")
	t.Setenv("SIMSCAN_WORKERS", "16")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/env/mods", cfg.Scan.ModsDir)
	assert.Equal(t, ":7777", cfg.Server.Addr)
	assert.Equal(t, 16, cfg.Scan.Workers)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: loud\n  format: text\n"), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scan: ["), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate_RejectsTooManyWorkers(t *testing.T) {
	cfg := Default()
	cfg.Scan.Workers = 1000
	assert.ErrorIs(t, Validate(cfg), ErrInvalid)
}
