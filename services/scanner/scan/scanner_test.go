// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scan

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simscan/simscan/services/scanner/model"
)

// writePackageFile writes a minimal valid DBPF package containing one
// uncompressed XML tuning resource.
func writePackageFile(t *testing.T, path string, instance uint64, tuningXML string) {
	t.Helper()

	payload := []byte(tuningXML)
	header := make([]byte, 96)
	copy(header, "DBPF")
	binary.LittleEndian.PutUint32(header[4:8], 2)
	binary.LittleEndian.PutUint32(header[40:44], 1)
	binary.LittleEndian.PutUint32(header[44:48], uint32(96+len(payload)))
	binary.LittleEndian.PutUint32(header[48:52], 32)

	entry := make([]byte, 32)
	binary.LittleEndian.PutUint32(entry[0:4], model.ResourceTypeXMLTuning)
	binary.LittleEndian.PutUint64(entry[8:16], instance)
	binary.LittleEndian.PutUint32(entry[16:20], 96)
	binary.LittleEndian.PutUint32(entry[20:24], uint32(len(payload)))

	var buf bytes.Buffer
	buf.Write(header)
	buf.Write(payload)
	buf.Write(entry)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

// writeScriptFile writes a minimal .ts4script archive.
func writeScriptFile(t *testing.T, path string, files map[string]string) {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestScan_FindsPackagesAndScripts(t *testing.T) {
	dir := t.TempDir()
	writePackageFile(t, filepath.Join(dir, "buffs.package"), 0xAABBCCDD,
		`<I c="Buff" i="buff_test" m="buffs.buff" s="0xAABBCCDD"/>`)
	writeScriptFile(t, filepath.Join(dir, "tools.ts4script"), map[string]string{
		"main.py": "import sims4communitylib.services\n",
	})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore"), 0o644))

	s := New(DefaultOptions(), nil)
	result, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, result.Artifacts, 2)
	assert.Empty(t, result.Errors)

	pkg := result.Artifacts[0]
	assert.Equal(t, "buffs.package", pkg.Name)
	assert.Equal(t, model.ArtifactPackage, pkg.Type)
	assert.NotEmpty(t, pkg.ContentHash)
	require.Len(t, pkg.Resources, 1)
	require.Len(t, pkg.Tunings, 1)
	assert.Equal(t, uint64(0xAABBCCDD), pkg.Tunings[0].InstanceID)
	assert.Equal(t, "Buff", pkg.Tunings[0].Class)

	scr := result.Artifacts[1]
	assert.Equal(t, "tools.ts4script", scr.Name)
	assert.Equal(t, model.ArtifactScript, scr.Type)
	require.Len(t, scr.Modules, 1)
	assert.Contains(t, scr.Requires, "Sims4CommunityLibrary")
}

func TestScan_RecursesIntoSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	writeScriptFile(t, filepath.Join(sub, "deep.ts4script"), map[string]string{"m.py": "pass\n"})

	s := New(DefaultOptions(), nil)
	result, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, result.Artifacts, 1)
	assert.Equal(t, "deep.ts4script", result.Artifacts[0].Name)
}

func TestScan_NonRecursive(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	writeScriptFile(t, filepath.Join(dir, "top.ts4script"), map[string]string{"m.py": "pass\n"})
	writeScriptFile(t, filepath.Join(sub, "deep.ts4script"), map[string]string{"m.py": "pass\n"})

	opts := DefaultOptions()
	opts.Recursive = false
	result, err := New(opts, nil).Scan(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, result.Artifacts, 1)
	assert.Equal(t, "top.ts4script", result.Artifacts[0].Name)
}

func TestScan_CorruptFileReportsErrorAndMinimalArtifact(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.package"), []byte("garbage"), 0o644))

	s := New(DefaultOptions(), nil)
	result, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, filepath.Join(dir, "broken.package"), result.Errors[0].Path)

	// The artifact still shows up with basic file facts.
	require.Len(t, result.Artifacts, 1)
	assert.Equal(t, "broken.package", result.Artifacts[0].Name)
	assert.Equal(t, int64(7), result.Artifacts[0].SizeBytes)
	assert.Empty(t, result.Artifacts[0].Resources)
}

func TestScan_MissingDirectory(t *testing.T) {
	s := New(DefaultOptions(), nil)
	_, err := s.Scan(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestScan_NoHashesWhenDisabled(t *testing.T) {
	dir := t.TempDir()
	writeScriptFile(t, filepath.Join(dir, "m.ts4script"), map[string]string{"m.py": "pass\n"})

	opts := DefaultOptions()
	opts.ComputeHashes = false
	result, err := New(opts, nil).Scan(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, result.Artifacts, 1)
	assert.Empty(t, result.Artifacts[0].ContentHash)
}

func TestDedupChanges(t *testing.T) {
	now := time.Now()
	changes := []Change{
		{Path: "a.package", Op: ChangeOpCreate, Time: now},
		{Path: "b.package", Op: ChangeOpWrite, Time: now},
		{Path: "a.package", Op: ChangeOpWrite, Time: now.Add(time.Second)},
	}

	deduped := dedupChanges(changes)
	require.Len(t, deduped, 2)
	assert.Equal(t, "a.package", deduped[0].Path)
	assert.Equal(t, ChangeOpWrite, deduped[0].Op, "latest change per path wins")
	assert.Equal(t, "b.package", deduped[1].Path)
}

func TestIsModFile(t *testing.T) {
	assert.True(t, isModFile("mods/thing.package"))
	assert.True(t, isModFile("MODS/THING.TS4SCRIPT"))
	assert.False(t, isModFile("mods/readme.txt"))
	assert.False(t, isModFile("mods/dir"))
}
