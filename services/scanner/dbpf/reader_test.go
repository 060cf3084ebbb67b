// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dbpf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simscan/simscan/services/scanner/model"
)

// testResource is one payload to pack into a synthetic package file.
type testResource struct {
	key      model.ResourceKey
	data     []byte
	compress bool
}

// writePackage assembles a minimal valid DBPF file on disk and returns
// its path.
func writePackage(t *testing.T, resources []testResource) string {
	t.Helper()

	var payloads bytes.Buffer
	type placed struct {
		offset         uint32
		size           uint32
		compressedSize uint32
	}
	positions := make([]placed, len(resources))

	for i, res := range resources {
		offset := uint32(headerSize) + uint32(payloads.Len())
		if res.compress {
			var comp bytes.Buffer
			zw := zlib.NewWriter(&comp)
			_, err := zw.Write(res.data)
			require.NoError(t, err)
			require.NoError(t, zw.Close())
			payloads.Write(comp.Bytes())
			positions[i] = placed{
				offset:         offset,
				size:           uint32(len(res.data)),
				compressedSize: uint32(comp.Len()),
			}
		} else {
			payloads.Write(res.data)
			positions[i] = placed{
				offset: offset,
				size:   uint32(len(res.data)),
			}
		}
	}

	var index bytes.Buffer
	for i, res := range resources {
		entry := make([]byte, indexEntrySize)
		binary.LittleEndian.PutUint32(entry[0:4], res.key.Type)
		binary.LittleEndian.PutUint32(entry[4:8], res.key.Group)
		binary.LittleEndian.PutUint64(entry[8:16], res.key.Instance)
		binary.LittleEndian.PutUint32(entry[16:20], positions[i].offset)
		binary.LittleEndian.PutUint32(entry[20:24], positions[i].size)
		binary.LittleEndian.PutUint32(entry[24:28], positions[i].compressedSize)
		index.Write(entry)
	}

	header := make([]byte, headerSize)
	copy(header[0:4], "DBPF")
	binary.LittleEndian.PutUint32(header[4:8], majorVersion)
	binary.LittleEndian.PutUint32(header[8:12], 1)
	binary.LittleEndian.PutUint32(header[40:44], uint32(len(resources)))
	binary.LittleEndian.PutUint32(header[44:48], uint32(headerSize+payloads.Len()))
	binary.LittleEndian.PutUint32(header[48:52], uint32(index.Len()))

	path := filepath.Join(t.TempDir(), "fixture.package")
	var file bytes.Buffer
	file.Write(header)
	file.Write(payloads.Bytes())
	file.Write(index.Bytes())
	require.NoError(t, os.WriteFile(path, file.Bytes(), 0o644))
	return path
}

func TestOpen_ParsesHeaderAndIndex(t *testing.T) {
	key := model.ResourceKey{Type: model.ResourceTypeXMLTuning, Group: 0x80000000, Instance: 0xAABBCCDD}
	path := writePackage(t, []testResource{
		{key: key, data: []byte("<I n=\"buff_test\"/>")},
	})

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, uint32(2), r.Header().MajorVersion)
	assert.Equal(t, uint32(1), r.Header().IndexCount)

	records := r.Records()
	require.Len(t, records, 1)
	assert.Equal(t, key, records[0].Key)
	assert.False(t, records[0].IsCompressed())
}

func TestResourceData_Uncompressed(t *testing.T) {
	payload := []byte("plain tuning payload")
	path := writePackage(t, []testResource{
		{key: model.ResourceKey{Type: 1, Instance: 2}, data: payload},
	})

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	data, err := r.ResourceData(r.Records()[0])
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestResourceData_Compressed(t *testing.T) {
	payload := bytes.Repeat([]byte("simdata "), 64)
	path := writePackage(t, []testResource{
		{key: model.ResourceKey{Type: model.ResourceTypeSimData, Instance: 7}, data: payload, compress: true},
	})

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	rec := r.Records()[0]
	require.True(t, rec.IsCompressed())

	data, err := r.ResourceData(rec)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestRecordsByType(t *testing.T) {
	path := writePackage(t, []testResource{
		{key: model.ResourceKey{Type: model.ResourceTypeXMLTuning, Instance: 1}, data: []byte("a")},
		{key: model.ResourceKey{Type: model.ResourceTypeSimData, Instance: 2}, data: []byte("b")},
		{key: model.ResourceKey{Type: model.ResourceTypeXMLTuning, Instance: 3}, data: []byte("c")},
	})

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	tuning := r.RecordsByType(model.ResourceTypeXMLTuning)
	require.Len(t, tuning, 2)
	assert.Equal(t, uint64(1), tuning[0].Key.Instance)
	assert.Equal(t, uint64(3), tuning[1].Key.Instance)
	assert.Empty(t, r.RecordsByType(model.ResourceTypeCASPart))
}

func TestOpen_RejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.package")
	buf := make([]byte, headerSize)
	copy(buf, "NOPE")
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrNotDBPF)
}

func TestOpen_RejectsWrongVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v1.package")
	buf := make([]byte, headerSize)
	copy(buf, "DBPF")
	binary.LittleEndian.PutUint32(buf[4:8], 1)
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestOpen_RejectsTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.package")
	require.NoError(t, os.WriteFile(path, []byte("DBPF"), 0o644))

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrNotDBPF)
}

func TestOpen_RejectsTruncatedIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cut.package")
	buf := make([]byte, headerSize)
	copy(buf, "DBPF")
	binary.LittleEndian.PutUint32(buf[4:8], majorVersion)
	binary.LittleEndian.PutUint32(buf[40:44], 4)          // claims 4 entries
	binary.LittleEndian.PutUint32(buf[44:48], headerSize) // index at EOF
	binary.LittleEndian.PutUint32(buf[48:52], 16)         // too small for 4 entries
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrCorruptIndex)
}

func TestOpen_RejectsIndexBeyondFileEnd(t *testing.T) {
	// A 96-byte file whose header claims a 32 MiB index table. The declared
	// size must be bounded against the real file size before allocation.
	path := filepath.Join(t.TempDir(), "huge.package")
	buf := make([]byte, headerSize)
	copy(buf, "DBPF")
	binary.LittleEndian.PutUint32(buf[4:8], majorVersion)
	binary.LittleEndian.PutUint32(buf[40:44], 1<<20)
	binary.LittleEndian.PutUint32(buf[44:48], headerSize)
	binary.LittleEndian.PutUint32(buf[48:52], 1<<25)
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	_, err := Open(path)
	require.ErrorIs(t, err, ErrCorruptIndex)
	assert.ErrorContains(t, err, "index ends at")
}
