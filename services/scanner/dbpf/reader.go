// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package dbpf reads DBPF (Database Packed File) containers, the archive
// format .package artifacts use to store their resources.
//
// A DBPF file is a 96-byte header, an index table of fixed 32-byte
// entries, and the resource payloads the index points at. Payloads may be
// zlib-compressed. Format reference: https://simswiki.info/DatabasePackedFile
package dbpf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/simscan/simscan/services/scanner/model"
)

const (
	headerSize     = 96
	indexEntrySize = 32
	majorVersion   = 2
)

var headerMagic = [4]byte{'D', 'B', 'P', 'F'}

var (
	// ErrNotDBPF indicates the file does not start with the DBPF magic.
	ErrNotDBPF = errors.New("dbpf: not a DBPF file")

	// ErrUnsupportedVersion indicates a major version other than 2.
	ErrUnsupportedVersion = errors.New("dbpf: unsupported format version")

	// ErrCorruptIndex indicates the index table is truncated or
	// inconsistent with the header.
	ErrCorruptIndex = errors.New("dbpf: corrupt index table")

	// ErrCorruptResource indicates a payload could not be read or
	// decompressed to its declared size.
	ErrCorruptResource = errors.New("dbpf: corrupt resource data")
)

// Header holds the parsed file header.
type Header struct {
	MajorVersion uint32
	MinorVersion uint32
	UserVersion  uint32
	IndexCount   uint32
	IndexOffset  uint32
	IndexSize    uint32
	FileSize     int64
}

// Reader provides access to one open package file.
//
// Thread Safety: Safe for concurrent reads once opened; payload reads use
// positional I/O and never move a shared file offset.
type Reader struct {
	f       *os.File
	header  Header
	records []model.ResourceRecord
}

// Open opens a package file and parses its header and index table.
//
// Description:
//
//	The header and index are validated eagerly so a corrupt container
//	fails here rather than midway through resource extraction. The
//	returned Reader keeps the file open; callers must Close it.
//
// Inputs:
//
//	path - Filesystem path to the .package file.
//
// Outputs:
//
//	*Reader - Open reader positioned over the parsed container.
//	error - ErrNotDBPF, ErrUnsupportedVersion, ErrCorruptIndex, or an
//	        underlying I/O error.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dbpf: open %s: %w", path, err)
	}

	r := &Reader{f: f}
	if err := r.readHeader(); err != nil {
		f.Close()
		return nil, err
	}
	if err := r.readIndex(); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}

// Header returns the parsed file header.
func (r *Reader) Header() Header {
	return r.header
}

// Records returns the parsed index entries in file order.
func (r *Reader) Records() []model.ResourceRecord {
	return r.records
}

// RecordsByType returns the index entries whose type matches typeID.
func (r *Reader) RecordsByType(typeID uint32) []model.ResourceRecord {
	var matched []model.ResourceRecord
	for _, rec := range r.records {
		if rec.Key.Type == typeID {
			matched = append(matched, rec)
		}
	}
	return matched
}

// readHeader parses and validates the 96-byte header.
func (r *Reader) readHeader() error {
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(r.f, buf); err != nil {
		return fmt.Errorf("%w: header shorter than %d bytes", ErrNotDBPF, headerSize)
	}

	if !bytes.Equal(buf[0:4], headerMagic[:]) {
		return fmt.Errorf("%w: magic %q", ErrNotDBPF, buf[0:4])
	}

	r.header = Header{
		MajorVersion: binary.LittleEndian.Uint32(buf[4:8]),
		MinorVersion: binary.LittleEndian.Uint32(buf[8:12]),
		UserVersion:  binary.LittleEndian.Uint32(buf[12:16]),
		IndexCount:   binary.LittleEndian.Uint32(buf[40:44]),
		IndexOffset:  binary.LittleEndian.Uint32(buf[44:48]),
		IndexSize:    binary.LittleEndian.Uint32(buf[48:52]),
	}

	if r.header.MajorVersion != majorVersion {
		return fmt.Errorf("%w: major version %d", ErrUnsupportedVersion, r.header.MajorVersion)
	}

	info, err := r.f.Stat()
	if err != nil {
		return fmt.Errorf("dbpf: stat: %w", err)
	}
	r.header.FileSize = info.Size()
	return nil
}

// readIndex parses the index table the header points at.
func (r *Reader) readIndex() error {
	need := uint64(r.header.IndexCount) * indexEntrySize
	if need > uint64(r.header.IndexSize) {
		return fmt.Errorf("%w: %d entries do not fit in %d bytes",
			ErrCorruptIndex, r.header.IndexCount, r.header.IndexSize)
	}
	if end := uint64(r.header.IndexOffset) + uint64(r.header.IndexSize); end > uint64(r.header.FileSize) {
		return fmt.Errorf("%w: index ends at %d, file is %d bytes",
			ErrCorruptIndex, end, r.header.FileSize)
	}

	table := make([]byte, r.header.IndexSize)
	if _, err := r.f.ReadAt(table, int64(r.header.IndexOffset)); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}

	r.records = make([]model.ResourceRecord, 0, r.header.IndexCount)
	for i := uint32(0); i < r.header.IndexCount; i++ {
		entry := table[i*indexEntrySize : (i+1)*indexEntrySize]
		r.records = append(r.records, model.ResourceRecord{
			Key: model.ResourceKey{
				Type:     binary.LittleEndian.Uint32(entry[0:4]),
				Group:    binary.LittleEndian.Uint32(entry[4:8]),
				Instance: binary.LittleEndian.Uint64(entry[8:16]),
			},
			Offset:         binary.LittleEndian.Uint32(entry[16:20]),
			Size:           binary.LittleEndian.Uint32(entry[20:24]),
			CompressedSize: binary.LittleEndian.Uint32(entry[24:28]),
		})
	}
	return nil
}

// ResourceData extracts one payload, decompressing it when the index
// marks it compressed.
//
// Outputs:
//
//	[]byte - The raw payload, exactly rec.Size bytes for compressed
//	         entries.
//	error - ErrCorruptResource when the payload cannot be read in full
//	        or the decompressed size disagrees with the index.
func (r *Reader) ResourceData(rec model.ResourceRecord) ([]byte, error) {
	readSize := rec.Size
	if rec.IsCompressed() {
		readSize = rec.CompressedSize
	}

	raw := make([]byte, readSize)
	if _, err := r.f.ReadAt(raw, int64(rec.Offset)); err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrCorruptResource, rec.Key, err)
	}

	if !rec.IsCompressed() {
		return raw, nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: decompress %s: %v", ErrCorruptResource, rec.Key, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress %s: %v", ErrCorruptResource, rec.Key, err)
	}
	if uint32(len(data)) != rec.Size {
		return nil, fmt.Errorf("%w: %s decompressed to %d bytes, index says %d",
			ErrCorruptResource, rec.Key, len(data), rec.Size)
	}
	return data, nil
}
