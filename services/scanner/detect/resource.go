// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package detect

import (
	"fmt"

	"github.com/simscan/simscan/services/scanner/model"
)

// ResourceDetector finds resource conflicts between artifacts.
//
// Two independent indexes are built in a single pass over the input:
//
//   - resource key (type, group, instance) -> owning artifact names.
//     A key owned by two or more distinct artifacts collides: only one
//     version of the resource will be used at load time.
//   - content hash -> owning artifact names. Identical hashes across
//     artifacts indicate duplicate content packaged separately.
//
// A pair of artifacts colliding on both a key and a hash yields two
// separate conflicts; hash collisions are distinguished by a
// "content_hash" details entry instead of "resource_key".
type ResourceDetector struct {
	tables Tables
}

// NewResourceDetector creates a detector using the given domain tables.
func NewResourceDetector(tables Tables) *ResourceDetector {
	return &ResourceDetector{tables: tables}
}

// Name implements Detector.
func (d *ResourceDetector) Name() string { return "resource" }

// Detect implements Detector. Conflicts are returned sorted by ID.
func (d *ResourceDetector) Detect(artifacts []model.Artifact) []model.Conflict {
	conflicts := d.detectKeyConflicts(artifacts)
	conflicts = append(conflicts, d.detectHashCollisions(artifacts)...)
	sortByID(conflicts)
	return conflicts
}

// detectKeyConflicts indexes resource keys to owners and emits one conflict
// per key with two or more distinct owners.
func (d *ResourceDetector) detectKeyConflicts(artifacts []model.Artifact) []model.Conflict {
	owners := make(map[model.ResourceKey][]string)
	for i := range artifacts {
		a := &artifacts[i]
		for key := range a.ResourceKeys() {
			owners[key] = append(owners[key], a.Name)
		}
	}

	var conflicts []model.Conflict
	for key, names := range owners {
		distinct := dedupSorted(names)
		if len(distinct) < 2 {
			continue
		}
		conflicts = append(conflicts, d.keyConflict(key, distinct))
	}
	return conflicts
}

func (d *ResourceDetector) keyConflict(key model.ResourceKey, owners []string) model.Conflict {
	isCritical := d.tables.IsCriticalResource(key.Type)
	typeName := model.ResourceTypeName(key.Type)

	description := fmt.Sprintf(
		"Resource %s (%s) is present in %d mods. Only one version will be used (last loaded wins).",
		key, typeName, len(owners),
	)
	if isCritical {
		description += " This is a critical resource that affects core gameplay."
	}

	details := map[string]any{
		"resource_key":       key.String(),
		"resource_type":      key.Type,
		"resource_type_hex":  fmt.Sprintf("0x%08X", key.Type),
		"resource_type_name": typeName,
		"mod_count":          len(owners),
		"is_critical":        isCritical,
	}

	identifier := fmt.Sprintf("%08X_%08X_%016X", key.Type, key.Group, key.Instance)
	return newConflict(
		model.KindResourceDuplicate,
		identifier,
		owners,
		description,
		Resolution(model.KindResourceDuplicate),
		details,
		isCritical,
	)
}

// detectHashCollisions indexes content hashes to owners and emits one
// conflict per hash shared by two or more artifacts. Artifacts without a
// hash are skipped.
func (d *ResourceDetector) detectHashCollisions(artifacts []model.Artifact) []model.Conflict {
	groups := make(map[string][]*model.Artifact)
	for i := range artifacts {
		a := &artifacts[i]
		if a.ContentHash == "" {
			continue
		}
		groups[a.ContentHash] = append(groups[a.ContentHash], a)
	}

	var conflicts []model.Conflict
	for hash, group := range groups {
		names := make([]string, len(group))
		for i, a := range group {
			names[i] = a.Name
		}
		distinct := dedupSorted(names)
		if len(distinct) < 2 {
			continue
		}

		var totalSize int64
		for _, a := range group {
			totalSize += a.SizeBytes
		}

		display := hash
		if len(display) > 12 {
			display = display[:12]
		}
		description := fmt.Sprintf(
			"Multiple mods have identical content hashes (%s...). This likely indicates "+
				"duplicate content. Consider keeping only one.",
			display,
		)

		details := map[string]any{
			"content_hash": hash,
			"mod_count":    len(distinct),
			"total_size":   totalSize,
		}

		identifier := hash
		if len(identifier) > 16 {
			identifier = identifier[:16]
		}
		conflicts = append(conflicts, newConflict(
			model.KindResourceDuplicate,
			"hash_"+identifier,
			distinct,
			description,
			"These mods appear to be duplicates. Keep only one to save space and avoid "+
				"potential conflicts.",
			details,
			false,
		))
	}
	return conflicts
}
