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

// TuningDetector finds tuning instance overlaps between artifacts.
//
// When two or more artifacts modify the same tuning instance ID, only one
// set of changes applies at load time (last loaded wins). Overlaps on core
// tuning classes (buffs, traits, skills, ...) are always CRITICAL.
type TuningDetector struct {
	tables Tables
}

// NewTuningDetector creates a detector using the given domain tables.
func NewTuningDetector(tables Tables) *TuningDetector {
	return &TuningDetector{tables: tables}
}

// Name implements Detector.
func (d *TuningDetector) Name() string { return "tuning" }

// tuningEntry pairs a tuning record with the artifact that defines it.
type tuningEntry struct {
	artifact string
	tuning   *model.TuningRecord
}

// Detect implements Detector. Conflicts are returned sorted by ID.
func (d *TuningDetector) Detect(artifacts []model.Artifact) []model.Conflict {
	index := make(map[uint64][]tuningEntry)
	for i := range artifacts {
		a := &artifacts[i]
		for j := range a.Tunings {
			t := &a.Tunings[j]
			index[t.InstanceID] = append(index[t.InstanceID], tuningEntry{
				artifact: a.Name,
				tuning:   t,
			})
		}
	}

	var conflicts []model.Conflict
	for id, entries := range index {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.artifact)
		}
		if len(dedupSorted(names)) < 2 {
			continue
		}
		conflicts = append(conflicts, d.tuningConflict(id, entries))
	}

	sortByID(conflicts)
	return conflicts
}

func (d *TuningDetector) tuningConflict(id uint64, entries []tuningEntry) model.Conflict {
	first := entries[0].tuning
	isCore := d.tables.IsCoreTuning(first.Class)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.artifact)
	}
	distinct := dedupSorted(names)

	description := fmt.Sprintf(
		"Tuning '%s' (ID: 0x%08X, Class: %s) is modified by %d mods. "+
			"Only one mod's changes will apply (last loaded wins).",
		first.Name, id, first.Class, len(distinct),
	)

	// Per-owner modification details support human explanation in reports.
	modifications := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		modifications = append(modifications, map[string]any{
			"mod_name":            e.artifact,
			"tuning_module":       e.tuning.ModulePath,
			"attributes_modified": len(e.tuning.ModifiedAttributes),
		})
	}

	details := map[string]any{
		"tuning_id":     id,
		"tuning_id_hex": fmt.Sprintf("0x%08X", id),
		"tuning_name":   first.Name,
		"tuning_class":  first.Class,
		"mod_count":     len(distinct),
		"is_core":       isCore,
		"modifications": modifications,
	}

	return newConflict(
		model.KindTuningOverlap,
		fmt.Sprintf("%08X", id),
		distinct,
		description,
		Resolution(model.KindTuningOverlap),
		details,
		isCore,
	)
}
