// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package detect implements the conflict detectors: resource duplicates,
// tuning overlaps, and script module namespace collisions.
//
// Each detector is a pure function over an immutable artifact list. Given
// the same input, a detector always produces the same conflicts in the same
// order, so reports are reproducible run to run. Detectors share a single
// severity decision table (Classify) and a resolution-text lookup.
package detect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/simscan/simscan/services/scanner/model"
)

// Detector is the common interface for all conflict detectors.
type Detector interface {
	// Name identifies the detector in summaries and metrics.
	Name() string

	// Detect scans the artifact list and returns all conflicts found,
	// sorted by conflict ID. Artifacts with no relevant records produce
	// no conflicts. Detect never fails on well-formed input.
	Detect(artifacts []model.Artifact) []model.Conflict
}

// Tables is the immutable domain configuration consumed by detectors.
//
// The zero value is not usable; construct with DefaultTables and override
// fields in tests as needed.
type Tables struct {
	// CriticalResourceTypes holds resource type codes whose collisions are
	// always classified CRITICAL.
	CriticalResourceTypes map[uint32]struct{}

	// CoreTuningClasses holds tuning class names whose collisions are
	// always classified CRITICAL.
	CoreTuningClasses map[string]struct{}
}

// DefaultTables returns the standard critical-type and core-class tables.
func DefaultTables() Tables {
	return Tables{
		CriticalResourceTypes: map[uint32]struct{}{
			model.ResourceTypeSimData:          {},
			model.ResourceTypeObjectDefinition: {},
			model.ResourceTypeObjectKey:        {},
			model.ResourceTypeCASPart:          {},
		},
		CoreTuningClasses: map[string]struct{}{
			"Buff":       {},
			"Trait":      {},
			"Skill":      {},
			"Career":     {},
			"Aspiration": {},
			"Commodity":  {},
		},
	}
}

// IsCriticalResource reports whether the type code is in the critical set.
func (t Tables) IsCriticalResource(typeID uint32) bool {
	_, ok := t.CriticalResourceTypes[typeID]
	return ok
}

// IsCoreTuning reports whether the class name is in the core set.
func (t Tables) IsCoreTuning(class string) bool {
	_, ok := t.CoreTuningClasses[class]
	return ok
}

// conflictID derives the stable conflict identifier from the conflict kind
// and the colliding identifier. The prefix is the first four characters of
// the lowercased kind name, matching the historical ID format.
func conflictID(kind model.ConflictKind, identifier string) string {
	prefix := strings.ToLower(kind.String())
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	return fmt.Sprintf("%s_%s", prefix, identifier)
}

// newConflict assembles a Conflict with classified severity, a stable ID,
// and sorted, deduplicated affected-artifact names.
func newConflict(
	kind model.ConflictKind,
	identifier string,
	affected []string,
	description string,
	resolution string,
	details map[string]any,
	isCore bool,
) model.Conflict {
	names := dedupSorted(affected)
	return model.Conflict{
		ID:                conflictID(kind, identifier),
		Severity:          Classify(kind, len(names), isCore),
		Kind:              kind,
		AffectedArtifacts: names,
		Description:       description,
		Resolution:        resolution,
		Details:           details,
	}
}

// dedupSorted returns the unique names in ascending order.
func dedupSorted(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// sortByID orders conflicts by their stable ID for reproducible output.
func sortByID(conflicts []model.Conflict) {
	sort.Slice(conflicts, func(i, j int) bool {
		return conflicts[i].ID < conflicts[j].ID
	})
}

// RunAll runs every detector over the same artifact list and concatenates
// the results in detector order. Detectors do not see each other's output.
func RunAll(detectors []Detector, artifacts []model.Artifact) []model.Conflict {
	var all []model.Conflict
	for _, d := range detectors {
		all = append(all, d.Detect(artifacts)...)
	}
	return all
}
