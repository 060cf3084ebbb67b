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

// ModuleDetector finds script module namespace collisions.
//
// Two artifacts declaring the same module name shadow each other at import
// time; which one wins depends on load order. This is a namespace issue,
// not a script injection: injection tagging is a separate heuristic over
// hook patterns and is not performed here.
type ModuleDetector struct{}

// NewModuleDetector creates a module collision detector.
func NewModuleDetector() *ModuleDetector {
	return &ModuleDetector{}
}

// Name implements Detector.
func (d *ModuleDetector) Name() string { return "module" }

// Detect implements Detector. Unnamed modules are skipped. Conflicts are
// returned sorted by ID.
func (d *ModuleDetector) Detect(artifacts []model.Artifact) []model.Conflict {
	owners := make(map[string][]string)
	for i := range artifacts {
		a := &artifacts[i]
		for _, m := range a.Modules {
			if m.Name == "" {
				continue
			}
			owners[m.Name] = append(owners[m.Name], a.Name)
		}
	}

	var conflicts []model.Conflict
	for module, names := range owners {
		distinct := dedupSorted(names)
		if len(distinct) < 2 {
			continue
		}

		description := fmt.Sprintf(
			"Script module '%s' is declared by %d mods. Only one definition will be "+
				"importable; the others are shadowed.",
			module, len(distinct),
		)

		details := map[string]any{
			"module_name": module,
			"mod_count":   len(distinct),
		}

		conflicts = append(conflicts, newConflict(
			model.KindNamespaceCollision,
			module,
			distinct,
			description,
			Resolution(model.KindNamespaceCollision),
			details,
			false,
		))
	}

	sortByID(conflicts)
	return conflicts
}
