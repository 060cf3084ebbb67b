// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package detect

import "github.com/simscan/simscan/services/scanner/model"

// Standard resolution suggestions per conflict kind.
var resolutions = map[model.ConflictKind]string{
	model.KindTuningOverlap: "Keep only one mod that modifies this tuning, or find a " +
		"compatibility patch that merges both modifications.",
	model.KindResourceDuplicate: "Remove duplicate resources. Keep the mod with the desired " +
		"version. Check mod descriptions for which is recommended.",
	model.KindScriptInjection: "These mods may conflict if they inject into the same game " +
		"function. Test carefully and report issues to mod authors.",
	model.KindDependencyMissing: "Install the required dependency mod. Check mod description " +
		"for download links and installation instructions.",
	model.KindVersionConflict: "Update mods to compatible versions. Check mod pages for " +
		"version compatibility information.",
	model.KindNamespaceCollision: "These mods use conflicting script namespaces. Only use one " +
		"at a time, or contact mod authors about compatibility.",
}

// Resolution returns the standard resolution text for a conflict kind.
func Resolution(kind model.ConflictKind) string {
	if r, ok := resolutions[kind]; ok {
		return r
	}
	return "Review mod descriptions and test in-game to determine compatibility."
}
