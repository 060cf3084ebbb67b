// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package deps infers mod dependencies from heuristic signals: pack
// requirements in tunings, script imports that match known mods,
// injection targets, and declarations in bundled README files.
//
// The detected names feed the dependency graph; they are opaque strings
// there, so a pack name and a mod name coexist as graph nodes.
package deps

import (
	"archive/zip"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/simscan/simscan/services/scanner/model"
)

// KnownMods maps import/name signatures to the canonical names of
// popular framework mods other mods commonly depend on.
var KnownMods = map[string]string{
	"mccc":              "MC Command Center",
	"mc_cmd_center":     "MC Command Center",
	"basemental":        "Basemental Drugs",
	"wonderfulwhims":    "Wonderful Whims",
	"wickedwhims":       "WickedWhims",
	"ui_cheats":         "UI Cheats Extension",
	"better_exceptions": "Better Exceptions",
	"tmex":              "TwistedMexi's Better BuildBuy",
	"go_to_school":      "Go to School Mod",
	"slice_of_life":     "Slice of Life",
	"extreme_violence":  "Extreme Violence",
	"life_tragedies":    "Life's Tragedies",
	"sims4communitylib": "Sims4CommunityLibrary",
}

var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`@inject_to\(([^,]+)`),
	regexp.MustCompile(`@inject\(([^)]+)\)`),
	regexp.MustCompile(`@wraps\(([^)]+)\)`),
}

var declarationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)requires?:?\s*([^\n]+)`),
	regexp.MustCompile(`(?i)dependencies?:?\s*([^\n]+)`),
	regexp.MustCompile(`(?i)depends on:?\s*([^\n]+)`),
	regexp.MustCompile(`(?i)needs:?\s*([^\n]+)`),
}

var versionSuffix = regexp.MustCompile(`\s*v?[\d.]+\+?$`)

var listSeparator = regexp.MustCompile(`,|\s+and\s+`)

// Detector infers dependency names for artifacts.
type Detector struct {
	known map[string]string
}

// NewDetector creates a detector using the KnownMods signature table.
func NewDetector() *Detector {
	return &Detector{known: KnownMods}
}

// Detect returns the inferred dependency names for one artifact, sorted
// and deduplicated.
//
// Description:
//
//	Pack requirements become full pack names via model.PackNames.
//	Script artifacts additionally contribute known-mod matches from
//	their imports, injection targets read back from the archive, and
//	declarations in bundled README-style files. Explicitly declared
//	requirements pass through untouched.
func (d *Detector) Detect(artifact model.Artifact) []string {
	found := make(map[string]struct{})

	d.packDependencies(artifact, found)
	for _, req := range artifact.Requires {
		if req != "" {
			found[req] = struct{}{}
		}
	}

	if artifact.Type == model.ArtifactScript || artifact.Type == model.ArtifactHybrid {
		d.importDependencies(artifact, found)
		d.archiveDependencies(artifact.Path, found)
	}

	deps := make([]string, 0, len(found))
	for name := range found {
		deps = append(deps, name)
	}
	sort.Strings(deps)
	return deps
}

// DetectAll maps artifact name to detected dependencies, skipping
// artifacts with none.
func (d *Detector) DetectAll(artifacts []model.Artifact) map[string][]string {
	all := make(map[string][]string)
	for _, artifact := range artifacts {
		if deps := d.Detect(artifact); len(deps) > 0 {
			all[artifact.Name] = deps
		}
	}
	return all
}

// packDependencies resolves pack codes on the artifact and its tunings
// to full pack names. Unrecognized codes are dropped.
func (d *Detector) packDependencies(artifact model.Artifact, found map[string]struct{}) {
	addPack := func(code string) {
		if name, ok := model.PackNames[strings.TrimSpace(code)]; ok {
			found[name] = struct{}{}
		}
	}
	for code := range artifact.PackRequirements {
		addPack(code)
	}
	for _, t := range artifact.Tunings {
		for code := range t.PackRequirements {
			addPack(code)
		}
	}
}

// importDependencies matches script imports against known mod
// signatures.
func (d *Detector) importDependencies(artifact model.Artifact, found map[string]struct{}) {
	for _, mod := range artifact.Modules {
		for imp := range mod.Imports {
			if name, ok := d.matchKnown(strings.ToLower(imp)); ok {
				found[name] = struct{}{}
			}
		}
	}
}

// archiveDependencies re-reads the script archive for injection targets
// in Python sources and dependency declarations in README-style files.
// A missing or unreadable archive contributes nothing.
func (d *Detector) archiveDependencies(path string, found map[string]struct{}) {
	if path == "" || !strings.HasSuffix(strings.ToLower(path), ".ts4script") {
		return
	}
	zr, err := zip.OpenReader(path)
	if err != nil {
		return
	}
	defer zr.Close()

	for _, f := range zr.File {
		lower := strings.ToLower(f.Name)
		isPython := strings.HasSuffix(lower, ".py")
		isDoc := strings.Contains(lower, "readme") ||
			strings.Contains(lower, "dependencies") ||
			strings.Contains(lower, "requirements")
		if !isPython && !isDoc {
			continue
		}

		content, err := readMember(f)
		if err != nil {
			continue
		}
		if isPython {
			d.injectionTargets(content, found)
		}
		if isDoc {
			d.declaredDependencies(content, found)
		}
	}
}

// injectionTargets matches injection decorator arguments against known
// mod signatures.
func (d *Detector) injectionTargets(content string, found map[string]struct{}) {
	for _, pattern := range injectionPatterns {
		for _, m := range pattern.FindAllStringSubmatch(content, -1) {
			if name, ok := d.matchKnown(strings.ToLower(m[1])); ok {
				found[name] = struct{}{}
			}
		}
	}
}

// declaredDependencies parses "Requires: X, Y and Z" style declarations,
// stripping trailing version numbers, and keeps names that match known
// mods.
func (d *Detector) declaredDependencies(content string, found map[string]struct{}) {
	for _, pattern := range declarationPatterns {
		for _, m := range pattern.FindAllStringSubmatch(content, -1) {
			for _, raw := range listSeparator.Split(m[1], -1) {
				dep := versionSuffix.ReplaceAllString(strings.TrimSpace(raw), "")
				if dep == "" {
					continue
				}
				lower := strings.ToLower(dep)
				for key, name := range d.known {
					if strings.Contains(lower, key) || strings.Contains(strings.ToLower(name), lower) {
						found[name] = struct{}{}
						break
					}
				}
			}
		}
	}
}

// matchKnown reports the canonical mod name whose signature occurs in
// the lowercased candidate.
func (d *Detector) matchKnown(candidate string) (string, bool) {
	for key, name := range d.known {
		if strings.Contains(candidate, key) {
			return name, true
		}
	}
	return "", false
}

func readMember(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
