// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package script analyzes .ts4script archives, which are ZIP files
// containing Python source modules. It extracts declared metadata, the
// module list with imports, game-hook usage, and a rough complexity
// score per module.
package script

import (
	"archive/zip"
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/simscan/simscan/services/scanner/model"
)

// ErrNotArchive indicates the file is not a readable ZIP archive.
var ErrNotArchive = errors.New("script: not a ZIP archive")

// hookPatterns are the injection idioms mod scripts use to patch game
// behavior. Presence of any of them marks the module as hooking.
var hookPatterns = []string{
	"inject_to",
	"wrap_function",
	"override",
	"inject",
	"event.register",
	"listener",
	"@inject_to",
	"@wrap",
}

var (
	importPattern    = regexp.MustCompile(`(?m)^\s*import\s+([\w.]+)`)
	fromPattern      = regexp.MustCompile(`(?m)^\s*from\s+([\w.]+)\s+import`)
	decoratorPattern = regexp.MustCompile(`(?m)^\s*@(\w*(?:inject|wrap|override)\w*)`)
	branchPattern    = regexp.MustCompile(`(?m)^\s*(?:if|elif|while|for|try|except)\b`)
	defPattern       = regexp.MustCompile(`(?m)^\s*(?:async\s+)?def\s`)
	classPattern     = regexp.MustCompile(`(?m)^\s*class\s`)
	boolOpPattern    = regexp.MustCompile(`\b(?:and|or)\b`)
)

// Metadata is the declared identity of a script archive.
type Metadata struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Author   string   `json:"author"`
	Requires []string `json:"requires,omitempty"`
}

// Result is the full analysis of one script archive.
type Result struct {
	Metadata Metadata
	Modules  []model.ScriptModule
}

// Analyze opens a .ts4script archive and analyzes every Python module
// inside it.
//
// Description:
//
//	Metadata comes from metadata.txt, README.md or __init__.py, with
//	the archive base name as fallback. Bytecode-only entries are
//	skipped; an unreadable member is skipped rather than failing the
//	whole archive.
//
// Inputs:
//
//	path - Filesystem path to the .ts4script file.
//
// Outputs:
//
//	*Result - Metadata plus one entry per .py module.
//	error - ErrNotArchive when the file is not a ZIP.
func Analyze(path string) (*Result, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotArchive, path, err)
	}
	defer zr.Close()

	result := &Result{
		Metadata: extractMetadata(&zr.Reader, archiveStem(path)),
	}

	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, ".py") {
			continue
		}
		source, err := readMember(f)
		if err != nil {
			continue
		}
		result.Modules = append(result.Modules, analyzeModule(f.Name, source))
	}
	return result, nil
}

// analyzeModule computes imports, hooks and complexity for one source
// file.
func analyzeModule(name, source string) model.ScriptModule {
	return model.ScriptModule{
		Name:       name,
		Path:       name,
		Imports:    extractImports(source),
		Hooks:      detectHooks(source),
		Complexity: complexity(source),
	}
}

// extractImports collects top-level module names from import and
// from-import statements.
func extractImports(source string) map[string]struct{} {
	imports := make(map[string]struct{})
	for _, m := range importPattern.FindAllStringSubmatch(source, -1) {
		imports[m[1]] = struct{}{}
	}
	for _, m := range fromPattern.FindAllStringSubmatch(source, -1) {
		imports[m[1]] = struct{}{}
	}
	return imports
}

// detectHooks returns the injection idioms present in the source, in
// first-seen order with duplicates removed.
func detectHooks(source string) []string {
	var hooks []string
	seen := make(map[string]struct{})
	add := func(hook string) {
		if _, dup := seen[hook]; dup {
			return
		}
		seen[hook] = struct{}{}
		hooks = append(hooks, hook)
	}

	for _, pattern := range hookPatterns {
		if strings.Contains(source, pattern) {
			add(pattern)
		}
	}
	for _, m := range decoratorPattern.FindAllStringSubmatch(source, -1) {
		add("@" + m[1])
	}
	return hooks
}

// complexity is a simplified cyclomatic score: one per function or
// branch point, two per class, one per boolean connective.
func complexity(source string) int {
	score := len(defPattern.FindAllString(source, -1))
	score += 2 * len(classPattern.FindAllString(source, -1))
	score += len(branchPattern.FindAllString(source, -1))
	score += len(boolOpPattern.FindAllString(source, -1))
	return score
}

// extractMetadata scans the conventional metadata carriers for declared
// name, version, author, and requirements.
func extractMetadata(zr *zip.Reader, fallbackName string) Metadata {
	meta := Metadata{
		Version: "unknown",
		Author:  "unknown",
	}

	for _, candidate := range []string{"metadata.txt", "README.md", "__init__.py"} {
		content, err := readNamed(zr, candidate)
		if err != nil {
			continue
		}
		scanHeaderLines(content, &meta)
	}
	if meta.Name == "" {
		meta.Name = fallbackName
	}

	if content, err := readNamed(zr, "requirements.txt"); err == nil {
		scanner := bufio.NewScanner(strings.NewReader(content))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" && !strings.HasPrefix(line, "#") {
				meta.Requires = append(meta.Requires, line)
			}
		}
	}
	return meta
}

// scanHeaderLines looks for "name:", "version:", "author:" or
// "creator:" declarations in the first 20 lines of a metadata carrier.
// The first value found for each field wins across carriers.
func scanHeaderLines(content string, meta *Metadata) {
	lines := strings.Split(content, "\n")
	if len(lines) > 20 {
		lines = lines[:20]
	}
	for _, line := range lines {
		lower := strings.ToLower(line)
		switch {
		case meta.Name == "" && strings.Contains(lower, "name:"):
			meta.Name = headerValue(line)
		case meta.Version == "unknown" && strings.Contains(lower, "version:"):
			meta.Version = headerValue(line)
		case meta.Author == "unknown" &&
			(strings.Contains(lower, "author:") || strings.Contains(lower, "creator:")):
			meta.Author = headerValue(line)
		}
	}
}

// headerValue returns the trimmed, unquoted text after the first colon.
func headerValue(line string) string {
	_, value, found := strings.Cut(line, ":")
	if !found {
		return ""
	}
	return strings.Trim(strings.TrimSpace(value), `"'`)
}

// readNamed reads one archive member by exact name.
func readNamed(zr *zip.Reader, name string) (string, error) {
	for _, f := range zr.File {
		if f.Name == name {
			return readMember(f)
		}
	}
	return "", fmt.Errorf("script: no %s in archive", name)
}

// readMember reads the full contents of one archive member.
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

// archiveStem is the archive file name without directory or extension.
func archiveStem(path string) string {
	base := path
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base
}
