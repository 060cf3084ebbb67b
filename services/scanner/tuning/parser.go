// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package tuning parses tuning XML documents into structured records.
//
// Tuning documents describe gameplay definitions and overrides. The root
// element carries short attribute codes: "s" or "i" for the instance id,
// "i" or "n" for the name, "c" for the class, "m" for the module path.
package tuning

import (
	"encoding/xml"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/simscan/simscan/services/scanner/model"
)

var (
	// ErrInvalidXML indicates the document could not be parsed.
	ErrInvalidXML = errors.New("tuning: invalid XML")

	// ErrMissingInstanceID indicates the root element carries no
	// instance identifier.
	ErrMissingInstanceID = errors.New("tuning: instance ID not found")
)

// tuningIDPattern matches 8-hex-digit values that look like tuning
// instance references.
var tuningIDPattern = regexp.MustCompile(`(?:0x)?([0-9A-Fa-f]{8})`)

// packPatterns matches pack codes followed by a path-ish separator,
// e.g. "EP01:objects" or "EP01.module". Compiled once, reused per parse.
var packPatterns = func() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(model.PackNames))
	for code := range model.PackNames {
		patterns[code] = regexp.MustCompile(`\b` + code + `[:\\/.]`)
	}
	return patterns
}()

// element is a generic XML tree node; tuning documents have no fixed
// schema beyond the root attribute codes.
type element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []element  `xml:",any"`
}

// attr returns the value of the named attribute, or "" when absent.
func (e *element) attr(name string) string {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// Parse extracts a tuning record from one XML document.
//
// Description:
//
//	Pulls the instance id, name, class and module path from the root
//	attributes, then walks the tree collecting modified attributes,
//	instance references, and pack requirements. Name, class and module
//	fall back to "unknown" rather than failing; only a missing or
//	malformed instance id is an error.
//
// Outputs:
//
//	*model.TuningRecord - The parsed record.
//	error - ErrInvalidXML or ErrMissingInstanceID.
func Parse(data []byte) (*model.TuningRecord, error) {
	var root element
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidXML, err)
	}

	id, err := instanceID(&root)
	if err != nil {
		return nil, err
	}

	rec := &model.TuningRecord{
		InstanceID:         id,
		Name:               firstNonEmpty(root.attr("i"), root.attr("n"), root.XMLName.Local, "unknown"),
		Class:              firstNonEmpty(root.attr("c"), root.XMLName.Local, "unknown"),
		ModulePath:         firstNonEmpty(root.attr("m"), "unknown"),
		ModifiedAttributes: make(map[string]string),
		References:         make(map[uint64]struct{}),
		PackRequirements:   make(map[string]struct{}),
	}

	walk(&root, func(e *element) {
		collectModification(e, rec.ModifiedAttributes)
		collectReferences(e, rec.References)
	})
	detectPackRequirements(&root, rec)
	return rec, nil
}

// instanceID reads the root instance id from "s" (preferred) or "i",
// accepting decimal or 0x-prefixed hex.
func instanceID(root *element) (uint64, error) {
	raw := root.attr("s")
	if raw == "" {
		raw = root.attr("i")
	}
	if raw == "" {
		return 0, ErrMissingInstanceID
	}

	base := 10
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		raw = raw[2:]
		base = 16
	}
	id, err := strconv.ParseUint(raw, base, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMissingInstanceID, raw)
	}
	return id, nil
}

// walk visits every element in document order, root included.
func walk(e *element, fn func(*element)) {
	fn(e)
	for i := range e.Children {
		walk(&e.Children[i], fn)
	}
}

// collectModification records named elements: the trimmed text wins,
// otherwise the first of the t/c/m/p value attributes.
func collectModification(e *element, mods map[string]string) {
	name := e.attr("n")
	if name == "" {
		return
	}
	if text := strings.TrimSpace(e.Text); text != "" {
		mods[name] = text
		return
	}
	for _, code := range []string{"t", "c", "m", "p"} {
		if v := e.attr(code); v != "" {
			mods[name] = v
			return
		}
	}
}

// collectReferences harvests instance references from "t" attributes and
// element text.
func collectReferences(e *element, refs map[uint64]struct{}) {
	if ref := e.attr("t"); ref != "" {
		if id, ok := extractTuningID(ref); ok {
			refs[id] = struct{}{}
		}
	}
	if id, ok := extractTuningID(e.Text); ok {
		refs[id] = struct{}{}
	}
}

// extractTuningID pulls the first 8-hex-digit value out of text.
func extractTuningID(text string) (uint64, bool) {
	m := tuningIDPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseUint(m[1], 16, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// detectPackRequirements scans the document text and module path for
// expansion/game/stuff pack codes.
func detectPackRequirements(root *element, rec *model.TuningRecord) {
	var text strings.Builder
	walk(root, func(e *element) {
		text.WriteString(e.Text)
		text.WriteString(" ")
	})
	allText := text.String()

	lowerModule := strings.ToLower(rec.ModulePath)
	for code, pattern := range packPatterns {
		if pattern.MatchString(allText) {
			rec.PackRequirements[code] = struct{}{}
			continue
		}
		if strings.Contains(lowerModule, strings.ToLower(code)) {
			rec.PackRequirements[code] = struct{}{}
		}
	}
}

// firstNonEmpty returns the first non-empty value, or "" when all are empty.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
