// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package model defines the data types shared by the scanner service:
// artifacts, resource and tuning records, conflicts, and severity levels.
//
// Artifacts are created once by the scanning layer and are immutable for
// the duration of an analysis pass. Detectors and the dependency graph
// never mutate them.
package model

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// Severity
// =============================================================================

// Severity is the conflict severity level.
type Severity int

const (
	// SeverityLow indicates a cosmetic or low-impact conflict.
	SeverityLow Severity = iota

	// SeverityMedium indicates a conflict that may cause visible issues.
	SeverityMedium

	// SeverityHigh indicates a conflict likely to break functionality.
	SeverityHigh

	// SeverityCritical indicates a conflict affecting core game content.
	SeverityCritical
)

// String returns the string representation of the Severity.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON encodes the severity as its string name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a severity from its string name.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	sev, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = sev
	return nil
}

// ParseSeverity converts a severity name to its Severity value.
func ParseSeverity(name string) (Severity, error) {
	switch name {
	case "LOW":
		return SeverityLow, nil
	case "MEDIUM":
		return SeverityMedium, nil
	case "HIGH":
		return SeverityHigh, nil
	case "CRITICAL":
		return SeverityCritical, nil
	default:
		return SeverityLow, fmt.Errorf("unknown severity %q", name)
	}
}

// =============================================================================
// Conflict Kind
// =============================================================================

// ConflictKind classifies the nature of a detected conflict.
type ConflictKind int

const (
	// KindTuningOverlap indicates two artifacts modify the same tuning instance.
	KindTuningOverlap ConflictKind = iota

	// KindResourceDuplicate indicates two artifacts define the same resource
	// key, or carry byte-identical content.
	KindResourceDuplicate

	// KindScriptInjection indicates two artifacts hook the same game function.
	KindScriptInjection

	// KindDependencyMissing indicates a declared dependency is not installed.
	KindDependencyMissing

	// KindVersionConflict indicates incompatible versions of the same artifact.
	KindVersionConflict

	// KindNamespaceCollision indicates two artifacts declare the same script
	// module name.
	KindNamespaceCollision
)

// String returns the string representation of the ConflictKind.
func (k ConflictKind) String() string {
	switch k {
	case KindTuningOverlap:
		return "TUNING_OVERLAP"
	case KindResourceDuplicate:
		return "RESOURCE_DUPLICATE"
	case KindScriptInjection:
		return "SCRIPT_INJECTION"
	case KindDependencyMissing:
		return "DEPENDENCY_MISSING"
	case KindVersionConflict:
		return "VERSION_CONFLICT"
	case KindNamespaceCollision:
		return "NAMESPACE_COLLISION"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON encodes the kind as its string name.
func (k ConflictKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind from its string name.
func (k *ConflictKind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	kind, err := ParseConflictKind(name)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// ParseConflictKind converts a kind name to its ConflictKind value.
func ParseConflictKind(name string) (ConflictKind, error) {
	switch name {
	case "TUNING_OVERLAP":
		return KindTuningOverlap, nil
	case "RESOURCE_DUPLICATE":
		return KindResourceDuplicate, nil
	case "SCRIPT_INJECTION":
		return KindScriptInjection, nil
	case "DEPENDENCY_MISSING":
		return KindDependencyMissing, nil
	case "VERSION_CONFLICT":
		return KindVersionConflict, nil
	case "NAMESPACE_COLLISION":
		return KindNamespaceCollision, nil
	default:
		return KindTuningOverlap, fmt.Errorf("unknown conflict kind %q", name)
	}
}

// =============================================================================
// Artifact Type
// =============================================================================

// ArtifactType identifies the container format of a scanned artifact.
type ArtifactType int

const (
	// ArtifactUnknown is an unrecognized artifact format.
	ArtifactUnknown ArtifactType = iota

	// ArtifactPackage is a DBPF resource package.
	ArtifactPackage

	// ArtifactScript is a script archive (.ts4script).
	ArtifactScript

	// ArtifactHybrid carries both resources and scripts.
	ArtifactHybrid
)

// String returns the string representation of the ArtifactType.
func (t ArtifactType) String() string {
	switch t {
	case ArtifactPackage:
		return "package"
	case ArtifactScript:
		return "script"
	case ArtifactHybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the artifact type as its string name.
func (t ArtifactType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// =============================================================================
// Records
// =============================================================================

// ResourceKey is the composite key identifying a logical resource slot.
// Two artifacts defining the same key collide at load time.
type ResourceKey struct {
	// Type is the resource type code.
	Type uint32 `json:"type"`

	// Group is the resource group code.
	Group uint32 `json:"group"`

	// Instance is the resource instance identifier.
	Instance uint64 `json:"instance"`
}

// String formats the key in the conventional TYPE:GROUP:INSTANCE hex form.
func (k ResourceKey) String() string {
	return fmt.Sprintf("0x%08X:0x%08X:0x%016X", k.Type, k.Group, k.Instance)
}

// ResourceRecord is one entry in an artifact's resource index.
type ResourceRecord struct {
	// Key identifies the logical resource slot.
	Key ResourceKey `json:"key"`

	// Size is the uncompressed resource size in bytes.
	Size uint32 `json:"size"`

	// Offset is the byte offset of the payload within the container.
	Offset uint32 `json:"offset,omitempty"`

	// CompressedSize is the stored size when compressed, 0 otherwise.
	CompressedSize uint32 `json:"compressed_size,omitempty"`
}

// IsCompressed reports whether the payload is stored compressed.
func (r ResourceRecord) IsCompressed() bool {
	return r.CompressedSize > 0 && r.CompressedSize != r.Size
}

// TuningRecord is a structured configuration record extracted from an
// artifact. The instance ID is its unique key within the tuning namespace.
type TuningRecord struct {
	// InstanceID is the tuning instance identifier.
	InstanceID uint64 `json:"instance_id"`

	// Name is the tuning's declared name.
	Name string `json:"name"`

	// Class is the semantic category (e.g. "Buff", "Trait").
	Class string `json:"class"`

	// ModulePath is the declared module path (e.g. "buffs.buff_tuning").
	ModulePath string `json:"module_path"`

	// ModifiedAttributes maps attribute names to their new values.
	ModifiedAttributes map[string]string `json:"modified_attributes,omitempty"`

	// References holds instance IDs of other tunings this one refers to.
	References map[uint64]struct{} `json:"-"`

	// PackRequirements holds pack codes this tuning requires (e.g. "EP05").
	PackRequirements map[string]struct{} `json:"-"`
}

// ScriptModule is one executable module declared by a script artifact.
type ScriptModule struct {
	// Name is the dotted module name (e.g. "mymod.core").
	Name string `json:"name"`

	// Path is the module's path within the script archive.
	Path string `json:"path"`

	// Imports holds the module names this module imports.
	Imports map[string]struct{} `json:"-"`

	// Hooks lists detected game hook patterns, in discovery order.
	Hooks []string `json:"hooks,omitempty"`

	// Complexity is a rough structural complexity score.
	Complexity int `json:"complexity,omitempty"`
}

// =============================================================================
// Artifact
// =============================================================================

// Artifact is one scanned content unit (a "mod"). Created once per scan and
// immutable for the duration of an analysis pass.
type Artifact struct {
	// Name uniquely identifies the artifact within a run.
	Name string `json:"name"`

	// Path is the filesystem location the artifact was scanned from.
	Path string `json:"path,omitempty"`

	// Type is the container format.
	Type ArtifactType `json:"type"`

	// SizeBytes is the on-disk size.
	SizeBytes int64 `json:"size_bytes"`

	// ContentHash is the hex SHA-256 of the file, empty if not computed.
	ContentHash string `json:"content_hash,omitempty"`

	// Resources lists the artifact's resource records, in index order.
	Resources []ResourceRecord `json:"resources,omitempty"`

	// Tunings lists the artifact's tuning records, in extraction order.
	Tunings []TuningRecord `json:"tunings,omitempty"`

	// Modules lists declared script modules, in archive order.
	Modules []ScriptModule `json:"modules,omitempty"`

	// Version is the declared version, if any.
	Version string `json:"version,omitempty"`

	// Author is the declared author, if any.
	Author string `json:"author,omitempty"`

	// Requires lists dependency names declared by the artifact itself.
	Requires []string `json:"requires,omitempty"`

	// PackRequirements holds pack codes required by any of the artifact's
	// tunings.
	PackRequirements map[string]struct{} `json:"-"`
}

// ResourceKeys returns the set of resource keys defined by the artifact.
func (a *Artifact) ResourceKeys() map[ResourceKey]struct{} {
	keys := make(map[ResourceKey]struct{}, len(a.Resources))
	for _, r := range a.Resources {
		keys[r.Key] = struct{}{}
	}
	return keys
}

// TuningIDs returns the set of tuning instance IDs defined by the artifact.
func (a *Artifact) TuningIDs() map[uint64]struct{} {
	ids := make(map[uint64]struct{}, len(a.Tunings))
	for _, t := range a.Tunings {
		ids[t.InstanceID] = struct{}{}
	}
	return ids
}

// =============================================================================
// Conflict
// =============================================================================

// Conflict is one detected collision between artifacts.
//
// Conflicts are produced fresh per run, never mutated, and never merged
// across runs. The ID is deterministic for identical input, so repeated
// analyses of the same artifact set yield identical conflict sets.
type Conflict struct {
	// ID is a stable identifier derived from the kind and the colliding
	// identifier.
	ID string `json:"id"`

	// Severity is the classified severity level.
	Severity Severity `json:"severity"`

	// Kind classifies the conflict.
	Kind ConflictKind `json:"kind"`

	// AffectedArtifacts lists the owning artifact names, sorted and
	// deduplicated. Collision kinds always list at least two names;
	// DEPENDENCY_MISSING lists exactly the dependent.
	AffectedArtifacts []string `json:"affected_artifacts"`

	// Description is a human-readable explanation.
	Description string `json:"description"`

	// Resolution suggests how to resolve the conflict, empty if none.
	Resolution string `json:"resolution,omitempty"`

	// Details carries kind-specific data for report rendering. Resource-key
	// conflicts carry "resource_key"; hash collisions carry "content_hash".
	Details map[string]any `json:"details,omitempty"`
}
