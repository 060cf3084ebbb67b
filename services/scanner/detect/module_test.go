// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simscan/simscan/services/scanner/model"
)

// scriptArtifact builds a script artifact declaring the given module names.
func scriptArtifact(name string, modules ...string) model.Artifact {
	decls := make([]model.ScriptModule, len(modules))
	for i, m := range modules {
		decls[i] = model.ScriptModule{Name: m, Path: m + ".py"}
	}
	return model.Artifact{
		Name:    name,
		Type:    model.ArtifactScript,
		Modules: decls,
	}
}

func TestModuleDetector_Collision(t *testing.T) {
	artifacts := []model.Artifact{
		scriptArtifact("ModB", "mymod.core"),
		scriptArtifact("ModA", "mymod.core", "moda.helpers"),
	}

	conflicts := NewModuleDetector().Detect(artifacts)
	require.Len(t, conflicts, 1)

	c := conflicts[0]
	assert.Equal(t, "name_mymod.core", c.ID)
	assert.Equal(t, model.KindNamespaceCollision, c.Kind)
	assert.Equal(t, model.SeverityHigh, c.Severity)
	assert.Equal(t, []string{"ModA", "ModB"}, c.AffectedArtifacts)
	assert.Equal(t, "mymod.core", c.Details["module_name"])
}

func TestModuleDetector_DistinctModulesNoConflict(t *testing.T) {
	artifacts := []model.Artifact{
		scriptArtifact("ModA", "moda.core"),
		scriptArtifact("ModB", "modb.core"),
	}

	conflicts := NewModuleDetector().Detect(artifacts)
	assert.Empty(t, conflicts)
}

func TestModuleDetector_SkipsUnnamedModules(t *testing.T) {
	artifacts := []model.Artifact{
		scriptArtifact("ModA", ""),
		scriptArtifact("ModB", ""),
	}

	conflicts := NewModuleDetector().Detect(artifacts)
	assert.Empty(t, conflicts)
}

func TestModuleDetector_SameArtifactRedeclaration(t *testing.T) {
	artifacts := []model.Artifact{
		scriptArtifact("ModA", "moda.core", "moda.core"),
	}

	conflicts := NewModuleDetector().Detect(artifacts)
	assert.Empty(t, conflicts)
}
