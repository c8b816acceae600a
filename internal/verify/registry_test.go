// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package verify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/vhdl-sentinel/internal/facts"
)

func TestLoadRegistryReadsEmbeddedDefault(t *testing.T) {
	entries, err := LoadRegistry()
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	byID := RegistryByID(entries)
	_, ok := byID["fsm.legal_state"]
	assert.True(t, ok)
}

func TestLoadRegistryReadsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom_registry.json")
	custom := `[{"id":"custom.check","scope_type":"architecture","severity":"warning"}]`
	require.NoError(t, os.WriteFile(path, []byte(custom), 0o644))

	t.Setenv("VHDL_CHECK_REGISTRY", path)

	entries, err := LoadRegistry()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "custom.check", entries[0].ID)
}

func TestLoadRegistryRejectsInvalidEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad_registry.json")
	bad := `[{"id":"missing.severity","scope_type":"architecture"}]`
	require.NoError(t, os.WriteFile(path, []byte(bad), 0o644))

	t.Setenv("VHDL_CHECK_REGISTRY", path)

	_, err := LoadRegistry()
	assert.Error(t, err)
}

func TestLoadRegistryRejectsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "malformed.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	t.Setenv("VHDL_CHECK_REGISTRY", path)

	_, err := LoadRegistry()
	assert.Error(t, err)
}

func TestRegistryByIDLowercasesKeys(t *testing.T) {
	entries := []CheckEntry{{ID: "FSM.Legal_State", ScopeType: "architecture", Severity: "warning"}}
	byID := RegistryByID(entries)
	_, ok := byID["fsm.legal_state"]
	assert.True(t, ok)
}

func TestScopeMatchesExactAndArchitecturePrefix(t *testing.T) {
	entry := CheckEntry{ScopeType: "architecture"}
	assert.True(t, ScopeMatches(entry, "architecture"))
	assert.True(t, ScopeMatches(entry, "arch:counter_rtl"))
	assert.False(t, ScopeMatches(entry, "entity"))
}

func TestMissingRequiredBindings(t *testing.T) {
	entry := CheckEntry{RequiredBindings: []string{"ready", "valid"}}
	tag := facts.VerificationTag{Bindings: map[string]string{"ready": "m_ready"}}
	assert.Equal(t, []string{"valid"}, MissingRequiredBindings(entry, tag))
}

func TestMissingRequiredBindingsEmptyWhenAllPresent(t *testing.T) {
	entry := CheckEntry{RequiredBindings: []string{"ready"}}
	tag := facts.VerificationTag{Bindings: map[string]string{"ready": "m_ready"}}
	assert.Empty(t, MissingRequiredBindings(entry, tag))
}

func TestTagIsValid(t *testing.T) {
	byID := map[string]CheckEntry{
		"rv.stable_while_stalled": {ScopeType: "architecture", RequiredBindings: []string{"ready", "valid"}},
	}
	valid := facts.VerificationTag{
		ID: "rv.stable_while_stalled", Scope: "arch:producer",
		Bindings: map[string]string{"ready": "m_ready", "valid": "m_valid"},
	}
	assert.True(t, TagIsValid(byID, valid))
}

func TestTagIsValidFalseForUnknownID(t *testing.T) {
	byID := map[string]CheckEntry{}
	tag := facts.VerificationTag{ID: "unknown.check", Scope: "architecture"}
	assert.False(t, TagIsValid(byID, tag))
}

func TestTagIsValidFalseForScopeMismatch(t *testing.T) {
	byID := map[string]CheckEntry{"x.check": {ScopeType: "entity"}}
	tag := facts.VerificationTag{ID: "x.check", Scope: "architecture"}
	assert.False(t, TagIsValid(byID, tag))
}

func TestTagIsValidFalseForMissingBinding(t *testing.T) {
	byID := map[string]CheckEntry{"x.check": {ScopeType: "architecture", RequiredBindings: []string{"state"}}}
	tag := facts.VerificationTag{ID: "x.check", Scope: "architecture", Bindings: map[string]string{}}
	assert.False(t, TagIsValid(byID, tag))
}
