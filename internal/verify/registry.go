// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package verify implements the VerificationPlanner (spec §4.5): loading
// the CheckRegistry, validating verification tags against it, detecting
// missing required checks for constructs the ConstructDetector finds, and
// resolving the anchor a missing-check finding should be reported at.
package verify

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/vhdl-sentinel/internal/facts"
)

//go:embed check_registry.json
var embeddedRegistryFS embed.FS

// CheckEntry is one entry of the CheckRegistry: a verification check id's
// scope, required bindings, and severity if missing.
type CheckEntry struct {
	ID               string   `json:"id" validate:"required"`
	ScopeType        string   `json:"scope_type" validate:"required"`
	RequiredBindings []string `json:"required_bindings"`
	NeedsCover       bool     `json:"needs_cover"`
	Severity         string   `json:"severity" validate:"required,oneof=error warning info"`
	RequiresBound    bool     `json:"requires_bound"`
}

const registryEnvVar = "VHDL_CHECK_REGISTRY"

var validate = validator.New()

// LoadRegistry loads the CheckRegistry: from the file named by
// VHDL_CHECK_REGISTRY if set (spec §6), otherwise the embedded default
// (check_registry.json). Every entry is struct-validated; a malformed
// registry is a fatal load failure per spec §7.
func LoadRegistry() ([]CheckEntry, error) {
	var raw []byte
	var err error

	if path := os.Getenv(registryEnvVar); path != "" {
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read check registry %q: %w", path, err)
		}
	} else {
		raw, err = embeddedRegistryFS.ReadFile("check_registry.json")
		if err != nil {
			return nil, fmt.Errorf("read embedded check registry: %w", err)
		}
	}

	var entries []CheckEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse check registry: %w", err)
	}
	for _, e := range entries {
		if err := validate.Struct(e); err != nil {
			return nil, fmt.Errorf("invalid check registry entry %q: %w", e.ID, err)
		}
	}
	return entries, nil
}

// RegistryByID indexes entries by lowercased id for scope_matches/tag
// validation lookups.
func RegistryByID(entries []CheckEntry) map[string]CheckEntry {
	m := make(map[string]CheckEntry, len(entries))
	for _, e := range entries {
		m[strings.ToLower(e.ID)] = e
	}
	return m
}

// ScopeMatches reports whether tagScope satisfies entry's required
// scope_type: an exact match, or (for "architecture") any scope prefixed
// with "arch:".
func ScopeMatches(entry CheckEntry, tagScope string) bool {
	if strings.EqualFold(entry.ScopeType, tagScope) {
		return true
	}
	if strings.EqualFold(entry.ScopeType, "architecture") && strings.HasPrefix(strings.ToLower(tagScope), "arch:") {
		return true
	}
	return false
}

// MissingRequiredBindings returns the subset of entry.RequiredBindings not
// present as keys in tag.Bindings.
func MissingRequiredBindings(entry CheckEntry, tag facts.VerificationTag) []string {
	var missing []string
	for _, b := range entry.RequiredBindings {
		if _, ok := tag.Bindings[b]; !ok {
			missing = append(missing, b)
		}
	}
	return missing
}

// TagIsValid reports whether tag satisfies its matching registry entry:
// the entry must exist, the tag's scope must match scope_type, and every
// required binding must be present.
func TagIsValid(registryByID map[string]CheckEntry, tag facts.VerificationTag) bool {
	entry, ok := registryByID[strings.ToLower(tag.ID)]
	if !ok {
		return false
	}
	if !ScopeMatches(entry, tag.Scope) {
		return false
	}
	return len(MissingRequiredBindings(entry, tag)) == 0
}
