// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads the LintConfig (spec §3) from YAML, validates it,
// and resolves the environment-variable overrides spec §6 names.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/vhdl-sentinel/internal/facts"
	"github.com/AleutianAI/vhdl-sentinel/pkg/validation"
)

// File is the on-disk YAML shape of a LintConfig.
type File struct {
	Rules           map[string]string `yaml:"rules"`
	EnabledOptional []string          `yaml:"enabled_optional"`
	ThirdPartyPaths []string          `yaml:"third_party_paths"`
}

var validate = validator.New()

// Load reads and validates a LintConfig from the YAML file at path. An
// empty path returns an empty LintConfig with non-nil maps (no overrides, nothing
// third-party, no optional rules enabled).
func Load(path string) (facts.LintConfig, error) {
	if path == "" {
		return facts.LintConfig{Rules: map[string]string{}, EnabledOptional: map[string]bool{}}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return facts.LintConfig{}, fmt.Errorf("read lint config %q: %w", path, err)
	}

	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return facts.LintConfig{}, fmt.Errorf("parse lint config %q: %w", path, err)
	}

	cfg := facts.LintConfig{
		Rules:           make(map[string]string, len(file.Rules)),
		EnabledOptional: make(map[string]bool, len(file.EnabledOptional)),
		ThirdPartyPaths: file.ThirdPartyPaths,
	}
	for id, severity := range file.Rules {
		normalized := validation.NormalizeRuleID(id)
		if err := validation.ValidateRuleID(normalized); err != nil {
			return facts.LintConfig{}, fmt.Errorf("lint config: %w", err)
		}
		if err := validation.ValidateSeverity(strings.ToLower(severity)); err != nil {
			return facts.LintConfig{}, fmt.Errorf("lint config: %w", err)
		}
		cfg.Rules[normalized] = strings.ToLower(severity)
	}
	for _, id := range file.EnabledOptional {
		normalized := validation.NormalizeRuleID(id)
		if err := validation.ValidateRuleID(normalized); err != nil {
			return facts.LintConfig{}, fmt.Errorf("lint config: %w", err)
		}
		cfg.EnabledOptional[normalized] = true
	}

	if err := validate.Struct(&file); err != nil {
		return facts.LintConfig{}, fmt.Errorf("lint config validation: %w", err)
	}

	return cfg, nil
}

// Environment variable names spec §6 requires the engine to honor.
const (
	EnvCheckRegistry = "VHDL_CHECK_REGISTRY"
	EnvTraceTiming   = "VHDL_POLICY_TRACE_TIMING"
)

// TraceTimingEnabled reports whether VHDL_POLICY_TRACE_TIMING requests
// per-rule timing output.
func TraceTimingEnabled() bool {
	v := os.Getenv(EnvTraceTiming)
	return v == "1" || strings.EqualFold(v, "true")
}

// CheckRegistryOverride returns the path VHDL_CHECK_REGISTRY names, or ""
// if unset (meaning: use the embedded default registry).
func CheckRegistryOverride() string {
	return os.Getenv(EnvCheckRegistry)
}
