// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/vhdl-sentinel/internal/facts"
)

func TestLargeEntityFlagsAboveThreshold(t *testing.T) {
	ports := make([]facts.Port, 31)
	s := &facts.Store{Entities: []facts.Entity{{Name: "wide", File: "top.vhd", Line: 1, Ports: ports}}}
	violations := largeEntity(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "large_entity", violations[0].Rule)
}

func TestLargeEntityAllowsBelowThreshold(t *testing.T) {
	s := &facts.Store{Entities: []facts.Entity{{Ports: make([]facts.Port, 3)}}}
	assert.Empty(t, largeEntity(s))
}

func TestVeryLongFileFlagsManyDesignUnits(t *testing.T) {
	var entities []facts.Entity
	for i := 0; i < 6; i++ {
		entities = append(entities, facts.Entity{Name: "e", File: "bundle.vhd", Line: 1})
	}
	s := &facts.Store{Entities: entities}
	violations := veryLongFile(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "very_long_file", violations[0].Rule)
}

func TestVeryLongFileAllowsFewDesignUnits(t *testing.T) {
	s := &facts.Store{Entities: []facts.Entity{{File: "top.vhd"}}}
	assert.Empty(t, veryLongFile(s))
}

func TestLegacyPackagesFlagsDeprecatedUseClause(t *testing.T) {
	s := &facts.Store{UseClauses: []facts.UseClause{{Item: "ieee.std_logic_arith.all", File: "top.vhd", Line: 3}}}
	violations := legacyPackages(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "legacy_packages", violations[0].Rule)
}

func TestLegacyPackagesAllowsNumericStd(t *testing.T) {
	s := &facts.Store{UseClauses: []facts.UseClause{{Item: "ieee.numeric_std.all"}}}
	assert.Empty(t, legacyPackages(s))
}

func TestComplexProcessFlagsAboveThreshold(t *testing.T) {
	assigned := make([]string, 10)
	read := make([]string, 10)
	vars := make([]string, 10)
	s := &facts.Store{Processes: []facts.Process{{Label: "p", AssignedSignals: assigned, ReadSignals: read, Variables: vars, File: "top.vhd", Line: 2}}}
	violations := complexProcess(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "complex_process", violations[0].Rule)
}

func TestComplexProcessAllowsSmallProcess(t *testing.T) {
	s := &facts.Store{Processes: []facts.Process{{AssignedSignals: []string{"a"}}}}
	assert.Empty(t, complexProcess(s))
}
