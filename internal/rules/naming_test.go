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

func TestArchitectureNamingConventionFlagsNonStandardName(t *testing.T) {
	s := &facts.Store{Architectures: []facts.Architecture{{Name: "weird_arch", File: "top.vhd", Line: 2}}}
	violations := architectureNamingConvention(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "architecture_naming_convention", violations[0].Rule)
}

func TestArchitectureNamingConventionAllowsRtl(t *testing.T) {
	s := &facts.Store{Architectures: []facts.Architecture{{Name: "rtl"}}}
	assert.Empty(t, architectureNamingConvention(s))
}

func TestEntityNameWithNumbersFlagsTrailingDigits(t *testing.T) {
	s := &facts.Store{Entities: []facts.Entity{{Name: "counter2", File: "top.vhd", Line: 1}}}
	violations := entityNameWithNumbers(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "entity_name_with_numbers", violations[0].Rule)
}

func TestEntityNameWithNumbersAllowsDescriptiveSuffix(t *testing.T) {
	s := &facts.Store{Entities: []facts.Entity{{Name: "counter_v2_wide"}}}
	assert.Empty(t, entityNameWithNumbers(s))
}

func TestInstanceNamingConventionFlagsMissingPrefix(t *testing.T) {
	s := &facts.Store{Instances: []facts.Instance{{Name: "counter1", File: "top.vhd", Line: 3}}}
	violations := instanceNamingConvention(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "instance_naming_convention", violations[0].Rule)
}

func TestInstanceNamingConventionAllowsUPrefix(t *testing.T) {
	s := &facts.Store{Instances: []facts.Instance{{Name: "u_counter"}}}
	assert.Empty(t, instanceNamingConvention(s))
}

func TestNamingConventionFlagsMixedCase(t *testing.T) {
	s := &facts.Store{Signals: []facts.Signal{{Name: "DataValid", File: "top.vhd", Line: 1}}}
	violations := namingConvention(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "naming_convention", violations[0].Rule)
}

func TestNamingConventionAllowsLowerSnakeCase(t *testing.T) {
	s := &facts.Store{Signals: []facts.Signal{{Name: "data_valid"}}}
	assert.Empty(t, namingConvention(s))
}
