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

func TestInstanceNameMatchesComponentFlagsIdenticalName(t *testing.T) {
	s := &facts.Store{Instances: []facts.Instance{{Name: "counter", Target: "counter", File: "top.vhd", Line: 3}}}
	violations := instanceNameMatchesComponent(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "instance_name_matches_component", violations[0].Rule)
}

func TestInstanceNameMatchesComponentAllowsDistinctLabel(t *testing.T) {
	s := &facts.Store{Instances: []facts.Instance{{Name: "u_counter0", Target: "counter"}}}
	assert.Empty(t, instanceNameMatchesComponent(s))
}

func TestPositionalMappingFlagsPositionalAssociation(t *testing.T) {
	s := &facts.Store{Instances: []facts.Instance{{
		Name: "u1", File: "top.vhd", Line: 4,
		Associations: []facts.Association{{Kind: facts.AssocPositional}},
	}}}
	violations := positionalMapping(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "positional_mapping", violations[0].Rule)
}

func TestPositionalMappingAllowsNamedAssociation(t *testing.T) {
	s := &facts.Store{Instances: []facts.Instance{{
		Name: "u1",
		Associations: []facts.Association{{Kind: facts.AssocNamed}},
	}}}
	assert.Empty(t, positionalMapping(s))
}

func TestManyInstancesFlagsAboveThreshold(t *testing.T) {
	var insts []facts.Instance
	for i := 0; i < 26; i++ {
		insts = append(insts, facts.Instance{Name: "u", InArch: "rtl"})
	}
	s := &facts.Store{
		Instances:     insts,
		Architectures: []facts.Architecture{{Name: "rtl", File: "top.vhd", Line: 1}},
	}
	violations := manyInstances(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "many_instances", violations[0].Rule)
}

func TestManyInstancesAllowsFewInstances(t *testing.T) {
	s := &facts.Store{
		Instances:     []facts.Instance{{Name: "u", InArch: "rtl"}},
		Architectures: []facts.Architecture{{Name: "rtl"}},
	}
	assert.Empty(t, manyInstances(s))
}
