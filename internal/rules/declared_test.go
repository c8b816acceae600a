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

// twoFileStore returns a minimal Store with an entity/architecture pair and
// a second unrelated file, so SingleFileMode is false (the rule's first
// suppression condition does not fire).
func twoFileStore() *facts.Store {
	return &facts.Store{
		Files:         []facts.File{{Path: "counter.vhd"}, {Path: "other.vhd"}},
		Entities:      []facts.Entity{{Name: "counter", Ports: []facts.Port{{Name: "clk"}, {Name: "rst"}}}},
		Architectures: []facts.Architecture{{Name: "rtl", EntityName: "counter", File: "counter.vhd"}},
	}
}

func TestUndeclaredSignalUsageFlagsUnknownRead(t *testing.T) {
	s := twoFileStore()
	s.Processes = []facts.Process{
		{InArch: "rtl", ReadSignals: []string{"mystery_signal"}, File: "counter.vhd", Line: 12},
	}

	violations := undeclaredSignalUsage(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "undeclared_signal_usage", violations[0].Rule)
	assert.Contains(t, violations[0].Message, "mystery_signal")
}

func TestUndeclaredSignalUsageAllowsPortsAndSignals(t *testing.T) {
	s := twoFileStore()
	s.Signals = []facts.Signal{{Name: "counter_reg", InEntity: "rtl"}}
	s.Processes = []facts.Process{
		{InArch: "rtl", ReadSignals: []string{"clk", "rst", "counter_reg"}, File: "counter.vhd", Line: 12},
	}

	assert.Empty(t, undeclaredSignalUsage(s))
}

func TestUndeclaredSignalUsageSuppressedInSingleFileMode(t *testing.T) {
	s := &facts.Store{
		Files:         []facts.File{{Path: "counter.vhd"}},
		Entities:      []facts.Entity{{Name: "counter"}},
		Architectures: []facts.Architecture{{Name: "rtl", EntityName: "counter", File: "counter.vhd"}},
		Processes: []facts.Process{
			{InArch: "rtl", ReadSignals: []string{"mystery_signal"}, File: "counter.vhd", Line: 12},
		},
	}

	assert.Empty(t, undeclaredSignalUsage(s), "a single-file store proves nothing about undeclared names")
}

func TestUndeclaredSignalUsageSuppressedWhenEntityMissing(t *testing.T) {
	s := &facts.Store{
		Files:         []facts.File{{Path: "counter.vhd"}, {Path: "other.vhd"}},
		Architectures: []facts.Architecture{{Name: "rtl", EntityName: "missing_entity", File: "counter.vhd"}},
		Processes: []facts.Process{
			{InArch: "rtl", ReadSignals: []string{"mystery_signal"}, File: "counter.vhd", Line: 12},
		},
	}

	assert.Empty(t, undeclaredSignalUsage(s), "orphan_architecture already reports the missing entity; avoid piling on")
}

func TestUndeclaredSignalUsageSuppressedByUseClause(t *testing.T) {
	s := twoFileStore()
	s.UseClauses = []facts.UseClause{{File: "counter.vhd", Item: "work.my_pkg.all"}}
	s.Processes = []facts.Process{
		{InArch: "rtl", ReadSignals: []string{"mystery_signal"}, File: "counter.vhd", Line: 12},
	}

	assert.Empty(t, undeclaredSignalUsage(s), "a use clause could resolve the name; resolving it is out of scope")
}

func TestUndeclaredSignalUsageDeduplicatesRepeatedName(t *testing.T) {
	s := twoFileStore()
	s.Processes = []facts.Process{
		{InArch: "rtl", ReadSignals: []string{"mystery_signal"}, File: "counter.vhd", Line: 12},
		{InArch: "rtl", AssignedSignals: []string{"mystery_signal"}, File: "counter.vhd", Line: 20},
	}

	assert.Len(t, undeclaredSignalUsage(s), 1, "the same undeclared name should only be reported once per architecture")
}

func TestUndeclaredSignalUsageChecksConcurrentAssignments(t *testing.T) {
	s := twoFileStore()
	s.Assignments = []facts.ConcurrentAssignment{
		{InArch: "rtl", Target: "mystery_out", ReadSignals: []string{"clk"}, File: "counter.vhd", Line: 30},
	}

	violations := undeclaredSignalUsage(s)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Message, "mystery_out")
}

func TestUndeclaredSignalUsageAllowsDeclaredTypesAndConstants(t *testing.T) {
	s := twoFileStore()
	s.Types = []facts.TypeDeclaration{{Name: "state_t", Kind: facts.TypeEnum, EnumLiterals: []string{"idle", "running"}}}
	s.Constants = []facts.ConstantDeclaration{{Name: "max_count"}}
	s.Processes = []facts.Process{
		{InArch: "rtl", ReadSignals: []string{"idle", "max_count"}, File: "counter.vhd", Line: 12},
	}

	assert.Empty(t, undeclaredSignalUsage(s))
}
