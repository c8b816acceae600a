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
	"github.com/AleutianAI/vhdl-sentinel/internal/result"
)

func TestCombinationalFeedbackFlagsSelfReadAndAssign(t *testing.T) {
	s := &facts.Store{
		Signals: []facts.Signal{{Name: "data_out"}},
		Processes: []facts.Process{
			{Label: "comb", IsCombinational: true, AssignedSignals: []string{"data_out"}, ReadSignals: []string{"data_out"}, File: "top.vhd", Line: 5},
		},
	}
	violations := combinationalFeedback(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "combinational_feedback", violations[0].Rule)
	assert.Equal(t, result.SeverityWarning, violations[0].Severity)
}

func TestCombinationalFeedbackIgnoresClockSignal(t *testing.T) {
	s := &facts.Store{
		Signals: []facts.Signal{{Name: "clk"}},
		Processes: []facts.Process{
			{Label: "comb", IsCombinational: true, AssignedSignals: []string{"clk"}, ReadSignals: []string{"clk"}},
		},
	}
	assert.Empty(t, combinationalFeedback(s))
}

func TestCombinationalFeedbackIgnoresCompositeIdentifier(t *testing.T) {
	s := &facts.Store{
		Signals: []facts.Signal{{Name: "data_out"}},
		Processes: []facts.Process{
			{Label: "comb", IsCombinational: true, AssignedSignals: []string{"data_out(3)"}, ReadSignals: []string{"data_out(3)"}},
		},
	}
	assert.Empty(t, combinationalFeedback(s))
}

func TestEmptySensitivityCombinationalFlagsEmptyList(t *testing.T) {
	s := &facts.Store{Processes: []facts.Process{
		{Label: "comb", IsCombinational: true, SensitivityList: nil, File: "top.vhd", Line: 7},
	}}
	violations := emptySensitivityCombinational(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "empty_sensitivity_combinational", violations[0].Rule)
}

func TestEmptySensitivityCombinationalAllowsNonEmptyList(t *testing.T) {
	s := &facts.Store{Processes: []facts.Process{
		{Label: "comb", IsCombinational: true, SensitivityList: []string{"a", "b"}},
	}}
	assert.Empty(t, emptySensitivityCombinational(s))
}

func TestDirectCombinationalLoopFlagsSelfDependency(t *testing.T) {
	s := &facts.Store{SignalDeps: []facts.SignalDep{
		{Source: "foo", Target: "foo", IsSequential: false, File: "top.vhd", Line: 9},
	}}
	violations := directCombinationalLoop(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "direct_combinational_loop", violations[0].Rule)
}

func TestDirectCombinationalLoopIgnoresSequentialDep(t *testing.T) {
	s := &facts.Store{SignalDeps: []facts.SignalDep{{Source: "foo", Target: "foo", IsSequential: true}}}
	assert.Empty(t, directCombinationalLoop(s))
}

func TestDirectCombinationalLoopFlagsNextStateSelfDependencyWithoutSequentialWrite(t *testing.T) {
	s := &facts.Store{SignalDeps: []facts.SignalDep{{Source: "next_state", Target: "next_state", File: "top.vhd", Line: 4}}}
	violations := directCombinationalLoop(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "direct_combinational_loop", violations[0].Rule)
}

func TestDirectCombinationalLoopIgnoresSignalAlsoWrittenSequentially(t *testing.T) {
	s := &facts.Store{SignalDeps: []facts.SignalDep{
		{Source: "state", Target: "state", File: "top.vhd", Line: 4},
		{Source: "clk", Target: "state", IsSequential: true},
	}}
	assert.Empty(t, directCombinationalLoop(s))
}

func TestTwoStageCombinationalLoopFlagsMutualDependency(t *testing.T) {
	s := &facts.Store{SignalDeps: []facts.SignalDep{
		{Source: "a", Target: "b", File: "top.vhd", Line: 1},
		{Source: "b", Target: "a", File: "top.vhd", Line: 2},
	}}
	violations := twoStageCombinationalLoop(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "two_stage_combinational_loop", violations[0].Rule)
}

func TestTwoStageCombinationalLoopIgnoresOneDirectionalDeps(t *testing.T) {
	s := &facts.Store{SignalDeps: []facts.SignalDep{{Source: "a", Target: "b"}}}
	assert.Empty(t, twoStageCombinationalLoop(s))
}

func TestThreeStageCombinationalLoopFlagsThreeCycle(t *testing.T) {
	s := &facts.Store{SignalDeps: []facts.SignalDep{
		{Source: "a", Target: "b", File: "top.vhd", Line: 1},
		{Source: "b", Target: "c", File: "top.vhd", Line: 2},
		{Source: "c", Target: "a", File: "top.vhd", Line: 3},
	}}
	violations := threeStageCombinationalLoop(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "three_stage_combinational_loop", violations[0].Rule)
}

func TestThreeStageCombinationalLoopIgnoresOpenChain(t *testing.T) {
	s := &facts.Store{SignalDeps: []facts.SignalDep{
		{Source: "a", Target: "b"}, {Source: "b", Target: "c"},
	}}
	assert.Empty(t, threeStageCombinationalLoop(s))
}

func TestCrossProcessCombinationalLoopFlagsMutualReadAssign(t *testing.T) {
	s := &facts.Store{Processes: []facts.Process{
		{Label: "p1", InArch: "rtl", IsCombinational: true, AssignedSignals: []string{"x"}, ReadSignals: []string{"y"}, File: "top.vhd", Line: 1},
		{Label: "p2", InArch: "rtl", IsCombinational: true, AssignedSignals: []string{"y"}, ReadSignals: []string{"x"}, File: "top.vhd", Line: 10},
	}}
	violations := crossProcessCombinationalLoop(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "cross_process_combinational_loop", violations[0].Rule)
}

func TestCrossProcessCombinationalLoopIgnoresDifferentArchitectures(t *testing.T) {
	s := &facts.Store{Processes: []facts.Process{
		{Label: "p1", InArch: "rtl_a", IsCombinational: true, AssignedSignals: []string{"x"}, ReadSignals: []string{"y"}, Line: 1},
		{Label: "p2", InArch: "rtl_b", IsCombinational: true, AssignedSignals: []string{"y"}, ReadSignals: []string{"x"}, Line: 2},
	}}
	assert.Empty(t, crossProcessCombinationalLoop(s))
}

func TestLargeCombinationalProcessFlagsAboveThreshold(t *testing.T) {
	assigned := make([]string, 25)
	for i := range assigned {
		assigned[i] = "sig"
	}
	s := &facts.Store{Processes: []facts.Process{{Label: "comb", IsCombinational: true, AssignedSignals: assigned, File: "top.vhd", Line: 3}}}
	violations := largeCombinationalProcess(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "large_combinational_process", violations[0].Rule)
}

func TestLargeCombinationalProcessAllowsBelowThreshold(t *testing.T) {
	s := &facts.Store{Processes: []facts.Process{{Label: "comb", IsCombinational: true, AssignedSignals: []string{"a", "b"}}}}
	assert.Empty(t, largeCombinationalProcess(s))
}

func TestVhdl2008SensitivityAllFlagsProcessAll(t *testing.T) {
	s := &facts.Store{Processes: []facts.Process{{Label: "comb", SensitivityList: []string{"all"}, File: "top.vhd", Line: 2}}}
	violations := vhdl2008SensitivityAll(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "vhdl2008_sensitivity_all", violations[0].Rule)
}

func TestLongSensitivityListFlagsAboveThreshold(t *testing.T) {
	list := make([]string, 12)
	for i := range list {
		list[i] = "s"
	}
	s := &facts.Store{Processes: []facts.Process{{Label: "comb", SensitivityList: list, File: "top.vhd", Line: 4}}}
	violations := longSensitivityList(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "long_sensitivity_list", violations[0].Rule)
}

func TestPotentialCombinationalLoopFlagsPrefixRelatedSignals(t *testing.T) {
	s := &facts.Store{SignalDeps: []facts.SignalDep{{Source: "foo", Target: "foo_d", File: "top.vhd", Line: 6}}}
	violations := potentialCombinationalLoop(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "potential_combinational_loop", violations[0].Rule)
}

func TestPotentialCombinationalLoopIgnoresUnrelatedNames(t *testing.T) {
	s := &facts.Store{SignalDeps: []facts.SignalDep{{Source: "foo", Target: "bar"}}}
	assert.Empty(t, potentialCombinationalLoop(s))
}
