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

func TestSensitivityListIncompleteFlagsMissingReadSignal(t *testing.T) {
	s := &facts.Store{Processes: []facts.Process{
		{Label: "comb", IsCombinational: true, ReadSignals: []string{"sel"}, SensitivityList: []string{"a"}, File: "top.vhd", Line: 5},
	}}
	violations := sensitivityListIncomplete(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "sensitivity_list_incomplete", violations[0].Rule)
}

func TestSensitivityListIncompleteAllowsCompleteList(t *testing.T) {
	s := &facts.Store{Processes: []facts.Process{
		{Label: "comb", IsCombinational: true, ReadSignals: []string{"sel"}, SensitivityList: []string{"sel"}},
	}}
	assert.Empty(t, sensitivityListIncomplete(s))
}

func TestMissingClockSensitivityFlagsAbsentClock(t *testing.T) {
	s := &facts.Store{Processes: []facts.Process{
		{Label: "seq", IsSequential: true, SensitivityList: []string{"rst"}, File: "top.vhd", Line: 6},
	}}
	violations := missingClockSensitivity(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "missing_clock_sensitivity", violations[0].Rule)
}

func TestMissingClockSensitivityAllowsClockPresent(t *testing.T) {
	s := &facts.Store{Processes: []facts.Process{{Label: "seq", IsSequential: true, SensitivityList: []string{"clk"}}}}
	assert.Empty(t, missingClockSensitivity(s))
}

func TestSensitivityListSuperfluousFlagsNeverReadSignal(t *testing.T) {
	s := &facts.Store{Processes: []facts.Process{
		{Label: "p", SensitivityList: []string{"unused_sig"}, ReadSignals: nil, File: "top.vhd", Line: 7},
	}}
	violations := sensitivityListSuperfluous(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "sensitivity_list_superfluous", violations[0].Rule)
}

func TestSensitivityListSuperfluousAllowsReadSignal(t *testing.T) {
	s := &facts.Store{Processes: []facts.Process{{SensitivityList: []string{"a"}, ReadSignals: []string{"a"}}}}
	assert.Empty(t, sensitivityListSuperfluous(s))
}

func TestMissingResetSensitivityFlagsAsyncResetAbsentFromList(t *testing.T) {
	s := &facts.Store{Processes: []facts.Process{
		{Label: "seq", IsSequential: true, HasReset: true, ResetAsync: true, ResetSignal: "rst", SensitivityList: []string{"clk"}, File: "top.vhd", Line: 8},
	}}
	violations := missingResetSensitivity(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "missing_reset_sensitivity", violations[0].Rule)
}

func TestMissingResetSensitivityAllowsResetInList(t *testing.T) {
	s := &facts.Store{Processes: []facts.Process{
		{Label: "seq", IsSequential: true, HasReset: true, ResetAsync: true, ResetSignal: "rst", SensitivityList: []string{"clk", "rst"}},
	}}
	assert.Empty(t, missingResetSensitivity(s))
}
