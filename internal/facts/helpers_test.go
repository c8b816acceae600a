// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package facts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsClockName(t *testing.T) {
	for _, name := range []string{"clk", "Clock", "sys_clk", "clk_50mhz", "clk_enable_pulse_counter", "i_clk", "cpu_clk", "pixel_clock"} {
		assert.True(t, IsClockName(name), name)
	}
	for _, name := range []string{"data", ""} {
		assert.False(t, IsClockName(name), name)
	}
}

func TestIsResetName(t *testing.T) {
	for _, name := range []string{"rst", "rstn", "reset", "rst_n", "areset", "n_rst", "soft_reset_req"} {
		assert.True(t, IsResetName(name), name)
	}
	assert.False(t, IsResetName("data_out"))
}

func TestIsTestbenchName(t *testing.T) {
	assert.True(t, IsTestbenchName("counter_tb"))
	assert.True(t, IsTestbenchName("tb_counter"))
	assert.True(t, IsTestbenchName("my_testbench_top"))
	assert.False(t, IsTestbenchName("counter"))
}

func TestIsResolvedSignal(t *testing.T) {
	assert.True(t, IsResolvedSignal(Signal{Type: "std_logic_vector(7 downto 0)"}))
	assert.False(t, IsResolvedSignal(Signal{Type: "integer"}))
}

func TestIsCompositeType(t *testing.T) {
	assert.True(t, IsCompositeType("std_logic_vector(7 downto 0)"))
	assert.True(t, IsCompositeType("my_array"))
	assert.False(t, IsCompositeType("std_logic"))
}

func TestIsSkipName(t *testing.T) {
	assert.True(t, IsSkipName("c_width"))
	assert.True(t, IsSkipName("loop_g"))
	assert.True(t, IsSkipName("i"))
	assert.True(t, IsSkipName("MAX_COUNT"))
	assert.True(t, IsSkipName("std_logic"))
	assert.False(t, IsSkipName("some_random_signal"))
}

func TestSingleFileMode(t *testing.T) {
	s := &Store{Files: []File{{Path: "a.vhd"}}}
	assert.True(t, SingleFileMode(s))

	s.Files = append(s.Files, File{Path: "b.vhd"})
	assert.False(t, SingleFileMode(s))
}

func TestEntityExists(t *testing.T) {
	s := &Store{Entities: []Entity{{Name: "counter"}}}
	assert.True(t, EntityExists(s, "COUNTER"))
	assert.True(t, EntityExists(s, "work.counter"))
	assert.False(t, EntityExists(s, "missing"))
}

func TestArchMissingEntityForContext(t *testing.T) {
	s := &Store{Entities: []Entity{{Name: "counter"}}}
	assert.False(t, ArchMissingEntityForContext(s, Architecture{Name: "rtl", EntityName: "counter"}))
	assert.True(t, ArchMissingEntityForContext(s, Architecture{Name: "rtl", EntityName: "missing"}))
}

func TestFileHasUseClause(t *testing.T) {
	s := &Store{UseClauses: []UseClause{{File: "a.vhd", Item: "ieee.std_logic_1164.all"}}}
	assert.True(t, FileHasUseClause(s, "a.vhd"))
	assert.False(t, FileHasUseClause(s, "b.vhd"))
}

func TestIsActualSignal(t *testing.T) {
	s := &Store{
		Signals: []Signal{{Name: "data_out"}},
		Entities: []Entity{{Name: "counter", Ports: []Port{{Name: "clk"}}}},
	}
	assert.True(t, IsActualSignal(s, "data_out"))
	assert.True(t, IsActualSignal(s, "clk"))
	assert.False(t, IsActualSignal(s, "open"))
	assert.False(t, IsActualSignal(s, "'0'"))
	assert.False(t, IsActualSignal(s, "42"))
	assert.False(t, IsActualSignal(s, "nonexistent"))
}

func TestRuleIsDisabled(t *testing.T) {
	cfg := LintConfig{Rules: map[string]string{"missing_reset": "off"}}
	assert.True(t, RuleIsDisabled(cfg, "missing_reset", false))
	assert.False(t, RuleIsDisabled(cfg, "other_rule", false))

	optionalCfg := LintConfig{EnabledOptional: map[string]bool{"extra_check": true}}
	assert.False(t, RuleIsDisabled(optionalCfg, "extra_check", true))
	assert.True(t, RuleIsDisabled(optionalCfg, "other_optional", true))
	assert.True(t, RuleIsDisabled(LintConfig{}, "any_optional", true))
}

func TestGetRuleSeverity(t *testing.T) {
	cfg := LintConfig{Rules: map[string]string{"foo": "error"}}
	assert.Equal(t, "error", GetRuleSeverity(cfg, "foo", "warning"))
	assert.Equal(t, "warning", GetRuleSeverity(cfg, "bar", "warning"))
}

func TestIsThirdPartyFile(t *testing.T) {
	cfg := LintConfig{ThirdPartyPaths: []string{"vendor/"}}
	assert.True(t, IsThirdPartyFile(cfg, "vendor/ip/core.vhd"))
	assert.False(t, IsThirdPartyFile(cfg, "rtl/core.vhd"))
}

func TestProcessInTestbench(t *testing.T) {
	s := &Store{
		Architectures: []Architecture{{Name: "sim", EntityName: "counter_tb"}},
		Entities:      []Entity{{Name: "counter_tb"}},
	}
	assert.True(t, ProcessInTestbench(s, Process{InArch: "sim"}))
	assert.False(t, ProcessInTestbench(s, Process{InArch: "unknown"}))
}
