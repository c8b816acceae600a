// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rules

import (
	"fmt"

	"github.com/AleutianAI/vhdl-sentinel/internal/facts"
	"github.com/AleutianAI/vhdl-sentinel/internal/registry"
	"github.com/AleutianAI/vhdl-sentinel/internal/result"
)

func init() {
	registry.Default.Register(registry.Family{
		Name: "sensitivity",
		Required: []registry.Rule{
			{ID: "sensitivity_list_incomplete", Fn: sensitivityListIncomplete},
			{ID: "missing_clock_sensitivity", Fn: missingClockSensitivity},
		},
		Optional: []registry.Rule{
			{ID: "sensitivity_list_superfluous", Fn: sensitivityListSuperfluous},
			{ID: "missing_reset_sensitivity", Fn: missingResetSensitivity},
		},
	})
}

// sensitivityListIncomplete flags a combinational process that reads a
// signal not present in its sensitivity list — the classic sim/synthesis
// mismatch source, excluding the VHDL-2008 "all" shorthand.
func sensitivityListIncomplete(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, p := range s.Processes {
		if !p.IsCombinational || facts.HasAllSensitivity(p) {
			continue
		}
		for _, read := range p.ReadSignals {
			if facts.IsSkipName(read) || facts.IsConstant(s, read) {
				continue
			}
			if facts.SigInSensitivity(p, read) {
				continue
			}
			out = append(out, result.Violation{
				Rule: "sensitivity_list_incomplete", Severity: result.SeverityError,
				File: p.File, Line: p.Line,
				Message: fmt.Sprintf("process %q reads %q but it is missing from the sensitivity list", p.Label, read),
			})
		}
	}
	return out
}

// missingClockSensitivity flags a sequential process whose sensitivity
// list does not include any conventionally-named clock signal.
func missingClockSensitivity(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, p := range s.Processes {
		if !p.IsSequential || facts.HasAllSensitivity(p) {
			continue
		}
		if facts.SensitivityListHasClock(p) {
			continue
		}
		out = append(out, result.Violation{
			Rule: "missing_clock_sensitivity", Severity: result.SeverityError,
			File: p.File, Line: p.Line,
			Message: fmt.Sprintf("sequential process %q has no clock signal in its sensitivity list", p.Label),
		})
	}
	return out
}

// sensitivityListSuperfluous flags a signal present in the sensitivity
// list but never read in the process body — a common artifact of leftover
// code after a refactor.
func sensitivityListSuperfluous(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, p := range s.Processes {
		for _, sens := range p.SensitivityList {
			if facts.SigInReads(p, sens) {
				continue
			}
			out = append(out, result.Violation{
				Rule: "sensitivity_list_superfluous", Severity: result.SeverityInfo,
				File: p.File, Line: p.Line,
				Message: fmt.Sprintf("process %q lists %q in sensitivity but never reads it", p.Label, sens),
			})
		}
	}
	return out
}

// missingResetSensitivity flags an asynchronously-reset sequential process
// whose reset signal is absent from its sensitivity list.
func missingResetSensitivity(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, p := range s.Processes {
		if !p.IsSequential || !p.HasReset || !p.ResetAsync {
			continue
		}
		if facts.HasAllSensitivity(p) || facts.SigInSensitivity(p, p.ResetSignal) {
			continue
		}
		out = append(out, result.Violation{
			Rule: "missing_reset_sensitivity", Severity: result.SeverityError,
			File: p.File, Line: p.Line,
			Message: fmt.Sprintf("process %q has an asynchronous reset %q missing from the sensitivity list", p.Label, p.ResetSignal),
		})
	}
	return out
}
