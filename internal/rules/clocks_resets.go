// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rules

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/vhdl-sentinel/internal/facts"
	"github.com/AleutianAI/vhdl-sentinel/internal/registry"
	"github.com/AleutianAI/vhdl-sentinel/internal/result"
)

func init() {
	registry.Default.Register(registry.Family{
		Name: "clocks_resets",
		Required: []registry.Rule{
			{ID: "clock_not_std_logic", Fn: clockNotStdLogic},
			{ID: "reset_not_std_logic", Fn: resetNotStdLogic},
			{ID: "multiple_clocks_in_process", Fn: multipleClocksInProcess},
		},
		Optional: []registry.Rule{
			{ID: "async_reset_active_high", Fn: asyncResetActiveHigh},
			{ID: "missing_reset", Fn: missingReset},
		},
	})
}

// clockNotStdLogic flags a port or signal whose name reads as a clock but
// whose declared type is not std_logic.
func clockNotStdLogic(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, e := range s.Entities {
		for _, p := range e.Ports {
			if !facts.IsClockName(p.Name) || facts.IsSingleBitType(p.Type) {
				continue
			}
			out = append(out, result.Violation{
				Rule: "clock_not_std_logic", Severity: result.SeverityWarning,
				File: e.File, Line: p.Line,
				Message: fmt.Sprintf("clock port %q has type %q, expected std_logic", p.Name, p.Type),
			})
		}
	}
	for _, sig := range s.Signals {
		if !facts.IsClockName(sig.Name) || facts.IsSingleBitType(sig.Type) {
			continue
		}
		out = append(out, result.Violation{
			Rule: "clock_not_std_logic", Severity: result.SeverityWarning,
			File: sig.File, Line: sig.Line,
			Message: fmt.Sprintf("clock signal %q has type %q, expected std_logic", sig.Name, sig.Type),
		})
	}
	return out
}

// resetNotStdLogic is clockNotStdLogic's counterpart for reset names.
func resetNotStdLogic(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, e := range s.Entities {
		for _, p := range e.Ports {
			if !facts.IsResetName(p.Name) || facts.IsSingleBitType(p.Type) {
				continue
			}
			out = append(out, result.Violation{
				Rule: "reset_not_std_logic", Severity: result.SeverityWarning,
				File: e.File, Line: p.Line,
				Message: fmt.Sprintf("reset port %q has type %q, expected std_logic", p.Name, p.Type),
			})
		}
	}
	for _, sig := range s.Signals {
		if !facts.IsResetName(sig.Name) || facts.IsSingleBitType(sig.Type) {
			continue
		}
		out = append(out, result.Violation{
			Rule: "reset_not_std_logic", Severity: result.SeverityWarning,
			File: sig.File, Line: sig.Line,
			Message: fmt.Sprintf("reset signal %q has type %q, expected std_logic", sig.Name, sig.Type),
		})
	}
	return out
}

// multipleClocksInProcess flags a process whose sensitivity list contains
// more than one distinct clock-named signal — a process can only be
// legally clocked by one edge.
func multipleClocksInProcess(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, p := range s.Processes {
		var clocks []string
		seen := make(map[string]bool)
		for _, sig := range p.SensitivityList {
			if facts.IsClockName(sig) && !seen[strings.ToLower(sig)] {
				seen[strings.ToLower(sig)] = true
				clocks = append(clocks, sig)
			}
		}
		if len(clocks) <= 1 {
			continue
		}
		out = append(out, result.Violation{
			Rule: "multiple_clocks_in_process", Severity: result.SeverityError,
			File: p.File, Line: p.Line,
			Message: fmt.Sprintf("process %q is sensitive to multiple clocks: %s", p.Label, strings.Join(clocks, ", ")),
		})
	}
	return out
}

// entityFile returns the file of the entity that the architecture named
// archName implements. No rule in this package calls it.
func entityFile(s *facts.Store, archName string) string {
	for _, a := range s.Architectures {
		if strings.EqualFold(a.Name, archName) {
			for _, e := range s.Entities {
				if strings.EqualFold(e.Name, a.EntityName) {
					return e.File
				}
			}
		}
	}
	return ""
}

// asyncResetActiveHigh flags an asynchronous reset whose name does not
// follow the active-low naming convention (no "_n"/"n_" marker) — a
// frequent source of confusion about reset polarity during integration.
func asyncResetActiveHigh(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, p := range s.Processes {
		if !p.HasReset || !p.ResetAsync {
			continue
		}
		name := strings.ToLower(p.ResetSignal)
		if strings.Contains(name, "_n") || strings.HasPrefix(name, "n_") {
			continue
		}
		out = append(out, result.Violation{
			Rule: "async_reset_active_high", Severity: result.SeverityInfo,
			File: p.File, Line: p.Line,
			Message: fmt.Sprintf("asynchronous reset %q in process %q is active-high by name but not marked active-low", p.ResetSignal, p.Label),
		})
	}
	return out
}

// missingReset flags a sequential process with no reset handling at all.
func missingReset(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, p := range s.Processes {
		if !p.IsSequential || p.HasReset {
			continue
		}
		if facts.ProcessInTestbench(s, p) {
			continue
		}
		out = append(out, result.Violation{
			Rule: "missing_reset", Severity: result.SeverityInfo,
			File: p.File, Line: p.Line,
			Message: fmt.Sprintf("sequential process %q has no reset", p.Label),
		})
	}
	return out
}
