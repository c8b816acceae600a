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
		Name: "sequential",
		Required: []registry.Rule{
			{ID: "mixed_edge_clocking", Fn: mixedEdgeClocking},
		},
		Optional: []registry.Rule{
			{ID: "multi_trigger_process", Fn: multiTriggerProcess},
			{ID: "unregistered_output", Fn: unregisteredOutput},
		},
	})
}

// mixedEdgeClocking flags two sequential processes in the same
// architecture clocked by the same signal but on opposite edges — a
// design smell that frequently indicates a copy-paste error.
func mixedEdgeClocking(s *facts.Store) []result.Violation {
	type clockKey struct{ arch, clock string }
	edgeSeen := make(map[clockKey]string)
	var out []result.Violation
	for _, p := range s.Processes {
		if !p.IsSequential || p.ClockSignal == "" || p.ClockEdge == "" {
			continue
		}
		k := clockKey{strings.ToLower(p.InArch), strings.ToLower(p.ClockSignal)}
		prevEdge, ok := edgeSeen[k]
		if !ok {
			edgeSeen[k] = p.ClockEdge
			continue
		}
		if prevEdge == p.ClockEdge {
			continue
		}
		out = append(out, result.Violation{
			Rule: "mixed_edge_clocking", Severity: result.SeverityWarning,
			File: p.File, Line: p.Line,
			Message: fmt.Sprintf("process %q clocks %q on the %s edge, mixing edges within %q", p.Label, p.ClockSignal, p.ClockEdge, p.InArch),
		})
	}
	return out
}

// multiTriggerProcess flags a sequential process sensitive to any signal
// that is neither clock- nor reset-named — sequential logic should trigger on clock
// (and optionally async reset) alone.
func multiTriggerProcess(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, p := range s.Processes {
		if !p.IsSequential {
			continue
		}
		var extras int
		for _, sig := range p.SensitivityList {
			if facts.IsClockName(sig) || facts.IsResetName(sig) {
				continue
			}
			extras++
		}
		if extras == 0 {
			continue
		}
		out = append(out, result.Violation{
			Rule: "multi_trigger_process", Severity: result.SeverityWarning,
			File: p.File, Line: p.Line,
			Message: fmt.Sprintf("sequential process %q is sensitive to %d non-clock/reset signal(s)", p.Label, extras),
		})
	}
	return out
}

// unregisteredOutput flags an output port that is never assigned from
// within a sequential process, suggesting it is purely combinational and
// may glitch at the boundary of the design.
func unregisteredOutput(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, e := range s.Entities {
		for _, p := range e.Ports {
			if p.Direction != facts.DirOut {
				continue
			}
			if registeredOutput(s, e.Name, p.Name) {
				continue
			}
			out = append(out, result.Violation{
				Rule: "unregistered_output", Severity: result.SeverityInfo,
				File: e.File, Line: p.Line,
				Message: fmt.Sprintf("output port %q of entity %q is never driven by a sequential process", p.Name, e.Name),
			})
		}
	}
	return out
}

func registeredOutput(s *facts.Store, entityName, portName string) bool {
	for _, a := range s.Architectures {
		if !strings.EqualFold(a.EntityName, entityName) {
			continue
		}
		for _, p := range s.Processes {
			if !strings.EqualFold(p.InArch, a.Name) || !p.IsSequential {
				continue
			}
			if facts.SignalInList(p.AssignedSignals, portName) {
				return true
			}
		}
	}
	return false
}
