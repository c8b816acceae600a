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
		Name: "hierarchy",
		Required: []registry.Rule{
			{ID: "empty_architecture", Fn: emptyArchitecture},
		},
		Optional: []registry.Rule{
			{ID: "unlabeled_generate", Fn: unlabeledGenerate},
			{ID: "trivial_architecture", Fn: trivialArchitecture},
		},
	})
}

// archStatementCounts tallies the number of instances, processes, and
// assignments declared in each architecture, the structural proxy used by
// both empty_architecture and trivial_architecture.
func archStatementCounts(s *facts.Store) map[string]int {
	counts := make(map[string]int)
	for _, inst := range s.Instances {
		counts[strings.ToLower(inst.InArch)]++
	}
	for _, p := range s.Processes {
		counts[strings.ToLower(p.InArch)]++
	}
	for _, a := range s.Assignments {
		counts[strings.ToLower(a.InArch)]++
	}
	return counts
}

// emptyArchitecture flags an architecture body with no instances,
// processes, or concurrent assignments at all.
func emptyArchitecture(s *facts.Store) []result.Violation {
	counts := archStatementCounts(s)
	var out []result.Violation
	for _, a := range s.Architectures {
		if counts[strings.ToLower(a.Name)] > 0 {
			continue
		}
		out = append(out, result.Violation{
			Rule: "empty_architecture", Severity: result.SeverityWarning,
			File: a.File, Line: a.Line,
			Message: fmt.Sprintf("architecture %q has no statements", a.Name),
		})
	}
	return out
}

// trivialArchitecture flags an architecture with exactly one statement —
// legal but often a placeholder or pass-through worth flagging for
// review, distinct from fully empty (which is its own, more severe rule).
func trivialArchitecture(s *facts.Store) []result.Violation {
	counts := archStatementCounts(s)
	var out []result.Violation
	for _, a := range s.Architectures {
		if counts[strings.ToLower(a.Name)] != 1 {
			continue
		}
		out = append(out, result.Violation{
			Rule: "trivial_architecture", Severity: result.SeverityInfo,
			File: a.File, Line: a.Line,
			Message: fmt.Sprintf("architecture %q has only one statement", a.Name),
		})
	}
	return out
}

// unlabeledGenerate flags a generate statement with no label — labels are
// required for selecting individual instances in constraints and waveform
// views, even though VHDL makes them optional for "if" generates.
func unlabeledGenerate(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, g := range s.Generates {
		if g.Label != "" {
			continue
		}
		out = append(out, result.Violation{
			Rule: "unlabeled_generate", Severity: result.SeverityWarning,
			File: g.File, Line: g.Line,
			Message: "generate statement has no label",
		})
	}
	return out
}
