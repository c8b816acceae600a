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
		Name: "style",
		Optional: []registry.Rule{
			{ID: "large_entity", Fn: largeEntity},
			{ID: "very_long_file", Fn: veryLongFile},
			{ID: "legacy_packages", Fn: legacyPackages},
			{ID: "complex_process", Fn: complexProcess},
		},
	})
}

func largeEntity(s *facts.Store) []result.Violation {
	const threshold = 30
	var out []result.Violation
	for _, e := range s.Entities {
		if len(e.Ports) < threshold {
			continue
		}
		out = append(out, result.Violation{
			Rule: "large_entity", Severity: result.SeverityInfo,
			File: e.File, Line: e.Line,
			Message: fmt.Sprintf("entity %q declares %d ports", e.Name, len(e.Ports)),
		})
	}
	return out
}

// veryLongFile flags a file contributing an unusually large number of
// distinct declarations (entities + architectures + packages combined), a
// proxy for file size since raw line counts are outside the fact model.
func veryLongFile(s *facts.Store) []result.Violation {
	const threshold = 5
	counts := make(map[string]int)
	lineOf := make(map[string]int)
	for _, e := range s.Entities {
		counts[e.File]++
		lineOf[e.File] = e.Line
	}
	for _, a := range s.Architectures {
		counts[a.File]++
	}
	for _, p := range s.Packages {
		counts[p.File]++
	}
	var out []result.Violation
	for file, n := range counts {
		if n < threshold {
			continue
		}
		out = append(out, result.Violation{
			Rule: "very_long_file", Severity: result.SeverityInfo,
			File: file, Line: lineOf[file],
			Message: fmt.Sprintf("file declares %d design units; consider splitting", n),
		})
	}
	return out
}

// legacyPackageNames are IEEE packages superseded by numeric_std and
// deprecated for new designs.
var legacyPackageNames = map[string]bool{
	"std_logic_arith":       true,
	"std_logic_unsigned":    true,
	"std_logic_signed":      true,
}

func legacyPackages(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, u := range s.UseClauses {
		base := strings.ToLower(u.Item)
		if idx := strings.LastIndex(base, "."); idx >= 0 {
			base = base[:idx]
			if idx2 := strings.LastIndex(base, "."); idx2 >= 0 {
				base = base[idx2+1:]
			}
		}
		if !legacyPackageNames[base] {
			continue
		}
		out = append(out, result.Violation{
			Rule: "legacy_packages", Severity: result.SeverityInfo,
			File: u.File, Line: u.Line,
			Message: fmt.Sprintf("use of legacy package %q; prefer numeric_std", u.Item),
		})
	}
	return out
}

// complexProcess flags a process whose assigned signals, read signals, and
// variables number 25 or more combined (a name appearing in more than one
// list is counted each time), a crude complexity proxy in the absence of a
// cyclomatic-complexity measure in the fact model.
func complexProcess(s *facts.Store) []result.Violation {
	const threshold = 25
	var out []result.Violation
	for _, p := range s.Processes {
		n := len(p.AssignedSignals) + len(p.ReadSignals) + len(p.Variables)
		if n < threshold {
			continue
		}
		out = append(out, result.Violation{
			Rule: "complex_process", Severity: result.SeverityInfo,
			File: p.File, Line: p.Line,
			Message: fmt.Sprintf("process %q has %d assigned/read signals and variables combined", p.Label, n),
		})
	}
	return out
}
