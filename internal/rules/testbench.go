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
		Name: "testbench",
		Required: []registry.Rule{
			{ID: "mismatched_tb_architecture", Fn: mismatchedTbArchitecture},
		},
		Optional: []registry.Rule{
			{ID: "entity_no_ports_not_tb", Fn: entityNoPortsNotTb},
			{ID: "tb_with_synth_arch", Fn: tbWithSynthArch},
			{ID: "testbench_with_ports", Fn: testbenchWithPorts},
		},
	})
}

// mismatchedTbArchitecture flags a testbench-named architecture whose
// entity name does not itself look like a testbench — a common copy/paste
// mistake when duplicating a testbench for a new DUT.
func mismatchedTbArchitecture(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, a := range s.Architectures {
		if !facts.IsTestbenchName(a.Name) {
			continue
		}
		if facts.IsTestbenchName(a.EntityName) {
			continue
		}
		out = append(out, result.Violation{
			Rule: "mismatched_tb_architecture", Severity: result.SeverityWarning,
			File: a.File, Line: a.Line,
			Message: fmt.Sprintf("testbench-named architecture %q implements non-testbench entity %q", a.Name, a.EntityName),
		})
	}
	return out
}

// entityNoPortsNotTb flags an entity with zero ports whose name does not
// read as a testbench — a structural entity always needs an interface.
func entityNoPortsNotTb(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, e := range s.Entities {
		if len(e.Ports) != 0 || facts.IsTestbenchName(e.Name) {
			continue
		}
		out = append(out, result.Violation{
			Rule: "entity_no_ports_not_tb", Severity: result.SeverityWarning,
			File: e.File, Line: e.Line,
			Message: fmt.Sprintf("entity %q has no ports but is not named like a testbench", e.Name),
		})
	}
	return out
}

// tbWithSynthArch flags a testbench entity implemented by an architecture
// named after a synthesizable style (rtl/structural) rather than a
// behavioral/sim convention.
func tbWithSynthArch(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, a := range s.Architectures {
		if !facts.IsTestbenchName(a.EntityName) {
			continue
		}
		lower := strings.ToLower(a.Name)
		if lower != "rtl" && lower != "structural" {
			continue
		}
		out = append(out, result.Violation{
			Rule: "tb_with_synth_arch", Severity: result.SeverityInfo,
			File: a.File, Line: a.Line,
			Message: fmt.Sprintf("testbench entity %q is implemented by a %q architecture", a.EntityName, a.Name),
		})
	}
	return out
}

// testbenchWithPorts flags a testbench-named entity that still declares
// ports — testbenches are normally closed, self-contained designs.
func testbenchWithPorts(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, e := range s.Entities {
		if !facts.IsTestbenchName(e.Name) || len(e.Ports) == 0 {
			continue
		}
		out = append(out, result.Violation{
			Rule: "testbench_with_ports", Severity: result.SeverityInfo,
			File: e.File, Line: e.Line,
			Message: fmt.Sprintf("testbench entity %q declares %d port(s)", e.Name, len(e.Ports)),
		})
	}
	return out
}
