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
		Name: "security",
		Optional: []registry.Rule{
			{ID: "hardcoded_generic", Fn: hardcodedGeneric},
			{ID: "hardcoded_port_value", Fn: hardcodedPortValue},
			{ID: "magic_number_comparison", Fn: magicNumberComparison},
		},
	})
}

// hardcodedGeneric flags an instance that overrides a generic with a
// literal value instead of propagating a parent generic, a pattern that
// silently breaks design reuse and parameterization.
func hardcodedGeneric(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, inst := range s.Instances {
		for formal, actual := range inst.GenericMap {
			if !isLiteralValue(actual) {
				continue
			}
			if facts.IsSkipName(formal) {
				continue
			}
			out = append(out, result.Violation{
				Rule: "hardcoded_generic", Severity: result.SeverityInfo,
				File: inst.File, Line: inst.Line,
				Message: fmt.Sprintf("instance %q overrides generic %q with literal %q", inst.Name, formal, actual),
			})
		}
	}
	return out
}

// hardcodedPortValue flags an instance port connected directly to a
// literal rather than a signal — frequently a debugging leftover
// (tie-offs aside, which should use named constants instead).
func hardcodedPortValue(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, inst := range s.Instances {
		for _, assoc := range inst.Associations {
			if !isLiteralValue(assoc.Actual) {
				continue
			}
			out = append(out, result.Violation{
				Rule: "hardcoded_port_value", Severity: result.SeverityInfo,
				File: inst.File, Line: inst.Line,
				Message: fmt.Sprintf("instance %q connects port %q to literal %q", inst.Name, assoc.Formal, assoc.Actual),
			})
		}
	}
	return out
}

func isLiteralValue(v string) bool {
	if v == "" {
		return false
	}
	for _, r := range v {
		if r >= '0' && r <= '9' {
			continue
		}
		switch r {
		case '\'', '"', 'x', 'X', 'b', 'B', 'o', 'O', 'u', 'U':
			continue
		}
		return false
	}
	return true
}

// magicNumberComparison flags a comparison against a wide literal with no
// named constant, a frequent source of off-by-one and width-mismatch bugs
// that are hard to spot during review.
func magicNumberComparison(s *facts.Store) []result.Violation {
	const widthThreshold = 8
	var out []result.Violation
	for _, c := range s.Comparisons {
		if !c.IsLiteral || c.LiteralWidth < widthThreshold {
			continue
		}
		out = append(out, result.Violation{
			Rule: "magic_number_comparison", Severity: result.SeverityInfo,
			File: c.File, Line: c.Line,
			Message: fmt.Sprintf("comparison %s %s %s uses an unnamed %d-bit literal", c.LeftOperand, c.Operator, c.RightOperand, c.LiteralWidth),
		})
	}
	return out
}
