// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/AleutianAI/vhdl-sentinel/internal/facts"
	"github.com/AleutianAI/vhdl-sentinel/internal/registry"
	"github.com/AleutianAI/vhdl-sentinel/internal/result"
)

func init() {
	registry.Default.Register(registry.Family{
		Name: "naming",
		Optional: []registry.Rule{
			{ID: "architecture_naming_convention", Fn: architectureNamingConvention},
			{ID: "entity_name_with_numbers", Fn: entityNameWithNumbers},
			{ID: "instance_naming_convention", Fn: instanceNamingConvention},
			{ID: "naming_convention", Fn: namingConvention},
		},
	})
}

func architectureNamingConvention(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, a := range s.Architectures {
		if facts.IsStandardArchName(a.Name) || facts.IsTestbenchName(a.Name) {
			continue
		}
		out = append(out, result.Violation{
			Rule: "architecture_naming_convention", Severity: result.SeverityInfo,
			File: a.File, Line: a.Line,
			Message: fmt.Sprintf("architecture name %q does not follow the rtl/behavioral/structural convention", a.Name),
		})
	}
	return out
}

var trailingDigitsPattern = regexp.MustCompile(`[0-9]+$`)

func entityNameWithNumbers(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, e := range s.Entities {
		if !trailingDigitsPattern.MatchString(e.Name) {
			continue
		}
		out = append(out, result.Violation{
			Rule: "entity_name_with_numbers", Severity: result.SeverityInfo,
			File: e.File, Line: e.Line,
			Message: fmt.Sprintf("entity name %q ends in a bare number; prefer a descriptive suffix", e.Name),
		})
	}
	return out
}

func instanceNamingConvention(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, inst := range s.Instances {
		if facts.ValidInstancePrefix(inst.Name) {
			continue
		}
		out = append(out, result.Violation{
			Rule: "instance_naming_convention", Severity: result.SeverityInfo,
			File: inst.File, Line: inst.Line,
			Message: fmt.Sprintf("instance label %q does not use a u_/i_/inst_ prefix", inst.Name),
		})
	}
	return out
}

var validIdentifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// namingConvention flags signal names (other than skip names) that are not
// lower_snake_case: all lower case and matching ^[a-z][a-z0-9_]*$. Port
// names are not checked.
func namingConvention(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, sig := range s.Signals {
		if facts.IsSkipName(sig.Name) {
			continue
		}
		if validIdentifierPattern.MatchString(strings.ToLower(sig.Name)) && sig.Name == strings.ToLower(sig.Name) {
			continue
		}
		out = append(out, result.Violation{
			Rule: "naming_convention", Severity: result.SeverityInfo,
			File: sig.File, Line: sig.Line,
			Message: fmt.Sprintf("signal name %q does not follow lower_snake_case", sig.Name),
		})
	}
	return out
}
