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
		Name: "instances",
		Optional: []registry.Rule{
			{ID: "instance_name_matches_component", Fn: instanceNameMatchesComponent},
			{ID: "positional_mapping", Fn: positionalMapping},
			{ID: "many_instances", Fn: manyInstances},
		},
	})
}

// instanceNameMatchesComponent flags an instance label identical to the
// component/entity it instantiates, which makes multi-instance
// architectures impossible to disambiguate in reports and waveform viewers.
func instanceNameMatchesComponent(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, inst := range s.Instances {
		if !strings.EqualFold(inst.Name, facts.BaseEntityName(inst.Target)) {
			continue
		}
		out = append(out, result.Violation{
			Rule: "instance_name_matches_component", Severity: result.SeverityInfo,
			File: inst.File, Line: inst.Line,
			Message: fmt.Sprintf("instance label %q matches its component name %q", inst.Name, inst.Target),
		})
	}
	return out
}

// positionalMapping flags an instance using positional port association —
// fragile against the source entity's port order changing.
func positionalMapping(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, inst := range s.Instances {
		var positional int
		for _, assoc := range inst.Associations {
			if assoc.Kind == facts.AssocPositional {
				positional++
			}
		}
		if positional == 0 {
			continue
		}
		out = append(out, result.Violation{
			Rule: "positional_mapping", Severity: result.SeverityInfo,
			File: inst.File, Line: inst.Line,
			Message: fmt.Sprintf("instance %q uses %d positional port association(s)", inst.Name, positional),
		})
	}
	return out
}

// manyInstances flags an architecture with an unusually high instance
// count, suggesting it should be decomposed or use generate statements.
func manyInstances(s *facts.Store) []result.Violation {
	const threshold = 25
	counts := make(map[string]int)
	lineOf := make(map[string]int)
	fileOf := make(map[string]string)
	for _, inst := range s.Instances {
		key := strings.ToLower(inst.InArch)
		counts[key]++
		if lineOf[key] == 0 {
			lineOf[key] = inst.Line
			fileOf[key] = inst.File
		}
	}
	var out []result.Violation
	for _, a := range s.Architectures {
		key := strings.ToLower(a.Name)
		if counts[key] < threshold {
			continue
		}
		out = append(out, result.Violation{
			Rule: "many_instances", Severity: result.SeverityInfo,
			File: a.File, Line: a.Line,
			Message: fmt.Sprintf("architecture %q instantiates %d components", a.Name, counts[key]),
		})
	}
	return out
}
