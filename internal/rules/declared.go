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
		Name: "declared",
		Required: []registry.Rule{
			{ID: "undeclared_signal_usage", Fn: undeclaredSignalUsage},
		},
	})
}

// declaredNameIndex is every name in arch's scope that a read/assigned
// reference could legitimately resolve to: the architecture's own signals,
// the parent entity's ports and generics, the variables of the
// architecture's processes, every shared variable, and
// store-wide types/constants/enum literals/subprogram names (VHDL allows a
// process to reference a function or enumeration literal as a bare name).
type declaredNameIndex map[string]bool

func buildDeclaredNames(s *facts.Store, archName, entityName string) declaredNameIndex {
	idx := make(declaredNameIndex)
	add := func(name string) {
		if name != "" {
			idx[strings.ToLower(name)] = true
		}
	}

	for _, sig := range s.Signals {
		if strings.EqualFold(sig.InEntity, archName) {
			add(sig.Name)
		}
	}
	for _, e := range s.Entities {
		if strings.EqualFold(e.Name, entityName) {
			for _, p := range e.Ports {
				add(p.Name)
			}
			for _, g := range e.Generics {
				add(g.Name)
			}
		}
	}
	procsInArch := make(map[string]bool)
	for _, p := range s.Processes {
		if strings.EqualFold(p.InArch, archName) {
			procsInArch[strings.ToLower(p.Label)] = true
		}
	}
	for _, v := range s.Variables {
		if facts.IsSharedVariable(v) || procsInArch[strings.ToLower(v.InProcess)] {
			add(v.Name)
		}
	}
	for _, c := range s.Constants {
		add(c.Name)
	}
	for _, t := range s.Types {
		add(t.Name)
		for _, lit := range t.EnumLiterals {
			add(lit)
		}
	}
	for _, sub := range s.Subtypes {
		add(sub.Name)
	}
	for _, fn := range s.Functions {
		add(fn.Name)
	}
	for _, proc := range s.Procedures {
		add(proc.Name)
	}
	for _, comp := range s.Components {
		add(comp.Name)
	}

	return idx
}

// undeclaredSignalUsage resolves Open Question 1 (SPEC_FULL.md §C): a name
// read or assigned in a process/concurrent statement that resolves to
// nothing declared anywhere in scope is flagged, unless any of three
// suppression conditions from the original helpers module hold —
// facts.SingleFileMode (a partial single-file view proves nothing),
// facts.ArchMissingEntityForContext (the architecture's own entity is
// already reported missing by orphan_architecture; piling on would be
// noise), or facts.FileHasUseClause (a package/library use clause could be
// the name's real source, which this engine cannot resolve — §1, parsing
// is out of scope).
func undeclaredSignalUsage(s *facts.Store) []result.Violation {
	if facts.SingleFileMode(s) {
		return nil
	}

	var out []result.Violation
	for _, arch := range s.Architectures {
		if facts.ArchMissingEntityForContext(s, arch) {
			continue
		}
		if facts.FileHasUseClause(s, arch.File) {
			continue
		}

		declared := buildDeclaredNames(s, arch.Name, arch.EntityName)
		reported := make(map[string]bool)

		check := func(name, file string, line int) {
			if name == "" || facts.IsSkipName(name) {
				return
			}
			lower := strings.ToLower(name)
			if declared[lower] || reported[lower] {
				return
			}
			reported[lower] = true
			out = append(out, result.Violation{
				Rule: "undeclared_signal_usage", Severity: result.SeverityWarning,
				File: file, Line: line,
				Message: fmt.Sprintf("%q is used in architecture %q but not declared as a signal, port, generic, variable, constant, or type", name, arch.Name),
			})
		}

		for _, p := range s.Processes {
			if !strings.EqualFold(p.InArch, arch.Name) {
				continue
			}
			for _, name := range p.AssignedSignals {
				check(name, p.File, p.Line)
			}
			for _, name := range p.ReadSignals {
				check(name, p.File, p.Line)
			}
		}
		for _, a := range s.Assignments {
			if !strings.EqualFold(a.InArch, arch.Name) {
				continue
			}
			check(a.Target, a.File, a.Line)
			for _, name := range a.ReadSignals {
				check(name, a.File, a.Line)
			}
		}
	}
	return out
}
