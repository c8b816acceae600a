// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package rules implements the checker rule families (spec §4.3), grouped
// one file per family and registered with internal/registry in each file's
// init(). Every rule is a pure function over a *facts.Store returning the
// violations it finds; the RuleEngine owns filtering, severity overrides,
// and summarization (spec §4.2) — rules never apply those themselves.
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
		Name: "core",
		Required: []registry.Rule{
			{ID: "missing_ports", Fn: entityHasPorts},
			{ID: "orphan_architecture", Fn: architectureHasEntity},
			{ID: "unresolved_component", Fn: componentResolved},
			{ID: "unresolved_dependency", Fn: unresolvedDependency},
			{ID: "potential_latch", Fn: potentialLatch},
			{ID: "entity_without_arch", Fn: entityWithoutArch},
			{ID: "duplicate_entity_in_library", Fn: duplicateEntityInLibrary},
			{ID: "duplicate_package_in_library", Fn: duplicatePackageInLibrary},
		},
	})
}

// entityHasPorts flags entities declared with zero ports, excluding
// testbench entities (which legitimately have none).
func entityHasPorts(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, e := range s.Entities {
		if len(e.Ports) > 0 {
			continue
		}
		if facts.IsTestbenchName(e.Name) {
			continue
		}
		out = append(out, result.Violation{
			Rule: "missing_ports", Severity: result.SeverityWarning,
			File: e.File, Line: e.Line,
			Message: fmt.Sprintf("entity %q declares no ports", e.Name),
		})
	}
	return out
}

// architectureHasEntity flags an architecture whose referenced entity is
// not declared anywhere in the store.
func architectureHasEntity(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, a := range s.Architectures {
		if facts.EntityExists(s, a.EntityName) {
			continue
		}
		out = append(out, result.Violation{
			Rule: "orphan_architecture", Severity: result.SeverityError,
			File: a.File, Line: a.Line,
			Message: fmt.Sprintf("architecture %q of %q has no matching entity", a.Name, a.EntityName),
		})
	}
	return out
}

// componentResolved flags a component declaration whose name matches
// neither an Entity nor another Component acting as the bound design unit.
func componentResolved(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, c := range s.Components {
		if c.IsInstance {
			continue
		}
		if componentOrEntityExists(s, c.Name) {
			continue
		}
		out = append(out, result.Violation{
			Rule: "unresolved_component", Severity: result.SeverityError,
			File: c.File, Line: c.Line,
			Message: fmt.Sprintf("component %q does not resolve to any known entity", c.Name),
		})
	}
	return out
}

func componentOrEntityExists(s *facts.Store, name string) bool {
	base := facts.BaseEntityName(name)
	if facts.EntityExists(s, base) {
		return true
	}
	for _, c := range s.Components {
		if !strings.EqualFold(c.Name, base) {
			continue
		}
		if c.IsInstance {
			continue
		}
		return true
	}
	return false
}

// unresolvedDependency flags an instantiation-kind Dependency that was
// never marked resolved by the loader.
func unresolvedDependency(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, d := range s.Dependencies {
		if d.Kind != facts.DepInstantiation || d.Resolved {
			continue
		}
		out = append(out, result.Violation{
			Rule: "unresolved_dependency", Severity: result.SeverityError,
			File: d.Source, Line: d.Line,
			Message: fmt.Sprintf("instantiation of %q does not resolve to a known design unit", d.Target),
		})
	}
	return out
}

// potential_latch flags a case statement inside a combinational process
// that omits a "when others" choice, a classic unintended-latch pattern.
// Testbench files are excluded: non-synthesizable stimulus code routinely
// omits "others" deliberately.
func potentialLatch(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, c := range s.CaseStatements {
		if c.HasOthers {
			continue
		}
		if facts.FileInTestbench(s, c.File) {
			continue
		}
		if !caseInCombinationalProcess(s, c) {
			continue
		}
		out = append(out, result.Violation{
			Rule: "potential_latch", Severity: result.SeverityWarning,
			File: c.File, Line: c.Line,
			Message: fmt.Sprintf("case on %q in combinational process %q has no \"when others\" — may infer a latch", c.Expression, c.InProcess),
		})
	}
	return out
}

func caseInCombinationalProcess(s *facts.Store, c facts.CaseStatement) bool {
	for _, p := range s.Processes {
		if strings.EqualFold(p.Label, c.InProcess) && strings.EqualFold(p.InArch, c.InArch) {
			return p.IsCombinational
		}
	}
	return false
}

// entityWithoutArch flags an entity that no architecture implements —
// a declared interface with no body, which cannot be elaborated.
func entityWithoutArch(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, e := range s.Entities {
		if facts.IsTestbenchName(e.Name) {
			continue
		}
		if hasArchitecture(s, e.Name) {
			continue
		}
		out = append(out, result.Violation{
			Rule: "entity_without_arch", Severity: result.SeverityWarning,
			File: e.File, Line: e.Line,
			Message: fmt.Sprintf("entity %q has no architecture", e.Name),
		})
	}
	return out
}

func hasArchitecture(s *facts.Store, entityName string) bool {
	for _, a := range s.Architectures {
		if strings.EqualFold(a.EntityName, entityName) {
			return true
		}
	}
	return false
}

// fileLibraryMap resolves each file's library, defaulting to "work" for
// files with no explicit library clause — VHDL's own default.
func fileLibraryMap(s *facts.Store) map[string]string {
	m := make(map[string]string, len(s.Files))
	for _, f := range s.Files {
		m[f.Path] = "work"
	}
	for _, lc := range s.LibraryClauses {
		m[lc.File] = lc.Library
	}
	return m
}

func libraryForFile(libs map[string]string, file string) string {
	if lib, ok := libs[file]; ok && lib != "" {
		return lib
	}
	return "work"
}

// duplicateEntityInLibrary flags two entities with the same name (case-
// insensitively) declared in the same library across different files.
// Third-party files and same-file redeclaration (a parse artifact, not a
// real design conflict) are excluded.
func duplicateEntityInLibrary(s *facts.Store) []result.Violation {
	libs := fileLibraryMap(s)
	type key struct{ lib, name string }
	seen := make(map[key]facts.Entity)
	var out []result.Violation
	for _, e := range s.Entities {
		if facts.IsThirdPartyFile(s.Config, e.File) {
			continue
		}
		k := key{libraryForFile(libs, e.File), strings.ToLower(e.Name)}
		if first, ok := seen[k]; ok {
			if strings.EqualFold(first.File, e.File) {
				continue
			}
			out = append(out, result.Violation{
				Rule: "duplicate_entity_in_library", Severity: result.SeverityError,
				File: e.File, Line: e.Line,
				Message: fmt.Sprintf("entity %q already declared in library %q at %s:%d", e.Name, k.lib, first.File, first.Line),
			})
			continue
		}
		seen[k] = e
	}
	return out
}

// duplicatePackageInLibrary mirrors duplicateEntityInLibrary for package
// declarations.
func duplicatePackageInLibrary(s *facts.Store) []result.Violation {
	libs := fileLibraryMap(s)
	type key struct{ lib, name string }
	seen := make(map[key]facts.Package)
	var out []result.Violation
	for _, p := range s.Packages {
		if facts.IsThirdPartyFile(s.Config, p.File) {
			continue
		}
		k := key{libraryForFile(libs, p.File), strings.ToLower(p.Name)}
		if first, ok := seen[k]; ok {
			if strings.EqualFold(first.File, p.File) {
				continue
			}
			out = append(out, result.Violation{
				Rule: "duplicate_package_in_library", Severity: result.SeverityError,
				File: p.File, Line: p.Line,
				Message: fmt.Sprintf("package %q already declared in library %q at %s:%d", p.Name, k.lib, first.File, first.Line),
			})
			continue
		}
		seen[k] = p
	}
	return out
}
