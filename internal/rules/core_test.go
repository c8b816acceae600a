// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/vhdl-sentinel/internal/facts"
	"github.com/AleutianAI/vhdl-sentinel/internal/registry"
)

func TestCoreFamilyRegistersExpectedRuleIDs(t *testing.T) {
	var ids []string
	for _, f := range registry.Default.Families() {
		if f.Name != "core" {
			continue
		}
		for _, r := range f.Required {
			ids = append(ids, r.ID)
		}
	}
	assert.ElementsMatch(t, []string{
		"missing_ports", "orphan_architecture", "unresolved_component",
		"unresolved_dependency", "potential_latch", "entity_without_arch",
		"duplicate_entity_in_library", "duplicate_package_in_library",
	}, ids)
}

func TestEntityHasPortsFlagsEmptyPortList(t *testing.T) {
	s := &facts.Store{Entities: []facts.Entity{{Name: "counter", File: "counter.vhd", Line: 3}}}
	violations := entityHasPorts(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "missing_ports", violations[0].Rule)
}

func TestEntityHasPortsIgnoresTestbench(t *testing.T) {
	s := &facts.Store{Entities: []facts.Entity{{Name: "counter_tb", File: "counter_tb.vhd"}}}
	assert.Empty(t, entityHasPorts(s))
}

func TestArchitectureHasEntityFlagsOrphan(t *testing.T) {
	s := &facts.Store{Architectures: []facts.Architecture{{Name: "rtl", EntityName: "missing", File: "a.vhd", Line: 1}}}
	violations := architectureHasEntity(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "orphan_architecture", violations[0].Rule)
}

func TestArchitectureHasEntityAllowsKnownEntity(t *testing.T) {
	s := &facts.Store{
		Entities:      []facts.Entity{{Name: "counter"}},
		Architectures: []facts.Architecture{{Name: "rtl", EntityName: "counter"}},
	}
	assert.Empty(t, architectureHasEntity(s))
}

func TestComponentResolvedFlagsUnresolvedDeclaration(t *testing.T) {
	s := &facts.Store{Components: []facts.Component{{Name: "mystery", File: "top.vhd", Line: 9}}}
	violations := componentResolved(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "unresolved_component", violations[0].Rule)
}

func TestComponentResolvedAllowsComponentMatchingEntity(t *testing.T) {
	s := &facts.Store{
		Entities:   []facts.Entity{{Name: "counter"}},
		Components: []facts.Component{{Name: "counter"}},
	}
	assert.Empty(t, componentResolved(s))
}

func TestComponentResolvedIgnoresInstantiations(t *testing.T) {
	s := &facts.Store{Components: []facts.Component{{Name: "mystery", IsInstance: true}}}
	assert.Empty(t, componentResolved(s))
}

func TestUnresolvedDependencyFlagsUnresolvedInstantiation(t *testing.T) {
	s := &facts.Store{Dependencies: []facts.Dependency{
		{Source: "top.vhd", Target: "counter", Kind: facts.DepInstantiation, Resolved: false, Line: 20},
	}}
	violations := unresolvedDependency(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "unresolved_dependency", violations[0].Rule)
}

func TestUnresolvedDependencyIgnoresResolvedAndUseKinds(t *testing.T) {
	s := &facts.Store{Dependencies: []facts.Dependency{
		{Kind: facts.DepInstantiation, Resolved: true},
		{Kind: facts.DepUse, Resolved: false},
	}}
	assert.Empty(t, unresolvedDependency(s))
}

func TestPotentialLatchFlagsCaseWithoutOthersInCombinationalProcess(t *testing.T) {
	s := &facts.Store{
		Processes: []facts.Process{{Label: "comb", InArch: "rtl", IsCombinational: true}},
		CaseStatements: []facts.CaseStatement{
			{Expression: "sel", InProcess: "comb", InArch: "rtl", HasOthers: false, File: "top.vhd", Line: 15},
		},
	}
	violations := potentialLatch(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "potential_latch", violations[0].Rule)
}

func TestPotentialLatchAllowsHasOthers(t *testing.T) {
	s := &facts.Store{
		Processes:      []facts.Process{{Label: "comb", InArch: "rtl", IsCombinational: true}},
		CaseStatements: []facts.CaseStatement{{Expression: "sel", InProcess: "comb", InArch: "rtl", HasOthers: true}},
	}
	assert.Empty(t, potentialLatch(s))
}

func TestPotentialLatchIgnoresSequentialProcess(t *testing.T) {
	s := &facts.Store{
		Processes:      []facts.Process{{Label: "seq", InArch: "rtl", IsSequential: true}},
		CaseStatements: []facts.CaseStatement{{Expression: "sel", InProcess: "seq", InArch: "rtl", HasOthers: false}},
	}
	assert.Empty(t, potentialLatch(s))
}

func TestPotentialLatchIgnoresTestbenchFiles(t *testing.T) {
	s := &facts.Store{
		Processes: []facts.Process{{Label: "comb", InArch: "rtl", IsCombinational: true}},
		CaseStatements: []facts.CaseStatement{
			{Expression: "sel", InProcess: "comb", InArch: "rtl", HasOthers: false, File: "counter_tb.vhd"},
		},
		Entities:      []facts.Entity{{Name: "counter_tb", File: "counter_tb.vhd"}},
		Architectures: []facts.Architecture{{Name: "rtl", EntityName: "counter_tb", File: "counter_tb.vhd"}},
	}
	assert.Empty(t, potentialLatch(s))
}

func TestEntityWithoutArchFlagsMissingArchitecture(t *testing.T) {
	s := &facts.Store{Entities: []facts.Entity{{Name: "counter", File: "counter.vhd", Line: 1}}}
	violations := entityWithoutArch(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "entity_without_arch", violations[0].Rule)
}

func TestEntityWithoutArchAllowsImplementedEntity(t *testing.T) {
	s := &facts.Store{
		Entities:      []facts.Entity{{Name: "counter"}},
		Architectures: []facts.Architecture{{Name: "rtl", EntityName: "counter"}},
	}
	assert.Empty(t, entityWithoutArch(s))
}

func TestDuplicateEntityInLibraryFlagsSameNameDifferentFiles(t *testing.T) {
	s := &facts.Store{Entities: []facts.Entity{
		{Name: "counter", File: "a.vhd", Line: 1},
		{Name: "counter", File: "b.vhd", Line: 1},
	}}
	violations := duplicateEntityInLibrary(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "duplicate_entity_in_library", violations[0].Rule)
	assert.Equal(t, "b.vhd", violations[0].File)
}

func TestDuplicateEntityInLibraryAllowsDifferentLibraries(t *testing.T) {
	s := &facts.Store{
		Entities:       []facts.Entity{{Name: "counter", File: "a.vhd"}, {Name: "counter", File: "b.vhd"}},
		LibraryClauses: []facts.LibraryClause{{File: "a.vhd", Library: "lib_a"}, {File: "b.vhd", Library: "lib_b"}},
	}
	assert.Empty(t, duplicateEntityInLibrary(s))
}

func TestDuplicateEntityInLibraryIgnoresThirdPartyFiles(t *testing.T) {
	s := &facts.Store{
		Entities: []facts.Entity{{Name: "counter", File: "vendor/counter.vhd"}, {Name: "counter", File: "b.vhd"}},
		Config:   facts.LintConfig{ThirdPartyPaths: []string{"vendor/counter.vhd"}},
	}
	assert.Empty(t, duplicateEntityInLibrary(s))
}

func TestDuplicateEntityInLibraryIgnoresSameFileRedeclaration(t *testing.T) {
	s := &facts.Store{Entities: []facts.Entity{
		{Name: "counter", File: "a.vhd", Line: 1},
		{Name: "counter", File: "a.vhd", Line: 1},
	}}
	assert.Empty(t, duplicateEntityInLibrary(s))
}

func TestDuplicatePackageInLibraryFlagsSameNameDifferentFiles(t *testing.T) {
	s := &facts.Store{Packages: []facts.Package{
		{Name: "utils_pkg", File: "a.vhd", Line: 1},
		{Name: "utils_pkg", File: "b.vhd", Line: 1},
	}}
	violations := duplicatePackageInLibrary(s)
	require.Len(t, violations, 1)
	assert.Equal(t, "duplicate_package_in_library", violations[0].Rule)
}
