// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package graphanalysis implements the GraphAnalyses family (spec §4.4):
// the per-architecture signal-usage index and the combinational-dependency
// cycle search, both run as engine graph passes
// (internal/rules/combinational.go ports the original's exact
// per-length-loop algorithms; this package provides the general
// bounded-length cycle search used by the FindUnboundedCombinationalLoops
// graph pass, which the batch engine and the IncrementalEngine's per-epoch
// recompute both run).
package graphanalysis

import (
	"strings"

	"github.com/AleutianAI/vhdl-sentinel/internal/facts"
)

// SignalUsage records the three usage facets the spec's helpers need per
// signal per architecture: whether it is ever used (read or driven),
// explicitly read, or explicitly assigned.
type SignalUsage struct {
	Used     bool
	Read     bool
	Assigned bool
}

// SignalUsageIndex maps (architecture, signal) to that signal's usage
// facets. UnresolvedExternalReads builds and reads it; the rules in
// internal/rules (unused_signal, undriven_signal, unused_input_port,
// output_port_read, and the rest) do not read it and scan the store
// themselves.
type SignalUsageIndex map[string]*SignalUsage

func key(arch, signal string) string {
	return strings.ToLower(arch) + "|" + strings.ToLower(signal)
}

func (idx SignalUsageIndex) entry(arch, signal string) *SignalUsage {
	k := key(arch, signal)
	e, ok := idx[k]
	if !ok {
		e = &SignalUsage{}
		idx[k] = e
	}
	return e
}

// Lookup returns the usage facts for signal in arch, or the zero value
// (all false) if the signal was never observed at all.
func (idx SignalUsageIndex) Lookup(arch, signal string) SignalUsage {
	if e, ok := idx[key(arch, signal)]; ok {
		return *e
	}
	return SignalUsage{}
}

// BuildSignalUsageIndex scans every process, concurrent assignment, and
// instance port map once and produces the index. Each call rescans the
// store; the index is not cached or shared between rules or passes.
func BuildSignalUsageIndex(s *facts.Store) SignalUsageIndex {
	idx := make(SignalUsageIndex)

	for _, p := range s.Processes {
		for _, sig := range p.AssignedSignals {
			e := idx.entry(p.InArch, sig)
			e.Used = true
			e.Assigned = true
		}
		for _, sig := range p.ReadSignals {
			e := idx.entry(p.InArch, sig)
			e.Used = true
			e.Read = true
		}
	}

	for _, a := range s.Assignments {
		e := idx.entry(a.InArch, a.Target)
		e.Used = true
		e.Assigned = true
		for _, sig := range a.ReadSignals {
			re := idx.entry(a.InArch, sig)
			re.Used = true
			re.Read = true
		}
	}

	for _, inst := range s.Instances {
		for _, actual := range inst.PortMap {
			if !facts.IsActualSignal(s, actual) {
				continue
			}
			e := idx.entry(inst.InArch, actual)
			e.Used = true
		}
	}

	return idx
}
