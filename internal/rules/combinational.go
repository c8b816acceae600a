// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AleutianAI/vhdl-sentinel/internal/facts"
	"github.com/AleutianAI/vhdl-sentinel/internal/registry"
	"github.com/AleutianAI/vhdl-sentinel/internal/result"
)

func init() {
	registry.Default.Register(registry.Family{
		Name: "combinational",
		Required: []registry.Rule{
			{ID: "combinational_feedback", Fn: combinationalFeedback},
			{ID: "empty_sensitivity_combinational", Fn: emptySensitivityCombinational},
			{ID: "direct_combinational_loop", Fn: directCombinationalLoop},
			{ID: "two_stage_combinational_loop", Fn: twoStageCombinationalLoop},
			{ID: "three_stage_combinational_loop", Fn: threeStageCombinationalLoop},
			{ID: "cross_process_combinational_loop", Fn: crossProcessCombinationalLoop},
		},
		Optional: []registry.Rule{
			{ID: "large_combinational_process", Fn: largeCombinationalProcess},
			{ID: "vhdl2008_sensitivity_all", Fn: vhdl2008SensitivityAll},
			{ID: "long_sensitivity_list", Fn: longSensitivityList},
			{ID: "potential_combinational_loop", Fn: potentialCombinationalLoop},
		},
	})
}

// signalTypeIndex maps a signal name (case-folded) to its declared type,
// built once per rule call since several combinational rules need
// IsResolvedSignal by name rather than by facts.Signal value.
func signalTypeIndex(s *facts.Store) map[string]facts.Signal {
	idx := make(map[string]facts.Signal, len(s.Signals))
	for _, sig := range s.Signals {
		idx[strings.ToLower(sig.Name)] = sig
	}
	return idx
}

func isResolvedSignalName(idx map[string]facts.Signal, name string) bool {
	sig, ok := idx[strings.ToLower(name)]
	return ok && facts.IsResolvedSignal(sig)
}

// filteredCombinationalDeps returns the SignalDeps relevant to combinational
// loop analysis: sequential (registered) assignments break a loop, and
// resolved (multi-driver-legal) signals are exempt by design (Open
// Question 2), so both are excluded up front.
func filteredCombinationalDeps(s *facts.Store) []facts.SignalDep {
	idx := signalTypeIndex(s)
	var out []facts.SignalDep
	for _, d := range s.SignalDeps {
		if d.IsSequential {
			continue
		}
		if isResolvedSignalName(idx, d.Source) || isResolvedSignalName(idx, d.Target) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// isLoopFalsePositive suppresses the low-confidence potentialCombinationalLoop
// heuristic where either endpoint's name contains "next" or "state" — these
// are overwhelmingly legitimate FSM next-state assignments rather than bugs.
// The higher-confidence loop detectors do not use this suppression.
func isLoopFalsePositive(a, b string) bool {
	for _, n := range []string{a, b} {
		lower := strings.ToLower(n)
		if strings.Contains(lower, "next") || strings.Contains(lower, "state") {
			return true
		}
	}
	return false
}

// combinationalFeedback flags a combinational process that both assigns and
// reads the same signal — output directly feeding back as an input to the
// process that drives it.
func combinationalFeedback(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, p := range s.Processes {
		if !p.IsCombinational {
			continue
		}
		for _, assigned := range p.AssignedSignals {
			if !facts.SignalInList(p.ReadSignals, assigned) {
				continue
			}
			if facts.IsClockName(assigned) || facts.IsResetName(assigned) {
				continue
			}
			if !facts.IsActualSignal(s, assigned) {
				continue
			}
			if facts.IsCompositeIdentifier(assigned) {
				continue
			}
			out = append(out, result.Violation{
				Rule: "combinational_feedback", Severity: result.SeverityWarning,
				File: p.File, Line: p.Line,
				Message: fmt.Sprintf("combinational process %q both reads and drives %q", p.Label, assigned),
			})
		}
	}
	return out
}

// emptySensitivityCombinational flags a combinational process with an
// empty sensitivity list — it will not re-evaluate when its inputs change
// in simulation, a frequent source of sim/synthesis mismatch.
func emptySensitivityCombinational(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, p := range s.Processes {
		if !p.IsCombinational || len(p.SensitivityList) != 0 {
			continue
		}
		if facts.ProcessInTestbench(s, p) {
			continue
		}
		out = append(out, result.Violation{
			Rule: "empty_sensitivity_combinational", Severity: result.SeverityError,
			File: p.File, Line: p.Line,
			Message: fmt.Sprintf("combinational process %q has an empty sensitivity list", p.Label),
		})
	}
	return out
}

// directCombinationalLoop flags a signal that combinationally depends on
// itself in a single step (source == target). A target that is also
// written by a sequential process is excluded: that dependency edge
// reflects the register's own next-value computation, not a combinational
// cycle.
func directCombinationalLoop(s *facts.Store) []result.Violation {
	sequentialTargets := make(map[string]bool)
	for _, d := range s.SignalDeps {
		if d.IsSequential {
			sequentialTargets[strings.ToLower(d.Target)] = true
		}
	}

	var out []result.Violation
	for _, d := range filteredCombinationalDeps(s) {
		if !strings.EqualFold(d.Source, d.Target) {
			continue
		}
		if sequentialTargets[strings.ToLower(d.Target)] {
			continue
		}
		if facts.FileInTestbench(s, d.File) {
			continue
		}
		out = append(out, result.Violation{
			Rule: "direct_combinational_loop", Severity: result.SeverityError,
			File: d.File, Line: d.Line,
			Message: fmt.Sprintf("signal %q combinationally depends on itself", d.Target),
		})
	}
	return out
}

// buildDepEdgeMap indexes filtered deps by lowercased source, keeping every
// dep for that source in input order (each carries its own line/file).
func buildDepEdgeMap(deps []facts.SignalDep) map[string][]facts.SignalDep {
	m := make(map[string][]facts.SignalDep)
	for _, d := range deps {
		key := strings.ToLower(d.Source)
		m[key] = append(m[key], d)
	}
	return m
}

// twoStageCombinationalLoop flags a pair of signals that depend on one
// another: a -> b and b -> a. Each unordered pair is reported once.
func twoStageCombinationalLoop(s *facts.Store) []result.Violation {
	deps := filteredCombinationalDeps(s)
	edges := buildDepEdgeMap(deps)
	seen := make(map[string]bool)
	var out []result.Violation
	for _, d := range deps {
		a, b := d.Source, d.Target
		if strings.EqualFold(a, b) {
			continue
		}
		backEdges, ok := edges[strings.ToLower(b)]
		if !ok {
			continue
		}
		var back *facts.SignalDep
		for i := range backEdges {
			if strings.EqualFold(backEdges[i].Target, a) {
				back = &backEdges[i]
				break
			}
		}
		if back == nil {
			continue
		}
		lo, hi := a, b
		if strings.ToLower(hi) < strings.ToLower(lo) {
			lo, hi = hi, lo
		}
		key := strings.ToLower(lo) + "|" + strings.ToLower(hi)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, result.Violation{
			Rule: "two_stage_combinational_loop", Severity: result.SeverityError,
			File: d.File, Line: d.Line,
			Message: fmt.Sprintf("two-stage combinational loop between %q and %q", a, b),
		})
	}
	return out
}

// threeStageCombinationalLoop flags a cycle a -> b -> c -> a across three
// distinct signals. Each cycle is reported once, keyed by its sorted
// signal triple so a->b->c->a and b->c->a->b collapse to one finding.
func threeStageCombinationalLoop(s *facts.Store) []result.Violation {
	deps := filteredCombinationalDeps(s)
	edges := buildDepEdgeMap(deps)
	seen := make(map[string]bool)
	var out []result.Violation
	for _, d1 := range deps {
		a, b := d1.Source, d1.Target
		if strings.EqualFold(a, b) {
			continue
		}
		for _, d2 := range edges[strings.ToLower(b)] {
			c := d2.Target
			if strings.EqualFold(c, a) || strings.EqualFold(c, b) {
				continue
			}
			closesLoop := false
			for _, d3 := range edges[strings.ToLower(c)] {
				if strings.EqualFold(d3.Target, a) {
					closesLoop = true
					break
				}
			}
			if !closesLoop {
				continue
			}
			triple := []string{strings.ToLower(a), strings.ToLower(b), strings.ToLower(c)}
			sort.Strings(triple)
			key := strings.Join(triple, "|")
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, result.Violation{
				Rule: "three_stage_combinational_loop", Severity: result.SeverityError,
				File: d1.File, Line: d1.Line,
				Message: fmt.Sprintf("three-stage combinational loop among %q, %q, %q", a, b, c),
			})
		}
	}
	return out
}

// crossProcessCombinationalLoop flags two distinct combinational processes
// where each reads what the other assigns (a form of the two-stage loop
// that spans process boundaries and so is invisible to a single-process
// signal-dependency scan). Each pair is reported once: processes are
// ordered by declaration line and only the lower-line process triggers the
// check against a higher-line partner, avoiding a duplicate report from
// the symmetric pairing.
func crossProcessCombinationalLoop(s *facts.Store) []result.Violation {
	var out []result.Violation
	procs := s.Processes
	for i := range procs {
		p1 := procs[i]
		if !p1.IsCombinational {
			continue
		}
		for j := range procs {
			if i == j {
				continue
			}
			p2 := procs[j]
			if !p2.IsCombinational {
				continue
			}
			if !strings.EqualFold(p1.InArch, p2.InArch) {
				continue
			}
			if p1.Line >= p2.Line {
				continue
			}
			for _, assigned := range p1.AssignedSignals {
				if !facts.SignalInList(p2.ReadSignals, assigned) {
					continue
				}
				for _, assigned2 := range p2.AssignedSignals {
					if !facts.SignalInList(p1.ReadSignals, assigned2) {
						continue
					}
					out = append(out, result.Violation{
						Rule: "cross_process_combinational_loop", Severity: result.SeverityError,
						File: p1.File, Line: p1.Line,
						Message: fmt.Sprintf("combinational loop between process %q and %q via %q/%q", p1.Label, p2.Label, assigned, assigned2),
					})
				}
			}
		}
	}
	return out
}

// largeCombinationalProcess flags a combinational process assigning an
// unusually large number of distinct signals, a proxy for excessive
// complexity that should likely be split.
func largeCombinationalProcess(s *facts.Store) []result.Violation {
	const threshold = 20
	var out []result.Violation
	for _, p := range s.Processes {
		if !p.IsCombinational || len(p.AssignedSignals) < threshold {
			continue
		}
		out = append(out, result.Violation{
			Rule: "large_combinational_process", Severity: result.SeverityInfo,
			File: p.File, Line: p.Line,
			Message: fmt.Sprintf("combinational process %q assigns %d signals", p.Label, len(p.AssignedSignals)),
		})
	}
	return out
}

// vhdl2008SensitivityAll flags use of the VHDL-2008 "process(all)"
// shorthand — informational, since some style guides prefer an explicit
// list for portability with pre-2008 toolchains.
func vhdl2008SensitivityAll(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, p := range s.Processes {
		if !facts.HasAllSensitivity(p) {
			continue
		}
		out = append(out, result.Violation{
			Rule: "vhdl2008_sensitivity_all", Severity: result.SeverityInfo,
			File: p.File, Line: p.Line,
			Message: fmt.Sprintf("process %q uses VHDL-2008 sensitivity(all)", p.Label),
		})
	}
	return out
}

// longSensitivityList flags a process whose explicit sensitivity list is
// unusually long, often indicating a signal was added but a dependent was
// forgotten (or the reverse).
func longSensitivityList(s *facts.Store) []result.Violation {
	const threshold = 10
	var out []result.Violation
	for _, p := range s.Processes {
		if len(p.SensitivityList) <= threshold {
			continue
		}
		out = append(out, result.Violation{
			Rule: "long_sensitivity_list", Severity: result.SeverityInfo,
			File: p.File, Line: p.Line,
			Message: fmt.Sprintf("process %q has a sensitivity list of %d signals", p.Label, len(p.SensitivityList)),
		})
	}
	return out
}

// potentialCombinationalLoop is a lower-confidence heuristic: any
// filtered dependency pair sharing a prefix that suggests they're the same
// conceptual signal at different pipeline stages (e.g. "foo" and "foo_d")
// is worth a human glance even without proof of an actual cycle.
func potentialCombinationalLoop(s *facts.Store) []result.Violation {
	deps := filteredCombinationalDeps(s)
	seen := make(map[string]bool)
	var out []result.Violation
	for _, d := range deps {
		if isLoopFalsePositive(d.Source, d.Target) {
			continue
		}
		sl, tl := strings.ToLower(d.Source), strings.ToLower(d.Target)
		if sl == tl {
			continue
		}
		if !strings.HasPrefix(tl, sl) && !strings.HasPrefix(sl, tl) {
			continue
		}
		lo, hi := sl, tl
		if hi < lo {
			lo, hi = hi, lo
		}
		key := lo + "|" + hi
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, result.Violation{
			Rule: "potential_combinational_loop", Severity: result.SeverityInfo,
			File: d.File, Line: d.Line,
			Message: fmt.Sprintf("signals %q and %q may form a combinational loop", d.Source, d.Target),
		})
	}
	return out
}
