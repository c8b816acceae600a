// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graphanalysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AleutianAI/vhdl-sentinel/internal/facts"
	"github.com/AleutianAI/vhdl-sentinel/internal/result"
)

// unboundedLoopMinLength is the shortest cycle length this pass reports.
// rules/combinational.go already dedicates named rules to direct (1-edge),
// two-stage, and three-stage feedback loops; this graph pass covers loops
// of unboundedLoopMinLength to unboundedLoopMinLength+4 signals (4 to 8)
// without hand-writing a rule per length, by running the general cycle
// search over the full signal-dependency graph. Longer loops are not
// reported.
const unboundedLoopMinLength = 4

// FindUnboundedCombinationalLoops runs FindCycles over every architecture's
// combinational (non-sequential) SignalDep edges, bounded at
// unboundedLoopMinLength+4 signals, and reports every cycle of 4 to 8
// signals as an informational violation — a four-to-eight-stage
// combinational feedback loop that the dedicated short-cycle rules in
// rules/combinational.go cannot name individually. Cycles of more than 8
// signals are not found.
func FindUnboundedCombinationalLoops(s *facts.Store) []result.Violation {
	byArch := make(map[string][]Edge)
	for _, dep := range s.SignalDeps {
		if dep.IsSequential {
			continue
		}
		key := strings.ToLower(dep.InArch)
		byArch[key] = append(byArch[key], Edge{
			Source: strings.ToLower(dep.Source),
			Target: strings.ToLower(dep.Target),
			Line:   dep.Line,
			File:   dep.File,
		})
	}

	archNames := make([]string, 0, len(byArch))
	for k := range byArch {
		archNames = append(archNames, k)
	}
	sort.Strings(archNames)

	var out []result.Violation
	for _, archKey := range archNames {
		edges := byArch[archKey]
		cycles := FindCycles(edges, unboundedLoopMinLength+4)
		for _, cycle := range cycles {
			if len(cycle.Nodes) < unboundedLoopMinLength {
				continue
			}
			first := cycle.Edges[0]
			out = append(out, result.Violation{
				Rule:     "combinational_unbounded_loop",
				Severity: result.SeverityInfo,
				File:     first.File,
				Line:     first.Line,
				Message: fmt.Sprintf("combinational feedback loop spans %d signals: %s",
					len(cycle.Nodes), strings.Join(cycle.Nodes, " -> ")),
			})
		}
	}
	return out
}

// UnresolvedExternalReads flags declared signals that the usage index shows
// as read but never assigned within their own architecture. The index and
// the signal lookup are both keyed by (architecture, signal), so an
// assignment made in a different architecture does not count.
func UnresolvedExternalReads(s *facts.Store) []result.Violation {
	idx := BuildSignalUsageIndex(s)
	keys := make([]string, 0, len(idx))
	for k := range idx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sigByKey := make(map[string]facts.Signal, len(s.Signals))
	for _, sig := range s.Signals {
		sigByKey[key(sig.InEntity, sig.Name)] = sig
	}

	var out []result.Violation
	for _, k := range keys {
		usage := idx[k]
		if !usage.Read || usage.Assigned {
			continue
		}
		sig, ok := sigByKey[k]
		if !ok {
			continue
		}
		out = append(out, result.Violation{
			Rule:     "signal_read_never_assigned",
			Severity: result.SeverityWarning,
			File:     sig.File,
			Line:     sig.Line,
			Message:  fmt.Sprintf("signal %q in architecture %q is read but never assigned there", sig.Name, sig.InEntity),
		})
	}
	return out
}
