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
		Name: "signals",
		Required: []registry.Rule{
			{ID: "duplicate_signal_in_entity", Fn: duplicateSignalInEntity},
			{ID: "multi_driven_signal", Fn: multiDrivenSignal},
			{ID: "undriven_signal", Fn: undrivenSignal},
			{ID: "unused_signal", Fn: unusedSignal},
		},
		Optional: []registry.Rule{
			{ID: "long_signal_name", Fn: longSignalName},
			{ID: "short_signal_name", Fn: shortSignalName},
			// driver_count_resolved_informational resolves Open Question 2
			// (SPEC_FULL.md §C): resolved signals are exempt from
			// multi_driven_signal, but their driver count is still worth
			// surfacing at info severity for a human to sanity-check.
			{ID: "driver_count_resolved_informational", Fn: driverCountResolvedInformational},
		},
	})
}

func duplicateSignalInEntity(s *facts.Store) []result.Violation {
	type key struct{ arch, name string }
	seen := make(map[key]facts.Signal)
	var out []result.Violation
	for _, sig := range s.Signals {
		k := key{strings.ToLower(sig.InEntity), strings.ToLower(sig.Name)}
		if first, ok := seen[k]; ok {
			out = append(out, result.Violation{
				Rule: "duplicate_signal_in_entity", Severity: result.SeverityError,
				File: sig.File, Line: sig.Line,
				Message: fmt.Sprintf("signal %q already declared in %q at line %d", sig.Name, sig.InEntity, first.Line),
			})
			continue
		}
		seen[k] = sig
	}
	return out
}

// driverCounts returns, for each (arch, signal) pair, the number of
// concurrent assignments and processes (sequential or not) assigning it —
// the driver count used by multi_driven_signal, undriven_signal,
// and its resolved-signal informational counterpart.
func driverCounts(s *facts.Store) map[string]int {
	counts := make(map[string]int)
	key := func(arch, name string) string { return strings.ToLower(arch) + "|" + strings.ToLower(name) }
	for _, a := range s.Assignments {
		counts[key(a.InArch, a.Target)]++
	}
	for _, p := range s.Processes {
		for _, assigned := range p.AssignedSignals {
			counts[key(p.InArch, assigned)]++
		}
	}
	return counts
}

func multiDrivenSignal(s *facts.Store) []result.Violation {
	counts := driverCounts(s)
	var out []result.Violation
	for _, sig := range s.Signals {
		if facts.IsResolvedSignal(sig) {
			continue
		}
		key := strings.ToLower(sig.InEntity) + "|" + strings.ToLower(sig.Name)
		if counts[key] <= 1 {
			continue
		}
		out = append(out, result.Violation{
			Rule: "multi_driven_signal", Severity: result.SeverityError,
			File: sig.File, Line: sig.Line,
			Message: fmt.Sprintf("signal %q has %d drivers", sig.Name, counts[key]),
		})
	}
	return out
}

func driverCountResolvedInformational(s *facts.Store) []result.Violation {
	counts := driverCounts(s)
	var out []result.Violation
	for _, sig := range s.Signals {
		if !facts.IsResolvedSignal(sig) {
			continue
		}
		key := strings.ToLower(sig.InEntity) + "|" + strings.ToLower(sig.Name)
		n := counts[key]
		if n <= 1 {
			continue
		}
		out = append(out, result.Violation{
			Rule: "driver_count_resolved_informational", Severity: result.SeverityInfo,
			File: sig.File, Line: sig.Line,
			Message: fmt.Sprintf("resolved signal %q has %d drivers", sig.Name, n),
		})
	}
	return out
}

func undrivenSignal(s *facts.Store) []result.Violation {
	counts := driverCounts(s)
	var out []result.Violation
	for _, sig := range s.Signals {
		key := strings.ToLower(sig.InEntity) + "|" + strings.ToLower(sig.Name)
		if counts[key] > 0 {
			continue
		}
		if facts.IsConstant(s, sig.Name) {
			continue
		}
		out = append(out, result.Violation{
			Rule: "undriven_signal", Severity: result.SeverityWarning,
			File: sig.File, Line: sig.Line,
			Message: fmt.Sprintf("signal %q is never driven", sig.Name),
		})
	}
	return out
}

func signalIsRead(s *facts.Store, sig facts.Signal) bool {
	for _, p := range s.Processes {
		if strings.EqualFold(p.InArch, sig.InEntity) && facts.SignalInList(p.ReadSignals, sig.Name) {
			return true
		}
	}
	for _, a := range s.Assignments {
		if strings.EqualFold(a.InArch, sig.InEntity) && facts.SignalInList(a.ReadSignals, sig.Name) {
			return true
		}
	}
	for _, inst := range s.Instances {
		if !strings.EqualFold(inst.InArch, sig.InEntity) {
			continue
		}
		for _, actual := range inst.PortMap {
			if strings.EqualFold(actual, sig.Name) {
				return true
			}
		}
	}
	return false
}

func unusedSignal(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, sig := range s.Signals {
		if facts.IsSkipName(sig.Name) {
			continue
		}
		if signalIsRead(s, sig) {
			continue
		}
		out = append(out, result.Violation{
			Rule: "unused_signal", Severity: result.SeverityInfo,
			File: sig.File, Line: sig.Line,
			Message: fmt.Sprintf("signal %q is never read", sig.Name),
		})
	}
	return out
}

func longSignalName(s *facts.Store) []result.Violation {
	const threshold = 40
	var out []result.Violation
	for _, sig := range s.Signals {
		if len(sig.Name) <= threshold {
			continue
		}
		out = append(out, result.Violation{
			Rule: "long_signal_name", Severity: result.SeverityInfo,
			File: sig.File, Line: sig.Line,
			Message: fmt.Sprintf("signal name %q is %d characters long", sig.Name, len(sig.Name)),
		})
	}
	return out
}

func shortSignalName(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, sig := range s.Signals {
		if len(sig.Name) >= 3 || facts.IsSkipName(sig.Name) {
			continue
		}
		out = append(out, result.Violation{
			Rule: "short_signal_name", Severity: result.SeverityInfo,
			File: sig.File, Line: sig.Line,
			Message: fmt.Sprintf("signal name %q is very short", sig.Name),
		})
	}
	return out
}
