// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AleutianAI/vhdl-sentinel/internal/facts"
	"github.com/AleutianAI/vhdl-sentinel/internal/registry"
	"github.com/AleutianAI/vhdl-sentinel/internal/result"
)

func init() {
	registry.Default.Register(registry.Family{
		Name: "ports",
		Required: []registry.Rule{
			{ID: "duplicate_port_in_entity", Fn: duplicatePortInEntity},
			{ID: "port_width_mismatch", Fn: portWidthMismatch},
		},
		Optional: []registry.Rule{
			{ID: "input_port_driven", Fn: inputPortDriven},
			{ID: "output_port_read", Fn: outputPortRead},
			{ID: "undriven_output_port", Fn: undrivenOutputPort},
			{ID: "unused_input_port", Fn: unusedInputPort},
		},
	})
}

func duplicatePortInEntity(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, e := range s.Entities {
		seen := make(map[string]facts.Port)
		for _, p := range e.Ports {
			key := strings.ToLower(p.Name)
			if first, ok := seen[key]; ok {
				out = append(out, result.Violation{
					Rule: "duplicate_port_in_entity", Severity: result.SeverityError,
					File: e.File, Line: p.Line,
					Message: fmt.Sprintf("port %q already declared in entity %q at line %d", p.Name, e.Name, first.Line),
				})
				continue
			}
			seen[key] = p
		}
	}
	return out
}

// portWidthMismatch flags an instance/port connection whose actual signal's
// resolved width disagrees with the formal port's declared width, ported
// from hierarchy.rs's port_width_mismatch/get_port_connection/
// get_actual_width/indexed_width: the actual is resolved preferring a named
// association, falling back to positional-index matching and then the raw
// port map, and its width accounts for an explicit slice or single index on
// the actual rather than skipping every sliced/indexed connection outright.
func portWidthMismatch(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, inst := range s.Instances {
		targetLower := strings.ToLower(inst.Target)
		for _, e := range s.Entities {
			if !targetMatchesEntity(targetLower, strings.ToLower(e.Name)) {
				continue
			}
			for _, port := range e.Ports {
				if port.Width == 0 {
					continue
				}
				actual := portConnectionActual(inst, e, port.Name)
				if actual == "" || strings.EqualFold(actual, "open") {
					continue
				}
				width := actualWidth(s, actual, inst.InArch)
				if width == 0 || width == port.Width {
					continue
				}
				out = append(out, result.Violation{
					Rule: "port_width_mismatch", Severity: result.SeverityError,
					File: inst.File, Line: inst.Line,
					Message: fmt.Sprintf("width mismatch: signal %q (%d bits) connected to port %q (%d bits) in instance %q", actual, width, port.Name, port.Width, inst.Name),
				})
			}
		}
	}
	return out
}

// targetMatchesEntity reports whether an instance's (already lowercased)
// target name refers to entityName, allowing a library-qualified target
// such as "work.child".
func targetMatchesEntity(target, entityName string) bool {
	return target == entityName || strings.HasSuffix(target, "."+entityName)
}

// portConnectionActual resolves the actual connected to a formal port name,
// preferring a named association, then positional-index matching against
// the entity's port order, then the raw port map — hierarchy.rs's
// get_port_connection.
func portConnectionActual(inst facts.Instance, e facts.Entity, portName string) string {
	for _, a := range inst.Associations {
		if a.Kind == facts.AssocPositional {
			continue
		}
		if strings.EqualFold(a.Formal, portName) {
			return associationActual(a)
		}
	}

	pos := -1
	for i, p := range e.Ports {
		if strings.EqualFold(p.Name, portName) {
			pos = i
			break
		}
	}
	if pos >= 0 {
		for _, a := range inst.Associations {
			if a.Kind == facts.AssocPositional && a.Index == pos {
				return associationActual(a)
			}
		}
	}

	if v, ok := inst.PortMap[portName]; ok {
		return v
	}
	for k, v := range inst.PortMap {
		if strings.EqualFold(k, portName) {
			return v
		}
	}
	return ""
}

// associationActual prefers actual_full over actual when the full form
// carries a slice/index the bare actual lacks (hierarchy.rs::association_actual).
func associationActual(a facts.Association) string {
	if a.Actual != "" {
		if a.ActualFull != "" && strings.Contains(a.ActualFull, "(") && !strings.Contains(a.Actual, "(") {
			return a.ActualFull
		}
		return a.Actual
	}
	if a.ActualFull != "" {
		return a.ActualFull
	}
	return a.ActualBase
}

// actualWidth resolves the bit width an actual signal expression
// contributes to its connection: the base signal's declared width, unless
// an explicit slice or index on the actual narrows it — hierarchy.rs's
// get_actual_width.
func actualWidth(s *facts.Store, actual, scopeArch string) int {
	if actual == "" || strings.EqualFold(actual, "open") {
		return 0
	}
	if isLiteralOrExpr(actual) {
		return 0
	}
	base := baseIdentifier(actual)
	baseWidth := signalWidthInScope(s, base, scopeArch)
	if baseWidth == 0 && base != actual {
		baseWidth = signalWidthInScope(s, actual, scopeArch)
	}
	if w, ok := indexedWidth(actual, baseWidth); ok {
		return w
	}
	return baseWidth
}

// isLiteralOrExpr reports whether actual is a literal or an expression
// rather than a signal reference, per hierarchy.rs::is_literal_or_expr.
func isLiteralOrExpr(actual string) bool {
	if actual == "" {
		return false
	}
	if actual[0] >= '0' && actual[0] <= '9' {
		return true
	}
	if strings.ContainsAny(actual, "+-*&") {
		return true
	}
	lower := strings.ToLower(actual)
	if strings.HasPrefix(lower, `x"`) || strings.HasPrefix(lower, `b"`) || strings.HasPrefix(lower, `o"`) {
		return true
	}
	if len(actual) == 3 && actual[0] == '\'' && actual[2] == '\'' {
		return true
	}
	if strings.Contains(lower, "others") {
		return true
	}
	return false
}

// baseIdentifier returns the leading identifier of an actual expression,
// stopping at the first '(', '.', quote, or whitespace character —
// hierarchy.rs::base_name.
func baseIdentifier(actual string) string {
	end := len(actual)
	for i, ch := range actual {
		if ch == '(' || ch == '.' || ch == '\'' || ch == ' ' || ch == '\t' {
			end = i
			break
		}
	}
	return strings.TrimSpace(actual[:end])
}

// indexedWidth computes the width an explicit "(hi downto lo)"/"(lo to hi)"
// range or single index on actual implies. ok is false when actual has no
// parenthesized suffix at all (the caller should fall back to baseWidth);
// a single index on an unknown-width base returns (0, true) so the caller
// treats it as "skip" rather than guessing — hierarchy.rs::indexed_width.
func indexedWidth(actual string, baseWidth int) (int, bool) {
	start := strings.Index(actual, "(")
	if start < 0 {
		return 0, false
	}
	end := strings.LastIndex(actual, ")")
	if end <= start {
		return 0, false
	}
	inside := strings.TrimSpace(actual[start+1 : end])
	if strings.Contains(inside, ",") {
		return 0, true
	}
	lower := strings.ToLower(inside)
	if idx := strings.Index(lower, " downto "); idx >= 0 {
		return rangeWidth(inside, idx, len(" downto "))
	}
	if idx := strings.Index(lower, " to "); idx >= 0 {
		return rangeWidth(inside, idx, len(" to "))
	}
	if baseWidth == 0 {
		return 0, true
	}
	return 1, true
}

func rangeWidth(inside string, sepIdx, sepLen int) (int, bool) {
	left := strings.TrimSpace(inside[:sepIdx])
	right := strings.TrimSpace(inside[sepIdx+sepLen:])
	a, errA := strconv.Atoi(left)
	b, errB := strconv.Atoi(right)
	if errA != nil || errB != nil {
		return 0, false
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff + 1, true
}

// signalWidthInScope resolves name's declared width within scopeArch (an
// architecture name): the architecture's own signals plus its entity's
// ports, falling back to a global search by name when scopeArch is empty —
// hierarchy.rs::get_signal_width.
func signalWidthInScope(s *facts.Store, name, scopeArch string) int {
	var widths []int
	if scopeArch != "" {
		for _, sig := range s.Signals {
			if strings.EqualFold(sig.InEntity, scopeArch) && strings.EqualFold(sig.Name, name) {
				widths = append(widths, sig.Width)
			}
		}
		if entityName, ok := archEntityName(s, scopeArch); ok {
			for _, e := range s.Entities {
				if !strings.EqualFold(e.Name, entityName) {
					continue
				}
				for _, p := range e.Ports {
					if strings.EqualFold(p.Name, name) {
						widths = append(widths, p.Width)
					}
				}
			}
		}
		return maxWidth(widths)
	}

	for _, sig := range s.Signals {
		if strings.EqualFold(sig.Name, name) {
			widths = append(widths, sig.Width)
		}
	}
	for _, e := range s.Entities {
		for _, p := range e.Ports {
			if strings.EqualFold(p.Name, name) {
				widths = append(widths, p.Width)
			}
		}
	}
	return maxWidth(widths)
}

func archEntityName(s *facts.Store, archName string) (string, bool) {
	for _, a := range s.Architectures {
		if strings.EqualFold(a.Name, archName) {
			return a.EntityName, true
		}
	}
	return "", false
}

func maxWidth(widths []int) int {
	max := 0
	for _, w := range widths {
		if w > max {
			max = w
		}
	}
	return max
}

// inputPortDriven flags an input port that is assigned a value from
// inside the entity's own architecture — inputs are read-only from the
// entity's point of view.
func inputPortDriven(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, e := range s.Entities {
		for _, p := range e.Ports {
			if p.Direction != facts.DirIn {
				continue
			}
			if !portIsAssignedInArch(s, e.Name, p.Name) {
				continue
			}
			out = append(out, result.Violation{
				Rule: "input_port_driven", Severity: result.SeverityError,
				File: e.File, Line: p.Line,
				Message: fmt.Sprintf("input port %q of entity %q is assigned a value internally", p.Name, e.Name),
			})
		}
	}
	return out
}

func portIsAssignedInArch(s *facts.Store, entityName, portName string) bool {
	for _, a := range s.Architectures {
		if !strings.EqualFold(a.EntityName, entityName) {
			continue
		}
		for _, asg := range s.Assignments {
			if strings.EqualFold(asg.InArch, a.Name) && strings.EqualFold(asg.Target, portName) {
				return true
			}
		}
		for _, p := range s.Processes {
			if strings.EqualFold(p.InArch, a.Name) && facts.SignalInList(p.AssignedSignals, portName) {
				return true
			}
		}
	}
	return false
}

// outputPortRead flags an output port that is also read from within its
// own architecture — legal in VHDL-2008 but often a sign the port should
// instead be a buffer or an internal signal was meant.
func outputPortRead(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, e := range s.Entities {
		for _, p := range e.Ports {
			if p.Direction != facts.DirOut {
				continue
			}
			if !portIsReadInArch(s, e.Name, p.Name) {
				continue
			}
			out = append(out, result.Violation{
				Rule: "output_port_read", Severity: result.SeverityInfo,
				File: e.File, Line: p.Line,
				Message: fmt.Sprintf("output port %q of entity %q is read internally; consider buffer or an internal signal", p.Name, e.Name),
			})
		}
	}
	return out
}

func portIsReadInArch(s *facts.Store, entityName, portName string) bool {
	for _, a := range s.Architectures {
		if !strings.EqualFold(a.EntityName, entityName) {
			continue
		}
		for _, p := range s.Processes {
			if strings.EqualFold(p.InArch, a.Name) && facts.SignalInList(p.ReadSignals, portName) {
				return true
			}
		}
		for _, asg := range s.Assignments {
			if strings.EqualFold(asg.InArch, a.Name) && facts.SignalInList(asg.ReadSignals, portName) {
				return true
			}
		}
	}
	return false
}

func undrivenOutputPort(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, e := range s.Entities {
		if facts.IsTestbenchName(e.Name) {
			continue
		}
		for _, p := range e.Ports {
			if p.Direction != facts.DirOut {
				continue
			}
			if portIsAssignedInArch(s, e.Name, p.Name) {
				continue
			}
			out = append(out, result.Violation{
				Rule: "undriven_output_port", Severity: result.SeverityWarning,
				File: e.File, Line: p.Line,
				Message: fmt.Sprintf("output port %q of entity %q is never driven", p.Name, e.Name),
			})
		}
	}
	return out
}

func unusedInputPort(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, e := range s.Entities {
		if facts.IsTestbenchName(e.Name) {
			continue
		}
		for _, p := range e.Ports {
			if p.Direction != facts.DirIn {
				continue
			}
			if facts.IsResetName(p.Name) || facts.IsClockName(p.Name) {
				continue
			}
			if portIsReadInArch(s, e.Name, p.Name) {
				continue
			}
			out = append(out, result.Violation{
				Rule: "unused_input_port", Severity: result.SeverityInfo,
				File: e.File, Line: p.Line,
				Message: fmt.Sprintf("input port %q of entity %q is never read", p.Name, e.Name),
			})
		}
	}
	return out
}
