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
		Name: "fsm",
		// All FSM rules are opt-in: a state-machine-shaped signal is only
		// a hypothesis until a human confirms the design is in fact an
		// FSM, so none of these are on by default (mirrors the original's
		// violations() returning nothing for this family).
		Optional: []registry.Rule{
			{ID: "state_signal_not_enum", Fn: stateSignalNotEnum},
			{ID: "single_state_signal", Fn: singleStateSignal},
			{ID: "fsm_missing_default_state", Fn: fsmMissingDefaultState},
			{ID: "fsm_unhandled_state", Fn: fsmUnhandledState},
			{ID: "fsm_unreachable_state", Fn: fsmUnreachableState},
		},
	})
}

func enumTypeNames(s *facts.Store) map[string]facts.TypeDeclaration {
	m := make(map[string]facts.TypeDeclaration)
	for _, t := range s.Types {
		if t.Kind == facts.TypeEnum {
			m[strings.ToLower(t.Name)] = t
		}
	}
	return m
}

func signalIsEnum(enums map[string]facts.TypeDeclaration, sig facts.Signal) (facts.TypeDeclaration, bool) {
	t, ok := enums[strings.ToLower(facts.BaseTypeName(sig.Type))]
	return t, ok
}

// hasNextStateSignal reports whether arch declares a conventional
// "next_state"-named signal alongside its state register, the classic
// two-process FSM idiom.
func hasNextStateSignal(s *facts.Store, archName string) bool {
	for _, sig := range s.Signals {
		if strings.EqualFold(sig.InEntity, archName) && facts.IsNextStateName(sig.Name) {
			return true
		}
	}
	return false
}

// stateSignalNotEnum flags a signal whose name reads as an FSM state
// register but whose declared type is not a user enum — state machines
// encoded as raw std_logic_vector lose compiler-checked exhaustiveness.
func stateSignalNotEnum(s *facts.Store) []result.Violation {
	enums := enumTypeNames(s)
	var out []result.Violation
	for _, sig := range s.Signals {
		if !facts.IsStateName(sig.Name) {
			continue
		}
		if _, ok := signalIsEnum(enums, sig); ok {
			continue
		}
		out = append(out, result.Violation{
			Rule: "state_signal_not_enum", Severity: result.SeverityInfo,
			File: sig.File, Line: sig.Line,
			Message: fmt.Sprintf("state signal %q is not declared as an enumerated type", sig.Name),
		})
	}
	return out
}

// singleStateSignal flags an architecture with a state-named signal but no
// companion next-state signal — a single-process FSM style that mixes
// registered and combinational next-state logic in one process, which some
// style guides discourage in favor of the two-process idiom.
func singleStateSignal(s *facts.Store) []result.Violation {
	seenArch := make(map[string]bool)
	var out []result.Violation
	for _, sig := range s.Signals {
		if !facts.IsStateName(sig.Name) || facts.IsNextStateName(sig.Name) {
			continue
		}
		if seenArch[strings.ToLower(sig.InEntity)] {
			continue
		}
		if hasNextStateSignal(s, sig.InEntity) {
			continue
		}
		seenArch[strings.ToLower(sig.InEntity)] = true
		out = append(out, result.Violation{
			Rule: "single_state_signal", Severity: result.SeverityInfo,
			File: sig.File, Line: sig.Line,
			Message: fmt.Sprintf("architecture %q has state signal %q with no companion next-state signal", sig.InEntity, sig.Name),
		})
	}
	return out
}

// caseUsesThisType reports whether c's expression resolves to a signal of
// the given enum type.
func caseUsesThisType(s *facts.Store, c facts.CaseStatement, enums map[string]facts.TypeDeclaration) (facts.TypeDeclaration, bool) {
	for _, sig := range s.Signals {
		if !strings.EqualFold(sig.Name, c.Expression) {
			continue
		}
		return signalIsEnum(enums, sig)
	}
	return facts.TypeDeclaration{}, false
}

// fsmMissingDefaultState flags a case statement over an enumerated state
// type with no "when others" — every unreachable encoding is then
// undefined behavior in simulation and may synthesize a latch.
func fsmMissingDefaultState(s *facts.Store) []result.Violation {
	enums := enumTypeNames(s)
	var out []result.Violation
	for _, c := range s.CaseStatements {
		if c.HasOthers {
			continue
		}
		if _, ok := caseUsesThisType(s, c, enums); !ok {
			continue
		}
		out = append(out, result.Violation{
			Rule: "fsm_missing_default_state", Severity: result.SeverityWarning,
			File: c.File, Line: c.Line,
			Message: fmt.Sprintf("case on state signal %q has no \"when others\"", c.Expression),
		})
	}
	return out
}

func stateInChoices(choices []string, literal string) bool {
	for _, ch := range choices {
		if strings.EqualFold(ch, literal) {
			return true
		}
	}
	return false
}

// fsmUnhandledState flags a case statement over an enumerated state type
// that omits one or more of the type's literals and has no catch-all
// "when others" to cover them.
func fsmUnhandledState(s *facts.Store) []result.Violation {
	enums := enumTypeNames(s)
	var out []result.Violation
	for _, c := range s.CaseStatements {
		if c.HasOthers {
			continue
		}
		enumType, ok := caseUsesThisType(s, c, enums)
		if !ok {
			continue
		}
		var missing []string
		for _, lit := range enumType.EnumLiterals {
			if !stateInChoices(c.Choices, lit) {
				missing = append(missing, lit)
			}
		}
		if len(missing) == 0 {
			continue
		}
		out = append(out, result.Violation{
			Rule: "fsm_unhandled_state", Severity: result.SeverityWarning,
			File: c.File, Line: c.Line,
			Message: fmt.Sprintf("case on %q does not handle state(s): %s", c.Expression, strings.Join(missing, ", ")),
		})
	}
	return out
}

// stateEverAssigned reports whether literal appears as a choice of any case
// statement or is read by any concurrent assignment anywhere in the store —
// a crude proxy for "this state is reachable". Assignments inside process
// bodies are not examined.
func stateEverAssigned(s *facts.Store, literal string) bool {
	for _, c := range s.CaseStatements {
		if stateInChoices(c.Choices, literal) {
			return true
		}
	}
	for _, a := range s.Assignments {
		for _, r := range a.ReadSignals {
			if strings.EqualFold(r, literal) {
				return true
			}
		}
	}
	return false
}

// fsmUnreachableState flags an enum literal belonging to a state type that
// stateEverAssigned never finds referenced — dead states bloat encoding and confuse
// coverage analysis.
func fsmUnreachableState(s *facts.Store) []result.Violation {
	enums := enumTypeNames(s)
	usedAsState := make(map[string]bool)
	for _, sig := range s.Signals {
		if !facts.IsStateName(sig.Name) {
			continue
		}
		if t, ok := signalIsEnum(enums, sig); ok {
			usedAsState[strings.ToLower(t.Name)] = true
		}
	}
	var out []result.Violation
	for _, t := range enums {
		if !usedAsState[strings.ToLower(t.Name)] {
			continue
		}
		for _, lit := range t.EnumLiterals {
			if stateEverAssigned(s, lit) {
				continue
			}
			out = append(out, result.Violation{
				Rule: "fsm_unreachable_state", Severity: result.SeverityInfo,
				File: t.File, Line: t.Line,
				Message: fmt.Sprintf("state %q of type %q is never assigned", lit, t.Name),
			})
		}
	}
	return out
}
