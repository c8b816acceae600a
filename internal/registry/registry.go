// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package registry holds the CheckerRegistry: the ordered list of rule
// families the RuleEngine dispatches against a facts.Store. Family order is
// fixed and mirrors the original engine's dispatch order exactly, since
// spec §8 requires deterministic output independent of map iteration order.
//
// Adding a family is a single call to Register in an init() function; no
// engine change is required (spec §4.2's "family" extensibility contract).
package registry

import (
	"sort"
	"sync"

	"github.com/AleutianAI/vhdl-sentinel/internal/facts"
	"github.com/AleutianAI/vhdl-sentinel/internal/result"
)

// RuleFunc computes the violations a single rule contributes over store.
// Rules are meant to be pure: same store in, same violations out (spec §8
// determinism property), though the engine's fault-isolating wrapper
// (internal/engine) does not rely on that for safety — only for testability.
type RuleFunc func(store *facts.Store) []result.Violation

// Rule pairs a rule id with its implementation and whether it is optional
// (opt-in, gated by LintConfig.EnabledOptional — see facts.RuleIsDisabled).
type Rule struct {
	ID       string
	Optional bool
	Fn       RuleFunc
}

// Family groups rules that share a fact-model concern (spec §4.2). Families
// are dispatched in Registry order; within a family, Required then Optional,
// each in registration order — both fixed, so two evaluations of the same
// store always walk rules in the same sequence.
type Family struct {
	Name     string
	Required []Rule
	Optional []Rule
}

// AllRules returns the family's rules, required first, in dispatch order.
func (f Family) AllRules() []Rule {
	rules := make([]Rule, 0, len(f.Required)+len(f.Optional))
	rules = append(rules, f.Required...)
	rules = append(rules, f.Optional...)
	return rules
}

// Registry is the ordered set of families the engine evaluates. The zero
// value is usable; families are added via Register.
type Registry struct {
	mu       sync.Mutex
	families []Family
	byName   map[string]int
}

// Default is the package-level registry populated by each family file's
// init(), mirroring engine.rs's fixed dispatch table. cmd/vhdl-sentinel and
// internal/engine use this unless a test constructs its own Registry.
var Default = &Registry{byName: map[string]int{}}

// Register appends family to r, or replaces it in place if a family with
// the same name was already registered (so tests may override a family
// without disturbing dispatch order).
func (r *Registry) Register(family Family) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byName == nil {
		r.byName = make(map[string]int)
	}
	if idx, ok := r.byName[family.Name]; ok {
		r.families[idx] = family
		return
	}
	r.byName[family.Name] = len(r.families)
	r.families = append(r.families, family)
}

// Families returns the registered families in dispatch order.
func (r *Registry) Families() []Family {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Family, len(r.families))
	copy(out, r.families)
	return out
}

// Rules returns every registered rule, in family-then-required/optional
// dispatch order — the sequence the RuleEngine must walk to satisfy spec
// §8's determinism property.
func (r *Registry) Rules() []Rule {
	var all []Rule
	for _, f := range r.Families() {
		all = append(all, f.AllRules()...)
	}
	return all
}

// RuleIDs returns every registered rule id, sorted (not for dispatch —
// dispatch always uses Rules()'s fixed order).
func (r *Registry) RuleIDs() []string {
	rules := r.Rules()
	ids := make([]string, len(rules))
	for i, rule := range rules {
		ids[i] = rule.ID
	}
	sort.Strings(ids)
	return ids
}
