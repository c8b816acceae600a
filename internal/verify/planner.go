// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package verify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AleutianAI/vhdl-sentinel/internal/construct"
	"github.com/AleutianAI/vhdl-sentinel/internal/facts"
	"github.com/AleutianAI/vhdl-sentinel/internal/result"
)

// Analysis is the complete output of one VerificationPlanner pass.
type Analysis struct {
	Violations          []result.Violation
	MissingChecks        []result.MissingCheckTask
	AmbiguousConstructs   []result.AmbiguousConstruct
}

// Analyze runs the three verification passes (spec §4.5): tag validation,
// construct detection, and missing-check synthesis. Mirroring
// verification.rs::analyze, every synthesized finding is emitted both as a
// MissingCheckTask/AmbiguousConstruct record and as its own Violation, so
// the planner's output is consumable as a flat violation list on its own.
func Analyze(s *facts.Store, entries []CheckEntry) (Analysis, error) {
	byID := RegistryByID(entries)

	report := construct.Detect(s)
	tagsByScope := tagsByScope(s)

	var violations []result.Violation
	violations = append(violations, invalidTagViolations(s, byID)...)
	violations = append(violations, missingCoverCompanionViolations(s, byID, tagsByScope)...)
	violations = append(violations, missingVerificationBlockViolations(s, report.Constructs)...)
	violations = append(violations, missingCheckViolations(byID, tagsByScope, report.Constructs)...)
	violations = append(violations, ambiguousConstructViolations(report.Ambiguous)...)

	var tasks []result.MissingCheckTask
	for _, c := range report.Constructs {
		scopeKey := scopeKeyForConstruct(c)
		required := construct.RequiredChecksFor(c.Kind)
		missing := missingChecksForScope(byID, tagsByScope, scopeKey, required)
		if len(missing) == 0 {
			continue
		}
		anchor := anchorForArch(s, c.InArch)
		tasks = append(tasks, result.MissingCheckTask{
			File:       c.File,
			Scope:      scopeKey,
			Anchor:     anchor,
			MissingIDs: missing,
			Bindings:   c.Bindings,
			Notes:      notesForMissingChecks(byID, missing),
		})
	}

	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].File != tasks[j].File {
			return tasks[i].File < tasks[j].File
		}
		return tasks[i].Scope < tasks[j].Scope
	})

	return Analysis{
		Violations:          violations,
		MissingChecks:       tasks,
		AmbiguousConstructs: report.Ambiguous,
	}, nil
}

// missingCoverCompanionViolations flags every valid tag whose registry
// entry needs_cover but has no matching cover.<family>.* tag in the same
// scope (verification.rs::missing_cover_companion). A tag whose own id
// already lives in the cover.* namespace can never need a cover companion
// of itself.
func missingCoverCompanionViolations(s *facts.Store, byID map[string]CheckEntry, tagsByScope map[string][]facts.VerificationTag) []result.Violation {
	var out []result.Violation
	for _, t := range s.VerifTags {
		entry, ok := byID[strings.ToLower(t.ID)]
		if !ok || !entry.NeedsCover || !TagIsValidEntry(entry, t) {
			continue
		}
		prefix, ok := coverPrefixForTag(t.ID)
		if !ok {
			continue
		}
		scopeKey := tagScopeKey(t)
		if hasCoverTag(byID, tagsByScope[scopeKey], prefix) {
			continue
		}
		out = append(out, result.Violation{
			Rule: "missing_cover_companion", Severity: result.SeverityWarning,
			File: t.File, Line: t.Line,
			Message: fmt.Sprintf("verification tag %q requires a cover companion in %s", t.ID, scopeKey),
		})
	}
	return out
}

// coverPrefixForTag mirrors verification.rs::cover_prefix_for: an id
// already inside the cover.* namespace has no prefix of its own (ok=false);
// otherwise the prefix is "cover.<first dotted segment>.".
func coverPrefixForTag(id string) (string, bool) {
	lower := strings.ToLower(id)
	if strings.HasPrefix(lower, "cover.") {
		return "", false
	}
	family := strings.SplitN(lower, ".", 2)[0]
	if family == "" {
		return "", false
	}
	return "cover." + family + ".", true
}

func hasCoverTag(byID map[string]CheckEntry, tags []facts.VerificationTag, prefix string) bool {
	for _, other := range tags {
		if !strings.HasPrefix(strings.ToLower(other.ID), prefix) {
			continue
		}
		entry, ok := byID[strings.ToLower(other.ID)]
		if !ok || !TagIsValidEntry(entry, other) {
			continue
		}
		return true
	}
	return false
}

// missingVerificationBlockViolations flags every architecture that has at
// least one detected construct but no verification block of its own
// (verification.rs::missing_verification_block).
func missingVerificationBlockViolations(s *facts.Store, constructs []construct.Construct) []result.Violation {
	archesWithBlock := make(map[string]bool)
	for _, b := range s.VerifBlocks {
		archesWithBlock[strings.ToLower(b.InArch)] = true
	}
	archesWithConstructs := make(map[string]bool)
	for _, c := range constructs {
		archesWithConstructs[strings.ToLower(c.InArch)] = true
	}

	var out []result.Violation
	for _, a := range s.Architectures {
		lower := strings.ToLower(a.Name)
		if !archesWithConstructs[lower] || archesWithBlock[lower] {
			continue
		}
		out = append(out, result.Violation{
			Rule: "missing_verification_block", Severity: result.SeverityWarning,
			File: a.File, Line: a.Line,
			Message: fmt.Sprintf("architecture %q has detectable constructs but no verification block", a.Name),
		})
	}
	return out
}

// missingCheckViolations emits one missing_verification_check violation per
// (scope, required id) that has no satisfying tag, deduplicated the same
// way verification.rs::missing_check_violations does (a construct kind
// already reported for that scope+id is not reported twice).
func missingCheckViolations(byID map[string]CheckEntry, tagsByScope map[string][]facts.VerificationTag, constructs []construct.Construct) []result.Violation {
	emitted := make(map[string]bool)
	var out []result.Violation
	for _, c := range constructs {
		scopeKey := scopeKeyForConstruct(c)
		for _, id := range construct.RequiredChecksFor(c.Kind) {
			lowerID := strings.ToLower(id)
			if hasSatisfyingTag(byID, tagsByScope[scopeKey], id) {
				continue
			}
			key := scopeKey + "::" + lowerID
			if emitted[key] {
				continue
			}
			emitted[key] = true
			severity := result.SeverityWarning
			if entry, ok := byID[lowerID]; ok {
				severity = normalizeSeverity(entry.Severity)
			}
			out = append(out, result.Violation{
				Rule: "missing_verification_check", Severity: severity,
				File: c.File, Line: c.Line,
				Message: missingCheckMessage(c, scopeKey, id),
			})
		}
	}
	return out
}

func missingCheckMessage(c construct.Construct, scopeKey, id string) string {
	bindings := formatBindings(c.Bindings)
	if bindings == "" {
		return fmt.Sprintf("missing verification check %q for %s in %s", id, c.Kind.Label(), scopeKey)
	}
	return fmt.Sprintf("missing verification check %q for %s in %s (bindings: %s)", id, c.Kind.Label(), scopeKey, bindings)
}

func normalizeSeverity(sev string) string {
	switch sev {
	case result.SeverityError, result.SeverityWarning, result.SeverityInfo:
		return sev
	default:
		return result.SeverityWarning
	}
}

// formatBindings renders a construct's bindings as a sorted "k=v, k=v" list
// for diagnostic messages.
func formatBindings(bindings map[string]string) string {
	if len(bindings) == 0 {
		return ""
	}
	keys := make([]string, 0, len(bindings))
	for k := range bindings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+bindings[k])
	}
	return strings.Join(parts, ", ")
}

// ambiguousConstructViolations mirrors
// verification.rs::ambiguous_construct_warnings.
func ambiguousConstructViolations(ambiguous []result.AmbiguousConstruct) []result.Violation {
	var out []result.Violation
	for _, a := range ambiguous {
		keys := make([]string, 0, len(a.Candidates))
		for k := range a.Candidates {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=[%s]", k, strings.Join(a.Candidates[k], ", ")))
		}
		out = append(out, result.Violation{
			Rule: "ambiguous_construct", Severity: result.SeverityWarning,
			File: a.File, Line: a.Line,
			Message: fmt.Sprintf("ambiguous %s construct in %s (candidates: %s)", a.Kind, a.Scope, strings.Join(parts, "; ")),
		})
	}
	return out
}

func scopeKeyForConstruct(c construct.Construct) string {
	return "arch:" + strings.ToLower(c.InArch)
}

// tagScopeKey normalizes a verification tag's own Scope field to the same
// "arch:<name>" form a construct's scope key uses, so the two can be
// compared directly.
func tagScopeKey(tag facts.VerificationTag) string {
	if strings.HasPrefix(strings.ToLower(tag.Scope), "arch:") {
		return strings.ToLower(tag.Scope)
	}
	if tag.InArch != "" {
		return "arch:" + strings.ToLower(tag.InArch)
	}
	return strings.ToLower(tag.Scope)
}

func tagsByScope(s *facts.Store) map[string][]facts.VerificationTag {
	m := make(map[string][]facts.VerificationTag)
	for _, t := range s.VerifTags {
		k := tagScopeKey(t)
		m[k] = append(m[k], t)
	}
	return m
}

// invalidTagViolations flags every verification tag that fails to
// validate against the registry: unknown id, scope mismatch, or missing a
// required binding.
func invalidTagViolations(s *facts.Store, byID map[string]CheckEntry) []result.Violation {
	var out []result.Violation
	for _, t := range s.VerifTags {
		entry, ok := byID[strings.ToLower(t.ID)]
		if !ok {
			out = append(out, result.Violation{
				Rule: "invalid_verification_tag", Severity: result.SeverityError,
				File: t.File, Line: t.Line,
				Message: fmt.Sprintf("verification tag %q does not match any known check id", t.ID),
			})
			continue
		}
		if !ScopeMatches(entry, t.Scope) {
			out = append(out, result.Violation{
				Rule: "invalid_verification_tag", Severity: result.SeverityError,
				File: t.File, Line: t.Line,
				Message: fmt.Sprintf("verification tag %q has scope %q, expected %q", t.ID, t.Scope, entry.ScopeType),
			})
			continue
		}
		if missing := MissingRequiredBindings(entry, t); len(missing) > 0 {
			out = append(out, result.Violation{
				Rule: "invalid_verification_tag", Severity: result.SeverityError,
				File: t.File, Line: t.Line,
				Message: fmt.Sprintf("verification tag %q is missing required binding(s): %s", t.ID, strings.Join(missing, ", ")),
			})
		}
		if entry.RequiresBound && !strings.Contains(t.Raw, "bound") {
			out = append(out, result.Violation{
				Rule: "missing_liveness_bound", Severity: result.SeverityWarning,
				File: t.File, Line: t.Line,
				Message: fmt.Sprintf("verification tag %q requires an explicit liveness bound", t.ID),
			})
		}
	}
	for _, e := range s.VerifTagErrors {
		out = append(out, result.Violation{
			Rule: "invalid_verification_tag", Severity: result.SeverityError,
			File: e.File, Line: e.Line, Message: e.Message,
		})
	}
	return out
}

// coverPrefixFor returns the cover-tag family prefix a required check id
// implies: "cover." + the family segment of the id (e.g. "rv" from
// "rv.stable_while_stalled"), resolving Open Question 3 — cover-companion
// matching is per-family AND per-scope, not merely "anywhere in the
// design with a matching family".
func coverPrefixFor(requiredID string) string {
	family := strings.TrimPrefix(requiredID, "cover.")
	parts := strings.SplitN(family, ".", 2)
	if len(parts) == 0 || parts[0] == "" {
		return "cover."
	}
	return "cover." + parts[0] + "."
}

// missingChecksForScope returns, of required, the ids that have no
// satisfying tag within scopeKey. A "cover.*"-needing id requiring
// required[i] is satisfied either by an exact id match or by any tag
// whose id shares the cover prefix (same family, same scope).
func missingChecksForScope(byID map[string]CheckEntry, tagsByScope map[string][]facts.VerificationTag, scopeKey string, required []string) []string {
	tags := tagsByScope[scopeKey]
	var missing []string
	for _, id := range required {
		if hasSatisfyingTag(byID, tags, id) {
			continue
		}
		missing = append(missing, id)
	}
	return missing
}

func hasSatisfyingTag(byID map[string]CheckEntry, tags []facts.VerificationTag, requiredID string) bool {
	entry, known := byID[strings.ToLower(requiredID)]
	prefix := coverPrefixFor(requiredID)
	for _, t := range tags {
		if strings.EqualFold(t.ID, requiredID) {
			if !known || !TagIsValidEntry(entry, t) {
				continue
			}
			return true
		}
		if entry.NeedsCover && strings.HasPrefix(strings.ToLower(t.ID), prefix) {
			return true
		}
	}
	return false
}

// TagIsValidEntry checks a tag against an already-resolved registry entry
// (avoiding a second map lookup when the caller already has it).
func TagIsValidEntry(entry CheckEntry, tag facts.VerificationTag) bool {
	if !ScopeMatches(entry, tag.Scope) && !ScopeMatches(entry, tagScopeKey(tag)) {
		return false
	}
	return len(MissingRequiredBindings(entry, tag)) == 0
}

func notesForMissingChecks(byID map[string]CheckEntry, missing []string) []string {
	var notes []string
	for _, id := range missing {
		entry, ok := byID[strings.ToLower(id)]
		if !ok {
			continue
		}
		if entry.NeedsCover {
			notes = append(notes, fmt.Sprintf("%s needs a cover tag in the same scope", id))
		}
		if entry.RequiresBound {
			notes = append(notes, fmt.Sprintf("%s requires an explicit liveness bound", id))
		}
	}
	return notes
}

// anchorForArch resolves the location a missing-check finding for arch
// should be reported at: the architecture's own verification block if one
// exists, else the architecture's declaration line with Exists=false
// (spec §4.5's anchor-resolution rule).
func anchorForArch(s *facts.Store, archName string) result.VerificationAnchor {
	for _, b := range s.VerifBlocks {
		if strings.EqualFold(b.InArch, archName) {
			return result.VerificationAnchor{
				Label: b.Label, LineStart: b.LineStart, LineEnd: b.LineEnd, Exists: true,
			}
		}
	}
	line := anchorLineForArch(s, archName)
	return result.VerificationAnchor{Label: archName, LineStart: line, LineEnd: line, Exists: false}
}

func anchorLineForArch(s *facts.Store, archName string) int {
	for _, a := range s.Architectures {
		if strings.EqualFold(a.Name, archName) {
			return a.Line
		}
	}
	return 0
}
