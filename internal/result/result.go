// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package result defines the output shapes the RuleEngine and
// VerificationPlanner produce: Violation, the derived Summary, and the
// verification-specific MissingCheckTask/AmbiguousConstruct records.
package result

// Severity values recognized by the engine, exactly as spec §6 requires.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Violation is a single checker finding.
type Violation struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Message  string `json:"message"`
}

// Summary aggregates a Result's violations by severity.
type Summary struct {
	TotalViolations int `json:"total_violations"`
	Errors          int `json:"errors"`
	Warnings        int `json:"warnings"`
	Info            int `json:"info"`
}

// Summarize computes a Summary over violations.
func Summarize(violations []Violation) Summary {
	var s Summary
	s.TotalViolations = len(violations)
	for _, v := range violations {
		switch v.Severity {
		case SeverityError:
			s.Errors++
		case SeverityWarning:
			s.Warnings++
		case SeverityInfo:
			s.Info++
		}
	}
	return s
}

// VerificationAnchor locates where a missing verification check should be
// reported: the verification block for the scope if one exists, else the
// architecture's declaration line with Exists=false.
type VerificationAnchor struct {
	Label     string `json:"label"`
	LineStart int    `json:"line_start"`
	LineEnd   int    `json:"line_end"`
	Exists    bool   `json:"exists"`
}

// MissingCheckTask records a scope (architecture, FSM, counter, ...) that is
// missing one or more required verification checks.
type MissingCheckTask struct {
	File       string              `json:"file"`
	Scope      string              `json:"scope"`
	Anchor     VerificationAnchor  `json:"anchor"`
	MissingIDs []string            `json:"missing_ids"`
	Bindings   map[string]string   `json:"bindings"`
	Notes      []string            `json:"notes"`
}

// AmbiguousConstruct records a detected construct (e.g. ready/valid
// handshake) whose role binding could not be determined unambiguously —
// reported instead of silently guessing, per spec §9's
// ambiguity-vs-silent-skip principle.
type AmbiguousConstruct struct {
	Kind       string              `json:"kind"`
	Scope      string              `json:"scope"`
	File       string              `json:"file"`
	Line       int                 `json:"line"`
	Candidates map[string][]string `json:"candidates"`
}

// Result is the complete output of one batch evaluation.
type Result struct {
	Violations          []Violation           `json:"violations"`
	Summary             Summary               `json:"summary"`
	MissingChecks       []MissingCheckTask    `json:"missing_checks"`
	AmbiguousConstructs []AmbiguousConstruct  `json:"ambiguous_constructs"`
}

// NewResult builds a Result, computing Summary from violations.
func NewResult(violations []Violation, missing []MissingCheckTask, ambiguous []AmbiguousConstruct) Result {
	return Result{
		Violations:          violations,
		Summary:             Summarize(violations),
		MissingChecks:       missing,
		AmbiguousConstructs: ambiguous,
	}
}
