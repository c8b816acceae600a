// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package engine implements the batch RuleEngine (spec §4.2): it dispatches
// every registered rule against a facts.Store in deterministic order,
// applies the disabled/third-party/severity-override filters, and produces
// a summarized result.Result. Graph-derived passes supplied through
// Options.GraphPasses (internal/graphanalysis's 4-to-8-signal
// combinational-loop search and read-never-assigned check) are
// independent of one another and of the per-rule dispatch, so they are run
// concurrently via errgroup the way the teacher's cancel-aware goroutine
// fan-outs do, while the rule dispatch itself stays single-threaded and
// ordered to satisfy the determinism property (spec §8).
package engine

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/vhdl-sentinel/internal/facts"
	"github.com/AleutianAI/vhdl-sentinel/internal/registry"
	"github.com/AleutianAI/vhdl-sentinel/internal/result"
	"github.com/AleutianAI/vhdl-sentinel/pkg/logging"
)

// GraphPass is an independent graph-derived analysis contributed outside
// the ordinary rule registry (internal/graphanalysis implements these).
// Each pass receives the shared facts.Store and returns its violations; a
// pass that panics is logged and contributes nothing.
type GraphPass struct {
	Name string
	Fn   func(*facts.Store) []result.Violation
}

// TimingEntry records one rule's wall-clock cost, emitted only when timing
// trace is enabled (spec §6's VHDL_POLICY_TRACE_TIMING).
type TimingEntry struct {
	Rule     string        `json:"rule"`
	Duration time.Duration `json:"duration"`
}

// Options configures one Evaluate call.
type Options struct {
	Registry   *registry.Registry // nil uses registry.Default
	GraphPasses []GraphPass
	Logger     *logging.Logger // nil uses logging.Default()
	TraceTiming bool           // also enabled when VHDL_POLICY_TRACE_TIMING is "1" or "true"
}

// EvalResult is Evaluate's return value: the filtered, summarized Result plus
// optional per-rule timing data.
type EvalResult struct {
	Result  result.Result
	Timings []TimingEntry
}

const traceTimingEnv = "VHDL_POLICY_TRACE_TIMING"

func isTimingEnabled(opts Options) bool {
	if opts.TraceTiming {
		return true
	}
	v := os.Getenv(traceTimingEnv)
	return v == "1" || v == "true"
}

// Evaluate runs every registered rule (and graph pass) against store and
// returns the filtered, summarized result.
//
// Dispatch order is fixed: families in registry order, required rules
// before optional within a family, graph passes run concurrently and their
// output is appended after the registry's rule violations in GraphPasses
// declaration order — so two evaluations of the same store with the same
// Options always produce byte-identical output modulo wall-clock timing.
func Evaluate(ctx context.Context, store *facts.Store, opts Options) (EvalResult, error) {
	reg := opts.Registry
	if reg == nil {
		reg = registry.Default
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	traceTiming := isTimingEnabled(opts)

	var violations []result.Violation
	var timings []TimingEntry

	for _, rule := range reg.Rules() {
		if facts.RuleIsDisabled(store.Config, rule.ID, rule.Optional) {
			continue
		}
		start := time.Now()
		found, err := runRule(rule, store)
		if traceTiming {
			timings = append(timings, TimingEntry{Rule: rule.ID, Duration: time.Since(start)})
		}
		if err != nil {
			logger.Error("rule failed", "rule", rule.ID, "error", err)
			continue
		}
		violations = append(violations, found...)
	}

	if len(opts.GraphPasses) > 0 {
		graphViolations := make([][]result.Violation, len(opts.GraphPasses))
		g, _ := errgroup.WithContext(ctx)
		for i, pass := range opts.GraphPasses {
			i, pass := i, pass
			g.Go(func() error {
				defer func() {
					if r := recover(); r != nil {
						logger.Error("graph pass failed", "pass", pass.Name, "error", fmt.Errorf("graph pass %q panicked: %v", pass.Name, r))
					}
				}()
				start := time.Now()
				graphViolations[i] = pass.Fn(store)
				if traceTiming {
					logger.Debug("graph pass completed", "pass", pass.Name, "duration", time.Since(start))
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return EvalResult{}, fmt.Errorf("graph analyses: %w", err)
		}
		for _, vs := range graphViolations {
			violations = append(violations, vs...)
		}
	}

	filtered := filterViolations(store, violations)
	sortViolations(filtered)

	return EvalResult{
		Result:  result.NewResult(filtered, nil, nil),
		Timings: timings,
	}, nil
}

// runRule invokes a single rule, converting a panic into an error so one
// bad rule cannot abort the entire batch evaluation — the fault-isolating
// wrapper preferred by spec §5 over treating rules as pure total functions
// the caller can trust blindly.
func runRule(rule registry.Rule, store *facts.Store) (found []result.Violation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rule %q panicked: %v", rule.ID, r)
		}
	}()
	return rule.Fn(store), nil
}

// filterViolations drops violations for third-party files, then applies
// any severity override from LintConfig. A violation whose severity
// resolves to "off" is dropped entirely — this is how a non-optional rule
// can still be silenced per-design without touching the registry.
func filterViolations(store *facts.Store, violations []result.Violation) []result.Violation {
	out := make([]result.Violation, 0, len(violations))
	for _, v := range violations {
		if facts.IsThirdPartyFile(store.Config, v.File) {
			continue
		}
		sev := facts.GetRuleSeverity(store.Config, v.Rule, v.Severity)
		if sev == "off" {
			continue
		}
		v.Severity = sev
		out = append(out, v)
	}
	return out
}

// sortViolations orders by (file, line) so snapshot-style output is
// reproducible regardless of which rule discovered a given finding first
// (spec §4.6 requires the same ordering for incremental snapshots).
func sortViolations(violations []result.Violation) {
	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].File != violations[j].File {
			return violations[i].File < violations[j].File
		}
		return violations[i].Line < violations[j].Line
	})
}
