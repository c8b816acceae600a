// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rules

import (
	"fmt"

	"github.com/AleutianAI/vhdl-sentinel/internal/facts"
	"github.com/AleutianAI/vhdl-sentinel/internal/registry"
	"github.com/AleutianAI/vhdl-sentinel/internal/result"
)

func init() {
	registry.Default.Register(registry.Family{
		Name: "cdc",
		Required: []registry.Rule{
			{ID: "cdc_unsync_single_bit", Fn: cdcUnsyncSingleBit},
			{ID: "cdc_unsync_multi_bit", Fn: cdcUnsyncMultiBit},
			{ID: "cdc_insufficient_sync", Fn: cdcInsufficientSync},
		},
	})
}

// cdcUnsyncSingleBit flags a single-bit signal observed crossing clock
// domains with no synchronizer at all.
func cdcUnsyncSingleBit(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, c := range s.CDCCrossings {
		if c.IsSynchronized || c.IsMultiBit {
			continue
		}
		out = append(out, result.Violation{
			Rule: "cdc_unsync_single_bit", Severity: result.SeverityWarning,
			File: c.File, Line: c.Line,
			Message: fmt.Sprintf("signal %q crosses from clock %q to %q with no synchronizer", c.Signal, c.SourceClock, c.DestClock),
		})
	}
	return out
}

// cdcUnsyncMultiBit is the error-severity counterpart for multi-bit buses,
// where an unsynchronized crossing risks non-Gray-coded bit tearing.
func cdcUnsyncMultiBit(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, c := range s.CDCCrossings {
		if c.IsSynchronized || !c.IsMultiBit {
			continue
		}
		out = append(out, result.Violation{
			Rule: "cdc_unsync_multi_bit", Severity: result.SeverityError,
			File: c.File, Line: c.Line,
			Message: fmt.Sprintf("multi-bit signal %q crosses from clock %q to %q with no synchronizer", c.Signal, c.SourceClock, c.DestClock),
		})
	}
	return out
}

// cdcInsufficientSync flags a crossing that is synchronized but with fewer
// than two flip-flop stages, insufficient to bound metastability risk.
func cdcInsufficientSync(s *facts.Store) []result.Violation {
	var out []result.Violation
	for _, c := range s.CDCCrossings {
		if !c.IsSynchronized || c.SyncStages >= 2 {
			continue
		}
		out = append(out, result.Violation{
			Rule: "cdc_insufficient_sync", Severity: result.SeverityWarning,
			File: c.File, Line: c.Line,
			Message: fmt.Sprintf("signal %q synchronized with only %d stage(s); at least 2 recommended", c.Signal, c.SyncStages),
		})
	}
	return out
}
