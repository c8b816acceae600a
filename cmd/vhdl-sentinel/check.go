// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	vhdlconfig "github.com/AleutianAI/vhdl-sentinel/internal/config"
	"github.com/AleutianAI/vhdl-sentinel/internal/engine"
	"github.com/AleutianAI/vhdl-sentinel/internal/facts"
	"github.com/AleutianAI/vhdl-sentinel/internal/graphanalysis"
	"github.com/AleutianAI/vhdl-sentinel/internal/registry"
	"github.com/AleutianAI/vhdl-sentinel/internal/result"
	"github.com/AleutianAI/vhdl-sentinel/internal/verify"
	"github.com/AleutianAI/vhdl-sentinel/pkg/logging"
)

var (
	checkStorePath  string
	checkConfigPath string
	checkOutputPath string
	checkJSON       bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate a facts.Store JSON document and print findings",
	Long: `check loads a facts.Store JSON document (as produced by an external
VHDL source loader), runs the full rule registry plus graph analyses, checks
verification tags against the CheckRegistry, and prints the combined
result — violations, missing-check tasks, and ambiguous-construct warnings.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkStorePath, "store", "", "path to a facts.Store JSON document (required)")
	checkCmd.Flags().StringVar(&checkConfigPath, "config", "", "path to a LintConfig YAML file")
	checkCmd.Flags().StringVar(&checkOutputPath, "out", "", "write result JSON to this path instead of stdout")
	checkCmd.Flags().BoolVar(&checkJSON, "json", true, "emit machine-readable JSON (the only supported format today)")
	_ = checkCmd.MarkFlagRequired("store")
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := logging.Default()

	raw, err := os.ReadFile(checkStorePath)
	if err != nil {
		return fmt.Errorf("read store %q: %w", checkStorePath, err)
	}

	var store facts.Store
	if err := json.Unmarshal(raw, &store); err != nil {
		return fmt.Errorf("parse store %q: %w", checkStorePath, err)
	}

	cfg, err := vhdlconfig.Load(checkConfigPath)
	if err != nil {
		return err
	}
	store.Config = cfg

	ctx := context.Background()
	evalResult, err := engine.Evaluate(ctx, &store, engine.Options{
		Registry: registry.Default,
		Logger:   logger,
		GraphPasses: []engine.GraphPass{
			{Name: "unbounded_combinational_loops", Fn: graphanalysis.FindUnboundedCombinationalLoops},
			{Name: "unresolved_external_reads", Fn: graphanalysis.UnresolvedExternalReads},
		},
		TraceTiming: vhdlconfig.TraceTimingEnabled(),
	})
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	entries, err := verify.LoadRegistry()
	if err != nil {
		return fmt.Errorf("load check registry: %w", err)
	}
	analysis, err := verify.Analyze(&store, entries)
	if err != nil {
		return fmt.Errorf("verify analysis: %w", err)
	}

	combined := result.Result{
		Violations:          append(evalResult.Result.Violations, analysis.Violations...),
		MissingChecks:       analysis.MissingChecks,
		AmbiguousConstructs: analysis.AmbiguousConstructs,
	}
	combined.Summary = result.Summarize(combined.Violations)

	out := os.Stdout
	if checkOutputPath != "" {
		f, err := os.Create(checkOutputPath)
		if err != nil {
			return fmt.Errorf("create output %q: %w", checkOutputPath, err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(combined); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	if combined.Summary.Errors > 0 {
		os.Exit(1)
	}
	return nil
}
