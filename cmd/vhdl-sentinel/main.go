// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command vhdl-sentinel runs the rule-driven VHDL static-analysis engine
// described in the specification: a one-shot `check` over a fact store, a
// long-running `serve` HTTP front end, and a `registry` introspection
// command for the verification CheckRegistry.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Blank-imported so every rule family's init() registers itself into
	// registry.Default before any command runs.
	_ "github.com/AleutianAI/vhdl-sentinel/internal/rules"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "vhdl-sentinel",
	Short: "Rule-driven static analysis engine for VHDL hardware-description code",
	Long: `vhdl-sentinel evaluates a VHDL fact store against a registry of
lint rules, graph analyses, and verification-tag checks, producing a
summarized set of violations, missing-check tasks, and ambiguous-construct
warnings.`,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(registryCmd)
	rootCmd.AddCommand(incrementalCmd)
}
