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
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/vhdl-sentinel/internal/registry"
	"github.com/AleutianAI/vhdl-sentinel/internal/verify"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect the rule registry and the verification CheckRegistry",
}

var registryRulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List every registered lint rule, grouped by family",
	RunE:  runRegistryRules,
}

var registryChecksCmd = &cobra.Command{
	Use:   "checks",
	Short: "Print the verification CheckRegistry entries",
	RunE:  runRegistryChecks,
}

func init() {
	registryCmd.AddCommand(registryRulesCmd)
	registryCmd.AddCommand(registryChecksCmd)
}

func runRegistryRules(cmd *cobra.Command, args []string) error {
	type familyOutput struct {
		Name     string   `json:"name"`
		Required []string `json:"required"`
		Optional []string `json:"optional"`
	}

	var out []familyOutput
	for _, family := range registry.Default.Families() {
		fo := familyOutput{Name: family.Name}
		for _, r := range family.Required {
			fo.Required = append(fo.Required, r.ID)
		}
		for _, r := range family.Optional {
			fo.Optional = append(fo.Optional, r.ID)
		}
		out = append(out, fo)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func runRegistryChecks(cmd *cobra.Command, args []string) error {
	entries, err := verify.LoadRegistry()
	if err != nil {
		return fmt.Errorf("load check registry: %w", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
