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
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	vhdlconfig "github.com/AleutianAI/vhdl-sentinel/internal/config"
	"github.com/AleutianAI/vhdl-sentinel/internal/engine"
	"github.com/AleutianAI/vhdl-sentinel/internal/graphanalysis"
	"github.com/AleutianAI/vhdl-sentinel/internal/incremental"
	"github.com/AleutianAI/vhdl-sentinel/internal/incremental/journal"
	"github.com/AleutianAI/vhdl-sentinel/internal/registry"
	"github.com/AleutianAI/vhdl-sentinel/pkg/logging"
)

var incrementalJournalDir string

var incrementalCmd = &cobra.Command{
	Use:   "incremental",
	Short: "Run the IncrementalEngine over stdin/stdout (spec §4.6)",
	Long: `incremental reads line-delimited {kind:init|delta|snapshot} JSON
commands from stdin and writes {kind:snapshot|error} JSON responses to
stdout, one per line. Intended to be driven by an editor plugin or CI
watch process rather than a human.`,
	RunE: runIncremental,
}

func init() {
	incrementalCmd.Flags().StringVar(&incrementalJournalDir, "journal", "", "optional directory for a durable epoch journal")
}

func runIncremental(cmd *cobra.Command, args []string) error {
	logger := logging.Default()

	out := make(chan []byte, 64)
	eng := incremental.New(engine.Options{
		Registry: registry.Default,
		Logger:   logger,
		GraphPasses: []engine.GraphPass{
			{Name: "unbounded_combinational_loops", Fn: graphanalysis.FindUnboundedCombinationalLoops},
			{Name: "unresolved_external_reads", Fn: graphanalysis.UnresolvedExternalReads},
		},
		TraceTiming: vhdlconfig.TraceTimingEnabled(),
	}, out)

	var jrnl *journal.Journal
	if incrementalJournalDir != "" {
		j, err := journal.Open(incrementalJournalDir)
		if err != nil {
			return err
		}
		defer j.Close()
		jrnl = j
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		cancel()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case b, ok := <-out:
				if !ok {
					return
				}
				os.Stdout.Write(b)
				if jrnl != nil {
					var head struct {
						Kind  string `json:"kind"`
						Epoch int64  `json:"epoch"`
					}
					if json.Unmarshal(b, &head) == nil && head.Kind == incremental.KindSnapshot {
						_ = jrnl.Append(eng.SessionID(), head.Epoch, b)
					}
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	err := eng.Run(ctx, os.Stdin)
	cancel()
	<-done
	return err
}
