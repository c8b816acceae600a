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
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	vhdlconfig "github.com/AleutianAI/vhdl-sentinel/internal/config"
	"github.com/AleutianAI/vhdl-sentinel/internal/engine"
	"github.com/AleutianAI/vhdl-sentinel/internal/graphanalysis"
	"github.com/AleutianAI/vhdl-sentinel/internal/registry"
	"github.com/AleutianAI/vhdl-sentinel/internal/server"
	"github.com/AleutianAI/vhdl-sentinel/internal/telemetry"
	"github.com/AleutianAI/vhdl-sentinel/pkg/logging"
)

var (
	serveAddr  string
	serveDebug bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server exposing /healthz and /v1/snapshot",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "address to listen on")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "enable gin debug mode and request logging")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := logging.Default()
	telemetry.Init()

	srv := server.New(server.Config{
		Addr:  serveAddr,
		Debug: serveDebug,
		EngineOpts: engine.Options{
			Registry: registry.Default,
			Logger:   logger,
			GraphPasses: []engine.GraphPass{
				{Name: "unbounded_combinational_loops", Fn: graphanalysis.FindUnboundedCombinationalLoops},
				{Name: "unresolved_external_reads", Fn: graphanalysis.UnresolvedExternalReads},
			},
			TraceTiming: vhdlconfig.TraceTimingEnabled(),
		},
		Logger: logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Info("received shutdown signal")
		cancel()
	}()

	return srv.ListenAndServe(ctx)
}
