// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package telemetry wires OpenTelemetry tracing and metrics for the
// evaluation pipeline, following the teacher's services/trace/lint/metrics.go
// pattern: package-level tracer/meter handles lazily initialized once via
// sync.Once, instruments created up front, no global mutable registry
// beyond the SDK's own. RecordRule feeds a per-rule duration histogram, but
// nothing in the evaluation pipeline calls it: per-rule timing (spec §4.2,
// gated by VHDL_POLICY_TRACE_TIMING, spec §6) is returned in
// engine.EvalResult.Timings instead.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/AleutianAI/vhdl-sentinel"

var (
	initOnce      sync.Once
	tracer        trace.Tracer
	meter         metric.Meter
	ruleDuration  metric.Float64Histogram
	ruleCount     metric.Int64Counter
	epochCounter  metric.Int64Counter
)

// Init lazily configures a stdout-exporting tracer/meter provider. Safe to
// call from multiple goroutines; only the first call takes effect. A real
// deployment would swap the stdout exporters for an OTLP endpoint without
// touching call sites, since all instrumentation goes through the package
// vars below.
func Init() {
	initOnce.Do(func() {
		traceExporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err == nil {
			tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExporter))
			otel.SetTracerProvider(tp)
		}

		metricExporter, err := stdoutmetric.New()
		if err == nil {
			mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)))
			otel.SetMeterProvider(mp)
		}

		tracer = otel.Tracer(instrumentationName)
		meter = otel.Meter(instrumentationName)

		ruleDuration, _ = meter.Float64Histogram(
			"vhdl_sentinel.rule.duration_ms",
			metric.WithDescription("Wall-clock duration of a single rule evaluation, in milliseconds"),
		)
		ruleCount, _ = meter.Int64Counter(
			"vhdl_sentinel.rule.violations_total",
			metric.WithDescription("Count of violations produced by a rule"),
		)
		epochCounter, _ = meter.Int64Counter(
			"vhdl_sentinel.incremental.epochs_total",
			metric.WithDescription("Count of epochs processed by the incremental engine"),
		)
	})
}

// StartEvaluation starts a span for one full batch evaluation.
func StartEvaluation(ctx context.Context) (context.Context, trace.Span) {
	Init()
	return tracer.Start(ctx, "vhdl_sentinel.evaluate")
}

// RecordRule records one rule's duration and violation count.
func RecordRule(ctx context.Context, ruleID string, duration time.Duration, violations int) {
	Init()
	attrs := metric.WithAttributes(attribute.String("rule", ruleID))
	ruleDuration.Record(ctx, float64(duration.Microseconds())/1000.0, attrs)
	ruleCount.Add(ctx, int64(violations), attrs)
}

// RecordEpoch records one processed IncrementalEngine epoch.
func RecordEpoch(ctx context.Context) {
	Init()
	epochCounter.Add(ctx, 1)
}
