// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package server exposes the batch RuleEngine over HTTP: a gin router with
// otelgin tracing middleware, grounded on the teacher's cmd/trace server
// (gin.New + gin.Recovery + otelgin.Middleware, routes grouped under a
// versioned prefix). Unlike the teacher's long-lived agent-loop service,
// vhdl-sentinel's server is stateless per request: each /v1/snapshot call
// evaluates the posted facts.Store fresh, since a full VHDL fact store is
// cheap enough to round-trip over HTTP for the CI/editor-plugin use case
// spec §4.6 names (the IncrementalEngine's stdin/stdout protocol is the
// path for genuinely streaming, stateful sessions).
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/vhdl-sentinel/internal/engine"
	"github.com/AleutianAI/vhdl-sentinel/internal/facts"
	"github.com/AleutianAI/vhdl-sentinel/internal/telemetry"
	"github.com/AleutianAI/vhdl-sentinel/pkg/logging"
)

// httpMetrics are the Prometheus counters/histogram scraped at GET /metrics,
// registered against a private registry rather than the global default so
// multiple Servers in the same test binary don't collide on registration.
type httpMetrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func newHTTPMetrics() *httpMetrics {
	reg := prometheus.NewRegistry()
	m := &httpMetrics{
		registry: reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vhdl_sentinel_http_requests_total",
			Help: "Count of HTTP requests handled by vhdl-sentinel's server, by route and status code.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vhdl_sentinel_http_request_duration_seconds",
			Help:    "Latency of HTTP requests handled by vhdl-sentinel's server, by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration)
	return m
}

// middleware returns a gin handler that records one observation per
// request, keyed by the matched route pattern (not the raw path, to keep
// cardinality bounded under path parameters).
func (m *httpMetrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// Config configures the HTTP server.
type Config struct {
	Addr        string
	Debug       bool
	EngineOpts  engine.Options
	Logger      *logging.Logger
}

// Server wraps the gin router and its evaluation dependencies.
type Server struct {
	cfg     Config
	router  *gin.Engine
	logger  *logging.Logger
	metrics *httpMetrics
}

// New builds a Server with routes registered but not yet listening.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics := newHTTPMetrics()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("vhdl-sentinel"))
	router.Use(metrics.middleware())

	s := &Server{cfg: cfg, router: router, logger: logger, metrics: metrics}

	v1 := router.Group("/v1")
	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.registry, promhttp.HandlerOpts{})))
	v1.POST("/snapshot", s.handleSnapshot)

	return s
}

// Router exposes the underlying gin.Engine, primarily for tests that want
// to drive requests with httptest without binding a real listener.
func (s *Server) Router() *gin.Engine { return s.router }

// ListenAndServe blocks serving HTTP on cfg.Addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("vhdl-sentinel server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("vhdl-sentinel server shutting down")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// snapshotRequest is the POST /v1/snapshot body: a complete facts.Store to
// evaluate once, statelessly.
type snapshotRequest struct {
	Store *facts.Store `json:"store" binding:"required"`
}

func (s *Server) handleSnapshot(c *gin.Context) {
	var req snapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, span := telemetry.StartEvaluation(c.Request.Context())
	defer span.End()

	evalResult, err := engine.Evaluate(ctx, req.Store, s.cfg.EngineOpts)
	if err != nil {
		s.logger.Error("snapshot evaluation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, evalResult.Result)
}
