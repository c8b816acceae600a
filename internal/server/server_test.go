// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/vhdl-sentinel/internal/engine"
	"github.com/AleutianAI/vhdl-sentinel/internal/registry"
	"github.com/AleutianAI/vhdl-sentinel/internal/result"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(Config{EngineOpts: engine.Options{Registry: &registry.Registry{}}})
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestHealthzReturnsOK(t *testing.T) {
	srv := newTestServer(t)
	resp := get(srv.Router(), "/healthz")

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"ok"}`, resp.Body.String())
}

func TestSnapshotRejectsMissingStore(t *testing.T) {
	srv := newTestServer(t)
	resp := postJSON(srv.Router(), "/v1/snapshot", map[string]interface{}{})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSnapshotEvaluatesPostedStore(t *testing.T) {
	srv := newTestServer(t)
	body := map[string]interface{}{
		"store": map[string]interface{}{
			"files": []map[string]interface{}{{"path": "top.vhd"}},
		},
	}
	resp := postJSON(srv.Router(), "/v1/snapshot", body)
	require.Equal(t, http.StatusOK, resp.Code)

	var out result.Result
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, 0, out.Summary.TotalViolations)
}

func TestMetricsExposesRequestCounter(t *testing.T) {
	srv := newTestServer(t)
	get(srv.Router(), "/healthz")

	resp := get(srv.Router(), "/metrics")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "vhdl_sentinel_http_requests_total")
	assert.Contains(t, resp.Body.String(), `route="/healthz"`)
}

func TestSnapshotRejectsMalformedJSON(t *testing.T) {
	srv := newTestServer(t)
	req, _ := http.NewRequest(http.MethodPost, "/v1/snapshot", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	srv.Router().ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
