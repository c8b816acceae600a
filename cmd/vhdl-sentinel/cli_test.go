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
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/vhdl-sentinel/internal/registry"
	"github.com/AleutianAI/vhdl-sentinel/internal/result"
)

// captureStdout redirects os.Stdout for the duration of f and returns
// everything written to it.
func captureStdout(t *testing.T, f func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	f()

	require.NoError(t, w.Close())
	os.Stdout = old

	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.String()
}

func TestRunRegistryRulesListsRegisteredFamilies(t *testing.T) {
	out := captureStdout(t, func() {
		require.NoError(t, runRegistryRules(&cobra.Command{}, nil))
	})

	var families []struct {
		Name     string   `json:"name"`
		Required []string `json:"required"`
		Optional []string `json:"optional"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &families))
	assert.NotEmpty(t, families, "internal/rules' init() functions should have populated registry.Default")

	var names []string
	for _, f := range families {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "core")
}

func TestRunRegistryChecksPrintsCheckRegistryEntries(t *testing.T) {
	out := captureStdout(t, func() {
		require.NoError(t, runRegistryChecks(&cobra.Command{}, nil))
	})

	var entries []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	assert.NotEmpty(t, entries)
}

func TestRunCheckEvaluatesEmptyStoreCleanly(t *testing.T) {
	require.NotEmpty(t, registry.Default.Families(), "registry.Default should be populated by the blank import of internal/rules")

	dir := t.TempDir()
	storePath := filepath.Join(dir, "store.json")
	require.NoError(t, os.WriteFile(storePath, []byte(`{}`), 0o644))

	outPath := filepath.Join(dir, "result.json")

	oldStore, oldConfig, oldOut := checkStorePath, checkConfigPath, checkOutputPath
	checkStorePath, checkConfigPath, checkOutputPath = storePath, "", outPath
	defer func() { checkStorePath, checkConfigPath, checkOutputPath = oldStore, oldConfig, oldOut }()

	require.NoError(t, runCheck(&cobra.Command{}, nil))

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var res result.Result
	require.NoError(t, json.Unmarshal(raw, &res))
	assert.Equal(t, 0, res.Summary.Errors, "an empty store must not trip the os.Exit(1) error-count path")
}

func TestRunCheckRejectsMissingStoreFile(t *testing.T) {
	oldStore, oldConfig, oldOut := checkStorePath, checkConfigPath, checkOutputPath
	checkStorePath, checkConfigPath, checkOutputPath = filepath.Join(t.TempDir(), "missing.json"), "", ""
	defer func() { checkStorePath, checkConfigPath, checkOutputPath = oldStore, oldConfig, oldOut }()

	err := runCheck(&cobra.Command{}, nil)
	assert.Error(t, err)
}

func TestRunIncrementalReturnsOnStdinEOF(t *testing.T) {
	oldStdin := os.Stdin
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdin = r
	defer func() { os.Stdin = oldStdin }()

	require.NoError(t, w.Close())

	oldJournalDir := incrementalJournalDir
	incrementalJournalDir = ""
	defer func() { incrementalJournalDir = oldJournalDir }()

	done := make(chan error, 1)
	go func() { done <- runIncremental(&cobra.Command{}, nil) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runIncremental did not return after stdin EOF; the output-draining goroutine likely never observed ctx cancellation")
	}
}

func TestRunIncrementalProcessesSnapshotCommand(t *testing.T) {
	oldStdin := os.Stdin
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdin = r
	defer func() { os.Stdin = oldStdin }()

	oldJournalDir := incrementalJournalDir
	incrementalJournalDir = ""
	defer func() { incrementalJournalDir = oldJournalDir }()

	out := captureStdout(t, func() {
		done := make(chan error, 1)
		go func() { done <- runIncremental(&cobra.Command{}, nil) }()

		_, werr := w.Write([]byte(`{"kind":"snapshot"}` + "\n"))
		require.NoError(t, werr)

		time.Sleep(100 * time.Millisecond)
		require.NoError(t, w.Close())

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("runIncremental did not return")
		}
	})

	assert.Contains(t, out, `"kind":"snapshot"`)
}
