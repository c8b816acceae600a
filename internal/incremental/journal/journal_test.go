// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestJournalLatestOnEmptySessionReturnsNil(t *testing.T) {
	j := openTestJournal(t)

	rec, err := j.Latest("session-a")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestJournalAppendThenLatestRoundTrips(t *testing.T) {
	j := openTestJournal(t)

	require.NoError(t, j.Append("session-a", 1, []byte(`{"epoch":1}`)))

	rec, err := j.Latest("session-a")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.EqualValues(t, 1, rec.Epoch)
	assert.Equal(t, "session-a", rec.SessionID)
	assert.JSONEq(t, `{"epoch":1}`, string(rec.Payload))
}

func TestJournalLatestAdvancesAcrossAppends(t *testing.T) {
	j := openTestJournal(t)

	require.NoError(t, j.Append("session-a", 1, []byte(`{"epoch":1}`)))
	require.NoError(t, j.Append("session-a", 2, []byte(`{"epoch":2}`)))
	require.NoError(t, j.Append("session-a", 3, []byte(`{"epoch":3}`)))

	rec, err := j.Latest("session-a")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.EqualValues(t, 3, rec.Epoch)
	assert.JSONEq(t, `{"epoch":3}`, string(rec.Payload))
}

func TestJournalSessionsAreIsolated(t *testing.T) {
	j := openTestJournal(t)

	require.NoError(t, j.Append("session-a", 5, []byte(`{"epoch":5}`)))
	require.NoError(t, j.Append("session-b", 1, []byte(`{"epoch":1}`)))

	recA, err := j.Latest("session-a")
	require.NoError(t, err)
	require.NotNil(t, recA)
	assert.EqualValues(t, 5, recA.Epoch)

	recB, err := j.Latest("session-b")
	require.NoError(t, err)
	require.NotNil(t, recB)
	assert.EqualValues(t, 1, recB.Epoch)
}

func TestJournalAppendSnapshotMarshalsPayload(t *testing.T) {
	j := openTestJournal(t)

	type snap struct {
		Kind  string `json:"kind"`
		Epoch int64  `json:"epoch"`
	}
	require.NoError(t, j.AppendSnapshot("session-a", 1, snap{Kind: "snapshot", Epoch: 1}))

	rec, err := j.Latest("session-a")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.JSONEq(t, `{"kind":"snapshot","epoch":1}`, string(rec.Payload))
}
