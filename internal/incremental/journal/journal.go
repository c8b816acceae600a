// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package journal provides an optional durable record of IncrementalEngine
// epochs (spec §4.6), so a supervising process can recover the last
// snapshot after a restart without replaying every delta from the
// beginning of the session. It is grounded on the teacher's
// services/trace/storage/badger package: the same embedded-KV choice,
// the same InMemory/WithPath split, and the same SyncWrites-by-default
// posture — adapted here to a single append-only key scheme instead of a
// general transactional wrapper, since the journal's only access pattern
// is "write the next epoch" and "read the last epoch for a session".
package journal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// Journal durably records one session's epoch snapshots.
type Journal struct {
	db *badger.DB
}

// Open opens (creating if necessary) a persistent journal rooted at dir.
func Open(dir string) (*Journal, error) {
	if dir == "" {
		return nil, fmt.Errorf("journal: path is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("journal: create dir %q: %w", dir, err)
	}
	opts := badger.DefaultOptions(dir).WithSyncWrites(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("journal: open %q: %w", dir, err)
	}
	return &Journal{db: db}, nil
}

// OpenInMemory opens a journal with no disk footprint, for tests and
// short-lived CLI invocations that don't need crash recovery.
func OpenInMemory() (*Journal, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("journal: open in-memory: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close releases the underlying store.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record is one journaled epoch: its raw snapshot payload (the same bytes
// written to the protocol's SnapshotResponse) keyed by session and epoch
// number so a reader can recover the latest epoch per session.
type Record struct {
	SessionID string `json:"session_id"`
	Epoch     int64  `json:"epoch"`
	Payload   []byte `json:"payload"`
}

func recordKey(sessionID string, epoch int64) []byte {
	key := make([]byte, 0, len(sessionID)+1+8)
	key = append(key, []byte(sessionID)...)
	key = append(key, ':')
	var epochBytes [8]byte
	binary.BigEndian.PutUint64(epochBytes[:], uint64(epoch))
	return append(key, epochBytes[:]...)
}

func latestKey(sessionID string) []byte {
	return append([]byte("latest:"), []byte(sessionID)...)
}

// Append durably records one epoch's snapshot payload and advances the
// session's "latest" pointer in the same transaction, so a crash between
// the two writes is impossible.
func (j *Journal) Append(sessionID string, epoch int64, payload []byte) error {
	return j.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(recordKey(sessionID, epoch), payload); err != nil {
			return err
		}
		return txn.Set(latestKey(sessionID), recordKey(sessionID, epoch))
	})
}

// Latest returns the most recently journaled epoch for sessionID, or
// (nil, nil) if the session has no journaled epochs.
func (j *Journal) Latest(sessionID string) (*Record, error) {
	var ptr []byte
	err := j.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(latestKey(sessionID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			ptr = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("journal: latest pointer for %q: %w", sessionID, err)
	}
	if ptr == nil {
		return nil, nil
	}

	var payload []byte
	err = j.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(ptr)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			payload = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("journal: read epoch payload for %q: %w", sessionID, err)
	}

	epoch := int64(binary.BigEndian.Uint64(ptr[len(ptr)-8:]))
	return &Record{SessionID: sessionID, Epoch: epoch, Payload: payload}, nil
}

// AppendSnapshot is a convenience wrapper that marshals resp (an
// incremental.SnapshotResponse-shaped value) before appending it.
func (j *Journal) AppendSnapshot(sessionID string, epoch int64, resp interface{}) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("journal: marshal snapshot: %w", err)
	}
	return j.Append(sessionID, epoch, payload)
}
