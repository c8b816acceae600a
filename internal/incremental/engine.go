// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package incremental

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/AleutianAI/vhdl-sentinel/internal/engine"
	"github.com/AleutianAI/vhdl-sentinel/internal/facts"
	"github.com/AleutianAI/vhdl-sentinel/internal/registry"
	"github.com/AleutianAI/vhdl-sentinel/internal/telemetry"
	"github.com/AleutianAI/vhdl-sentinel/pkg/logging"
)

func signalKey(s facts.Signal) string {
	return strings.ToLower(s.InEntity) + "::" + strings.ToLower(s.Name)
}

func entityKey(e facts.Entity) string { return strings.ToLower(e.Name) }

func processKey(p facts.Process) string {
	return strings.ToLower(p.InArch) + "::" + strings.ToLower(p.Label) + "::" + p.File + ":" + itoa(p.Line)
}

func instanceKey(i facts.Instance) string {
	return strings.ToLower(i.InArch) + "::" + strings.ToLower(i.Name)
}

func signalDepKey(d facts.SignalDep) string {
	return strings.ToLower(d.InArch) + "::" + strings.ToLower(d.Source) + "->" + strings.ToLower(d.Target) + "::" + d.InProcess
}

func itoa(n int) string {
	return fmt.Sprintf("%d", n)
}

// state holds one Relation per fact kind the delta protocol supports. A real
// deployment would extend this to every facts.Store slice; spec §4.6 names
// signals, entities, processes, instances, and signal_deps as the
// incremental surface, so those are what the worker threads through deltas
// (`delta` commands from Run's input stream or Submit; the watch adapter
// submits full `init` commands only). Everything else in a
// given epoch's Store is carried forward from the last full `init`.
type state struct {
	base *facts.Store

	signals    *Relation[facts.Signal]
	entities   *Relation[facts.Entity]
	processes  *Relation[facts.Process]
	instances  *Relation[facts.Instance]
	signalDeps *Relation[facts.SignalDep]
}

func newState() *state {
	return &state{
		base:       &facts.Store{},
		signals:    NewRelation(signalKey),
		entities:   NewRelation(entityKey),
		processes:  NewRelation(processKey),
		instances:  NewRelation(instanceKey),
		signalDeps: NewRelation(signalDepKey),
	}
}

// materialize flattens the relation state back into a facts.Store snapshot,
// overlaying the live relations onto whatever non-incremental slices `base`
// carries (types, packages, use clauses, and the rest are not deltaed, so
// they pass through from the last `init` command unmodified).
func (st *state) materialize() *facts.Store {
	out := *st.base
	out.Signals = st.signals.Items()
	out.Entities = st.entities.Items()
	out.Processes = st.processes.Items()
	out.Instances = st.instances.Items()
	out.SignalDeps = st.signalDeps.Items()
	return &out
}

func (st *state) reset(full *facts.Store) {
	st.base = full
	st.signals.Clear()
	st.entities.Clear()
	st.processes.Clear()
	st.instances.Clear()
	st.signalDeps.Clear()
	for _, s := range full.Signals {
		st.signals.Apply(s, 1)
	}
	for _, e := range full.Entities {
		st.entities.Apply(e, 1)
	}
	for _, p := range full.Processes {
		st.processes.Apply(p, 1)
	}
	for _, i := range full.Instances {
		st.instances.Apply(i, 1)
	}
	for _, d := range full.SignalDeps {
		st.signalDeps.Apply(d, 1)
	}
}

func (st *state) applyDelta(d *DeltaPayload) error {
	n := 0
	for _, set := range []bool{d.Signal != nil, d.Entity != nil, d.Process != nil, d.Instance != nil, d.SignalDep != nil} {
		if set {
			n++
		}
	}
	if n > 1 {
		return fmt.Errorf("delta command carries %d fact payloads; exactly one is allowed", n)
	}
	switch {
	case d.Signal != nil:
		st.signals.Apply(*d.Signal, d.Weight)
	case d.Entity != nil:
		st.entities.Apply(*d.Entity, d.Weight)
	case d.Process != nil:
		st.processes.Apply(*d.Process, d.Weight)
	case d.Instance != nil:
		st.instances.Apply(*d.Instance, d.Weight)
	case d.SignalDep != nil:
		st.signalDeps.Apply(*d.SignalDep, d.Weight)
	default:
		return fmt.Errorf("delta command carries no fact payload")
	}
	return nil
}

// Engine is the IncrementalEngine (spec §4.6): a reader goroutine decodes
// line-delimited JSON commands from an input stream into a buffered channel;
// a single worker goroutine drains that channel in strict arrival order,
// owning all Relation state exclusively so no fact mutation is ever
// contended. Every `snapshot` command triggers a full batch Evaluate over
// the materialized Store and increments the epoch counter.
type Engine struct {
	opts engine.Options
	reg  *registry.Registry

	cmdCh chan Command
	out   chan<- []byte

	mu     sync.Mutex
	closed bool

	shutdownCh chan struct{}
	shutdownWg sync.WaitGroup

	epoch int64
	state *state

	sessionID string
	logger    *logging.Logger
}

// New constructs an Engine that sends each newline-terminated JSON response
// to out; a response is dropped with a warning when out is full. The caller
// owns out's lifetime and drains it (cmd/vhdl-sentinel copies it to stdout).
func New(opts engine.Options, out chan<- []byte) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		opts:       opts,
		cmdCh:      make(chan Command, 64),
		out:        out,
		shutdownCh: make(chan struct{}),
		state:      newState(),
		sessionID:  uuid.NewString(),
		logger:     logger,
	}
}

// SessionID is the engine's process-lifetime identifier, included in logs
// so a supervising process can correlate stdin/stdout pairs across restarts.
func (e *Engine) SessionID() string { return e.sessionID }

// Submit enqueues a command directly, bypassing the line-delimited JSON
// decoder — used by in-process producers (internal/adapter/watch) that
// already hold a Command value rather than a byte stream. Safe to call
// concurrently with Run; the mutex is held across the channel send so a
// concurrent shutdown can never close cmdCh out from under this send.
func (e *Engine) Submit(ctx context.Context, cmd Command) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return fmt.Errorf("incremental engine is shut down")
	}
	select {
	case e.cmdCh <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts the worker goroutine and blocks reading commands from r until
// ctx is cancelled, r reaches EOF, or reading r fails (including a single
// line longer than 64 MiB). Each line is decoded independently; blank lines
// are skipped and a malformed line produces an ErrorResponse
// on out and the loop continues rather than aborting the whole stream
// (spec §7 — one bad line must never crash the process).
func (e *Engine) Run(ctx context.Context, r io.Reader) error {
	e.shutdownWg.Add(1)
	go e.worker(ctx)
	defer func() {
		e.mu.Lock()
		e.closed = true
		e.mu.Unlock()
		close(e.cmdCh)
		e.shutdownWg.Wait()
	}()

	sc := bufio.NewScanner(r)
	sc.Buffer(nil, 64<<20)
	for sc.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var cmd Command
		if err := json.Unmarshal([]byte(line), &cmd); err != nil {
			e.emit(newErrorResponse(fmt.Sprintf("malformed command: %v", err)))
			continue
		}

		select {
		case e.cmdCh <- cmd:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return sc.Err()
}

func (e *Engine) worker(ctx context.Context) {
	defer e.shutdownWg.Done()
	for cmd := range e.cmdCh {
		e.handle(ctx, cmd)
	}
}

func (e *Engine) handle(ctx context.Context, cmd Command) {
	switch cmd.Kind {
	case KindInit:
		if cmd.Init == nil {
			e.emit(newErrorResponse("init command missing store payload"))
			return
		}
		e.state.reset(cmd.Init)
		e.logger.Info("incremental engine received init", "session", e.sessionID, "files", cmd.Init.FileCount())

	case KindDelta:
		if cmd.Delta == nil {
			e.emit(newErrorResponse("delta command missing payload"))
			return
		}
		if err := e.state.applyDelta(cmd.Delta); err != nil {
			e.emit(newErrorResponse(err.Error()))
			return
		}

	case KindSnapshot:
		e.epoch++
		store := e.state.materialize()
		evalResult, err := engine.Evaluate(ctx, store, e.opts)
		if err != nil {
			e.emit(newErrorResponse(fmt.Sprintf("evaluate: %v", err)))
			return
		}
		telemetry.RecordEpoch(ctx)
		e.emit(SnapshotResponse{
			Kind:    KindSnapshot,
			Epoch:   e.epoch,
			Summary: evalResult.Result.Summary,
			Result:  evalResult.Result,
		})

	default:
		e.emit(newErrorResponse(fmt.Sprintf("unknown command kind %q", cmd.Kind)))
	}
}

func (e *Engine) emit(v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		e.logger.Error("failed to marshal incremental response", "error", err)
		return
	}
	b = append(b, '\n')
	select {
	case e.out <- b:
	default:
		e.logger.Warn("incremental engine output channel full, dropping response")
	}
}
