// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package watch adapts filesystem change events into IncrementalEngine
// commands, grounded on the teacher's services/trace/graph.FileWatcher:
// the same fsnotify-backed recursive watch with a debounce window and
// per-path deduplication, trimmed to vhdl-sentinel's narrower need (no
// ignore-pattern configuration surface, since the editor/CI integration
// this adapter targets always watches a single VHDL source tree). Fact
// extraction from a changed .vhd file is out of scope (spec §1 treats the
// loader producing a facts.Store as external); this package only decides
// *when* to re-trigger it and turns the reloaded Store into an `init`
// command on the engine's command stream.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/AleutianAI/vhdl-sentinel/internal/facts"
	"github.com/AleutianAI/vhdl-sentinel/internal/incremental"
	"github.com/AleutianAI/vhdl-sentinel/pkg/logging"
)

// Loader re-extracts a facts.Store for the watched tree after a change.
// Supplied by the caller (spec §1's loader is out of this package's scope).
type Loader func(ctx context.Context) (*facts.Store, error)

// Options configures a Watcher.
type Options struct {
	// DebounceWindow is how long to wait after the last detected change
	// before triggering a reload. Default: 150ms.
	DebounceWindow time.Duration

	// Logger defaults to logging.Default().
	Logger *logging.Logger
}

// Watcher watches a VHDL source tree and submits `init` commands directly
// to an incremental.Engine whenever a .vhd/.vhdl file changes.
type Watcher struct {
	root     string
	loader   Loader
	engine   *incremental.Engine
	debounce time.Duration
	logger   *logging.Logger

	watcher  *fsnotify.Watcher
	changes  chan string
	stopOnce sync.Once
	done     chan struct{}
}

// New creates a Watcher rooted at root, submitting reload commands to eng
// (see incremental.Engine.Submit).
func New(root string, loader Loader, eng *incremental.Engine, opts Options) (*Watcher, error) {
	if opts.DebounceWindow == 0 {
		opts.DebounceWindow = 150 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		root:     root,
		loader:   loader,
		engine:   eng,
		debounce: opts.DebounceWindow,
		logger:   logger,
		watcher:  fsw,
		changes:  make(chan string, 256),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching root recursively and blocks spawning the
// background goroutines; it returns once the initial watch list is built.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addRecursive(); err != nil {
		return err
	}
	go w.processEvents(ctx)
	go w.debounceLoop(ctx)
	return nil
}

// Stop releases the underlying fsnotify watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()
	})
}

func (w *Watcher) addRecursive() error {
	return filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != w.root {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func isVHDLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".vhd" || ext == ".vhdl"
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := filepathIsDir(event.Name); err == nil && info {
					_ = w.watcher.Add(event.Name)
					continue
				}
			}
			if !isVHDLFile(event.Name) {
				continue
			}
			select {
			case w.changes <- event.Name:
			default:
				w.logger.Warn("watch adapter change buffer full, dropping event", "path", event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("fsnotify error", "error", err)
		}
	}
}

func filepathIsDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time
	pending := false

	trigger := func() {
		if !pending {
			return
		}
		pending = false
		w.reload(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case <-w.changes:
			pending = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			trigger()
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	store, err := w.loader(ctx)
	if err != nil {
		w.logger.Error("watch adapter reload failed", "error", err)
		return
	}
	cmd := incremental.Command{Kind: incremental.KindInit, Init: store}
	if err := w.engine.Submit(ctx, cmd); err != nil {
		w.logger.Warn("watch adapter failed to submit reload", "error", err)
	}
}
