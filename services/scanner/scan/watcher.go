// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scan

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Change is one observed mutation of a mod file.
type Change struct {
	// Path is the path of the changed file.
	Path string

	// Op describes the mutation.
	Op ChangeOp

	// Time is when the change was observed.
	Time time.Time
}

// ChangeOp classifies a file mutation.
type ChangeOp int

const (
	ChangeOpCreate ChangeOp = iota
	ChangeOpWrite
	ChangeOpRemove
	ChangeOpRename
)

func (op ChangeOp) String() string {
	switch op {
	case ChangeOpCreate:
		return "create"
	case ChangeOpWrite:
		return "write"
	case ChangeOpRemove:
		return "remove"
	case ChangeOpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// ChangeHandler receives debounced change batches.
type ChangeHandler func(changes []Change)

// Watcher observes a mod directory and reports batched changes to mod
// files.
//
// Description:
//
//	Downloads and in-place edits produce bursts of events per file, so
//	raw events are collected into a debounce window and delivered as
//	one deduplicated batch. Only .package and .ts4script files are
//	reported; newly created subdirectories are watched automatically.
//
// Thread Safety: Safe for concurrent use. The handler runs on a single
// goroutine.
type Watcher struct {
	root     string
	fsw      *fsnotify.Watcher
	handler  ChangeHandler
	debounce time.Duration
	log      *slog.Logger

	changes  chan Change
	done     chan struct{}
	stopOnce sync.Once
}

// DefaultDebounce is the debounce window used when none is given.
const DefaultDebounce = 500 * time.Millisecond

// NewWatcher creates a watcher over root. A zero debounce uses
// DefaultDebounce; a nil logger falls back to slog.Default.
func NewWatcher(root string, handler ChangeHandler, debounce time.Duration, log *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		root:     root,
		fsw:      fsw,
		handler:  handler,
		debounce: debounce,
		log:      log,
		changes:  make(chan Change, 256),
		done:     make(chan struct{}),
	}, nil
}

// Start watches root and every subdirectory, then processes events until
// the context is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		return w.fsw.Add(path)
	})
	if err != nil {
		return err
	}

	go w.processEvents(ctx)
	go w.debounceLoop(ctx)
	w.log.Info("watching for mod changes", "dir", w.root, "debounce", w.debounce)
	return nil
}

// Stop ends watching and releases the underlying notifier.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.fsw.Close()
	})
}

// isModFile reports whether path names a file the scanner cares about.
func isModFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".package", ".ts4script":
		return true
	}
	return false
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			// Watch new subdirectories as they appear.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.fsw.Add(event.Name); err != nil {
						w.log.Warn("watch add failed", "path", event.Name, "error", err)
					}
					continue
				}
			}
			if !isModFile(event.Name) {
				continue
			}

			change := Change{Path: event.Name, Op: convertOp(event.Op), Time: time.Now()}
			select {
			case w.changes <- change:
			default:
				// Buffer full; the debouncer will pick up the rest of
				// the burst from later events.
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

func convertOp(op fsnotify.Op) ChangeOp {
	switch {
	case op.Has(fsnotify.Create):
		return ChangeOpCreate
	case op.Has(fsnotify.Remove):
		return ChangeOpRemove
	case op.Has(fsnotify.Rename):
		return ChangeOpRename
	default:
		return ChangeOpWrite
	}
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	var batch []Change
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if len(batch) > 0 && w.handler != nil {
			w.handler(dedupChanges(batch))
			batch = batch[:0]
		}
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-w.done:
			flush()
			return
		case change := <-w.changes:
			batch = append(batch, change)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			flush()
		}
	}
}

// dedupChanges keeps the most recent change per path, preserving
// first-seen order.
func dedupChanges(changes []Change) []Change {
	index := make(map[string]int, len(changes))
	out := make([]Change, 0, len(changes))
	for _, change := range changes {
		if i, seen := index[change.Path]; seen {
			out[i] = change
			continue
		}
		index[change.Path] = len(out)
		out = append(out, change)
	}
	return out
}
