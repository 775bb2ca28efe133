// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mudler/xlog"
)

// =============================================================================
// CONFIG WATCHER
// =============================================================================

// Watcher follows the config file and reports reloads, so a theme
// change in widget.toml takes effect without restarting the widget.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onReload func(*Config)
	debounce time.Duration

	mu      sync.Mutex
	pending bool

	cancel context.CancelFunc
}

// NewWatcher creates a watcher for the config file at path. onReload
// is called with the freshly loaded config after each change that
// still validates; invalid intermediate states are skipped.
func NewWatcher(path string, onReload func(*Config)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		path:     path,
		watcher:  fsw,
		onReload: onReload,
		debounce: 500 * time.Millisecond,
	}, nil
}

// Watch starts following the file until Close is called.
func (w *Watcher) Watch() error {
	// Watch the directory, not the file: editors replace files by
	// rename, which drops a direct file watch.
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	go w.processEvents(ctx)
	return nil
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	if w.cancel != nil {
		w.cancel()
	}
	return w.watcher.Close()
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			xlog.Debug("config watch error", "error", err)
		}
	}
}

// scheduleReload coalesces bursts of write events into one reload.
func (w *Watcher) scheduleReload(ctx context.Context) {
	w.mu.Lock()
	if w.pending {
		w.mu.Unlock()
		return
	}
	w.pending = true
	w.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.debounce):
		}

		w.mu.Lock()
		w.pending = false
		w.mu.Unlock()

		cfg, err := LoadFromPath(w.path)
		if err != nil {
			xlog.Debug("config reload skipped", "error", err)
			return
		}
		w.onReload(cfg)
	}()
}
