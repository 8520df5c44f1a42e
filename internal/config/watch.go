// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jmoyers/harness/internal/logging"
	"github.com/jmoyers/harness/internal/watcher"
)

const reloadDebounce = 200 * time.Millisecond

// Watcher watches a config file for changes and reloads it, falling back
// to the last successfully parsed config on any error so a bad edit
// never takes the gateway's live config down.
type Watcher struct {
	mu      sync.Mutex
	current *Config
	loader  *Loader
	path    string

	fsw       *fsnotify.Watcher
	debouncer *watcher.Debouncer
	onReload  func(*Config)

	closeOnce sync.Once
	done      chan struct{}
}

// WatchFile loads path once (last-known-good seed) and then watches it
// for changes, invoking onReload after each successfully-parsed update.
// A parse failure on reload is logged and ignored; the previously loaded
// config remains current.
func WatchFile(path string, onReload func(*Config)) (*Watcher, error) {
	loader := NewLoader()
	cfg, err := loader.LoadWithDefaults(context.Background(), path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		current:   cfg,
		loader:    loader,
		path:      path,
		fsw:       fsw,
		debouncer: watcher.NewDebouncer(reloadDebounce),
		onReload:  onReload,
		done:      make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Current returns the most recently successfully loaded config.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

func (w *Watcher) run() {
	log := logging.WithComponent("config")
	absPath, _ := filepath.Abs(w.path)

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			evAbs, _ := filepath.Abs(ev.Name)
			if evAbs != absPath {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.scheduleReload()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("config watcher error")

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.debouncer.Debounce(w.path, w.reload)
}

func (w *Watcher) reload() {
	log := logging.WithComponent("config")
	cfg, err := w.loader.LoadWithDefaults(context.Background(), w.path)
	if err != nil {
		log.Warn().Err(err).Str("path", w.path).Msg("config reload failed, keeping last-known-good")
		return
	}

	w.mu.Lock()
	w.current = cfg
	onReload := w.onReload
	w.mu.Unlock()

	log.Info().Str("path", w.path).Msg("config reloaded")
	if onReload != nil {
		onReload(cfg)
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
		w.fsw.Close()
		w.debouncer.Stop()
	})
	return nil
}
