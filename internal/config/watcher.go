package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the config file when it changes on disk and hands the
// fresh Config to a callback. Editors produce bursts of write events, so
// reloads are debounced.
type Watcher struct {
	path     string
	onReload func(*Config)

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
	pending *time.Timer
}

const reloadDebounce = 250 * time.Millisecond

// NewWatcher creates a watcher for the given config path. The callback
// runs on the watcher goroutine; keep it short.
func NewWatcher(path string, onReload func(*Config)) *Watcher {
	return &Watcher{path: path, onReload: onReload}
}

// Start begins watching. Calling Start on a running watcher is a no-op.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher != nil {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fs watcher: %w", err)
	}

	// Watch the directory, not the file: editors replace files on save,
	// which would orphan a file-level watch.
	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.watcher = fw
	w.done = make(chan struct{})

	go w.loop(fw, w.done)
	return nil
}

func (w *Watcher) loop(fw *fsnotify.Watcher, done chan struct{}) {
	target := filepath.Clean(w.path)
	for {
		select {
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()
		case _, ok := <-fw.Errors:
			if !ok {
				return
			}
		case <-done:
			return
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = time.AfterFunc(reloadDebounce, func() {
		cfg, err := Load(w.path)
		if err != nil {
			// A half-saved file parses as garbage; keep the old config.
			return
		}
		w.onReload(cfg)
	})
}

// Stop tears the watcher down. Safe to call on a stopped watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher == nil {
		return
	}
	close(w.done)
	w.watcher.Close()
	w.watcher = nil
	if w.pending != nil {
		w.pending.Stop()
		w.pending = nil
	}
}
