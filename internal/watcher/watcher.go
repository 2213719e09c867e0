// Package watcher rebuilds the remapping pipeline when a refmap or
// mapping file changes on disk. Engines are immutable for their
// lifetime, so a change means fresh instances, not in-place mutation.
package watcher

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"refract/internal/shared/observability"
)

type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	debounce   time.Duration
	limiter    *rate.Limiter
	watched    map[string]bool
	onChange   func([]string)
	callbackMu sync.Mutex

	pending   map[string]time.Time
	pendingMu sync.Mutex
	timer     *time.Timer
}

// New builds a watcher over an explicit set of files. Directories
// containing the files are registered with fsnotify (editors replace
// files rather than writing in place, so watching the file inode alone
// misses most saves); events for unrelated files in those directories
// are dropped. maxRebuildsPerSec caps how often onChange may fire.
func New(files []string, debounce time.Duration, maxRebuildsPerSec float64, onChange func([]string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher: fsw,
		debounce:  debounce,
		limiter:   rate.NewLimiter(rate.Limit(maxRebuildsPerSec), 1),
		watched:   make(map[string]bool, len(files)),
		onChange:  onChange,
		pending:   make(map[string]time.Time),
	}

	dirs := make(map[string]bool)
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			abs = file
		}
		w.watched[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}

	return w, nil
}

func (w *Watcher) Start() {
	go w.run()
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()

			abs, err := filepath.Abs(event.Name)
			if err != nil {
				abs = event.Name
			}
			if !w.watched[abs] {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.scheduleChange(abs)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = time.Now()

	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.debounce, func() {
		w.flushChanges()
	})
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]time.Time)
	w.pendingMu.Unlock()

	if len(paths) == 0 {
		return
	}

	if !w.limiter.Allow() {
		observability.RebuildsThrottledTotal.Inc()
		slog.Debug("rebuild throttled, re-queueing changes", "count", len(paths))
		// Keep the changes pending so the next window picks them up.
		w.pendingMu.Lock()
		now := time.Now()
		for _, path := range paths {
			w.pending[path] = now
		}
		if w.timer != nil {
			w.timer.Stop()
		}
		w.timer = time.AfterFunc(w.debounce, func() {
			w.flushChanges()
		})
		w.pendingMu.Unlock()
		return
	}

	observability.RebuildsTotal.Inc()
	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(paths)
}

func (w *Watcher) Close() error {
	if w.timer != nil {
		w.timer.Stop()
	}
	return w.fsWatcher.Close()
}
