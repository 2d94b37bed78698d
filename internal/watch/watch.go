// Package watch reports filesystem changes to files or directories after a
// quiet period, so a burst of writes results in a single callback.
package watch

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when none is given.
const DefaultDebounce = 500 * time.Millisecond

// Watcher calls a callback when any of the watched paths change.
type Watcher struct {
	name     string
	callback func()
	debounce time.Duration
	filter   func(path string) bool
	watcher  *fsnotify.Watcher

	mu       sync.Mutex
	timer    *time.Timer
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the quiet period. Non-positive values keep
// DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithExtensions limits events to files with one of the given extensions
// (for example ".csv"). Directory watches see every file otherwise.
func WithExtensions(exts ...string) Option {
	return func(w *Watcher) {
		w.filter = func(path string) bool {
			ext := strings.ToLower(filepath.Ext(path))
			for _, e := range exts {
				if ext == e {
					return true
				}
			}
			return false
		}
	}
}

// New starts watching paths. name is used in log lines only.
func New(name string, paths []string, callback func(), opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	for _, p := range paths {
		if err := fw.Add(p); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watching %s: %w", p, err)
		}
	}

	w := &Watcher{
		name:     name,
		callback: callback,
		debounce: DefaultDebounce,
		watcher:  fw,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if w.filter != nil && !w.filter(event.Name) {
				continue
			}
			slog.Debug("watched path changed", "watcher", w.name, "path", event.Name, "op", event.Op.String())
			w.schedule()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("watcher error", "watcher", w.name, "err", err)
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.callback)
}

// Stop stops the watcher. Safe to call multiple times.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		<-w.done
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		err = w.watcher.Close()
	})
	return err
}
