package store

import (
	"context"
	"log/slog"
	"sync"
)

// Store holds the current dataset snapshot and swaps it on reload.
type Store struct {
	mu      sync.RWMutex
	src     Source
	current *Dataset
	onLoad  func(ds *Dataset, err error)
}

// New creates a Store reading from src. The store serves the sample dataset
// until Load succeeds.
func New(src Source) *Store {
	return &Store{src: src, current: SampleDataset()}
}

// SetOnLoad registers a hook called after every load or reload attempt with
// the resulting snapshot and error.
func (s *Store) SetOnLoad(fn func(ds *Dataset, err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLoad = fn
}

// Source returns the configured source.
func (s *Store) Source() Source {
	return s.src
}

// Snapshot returns the current dataset. Callers must not modify it.
func (s *Store) Snapshot() *Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Load performs the initial load. On failure the sample dataset is installed
// and false is returned.
func (s *Store) Load(ctx context.Context) bool {
	ds, err := Load(ctx, s.src)
	if err != nil {
		slog.Warn("data load failed, serving sample data", "source", s.src.Describe(), "err", err)
		ds = SampleDataset()
	} else {
		slog.Info("data loaded", "source", ds.Source, "fingerprint", short(ds.Fingerprint), "sales", len(ds.Sales))
		logSkipped(ds)
	}

	s.mu.Lock()
	s.current = ds
	hook := s.onLoad
	s.mu.Unlock()

	if hook != nil {
		hook(ds, err)
	}
	return err == nil
}

// Reload re-reads the source. On error the previous snapshot is kept. It
// reports whether the snapshot changed.
func (s *Store) Reload(ctx context.Context) (bool, error) {
	ds, err := Load(ctx, s.src)

	s.mu.Lock()
	hook := s.onLoad
	changed := false
	if err == nil && (s.current == nil || s.current.Fingerprint != ds.Fingerprint) {
		s.current = ds
		changed = true
	}
	s.mu.Unlock()

	switch {
	case err != nil:
		slog.Error("data reload failed, keeping previous snapshot", "source", s.src.Describe(), "err", err)
	case changed:
		slog.Info("data reloaded", "source", ds.Source, "fingerprint", short(ds.Fingerprint))
		logSkipped(ds)
	default:
		slog.Debug("data unchanged", "fingerprint", short(ds.Fingerprint))
	}

	if hook != nil {
		hook(ds, err)
	}
	return changed, err
}

func logSkipped(ds *Dataset) {
	for _, table := range Tables {
		if n := ds.Skipped[table]; n > 0 {
			slog.Warn("skipped malformed rows", "table", table, "rows", n)
		}
	}
}

func short(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
