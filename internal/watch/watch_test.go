package watch

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcherDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32

	w, err := New("test", []string{dir}, func() { calls.Add(1) },
		WithDebounce(50*time.Millisecond), WithExtensions(".csv"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "sales.csv")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("a,b\n1,2\n"), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Errorf("expected exactly 1 debounced callback, got %d", got)
	}
}

func TestWatcherIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32

	w, err := New("test", []string{dir}, func() { calls.Add(1) },
		WithDebounce(20*time.Millisecond), WithExtensions(".csv"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	if got := calls.Load(); got != 0 {
		t.Errorf("expected no callback for .txt, got %d", got)
	}
}

func TestWatcherMissingPath(t *testing.T) {
	_, err := New("test", []string{filepath.Join(t.TempDir(), "absent")}, func() {})
	if err == nil {
		t.Fatal("expected error watching a missing path")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	w, err := New("test", []string{t.TempDir()}, func() {})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestWithDebounceKeepsDefaultForNonPositive(t *testing.T) {
	w := &Watcher{debounce: DefaultDebounce}
	WithDebounce(0)(w)
	WithDebounce(-time.Second)(w)
	if w.debounce != DefaultDebounce {
		t.Errorf("expected %v, got %v", DefaultDebounce, w.debounce)
	}
	WithDebounce(time.Second)(w)
	if w.debounce != time.Second {
		t.Errorf("expected 1s, got %v", w.debounce)
	}
}
