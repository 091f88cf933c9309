package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestRunFiresOnWriteAndStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	var calls, running, overlapped atomic.Int32
	action := func(ctx context.Context, got string) error {
		if running.Add(1) > 1 {
			overlapped.Store(1)
		}
		defer running.Add(-1)
		if got != path {
			t.Errorf("action path = %q, want %q", got, path)
		}
		calls.Add(1)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, path, action, Options{Debounce: 20 * time.Millisecond, RunOnStart: true})
	}()

	waitFor(t, "initial run", func() bool { return calls.Load() == 1 })

	if err := os.WriteFile(path, []byte(`{"trajectories":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "run after write", func() bool { return calls.Load() >= 2 })

	// Unrelated files in the same directory are ignored.
	before := calls.Load()
	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if got := calls.Load(); got != before {
		t.Fatalf("calls after unrelated write = %d, want %d", got, before)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	if overlapped.Load() != 0 {
		t.Fatal("actions overlapped")
	}
}

func TestRunFollowsRenameReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = Run(ctx, path, func(context.Context, string) error {
			calls.Add(1)
			return nil
		}, Options{Debounce: 20 * time.Millisecond})
	}()
	// Give the watcher time to register before replacing the file.
	time.Sleep(100 * time.Millisecond)

	tmp := filepath.Join(dir, "doc.json.tmp")
	if err := os.WriteFile(tmp, []byte(`{"trajectories":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "run after rename", func() bool { return calls.Load() >= 1 })
}

func TestRunRejectsNilAction(t *testing.T) {
	if err := Run(context.Background(), "doc.json", nil, Options{}); err == nil {
		t.Fatal("Run(nil action) returned nil error")
	}
}
