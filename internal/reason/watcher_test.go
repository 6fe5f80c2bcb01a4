package reason

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestWatcherLoadsInitialTable(t *testing.T) {
	path := writeTable(t, `
[codes.layer_muted]
detail = "first revision"
`)
	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	e, err := w.Current().Lookup(LayerMuted)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if e.Detail != "first revision" {
		t.Errorf("detail = %q, want first revision", e.Detail)
	}
}

func TestReloadNowSwapsRegistry(t *testing.T) {
	path := writeTable(t, `
[codes.layer_muted]
detail = "first revision"
`)
	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	swapped := 0
	w.OnSwap = func(*Registry) { swapped++ }

	if err := os.WriteFile(path, []byte(`
[codes.layer_muted]
detail = "second revision"
`), 0o644); err != nil {
		t.Fatalf("rewrite table: %v", err)
	}
	w.ReloadNow()

	e, err := w.Current().Lookup(LayerMuted)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if e.Detail != "second revision" {
		t.Errorf("detail = %q, want second revision", e.Detail)
	}
	if swapped != 1 {
		t.Errorf("OnSwap called %d times, want 1", swapped)
	}
}

func TestReloadNowKeepsPreviousOnError(t *testing.T) {
	path := writeTable(t, `
[codes.layer_muted]
detail = "good"
`)
	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte(`codes = ][`), 0o644); err != nil {
		t.Fatalf("rewrite table: %v", err)
	}
	w.ReloadNow()

	e, err := w.Current().Lookup(LayerMuted)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if e.Detail != "good" {
		t.Errorf("detail = %q, want the previous table to survive", e.Detail)
	}
}

func TestWatcherPicksUpWrites(t *testing.T) {
	path := writeTable(t, `
[codes.layer_muted]
detail = "first revision"
`)
	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte(`
[codes.layer_muted]
detail = "second revision"
`), 0o644); err != nil {
		t.Fatalf("rewrite table: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		e, err := w.Current().Lookup(LayerMuted)
		if err != nil {
			t.Fatalf("Lookup: %v", err)
		}
		if e.Detail == "second revision" {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("watcher did not reload the table within the deadline")
}

func TestStopIsIdempotent(t *testing.T) {
	path := writeTable(t, `version = "v1"`)
	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w.Stop()
	w.Stop()
}
