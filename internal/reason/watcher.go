package reason

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher keeps a registry in sync with an external table file. It
// watches the file's directory (editors replace files by rename, which
// drops a watch placed on the file itself), debounces rapid saves, and
// swaps in a freshly loaded registry once writes settle. A failed
// reload keeps the previous registry active.
//
// One-shot tools load the table once and never need this; it exists
// for long-lived embedders such as a GUI session.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	path        string
	log         *zap.Logger
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	current atomic.Pointer[Registry]

	// OnSwap, when set, is called with each newly loaded registry.
	OnSwap func(*Registry)
}

// NewWatcher loads the table once and prepares a watcher for it. The
// logger may be nil.
func NewWatcher(path string, log *zap.Logger) (*Watcher, error) {
	reg, err := LoadTable(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	w := &Watcher{
		watcher:     fsw,
		path:        filepath.Clean(path),
		log:         log,
		debounceMap: make(map[string]time.Time),
		debounceDur: 300 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
	w.current.Store(reg)
	return w, nil
}

// Current returns the most recently loaded registry.
func (w *Watcher) Current() *Registry {
	return w.current.Load()
}

// Start begins watching. Non-blocking; the event loop runs in its own
// goroutine until Stop or context cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	w.log.Debug("reason table watcher started", zap.String("path", w.path))

	go w.run(ctx)
	return nil
}

// Stop halts the event loop, if running, and closes the underlying
// watcher. Safe to call more than once; the watcher cannot be
// restarted afterwards.
func (w *Watcher) Stop() {
	w.mu.Lock()
	wasRunning := w.running
	w.running = false
	w.mu.Unlock()

	if wasRunning {
		close(w.stopCh)
		<-w.doneCh
	}

	if err := w.watcher.Close(); err != nil {
		w.log.Warn("failed to close reason table watcher", zap.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("reason table watch error", zap.Error(err))
		case <-ticker.C:
			w.reloadSettled()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}
	w.mu.Lock()
	w.debounceMap[w.path] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) reloadSettled() {
	w.mu.Lock()
	now := time.Now()
	due := false
	if at, ok := w.debounceMap[w.path]; ok && now.Sub(at) >= w.debounceDur {
		delete(w.debounceMap, w.path)
		due = true
	}
	w.mu.Unlock()
	if !due {
		return
	}
	w.ReloadNow()
}

// ReloadNow loads the table immediately, bypassing the debounce. The
// previous registry stays active when loading fails.
func (w *Watcher) ReloadNow() {
	reg, err := LoadTable(w.path)
	if err != nil {
		w.log.Warn("reason table reload failed, keeping previous table",
			zap.String("path", w.path), zap.Error(err))
		return
	}
	w.current.Store(reg)
	w.log.Info("reason table reloaded",
		zap.String("path", w.path), zap.String("version", reg.Version()))
	if w.OnSwap != nil {
		w.OnSwap(reg)
	}
}
