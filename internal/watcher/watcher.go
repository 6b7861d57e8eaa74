// Package watcher reports settled changes of a single file, such as the
// books.json the server is serving.
//
// The parent directory is watched rather than the file itself so that
// editors replacing the file through a rename are still seen.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors one file.
type Watcher struct {
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	path    string
	opts    Options

	pending *pendingChange // guarded by mu
	closed  bool           // guarded by mu
	mu      sync.Mutex

	events   chan Event
	errors   chan error
	done     chan struct{}
	stopOnce sync.Once
}

// pendingChange tracks a file that may still be changing.
type pendingChange struct {
	modTime time.Time
	timer   *time.Timer
	size    int64
}

// New creates a watcher for path. The file does not need to exist yet, but
// its directory does.
func New(path string, logger *slog.Logger, opts Options) (*Watcher, error) {
	opts.setDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		logger:  logger,
		watcher: fw,
		path:    abs,
		opts:    opts,
		events:  make(chan Event, 16),
		errors:  make(chan error, 4),
		done:    make(chan struct{}),
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Start processes file system events until ctx is canceled or Stop is called.
// It blocks.
func (w *Watcher) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.done:
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.sendError(err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}

	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// A rename-into-place follows with a Create, which restarts settling.
		w.cancelPending()
		if _, err := os.Stat(w.path); os.IsNotExist(err) {
			w.emit(Event{Type: EventRemoved, Path: w.path})
		}
	case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Chmod) != 0:
		w.startSettling()
	}
}

// startSettling (re)starts the settle timer for the file.
func (w *Watcher) startSettling() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending != nil {
		w.pending.timer.Stop()
		w.pending = nil
	}

	info, err := os.Stat(w.path)
	if err != nil || info.IsDir() {
		return
	}

	w.pending = &pendingChange{size: info.Size(), modTime: info.ModTime()}
	w.pending.timer = time.AfterFunc(w.opts.SettleDelay, w.checkSettled)
}

// checkSettled emits the change once size and mtime held still for a full delay.
func (w *Watcher) checkSettled() {
	w.mu.Lock()
	defer w.mu.Unlock()

	pending := w.pending
	if pending == nil {
		return
	}

	info, err := os.Stat(w.path)
	if err != nil {
		w.pending = nil
		w.emitLocked(Event{Type: EventRemoved, Path: w.path})
		return
	}

	if info.Size() != pending.size || !info.ModTime().Equal(pending.modTime) {
		pending.size = info.Size()
		pending.modTime = info.ModTime()
		pending.timer = time.AfterFunc(w.opts.SettleDelay, w.checkSettled)
		return
	}

	w.pending = nil
	w.emitLocked(Event{
		Type:    EventModified,
		Path:    w.path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	})
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending != nil {
		w.pending.timer.Stop()
		w.pending = nil
	}
}

func (w *Watcher) emit(event Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.emitLocked(event)
}

// emitLocked sends without blocking past Stop. Caller holds mu.
func (w *Watcher) emitLocked(event Event) {
	if w.closed {
		return
	}
	select {
	case w.events <- event:
	case <-w.done:
	}
}

func (w *Watcher) sendError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.errors <- err:
	default:
		w.logger.Warn("Dropped watcher error", "error", err)
	}
}

// Events returns the channel of settled changes. It is closed by Stop.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of watcher errors. It is closed by Stop.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Stop stops the watcher and releases resources. It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)

		w.mu.Lock()
		if w.pending != nil {
			w.pending.timer.Stop()
			w.pending = nil
		}
		w.mu.Unlock()

		err = w.watcher.Close()

		// Under mu so no sender is mid-send when the channels close.
		w.mu.Lock()
		w.closed = true
		close(w.events)
		close(w.errors)
		w.mu.Unlock()
	})
	return err
}

// Run forwards settled changes to fn until ctx is canceled or the watcher stops.
// Errors are logged.
func (w *Watcher) Run(ctx context.Context, fn func(Event)) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.events:
			if !ok {
				return
			}
			w.logger.Debug("Source changed", "path", event.Path, "type", event.Type.String())
			fn(event)
		case err, ok := <-w.errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", "path", w.path, "error", err)
		}
	}
}
