package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/booktable/internal/config"
	"github.com/listenupapp/booktable/internal/loader"
	"github.com/listenupapp/booktable/internal/logger"
	"github.com/listenupapp/booktable/internal/sse"
	"github.com/listenupapp/booktable/internal/watcher"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Manager.Shutdown(ctx)
	h.cancel()
	return err
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.WithComponent("sse").Logger)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// SourceWatcherHandle wraps the file watcher with shutdown capability.
// Watcher is nil when the source is not a local file or watching is off.
type SourceWatcherHandle struct {
	*watcher.Watcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SourceWatcherHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	h.cancel()
	return h.Watcher.Stop()
}

// ProvideSourceWatcher reloads a file source whenever it changes on disk.
func ProvideSourceWatcher(i do.Injector) (*SourceWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	loaderHandle := do.MustInvoke[*LoaderHandle](i)

	file, ok := loaderHandle.Source().(*loader.FileSource)
	if !cfg.Source.Watch || !ok {
		log.Info("Source watching disabled", "source", loaderHandle.Source().String())
		return &SourceWatcherHandle{}, nil
	}

	w, err := watcher.New(file.Path, log.WithComponent("watcher").Logger, watcher.Options{
		SettleDelay: cfg.Source.SettleDelay,
	})
	if err != nil {
		return nil, err
	}

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := w.Start(ctx); err != nil {
			log.Error("File watcher error", "error", err)
		}
	}()

	go w.Run(ctx, func(event watcher.Event) {
		if event.Type == watcher.EventRemoved {
			log.Warn("Book source removed; keeping the current books", "path", event.Path)
			return
		}
		// Failures are logged by the loader; the previous books stay in place.
		_ = loaderHandle.Load(ctx)
	})

	log.Info("Watching book source", "path", w.Path(), "settle_delay", cfg.Source.SettleDelay)

	return &SourceWatcherHandle{
		Watcher: w,
		cancel:  cancel,
	}, nil
}
