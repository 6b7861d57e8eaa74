package providers

import (
	"context"
	"io"

	"github.com/samber/do/v2"

	"github.com/listenupapp/booktable/internal/booktable"
	"github.com/listenupapp/booktable/internal/config"
	"github.com/listenupapp/booktable/internal/loader"
	"github.com/listenupapp/booktable/internal/logger"
	"github.com/listenupapp/booktable/internal/ratelimit"
	"github.com/listenupapp/booktable/internal/sse"
)

// Outbound limits for http(s) sources, per host.
const (
	sourceFetchRPS   = 1
	sourceFetchBurst = 2
)

// ProvideController provides the book table controller. Changes are
// broadcast to SSE clients.
func ProvideController(i do.Injector) (*booktable.Controller, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	mode, err := booktable.ParseMode(cfg.Table.FilterMode)
	if err != nil {
		return nil, err
	}
	display, err := booktable.ParseDateDisplay(cfg.Table.DateDisplay)
	if err != nil {
		return nil, err
	}

	if mode == booktable.ModeOr {
		log.Warn("Filter mode OR is a legacy mode: a book is shown when any one condition matches",
			"filter_mode", mode)
	}

	return booktable.NewController(booktable.Options{
		Logger:        log.WithComponent("booktable").Logger,
		Mode:          mode,
		DateDisplay:   display,
		Locale:        cfg.Locale(),
		HidePublisher: !cfg.Table.ShowPublisher,
		OnChange: func(change booktable.Change) {
			sseHandle.Emit(sse.NewCatalogEvent(change))
		},
	}), nil
}

// LoaderHandle wraps the loader with shutdown capability.
type LoaderHandle struct {
	*loader.Loader
	limiter *ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *LoaderHandle) Shutdown() error {
	h.limiter.Stop()
	if closer, ok := h.Source().(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// ProvideLoader provides the loader and performs the initial load.
// A failed initial load is not fatal: the server starts empty and health
// reports the error until a reload succeeds.
func ProvideLoader(i do.Injector) (*LoaderHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	controller := do.MustInvoke[*booktable.Controller](i)

	limiter := ratelimit.New(sourceFetchRPS, sourceFetchBurst)
	source, err := loader.NewSource(cfg.Source.Location, loader.Options{
		Limiter:     limiter,
		HTTPTimeout: cfg.Source.HTTPTimeout,
	})
	if err != nil {
		limiter.Stop()
		return nil, err
	}

	l := loader.New(source, controller, log.WithComponent("loader").Logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Source.HTTPTimeout+shutdownTimeout)
	defer cancel()
	if err := l.Load(ctx); err != nil {
		log.Warn("Initial load failed; serving an empty table", "source", source.String(), "error", err)
	} else {
		log.Info("Books loaded from source", "source", source.String(), "count", controller.Len())
	}

	return &LoaderHandle{Loader: l, limiter: limiter}, nil
}
