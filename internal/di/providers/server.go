package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/listenupapp/booktable/internal/api"
	"github.com/listenupapp/booktable/internal/booktable"
	"github.com/listenupapp/booktable/internal/config"
	"github.com/listenupapp/booktable/internal/logger"
	"github.com/listenupapp/booktable/internal/ratelimit"
)

// RateLimiterHandle wraps the per-client API limiter. Limiter is nil when
// rate limiting is disabled.
type RateLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *RateLimiterHandle) Shutdown() error {
	if h.KeyedRateLimiter != nil {
		h.Stop()
	}
	return nil
}

// ProvideRateLimiter provides the per-client API rate limiter.
func ProvideRateLimiter(i do.Injector) (*RateLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	if cfg.RateLimit.RPS == 0 {
		return &RateLimiterHandle{}, nil
	}
	return &RateLimiterHandle{
		KeyedRateLimiter: ratelimit.New(float64(cfg.RateLimit.RPS), cfg.RateLimit.Burst),
	}, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	controller := do.MustInvoke[*booktable.Controller](i)
	loaderHandle := do.MustInvoke[*LoaderHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	limiterHandle := do.MustInvoke[*RateLimiterHandle](i)

	services := &api.Services{
		Controller: controller,
		Catalog:    loaderHandle.Loader,
		Events:     sseHandle.Manager,
	}
	handler := api.NewServer(services, cfg.Server.CORSOrigins, limiterHandle.KeyedRateLimiter, log.WithComponent("api").Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
