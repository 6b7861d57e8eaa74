// Package di provides dependency injection configuration for the book table server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/booktable/internal/booktable"
	"github.com/listenupapp/booktable/internal/config"
	"github.com/listenupapp/booktable/internal/di/providers"
	"github.com/listenupapp/booktable/internal/logger"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Events
	do.Provide(injector, providers.ProvideSSEManager)

	// Catalog
	do.Provide(injector, providers.ProvideController)
	do.Provide(injector, providers.ProvideLoader)

	// Workers
	do.Provide(injector, providers.ProvideSourceWatcher)

	// Server
	do.Provide(injector, providers.ProvideRateLimiter)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*booktable.Controller](injector)

	if _, err := do.Invoke[*providers.LoaderHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SourceWatcherHandle](injector); err != nil {
		return err
	}

	_ = do.MustInvoke[*providers.RateLimiterHandle](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
