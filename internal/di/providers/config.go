// Package providers contains dependency injection providers for the book table server.
package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/listenupapp/booktable/internal/config"
	"github.com/listenupapp/booktable/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig(os.Args[1:])
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting book table server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"source", cfg.Source.Location,
		"filter_mode", cfg.Table.FilterMode,
	)

	return log, nil
}
