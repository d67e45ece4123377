// Package providers contains dependency injection providers for the WarRoom server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/warroomops/warroom-server/internal/config"
	"github.com/warroomops/warroom-server/internal/logger"
)

// ProvideConfig loads configuration from flags, environment and .env.
// Tests override it with do.OverrideValue.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting WarRoom server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"port", cfg.Server.Port,
		"database", cfg.Database.Path,
		"audit", cfg.Audit.Path,
		"search_enabled", cfg.Search.Enabled,
		"identity_issuer", cfg.Identity.Issuer,
		"invite_code_length", cfg.Invites.CodeLength,
	)

	return log, nil
}
