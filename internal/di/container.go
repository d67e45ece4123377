// Package di provides dependency injection configuration for the WarRoom server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/warroomops/warroom-server/internal/api"
	"github.com/warroomops/warroom-server/internal/auth"
	"github.com/warroomops/warroom-server/internal/config"
	"github.com/warroomops/warroom-server/internal/di/providers"
	"github.com/warroomops/warroom-server/internal/logger"
	"github.com/warroomops/warroom-server/internal/policy"
	"github.com/warroomops/warroom-server/internal/ratelimit"
	"github.com/warroomops/warroom-server/internal/service"
	"github.com/warroomops/warroom-server/internal/sse"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideIdentityKey)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideAuditJournal)
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideAuditRecorder)

	// Auth and policy
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvidePolicy)
	do.Provide(injector, providers.ProvideRedeemLimiter)

	// Business services
	do.Provide(injector, providers.ProvideAllianceService)
	do.Provide(injector, providers.ProvideInviteService)
	do.Provide(injector, providers.ProvideRosterService)
	do.Provide(injector, providers.ProvideLedgerService)
	do.Provide(injector, providers.ProvideAuditService)

	// Server
	do.Provide(injector, providers.ProvideAPIServer)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes the storage and service layers. When serve is true
// the HTTP server is started as well.
func Bootstrap(injector *do.RootScope, serve bool) error {
	// Invoke core services to trigger initialization
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.JournalHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*sse.Recorder](injector)
	if _, err := do.Invoke[*auth.TokenService](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*policy.Policy](injector)
	_ = do.MustInvoke[*ratelimit.KeyedRateLimiter](injector)

	// Business services
	_ = do.MustInvoke[*service.AllianceService](injector)
	_ = do.MustInvoke[*service.InviteService](injector)
	_ = do.MustInvoke[*service.RosterService](injector)
	_ = do.MustInvoke[*service.LedgerService](injector)
	_ = do.MustInvoke[*service.AuditService](injector)

	if err := providers.RebuildSearchIndex(injector); err != nil {
		return err
	}

	if !serve {
		return nil
	}

	_ = do.MustInvoke[*api.Server](injector)
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}
	return nil
}
