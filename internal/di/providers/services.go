package providers

import (
	"github.com/samber/do/v2"

	"github.com/warroomops/warroom-server/internal/config"
	"github.com/warroomops/warroom-server/internal/logger"
	"github.com/warroomops/warroom-server/internal/policy"
	"github.com/warroomops/warroom-server/internal/ratelimit"
	"github.com/warroomops/warroom-server/internal/service"
	"github.com/warroomops/warroom-server/internal/sse"
)

// ProvidePolicy provides the role policy enforcer.
func ProvidePolicy(i do.Injector) (*policy.Policy, error) {
	return policy.New()
}

// ProvideRedeemLimiter provides the per-user invite redemption limiter.
func ProvideRedeemLimiter(i do.Injector) (*ratelimit.KeyedRateLimiter, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return ratelimit.New(ratelimit.PerMinute(cfg.RateLimit.RedeemPerMinute), cfg.RateLimit.RedeemBurst), nil
}

// ProvideAllianceService provides the alliance and membership service.
func ProvideAllianceService(i do.Injector) (*service.AllianceService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	recorder := do.MustInvoke[*sse.Recorder](i)
	pol := do.MustInvoke[*policy.Policy](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAllianceService(storeHandle.Store, pol, recorder, log.Logger), nil
}

// ProvideInviteService provides the invite service.
func ProvideInviteService(i do.Injector) (*service.InviteService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	recorder := do.MustInvoke[*sse.Recorder](i)
	pol := do.MustInvoke[*policy.Policy](i)
	limiter := do.MustInvoke[*ratelimit.KeyedRateLimiter](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewInviteService(storeHandle.Store, pol, recorder, limiter, log.Logger, service.InviteOptions{
		CodeLength: cfg.Invites.CodeLength,
		DefaultTTL: cfg.Invites.DefaultTTL,
	}), nil
}

// ProvideRosterService provides the roster service.
func ProvideRosterService(i do.Injector) (*service.RosterService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	recorder := do.MustInvoke[*sse.Recorder](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	pol := do.MustInvoke[*policy.Policy](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRosterService(storeHandle.Store, pol, recorder, indexHandle.Searcher(), log.Logger), nil
}

// ProvideLedgerService provides the VS ledger service.
func ProvideLedgerService(i do.Injector) (*service.LedgerService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	recorder := do.MustInvoke[*sse.Recorder](i)
	pol := do.MustInvoke[*policy.Policy](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLedgerService(storeHandle.Store, pol, recorder, log.Logger), nil
}

// ProvideAuditService provides the audit read service.
func ProvideAuditService(i do.Injector) (*service.AuditService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	journal := do.MustInvoke[*JournalHandle](i)
	pol := do.MustInvoke[*policy.Policy](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuditService(storeHandle.Store, pol, journal.Journal, log.Logger), nil
}
