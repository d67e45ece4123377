// Package service implements the alliance core's commands and queries.
//
// Every entry point takes the verified identity of its caller. Mutations ask
// the role policy first, then touch storage, then append an audit event.
// Errors returned from this package are always *domainerrors.Error.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/warroomops/warroom-server/internal/audit"
	"github.com/warroomops/warroom-server/internal/domain"
	domainerrors "github.com/warroomops/warroom-server/internal/errors"
	"github.com/warroomops/warroom-server/internal/policy"
	"github.com/warroomops/warroom-server/internal/store"
	"github.com/warroomops/warroom-server/internal/validation"
)

// validate is a shared validator instance for request validation.
var validate = validation.New()

// AuditRecorder appends audit events. *audit.Journal implements it.
type AuditRecorder interface {
	Record(ctx context.Context, ev audit.Event) error
}

// core carries what every service needs.
type core struct {
	store   store.Store
	policy  *policy.Policy
	journal AuditRecorder
	logger  *slog.Logger
	now     func() time.Time
}

func newCore(st store.Store, pol *policy.Policy, journal AuditRecorder, logger *slog.Logger) core {
	if logger == nil {
		logger = slog.Default()
	}
	return core{
		store:   st,
		policy:  pol,
		journal: journal,
		logger:  logger,
		now:     time.Now,
	}
}

// SetClock replaces the time source. Used by tests.
func (c *core) SetClock(now func() time.Time) {
	c.now = now
}

// authorize resolves the actor's enabled membership in allianceID and checks
// it against the policy.
func (c *core) authorize(ctx context.Context, actorID, allianceID string, act policy.Action) (*domain.Membership, error) {
	if actorID == "" {
		return nil, domainerrors.Unauthorized("a verified user identity is required")
	}
	if allianceID == "" {
		return nil, domainerrors.Validation("alliance_id is required")
	}

	m, err := c.store.GetActiveMembership(ctx, allianceID, actorID)
	if errors.Is(err, store.ErrNotFound) {
		c.logger.Debug("refused non-member", "alliance_id", allianceID, "actor_id", actorID, "action", act)
		return nil, domainerrors.PermissionDenied("not an active member of this alliance")
	}
	if err != nil {
		return nil, storeError(err, "membership not found")
	}

	if err := c.policy.Authorize(m.Role, act); err != nil {
		c.logger.Debug("refused by policy", "alliance_id", allianceID, "actor_id", actorID, "role", m.Role, "action", act)
		return nil, err
	}
	return m, nil
}

// record appends an audit event. The mutation has already committed, so a
// journal failure is logged rather than returned.
func (c *core) record(ctx context.Context, ev audit.Event) {
	if c.journal == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = c.now()
	}
	if err := c.journal.Record(ctx, ev); err != nil {
		c.logger.Error("failed to record audit event",
			"kind", ev.Kind,
			"alliance_id", ev.AllianceID,
			"error", err,
		)
	}
}

// storeError translates store sentinels into domain errors. notFound is the
// message used for store.ErrNotFound.
func storeError(err error, notFound string) error {
	var domainErr *domainerrors.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFound(notFound)
	case errors.Is(err, store.ErrBusy):
		return domainerrors.Wrap(err, domainerrors.CodeConflict, "alliance data is busy, try again")
	case errors.Is(err, store.ErrAlreadyMember):
		return domainerrors.Duplicate("already an active member of this alliance")
	case errors.Is(err, store.ErrActiveElsewhere):
		return domainerrors.Duplicate("already an active member of another alliance")
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.Duplicate("already exists")
	default:
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "storage failure")
	}
}
