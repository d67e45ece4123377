package service

import (
	"context"
	"log/slog"

	"github.com/warroomops/warroom-server/internal/audit"
	domainerrors "github.com/warroomops/warroom-server/internal/errors"
	"github.com/warroomops/warroom-server/internal/policy"
	"github.com/warroomops/warroom-server/internal/store"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// AuditLister reads the audit journal. *audit.Journal implements it.
type AuditLister interface {
	List(ctx context.Context, allianceID string, limit int) ([]audit.Event, error)
}

// AuditService exposes an alliance's audit journal to its officers.
type AuditService struct {
	core
	lister AuditLister
}

// NewAuditService creates a new audit service.
func NewAuditService(st store.Store, pol *policy.Policy, lister AuditLister, logger *slog.Logger) *AuditService {
	return &AuditService{
		core:   newCore(st, pol, nil, logger),
		lister: lister,
	}
}

// ListAudit returns the alliance's most recent events, newest first.
// Officers only. A zero limit means the default of 50.
func (s *AuditService) ListAudit(ctx context.Context, actorID, allianceID string, limit int) ([]audit.Event, error) {
	if _, err := s.authorize(ctx, actorID, allianceID, policy.AuditView); err != nil {
		return nil, err
	}
	if limit < 0 || limit > maxAuditLimit {
		return nil, domainerrors.Validationf("limit must be between 0 and %d", maxAuditLimit)
	}
	if limit == 0 {
		limit = defaultAuditLimit
	}

	events, err := s.lister.List(ctx, allianceID, limit)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "read audit journal")
	}
	if events == nil {
		events = []audit.Event{}
	}
	return events, nil
}
