package service

import (
	"context"
	"log/slog"

	"github.com/warroomops/warroom-server/internal/audit"
	"github.com/warroomops/warroom-server/internal/domain"
	domainerrors "github.com/warroomops/warroom-server/internal/errors"
	"github.com/warroomops/warroom-server/internal/id"
	"github.com/warroomops/warroom-server/internal/normalize"
	"github.com/warroomops/warroom-server/internal/policy"
	"github.com/warroomops/warroom-server/internal/store"
)

// AllianceService manages alliances and their memberships.
type AllianceService struct {
	core
}

// NewAllianceService creates a new alliance service.
func NewAllianceService(st store.Store, pol *policy.Policy, journal AuditRecorder, logger *slog.Logger) *AllianceService {
	return &AllianceService{core: newCore(st, pol, journal, logger)}
}

// CreateAllianceRequest contains the data needed to found an alliance.
type CreateAllianceRequest struct {
	Name string `json:"name" validate:"required,notblank,max=64"`
}

// SetRoleRequest changes a member's role.
type SetRoleRequest struct {
	UserID string      `json:"user_id" validate:"required,notblank"`
	Role   domain.Role `json:"role" validate:"required,role"`
}

// CreateAlliance creates an alliance and makes founderID its R5.
// A founder who is already active in another alliance gets DUPLICATE.
func (s *AllianceService) CreateAlliance(ctx context.Context, founderID string, req CreateAllianceRequest) (*domain.Alliance, *domain.Membership, error) {
	if founderID == "" {
		return nil, nil, domainerrors.Unauthorized("a verified user identity is required")
	}
	if err := validate.Validate(req); err != nil {
		return nil, nil, err
	}

	allianceID, err := id.Generate("all")
	if err != nil {
		return nil, nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate alliance id")
	}
	membershipID, err := id.Generate("mem")
	if err != nil {
		return nil, nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate membership id")
	}

	now := s.now()
	alliance := &domain.Alliance{
		Entity:    domain.Entity{ID: allianceID},
		Name:      normalize.DisplayName(req.Name),
		CreatedBy: founderID,
	}
	alliance.InitTimestamps(now)
	founder := domain.NewFounderMembership(membershipID, allianceID, founderID, now)

	if err := s.store.CreateAlliance(ctx, alliance, founder); err != nil {
		return nil, nil, storeError(err, "alliance not found")
	}

	s.logger.Info("alliance created",
		"alliance_id", alliance.ID,
		"actor_id", founderID,
		"name", alliance.Name,
	)
	s.record(ctx, audit.Event{
		AllianceID: alliance.ID,
		ActorID:    founderID,
		Kind:       audit.AllianceCreated,
		TargetID:   alliance.ID,
		Details:    map[string]string{"name": alliance.Name},
	})

	return alliance, founder, nil
}

// GetAlliance returns an alliance by ID.
func (s *AllianceService) GetAlliance(ctx context.Context, allianceID string) (*domain.Alliance, error) {
	a, err := s.store.GetAlliance(ctx, allianceID)
	if err != nil {
		return nil, storeError(err, "alliance not found")
	}
	return a, nil
}

// GetActiveMembership returns userID's enabled membership in allianceID, or
// in whichever alliance the user is active in when allianceID is empty.
// NOT_FOUND means the user has none.
func (s *AllianceService) GetActiveMembership(ctx context.Context, allianceID, userID string) (*domain.Membership, error) {
	if userID == "" {
		return nil, domainerrors.Unauthorized("a verified user identity is required")
	}
	m, err := s.store.GetActiveMembership(ctx, allianceID, userID)
	if err != nil {
		return nil, storeError(err, "no active membership")
	}
	return m, nil
}

// Watch checks that actorID may follow the alliance's live activity stream.
// Any active member may.
func (s *AllianceService) Watch(ctx context.Context, actorID, allianceID string) (*domain.Membership, error) {
	return s.authorize(ctx, actorID, allianceID, policy.MemberView)
}

// ListMembers returns every membership of the alliance, enabled first and
// then by role and join time.
func (s *AllianceService) ListMembers(ctx context.Context, actorID, allianceID string) ([]*domain.Membership, error) {
	if _, err := s.authorize(ctx, actorID, allianceID, policy.MemberView); err != nil {
		return nil, err
	}
	members, err := s.store.ListMembers(ctx, allianceID)
	if err != nil {
		return nil, storeError(err, "alliance not found")
	}
	if members == nil {
		members = []*domain.Membership{}
	}
	return members, nil
}

// SetRole changes another member's role. Only R5 may do this, and not on
// themselves.
func (s *AllianceService) SetRole(ctx context.Context, actorID, allianceID string, req SetRoleRequest) (*domain.Membership, error) {
	if _, err := s.authorize(ctx, actorID, allianceID, policy.MemberManage); err != nil {
		return nil, err
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	if req.UserID == actorID {
		return nil, domainerrors.Validation("you cannot change your own role")
	}

	previous, err := s.store.GetMembership(ctx, allianceID, req.UserID)
	if err != nil {
		return nil, storeError(err, "user is not a member of this alliance")
	}

	if err := s.store.SetMemberRole(ctx, allianceID, req.UserID, req.Role, s.now()); err != nil {
		return nil, storeError(err, "user is not a member of this alliance")
	}

	updated, err := s.store.GetMembership(ctx, allianceID, req.UserID)
	if err != nil {
		return nil, storeError(err, "user is not a member of this alliance")
	}

	s.logger.Info("member role changed",
		"alliance_id", allianceID,
		"actor_id", actorID,
		"user_id", req.UserID,
		"from", previous.Role,
		"to", updated.Role,
	)
	s.record(ctx, audit.Event{
		AllianceID: allianceID,
		ActorID:    actorID,
		Kind:       audit.MemberRoleChanged,
		TargetID:   req.UserID,
		Details:    map[string]string{"from": string(previous.Role), "to": string(updated.Role)},
	})

	return updated, nil
}

// DisableMember soft-deletes another member's membership. R5 only.
// Disabling an already disabled member succeeds.
func (s *AllianceService) DisableMember(ctx context.Context, actorID, allianceID, targetUserID string) error {
	if _, err := s.authorize(ctx, actorID, allianceID, policy.MemberManage); err != nil {
		return err
	}
	if targetUserID == "" {
		return domainerrors.Validation("user_id is required")
	}
	if targetUserID == actorID {
		return domainerrors.Validation("you cannot disable your own membership")
	}

	if err := s.store.DisableMember(ctx, allianceID, targetUserID, s.now()); err != nil {
		return storeError(err, "user is not a member of this alliance")
	}

	s.logger.Info("member disabled",
		"alliance_id", allianceID,
		"actor_id", actorID,
		"user_id", targetUserID,
	)
	s.record(ctx, audit.Event{
		AllianceID: allianceID,
		ActorID:    actorID,
		Kind:       audit.MemberDisabled,
		TargetID:   targetUserID,
	})
	return nil
}
