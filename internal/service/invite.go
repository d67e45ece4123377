package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/warroomops/warroom-server/internal/audit"
	"github.com/warroomops/warroom-server/internal/domain"
	domainerrors "github.com/warroomops/warroom-server/internal/errors"
	"github.com/warroomops/warroom-server/internal/id"
	"github.com/warroomops/warroom-server/internal/logger"
	"github.com/warroomops/warroom-server/internal/normalize"
	"github.com/warroomops/warroom-server/internal/policy"
	"github.com/warroomops/warroom-server/internal/store"
)

// RedeemLimiter throttles redeem attempts per user.
// *ratelimit.KeyedRateLimiter implements it.
type RedeemLimiter interface {
	Allow(key string) bool
	RetryAfter(key string) time.Duration
}

// InviteOptions configures code generation and default expiry.
type InviteOptions struct {
	CodeLength int
	// DefaultTTL applies when a request sets no expiry. Zero means none.
	DefaultTTL time.Duration
}

// InviteService issues, redeems and revokes alliance invites.
type InviteService struct {
	core
	limiter RedeemLimiter
	opts    InviteOptions
	newCode func(length int) (string, error)
}

// NewInviteService creates a new invite service. limiter may be nil to
// disable throttling.
func NewInviteService(
	st store.Store,
	pol *policy.Policy,
	journal AuditRecorder,
	limiter RedeemLimiter,
	logger *slog.Logger,
	opts InviteOptions,
) *InviteService {
	if opts.CodeLength < id.MinInviteCodeLength {
		opts.CodeLength = id.DefaultInviteCodeLength
	}
	return &InviteService{
		core:    newCore(st, pol, journal, logger),
		limiter: limiter,
		opts:    opts,
		newCode: id.InviteCode,
	}
}

// IssueInviteRequest contains the data needed to issue an invite.
type IssueInviteRequest struct {
	// MaxUses defaults to 1 when zero.
	MaxUses   int        `json:"max_uses" validate:"gte=0,lte=1000"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// InviteSummary is an invite as shown to alliance members. Code is empty
// for members who may not issue invites themselves.
type InviteSummary struct {
	*domain.Invite
	Status        domain.InviteStatus `json:"status"`
	RemainingUses int                 `json:"remaining_uses"`
}

// RedeemResult describes a successful redemption.
type RedeemResult struct {
	AllianceID string             `json:"alliance_id"`
	Membership *domain.Membership `json:"membership"`
	// Rejoined is true when a previously disabled membership was re-enabled.
	Rejoined bool `json:"rejoined"`
}

// Issue creates an invite for allianceID. Officers only.
// Code collisions are resampled until a free code is found.
func (s *InviteService) Issue(ctx context.Context, actorID, allianceID string, req IssueInviteRequest) (*domain.Invite, error) {
	if _, err := s.authorize(ctx, actorID, allianceID, policy.InviteCreate); err != nil {
		return nil, err
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	now := s.now()
	maxUses := req.MaxUses
	if maxUses == 0 {
		maxUses = 1
	}

	expiresAt := req.ExpiresAt
	if expiresAt == nil && s.opts.DefaultTTL > 0 {
		t := now.Add(s.opts.DefaultTTL)
		expiresAt = &t
	}
	if expiresAt != nil {
		if !expiresAt.After(now) {
			return nil, domainerrors.ValidationWithDetails("validation failed: expires_at",
				map[string]string{"expires_at": "must be in the future"})
		}
		t := expiresAt.UTC()
		expiresAt = &t
	}

	inviteID, err := id.Generate("inv")
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate invite id")
	}

	invite := &domain.Invite{
		Entity:     domain.Entity{ID: inviteID},
		AllianceID: allianceID,
		CreatedBy:  actorID,
		ExpiresAt:  expiresAt,
		MaxUses:    maxUses,
	}
	invite.InitTimestamps(now)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeConflict, "invite issue abandoned")
		}

		code, err := s.newCode(s.opts.CodeLength)
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate invite code")
		}
		invite.Code = code

		err = s.store.CreateInvite(ctx, invite)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrAlreadyExists) {
			return nil, storeError(err, "alliance not found")
		}
		s.logger.Warn("invite code collision, resampling", "alliance_id", allianceID, "attempt", attempt)
	}

	s.logger.Info("invite issued",
		"alliance_id", allianceID,
		"actor_id", actorID,
		"invite_id", invite.ID,
		"code", logger.CodePrefix(invite.Code),
		"max_uses", invite.MaxUses,
	)

	details := map[string]string{"max_uses": strconv.Itoa(invite.MaxUses)}
	if invite.ExpiresAt != nil {
		details["expires_at"] = invite.ExpiresAt.Format(time.RFC3339)
	}
	s.record(ctx, audit.Event{
		AllianceID: allianceID,
		ActorID:    actorID,
		Kind:       audit.InviteIssued,
		TargetID:   invite.ID,
		Details:    details,
	})

	return invite, nil
}

// Redeem joins userID to the invite's alliance as R3.
//
// Failures, checked in this order: INVALID_CODE, REVOKED, EXPIRED,
// EXHAUSTED_USES. A user already active in the same or another alliance gets
// DUPLICATE and consumes no use. Attempts beyond the per-user budget get
// RATE_LIMITED before the code is looked at.
func (s *InviteService) Redeem(ctx context.Context, userID, code string) (*RedeemResult, error) {
	if userID == "" {
		return nil, domainerrors.Unauthorized("a verified user identity is required")
	}

	if s.limiter != nil && !s.limiter.Allow(userID) {
		retry := s.limiter.RetryAfter(userID)
		s.logger.Warn("redeem rate limited", "actor_id", userID, "retry_after", retry)
		return nil, domainerrors.RateLimited("too many redeem attempts, slow down").
			WithDetails(map[string]string{"retry_after_seconds": strconv.Itoa(int(retry.Round(time.Second).Seconds()))})
	}

	code = normalize.InviteCode(code)
	if code == "" {
		return nil, domainerrors.InvalidCode("invite code is required")
	}

	membershipID, err := id.Generate("mem")
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate membership id")
	}

	res, err := s.store.RedeemInvite(ctx, store.RedeemRequest{
		Code:         code,
		UserID:       userID,
		MembershipID: membershipID,
		Now:          s.now(),
	})
	if err != nil {
		mapped := redeemError(err)
		s.logger.Debug("redeem refused",
			"actor_id", userID,
			"code", logger.CodePrefix(code),
			"reason", domainerrors.CodeOf(mapped),
		)
		return nil, mapped
	}

	s.logger.Info("invite redeemed",
		"alliance_id", res.Invite.AllianceID,
		"actor_id", userID,
		"invite_id", res.Invite.ID,
		"uses", res.Invite.Uses,
		"max_uses", res.Invite.MaxUses,
		"rejoined", res.Rejoined,
	)
	s.record(ctx, audit.Event{
		AllianceID: res.Invite.AllianceID,
		ActorID:    userID,
		Kind:       audit.InviteRedeemed,
		TargetID:   res.Invite.ID,
		Details: map[string]string{
			"uses":     strconv.Itoa(res.Invite.Uses),
			"max_uses": strconv.Itoa(res.Invite.MaxUses),
			"rejoined": strconv.FormatBool(res.Rejoined),
		},
	})

	return &RedeemResult{
		AllianceID: res.Invite.AllianceID,
		Membership: res.Membership,
		Rejoined:   res.Rejoined,
	}, nil
}

func redeemError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.InvalidCode("no invite with that code")
	case errors.Is(err, domain.ErrInviteRevoked):
		return domainerrors.Revoked("invite has been revoked")
	case errors.Is(err, domain.ErrInviteExpired):
		return domainerrors.Expired("invite has expired")
	case errors.Is(err, domain.ErrInviteExhausted):
		return domainerrors.ExhaustedUses("invite has no uses left")
	default:
		return storeError(err, "no invite with that code")
	}
}

// Revoke marks an invite revoked. Officers of the invite's alliance only.
// Revoking a revoked invite succeeds.
func (s *InviteService) Revoke(ctx context.Context, actorID, inviteID string) (*domain.Invite, error) {
	if actorID == "" {
		return nil, domainerrors.Unauthorized("a verified user identity is required")
	}
	invite, err := s.store.GetInvite(ctx, inviteID)
	if err != nil {
		return nil, storeError(err, "invite not found")
	}
	if _, err := s.authorize(ctx, actorID, invite.AllianceID, policy.InviteRevoke); err != nil {
		return nil, err
	}
	if invite.Revoked {
		return invite, nil
	}

	now := s.now()
	if err := s.store.RevokeInvite(ctx, inviteID, now); err != nil {
		return nil, storeError(err, "invite not found")
	}
	invite.Revoked = true
	invite.Touch(now)

	s.logger.Info("invite revoked",
		"alliance_id", invite.AllianceID,
		"actor_id", actorID,
		"invite_id", invite.ID,
	)
	s.record(ctx, audit.Event{
		AllianceID: invite.AllianceID,
		ActorID:    actorID,
		Kind:       audit.InviteRevoked,
		TargetID:   invite.ID,
	})
	return invite, nil
}

// ListInvites returns the alliance's invites, newest first, with their
// current status. Codes are only shown to members who may issue invites.
func (s *InviteService) ListInvites(ctx context.Context, actorID, allianceID string) ([]InviteSummary, error) {
	m, err := s.authorize(ctx, actorID, allianceID, policy.InviteView)
	if err != nil {
		return nil, err
	}

	invites, err := s.store.ListInvites(ctx, allianceID)
	if err != nil {
		return nil, storeError(err, "alliance not found")
	}

	showCodes := s.policy.Allowed(m.Role, policy.InviteCreate)
	now := s.now()
	out := make([]InviteSummary, 0, len(invites))
	for _, inv := range invites {
		if !showCodes {
			inv.Code = ""
		}
		out = append(out, InviteSummary{
			Invite:        inv,
			Status:        inv.Status(now),
			RemainingUses: inv.RemainingUses(),
		})
	}
	return out, nil
}
