package domain

import (
	"errors"
	"time"
)

// Redemption failures, reported by CheckRedeemable in priority order.
var (
	ErrInviteRevoked   = errors.New("invite revoked")
	ErrInviteExpired   = errors.New("invite expired")
	ErrInviteExhausted = errors.New("invite exhausted")
)

// InviteStatus is the lifecycle state of an invite.
// Active is the only non-terminal state.
type InviteStatus string

// Invite states.
const (
	InviteActive    InviteStatus = "active"
	InviteRevoked   InviteStatus = "revoked"
	InviteExpired   InviteStatus = "expired"
	InviteExhausted InviteStatus = "exhausted"
)

// Invite grants up to MaxUses users the right to join an alliance.
type Invite struct {
	Entity
	Code       string     `json:"code"`
	AllianceID string     `json:"alliance_id"`
	CreatedBy  string     `json:"created_by"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	MaxUses    int        `json:"max_uses"`
	Uses       int        `json:"uses"`
	Revoked    bool       `json:"revoked"`
}

// IsExpired reports whether the invite has an expiry at or before now.
func (i *Invite) IsExpired(now time.Time) bool {
	return i.ExpiresAt != nil && !now.Before(*i.ExpiresAt)
}

// IsExhausted reports whether every use has been consumed.
func (i *Invite) IsExhausted() bool {
	return i.Uses >= i.MaxUses
}

// RemainingUses returns how many more redemptions the invite allows.
func (i *Invite) RemainingUses() int {
	if i.IsExhausted() {
		return 0
	}
	return i.MaxUses - i.Uses
}

// CheckRedeemable returns nil when the invite can be redeemed at now.
// Terminal states are checked in a fixed order: revoked, then expired, then
// exhausted. A revoked invite that is also expired always reports revoked.
func (i *Invite) CheckRedeemable(now time.Time) error {
	switch {
	case i.Revoked:
		return ErrInviteRevoked
	case i.IsExpired(now):
		return ErrInviteExpired
	case i.IsExhausted():
		return ErrInviteExhausted
	default:
		return nil
	}
}

// Status returns the invite state at now, using the same priority as
// CheckRedeemable.
func (i *Invite) Status(now time.Time) InviteStatus {
	switch i.CheckRedeemable(now) {
	case ErrInviteRevoked:
		return InviteRevoked
	case ErrInviteExpired:
		return InviteExpired
	case ErrInviteExhausted:
		return InviteExhausted
	default:
		return InviteActive
	}
}
