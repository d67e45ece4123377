// Package store defines the persistence interface for the alliance core.
package store

import (
	"context"
	"time"

	"github.com/warroomops/warroom-server/internal/domain"
)

// Store defines every persistence operation the services need.
//
// Implementations must make each method atomic. RedeemInvite in particular
// must run as one isolated transaction: two concurrent calls for a code with
// one remaining use may not both succeed.
type Store interface {
	Close() error
	SetSearchIndexer(indexer SearchIndexer)

	// Alliances
	CreateAlliance(ctx context.Context, alliance *domain.Alliance, founder *domain.Membership) error
	GetAlliance(ctx context.Context, id string) (*domain.Alliance, error)

	// Memberships
	GetMembership(ctx context.Context, allianceID, userID string) (*domain.Membership, error)
	GetActiveMembership(ctx context.Context, allianceID, userID string) (*domain.Membership, error)
	ListMembers(ctx context.Context, allianceID string) ([]*domain.Membership, error)
	SetMemberRole(ctx context.Context, allianceID, userID string, role domain.Role, now time.Time) error
	DisableMember(ctx context.Context, allianceID, userID string, now time.Time) error

	// Invites
	CreateInvite(ctx context.Context, invite *domain.Invite) error
	GetInvite(ctx context.Context, id string) (*domain.Invite, error)
	GetInviteByCode(ctx context.Context, code string) (*domain.Invite, error)
	ListInvites(ctx context.Context, allianceID string) ([]*domain.Invite, error)
	RevokeInvite(ctx context.Context, id string, now time.Time) error
	RedeemInvite(ctx context.Context, req RedeemRequest) (*RedeemResult, error)

	// Players
	AddPlayer(ctx context.Context, player *domain.Player) (reactivated bool, err error)
	GetPlayer(ctx context.Context, id string) (*domain.Player, error)
	ListActivePlayers(ctx context.Context, allianceID string) ([]*domain.Player, error)
	ListAllActivePlayers(ctx context.Context) ([]*domain.Player, error)
	DeactivatePlayer(ctx context.Context, allianceID, playerID string, now time.Time) (*domain.Player, error)

	// VS ledger
	UpsertVSWeek(ctx context.Context, week *domain.VSWeek) error
	GetVSWeek(ctx context.Context, allianceID, weekStart string) (*domain.VSWeek, error)
	FindVSWeekCovering(ctx context.Context, allianceID, day string) (*domain.VSWeek, error)
	UpsertVSEntry(ctx context.Context, entry *domain.VSEntry) error
	GetVSEntry(ctx context.Context, playerID, gameDay string) (*domain.VSEntry, error)
	ListDayStandings(ctx context.Context, allianceID, gameDay string) ([]domain.DayStanding, error)
}

// RedeemRequest carries everything RedeemInvite needs. MembershipID is used
// only when the user has never belonged to the alliance.
type RedeemRequest struct {
	Code         string
	UserID       string
	MembershipID string
	Now          time.Time
}

// RedeemResult is the state after a successful redemption.
type RedeemResult struct {
	Invite     *domain.Invite
	Membership *domain.Membership
	// Rejoined is true when a disabled membership was re-enabled.
	Rejoined bool
}

// SearchIndexer keeps the roster search index in step with player writes.
// The store calls it after a write has committed.
type SearchIndexer interface {
	IndexPlayer(ctx context.Context, player *domain.Player) error
	RemovePlayer(ctx context.Context, playerID string) error
}

// NoopSearchIndexer is a SearchIndexer that does nothing.
type NoopSearchIndexer struct{}

// IndexPlayer implements SearchIndexer.
func (NoopSearchIndexer) IndexPlayer(context.Context, *domain.Player) error { return nil }

// RemovePlayer implements SearchIndexer.
func (NoopSearchIndexer) RemovePlayer(context.Context, string) error { return nil }

// NewNoopSearchIndexer creates a no-op indexer for stores without search.
func NewNoopSearchIndexer() SearchIndexer {
	return NoopSearchIndexer{}
}
