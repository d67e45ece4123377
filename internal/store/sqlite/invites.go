package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/warroomops/warroom-server/internal/domain"
	"github.com/warroomops/warroom-server/internal/store"
)

// inviteColumns is the ordered list of columns selected in invite queries.
// Must match the scan order in scanInvite.
const inviteColumns = `id, code, alliance_id, created_by, expires_at,
	max_uses, uses, revoked, created_at, updated_at`

func scanInvite(sc scanner) (*domain.Invite, error) {
	var (
		inv       domain.Invite
		expiresAt sql.NullString
		revoked   int
		createdAt string
		updatedAt string
	)

	err := sc.Scan(
		&inv.ID,
		&inv.Code,
		&inv.AllianceID,
		&inv.CreatedBy,
		&expiresAt,
		&inv.MaxUses,
		&inv.Uses,
		&revoked,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	inv.Revoked = revoked == 1
	if inv.ExpiresAt, err = parseNullableTime(expiresAt); err != nil {
		return nil, err
	}
	if inv.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if inv.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &inv, nil
}

func getInviteBy(ctx context.Context, q querier, column, value string) (*domain.Invite, error) {
	row := q.QueryRowContext(ctx, `SELECT `+inviteColumns+` FROM invites WHERE `+column+` = ?`, value)

	inv, err := scanInvite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// CreateInvite inserts a new invite.
// Returns store.ErrAlreadyExists if the code is already taken.
func (s *Store) CreateInvite(ctx context.Context, invite *domain.Invite) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invites (`+inviteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		invite.ID,
		invite.Code,
		invite.AllianceID,
		invite.CreatedBy,
		nullTimeString(invite.ExpiresAt),
		invite.MaxUses,
		invite.Uses,
		boolInt(invite.Revoked),
		formatTime(invite.CreatedAt),
		formatTime(invite.UpdatedAt),
	)
	return mapError(err)
}

// GetInvite retrieves an invite by ID.
// Returns store.ErrNotFound if the invite does not exist.
func (s *Store) GetInvite(ctx context.Context, id string) (*domain.Invite, error) {
	return getInviteBy(ctx, s.db, "id", id)
}

// GetInviteByCode retrieves an invite by its code. The code must already be
// normalized.
// Returns store.ErrNotFound if no invite has that code.
func (s *Store) GetInviteByCode(ctx context.Context, code string) (*domain.Invite, error) {
	return getInviteBy(ctx, s.db, "code", code)
}

// ListInvites returns the alliance's invites, newest first.
func (s *Store) ListInvites(ctx context.Context, allianceID string) ([]*domain.Invite, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+inviteColumns+` FROM invites
		WHERE alliance_id = ?
		ORDER BY created_at DESC, id DESC`,
		allianceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []*domain.Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}

// RevokeInvite marks an invite revoked. Revoking twice is not an error.
// Returns store.ErrNotFound if the invite does not exist.
func (s *Store) RevokeInvite(ctx context.Context, id string, now time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE invites SET revoked = 1, updated_at = ? WHERE id = ?`,
		formatTime(now), id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

// RedeemInvite consumes one use of the invite identified by req.Code and
// enables the caller's membership with domain.JoinRole.
//
// All steps run in one IMMEDIATE transaction:
//
//  1. look up the code (store.ErrNotFound)
//  2. reject terminal invites via Invite.CheckRedeemable
//  3. reject users already enabled here (store.ErrAlreadyMember) or
//     elsewhere (store.ErrActiveElsewhere)
//  4. increment uses only while uses < max_uses; zero rows affected means
//     another redemption won the last use (domain.ErrInviteExhausted)
//  5. insert or re-enable the membership
//
// Nothing is written unless every step succeeds.
func (s *Store) RedeemInvite(ctx context.Context, req store.RedeemRequest) (*store.RedeemResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	inv, err := getInviteBy(ctx, tx, "code", req.Code)
	if err != nil {
		return nil, mapError(err)
	}

	if err := inv.CheckRedeemable(req.Now); err != nil {
		return nil, err
	}

	active, err := activeAllianceOf(ctx, tx, req.UserID)
	switch {
	case err == nil && active.AllianceID == inv.AllianceID:
		return nil, store.ErrAlreadyMember
	case err == nil:
		return nil, store.ErrActiveElsewhere
	case !errors.Is(err, store.ErrNotFound):
		return nil, mapError(err)
	}

	now := formatTime(req.Now)
	result, err := tx.ExecContext(ctx, `
		UPDATE invites SET uses = uses + 1, updated_at = ?
		WHERE id = ?
		  AND uses < max_uses
		  AND revoked = 0
		  AND (expires_at IS NULL OR expires_at > ?)`,
		now, inv.ID, now)
	if err != nil {
		return nil, mapError(fmt.Errorf("consume invite use: %w", err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, domain.ErrInviteExhausted
	}

	previous, err := getMembership(ctx, tx, inv.AllianceID, req.UserID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, mapError(err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO alliance_members (`+memberColumns+`) VALUES (?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT (alliance_id, user_id) DO UPDATE SET
			role = excluded.role,
			enabled = 1,
			updated_at = excluded.updated_at`,
		req.MembershipID,
		inv.AllianceID,
		req.UserID,
		string(domain.JoinRole),
		now,
		now,
	)
	if err != nil {
		return nil, mapError(fmt.Errorf("upsert membership: %w", err))
	}

	membership, err := getMembership(ctx, tx, inv.AllianceID, req.UserID)
	if err != nil {
		return nil, mapError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, mapError(fmt.Errorf("commit redeem: %w", err))
	}

	inv.Uses++
	inv.UpdatedAt = req.Now.UTC()

	s.logger.Debug("invite redeemed",
		"invite_id", inv.ID,
		"alliance_id", inv.AllianceID,
		"user_id", req.UserID,
		"uses", inv.Uses,
		"max_uses", inv.MaxUses,
	)

	return &store.RedeemResult{
		Invite:     inv,
		Membership: membership,
		Rejoined:   previous != nil,
	}, nil
}
