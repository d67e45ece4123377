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

const memberColumns = `id, alliance_id, user_id, role, enabled, created_at, updated_at`

// querier is the subset of *sql.DB and *sql.Tx used by helpers that run
// either inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanMembership(sc scanner) (*domain.Membership, error) {
	var (
		m         domain.Membership
		role      string
		enabled   int
		createdAt string
		updatedAt string
	)
	if err := sc.Scan(&m.ID, &m.AllianceID, &m.UserID, &role, &enabled, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	m.Role = domain.Role(role)
	m.Enabled = enabled == 1

	var err error
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if m.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func insertMembership(ctx context.Context, q querier, m *domain.Membership) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO alliance_members (`+memberColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID,
		m.AllianceID,
		m.UserID,
		string(m.Role),
		boolInt(m.Enabled),
		formatTime(m.CreatedAt),
		formatTime(m.UpdatedAt),
	)
	if err != nil {
		return mapError(fmt.Errorf("insert membership: %w", err))
	}
	return nil
}

func getMembership(ctx context.Context, q querier, allianceID, userID string) (*domain.Membership, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM alliance_members WHERE alliance_id = ? AND user_id = ?`,
		allianceID, userID)

	m, err := scanMembership(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// activeAllianceOf returns the enabled membership of userID in any alliance.
func activeAllianceOf(ctx context.Context, q querier, userID string) (*domain.Membership, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM alliance_members WHERE user_id = ? AND enabled = 1`,
		userID)

	m, err := scanMembership(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// GetMembership returns the membership of userID in allianceID whether or
// not it is enabled. Returns store.ErrNotFound if the user never joined.
func (s *Store) GetMembership(ctx context.Context, allianceID, userID string) (*domain.Membership, error) {
	return getMembership(ctx, s.db, allianceID, userID)
}

// GetActiveMembership returns the enabled membership of userID. When
// allianceID is empty the user's single active alliance is returned.
// Returns store.ErrNotFound if there is none.
func (s *Store) GetActiveMembership(ctx context.Context, allianceID, userID string) (*domain.Membership, error) {
	if allianceID == "" {
		return activeAllianceOf(ctx, s.db, userID)
	}

	m, err := getMembership(ctx, s.db, allianceID, userID)
	if err != nil {
		return nil, err
	}
	if !m.Enabled {
		return nil, store.ErrNotFound
	}
	return m, nil
}

// ListMembers returns every membership of the alliance, enabled first, then
// by role from R5 down, then by join time.
func (s *Store) ListMembers(ctx context.Context, allianceID string) ([]*domain.Membership, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+memberColumns+` FROM alliance_members
		WHERE alliance_id = ?
		ORDER BY enabled DESC, role DESC, created_at ASC, id ASC`,
		allianceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// SetMemberRole changes the role of a membership.
// Returns store.ErrNotFound if the user has no membership in the alliance.
func (s *Store) SetMemberRole(ctx context.Context, allianceID, userID string, role domain.Role, now time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE alliance_members SET role = ?, updated_at = ?
		WHERE alliance_id = ? AND user_id = ?`,
		string(role), formatTime(now), allianceID, userID)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

// DisableMember soft-deletes a membership. Disabling twice is not an error.
// Returns store.ErrNotFound if the user has no membership in the alliance.
func (s *Store) DisableMember(ctx context.Context, allianceID, userID string, now time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE alliance_members SET enabled = 0, updated_at = ?
		WHERE alliance_id = ? AND user_id = ?`,
		formatTime(now), allianceID, userID)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
