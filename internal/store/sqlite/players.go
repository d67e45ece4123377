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

const playerColumns = `id, alliance_id, name, name_key, hq_level, active, created_at, updated_at`

func scanPlayer(sc scanner) (*domain.Player, error) {
	var (
		p         domain.Player
		hqLevel   sql.NullInt64
		active    int
		createdAt string
		updatedAt string
	)
	if err := sc.Scan(&p.ID, &p.AllianceID, &p.Name, &p.NameKey, &hqLevel, &active, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if hqLevel.Valid {
		lvl := int(hqLevel.Int64)
		p.HQLevel = &lvl
	}
	p.Active = active == 1

	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) queryPlayers(ctx context.Context, query string, args ...any) ([]*domain.Player, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []*domain.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// AddPlayer puts a player on the alliance roster.
//
// Names are matched on NameKey. If an active player already uses the key the
// call fails with store.ErrAlreadyExists. If only a deactivated player uses
// it, that player is reactivated in place: player is rewritten with the
// existing ID and creation time, the new display name and HQ level are
// stored, and reactivated is true. Otherwise player is inserted as given.
func (s *Store) AddPlayer(ctx context.Context, player *domain.Player) (reactivated bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, mapError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT `+playerColumns+` FROM players
		WHERE alliance_id = ? AND name_key = ?
		ORDER BY active DESC, updated_at DESC
		LIMIT 1`,
		player.AllianceID, player.NameKey)

	existing, err := scanPlayer(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO players (`+playerColumns+`) VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
			player.ID,
			player.AllianceID,
			player.Name,
			player.NameKey,
			nullInt(player.HQLevel),
			formatTime(player.CreatedAt),
			formatTime(player.UpdatedAt),
		)
		if err != nil {
			return false, mapError(fmt.Errorf("insert player: %w", err))
		}
	case err != nil:
		return false, err
	case existing.Active:
		return false, store.ErrAlreadyExists
	default:
		_, err = tx.ExecContext(ctx, `
			UPDATE players SET name = ?, hq_level = ?, active = 1, updated_at = ?
			WHERE id = ?`,
			player.Name,
			nullInt(player.HQLevel),
			formatTime(player.UpdatedAt),
			existing.ID,
		)
		if err != nil {
			return false, mapError(fmt.Errorf("reactivate player: %w", err))
		}
		player.ID = existing.ID
		player.CreatedAt = existing.CreatedAt
		reactivated = true
	}
	player.Active = true

	if err := tx.Commit(); err != nil {
		return false, mapError(fmt.Errorf("commit player: %w", err))
	}

	if err := s.indexer().IndexPlayer(ctx, player); err != nil {
		s.logger.Warn("failed to index player", "player_id", player.ID, "error", err)
	}
	return reactivated, nil
}

// GetPlayer retrieves a player by ID, active or not.
// Returns store.ErrNotFound if the player does not exist.
func (s *Store) GetPlayer(ctx context.Context, id string) (*domain.Player, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = ?`, id)

	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListActivePlayers returns the alliance's active players ordered by name,
// ignoring case.
func (s *Store) ListActivePlayers(ctx context.Context, allianceID string) ([]*domain.Player, error) {
	return s.queryPlayers(ctx, `
		SELECT `+playerColumns+` FROM players
		WHERE alliance_id = ? AND active = 1
		ORDER BY name_key ASC, id ASC`,
		allianceID)
}

// ListAllActivePlayers returns active players across every alliance. It is
// used to rebuild the search index at start-up.
func (s *Store) ListAllActivePlayers(ctx context.Context) ([]*domain.Player, error) {
	return s.queryPlayers(ctx, `
		SELECT `+playerColumns+` FROM players
		WHERE active = 1
		ORDER BY alliance_id ASC, name_key ASC, id ASC`)
}

// DeactivatePlayer takes a player off the active roster. The row and its VS
// entries are kept. Deactivating twice is not an error.
// Returns store.ErrNotFound if the player is not on this alliance's roster.
func (s *Store) DeactivatePlayer(ctx context.Context, allianceID, playerID string, now time.Time) (*domain.Player, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE players SET active = 0, updated_at = ?
		WHERE id = ? AND alliance_id = ?`,
		formatTime(now), playerID, allianceID)
	if err != nil {
		return nil, mapError(err)
	}
	if err := requireAffected(result); err != nil {
		return nil, err
	}

	if err := s.indexer().RemovePlayer(ctx, playerID); err != nil {
		s.logger.Warn("failed to remove player from index", "player_id", playerID, "error", err)
	}

	return s.GetPlayer(ctx, playerID)
}
