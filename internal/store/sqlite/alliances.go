package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/warroomops/warroom-server/internal/domain"
	"github.com/warroomops/warroom-server/internal/store"
)

const allianceColumns = `id, name, created_by, created_at, updated_at`

func scanAlliance(sc scanner) (*domain.Alliance, error) {
	var (
		a         domain.Alliance
		createdAt string
		updatedAt string
	)
	if err := sc.Scan(&a.ID, &a.Name, &a.CreatedBy, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAlliance inserts the alliance and its founder's membership in one
// transaction. Returns store.ErrActiveElsewhere if the founder is already
// enabled in another alliance.
func (s *Store) CreateAlliance(ctx context.Context, alliance *domain.Alliance, founder *domain.Membership) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	if _, err := activeAllianceOf(ctx, tx, founder.UserID); err == nil {
		return store.ErrActiveElsewhere
	} else if !errors.Is(err, store.ErrNotFound) {
		return mapError(err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO alliances (`+allianceColumns+`) VALUES (?, ?, ?, ?, ?)`,
		alliance.ID,
		alliance.Name,
		alliance.CreatedBy,
		formatTime(alliance.CreatedAt),
		formatTime(alliance.UpdatedAt),
	)
	if err != nil {
		return mapError(fmt.Errorf("insert alliance: %w", err))
	}

	if err := insertMembership(ctx, tx, founder); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return store.ErrActiveElsewhere
		}
		return err
	}

	return mapError(tx.Commit())
}

// GetAlliance retrieves an alliance by ID.
// Returns store.ErrNotFound if it does not exist.
func (s *Store) GetAlliance(ctx context.Context, id string) (*domain.Alliance, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+allianceColumns+` FROM alliances WHERE id = ?`, id)

	a, err := scanAlliance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}
