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

const weekColumns = `alliance_id, week_start, week_type, grace_days, locked_at, locked_by, updated_by, updated_at`

const entryColumns = `id, alliance_id, player_id, game_day, score, created_by, notes, created_at, updated_at`

func scanWeek(sc scanner) (*domain.VSWeek, error) {
	var (
		w         domain.VSWeek
		weekType  string
		lockedAt  sql.NullString
		lockedBy  sql.NullString
		updatedAt string
	)
	if err := sc.Scan(&w.AllianceID, &w.WeekStart, &weekType, &w.GraceDays, &lockedAt, &lockedBy, &w.UpdatedBy, &updatedAt); err != nil {
		return nil, err
	}

	w.WeekType = domain.WeekType(weekType)
	w.LockedBy = lockedBy.String

	var err error
	if w.LockedAt, err = parseNullableTime(lockedAt); err != nil {
		return nil, err
	}
	if w.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

func scanEntry(sc scanner) (*domain.VSEntry, error) {
	var (
		e         domain.VSEntry
		notes     sql.NullString
		createdAt string
		updatedAt string
	)
	if err := sc.Scan(&e.ID, &e.AllianceID, &e.PlayerID, &e.GameDay, &e.Score, &e.CreatedBy, &notes, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	e.Notes = notes.String

	var err error
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// UpsertVSWeek stores the week policy, replacing any previous record for the
// same (alliance, week start).
func (s *Store) UpsertVSWeek(ctx context.Context, week *domain.VSWeek) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vs_weeks (`+weekColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (alliance_id, week_start) DO UPDATE SET
			week_type  = excluded.week_type,
			grace_days = excluded.grace_days,
			locked_at  = excluded.locked_at,
			locked_by  = excluded.locked_by,
			updated_by = excluded.updated_by,
			updated_at = excluded.updated_at`,
		week.AllianceID,
		week.WeekStart,
		string(week.WeekType),
		week.GraceDays,
		nullTimeString(week.LockedAt),
		nullString(week.LockedBy),
		week.UpdatedBy,
		formatTime(week.UpdatedAt),
	)
	return mapError(err)
}

// GetVSWeek returns the policy stored for exactly weekStart.
// Returns store.ErrNotFound if none was set.
func (s *Store) GetVSWeek(ctx context.Context, allianceID, weekStart string) (*domain.VSWeek, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+weekColumns+` FROM vs_weeks WHERE alliance_id = ? AND week_start = ?`,
		allianceID, weekStart)

	w, err := scanWeek(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

// FindVSWeekCovering returns the latest week policy whose seven days include
// day. Returns store.ErrNotFound if no such week was set.
func (s *Store) FindVSWeekCovering(ctx context.Context, allianceID, day string) (*domain.VSWeek, error) {
	d, err := time.Parse(domain.DayLayout, day)
	if err != nil {
		return nil, fmt.Errorf("parse day: %w", err)
	}
	earliest := d.AddDate(0, 0, -6).Format(domain.DayLayout)

	row := s.db.QueryRowContext(ctx, `
		SELECT `+weekColumns+` FROM vs_weeks
		WHERE alliance_id = ? AND week_start <= ? AND week_start >= ?
		ORDER BY week_start DESC
		LIMIT 1`,
		allianceID, day, earliest)

	w, err := scanWeek(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

// UpsertVSEntry stores a score for (player, game day). A second write for the
// same key overwrites score, notes, author and update time; entry is then
// rewritten with the stored ID and creation time.
func (s *Store) UpsertVSEntry(ctx context.Context, entry *domain.VSEntry) error {
	var id, createdAt string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO vs_entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (player_id, game_day) DO UPDATE SET
			score      = excluded.score,
			created_by = excluded.created_by,
			notes      = excluded.notes,
			updated_at = excluded.updated_at
		RETURNING id, created_at`,
		entry.ID,
		entry.AllianceID,
		entry.PlayerID,
		entry.GameDay,
		entry.Score,
		entry.CreatedBy,
		nullString(entry.Notes),
		formatTime(entry.CreatedAt),
		formatTime(entry.UpdatedAt),
	).Scan(&id, &createdAt)
	if err != nil {
		return mapError(fmt.Errorf("upsert vs entry: %w", err))
	}

	entry.ID = id
	if entry.CreatedAt, err = parseTime(createdAt); err != nil {
		return err
	}
	return nil
}

// GetVSEntry returns the entry for (player, game day).
// Returns store.ErrNotFound if no score was recorded.
func (s *Store) GetVSEntry(ctx context.Context, playerID, gameDay string) (*domain.VSEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM vs_entries WHERE player_id = ? AND game_day = ?`,
		playerID, gameDay)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListDayStandings returns one row per recorded score on gameDay, highest
// score first. Ties are ordered by case-folded player name, then player ID.
// Entries of deactivated players are included.
func (s *Store) ListDayStandings(ctx context.Context, allianceID, gameDay string) ([]domain.DayStanding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name, e.score
		FROM vs_entries e
		JOIN players p ON p.id = e.player_id
		WHERE e.alliance_id = ? AND e.game_day = ?
		ORDER BY e.score DESC, p.name_key ASC, p.id ASC`,
		allianceID, gameDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	standings := []domain.DayStanding{}
	for rows.Next() {
		var st domain.DayStanding
		if err := rows.Scan(&st.PlayerID, &st.PlayerName, &st.Score); err != nil {
			return nil, err
		}
		st.Pass = domain.Passes(st.Score)
		standings = append(standings, st)
	}
	return standings, rows.Err()
}
