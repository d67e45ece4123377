package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/warroomops/warroom-server/internal/audit"
	"github.com/warroomops/warroom-server/internal/domain"
	domainerrors "github.com/warroomops/warroom-server/internal/errors"
	"github.com/warroomops/warroom-server/internal/id"
	"github.com/warroomops/warroom-server/internal/policy"
	"github.com/warroomops/warroom-server/internal/store"
)

// LedgerService records daily VS scores and weekly policy.
type LedgerService struct {
	core
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(st store.Store, pol *policy.Policy, journal AuditRecorder, logger *slog.Logger) *LedgerService {
	return &LedgerService{core: newCore(st, pol, journal, logger)}
}

// SetWeekRequest sets the policy for the week starting at WeekStart.
type SetWeekRequest struct {
	WeekStart string          `json:"week_start" validate:"required,gameday"`
	WeekType  domain.WeekType `json:"week_type" validate:"required,weektype"`
	// GraceDays defaults to domain.DefaultGraceDays when nil.
	GraceDays *int `json:"grace_days,omitempty" validate:"omitempty,gte=0,lte=7"`
	// Locked marks the week as closed for planning. It is informational.
	Locked bool `json:"locked"`
}

// RecordScoreRequest records one player's score for one game day.
type RecordScoreRequest struct {
	PlayerID string `json:"player_id" validate:"required,notblank"`
	GameDay  string `json:"game_day" validate:"required,gameday"`
	Score    int64  `json:"score" validate:"gte=0"`
	Notes    string `json:"notes,omitempty" validate:"max=500"`
}

// DayReport is the leaderboard for one game day.
type DayReport struct {
	GameDay   string `json:"game_day"`
	Threshold int64  `json:"threshold"`
	// Week is the policy covering the day, if one was set.
	Week      *domain.VSWeek       `json:"week,omitempty"`
	Standings []domain.DayStanding `json:"standings"`
}

// SetWeekType stores the week policy, replacing any earlier one for the same
// week. Officers only.
func (s *LedgerService) SetWeekType(ctx context.Context, actorID, allianceID string, req SetWeekRequest) (*domain.VSWeek, error) {
	if _, err := s.authorize(ctx, actorID, allianceID, policy.WeekSet); err != nil {
		return nil, err
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	weekStart, err := domain.ParseDay(req.WeekStart)
	if err != nil {
		return nil, domainerrors.Validation(err.Error())
	}
	grace := domain.DefaultGraceDays
	if req.GraceDays != nil {
		grace = *req.GraceDays
	}

	now := s.now()
	week := &domain.VSWeek{
		AllianceID: allianceID,
		WeekStart:  weekStart,
		WeekType:   req.WeekType,
		GraceDays:  grace,
		UpdatedBy:  actorID,
		UpdatedAt:  now,
	}
	if req.Locked {
		week.LockedAt = &now
		week.LockedBy = actorID
	}

	if err := s.store.UpsertVSWeek(ctx, week); err != nil {
		return nil, storeError(err, "alliance not found")
	}

	s.logger.Info("week type set",
		"alliance_id", allianceID,
		"actor_id", actorID,
		"week_start", weekStart,
		"week_type", week.WeekType,
		"grace_days", grace,
	)
	s.record(ctx, audit.Event{
		AllianceID: allianceID,
		ActorID:    actorID,
		Kind:       audit.WeekTypeSet,
		TargetID:   weekStart,
		Details: map[string]string{
			"week_type":  string(week.WeekType),
			"grace_days": strconv.Itoa(grace),
			"locked":     strconv.FormatBool(req.Locked),
		},
	})
	return week, nil
}

// GetWeek returns the policy stored for exactly weekStart. Any member.
func (s *LedgerService) GetWeek(ctx context.Context, actorID, allianceID, weekStart string) (*domain.VSWeek, error) {
	if _, err := s.authorize(ctx, actorID, allianceID, policy.ScoreView); err != nil {
		return nil, err
	}
	day, err := domain.ParseDay(weekStart)
	if err != nil {
		return nil, domainerrors.Validation(err.Error())
	}
	week, err := s.store.GetVSWeek(ctx, allianceID, day)
	if err != nil {
		return nil, storeError(err, "no policy set for that week")
	}
	return week, nil
}

// RecordScore stores a score for (player, game day), overwriting any earlier
// score for the same key. Officers only. The player must belong to the
// alliance; deactivated players may still have past days corrected.
func (s *LedgerService) RecordScore(ctx context.Context, actorID, allianceID string, req RecordScoreRequest) (*domain.VSEntry, error) {
	if _, err := s.authorize(ctx, actorID, allianceID, policy.ScoreRecord); err != nil {
		return nil, err
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	gameDay, err := domain.ParseDay(req.GameDay)
	if err != nil {
		return nil, domainerrors.Validation(err.Error())
	}

	player, err := s.store.GetPlayer(ctx, req.PlayerID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, storeError(err, "")
	}
	if player == nil || player.AllianceID != allianceID {
		return nil, domainerrors.ValidationWithDetails("validation failed: player_id",
			map[string]string{"player_id": "is not a player of this alliance"})
	}

	entryID, err := id.Generate("vse")
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate entry id")
	}

	entry := &domain.VSEntry{
		Entity:     domain.Entity{ID: entryID},
		AllianceID: allianceID,
		PlayerID:   player.ID,
		GameDay:    gameDay,
		Score:      req.Score,
		CreatedBy:  actorID,
		Notes:      req.Notes,
	}
	entry.InitTimestamps(s.now())

	if err := s.store.UpsertVSEntry(ctx, entry); err != nil {
		return nil, storeError(err, "player not found")
	}

	s.logger.Info("score recorded",
		"alliance_id", allianceID,
		"actor_id", actorID,
		"player_id", player.ID,
		"game_day", gameDay,
		"score", entry.Score,
		"pass", entry.Passed(),
	)
	s.record(ctx, audit.Event{
		AllianceID: allianceID,
		ActorID:    actorID,
		Kind:       audit.ScoreRecorded,
		TargetID:   entry.ID,
		Details: map[string]string{
			"player_id": player.ID,
			"game_day":  gameDay,
			"score":     strconv.FormatInt(entry.Score, 10),
		},
	})
	return entry, nil
}

// ListForDay returns every score recorded for gameDay, highest first, with
// pass flags and the week policy covering the day. Any member.
func (s *LedgerService) ListForDay(ctx context.Context, actorID, allianceID, gameDay string) (*DayReport, error) {
	if _, err := s.authorize(ctx, actorID, allianceID, policy.ScoreView); err != nil {
		return nil, err
	}
	day, err := domain.ParseDay(gameDay)
	if err != nil {
		return nil, domainerrors.Validation(err.Error())
	}

	standings, err := s.store.ListDayStandings(ctx, allianceID, day)
	if err != nil {
		return nil, storeError(err, "alliance not found")
	}

	report := &DayReport{
		GameDay:   day,
		Threshold: domain.DailyMinimum,
		Standings: standings,
	}

	week, err := s.store.FindVSWeekCovering(ctx, allianceID, day)
	switch {
	case err == nil:
		report.Week = week
	case !errors.Is(err, store.ErrNotFound):
		return nil, storeError(err, "")
	}
	return report, nil
}
