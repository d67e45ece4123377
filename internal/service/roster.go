package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/warroomops/warroom-server/internal/audit"
	"github.com/warroomops/warroom-server/internal/domain"
	domainerrors "github.com/warroomops/warroom-server/internal/errors"
	"github.com/warroomops/warroom-server/internal/id"
	"github.com/warroomops/warroom-server/internal/normalize"
	"github.com/warroomops/warroom-server/internal/policy"
	"github.com/warroomops/warroom-server/internal/search"
	"github.com/warroomops/warroom-server/internal/store"
)

// PlayerSearcher answers roster searches. *search.RosterIndex implements it.
type PlayerSearcher interface {
	Search(ctx context.Context, allianceID, text string, limit int) ([]search.Hit, error)
	Rebuild(ctx context.Context, players []*domain.Player) error
}

// RosterService manages each alliance's player list.
type RosterService struct {
	core
	searcher PlayerSearcher
}

// NewRosterService creates a new roster service. searcher may be nil, in
// which case searches fall back to a substring scan of the active roster.
func NewRosterService(st store.Store, pol *policy.Policy, journal AuditRecorder, searcher PlayerSearcher, logger *slog.Logger) *RosterService {
	return &RosterService{
		core:     newCore(st, pol, journal, logger),
		searcher: searcher,
	}
}

// AddPlayerRequest contains the data needed to add a player.
type AddPlayerRequest struct {
	Name    string `json:"name" validate:"required,notblank,max=64"`
	HQLevel *int   `json:"hq_level,omitempty" validate:"omitempty,gte=1,lte=99"`
}

// AddPlayer puts a player on the roster. Officers only.
// Names compare case-insensitively among active players. Re-adding the name
// of a deactivated player brings that player back with its history.
func (s *RosterService) AddPlayer(ctx context.Context, actorID, allianceID string, req AddPlayerRequest) (*domain.Player, error) {
	if _, err := s.authorize(ctx, actorID, allianceID, policy.RosterAdd); err != nil {
		return nil, err
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	playerID, err := id.Generate("ply")
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate player id")
	}

	name := normalize.DisplayName(req.Name)
	player := &domain.Player{
		Entity:     domain.Entity{ID: playerID},
		AllianceID: allianceID,
		Name:       name,
		NameKey:    normalize.NameKey(name),
		HQLevel:    req.HQLevel,
		Active:     true,
	}
	player.InitTimestamps(s.now())

	reactivated, err := s.store.AddPlayer(ctx, player)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Duplicatef("an active player named %q already exists", name)
		}
		return nil, storeError(err, "alliance not found")
	}

	kind := audit.PlayerAdded
	if reactivated {
		kind = audit.PlayerReactivated
	}
	s.logger.Info("player added",
		"alliance_id", allianceID,
		"actor_id", actorID,
		"player_id", player.ID,
		"reactivated", reactivated,
	)

	details := map[string]string{"name": player.Name}
	if player.HQLevel != nil {
		details["hq_level"] = strconv.Itoa(*player.HQLevel)
	}
	s.record(ctx, audit.Event{
		AllianceID: allianceID,
		ActorID:    actorID,
		Kind:       kind,
		TargetID:   player.ID,
		Details:    details,
	})

	return player, nil
}

// ListActive returns the alliance's active players by name. Any member.
func (s *RosterService) ListActive(ctx context.Context, actorID, allianceID string) ([]*domain.Player, error) {
	if _, err := s.authorize(ctx, actorID, allianceID, policy.RosterView); err != nil {
		return nil, err
	}
	players, err := s.store.ListActivePlayers(ctx, allianceID)
	if err != nil {
		return nil, storeError(err, "alliance not found")
	}
	if players == nil {
		players = []*domain.Player{}
	}
	return players, nil
}

// Deactivate takes a player off the active roster. Officers only.
// Ledger entries for the player are kept.
func (s *RosterService) Deactivate(ctx context.Context, actorID, allianceID, playerID string) (*domain.Player, error) {
	if _, err := s.authorize(ctx, actorID, allianceID, policy.RosterDeactivate); err != nil {
		return nil, err
	}
	if playerID == "" {
		return nil, domainerrors.Validation("player_id is required")
	}

	player, err := s.store.DeactivatePlayer(ctx, allianceID, playerID, s.now())
	if err != nil {
		return nil, storeError(err, "player not found in this alliance")
	}

	s.logger.Info("player deactivated",
		"alliance_id", allianceID,
		"actor_id", actorID,
		"player_id", playerID,
	)
	s.record(ctx, audit.Event{
		AllianceID: allianceID,
		ActorID:    actorID,
		Kind:       audit.PlayerDeactivated,
		TargetID:   playerID,
		Details:    map[string]string{"name": player.Name},
	})
	return player, nil
}

// Search finds active players whose names resemble text, best match first.
// Any member.
func (s *RosterService) Search(ctx context.Context, actorID, allianceID, text string, limit int) ([]search.Hit, error) {
	if _, err := s.authorize(ctx, actorID, allianceID, policy.RosterView); err != nil {
		return nil, err
	}
	text = normalize.DisplayName(text)
	if text == "" {
		return nil, domainerrors.Validation("search query must not be blank")
	}
	if limit < 0 || limit > search.MaxLimit {
		return nil, domainerrors.Validationf("limit must be between 0 and %d", search.MaxLimit)
	}

	if s.searcher == nil {
		return s.scan(ctx, allianceID, text, limit)
	}

	hits, err := s.searcher.Search(ctx, allianceID, text, limit)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "search failed")
	}
	return hits, nil
}

// scan is the search used when no index is configured: a case-insensitive
// substring match over the active roster, in name order.
func (s *RosterService) scan(ctx context.Context, allianceID, text string, limit int) ([]search.Hit, error) {
	if limit == 0 {
		limit = search.DefaultLimit
	}
	players, err := s.store.ListActivePlayers(ctx, allianceID)
	if err != nil {
		return nil, storeError(err, "alliance not found")
	}

	key := normalize.NameKey(text)
	hits := []search.Hit{}
	for _, p := range players {
		if !strings.Contains(p.NameKey, key) {
			continue
		}
		hits = append(hits, search.Hit{PlayerID: p.ID, Name: p.Name, HQLevel: p.HQLevel, Score: 1})
		if len(hits) == limit {
			break
		}
	}
	return hits, nil
}

// RebuildIndex reloads every active player into the search index.
func (s *RosterService) RebuildIndex(ctx context.Context) error {
	if s.searcher == nil {
		return nil
	}
	players, err := s.store.ListAllActivePlayers(ctx)
	if err != nil {
		return storeError(err, "")
	}
	if err := s.searcher.Rebuild(ctx, players); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "rebuild roster index")
	}
	s.logger.Info("roster index rebuilt", "players", len(players))
	return nil
}
