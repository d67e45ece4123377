package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/warroomops/warroom-server/internal/domain"
	"github.com/warroomops/warroom-server/internal/search"
	"github.com/warroomops/warroom-server/internal/service"
)

func (s *Server) registerPlayerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "addPlayer",
		Method:        http.MethodPost,
		Path:          "/api/v1/alliances/{allianceID}/players",
		Summary:       "Add player",
		Description:   "Adds a player to the roster, or reactivates a deactivated player with the same name. Officers only",
		Tags:          []string{tagRoster},
		Security:      bearer,
		DefaultStatus: http.StatusCreated,
	}, s.handleAddPlayer)

	huma.Register(s.api, huma.Operation{
		OperationID: "listPlayers",
		Method:      http.MethodGet,
		Path:        "/api/v1/alliances/{allianceID}/players",
		Summary:     "List active players",
		Description: "Lists active players sorted by name",
		Tags:        []string{tagRoster},
		Security:    bearer,
	}, s.handleListPlayers)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchPlayers",
		Method:      http.MethodGet,
		Path:        "/api/v1/alliances/{allianceID}/players/search",
		Summary:     "Search players",
		Description: "Finds active players by name with prefix and typo-tolerant matching",
		Tags:        []string{tagRoster},
		Security:    bearer,
	}, s.handleSearchPlayers)

	huma.Register(s.api, huma.Operation{
		OperationID: "deactivatePlayer",
		Method:      http.MethodDelete,
		Path:        "/api/v1/alliances/{allianceID}/players/{playerID}",
		Summary:     "Deactivate player",
		Description: "Takes a player off the active roster, keeping its VS history. Officers only",
		Tags:        []string{tagRoster},
		Security:    bearer,
	}, s.handleDeactivatePlayer)
}

// AddPlayerRequest is the request body for adding a player.
type AddPlayerRequest struct {
	Name    string `json:"name" doc:"Player name, unique among active players ignoring case" maxLength:"64"`
	HQLevel *int   `json:"hq_level,omitempty" doc:"Headquarters level"`
}

// AddPlayerInput wraps the add player request for Huma.
type AddPlayerInput struct {
	AllianceID string `path:"allianceID" doc:"Alliance ID"`
	Body       AddPlayerRequest
}

// PlayerOutput wraps a single player for Huma.
type PlayerOutput struct {
	Body *domain.Player
}

// ListPlayersResponse contains the active roster.
type ListPlayersResponse struct {
	Players []*domain.Player `json:"players"`
}

// ListPlayersOutput wraps the roster for Huma.
type ListPlayersOutput struct {
	Body ListPlayersResponse
}

// SearchPlayersInput contains the search parameters.
type SearchPlayersInput struct {
	AllianceID string `path:"allianceID" doc:"Alliance ID"`
	Query      string `query:"q" doc:"Name or part of a name"`
	Limit      int    `query:"limit" doc:"Maximum hits, 20 when omitted"`
}

// SearchPlayersResponse contains search hits, best match first.
type SearchPlayersResponse struct {
	Hits []search.Hit `json:"hits"`
}

// SearchPlayersOutput wraps the search response for Huma.
type SearchPlayersOutput struct {
	Body SearchPlayersResponse
}

// PlayerPathInput identifies one player.
type PlayerPathInput struct {
	AllianceID string `path:"allianceID" doc:"Alliance ID"`
	PlayerID   string `path:"playerID" doc:"Player ID"`
}

func (s *Server) handleAddPlayer(ctx context.Context, input *AddPlayerInput) (*PlayerOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	player, err := s.services.Roster.AddPlayer(ctx, userID, input.AllianceID, service.AddPlayerRequest{
		Name:    input.Body.Name,
		HQLevel: input.Body.HQLevel,
	})
	if err != nil {
		return nil, err
	}
	return &PlayerOutput{Body: player}, nil
}

func (s *Server) handleListPlayers(ctx context.Context, input *AllianceIDParam) (*ListPlayersOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	players, err := s.services.Roster.ListActive(ctx, userID, input.AllianceID)
	if err != nil {
		return nil, err
	}
	return &ListPlayersOutput{Body: ListPlayersResponse{Players: players}}, nil
}

func (s *Server) handleSearchPlayers(ctx context.Context, input *SearchPlayersInput) (*SearchPlayersOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	hits, err := s.services.Roster.Search(ctx, userID, input.AllianceID, input.Query, input.Limit)
	if err != nil {
		return nil, err
	}
	if hits == nil {
		hits = []search.Hit{}
	}
	return &SearchPlayersOutput{Body: SearchPlayersResponse{Hits: hits}}, nil
}

func (s *Server) handleDeactivatePlayer(ctx context.Context, input *PlayerPathInput) (*PlayerOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	player, err := s.services.Roster.Deactivate(ctx, userID, input.AllianceID, input.PlayerID)
	if err != nil {
		return nil, err
	}
	return &PlayerOutput{Body: player}, nil
}
