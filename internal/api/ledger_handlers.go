package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/warroomops/warroom-server/internal/domain"
	"github.com/warroomops/warroom-server/internal/service"
)

func (s *Server) registerLedgerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "setWeekType",
		Method:      http.MethodPut,
		Path:        "/api/v1/alliances/{allianceID}/weeks/{weekStart}",
		Summary:     "Set week type",
		Description: "Sets the save/push plan for the week starting on weekStart, replacing any earlier plan. Officers only",
		Tags:        []string{tagLedger},
		Security:    bearer,
	}, s.handleSetWeekType)

	huma.Register(s.api, huma.Operation{
		OperationID: "getWeek",
		Method:      http.MethodGet,
		Path:        "/api/v1/alliances/{allianceID}/weeks/{weekStart}",
		Summary:     "Get week",
		Tags:        []string{tagLedger},
		Security:    bearer,
	}, s.handleGetWeek)

	huma.Register(s.api, huma.Operation{
		OperationID: "recordScore",
		Method:      http.MethodPut,
		Path:        "/api/v1/alliances/{allianceID}/days/{gameDay}/scores/{playerID}",
		Summary:     "Record VS score",
		Description: "Records a player's score for a game day, overwriting any earlier score. Officers only",
		Tags:        []string{tagLedger},
		Security:    bearer,
	}, s.handleRecordScore)

	huma.Register(s.api, huma.Operation{
		OperationID: "listForDay",
		Method:      http.MethodGet,
		Path:        "/api/v1/alliances/{allianceID}/days/{gameDay}",
		Summary:     "Day standings",
		Description: "Lists the day's scores, highest first, each flagged pass or fail against the daily minimum",
		Tags:        []string{tagLedger},
		Security:    bearer,
	}, s.handleListForDay)
}

// WeekPathInput identifies one VS week.
type WeekPathInput struct {
	AllianceID string `path:"allianceID" doc:"Alliance ID"`
	WeekStart  string `path:"weekStart" doc:"First day of the week (YYYY-MM-DD)"`
}

// SetWeekRequest is the request body for setting a week type.
type SetWeekRequest struct {
	WeekType  string `json:"week_type" doc:"save or push"`
	GraceDays *int   `json:"grace_days,omitempty" doc:"Grace period in days, 2 when omitted"`
	Locked    bool   `json:"locked,omitempty" doc:"Marks the plan as final"`
}

// SetWeekInput wraps the set week request for Huma.
type SetWeekInput struct {
	AllianceID string `path:"allianceID" doc:"Alliance ID"`
	WeekStart  string `path:"weekStart" doc:"First day of the week (YYYY-MM-DD)"`
	Body       SetWeekRequest
}

// WeekOutput wraps a VS week for Huma.
type WeekOutput struct {
	Body *domain.VSWeek
}

// RecordScoreRequest is the request body for recording a score.
type RecordScoreRequest struct {
	Score int64  `json:"score" doc:"Non-negative integer score"`
	Notes string `json:"notes,omitempty" doc:"Optional officer notes" maxLength:"500"`
}

// RecordScoreInput wraps the record score request for Huma.
type RecordScoreInput struct {
	AllianceID string `path:"allianceID" doc:"Alliance ID"`
	GameDay    string `path:"gameDay" doc:"Game day (YYYY-MM-DD)"`
	PlayerID   string `path:"playerID" doc:"Player ID"`
	Body       RecordScoreRequest
}

// ScoreResponse is a recorded entry with its pass flag.
type ScoreResponse struct {
	*domain.VSEntry
	Pass bool `json:"pass"`
}

// ScoreOutput wraps a recorded entry for Huma.
type ScoreOutput struct {
	Body ScoreResponse
}

// DayInput identifies one game day.
type DayInput struct {
	AllianceID string `path:"allianceID" doc:"Alliance ID"`
	GameDay    string `path:"gameDay" doc:"Game day (YYYY-MM-DD)"`
}

// DayOutput wraps a day report for Huma.
type DayOutput struct {
	Body *service.DayReport
}

func (s *Server) handleSetWeekType(ctx context.Context, input *SetWeekInput) (*WeekOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	week, err := s.services.Ledger.SetWeekType(ctx, userID, input.AllianceID, service.SetWeekRequest{
		WeekStart: input.WeekStart,
		WeekType:  domain.WeekType(input.Body.WeekType),
		GraceDays: input.Body.GraceDays,
		Locked:    input.Body.Locked,
	})
	if err != nil {
		return nil, err
	}
	return &WeekOutput{Body: week}, nil
}

func (s *Server) handleGetWeek(ctx context.Context, input *WeekPathInput) (*WeekOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	week, err := s.services.Ledger.GetWeek(ctx, userID, input.AllianceID, input.WeekStart)
	if err != nil {
		return nil, err
	}
	return &WeekOutput{Body: week}, nil
}

func (s *Server) handleRecordScore(ctx context.Context, input *RecordScoreInput) (*ScoreOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	entry, err := s.services.Ledger.RecordScore(ctx, userID, input.AllianceID, service.RecordScoreRequest{
		PlayerID: input.PlayerID,
		GameDay:  input.GameDay,
		Score:    input.Body.Score,
		Notes:    input.Body.Notes,
	})
	if err != nil {
		return nil, err
	}
	return &ScoreOutput{Body: ScoreResponse{VSEntry: entry, Pass: entry.Passed()}}, nil
}

func (s *Server) handleListForDay(ctx context.Context, input *DayInput) (*DayOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	report, err := s.services.Ledger.ListForDay(ctx, userID, input.AllianceID, input.GameDay)
	if err != nil {
		return nil, err
	}
	if report.Standings == nil {
		report.Standings = []domain.DayStanding{}
	}
	return &DayOutput{Body: report}, nil
}
