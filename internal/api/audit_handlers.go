package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/warroomops/warroom-server/internal/audit"
)

func (s *Server) registerAuditRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listAudit",
		Method:      http.MethodGet,
		Path:        "/api/v1/alliances/{allianceID}/audit",
		Summary:     "List audit events",
		Description: "Returns the alliance's most recent mutations, newest first. Officers only",
		Tags:        []string{tagAudit},
		Security:    bearer,
	}, s.handleListAudit)
}

// ListAuditInput contains the audit query parameters.
type ListAuditInput struct {
	AllianceID string `path:"allianceID" doc:"Alliance ID"`
	Limit      int    `query:"limit" doc:"Maximum events, 50 when omitted"`
}

// ListAuditResponse contains audit events, newest first.
type ListAuditResponse struct {
	Events []audit.Event `json:"events"`
}

// ListAuditOutput wraps the audit response for Huma.
type ListAuditOutput struct {
	Body ListAuditResponse
}

func (s *Server) handleListAudit(ctx context.Context, input *ListAuditInput) (*ListAuditOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	events, err := s.services.Audit.ListAudit(ctx, userID, input.AllianceID, input.Limit)
	if err != nil {
		return nil, err
	}
	return &ListAuditOutput{Body: ListAuditResponse{Events: events}}, nil
}
