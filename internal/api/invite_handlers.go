package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/warroomops/warroom-server/internal/domain"
	"github.com/warroomops/warroom-server/internal/service"
)

func (s *Server) registerInviteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "issueInvite",
		Method:        http.MethodPost,
		Path:          "/api/v1/alliances/{allianceID}/invites",
		Summary:       "Issue invite",
		Description:   "Issues an invite code for the alliance. Officers only",
		Tags:          []string{tagInvites},
		Security:      bearer,
		DefaultStatus: http.StatusCreated,
	}, s.handleIssueInvite)

	huma.Register(s.api, huma.Operation{
		OperationID: "listInvites",
		Method:      http.MethodGet,
		Path:        "/api/v1/alliances/{allianceID}/invites",
		Summary:     "List invites",
		Description: "Lists the alliance's invites with their status. Codes are only shown to officers",
		Tags:        []string{tagInvites},
		Security:    bearer,
	}, s.handleListInvites)

	huma.Register(s.api, huma.Operation{
		OperationID: "redeemInvite",
		Method:      http.MethodPost,
		Path:        "/api/v1/invites/redeem",
		Summary:     "Redeem invite",
		Description: "Joins the invite's alliance as R3, or re-enables a disabled membership",
		Tags:        []string{tagInvites},
		Security:    bearer,
	}, s.handleRedeemInvite)

	huma.Register(s.api, huma.Operation{
		OperationID: "revokeInvite",
		Method:      http.MethodDelete,
		Path:        "/api/v1/invites/{inviteID}",
		Summary:     "Revoke invite",
		Description: "Revokes an invite. Officers only. Revoking twice succeeds",
		Tags:        []string{tagInvites},
		Security:    bearer,
	}, s.handleRevokeInvite)
}

// IssueInviteRequest is the request body for issuing an invite.
type IssueInviteRequest struct {
	MaxUses   int        `json:"max_uses,omitempty" doc:"Number of redemptions allowed, 1 when omitted"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" doc:"Optional expiry (RFC 3339)"`
}

// IssueInviteInput wraps the issue invite request for Huma.
type IssueInviteInput struct {
	AllianceID string `path:"allianceID" doc:"Alliance ID"`
	Body       IssueInviteRequest
}

// InviteOutput wraps a single invite for Huma.
type InviteOutput struct {
	Body *domain.Invite
}

// ListInvitesResponse contains the alliance's invites.
type ListInvitesResponse struct {
	Invites []service.InviteSummary `json:"invites"`
}

// ListInvitesOutput wraps the list invites response for Huma.
type ListInvitesOutput struct {
	Body ListInvitesResponse
}

// RedeemInviteRequest is the request body for redeeming an invite.
type RedeemInviteRequest struct {
	Code string `json:"code" doc:"Invite code; case and separators are ignored" maxLength:"64"`
}

// RedeemInviteInput wraps the redeem request for Huma.
type RedeemInviteInput struct {
	Body RedeemInviteRequest
}

// RedeemInviteOutput wraps the redeem result for Huma.
type RedeemInviteOutput struct {
	Body *service.RedeemResult
}

// RevokeInviteInput identifies the invite to revoke.
type RevokeInviteInput struct {
	InviteID string `path:"inviteID" doc:"Invite ID"`
}

func (s *Server) handleIssueInvite(ctx context.Context, input *IssueInviteInput) (*InviteOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	invite, err := s.services.Invite.Issue(ctx, userID, input.AllianceID, service.IssueInviteRequest{
		MaxUses:   input.Body.MaxUses,
		ExpiresAt: input.Body.ExpiresAt,
	})
	if err != nil {
		return nil, err
	}
	return &InviteOutput{Body: invite}, nil
}

func (s *Server) handleListInvites(ctx context.Context, input *AllianceIDParam) (*ListInvitesOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	invites, err := s.services.Invite.ListInvites(ctx, userID, input.AllianceID)
	if err != nil {
		return nil, err
	}
	return &ListInvitesOutput{Body: ListInvitesResponse{Invites: invites}}, nil
}

func (s *Server) handleRedeemInvite(ctx context.Context, input *RedeemInviteInput) (*RedeemInviteOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Invite.Redeem(ctx, userID, input.Body.Code)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &RedeemInviteOutput{Body: result}, nil
}

func (s *Server) handleRevokeInvite(ctx context.Context, input *RevokeInviteInput) (*InviteOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	invite, err := s.services.Invite.Revoke(ctx, userID, input.InviteID)
	if err != nil {
		return nil, err
	}
	return &InviteOutput{Body: invite}, nil
}
