package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/warroomops/warroom-server/internal/domain"
	"github.com/warroomops/warroom-server/internal/service"
)

func (s *Server) registerMemberRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listMembers",
		Method:      http.MethodGet,
		Path:        "/api/v1/alliances/{allianceID}/members",
		Summary:     "List members",
		Description: "Lists every membership, enabled first, then by role and join time",
		Tags:        []string{tagMembers},
		Security:    bearer,
	}, s.handleListMembers)

	huma.Register(s.api, huma.Operation{
		OperationID: "setMemberRole",
		Method:      http.MethodPut,
		Path:        "/api/v1/alliances/{allianceID}/members/{userID}/role",
		Summary:     "Set member role",
		Description: "Changes another member's role. R5 only",
		Tags:        []string{tagMembers},
		Security:    bearer,
	}, s.handleSetMemberRole)

	huma.Register(s.api, huma.Operation{
		OperationID: "disableMember",
		Method:      http.MethodDelete,
		Path:        "/api/v1/alliances/{allianceID}/members/{userID}",
		Summary:     "Disable member",
		Description: "Soft-deletes another member's membership. R5 only",
		Tags:        []string{tagMembers},
		Security:    bearer,
	}, s.handleDisableMember)
}

// ListMembersResponse contains the alliance's memberships.
type ListMembersResponse struct {
	Members []*domain.Membership `json:"members"`
}

// ListMembersOutput wraps the list members response for Huma.
type ListMembersOutput struct {
	Body ListMembersResponse
}

// MemberPathInput identifies one member of an alliance.
type MemberPathInput struct {
	AllianceID string `path:"allianceID" doc:"Alliance ID"`
	UserID     string `path:"userID" doc:"Member's user ID"`
}

// SetRoleRequest is the request body for changing a role.
type SetRoleRequest struct {
	Role string `json:"role" doc:"New role, one of R5, R4, R3, R2, R1"`
}

// SetRoleInput wraps the set role request for Huma.
type SetRoleInput struct {
	AllianceID string `path:"allianceID" doc:"Alliance ID"`
	UserID     string `path:"userID" doc:"Member's user ID"`
	Body       SetRoleRequest
}

// MembershipOutput wraps a single membership for Huma.
type MembershipOutput struct {
	Body *domain.Membership
}

func (s *Server) handleListMembers(ctx context.Context, input *AllianceIDParam) (*ListMembersOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	members, err := s.services.Alliance.ListMembers(ctx, userID, input.AllianceID)
	if err != nil {
		return nil, err
	}
	return &ListMembersOutput{Body: ListMembersResponse{Members: members}}, nil
}

func (s *Server) handleSetMemberRole(ctx context.Context, input *SetRoleInput) (*MembershipOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	m, err := s.services.Alliance.SetRole(ctx, userID, input.AllianceID, service.SetRoleRequest{
		UserID: input.UserID,
		Role:   domain.Role(input.Body.Role),
	})
	if err != nil {
		return nil, err
	}
	return &MembershipOutput{Body: m}, nil
}

func (s *Server) handleDisableMember(ctx context.Context, input *MemberPathInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Alliance.DisableMember(ctx, userID, input.AllianceID, input.UserID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Member disabled"}}, nil
}
