package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/warroomops/warroom-server/internal/domain"
	domainerrors "github.com/warroomops/warroom-server/internal/errors"
	"github.com/warroomops/warroom-server/internal/service"
)

func (s *Server) registerAllianceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createAlliance",
		Method:        http.MethodPost,
		Path:          "/api/v1/alliances",
		Summary:       "Create alliance",
		Description:   "Creates an alliance with the caller as its R5 founder",
		Tags:          []string{tagAlliances},
		Security:      bearer,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateAlliance)

	huma.Register(s.api, huma.Operation{
		OperationID: "getAlliance",
		Method:      http.MethodGet,
		Path:        "/api/v1/alliances/{allianceID}",
		Summary:     "Get alliance",
		Tags:        []string{tagAlliances},
		Security:    bearer,
	}, s.handleGetAlliance)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMe",
		Method:      http.MethodGet,
		Path:        "/api/v1/me",
		Summary:     "Current identity",
		Description: "Returns the caller's user ID and active membership, if any",
		Tags:        []string{tagAlliances},
		Security:    bearer,
	}, s.handleGetMe)
}

// AllianceIDParam is the path parameter shared by alliance-scoped routes.
type AllianceIDParam struct {
	AllianceID string `path:"allianceID" doc:"Alliance ID"`
}

// CreateAllianceRequest is the request body for creating an alliance.
type CreateAllianceRequest struct {
	Name string `json:"name" doc:"Display name" maxLength:"64"`
}

// CreateAllianceInput wraps the create alliance request for Huma.
type CreateAllianceInput struct {
	Body CreateAllianceRequest
}

// CreateAllianceResponse contains the new alliance and the founder's membership.
type CreateAllianceResponse struct {
	Alliance   *domain.Alliance   `json:"alliance"`
	Membership *domain.Membership `json:"membership"`
}

// CreateAllianceOutput wraps the create alliance response for Huma.
type CreateAllianceOutput struct {
	Body CreateAllianceResponse
}

// AllianceOutput wraps a single alliance for Huma.
type AllianceOutput struct {
	Body *domain.Alliance
}

// MeResponse describes the caller.
type MeResponse struct {
	UserID     string             `json:"user_id"`
	Membership *domain.Membership `json:"membership,omitempty" doc:"Active membership, absent when the caller belongs to no alliance"`
}

// MeOutput wraps the identity response for Huma.
type MeOutput struct {
	Body MeResponse
}

func (s *Server) handleCreateAlliance(ctx context.Context, input *CreateAllianceInput) (*CreateAllianceOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	alliance, membership, err := s.services.Alliance.CreateAlliance(ctx, userID, service.CreateAllianceRequest{
		Name: input.Body.Name,
	})
	if err != nil {
		return nil, err
	}

	return &CreateAllianceOutput{
		Body: CreateAllianceResponse{Alliance: alliance, Membership: membership},
	}, nil
}

func (s *Server) handleGetAlliance(ctx context.Context, input *AllianceIDParam) (*AllianceOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	alliance, err := s.services.Alliance.GetAlliance(ctx, input.AllianceID)
	if err != nil {
		return nil, err
	}
	return &AllianceOutput{Body: alliance}, nil
}

func (s *Server) handleGetMe(ctx context.Context, _ *struct{}) (*MeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	out := &MeOutput{Body: MeResponse{UserID: userID}}
	membership, err := s.services.Alliance.GetActiveMembership(ctx, "", userID)
	switch {
	case err == nil:
		out.Body.Membership = membership
	case !errors.Is(err, domainerrors.ErrNotFound):
		return nil, err
	}
	return out, nil
}
