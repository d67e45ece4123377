package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	domainerrors "github.com/warroomops/warroom-server/internal/errors"
)

// registerStreamRoutes mounts the live activity stream. It is a plain chi
// route because huma operations return a single response body.
func (s *Server) registerStreamRoutes() {
	if s.stream == nil {
		return
	}
	s.router.Get("/api/v1/alliances/{allianceID}/stream", s.handleStream)
}

// handleStream streams the alliance's mutations as they happen. Any active
// member may listen.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := GetUserID(ctx)
	if err != nil {
		s.writeError(w, err)
		return
	}

	allianceID := chi.URLParam(r, "allianceID")
	if _, err := s.services.Alliance.Watch(ctx, userID, allianceID); err != nil {
		s.writeError(w, err)
		return
	}

	s.stream.Stream(w, r, userID, allianceID)
}

// writeError writes err with the same {code, message, details} body huma
// operations use.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var apiErr *APIError
	if !errors.As(toAPIError(err), &apiErr) {
		s.logger.Error("unexpected stream error", "error", err)
		apiErr = fromDomainError(domainerrors.Internal("unexpected error"))
	}

	for k, v := range apiErr.GetHeaders() {
		w.Header()[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.GetStatus())
	if err := json.NewEncoder(w).Encode(apiErr); err != nil {
		s.logger.Debug("failed to write error body", "error", err)
	}
}
