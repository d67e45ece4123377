// Package api exposes the alliance core over HTTP.
//
// Every core operation is a huma operation under /api/v1. Callers identify
// themselves with a Bearer token minted by the identity provider; error kinds
// from the services are returned verbatim as {code, message, details}.
// The live activity stream is the one plain chi route.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warroomops/warroom-server/internal/auth"
	"github.com/warroomops/warroom-server/internal/service"
	"github.com/warroomops/warroom-server/internal/sse"
)

// Services groups the business services the API server calls.
type Services struct {
	Alliance *service.AllianceService
	Invite   *service.InviteService
	Roster   *service.RosterService
	Ledger   *service.LedgerService
	Audit    *service.AuditService
}

// HealthCheck probes one component. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// Options configures NewServer.
type Options struct {
	Version     string
	CORSOrigins []string
	// AccessLog enables chi's request logger.
	AccessLog bool
	// Checks are reported by GET /health, keyed by component name.
	Checks map[string]HealthCheck
	// Stream serves the live activity stream. The route is left out when nil.
	Stream *sse.Handler
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	router   *chi.Mux
	api      huma.API
	services *Services
	checks   map[string]HealthCheck
	stream   *sse.Handler
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, tokens *auth.TokenService, opts Options, logger *slog.Logger) *Server {
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}

	s := &Server{
		router:   chi.NewRouter(),
		services: services,
		checks:   opts.Checks,
		stream:   opts.Stream,
		logger:   logger,
	}

	s.setupMiddleware(tokens, opts)

	humaConfig := huma.DefaultConfig("WarRoom API", opts.Version)
	humaConfig.Info.Description = "Alliance membership, invites, roster and VS ledger"
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerAllianceRoutes()
	s.registerMemberRoutes()
	s.registerInviteRoutes()
	s.registerPlayerRoutes()
	s.registerLedgerRoutes()
	s.registerAuditRoutes()
	s.registerStreamRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, mainly for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(tokens *auth.TokenService, opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	if opts.AccessLog {
		s.router.Use(middleware.Logger)
	}
	s.router.Use(middleware.Recoverer)

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Retry-After", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.router.Use(authMiddleware(tokens, s.logger))
}

// tags used to group operations in the OpenAPI document.
const (
	tagAlliances = "Alliances"
	tagMembers   = "Members"
	tagInvites   = "Invites"
	tagRoster    = "Roster"
	tagLedger    = "VS Ledger"
	tagAudit     = "Audit"
)

// bearer marks an operation as requiring an identity token.
var bearer = []map[string][]string{{"bearer": {}}}

// MessageResponse contains a simple message.
type MessageResponse struct {
	Message string `json:"message" doc:"Result message"`
}

// MessageOutput wraps a message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}
