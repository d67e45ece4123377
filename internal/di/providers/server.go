package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/warroomops/warroom-server/internal/api"
	"github.com/warroomops/warroom-server/internal/auth"
	"github.com/warroomops/warroom-server/internal/config"
	"github.com/warroomops/warroom-server/internal/logger"
	"github.com/warroomops/warroom-server/internal/service"
	"github.com/warroomops/warroom-server/internal/sse"
)

// version is reported in the OpenAPI document.
const version = "1.0.0"

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideAPIServer provides the HTTP handler with every route registered.
func ProvideAPIServer(i do.Injector) (*api.Server, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	stream := do.MustInvoke[*SSEHandle](i)

	services := &api.Services{
		Alliance: do.MustInvoke[*service.AllianceService](i),
		Invite:   do.MustInvoke[*service.InviteService](i),
		Roster:   do.MustInvoke[*service.RosterService](i),
		Ledger:   do.MustInvoke[*service.LedgerService](i),
		Audit:    do.MustInvoke[*service.AuditService](i),
	}

	checks := map[string]api.HealthCheck{
		"database": storeHandle.Ping,
	}
	if indexHandle.RosterIndex != nil {
		checks["search"] = func(context.Context) error {
			_, err := indexHandle.DocumentCount()
			return err
		}
	}

	return api.NewServer(services, tokens, api.Options{
		Version:     version,
		CORSOrigins: cfg.Server.CORSOrigins,
		AccessLog:   true,
		Checks:      checks,
		Stream:      sse.NewHandler(stream.Manager, log.Logger),
	}, log.Logger), nil
}

// ProvideHTTPServer binds the listen address and starts serving in the
// background. A port that cannot be bound fails the provider.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	handler := do.MustInvoke[*api.Server](i)
	stream := do.MustInvoke[*SSEHandle](i)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Open streams would otherwise hold Shutdown until its deadline.
	srv.RegisterOnShutdown(func() {
		ctx, cancel := context.WithTimeout(context.Background(), streamDrainTimeout)
		defer cancel()
		_ = stream.Manager.Shutdown(ctx)
	})

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", srv.Addr, err)
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
