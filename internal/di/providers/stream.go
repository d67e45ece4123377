package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/warroomops/warroom-server/internal/logger"
	"github.com/warroomops/warroom-server/internal/sse"
)

// SSEHandle wraps the activity stream manager with shutdown capability.
type SSEHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), streamDrainTimeout)
	defer cancel()
	err := h.Manager.Shutdown(ctx)
	h.cancel()
	return err
}

// ProvideSSEManager provides the activity stream manager and starts its
// broadcast loop.
func ProvideSSEManager(i do.Injector) (*SSEHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	return &SSEHandle{Manager: manager, cancel: cancel}, nil
}

// ProvideAuditRecorder provides the recorder services append audit events
// through. Each event is journaled and then streamed to the alliance.
func ProvideAuditRecorder(i do.Injector) (*sse.Recorder, error) {
	journal := do.MustInvoke[*JournalHandle](i)
	stream := do.MustInvoke[*SSEHandle](i)

	return sse.NewRecorder(journal.Journal, stream.Manager), nil
}
