package sse

import (
	"context"
	"time"

	"github.com/warroomops/warroom-server/internal/audit"
)

// Journal appends audit events. *audit.Journal implements it.
type Journal interface {
	Record(ctx context.Context, ev audit.Event) error
}

// Recorder writes each event to the journal and then publishes it to the
// alliance's live stream. Events the journal rejects are not published.
type Recorder struct {
	journal Journal
	manager *Manager
}

// NewRecorder creates a Recorder.
func NewRecorder(journal Journal, manager *Manager) *Recorder {
	return &Recorder{journal: journal, manager: manager}
}

// Record implements service.AuditRecorder.
func (r *Recorder) Record(ctx context.Context, ev audit.Event) error {
	if err := ev.Stamp(time.Now()); err != nil {
		return err
	}
	if err := r.journal.Record(ctx, ev); err != nil {
		return err
	}
	r.manager.Publish(ev)
	return nil
}
