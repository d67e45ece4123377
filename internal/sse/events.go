// Package sse streams alliance activity to connected members as Server-Sent Events.
package sse

import (
	"time"

	"github.com/warroomops/warroom-server/internal/audit"
)

// EventType represents the type of SSE Event. Activity events reuse the audit
// kind, e.g. "score.recorded".
type EventType string

const (
	// EventConnected is the first event on every stream.
	EventConnected EventType = "connected"
	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
	// AllianceID routes the event. Empty means every client.
	AllianceID string `json:"-"`
	// TargetUserID is the member an event is about, when there is one.
	TargetUserID string `json:"-"`
}

// NewActivityEvent wraps a journal event for the members of its alliance.
func NewActivityEvent(ev audit.Event) Event {
	return Event{
		Type:         EventType(ev.Kind),
		AllianceID:   ev.AllianceID,
		TargetUserID: ev.TargetID,
		Data:         ev,
		Timestamp:    ev.At,
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type:      EventHeartbeat,
		Data:      struct{}{},
		Timestamp: time.Now(),
	}
}

// endsMembership reports whether ev removes TargetUserID from the alliance,
// which ends that member's stream.
func (ev Event) endsMembership() bool {
	return ev.Type == EventType(audit.MemberDisabled) && ev.TargetUserID != ""
}
