package domain

import "time"

// Entity provides the identity and bookkeeping timestamps shared by every
// alliance-scoped record.
type Entity struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
// Call this when creating a new entity.
func (e *Entity) InitTimestamps(now time.Time) {
	e.CreatedAt = now
	e.UpdatedAt = now
}

// Touch updates the UpdatedAt timestamp.
// Call this whenever the underlying entity changes.
func (e *Entity) Touch(now time.Time) {
	e.UpdatedAt = now
}
