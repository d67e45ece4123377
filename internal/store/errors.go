package store

import "errors"

// Sentinel errors returned by Store implementations. Services translate them
// into domain errors; they never reach a caller directly.
var (
	// ErrNotFound means the addressed record does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrAlreadyExists means a uniqueness constraint rejected the write.
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrAlreadyMember means the user already holds an enabled membership in
	// the alliance being joined.
	ErrAlreadyMember = errors.New("store: already an active member")

	// ErrActiveElsewhere means the user holds an enabled membership in a
	// different alliance.
	ErrActiveElsewhere = errors.New("store: active in another alliance")

	// ErrBusy means the database could not take its write lock in time.
	// The operation had no effect and may be retried.
	ErrBusy = errors.New("store: database busy")
)
