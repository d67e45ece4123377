package providers

import "time"

const (
	// shutdownTimeout bounds how long the HTTP server waits for in-flight
	// requests to finish.
	shutdownTimeout = 30 * time.Second

	// streamDrainTimeout bounds how long queued activity events may take to
	// reach connected streams during shutdown.
	streamDrainTimeout = 5 * time.Second
)
