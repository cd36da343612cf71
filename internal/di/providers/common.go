package providers

import "time"

const (
	// shutdownTimeout bounds graceful shutdown of each service.
	shutdownTimeout = 30 * time.Second

	// sessionSweepInterval is how often expired sessions are purged.
	sessionSweepInterval = time.Hour
)
