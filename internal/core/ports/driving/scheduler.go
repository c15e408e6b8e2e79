package driving

import (
	"context"
	"time"
)

// Scheduler runs recurring ingestion for sources that declare a schedule.
type Scheduler interface {
	// Start begins running scheduled tasks.
	// Blocks until context is cancelled or an error occurs.
	Start(ctx context.Context) error

	// Stop gracefully stops all running tasks.
	Stop() error

	// Jobs returns the scheduled sources with their next activation after now.
	Jobs(now time.Time) []ScheduledSource

	// RunNow runs the job of a scheduled source immediately.
	RunNow(ctx context.Context, sourceID string) error
}

// ScheduledSource is a source with a recurring ingestion spec.
type ScheduledSource struct {
	SourceID string
	Spec     string
	Next     time.Time
}
