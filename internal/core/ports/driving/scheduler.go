package driving

import (
	"context"

	"github.com/behole/scribble/internal/core/domain"
)

// Scheduler runs digest generation on cron schedules.
type Scheduler interface {
	// Start begins running scheduled tasks.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops all running tasks.
	Stop() error

	// Tasks returns the scheduled tasks with their next run times.
	Tasks(ctx context.Context) ([]domain.ScheduledTask, error)
}
