package jobs

import (
	"context"
	"time"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

// Lister fetches the recent job list.
type Lister interface {
	ListJobs(ctx context.Context, skip, limit int) ([]domain.Job, error)
}

// Monitor refreshes the job list on a fixed period.
type Monitor struct {
	Source   Lister
	Interval time.Duration
	Limit    int
}

// Run fetches the job list immediately and then every Interval, passing
// each result to fn until ctx is cancelled. Fetch errors are passed to fn
// and do not stop the monitor.
func (m *Monitor) Run(ctx context.Context, fn func([]domain.Job, error)) error {
	interval := m.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		jobs, err := m.Source.ListJobs(ctx, 0, m.Limit)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fn(jobs, err)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
