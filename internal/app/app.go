// Package app coordinates flows that submit backend jobs, wait for them and
// refresh the resources they change.
package app

import (
	"context"
	"log/slog"

	"github.com/lu-zhengda/smartmail/internal/api"
	"github.com/lu-zhengda/smartmail/internal/domain"
	"github.com/lu-zhengda/smartmail/internal/jobs"
	"github.com/lu-zhengda/smartmail/internal/logging"
)

// Flows runs job-driven operations against the backend.
type Flows struct {
	Client *api.Client
	Poller *jobs.Poller
	// Tracker is optional. When set, submitted jobs are remembered locally.
	Tracker *jobs.Tracker
	Logger  *slog.Logger
}

func (f *Flows) logger() *slog.Logger {
	if f.Logger == nil {
		return slog.Default()
	}
	return f.Logger
}

// Track records a submitted job. Failures are logged, never returned.
func (f *Flows) Track(ctx context.Context, ref *domain.JobRef, kind domain.JobType, subject string) {
	if f.Tracker == nil || ref == nil || ref.JobID == 0 {
		return
	}
	if err := f.Tracker.Track(ctx, ref, kind, subject); err != nil {
		f.logger().Warn("failed to track job", logging.KeyJobID, ref.JobID, logging.Err(err))
	}
}

// Resolve records the final state of a tracked job.
func (f *Flows) Resolve(ctx context.Context, job *domain.Job) {
	if f.Tracker == nil || job == nil {
		return
	}
	if err := f.Tracker.Resolve(ctx, job); err != nil {
		f.logger().Debug("failed to resolve tracked job", logging.KeyJobID, job.ID, logging.Err(err))
	}
}

// Wait polls ref's job to completion and records the outcome.
func (f *Flows) Wait(ctx context.Context, ref *domain.JobRef, onUpdate func(*domain.Job)) (*domain.Job, error) {
	job, err := f.Poller.Wait(ctx, ref.JobID, onUpdate)
	if job != nil && job.Status.IsTerminal() {
		f.Resolve(ctx, job)
	}
	return job, err
}
