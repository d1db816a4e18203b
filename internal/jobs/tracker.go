package jobs

import (
	"context"
	"time"

	"github.com/lu-zhengda/smartmail/internal/domain"
	"github.com/lu-zhengda/smartmail/internal/store"
)

// Tracker remembers jobs submitted from this machine so they can be
// followed across CLI runs.
type Tracker struct {
	Store   store.Store
	Profile string
}

// Track records a newly queued job. subject is a short human description,
// such as the email subject the job works on.
func (t *Tracker) Track(ctx context.Context, ref *domain.JobRef, kind domain.JobType, subject string) error {
	status := ref.Status
	if status == "" || status == "queued" {
		status = string(domain.JobPending)
	}
	return t.Store.TrackJob(ctx, &store.TrackedJob{
		JobID:       ref.JobID,
		Profile:     t.Profile,
		Kind:        string(kind),
		Subject:     subject,
		Status:      status,
		SubmittedAt: time.Now().UTC(),
	})
}

// Pending returns tracked jobs not yet seen in a terminal status.
func (t *Tracker) Pending(ctx context.Context) ([]store.TrackedJob, error) {
	return t.Store.PendingJobs(ctx, t.Profile)
}

// Recent returns the latest tracked jobs.
func (t *Tracker) Recent(ctx context.Context, limit int) ([]store.TrackedJob, error) {
	return t.Store.ListTrackedJobs(ctx, t.Profile, limit)
}

// Resolve stores the latest observed state of job.
func (t *Tracker) Resolve(ctx context.Context, job *domain.Job) error {
	return t.Store.ResolveJob(ctx, t.Profile, job.ID, string(job.Status), job.Error)
}
