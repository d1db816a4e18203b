package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/lu-zhengda/smartmail/internal/store"
)

// TrackJob records a submitted job. Re-tracking a job resets its status.
func (s *DB) TrackJob(ctx context.Context, j *store.TrackedJob) error {
	if j.SubmittedAt.IsZero() {
		j.SubmittedAt = time.Now().UTC()
	}
	if j.Status == "" {
		j.Status = "pending"
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO tracked_jobs (job_id, profile, kind, subject, status, error, submitted_at, finished_at)
		VALUES (:job_id, :profile, :kind, :subject, :status, :error, :submitted_at, :finished_at)
		ON CONFLICT(profile, job_id) DO UPDATE SET
			kind = excluded.kind,
			subject = excluded.subject,
			status = excluded.status,
			error = excluded.error,
			finished_at = excluded.finished_at`,
		j,
	)
	if err != nil {
		return fmt.Errorf("failed to track job %d: %w", j.JobID, err)
	}
	return nil
}

// ListTrackedJobs returns the newest tracked jobs of a profile.
func (s *DB) ListTrackedJobs(ctx context.Context, profile string, limit int) ([]store.TrackedJob, error) {
	if limit <= 0 {
		limit = 50
	}
	var jobs []store.TrackedJob
	err := s.db.SelectContext(ctx, &jobs, `
		SELECT job_id, profile, kind, subject, status, error, submitted_at, finished_at
		FROM tracked_jobs WHERE profile = ?
		ORDER BY submitted_at DESC, job_id DESC LIMIT ?`,
		profile, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked jobs: %w", err)
	}
	return jobs, nil
}

// PendingJobs returns tracked jobs that have not reached a terminal status,
// oldest first.
func (s *DB) PendingJobs(ctx context.Context, profile string) ([]store.TrackedJob, error) {
	var jobs []store.TrackedJob
	err := s.db.SelectContext(ctx, &jobs, `
		SELECT job_id, profile, kind, subject, status, error, submitted_at, finished_at
		FROM tracked_jobs
		WHERE profile = ? AND status NOT IN ('completed', 'failed')
		ORDER BY submitted_at, job_id`,
		profile,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending jobs: %w", err)
	}
	return jobs, nil
}

// ResolveJob stores the latest status of a tracked job. Terminal statuses
// stamp finished_at.
func (s *DB) ResolveJob(ctx context.Context, profile string, jobID int64, status, errMsg string) error {
	var finished *time.Time
	if status == "completed" || status == "failed" {
		now := time.Now().UTC()
		finished = &now
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE tracked_jobs SET status = ?, error = ?, finished_at = ?
		WHERE profile = ? AND job_id = ?`,
		status, errMsg, finished, profile, jobID,
	)
	if err != nil {
		return fmt.Errorf("failed to resolve job %d: %w", jobID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("job %d: %w", jobID, store.ErrNotFound)
	}
	return nil
}
