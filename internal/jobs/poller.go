// Package jobs follows backend jobs until they finish.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lu-zhengda/smartmail/internal/domain"
	"github.com/lu-zhengda/smartmail/internal/logging"
)

var (
	// ErrJobFailed wraps the error message of a job that ended in failed.
	ErrJobFailed = errors.New("job failed")
	// ErrTimeout is returned when a job does not finish within Poller.Timeout.
	ErrTimeout = errors.New("timed out waiting for job")
)

const DefaultInterval = 2 * time.Second

// Source fetches the current state of a job.
type Source interface {
	GetJob(ctx context.Context, id int64) (*domain.Job, error)
}

// Recorder counts status checks.
type Recorder interface {
	RecordJobPoll(ctx context.Context, status string)
}

// Poller polls a job until it reaches a terminal status.
type Poller struct {
	Source   Source
	Interval time.Duration
	// Timeout bounds the whole wait. Zero waits until ctx is done.
	Timeout time.Duration
	Logger  *slog.Logger
	Metrics Recorder
}

// Wait polls job id immediately and then every Interval. onUpdate, if not
// nil, is called each time the observed status changes.
//
// A completed job is returned with a nil error. A failed job is returned
// with an error wrapping ErrJobFailed. A failed status request ends the
// wait with that error.
func (p *Poller) Wait(ctx context.Context, id int64, onUpdate func(*domain.Job)) (*domain.Job, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(logging.KeyJobID, id)

	var deadline <-chan time.Time
	if p.Timeout > 0 {
		t := time.NewTimer(p.Timeout)
		defer t.Stop()
		deadline = t.C
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last domain.JobStatus
	for {
		job, err := p.Source.GetJob(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.record(ctx, "error")
			logger.Debug("job status check failed", logging.Err(err))
			return nil, err
		}
		p.record(ctx, string(job.Status))

		if job.Status != last {
			last = job.Status
			logger.Debug("job status changed", logging.KeyStatus, job.Status)
			if onUpdate != nil {
				onUpdate(job)
			}
		}

		switch job.Status {
		case domain.JobCompleted:
			return job, nil
		case domain.JobFailed:
			return job, Failure(job)
		}

		select {
		case <-ticker.C:
		case <-deadline:
			return job, fmt.Errorf("job %d still %s after %s: %w", id, job.Status, p.Timeout, ErrTimeout)
		case <-ctx.Done():
			return job, ctx.Err()
		}
	}
}

func (p *Poller) record(ctx context.Context, status string) {
	if p.Metrics != nil {
		p.Metrics.RecordJobPoll(ctx, status)
	}
}

// Failure returns the error for a failed job, wrapping ErrJobFailed.
func Failure(job *domain.Job) error {
	msg := job.Error
	if msg == "" {
		msg = "no error reported"
	}
	return fmt.Errorf("job %d (%s): %w: %s", job.ID, job.Type, ErrJobFailed, msg)
}
