// Package store defines local persistence for smartmail: backend profiles,
// jobs submitted from this machine and the generated-reply cache.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Profile is a named backend endpoint. Tokens for a profile live in the OS
// keyring under the profile name.
type Profile struct {
	Name      string    `db:"name" json:"name" yaml:"name"`
	BaseURL   string    `db:"base_url" json:"base_url" yaml:"base_url"`
	UserEmail string    `db:"user_email" json:"user_email,omitempty" yaml:"user_email,omitempty"`
	Role      string    `db:"role" json:"role,omitempty" yaml:"role,omitempty"`
	IsDefault bool      `db:"is_default" json:"is_default" yaml:"is_default"`
	CreatedAt time.Time `db:"created_at" json:"created_at" yaml:"created_at"`
}

// TrackedJob is a backend job submitted from this client.
type TrackedJob struct {
	JobID       int64      `db:"job_id" json:"job_id" yaml:"job_id"`
	Profile     string     `db:"profile" json:"profile" yaml:"profile"`
	Kind        string     `db:"kind" json:"kind" yaml:"kind"`
	Subject     string     `db:"subject" json:"subject" yaml:"subject"`
	Status      string     `db:"status" json:"status" yaml:"status"`
	Error       string     `db:"error" json:"error,omitempty" yaml:"error,omitempty"`
	SubmittedAt time.Time  `db:"submitted_at" json:"submitted_at" yaml:"submitted_at"`
	FinishedAt  *time.Time `db:"finished_at" json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}

// CachedReply is a generated reply kept for reuse.
type CachedReply struct {
	Key      string    `db:"key"`
	Profile  string    `db:"profile"`
	Text     string    `db:"text"`
	Tone     string    `db:"tone"`
	StoredAt time.Time `db:"stored_at"`
}

// Store defines the persistence interface for the application.
type Store interface {
	// Profiles
	SaveProfile(ctx context.Context, p *Profile) error
	GetProfile(ctx context.Context, name string) (*Profile, error)
	ListProfiles(ctx context.Context) ([]Profile, error)
	DeleteProfile(ctx context.Context, name string) error
	SetProfileUser(ctx context.Context, name, email, role string) error
	SetDefaultProfile(ctx context.Context, name string) error

	// Jobs
	TrackJob(ctx context.Context, j *TrackedJob) error
	ListTrackedJobs(ctx context.Context, profile string, limit int) ([]TrackedJob, error)
	PendingJobs(ctx context.Context, profile string) ([]TrackedJob, error)
	ResolveJob(ctx context.Context, profile string, jobID int64, status, errMsg string) error

	// Replies
	GetReply(ctx context.Context, profile, key string) (*CachedReply, error)
	PutReply(ctx context.Context, r *CachedReply) error
	DeleteReply(ctx context.Context, profile, key string) error
	PurgeReplies(ctx context.Context, profile string) error
	PruneReplies(ctx context.Context, before time.Time) (int64, error)

	Close() error
}
