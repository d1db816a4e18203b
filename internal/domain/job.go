package domain

import (
	"encoding/json"
	"strconv"
)

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// IsTerminal reports whether no further status changes will happen.
func (s JobStatus) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed
}

type JobType string

const (
	JobGenerateDraft JobType = "generate_draft"
	JobSendEmail     JobType = "send_email"
	JobSyncEmail     JobType = "sync_email"
	JobBulkDraft     JobType = "bulk_draft_orchestrator"
	JobGenerateEmbed JobType = "generate_embedding"
)

type Job struct {
	ID          int64          `json:"id"`
	Type        JobType        `json:"type"`
	Status      JobStatus      `json:"status"`
	Payload     map[string]any `json:"payload,omitempty"`
	Result      map[string]any `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
	Attempts    int            `json:"attempts"`
	NextRetryAt Time           `json:"next_retry_at"`
	CreatedAt   Time           `json:"created_at"`
	StartedAt   Time           `json:"started_at"`
	CompletedAt Time           `json:"completed_at"`
}

// ResultID returns an integer field of the job result, such as draft_id.
func (j *Job) ResultID(key string) (int64, bool) {
	if j == nil || j.Result == nil {
		return 0, false
	}
	switch v := j.Result[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}
	return 0, false
}

// JobRef is the acknowledgement returned when the backend queues a job.
type JobRef struct {
	Message string `json:"message,omitempty"`
	Status  string `json:"status,omitempty"`
	JobID   int64  `json:"job_id"`
}
