package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

// BulkDraftRequest is the body of POST /jobs/bulk-draft.
type BulkDraftRequest struct {
	EmailIDs     []int64     `json:"email_ids"`
	Instructions string      `json:"instructions"`
	Tone         domain.Tone `json:"tone"`
}

// ListJobs returns recent jobs, newest first.
func (c *Client) ListJobs(ctx context.Context, skip, limit int) ([]domain.Job, error) {
	q := url.Values{}
	if skip > 0 {
		q.Set("skip", strconv.Itoa(skip))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var jobs []domain.Job
	if err := c.get(ctx, "/jobs/", q, &jobs); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

func (c *Client) GetJob(ctx context.Context, id int64) (*domain.Job, error) {
	var j domain.Job
	if err := c.get(ctx, pathf("/jobs/%d", id), nil, &j); err != nil {
		return nil, fmt.Errorf("failed to get job %d: %w", id, err)
	}
	return &j, nil
}

func (c *Client) BulkDraft(ctx context.Context, req BulkDraftRequest) (*domain.JobRef, error) {
	var ref domain.JobRef
	if err := c.post(ctx, "/jobs/bulk-draft", req, &ref); err != nil {
		return nil, fmt.Errorf("failed to queue bulk draft: %w", err)
	}
	return &ref, nil
}
