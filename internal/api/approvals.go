package api

import (
	"context"
	"fmt"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

func (c *Client) PendingApprovals(ctx context.Context) ([]domain.DraftApproval, error) {
	var pending []domain.DraftApproval
	if err := c.get(ctx, "/approvals/pending", nil, &pending); err != nil {
		return nil, fmt.Errorf("failed to list pending approvals: %w", err)
	}
	return pending, nil
}

func (c *Client) ApproveDraft(ctx context.Context, draftID int64) error {
	if err := c.post(ctx, pathf("/approvals/%d/approve", draftID), nil, nil); err != nil {
		return fmt.Errorf("failed to approve draft %d: %w", draftID, err)
	}
	return nil
}

// RejectDraft rejects a draft. The backend does not store the reason yet,
// so it is only sent when given.
func (c *Client) RejectDraft(ctx context.Context, draftID int64, reason string) error {
	var body any
	if reason != "" {
		body = map[string]string{"reason": reason}
	}
	if err := c.post(ctx, pathf("/approvals/%d/reject", draftID), body, nil); err != nil {
		return fmt.Errorf("failed to reject draft %d: %w", draftID, err)
	}
	return nil
}
