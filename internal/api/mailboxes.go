package api

import (
	"context"
	"fmt"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

func (c *Client) ListMailboxes(ctx context.Context) ([]domain.Mailbox, error) {
	var boxes []domain.Mailbox
	if err := c.get(ctx, "/mailboxes", nil, &boxes); err != nil {
		return nil, fmt.Errorf("failed to list mailboxes: %w", err)
	}
	return boxes, nil
}

func (c *Client) GetMailbox(ctx context.Context, id int64) (*domain.Mailbox, error) {
	var m domain.Mailbox
	if err := c.get(ctx, pathf("/mailboxes/%d", id), nil, &m); err != nil {
		return nil, fmt.Errorf("failed to get mailbox %d: %w", id, err)
	}
	return &m, nil
}

func (c *Client) CreateMailbox(ctx context.Context, in domain.MailboxCreate) (*domain.Mailbox, error) {
	var m domain.Mailbox
	if err := c.post(ctx, "/mailboxes", in, &m); err != nil {
		return nil, fmt.Errorf("failed to create mailbox: %w", err)
	}
	return &m, nil
}

func (c *Client) UpdateMailbox(ctx context.Context, id int64, upd domain.MailboxUpdate) (*domain.Mailbox, error) {
	var m domain.Mailbox
	if err := c.put(ctx, pathf("/mailboxes/%d", id), upd, &m); err != nil {
		return nil, fmt.Errorf("failed to update mailbox %d: %w", id, err)
	}
	return &m, nil
}

func (c *Client) DeleteMailbox(ctx context.Context, id int64) error {
	if err := c.delete(ctx, pathf("/mailboxes/%d", id), nil); err != nil {
		return fmt.Errorf("failed to delete mailbox %d: %w", id, err)
	}
	return nil
}

// TestConnection asks the backend to verify IMAP and SMTP credentials.
func (c *Client) TestConnection(ctx context.Context, in domain.MailboxCreate) (*domain.ConnectionTestResult, error) {
	var res domain.ConnectionTestResult
	if err := c.post(ctx, "/mailboxes/test-connection", in, &res); err != nil {
		return nil, fmt.Errorf("failed to test connection: %w", err)
	}
	return &res, nil
}

// SyncMailbox queues a fetch of new mail for a mailbox.
func (c *Client) SyncMailbox(ctx context.Context, id int64) (*domain.JobRef, error) {
	var ref domain.JobRef
	if err := c.post(ctx, pathf("/mailboxes/%d/sync", id), struct{}{}, &ref); err != nil {
		return nil, fmt.Errorf("failed to sync mailbox %d: %w", id, err)
	}
	return &ref, nil
}
