package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

// QuarantineQueue lists quarantined entries. A zero mailboxID means all
// mailboxes; an empty status means the backend default (quarantined).
func (c *Client) QuarantineQueue(ctx context.Context, mailboxID int64, status string) ([]domain.QuarantineEntry, error) {
	q := url.Values{}
	if mailboxID > 0 {
		q.Set("mailbox_id", strconv.FormatInt(mailboxID, 10))
	}
	if status != "" {
		q.Set("status", status)
	}
	var entries []domain.QuarantineEntry
	if err := c.get(ctx, "/quarantine/queue", q, &entries); err != nil {
		return nil, fmt.Errorf("failed to list quarantine: %w", err)
	}
	return entries, nil
}

func (c *Client) QuarantineStats(ctx context.Context, mailboxID int64, days int) (*domain.QuarantineStats, error) {
	q := daysQuery(days)
	if mailboxID > 0 {
		q.Set("mailbox_id", strconv.FormatInt(mailboxID, 10))
	}
	var s domain.QuarantineStats
	if err := c.get(ctx, "/quarantine/stats", q, &s); err != nil {
		return nil, fmt.Errorf("failed to get quarantine stats: %w", err)
	}
	return &s, nil
}

// Release moves an entry back to the inbox, optionally allow-listing the sender.
func (c *Client) Release(ctx context.Context, id int64, notes string, allowlist bool) (*domain.QuarantineResult, error) {
	body := domain.QuarantineAction{Notes: notes, AddToAllowlist: &allowlist}
	var r domain.QuarantineResult
	if err := c.post(ctx, pathf("/quarantine/%d/release", id), body, &r); err != nil {
		return nil, fmt.Errorf("failed to release entry %d: %w", id, err)
	}
	return &r, nil
}

// ConfirmSpam marks an entry as spam, optionally block-listing the sender.
func (c *Client) ConfirmSpam(ctx context.Context, id int64, notes string, blocklist bool) (*domain.QuarantineResult, error) {
	body := domain.QuarantineAction{Notes: notes, AddToBlocklist: &blocklist}
	var r domain.QuarantineResult
	if err := c.post(ctx, pathf("/quarantine/%d/confirm-spam", id), body, &r); err != nil {
		return nil, fmt.Errorf("failed to confirm spam for entry %d: %w", id, err)
	}
	return &r, nil
}

func (c *Client) DeleteQuarantined(ctx context.Context, id int64) (*domain.QuarantineResult, error) {
	var r domain.QuarantineResult
	if err := c.delete(ctx, pathf("/quarantine/%d", id), &r); err != nil {
		return nil, fmt.Errorf("failed to delete entry %d: %w", id, err)
	}
	return &r, nil
}
