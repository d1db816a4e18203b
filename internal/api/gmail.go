package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

// GmailInbox lists messages from the connected Gmail account.
func (c *Client) GmailInbox(ctx context.Context, maxResults int, pageToken string) (*domain.GmailInbox, error) {
	q := url.Values{}
	if maxResults > 0 {
		q.Set("max_results", strconv.Itoa(maxResults))
	}
	if pageToken != "" {
		q.Set("page_token", pageToken)
	}
	var inbox domain.GmailInbox
	if err := c.get(ctx, "/gmail/inbox", q, &inbox); err != nil {
		return nil, fmt.Errorf("failed to list gmail inbox: %w", err)
	}
	return &inbox, nil
}

func (c *Client) GmailMessage(ctx context.Context, id string) (*domain.GmailMessage, error) {
	var m domain.GmailMessage
	if err := c.get(ctx, pathf("/gmail/message/%s", id), nil, &m); err != nil {
		return nil, fmt.Errorf("failed to get gmail message %s: %w", id, err)
	}
	return &m, nil
}

func (c *Client) GmailStats(ctx context.Context) (*domain.GmailStats, error) {
	var s domain.GmailStats
	if err := c.get(ctx, "/gmail/stats", nil, &s); err != nil {
		return nil, fmt.Errorf("failed to get gmail stats: %w", err)
	}
	return &s, nil
}

// AutoReply generates a reply to a Gmail message.
func (c *Client) AutoReply(ctx context.Context, id string, req domain.AutoReplyRequest) (*domain.AutoReply, error) {
	var r domain.AutoReply
	if err := c.post(ctx, pathf("/gmail/auto-reply/%s", id), req, &r); err != nil {
		return nil, fmt.Errorf("failed to generate reply for %s: %w", id, err)
	}
	return &r, nil
}

// SendReply sends body as a reply to a Gmail message. An empty subject lets
// the backend derive one from the original.
func (c *Client) SendReply(ctx context.Context, id, body, subject string) (*domain.SendReplyResult, error) {
	payload := map[string]string{"body": body}
	if subject != "" {
		payload["subject"] = subject
	}
	var r domain.SendReplyResult
	if err := c.post(ctx, pathf("/gmail/send-reply/%s", id), payload, &r); err != nil {
		return nil, fmt.Errorf("failed to send reply to %s: %w", id, err)
	}
	return &r, nil
}
