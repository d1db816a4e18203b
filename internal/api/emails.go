package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

// SendRequest is the body of POST /emails/{id}/send.
type SendRequest struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	BodyHTML  string `json:"body_html,omitempty"`
	BodyText  string `json:"body_text,omitempty"`
}

// DraftJobRequest is the body of POST /emails/{id}/draft-job.
type DraftJobRequest struct {
	Instructions string      `json:"instructions"`
	Tone         domain.Tone `json:"tone"`
}

func (c *Client) ListEmails(ctx context.Context, f domain.EmailFilter) (*domain.EmailPage, error) {
	var page domain.EmailPage
	if err := c.get(ctx, "/emails/", f.Values(), &page); err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	return &page, nil
}

func (c *Client) GetEmail(ctx context.Context, id int64) (*domain.EmailDetail, error) {
	var e domain.EmailDetail
	if err := c.get(ctx, pathf("/emails/%d", id), nil, &e); err != nil {
		return nil, fmt.Errorf("failed to get email %d: %w", id, err)
	}
	return &e, nil
}

func (c *Client) AssignEmail(ctx context.Context, id, userID int64) error {
	body := map[string]int64{"user_id": userID}
	if err := c.post(ctx, pathf("/emails/%d/assign", id), body, nil); err != nil {
		return fmt.Errorf("failed to assign email %d: %w", id, err)
	}
	return nil
}

func (c *Client) AddTag(ctx context.Context, id int64, name, color string) (*domain.Tag, error) {
	body := map[string]string{"name": name}
	if color != "" {
		body["color"] = color
	}
	var tag domain.Tag
	if err := c.post(ctx, pathf("/emails/%d/tags", id), body, &tag); err != nil {
		return nil, fmt.Errorf("failed to tag email %d: %w", id, err)
	}
	return &tag, nil
}

func (c *Client) RemoveTag(ctx context.Context, id, tagID int64) error {
	if err := c.delete(ctx, pathf("/emails/%d/tags/%d", id, tagID), nil); err != nil {
		return fmt.Errorf("failed to remove tag %d from email %d: %w", tagID, id, err)
	}
	return nil
}

// BulkTag applies tagName to every email in ids.
func (c *Client) BulkTag(ctx context.Context, ids []int64, tagName string) error {
	body := map[string]any{"email_ids": ids, "tag_name": tagName}
	if err := c.post(ctx, "/emails/bulk-tag", body, nil); err != nil {
		return fmt.Errorf("failed to bulk-tag %d emails: %w", len(ids), err)
	}
	return nil
}

// GenerateDraft queues AI draft generation for an email.
func (c *Client) GenerateDraft(ctx context.Context, id int64, req DraftJobRequest) (*domain.JobRef, error) {
	var ref domain.JobRef
	if err := c.post(ctx, pathf("/emails/%d/draft-job", id), req, &ref); err != nil {
		return nil, fmt.Errorf("failed to queue draft for email %d: %w", id, err)
	}
	return &ref, nil
}

func (c *Client) ListDrafts(ctx context.Context, emailID int64) ([]domain.Draft, error) {
	var drafts []domain.Draft
	if err := c.get(ctx, pathf("/emails/%d/drafts", emailID), nil, &drafts); err != nil {
		return nil, fmt.Errorf("failed to list drafts for email %d: %w", emailID, err)
	}
	return drafts, nil
}

// SendEmail queues a reply to an email.
func (c *Client) SendEmail(ctx context.Context, emailID int64, req SendRequest) (*domain.JobRef, error) {
	var ref domain.JobRef
	if err := c.post(ctx, pathf("/emails/%d/send", emailID), req, &ref); err != nil {
		return nil, fmt.Errorf("failed to queue send for email %d: %w", emailID, err)
	}
	return &ref, nil
}

func (c *Client) GetDraft(ctx context.Context, id int64) (*domain.Draft, error) {
	var d domain.Draft
	if err := c.get(ctx, pathf("/drafts/%d", id), nil, &d); err != nil {
		return nil, fmt.Errorf("failed to get draft %d: %w", id, err)
	}
	return &d, nil
}

func (c *Client) UpdateDraft(ctx context.Context, id int64, upd domain.DraftUpdate) (*domain.Draft, error) {
	var d domain.Draft
	if err := c.put(ctx, pathf("/drafts/%d", id), upd, &d); err != nil {
		return nil, fmt.Errorf("failed to update draft %d: %w", id, err)
	}
	return &d, nil
}

// ListAuditLogs returns recent audit events, optionally of one type.
func (c *Client) ListAuditLogs(ctx context.Context, eventType string, skip, limit int) ([]domain.AuditLog, error) {
	q := url.Values{}
	if eventType != "" {
		q.Set("event_type", eventType)
	}
	if skip > 0 {
		q.Set("skip", strconv.Itoa(skip))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var logs []domain.AuditLog
	if err := c.get(ctx, "/audit/", q, &logs); err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, nil
}
