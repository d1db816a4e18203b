package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

func (c *Client) AnalyzeSpam(ctx context.Context, emailID int64) (*domain.SpamAnalysis, error) {
	var a domain.SpamAnalysis
	if err := c.get(ctx, pathf("/spam/analyze/%d", emailID), nil, &a); err != nil {
		return nil, fmt.Errorf("failed to analyze email %d: %w", emailID, err)
	}
	return &a, nil
}

// ScanMailbox scores every email in a mailbox. With autoQuarantine the
// backend quarantines what it classifies as spam.
func (c *Client) ScanMailbox(ctx context.Context, mailboxID int64, autoQuarantine bool) (*domain.SpamScanResult, error) {
	q := url.Values{"auto_quarantine": {strconv.FormatBool(autoQuarantine)}}
	r := request{method: http.MethodPost, path: pathf("/spam/scan/%d", mailboxID), query: q}
	var res domain.SpamScanResult
	if err := c.do(ctx, r, &res); err != nil {
		return nil, fmt.Errorf("failed to scan mailbox %d: %w", mailboxID, err)
	}
	return &res, nil
}

func (c *Client) ListSpamRules(ctx context.Context) ([]domain.SpamRule, error) {
	var rules []domain.SpamRule
	if err := c.get(ctx, "/spam/rules", nil, &rules); err != nil {
		return nil, fmt.Errorf("failed to list spam rules: %w", err)
	}
	return rules, nil
}

func (c *Client) CreateSpamRule(ctx context.Context, in domain.SpamRuleCreate) (*domain.SpamRule, error) {
	var rule domain.SpamRule
	if err := c.post(ctx, "/spam/rules", in, &rule); err != nil {
		return nil, fmt.Errorf("failed to create spam rule: %w", err)
	}
	return &rule, nil
}

func (c *Client) DeleteSpamRule(ctx context.Context, id int64) error {
	if err := c.delete(ctx, pathf("/spam/rules/%d", id), nil); err != nil {
		return fmt.Errorf("failed to delete spam rule %d: %w", id, err)
	}
	return nil
}
