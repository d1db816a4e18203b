package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

func daysQuery(days int) url.Values {
	q := url.Values{}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}
	return q
}

// Dashboard returns the combined SLA and AI usage summary for the last days.
func (c *Client) Dashboard(ctx context.Context, days int) (*domain.DashboardSummary, error) {
	var s domain.DashboardSummary
	if err := c.get(ctx, "/analytics/dashboard", daysQuery(days), &s); err != nil {
		return nil, fmt.Errorf("failed to get dashboard: %w", err)
	}
	return &s, nil
}

func (c *Client) SLA(ctx context.Context, days int) (*domain.SLAMetrics, error) {
	var m domain.SLAMetrics
	if err := c.get(ctx, "/analytics/sla", daysQuery(days), &m); err != nil {
		return nil, fmt.Errorf("failed to get sla metrics: %w", err)
	}
	return &m, nil
}

func (c *Client) AIUsage(ctx context.Context, days int) (*domain.AIUsageMetrics, error) {
	var m domain.AIUsageMetrics
	if err := c.get(ctx, "/analytics/ai-usage", daysQuery(days), &m); err != nil {
		return nil, fmt.Errorf("failed to get ai usage: %w", err)
	}
	return &m, nil
}
