package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

// Health returns the backend component health. A degraded backend answers
// 503 with the same body, which is returned alongside the error.
func (c *Client) Health(ctx context.Context) (*domain.HealthReport, error) {
	var h domain.HealthReport
	r := request{method: http.MethodGet, path: "/health/", noRefresh: true}
	if err := c.do(ctx, r, &h); err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable {
			return &domain.HealthReport{Status: "unhealthy"}, fmt.Errorf("backend unhealthy: %w", err)
		}
		return nil, fmt.Errorf("failed to check health: %w", err)
	}
	return &h, nil
}

func (c *Client) Ready(ctx context.Context) (*domain.ReadinessReport, error) {
	var rr domain.ReadinessReport
	r := request{method: http.MethodGet, path: "/health/ready", noRefresh: true}
	if err := c.do(ctx, r, &rr); err != nil {
		return nil, fmt.Errorf("failed to check readiness: %w", err)
	}
	return &rr, nil
}

func (c *Client) SystemMetrics(ctx context.Context) (*domain.SystemMetrics, error) {
	var m domain.SystemMetrics
	if err := c.get(ctx, "/metrics/system", nil, &m); err != nil {
		return nil, fmt.Errorf("failed to get system metrics: %w", err)
	}
	return &m, nil
}
