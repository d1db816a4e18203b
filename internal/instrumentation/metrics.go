package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrMethod = "method"
	attrStatus = "status"
	attrResult = "result"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultHit     = "hit"
	ResultMiss    = "miss"
)

// Metrics records client-side observability metrics. The zero value is a
// no-op recorder.
type Metrics struct {
	apiRequestsTotal   metric.Int64Counter
	apiRequestDuration metric.Float64Histogram
	tokenRefreshTotal  metric.Int64Counter
	jobPollsTotal      metric.Int64Counter
	replyCacheTotal    metric.Int64Counter
}

// NewMetrics creates all instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.apiRequestsTotal, err = meter.Int64Counter(
		"smartmail_api_requests_total",
		metric.WithDescription("Total number of backend API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create smartmail_api_requests_total counter: %w", err)
	}

	m.apiRequestDuration, err = meter.Float64Histogram(
		"smartmail_api_request_duration_seconds",
		metric.WithDescription("Backend API request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create smartmail_api_request_duration_seconds histogram: %w", err)
	}

	m.tokenRefreshTotal, err = meter.Int64Counter(
		"smartmail_token_refresh_total",
		metric.WithDescription("Total number of access token refresh attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create smartmail_token_refresh_total counter: %w", err)
	}

	m.jobPollsTotal, err = meter.Int64Counter(
		"smartmail_job_polls_total",
		metric.WithDescription("Total number of job status polls"),
		metric.WithUnit("{poll}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create smartmail_job_polls_total counter: %w", err)
	}

	m.replyCacheTotal, err = meter.Int64Counter(
		"smartmail_reply_cache_total",
		metric.WithDescription("Total number of reply cache lookups"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create smartmail_reply_cache_total counter: %w", err)
	}

	return m, nil
}

// RecordRequest records one backend request. Paths are left out of the
// attributes because they embed resource ids.
func (m *Metrics) RecordRequest(ctx context.Context, method string, statusCode int, duration time.Duration) {
	if m == nil || m.apiRequestsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.apiRequestsTotal.Add(ctx, 1, attrs)
	m.apiRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordTokenRefresh records a refresh attempt. Result is ResultSuccess or ResultFailure.
func (m *Metrics) RecordTokenRefresh(ctx context.Context, result string) {
	if m == nil || m.tokenRefreshTotal == nil {
		return
	}
	m.tokenRefreshTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordJobPoll records one job status observation.
func (m *Metrics) RecordJobPoll(ctx context.Context, status string) {
	if m == nil || m.jobPollsTotal == nil {
		return
	}
	m.jobPollsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, status)))
}

// RecordCacheLookup records a reply cache lookup.
func (m *Metrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil || m.replyCacheTotal == nil {
		return
	}
	result := ResultMiss
	if hit {
		result = ResultHit
	}
	m.replyCacheTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}
