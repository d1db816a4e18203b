// Package instrumentation wires OpenTelemetry metrics and tracing for the
// smartmail client.
//
// Instruments:
//   - smartmail_api_requests_total: backend requests by method and status
//   - smartmail_api_request_duration_seconds: backend request latency
//   - smartmail_token_refresh_total: access token refreshes by result
//   - smartmail_job_polls_total: job status polls by observed status
//   - smartmail_reply_cache_total: reply cache lookups by hit or miss
//
// When disabled the provider hands out a Metrics value whose methods do
// nothing, so callers never check for nil.
package instrumentation

import "github.com/lu-zhengda/smartmail/internal/config"

const (
	ExporterNone       = "none"
	ExporterStdout     = "stdout"
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
)

// Config holds the configuration for OpenTelemetry instrumentation.
type Config struct {
	ServiceName    string
	ServiceVersion string

	Enabled bool

	// MetricsExporter is one of none, stdout, prometheus, otlp.
	MetricsExporter string

	// TracingExporter is one of none, stdout, otlp.
	TracingExporter string

	// OTLPEndpoint is host:port without scheme, e.g. "localhost:4318".
	OTLPEndpoint string
	OTLPInsecure bool

	// MetricsAddr is where the Prometheus handler listens.
	MetricsAddr string
}

// FromAppConfig maps the [telemetry] config section.
func FromAppConfig(t config.TelemetryConfig, version string) Config {
	c := Config{
		ServiceName:     "smartmail",
		ServiceVersion:  version,
		Enabled:         t.Enabled,
		MetricsExporter: t.MetricsExporter,
		TracingExporter: t.TracingExporter,
		OTLPEndpoint:    t.OTLPEndpoint,
		OTLPInsecure:    t.OTLPInsecure,
		MetricsAddr:     t.MetricsAddr,
	}
	if c.MetricsExporter == "" {
		c.MetricsExporter = ExporterNone
	}
	if c.TracingExporter == "" {
		c.TracingExporter = ExporterNone
	}
	return c
}
