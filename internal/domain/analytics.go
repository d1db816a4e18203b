package domain

type SLAMetrics struct {
	PeriodDays           int     `json:"period_days"`
	TotalReceived        int     `json:"total_received"`
	Backlog              int     `json:"backlog"`
	BacklogRate          float64 `json:"backlog_rate"`
	AvgResponseTimeHours float64 `json:"avg_response_time_hours"`
	ResponsesUnder1h     int     `json:"responses_under_1h"`
	ResponsesUnder4h     int     `json:"responses_under_4h"`
	ResponsesUnder24h    int     `json:"responses_under_24h"`
	TotalResponses       int     `json:"total_responses"`
	OverallTotal         int     `json:"overall_total,omitempty"`
	OverallUnread        int     `json:"overall_unread,omitempty"`
}

type JobMetrics struct {
	Total       int     `json:"total"`
	Completed   int     `json:"completed"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}

type AIUsageMetrics struct {
	PeriodDays           int        `json:"period_days"`
	TotalDraftsGenerated int        `json:"total_drafts_generated"`
	DraftsAccepted       int        `json:"drafts_accepted"`
	AcceptanceRate       float64    `json:"acceptance_rate"`
	TotalEmailsSent      int        `json:"total_emails_sent"`
	EditRate             float64    `json:"edit_rate"`
	GenerationJobs       JobMetrics `json:"generation_jobs"`
}

type Highlights struct {
	BacklogStatus      string `json:"backlog_status"`
	ResponseTimeStatus string `json:"response_time_status"`
	AIAdoption         string `json:"ai_adoption"`
}

type DashboardSummary struct {
	PeriodDays int            `json:"period_days"`
	SLA        SLAMetrics     `json:"sla"`
	AIUsage    AIUsageMetrics `json:"ai_usage"`
	Highlights Highlights     `json:"highlights"`
}

// AnalyticsPeriods are the day ranges offered by the dashboard.
var AnalyticsPeriods = []int{7, 30, 90}

type SystemMetrics struct {
	JobsTotal      int `json:"jobs_total"`
	JobsPending    int `json:"jobs_pending"`
	JobsCompleted  int `json:"jobs_completed"`
	JobsFailed     int `json:"jobs_failed"`
	EmailsTotal    int `json:"emails_total"`
	EmailsUnread   int `json:"emails_unread"`
	UsersTotal     int `json:"users_total"`
	AuditEvents24h int `json:"audit_events_24h"`
}

type ComponentHealth struct {
	Status    string   `json:"status"`
	LatencyMS *float64 `json:"latency_ms,omitempty"`
	Error     string   `json:"error,omitempty"`
	Message   string   `json:"message,omitempty"`
}

type HealthReport struct {
	Status    string                     `json:"status"`
	Timestamp string                     `json:"timestamp,omitempty"`
	Checks    map[string]ComponentHealth `json:"checks,omitempty"`
}

// ReadinessReport is the body of GET /health/ready.
type ReadinessReport struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}
