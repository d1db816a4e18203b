package domain

import "strings"

const (
	DefaultIMAPPort = 993
	DefaultSMTPPort = 587
)

type Mailbox struct {
	ID             int64  `json:"id"`
	UserID         int64  `json:"user_id,omitempty"`
	EmailAddress   string `json:"email_address"`
	Provider       string `json:"provider"`
	IMAPHost       string `json:"imap_host,omitempty"`
	IMAPPort       int    `json:"imap_port,omitempty"`
	SMTPHost       string `json:"smtp_host,omitempty"`
	SMTPPort       int    `json:"smtp_port,omitempty"`
	IsActive       bool   `json:"is_active"`
	LastSyncedAt   Time   `json:"last_synced_at"`
	SyncStatus     string `json:"sync_status,omitempty"`
	TotalMessages  int    `json:"total_messages"`
	UnreadMessages int    `json:"unread_messages"`
	CreatedAt      Time   `json:"created_at"`
	UpdatedAt      Time   `json:"updated_at"`
}

type MailboxCreate struct {
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
	Provider     string `json:"provider"`
	IMAPHost     string `json:"imap_host,omitempty"`
	IMAPPort     int    `json:"imap_port,omitempty"`
	SMTPHost     string `json:"smtp_host,omitempty"`
	SMTPPort     int    `json:"smtp_port,omitempty"`
}

// ApplyPreset fills empty hosts and ports from the provider preset.
func (m *MailboxCreate) ApplyPreset() {
	if m.Provider == "" {
		m.Provider = "custom"
	}
	if p, ok := ProviderPreset(m.Provider); ok {
		if m.IMAPHost == "" {
			m.IMAPHost = p.IMAPHost
		}
		if m.SMTPHost == "" {
			m.SMTPHost = p.SMTPHost
		}
	}
	if m.IMAPPort == 0 {
		m.IMAPPort = DefaultIMAPPort
	}
	if m.SMTPPort == 0 {
		m.SMTPPort = DefaultSMTPPort
	}
}

// MailboxUpdate is a partial update. Nil fields are left unchanged.
type MailboxUpdate struct {
	EmailAddress *string `json:"email_address,omitempty"`
	Provider     *string `json:"provider,omitempty"`
	IMAPHost     *string `json:"imap_host,omitempty"`
	IMAPPort     *int    `json:"imap_port,omitempty"`
	SMTPHost     *string `json:"smtp_host,omitempty"`
	SMTPPort     *int    `json:"smtp_port,omitempty"`
	Password     *string `json:"password,omitempty"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

type CheckResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ConnectionTestResult holds per-protocol results. A nil entry means the
// protocol was not tested because no host was given.
type ConnectionTestResult struct {
	IMAP *CheckResult `json:"imap,omitempty"`
	SMTP *CheckResult `json:"smtp,omitempty"`
}

// OK reports whether every tested protocol succeeded.
func (r ConnectionTestResult) OK() bool {
	if r.IMAP == nil && r.SMTP == nil {
		return false
	}
	return (r.IMAP == nil || r.IMAP.Success) && (r.SMTP == nil || r.SMTP.Success)
}

type Preset struct {
	IMAPHost string
	SMTPHost string
}

var presets = map[string]Preset{
	"gmail":   {IMAPHost: "imap.gmail.com", SMTPHost: "smtp.gmail.com"},
	"outlook": {IMAPHost: "outlook.office365.com", SMTPHost: "smtp.office365.com"},
}

// ProviderPreset returns the well-known hosts for a provider name.
func ProviderPreset(provider string) (Preset, bool) {
	p, ok := presets[strings.ToLower(provider)]
	return p, ok
}

// Providers lists the provider names offered by the mailbox form.
func Providers() []string {
	return []string{"gmail", "outlook", "custom"}
}
