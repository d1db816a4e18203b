package cli

import (
	"time"

	"github.com/lu-zhengda/smartmail/internal/bulk"
	"github.com/lu-zhengda/smartmail/internal/domain"
	"github.com/lu-zhengda/smartmail/internal/store"
)

// ---------------------------------------------------------------------------
// Email JSON types (email list)
// ---------------------------------------------------------------------------

type jsonEmail struct {
	ID         int64    `json:"id"`
	MailboxID  int64    `json:"mailbox_id"`
	From       jsonFrom `json:"from"`
	Subject    string   `json:"subject"`
	Folder     string   `json:"folder"`
	IsRead     bool     `json:"is_read"`
	ReceivedAt string   `json:"received_at,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

type jsonFrom struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type jsonEmailPage struct {
	Items []jsonEmail `json:"items"`
	Total int         `json:"total"`
	Page  int         `json:"page"`
	Pages int         `json:"pages"`
}

func toJSONFrom(sender string) jsonFrom {
	from := jsonFrom{Email: domain.SenderAddress(sender)}
	if name := domain.SenderName(sender); name != from.Email {
		from.Name = name
	}
	return from
}

func toJSONEmails(emails []domain.Email) []jsonEmail {
	out := make([]jsonEmail, 0, len(emails))
	for _, e := range emails {
		je := jsonEmail{
			ID:        e.ID,
			MailboxID: e.MailboxID,
			From:      toJSONFrom(e.Sender),
			Subject:   e.Subject,
			Folder:    e.Folder,
			IsRead:    e.IsRead,
		}
		if !e.ReceivedAt.IsZero() {
			je.ReceivedAt = e.ReceivedAt.Format(time.RFC3339)
		}
		for _, t := range e.Tags {
			je.Tags = append(je.Tags, t.Name)
		}
		out = append(out, je)
	}
	return out
}

func toJSONEmailPage(p *domain.EmailPage) jsonEmailPage {
	return jsonEmailPage{
		Items: toJSONEmails(p.Items),
		Total: p.Total,
		Page:  p.Page,
		Pages: p.Pages(),
	}
}

// ---------------------------------------------------------------------------
// Bulk preview JSON type (bulk preview)
// ---------------------------------------------------------------------------

type jsonPreview struct {
	EmailID   int64  `json:"email_id"`
	DraftID   int64  `json:"draft_id,omitempty"`
	Readiness string `json:"readiness"`
	Message   string `json:"message"`
}

func toJSONPreviews(items []bulk.PreviewItem) []jsonPreview {
	out := make([]jsonPreview, 0, len(items))
	for _, it := range items {
		jp := jsonPreview{
			EmailID:   it.EmailID,
			Readiness: string(it.Readiness),
			Message:   it.Message,
		}
		if it.Draft != nil {
			jp.DraftID = it.Draft.ID
		}
		out = append(out, jp)
	}
	return out
}

// ---------------------------------------------------------------------------
// Bulk send JSON type (bulk send)
// ---------------------------------------------------------------------------

type jsonSendResult struct {
	Sent    int               `json:"sent"`
	Failed  int               `json:"failed"`
	Results []jsonSendOutcome `json:"results"`
}

type jsonSendOutcome struct {
	EmailID int64  `json:"email_id"`
	Status  string `json:"status"`
	JobID   int64  `json:"job_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

func toJSONSendResult(items []*bulk.Item, s bulk.Summary) jsonSendResult {
	out := jsonSendResult{Sent: s.Sent, Failed: s.Failed, Results: make([]jsonSendOutcome, 0, len(items))}
	for _, it := range items {
		out.Results = append(out.Results, jsonSendOutcome{
			EmailID: it.EmailID,
			Status:  string(it.Status),
			JobID:   it.JobID,
			Error:   it.Error,
		})
	}
	return out
}

// ---------------------------------------------------------------------------
// Profile JSON type (profile list)
// ---------------------------------------------------------------------------

type jsonProfile struct {
	Name      string `json:"name"`
	BaseURL   string `json:"base_url"`
	User      string `json:"user,omitempty"`
	Role      string `json:"role,omitempty"`
	Default   bool   `json:"default"`
	CreatedAt string `json:"created_at"`
}

func toJSONProfiles(profiles []store.Profile) []jsonProfile {
	out := make([]jsonProfile, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, jsonProfile{
			Name:      p.Name,
			BaseURL:   p.BaseURL,
			User:      p.UserEmail,
			Role:      p.Role,
			Default:   p.IsDefault,
			CreatedAt: p.CreatedAt.Format(time.DateOnly),
		})
	}
	return out
}

// ---------------------------------------------------------------------------
// Action JSON type (login, sync, send, release, delete, etc.)
// ---------------------------------------------------------------------------

type jsonAction struct {
	OK      bool   `json:"ok"`
	Action  string `json:"action"`
	ID      int64  `json:"id,omitempty"`
	JobID   int64  `json:"job_id,omitempty"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
	Profile string `json:"profile,omitempty"`
	Email   string `json:"email,omitempty"`
}

// jobAction reports a queued job, or the final job when it was awaited.
func jobAction(action string, ref *domain.JobRef, job *domain.Job) jsonAction {
	a := jsonAction{OK: true, Action: action, JobID: ref.JobID, Status: ref.Status, Message: ref.Message}
	if job != nil {
		a.Status = string(job.Status)
		a.OK = job.Status != domain.JobFailed
		if job.Error != "" {
			a.Message = job.Error
		}
	}
	return a
}
