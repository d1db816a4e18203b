package domain

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/emersion/go-message/mail"
)

type Attachment struct {
	ID          int64  `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type Tag struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Email is a message stored by the backend for one of the user's mailboxes.
type Email struct {
	ID             int64        `json:"id"`
	MailboxID      int64        `json:"mailbox_id"`
	MessageID      string       `json:"message_id"`
	Sender         string       `json:"sender"`
	Recipients     any          `json:"recipients,omitempty"`
	Subject        string       `json:"subject"`
	Folder         string       `json:"folder"`
	State          string       `json:"state,omitempty"`
	IsRead         bool         `json:"is_read"`
	IsFlagged      bool         `json:"is_flagged"`
	ReceivedAt     Time         `json:"received_at"`
	CreatedAt      Time         `json:"created_at"`
	AssignedUserID *int64       `json:"assigned_user_id,omitempty"`
	Attachments    []Attachment `json:"attachments"`
	Tags           []Tag        `json:"tags"`
}

type EmailDetail struct {
	Email
	BodyText string `json:"body_text,omitempty"`
	BodyHTML string `json:"body_html,omitempty"`
}

type EmailPage struct {
	Items []Email `json:"items"`
	Total int     `json:"total"`
	Page  int     `json:"page"`
	Size  int     `json:"size"`
}

// Pages returns the number of pages needed to show Total items.
func (p EmailPage) Pages() int {
	if p.Size <= 0 {
		return 0
	}
	return (p.Total + p.Size - 1) / p.Size
}

// EmailFilter holds the list query parameters accepted by GET /emails.
type EmailFilter struct {
	Page      int
	Size      int
	MailboxID int64
	Folder    string
	IsRead    *bool
	Query     string
}

// Values encodes the filter as URL query parameters, omitting unset fields.
func (f EmailFilter) Values() url.Values {
	v := url.Values{}
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.Size > 0 {
		v.Set("size", strconv.Itoa(f.Size))
	}
	if f.MailboxID > 0 {
		v.Set("mailbox_id", strconv.FormatInt(f.MailboxID, 10))
	}
	if f.Folder != "" {
		v.Set("folder", f.Folder)
	}
	if f.IsRead != nil {
		v.Set("is_read", strconv.FormatBool(*f.IsRead))
	}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	return v
}

func (e *Email) HasTag(name string) bool {
	for _, t := range e.Tags {
		if strings.EqualFold(t.Name, name) {
			return true
		}
	}
	return false
}

// SenderName returns the display name of an RFC 5322 sender such as
// `"Jane Doe" <jane@example.com>`. It falls back to the raw string.
func SenderName(sender string) string {
	sender = strings.TrimSpace(sender)
	if sender == "" {
		return ""
	}
	addr, err := mail.ParseAddress(sender)
	if err == nil {
		if addr.Name != "" {
			return addr.Name
		}
		return addr.Address
	}
	if i := strings.Index(sender, "<"); i > 0 {
		return strings.Trim(strings.TrimSpace(sender[:i]), `"`)
	}
	return sender
}

// SenderAddress returns the bare address of an RFC 5322 sender.
func SenderAddress(sender string) string {
	sender = strings.TrimSpace(sender)
	addr, err := mail.ParseAddress(sender)
	if err == nil {
		return addr.Address
	}
	if i := strings.Index(sender, "<"); i >= 0 {
		if j := strings.Index(sender[i:], ">"); j > 0 {
			return sender[i+1 : i+j]
		}
	}
	return sender
}

// ReplySubject prefixes subject with "Re: " unless it already has one.
func ReplySubject(subject string) string {
	s := strings.TrimSpace(subject)
	if len(s) >= 3 && strings.EqualFold(s[:3], "re:") {
		return s
	}
	return "Re: " + s
}
