package domain

import "strings"

type GmailMessage struct {
	ID       string   `json:"id"`
	ThreadID string   `json:"thread_id"`
	Subject  string   `json:"subject"`
	Sender   string   `json:"sender"`
	To       string   `json:"to"`
	Date     string   `json:"date"`
	Snippet  string   `json:"snippet"`
	Body     string   `json:"body"`
	Labels   []string `json:"labels"`
	IsRead   bool     `json:"is_read"`
}

type GmailInbox struct {
	Messages      []GmailMessage `json:"messages"`
	Count         int            `json:"count"`
	NextPageToken string         `json:"nextPageToken,omitempty"`
}

type GmailStats struct {
	Connected   bool   `json:"connected"`
	UnreadCount int    `json:"unread_count"`
	UserEmail   string `json:"user_email,omitempty"`
	Error       string `json:"error,omitempty"`
}

type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneFriendly     Tone = "friendly"
	ToneAssertive    Tone = "assertive"
	ToneUrgent       Tone = "urgent"
)

// Tones lists the reply tones in display order.
var Tones = []Tone{ToneProfessional, ToneFriendly, ToneAssertive, ToneUrgent}

// ValidTone reports whether s names a known tone.
func ValidTone(s string) bool {
	for _, t := range Tones {
		if string(t) == strings.ToLower(s) {
			return true
		}
	}
	return false
}

// Next returns the tone after t, wrapping around.
func (t Tone) Next() Tone {
	for i, x := range Tones {
		if x == t {
			return Tones[(i+1)%len(Tones)]
		}
	}
	return ToneProfessional
}

// AutoReplyRequest asks the backend for a generated reply. When Subject,
// Sender and Body are all set the backend skips fetching the message.
type AutoReplyRequest struct {
	Tone         Tone   `json:"tone"`
	Instructions string `json:"instructions,omitempty"`
	Subject      string `json:"subject,omitempty"`
	Sender       string `json:"sender,omitempty"`
	Body         string `json:"body,omitempty"`
}

type AutoReply struct {
	MessageID       string `json:"message_id"`
	OriginalSubject string `json:"original_subject"`
	OriginalSender  string `json:"original_sender"`
	ReplyText       string `json:"reply_text"`
	Tone            Tone   `json:"tone"`
}

type SendReplyResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	To      string `json:"to"`
	Subject string `json:"subject"`
}
