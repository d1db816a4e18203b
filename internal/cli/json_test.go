package cli

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/lu-zhengda/smartmail/internal/bulk"
	"github.com/lu-zhengda/smartmail/internal/domain"
	"github.com/lu-zhengda/smartmail/internal/store"
)

func TestToJSONEmails(t *testing.T) {
	emails := []domain.Email{
		{
			ID:         1,
			MailboxID:  2,
			Sender:     `"Jane Doe" <jane@example.com>`,
			Subject:    "Invoice",
			Folder:     "INBOX",
			ReceivedAt: domain.Time{Time: time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)},
			Tags:       []domain.Tag{{ID: 4, Name: "billing"}},
		},
		{
			ID:     3,
			Sender: "bob@example.com",
			IsRead: true,
		},
	}

	got := toJSONEmails(emails)

	if len(got) != 2 {
		t.Fatalf("got %d emails, want 2", len(got))
	}
	if got[0].From.Name != "Jane Doe" || got[0].From.Email != "jane@example.com" {
		t.Errorf("got from %+v, want Jane Doe <jane@example.com>", got[0].From)
	}
	if got[0].ReceivedAt != "2025-01-15T09:30:00Z" {
		t.Errorf("got received_at %q, want %q", got[0].ReceivedAt, "2025-01-15T09:30:00Z")
	}
	if len(got[0].Tags) != 1 || got[0].Tags[0] != "billing" {
		t.Errorf("got tags %v, want [billing]", got[0].Tags)
	}
	if got[1].From.Name != "" {
		t.Errorf("bare address should have no name, got %q", got[1].From.Name)
	}
	if got[1].ReceivedAt != "" {
		t.Errorf("zero time should be omitted, got %q", got[1].ReceivedAt)
	}

	// Verify JSON round-trip.
	var buf bytes.Buffer
	if err := fprintJSON(&buf, got); err != nil {
		t.Fatalf("fprintJSON() error = %v", err)
	}
	var parsed []jsonEmail
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if !parsed[1].IsRead {
		t.Error("round-trip: expected is_read to survive")
	}
}

func TestToJSONEmails_Empty(t *testing.T) {
	got := toJSONEmails(nil)
	if got == nil {
		t.Fatal("expected non-nil empty slice")
	}

	var buf bytes.Buffer
	if err := fprintJSON(&buf, got); err != nil {
		t.Fatalf("fprintJSON() error = %v", err)
	}
	if buf.String() != "[]\n" {
		t.Errorf("got %q, want %q", buf.String(), "[]\n")
	}
}

func TestToJSONEmailPage(t *testing.T) {
	page := &domain.EmailPage{Items: []domain.Email{{ID: 1}}, Total: 51, Page: 2, Size: 25}
	got := toJSONEmailPage(page)
	if got.Pages != 3 {
		t.Errorf("got pages %d, want 3", got.Pages)
	}
	if got.Page != 2 || got.Total != 51 {
		t.Errorf("got page=%d total=%d, want page=2 total=51", got.Page, got.Total)
	}
}

func TestToJSONPreviews(t *testing.T) {
	items := []bulk.PreviewItem{
		{EmailID: 1, Draft: &domain.Draft{ID: 10}, Readiness: domain.ReadinessReady, Message: "Ready to send"},
		{EmailID: 2, Readiness: domain.ReadinessNoDraft, Message: "No draft generated"},
	}
	got := toJSONPreviews(items)
	if got[0].DraftID != 10 {
		t.Errorf("got draft_id %d, want 10", got[0].DraftID)
	}
	if got[1].DraftID != 0 || got[1].Readiness != "no_draft" {
		t.Errorf("got %+v, want no draft", got[1])
	}
}

func TestToJSONSendResult(t *testing.T) {
	items := []*bulk.Item{
		{EmailID: 1, Status: bulk.StatusSuccess, JobID: 7},
		{EmailID: 2, Status: bulk.StatusError, Error: "boom"},
	}
	got := toJSONSendResult(items, bulk.Summary{Sent: 1, Failed: 1})
	if got.Sent != 1 || got.Failed != 1 {
		t.Errorf("got sent=%d failed=%d, want 1/1", got.Sent, got.Failed)
	}
	if len(got.Results) != 2 || got.Results[1].Error != "boom" {
		t.Errorf("got results %+v", got.Results)
	}
}

func TestToJSONProfiles(t *testing.T) {
	profiles := []store.Profile{
		{Name: "work", BaseURL: "https://mail.example.com/api/v1", UserEmail: "a@example.com", Role: "admin", IsDefault: true,
			CreatedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
	}
	got := toJSONProfiles(profiles)
	if len(got) != 1 {
		t.Fatalf("got %d profiles, want 1", len(got))
	}
	if !got[0].Default || got[0].CreatedAt != "2025-06-01" || got[0].User != "a@example.com" {
		t.Errorf("got %+v", got[0])
	}
}

func TestJobAction(t *testing.T) {
	ref := &domain.JobRef{Message: "Draft generation queued", Status: "queued", JobID: 9}

	t.Run("queued", func(t *testing.T) {
		got := jobAction("draft", ref, nil)
		if !got.OK || got.Status != "queued" || got.JobID != 9 {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("failed", func(t *testing.T) {
		got := jobAction("draft", ref, &domain.Job{ID: 9, Status: domain.JobFailed, Error: "LLM unavailable"})
		if got.OK {
			t.Error("failed job should not be OK")
		}
		if got.Message != "LLM unavailable" {
			t.Errorf("got message %q, want job error", got.Message)
		}
	})

	t.Run("completed", func(t *testing.T) {
		got := jobAction("draft", ref, &domain.Job{ID: 9, Status: domain.JobCompleted})
		if !got.OK || got.Status != "completed" {
			t.Errorf("got %+v", got)
		}
	})
}
