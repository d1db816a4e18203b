package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lu-zhengda/smartmail/internal/config"
	"github.com/lu-zhengda/smartmail/internal/domain"
	"github.com/lu-zhengda/smartmail/internal/jobs"
)

func testModel(t *testing.T, user *domain.User) model {
	t.Helper()
	m := newModel(context.Background(), Deps{Config: &config.Config{}}, user)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(model)
}

func TestHandleJobUpdate(t *testing.T) {
	tests := []struct {
		name      string
		target    pollTarget
		job       *domain.Job
		err       error
		wantCmd   bool
		wantError bool
		wantText  string
	}{
		{
			name:      "failed job",
			target:    pollTarget{purpose: pollDraft, jobID: 5, emailID: 9, started: time.Now()},
			job:       &domain.Job{ID: 5, Type: domain.JobGenerateDraft, Status: domain.JobFailed, Error: "llm down"},
			wantError: true,
			wantText:  "llm down",
		},
		{
			name:      "poll error",
			target:    pollTarget{purpose: pollSend, jobID: 6, emailID: 9, started: time.Now()},
			err:       context.DeadlineExceeded,
			wantError: true,
			wantText:  "job 6",
		},
		{
			name:     "still running",
			target:   pollTarget{purpose: pollDraft, jobID: 7, emailID: 9, started: time.Now()},
			job:      &domain.Job{ID: 7, Status: domain.JobProcessing},
			wantCmd:  true,
			wantText: "processing",
		},
		{
			name:      "timed out",
			target:    pollTarget{purpose: pollDraft, jobID: 8, emailID: 9, started: time.Now().Add(-time.Hour)},
			job:       &domain.Job{ID: 8, Status: domain.JobPending},
			wantError: true,
			wantText:  jobs.ErrTimeout.Error(),
		},
		{
			name:     "bulk draft done",
			target:   pollTarget{purpose: pollBulkDraft, jobID: 10, started: time.Now()},
			job:      &domain.Job{ID: 10, Status: domain.JobCompleted},
			wantText: "Bulk drafts ready",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testModel(t, &domain.User{ID: 1})
			m.composer.Open(&domain.EmailDetail{Email: domain.Email{ID: 9}})
			m.composer.SetBusy("Working...")

			cmd := m.handleJobUpdate(jobUpdateMsg{target: tt.target, job: tt.job, err: tt.err})
			if (cmd != nil) != tt.wantCmd {
				t.Errorf("cmd != nil = %v, want %v", cmd != nil, tt.wantCmd)
			}
			if m.statusBar.isError != tt.wantError {
				t.Errorf("isError = %v, want %v (%q)", m.statusBar.isError, tt.wantError, m.statusBar.message)
			}
			if !strings.Contains(m.statusBar.message, tt.wantText) {
				t.Errorf("message = %q, want it to contain %q", m.statusBar.message, tt.wantText)
			}
			if tt.wantError && m.composer.busy != "" {
				t.Errorf("busy = %q, want cleared", m.composer.busy)
			}
		})
	}
}

func TestHandleJobUpdateSendClosesComposer(t *testing.T) {
	m := testModel(t, &domain.User{ID: 1})
	m.composer.Open(&domain.EmailDetail{Email: domain.Email{ID: 9}})

	cmd := m.handleJobUpdate(jobUpdateMsg{
		target: pollTarget{purpose: pollSend, jobID: 3, emailID: 9, started: time.Now()},
		job:    &domain.Job{ID: 3, Status: domain.JobCompleted},
	})
	if cmd != nil {
		t.Error("send completion should not schedule more work")
	}
	if m.composer.IsVisible() {
		t.Error("composer still visible after send")
	}
	if m.activePane != paneReader {
		t.Errorf("activePane = %v, want reader", m.activePane)
	}
	if m.statusBar.message != "Email sent" {
		t.Errorf("message = %q, want Email sent", m.statusBar.message)
	}
}

func TestHandleJobUpdateSyncClearsMailbox(t *testing.T) {
	m := testModel(t, &domain.User{ID: 1})
	m.mailboxes.SetSyncing(4, true)

	cmd := m.handleJobUpdate(jobUpdateMsg{
		target: pollTarget{purpose: pollSync, jobID: 2, mailboxID: 4, started: time.Now()},
		job:    &domain.Job{ID: 2, Status: domain.JobCompleted},
	})
	if cmd == nil {
		t.Error("sync completion should reload mailboxes and emails")
	}
	if m.mailboxes.syncing[4] {
		t.Error("mailbox 4 still marked as syncing")
	}
}

func TestHandleKeyBulkNeedsSelection(t *testing.T) {
	m := testModel(t, &domain.User{ID: 1})
	for _, k := range []string{"B", "P"} {
		t.Run(k, func(t *testing.T) {
			next, cmd := m.handleKey(press(k))
			got := next.(model)
			if cmd != nil {
				t.Error("expected no cmd without a selection")
			}
			if !got.statusBar.isError {
				t.Errorf("status = %q, want an error", got.statusBar.message)
			}
			if got.prompt.IsActive() || got.bulk.IsVisible() {
				t.Error("no overlay should open without a selection")
			}
		})
	}
}

func TestHandleKeyNumberSwitchesTab(t *testing.T) {
	m := testModel(t, &domain.User{ID: 1, Role: domain.RoleUser})

	next, _ := m.handleKey(press("3"))
	got := next.(model)
	if got.activeTab != tabJobs {
		t.Errorf("activeTab = %v, want Jobs", got.activeTab)
	}
	if !got.jobs.focused || got.inbox.focused {
		t.Error("focus should move to the jobs pane")
	}

	next, _ = got.handleKey(press("7"))
	if got := next.(model); got.activeTab != tabJobs {
		t.Errorf("non-admin switched to %v", got.activeTab)
	}
}

func TestHandleKeySearchOpensPrompt(t *testing.T) {
	m := testModel(t, &domain.User{ID: 1})
	next, _ := m.handleKey(press("/"))
	got := next.(model)
	if !got.prompt.IsActive() || got.prompt.purpose != promptSearch {
		t.Error("/ should open the search prompt")
	}

	next, _ = got.handleKey(press("q"))
	if !next.(model).prompt.IsActive() {
		t.Error("keys should go to the open prompt, not quit")
	}
}

func TestViewRendersTabs(t *testing.T) {
	m := testModel(t, &domain.User{ID: 1, Email: "me@example.com", Role: domain.RoleAdmin})
	v := m.View()
	for _, want := range []string{"Inbox", "Quarantine", "Admin"} {
		if !strings.Contains(v, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}
