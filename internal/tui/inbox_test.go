package tui

import (
	"reflect"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

func press(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	case "ctrl+p":
		return tea.KeyMsg{Type: tea.KeyCtrlP}
	case "ctrl+t":
		return tea.KeyMsg{Type: tea.KeyCtrlT}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func testInbox(t *testing.T) inboxModel {
	t.Helper()
	m := newInbox(10)
	m.focused = true
	m.SetSize(80, 10)
	m.SetPage(m.filter, &domain.EmailPage{
		Items: []domain.Email{
			{ID: 3, Subject: "first", Sender: "a@example.com"},
			{ID: 1, Subject: "second", Sender: "b@example.com", IsRead: true},
			{ID: 2, Subject: "third", Sender: "c@example.com"},
		},
		Total: 23,
		Page:  1,
		Size:  10,
	})
	return m
}

func TestInboxSelection(t *testing.T) {
	m := testInbox(t)

	m, _ = m.Update(press(" "))
	m, _ = m.Update(press(" "))
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want 2", m.cursor)
	}
	if got, want := m.SelectedIDs(), []int64{1, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("SelectedIDs() = %v, want %v", got, want)
	}

	m, _ = m.Update(press("k"))
	m, _ = m.Update(press(" "))
	if got, want := m.SelectedIDs(), []int64{3}; !reflect.DeepEqual(got, want) {
		t.Errorf("SelectedIDs() after toggle = %v, want %v", got, want)
	}

	m, _ = m.Update(press("esc"))
	if got := m.SelectedIDs(); len(got) != 0 {
		t.Errorf("SelectedIDs() after esc = %v, want empty", got)
	}
}

func TestInboxEnterOpensEmail(t *testing.T) {
	m := testInbox(t)
	m, _ = m.Update(press("j"))
	_, cmd := m.Update(press("enter"))
	if cmd == nil {
		t.Fatal("enter returned nil cmd")
	}
	msg, ok := cmd().(emailSelectedMsg)
	if !ok {
		t.Fatalf("cmd() = %T, want emailSelectedMsg", cmd())
	}
	if msg.emailID != 1 {
		t.Errorf("emailID = %d, want 1", msg.emailID)
	}
}

func TestInboxPaging(t *testing.T) {
	m := testInbox(t)
	if m.pages != 3 {
		t.Fatalf("pages = %d, want 3", m.pages)
	}

	if _, cmd := m.Update(press("p")); cmd != nil {
		t.Error("prev page on page 1 should be a no-op")
	}

	_, cmd := m.Update(press("n"))
	if cmd == nil {
		t.Fatal("next page returned nil cmd")
	}
	q := cmd().(inboxQueryMsg)
	if q.filter.Page != 2 {
		t.Errorf("next page = %d, want 2", q.filter.Page)
	}

	m.SetPage(q.filter, &domain.EmailPage{Items: m.emails, Total: 23, Page: 3, Size: 10})
	if _, cmd := m.Update(press("n")); cmd != nil {
		t.Error("next page on the last page should be a no-op")
	}
}

func TestInboxUnreadToggle(t *testing.T) {
	m := testInbox(t)
	m.filter.Page = 2

	_, cmd := m.Update(press("u"))
	q := cmd().(inboxQueryMsg)
	if q.filter.IsRead == nil || *q.filter.IsRead {
		t.Fatalf("IsRead = %v, want false", q.filter.IsRead)
	}
	if q.filter.Page != 1 {
		t.Errorf("page = %d, want 1", q.filter.Page)
	}

	m.filter = q.filter
	_, cmd = m.Update(press("u"))
	if q := cmd().(inboxQueryMsg); q.filter.IsRead != nil {
		t.Errorf("IsRead = %v, want nil", *q.filter.IsRead)
	}
}

func TestInboxIgnoresKeysWhenBlurred(t *testing.T) {
	m := testInbox(t)
	m.focused = false
	if _, cmd := m.Update(press("enter")); cmd != nil {
		t.Error("blurred inbox should not emit commands")
	}
}

func TestInboxMarkReadAndTags(t *testing.T) {
	m := testInbox(t)
	if got := m.Unread(); got != 2 {
		t.Fatalf("Unread() = %d, want 2", got)
	}
	m.MarkRead(3)
	if got := m.Unread(); got != 1 {
		t.Errorf("Unread() after MarkRead = %d, want 1", got)
	}

	m.SetTags(2, []domain.Tag{{ID: 7, Name: "urgent"}})
	if got := m.emails[2].Tags; len(got) != 1 || got[0].Name != "urgent" {
		t.Errorf("tags = %v, want [urgent]", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		s      string
		maxLen int
		want   string
	}{
		{"fits", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"cut", "hello world", 6, "hello…"},
		{"one", "hello", 1, "h"},
		{"zero", "hello", 0, ""},
		{"multibyte", "héllo wörld", 4, "hél…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.s, tt.maxLen); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.s, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestRelativeDate(t *testing.T) {
	now := time.Now()
	old := time.Date(2020, time.March, 5, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"zero", time.Time{}, "-"},
		{"just now", now.Add(-10 * time.Second), "now"},
		{"minutes", now.Add(-5*time.Minute - time.Second), "5m"},
		{"hours", now.Add(-3*time.Hour - time.Minute), "3h"},
		{"days", now.Add(-50 * time.Hour), "2d"},
		{"old", old, "Mar 5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := relativeDate(tt.t); got != tt.want {
				t.Errorf("relativeDate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTagListEmpty(t *testing.T) {
	if got := tagList(nil); got != "" {
		t.Errorf("tagList(nil) = %q, want empty", got)
	}
}
