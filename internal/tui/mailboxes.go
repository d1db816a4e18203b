package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

type syncMailboxMsg struct {
	mailboxID int64
}

type deleteMailboxMsg struct {
	mailbox domain.Mailbox
}

type refreshMailboxesMsg struct{}

// mailboxesModel lists connected mailboxes.
type mailboxesModel struct {
	mailboxes []domain.Mailbox
	syncing   map[int64]bool
	loaded    bool
	cursor    int
	width     int
	height    int
	focused   bool
}

func newMailboxes() mailboxesModel {
	return mailboxesModel{syncing: map[int64]bool{}}
}

func (mb mailboxesModel) Update(msg tea.Msg) (mailboxesModel, tea.Cmd) {
	if !mb.focused {
		return mb, nil
	}
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return mb, nil
	}
	switch {
	case key.Matches(k, keys.Up):
		if mb.cursor > 0 {
			mb.cursor--
		}
	case key.Matches(k, keys.Down):
		if mb.cursor < len(mb.mailboxes)-1 {
			mb.cursor++
		}
	case key.Matches(k, keys.Sync):
		if c := mb.current(); c != nil && !mb.syncing[c.ID] {
			id := c.ID
			return mb, func() tea.Msg { return syncMailboxMsg{mailboxID: id} }
		}
	case key.Matches(k, keys.Delete):
		if c := mb.current(); c != nil {
			box := *c
			return mb, func() tea.Msg { return deleteMailboxMsg{mailbox: box} }
		}
	case key.Matches(k, keys.Refresh):
		return mb, func() tea.Msg { return refreshMailboxesMsg{} }
	}
	return mb, nil
}

func (mb mailboxesModel) current() *domain.Mailbox {
	if mb.cursor < 0 || mb.cursor >= len(mb.mailboxes) {
		return nil
	}
	return &mb.mailboxes[mb.cursor]
}

func (mb *mailboxesModel) SetMailboxes(list []domain.Mailbox) {
	mb.mailboxes = list
	mb.loaded = true
	if mb.cursor >= len(list) {
		mb.cursor = max(len(list)-1, 0)
	}
}

// SetSyncing marks a mailbox as having a sync job in flight.
func (mb *mailboxesModel) SetSyncing(id int64, on bool) {
	if on {
		mb.syncing[id] = true
	} else {
		delete(mb.syncing, id)
	}
}

func (mb *mailboxesModel) Remove(id int64) {
	for i := range mb.mailboxes {
		if mb.mailboxes[i].ID == id {
			mb.mailboxes = append(mb.mailboxes[:i], mb.mailboxes[i+1:]...)
			break
		}
	}
	if mb.cursor >= len(mb.mailboxes) {
		mb.cursor = max(len(mb.mailboxes)-1, 0)
	}
}

func (mb *mailboxesModel) SetSize(w, h int) {
	mb.width = w
	mb.height = h
}

func (mb mailboxesModel) View() string {
	if mb.width == 0 || mb.height == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(mutedTextStyle.Render(fmt.Sprintf("Mailboxes · %d", len(mb.mailboxes))))
	if !mb.loaded {
		b.WriteString("\n" + mutedTextStyle.Render("Loading..."))
		return b.String()
	}
	if len(mb.mailboxes) == 0 {
		b.WriteString("\n" + mutedTextStyle.Render("No mailboxes. Add one with: smartmail mailbox add"))
		return b.String()
	}

	b.WriteString("\n")
	b.WriteString(mutedTextStyle.Render(fmt.Sprintf("%-5s %-32s %-9s %-7s %-14s %-10s %s", "ID", "ADDRESS", "PROVIDER", "ACTIVE", "MESSAGES", "SYNCED", "STATUS")))
	for i, box := range mb.mailboxes {
		status := box.SyncStatus
		if mb.syncing[box.ID] {
			status = markStyle.Render("syncing...")
		}
		active := "yes"
		if !box.IsActive {
			active = "no"
		}
		line := fmt.Sprintf("%-5d %-32s %-9s %-7s %-14s %-10s %s",
			box.ID, truncate(box.EmailAddress, 32), box.Provider, active,
			fmt.Sprintf("%d (%d new)", box.TotalMessages, box.UnreadMessages),
			relativeDate(box.LastSyncedAt.Time), status)
		if i == mb.cursor && mb.focused {
			line = selectedStyle.Width(mb.width).Render(line)
		}
		b.WriteString("\n")
		b.WriteString(line)
	}
	return b.String()
}
