package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

type refreshQuarantineMsg struct{}

type quarantineRequestMsg struct {
	action  quarantineAction
	entryID int64
}

// quarantineModel lists quarantined emails awaiting review. listFlag is
// sent with release (allowlist) and confirm spam (blocklist).
type quarantineModel struct {
	entries  []domain.QuarantineEntry
	listFlag bool
	loaded   bool
	cursor   int
	offset   int
	width    int
	height   int
	focused  bool
}

func (q quarantineModel) Update(msg tea.Msg) (quarantineModel, tea.Cmd) {
	if !q.focused {
		return q, nil
	}
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return q, nil
	}

	switch {
	case key.Matches(k, keys.Up):
		if q.cursor > 0 {
			q.cursor--
		}
	case key.Matches(k, keys.Down):
		if q.cursor < len(q.entries)-1 {
			q.cursor++
		}
	case key.Matches(k, keys.ListFlag):
		q.listFlag = !q.listFlag
	case key.Matches(k, keys.Release):
		return q, q.request(actionRelease)
	case key.Matches(k, keys.Spam):
		return q, q.request(actionConfirmSpam)
	case key.Matches(k, keys.Delete):
		return q, q.request(actionDelete)
	case key.Matches(k, keys.Refresh):
		return q, func() tea.Msg { return refreshQuarantineMsg{} }
	}
	q.adjustScroll()
	return q, nil
}

func (q quarantineModel) request(a quarantineAction) tea.Cmd {
	e := q.current()
	if e == nil {
		return nil
	}
	req := quarantineRequestMsg{action: a, entryID: e.ID}
	return func() tea.Msg { return req }
}

func (q quarantineModel) current() *domain.QuarantineEntry {
	if q.cursor < 0 || q.cursor >= len(q.entries) {
		return nil
	}
	return &q.entries[q.cursor]
}

func (q *quarantineModel) SetEntries(entries []domain.QuarantineEntry) {
	q.entries = entries
	q.loaded = true
	if q.cursor >= len(entries) {
		q.cursor = max(len(entries)-1, 0)
	}
	q.adjustScroll()
}

// Remove drops a handled entry from the queue.
func (q *quarantineModel) Remove(id int64) {
	for i := range q.entries {
		if q.entries[i].ID == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			break
		}
	}
	if q.cursor >= len(q.entries) {
		q.cursor = max(len(q.entries)-1, 0)
	}
	q.adjustScroll()
}

func (q quarantineModel) Len() int {
	return len(q.entries)
}

func (q *quarantineModel) SetSize(w, h int) {
	q.width = w
	q.height = h
	q.adjustScroll()
}

func (q quarantineModel) View() string {
	if q.width == 0 || q.height == 0 {
		return ""
	}
	flag := "off"
	if q.listFlag {
		flag = markStyle.Render("on")
	}
	var b strings.Builder
	b.WriteString(mutedTextStyle.Render(fmt.Sprintf("Quarantine · %d pending · allow/block list: ", len(q.entries))))
	b.WriteString(flag)

	if !q.loaded {
		b.WriteString("\n" + mutedTextStyle.Render("Loading..."))
		return b.String()
	}
	if len(q.entries) == 0 {
		b.WriteString("\n" + mutedTextStyle.Render("Quarantine is empty"))
		return b.String()
	}

	b.WriteString("\n")
	b.WriteString(mutedTextStyle.Render(fmt.Sprintf("%-6s %-7s %-6s %-11s %-8s %s", "ID", "EMAIL", "SCORE", "LABEL", "WHEN", "REASONS")))
	end := min(q.offset+q.visibleRows(), len(q.entries))
	for i := q.offset; i < end; i++ {
		e := q.entries[i]
		line := fmt.Sprintf("%-6d %-7d %-6d %-11s %-8s %s",
			e.ID, e.EmailID, e.SpamScore, truncate(e.SpamLabel, 11),
			relativeDate(e.QuarantinedAt.Time), truncate(e.Reasons, max(q.width-44, 10)))
		if i == q.cursor && q.focused {
			line = selectedStyle.Width(q.width).Render(line)
		}
		b.WriteString("\n")
		b.WriteString(line)
	}
	return b.String()
}

func (q quarantineModel) visibleRows() int {
	return max(q.height-2, 1)
}

func (q *quarantineModel) adjustScroll() {
	visible := q.visibleRows()
	if q.cursor < q.offset {
		q.offset = q.cursor
	}
	if q.cursor >= q.offset+visible {
		q.offset = q.cursor - visible + 1
	}
}
