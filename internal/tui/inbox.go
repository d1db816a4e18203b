package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

// Messages emitted by inboxModel.

type emailSelectedMsg struct {
	emailID int64
}

// inboxQueryMsg asks for the email list to be reloaded with filter.
type inboxQueryMsg struct {
	filter domain.EmailFilter
}

// inboxModel is a Bubble Tea sub-model that displays one page of emails.
type inboxModel struct {
	emails   []domain.Email
	filter   domain.EmailFilter
	total    int
	pages    int
	selected map[int64]bool
	cursor   int
	offset   int
	width    int
	height   int
	focused  bool
}

func newInbox(pageSize int) inboxModel {
	if pageSize <= 0 {
		pageSize = 25
	}
	return inboxModel{
		filter:   domain.EmailFilter{Page: 1, Size: pageSize},
		selected: map[int64]bool{},
	}
}

func (m inboxModel) Update(msg tea.Msg) (inboxModel, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.adjustScroll()
			}

		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.emails)-1 {
				m.cursor++
				m.adjustScroll()
			}

		case key.Matches(msg, keys.Enter):
			if e := m.current(); e != nil {
				id := e.ID
				return m, func() tea.Msg { return emailSelectedMsg{emailID: id} }
			}

		case key.Matches(msg, keys.Select):
			if e := m.current(); e != nil {
				if m.selected[e.ID] {
					delete(m.selected, e.ID)
				} else {
					m.selected[e.ID] = true
				}
				if m.cursor < len(m.emails)-1 {
					m.cursor++
					m.adjustScroll()
				}
			}

		case key.Matches(msg, keys.Back):
			m.selected = map[int64]bool{}

		case key.Matches(msg, keys.NextPage):
			if m.filter.Page < m.pages {
				f := m.filter
				f.Page++
				return m, queryCmd(f)
			}

		case key.Matches(msg, keys.PrevPage):
			if m.filter.Page > 1 {
				f := m.filter
				f.Page--
				return m, queryCmd(f)
			}

		case key.Matches(msg, keys.Unread):
			f := m.filter
			f.Page = 1
			if f.IsRead == nil {
				unread := false
				f.IsRead = &unread
			} else {
				f.IsRead = nil
			}
			return m, queryCmd(f)

		case key.Matches(msg, keys.Refresh):
			return m, queryCmd(m.filter)
		}
	}

	return m, nil
}

func queryCmd(f domain.EmailFilter) tea.Cmd {
	return func() tea.Msg { return inboxQueryMsg{filter: f} }
}

func (m inboxModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := m.header()
	if len(m.emails) == 0 {
		return header + "\n" + mutedTextStyle.Render("No messages")
	}

	var b strings.Builder
	b.WriteString(header)
	visible := m.visibleRows()
	end := min(m.offset+visible, len(m.emails))
	for i := m.offset; i < end; i++ {
		b.WriteByte('\n')
		line := m.renderRow(i)
		if i == m.cursor && m.focused {
			line = selectedStyle.Width(m.width).Render(line)
		}
		b.WriteString(line)
	}
	return b.String()
}

func (m inboxModel) header() string {
	parts := []string{fmt.Sprintf("Page %d/%d · %d emails", max(m.filter.Page, 1), max(m.pages, 1), m.total)}
	if m.filter.IsRead != nil && !*m.filter.IsRead {
		parts = append(parts, "unread")
	}
	if m.filter.Folder != "" {
		parts = append(parts, "folder "+m.filter.Folder)
	}
	if m.filter.Query != "" {
		parts = append(parts, fmt.Sprintf("search %q", m.filter.Query))
	}
	if n := len(m.selected); n > 0 {
		parts = append(parts, markStyle.Render(fmt.Sprintf("%d selected", n)))
	}
	return mutedTextStyle.Render(strings.Join(parts, " · "))
}

// SetPage replaces the list with a freshly loaded page.
func (m *inboxModel) SetPage(f domain.EmailFilter, page *domain.EmailPage) {
	m.filter = f
	m.emails = page.Items
	m.total = page.Total
	m.pages = page.Pages()
	if page.Page > 0 {
		m.filter.Page = page.Page
	}
	m.clampCursor()
}

// SetSize updates the dimensions available for rendering.
func (m *inboxModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.adjustScroll()
}

// SelectedIDs returns the selected email ids in ascending order.
func (m inboxModel) SelectedIDs() []int64 {
	ids := make([]int64, 0, len(m.selected))
	for id := range m.selected {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ClearSelection drops the bulk selection.
func (m *inboxModel) ClearSelection() {
	m.selected = map[int64]bool{}
}

// MarkRead flags an email as read after it was opened.
func (m *inboxModel) MarkRead(id int64) {
	for i := range m.emails {
		if m.emails[i].ID == id {
			m.emails[i].IsRead = true
		}
	}
}

// SetTags replaces the tags shown for an email.
func (m *inboxModel) SetTags(id int64, tags []domain.Tag) {
	for i := range m.emails {
		if m.emails[i].ID == id {
			m.emails[i].Tags = tags
		}
	}
}

// Unread counts unread emails on the current page.
func (m inboxModel) Unread() int {
	n := 0
	for _, e := range m.emails {
		if !e.IsRead {
			n++
		}
	}
	return n
}

// --- internal helpers ---

func (m inboxModel) current() *domain.Email {
	if m.cursor < 0 || m.cursor >= len(m.emails) {
		return nil
	}
	return &m.emails[m.cursor]
}

func (m inboxModel) visibleRows() int {
	// One line is taken by the header.
	return max(m.height-1, 1)
}

func (m *inboxModel) adjustScroll() {
	visible := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

func (m *inboxModel) clampCursor() {
	if len(m.emails) == 0 {
		m.cursor = 0
		m.offset = 0
		return
	}
	if m.cursor >= len(m.emails) {
		m.cursor = len(m.emails) - 1
	}
	m.adjustScroll()
}

func (m inboxModel) renderRow(idx int) string {
	e := m.emails[idx]

	mark := "  "
	if m.selected[e.ID] {
		mark = markStyle.Render("● ")
	}

	from := domain.SenderName(e.Sender)
	date := relativeDate(e.ReceivedAt.Time)
	tags := tagList(e.Tags)

	fromWidth := 18
	dateWidth := len(date)
	tagWidth := lipgloss.Width(tags)
	if tagWidth > 0 {
		tagWidth++
	}
	subjectWidth := m.width - fromWidth - dateWidth - tagWidth - 6
	if subjectWidth < 10 {
		subjectWidth = 10
	}

	fromCol := lipgloss.NewStyle().Width(fromWidth).Render(truncate(from, fromWidth))
	subjectCol := lipgloss.NewStyle().Width(subjectWidth).Render(truncate(e.Subject, subjectWidth))
	dateCol := mutedTextStyle.Width(dateWidth).Render(date)

	line := mark + fromCol + "  " + subjectCol
	if tags != "" {
		line += " " + tags
	}
	line += "  " + dateCol

	if !e.IsRead {
		line = unreadStyle.Render(line)
	}
	return line
}

// --- utility functions ---

func tagList(tags []domain.Tag) string {
	if len(tags) == 0 {
		return ""
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = "#" + t.Name
	}
	return tagStyle.Render(strings.Join(names, " "))
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func relativeDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}
