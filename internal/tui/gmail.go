package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

type gmailPageMsg struct {
	token string
}

type openAutoReplyMsg struct {
	message domain.GmailMessage
}

// gmailModel lists the connected Gmail inbox. Gmail pages by opaque token,
// so the tokens of earlier pages are kept on a stack for going back.
type gmailModel struct {
	messages []domain.GmailMessage
	token    string
	next     string
	prev     []string
	cursor   int
	offset   int
	loaded   bool
	width    int
	height   int
	focused  bool
}

func (g gmailModel) Update(msg tea.Msg) (gmailModel, tea.Cmd) {
	if !g.focused {
		return g, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Up):
			if g.cursor > 0 {
				g.cursor--
				g.adjustScroll()
			}
		case key.Matches(msg, keys.Down):
			if g.cursor < len(g.messages)-1 {
				g.cursor++
				g.adjustScroll()
			}
		case key.Matches(msg, keys.Enter):
			if g.cursor < len(g.messages) {
				m := g.messages[g.cursor]
				return g, func() tea.Msg { return openAutoReplyMsg{message: m} }
			}
		case key.Matches(msg, keys.NextPage):
			if g.next != "" {
				t := g.next
				return g, func() tea.Msg { return gmailPageMsg{token: t} }
			}
		case key.Matches(msg, keys.PrevPage):
			if n := len(g.prev); n > 0 {
				t := g.prev[n-1]
				return g, func() tea.Msg { return gmailPageMsg{token: t} }
			}
		case key.Matches(msg, keys.Refresh):
			t := g.token
			return g, func() tea.Msg { return gmailPageMsg{token: t} }
		}
	}
	return g, nil
}

// SetInbox shows the page loaded for token. Moving forward pushes the
// current token; moving back to the previous token pops it.
func (g *gmailModel) SetInbox(token string, inbox *domain.GmailInbox) {
	switch {
	case token == g.token:
	case len(g.prev) > 0 && g.prev[len(g.prev)-1] == token:
		g.prev = g.prev[:len(g.prev)-1]
	case g.loaded:
		g.prev = append(g.prev, g.token)
	}
	g.token = token
	g.next = inbox.NextPageToken
	g.messages = inbox.Messages
	g.loaded = true
	g.cursor = 0
	g.offset = 0
}

func (g *gmailModel) SetSize(w, h int) {
	g.width = w
	g.height = h
	g.adjustScroll()
}

// Unread counts unread messages on the current page.
func (g gmailModel) Unread() int {
	n := 0
	for _, m := range g.messages {
		if !m.IsRead {
			n++
		}
	}
	return n
}

func (g gmailModel) View() string {
	if g.width == 0 || g.height == 0 {
		return ""
	}
	header := mutedTextStyle.Render(fmt.Sprintf("Gmail · page %d · %d messages", len(g.prev)+1, len(g.messages)))
	if !g.loaded {
		return header + "\n" + mutedTextStyle.Render("Loading...")
	}
	if len(g.messages) == 0 {
		return header + "\n" + mutedTextStyle.Render("No messages")
	}

	var b strings.Builder
	b.WriteString(header)
	end := min(g.offset+g.visibleRows(), len(g.messages))
	for i := g.offset; i < end; i++ {
		msg := g.messages[i]
		from := lipgloss.NewStyle().Width(20).Render(truncate(domain.SenderName(msg.Sender), 20))
		subject := truncate(msg.Subject, max(g.width-24, 10))
		line := from + "  " + subject
		if !msg.IsRead {
			line = unreadStyle.Render(line)
		}
		if i == g.cursor && g.focused {
			line = selectedStyle.Width(g.width).Render(line)
		}
		b.WriteByte('\n')
		b.WriteString(line)
	}
	return b.String()
}

func (g gmailModel) visibleRows() int {
	return max(g.height-1, 1)
}

func (g *gmailModel) adjustScroll() {
	visible := g.visibleRows()
	if g.cursor < g.offset {
		g.offset = g.cursor
	}
	if g.cursor >= g.offset+visible {
		g.offset = g.cursor - visible + 1
	}
}
