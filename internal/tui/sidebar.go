package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

type tab int

const (
	tabInbox tab = iota
	tabGmail
	tabJobs
	tabQuarantine
	tabAnalytics
	tabMailboxes
	tabAdmin
)

var tabNames = map[tab]string{
	tabInbox:      "Inbox",
	tabGmail:      "Gmail",
	tabJobs:       "Jobs",
	tabQuarantine: "Quarantine",
	tabAnalytics:  "Analytics",
	tabMailboxes:  "Mailboxes",
	tabAdmin:      "Admin",
}

func (t tab) String() string {
	return tabNames[t]
}

// tabSelectedMsg is sent when the user picks a tab in the sidebar.
type tabSelectedMsg struct {
	tab tab
}

// sidebarModel lists the screens and shows who is signed in.
type sidebarModel struct {
	tabs    []tab
	cursor  int
	active  tab
	user    *domain.User
	profile string
	badges  map[tab]int
	width   int
	height  int
	focused bool
}

// newSidebar creates the tab list. The admin tab is only offered to admins.
func newSidebar(user *domain.User, profile string) sidebarModel {
	tabs := []tab{tabInbox, tabGmail, tabJobs, tabQuarantine, tabAnalytics, tabMailboxes}
	if user.IsAdmin() {
		tabs = append(tabs, tabAdmin)
	}
	return sidebarModel{
		tabs:    tabs,
		active:  tabInbox,
		user:    user,
		profile: profile,
		badges:  map[tab]int{},
	}
}

// SetSize updates the sidebar dimensions.
func (s *sidebarModel) SetSize(w, h int) {
	s.width = w
	s.height = h
}

// SetBadge sets the count shown next to a tab. Zero hides it.
func (s *sidebarModel) SetBadge(t tab, n int) {
	s.badges[t] = n
}

// Has reports whether t is offered to the current user.
func (s sidebarModel) Has(t tab) bool {
	for _, x := range s.tabs {
		if x == t {
			return true
		}
	}
	return false
}

// Activate marks t as the current tab and moves the cursor to it.
func (s *sidebarModel) Activate(t tab) {
	s.active = t
	for i, x := range s.tabs {
		if x == t {
			s.cursor = i
		}
	}
}

func (s sidebarModel) Update(msg tea.Msg) (sidebarModel, tea.Cmd) {
	if !s.focused {
		return s, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			s.cursor--
			if s.cursor < 0 {
				s.cursor = len(s.tabs) - 1
			}
		case key.Matches(msg, keys.Down):
			s.cursor++
			if s.cursor >= len(s.tabs) {
				s.cursor = 0
			}
		case key.Matches(msg, keys.Enter):
			t := s.tabs[s.cursor]
			return s, func() tea.Msg { return tabSelectedMsg{tab: t} }
		}
	}

	return s, nil
}

func (s sidebarModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("smartmail"))
	b.WriteString("\n")
	if s.user != nil {
		b.WriteString(mutedTextStyle.Render(truncate(s.user.Email, max(s.width, 10))))
		b.WriteString("\n")
		b.WriteString(mutedTextStyle.Render(truncate(s.profile+" · "+s.user.Role, max(s.width, 10))))
	}
	b.WriteString("\n\n")

	for i, t := range s.tabs {
		b.WriteString(s.renderLine(i, t))
		b.WriteString("\n")
	}
	return b.String()
}

func (s sidebarModel) renderLine(idx int, t tab) string {
	prefix := "  "
	if t == s.active {
		prefix = "▶ "
	}
	line := fmt.Sprintf("%s%d %s", prefix, idx+1, t)
	if n := s.badges[t]; n > 0 {
		line += " " + markStyle.Render(fmt.Sprintf("(%d)", n))
	}

	padded := lipgloss.NewStyle().Width(max(s.width, 10)).Render(line)
	if s.focused && idx == s.cursor {
		return selectedStyle.Render(padded)
	}
	return padded
}

// tabAt returns the tab bound to the number key n (1-based).
func (s sidebarModel) tabAt(n int) (tab, bool) {
	if n < 1 || n > len(s.tabs) {
		return 0, false
	}
	return s.tabs[n-1], true
}
