package tui

import "github.com/charmbracelet/lipgloss"

type statusBar struct {
	message       string
	width         int
	isError       bool
	tab           tab
	readerVisible bool
	selected      int
}

func newStatusBar() statusBar {
	return statusBar{message: "Ready"}
}

func (s *statusBar) setMessage(msg string) {
	s.message = msg
	s.isError = false
}

func (s *statusBar) setError(msg string) {
	s.message = msg
	s.isError = true
}

func (s statusBar) View() string {
	msgStyle := statusBarStyle
	if s.isError {
		msgStyle = msgStyle.Foreground(errorColor)
	}

	left := s.message
	shortcuts := s.shortcuts()

	gap := s.width - lipgloss.Width(left) - lipgloss.Width(shortcuts) - 2
	if gap < 0 {
		gap = 0
	}

	content := left + lipgloss.NewStyle().Width(gap).Render("") + mutedTextStyle.Render(shortcuts)
	return msgStyle.Width(s.width).Render(content)
}

func (s statusBar) shortcuts() string {
	switch s.tab {
	case tabInbox:
		if s.readerVisible {
			return "g:draft  t:tag  T:untag  esc:back"
		}
		if s.selected > 0 {
			return "space:select  B:bulk draft  P:bulk send  esc:clear"
		}
		return "enter:open  space:select  /:search  u:unread  n/p:page"
	case tabGmail:
		return "enter:auto-reply  n/p:page  R:refresh"
	case tabJobs:
		return "j/k:nav  auto-refresh"
	case tabQuarantine:
		return "r:release  x:spam  a:list flag  D:delete  R:refresh"
	case tabAnalytics:
		return "[/]:period  R:refresh"
	case tabMailboxes:
		return "s:sync  D:delete  R:refresh"
	case tabAdmin:
		return "r:role  a:active  R:refresh"
	}
	return "q:quit"
}
