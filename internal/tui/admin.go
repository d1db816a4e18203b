package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

type updateUserMsg struct {
	userID int64
	update domain.UserUpdate
}

type refreshUsersMsg struct{}

// adminModel lists users for role and activation changes.
type adminModel struct {
	users   []domain.User
	self    int64
	loaded  bool
	cursor  int
	width   int
	height  int
	focused bool
}

func (a adminModel) Update(msg tea.Msg) (adminModel, tea.Cmd) {
	if !a.focused {
		return a, nil
	}
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch {
	case key.Matches(k, keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(k, keys.Down):
		if a.cursor < len(a.users)-1 {
			a.cursor++
		}
	case key.Matches(k, keys.Role):
		if u := a.current(); u != nil {
			role := domain.RoleAdmin
			if u.Role == domain.RoleAdmin {
				role = domain.RoleUser
			}
			return a, a.update(u.ID, domain.UserUpdate{Role: &role})
		}
	case key.Matches(k, keys.Active):
		if u := a.current(); u != nil {
			active := !u.IsActive
			return a, a.update(u.ID, domain.UserUpdate{IsActive: &active})
		}
	case key.Matches(k, keys.Refresh):
		return a, func() tea.Msg { return refreshUsersMsg{} }
	}
	return a, nil
}

// update refuses changes to the signed-in admin's own account.
func (a adminModel) update(id int64, upd domain.UserUpdate) tea.Cmd {
	if id == a.self {
		return errCmd(errors.New("refusing to change your own account"))
	}
	return func() tea.Msg { return updateUserMsg{userID: id, update: upd} }
}

func (a adminModel) current() *domain.User {
	if a.cursor < 0 || a.cursor >= len(a.users) {
		return nil
	}
	return &a.users[a.cursor]
}

func (a *adminModel) SetUsers(users []domain.User) {
	a.users = users
	a.loaded = true
	if a.cursor >= len(users) {
		a.cursor = max(len(users)-1, 0)
	}
}

// Replace swaps in an updated user.
func (a *adminModel) Replace(u *domain.User) {
	for i := range a.users {
		if a.users[i].ID == u.ID {
			a.users[i] = *u
		}
	}
}

func (a *adminModel) SetSize(w, h int) {
	a.width = w
	a.height = h
}

func (a adminModel) View() string {
	if a.width == 0 || a.height == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(mutedTextStyle.Render(fmt.Sprintf("Users · %d", len(a.users))))
	if !a.loaded {
		b.WriteString("\n" + mutedTextStyle.Render("Loading..."))
		return b.String()
	}
	b.WriteString("\n")
	b.WriteString(mutedTextStyle.Render(fmt.Sprintf("%-5s %-32s %-24s %-6s %s", "ID", "EMAIL", "NAME", "ROLE", "ACTIVE")))
	for i, u := range a.users {
		active := okTextStyle.Render("yes")
		if !u.IsActive {
			active = errorTextStyle.Render("no")
		}
		line := fmt.Sprintf("%-5d %-32s %-24s %-6s %s",
			u.ID, truncate(u.Email, 32), truncate(u.FullName, 24), u.Role, active)
		if i == a.cursor && a.focused {
			line = selectedStyle.Width(a.width).Render(line)
		}
		b.WriteString("\n")
		b.WriteString(line)
	}
	return b.String()
}
