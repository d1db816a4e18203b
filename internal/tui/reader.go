package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/k3a/html2text"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

// Messages emitted by readerModel.

type openDraftMsg struct {
	email *domain.EmailDetail
}

type addTagMsg struct {
	emailID int64
}

type removeTagMsg struct {
	emailID int64
	tag     domain.Tag
}

type closeReaderMsg struct{}

// readerModel displays one email in a scrollable pane.
type readerModel struct {
	email        *domain.EmailDetail
	content      string
	scrollOffset int
	maxScroll    int
	width        int
	height       int
	focused      bool
	visible      bool
}

func newReader() readerModel {
	return readerModel{}
}

func (r readerModel) Update(msg tea.Msg) (readerModel, tea.Cmd) {
	if !r.focused || !r.visible || r.email == nil {
		return r, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if r.scrollOffset > 0 {
				r.scrollOffset--
			}

		case key.Matches(msg, keys.Down):
			if r.scrollOffset < r.maxScroll {
				r.scrollOffset++
			}

		case key.Matches(msg, keys.Back):
			return r, func() tea.Msg { return closeReaderMsg{} }

		case key.Matches(msg, keys.Draft):
			email := r.email
			return r, func() tea.Msg { return openDraftMsg{email: email} }

		case key.Matches(msg, keys.AddTag):
			id := r.email.ID
			return r, func() tea.Msg { return addTagMsg{emailID: id} }

		case key.Matches(msg, keys.RemoveTag):
			if n := len(r.email.Tags); n > 0 {
				m := removeTagMsg{emailID: r.email.ID, tag: r.email.Tags[n-1]}
				return r, func() tea.Msg { return m }
			}
		}
	}

	return r, nil
}

func (r readerModel) View() string {
	if !r.visible || r.width == 0 || r.height == 0 {
		return ""
	}
	if r.content == "" {
		return mutedTextStyle.Render("Loading...")
	}

	lines := strings.Split(r.content, "\n")
	visibleHeight := max(r.height, 1)
	start := min(r.scrollOffset, len(lines))
	end := min(start+visibleHeight, len(lines))
	return strings.Join(lines[start:end], "\n")
}

// ShowEmail displays an email in the reader pane.
func (r *readerModel) ShowEmail(email *domain.EmailDetail) {
	r.email = email
	r.visible = true
	r.scrollOffset = 0
	r.content = renderEmail(email, r.width)
	r.recalcMaxScroll()
}

// SetTags updates the tags of the displayed email.
func (r *readerModel) SetTags(id int64, tags []domain.Tag) {
	if r.email == nil || r.email.ID != id {
		return
	}
	r.email.Tags = tags
	r.content = renderEmail(r.email, r.width)
	r.recalcMaxScroll()
}

// Close hides the reader and clears its content.
func (r *readerModel) Close() {
	r.visible = false
	r.email = nil
	r.content = ""
	r.scrollOffset = 0
	r.maxScroll = 0
}

// SetSize updates the reader dimensions and recalculates scroll bounds.
func (r *readerModel) SetSize(w, h int) {
	r.width = w
	r.height = h
	if r.email != nil {
		r.content = renderEmail(r.email, r.width)
	}
	r.recalcMaxScroll()
}

func (r readerModel) IsVisible() bool {
	return r.visible
}

func (r *readerModel) recalcMaxScroll() {
	if r.content == "" {
		r.maxScroll = 0
		r.scrollOffset = 0
		return
	}
	lines := strings.Count(r.content, "\n") + 1
	r.maxScroll = max(lines-max(r.height, 1), 0)
	if r.scrollOffset > r.maxScroll {
		r.scrollOffset = r.maxScroll
	}
}

// renderEmail formats an email with headers, tags and body.
func renderEmail(email *domain.EmailDetail, width int) string {
	var b strings.Builder

	header := func(label, value string) {
		b.WriteString(mutedTextStyle.Render(fmt.Sprintf("%-9s", label)))
		b.WriteString(value)
		b.WriteByte('\n')
	}
	header("From:", email.Sender)
	header("Date:", email.ReceivedAt.Local().Format("Jan 2, 2006 3:04 PM"))
	header("Subject:", email.Subject)
	header("Folder:", email.Folder)
	if len(email.Tags) > 0 {
		header("Tags:", tagList(email.Tags))
	}
	if email.AssignedUserID != nil {
		header("Assigned:", fmt.Sprintf("user %d", *email.AssignedUserID))
	}
	for _, a := range email.Attachments {
		header("Attached:", fmt.Sprintf("%s (%s)", a.Filename, a.ContentType))
	}

	b.WriteString(mutedTextStyle.Render(strings.Repeat("─", max(width, 20))))
	b.WriteString("\n\n")
	b.WriteString(bodyText(email))
	return b.String()
}

// bodyText prefers the plain-text body and renders HTML otherwise.
func bodyText(email *domain.EmailDetail) string {
	if strings.TrimSpace(email.BodyText) != "" {
		return email.BodyText
	}
	if email.BodyHTML != "" {
		return html2text.HTML2Text(email.BodyHTML)
	}
	return mutedTextStyle.Render("(no content)")
}
