package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

// Messages emitted by composerModel.

type generateDraftMsg struct {
	emailID      int64
	instructions string
	tone         domain.Tone
	subject      string
}

type saveDraftMsg struct {
	draftID int64
	content string
}

type sendDraftMsg struct {
	email     *domain.EmailDetail
	content   string
	recipient string
	subject   string
}

type cancelComposeMsg struct{}

// Field indices within the draft editor.
const (
	fieldInstructions = 0
	fieldTo           = 1
	fieldSubject      = 2
	fieldBody         = 3
	fieldCount        = 4
)

// composerModel edits the AI drafts of one email and sends the reply.
type composerModel struct {
	instructionsInput textinput.Model
	toInput           textinput.Model
	subjectInput      textinput.Model
	bodyInput         textarea.Model

	activeField int
	email       *domain.EmailDetail
	tone        domain.Tone
	drafts      []domain.Draft
	version     int
	busy        string

	width   int
	height  int
	visible bool
}

func newComposer() composerModel {
	instr := textinput.New()
	instr.Placeholder = "e.g. decline politely, propose next week"
	instr.CharLimit = 500
	instr.Prompt = ""

	to := textinput.New()
	to.Placeholder = "recipient@example.com"
	to.CharLimit = 500
	to.Prompt = ""

	subject := textinput.New()
	subject.Placeholder = "Subject"
	subject.CharLimit = 200
	subject.Prompt = ""

	body := textarea.New()
	body.Placeholder = "Generate a draft or write the reply..."
	body.SetWidth(40)
	body.SetHeight(6)
	body.CharLimit = 0

	return composerModel{
		instructionsInput: instr,
		toInput:           to,
		subjectInput:      subject,
		bodyInput:         body,
		tone:              domain.ToneProfessional,
	}
}

func (c composerModel) Update(msg tea.Msg) (composerModel, tea.Cmd) {
	if !c.visible {
		return c, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "tab":
			c.activeField = (c.activeField + 1) % fieldCount
			c.updateFocus()
			return c, nil

		case "esc":
			return c, func() tea.Msg { return cancelComposeMsg{} }

		case "ctrl+t":
			c.tone = c.tone.Next()
			return c, nil

		case "ctrl+n":
			c.showVersion(c.version + 1)
			return c, nil

		case "ctrl+p":
			c.showVersion(c.version - 1)
			return c, nil

		case "ctrl+g":
			if c.busy != "" {
				return c, nil
			}
			gen := generateDraftMsg{
				emailID:      c.email.ID,
				instructions: strings.TrimSpace(c.instructionsInput.Value()),
				tone:         c.tone,
				subject:      c.email.Subject,
			}
			return c, func() tea.Msg { return gen }

		case "ctrl+s":
			d := c.Current()
			if d == nil {
				return c, errCmd(errors.New("no draft to save"))
			}
			save := saveDraftMsg{draftID: d.ID, content: c.bodyInput.Value()}
			return c, func() tea.Msg { return save }

		case "ctrl+r":
			if c.busy != "" {
				return c, nil
			}
			if r := c.Readiness(); r != domain.ReadinessReady {
				return c, errCmd(fmt.Errorf("cannot send: %s", r.Message()))
			}
			send := sendDraftMsg{
				email:     c.email,
				content:   c.bodyInput.Value(),
				recipient: strings.TrimSpace(c.toInput.Value()),
				subject:   strings.TrimSpace(c.subjectInput.Value()),
			}
			return c, func() tea.Msg { return send }
		}
	}

	var cmd tea.Cmd
	switch c.activeField {
	case fieldInstructions:
		c.instructionsInput, cmd = c.instructionsInput.Update(msg)
	case fieldTo:
		c.toInput, cmd = c.toInput.Update(msg)
	case fieldSubject:
		c.subjectInput, cmd = c.subjectInput.Update(msg)
	case fieldBody:
		c.bodyInput, cmd = c.bodyInput.Update(msg)
	}
	return c, cmd
}

func (c composerModel) View() string {
	if !c.visible {
		return ""
	}

	innerWidth := max(c.width-4, 20)
	inputWidth := max(innerWidth-14, 10)

	c.instructionsInput.Width = inputWidth
	c.toInput.Width = inputWidth
	c.subjectInput.Width = inputWidth
	c.bodyInput.SetWidth(innerWidth)
	c.bodyInput.SetHeight(max(c.height-13, 3))

	label := func(s string) string {
		return mutedTextStyle.Render(fmt.Sprintf("%-13s", s))
	}

	var rows []string
	rows = append(rows, label("Instructions:")+c.instructionsInput.View())
	rows = append(rows, label("Tone:")+string(c.tone))
	rows = append(rows, label("Version:")+c.versionLine())
	rows = append(rows, label("To:")+c.toInput.View())
	rows = append(rows, label("Subject:")+c.subjectInput.View())
	rows = append(rows, mutedTextStyle.Render(strings.Repeat("─", innerWidth)))
	rows = append(rows, c.bodyInput.View())
	rows = append(rows, "")
	if c.busy != "" {
		rows = append(rows, markStyle.Render(c.busy))
	} else {
		rows = append(rows, mutedTextStyle.Render("tab:fields  ctrl+g:generate  ctrl+t:tone  ctrl+n/p:version  ctrl+s:save  ctrl+r:send  esc:close"))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primaryColor).
		Padding(0, 1).
		Width(c.width - 2)

	title := titleStyle.Render(" Draft reply: " + truncate(c.email.Subject, max(c.width-20, 10)) + " ")
	return title + "\n" + box.Render(strings.Join(rows, "\n"))
}

// Open shows the editor for email with recipient and subject prefilled.
func (c *composerModel) Open(email *domain.EmailDetail) {
	c.email = email
	c.drafts = nil
	c.version = 0
	c.busy = ""
	c.instructionsInput.SetValue("")
	c.toInput.SetValue(domain.SenderAddress(email.Sender))
	c.subjectInput.SetValue(domain.ReplySubject(email.Subject))
	c.bodyInput.SetValue("")
	c.visible = true
	c.activeField = fieldInstructions
	c.updateFocus()
}

// SetDrafts replaces the versions list and shows selected, or the latest
// draft when selected is nil.
func (c *composerModel) SetDrafts(drafts []domain.Draft, selected *domain.Draft) {
	c.drafts = drafts
	if selected == nil {
		selected = domain.LatestDraft(drafts)
	}
	idx := 0
	for i := range drafts {
		if selected != nil && drafts[i].ID == selected.ID {
			idx = i
		}
	}
	c.showVersion(idx)
}

// UpdateDraft replaces a saved draft in the versions list.
func (c *composerModel) UpdateDraft(d domain.Draft) {
	for i := range c.drafts {
		if c.drafts[i].ID == d.ID {
			c.drafts[i] = d
		}
	}
}

// SetBusy shows a progress line and blocks generate and send. An empty
// string clears it.
func (c *composerModel) SetBusy(s string) {
	c.busy = s
}

// Current returns the draft version being edited, or nil.
func (c composerModel) Current() *domain.Draft {
	if c.version < 0 || c.version >= len(c.drafts) {
		return nil
	}
	return &c.drafts[c.version]
}

// Readiness classifies the shown version for sending.
func (c composerModel) Readiness() domain.Readiness {
	return domain.DraftReadiness(c.Current())
}

// EmailID returns the email being replied to, or 0 when closed.
func (c composerModel) EmailID() int64 {
	if !c.visible || c.email == nil {
		return 0
	}
	return c.email.ID
}

func (c *composerModel) Close() {
	c.visible = false
	c.email = nil
	c.drafts = nil
	c.busy = ""
}

func (c *composerModel) SetSize(w, h int) {
	c.width = w
	c.height = h
}

func (c composerModel) IsVisible() bool {
	return c.visible
}

// --- internal helpers ---

func (c *composerModel) showVersion(idx int) {
	if len(c.drafts) == 0 {
		c.version = 0
		return
	}
	idx = max(0, min(idx, len(c.drafts)-1))
	c.version = idx
	c.bodyInput.SetValue(c.drafts[idx].Content)
}

func (c composerModel) versionLine() string {
	d := c.Current()
	if d == nil {
		return mutedTextStyle.Render("none")
	}
	line := fmt.Sprintf("%d/%d  #%d  %s", c.version+1, len(c.drafts), d.ID, d.CreatedAt.Short())
	if d.ConfidenceScore != nil {
		line += fmt.Sprintf("  confidence %.0f%%", *d.ConfidenceScore*100)
	}
	r := domain.DraftReadiness(d)
	if r == domain.ReadinessReady {
		return line + "  " + okTextStyle.Render(r.Message())
	}
	return line + "  " + errorTextStyle.Render(r.Message())
}

func (c *composerModel) updateFocus() {
	c.instructionsInput.Blur()
	c.toInput.Blur()
	c.subjectInput.Blur()
	c.bodyInput.Blur()

	switch c.activeField {
	case fieldInstructions:
		c.instructionsInput.Focus()
	case fieldTo:
		c.toInput.Focus()
	case fieldSubject:
		c.subjectInput.Focus()
	case fieldBody:
		c.bodyInput.Focus()
	}
}
