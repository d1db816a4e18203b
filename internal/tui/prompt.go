package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type promptPurpose int

const (
	promptSearch promptPurpose = iota
	promptTag
	promptReleaseNotes
	promptSpamNotes
	promptBulkInstructions
)

// promptSubmitMsg carries the text the user entered.
type promptSubmitMsg struct {
	purpose promptPurpose
	value   string
	// id is the entity the prompt was opened for, such as an email or a
	// quarantine entry.
	id int64
}

type closePromptMsg struct{}

// promptModel asks for one line of text.
type promptModel struct {
	input    textinput.Model
	title    string
	purpose  promptPurpose
	id       int64
	required bool
	active   bool
	width    int
}

func newPrompt() promptModel {
	ti := textinput.New()
	ti.CharLimit = 500
	ti.Prompt = "> "
	return promptModel{input: ti}
}

// Open shows the prompt with an initial value. A required prompt ignores
// an empty submit.
func (p *promptModel) Open(purpose promptPurpose, id int64, title, placeholder, value string, required bool) {
	p.purpose = purpose
	p.id = id
	p.title = title
	p.required = required
	p.input.Placeholder = placeholder
	p.input.SetValue(value)
	p.input.CursorEnd()
	p.input.Focus()
	p.active = true
}

// Close hides the prompt.
func (p *promptModel) Close() {
	p.active = false
	p.input.Blur()
}

func (p promptModel) IsActive() bool {
	return p.active
}

func (p *promptModel) SetWidth(w int) {
	p.width = w
	p.input.Width = max(w-8, 10)
}

func (p promptModel) Update(msg tea.Msg) (promptModel, tea.Cmd) {
	if !p.active {
		return p, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Back):
			return p, func() tea.Msg { return closePromptMsg{} }
		case key.Matches(msg, keys.Enter):
			v := strings.TrimSpace(p.input.Value())
			if v == "" && p.required {
				return p, nil
			}
			sub := promptSubmitMsg{purpose: p.purpose, value: v, id: p.id}
			return p, func() tea.Msg { return sub }
		}
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p promptModel) View() string {
	if !p.active {
		return ""
	}
	help := mutedTextStyle.Render("enter:ok  esc:cancel")
	body := titleStyle.Render(p.title) + "\n" + p.input.View() + "\n" + help
	return dialogStyle.Width(max(p.width-2, 20)).Render(body)
}

// confirmModel asks a yes/no question and emits onYes when confirmed.
type confirmModel struct {
	question string
	onYes    tea.Msg
	active   bool
	width    int
}

type closeConfirmMsg struct{}

func (c *confirmModel) Open(question string, onYes tea.Msg) {
	c.question = question
	c.onYes = onYes
	c.active = true
}

func (c *confirmModel) Close() {
	c.active = false
	c.onYes = nil
}

func (c confirmModel) IsActive() bool {
	return c.active
}

func (c confirmModel) Update(msg tea.Msg) (confirmModel, tea.Cmd) {
	if !c.active {
		return c, nil
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "y", "Y":
			yes := c.onYes
			return c, tea.Sequence(
				func() tea.Msg { return closeConfirmMsg{} },
				func() tea.Msg { return yes },
			)
		case "n", "N", "esc", "q":
			return c, func() tea.Msg { return closeConfirmMsg{} }
		}
	}
	return c, nil
}

func (c confirmModel) View() string {
	if !c.active {
		return ""
	}
	body := titleStyle.Render(c.question) + "\n" + mutedTextStyle.Render("y:yes  n:no")
	return dialogStyle.Width(max(c.width-2, 20)).Render(body)
}
