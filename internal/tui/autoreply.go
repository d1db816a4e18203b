package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lu-zhengda/smartmail/internal/app"
	"github.com/lu-zhengda/smartmail/internal/domain"
)

type generateReplyMsg struct {
	message      *domain.GmailMessage
	tone         domain.Tone
	instructions string
	force        bool
}

type sendReplyMsg struct {
	reply   *app.Reply
	subject string
}

type closeAutoReplyMsg struct{}

// autoReplyModel reviews a generated Gmail reply. The reply can be edited,
// regenerated with another tone or instructions, then sent or dismissed.
type autoReplyModel struct {
	message      domain.GmailMessage
	reply        *app.Reply
	tone         domain.Tone
	instructions textinput.Model
	body         textarea.Model
	editing      bool
	loading      bool
	visible      bool
	width        int
	height       int
}

func newAutoReply() autoReplyModel {
	instr := textinput.New()
	instr.Placeholder = "optional instructions"
	instr.CharLimit = 500
	instr.Prompt = "Instructions: "

	body := textarea.New()
	body.CharLimit = 0
	body.SetHeight(8)

	return autoReplyModel{instructions: instr, body: body, tone: domain.ToneProfessional}
}

// Open shows the dialog for msg and asks for a reply in the current tone.
func (a *autoReplyModel) Open(msg domain.GmailMessage) tea.Cmd {
	a.message = msg
	a.reply = nil
	a.editing = false
	a.visible = true
	a.instructions.SetValue("")
	a.body.SetValue("")
	a.body.Blur()
	a.instructions.Blur()
	return a.generate(false)
}

func (a *autoReplyModel) Close() {
	a.visible = false
	a.reply = nil
	a.loading = false
}

func (a autoReplyModel) IsVisible() bool {
	return a.visible
}

// SetReply shows a generated reply.
func (a *autoReplyModel) SetReply(r *app.Reply) {
	if r.MessageID != a.message.ID {
		return
	}
	a.reply = r
	a.loading = false
	a.tone = r.Tone
	a.body.SetValue(r.Text)
}

// Failed clears the loading state after an error.
func (a *autoReplyModel) Failed() {
	a.loading = false
}

func (a *autoReplyModel) SetSize(w, h int) {
	a.width = w
	a.height = h
	a.body.SetWidth(max(w-6, 20))
	a.body.SetHeight(max(h-12, 4))
	a.instructions.Width = max(w-20, 10)
}

func (a autoReplyModel) Update(msg tea.Msg) (autoReplyModel, tea.Cmd) {
	if !a.visible {
		return a, nil
	}

	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}

	if a.editing {
		switch k.String() {
		case "esc":
			a.editing = false
			a.body.Blur()
			a.instructions.Blur()
			if a.reply != nil {
				a.reply.Edit(a.body.Value())
			}
			return a, nil
		case "enter":
			if a.instructions.Focused() {
				a.editing = false
				a.instructions.Blur()
				return a, a.generate(false)
			}
		}
		var cmd tea.Cmd
		if a.instructions.Focused() {
			a.instructions, cmd = a.instructions.Update(msg)
		} else {
			a.body, cmd = a.body.Update(msg)
		}
		return a, cmd
	}

	switch k.String() {
	case "esc", "n":
		return a, func() tea.Msg { return closeAutoReplyMsg{} }
	case "t":
		a.tone = a.tone.Next()
		return a, a.generate(false)
	case "f":
		return a, a.generate(true)
	case "i":
		a.editing = true
		a.instructions.Focus()
		return a, textinput.Blink
	case "e":
		if a.reply != nil {
			a.editing = true
			a.body.Focus()
			return a, textarea.Blink
		}
	case "y", "ctrl+s":
		if a.reply == nil || a.loading || strings.TrimSpace(a.reply.Text) == "" {
			return a, nil
		}
		send := sendReplyMsg{reply: a.reply, subject: domain.ReplySubject(a.message.Subject)}
		a.loading = true
		return a, func() tea.Msg { return send }
	}
	return a, nil
}

func (a *autoReplyModel) generate(force bool) tea.Cmd {
	a.loading = true
	msg := a.message
	req := generateReplyMsg{
		message:      &msg,
		tone:         a.tone,
		instructions: strings.TrimSpace(a.instructions.Value()),
		force:        force,
	}
	return func() tea.Msg { return req }
}

func (a autoReplyModel) View() string {
	if !a.visible {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Auto-reply: " + truncate(a.message.Subject, max(a.width-20, 10))))
	b.WriteString("\n")
	b.WriteString(mutedTextStyle.Render("From: " + a.message.Sender))
	b.WriteString("\n")

	tone := "Tone: " + string(a.tone)
	if a.reply != nil && a.reply.FromCache {
		tone += " " + markStyle.Render("(cached)")
	}
	b.WriteString(tone)
	b.WriteString("\n")
	b.WriteString(a.instructions.View())
	b.WriteString("\n\n")

	if a.loading && a.reply == nil {
		b.WriteString(mutedTextStyle.Render("Generating reply..."))
	} else {
		b.WriteString(a.body.View())
	}
	b.WriteString("\n\n")

	switch {
	case a.loading:
		b.WriteString(mutedTextStyle.Render("working..."))
	case a.editing:
		b.WriteString(mutedTextStyle.Render("esc:done editing  enter:regenerate (instructions)"))
	default:
		b.WriteString(mutedTextStyle.Render("y:apply & send  e:edit  i:instructions  t:tone  f:regenerate  n/esc:deny"))
	}
	return dialogStyle.Width(max(a.width-2, 30)).Render(b.String())
}
