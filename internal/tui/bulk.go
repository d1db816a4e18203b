package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lu-zhengda/smartmail/internal/bulk"
	"github.com/lu-zhengda/smartmail/internal/domain"
)

type bulkSendMsg struct {
	previews []bulk.PreviewItem
}

type closeBulkMsg struct{}

// bulkModel previews the drafts of the selected emails and follows the
// send of every ready one.
type bulkModel struct {
	previews []bulk.PreviewItem
	progress map[int64]bulk.Item
	done     int
	total    int
	summary  *bulk.Summary
	sending  bool
	loading  bool
	visible  bool
	width    int
	height   int
}

func newBulk() bulkModel {
	return bulkModel{progress: map[int64]bulk.Item{}}
}

// Open shows the panel while the preview loads.
func (b *bulkModel) Open() {
	b.previews = nil
	b.progress = map[int64]bulk.Item{}
	b.done, b.total = 0, 0
	b.summary = nil
	b.sending = false
	b.loading = true
	b.visible = true
}

func (b *bulkModel) SetPreview(items []bulk.PreviewItem) {
	b.previews = items
	b.loading = false
}

// Failed clears the loading state after the preview could not be built.
func (b *bulkModel) Failed() {
	b.loading = false
}

func (b *bulkModel) Progress(done, total int, it bulk.Item) {
	b.done, b.total = done, total
	b.progress[it.EmailID] = it
}

func (b *bulkModel) Finish(s bulk.Summary) {
	b.sending = false
	b.summary = &s
}

func (b *bulkModel) Close() {
	b.visible = false
}

func (b bulkModel) IsVisible() bool {
	return b.visible
}

func (b bulkModel) Sending() bool {
	return b.sending
}

func (b *bulkModel) SetSize(w, h int) {
	b.width = w
	b.height = h
}

func (b bulkModel) ready() int {
	return bulk.Counts(b.previews)[domain.ReadinessReady]
}

func (b bulkModel) Update(msg tea.Msg) (bulkModel, tea.Cmd) {
	if !b.visible {
		return b, nil
	}
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return b, nil
	}
	switch k.String() {
	case "esc", "q":
		if b.sending {
			return b, nil
		}
		return b, func() tea.Msg { return closeBulkMsg{} }
	case "y", "enter":
		if b.loading || b.sending || b.summary != nil || b.ready() == 0 {
			return b, nil
		}
		b.sending = true
		previews := b.previews
		return b, func() tea.Msg { return bulkSendMsg{previews: previews} }
	}
	return b, nil
}

func (b bulkModel) View() string {
	if !b.visible {
		return ""
	}
	var s strings.Builder
	s.WriteString(titleStyle.Render("Bulk send"))
	s.WriteString("\n")

	if b.loading {
		s.WriteString(mutedTextStyle.Render("Loading drafts..."))
		return dialogStyle.Width(max(b.width-2, 30)).Render(s.String())
	}

	counts := bulk.Counts(b.previews)
	s.WriteString(mutedTextStyle.Render(fmt.Sprintf("%d ready · %d awaiting approval · %d rejected · %d without draft",
		counts[domain.ReadinessReady], counts[domain.ReadinessPendingApproval],
		counts[domain.ReadinessBlocked], counts[domain.ReadinessNoDraft])))
	s.WriteString("\n\n")

	rows := max(b.height-8, 1)
	for i, p := range b.previews {
		if i >= rows {
			s.WriteString(mutedTextStyle.Render(fmt.Sprintf("... %d more", len(b.previews)-rows)))
			s.WriteString("\n")
			break
		}
		s.WriteString(b.renderRow(p))
		s.WriteString("\n")
	}
	s.WriteString("\n")

	switch {
	case b.summary != nil:
		s.WriteString(okTextStyle.Render(fmt.Sprintf("Sent %d, failed %d", b.summary.Sent, b.summary.Failed)))
		s.WriteString("  " + mutedTextStyle.Render("esc:close"))
	case b.sending:
		s.WriteString(markStyle.Render(fmt.Sprintf("Sending %d/%d...", b.done, b.total)))
	case b.ready() == 0:
		s.WriteString(mutedTextStyle.Render("Nothing ready to send  esc:close"))
	default:
		s.WriteString(mutedTextStyle.Render(fmt.Sprintf("y:send %d ready  esc:cancel", b.ready())))
	}
	return dialogStyle.Width(max(b.width-2, 30)).Render(s.String())
}

func (b bulkModel) renderRow(p bulk.PreviewItem) string {
	text, style := p.Message, mutedTextStyle
	if p.Ready() {
		style = okTextStyle
	}
	if it, ok := b.progress[p.EmailID]; ok {
		switch it.Status {
		case bulk.StatusSuccess:
			text, style = "sent", okTextStyle
		case bulk.StatusError:
			text, style = "error: "+it.Error, errorTextStyle
		default:
			text, style = string(it.Status), markStyle
		}
	}
	status := style.Width(22).Render(truncate(text, 22))

	preview := ""
	if p.Draft != nil {
		preview = strings.Join(strings.Fields(p.Draft.Content), " ")
	}
	return fmt.Sprintf("#%-6d %s %s", p.EmailID, status, truncate(preview, max(b.width-36, 10)))
}
