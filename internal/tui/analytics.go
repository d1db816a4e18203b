package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

type analyticsPeriodMsg struct {
	days int
}

// analyticsModel shows the dashboard summary for one period.
type analyticsModel struct {
	days    int
	summary *domain.DashboardSummary
	width   int
	height  int
	focused bool
}

func newAnalytics() analyticsModel {
	return analyticsModel{days: domain.AnalyticsPeriods[0]}
}

func (a analyticsModel) Update(msg tea.Msg) (analyticsModel, tea.Cmd) {
	if !a.focused {
		return a, nil
	}
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch {
	case key.Matches(k, keys.Shorter):
		return a, a.period(-1)
	case key.Matches(k, keys.Longer):
		return a, a.period(1)
	case key.Matches(k, keys.Refresh):
		days := a.days
		return a, func() tea.Msg { return analyticsPeriodMsg{days: days} }
	}
	return a, nil
}

// period steps through AnalyticsPeriods, wrapping at either end.
func (a analyticsModel) period(step int) tea.Cmd {
	periods := domain.AnalyticsPeriods
	i := slices.Index(periods, a.days)
	i = (i + step + len(periods)) % len(periods)
	days := periods[i]
	return func() tea.Msg { return analyticsPeriodMsg{days: days} }
}

func (a *analyticsModel) SetSummary(s *domain.DashboardSummary) {
	a.summary = s
	if s.PeriodDays > 0 {
		a.days = s.PeriodDays
	}
}

func (a *analyticsModel) SetSize(w, h int) {
	a.width = w
	a.height = h
}

func (a analyticsModel) View() string {
	if a.width == 0 || a.height == 0 {
		return ""
	}
	var b strings.Builder
	periods := make([]string, len(domain.AnalyticsPeriods))
	for i, d := range domain.AnalyticsPeriods {
		p := fmt.Sprintf("%dd", d)
		if d == a.days {
			p = titleStyle.Render("[" + p + "]")
		}
		periods[i] = p
	}
	b.WriteString("Period: " + strings.Join(periods, "  "))
	b.WriteString("\n\n")

	s := a.summary
	if s == nil {
		b.WriteString(mutedTextStyle.Render("Loading..."))
		return b.String()
	}

	row := func(label, value string) {
		b.WriteString(mutedTextStyle.Render(fmt.Sprintf("  %-24s", label)))
		b.WriteString(value)
		b.WriteString("\n")
	}

	b.WriteString(titleStyle.Render("Response SLA"))
	b.WriteString("\n")
	row("Received", fmt.Sprintf("%d", s.SLA.TotalReceived))
	row("Backlog", fmt.Sprintf("%d (%.1f%%)", s.SLA.Backlog, s.SLA.BacklogRate))
	row("Avg response", fmt.Sprintf("%.1fh", s.SLA.AvgResponseTimeHours))
	row("Under 1h / 4h / 24h", fmt.Sprintf("%d / %d / %d of %d",
		s.SLA.ResponsesUnder1h, s.SLA.ResponsesUnder4h, s.SLA.ResponsesUnder24h, s.SLA.TotalResponses))
	b.WriteString("\n")

	b.WriteString(titleStyle.Render("AI usage"))
	b.WriteString("\n")
	row("Drafts generated", fmt.Sprintf("%d", s.AIUsage.TotalDraftsGenerated))
	row("Accepted", fmt.Sprintf("%d (%.1f%%)", s.AIUsage.DraftsAccepted, s.AIUsage.AcceptanceRate))
	row("Emails sent", fmt.Sprintf("%d", s.AIUsage.TotalEmailsSent))
	row("Edit rate", fmt.Sprintf("%.1f%%", s.AIUsage.EditRate))
	row("Generation jobs", fmt.Sprintf("%d ok / %d failed (%.1f%%)",
		s.AIUsage.GenerationJobs.Completed, s.AIUsage.GenerationJobs.Failed, s.AIUsage.GenerationJobs.SuccessRate))
	b.WriteString("\n")

	b.WriteString(titleStyle.Render("Highlights"))
	b.WriteString("\n")
	row("Backlog", s.Highlights.BacklogStatus)
	row("Response time", s.Highlights.ResponseTimeStatus)
	row("AI adoption", s.Highlights.AIAdoption)
	return b.String()
}
