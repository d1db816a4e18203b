package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

// jobsModel shows the job monitor table.
type jobsModel struct {
	jobs      []domain.Job
	err       error
	refreshed time.Time
	cursor    int
	offset    int
	width     int
	height    int
	focused   bool
}

func (j jobsModel) Update(msg tea.Msg) (jobsModel, tea.Cmd) {
	if !j.focused {
		return j, nil
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Up):
			if j.cursor > 0 {
				j.cursor--
			}
		case key.Matches(msg, keys.Down):
			if j.cursor < len(j.jobs)-1 {
				j.cursor++
			}
		}
		j.adjustScroll()
	}
	return j, nil
}

// SetJobs applies one monitor refresh. A failed refresh keeps the last
// list and shows the error.
func (j *jobsModel) SetJobs(list []domain.Job, err error) {
	j.err = err
	if err != nil {
		return
	}
	j.jobs = list
	j.refreshed = time.Now()
	if j.cursor >= len(list) {
		j.cursor = max(len(list)-1, 0)
	}
	j.adjustScroll()
}

// Active counts jobs that have not finished.
func (j jobsModel) Active() int {
	n := 0
	for _, job := range j.jobs {
		if !job.Status.IsTerminal() {
			n++
		}
	}
	return n
}

func (j *jobsModel) SetSize(w, h int) {
	j.width = w
	j.height = h
	j.adjustScroll()
}

func (j jobsModel) View() string {
	if j.width == 0 || j.height == 0 {
		return ""
	}

	var header string
	if j.refreshed.IsZero() {
		header = "Jobs · loading..."
	} else {
		header = fmt.Sprintf("Jobs · %d active · updated %s", j.Active(), j.refreshed.Format("15:04:05"))
	}
	var b strings.Builder
	b.WriteString(mutedTextStyle.Render(header))
	if j.err != nil {
		b.WriteString("\n")
		b.WriteString(errorTextStyle.Render("Failed to refresh jobs: " + j.err.Error()))
	}

	b.WriteString("\n")
	b.WriteString(mutedTextStyle.Render(fmt.Sprintf("%-7s %-24s %-11s %-8s %-12s %s", "ID", "TYPE", "STATUS", "TRIES", "CREATED", "ERROR")))

	end := min(j.offset+j.visibleRows(), len(j.jobs))
	for i := j.offset; i < end; i++ {
		job := j.jobs[i]
		status := lipgloss.NewStyle().Width(11).Render(string(job.Status))
		switch job.Status {
		case domain.JobFailed:
			status = errorTextStyle.Width(11).Render(string(job.Status))
		case domain.JobCompleted:
			status = okTextStyle.Width(11).Render(string(job.Status))
		}
		line := fmt.Sprintf("%-7d %-24s %s %-8d %-12s %s",
			job.ID, truncate(string(job.Type), 24), status, job.Attempts,
			relativeDate(job.CreatedAt.Time), truncate(job.Error, max(j.width-68, 10)))
		if i == j.cursor && j.focused {
			line = selectedStyle.Width(j.width).Render(line)
		}
		b.WriteString("\n")
		b.WriteString(line)
	}
	return b.String()
}

func (j jobsModel) visibleRows() int {
	return max(j.height-3, 1)
}

func (j *jobsModel) adjustScroll() {
	visible := j.visibleRows()
	if j.cursor < j.offset {
		j.offset = j.cursor
	}
	if j.cursor >= j.offset+visible {
		j.offset = j.cursor - visible + 1
	}
}
