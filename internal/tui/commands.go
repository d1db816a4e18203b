package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lu-zhengda/smartmail/internal/app"
	"github.com/lu-zhengda/smartmail/internal/bulk"
	"github.com/lu-zhengda/smartmail/internal/domain"
	"github.com/lu-zhengda/smartmail/internal/jobs"
	"github.com/lu-zhengda/smartmail/internal/logging"
)

// --- async result messages ---

type emailsLoadedMsg struct {
	filter domain.EmailFilter
	page   *domain.EmailPage
}

type emailLoadedMsg struct {
	email *domain.EmailDetail
}

type tagsChangedMsg struct {
	emailID int64
	tags    []domain.Tag
	message string
}

type draftsLoadedMsg struct {
	emailID  int64
	drafts   []domain.Draft
	selected *domain.Draft
}

type draftSavedMsg struct {
	draft *domain.Draft
}

type gmailLoadedMsg struct {
	inbox *domain.GmailInbox
	token string
}

type replyGeneratedMsg struct {
	reply *app.Reply
}

type replySentMsg struct {
	result *domain.SendReplyResult
}

type jobsLoadedMsg struct {
	jobs []domain.Job
	err  error
}

type quarantineLoadedMsg struct {
	entries []domain.QuarantineEntry
}

type quarantineHandledMsg struct {
	entryID int64
	result  *domain.QuarantineResult
}

type dashboardLoadedMsg struct {
	summary *domain.DashboardSummary
}

type mailboxesLoadedMsg struct {
	mailboxes []domain.Mailbox
}

type mailboxDeletedMsg struct {
	mailboxID int64
}

type bulkPreviewMsg struct {
	items []bulk.PreviewItem
}

type bulkProgressMsg struct {
	done, total int
	item        bulk.Item
}

type bulkDoneMsg struct {
	summary bulk.Summary
	err     error
}

type usersLoadedMsg struct {
	users []domain.User
}

type userUpdatedMsg struct {
	user *domain.User
}

type errMsg struct {
	err error
}

func errCmd(err error) tea.Cmd {
	return func() tea.Msg { return errMsg{err: err} }
}

// --- job polling ---

type pollPurpose int

const (
	pollDraft pollPurpose = iota
	pollSend
	pollSync
	pollBulkDraft
)

func (p pollPurpose) String() string {
	switch p {
	case pollDraft:
		return "Draft generation"
	case pollSend:
		return "Send"
	case pollSync:
		return "Sync"
	default:
		return "Bulk draft"
	}
}

// pollTarget identifies a submitted job and what to refresh once it ends.
type pollTarget struct {
	purpose   pollPurpose
	jobID     int64
	emailID   int64
	mailboxID int64
	started   time.Time
}

type jobSubmittedMsg struct {
	target pollTarget
}

type pollTickMsg struct {
	target pollTarget
}

// submitFailedMsg reports a job that could not be queued.
type submitFailedMsg struct {
	target pollTarget
	err    error
}

type jobUpdateMsg struct {
	target pollTarget
	job    *domain.Job
	err    error
}

func tickCmd(interval time.Duration, t pollTarget) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg { return pollTickMsg{target: t} })
}

func submitted(purpose pollPurpose, ref *domain.JobRef) pollTarget {
	return pollTarget{purpose: purpose, jobID: ref.JobID, started: time.Now()}
}

func (m model) checkJobCmd(t pollTarget) tea.Cmd {
	return func() tea.Msg {
		job, err := m.deps.Client.GetJob(m.ctx, t.jobID)
		if err != nil {
			return jobUpdateMsg{target: t, err: err}
		}
		if job.Status.IsTerminal() {
			m.deps.Flows.Resolve(m.ctx, job)
		}
		return jobUpdateMsg{target: t, job: job}
	}
}

// handleJobUpdate decides whether to keep polling and what to reload once
// the job is done.
func (m *model) handleJobUpdate(msg jobUpdateMsg) tea.Cmd {
	t := msg.target
	if msg.err != nil {
		m.clearBusy(t)
		m.statusBar.setError(fmt.Sprintf("%s: job %d: %v", t.purpose, t.jobID, msg.err))
		return nil
	}

	switch msg.job.Status {
	case domain.JobFailed:
		m.clearBusy(t)
		m.statusBar.setError(jobs.Failure(msg.job).Error())
		return nil

	case domain.JobCompleted:
		m.clearBusy(t)
		switch t.purpose {
		case pollDraft:
			m.statusBar.setMessage("Draft generated")
			return m.loadDraftsCmd(t.emailID, msg.job)
		case pollSend:
			if m.composer.EmailID() == t.emailID {
				m.composer.Close()
				m.setFocus(paneReader)
			}
			m.statusBar.setMessage("Email sent")
			return nil
		case pollSync:
			m.statusBar.setMessage(fmt.Sprintf("Mailbox %d synced", t.mailboxID))
			return tea.Batch(m.loadMailboxesCmd(), m.loadEmailsCmd(m.inbox.filter))
		default:
			m.statusBar.setMessage(fmt.Sprintf("Bulk drafts ready (job %d)", t.jobID))
			return nil
		}
	}

	if timeout := m.deps.Config.PollTimeout(); timeout > 0 && time.Since(t.started) > timeout {
		m.clearBusy(t)
		m.statusBar.setError(fmt.Sprintf("%s: job %d: %v", t.purpose, t.jobID, jobs.ErrTimeout))
		return nil
	}
	m.statusBar.setMessage(fmt.Sprintf("%s: job %d %s...", t.purpose, t.jobID, msg.job.Status))
	return tickCmd(m.deps.Config.PollInterval(), t)
}

func (m *model) clearBusy(t pollTarget) {
	if t.purpose == pollDraft || t.purpose == pollSend {
		if m.composer.EmailID() == t.emailID {
			m.composer.SetBusy("")
		}
	}
	if t.purpose == pollSync {
		m.mailboxes.SetSyncing(t.mailboxID, false)
	}
}

// --- inbox and email detail ---

func (m model) loadEmailsCmd(f domain.EmailFilter) tea.Cmd {
	return func() tea.Msg {
		page, err := m.deps.Client.ListEmails(m.ctx, f)
		if err != nil {
			return errMsg{err: fmt.Errorf("failed to load emails: %w", err)}
		}
		return emailsLoadedMsg{filter: f, page: page}
	}
}

func (m model) loadEmailCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		email, err := m.deps.Client.GetEmail(m.ctx, id)
		if err != nil {
			return errMsg{err: fmt.Errorf("failed to load email: %w", err)}
		}
		return emailLoadedMsg{email: email}
	}
}

func (m model) addTagCmd(id int64, name string) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.deps.Client.AddTag(m.ctx, id, name, ""); err != nil {
			return errMsg{err: fmt.Errorf("failed to add tag: %w", err)}
		}
		return m.refetchTags(id, fmt.Sprintf("Tagged #%s", name))
	}
}

func (m model) removeTagCmd(id int64, tag domain.Tag) tea.Cmd {
	return func() tea.Msg {
		if err := m.deps.Client.RemoveTag(m.ctx, id, tag.ID); err != nil {
			return errMsg{err: fmt.Errorf("failed to remove tag: %w", err)}
		}
		return m.refetchTags(id, fmt.Sprintf("Removed #%s", tag.Name))
	}
}

func (m model) refetchTags(id int64, message string) tea.Msg {
	email, err := m.deps.Client.GetEmail(m.ctx, id)
	if err != nil {
		return errMsg{err: fmt.Errorf("failed to reload email: %w", err)}
	}
	return tagsChangedMsg{emailID: id, tags: email.Tags, message: message}
}

// --- drafts ---

func (m model) loadDraftsCmd(emailID int64, job *domain.Job) tea.Cmd {
	return func() tea.Msg {
		res := &app.DraftResult{Job: job}
		if err := m.deps.Flows.LoadDrafts(m.ctx, emailID, res); err != nil {
			return errMsg{err: fmt.Errorf("failed to load drafts: %w", err)}
		}
		return draftsLoadedMsg{emailID: emailID, drafts: res.Drafts, selected: res.Draft}
	}
}

func (m model) generateDraftCmd(msg generateDraftMsg) tea.Cmd {
	return func() tea.Msg {
		ref, err := m.deps.Flows.SubmitDraft(m.ctx, msg.emailID, msg.instructions, msg.tone, msg.subject)
		if err != nil {
			return submitFailedMsg{target: pollTarget{purpose: pollDraft, emailID: msg.emailID}, err: err}
		}
		t := submitted(pollDraft, ref)
		t.emailID = msg.emailID
		return jobSubmittedMsg{target: t}
	}
}

func (m model) saveDraftCmd(msg saveDraftMsg) tea.Cmd {
	return func() tea.Msg {
		d, err := m.deps.Client.UpdateDraft(m.ctx, msg.draftID, domain.DraftUpdate{Content: msg.content})
		if err != nil {
			return errMsg{err: fmt.Errorf("failed to save draft: %w", err)}
		}
		return draftSavedMsg{draft: d}
	}
}

func (m model) sendDraftCmd(msg sendDraftMsg) tea.Cmd {
	return func() tea.Msg {
		ref, err := m.deps.Flows.SendDraft(m.ctx, msg.email, msg.content, msg.recipient, msg.subject)
		if err != nil {
			return submitFailedMsg{target: pollTarget{purpose: pollSend, emailID: msg.email.ID}, err: err}
		}
		t := submitted(pollSend, ref)
		t.emailID = msg.email.ID
		return jobSubmittedMsg{target: t}
	}
}

// --- gmail ---

func (m model) loadGmailCmd(token string) tea.Cmd {
	size := m.deps.Config.UI.PageSize
	return func() tea.Msg {
		inbox, err := m.deps.Client.GmailInbox(m.ctx, size, token)
		if err != nil {
			return errMsg{err: fmt.Errorf("failed to load Gmail inbox: %w", err)}
		}
		return gmailLoadedMsg{inbox: inbox, token: token}
	}
}

func (m model) generateReplyCmd(msg generateReplyMsg) tea.Cmd {
	return func() tea.Msg {
		r, err := m.deps.Replier.Generate(m.ctx, msg.message, msg.tone, msg.instructions, msg.force)
		if err != nil {
			return errMsg{err: fmt.Errorf("failed to generate reply: %w", err)}
		}
		return replyGeneratedMsg{reply: r}
	}
}

func (m model) sendReplyCmd(msg sendReplyMsg) tea.Cmd {
	return func() tea.Msg {
		res, err := m.deps.Replier.Send(m.ctx, msg.reply, msg.subject)
		if err != nil {
			return errMsg{err: fmt.Errorf("failed to send reply: %w", err)}
		}
		return replySentMsg{result: res}
	}
}

// --- jobs monitor ---

// startMonitor runs the job monitor until ctx is done, handing each refresh
// to the program through ch. A refresh is dropped while the previous one
// is still unread.
func (m model) startMonitor(ch chan<- jobsLoadedMsg) {
	go func() {
		err := m.deps.Monitor.Run(m.ctx, func(list []domain.Job, err error) {
			select {
			case ch <- jobsLoadedMsg{jobs: list, err: err}:
			default:
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			m.deps.Logger.Warn("job monitor stopped", logging.Err(err))
		}
	}()
}

func waitForJobs(ch <-chan jobsLoadedMsg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// --- quarantine ---

func (m model) loadQuarantineCmd() tea.Cmd {
	return func() tea.Msg {
		entries, err := m.deps.Client.QuarantineQueue(m.ctx, 0, domain.QuarantineStatusQuarantined)
		if err != nil {
			return errMsg{err: fmt.Errorf("failed to load quarantine: %w", err)}
		}
		return quarantineLoadedMsg{entries: entries}
	}
}

type quarantineAction int

const (
	actionRelease quarantineAction = iota
	actionConfirmSpam
	actionDelete
)

func (m model) quarantineCmd(action quarantineAction, id int64, notes string, listFlag bool) tea.Cmd {
	return func() tea.Msg {
		var (
			res *domain.QuarantineResult
			err error
		)
		switch action {
		case actionRelease:
			res, err = m.deps.Client.Release(m.ctx, id, notes, listFlag)
		case actionConfirmSpam:
			res, err = m.deps.Client.ConfirmSpam(m.ctx, id, notes, listFlag)
		default:
			res, err = m.deps.Client.DeleteQuarantined(m.ctx, id)
		}
		if err != nil {
			return errMsg{err: fmt.Errorf("quarantine entry %d: %w", id, err)}
		}
		return quarantineHandledMsg{entryID: id, result: res}
	}
}

// --- analytics ---

func (m model) loadDashboardCmd(days int) tea.Cmd {
	return func() tea.Msg {
		s, err := m.deps.Client.Dashboard(m.ctx, days)
		if err != nil {
			return errMsg{err: fmt.Errorf("failed to load analytics: %w", err)}
		}
		return dashboardLoadedMsg{summary: s}
	}
}

// --- mailboxes ---

func (m model) loadMailboxesCmd() tea.Cmd {
	return func() tea.Msg {
		list, err := m.deps.Client.ListMailboxes(m.ctx)
		if err != nil {
			return errMsg{err: fmt.Errorf("failed to load mailboxes: %w", err)}
		}
		return mailboxesLoadedMsg{mailboxes: list}
	}
}

func (m model) syncMailboxCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		res, err := m.deps.Flows.SyncMailbox(m.ctx, id, false, nil)
		if err != nil {
			return submitFailedMsg{target: pollTarget{purpose: pollSync, mailboxID: id}, err: err}
		}
		t := submitted(pollSync, res.Ref)
		t.mailboxID = id
		return jobSubmittedMsg{target: t}
	}
}

func (m model) deleteMailboxCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		if err := m.deps.Client.DeleteMailbox(m.ctx, id); err != nil {
			return errMsg{err: fmt.Errorf("failed to delete mailbox %d: %w", id, err)}
		}
		return mailboxDeletedMsg{mailboxID: id}
	}
}

// --- bulk ---

func (m model) bulkDraftCmd(ids []int64, instructions string) tea.Cmd {
	return func() tea.Msg {
		ref, err := m.deps.Bulk.GenerateDrafts(m.ctx, ids, instructions, domain.ToneProfessional)
		if err != nil {
			return submitFailedMsg{target: pollTarget{purpose: pollBulkDraft}, err: err}
		}
		m.deps.Flows.Track(m.ctx, ref, domain.JobBulkDraft, fmt.Sprintf("%d emails", len(ids)))
		return jobSubmittedMsg{target: submitted(pollBulkDraft, ref)}
	}
}

func (m model) bulkPreviewCmd(ids []int64) tea.Cmd {
	return func() tea.Msg {
		items, err := m.deps.Bulk.Preview(m.ctx, ids)
		if err != nil {
			return errMsg{err: fmt.Errorf("bulk preview: %w", err)}
		}
		return bulkPreviewMsg{items: items}
	}
}

// startBulkSend sends every ready preview in the background and streams
// progress through the returned channel, which is closed after bulkDoneMsg.
func (m model) startBulkSend(previews []bulk.PreviewItem) <-chan tea.Msg {
	ch := make(chan tea.Msg, 16)
	go func() {
		defer close(ch)
		emit := func(msg tea.Msg) {
			select {
			case ch <- msg:
			case <-m.ctx.Done():
			}
		}
		_, summary, err := m.deps.Bulk.SendReady(m.ctx, previews, func(done, total int, it *bulk.Item) {
			emit(bulkProgressMsg{done: done, total: total, item: *it})
		})
		emit(bulkDoneMsg{summary: summary, err: err})
	}()
	return ch
}

func waitForBulk(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// --- admin ---

func (m model) loadUsersCmd() tea.Cmd {
	return func() tea.Msg {
		users, err := m.deps.Client.ListUsers(m.ctx)
		if err != nil {
			return errMsg{err: fmt.Errorf("failed to load users: %w", err)}
		}
		return usersLoadedMsg{users: users}
	}
}

func (m model) updateUserCmd(id int64, upd domain.UserUpdate) tea.Cmd {
	return func() tea.Msg {
		u, err := m.deps.Client.UpdateUser(m.ctx, id, upd)
		if err != nil {
			return errMsg{err: fmt.Errorf("failed to update user %d: %w", id, err)}
		}
		return userUpdatedMsg{user: u}
	}
}
