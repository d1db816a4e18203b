package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lu-zhengda/smartmail/internal/api"
	"github.com/lu-zhengda/smartmail/internal/app"
	"github.com/lu-zhengda/smartmail/internal/bulk"
	"github.com/lu-zhengda/smartmail/internal/config"
	"github.com/lu-zhengda/smartmail/internal/domain"
	"github.com/lu-zhengda/smartmail/internal/jobs"
	"github.com/lu-zhengda/smartmail/internal/logging"
	"github.com/lu-zhengda/smartmail/internal/session"
)

type pane int

const (
	paneSidebar pane = iota
	paneContent
	paneReader
)

// Messages carried by confirmation dialogs.

type quarantineDeleteMsg struct {
	entryID int64
}

type mailboxDeleteConfirmedMsg struct {
	mailboxID int64
}

// Deps are the services the dashboard drives.
type Deps struct {
	Client  *api.Client
	Session *session.Manager
	Flows   *app.Flows
	Bulk    *bulk.Service
	Replier *app.AutoReplier
	Monitor *jobs.Monitor
	Config  *config.Config
	Profile string
	Logger  *slog.Logger
}

// --- root model ---

type model struct {
	ctx  context.Context
	deps Deps
	user *domain.User

	sidebar    sidebarModel
	inbox      inboxModel
	reader     readerModel
	composer   composerModel
	prompt     promptModel
	confirm    confirmModel
	gmail      gmailModel
	autoReply  autoReplyModel
	jobs       jobsModel
	quarantine quarantineModel
	analytics  analyticsModel
	mailboxes  mailboxesModel
	bulk       bulkModel
	admin      adminModel

	activeTab  tab
	activePane pane
	statusBar  statusBar

	jobsCh chan jobsLoadedMsg
	bulkCh <-chan tea.Msg

	width  int
	height int
}

func newModel(ctx context.Context, d Deps, user *domain.User) model {
	m := model{
		ctx:       ctx,
		deps:      d,
		user:      user,
		sidebar:   newSidebar(user, d.Profile),
		inbox:     newInbox(d.Config.UI.PageSize),
		reader:    newReader(),
		composer:  newComposer(),
		prompt:    newPrompt(),
		autoReply: newAutoReply(),
		analytics: newAnalytics(),
		mailboxes: newMailboxes(),
		bulk:      newBulk(),
		admin:     adminModel{self: user.ID},
		activeTab: tabInbox,
		statusBar: newStatusBar(),
		jobsCh:    make(chan jobsLoadedMsg, 1),
	}
	m.setFocus(paneContent)
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.loadEmailsCmd(m.inbox.filter),
		waitForJobs(m.jobsCh),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	// --- window resize ---
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.width = msg.Width
		m.resizeSubModels()
		return m, nil

	// --- inbox and reader ---
	case emailsLoadedMsg:
		m.inbox.SetPage(msg.filter, msg.page)
		m.sidebar.SetBadge(tabInbox, m.inbox.Unread())
		m.statusBar.setMessage(fmt.Sprintf("Loaded %d of %d emails", len(msg.page.Items), msg.page.Total))
		return m, nil

	case inboxQueryMsg:
		m.statusBar.setMessage("Loading emails...")
		return m, m.loadEmailsCmd(msg.filter)

	case emailSelectedMsg:
		m.statusBar.setMessage("Loading email...")
		return m, m.loadEmailCmd(msg.emailID)

	case emailLoadedMsg:
		m.reader.ShowEmail(msg.email)
		m.inbox.MarkRead(msg.email.ID)
		m.sidebar.SetBadge(tabInbox, m.inbox.Unread())
		m.statusBar.readerVisible = true
		m.setFocus(paneReader)
		m.resizeSubModels()
		m.statusBar.setMessage(msg.email.Subject)
		return m, nil

	case closeReaderMsg:
		m.reader.Close()
		m.statusBar.readerVisible = false
		m.setFocus(paneContent)
		m.resizeSubModels()
		return m, nil

	case addTagMsg:
		m.prompt.Open(promptTag, msg.emailID, "Add tag", "tag name", "", true)
		return m, nil

	case removeTagMsg:
		m.statusBar.setMessage("Removing tag...")
		return m, m.removeTagCmd(msg.emailID, msg.tag)

	case tagsChangedMsg:
		m.reader.SetTags(msg.emailID, msg.tags)
		m.inbox.SetTags(msg.emailID, msg.tags)
		m.statusBar.setMessage(msg.message)
		return m, nil

	// --- prompts and confirmations ---
	case promptSubmitMsg:
		m.prompt.Close()
		return m, m.handlePrompt(msg)

	case closePromptMsg:
		m.prompt.Close()
		return m, nil

	case closeConfirmMsg:
		m.confirm.Close()
		return m, nil

	// --- draft editor ---
	case openDraftMsg:
		m.composer.Open(msg.email)
		m.resizeSubModels()
		m.statusBar.setMessage("Loading drafts...")
		return m, m.loadDraftsCmd(msg.email.ID, nil)

	case draftsLoadedMsg:
		if m.composer.EmailID() == msg.emailID {
			m.composer.SetDrafts(msg.drafts, msg.selected)
		}
		m.statusBar.setMessage(fmt.Sprintf("%d draft version(s)", len(msg.drafts)))
		return m, nil

	case generateDraftMsg:
		m.composer.SetBusy("Generating draft...")
		return m, m.generateDraftCmd(msg)

	case saveDraftMsg:
		m.statusBar.setMessage("Saving draft...")
		return m, m.saveDraftCmd(msg)

	case draftSavedMsg:
		m.composer.UpdateDraft(*msg.draft)
		m.statusBar.setMessage(fmt.Sprintf("Draft %d saved", msg.draft.ID))
		return m, nil

	case sendDraftMsg:
		m.composer.SetBusy("Sending...")
		return m, m.sendDraftCmd(msg)

	case cancelComposeMsg:
		m.composer.Close()
		if m.reader.IsVisible() {
			m.setFocus(paneReader)
		} else {
			m.setFocus(paneContent)
		}
		return m, nil

	// --- job polling ---
	case jobSubmittedMsg:
		if msg.target.purpose == pollSync {
			m.mailboxes.SetSyncing(msg.target.mailboxID, true)
		}
		m.statusBar.setMessage(fmt.Sprintf("%s queued (job %d)", msg.target.purpose, msg.target.jobID))
		return m, m.checkJobCmd(msg.target)

	case submitFailedMsg:
		m.clearBusy(msg.target)
		m.statusBar.setError(fmt.Sprintf("%s: %v", msg.target.purpose, msg.err))
		return m, nil

	case pollTickMsg:
		return m, m.checkJobCmd(msg.target)

	case jobUpdateMsg:
		return m, m.handleJobUpdate(msg)

	// --- gmail ---
	case gmailPageMsg:
		m.statusBar.setMessage("Loading Gmail...")
		return m, m.loadGmailCmd(msg.token)

	case gmailLoadedMsg:
		m.gmail.SetInbox(msg.token, msg.inbox)
		m.sidebar.SetBadge(tabGmail, m.gmail.Unread())
		m.statusBar.setMessage(fmt.Sprintf("Loaded %d Gmail messages", len(msg.inbox.Messages)))
		return m, nil

	case openAutoReplyMsg:
		cmd := m.autoReply.Open(msg.message)
		m.resizeSubModels()
		return m, cmd

	case generateReplyMsg:
		m.statusBar.setMessage("Generating reply...")
		return m, m.generateReplyCmd(msg)

	case replyGeneratedMsg:
		m.autoReply.SetReply(msg.reply)
		if msg.reply.FromCache {
			m.statusBar.setMessage("Reply loaded from cache")
		} else {
			m.statusBar.setMessage("Reply generated")
		}
		return m, nil

	case sendReplyMsg:
		m.statusBar.setMessage("Sending reply...")
		return m, m.sendReplyCmd(msg)

	case replySentMsg:
		m.autoReply.Close()
		if msg.result != nil && msg.result.Success {
			m.statusBar.setMessage(fmt.Sprintf("Reply sent to %s", msg.result.To))
		} else if msg.result != nil {
			m.statusBar.setError(msg.result.Message)
		}
		return m, nil

	case closeAutoReplyMsg:
		m.autoReply.Close()
		return m, nil

	// --- jobs monitor ---
	case jobsLoadedMsg:
		m.jobs.SetJobs(msg.jobs, msg.err)
		if msg.err != nil {
			m.deps.Logger.Debug("job refresh failed", logging.Err(msg.err))
		} else {
			m.sidebar.SetBadge(tabJobs, m.jobs.Active())
		}
		return m, waitForJobs(m.jobsCh)

	// --- quarantine ---
	case quarantineLoadedMsg:
		m.quarantine.SetEntries(msg.entries)
		m.sidebar.SetBadge(tabQuarantine, m.quarantine.Len())
		return m, nil

	case refreshQuarantineMsg:
		return m, m.loadQuarantineCmd()

	case quarantineRequestMsg:
		switch msg.action {
		case actionRelease:
			m.prompt.Open(promptReleaseNotes, msg.entryID, fmt.Sprintf("Release entry %d", msg.entryID), "notes (optional)", "", false)
		case actionConfirmSpam:
			m.prompt.Open(promptSpamNotes, msg.entryID, fmt.Sprintf("Confirm entry %d as spam", msg.entryID), "notes (optional)", "", false)
		case actionDelete:
			m.confirm.Open(fmt.Sprintf("Permanently delete quarantined email %d?", msg.entryID), quarantineDeleteMsg{entryID: msg.entryID})
		}
		return m, nil

	case quarantineDeleteMsg:
		return m, m.quarantineCmd(actionDelete, msg.entryID, "", false)

	case quarantineHandledMsg:
		m.quarantine.Remove(msg.entryID)
		m.sidebar.SetBadge(tabQuarantine, m.quarantine.Len())
		if msg.result != nil && msg.result.Message != "" {
			m.statusBar.setMessage(msg.result.Message)
		} else {
			m.statusBar.setMessage(fmt.Sprintf("Quarantine entry %d handled", msg.entryID))
		}
		return m, nil

	// --- analytics ---
	case analyticsPeriodMsg:
		m.analytics.days = msg.days
		m.statusBar.setMessage(fmt.Sprintf("Loading %d-day analytics...", msg.days))
		return m, m.loadDashboardCmd(msg.days)

	case dashboardLoadedMsg:
		m.analytics.SetSummary(msg.summary)
		m.statusBar.setMessage("Analytics updated")
		return m, nil

	// --- mailboxes ---
	case mailboxesLoadedMsg:
		m.mailboxes.SetMailboxes(msg.mailboxes)
		return m, nil

	case refreshMailboxesMsg:
		return m, m.loadMailboxesCmd()

	case syncMailboxMsg:
		m.mailboxes.SetSyncing(msg.mailboxID, true)
		m.statusBar.setMessage(fmt.Sprintf("Syncing mailbox %d...", msg.mailboxID))
		return m, m.syncMailboxCmd(msg.mailboxID)

	case deleteMailboxMsg:
		m.confirm.Open(fmt.Sprintf("Delete mailbox %s and all its emails?", msg.mailbox.EmailAddress),
			mailboxDeleteConfirmedMsg{mailboxID: msg.mailbox.ID})
		return m, nil

	case mailboxDeleteConfirmedMsg:
		return m, m.deleteMailboxCmd(msg.mailboxID)

	case mailboxDeletedMsg:
		m.mailboxes.Remove(msg.mailboxID)
		m.statusBar.setMessage(fmt.Sprintf("Mailbox %d deleted", msg.mailboxID))
		return m, nil

	// --- bulk ---
	case bulkPreviewMsg:
		m.bulk.SetPreview(msg.items)
		return m, nil

	case bulkSendMsg:
		m.bulkCh = m.startBulkSend(msg.previews)
		m.statusBar.setMessage("Sending ready drafts...")
		return m, waitForBulk(m.bulkCh)

	case bulkProgressMsg:
		m.bulk.Progress(msg.done, msg.total, msg.item)
		return m, waitForBulk(m.bulkCh)

	case bulkDoneMsg:
		m.bulk.Finish(msg.summary)
		m.bulkCh = nil
		if msg.err != nil {
			m.statusBar.setError(fmt.Sprintf("Bulk send stopped: %v", msg.err))
			return m, nil
		}
		m.inbox.ClearSelection()
		m.statusBar.selected = 0
		m.statusBar.setMessage(fmt.Sprintf("Bulk send: %d sent, %d failed", msg.summary.Sent, msg.summary.Failed))
		return m, nil

	case closeBulkMsg:
		m.bulk.Close()
		return m, nil

	// --- admin ---
	case usersLoadedMsg:
		m.admin.SetUsers(msg.users)
		return m, nil

	case refreshUsersMsg:
		return m, m.loadUsersCmd()

	case updateUserMsg:
		return m, m.updateUserCmd(msg.userID, msg.update)

	case userUpdatedMsg:
		m.admin.Replace(msg.user)
		m.statusBar.setMessage(fmt.Sprintf("Updated %s (role %s, active %t)", msg.user.Email, msg.user.Role, msg.user.IsActive))
		return m, nil

	// --- navigation ---
	case tabSelectedMsg:
		return m, m.activateTab(msg.tab)

	case errMsg:
		m.composer.SetBusy("")
		m.autoReply.Failed()
		m.bulk.Failed()
		m.statusBar.setError(fmt.Sprintf("Error: %v", msg.err))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	// Overlays get all key events when visible.
	switch {
	case m.confirm.IsActive():
		m.confirm, cmd = m.confirm.Update(msg)
		return m, cmd
	case m.prompt.IsActive():
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	case m.composer.IsVisible():
		m.composer, cmd = m.composer.Update(msg)
		return m, cmd
	case m.autoReply.IsVisible():
		m.autoReply, cmd = m.autoReply.Update(msg)
		return m, cmd
	case m.bulk.IsVisible():
		m.bulk, cmd = m.bulk.Update(msg)
		return m, cmd
	}

	// Global keys (when no overlay).
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Tab):
		switch {
		case m.activeTab == tabInbox && m.reader.IsVisible():
			if m.activePane == paneReader {
				m.setFocus(paneContent)
			} else {
				m.setFocus(paneReader)
			}
		case m.activePane == paneSidebar:
			m.setFocus(paneContent)
		default:
			m.setFocus(paneSidebar)
		}
		return m, nil
	}

	if n, err := strconv.Atoi(msg.String()); err == nil {
		if t, ok := m.sidebar.tabAt(n); ok {
			return m, m.activateTab(t)
		}
	}

	if m.activeTab == tabInbox && m.activePane == paneContent {
		switch {
		case key.Matches(msg, keys.Search):
			m.prompt.Open(promptSearch, 0, "Search emails", "subject or sender", m.inbox.filter.Query, false)
			return m, nil

		case key.Matches(msg, keys.BulkDraft):
			ids := m.inbox.SelectedIDs()
			if len(ids) == 0 {
				m.statusBar.setError("Select emails with space first")
				return m, nil
			}
			m.prompt.Open(promptBulkInstructions, 0, fmt.Sprintf("Bulk draft for %d emails", len(ids)), "instructions (required)", "", true)
			return m, nil

		case key.Matches(msg, keys.Preview):
			ids := m.inbox.SelectedIDs()
			if len(ids) == 0 {
				m.statusBar.setError("Select emails with space first")
				return m, nil
			}
			m.bulk.Open()
			m.resizeSubModels()
			return m, m.bulkPreviewCmd(ids)
		}
	}

	// Delegate to focused sub-model.
	switch m.activePane {
	case paneSidebar:
		m.sidebar, cmd = m.sidebar.Update(msg)
	case paneReader:
		m.reader, cmd = m.reader.Update(msg)
	default:
		switch m.activeTab {
		case tabInbox:
			m.inbox, cmd = m.inbox.Update(msg)
			m.statusBar.selected = len(m.inbox.selected)
		case tabGmail:
			m.gmail, cmd = m.gmail.Update(msg)
		case tabJobs:
			m.jobs, cmd = m.jobs.Update(msg)
		case tabQuarantine:
			m.quarantine, cmd = m.quarantine.Update(msg)
		case tabAnalytics:
			m.analytics, cmd = m.analytics.Update(msg)
		case tabMailboxes:
			m.mailboxes, cmd = m.mailboxes.Update(msg)
		case tabAdmin:
			m.admin, cmd = m.admin.Update(msg)
		}
	}
	return m, cmd
}

func (m *model) handlePrompt(msg promptSubmitMsg) tea.Cmd {
	switch msg.purpose {
	case promptSearch:
		f := m.inbox.filter
		f.Query = msg.value
		f.Page = 1
		m.statusBar.setMessage("Searching...")
		return m.loadEmailsCmd(f)
	case promptTag:
		m.statusBar.setMessage("Adding tag...")
		return m.addTagCmd(msg.id, msg.value)
	case promptReleaseNotes:
		return m.quarantineCmd(actionRelease, msg.id, msg.value, m.quarantine.listFlag)
	case promptSpamNotes:
		return m.quarantineCmd(actionConfirmSpam, msg.id, msg.value, m.quarantine.listFlag)
	case promptBulkInstructions:
		m.statusBar.setMessage("Queueing bulk draft...")
		return m.bulkDraftCmd(m.inbox.SelectedIDs(), msg.value)
	}
	return nil
}

// activateTab switches the content pane and loads the tab's data.
func (m *model) activateTab(t tab) tea.Cmd {
	if !m.sidebar.Has(t) {
		return nil
	}
	m.activeTab = t
	m.sidebar.Activate(t)
	m.statusBar.tab = t
	if t != tabInbox && m.reader.IsVisible() {
		m.reader.Close()
		m.statusBar.readerVisible = false
	}
	m.setFocus(paneContent)
	m.resizeSubModels()

	switch t {
	case tabGmail:
		if !m.gmail.loaded {
			return m.loadGmailCmd("")
		}
	case tabQuarantine:
		return m.loadQuarantineCmd()
	case tabAnalytics:
		if m.analytics.summary == nil {
			return m.loadDashboardCmd(m.analytics.days)
		}
	case tabMailboxes:
		return m.loadMailboxesCmd()
	case tabAdmin:
		return m.loadUsersCmd()
	}
	return nil
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	sidebarWidth, contentWidth := m.layoutWidths()
	contentHeight := m.height - 3 // reserve space for status bar

	sidebarView := sidebarStyle.
		Width(sidebarWidth).
		Height(contentHeight).
		Render(m.sidebar.View())

	var contentView string
	switch {
	case m.confirm.IsActive():
		contentView = m.overlay(m.confirm.View(), contentWidth, contentHeight)
	case m.prompt.IsActive():
		contentView = m.overlay(m.prompt.View(), contentWidth, contentHeight)
	case m.composer.IsVisible():
		contentView = lipgloss.NewStyle().
			Width(contentWidth).
			Height(contentHeight).
			Render(m.composer.View())
	case m.autoReply.IsVisible():
		contentView = m.overlay(m.autoReply.View(), contentWidth, contentHeight)
	case m.bulk.IsVisible():
		contentView = m.overlay(m.bulk.View(), contentWidth, contentHeight)
	case m.activeTab == tabInbox && m.reader.IsVisible():
		// Split view: list (top half) + reader (bottom half).
		listHeight := contentHeight / 2
		readerHeight := contentHeight - listHeight

		listView := listStyle.
			Width(contentWidth).
			Height(listHeight).
			Render(m.inbox.View())

		readerView := readerStyle.
			Width(contentWidth).
			Height(readerHeight).
			Render(m.reader.View())

		contentView = lipgloss.JoinVertical(lipgloss.Left, listView, readerView)
	default:
		contentView = listStyle.
			Width(contentWidth).
			Height(contentHeight).
			Render(m.tabView())
	}

	main := lipgloss.JoinHorizontal(lipgloss.Top, sidebarView, contentView)
	return lipgloss.JoinVertical(lipgloss.Left, main, m.statusBar.View())
}

func (m model) tabView() string {
	switch m.activeTab {
	case tabGmail:
		return m.gmail.View()
	case tabJobs:
		return m.jobs.View()
	case tabQuarantine:
		return m.quarantine.View()
	case tabAnalytics:
		return m.analytics.View()
	case tabMailboxes:
		return m.mailboxes.View()
	case tabAdmin:
		return m.admin.View()
	default:
		return m.inbox.View()
	}
}

func (m model) overlay(dialog string, w, h int) string {
	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, dialog)
}

// --- focus management ---

func (m *model) setFocus(p pane) {
	m.activePane = p
	content := p == paneContent
	m.sidebar.focused = p == paneSidebar
	m.reader.focused = p == paneReader
	m.inbox.focused = content && m.activeTab == tabInbox
	m.gmail.focused = content && m.activeTab == tabGmail
	m.jobs.focused = content && m.activeTab == tabJobs
	m.quarantine.focused = content && m.activeTab == tabQuarantine
	m.analytics.focused = content && m.activeTab == tabAnalytics
	m.mailboxes.focused = content && m.activeTab == tabMailboxes
	m.admin.focused = content && m.activeTab == tabAdmin
}

// --- layout helpers ---

func (m model) layoutWidths() (sidebarWidth, contentWidth int) {
	sidebarWidth = max(m.width/5, 22)
	contentWidth = m.width - sidebarWidth - 2
	return
}

func (m *model) resizeSubModels() {
	sidebarWidth, contentWidth := m.layoutWidths()
	contentHeight := m.height - 3

	// sidebarStyle: border and padding take 4 columns and 4 rows.
	m.sidebar.SetSize(sidebarWidth-4, contentHeight-4)

	// listStyle: border and padding take 4 columns and 2 rows.
	if m.reader.IsVisible() {
		listHeight := contentHeight / 2
		readerHeight := contentHeight - listHeight
		m.inbox.SetSize(contentWidth-4, listHeight-2)
		// readerStyle: border and padding take 6 columns and 4 rows.
		m.reader.SetSize(contentWidth-6, readerHeight-4)
	} else {
		m.inbox.SetSize(contentWidth-4, contentHeight-2)
	}

	w, h := contentWidth-4, contentHeight-2
	m.gmail.SetSize(w, h)
	m.jobs.SetSize(w, h)
	m.quarantine.SetSize(w, h)
	m.analytics.SetSize(w, h)
	m.mailboxes.SetSize(w, h)
	m.admin.SetSize(w, h)

	m.composer.SetSize(contentWidth, contentHeight)
	m.autoReply.SetSize(contentWidth-4, contentHeight-2)
	m.bulk.SetSize(contentWidth-4, contentHeight-2)
	m.prompt.SetWidth(min(contentWidth-4, 70))
	m.confirm.width = min(contentWidth-4, 70)
}

// Run starts the dashboard and blocks until the user quits or ctx is done.
func Run(ctx context.Context, d Deps) error {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	user, err := d.Session.Require(ctx, "")
	if err != nil {
		return err
	}
	applyTheme(d.Config.UI.Theme)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newModel(ctx, d, user)
	m.startMonitor(m.jobsCh)

	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = prog.Run()
	return err
}
