package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lu-zhengda/smartmail/internal/app"
	"github.com/lu-zhengda/smartmail/internal/bulk"
	"github.com/lu-zhengda/smartmail/internal/domain"
)

func TestSidebarTabs(t *testing.T) {
	tests := []struct {
		name      string
		role      string
		wantAdmin bool
	}{
		{"user", domain.RoleUser, false},
		{"admin", domain.RoleAdmin, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSidebar(&domain.User{ID: 1, Role: tt.role}, "default")
			if got := s.Has(tabAdmin); got != tt.wantAdmin {
				t.Errorf("Has(tabAdmin) = %v, want %v", got, tt.wantAdmin)
			}
			got, ok := s.tabAt(7)
			if ok != tt.wantAdmin {
				t.Fatalf("tabAt(7) ok = %v, want %v", ok, tt.wantAdmin)
			}
			if ok && got != tabAdmin {
				t.Errorf("tabAt(7) = %v, want Admin", got)
			}
		})
	}

	s := newSidebar(&domain.User{}, "")
	if got, ok := s.tabAt(1); !ok || got != tabInbox {
		t.Errorf("tabAt(1) = %v, %v, want Inbox", got, ok)
	}
	if _, ok := s.tabAt(0); ok {
		t.Error("tabAt(0) should not resolve")
	}
}

func TestSidebarSelect(t *testing.T) {
	s := newSidebar(&domain.User{}, "")
	s.focused = true
	s, _ = s.Update(press("k"))
	_, cmd := s.Update(press("enter"))
	if cmd == nil {
		t.Fatal("enter returned nil cmd")
	}
	if msg := cmd().(tabSelectedMsg); msg.tab != tabMailboxes {
		t.Errorf("selected %v, want Mailboxes (wrap to last tab)", msg.tab)
	}
}

func TestStatusBarShortcuts(t *testing.T) {
	tests := []struct {
		name string
		bar  statusBar
		want string
	}{
		{"inbox", statusBar{tab: tabInbox}, "enter:open"},
		{"selection", statusBar{tab: tabInbox, selected: 2}, "B:bulk draft"},
		{"reader", statusBar{tab: tabInbox, readerVisible: true}, "g:draft"},
		{"quarantine", statusBar{tab: tabQuarantine}, "r:release"},
		{"admin", statusBar{tab: tabAdmin}, "r:role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.bar.shortcuts(); !strings.Contains(got, tt.want) {
				t.Errorf("shortcuts() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestGmailTokenStack(t *testing.T) {
	g := gmailModel{focused: true}
	g.SetInbox("", &domain.GmailInbox{Messages: []domain.GmailMessage{{ID: "m1"}}, NextPageToken: "t2"})
	g.SetInbox("t2", &domain.GmailInbox{Messages: []domain.GmailMessage{{ID: "m2"}}, NextPageToken: "t3"})
	if len(g.prev) != 1 || g.prev[0] != "" {
		t.Fatalf("prev = %q, want [\"\"]", g.prev)
	}

	_, cmd := g.Update(press("n"))
	if got := cmd().(gmailPageMsg).token; got != "t3" {
		t.Errorf("next token = %q, want t3", got)
	}
	_, cmd = g.Update(press("p"))
	if got := cmd().(gmailPageMsg).token; got != "" {
		t.Errorf("prev token = %q, want empty", got)
	}

	g.SetInbox("", &domain.GmailInbox{NextPageToken: "t2"})
	if len(g.prev) != 0 {
		t.Errorf("prev after going back = %q, want empty", g.prev)
	}
	if _, cmd := g.Update(press("p")); cmd != nil {
		t.Error("prev on the first page should be a no-op")
	}

	g.SetInbox("", &domain.GmailInbox{NextPageToken: "t2"})
	if len(g.prev) != 0 {
		t.Errorf("prev after refresh = %q, want empty", g.prev)
	}
}

func TestGmailEnterOpensAutoReply(t *testing.T) {
	g := gmailModel{focused: true}
	g.SetInbox("", &domain.GmailInbox{Messages: []domain.GmailMessage{{ID: "m1"}, {ID: "m2"}}})
	g, _ = g.Update(press("j"))
	_, cmd := g.Update(press("enter"))
	if got := cmd().(openAutoReplyMsg).message.ID; got != "m2" {
		t.Errorf("opened %q, want m2", got)
	}
}

func TestQuarantineActions(t *testing.T) {
	q := quarantineModel{focused: true}
	q.SetEntries([]domain.QuarantineEntry{{ID: 10}, {ID: 11}, {ID: 12}})
	q, _ = q.Update(press("j"))

	tests := []struct {
		key  string
		want quarantineAction
	}{
		{"r", actionRelease},
		{"x", actionConfirmSpam},
		{"D", actionDelete},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			_, cmd := q.Update(press(tt.key))
			if cmd == nil {
				t.Fatal("nil cmd")
			}
			req := cmd().(quarantineRequestMsg)
			if req.action != tt.want || req.entryID != 11 {
				t.Errorf("request = %+v, want %v on 11", req, tt.want)
			}
		})
	}

	q, _ = q.Update(press("a"))
	if !q.listFlag {
		t.Error("a should turn the list flag on")
	}

	q.cursor = 2
	q.Remove(12)
	if q.Len() != 2 || q.cursor != 1 {
		t.Errorf("after Remove: len %d cursor %d, want 2 and 1", q.Len(), q.cursor)
	}
	q.Remove(99)
	if q.Len() != 2 {
		t.Errorf("Remove of unknown id changed len to %d", q.Len())
	}
}

func TestQuarantineEmptyRequest(t *testing.T) {
	q := quarantineModel{focused: true}
	q.SetEntries(nil)
	if _, cmd := q.Update(press("r")); cmd != nil {
		t.Error("release on an empty queue should be a no-op")
	}
}

func TestAnalyticsPeriods(t *testing.T) {
	tests := []struct {
		name string
		days int
		key  string
		want int
	}{
		{"longer", 7, "]", 30},
		{"longest", 30, "]", 90},
		{"wrap forward", 90, "]", 7},
		{"wrap back", 7, "[", 90},
		{"shorter", 90, "[", 30},
		{"refresh", 30, "R", 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAnalytics()
			a.focused = true
			a.days = tt.days
			_, cmd := a.Update(press(tt.key))
			if cmd == nil {
				t.Fatal("nil cmd")
			}
			if got := cmd().(analyticsPeriodMsg).days; got != tt.want {
				t.Errorf("days = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMailboxSync(t *testing.T) {
	mb := newMailboxes()
	mb.focused = true
	mb.SetMailboxes([]domain.Mailbox{{ID: 4, EmailAddress: "a@example.com"}})

	_, cmd := mb.Update(press("s"))
	if cmd == nil {
		t.Fatal("s returned nil cmd")
	}
	if _, ok := cmd().(syncMailboxMsg); !ok {
		t.Errorf("cmd() = %T, want syncMailboxMsg", cmd())
	}

	mb.SetSyncing(4, true)
	if _, cmd := mb.Update(press("s")); cmd != nil {
		t.Error("sync while syncing should be a no-op")
	}
	mb.SetSyncing(4, false)
	if _, cmd := mb.Update(press("s")); cmd == nil {
		t.Error("sync should be allowed again after it finished")
	}

	mb.Remove(4)
	if len(mb.mailboxes) != 0 || mb.cursor != 0 {
		t.Errorf("after Remove: %d mailboxes cursor %d", len(mb.mailboxes), mb.cursor)
	}
}

func TestAdminRefusesSelfEdit(t *testing.T) {
	a := adminModel{self: 1, focused: true}
	a.SetUsers([]domain.User{
		{ID: 1, Role: domain.RoleAdmin, IsActive: true},
		{ID: 2, Role: domain.RoleUser, IsActive: true},
	})

	_, cmd := a.Update(press("r"))
	if _, ok := cmd().(errMsg); !ok {
		t.Errorf("self role change: cmd() = %T, want errMsg", cmd())
	}

	a, _ = a.Update(press("j"))
	_, cmd = a.Update(press("r"))
	upd := cmd().(updateUserMsg)
	if upd.userID != 2 || upd.update.Role == nil || *upd.update.Role != domain.RoleAdmin {
		t.Errorf("role update = %+v, want user 2 promoted", upd)
	}

	_, cmd = a.Update(press("a"))
	upd = cmd().(updateUserMsg)
	if upd.update.IsActive == nil || *upd.update.IsActive {
		t.Errorf("active update = %+v, want deactivate", upd)
	}

	a.Replace(&domain.User{ID: 2, Role: domain.RoleAdmin})
	if a.users[1].Role != domain.RoleAdmin {
		t.Errorf("Replace did not update user 2")
	}
}

func TestJobsKeepListOnError(t *testing.T) {
	var j jobsModel
	j.SetJobs([]domain.Job{
		{ID: 1, Status: domain.JobPending},
		{ID: 2, Status: domain.JobCompleted},
		{ID: 3, Status: domain.JobFailed},
	}, nil)
	if got := j.Active(); got != 1 {
		t.Errorf("Active() = %d, want 1", got)
	}

	j.SetJobs(nil, errors.New("offline"))
	if len(j.jobs) != 3 || j.err == nil {
		t.Errorf("error refresh should keep %d jobs and record the error", len(j.jobs))
	}
}

func draftAt(id int64, status domain.ApprovalStatus, content string, at time.Time) domain.Draft {
	return domain.Draft{ID: id, ApprovalStatus: status, Content: content, CreatedAt: domain.Time{Time: at}}
}

func testComposer(t *testing.T) composerModel {
	t.Helper()
	c := newComposer()
	c.SetSize(80, 30)
	c.Open(&domain.EmailDetail{Email: domain.Email{ID: 9, Subject: "Hello", Sender: `"Alice" <alice@example.com>`}})
	return c
}

func TestComposerOpenPrefills(t *testing.T) {
	c := testComposer(t)
	if got := c.toInput.Value(); got != "alice@example.com" {
		t.Errorf("to = %q, want alice@example.com", got)
	}
	if got := c.subjectInput.Value(); got != "Re: Hello" {
		t.Errorf("subject = %q, want Re: Hello", got)
	}
	if got := c.Readiness(); got != domain.ReadinessNoDraft {
		t.Errorf("Readiness() = %v, want no draft", got)
	}
	if c.EmailID() != 9 {
		t.Errorf("EmailID() = %d, want 9", c.EmailID())
	}
}

func TestComposerVersions(t *testing.T) {
	c := testComposer(t)
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	c.SetDrafts([]domain.Draft{
		draftAt(1, domain.ApprovalPending, "first", base),
		draftAt(2, domain.ApprovalApproved, "second", base.Add(time.Hour)),
	}, nil)

	if d := c.Current(); d == nil || d.ID != 2 {
		t.Fatalf("Current() = %v, want draft 2", d)
	}
	if got := c.bodyInput.Value(); got != "second" {
		t.Errorf("body = %q, want second", got)
	}

	c, _ = c.Update(press("ctrl+n"))
	if c.Current().ID != 2 {
		t.Errorf("ctrl+n past the end moved to %d", c.Current().ID)
	}

	c, _ = c.Update(press("ctrl+p"))
	if c.Current().ID != 1 || c.Readiness() != domain.ReadinessPendingApproval {
		t.Errorf("ctrl+p: draft %d readiness %v", c.Current().ID, c.Readiness())
	}

	_, cmd := c.Update(press("ctrl+r"))
	if _, ok := cmd().(errMsg); !ok {
		t.Errorf("send of a pending draft: cmd() = %T, want errMsg", cmd())
	}

	c, _ = c.Update(press("ctrl+n"))
	_, cmd = c.Update(press("ctrl+r"))
	send, ok := cmd().(sendDraftMsg)
	if !ok {
		t.Fatalf("send of a ready draft: cmd() = %T, want sendDraftMsg", cmd())
	}
	if send.content != "second" || send.recipient != "alice@example.com" || send.subject != "Re: Hello" {
		t.Errorf("send = %+v", send)
	}
}

func TestComposerSelectedVersion(t *testing.T) {
	c := testComposer(t)
	drafts := []domain.Draft{
		draftAt(1, domain.ApprovalApproved, "one", time.Now()),
		draftAt(2, domain.ApprovalApproved, "two", time.Now().Add(time.Minute)),
	}
	c.SetDrafts(drafts, &drafts[0])
	if c.Current().ID != 1 {
		t.Errorf("Current() = %d, want the selected draft 1", c.Current().ID)
	}

	_, cmd := c.Update(press("ctrl+s"))
	save := cmd().(saveDraftMsg)
	if save.draftID != 1 || save.content != "one" {
		t.Errorf("save = %+v, want draft 1 content one", save)
	}
}

func TestComposerBusyBlocksSend(t *testing.T) {
	c := testComposer(t)
	c.SetDrafts([]domain.Draft{draftAt(1, domain.ApprovalNotRequired, "x", time.Now())}, nil)
	c.SetBusy("Sending...")
	if _, cmd := c.Update(press("ctrl+r")); cmd != nil {
		t.Error("send while busy should be a no-op")
	}
	c.Close()
	if c.IsVisible() || c.EmailID() != 0 {
		t.Error("Close() should hide the editor")
	}
}

func TestComposerSaveWithoutDraft(t *testing.T) {
	c := testComposer(t)
	_, cmd := c.Update(press("ctrl+s"))
	if _, ok := cmd().(errMsg); !ok {
		t.Errorf("cmd() = %T, want errMsg", cmd())
	}
}

func TestBulkPanel(t *testing.T) {
	b := newBulk()
	b.Open()
	if _, cmd := b.Update(press("y")); cmd != nil {
		t.Error("send while loading should be a no-op")
	}

	b.SetPreview([]bulk.PreviewItem{
		{EmailID: 1, Readiness: domain.ReadinessReady},
		{EmailID: 2, Readiness: domain.ReadinessNoDraft},
		{EmailID: 3, Readiness: domain.ReadinessReady},
	})
	if got := b.ready(); got != 2 {
		t.Errorf("ready() = %d, want 2", got)
	}

	b, cmd := b.Update(press("y"))
	if cmd == nil {
		t.Fatal("y returned nil cmd")
	}
	if got := cmd().(bulkSendMsg); len(got.previews) != 3 {
		t.Errorf("bulkSendMsg carries %d previews, want 3", len(got.previews))
	}
	if !b.Sending() {
		t.Error("Sending() = false after y")
	}
	if _, cmd := b.Update(press("esc")); cmd != nil {
		t.Error("esc while sending should be ignored")
	}

	b.Progress(1, 2, bulk.Item{EmailID: 1, Status: bulk.StatusSuccess})
	b.Finish(bulk.Summary{Sent: 2})
	if b.Sending() || b.summary == nil {
		t.Error("Finish() should stop sending and keep the summary")
	}
	if _, cmd := b.Update(press("y")); cmd != nil {
		t.Error("send after finishing should be a no-op")
	}
	if _, cmd := b.Update(press("esc")); cmd == nil {
		t.Error("esc after finishing should close")
	}
}

func TestBulkNothingReady(t *testing.T) {
	b := newBulk()
	b.Open()
	b.SetPreview([]bulk.PreviewItem{{EmailID: 1, Readiness: domain.ReadinessBlocked}})
	if _, cmd := b.Update(press("y")); cmd != nil {
		t.Error("send with nothing ready should be a no-op")
	}
}

func TestAutoReplyIgnoresStaleReply(t *testing.T) {
	a := newAutoReply()
	a.SetSize(80, 30)
	cmd := a.Open(domain.GmailMessage{ID: "m1", Subject: "Hi"})
	if cmd == nil {
		t.Fatal("Open returned nil cmd")
	}
	gen := cmd().(generateReplyMsg)
	if gen.message == nil || gen.message.ID != "m1" || gen.force {
		t.Errorf("generate = %+v, want m1 without force", gen)
	}

	a.SetReply(&app.Reply{MessageID: "other", Text: "stale"})
	if a.reply != nil {
		t.Error("reply for another message should be ignored")
	}
	a.SetReply(&app.Reply{MessageID: "m1", Text: "Thanks!", Tone: domain.ToneFriendly})
	if a.reply == nil || a.body.Value() != "Thanks!" || a.tone != domain.ToneFriendly {
		t.Errorf("SetReply did not apply: body %q tone %v", a.body.Value(), a.tone)
	}
}

func TestBodyText(t *testing.T) {
	tests := []struct {
		name  string
		email domain.EmailDetail
		want  string
	}{
		{"plain", domain.EmailDetail{BodyText: "hello", BodyHTML: "<p>ignored</p>"}, "hello"},
		{"html", domain.EmailDetail{BodyHTML: "<p>Hello <b>there</b></p>"}, "Hello there"},
		{"empty", domain.EmailDetail{BodyText: "  "}, "(no content)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bodyText(&tt.email); !strings.Contains(got, tt.want) {
				t.Errorf("bodyText() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}
