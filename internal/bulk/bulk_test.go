package bulk

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lu-zhengda/smartmail/internal/api"
	"github.com/lu-zhengda/smartmail/internal/domain"
	"github.com/lu-zhengda/smartmail/internal/logging"
)

type fakeBackend struct {
	drafts   map[int64][]domain.Draft
	emails   map[int64]*domain.EmailDetail
	failSend map[int64]bool

	inFlight, maxInFlight atomic.Int32

	mu      sync.Mutex
	sent    []api.SendRequest
	sentAt  []time.Time
	bulkReq *api.BulkDraftRequest
	tagged  []int64
	tagName string
}

func (f *fakeBackend) ListDrafts(_ context.Context, id int64) ([]domain.Draft, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	d, ok := f.drafts[id]
	if !ok {
		return nil, errors.New("boom")
	}
	return d, nil
}

func (f *fakeBackend) GetEmail(_ context.Context, id int64) (*domain.EmailDetail, error) {
	e, ok := f.emails[id]
	if !ok {
		return nil, &api.Error{StatusCode: 404, Detail: "Email not found"}
	}
	return e, nil
}

func (f *fakeBackend) SendEmail(_ context.Context, id int64, req api.SendRequest) (*domain.JobRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sentAt = append(f.sentAt, time.Now())
	if f.failSend[id] {
		return nil, errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, req)
	return &domain.JobRef{JobID: 100 + id}, nil
}

func (f *fakeBackend) BulkDraft(_ context.Context, req api.BulkDraftRequest) (*domain.JobRef, error) {
	f.bulkReq = &req
	return &domain.JobRef{JobID: 9, Message: "queued"}, nil
}

func (f *fakeBackend) BulkTag(_ context.Context, ids []int64, tag string) error {
	f.tagged, f.tagName = ids, tag
	return nil
}

func draft(id int64, status domain.ApprovalStatus, content string, at time.Time) domain.Draft {
	return domain.Draft{ID: id, ApprovalStatus: status, Content: content, CreatedAt: domain.Time{Time: at}}
}

func TestPreview(t *testing.T) {
	now := time.Now()
	fb := &fakeBackend{drafts: map[int64][]domain.Draft{
		1: {draft(10, domain.ApprovalRejected, "old", now.Add(-time.Hour)), draft(11, domain.ApprovalApproved, "new", now)},
		2: {draft(20, domain.ApprovalPending, "x", now)},
		3: {},
		4: {draft(40, domain.ApprovalRejected, "no", now)},
		6: {draft(60, domain.ApprovalNotRequired, "fine", now)},
	}}
	s := &Service{Backend: fb, Concurrency: 2, Logger: logging.Discard()}

	items, err := s.Preview(context.Background(), []int64{6, 1, 2, 3, 4, 5})
	require.NoError(t, err)
	require.Len(t, items, 6)

	want := []struct {
		id  int64
		r   domain.Readiness
		msg string
	}{
		{6, domain.ReadinessReady, "Ready to send"},
		{1, domain.ReadinessReady, "Ready to send"},
		{2, domain.ReadinessPendingApproval, "Awaiting approval"},
		{3, domain.ReadinessNoDraft, "No draft generated"},
		{4, domain.ReadinessBlocked, "Draft rejected"},
		{5, domain.ReadinessNoDraft, "Error loading draft"},
	}
	for i, w := range want {
		assert.Equal(t, w.id, items[i].EmailID, "order kept")
		assert.Equal(t, w.r, items[i].Readiness, "email %d", w.id)
		assert.Equal(t, w.msg, items[i].Message, "email %d", w.id)
	}
	assert.Equal(t, int64(11), items[1].Draft.ID, "latest draft wins")
	assert.LessOrEqual(t, fb.maxInFlight.Load(), int32(2))

	c := Counts(items)
	assert.Equal(t, 2, c[domain.ReadinessReady])
	assert.Equal(t, 2, c[domain.ReadinessNoDraft])
}

func TestSendAll_ContinuesAfterFailure(t *testing.T) {
	fb := &fakeBackend{failSend: map[int64]bool{2: true}}
	var queued []int64
	s := &Service{
		Backend:   fb,
		SendDelay: 20 * time.Millisecond,
		Logger:    logging.Discard(),
		OnQueued:  func(_ context.Context, ref *domain.JobRef, _ string) { queued = append(queued, ref.JobID) },
	}
	items := []*Item{{EmailID: 1}, {EmailID: 2}, {EmailID: 3}}

	var trace []Status
	var lastDone int
	sum, err := s.SendAll(context.Background(), items, func(done, total int, it *Item) {
		assert.Equal(t, 3, total)
		trace = append(trace, it.Status)
		lastDone = done
	})
	require.NoError(t, err)

	assert.Equal(t, Summary{Sent: 2, Failed: 1}, sum)
	assert.Equal(t, StatusSuccess, items[0].Status)
	assert.Equal(t, StatusError, items[1].Status)
	assert.Equal(t, "smtp unavailable", items[1].Error)
	assert.Equal(t, StatusSuccess, items[2].Status)
	assert.Equal(t, int64(103), items[2].JobID)
	assert.Equal(t, []int64{101, 103}, queued)
	assert.Equal(t, 3, lastDone)
	assert.Equal(t, []Status{
		StatusSending, StatusSuccess,
		StatusSending, StatusError,
		StatusSending, StatusSuccess,
	}, trace)

	require.Len(t, fb.sentAt, 3)
	for i := 1; i < len(fb.sentAt); i++ {
		gap := fb.sentAt[i].Sub(fb.sentAt[i-1])
		assert.GreaterOrEqual(t, gap, 15*time.Millisecond, "sends %d and %d too close", i-1, i)
	}
}

func TestSendAll_Cancelled(t *testing.T) {
	fb := &fakeBackend{}
	s := &Service{Backend: fb, SendDelay: time.Hour, Logger: logging.Discard()}
	ctx, cancel := context.WithCancel(context.Background())
	items := []*Item{{EmailID: 1}, {EmailID: 2}}

	sum, err := s.SendAll(ctx, items, func(done, _ int, _ *Item) {
		if done == 1 {
			cancel()
		}
	})
	assert.Error(t, err)
	assert.Equal(t, 1, sum.Sent)
	assert.Equal(t, StatusPending, items[1].Status)
}

func TestSendReady(t *testing.T) {
	now := time.Now()
	fb := &fakeBackend{emails: map[int64]*domain.EmailDetail{
		1: {Email: domain.Email{ID: 1, Sender: `"Jane Doe" <jane@example.com>`, Subject: "Invoice"}},
		2: {Email: domain.Email{ID: 2, Sender: "bob@example.com", Subject: "RE: Meeting"}},
	}}
	s := &Service{Backend: fb, Logger: logging.Discard()}
	d1 := draft(11, domain.ApprovalApproved, "Paid, thanks.", now)
	d2 := draft(21, domain.ApprovalNotRequired, "See you then.", now)
	d3 := draft(31, domain.ApprovalPending, "hold", now)
	d4 := draft(41, domain.ApprovalApproved, "gone", now)
	previews := []PreviewItem{
		{EmailID: 1, Draft: &d1, Readiness: domain.ReadinessReady},
		{EmailID: 2, Draft: &d2, Readiness: domain.ReadinessReady},
		{EmailID: 3, Draft: &d3, Readiness: domain.ReadinessPendingApproval},
		{EmailID: 4, Draft: &d4, Readiness: domain.ReadinessReady},
	}

	items, sum, err := s.SendReady(context.Background(), previews, nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{Sent: 2, Failed: 1}, sum)
	require.Len(t, items, 3)
	assert.Equal(t, StatusError, items[2].Status)

	require.Len(t, fb.sent, 2)
	assert.Equal(t, api.SendRequest{Recipient: "jane@example.com", Subject: "Re: Invoice", BodyText: "Paid, thanks."}, fb.sent[0])
	assert.Equal(t, "RE: Meeting", fb.sent[1].Subject)
	assert.Equal(t, "bob@example.com", fb.sent[1].Recipient)
}

func TestGenerateDrafts(t *testing.T) {
	fb := &fakeBackend{}
	s := &Service{Backend: fb, Logger: logging.Discard()}
	ctx := context.Background()

	_, err := s.GenerateDrafts(ctx, nil, "be brief", "")
	assert.Error(t, err)
	_, err = s.GenerateDrafts(ctx, []int64{1}, "   ", "")
	assert.Error(t, err)
	_, err = s.GenerateDrafts(ctx, []int64{1}, "be brief", "sarcastic")
	assert.Error(t, err)
	assert.Nil(t, fb.bulkReq)

	ref, err := s.GenerateDrafts(ctx, []int64{1, 2}, "be brief", "")
	require.NoError(t, err)
	assert.Equal(t, int64(9), ref.JobID)
	assert.Equal(t, domain.ToneProfessional, fb.bulkReq.Tone)
	assert.Equal(t, []int64{1, 2}, fb.bulkReq.EmailIDs)
}

func TestAcceptGroup(t *testing.T) {
	fb := &fakeBackend{}
	s := &Service{Backend: fb, Logger: logging.Discard()}

	tag, ids, err := s.AcceptGroup(context.Background(), domain.GroupSuggestion{
		Topic:    "Invoice  Payment\tReminders",
		EmailIDs: []int64{4, 5},
	})
	require.NoError(t, err)
	assert.Equal(t, "invoice-payment-reminders", tag)
	assert.Equal(t, []int64{4, 5}, ids)
	assert.Equal(t, tag, fb.tagName)

	_, _, err = s.AcceptGroup(context.Background(), domain.GroupSuggestion{Topic: "x"})
	assert.Error(t, err)
}
