package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lu-zhengda/smartmail/internal/api"
	"github.com/lu-zhengda/smartmail/internal/cache"
	"github.com/lu-zhengda/smartmail/internal/domain"
	"github.com/lu-zhengda/smartmail/internal/jobs"
	"github.com/lu-zhengda/smartmail/internal/logging"
	"github.com/lu-zhengda/smartmail/internal/store/sqlite"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// backend is a fake job-producing server. Jobs complete on their second
// status check.
type backend struct {
	mu        sync.Mutex
	polls     map[int64]int
	sent      []api.SendRequest
	autoReply int
	generated []domain.AutoReplyRequest
	replies   []map[string]string
	srv       *httptest.Server
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{polls: map[int64]int{}}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /mailboxes/{id}/sync", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, domain.JobRef{Message: "Sync queued", Status: "queued", JobID: 11})
	})
	mux.HandleFunc("GET /mailboxes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []domain.Mailbox{{ID: 1, EmailAddress: "support@example.com"}})
	})
	mux.HandleFunc("POST /emails/{id}/draft-job", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, domain.JobRef{Status: "queued", JobID: 12})
	})
	mux.HandleFunc("GET /emails/{id}/drafts", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []domain.Draft{
			{ID: 7, EmailID: 5, Content: "generated"},
			{ID: 9, EmailID: 5, Content: "newer"},
		})
	})
	mux.HandleFunc("POST /emails/{id}/send", func(w http.ResponseWriter, r *http.Request) {
		var req api.SendRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		b.sent = append(b.sent, req)
		b.mu.Unlock()
		writeJSON(w, domain.JobRef{Status: "queued", JobID: 13})
	})
	mux.HandleFunc("GET /jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		var id int64
		_ = json.Unmarshal([]byte(r.PathValue("id")), &id)
		b.mu.Lock()
		b.polls[id]++
		n := b.polls[id]
		b.mu.Unlock()

		job := domain.Job{ID: id, Status: domain.JobProcessing}
		if n >= 2 {
			job.Status = domain.JobCompleted
			if id == 12 {
				job.Result = map[string]any{"draft_id": 7}
			}
		}
		writeJSON(w, job)
	})
	mux.HandleFunc("POST /gmail/auto-reply/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req domain.AutoReplyRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		b.autoReply++
		b.generated = append(b.generated, req)
		b.mu.Unlock()
		writeJSON(w, domain.AutoReply{MessageID: r.PathValue("id"), ReplyText: "Thanks!", Tone: domain.ToneFriendly})
	})
	mux.HandleFunc("POST /gmail/send-reply/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.replies = append(b.replies, body)
		b.mu.Unlock()
		writeJSON(w, domain.SendReplyResult{Success: true, Message: "sent"})
	})

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) autoReplies() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.autoReply
}

func newFlows(t *testing.T, b *backend) (*Flows, *jobs.Tracker) {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	client := api.New(b.srv.URL, api.WithLogger(logging.Discard()))
	tracker := &jobs.Tracker{Store: db, Profile: "default"}
	return &Flows{
		Client:  client,
		Poller:  &jobs.Poller{Source: client, Interval: 10 * time.Millisecond, Timeout: 5 * time.Second},
		Tracker: tracker,
		Logger:  logging.Discard(),
	}, tracker
}

func TestSyncMailbox_Wait(t *testing.T) {
	b := newBackend(t)
	f, tracker := newFlows(t, b)
	ctx := context.Background()

	var statuses []domain.JobStatus
	res, err := f.SyncMailbox(ctx, 1, true, func(j *domain.Job) { statuses = append(statuses, j.Status) })
	require.NoError(t, err)
	assert.Equal(t, int64(11), res.Ref.JobID)
	require.NotNil(t, res.Job)
	assert.Equal(t, domain.JobCompleted, res.Job.Status)
	assert.Equal(t, []domain.JobStatus{domain.JobProcessing, domain.JobCompleted}, statuses)
	require.Len(t, res.Mailboxes, 1)

	recent, err := tracker.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, string(domain.JobCompleted), recent[0].Status)
	assert.NotNil(t, recent[0].FinishedAt)
}

func TestSyncMailbox_NoWait(t *testing.T) {
	b := newBackend(t)
	f, tracker := newFlows(t, b)

	res, err := f.SyncMailbox(context.Background(), 1, false, nil)
	require.NoError(t, err)
	assert.Nil(t, res.Job)

	pending, err := tracker.Pending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(11), pending[0].JobID)
}

func TestGenerateDraft_SelectsJobDraft(t *testing.T) {
	b := newBackend(t)
	f, _ := newFlows(t, b)

	res, err := f.GenerateDraft(context.Background(), 5, "be brief", domain.ToneFriendly, nil)
	require.NoError(t, err)
	require.NotNil(t, res.Draft)
	assert.Equal(t, int64(7), res.Draft.ID, "draft_id from the job result wins over the latest draft")
	assert.Len(t, res.Drafts, 2)
}

func TestSubmitDraft_RejectsUnknownTone(t *testing.T) {
	b := newBackend(t)
	f, _ := newFlows(t, b)

	_, err := f.SubmitDraft(context.Background(), 5, "", domain.Tone("sarcastic"), "")
	assert.Error(t, err)
}

func TestSelectDraft_FallsBackToLatest(t *testing.T) {
	drafts := []domain.Draft{
		{ID: 1, CreatedAt: domain.Time{Time: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}},
		{ID: 2, CreatedAt: domain.Time{Time: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)}},
	}
	got := SelectDraft(drafts, &domain.Job{Status: domain.JobCompleted})
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.ID)
}

func TestSendDraft_Defaults(t *testing.T) {
	b := newBackend(t)
	f, _ := newFlows(t, b)
	email := &domain.EmailDetail{Email: domain.Email{
		ID:      5,
		Sender:  "Alice <alice@example.com>",
		Subject: "Invoice",
	}}

	ref, err := f.SendDraft(context.Background(), email, "Paid, thanks.", "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(13), ref.JobID)
	require.Len(t, b.sent, 1)
	assert.Equal(t, "alice@example.com", b.sent[0].Recipient)
	assert.Equal(t, "Re: Invoice", b.sent[0].Subject)
	assert.Equal(t, "Paid, thanks.", b.sent[0].BodyText)

	_, err = f.SendDraft(context.Background(), email, "   ", "", "")
	assert.Error(t, err)
}

type hitCounter struct {
	hits, misses int
}

func (h *hitCounter) RecordCacheLookup(_ context.Context, hit bool) {
	if hit {
		h.hits++
	} else {
		h.misses++
	}
}

func TestAutoReplier(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	metrics := &hitCounter{}
	a := &AutoReplier{
		Client:  api.New(b.srv.URL, api.WithLogger(logging.Discard())),
		Cache:   cache.NewMemory(time.Minute),
		Metrics: metrics,
		Logger:  logging.Discard(),
	}
	msg := &domain.GmailMessage{ID: "m1", Subject: "Hi", Sender: "bob@example.com", Body: "hello"}

	first, err := a.Generate(ctx, msg, domain.ToneFriendly, "", false)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, "Thanks!", first.Text)

	second, err := a.Generate(ctx, msg, domain.ToneFriendly, "", false)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, 1, b.autoReplies())
	assert.Equal(t, 1, metrics.hits)
	assert.Equal(t, 1, metrics.misses)

	// A different tone is a different key.
	_, err = a.Generate(ctx, msg, domain.ToneUrgent, "", false)
	require.NoError(t, err)
	assert.Equal(t, 2, b.autoReplies())

	forced, err := a.Generate(ctx, msg, domain.ToneFriendly, "", true)
	require.NoError(t, err)
	assert.False(t, forced.FromCache)
	assert.Equal(t, 3, b.autoReplies())

	forced.Edit("Thanks, will do.")
	_, err = a.Send(ctx, forced, "")
	require.NoError(t, err)
	require.Len(t, b.replies, 1)
	assert.Equal(t, "Thanks, will do.", b.replies[0]["body"])
	_, hasSubject := b.replies[0]["subject"]
	assert.False(t, hasSubject)

	_, ok, err := a.Cache.Get(ctx, forced.Key)
	require.NoError(t, err)
	assert.False(t, ok, "sending clears the cached reply")
}

func TestAutoReplierSendsMessageContent(t *testing.T) {
	tests := []struct {
		name     string
		msg      domain.GmailMessage
		wantBody string
	}{
		{
			name:     "body",
			msg:      domain.GmailMessage{ID: "m1", Subject: "Hi", Sender: "bob@example.com", Body: "hello", Snippet: "hel"},
			wantBody: "hello",
		},
		{
			name:     "snippet only",
			msg:      domain.GmailMessage{ID: "m2", Subject: "Hi", Sender: "bob@example.com", Snippet: "short preview"},
			wantBody: "short preview",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBackend(t)
			a := &AutoReplier{
				Client: api.New(b.srv.URL, api.WithLogger(logging.Discard())),
				Logger: logging.Discard(),
			}
			_, err := a.Generate(context.Background(), &tt.msg, domain.ToneFriendly, "", false)
			require.NoError(t, err)

			b.mu.Lock()
			generated := b.generated
			b.mu.Unlock()
			require.Len(t, generated, 1)
			got := generated[0]
			assert.Equal(t, "Hi", got.Subject)
			assert.Equal(t, "bob@example.com", got.Sender)
			assert.Equal(t, tt.wantBody, got.Body)
			assert.Equal(t, domain.ToneFriendly, got.Tone)
		})
	}
}

func TestReplyEdit(t *testing.T) {
	r := &Reply{Text: "a", FromCache: true}
	r.Edit("a")
	assert.True(t, r.FromCache)
	r.Edit("b")
	assert.False(t, r.FromCache)
	assert.Equal(t, "b", r.Text)
}
