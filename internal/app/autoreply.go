package app

import (
	"context"
	"log/slog"

	"github.com/lu-zhengda/smartmail/internal/api"
	"github.com/lu-zhengda/smartmail/internal/cache"
	"github.com/lu-zhengda/smartmail/internal/domain"
	"github.com/lu-zhengda/smartmail/internal/logging"
)

// CacheRecorder counts reply cache lookups.
type CacheRecorder interface {
	RecordCacheLookup(ctx context.Context, hit bool)
}

// Reply is a generated Gmail reply.
type Reply struct {
	MessageID    string
	Key          string
	Text         string
	Tone         domain.Tone
	Instructions string
	FromCache    bool
}

// Edit replaces the reply text. An edited reply no longer counts as cached.
func (r *Reply) Edit(text string) {
	if text != r.Text {
		r.Text = text
		r.FromCache = false
	}
}

// AutoReplier generates Gmail replies through the backend and caches them
// by message, tone and instructions.
type AutoReplier struct {
	Client  *api.Client
	Cache   cache.Store
	Metrics CacheRecorder
	Logger  *slog.Logger
}

// Generate returns a reply for msg. A cached reply is reused unless force
// is set. The message's subject, sender and body (or its snippet when the
// body is empty) are passed along so the backend does not refetch it from
// Gmail.
func (a *AutoReplier) Generate(ctx context.Context, msg *domain.GmailMessage, tone domain.Tone, instructions string, force bool) (*Reply, error) {
	if tone == "" {
		tone = domain.ToneProfessional
	}
	key := cache.Key(msg.ID, tone, instructions)
	reply := &Reply{MessageID: msg.ID, Key: key, Tone: tone, Instructions: instructions}

	if !force && a.Cache != nil {
		e, ok, err := a.Cache.Get(ctx, key)
		if err != nil {
			a.logger().Warn("reply cache lookup failed", logging.Err(err))
		}
		a.record(ctx, ok)
		if ok {
			reply.Text = e.Text
			reply.FromCache = true
			return reply, nil
		}
	}

	body := msg.Body
	if body == "" {
		body = msg.Snippet
	}
	req := domain.AutoReplyRequest{
		Tone:         tone,
		Instructions: instructions,
		Subject:      msg.Subject,
		Sender:       msg.Sender,
		Body:         body,
	}
	out, err := a.Client.AutoReply(ctx, msg.ID, req)
	if err != nil {
		return nil, err
	}
	reply.Text = out.ReplyText

	if a.Cache != nil {
		if err := a.Cache.Put(ctx, key, cache.Entry{Text: out.ReplyText, Tone: tone}); err != nil {
			a.logger().Warn("failed to cache reply", logging.Err(err))
		}
	}
	return reply, nil
}

// Send sends the reply and drops its cache entry.
func (a *AutoReplier) Send(ctx context.Context, r *Reply, subject string) (*domain.SendReplyResult, error) {
	res, err := a.Client.SendReply(ctx, r.MessageID, r.Text, subject)
	if err != nil {
		return nil, err
	}
	if a.Cache != nil {
		if err := a.Cache.Delete(ctx, r.Key); err != nil {
			a.logger().Warn("failed to clear cached reply", logging.Err(err))
		}
	}
	return res, nil
}

func (a *AutoReplier) record(ctx context.Context, hit bool) {
	if a.Metrics != nil {
		a.Metrics.RecordCacheLookup(ctx, hit)
	}
}

func (a *AutoReplier) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}
