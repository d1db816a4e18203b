// Package bulk runs draft preview, drafting and sending over many emails.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/lu-zhengda/smartmail/internal/api"
	"github.com/lu-zhengda/smartmail/internal/domain"
	"github.com/lu-zhengda/smartmail/internal/logging"
)

const (
	DefaultConcurrency = 4
	DefaultSendDelay   = 500 * time.Millisecond
)

// Backend is the part of the API used by bulk operations.
type Backend interface {
	ListDrafts(ctx context.Context, emailID int64) ([]domain.Draft, error)
	GetEmail(ctx context.Context, id int64) (*domain.EmailDetail, error)
	SendEmail(ctx context.Context, emailID int64, req api.SendRequest) (*domain.JobRef, error)
	BulkDraft(ctx context.Context, req api.BulkDraftRequest) (*domain.JobRef, error)
	BulkTag(ctx context.Context, ids []int64, tagName string) error
}

var _ Backend = (*api.Client)(nil)

// Service runs bulk operations.
type Service struct {
	Backend Backend
	// Concurrency bounds parallel draft loads during Preview.
	Concurrency int
	// SendDelay is the minimum gap between two sends.
	SendDelay time.Duration
	// OnQueued, if set, is called for every job a send queues.
	OnQueued func(ctx context.Context, ref *domain.JobRef, subject string)
	Logger   *slog.Logger
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// PreviewItem is the send readiness of one email.
type PreviewItem struct {
	EmailID   int64            `json:"email_id" yaml:"email_id"`
	Draft     *domain.Draft    `json:"draft,omitempty" yaml:"draft,omitempty"`
	Readiness domain.Readiness `json:"readiness" yaml:"readiness"`
	Message   string           `json:"message" yaml:"message"`
}

// Ready reports whether the item can be sent.
func (p PreviewItem) Ready() bool {
	return p.Readiness == domain.ReadinessReady
}

// Preview loads the latest draft of every email and classifies it. Results
// keep the order of ids. A failed load marks that email as having no draft.
func (s *Service) Preview(ctx context.Context, ids []int64) ([]PreviewItem, error) {
	limit := s.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	items := make([]PreviewItem, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, id := range ids {
		g.Go(func() error {
			drafts, err := s.Backend.ListDrafts(gctx, id)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger().Debug("failed to load drafts", "email_id", id, logging.Err(err))
				items[i] = PreviewItem{EmailID: id, Readiness: domain.ReadinessNoDraft, Message: "Error loading draft"}
				return nil
			}
			latest := domain.LatestDraft(drafts)
			r := domain.DraftReadiness(latest)
			items[i] = PreviewItem{EmailID: id, Draft: latest, Readiness: r, Message: r.Message()}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

// Counts tallies previews by readiness.
func Counts(items []PreviewItem) map[domain.Readiness]int {
	c := make(map[domain.Readiness]int)
	for _, it := range items {
		c[it.Readiness]++
	}
	return c
}

// GenerateDrafts queues one orchestrator job that drafts replies for every
// email in ids.
func (s *Service) GenerateDrafts(ctx context.Context, ids []int64, instructions string, tone domain.Tone) (*domain.JobRef, error) {
	if len(ids) == 0 {
		return nil, errors.New("no emails selected")
	}
	if strings.TrimSpace(instructions) == "" {
		return nil, errors.New("instructions are required for bulk drafting")
	}
	if tone == "" {
		tone = domain.ToneProfessional
	}
	if !domain.ValidTone(string(tone)) {
		return nil, fmt.Errorf("unknown tone %q", tone)
	}
	ref, err := s.Backend.BulkDraft(ctx, api.BulkDraftRequest{EmailIDs: ids, Instructions: instructions, Tone: tone})
	if err != nil {
		return nil, err
	}
	s.logger().Info("bulk draft queued", logging.KeyJobID, ref.JobID, "emails", len(ids))
	return ref, nil
}

// AcceptGroup tags every email of a suggested group with the group's topic
// and returns the ids for drafting.
func (s *Service) AcceptGroup(ctx context.Context, g domain.GroupSuggestion) (string, []int64, error) {
	if len(g.EmailIDs) == 0 {
		return "", nil, errors.New("group has no emails")
	}
	tag := domain.TopicTag(g.Topic)
	if tag == "" {
		return "", nil, errors.New("group has no topic")
	}
	if err := s.Backend.BulkTag(ctx, g.EmailIDs, tag); err != nil {
		return "", nil, err
	}
	return tag, g.EmailIDs, nil
}

func (s *Service) limiter() *rate.Limiter {
	delay := s.SendDelay
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}
