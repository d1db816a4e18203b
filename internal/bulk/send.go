package bulk

import (
	"context"
	"fmt"

	"github.com/lu-zhengda/smartmail/internal/api"
	"github.com/lu-zhengda/smartmail/internal/domain"
	"github.com/lu-zhengda/smartmail/internal/logging"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSending Status = "sending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Item is one email to send.
type Item struct {
	EmailID   int64  `json:"email_id" yaml:"email_id"`
	Recipient string `json:"recipient" yaml:"recipient"`
	Subject   string `json:"subject" yaml:"subject"`
	Body      string `json:"-" yaml:"-"`
	Status    Status `json:"status" yaml:"status"`
	JobID     int64  `json:"job_id,omitempty" yaml:"job_id,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summary counts the outcome of SendAll.
type Summary struct {
	Sent   int `json:"sent" yaml:"sent"`
	Failed int `json:"failed" yaml:"failed"`
}

// Progress is called after every status change of an item. done counts
// items that have finished.
type Progress func(done, total int, item *Item)

// SendAll sends items one at a time, at most one per SendDelay. A failure
// is recorded on the item and does not stop the rest. Cancelling ctx stops
// before the next send.
func (s *Service) SendAll(ctx context.Context, items []*Item, progress Progress) (Summary, error) {
	var sum Summary
	lim := s.limiter()
	for _, it := range items {
		if it.Status == "" {
			it.Status = StatusPending
		}
	}
	report := func(done int, it *Item) {
		if progress != nil {
			progress(done, len(items), it)
		}
	}

	for i, it := range items {
		if err := lim.Wait(ctx); err != nil {
			return sum, err
		}
		it.Status = StatusSending
		report(i, it)

		ref, err := s.Backend.SendEmail(ctx, it.EmailID, api.SendRequest{
			Recipient: it.Recipient,
			Subject:   it.Subject,
			BodyText:  it.Body,
		})
		if err != nil {
			it.Status = StatusError
			it.Error = err.Error()
			sum.Failed++
			s.logger().Warn("bulk send failed", "email_id", it.EmailID, logging.Err(err))
		} else {
			it.Status = StatusSuccess
			it.JobID = ref.JobID
			sum.Sent++
			if s.OnQueued != nil {
				s.OnQueued(ctx, ref, it.Subject)
			}
		}
		report(i+1, it)
	}
	return sum, nil
}

// SendReady sends the latest draft of every ready preview. The recipient is
// the original sender and the subject gets a single "Re:" prefix.
func (s *Service) SendReady(ctx context.Context, previews []PreviewItem, progress Progress) ([]*Item, Summary, error) {
	var items []*Item
	var sum Summary
	for _, p := range previews {
		if !p.Ready() || p.Draft == nil {
			continue
		}
		it := &Item{EmailID: p.EmailID, Body: p.Draft.Content, Status: StatusPending}
		email, err := s.Backend.GetEmail(ctx, p.EmailID)
		if err != nil {
			if ctx.Err() != nil {
				return items, sum, ctx.Err()
			}
			it.Status = StatusError
			it.Error = fmt.Sprintf("failed to load email: %v", err)
			sum.Failed++
			items = append(items, it)
			continue
		}
		it.Recipient = domain.SenderAddress(email.Sender)
		it.Subject = domain.ReplySubject(email.Subject)
		items = append(items, it)
	}

	var pending []*Item
	for _, it := range items {
		if it.Status == StatusPending {
			pending = append(pending, it)
		}
	}
	sent, err := s.SendAll(ctx, pending, progress)
	sum.Sent += sent.Sent
	sum.Failed += sent.Failed
	return items, sum, err
}
