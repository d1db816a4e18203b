package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lu-zhengda/smartmail/internal/api"
	"github.com/lu-zhengda/smartmail/internal/domain"
)

// DraftResult is the outcome of a finished draft generation.
type DraftResult struct {
	Ref    *domain.JobRef
	Job    *domain.Job
	Drafts []domain.Draft
	// Draft is the one the job produced, or the latest when the job did not
	// report a draft id.
	Draft *domain.Draft
}

// SelectDraft picks the draft a generation job produced, falling back to the
// latest draft.
func SelectDraft(drafts []domain.Draft, job *domain.Job) *domain.Draft {
	if id, ok := job.ResultID("draft_id"); ok {
		if d := domain.FindDraft(drafts, id); d != nil {
			return d
		}
	}
	return domain.LatestDraft(drafts)
}

// GenerateDraft queues AI drafting for an email and waits for the result.
func (f *Flows) GenerateDraft(ctx context.Context, emailID int64, instructions string, tone domain.Tone, onUpdate func(*domain.Job)) (*DraftResult, error) {
	ref, err := f.SubmitDraft(ctx, emailID, instructions, tone, "")
	if err != nil {
		return nil, err
	}
	res := &DraftResult{Ref: ref}
	res.Job, err = f.Wait(ctx, ref, onUpdate)
	if err != nil {
		return res, err
	}
	if err := f.LoadDrafts(ctx, emailID, res); err != nil {
		return res, err
	}
	return res, nil
}

// SubmitDraft queues draft generation without waiting.
func (f *Flows) SubmitDraft(ctx context.Context, emailID int64, instructions string, tone domain.Tone, subject string) (*domain.JobRef, error) {
	if tone == "" {
		tone = domain.ToneProfessional
	}
	if !domain.ValidTone(string(tone)) {
		return nil, fmt.Errorf("unknown tone %q", tone)
	}
	ref, err := f.Client.GenerateDraft(ctx, emailID, api.DraftJobRequest{Instructions: instructions, Tone: tone})
	if err != nil {
		return nil, err
	}
	if subject == "" {
		subject = fmt.Sprintf("email %d", emailID)
	}
	f.Track(ctx, ref, domain.JobGenerateDraft, subject)
	return ref, nil
}

// LoadDrafts refetches the drafts of an email after res.Job completed and
// selects the generated one.
func (f *Flows) LoadDrafts(ctx context.Context, emailID int64, res *DraftResult) error {
	drafts, err := f.Client.ListDrafts(ctx, emailID)
	if err != nil {
		return err
	}
	res.Drafts = drafts
	res.Draft = SelectDraft(drafts, res.Job)
	return nil
}

// SendDraft queues content as the reply to an email. Recipient and subject
// default to the sender and a "Re:" subject.
func (f *Flows) SendDraft(ctx context.Context, email *domain.EmailDetail, content, recipient, subject string) (*domain.JobRef, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("reply body is empty")
	}
	if recipient == "" {
		recipient = domain.SenderAddress(email.Sender)
	}
	if subject == "" {
		subject = domain.ReplySubject(email.Subject)
	}
	ref, err := f.Client.SendEmail(ctx, email.ID, api.SendRequest{
		Recipient: recipient,
		Subject:   subject,
		BodyText:  content,
	})
	if err != nil {
		return nil, err
	}
	f.Track(ctx, ref, domain.JobSendEmail, subject)
	return ref, nil
}
