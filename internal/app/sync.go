package app

import (
	"context"
	"fmt"

	"github.com/lu-zhengda/smartmail/internal/domain"
	"github.com/lu-zhengda/smartmail/internal/logging"
)

// SyncResult is the outcome of a mailbox sync.
type SyncResult struct {
	Ref *domain.JobRef
	// Job and Mailboxes are only set when the sync was awaited.
	Job       *domain.Job
	Mailboxes []domain.Mailbox
}

// SyncMailbox queues a fetch of new mail. With wait it follows the job and
// returns the refreshed mailbox list once it completes.
func (f *Flows) SyncMailbox(ctx context.Context, mailboxID int64, wait bool, onUpdate func(*domain.Job)) (*SyncResult, error) {
	ref, err := f.Client.SyncMailbox(ctx, mailboxID)
	if err != nil {
		return nil, err
	}
	f.Track(ctx, ref, domain.JobSyncEmail, fmt.Sprintf("mailbox %d", mailboxID))
	f.logger().Info("mailbox sync queued",
		logging.KeyOperation, "sync",
		"mailbox_id", mailboxID,
		logging.KeyJobID, ref.JobID,
	)

	res := &SyncResult{Ref: ref}
	if !wait {
		return res, nil
	}

	res.Job, err = f.Wait(ctx, ref, onUpdate)
	if err != nil {
		return res, fmt.Errorf("mailbox %d sync: %w", mailboxID, err)
	}
	res.Mailboxes, err = f.Client.ListMailboxes(ctx)
	if err != nil {
		return res, err
	}
	return res, nil
}
