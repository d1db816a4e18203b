package domain

type ApprovalStatus string

const (
	ApprovalPending     ApprovalStatus = "pending"
	ApprovalApproved    ApprovalStatus = "approved"
	ApprovalRejected    ApprovalStatus = "rejected"
	ApprovalNotRequired ApprovalStatus = "not_required"
)

type Draft struct {
	ID              int64          `json:"id"`
	EmailID         int64          `json:"email_id"`
	Content         string         `json:"content"`
	IsAccepted      bool           `json:"is_accepted"`
	ApprovalStatus  ApprovalStatus `json:"approval_status,omitempty"`
	ConfidenceScore *float64       `json:"confidence_score,omitempty"`
	CreatedAt       Time           `json:"created_at"`
	UpdatedAt       Time           `json:"updated_at"`
}

// DraftUpdate is the PUT /drafts/{id} payload.
type DraftUpdate struct {
	Content    string `json:"content"`
	IsAccepted *bool  `json:"is_accepted,omitempty"`
}

// DraftApproval is a draft awaiting an admin decision.
type DraftApproval struct {
	ID              int64          `json:"id"`
	EmailID         int64          `json:"email_id"`
	Content         string         `json:"content"`
	ConfidenceScore *float64       `json:"confidence_score,omitempty"`
	ApprovalStatus  ApprovalStatus `json:"approval_status"`
	CreatedAt       Time           `json:"created_at"`
}

type Readiness string

const (
	ReadinessReady           Readiness = "ready"
	ReadinessPendingApproval Readiness = "pending_approval"
	ReadinessBlocked         Readiness = "blocked"
	ReadinessNoDraft         Readiness = "no_draft"
)

// Message returns the human-readable status line for a readiness value.
func (r Readiness) Message() string {
	switch r {
	case ReadinessReady:
		return "Ready to send"
	case ReadinessPendingApproval:
		return "Awaiting approval"
	case ReadinessBlocked:
		return "Draft rejected"
	default:
		return "No draft generated"
	}
}

// DraftReadiness classifies the latest draft of an email for sending.
func DraftReadiness(latest *Draft) Readiness {
	if latest == nil {
		return ReadinessNoDraft
	}
	switch latest.ApprovalStatus {
	case ApprovalPending:
		return ReadinessPendingApproval
	case ApprovalRejected:
		return ReadinessBlocked
	default:
		return ReadinessReady
	}
}

// LatestDraft returns the most recently created draft, or nil.
func LatestDraft(drafts []Draft) *Draft {
	var latest *Draft
	for i := range drafts {
		d := &drafts[i]
		if latest == nil || d.CreatedAt.After(latest.CreatedAt.Time) ||
			(d.CreatedAt.Equal(latest.CreatedAt.Time) && d.ID > latest.ID) {
			latest = d
		}
	}
	return latest
}

// FindDraft returns the draft with the given id, or nil.
func FindDraft(drafts []Draft, id int64) *Draft {
	for i := range drafts {
		if drafts[i].ID == id {
			return &drafts[i]
		}
	}
	return nil
}
