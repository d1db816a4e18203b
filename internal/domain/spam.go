package domain

import (
	"regexp"
	"strings"
)

const (
	QuarantineStatusQuarantined   = "quarantined"
	QuarantineStatusReleased      = "released"
	QuarantineStatusConfirmedSpam = "confirmed_spam"
	QuarantineStatusDeleted       = "deleted"
)

type QuarantineEntry struct {
	ID            int64  `json:"id"`
	EmailID       int64  `json:"email_id"`
	MailboxID     int64  `json:"mailbox_id"`
	SpamScore     int    `json:"spam_score"`
	SpamLabel     string `json:"spam_label"`
	Reasons       string `json:"reasons,omitempty"`
	Status        string `json:"status"`
	QuarantinedAt Time   `json:"quarantined_at"`
	ResolvedAt    Time   `json:"resolved_at"`
}

type QuarantineStats struct {
	Total         int            `json:"total"`
	Pending       int            `json:"pending"`
	Released      int            `json:"released"`
	ConfirmedSpam int            `json:"confirmed_spam"`
	Deleted       int            `json:"deleted"`
	AvgScore      float64        `json:"avg_score"`
	ByLabel       map[string]int `json:"by_label"`
}

// QuarantineAction is the body of release and confirm-spam requests. The
// list flag maps to add_to_allowlist or add_to_blocklist.
type QuarantineAction struct {
	Notes          string `json:"notes"`
	AddToAllowlist *bool  `json:"add_to_allowlist,omitempty"`
	AddToBlocklist *bool  `json:"add_to_blocklist,omitempty"`
}

type QuarantineResult struct {
	Message          string `json:"message"`
	EntryID          int64  `json:"entry_id"`
	EmailID          int64  `json:"email_id,omitempty"`
	AddedToAllowlist bool   `json:"added_to_allowlist,omitempty"`
	AddedToBlocklist bool   `json:"added_to_blocklist,omitempty"`
}

type SpamAnalysis struct {
	EmailID      int64    `json:"email_id"`
	Score        int      `json:"score"`
	Label        string   `json:"label"`
	Reasons      []string `json:"reasons"`
	IsSpam       bool     `json:"is_spam"`
	IsSuspicious bool     `json:"is_suspicious"`
}

type ScoredEmail struct {
	ID    int64 `json:"id"`
	Score int   `json:"score"`
}

type SpamScanResult struct {
	Scanned         int           `json:"scanned"`
	SpamCount       int           `json:"spam_count"`
	SuspiciousCount int           `json:"suspicious_count"`
	CleanCount      int           `json:"clean_count"`
	Spam            []ScoredEmail `json:"spam"`
	Suspicious      []ScoredEmail `json:"suspicious"`
	AutoQuarantine  bool          `json:"auto_quarantine"`
}

var SpamRuleTypes = []string{
	"allow_sender", "block_sender",
	"allow_domain", "block_domain",
	"spam_keyword", "safe_keyword",
}

// ValidSpamRuleType reports whether s is a rule type the backend accepts.
func ValidSpamRuleType(s string) bool {
	for _, t := range SpamRuleTypes {
		if t == s {
			return true
		}
	}
	return false
}

type SpamRule struct {
	ID        int64  `json:"id"`
	RuleType  string `json:"rule_type"`
	Value     string `json:"value"`
	Weight    int    `json:"weight"`
	MailboxID *int64 `json:"mailbox_id,omitempty"`
	IsActive  bool   `json:"is_active"`
}

type SpamRuleCreate struct {
	RuleType  string `json:"rule_type"`
	Value     string `json:"value"`
	Weight    int    `json:"weight"`
	MailboxID *int64 `json:"mailbox_id,omitempty"`
}

type GroupSuggestion struct {
	ClusterID      int64    `json:"cluster_id"`
	Topic          string   `json:"topic"`
	EmailCount     int      `json:"email_count"`
	EmailIDs       []int64  `json:"email_ids"`
	SampleSubjects []string `json:"sample_subjects"`
}

type SimilarEmail struct {
	EmailID         int64   `json:"email_id"`
	Subject         string  `json:"subject"`
	Sender          string  `json:"sender"`
	SimilarityScore float64 `json:"similarity_score"`
}

type ClusterResult struct {
	NumClusters int              `json:"num_clusters"`
	Clusters    []map[string]any `json:"clusters"`
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// TopicTag turns a suggested group topic into a tag name.
func TopicTag(topic string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(topic), "-")
}
