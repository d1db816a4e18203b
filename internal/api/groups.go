package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

// SuggestGroups returns clusters of similar emails worth handling together.
func (c *Client) SuggestGroups(ctx context.Context, mailboxID int64, limit int) ([]domain.GroupSuggestion, error) {
	q := url.Values{}
	if mailboxID > 0 {
		q.Set("mailbox_id", strconv.FormatInt(mailboxID, 10))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var groups []domain.GroupSuggestion
	if err := c.get(ctx, "/groups/groups/suggest", q, &groups); err != nil {
		return nil, fmt.Errorf("failed to suggest groups: %w", err)
	}
	return groups, nil
}

// SimilarEmails finds emails similar to emailID. A zero threshold uses the
// backend default.
func (c *Client) SimilarEmails(ctx context.Context, emailID int64, threshold float64, limit int) ([]domain.SimilarEmail, error) {
	q := url.Values{}
	if threshold > 0 {
		q.Set("threshold", strconv.FormatFloat(threshold, 'f', -1, 64))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var similar []domain.SimilarEmail
	if err := c.get(ctx, pathf("/groups/similar/%d", emailID), q, &similar); err != nil {
		return nil, fmt.Errorf("failed to find emails similar to %d: %w", emailID, err)
	}
	return similar, nil
}

func (c *Client) ClusterEmails(ctx context.Context, ids []int64, numClusters int) (*domain.ClusterResult, error) {
	q := url.Values{}
	if numClusters > 0 {
		q.Set("num_clusters", strconv.Itoa(numClusters))
	}
	r := request{method: http.MethodPost, path: "/groups/groups/cluster", query: q, body: ids}
	var res domain.ClusterResult
	if err := c.do(ctx, r, &res); err != nil {
		return nil, fmt.Errorf("failed to cluster %d emails: %w", len(ids), err)
	}
	return &res, nil
}
