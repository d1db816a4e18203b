package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lu-zhengda/smartmail/internal/store"
)

func (s *DB) GetReply(ctx context.Context, profile, key string) (*store.CachedReply, error) {
	var r store.CachedReply
	err := s.db.GetContext(ctx, &r,
		`SELECT key, profile, text, tone, stored_at FROM reply_cache WHERE profile = ? AND key = ?`,
		profile, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached reply: %w", err)
	}
	return &r, nil
}

func (s *DB) PutReply(ctx context.Context, r *store.CachedReply) error {
	if r.StoredAt.IsZero() {
		r.StoredAt = time.Now().UTC()
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT OR REPLACE INTO reply_cache (key, profile, text, tone, stored_at)
		VALUES (:key, :profile, :text, :tone, :stored_at)`,
		r,
	)
	if err != nil {
		return fmt.Errorf("failed to cache reply: %w", err)
	}
	return nil
}

func (s *DB) DeleteReply(ctx context.Context, profile, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM reply_cache WHERE profile = ? AND key = ?`, profile, key)
	if err != nil {
		return fmt.Errorf("failed to delete cached reply: %w", err)
	}
	return nil
}

// PurgeReplies drops every cached reply of a profile.
func (s *DB) PurgeReplies(ctx context.Context, profile string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM reply_cache WHERE profile = ?`, profile)
	if err != nil {
		return fmt.Errorf("failed to purge reply cache: %w", err)
	}
	return nil
}

// PruneReplies deletes replies stored before the cutoff, across profiles.
func (s *DB) PruneReplies(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reply_cache WHERE stored_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune reply cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
