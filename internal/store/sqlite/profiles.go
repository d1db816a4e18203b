package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lu-zhengda/smartmail/internal/store"
)

// SaveProfile inserts a profile or updates its base URL.
func (s *DB) SaveProfile(ctx context.Context, p *store.Profile) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO profiles (name, base_url, user_email, role, is_default, created_at)
		VALUES (:name, :base_url, :user_email, :role, :is_default, :created_at)
		ON CONFLICT(name) DO UPDATE SET base_url = excluded.base_url`,
		p,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile %s: %w", p.Name, err)
	}
	return nil
}

func (s *DB) GetProfile(ctx context.Context, name string) (*store.Profile, error) {
	var p store.Profile
	err := s.db.GetContext(ctx, &p,
		`SELECT name, base_url, user_email, role, is_default, created_at FROM profiles WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", name, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile %s: %w", name, err)
	}
	return &p, nil
}

func (s *DB) ListProfiles(ctx context.Context) ([]store.Profile, error) {
	var profiles []store.Profile
	err := s.db.SelectContext(ctx, &profiles,
		`SELECT name, base_url, user_email, role, is_default, created_at FROM profiles ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}

// DeleteProfile removes a profile together with its tracked jobs and
// cached replies.
func (s *DB) DeleteProfile(ctx context.Context, name string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete profile %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("profile %s: %w", name, store.ErrNotFound)
	}
	for _, q := range []string{
		`DELETE FROM tracked_jobs WHERE profile = ?`,
		`DELETE FROM reply_cache WHERE profile = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, name); err != nil {
			return fmt.Errorf("failed to delete profile %s data: %w", name, err)
		}
	}
	return tx.Commit()
}

// SetProfileUser records who is logged in on a profile. Empty values clear it.
func (s *DB) SetProfileUser(ctx context.Context, name, email, role string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET user_email = ?, role = ? WHERE name = ?`, email, role, name)
	if err != nil {
		return fmt.Errorf("failed to update profile %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("profile %s: %w", name, store.ErrNotFound)
	}
	return nil
}

// SetDefaultProfile marks name as the profile used when none is selected.
func (s *DB) SetDefaultProfile(ctx context.Context, name string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE profiles SET is_default = (name = ?)`, name); err != nil {
		return fmt.Errorf("failed to set default profile %s: %w", name, err)
	}
	var exists int
	if err := tx.GetContext(ctx, &exists, `SELECT COUNT(*) FROM profiles WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to set default profile %s: %w", name, err)
	}
	if exists == 0 {
		return fmt.Errorf("profile %s: %w", name, store.ErrNotFound)
	}
	return tx.Commit()
}
