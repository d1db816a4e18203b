// Package cache keeps generated replies for a short time so regenerating
// the same reply does not hit the model again.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lu-zhengda/smartmail/internal/domain"
	"github.com/lu-zhengda/smartmail/internal/store"
)

// DefaultTTL is how long an entry stays valid.
const DefaultTTL = 5 * time.Minute

// Entry is a cached reply.
type Entry struct {
	Text     string
	Tone     domain.Tone
	StoredAt time.Time
}

// Store is a reply cache. Expired entries are reported as misses.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, key string, e Entry) error
	Delete(ctx context.Context, key string) error
	Purge(ctx context.Context) error
}

// Key identifies a reply by message, tone and instructions.
func Key(messageID string, tone domain.Tone, instructions string) string {
	return messageID + "-" + string(tone) + "-" + instructions
}

// Memory is an in-process Store.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]Entry
}

// NewMemory returns an empty cache. A non-positive ttl uses DefaultTTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{ttl: ttl, now: time.Now, entries: make(map[string]Entry)}
}

func (m *Memory) Get(_ context.Context, key string) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return Entry{}, false, nil
	}
	if m.now().Sub(e.StoredAt) >= m.ttl {
		delete(m.entries, key)
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (m *Memory) Put(_ context.Context, key string, e Entry) error {
	if e.StoredAt.IsZero() {
		e.StoredAt = m.now()
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Purge(context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]Entry)
	m.mu.Unlock()
	return nil
}

// SQLite is a Store persisted in the local database, scoped to one profile,
// so replies survive between CLI invocations.
type SQLite struct {
	db      store.Store
	profile string
	ttl     time.Duration
	now     func() time.Time
}

// NewSQLite returns a cache over db for profile.
func NewSQLite(db store.Store, profile string, ttl time.Duration) *SQLite {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SQLite{db: db, profile: profile, ttl: ttl, now: time.Now}
}

// Get returns a live entry. An expired entry is deleted and reported as a
// miss.
func (s *SQLite) Get(ctx context.Context, key string) (Entry, bool, error) {
	r, err := s.db.GetReply(ctx, s.profile, key)
	if errors.Is(err, store.ErrNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	if s.now().Sub(r.StoredAt) >= s.ttl {
		if err := s.db.DeleteReply(ctx, s.profile, key); err != nil {
			return Entry{}, false, err
		}
		return Entry{}, false, nil
	}
	return Entry{Text: r.Text, Tone: domain.Tone(r.Tone), StoredAt: r.StoredAt}, true, nil
}

func (s *SQLite) Put(ctx context.Context, key string, e Entry) error {
	if e.StoredAt.IsZero() {
		e.StoredAt = s.now()
	}
	return s.db.PutReply(ctx, &store.CachedReply{
		Key:      key,
		Profile:  s.profile,
		Text:     e.Text,
		Tone:     string(e.Tone),
		StoredAt: e.StoredAt.UTC(),
	})
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	return s.db.DeleteReply(ctx, s.profile, key)
}

func (s *SQLite) Purge(ctx context.Context) error {
	return s.db.PurgeReplies(ctx, s.profile)
}

// Prune deletes every expired entry, for all profiles.
func (s *SQLite) Prune(ctx context.Context) (int64, error) {
	return s.db.PruneReplies(ctx, s.now().Add(-s.ttl))
}
