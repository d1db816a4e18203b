package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/lu-zhengda/smartmail/internal/api"
	"github.com/lu-zhengda/smartmail/internal/domain"
	"github.com/lu-zhengda/smartmail/internal/logging"
	"github.com/lu-zhengda/smartmail/internal/store"
	"github.com/lu-zhengda/smartmail/internal/store/sqlite"
)

type purgeCounter struct{ n int }

func (p *purgeCounter) Purge(context.Context) error {
	p.n++
	return nil
}

func fakeBackend(t *testing.T, role string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Incorrect email or password"})
			return
		}
		_ = json.NewEncoder(w).Encode(domain.TokenPair{AccessToken: "acc", RefreshToken: "ref", TokenType: "bearer"})
	})
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer acc" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Not authenticated"})
			return
		}
		_ = json.NewEncoder(w).Encode(domain.User{ID: 1, Email: "u@example.com", Role: role, IsActive: true})
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Logged out"})
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Refresh token expired"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newManager(t *testing.T, role string) (*Manager, *purgeCounter, store.Store) {
	t.Helper()
	srv := fakeBackend(t, role)
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.SaveProfile(context.Background(), &store.Profile{Name: "p", BaseURL: srv.URL}))

	tokens := &MemoryStore{}
	purger := &purgeCounter{}
	m := &Manager{
		Client:  api.New(srv.URL, api.WithCredentials(tokens)),
		Tokens:  tokens,
		Profile: "p",
		Store:   db,
		Cache:   purger,
		Logger:  logging.Discard(),
	}
	return m, purger, db
}

func TestLoginPasswordAndCurrent(t *testing.T) {
	m, _, db := newManager(t, domain.RoleUser)
	ctx := context.Background()

	u, err := m.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, u, "no session yet")

	u, err = m.LoginPassword(ctx, "u@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u@example.com", u.Email)

	p, err := db.GetProfile(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "u@example.com", p.UserEmail)

	u, err = m.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, int64(1), u.ID)
}

func TestLoginPasswordRejected(t *testing.T) {
	m, _, _ := newManager(t, domain.RoleUser)

	_, err := m.LoginPassword(context.Background(), "u@example.com", "wrong")
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.False(t, m.Client.HasSession())
}

func TestCurrentExpiredSessionIsNil(t *testing.T) {
	m, _, _ := newManager(t, domain.RoleUser)
	require.NoError(t, m.Client.SetTokens(api.Tokens{AccessToken: "expired", RefreshToken: "old"}))

	u, err := m.Current(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, u)
}

func TestRequire(t *testing.T) {
	ctx := context.Background()

	m, _, _ := newManager(t, domain.RoleUser)
	_, err := m.Require(ctx, "")
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	_, err = m.LoginPassword(ctx, "u@example.com", "secret")
	require.NoError(t, err)
	_, err = m.Require(ctx, domain.RoleUser)
	assert.NoError(t, err)
	_, err = m.Require(ctx, domain.RoleAdmin)
	assert.ErrorIs(t, err, ErrForbidden)

	admin, _, _ := newManager(t, domain.RoleAdmin)
	_, err = admin.LoginPassword(ctx, "u@example.com", "secret")
	require.NoError(t, err)
	_, err = admin.Require(ctx, domain.RoleUser)
	assert.NoError(t, err, "admin satisfies every role")
}

func TestRequireBypass(t *testing.T) {
	m, _, _ := newManager(t, domain.RoleUser)
	m.Bypass = true

	u, err := m.Require(context.Background(), domain.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
}

func TestLogoutPurgesState(t *testing.T) {
	m, purger, db := newManager(t, domain.RoleUser)
	ctx := context.Background()
	_, err := m.LoginPassword(ctx, "u@example.com", "secret")
	require.NoError(t, err)

	require.NoError(t, m.Logout(ctx))
	assert.Equal(t, 1, purger.n)
	assert.False(t, m.Client.HasSession())
	tokens, _ := m.Tokens.LoadTokens()
	assert.Equal(t, api.Tokens{}, tokens)

	p, err := db.GetProfile(ctx, "p")
	require.NoError(t, err)
	assert.Empty(t, p.UserEmail)
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	s := NewKeyringStore("work")

	got, err := s.LoadTokens()
	require.NoError(t, err)
	assert.Equal(t, api.Tokens{}, got)

	want := api.Tokens{AccessToken: "a", RefreshToken: "r"}
	require.NoError(t, s.SaveTokens(want))
	got, err = s.LoadTokens()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	other, err := NewKeyringStore("home").LoadTokens()
	require.NoError(t, err)
	assert.Equal(t, api.Tokens{}, other, "profiles are isolated")

	require.NoError(t, s.DeleteTokens())
	require.NoError(t, s.DeleteTokens(), "deleting twice is fine")
	got, err = s.LoadTokens()
	require.NoError(t, err)
	assert.Equal(t, api.Tokens{}, got)
}

func TestResolveProfile(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer db.Close()

	p, err := ResolveProfile(ctx, db, "", "http://localhost:8000/api/v1")
	require.NoError(t, err)
	assert.Equal(t, DefaultProfileName, p.Name)

	require.NoError(t, db.SaveProfile(ctx, &store.Profile{Name: "staging", BaseURL: "http://staging/api/v1"}))
	p, err = ResolveProfile(ctx, db, "staging", "")
	require.NoError(t, err)
	assert.Equal(t, "http://staging/api/v1", p.BaseURL)

	require.NoError(t, db.SetDefaultProfile(ctx, "staging"))
	p, err = ResolveProfile(ctx, db, "", "")
	require.NoError(t, err)
	assert.Equal(t, "staging", p.Name)

	_, err = ResolveProfile(ctx, db, "nope", "")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, store.ErrNotFound))
}

func TestGoogleAuthWithoutCredentials(t *testing.T) {
	var g *GoogleAuth
	assert.False(t, g.HasCredentials())

	_, err := (&GoogleAuth{ClientID: "id"}).Authenticate(context.Background())
	assert.ErrorIs(t, err, ErrNoGoogleCredentials)
}
