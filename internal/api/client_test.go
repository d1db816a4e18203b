package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

type memCreds struct {
	mu     sync.Mutex
	tokens Tokens
	saves  int
}

func (m *memCreds) LoadTokens() (Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens, nil
}

func (m *memCreds) SaveTokens(t Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = t
	m.saves++
	return nil
}

type countingRecorder struct {
	requests  atomic.Int32
	refreshes sync.Map
}

func (r *countingRecorder) RecordRequest(context.Context, string, int, time.Duration) {
	r.requests.Add(1)
}

func (r *countingRecorder) RecordTokenRefresh(_ context.Context, result string) {
	v, _ := r.refreshes.LoadOrStore(result, new(atomic.Int32))
	v.(*atomic.Int32).Add(1)
}

func (r *countingRecorder) refreshCount(result string) int32 {
	v, ok := r.refreshes.Load(result)
	if !ok {
		return 0
	}
	return v.(*atomic.Int32).Load()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// backend accepts "fresh" as the only valid access token. Refresh succeeds
// when the refresh_token cookie equals "r1".
func backend(t *testing.T, refreshes *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		ck, err := r.Cookie("refresh_token")
		if err != nil || ck.Value != "r1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Refresh token missing"})
			return
		}
		time.Sleep(20 * time.Millisecond)
		http.SetCookie(w, &http.Cookie{Name: "access_token", Value: `"Bearer fresh"`, HttpOnly: true})
		writeJSON(w, http.StatusOK, map[string]string{"message": "Token refreshed"})
	})
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
			return
		}
		writeJSON(w, http.StatusOK, domain.User{ID: 1, Email: "a@example.com", Role: "admin", IsActive: true})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRefreshAndReplay(t *testing.T) {
	var refreshes atomic.Int32
	srv := backend(t, &refreshes)
	creds := &memCreds{tokens: Tokens{AccessToken: "stale", RefreshToken: "r1"}}
	rec := &countingRecorder{}
	c := New(srv.URL, WithCredentials(creds), WithMetrics(rec))

	u, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", u.Email)
	assert.Equal(t, int32(1), refreshes.Load())
	assert.Equal(t, "fresh", creds.tokens.AccessToken)
	assert.Equal(t, "r1", creds.tokens.RefreshToken)
	assert.Equal(t, int32(1), rec.refreshCount("success"))
	// original, refresh, replay
	assert.Equal(t, int32(3), rec.requests.Load())
}

func TestRefreshFailureReturnsOriginal401(t *testing.T) {
	var refreshes atomic.Int32
	srv := backend(t, &refreshes)
	c := New(srv.URL, WithCredentials(&memCreds{tokens: Tokens{AccessToken: "stale", RefreshToken: "bad"}}))

	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, int32(1), refreshes.Load())

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "/auth/me", apiErr.Path)
	assert.Equal(t, "Could not validate credentials", apiErr.Detail)
}

func TestNoRefreshTokenSkipsRefresh(t *testing.T) {
	var refreshes atomic.Int32
	srv := backend(t, &refreshes)
	c := New(srv.URL)

	_, err := c.Me(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(0), refreshes.Load())
}

func TestConcurrent401sShareOneRefresh(t *testing.T) {
	var refreshes atomic.Int32
	srv := backend(t, &refreshes)
	c := New(srv.URL, WithCredentials(&memCreds{tokens: Tokens{AccessToken: "stale", RefreshToken: "r1"}}))

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Me(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), refreshes.Load())
}

func TestReplayHappensOnce(t *testing.T) {
	var hits, refreshes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			refreshes.Add(1)
			http.SetCookie(w, &http.Cookie{Name: "access_token", Value: "Bearer other"})
			writeJSON(w, http.StatusOK, map[string]string{"message": "Token refreshed"})
			return
		}
		hits.Add(1)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "nope"})
	}))
	defer srv.Close()
	c := New(srv.URL, WithCredentials(&memCreds{tokens: Tokens{AccessToken: "a", RefreshToken: "r"}}))

	_, err := c.ListMailboxes(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, int32(1), refreshes.Load())
}

func TestRefreshEndpointNotRetried(t *testing.T) {
	var refreshes atomic.Int32
	srv := backend(t, &refreshes)
	c := New(srv.URL, WithCredentials(&memCreds{tokens: Tokens{AccessToken: "stale", RefreshToken: "bad"}}))

	err := c.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), refreshes.Load())
}

func TestRequestHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "/emails/7/tags", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"name":"urgent","color":"#f00"}`, string(body))
		writeJSON(w, http.StatusOK, domain.Tag{ID: 3, Name: "urgent", Color: "#f00"})
	}))
	defer srv.Close()
	c := New(srv.URL, WithCredentials(&memCreds{tokens: Tokens{AccessToken: "tok"}}))

	tag, err := c.AddTag(context.Background(), 7, "urgent", "#f00")
	require.NoError(t, err)
	assert.Equal(t, int64(3), tag.ID)
}

func TestLoginStoresTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/login", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "a@example.com", r.PostForm.Get("username"))
		assert.Equal(t, "pw", r.PostForm.Get("password"))
		http.SetCookie(w, &http.Cookie{Name: "access_token", Value: `"Bearer acc"`})
		writeJSON(w, http.StatusOK, domain.TokenPair{AccessToken: "acc", RefreshToken: "ref", TokenType: "bearer"})
	}))
	defer srv.Close()
	creds := &memCreds{}
	c := New(srv.URL, WithCredentials(creds))

	_, err := c.Login(context.Background(), "a@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, Tokens{AccessToken: "acc", RefreshToken: "ref"}, creds.tokens)
	assert.True(t, c.HasSession())
}

func TestLoginFailureDoesNotRefresh(t *testing.T) {
	var refreshes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			refreshes.Add(1)
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect email or password"})
	}))
	defer srv.Close()
	c := New(srv.URL, WithCredentials(&memCreds{tokens: Tokens{RefreshToken: "r1"}}))

	_, err := c.Login(context.Background(), "a@example.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "Incorrect email or password")
	assert.Equal(t, int32(0), refreshes.Load())
}

func TestGoogleLoginCapturesRefreshCookie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "g-token", body["access_token"])
		http.SetCookie(w, &http.Cookie{Name: "access_token", Value: `"Bearer jwt"`})
		http.SetCookie(w, &http.Cookie{Name: "refresh_token", Value: "rjwt"})
		writeJSON(w, http.StatusOK, GoogleLogin{Message: "ok", GmailConnected: true, AccessToken: "jwt"})
	}))
	defer srv.Close()
	creds := &memCreds{}
	c := New(srv.URL, WithCredentials(creds))

	res, err := c.LoginGoogle(context.Background(), "g-token", "openid email")
	require.NoError(t, err)
	assert.True(t, res.GmailConnected)
	assert.Equal(t, Tokens{AccessToken: "jwt", RefreshToken: "rjwt"}, creds.tokens)
}

func TestLogoutSendsRefreshCookieAndClears(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie("refresh_token")
		require.NoError(t, err)
		assert.Equal(t, "r1", ck.Value)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
	}))
	defer srv.Close()
	c := New(srv.URL, WithCredentials(&memCreds{tokens: Tokens{AccessToken: "a", RefreshToken: "r1"}}))

	require.NoError(t, c.Logout(context.Background()))
	assert.False(t, c.HasSession())
}

func TestErrorDetail(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
		is     error
	}{
		{"string detail", 404, `{"detail":"Email not found"}`, "Email not found", ErrNotFound},
		{"forbidden", 403, `{"detail":"Not enough permissions"}`, "Not enough permissions", ErrForbidden},
		{
			"validation list", 422,
			`{"detail":[{"loc":["body","tone"],"msg":"field required"},{"loc":["query","days"],"msg":"too big"}]}`,
			"tone: field required; days: too big", nil,
		},
		{"plain text", 502, `<html>bad gateway</html>`, "Bad Gateway", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()
			c := New(srv.URL)

			_, err := c.GetEmail(context.Background(), 1)
			require.Error(t, err)
			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.want, apiErr.Detail)
			assert.Equal(t, tt.status, StatusCode(err))
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestListEmailsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "false", q.Get("is_read"))
		assert.Equal(t, "invoice", q.Get("q"))
		writeJSON(w, http.StatusOK, domain.EmailPage{Items: []domain.Email{{ID: 9}}, Total: 26, Page: 2, Size: 25})
	}))
	defer srv.Close()
	unread := false
	c := New(srv.URL)

	page, err := c.ListEmails(context.Background(), domain.EmailFilter{Page: 2, Size: 25, IsRead: &unread, Query: "invoice"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Pages())
	assert.Len(t, page.Items, 1)
}
