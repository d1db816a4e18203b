// Package api is the HTTP client for the Smart Mailbox backend.
//
// Every request carries the session's bearer token. A 401 triggers at most
// one POST /auth/refresh followed by a single replay of the original request;
// concurrent 401s share one refresh.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/lu-zhengda/smartmail/internal/logging"
)

const (
	refreshPath = "/auth/refresh"

	accessCookie  = "access_token"
	refreshCookie = "refresh_token"
)

var errNoRefreshToken = errors.New("no refresh token stored")

// Tokens are the backend session credentials.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// CredentialStore persists tokens between runs.
type CredentialStore interface {
	LoadTokens() (Tokens, error)
	SaveTokens(Tokens) error
}

// Recorder receives request and refresh metrics.
type Recorder interface {
	RecordRequest(ctx context.Context, method string, statusCode int, duration time.Duration)
	RecordTokenRefresh(ctx context.Context, result string)
}

type noopRecorder struct{}

func (noopRecorder) RecordRequest(context.Context, string, int, time.Duration) {}
func (noopRecorder) RecordTokenRefresh(context.Context, string)               {}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func WithCredentials(s CredentialStore) Option {
	return func(c *Client) { c.creds = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithMetrics(r Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.metrics = r
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// Client talks to the backend REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      CredentialStore
	logger     *slog.Logger
	metrics    Recorder
	userAgent  string

	mu         sync.Mutex
	tokens     Tokens
	loaded     bool
	generation uint64

	// refreshMu serializes refreshes so concurrent 401s coalesce.
	refreshMu sync.Mutex
}

// New creates a client for the API rooted at baseURL, e.g.
// http://localhost:8000/api/v1.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger:    slog.Default(),
		metrics:   noopRecorder{},
		userAgent: "smartmail",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Tokens returns the tokens currently in use.
func (c *Client) Tokens() Tokens {
	t, _ := c.currentTokens()
	return t
}

// HasSession reports whether an access or refresh token is known.
func (c *Client) HasSession() bool {
	t := c.Tokens()
	return t.AccessToken != "" || t.RefreshToken != ""
}

// SetTokens replaces the session tokens and persists them.
func (c *Client) SetTokens(t Tokens) error {
	c.mu.Lock()
	c.tokens = t
	c.loaded = true
	c.generation++
	c.mu.Unlock()
	return c.persist(t)
}

// ClearTokens forgets the session in memory. Persistent storage is left to
// the caller.
func (c *Client) ClearTokens() {
	c.mu.Lock()
	c.tokens = Tokens{}
	c.loaded = true
	c.generation++
	c.mu.Unlock()
}

func (c *Client) currentTokens() (Tokens, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded && c.creds != nil {
		if t, err := c.creds.LoadTokens(); err == nil {
			c.tokens = t
		}
		c.loaded = true
	}
	return c.tokens, c.generation
}

// mergeTokens updates the non-empty fields of t and persists the result.
func (c *Client) mergeTokens(t Tokens) error {
	c.mu.Lock()
	if t.AccessToken != "" {
		c.tokens.AccessToken = t.AccessToken
	}
	if t.RefreshToken != "" {
		c.tokens.RefreshToken = t.RefreshToken
	}
	c.loaded = true
	c.generation++
	merged := c.tokens
	c.mu.Unlock()
	return c.persist(merged)
}

func (c *Client) persist(t Tokens) error {
	if c.creds == nil {
		return nil
	}
	if err := c.creds.SaveTokens(t); err != nil {
		return fmt.Errorf("failed to save tokens: %w", err)
	}
	return nil
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any

	// noRefresh disables the 401 refresh-and-replay.
	noRefresh bool
	// sendRefreshCookie attaches the refresh token as a cookie.
	sendRefreshCookie bool
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, query: query}, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, request{method: http.MethodPost, path: path, body: body}, out)
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, request{method: http.MethodPut, path: path, body: body}, out)
}

func (c *Client) patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, request{method: http.MethodPatch, path: path, body: body}, out)
}

func (c *Client) delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, request{method: http.MethodDelete, path: path}, out)
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	payload, contentType, err := encodeBody(r.body)
	if err != nil {
		return err
	}

	resp, gen, err := c.send(ctx, r, payload, contentType)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && !r.noRefresh && r.path != refreshPath {
		original := c.readError(resp, r)
		if rerr := c.refresh(ctx, gen); rerr != nil {
			c.logger.Debug("token refresh failed",
				logging.KeyPath, r.path,
				logging.KeyError, rerr.Error(),
			)
			return original
		}
		resp, _, err = c.send(ctx, r, payload, contentType)
		if err != nil {
			return err
		}
	}
	return c.handle(resp, r, out)
}

// send performs one HTTP round trip. It returns the token generation that
// was used so a 401 can tell whether the token has changed since.
func (c *Client) send(ctx context.Context, r request, payload []byte, contentType string) (*http.Response, uint64, error) {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}

	tokens, gen := c.currentTokens()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tokens.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	}
	if r.sendRefreshCookie && tokens.RefreshToken != "" {
		req.AddCookie(&http.Cookie{Name: refreshCookie, Value: tokens.RefreshToken})
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.RecordRequest(ctx, r.method, 0, elapsed)
		return nil, gen, fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	c.metrics.RecordRequest(ctx, r.method, resp.StatusCode, elapsed)
	c.logger.Debug("api request",
		logging.KeyMethod, r.method,
		logging.KeyPath, r.path,
		logging.KeyStatus, resp.StatusCode,
		logging.KeyDuration, elapsed,
	)
	return resp, gen, nil
}

func (c *Client) handle(resp *http.Response, r request, out any) error {
	if resp.StatusCode >= 400 {
		return c.readError(resp, r)
	}
	defer resp.Body.Close()

	if t := tokensFromCookies(resp); t != (Tokens{}) {
		if err := c.mergeTokens(t); err != nil {
			return err
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode %s %s response: %w", r.method, r.path, err)
	}
	return nil
}

func (c *Client) readError(resp *http.Response, r request) *Error {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return &Error{
		StatusCode: resp.StatusCode,
		Detail:     parseDetail(body, resp.StatusCode),
		Method:     r.method,
		Path:       r.path,
	}
}

// refresh obtains a new access token unless another caller already did so
// after generation gen was observed.
func (c *Client) refresh(ctx context.Context, gen uint64) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	tokens, current := c.currentTokens()
	if current != gen {
		return nil
	}
	if tokens.RefreshToken == "" {
		c.metrics.RecordTokenRefresh(ctx, "failure")
		return errNoRefreshToken
	}

	r := request{method: http.MethodPost, path: refreshPath, noRefresh: true, sendRefreshCookie: true}
	resp, _, err := c.send(ctx, r, nil, "")
	if err != nil {
		c.metrics.RecordTokenRefresh(ctx, "failure")
		return err
	}
	if resp.StatusCode >= 400 {
		c.metrics.RecordTokenRefresh(ctx, "failure")
		return c.readError(resp, r)
	}
	defer resp.Body.Close()

	fresh := tokensFromCookies(resp)
	if fresh.AccessToken == "" {
		var body Tokens
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			fresh.AccessToken = body.AccessToken
		}
	}
	if fresh.AccessToken == "" {
		c.metrics.RecordTokenRefresh(ctx, "failure")
		return fmt.Errorf("refresh response carried no access token")
	}
	c.metrics.RecordTokenRefresh(ctx, "success")
	return c.mergeTokens(fresh)
}

// Refresh forces a token refresh.
func (c *Client) Refresh(ctx context.Context) error {
	_, gen := c.currentTokens()
	return c.refresh(ctx, gen)
}

// tokensFromCookies reads session cookies set by the backend. The access
// cookie holds "Bearer <jwt>".
func tokensFromCookies(resp *http.Response) Tokens {
	var t Tokens
	for _, ck := range resp.Cookies() {
		v := strings.Trim(ck.Value, `"`)
		if v == "" {
			continue
		}
		switch ck.Name {
		case accessCookie:
			t.AccessToken = strings.TrimPrefix(v, "Bearer ")
		case refreshCookie:
			t.RefreshToken = v
		}
	}
	return t
}

func encodeBody(body any) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case url.Values:
		return []byte(b.Encode()), "application/x-www-form-urlencoded", nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode request body: %w", err)
		}
		return data, "application/json", nil
	}
}

func pathf(format string, args ...any) string {
	for i, a := range args {
		if s, ok := a.(string); ok {
			args[i] = url.PathEscape(s)
		}
	}
	return fmt.Sprintf(format, args...)
}
