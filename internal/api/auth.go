package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

// GoogleLogin is the response to POST /auth/google/oauth.
type GoogleLogin struct {
	Message        string `json:"message"`
	GmailConnected bool   `json:"gmail_connected"`
	AccessToken    string `json:"access_token"`
}

// Login authenticates with email and password and stores the returned tokens.
func (c *Client) Login(ctx context.Context, username, password string) (*domain.TokenPair, error) {
	form := url.Values{"username": {username}, "password": {password}}
	var pair domain.TokenPair
	r := request{method: http.MethodPost, path: "/login", body: form, noRefresh: true}
	if err := c.do(ctx, r, &pair); err != nil {
		return nil, fmt.Errorf("failed to log in: %w", err)
	}
	if err := c.SetTokens(Tokens{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}); err != nil {
		return nil, err
	}
	return &pair, nil
}

// LoginGoogle exchanges a Google OAuth access token for a backend session.
// The refresh token arrives as a cookie.
func (c *Client) LoginGoogle(ctx context.Context, googleAccessToken, scope string) (*GoogleLogin, error) {
	body := map[string]string{"access_token": googleAccessToken, "scope": scope}
	var out GoogleLogin
	r := request{method: http.MethodPost, path: "/auth/google/oauth", body: body, noRefresh: true}
	if err := c.do(ctx, r, &out); err != nil {
		return nil, fmt.Errorf("failed to log in with google: %w", err)
	}
	if out.AccessToken != "" {
		if err := c.mergeTokens(Tokens{AccessToken: out.AccessToken}); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

// Logout ends the backend session. Local tokens are dropped even when the
// request fails.
func (c *Client) Logout(ctx context.Context) error {
	r := request{method: http.MethodPost, path: "/auth/logout", noRefresh: true, sendRefreshCookie: true}
	err := c.do(ctx, r, nil)
	c.ClearTokens()
	if err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	return nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := c.get(ctx, "/auth/me", nil, &u); err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return &u, nil
}
