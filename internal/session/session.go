// Package session tracks who is signed in to the backend and gates
// commands and screens by role.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lu-zhengda/smartmail/internal/api"
	"github.com/lu-zhengda/smartmail/internal/domain"
	"github.com/lu-zhengda/smartmail/internal/logging"
	"github.com/lu-zhengda/smartmail/internal/store"
)

var (
	ErrNotLoggedIn = errors.New("not logged in; run `smartmail login` first")
	ErrForbidden   = errors.New("permission denied for this operation")
)

// Purger drops session-scoped cached data.
type Purger interface {
	Purge(ctx context.Context) error
}

// Manager ties the API client to a profile's stored credentials.
type Manager struct {
	Client  *api.Client
	Tokens  TokenStore
	Profile string
	Store   store.Store
	Cache   Purger
	Google  *GoogleAuth
	Logger  *slog.Logger
	// Bypass skips authentication and treats the caller as a local admin.
	Bypass bool
}

func (m *Manager) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}

// LoginPassword signs in with email and password.
func (m *Manager) LoginPassword(ctx context.Context, email, password string) (*domain.User, error) {
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}
	if _, err := m.Client.Login(ctx, email, password); err != nil {
		return nil, err
	}
	return m.afterLogin(ctx, "password")
}

// LoginGoogle runs the Google OAuth flow and exchanges the Google token for
// a backend session.
func (m *Manager) LoginGoogle(ctx context.Context) (*domain.User, error) {
	gt, err := m.Google.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	res, err := m.Client.LoginGoogle(ctx, gt.Token.AccessToken, gt.Scope)
	if err != nil {
		return nil, err
	}
	m.logger().Info("google sign-in complete",
		logging.UserHash(gt.Email),
		"gmail_connected", res.GmailConnected,
	)
	return m.afterLogin(ctx, "google")
}

func (m *Manager) afterLogin(ctx context.Context, method string) (*domain.User, error) {
	u, err := m.Client.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("signed in but failed to load profile: %w", err)
	}
	m.rememberUser(ctx, u.Email, u.Role)
	m.logger().Info("logged in",
		logging.KeyOperation, "login",
		logging.KeyProfile, m.Profile,
		"method", method,
		logging.UserHash(u.Email),
	)
	return u, nil
}

func (m *Manager) rememberUser(ctx context.Context, email, role string) {
	if m.Store == nil || m.Profile == "" {
		return
	}
	if err := m.Store.SetProfileUser(ctx, m.Profile, email, role); err != nil && !errors.Is(err, store.ErrNotFound) {
		m.logger().Warn("failed to record profile user", logging.Err(err))
	}
}

// Logout ends the backend session best effort, then deletes the local
// credentials and purges the reply cache.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.Client.Logout(ctx); err != nil {
		m.logger().Warn("backend logout failed", logging.Err(err))
	}
	var errs []error
	if m.Tokens != nil {
		errs = append(errs, m.Tokens.DeleteTokens())
	}
	if m.Cache != nil {
		errs = append(errs, m.Cache.Purge(ctx))
	}
	m.rememberUser(ctx, "", "")
	return errors.Join(errs...)
}

// Current returns the signed-in user, or nil when there is no valid session.
// An expired session is not an error.
func (m *Manager) Current(ctx context.Context) (*domain.User, error) {
	if m.Bypass {
		return bypassUser(), nil
	}
	if !m.Client.HasSession() {
		return nil, nil
	}
	u, err := m.Client.Me(ctx)
	if errors.Is(err, api.ErrUnauthorized) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Require returns the current user if it satisfies role. An empty role only
// requires a session.
func (m *Manager) Require(ctx context.Context, role string) (*domain.User, error) {
	u, err := m.Current(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotLoggedIn
	}
	if !u.HasRole(role) {
		return u, ErrForbidden
	}
	return u, nil
}

func bypassUser() *domain.User {
	return &domain.User{Email: "dev@localhost", Role: domain.RoleAdmin, IsActive: true, FullName: "Local Developer"}
}
