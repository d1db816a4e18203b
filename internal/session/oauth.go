package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// GoogleScopes are requested during Google sign-in. The Gmail scopes let the
// backend proxy the user's inbox.
var GoogleScopes = []string{
	"openid",
	oauth2api.UserinfoEmailScope,
	oauth2api.UserinfoProfileScope,
	gmailapi.GmailReadonlyScope,
	gmailapi.GmailSendScope,
}

// ErrNoGoogleCredentials is returned when no OAuth client is configured.
var ErrNoGoogleCredentials = errors.New("google OAuth credentials not configured; set them in ~/.config/smartmail/config.toml under [auth] or via GOOGLE_CLIENT_ID / GOOGLE_CLIENT_SECRET env vars")

// GoogleAuth runs the installed-app OAuth flow against a loopback listener.
// No credentials are embedded in the binary.
type GoogleAuth struct {
	ClientID     string
	ClientSecret string
	// Out receives the authorization URL. Defaults to stdout.
	Out io.Writer
	// Endpoint overrides google.Endpoint in tests.
	Endpoint *oauth2.Endpoint
}

// GoogleToken is the result of a completed Google sign-in.
type GoogleToken struct {
	Token *oauth2.Token
	Email string
	Name  string
	Scope string
}

// HasCredentials reports whether OAuth credentials have been configured.
func (g *GoogleAuth) HasCredentials() bool {
	return g != nil && g.ClientID != "" && g.ClientSecret != ""
}

func (g *GoogleAuth) config(redirect string) *oauth2.Config {
	endpoint := google.Endpoint
	if g.Endpoint != nil {
		endpoint = *g.Endpoint
	}
	return &oauth2.Config{
		ClientID:     g.ClientID,
		ClientSecret: g.ClientSecret,
		Scopes:       GoogleScopes,
		Endpoint:     endpoint,
		RedirectURL:  redirect,
	}
}

// Authenticate prints the consent URL, waits for the browser redirect and
// exchanges the code. The signed-in account is looked up via userinfo.
func (g *GoogleAuth) Authenticate(ctx context.Context) (*GoogleToken, error) {
	if !g.HasCredentials() {
		return nil, ErrNoGoogleCredentials
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	cfg := g.config(fmt.Sprintf("http://127.0.0.1:%d", port))
	state := uuid.NewString()

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "Invalid state. You can close this tab.", http.StatusBadRequest)
			return
		}
		code := q.Get("code")
		if code == "" {
			select {
			case errCh <- fmt.Errorf("no code in callback: %s", q.Get("error")):
			default:
			}
			fmt.Fprint(w, "Authentication failed. You can close this tab.")
			return
		}
		select {
		case codeCh <- code:
		default:
		}
		fmt.Fprint(w, "Authentication successful! You can close this tab.")
	})

	server := &http.Server{Handler: mux}
	go server.Serve(listener)
	defer server.Shutdown(context.Background())

	out := g.Out
	if out == nil {
		out = os.Stdout
	}
	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "\nOpen this URL in your browser to sign in to smartmail:\n\n  %s\n\nWaiting for authorization...\n", authURL)

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}

	gt := &GoogleToken{Token: token, Scope: strings.Join(GoogleScopes, " ")}
	if s, ok := token.Extra("scope").(string); ok && s != "" {
		gt.Scope = s
	}

	svc, err := oauth2api.NewService(ctx, option.WithTokenSource(cfg.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch google userinfo: %w", err)
	}
	gt.Email = info.Email
	gt.Name = info.Name
	return gt, nil
}
