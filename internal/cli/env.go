package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lu-zhengda/smartmail/internal/api"
	"github.com/lu-zhengda/smartmail/internal/app"
	"github.com/lu-zhengda/smartmail/internal/bulk"
	"github.com/lu-zhengda/smartmail/internal/cache"
	"github.com/lu-zhengda/smartmail/internal/config"
	"github.com/lu-zhengda/smartmail/internal/domain"
	"github.com/lu-zhengda/smartmail/internal/instrumentation"
	"github.com/lu-zhengda/smartmail/internal/jobs"
	"github.com/lu-zhengda/smartmail/internal/logging"
	"github.com/lu-zhengda/smartmail/internal/session"
	"github.com/lu-zhengda/smartmail/internal/store"
	"github.com/lu-zhengda/smartmail/internal/store/sqlite"
)

// env holds everything a command needs to talk to the backend for the
// selected profile.
type env struct {
	cfg       *config.Config
	db        *sqlite.DB
	profile   *store.Profile
	logger    *slog.Logger
	telemetry *instrumentation.Provider
	client    *api.Client
	session   *session.Manager
	tracker   *jobs.Tracker
	flows     *app.Flows
	replies   *cache.SQLite
}

// newEnv opens the environment for a one-shot command. Logs go to stderr.
func newEnv(cmd *cobra.Command) (*env, error) {
	return openEnv(cmd.Context(), os.Stderr)
}

func openEnv(ctx context.Context, logOut io.Writer) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format, logOut)

	db, err := openDB()
	if err != nil {
		return nil, err
	}

	name := profileFlag
	if name == "" {
		name = cfg.Profiles.Default
	}
	profile, err := session.ResolveProfile(ctx, db, name, cfg.API.BaseURL)
	if err != nil {
		db.Close()
		return nil, err
	}
	baseURL := profile.BaseURL
	if apiURLFlag != "" {
		baseURL = apiURLFlag
	}
	if baseURL == "" {
		baseURL = cfg.API.BaseURL
	}
	logger = logger.With(logging.KeyProfile, profile.Name)

	tp, err := instrumentation.NewProvider(ctx, instrumentation.FromAppConfig(cfg.Telemetry, version))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	if err := tp.ServeMetrics(logger); err != nil {
		logger.Warn("metrics endpoint unavailable", logging.Err(err))
	}

	var tokens session.TokenStore = session.NewKeyringStore(profile.Name)
	if cfg.Auth.BypassAuth {
		tokens = &session.MemoryStore{}
	}

	client := api.New(baseURL,
		api.WithTimeout(cfg.APITimeout()),
		api.WithCredentials(tokens),
		api.WithLogger(logger),
		api.WithMetrics(tp.Metrics()),
		api.WithUserAgent("smartmail/"+version),
	)
	replies := cache.NewSQLite(db, profile.Name, cfg.ReplyTTL())
	tracker := &jobs.Tracker{Store: db, Profile: profile.Name}

	e := &env{
		cfg:       cfg,
		db:        db,
		profile:   profile,
		logger:    logger,
		telemetry: tp,
		client:    client,
		tracker:   tracker,
		replies:   replies,
	}
	e.session = &session.Manager{
		Client:  client,
		Tokens:  tokens,
		Profile: profile.Name,
		Store:   db,
		Cache:   replies,
		Google: &session.GoogleAuth{
			ClientID:     cfg.Auth.GoogleClientID,
			ClientSecret: cfg.Auth.GoogleClientSecret,
			Out:          os.Stderr,
		},
		Logger: logger,
		Bypass: cfg.Auth.BypassAuth,
	}
	e.flows = &app.Flows{
		Client:  client,
		Poller:  e.poller(),
		Tracker: tracker,
		Logger:  logger,
	}
	return e, nil
}

// Close flushes telemetry and closes the database.
func (e *env) Close() {
	if err := e.telemetry.Shutdown(context.Background()); err != nil {
		e.logger.Debug("telemetry shutdown failed", logging.Err(err))
	}
	if err := e.db.Close(); err != nil {
		e.logger.Debug("failed to close database", logging.Err(err))
	}
}

// require checks that a user with role is signed in. An empty role only
// requires a session.
func (e *env) require(ctx context.Context, role string) (*domain.User, error) {
	u, err := e.session.Require(ctx, role)
	if errors.Is(err, session.ErrForbidden) {
		return nil, fmt.Errorf("%w: requires role %q", err, role)
	}
	return u, err
}

func (e *env) poller() *jobs.Poller {
	return &jobs.Poller{
		Source:   e.client,
		Interval: e.cfg.PollInterval(),
		Timeout:  e.cfg.PollTimeout(),
		Logger:   e.logger,
		Metrics:  e.telemetry.Metrics(),
	}
}

func (e *env) monitor(limit int) *jobs.Monitor {
	return &jobs.Monitor{
		Source:   e.client,
		Interval: e.cfg.MonitorInterval(),
		Limit:    limit,
	}
}

func (e *env) bulkService() *bulk.Service {
	return &bulk.Service{
		Backend:     e.client,
		Concurrency: e.cfg.Bulk.PreviewConcurrency,
		SendDelay:   e.cfg.SendDelay(),
		OnQueued: func(ctx context.Context, ref *domain.JobRef, subject string) {
			e.flows.Track(ctx, ref, domain.JobSendEmail, subject)
		},
		Logger: e.logger,
	}
}

func (e *env) autoReplier() *app.AutoReplier {
	return &app.AutoReplier{
		Client:  e.client,
		Cache:   e.replies,
		Metrics: e.telemetry.Metrics(),
		Logger:  e.logger,
	}
}

// progress prints job status changes to stderr unless output is
// machine-readable.
func progress(label string) func(*domain.Job) {
	if structured() {
		return nil
	}
	return func(j *domain.Job) {
		fmt.Fprintf(os.Stderr, "%s: %s\n", label, j.Status)
	}
}
