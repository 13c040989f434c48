package app

import (
	"fmt"
	"os"

	"sndctl/internal/admin"
	"sndctl/internal/api"
	"sndctl/internal/clock"
	"sndctl/internal/config"
	"sndctl/internal/library"
	"sndctl/internal/logging"
	"sndctl/internal/session"
	"sndctl/internal/state"
	"sndctl/internal/upload"
)

// App is the application layer between the CLI and the controller/cache
// packages. It constructs all dependencies from config and manages the
// state-store lifecycle on Close.
type App struct {
	cfg      *config.Config
	Client   *api.Client
	Sessions *session.FileStore
	State    state.Store
	Uploads  *upload.Controller
	Library  *library.View
	Users    *admin.Directory
	Settings *admin.SettingsView
	Logger   logging.Logger

	logFile *os.File
}

// New creates a fully wired App from the given config. op identifies the
// CLI command being run and tags every log line. The caller must call
// Close when done.
func New(cfg *config.Config, op Operation) (*App, error) {
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("server_url is not configured")
	}

	client, err := api.NewClient(cfg.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("creating API client: %w", err)
	}

	sessions := session.NewFileStore(cfg.Session.IdentityPath, cfg.Session.CredentialPath)
	if cookie, ok, err := sessions.Load(); err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	} else if ok {
		client.SetSessionCookie(cookie)
	}

	store, err := state.NewStoreFromConfig(cfg.State, cfg.ClientID)
	if err != nil {
		return nil, fmt.Errorf("creating state store: %w", err)
	}

	slogger, logFile, err := newLogger(cfg.LogDir, op)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	clk := clock.RealClock{}
	lib := library.NewView(client, clk, logger)

	uploads := upload.NewController(client, store, clk, clock.UUIDGenerator{}, logger, lib.Invalidate)
	if expiry, ok, err := store.Cooldown(); err != nil {
		logger.Warn("reading persisted cooldown", "error", err)
	} else if ok {
		uploads.RestoreCooldown(expiry)
	}

	return &App{
		cfg:      cfg,
		Client:   client,
		Sessions: sessions,
		State:    store,
		Uploads:  uploads,
		Library:  lib,
		Users:    admin.NewDirectory(client, clk, logger),
		Settings: admin.NewSettingsView(client, logger),
		Logger:   logger,
		logFile:  logFile,
	}, nil
}

// Close releases the state store and the log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.State.Close(); err != nil {
		firstErr = fmt.Errorf("closing state store: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
