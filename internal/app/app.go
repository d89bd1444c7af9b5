// Package app initializes and orchestrates the main components of the dollar-ci service.
// It wires together the configuration, server, and the completion workers.
package app

import (
	"log/slog"

	"github.com/sevigo/dollar-ci/internal/config"
	"github.com/sevigo/dollar-ci/internal/core"
	"github.com/sevigo/dollar-ci/internal/server"
)

// App holds the main application components.
type App struct {
	cfg         *config.Config
	server      *server.Server
	completions core.JobDispatcher
	logger      *slog.Logger
}

// NewApp assembles the application. completions may be nil when automatic
// completion is disabled.
func NewApp(cfg *config.Config, srv *server.Server, completions core.JobDispatcher, logger *slog.Logger) *App {
	return &App{
		cfg:         cfg,
		server:      srv,
		completions: completions,
		logger:      logger,
	}
}

// Start runs the HTTP server and blocks until it stops.
func (a *App) Start() error {
	a.logger.Info("starting dollar-ci",
		"server_port", a.cfg.Server.Port,
		"app_id", a.cfg.GitHub.AppID,
		"api_base_url", a.cfg.GitHub.APIBaseURL,
		"cache_tokens", a.cfg.GitHub.CacheTokens,
		"auto_complete", a.cfg.Checks.AutoComplete,
		"database", a.cfg.Database.Enabled(),
		"notify", a.cfg.Notify.Enabled())

	if err := a.server.Start(); err != nil {
		a.logger.Error("failed to start HTTP server", "error", err)
		return err
	}
	return nil
}

// Stop shuts down the application cleanly.
func (a *App) Stop() error {
	a.logger.Info("shutting down dollar-ci services")

	// Stop the HTTP server first to prevent new incoming requests.
	serverErr := a.server.Stop()
	if serverErr != nil {
		a.logger.Error("error during HTTP server shutdown", "error", serverErr)
		// Continue to stop other components even if the server failed.
	}

	// Let queued completions finish.
	if a.completions != nil {
		a.completions.Stop()
	}

	if serverErr != nil {
		a.logger.Error("dollar-ci stopped with errors", "error", serverErr)
		return serverErr
	}

	a.logger.Info("dollar-ci stopped successfully")
	return nil
}
