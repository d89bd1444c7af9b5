package wire

import (
	"log/slog"

	"github.com/google/wire"

	"github.com/sevigo/dollar-ci/internal/app"
	"github.com/sevigo/dollar-ci/internal/config"
	"github.com/sevigo/dollar-ci/internal/core"
	"github.com/sevigo/dollar-ci/internal/db"
	"github.com/sevigo/dollar-ci/internal/github"
	"github.com/sevigo/dollar-ci/internal/jobs"
	"github.com/sevigo/dollar-ci/internal/logger"
	"github.com/sevigo/dollar-ci/internal/notify"
	"github.com/sevigo/dollar-ci/internal/router"
	"github.com/sevigo/dollar-ci/internal/server"
	"github.com/sevigo/dollar-ci/internal/server/handler"
	"github.com/sevigo/dollar-ci/internal/storage"
)

// GitHubSet builds the authenticated check run client.
var GitHubSet = wire.NewSet(
	provideGitHubConfig,
	ProvideTokenBroker,
	ProvideCheckRunClient,
)

// AppSet builds the webhook service.
var AppSet = wire.NewSet(
	config.LoadConfig,
	provideSlogLogger,
	GitHubSet,
	ProvideCompletions,
	ProvideStore,
	ProvidePublisher,
	ProvideRecorders,
	ProvideRouter,
	wire.Bind(new(handler.EventRouter), new(*router.Router)),
	server.NewServer,
	app.NewApp,
)

func provideGitHubConfig(cfg *config.Config) config.GitHubConfig {
	return cfg.GitHub
}

func provideSlogLogger(cfg *config.Config) (*slog.Logger, func()) {
	writer, cleanup := logger.OpenOutput(cfg.Logging)
	l := logger.NewLogger(cfg.Logging, writer)
	slog.SetDefault(l)
	return l, cleanup
}

// ProvideTokenBroker returns the installation token broker, wrapped in a
// cache when github.cache_tokens is set.
func ProvideTokenBroker(cfg config.GitHubConfig, logger *slog.Logger) core.TokenBroker {
	broker := github.NewBroker(cfg, github.NewIssuer(cfg), nil, logger)
	if !cfg.CacheTokens {
		return broker
	}
	logger.Info("installation token caching enabled", "refresh_skew", github.TokenRefreshSkew)
	return github.NewCachingBroker(broker, logger)
}

func ProvideCheckRunClient(cfg config.GitHubConfig, broker core.TokenBroker, logger *slog.Logger) core.CheckRunClient {
	return github.NewCheckRunClient(cfg, broker, nil, logger)
}

// ProvideCompletions starts the completion workers, or returns nil when
// checks.auto_complete is off.
func ProvideCompletions(cfg *config.Config, client core.CheckRunClient, recorders []core.OutcomeRecorder, logger *slog.Logger) core.JobDispatcher {
	if !cfg.Checks.AutoComplete {
		return nil
	}
	job := jobs.NewCompletionJob(jobs.PassRunner{}, client, logger, recorders...)
	return jobs.NewDispatcher(job, cfg.Checks.MaxWorkers, cfg.Checks.QueueSize, logger)
}

// ProvideStore opens the outcome database, or returns a nil Store when no
// database is configured.
func ProvideStore(cfg *config.Config, logger *slog.Logger) (storage.Store, func(), error) {
	if !cfg.Database.Enabled() {
		return nil, func() {}, nil
	}
	conn, cleanup, err := db.NewDatabase(&cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	return storage.NewStore(conn.DB), cleanup, nil
}

// ProvidePublisher connects the outcome publisher, or returns nil when no
// broker is configured.
func ProvidePublisher(cfg *config.Config, logger *slog.Logger) (*notify.Publisher, func(), error) {
	if !cfg.Notify.Enabled() {
		return nil, func() {}, nil
	}
	publisher, err := notify.NewPublisher(cfg.Notify, logger)
	if err != nil {
		return nil, nil, err
	}
	return publisher, func() {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close outcome publisher", "error", err)
		}
	}, nil
}

// ProvideRecorders collects the configured outcome recorders.
func ProvideRecorders(store storage.Store, publisher *notify.Publisher) []core.OutcomeRecorder {
	var recorders []core.OutcomeRecorder
	if store != nil {
		recorders = append(recorders, store)
	}
	if publisher != nil {
		recorders = append(recorders, publisher)
	}
	return recorders
}

// ProvideRouter routes deliveries for the configured App. Created check runs
// announced for other Apps are ignored.
func ProvideRouter(cfg config.GitHubConfig, client core.CheckRunClient, completions core.JobDispatcher, recorders []core.OutcomeRecorder, logger *slog.Logger) *router.Router {
	return router.New(client, completions, logger, recorders...).WithAppID(cfg.AppID)
}
