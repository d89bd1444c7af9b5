//go:build wireinject
// +build wireinject

package wire

import (
	"context"
	"log/slog"

	"github.com/google/wire"

	"github.com/sevigo/dollar-ci/internal/app"
	"github.com/sevigo/dollar-ci/internal/config"
	"github.com/sevigo/dollar-ci/internal/core"
	"github.com/sevigo/dollar-ci/internal/storage"
)

func InitializeApp(ctx context.Context) (*app.App, func(), error) {
	wire.Build(AppSet)
	return &app.App{}, nil, nil
}

func InitializeCheckRunClient(cfg *config.Config, logger *slog.Logger) core.CheckRunClient {
	wire.Build(GitHubSet)
	return nil
}

func InitializeTokenBroker(cfg *config.Config, logger *slog.Logger) core.TokenBroker {
	wire.Build(provideGitHubConfig, ProvideTokenBroker)
	return nil
}

func InitializeStore(cfg *config.Config, logger *slog.Logger) (storage.Store, func(), error) {
	wire.Build(ProvideStore)
	return nil, nil, nil
}
