package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sevigo/dollar-ci/internal/config"
)

// InstallationToken is an access token scoped to one installation.
type InstallationToken struct {
	Token          string
	InstallationID int64
	ExpiresAt      time.Time
}

// Broker exchanges a freshly signed App assertion for an installation token
// on every call. It does not cache; see CachingBroker.
type Broker struct {
	issuer    *Issuer
	api       apiConfig
	transport http.RoundTripper
	logger    *slog.Logger
}

// NewBroker creates a Broker that signs assertions with issuer. A nil
// transport uses http.DefaultTransport.
func NewBroker(cfg config.GitHubConfig, issuer *Issuer, transport http.RoundTripper, logger *slog.Logger) *Broker {
	return &Broker{
		issuer:    issuer,
		api:       apiConfig{baseURL: cfg.APIBaseURL, userAgent: cfg.UserAgent},
		transport: transport,
		logger:    logger,
	}
}

// InstallationToken returns a new token for installationID, using name as
// the assertion subject.
func (b *Broker) InstallationToken(ctx context.Context, name string, installationID int64) (string, error) {
	token, err := b.Exchange(ctx, name, installationID)
	if err != nil {
		return "", err
	}
	return token.Token, nil
}

// Exchange performs the assertion + access token round trip and also returns
// the expiry GitHub reported.
func (b *Broker) Exchange(ctx context.Context, name string, installationID int64) (*InstallationToken, error) {
	const op = "create installation token"

	assertion, err := b.issuer.Issue(name)
	if err != nil {
		b.logger.Error("failed to issue app assertion", "installation_id", installationID, "error", err)
		return nil, err
	}

	rt := &headerTransport{
		base:    authTransport(b.transport, schemeBearer, assertion.Token),
		headers: map[string]string{"Accept": machineManPreview},
	}
	client, err := newAPIClient(rt, b.api)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	token, resp, err := client.Apps.CreateInstallationToken(ctx, installationID, nil)
	if err = classify(op, resp, err); err != nil {
		b.logger.Error("installation token exchange failed", "installation_id", installationID, "error", err)
		return nil, err
	}
	if token.GetToken() == "" {
		return nil, fmt.Errorf("%s: %w: token field is empty", op, ErrResponseParse)
	}

	b.logger.Debug("installation token issued", "installation_id", installationID, "expires_at", token.GetExpiresAt())
	return &InstallationToken{
		Token:          token.GetToken(),
		InstallationID: installationID,
		ExpiresAt:      token.GetExpiresAt().Time,
	}, nil
}
