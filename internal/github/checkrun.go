package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v73/github"

	"github.com/sevigo/dollar-ci/internal/config"
	"github.com/sevigo/dollar-ci/internal/core"
)

// CheckRunClient drives check runs through their lifecycle. Every call
// fetches its own installation token from the broker and posts a new check
// run to /repos/{owner}/{repo}/check-runs; nothing is remembered between
// calls, so repeating a call repeats the POST.
type CheckRunClient struct {
	broker    core.TokenBroker
	subject   string
	api       apiConfig
	transport http.RoundTripper
	logger    *slog.Logger
	now       func() time.Time
}

// NewCheckRunClient creates a client that authenticates through broker using
// the configured App name as assertion subject.
func NewCheckRunClient(cfg config.GitHubConfig, broker core.TokenBroker, transport http.RoundTripper, logger *slog.Logger) *CheckRunClient {
	return &CheckRunClient{
		broker:    broker,
		subject:   cfg.AppName,
		api:       apiConfig{baseURL: cfg.APIBaseURL, userAgent: cfg.UserAgent},
		transport: transport,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateCheckRun registers a queued check run named after the repository.
func (c *CheckRunClient) CreateCheckRun(ctx context.Context, fullName, headSHA string, installationID int64) (int, error) {
	return c.post(ctx, "create check run", fullName, installationID, github.CreateCheckRunOptions{
		Name:    fullName,
		HeadSHA: headSHA,
	})
}

// StartCheckRun posts an in_progress check run started now.
func (c *CheckRunClient) StartCheckRun(ctx context.Context, fullName, headSHA string, installationID int64) (int, error) {
	return c.post(ctx, "start check run", fullName, installationID, github.CreateCheckRunOptions{
		Name:      fullName,
		HeadSHA:   headSHA,
		Status:    github.Ptr(core.StatusInProgress),
		StartedAt: c.timestamp(),
	})
}

// CompleteCheckRun posts a completed check run concluded as success or failure.
func (c *CheckRunClient) CompleteCheckRun(ctx context.Context, fullName, headSHA string, success bool, installationID int64) (int, error) {
	return c.post(ctx, "complete check run", fullName, installationID, github.CreateCheckRunOptions{
		Name:        fullName,
		HeadSHA:     headSHA,
		Status:      github.Ptr(core.StatusCompleted),
		Conclusion:  github.Ptr(core.Conclusion(success)),
		CompletedAt: c.timestamp(),
	})
}

func (c *CheckRunClient) post(ctx context.Context, op, fullName string, installationID int64, opts github.CreateCheckRunOptions) (int, error) {
	owner, repo, err := SplitFullName(fullName)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	token, err := c.broker.InstallationToken(ctx, c.subject, installationID)
	if err != nil {
		c.logger.Error("failed to obtain installation token", "op", op, "repo", fullName, "installation_id", installationID, "error", err)
		return 0, err
	}

	client, err := newAPIClient(authTransport(c.transport, schemeToken, token), c.api)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	_, resp, err := client.Checks.CreateCheckRun(ctx, owner, repo, opts)
	if err = classify(op, resp, err); err != nil {
		c.logger.Error("check run request failed", "op", op, "repo", fullName, "head_sha", opts.HeadSHA, "error", err)
		c.dropRevokedToken(installationID, err)
		return statusOf(resp), err
	}

	c.logger.Info("check run request accepted", "op", op, "repo", fullName, "head_sha", opts.HeadSHA, "status_code", resp.StatusCode)
	return resp.StatusCode, nil
}

// tokenInvalidator is implemented by brokers that keep tokens between calls.
type tokenInvalidator interface {
	Invalidate(installationID int64)
}

// dropRevokedToken evicts the installation token GitHub refused so the next
// call exchanges a new one.
func (c *CheckRunClient) dropRevokedToken(installationID int64, err error) {
	var remote *RemoteError
	if !errors.As(err, &remote) || remote.StatusCode != http.StatusUnauthorized {
		return
	}
	if inv, ok := c.broker.(tokenInvalidator); ok {
		c.logger.Warn("installation token rejected, dropping cached token", "installation_id", installationID)
		inv.Invalidate(installationID)
	}
}

// timestamp is the current UTC time at second precision.
func (c *CheckRunClient) timestamp() *github.Timestamp {
	return &github.Timestamp{Time: c.now().UTC().Truncate(time.Second)}
}

// SplitFullName splits "owner/repo" into its parts.
func SplitFullName(fullName string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRepository, fullName)
	}
	return owner, repo, nil
}

func statusOf(resp *github.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}

var (
	_ core.CheckRunClient = (*CheckRunClient)(nil)
	_ core.TokenBroker    = (*Broker)(nil)
	_ core.TokenBroker    = (*CachingBroker)(nil)
)
