package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/dollar-ci/internal/config"
	"github.com/sevigo/dollar-ci/internal/core"
	"github.com/sevigo/dollar-ci/internal/router"
)

type countingRouter struct {
	calls atomic.Int32
}

func (c *countingRouter) Dispatch(context.Context, *core.WebhookEvent) router.Result {
	c.calls.Add(1)
	return router.Result{Status: http.StatusOK}
}

func newTestServer(t *testing.T) (*httptest.Server, *countingRouter) {
	t.Helper()
	events := &countingRouter{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(NewRouter(&config.Config{}, events, logger))
	t.Cleanup(srv.Close)
	return srv, events
}

func TestRouter_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestRouter_WebhookPaths(t *testing.T) {
	srv, events := newTestServer(t)

	for _, path := range []string{"/", "/api/v1/webhook/github"} {
		req, err := http.NewRequest(http.MethodPost, srv.URL+path, strings.NewReader(`{"action":"requested"}`))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-GitHub-Event", "check_suite")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
	assert.Equal(t, int32(2), events.calls.Load())
}

func TestRouter_WebhookRejectsGet(t *testing.T) {
	srv, events := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/webhook/github")
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Zero(t, events.calls.Load())
}
