// Package handler provides the HTTP handlers of the dollar-ci service.
package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/go-github/v73/github"

	"github.com/sevigo/dollar-ci/internal/config"
	"github.com/sevigo/dollar-ci/internal/core"
	"github.com/sevigo/dollar-ci/internal/router"
)

const (
	eventPing       = "ping"
	eventCheckRun   = "check_run"
	eventCheckSuite = "check_suite"

	maxPayloadBytes = 25 << 20
)

// EventRouter performs the check run transition for a decoded delivery.
type EventRouter interface {
	Dispatch(ctx context.Context, event *core.WebhookEvent) router.Result
}

// WebhookHandler processes incoming webhooks from GitHub.
type WebhookHandler struct {
	secret  []byte
	timeout time.Duration
	router  EventRouter
	logger  *slog.Logger
}

// NewWebhookHandler creates a new webhook handler. Signatures are verified
// only when cfg carries a webhook secret.
func NewWebhookHandler(cfg config.GitHubConfig, rt EventRouter, logger *slog.Logger) *WebhookHandler {
	if cfg.WebhookSecret == "" {
		logger.Warn("no webhook secret configured, deliveries are not authenticated")
	}
	return &WebhookHandler{
		secret:  []byte(cfg.WebhookSecret),
		timeout: cfg.RequestTimeout,
		router:  rt,
		logger:  logger,
	}
}

// Handle processes GitHub webhook requests.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	eventType := github.WebHookType(r)
	deliveryID := github.DeliveryID(r)
	log := h.logger.With("event", eventType, "delivery_id", deliveryID)

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		log.Error("could not read webhook body", "error", err)
		http.Error(w, "Could not read body", http.StatusBadRequest)
		return
	}

	if len(h.secret) > 0 {
		if err := github.ValidateSignature(signature(r), payload, h.secret); err != nil {
			log.Error("invalid webhook payload signature", "error", err)
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}
	}

	if eventType == eventPing {
		log.Info("received ping")
		_, _ = fmt.Fprint(w, "pong")
		return
	}

	event, err := decode(eventType, payload)
	if err != nil {
		log.Error("could not parse webhook", "error", err)
		http.Error(w, "Could not parse webhook", http.StatusBadRequest)
		return
	}
	event.DeliveryID = deliveryID
	event.EventType = eventType

	// GitHub does not wait for the lifecycle calls, so they must not be
	// cut short when it hangs up.
	ctx := context.WithoutCancel(r.Context())
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result := h.router.Dispatch(ctx, event)
	w.WriteHeader(result.Status)
	_, _ = fmt.Fprint(w, http.StatusText(result.Status))
}

func decode(eventType string, payload []byte) (*core.WebhookEvent, error) {
	switch eventType {
	case eventCheckRun:
		parsed, err := github.ParseWebHook(eventType, payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrMalformedEvent, err)
		}
		run, ok := parsed.(*github.CheckRunEvent)
		if !ok {
			return nil, errors.New("unexpected check_run payload type")
		}
		return core.EventFromCheckRun(run)
	case eventCheckSuite, "":
		return core.ParseCheckSuiteEvent(payload)
	default:
		return nil, fmt.Errorf("%w: unhandled event type %q", core.ErrMalformedEvent, eventType)
	}
}

func signature(r *http.Request) string {
	if sig := r.Header.Get(github.SHA256SignatureHeader); sig != "" {
		return sig
	}
	return r.Header.Get(github.SHA1SignatureHeader)
}
