// Package router maps check suite deliveries onto check run transitions.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sevigo/dollar-ci/internal/core"
)

var ErrUnsupportedAction = errors.New("unsupported action")

// Result separates what the webhook sender is told from what happened on
// GitHub. Status is 200 for every recognised action, whether or not the
// transition went through; Outcome carries the GitHub result.
type Result struct {
	Status  int
	Outcome *core.Outcome
}

// Router selects and performs the check run transition for a delivery.
type Router struct {
	checkRuns   core.CheckRunClient
	completions core.JobDispatcher
	recorders   []core.OutcomeRecorder
	appID       int64
	logger      *slog.Logger
	now         func() time.Time
}

// New creates a Router. completions may be nil, in which case started check
// runs are left for an external system to complete.
func New(checkRuns core.CheckRunClient, completions core.JobDispatcher, logger *slog.Logger, recorders ...core.OutcomeRecorder) *Router {
	return &Router{
		checkRuns:   checkRuns,
		completions: completions,
		recorders:   recorders,
		logger:      logger,
		now:         time.Now,
	}
}

// WithAppID makes the router ignore check runs owned by other Apps.
func (r *Router) WithAppID(appID int64) *Router {
	r.appID = appID
	return r
}

// TransitionFor returns the transition an action triggers, or
// core.TransitionNone for actions the router ignores.
func TransitionFor(action string) core.Transition {
	switch action {
	case core.ActionRequested, core.ActionRerequested:
		return core.TransitionCreate
	case core.ActionCreated:
		return core.TransitionStart
	default:
		return core.TransitionNone
	}
}

// Dispatch performs at most one transition for event.
func (r *Router) Dispatch(ctx context.Context, event *core.WebhookEvent) Result {
	if event == nil {
		return Result{Status: http.StatusBadRequest}
	}

	outcome := &core.Outcome{
		DeliveryID:     event.DeliveryID,
		Action:         event.Action,
		Transition:     TransitionFor(event.Action),
		RepoFullName:   event.Repository.FullName,
		HeadSHA:        event.CheckSuite.HeadSHA,
		InstallationID: event.Installation.ID,
		CreatedAt:      r.now().UTC(),
	}
	log := r.logger.With(
		"delivery_id", event.DeliveryID,
		"action", event.Action,
		"repo", event.Repository.FullName,
		"installation_id", event.Installation.ID,
	)

	if outcome.Transition == core.TransitionStart {
		if reason := r.skipStart(event); reason != "" {
			log.Debug("not starting check run", "reason", reason, "status", event.CheckSuite.Status, "app_id", event.AppID)
			outcome.Transition = core.TransitionNone
			outcome.ResponseStatus = http.StatusOK
			r.record(ctx, log, outcome)
			return Result{Status: http.StatusOK, Outcome: outcome}
		}
	}

	var (
		status int
		err    error
	)
	switch outcome.Transition {
	case core.TransitionCreate:
		status, err = r.checkRuns.CreateCheckRun(ctx, event.Repository.FullName, event.CheckSuite.HeadSHA, event.Installation.ID)
	case core.TransitionStart:
		status, err = r.checkRuns.StartCheckRun(ctx, event.Repository.FullName, event.CheckSuite.HeadSHA, event.Installation.ID)
	default:
		log.Warn("ignoring delivery with unsupported action")
		outcome.Error = fmt.Errorf("%w: %q", ErrUnsupportedAction, event.Action).Error()
		outcome.ResponseStatus = http.StatusBadRequest
		r.record(ctx, log, outcome)
		return Result{Status: http.StatusBadRequest, Outcome: outcome}
	}

	outcome.GitHubStatus = status
	outcome.ResponseStatus = http.StatusOK
	if err != nil {
		outcome.Error = err.Error()
		log.Error("check run transition failed", "transition", outcome.Transition, "status_code", status, "error", err)
	} else {
		log.Info("check run transition done", "transition", outcome.Transition, "status_code", status)
		if outcome.Transition == core.TransitionStart && r.completions != nil {
			if err := r.completions.Dispatch(ctx, event); err != nil {
				log.Error("failed to queue check run completion", "error", err)
			}
		}
	}

	r.record(ctx, log, outcome)
	return Result{Status: http.StatusOK, Outcome: outcome}
}

// skipStart explains why a created check run must not be started, or
// returns "". Starting and completing post new check runs, and GitHub
// announces each of them with another created delivery; only queued runs of
// this App are started so those deliveries end here.
func (r *Router) skipStart(event *core.WebhookEvent) string {
	if event.CheckSuite.Status != "" && event.CheckSuite.Status != core.StatusQueued {
		return "check run is not queued"
	}
	if r.appID != 0 && event.AppID != 0 && event.AppID != r.appID {
		return "check run belongs to another app"
	}
	return ""
}

func (r *Router) record(ctx context.Context, log *slog.Logger, outcome *core.Outcome) {
	for _, rec := range r.recorders {
		if err := rec.RecordOutcome(ctx, outcome); err != nil {
			log.Warn("failed to record outcome", "error", err)
		}
	}
}
