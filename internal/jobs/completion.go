package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sevigo/dollar-ci/internal/core"
)

// CompletionJob runs the checks for a started check run and reports the
// result back to GitHub.
type CompletionJob struct {
	runner    core.CheckRunner
	checkRuns core.CheckRunClient
	recorders []core.OutcomeRecorder
	logger    *slog.Logger
	now       func() time.Time
}

// NewCompletionJob creates a CompletionJob. A nil runner means every check
// passes. Every completion attempt is handed to the recorders.
func NewCompletionJob(runner core.CheckRunner, checkRuns core.CheckRunClient, logger *slog.Logger, recorders ...core.OutcomeRecorder) core.Job {
	if checkRuns == nil {
		panic("check run client cannot be nil")
	}
	if runner == nil {
		runner = PassRunner{}
	}
	return &CompletionJob{
		runner:    runner,
		checkRuns: checkRuns,
		recorders: recorders,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes the checks and completes the check run. A runner error is
// reported to GitHub as a failure conclusion.
func (j *CompletionJob) Run(ctx context.Context, event *core.WebhookEvent) error {
	success, err := j.runner.Run(ctx, event)
	if err != nil {
		j.logger.Warn("check runner failed, concluding as failure",
			"repo", event.Repository.FullName,
			"head_sha", event.CheckSuite.HeadSHA,
			"error", err,
		)
		success = false
	}

	status, err := j.checkRuns.CompleteCheckRun(ctx, event.Repository.FullName, event.CheckSuite.HeadSHA, success, event.Installation.ID)
	j.record(ctx, event, status, err)
	if err != nil {
		return fmt.Errorf("complete check run for %s@%s: %w", event.Repository.FullName, event.CheckSuite.HeadSHA, err)
	}

	j.logger.Info("check run completed",
		"repo", event.Repository.FullName,
		"head_sha", event.CheckSuite.HeadSHA,
		"conclusion", core.Conclusion(success),
		"status_code", status,
	)
	return nil
}

func (j *CompletionJob) record(ctx context.Context, event *core.WebhookEvent, status int, err error) {
	if len(j.recorders) == 0 {
		return
	}
	outcome := &core.Outcome{
		DeliveryID:     event.DeliveryID,
		Action:         event.Action,
		Transition:     core.TransitionComplete,
		RepoFullName:   event.Repository.FullName,
		HeadSHA:        event.CheckSuite.HeadSHA,
		InstallationID: event.Installation.ID,
		GitHubStatus:   status,
		CreatedAt:      j.now().UTC(),
	}
	if err != nil {
		outcome.Error = err.Error()
	}
	for _, rec := range j.recorders {
		if rerr := rec.RecordOutcome(ctx, outcome); rerr != nil {
			j.logger.Warn("failed to record outcome",
				"repo", event.Repository.FullName,
				"transition", outcome.Transition,
				"error", rerr,
			)
		}
	}
}

// PassRunner reports success for every commit without running anything.
type PassRunner struct{}

func (PassRunner) Run(context.Context, *core.WebhookEvent) (bool, error) {
	return true, nil
}
