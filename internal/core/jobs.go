package core

import (
	"context"
)

// JobDispatcher defines the contract for a system that can accept and queue
// background jobs for asynchronous processing. This interface decouples the
// webhook router from the goroutines that finish a check run.
//
//go:generate mockgen -destination=../../mocks/mock_job_dispatcher.go -package=mocks . JobDispatcher
type JobDispatcher interface {
	// Dispatch accepts a WebhookEvent and queues it for processing.
	// It returns an error if the job cannot be queued, for example, if the
	// queue is full, providing a mechanism for backpressure.
	Dispatch(ctx context.Context, event *WebhookEvent) error
	// Stop waits for queued jobs to finish.
	Stop()
}

// Job represents a single, executable unit of work that can be processed by the
// application's job dispatcher.
type Job interface {
	Run(ctx context.Context, event *WebhookEvent) error
}
