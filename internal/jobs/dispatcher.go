// Package jobs runs check run completions in the background.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/sevigo/dollar-ci/internal/core"
)

var (
	ErrQueueFull         = errors.New("job queue is full")
	ErrDispatcherStopped = errors.New("dispatcher is stopped")
)

// DefaultQueueSize is used when NewDispatcher is given a non-positive size.
const DefaultQueueSize = 100

// dispatcher implements core.JobDispatcher and manages a pool of worker goroutines
// that run a job for every queued event.
type dispatcher struct {
	job        core.Job                // Job implementation executed by each worker.
	jobQueue   chan *core.WebhookEvent // Queue of started check runs.
	maxWorkers int                     // Number of concurrent workers.
	wg         sync.WaitGroup          // Tracks active workers for graceful shutdown.
	stopOnce   sync.Once
	mu         sync.RWMutex // Guards stopped and the close of jobQueue.
	stopped    bool
	logger     *slog.Logger
}

// NewDispatcher initializes a dispatcher with a worker pool.
// If maxWorkers is 0 or negative, it defaults to 1.
func NewDispatcher(job core.Job, maxWorkers, queueSize int, logger *slog.Logger) core.JobDispatcher {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	d := &dispatcher{
		job:        job,
		maxWorkers: maxWorkers,
		jobQueue:   make(chan *core.WebhookEvent, queueSize),
		logger:     logger,
	}
	d.startWorkers()
	return d
}

func (d *dispatcher) startWorkers() {
	for i := range d.maxWorkers {
		d.wg.Add(1)
		go d.startWorker(i)
	}
}

// startWorker processes events from the queue until it's closed.
func (d *dispatcher) startWorker(workerID int) {
	defer d.wg.Done()
	d.logger.Debug("starting completion worker", "id", workerID)

	for event := range d.jobQueue {
		d.processEvent(workerID, event)
	}

	d.logger.Debug("shutting down completion worker", "id", workerID)
}

func (d *dispatcher) processEvent(workerID int, event *core.WebhookEvent) {
	d.logger.Info("worker processing job",
		"worker_id", workerID,
		"repo", event.Repository.FullName,
		"head_sha", event.CheckSuite.HeadSHA,
	)

	if err := d.job.Run(context.Background(), event); err != nil {
		d.logger.Error("completion job failed",
			"repo", event.Repository.FullName,
			"head_sha", event.CheckSuite.HeadSHA,
			"error", err,
		)
	}
}

// Dispatch queues an event for processing by a worker. It never blocks and
// returns ErrDispatcherStopped once Stop has been called.
func (d *dispatcher) Dispatch(_ context.Context, event *core.WebhookEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		d.logger.Warn("dropping check run completion after shutdown", "repo", event.Repository.FullName, "head_sha", event.CheckSuite.HeadSHA)
		return ErrDispatcherStopped
	}

	d.logger.Info("queuing check run completion", "repo", event.Repository.FullName, "head_sha", event.CheckSuite.HeadSHA)
	select {
	case d.jobQueue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop gracefully shuts down the dispatcher, waiting for all workers to finish.
func (d *dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.logger.Info("stopping dispatcher and waiting for jobs to finish")
		d.mu.Lock()
		d.stopped = true
		close(d.jobQueue)
		d.mu.Unlock()
		d.wg.Wait()
		d.logger.Info("all completion jobs have finished")
	})
}
