package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/dollar-ci/internal/core"
)

type countingJob struct {
	runs    atomic.Int32
	block   chan struct{}
	started chan struct{}
	once    sync.Once
	err     error
}

func (j *countingJob) Run(context.Context, *core.WebhookEvent) error {
	if j.started != nil {
		j.once.Do(func() { close(j.started) })
	}
	if j.block != nil {
		<-j.block
	}
	j.runs.Add(1)
	return j.err
}

func TestDispatcher_RunsQueuedJobs(t *testing.T) {
	job := &countingJob{}
	d := NewDispatcher(job, 3, 10, discardLogger())

	for range 5 {
		require.NoError(t, d.Dispatch(context.Background(), startedEvent()))
	}
	d.Stop()

	assert.Equal(t, int32(5), job.runs.Load())
}

func TestDispatcher_FailedJobsDoNotStopWorkers(t *testing.T) {
	job := &countingJob{err: errors.New("boom")}
	d := NewDispatcher(job, 1, 10, discardLogger())

	for range 3 {
		require.NoError(t, d.Dispatch(context.Background(), startedEvent()))
	}
	d.Stop()

	assert.Equal(t, int32(3), job.runs.Load())
}

func TestDispatcher_FullQueueFailsFast(t *testing.T) {
	job := &countingJob{block: make(chan struct{}), started: make(chan struct{})}
	d := NewDispatcher(job, 1, 1, discardLogger())

	// The single worker holds the first event, the queue holds the second.
	require.NoError(t, d.Dispatch(context.Background(), startedEvent()))
	<-job.started
	require.NoError(t, d.Dispatch(context.Background(), startedEvent()))

	err := d.Dispatch(context.Background(), startedEvent())
	assert.ErrorIs(t, err, ErrQueueFull)

	close(job.block)
	d.Stop()
	assert.Equal(t, int32(2), job.runs.Load())
}

func TestDispatcher_StopIsIdempotent(t *testing.T) {
	d := NewDispatcher(&countingJob{}, 0, 0, discardLogger())
	d.Stop()
	assert.NotPanics(t, d.Stop)
}

func TestDispatcher_DispatchAfterStop(t *testing.T) {
	job := &countingJob{}
	d := NewDispatcher(job, 2, 4, discardLogger())
	d.Stop()

	assert.NotPanics(t, func() {
		err := d.Dispatch(context.Background(), startedEvent())
		assert.ErrorIs(t, err, ErrDispatcherStopped)
	})
	assert.Zero(t, job.runs.Load())
}

func TestDispatcher_ConcurrentDispatchAndStop(t *testing.T) {
	d := NewDispatcher(&countingJob{}, 2, 64, discardLogger())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 16 {
				err := d.Dispatch(context.Background(), startedEvent())
				if err != nil {
					assert.True(t, errors.Is(err, ErrDispatcherStopped) || errors.Is(err, ErrQueueFull), err)
				}
			}
		}()
	}
	d.Stop()
	wg.Wait()
}
