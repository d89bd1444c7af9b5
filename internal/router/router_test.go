package router

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sevigo/dollar-ci/internal/core"
	"github.com/sevigo/dollar-ci/mocks"
)

type memoryRecorder struct {
	mu       sync.Mutex
	outcomes []*core.Outcome
	err      error
}

func (m *memoryRecorder) RecordOutcome(_ context.Context, outcome *core.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
	return m.err
}

func newEvent(action string) *core.WebhookEvent {
	return &core.WebhookEvent{
		Action:       action,
		CheckSuite:   core.CheckSuite{ID: 1, HeadSHA: "deadbeef"},
		Repository:   core.Repository{FullName: "org/repo"},
		Installation: core.Installation{ID: 42},
		DeliveryID:   "delivery-1",
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRouter_RequestedActionsCreate(t *testing.T) {
	for _, action := range []string{core.ActionRequested, core.ActionRerequested} {
		t.Run(action, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := mocks.NewMockCheckRunClient(ctrl)
			client.EXPECT().
				CreateCheckRun(gomock.Any(), "org/repo", "deadbeef", int64(42)).
				Return(http.StatusCreated, nil).
				Times(1)

			result := New(client, nil, discardLogger()).Dispatch(context.Background(), newEvent(action))

			assert.Equal(t, http.StatusOK, result.Status)
			require.NotNil(t, result.Outcome)
			assert.Equal(t, core.TransitionCreate, result.Outcome.Transition)
			assert.Equal(t, http.StatusCreated, result.Outcome.GitHubStatus)
			assert.True(t, result.Outcome.Succeeded())
		})
	}
}

func TestRouter_CreatedStartsOnceEvenOnFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockCheckRunClient(ctrl)
	client.EXPECT().
		StartCheckRun(gomock.Any(), "org/repo", "deadbeef", int64(42)).
		Return(http.StatusUnprocessableEntity, errors.New("github api rejected the request")).
		Times(1)
	completions := mocks.NewMockJobDispatcher(ctrl)

	result := New(client, completions, discardLogger()).Dispatch(context.Background(), newEvent(core.ActionCreated))

	assert.Equal(t, http.StatusOK, result.Status)
	assert.Equal(t, core.TransitionStart, result.Outcome.Transition)
	assert.Equal(t, http.StatusUnprocessableEntity, result.Outcome.GitHubStatus)
	assert.Contains(t, result.Outcome.Error, "rejected")
	assert.False(t, result.Outcome.Succeeded())
}

func TestRouter_SuccessfulStartQueuesCompletion(t *testing.T) {
	ctrl := gomock.NewController(t)
	event := newEvent(core.ActionCreated)
	client := mocks.NewMockCheckRunClient(ctrl)
	client.EXPECT().StartCheckRun(gomock.Any(), "org/repo", "deadbeef", int64(42)).Return(http.StatusCreated, nil)
	completions := mocks.NewMockJobDispatcher(ctrl)
	completions.EXPECT().Dispatch(gomock.Any(), event).Return(nil).Times(1)

	result := New(client, completions, discardLogger()).Dispatch(context.Background(), event)
	assert.Equal(t, http.StatusOK, result.Status)
}

func TestRouter_FullQueueKeepsStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockCheckRunClient(ctrl)
	client.EXPECT().StartCheckRun(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(http.StatusCreated, nil)
	completions := mocks.NewMockJobDispatcher(ctrl)
	completions.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Return(errors.New("job queue is full"))

	result := New(client, completions, discardLogger()).Dispatch(context.Background(), newEvent(core.ActionCreated))
	assert.Equal(t, http.StatusOK, result.Status)
	assert.True(t, result.Outcome.Succeeded())
}

func TestRouter_UnknownActionIsRejected(t *testing.T) {
	for _, action := range []string{"unknown", "completed", ""} {
		t.Run(action, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := mocks.NewMockCheckRunClient(ctrl)
			completions := mocks.NewMockJobDispatcher(ctrl)
			recorder := &memoryRecorder{}

			result := New(client, completions, discardLogger(), recorder).Dispatch(context.Background(), newEvent(action))

			assert.Equal(t, http.StatusBadRequest, result.Status)
			assert.Equal(t, core.TransitionNone, result.Outcome.Transition)
			assert.Zero(t, result.Outcome.GitHubStatus)
			require.Len(t, recorder.outcomes, 1)
			assert.Equal(t, http.StatusBadRequest, recorder.outcomes[0].ResponseStatus)
		})
	}
}

func TestRouter_NilEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	result := New(mocks.NewMockCheckRunClient(ctrl), nil, discardLogger()).Dispatch(context.Background(), nil)
	assert.Equal(t, http.StatusBadRequest, result.Status)
	assert.Nil(t, result.Outcome)
}

func TestRouter_RecordsOutcomes(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockCheckRunClient(ctrl)
	client.EXPECT().CreateCheckRun(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(http.StatusCreated, nil)

	ok := &memoryRecorder{}
	failing := &memoryRecorder{err: errors.New("database is down")}
	result := New(client, nil, discardLogger(), failing, ok).Dispatch(context.Background(), newEvent(core.ActionRequested))

	assert.Equal(t, http.StatusOK, result.Status)
	require.Len(t, ok.outcomes, 1)
	require.Len(t, failing.outcomes, 1)

	got := ok.outcomes[0]
	assert.Equal(t, "delivery-1", got.DeliveryID)
	assert.Equal(t, "org/repo", got.RepoFullName)
	assert.Equal(t, "deadbeef", got.HeadSHA)
	assert.Equal(t, int64(42), got.InstallationID)
	assert.Equal(t, http.StatusOK, got.ResponseStatus)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestTransitionFor(t *testing.T) {
	assert.Equal(t, core.TransitionCreate, TransitionFor("requested"))
	assert.Equal(t, core.TransitionCreate, TransitionFor("rerequested"))
	assert.Equal(t, core.TransitionStart, TransitionFor("created"))
	assert.Equal(t, core.TransitionNone, TransitionFor("Requested"))
}

func TestRouter_CreatedOnlyStartsQueuedRuns(t *testing.T) {
	tests := []struct {
		name   string
		status string
		appID  int64
		starts int
	}{
		{name: "queued run of this app", status: core.StatusQueued, appID: 61447, starts: 1},
		{name: "no status", status: "", starts: 1},
		{name: "in progress run", status: core.StatusInProgress, appID: 61447},
		{name: "completed run", status: core.StatusCompleted, appID: 61447},
		{name: "queued run of another app", status: core.StatusQueued, appID: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := mocks.NewMockCheckRunClient(ctrl)
			client.EXPECT().
				StartCheckRun(gomock.Any(), "org/repo", "deadbeef", int64(42)).
				Return(http.StatusCreated, nil).
				Times(tt.starts)
			completions := mocks.NewMockJobDispatcher(ctrl)
			completions.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Return(nil).Times(tt.starts)

			event := newEvent(core.ActionCreated)
			event.EventType = "check_run"
			event.CheckSuite.Status = tt.status
			event.AppID = tt.appID

			rt := New(client, completions, discardLogger()).WithAppID(61447)
			result := rt.Dispatch(context.Background(), event)

			assert.Equal(t, http.StatusOK, result.Status)
			if tt.starts == 0 {
				assert.Equal(t, core.TransitionNone, result.Outcome.Transition)
			} else {
				assert.Equal(t, core.TransitionStart, result.Outcome.Transition)
			}
		})
	}
}
