package github

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExchanger struct {
	calls   atomic.Int32
	ttl     time.Duration
	now     func() time.Time
	err     error
	release chan struct{}
}

func (f *fakeExchanger) Exchange(_ context.Context, _ string, installationID int64) (*InstallationToken, error) {
	n := f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return &InstallationToken{
		Token:          fmt.Sprintf("token-%d-%d", installationID, n),
		InstallationID: installationID,
		ExpiresAt:      f.now().Add(f.ttl),
	}, nil
}

func TestCachingBroker_ReusesUntilExpiry(t *testing.T) {
	clock := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }
	exchanger := &fakeExchanger{ttl: time.Hour, now: now}
	cache := NewCachingBroker(exchanger, discardLogger())
	cache.now = now

	first, err := cache.InstallationToken(context.Background(), "dollar-ci", 42)
	require.NoError(t, err)
	second, err := cache.InstallationToken(context.Background(), "dollar-ci", 42)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), exchanger.calls.Load())

	// Inside the refresh skew the token is treated as expired.
	clock = clock.Add(time.Hour - TokenRefreshSkew)
	third, err := cache.InstallationToken(context.Background(), "dollar-ci", 42)
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
	assert.Equal(t, int32(2), exchanger.calls.Load())
}

func TestCachingBroker_KeyedByInstallation(t *testing.T) {
	exchanger := &fakeExchanger{ttl: time.Hour, now: time.Now}
	cache := NewCachingBroker(exchanger, discardLogger())

	a, err := cache.InstallationToken(context.Background(), "dollar-ci", 1)
	require.NoError(t, err)
	b, err := cache.InstallationToken(context.Background(), "dollar-ci", 2)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, int32(2), exchanger.calls.Load())
}

func TestCachingBroker_SingleFlight(t *testing.T) {
	exchanger := &fakeExchanger{ttl: time.Hour, now: time.Now, release: make(chan struct{})}
	cache := NewCachingBroker(exchanger, discardLogger())

	const callers = 8
	var wg sync.WaitGroup
	results := make([]string, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := cache.InstallationToken(context.Background(), "dollar-ci", 42)
			assert.NoError(t, err)
			results[i] = token
		}()
	}

	require.Eventually(t, func() bool { return exchanger.calls.Load() == 1 }, time.Second, time.Millisecond)
	// Give the remaining callers time to join the in-flight exchange.
	time.Sleep(20 * time.Millisecond)
	close(exchanger.release)
	wg.Wait()

	assert.Equal(t, int32(1), exchanger.calls.Load())
	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
}

func TestCachingBroker_ErrorsAreNotCached(t *testing.T) {
	exchanger := &fakeExchanger{ttl: time.Hour, now: time.Now, err: &RemoteError{Op: "create installation token", StatusCode: 401}}
	cache := NewCachingBroker(exchanger, discardLogger())

	_, err := cache.InstallationToken(context.Background(), "dollar-ci", 42)
	assert.True(t, errors.Is(err, ErrRemoteRejected))

	exchanger.err = nil
	token, err := cache.InstallationToken(context.Background(), "dollar-ci", 42)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, int32(2), exchanger.calls.Load())
}

func TestCachingBroker_Invalidate(t *testing.T) {
	exchanger := &fakeExchanger{ttl: time.Hour, now: time.Now}
	cache := NewCachingBroker(exchanger, discardLogger())

	_, err := cache.InstallationToken(context.Background(), "dollar-ci", 42)
	require.NoError(t, err)
	cache.Invalidate(42)
	_, err = cache.InstallationToken(context.Background(), "dollar-ci", 42)
	require.NoError(t, err)

	assert.Equal(t, int32(2), exchanger.calls.Load())
}
