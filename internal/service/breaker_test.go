package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proscan/docsync/internal/config"
	"github.com/proscan/docsync/internal/logger"
)

var errRemoteDown = errors.New("remote down")

func newTestBreaker(clock Clock) *CircuitBreaker {
	return NewCircuitBreaker(config.Sync{
		FailureThreshold: 5,
		RecoveryTimeout:  60 * time.Second,
		OperationTimeout: 30 * time.Second,
	}, clock, logger.Nop())
}

func failNTimes(t *testing.T, breaker *CircuitBreaker, service string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		err := breaker.Execute(context.Background(), service, func(context.Context) error {
			return errRemoteDown
		})
		require.ErrorIs(t, err, errRemoteDown)
	}
}

func TestCircuitBreaker_OpensAtThreshold(t *testing.T) {
	clock := NewManualClock(testStart())
	breaker := newTestBreaker(clock)

	failNTimes(t, breaker, ServiceBackend, 5)
	assert.Equal(t, CircuitOpen, breaker.State(ServiceBackend))

	// The 6th call is rejected without invoking the operation.
	invoked := false
	err := breaker.Execute(context.Background(), ServiceBackend, func(context.Context) error {
		invoked = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, invoked)
}

func TestCircuitBreaker_HalfOpenTrialSuccessCloses(t *testing.T) {
	clock := NewManualClock(testStart())
	breaker := newTestBreaker(clock)

	failNTimes(t, breaker, ServiceBackend, 5)
	clock.Advance(60 * time.Second)
	require.Equal(t, CircuitHalfOpen, breaker.State(ServiceBackend))

	err := breaker.Execute(context.Background(), ServiceBackend, func(context.Context) error {
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, CircuitClosed, breaker.State(ServiceBackend))

	// Closed again: a single failure does not re-open, the counter was
	// reset by the successful trial.
	failNTimes(t, breaker, ServiceBackend, 1)
	assert.Equal(t, CircuitClosed, breaker.State(ServiceBackend))
}

func TestCircuitBreaker_HalfOpenTrialFailureReopens(t *testing.T) {
	clock := NewManualClock(testStart())
	breaker := newTestBreaker(clock)

	failNTimes(t, breaker, ServiceBackend, 5)
	clock.Advance(60 * time.Second)

	failNTimes(t, breaker, ServiceBackend, 1)
	assert.Equal(t, CircuitOpen, breaker.State(ServiceBackend))

	// The recovery window restarts from the trial failure.
	clock.Advance(30 * time.Second)
	err := breaker.Execute(context.Background(), ServiceBackend, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_HalfOpenAdmitsSingleTrial(t *testing.T) {
	clock := NewManualClock(testStart())
	breaker := newTestBreaker(clock)

	failNTimes(t, breaker, ServiceBackend, 5)
	clock.Advance(60 * time.Second)

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = breaker.Execute(context.Background(), ServiceBackend, func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	// A second call while the trial is in flight is rejected.
	err := breaker.Execute(context.Background(), ServiceBackend, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	close(release)
}

func TestCircuitBreaker_ServicesAreIndependent(t *testing.T) {
	clock := NewManualClock(testStart())
	breaker := newTestBreaker(clock)

	failNTimes(t, breaker, ServiceBackend, 5)

	err := breaker.Execute(context.Background(), ServiceObjectStorage, func(context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestCircuitBreaker_OperationTimeoutCountsAsFailure(t *testing.T) {
	clock := NewManualClock(testStart())
	breaker := NewCircuitBreaker(config.Sync{
		FailureThreshold: 1,
		RecoveryTimeout:  60 * time.Second,
		OperationTimeout: 10 * time.Millisecond,
	}, clock, logger.Nop())

	err := breaker.Execute(context.Background(), ServiceBackend, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.Error(t, err)
	assert.Equal(t, CircuitOpen, breaker.State(ServiceBackend))
}
