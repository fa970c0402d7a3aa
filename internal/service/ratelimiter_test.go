package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proscan/docsync/internal/config"
)

func newTestLimiter(clock Clock) *RateLimiter {
	return NewRateLimiter(config.Sync{
		UploadRatePerMinute:  5,
		SyncRatePerMinute:    5,
		APICallRatePerMinute: 5,
	}, clock)
}

func TestRateLimiter_TryAcquire_BucketExhaustion(t *testing.T) {
	clock := NewManualClock(testStart())
	limiter := newTestLimiter(clock)

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.TryAcquire(ClassUpload), "token %d", i+1)
	}

	err := limiter.TryAcquire(ClassUpload)
	assert.ErrorIs(t, err, ErrRateLimited)

	// Classes are independent: sync still has its full bucket.
	assert.NoError(t, limiter.TryAcquire(ClassSync))
}

func TestRateLimiter_LazyRefill(t *testing.T) {
	clock := NewManualClock(testStart())
	limiter := newTestLimiter(clock)

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.TryAcquire(ClassUpload))
	}
	require.ErrorIs(t, limiter.TryAcquire(ClassUpload), ErrRateLimited)

	// 5 tokens/min: after 60s the bucket holds at least one token again.
	clock.Advance(60 * time.Second)
	assert.NoError(t, limiter.TryAcquire(ClassUpload))
}

func TestRateLimiter_RefillCapsAtCapacity(t *testing.T) {
	clock := NewManualClock(testStart())
	limiter := newTestLimiter(clock)

	clock.Advance(time.Hour)

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.TryAcquire(ClassUpload))
	}
	assert.ErrorIs(t, limiter.TryAcquire(ClassUpload), ErrRateLimited)
}

func TestRateLimiter_UnknownClass(t *testing.T) {
	clock := NewManualClock(testStart())
	limiter := newTestLimiter(clock)

	assert.ErrorIs(t, limiter.TryAcquire("bogus"), ErrUnknownOperationClass)
	assert.ErrorIs(t, limiter.Acquire(context.Background(), "bogus"), ErrUnknownOperationClass)
}

func TestRateLimiter_AcquireBlocksUntilRefill(t *testing.T) {
	clock := NewManualClock(testStart())
	limiter := newTestLimiter(clock)

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.TryAcquire(ClassUpload))
	}

	done := make(chan error, 1)
	go func() {
		done <- limiter.Acquire(context.Background(), ClassUpload)
	}()

	// One token refills every 12s at 5/min; drive virtual time until the
	// blocked Acquire returns.
	require.Eventually(t, func() bool {
		clock.Advance(12 * time.Second)
		select {
		case err := <-done:
			require.NoError(t, err)
			return true
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRateLimiter_AcquireHonorsContext(t *testing.T) {
	clock := NewManualClock(testStart())
	limiter := newTestLimiter(clock)

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.TryAcquire(ClassUpload))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- limiter.Acquire(ctx, ClassUpload)
	}()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Acquire did not return after context cancellation")
	}
}
