package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/proscan/docsync/internal/config"
)

// Operation classes throttled independently of each other.
const (
	ClassUpload  = "upload"
	ClassSync    = "sync"
	ClassAPICall = "api_call"
)

const (
	defaultUploadRatePerMinute  = 30
	defaultSyncRatePerMinute    = 10
	defaultAPICallRatePerMinute = 60
)

// tokenBucket tracks permits for one operation class. Refill is computed
// lazily from elapsed clock time on every access; there is no background
// refill goroutine.
type tokenBucket struct {
	capacity     float64
	refillPerSec float64
	tokens       float64
	lastRefill   time.Time
}

func (b *tokenBucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	b.tokens += elapsed * b.refillPerSec
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastRefill = now
}

// RateLimiter throttles call rate per operation class with independent token
// buckets. It is safe for concurrent use.
type RateLimiter struct {
	mu      sync.Mutex
	clock   Clock
	buckets map[string]*tokenBucket
}

// NewRateLimiter builds a limiter with one bucket per class, sized from cfg.
// Bucket capacity equals the per-minute rate, so a full bucket admits one
// minute's worth of burst.
func NewRateLimiter(cfg config.Sync, clock Clock) *RateLimiter {
	rates := map[string]int{
		ClassUpload:  cfg.UploadRatePerMinute,
		ClassSync:    cfg.SyncRatePerMinute,
		ClassAPICall: cfg.APICallRatePerMinute,
	}
	defaults := map[string]int{
		ClassUpload:  defaultUploadRatePerMinute,
		ClassSync:    defaultSyncRatePerMinute,
		ClassAPICall: defaultAPICallRatePerMinute,
	}

	now := clock.Now()
	buckets := make(map[string]*tokenBucket, len(rates))
	for class, perMinute := range rates {
		if perMinute <= 0 {
			perMinute = defaults[class]
		}
		buckets[class] = &tokenBucket{
			capacity:     float64(perMinute),
			refillPerSec: float64(perMinute) / 60.0,
			tokens:       float64(perMinute),
			lastRefill:   now,
		}
	}

	return &RateLimiter{clock: clock, buckets: buckets}
}

// TryAcquire takes one token from the class bucket without blocking.
// It returns ErrRateLimited when the bucket is empty and
// ErrUnknownOperationClass for an unconfigured class.
func (l *RateLimiter) TryAcquire(class string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.buckets[class]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOperationClass, class)
	}

	bucket.refill(l.clock.Now())
	if bucket.tokens < 1 {
		return fmt.Errorf("%w: %s", ErrRateLimited, class)
	}
	bucket.tokens--
	return nil
}

// Acquire blocks until a token is available or ctx is cancelled. The wait
// between attempts is the time one token takes to refill at the class rate.
func (l *RateLimiter) Acquire(ctx context.Context, class string) error {
	for {
		err := l.TryAcquire(class)
		if err == nil {
			return nil
		}
		if !isRateLimited(err) {
			return err
		}

		if sleepErr := l.clock.Sleep(ctx, l.tokenWait(class)); sleepErr != nil {
			return sleepErr
		}
	}
}

// tokenWait returns the time needed to refill enough of the class bucket for
// one token.
func (l *RateLimiter) tokenWait(class string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.buckets[class]
	if !ok {
		return time.Second
	}

	missing := 1 - bucket.tokens
	if missing <= 0 {
		return 0
	}
	return time.Duration(missing / bucket.refillPerSec * float64(time.Second))
}
