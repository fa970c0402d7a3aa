package service

import "errors"

var (
	// ErrCircuitOpen is returned by the circuit breaker when the target
	// service's circuit is open and the call was rejected without any
	// network attempt. Queue workers requeue on it instead of counting a
	// content failure.
	ErrCircuitOpen = errors.New("circuit open")

	// ErrRateLimited is returned by non-blocking token acquisition when
	// the bucket for the operation class is empty.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnknownOperationClass is returned when a rate-limiter class has
	// no configured bucket.
	ErrUnknownOperationClass = errors.New("unknown operation class")

	// ErrUnknownCategory is returned when a resource-guard category has no
	// configured capacity.
	ErrUnknownCategory = errors.New("unknown operation category")

	// ErrSyncRequestExpired is returned to callers whose queued sync
	// request waited longer than the queue lifetime before a cycle could
	// service it.
	ErrSyncRequestExpired = errors.New("queued sync request expired")

	// ErrQueueStopped is returned when a job is enqueued on a queue whose
	// workers have been stopped.
	ErrQueueStopped = errors.New("transfer queue stopped")
)

func isRateLimited(err error) bool { return errors.Is(err, ErrRateLimited) }

func isCircuitOpen(err error) bool { return errors.Is(err, ErrCircuitOpen) }
