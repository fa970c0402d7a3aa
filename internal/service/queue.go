package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/proscan/docsync/internal/adapter"
	"github.com/proscan/docsync/internal/logger"
	"github.com/proscan/docsync/internal/utils"
	"github.com/proscan/docsync/models"
)

const (
	maxRetries         = 3
	baseRetryBackoff   = 5 * time.Second
	maxRetryBackoff    = 5 * time.Minute
	gateRetryDelay     = 5 * time.Second
	idlePollInterval   = time.Hour
	defaultWorkerCount = 3
)

// transferFunc performs one transfer attempt for a job. Implementations set
// the in-progress and terminal-success statuses themselves; the queue owns
// retry accounting and terminal-failure statuses.
type transferFunc func(ctx context.Context, job models.TransferJob) error

// terminalStatusFunc picks the terminal-failure status recorded when a job
// exhausts its retries.
type terminalStatusFunc func(ctx context.Context, job models.TransferJob) models.SyncStatus

type queueItem struct {
	job     models.TransferJob
	readyAt time.Time
}

// TransferQueue is a priority queue of pending transfer jobs drained by a
// bounded worker pool. Jobs are deduplicated by document id; at most one job
// per document is in flight at any instant, which is what serialises all
// per-document status transitions. Every attempt is gated through the
// resource guard, the rate limiter, and the circuit breaker, in that order.
type TransferQueue struct {
	kind     models.TransferKind
	category string
	class    string
	service  string
	workers  int

	guard          *ResourceGuard
	limiter        *RateLimiter
	breaker        *CircuitBreaker
	states         *SyncStateStore
	clock          Clock
	logger         *logger.Logger
	transfer       transferFunc
	terminalStatus terminalStatusFunc

	mu       sync.Mutex
	items    map[string]*queueItem
	inFlight map[string]struct{}
	paused   bool
	stopped  bool
	notify   chan struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// QueueDeps bundles the shared gates and infrastructure every transfer
// queue is built on.
type QueueDeps struct {
	Guard   *ResourceGuard
	Limiter *RateLimiter
	Breaker *CircuitBreaker
	States  *SyncStateStore
	Clock   Clock
	Logger  *logger.Logger
}

func newTransferQueue(
	kind models.TransferKind,
	category, class, service string,
	workers int,
	deps QueueDeps,
	transfer transferFunc,
	terminalStatus terminalStatusFunc,
) *TransferQueue {
	if workers <= 0 {
		workers = defaultWorkerCount
	}
	return &TransferQueue{
		kind:           kind,
		category:       category,
		class:          class,
		service:        service,
		workers:        workers,
		guard:          deps.Guard,
		limiter:        deps.Limiter,
		breaker:        deps.Breaker,
		states:         deps.States,
		clock:          deps.Clock,
		logger:         deps.Logger,
		transfer:       transfer,
		terminalStatus: terminalStatus,
		items:          make(map[string]*queueItem),
		inFlight:       make(map[string]struct{}),
		notify:         make(chan struct{}, 1),
	}
}

// Enqueue adds the job, deduplicating by document id. Re-enqueuing an id
// that is already queued raises its priority to the higher of the two and
// keeps the earlier enqueue time; an id currently in flight is ignored, as
// the running attempt will record the outcome.
func (q *TransferQueue) Enqueue(job models.TransferJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped {
		return ErrQueueStopped
	}
	if _, running := q.inFlight[job.DocumentID]; running {
		return nil
	}

	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = q.clock.Now()
	}
	job.Kind = q.kind

	if existing, ok := q.items[job.DocumentID]; ok {
		if job.Priority > existing.job.Priority {
			existing.job.Priority = job.Priority
		}
		if job.EnqueuedAt.Before(existing.job.EnqueuedAt) {
			existing.job.EnqueuedAt = job.EnqueuedAt
		}
		q.signalLocked()
		return nil
	}

	q.items[job.DocumentID] = &queueItem{job: job, readyAt: q.clock.Now()}
	q.signalLocked()
	return nil
}

// Remove drops a queued-but-not-started job. A job already executing runs
// to completion; Remove reports whether anything was actually removed.
func (q *TransferQueue) Remove(documentID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.items[documentID]; !ok {
		return false
	}
	delete(q.items, documentID)
	return true
}

// Len returns the number of queued (not in-flight) jobs.
func (q *TransferQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Pause stops workers from picking up new jobs. In-flight jobs finish.
func (q *TransferQueue) Pause() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.paused = true
}

// Resume lets workers drain the queue again.
func (q *TransferQueue) Resume() {
	q.mu.Lock()
	q.paused = false
	q.signalLocked()
	q.mu.Unlock()
}

// Start launches the worker pool. Workers exit when ctx is cancelled or
// Stop is called.
func (q *TransferQueue) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(runCtx)
	}
}

// Stop terminates the worker pool and waits for in-flight jobs to finish.
func (q *TransferQueue) Stop() {
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()

	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
}

func (q *TransferQueue) worker(ctx context.Context) {
	defer q.wg.Done()

	for {
		job, wait := q.next()
		if job == nil {
			select {
			case <-ctx.Done():
				return
			case <-q.notify:
			case <-q.clock.After(wait):
			}
			continue
		}

		q.run(ctx, *job)
	}
}

// next pops the best ready job: highest priority first, earliest enqueue
// time within a priority. When nothing is ready it returns how long until
// the earliest scheduled retry.
func (q *TransferQueue) next() (*models.TransferJob, time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.paused || len(q.items) == 0 {
		return nil, idlePollInterval
	}

	now := q.clock.Now()
	var (
		bestID   string
		best     *queueItem
		soonest  = idlePollInterval
		anyReady bool
	)
	for id, item := range q.items {
		if item.readyAt.After(now) {
			if d := item.readyAt.Sub(now); d < soonest {
				soonest = d
			}
			continue
		}
		anyReady = true
		if best == nil || betterJob(item.job, best.job) {
			bestID, best = id, item
		}
	}

	if !anyReady {
		return nil, soonest
	}

	delete(q.items, bestID)
	q.inFlight[bestID] = struct{}{}

	// Wake another worker if more work is immediately available.
	if len(q.items) > 0 {
		q.signalLocked()
	}

	job := best.job
	return &job, 0
}

func betterJob(a, b models.TransferJob) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.EnqueuedAt.Before(b.EnqueuedAt)
}

func (q *TransferQueue) run(ctx context.Context, job models.TransferJob) {
	log := q.logger.With().
		Str("document_id", job.DocumentID).
		Str("kind", string(q.kind)).
		Int("attempt", job.Attempts+1).
		Logger()

	// Everything downstream logs through the context, so store and adapter
	// entries carry the owning document id.
	ctx = context.WithValue(ctx, utils.DocumentIDCtxKey, job.DocumentID)
	ctx = log.WithContext(ctx)

	if err := q.guard.Acquire(ctx, q.category, job.Priority); err != nil {
		q.finish(job.DocumentID)
		q.requeue(job, gateRetryDelay)
		return
	}
	defer q.guard.Release(q.category)

	if err := q.limiter.Acquire(ctx, q.class); err != nil {
		q.finish(job.DocumentID)
		q.requeue(job, gateRetryDelay)
		return
	}

	err := q.breaker.Execute(ctx, q.service, func(opCtx context.Context) error {
		return q.transfer(opCtx, job)
	})
	q.finish(job.DocumentID)

	switch {
	case err == nil:
		log.Debug().Msg("transfer completed")

	case isCircuitOpen(err) || isRateLimited(err):
		// Not a content failure: requeue without consuming an attempt.
		log.Debug().Err(err).Msg("transfer gated, requeueing")
		q.requeue(job, gateRetryDelay)

	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		// Shutdown mid-gate; the job will be re-discovered from its
		// persisted pending status on the next start.

	case !adapter.IsRetryable(err):
		log.Warn().Err(err).Msg("transfer failed with non-retryable error")
		q.failTerminal(ctx, job, err)

	default:
		job.Attempts++
		if job.Attempts <= maxRetries {
			if _, retryErr := q.states.IncrementRetry(ctx, job.DocumentID); retryErr != nil {
				log.Err(retryErr).Msg("failed to bump retry counter")
			}
			if stateErr := q.states.SetStatus(ctx, job.DocumentID, models.StatusFailedRetry, err.Error()); stateErr != nil {
				log.Err(stateErr).Msg("failed to record retry status")
			}
			backoff := retryBackoff(job.Attempts)
			log.Warn().Err(err).Dur("backoff", backoff).Msg("transfer failed, retry scheduled")
			q.requeue(job, backoff)
			return
		}
		log.Error().Err(err).Int("attempts", job.Attempts).Msg("transfer failed, retries exhausted")
		q.failTerminal(ctx, job, err)
	}
}

// retryBackoff returns the delay before retry n (1-based): base doubling
// per retry, capped.
func retryBackoff(retry int) time.Duration {
	backoff := baseRetryBackoff << (retry - 1)
	if backoff > maxRetryBackoff {
		backoff = maxRetryBackoff
	}
	return backoff
}

func (q *TransferQueue) failTerminal(ctx context.Context, job models.TransferJob, cause error) {
	status := models.StatusFailed
	if q.terminalStatus != nil {
		status = q.terminalStatus(ctx, job)
	}
	if err := q.states.SetStatus(ctx, job.DocumentID, status, cause.Error()); err != nil {
		q.logger.Err(err).
			Str("document_id", job.DocumentID).
			Msg("failed to record terminal failure status")
	}
}

func (q *TransferQueue) finish(documentID string) {
	q.mu.Lock()
	delete(q.inFlight, documentID)
	q.mu.Unlock()
}

func (q *TransferQueue) requeue(job models.TransferJob, delay time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped {
		return
	}
	q.items[job.DocumentID] = &queueItem{job: job, readyAt: q.clock.Now().Add(delay)}
	q.signalLocked()
}

func (q *TransferQueue) signalLocked() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
