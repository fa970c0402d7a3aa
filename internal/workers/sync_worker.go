package workers

import (
	"context"
	"sync"
	"time"

	"github.com/proscan/docsync/internal/logger"
	"github.com/proscan/docsync/internal/service"
)

const defaultSyncInterval = 5 * time.Minute

// PeriodicSyncWorker triggers a delta sync on a fixed interval. The worker is
// idle until Start is called; overlapping triggers are harmless because the
// coordinator coalesces concurrent requests into one cycle.
type PeriodicSyncWorker struct {
	trigger  SyncTrigger
	interval time.Duration
	clock    service.Clock
	logger   *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPeriodicSyncWorker creates the worker. A non-positive interval defaults
// to 5 minutes; a nil clock defaults to wall time.
func NewPeriodicSyncWorker(trigger SyncTrigger, interval time.Duration, clock service.Clock, log *logger.Logger) *PeriodicSyncWorker {
	if interval <= 0 {
		interval = defaultSyncInterval
	}
	if clock == nil {
		clock = service.NewClock()
	}
	return &PeriodicSyncWorker{
		trigger:  trigger,
		interval: interval,
		clock:    clock,
		logger:   log,
	}
}

// Start stops any previously running instance, then launches a goroutine
// that triggers a delta sync every interval until ctx is cancelled or Stop
// is called.
func (w *PeriodicSyncWorker) Start(ctx context.Context) {
	w.Stop()

	w.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-jobCtx.Done():
				return
			case <-w.clock.After(w.interval):
				result, err := w.trigger.Sync(jobCtx, false)
				if err != nil {
					w.logger.Warn().Err(err).Msg("periodic sync failed")
					continue
				}
				w.logger.Debug().
					Int("added", result.Added).
					Int("updated", result.Updated).
					Int("conflicts", result.Conflicts).
					Msg("periodic sync completed")
			}
		}
	}()
}

// Stop cancels the background goroutine and blocks until it has exited.
// Safe to call when the worker is not running.
func (w *PeriodicSyncWorker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}
