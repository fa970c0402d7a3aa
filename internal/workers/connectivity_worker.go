package workers

import (
	"context"
	"sync"

	"github.com/proscan/docsync/internal/logger"
)

// ConnectivityWorker consumes the host application's online/offline stream.
// Going offline pauses the transfer queues so jobs wait instead of burning
// retry attempts; coming back online resumes them and triggers a catch-up
// sync. Duplicate reports of the current state are ignored.
type ConnectivityWorker struct {
	events  <-chan bool
	trigger SyncTrigger
	queues  []PausableQueue
	logger  *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	online bool
}

// NewConnectivityWorker creates the worker. The engine assumes it starts
// online; the first event on the stream establishes the real state.
func NewConnectivityWorker(events <-chan bool, trigger SyncTrigger, queues []PausableQueue, log *logger.Logger) *ConnectivityWorker {
	return &ConnectivityWorker{
		events:  events,
		trigger: trigger,
		queues:  queues,
		logger:  log,
		online:  true,
	}
}

func (w *ConnectivityWorker) Start(ctx context.Context) {
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
			case online, ok := <-w.events:
				if !ok {
					return
				}
				w.transition(jobCtx, online)
			}
		}
	}()
}

func (w *ConnectivityWorker) transition(ctx context.Context, online bool) {
	if online == w.online {
		return
	}
	w.online = online

	if !online {
		w.logger.Info().Msg("network lost, pausing transfer queues")
		for _, q := range w.queues {
			q.Pause()
		}
		return
	}

	w.logger.Info().Msg("network restored, resuming transfer queues")
	for _, q := range w.queues {
		q.Resume()
	}

	// The catch-up sync runs detached so a slow cycle never delays handling
	// of the next connectivity event.
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if _, err := w.trigger.Sync(ctx, false); err != nil {
			w.logger.Warn().Err(err).Msg("catch-up sync failed")
		}
	}()
}

// Stop cancels the background goroutine and blocks until it and any
// in-flight catch-up sync have exited.
func (w *ConnectivityWorker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}
