// Package workers provides the engine's background jobs: a periodic sync
// trigger and a connectivity watcher that pauses and resumes the transfer
// queues as the host application reports network transitions.
package workers

import (
	"context"

	"github.com/proscan/docsync/models"
)

// Worker is a background job with an explicit lifecycle. Start launches the
// job's goroutine and returns immediately; Stop cancels it and blocks until
// it has fully exited. Both are safe to call more than once.
type Worker interface {
	Start(ctx context.Context)
	Stop()
}

// SyncTrigger requests a reconciliation cycle. Satisfied by
// service.SyncCoordinator.
type SyncTrigger interface {
	Sync(ctx context.Context, full bool) (models.SyncResult, error)
}

// PausableQueue is the queue surface the connectivity watcher drives.
// Satisfied by service.TransferQueue.
type PausableQueue interface {
	Pause()
	Resume()
}
