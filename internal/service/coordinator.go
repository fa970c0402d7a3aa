package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/proscan/docsync/internal/adapter"
	"github.com/proscan/docsync/internal/logger"
	"github.com/proscan/docsync/internal/store"
	"github.com/proscan/docsync/internal/validators"
	"github.com/proscan/docsync/models"
)

const (
	syncWaiterLifetime = 10 * time.Minute
	maxCycleAttempts   = 3
	cycleBackoffBase   = 5 * time.Second
	cycleBackoffMax    = 5 * time.Minute
	fullSyncPageSize   = 100
)

// TransferEnqueuer is the coordinator's view of a transfer queue.
type TransferEnqueuer interface {
	Enqueue(job models.TransferJob) error
}

type syncOutcome struct {
	result models.SyncResult
	err    error
}

type syncRequest struct {
	full       bool
	enqueuedAt time.Time
	done       chan syncOutcome
}

// SyncCoordinator reconciles the local store against the remote backend.
// Sync is single-flight: one cycle runs at a time, concurrent callers queue
// behind it and share the result of the cycle that services them. A queued
// full-sync request upgrades that cycle to a full pull.
type SyncCoordinator struct {
	docs       store.DocumentRepository
	cursorRepo store.CursorRepository
	states     *SyncStateStore
	backend    adapter.BackendClient
	resolver   *ConflictResolver
	validator  validators.Validator
	uploads    TransferEnqueuer
	downloads  TransferEnqueuer
	limiter    *RateLimiter
	clock      Clock
	logger     *logger.Logger

	mu      sync.Mutex
	running bool
	pending []*syncRequest
}

// CoordinatorDeps carries the coordinator's collaborators.
type CoordinatorDeps struct {
	Documents store.DocumentRepository
	Cursor    store.CursorRepository
	States    *SyncStateStore
	Backend   adapter.BackendClient
	Uploads   TransferEnqueuer
	Downloads TransferEnqueuer
	Limiter   *RateLimiter
	Clock     Clock
	Logger    *logger.Logger
}

func NewSyncCoordinator(deps CoordinatorDeps) *SyncCoordinator {
	return &SyncCoordinator{
		docs:       deps.Documents,
		cursorRepo: deps.Cursor,
		states:     deps.States,
		backend:    deps.Backend,
		resolver:   NewConflictResolver(),
		validator:  validators.NewRemoteDocumentValidator(),
		uploads:    deps.Uploads,
		downloads:  deps.Downloads,
		limiter:    deps.Limiter,
		clock:      deps.Clock,
		logger:     deps.Logger,
	}
}

// Sync runs (or joins) a reconciliation cycle and returns its result. When a
// cycle is already running the request queues and is serviced by the next
// cycle; requests that wait longer than the queue lifetime fail with
// ErrSyncRequestExpired instead of going stale silently.
func (c *SyncCoordinator) Sync(ctx context.Context, full bool) (models.SyncResult, error) {
	req := &syncRequest{
		full:       full,
		enqueuedAt: c.clock.Now(),
		done:       make(chan syncOutcome, 1),
	}

	c.mu.Lock()
	c.pending = append(c.pending, req)
	owner := !c.running
	if owner {
		c.running = true
	}
	c.mu.Unlock()

	if owner {
		c.serve(ctx)
	}

	select {
	case out := <-req.done:
		return out.result, out.err
	case <-ctx.Done():
		return models.SyncResult{}, ctx.Err()
	}
}

// serve drains the request queue: each iteration coalesces everything queued
// so far into one cycle and delivers that cycle's outcome to all of them.
func (c *SyncCoordinator) serve(ctx context.Context) {
	for {
		c.mu.Lock()
		batch := c.pending
		c.pending = nil
		if len(batch) == 0 {
			c.running = false
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		now := c.clock.Now()
		live := batch[:0]
		full := false
		for _, req := range batch {
			if now.Sub(req.enqueuedAt) > syncWaiterLifetime {
				req.done <- syncOutcome{err: ErrSyncRequestExpired}
				continue
			}
			live = append(live, req)
			if req.full {
				full = true
			}
		}
		if len(live) == 0 {
			continue
		}

		result, err := c.runCycleWithRetry(ctx, full)
		for _, req := range live {
			req.done <- syncOutcome{result: result, err: err}
		}
	}
}

func (c *SyncCoordinator) runCycleWithRetry(ctx context.Context, full bool) (models.SyncResult, error) {
	var lastErr error
	for attempt := 1; attempt <= maxCycleAttempts; attempt++ {
		result, err := c.runCycle(ctx, full)
		if err == nil {
			return result, nil
		}
		if !cycleRetryable(err) {
			return models.SyncResult{}, err
		}

		lastErr = err
		if attempt == maxCycleAttempts {
			break
		}

		backoff := cycleBackoffBase << (attempt - 1)
		if backoff > cycleBackoffMax {
			backoff = cycleBackoffMax
		}
		c.logger.Warn().Err(err).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("sync cycle failed, retrying")
		if sleepErr := c.clock.Sleep(ctx, backoff); sleepErr != nil {
			return models.SyncResult{}, sleepErr
		}
	}
	return models.SyncResult{}, fmt.Errorf("sync failed after %d attempts: %w", maxCycleAttempts, lastErr)
}

// cycleRetryable reports whether retrying the whole cycle can help.
// Missing authentication and malformed requests cannot be fixed by waiting.
func cycleRetryable(err error) bool {
	switch {
	case errors.Is(err, adapter.ErrUnauthenticated),
		errors.Is(err, adapter.ErrBadRequest),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

func (c *SyncCoordinator) runCycle(ctx context.Context, full bool) (models.SyncResult, error) {
	var result models.SyncResult

	if err := c.limiter.Acquire(ctx, ClassSync); err != nil {
		return result, err
	}

	cursor, err := c.cursorRepo.Get(ctx)
	if err != nil {
		return result, fmt.Errorf("load sync cursor: %w", err)
	}

	fullPull := full || cursor.IsZero()
	remotes, err := c.pullRemote(ctx, cursor, fullPull)
	if err != nil {
		return result, err
	}

	remoteSeen := make(map[string]struct{}, len(remotes))
	newCursor := cursor
	for _, remote := range remotes {
		if vErr := c.validator.Validate(ctx, remote); vErr != nil {
			c.logger.Warn().Err(vErr).
				Str("document_id", remote.ID).
				Msg("skipping malformed remote record")
			result.Skipped++
			continue
		}
		remoteSeen[remote.ID] = struct{}{}
		if remote.UpdatedAt.After(newCursor) {
			newCursor = remote.UpdatedAt
		}

		if rErr := c.reconcile(ctx, remote, &result); rErr != nil {
			return models.SyncResult{}, rErr
		}
	}

	if err = c.preserveLocalOnly(ctx, remoteSeen, &result); err != nil {
		return models.SyncResult{}, err
	}
	if err = c.pushLocalChanges(ctx, cursor, remoteSeen); err != nil {
		return models.SyncResult{}, err
	}

	// The cursor moves only after the whole cycle succeeded, so a failed
	// cycle replays its delta instead of losing it.
	if newCursor.After(cursor) {
		if err = c.cursorRepo.Set(ctx, newCursor); err != nil {
			return models.SyncResult{}, fmt.Errorf("persist sync cursor: %w", err)
		}
	}

	c.logger.Info().
		Bool("full", fullPull).
		Int("added", result.Added).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Int("conflicts", result.Conflicts).
		Msg("sync cycle completed")
	return result, nil
}

// pullRemote fetches the remote view: a paginated walk of the whole
// collection for a full sync, a single delta request otherwise.
func (c *SyncCoordinator) pullRemote(ctx context.Context, cursor time.Time, full bool) ([]models.RemoteDocument, error) {
	if !full {
		page, err := c.backend.ListDocuments(ctx, cursor, 0, 0)
		if err != nil {
			return nil, fmt.Errorf("pull remote delta: %w", err)
		}
		return page.Documents, nil
	}

	var remotes []models.RemoteDocument
	for pageNum := 1; ; pageNum++ {
		page, err := c.backend.ListDocuments(ctx, time.Time{}, pageNum, fullSyncPageSize)
		if err != nil {
			return nil, fmt.Errorf("pull remote page %d: %w", pageNum, err)
		}
		remotes = append(remotes, page.Documents...)

		if len(page.Documents) < fullSyncPageSize {
			return remotes, nil
		}
		if page.Total > 0 && len(remotes) >= page.Total {
			return remotes, nil
		}
	}
}

func (c *SyncCoordinator) reconcile(ctx context.Context, remote models.RemoteDocument, result *models.SyncResult) error {
	local, err := c.docs.Get(ctx, remote.ID)
	if errors.Is(err, store.ErrDocumentNotFound) {
		return c.insertRemote(ctx, remote, result)
	}
	if err != nil {
		return fmt.Errorf("load local document %s: %w", remote.ID, err)
	}

	if remote.Deleted {
		return c.applyRemoteDeletion(ctx, remote, local, result)
	}

	res := c.resolver.Resolve(local, remote.ToDocument())
	switch res.Action {
	case ResolutionAdoptRemote:
		if err = c.docs.Save(ctx, res.Merged); err != nil {
			return fmt.Errorf("adopt remote document %s: %w", remote.ID, err)
		}
		result.Updated++
		if err = c.states.SetStatus(ctx, remote.ID, res.Status, ""); err != nil {
			return err
		}
		if res.NeedsDownload {
			return c.downloads.Enqueue(models.TransferJob{
				DocumentID: remote.ID,
				RemoteURI:  remote.FileURL,
				Priority:   models.PriorityBackground,
			})
		}
		return nil

	case ResolutionKeepLocal:
		result.Skipped++
		if err = c.states.SetStatus(ctx, remote.ID, res.Status, ""); err != nil {
			return err
		}
		return c.uploads.Enqueue(models.TransferJob{
			DocumentID: remote.ID,
			Priority:   models.PriorityBackground,
		})

	case ResolutionAlreadySynced:
		result.Skipped++
		return c.states.SetStatus(ctx, remote.ID, res.Status, "")

	default: // conflict: local retained and pushed, overwriting remote
		result.Skipped++
		result.Conflicts++
		if err = c.states.SetStatus(ctx, remote.ID, res.Status, ""); err != nil {
			return err
		}
		return c.uploads.Enqueue(models.TransferJob{
			DocumentID: remote.ID,
			Priority:   models.PriorityBackground,
		})
	}
}

func (c *SyncCoordinator) insertRemote(ctx context.Context, remote models.RemoteDocument, result *models.SyncResult) error {
	if remote.Deleted {
		// Tombstone for a document this device never had.
		result.Skipped++
		return nil
	}

	doc := remote.ToDocument()
	if err := c.docs.Save(ctx, doc); err != nil {
		return fmt.Errorf("insert remote document %s: %w", remote.ID, err)
	}
	result.Added++

	if !doc.HasRemoteContent() {
		return c.states.SetStatus(ctx, doc.ID, models.StatusSynced, "")
	}
	if err := c.states.SetStatus(ctx, doc.ID, models.StatusPendingDownload, ""); err != nil {
		return err
	}
	return c.downloads.Enqueue(models.TransferJob{
		DocumentID: doc.ID,
		RemoteURI:  doc.FileURL,
		Priority:   models.PriorityBackground,
	})
}

func (c *SyncCoordinator) applyRemoteDeletion(ctx context.Context, remote models.RemoteDocument, local models.Document, result *models.SyncResult) error {
	if remote.UpdatedAt.Before(local.UpdatedAt) {
		// Edited locally after the remote deletion: the local version
		// survives and will be pushed, resurrecting the record.
		result.Skipped++
		if err := c.states.SetStatus(ctx, local.ID, models.StatusPendingUpload, ""); err != nil {
			return err
		}
		return c.uploads.Enqueue(models.TransferJob{
			DocumentID: local.ID,
			Priority:   models.PriorityBackground,
		})
	}

	deletedAt := remote.UpdatedAt
	if remote.DeletedAt != nil {
		deletedAt = *remote.DeletedAt
	}
	if err := c.docs.SoftDelete(ctx, local.ID, deletedAt); err != nil {
		return fmt.Errorf("apply remote deletion of %s: %w", local.ID, err)
	}
	result.Updated++
	return c.states.SetStatus(ctx, local.ID, models.StatusSynced, "")
}

// preserveLocalOnly is the data-loss safety pass: documents that exist only
// on this device are never deleted by a sync cycle, they are marked for
// upload instead. Locally soft-deleted documents whose deletion has not
// reached the backend yet are re-enqueued for the deletion push.
func (c *SyncCoordinator) preserveLocalOnly(ctx context.Context, remoteSeen map[string]struct{}, result *models.SyncResult) error {
	locals, err := c.docs.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("scan local documents: %w", err)
	}

	for _, doc := range locals {
		if _, seen := remoteSeen[doc.ID]; seen {
			continue
		}

		status, sErr := c.states.Status(ctx, doc.ID)
		if sErr != nil {
			return sErr
		}

		if doc.Deleted {
			if status != models.StatusSynced {
				if err = c.uploads.Enqueue(models.TransferJob{
					DocumentID: doc.ID,
					Priority:   models.PriorityBackground,
				}); err != nil {
					return err
				}
			}
			continue
		}

		if !doc.HasLocalContent() || doc.HasRemoteContent() {
			continue
		}

		if status != models.StatusPendingUpload && !status.InFlight() {
			if err = c.states.SetStatus(ctx, doc.ID, models.StatusPendingUpload, ""); err != nil {
				return err
			}
		}
		if err = c.uploads.Enqueue(models.TransferJob{
			DocumentID: doc.ID,
			Priority:   models.PriorityBackground,
		}); err != nil {
			return err
		}
	}
	return nil
}

// pushLocalChanges re-enqueues local edits the remote has not seen yet. A
// crash between a local save and its queue insert would otherwise strand the
// edit as "synced" until the document changed again.
func (c *SyncCoordinator) pushLocalChanges(ctx context.Context, cursor time.Time, remoteSeen map[string]struct{}) error {
	changed, err := c.docs.ListModifiedSince(ctx, cursor)
	if err != nil {
		return fmt.Errorf("scan locally modified documents: %w", err)
	}

	for _, doc := range changed {
		if _, seen := remoteSeen[doc.ID]; seen {
			continue
		}

		status, sErr := c.states.Status(ctx, doc.ID)
		if sErr != nil {
			return sErr
		}
		if status != models.StatusSynced {
			continue
		}

		if err = c.states.SetStatus(ctx, doc.ID, models.StatusPendingUpload, ""); err != nil {
			return err
		}
		if err = c.uploads.Enqueue(models.TransferJob{
			DocumentID: doc.ID,
			Priority:   models.PriorityBackground,
		}); err != nil {
			return err
		}
	}
	return nil
}
