package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/proscan/docsync/internal/logger"
	"github.com/proscan/docsync/internal/store"
	"github.com/proscan/docsync/models"
)

// SyncStateStore is the single writer of the per-document sync-state table.
// Every status transition in the engine funnels through SetStatus, which
// serialises writers, persists the new state, and publishes a StatusEvent.
type SyncStateStore struct {
	mu     sync.Mutex
	repo   store.SyncStateRepository
	bus    *EventBus
	clock  Clock
	logger *logger.Logger
}

func NewSyncStateStore(repo store.SyncStateRepository, bus *EventBus, clock Clock, log *logger.Logger) *SyncStateStore {
	return &SyncStateStore{
		repo:   repo,
		bus:    bus,
		clock:  clock,
		logger: log,
	}
}

// Get returns the persisted state for the document. A document that has
// never been synced yet has no row; callers get ErrSyncStateNotFound
// wrapped from the repository.
func (s *SyncStateStore) Get(ctx context.Context, documentID string) (models.SyncState, error) {
	return s.repo.Get(ctx, documentID)
}

// Status returns the document's current status, or an empty status when no
// sync has been attempted yet.
func (s *SyncStateStore) Status(ctx context.Context, documentID string) (models.SyncStatus, error) {
	state, err := s.repo.Get(ctx, documentID)
	if errors.Is(err, store.ErrSyncStateNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return state.Status, nil
}

// SetStatus transitions the document to status, recording errorMessage for
// failure states. The state row is created lazily on the first transition.
// Entering synced resets the retry counter and stamps LastSyncedAt.
func (s *SyncStateStore) SetStatus(ctx context.Context, documentID string, status models.SyncStatus, errorMessage string) error {
	if !status.Valid() {
		return fmt.Errorf("invalid sync status %q for document %s", status, documentID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.repo.Get(ctx, documentID)
	if errors.Is(err, store.ErrSyncStateNotFound) {
		state = models.SyncState{DocumentID: documentID}
		err = nil
	}
	if err != nil {
		return fmt.Errorf("load sync state for %s: %w", documentID, err)
	}

	previous := state.Status
	state.Status = status
	state.ErrorMessage = errorMessage
	if status == models.StatusSynced {
		now := s.clock.Now()
		state.LastSyncedAt = &now
		state.RetryCount = 0
		state.ErrorMessage = ""
	}

	if err = s.repo.Upsert(ctx, state); err != nil {
		return fmt.Errorf("persist sync state for %s: %w", documentID, err)
	}

	s.logger.Debug().
		Str("document_id", documentID).
		Str("from", previous.String()).
		Str("to", status.String()).
		Msg("sync status transition")

	s.bus.Publish(models.StatusEvent{
		DocumentID: documentID,
		Previous:   previous,
		Current:    status,
		Error:      errorMessage,
		At:         s.clock.Now(),
	})
	return nil
}

// IncrementRetry bumps the document's retry counter and returns the new
// value. The counter only moves down again on a transition into synced.
func (s *SyncStateStore) IncrementRetry(ctx context.Context, documentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.repo.Get(ctx, documentID)
	if errors.Is(err, store.ErrSyncStateNotFound) {
		state = models.SyncState{DocumentID: documentID}
		err = nil
	}
	if err != nil {
		return 0, fmt.Errorf("load sync state for %s: %w", documentID, err)
	}

	state.RetryCount++
	if err = s.repo.Upsert(ctx, state); err != nil {
		return 0, fmt.Errorf("persist sync state for %s: %w", documentID, err)
	}
	return state.RetryCount, nil
}

// Delete removes the document's state row. Called only on hard delete.
func (s *SyncStateStore) Delete(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Delete(ctx, documentID)
}

// ListByStatus returns the states currently in one of the given statuses.
func (s *SyncStateStore) ListByStatus(ctx context.Context, statuses ...models.SyncStatus) ([]models.SyncState, error) {
	return s.repo.ListByStatus(ctx, statuses...)
}
