package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/proscan/docsync/internal/logger"
	"github.com/proscan/docsync/internal/store"
	"github.com/proscan/docsync/models"
)

// memStateRepo is a hand-written in-memory SyncStateRepository: queue and
// coordinator tests need real read-back of states, which is awkward to
// script with gomock expectations.
type memStateRepo struct {
	mu     sync.Mutex
	states map[string]models.SyncState
}

func newMemStateRepo() *memStateRepo {
	return &memStateRepo{states: make(map[string]models.SyncState)}
}

func (r *memStateRepo) Get(_ context.Context, documentID string) (models.SyncState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[documentID]
	if !ok {
		return models.SyncState{}, fmt.Errorf("%w: %s", store.ErrSyncStateNotFound, documentID)
	}
	return state, nil
}

func (r *memStateRepo) Upsert(_ context.Context, state models.SyncState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[state.DocumentID] = state
	return nil
}

func (r *memStateRepo) Delete(_ context.Context, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, documentID)
	return nil
}

func (r *memStateRepo) ListByStatus(_ context.Context, statuses ...models.SyncStatus) ([]models.SyncState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.SyncState
	for _, state := range r.states {
		for _, status := range statuses {
			if state.Status == status {
				out = append(out, state)
				break
			}
		}
	}
	return out, nil
}

// status returns the stored status directly, bypassing error plumbing.
func (r *memStateRepo) status(documentID string) models.SyncStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[documentID].Status
}

func (r *memStateRepo) retryCount(documentID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[documentID].RetryCount
}

// recordingEnqueuer captures enqueued jobs for assertion.
type recordingEnqueuer struct {
	mu   sync.Mutex
	jobs []models.TransferJob
}

func (e *recordingEnqueuer) Enqueue(job models.TransferJob) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.jobs = append(e.jobs, job)
	return nil
}

func (e *recordingEnqueuer) Remove(documentID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, job := range e.jobs {
		if job.DocumentID == documentID {
			e.jobs = append(e.jobs[:i], e.jobs[i+1:]...)
			return true
		}
	}
	return false
}

func (e *recordingEnqueuer) ids() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.jobs))
	for _, job := range e.jobs {
		out = append(out, job.DocumentID)
	}
	return out
}

func testStateStore(clock Clock) (*SyncStateStore, *memStateRepo, *EventBus) {
	repo := newMemStateRepo()
	bus := NewEventBus()
	return NewSyncStateStore(repo, bus, clock, logger.Nop()), repo, bus
}

func testStart() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}
