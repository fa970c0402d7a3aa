// Package store implements the local durable layer of the sync engine: a
// sqlite database holding the documents table, the per-document sync-state
// table, and the single pull-sync cursor record.
//
// All mutation funnels through the repositories defined here; the engine's
// single-in-flight-job-per-document invariant serialises writers per key, so
// the repositories themselves carry no locking beyond the database's own.
package store

import (
	"context"
	"time"

	"github.com/proscan/docsync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// DocumentRepository provides CRUD access to the local documents table.
type DocumentRepository interface {
	// Get returns the document with the given id, or ErrDocumentNotFound.
	Get(ctx context.Context, id string) (models.Document, error)

	// GetAll returns every document row, including soft-deleted ones.
	GetAll(ctx context.Context) ([]models.Document, error)

	// ListModifiedSince returns documents with updated_at > since,
	// excluding soft-deleted rows.
	ListModifiedSince(ctx context.Context, since time.Time) ([]models.Document, error)

	// Save inserts the document or fully replaces an existing row with the
	// same id (upsert).
	Save(ctx context.Context, doc models.Document) error

	// SoftDelete marks the document deleted without removing the row.
	SoftDelete(ctx context.Context, id string, at time.Time) error

	// HardDelete removes the row entirely. The caller is responsible for
	// removing the matching sync state and remote objects.
	HardDelete(ctx context.Context, id string) error
}

// SyncStateRepository provides access to the per-document sync-state table.
type SyncStateRepository interface {
	// Get returns the sync state for the document id, or
	// ErrSyncStateNotFound when none has been created yet.
	Get(ctx context.Context, documentID string) (models.SyncState, error)

	// Upsert inserts or replaces the sync state row for state.DocumentID.
	Upsert(ctx context.Context, state models.SyncState) error

	// Delete removes the sync state row for the document id. Deleting a
	// missing row is not an error.
	Delete(ctx context.Context, documentID string) error

	// ListByStatus returns the states currently in one of the given
	// statuses, e.g. to re-enqueue pendingUpload work after a restart.
	ListByStatus(ctx context.Context, statuses ...models.SyncStatus) ([]models.SyncState, error)
}

// CursorRepository persists the single "last pull-sync cursor" scalar.
type CursorRepository interface {
	// Get returns the persisted cursor, or the zero time when no sync has
	// ever completed (forcing a full sync).
	Get(ctx context.Context) (time.Time, error)

	// Set persists the cursor. Called only after a cycle completes
	// successfully.
	Set(ctx context.Context, cursor time.Time) error
}

// Storages aggregates all local repositories behind one constructor so the
// application wires a single dependency.
type Storages struct {
	Documents  DocumentRepository
	SyncStates SyncStateRepository
	Cursor     CursorRepository
}
