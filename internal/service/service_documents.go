package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/proscan/docsync/internal/adapter"
	"github.com/proscan/docsync/internal/logger"
	"github.com/proscan/docsync/internal/store"
	"github.com/proscan/docsync/internal/utils"
	"github.com/proscan/docsync/models"
)

// TransferQueuePort is the document service's view of a transfer queue:
// enqueue new work and withdraw queued-but-not-started work.
type TransferQueuePort interface {
	Enqueue(job models.TransferJob) error
	Remove(documentID string) bool
}

// DocumentService is the local mutation surface of the engine: creating and
// editing documents marks them for upload, deleting them propagates the
// deletion. All remote search calls pass through the api_call rate class.
type DocumentService struct {
	docs      store.DocumentRepository
	states    *SyncStateStore
	backend   adapter.BackendClient
	objects   adapter.ObjectStore
	uploads   TransferQueuePort
	downloads TransferQueuePort
	limiter   *RateLimiter
	bus       *EventBus
	ids       *utils.UUIDGenerator
	clock     Clock
	userID    string
	logger    *logger.Logger
}

// DocumentServiceDeps carries the document service's collaborators.
type DocumentServiceDeps struct {
	Documents store.DocumentRepository
	States    *SyncStateStore
	Backend   adapter.BackendClient
	Objects   adapter.ObjectStore
	Uploads   TransferQueuePort
	Downloads TransferQueuePort
	Limiter   *RateLimiter
	Bus       *EventBus
	Clock     Clock
	UserID    string
	Logger    *logger.Logger
}

func NewDocumentService(deps DocumentServiceDeps) *DocumentService {
	return &DocumentService{
		docs:      deps.Documents,
		states:    deps.States,
		backend:   deps.Backend,
		objects:   deps.Objects,
		uploads:   deps.Uploads,
		downloads: deps.Downloads,
		limiter:   deps.Limiter,
		bus:       deps.Bus,
		ids:       utils.NewUUIDGenerator(),
		clock:     deps.Clock,
		userID:    deps.UserID,
		logger:    deps.Logger,
	}
}

// Create registers a locally scanned document and marks it for upload.
// The id is assigned here and never changes.
func (s *DocumentService) Create(ctx context.Context, doc models.Document) (models.Document, error) {
	now := s.clock.Now()
	doc.ID = s.ids.Generate()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	doc.Deleted = false
	doc.DeletedAt = nil

	if err := s.docs.Save(ctx, doc); err != nil {
		return models.Document{}, fmt.Errorf("save new document: %w", err)
	}
	if err := s.states.SetStatus(ctx, doc.ID, models.StatusPendingUpload, ""); err != nil {
		return models.Document{}, err
	}
	if err := s.uploads.Enqueue(models.TransferJob{
		DocumentID: doc.ID,
		Priority:   models.PriorityUserInitiated,
	}); err != nil {
		return models.Document{}, err
	}
	return doc, nil
}

// Update persists a local edit, bumps the modification timestamp, and marks
// the document for upload.
func (s *DocumentService) Update(ctx context.Context, doc models.Document) (models.Document, error) {
	current, err := s.docs.Get(ctx, doc.ID)
	if err != nil {
		return models.Document{}, err
	}

	doc.CreatedAt = current.CreatedAt
	doc.UpdatedAt = s.clock.Now()
	if err = s.docs.Save(ctx, doc); err != nil {
		return models.Document{}, fmt.Errorf("save document edit: %w", err)
	}
	if err = s.states.SetStatus(ctx, doc.ID, models.StatusPendingUpload, ""); err != nil {
		return models.Document{}, err
	}
	if err = s.uploads.Enqueue(models.TransferJob{
		DocumentID: doc.ID,
		Priority:   models.PriorityUserInitiated,
	}); err != nil {
		return models.Document{}, err
	}
	return doc, nil
}

// Get returns the local document by id.
func (s *DocumentService) Get(ctx context.Context, id string) (models.Document, error) {
	return s.docs.Get(ctx, id)
}

// List returns every live local document.
func (s *DocumentService) List(ctx context.Context) ([]models.Document, error) {
	all, err := s.docs.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	live := all[:0]
	for _, doc := range all {
		if !doc.Deleted {
			live = append(live, doc)
		}
	}
	return live, nil
}

// SoftDelete marks the document deleted locally and enqueues the deletion
// push. The row and its sync state survive until a hard delete.
func (s *DocumentService) SoftDelete(ctx context.Context, id string) error {
	s.downloads.Remove(id)

	if err := s.docs.SoftDelete(ctx, id, s.clock.Now()); err != nil {
		return err
	}
	return s.uploads.Enqueue(models.TransferJob{
		DocumentID: id,
		Priority:   models.PriorityUserInitiated,
	})
}

// HardDelete removes the document everywhere: queued jobs, the remote
// metadata record, stored objects (best-effort), the local row, and the
// sync-state row.
func (s *DocumentService) HardDelete(ctx context.Context, id string) error {
	s.uploads.Remove(id)
	s.downloads.Remove(id)

	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		return err
	}

	if err = s.backend.DeleteDocument(ctx, id); err != nil && !isAbsent(err) {
		return fmt.Errorf("delete remote record for %s: %w", id, err)
	}

	// Object-storage failures never block the metadata deletion.
	if doc.HasRemoteContent() {
		if oErr := s.objects.Delete(ctx, adapter.ContentKey(s.userID, id, doc.Format)); oErr != nil {
			s.logger.Warn().Err(oErr).Str("document_id", id).Msg("best-effort content object delete failed")
		}
	}
	if doc.ThumbnailURL != "" {
		if oErr := s.objects.Delete(ctx, adapter.ThumbnailKey(s.userID, id)); oErr != nil {
			s.logger.Warn().Err(oErr).Str("document_id", id).Msg("best-effort thumbnail object delete failed")
		}
	}

	if err = s.docs.HardDelete(ctx, id); err != nil {
		return err
	}
	return s.states.Delete(ctx, id)
}

// Status returns the document's current sync status, empty when the
// document has never entered a sync cycle.
func (s *DocumentService) Status(ctx context.Context, id string) (models.SyncStatus, error) {
	return s.states.Status(ctx, id)
}

// Subscribe returns a stream of status-transition events and a cancel func.
func (s *DocumentService) Subscribe() (<-chan models.StatusEvent, func()) {
	return s.bus.Subscribe()
}

// SearchDocuments runs a server-side full-text query, throttled under the
// api_call class.
func (s *DocumentService) SearchDocuments(ctx context.Context, query string) ([]models.RemoteDocument, error) {
	if err := s.limiter.Acquire(ctx, ClassAPICall); err != nil {
		return nil, err
	}
	return s.backend.SearchDocuments(ctx, query)
}

// SearchSuggestions returns query completions, throttled under the api_call
// class.
func (s *DocumentService) SearchSuggestions(ctx context.Context, prefix string) ([]models.SearchSuggestion, error) {
	if err := s.limiter.Acquire(ctx, ClassAPICall); err != nil {
		return nil, err
	}
	return s.backend.SearchSuggestions(ctx, prefix)
}

func isAbsent(err error) bool {
	return err == nil || errors.Is(err, adapter.ErrNotFound)
}
