package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/proscan/docsync/internal/adapter"
	"github.com/proscan/docsync/internal/logger"
	"github.com/proscan/docsync/internal/store"
	"github.com/proscan/docsync/models"
)

// uploader pushes one document to the remote side: content file, then
// thumbnail, then the metadata record. For soft-deleted documents it pushes
// the deletion instead.
type uploader struct {
	docs     store.DocumentRepository
	states   *SyncStateStore
	backend  adapter.BackendClient
	objects  adapter.ObjectStore
	resolver *ConflictResolver
	userID   string
	logger   *logger.Logger
}

// NewUploadQueue builds the upload queue and its worker pool. Workers are
// gated on the upload guard category, the upload rate class, and the
// backend/object-storage circuits.
func NewUploadQueue(
	docs store.DocumentRepository,
	states *SyncStateStore,
	backend adapter.BackendClient,
	objects adapter.ObjectStore,
	userID string,
	workers int,
	deps QueueDeps,
) *TransferQueue {
	u := &uploader{
		docs:     docs,
		states:   states,
		backend:  backend,
		objects:  objects,
		resolver: NewConflictResolver(),
		userID:   userID,
		logger:   deps.Logger,
	}
	return newTransferQueue(
		models.TransferUpload,
		CategoryUpload, ClassUpload, ServiceBackend,
		workers,
		deps,
		u.run,
		u.terminalStatus,
	)
}

func (u *uploader) run(ctx context.Context, job models.TransferJob) error {
	doc, err := u.docs.Get(ctx, job.DocumentID)
	if errors.Is(err, store.ErrDocumentNotFound) {
		// Hard-deleted while queued; nothing to push.
		return nil
	}
	if err != nil {
		return fmt.Errorf("load document %s: %w", job.DocumentID, err)
	}

	if doc.Deleted {
		return u.pushDelete(ctx, doc)
	}
	return u.pushDocument(ctx, doc)
}

// terminalStatus distinguishes a failed deletion push from a failed content
// push, since the former needs its own manual-retry surface.
func (u *uploader) terminalStatus(ctx context.Context, job models.TransferJob) models.SyncStatus {
	doc, err := u.docs.Get(ctx, job.DocumentID)
	if err == nil && doc.Deleted {
		return models.StatusFailedSyncDelete
	}
	return models.StatusFailed
}

func (u *uploader) pushDocument(ctx context.Context, doc models.Document) error {
	if doc.HasLocalContent() {
		if err := u.states.SetStatus(ctx, doc.ID, models.StatusUploadingFile, ""); err != nil {
			return err
		}

		contentKey := adapter.ContentKey(u.userID, doc.ID, doc.Format)
		fileURL, err := u.objects.Upload(ctx, contentKey, doc.LocalPath)
		if err != nil {
			return fmt.Errorf("upload content for %s: %w", doc.ID, err)
		}
		doc.FileURL = fileURL

		if thumbPath := localThumbnailPath(doc.LocalPath); thumbPath != "" {
			if err = u.states.SetStatus(ctx, doc.ID, models.StatusUploadingThumbnail, ""); err != nil {
				return err
			}
			thumbURL, thumbErr := u.objects.Upload(ctx, adapter.ThumbnailKey(u.userID, doc.ID), thumbPath)
			if thumbErr != nil {
				return fmt.Errorf("upload thumbnail for %s: %w", doc.ID, thumbErr)
			}
			doc.ThumbnailURL = thumbURL
		}
	}

	if err := u.states.SetStatus(ctx, doc.ID, models.StatusSyncingMetadata, ""); err != nil {
		return err
	}

	pushed, err := u.pushMetadata(ctx, doc)
	if err != nil {
		return err
	}
	if !pushed {
		// Conflict path: resolvePushConflict already recorded the outcome,
		// and the local record must not clobber an adopted remote version.
		return nil
	}

	if err = u.docs.Save(ctx, doc); err != nil {
		return fmt.Errorf("persist uploaded document %s: %w", doc.ID, err)
	}
	return u.states.SetStatus(ctx, doc.ID, models.StatusSynced, "")
}

// pushMetadata updates the remote record, creating it when the backend has
// never seen the id. A 409 carries the current remote snapshot and is
// resolved in place instead of surfacing as a raw error; it reports false so
// the caller leaves the conflict outcome untouched.
func (u *uploader) pushMetadata(ctx context.Context, doc models.Document) (bool, error) {
	_, err := u.backend.UpdateDocument(ctx, models.FromDocument(doc))
	if errors.Is(err, adapter.ErrNotFound) {
		_, err = u.backend.CreateDocument(ctx, models.FromDocument(doc))
	}
	if err == nil {
		return true, nil
	}

	if conflict, ok := adapter.AsConflict(err); ok {
		return false, u.resolvePushConflict(ctx, doc, conflict.Remote.ToDocument())
	}
	return false, fmt.Errorf("push metadata for %s: %w", doc.ID, err)
}

// resolvePushConflict handles a 409 on push. A strictly newer remote wins
// and is adopted locally; otherwise the document parks in
// pendingConflictResolution rather than looping against the backend.
func (u *uploader) resolvePushConflict(ctx context.Context, local, snapshot models.Document) error {
	res := u.resolver.Resolve(local, snapshot)
	if res.Action != ResolutionAdoptRemote {
		u.logger.Warn().
			Str("document_id", local.ID).
			Msg("push rejected with conflict, parking for resolution")
		return u.states.SetStatus(ctx, local.ID, models.StatusPendingConflictResolution, "remote rejected push with a conflicting version")
	}

	if err := u.docs.Save(ctx, res.Merged); err != nil {
		return fmt.Errorf("adopt remote version of %s: %w", local.ID, err)
	}
	return u.states.SetStatus(ctx, local.ID, res.Status, "")
}

// pushDelete propagates a local soft delete: the signed metadata DELETE
// first, then best-effort removal of the stored objects. Object-storage
// failures are logged, never allowed to block the metadata deletion outcome.
func (u *uploader) pushDelete(ctx context.Context, doc models.Document) error {
	err := u.backend.DeleteDocument(ctx, doc.ID)
	if err != nil && !errors.Is(err, adapter.ErrNotFound) {
		return fmt.Errorf("push deletion of %s: %w", doc.ID, err)
	}

	u.deleteObjects(ctx, doc)
	return u.states.SetStatus(ctx, doc.ID, models.StatusSynced, "")
}

func (u *uploader) deleteObjects(ctx context.Context, doc models.Document) {
	if doc.HasRemoteContent() {
		if err := u.objects.Delete(ctx, adapter.ContentKey(u.userID, doc.ID, doc.Format)); err != nil {
			u.logger.Warn().Err(err).Str("document_id", doc.ID).Msg("best-effort content object delete failed")
		}
	}
	if doc.ThumbnailURL != "" {
		if err := u.objects.Delete(ctx, adapter.ThumbnailKey(u.userID, doc.ID)); err != nil {
			u.logger.Warn().Err(err).Str("document_id", doc.ID).Msg("best-effort thumbnail object delete failed")
		}
	}
}

// localThumbnailPath returns the conventional thumbnail location next to the
// content file ("<name>_thumb.jpg"), or empty when no thumbnail exists.
func localThumbnailPath(contentPath string) string {
	if contentPath == "" {
		return ""
	}
	base := strings.TrimSuffix(contentPath, filepath.Ext(contentPath))
	thumbPath := base + "_thumb.jpg"
	info, err := os.Stat(thumbPath)
	if err != nil || info.Size() == 0 {
		return ""
	}
	return thumbPath
}
