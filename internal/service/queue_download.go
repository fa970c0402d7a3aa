package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/proscan/docsync/internal/adapter"
	"github.com/proscan/docsync/internal/logger"
	"github.com/proscan/docsync/internal/store"
	"github.com/proscan/docsync/models"
)

// downloader fetches one document's content (and thumbnail, best-effort)
// from object storage into the local content directory.
type downloader struct {
	docs       store.DocumentRepository
	states     *SyncStateStore
	objects    adapter.ObjectStore
	guard      *ResourceGuard
	userID     string
	contentDir string
	logger     *logger.Logger
}

// NewDownloadQueue builds the download queue and its worker pool. Workers
// are gated on the download guard category, the api_call rate class, and the
// object-storage circuit.
func NewDownloadQueue(
	docs store.DocumentRepository,
	states *SyncStateStore,
	objects adapter.ObjectStore,
	userID, contentDir string,
	workers int,
	deps QueueDeps,
) *TransferQueue {
	d := &downloader{
		docs:       docs,
		states:     states,
		objects:    objects,
		guard:      deps.Guard,
		userID:     userID,
		contentDir: contentDir,
		logger:     deps.Logger,
	}
	return newTransferQueue(
		models.TransferDownload,
		CategoryDownload, ClassAPICall, ServiceObjectStorage,
		workers,
		deps,
		d.run,
		nil,
	)
}

func (d *downloader) run(ctx context.Context, job models.TransferJob) error {
	doc, err := d.docs.Get(ctx, job.DocumentID)
	if errors.Is(err, store.ErrDocumentNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load document %s: %w", job.DocumentID, err)
	}

	status, err := d.states.Status(ctx, doc.ID)
	if err != nil {
		return err
	}

	// Short-circuit: content already present and non-empty. A
	// pendingDownload or syncing state means the remote version supersedes
	// whatever file is on disk, so presence alone must not satisfy the job.
	if status != models.StatusPendingDownload && status != models.StatusSyncing &&
		localContentPresent(doc.LocalPath) {
		return d.states.SetStatus(ctx, doc.ID, models.StatusSynced, "")
	}

	destPath := filepath.Join(d.contentDir, doc.ID+"."+doc.Format)
	if !d.guard.HasSufficientDiskSpace(d.contentDir, doc.SizeBytes) {
		return fmt.Errorf("%w: insufficient disk space for %s (%d bytes)", adapter.ErrStorage, doc.ID, doc.SizeBytes)
	}

	if err = d.states.SetStatus(ctx, doc.ID, models.StatusSyncing, ""); err != nil {
		return err
	}

	contentKey := adapter.ContentKey(d.userID, doc.ID, doc.Format)
	if err = d.objects.Download(ctx, contentKey, destPath); err != nil {
		return fmt.Errorf("download content for %s: %w", doc.ID, err)
	}

	if doc.ThumbnailURL != "" {
		thumbDest := filepath.Join(d.contentDir, doc.ID+"_thumb.jpg")
		if thumbErr := d.objects.Download(ctx, adapter.ThumbnailKey(d.userID, doc.ID), thumbDest); thumbErr != nil {
			d.logger.Warn().Err(thumbErr).Str("document_id", doc.ID).Msg("thumbnail download failed, content kept")
		}
	}

	doc.LocalPath = destPath
	if err = d.docs.Save(ctx, doc); err != nil {
		return fmt.Errorf("persist downloaded document %s: %w", doc.ID, err)
	}
	return d.states.SetStatus(ctx, doc.ID, models.StatusSynced, "")
}

func localContentPresent(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}
