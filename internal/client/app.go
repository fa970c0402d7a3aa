package client

import (
	"context"
	"fmt"

	"github.com/proscan/docsync/internal/adapter"
	"github.com/proscan/docsync/internal/config"
	"github.com/proscan/docsync/internal/logger"
	"github.com/proscan/docsync/internal/service"
	"github.com/proscan/docsync/internal/store"
	"github.com/proscan/docsync/internal/workers"
	"github.com/proscan/docsync/models"
)

// App owns the fully wired sync engine for one user.
type App struct {
	cfg *config.StructuredConfig
	log *logger.Logger

	backend   adapter.BackendClient
	states    *service.SyncStateStore
	documents *service.DocumentService
	coord     *service.SyncCoordinator
	uploads   *service.TransferQueue
	downloads *service.TransferQueue
	workers   *workers.Workers

	connectivity chan bool
}

// NewApp builds the engine: sqlite store (running migrations), HTTP adapters,
// gates, queues, coordinator, document service, and background workers.
// Nothing starts running until Run is called.
func NewApp(ctx context.Context, cfg *config.StructuredConfig, log *logger.Logger) (*App, error) {
	storages, err := store.NewStorages(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("init local store: %w", err)
	}

	backend, err := adapter.NewHTTPBackendClient(cfg.Backend, cfg.App, log)
	if err != nil {
		return nil, fmt.Errorf("init backend client: %w", err)
	}
	objects, err := adapter.NewHTTPObjectStore(cfg.ObjectStorage, log)
	if err != nil {
		return nil, fmt.Errorf("init object store: %w", err)
	}
	clock := service.NewClock()
	bus := service.NewEventBus()
	states := service.NewSyncStateStore(storages.SyncStates, bus, clock, log)

	deps := service.QueueDeps{
		Guard:   service.NewResourceGuard(cfg.Sync, log),
		Limiter: service.NewRateLimiter(cfg.Sync, clock),
		Breaker: service.NewCircuitBreaker(cfg.Sync, clock, log),
		States:  states,
		Clock:   clock,
		Logger:  log,
	}

	uploads := service.NewUploadQueue(
		storages.Documents, states, backend, objects,
		cfg.App.UserID, cfg.Sync.MaxConcurrentUploads, deps,
	)
	downloads := service.NewDownloadQueue(
		storages.Documents, states, objects,
		cfg.App.UserID, cfg.Storage.ContentDir, cfg.Sync.MaxConcurrentDownloads, deps,
	)

	coord := service.NewSyncCoordinator(service.CoordinatorDeps{
		Documents: storages.Documents,
		Cursor:    storages.Cursor,
		States:    states,
		Backend:   backend,
		Uploads:   uploads,
		Downloads: downloads,
		Limiter:   deps.Limiter,
		Clock:     clock,
		Logger:    log,
	})

	documents := service.NewDocumentService(service.DocumentServiceDeps{
		Documents: storages.Documents,
		States:    states,
		Backend:   backend,
		Objects:   objects,
		Uploads:   uploads,
		Downloads: downloads,
		Limiter:   deps.Limiter,
		Bus:       bus,
		Clock:     clock,
		UserID:    cfg.App.UserID,
		Logger:    log,
	})

	connectivity := make(chan bool, 1)
	ws := workers.NewWorkers(
		workers.NewPeriodicSyncWorker(coord, cfg.Workers.SyncInterval, clock, log),
		workers.NewConnectivityWorker(connectivity, coord, []workers.PausableQueue{uploads, downloads}, log),
	)

	return &App{
		cfg:          cfg,
		log:          log,
		backend:      backend,
		states:       states,
		documents:    documents,
		coord:        coord,
		uploads:      uploads,
		downloads:    downloads,
		workers:      ws,
		connectivity: connectivity,
	}, nil
}

// Run starts queues and workers, requeues work left over from a previous
// process, triggers a catch-up sync, and serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.uploads.Start(ctx)
	a.downloads.Start(ctx)
	a.workers.Start(ctx)

	if err := a.recoverPersistedWork(ctx); err != nil {
		a.log.Warn().Err(err).Msg("recovering interrupted transfers failed")
	}

	if _, err := a.coord.Sync(ctx, false); err != nil {
		a.log.Warn().Err(err).Msg("startup sync failed")
	}

	<-ctx.Done()

	a.workers.Stop()
	a.downloads.Stop()
	a.uploads.Stop()
	return nil
}

// recoverPersistedWork re-enqueues documents whose sync state shows a
// transfer that never completed. In-flight statuses are included: a previous
// process may have died mid-transfer.
func (a *App) recoverPersistedWork(ctx context.Context) error {
	pendingUploads, err := a.states.ListByStatus(ctx,
		models.StatusPendingUpload,
		models.StatusUploadingFile,
		models.StatusUploadingThumbnail,
		models.StatusSyncingMetadata,
		models.StatusFailedRetry,
	)
	if err != nil {
		return fmt.Errorf("list pending uploads: %w", err)
	}
	for _, state := range pendingUploads {
		if err = a.uploads.Enqueue(models.TransferJob{
			DocumentID: state.DocumentID,
			Priority:   models.PriorityBackground,
		}); err != nil {
			return err
		}
	}

	pendingDownloads, err := a.states.ListByStatus(ctx,
		models.StatusPendingDownload,
		models.StatusSyncing,
	)
	if err != nil {
		return fmt.Errorf("list pending downloads: %w", err)
	}
	for _, state := range pendingDownloads {
		if err = a.downloads.Enqueue(models.TransferJob{
			DocumentID: state.DocumentID,
			Priority:   models.PriorityBackground,
		}); err != nil {
			return err
		}
	}

	a.log.Info().
		Int("uploads", len(pendingUploads)).
		Int("downloads", len(pendingDownloads)).
		Msg("requeued interrupted transfers")
	return nil
}

// Documents exposes the document CRUD and search surface.
func (a *App) Documents() *service.DocumentService {
	return a.documents
}

// Sync triggers a reconciliation cycle; full forces a complete pull.
func (a *App) Sync(ctx context.Context, full bool) (models.SyncResult, error) {
	return a.coord.Sync(ctx, full)
}

// SetSessionToken installs a fresh bearer token, e.g. after the host
// application refreshed the session.
func (a *App) SetSessionToken(token string) {
	a.backend.SetToken(token)
}

// SetOnline reports a connectivity transition from the host application.
// Never blocks: if the watcher has not consumed the previous report yet, the
// stale value is replaced with the current one.
func (a *App) SetOnline(online bool) {
	for {
		select {
		case a.connectivity <- online:
			return
		default:
			select {
			case <-a.connectivity:
			default:
			}
		}
	}
}
