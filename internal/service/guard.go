package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/proscan/docsync/internal/config"
	"github.com/proscan/docsync/internal/logger"
	"github.com/proscan/docsync/internal/utils"
	"github.com/proscan/docsync/models"
)

// Operation categories with independently bounded concurrency.
const (
	CategoryUpload          = "upload"
	CategoryDownload        = "download"
	CategoryImageProcessing = "image_processing"
)

const (
	defaultMaxConcurrentUploads   = 3
	defaultMaxConcurrentDownloads = 3
	defaultMaxConcurrentImageOps  = 2

	// diskHeadroomFactor inflates required bytes in the disk preflight so
	// a transfer never fills the volume to the brim.
	diskHeadroomFactor = 1.5
)

type guardWaiter struct {
	priority models.Priority
	seq      uint64
	ready    chan struct{}
}

type categorySlots struct {
	capacity int
	active   int
	waiters  []*guardWaiter
}

// ResourceGuard is the global admission controller: per category it keeps a
// fixed-capacity active set and a priority-ordered wait queue (userInitiated
// before background, FIFO within a priority). It also exposes disk and
// memory preflight checks for transfer-sized work.
type ResourceGuard struct {
	mu         sync.Mutex
	seq        uint64
	logger     *logger.Logger
	categories map[string]*categorySlots
}

// NewResourceGuard builds a guard with capacities from cfg, applying
// defaults for zero values.
func NewResourceGuard(cfg config.Sync, log *logger.Logger) *ResourceGuard {
	uploads := cfg.MaxConcurrentUploads
	if uploads <= 0 {
		uploads = defaultMaxConcurrentUploads
	}
	downloads := cfg.MaxConcurrentDownloads
	if downloads <= 0 {
		downloads = defaultMaxConcurrentDownloads
	}
	imageOps := cfg.MaxConcurrentImageOps
	if imageOps <= 0 {
		imageOps = defaultMaxConcurrentImageOps
	}

	return &ResourceGuard{
		logger: log,
		categories: map[string]*categorySlots{
			CategoryUpload:          {capacity: uploads},
			CategoryDownload:        {capacity: downloads},
			CategoryImageProcessing: {capacity: imageOps},
		},
	}
}

// Acquire admits the caller into the category's active set, blocking in the
// priority wait queue while the set is full. The caller must Release the
// slot when done.
func (g *ResourceGuard) Acquire(ctx context.Context, category string, priority models.Priority) error {
	g.mu.Lock()
	slots, ok := g.categories[category]
	if !ok {
		g.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}

	if slots.active < slots.capacity {
		slots.active++
		g.mu.Unlock()
		return nil
	}

	w := &guardWaiter{priority: priority, seq: g.seq, ready: make(chan struct{})}
	g.seq++
	slots.waiters = append(slots.waiters, w)
	g.mu.Unlock()

	if docID, ok := utils.GetDocumentIDFromContext(ctx); ok {
		g.logger.Debug().
			Str("document_id", docID).
			Str("category", category).
			Str("priority", priority.String()).
			Msg("waiting for transfer slot")
	}

	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
	}

	// Cancelled: remove ourselves from the queue, unless a slot was
	// already granted, in which case it must be handed back.
	g.mu.Lock()
	for i, queued := range slots.waiters {
		if queued == w {
			slots.waiters = append(slots.waiters[:i], slots.waiters[i+1:]...)
			g.mu.Unlock()
			return ctx.Err()
		}
	}
	g.mu.Unlock()

	g.Release(category)
	return ctx.Err()
}

// Release frees one slot in the category and hands it to the best waiter:
// highest priority first, earliest arrival within a priority.
func (g *ResourceGuard) Release(category string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	slots, ok := g.categories[category]
	if !ok {
		return
	}

	if slots.active > 0 {
		slots.active--
	}

	next := -1
	for i, w := range slots.waiters {
		if next == -1 {
			next = i
			continue
		}
		best := slots.waiters[next]
		if w.priority > best.priority || (w.priority == best.priority && w.seq < best.seq) {
			next = i
		}
	}
	if next == -1 {
		return
	}

	w := slots.waiters[next]
	slots.waiters = append(slots.waiters[:next], slots.waiters[next+1:]...)
	slots.active++
	close(w.ready)
}

// Active returns the number of in-flight slots for the category.
func (g *ResourceGuard) Active(category string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	if slots, ok := g.categories[category]; ok {
		return slots.active
	}
	return 0
}

// HasSufficientDiskSpace reports whether the volume holding path has room
// for requiredBytes with headroom. When free space cannot be measured the
// check fails open, so an unreadable statfs never blocks legitimate work.
func (g *ResourceGuard) HasSufficientDiskSpace(path string, requiredBytes int64) bool {
	free, err := freeDiskBytes(path)
	if err != nil {
		g.logger.Warn().Err(err).Str("path", path).Msg("disk preflight unavailable, assuming sufficient")
		return true
	}
	return float64(free) > float64(requiredBytes)*diskHeadroomFactor
}

// HasSufficientMemory reports whether free RAM is above floorBytes, failing
// open when the measurement is unavailable.
func (g *ResourceGuard) HasSufficientMemory(floorBytes uint64) bool {
	free, err := freeMemoryBytes()
	if err != nil {
		g.logger.Warn().Err(err).Msg("memory preflight unavailable, assuming sufficient")
		return true
	}
	return free > floorBytes
}
