package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proscan/docsync/internal/config"
	"github.com/proscan/docsync/internal/logger"
	"github.com/proscan/docsync/models"
)

func newTestGuard(capacity int) *ResourceGuard {
	return NewResourceGuard(config.Sync{
		MaxConcurrentUploads:   capacity,
		MaxConcurrentDownloads: capacity,
		MaxConcurrentImageOps:  capacity,
	}, logger.Nop())
}

func TestResourceGuard_AdmitsUpToCapacity(t *testing.T) {
	guard := newTestGuard(2)
	ctx := context.Background()

	require.NoError(t, guard.Acquire(ctx, CategoryUpload, models.PriorityBackground))
	require.NoError(t, guard.Acquire(ctx, CategoryUpload, models.PriorityBackground))
	assert.Equal(t, 2, guard.Active(CategoryUpload))

	// Third caller blocks until a slot frees.
	acquired := make(chan error, 1)
	go func() {
		acquired <- guard.Acquire(ctx, CategoryUpload, models.PriorityBackground)
	}()

	select {
	case <-acquired:
		t.Fatal("acquire succeeded beyond capacity")
	case <-time.After(50 * time.Millisecond):
	}

	guard.Release(CategoryUpload)
	select {
	case err := <-acquired:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not granted the freed slot")
	}
	assert.Equal(t, 2, guard.Active(CategoryUpload))
}

func TestResourceGuard_UserInitiatedJumpsQueue(t *testing.T) {
	guard := newTestGuard(1)
	ctx := context.Background()

	require.NoError(t, guard.Acquire(ctx, CategoryDownload, models.PriorityBackground))

	backgroundGranted := make(chan struct{})
	go func() {
		_ = guard.Acquire(ctx, CategoryDownload, models.PriorityBackground)
		close(backgroundGranted)
	}()
	// Let the background waiter enqueue first.
	require.Eventually(t, func() bool {
		guard.mu.Lock()
		defer guard.mu.Unlock()
		return len(guard.categories[CategoryDownload].waiters) == 1
	}, time.Second, 5*time.Millisecond)

	userGranted := make(chan struct{})
	go func() {
		_ = guard.Acquire(ctx, CategoryDownload, models.PriorityUserInitiated)
		close(userGranted)
	}()
	require.Eventually(t, func() bool {
		guard.mu.Lock()
		defer guard.mu.Unlock()
		return len(guard.categories[CategoryDownload].waiters) == 2
	}, time.Second, 5*time.Millisecond)

	guard.Release(CategoryDownload)

	select {
	case <-userGranted:
	case <-time.After(2 * time.Second):
		t.Fatal("user-initiated waiter was not granted first")
	}
	select {
	case <-backgroundGranted:
		t.Fatal("background waiter overtook the user-initiated one")
	case <-time.After(50 * time.Millisecond):
	}

	guard.Release(CategoryDownload)
	select {
	case <-backgroundGranted:
	case <-time.After(2 * time.Second):
		t.Fatal("background waiter never granted")
	}
}

func TestResourceGuard_AcquireCancellation(t *testing.T) {
	guard := newTestGuard(1)
	require.NoError(t, guard.Acquire(context.Background(), CategoryUpload, models.PriorityBackground))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- guard.Acquire(ctx, CategoryUpload, models.PriorityBackground)
	}()
	require.Eventually(t, func() bool {
		guard.mu.Lock()
		defer guard.mu.Unlock()
		return len(guard.categories[CategoryUpload].waiters) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled waiter never returned")
	}

	// The abandoned waiter must not leak a queue entry.
	guard.mu.Lock()
	assert.Empty(t, guard.categories[CategoryUpload].waiters)
	guard.mu.Unlock()
}

func TestResourceGuard_UnknownCategory(t *testing.T) {
	guard := newTestGuard(1)

	err := guard.Acquire(context.Background(), "bogus", models.PriorityBackground)
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestResourceGuard_DiskPreflight(t *testing.T) {
	guard := newTestGuard(1)
	dir := t.TempDir()

	if _, err := freeDiskBytes(dir); err != nil {
		t.Skip("disk measurement unavailable on this platform")
	}

	assert.True(t, guard.HasSufficientDiskSpace(dir, 1))
	assert.False(t, guard.HasSufficientDiskSpace(dir, math.MaxInt64/2))

	// Unmeasurable paths fail open.
	assert.True(t, guard.HasSufficientDiskSpace("/no/such/path", 1))
}

func TestResourceGuard_MemoryPreflight(t *testing.T) {
	guard := newTestGuard(1)

	assert.True(t, guard.HasSufficientMemory(1))

	if _, err := freeMemoryBytes(); err != nil {
		t.Skip("memory measurement unavailable on this platform")
	}
	assert.False(t, guard.HasSufficientMemory(math.MaxUint64))
}
