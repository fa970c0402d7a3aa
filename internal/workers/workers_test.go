package workers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proscan/docsync/internal/logger"
	"github.com/proscan/docsync/internal/service"
	"github.com/proscan/docsync/models"
)

type fakeTrigger struct {
	calls atomic.Int32
	err   error
}

func (f *fakeTrigger) Sync(context.Context, bool) (models.SyncResult, error) {
	f.calls.Add(1)
	return models.SyncResult{}, f.err
}

type fakeQueue struct {
	mu      sync.Mutex
	pauses  int
	resumes int
}

func (f *fakeQueue) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses++
}

func (f *fakeQueue) Resume() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumes++
}

func (f *fakeQueue) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pauses, f.resumes
}

func TestPeriodicSyncWorker_TriggersOnInterval(t *testing.T) {
	clock := service.NewManualClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	trigger := &fakeTrigger{}
	w := NewPeriodicSyncWorker(trigger, time.Minute, clock, logger.Nop())

	w.Start(context.Background())
	defer w.Stop()

	require.Eventually(t, func() bool {
		clock.Advance(time.Minute)
		return trigger.calls.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestPeriodicSyncWorker_StopHaltsTriggering(t *testing.T) {
	clock := service.NewManualClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	trigger := &fakeTrigger{}
	w := NewPeriodicSyncWorker(trigger, time.Minute, clock, logger.Nop())

	w.Start(context.Background())
	require.Eventually(t, func() bool {
		clock.Advance(time.Minute)
		return trigger.calls.Load() >= 1
	}, 2*time.Second, 5*time.Millisecond)

	w.Stop()
	after := trigger.calls.Load()
	for i := 0; i < 5; i++ {
		clock.Advance(time.Minute)
	}
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, trigger.calls.Load())
}

func TestPeriodicSyncWorker_KeepsRunningAfterSyncError(t *testing.T) {
	clock := service.NewManualClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	trigger := &fakeTrigger{err: errors.New("backend unreachable")}
	w := NewPeriodicSyncWorker(trigger, time.Minute, clock, logger.Nop())

	w.Start(context.Background())
	defer w.Stop()

	require.Eventually(t, func() bool {
		clock.Advance(time.Minute)
		return trigger.calls.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestPeriodicSyncWorker_StopWithoutStart(t *testing.T) {
	w := NewPeriodicSyncWorker(&fakeTrigger{}, time.Minute, nil, logger.Nop())
	w.Stop()
	w.Stop()
}

func TestConnectivityWorker_OfflinePausesQueues(t *testing.T) {
	events := make(chan bool)
	q1, q2 := &fakeQueue{}, &fakeQueue{}
	trigger := &fakeTrigger{}
	w := NewConnectivityWorker(events, trigger, []PausableQueue{q1, q2}, logger.Nop())

	w.Start(context.Background())
	defer w.Stop()

	events <- false
	require.Eventually(t, func() bool {
		p1, _ := q1.counts()
		p2, _ := q2.counts()
		return p1 == 1 && p2 == 1
	}, time.Second, 5*time.Millisecond)
	assert.Zero(t, trigger.calls.Load())
}

func TestConnectivityWorker_OnlineResumesAndTriggersSync(t *testing.T) {
	events := make(chan bool)
	q := &fakeQueue{}
	trigger := &fakeTrigger{}
	w := NewConnectivityWorker(events, trigger, []PausableQueue{q}, logger.Nop())

	w.Start(context.Background())
	defer w.Stop()

	events <- false
	events <- true
	require.Eventually(t, func() bool {
		_, resumes := q.counts()
		return resumes == 1 && trigger.calls.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestConnectivityWorker_DuplicateEventsIgnored(t *testing.T) {
	events := make(chan bool)
	q := &fakeQueue{}
	trigger := &fakeTrigger{}
	w := NewConnectivityWorker(events, trigger, []PausableQueue{q}, logger.Nop())

	w.Start(context.Background())
	defer w.Stop()

	// Already online: a redundant online report must not resume or sync.
	events <- true
	events <- false
	events <- false
	require.Eventually(t, func() bool {
		pauses, _ := q.counts()
		return pauses == 1
	}, time.Second, 5*time.Millisecond)

	_, resumes := q.counts()
	assert.Zero(t, resumes)
	assert.Zero(t, trigger.calls.Load())
}

func TestConnectivityWorker_ClosedStreamStopsWorker(t *testing.T) {
	events := make(chan bool)
	w := NewConnectivityWorker(events, &fakeTrigger{}, nil, logger.Nop())

	w.Start(context.Background())
	close(events)

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after event stream closed")
	}
}

type recordWorker struct {
	name  string
	log   *[]string
	mu    *sync.Mutex
}

func (r *recordWorker) Start(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.log = append(*r.log, "start:"+r.name)
}

func (r *recordWorker) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.log = append(*r.log, "stop:"+r.name)
}

func TestWorkers_StartStopOrder(t *testing.T) {
	var (
		log []string
		mu  sync.Mutex
	)
	a := &recordWorker{name: "a", log: &log, mu: &mu}
	b := &recordWorker{name: "b", log: &log, mu: &mu}

	ws := NewWorkers(a, b)
	ws.Start(context.Background())
	ws.Stop()

	assert.Equal(t, []string{"start:a", "start:b", "stop:b", "stop:a"}, log)
}
