package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proscan/docsync/models"
)

func TestEventBus_DeliversToAllSubscribers(t *testing.T) {
	bus := NewEventBus()

	ch1, cancel1 := bus.Subscribe()
	defer cancel1()
	ch2, cancel2 := bus.Subscribe()
	defer cancel2()

	event := models.StatusEvent{DocumentID: "doc-1", Current: models.StatusSynced}
	bus.Publish(event)

	assert.Equal(t, event, <-ch1)
	assert.Equal(t, event, <-ch2)
}

func TestEventBus_SlowSubscriberDropsOldest(t *testing.T) {
	bus := NewEventBus()

	ch, cancel := bus.Subscribe()
	defer cancel()

	// Overflow the buffer without consuming anything.
	total := eventBufferSize + 4
	for i := 0; i < total; i++ {
		bus.Publish(models.StatusEvent{DocumentID: fmt.Sprintf("doc-%d", i)})
	}

	// The oldest events were dropped; the first received one is the
	// first survivor, and the newest event is still present.
	first := <-ch
	assert.Equal(t, fmt.Sprintf("doc-%d", total-eventBufferSize), first.DocumentID)

	var last models.StatusEvent
	for i := 1; i < eventBufferSize; i++ {
		last = <-ch
	}
	assert.Equal(t, fmt.Sprintf("doc-%d", total-1), last.DocumentID)
}

func TestEventBus_CancelStopsDelivery(t *testing.T) {
	bus := NewEventBus()

	ch, cancel := bus.Subscribe()
	cancel()

	// Publishing after cancel must not panic on the closed channel.
	bus.Publish(models.StatusEvent{DocumentID: "doc-1"})

	_, open := <-ch
	require.False(t, open)

	cancel() // idempotent
}
