package service

import (
	"sync"

	"github.com/proscan/docsync/models"
)

const eventBufferSize = 16

// EventBus fans status events out to subscribers. Publishing never blocks:
// when a subscriber's buffer is full its oldest event is dropped to make
// room, so a slow observer degrades its own view, not the engine.
type EventBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan models.StatusEvent
}

func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[int]chan models.StatusEvent)}
}

// Subscribe registers a new observer. The returned cancel func removes the
// subscription and closes the channel; it is safe to call more than once.
func (b *EventBus) Subscribe() (<-chan models.StatusEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan models.StatusEvent, eventBufferSize)
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber.
func (b *EventBus) Publish(event models.StatusEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			// Buffer full: drop the oldest event, then deliver.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- event:
			default:
			}
		}
	}
}
