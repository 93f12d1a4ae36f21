package state

import (
	"sync"
	"sync/atomic"

	"github.com/data-explorer/client/internal/models"
)

const subscriberBufSize = 64

// Event is emitted once per state transition.
type Event struct {
	Snapshot models.Snapshot
	// Notice carries a user-facing message, set on failures.
	Notice string
}

// broker fans out events to subscribers. Slow subscribers drop events.
type broker struct {
	mu          sync.RWMutex
	subscribers map[int64]chan Event
	nextID      atomic.Int64
}

func newBroker() *broker {
	return &broker{
		subscribers: make(map[int64]chan Event),
	}
}

func (b *broker) subscribe() (int64, <-chan Event) {
	id := b.nextID.Add(1)
	ch := make(chan Event, subscriberBufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

func (b *broker) unsubscribe(id int64) {
	b.mu.Lock()
	ch, ok := b.subscribers[id]
	if ok {
		delete(b.subscribers, id)
		close(ch)
	}
	b.mu.Unlock()
}

func (b *broker) publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- evt:
		default:
		}
	}
}

func (b *broker) count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
