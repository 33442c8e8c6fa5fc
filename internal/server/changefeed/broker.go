package changefeed

import (
	"context"
	"sync"
)

// Broker fans events out to in-process subscribers.
//
// Every subscriber channel has capacity 1 and Publish never blocks: when a
// channel is full a wake-up is already pending for that subscriber, so the
// new event is dropped. A burst of writes therefore costs each subscriber a
// single wake-up.
type Broker struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan Event
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[int]chan Event)}
}

// Subscribe registers a subscriber. The returned func removes it and closes
// the channel; calling it more than once is safe.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 1)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish implements Publisher for the in-process feed. It never fails.
func (b *Broker) Publish(_ context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

// Subscribers reports the number of live subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
