// Package events delivers committed order state changes to in-process
// subscribers such as the SSE stream.
package events

import (
	"context"
	"errors"
	"sync"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"

	"go.uber.org/zap"
)

// DefaultSubscriberBuffer is the per-subscriber channel capacity.
const DefaultSubscriberBuffer = 64

var _ ports.EventPublisher = (*Broadcaster)(nil)

// Broadcaster fans each published event out to every subscriber. Publish
// never blocks: a subscriber whose buffer is full misses the event and the
// drop is logged.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[uint64]chan order.StateChanged
	nextID uint64
	buffer int
	closed bool
	logger *zap.Logger
}

func NewBroadcaster(buffer int, logger *zap.Logger) *Broadcaster {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{
		subs:   make(map[uint64]chan order.StateChanged),
		buffer: buffer,
		logger: logger.Named("broadcaster"),
	}
}

// Subscribe registers a new subscriber. The returned cancel function
// unregisters it and closes the channel; it is safe to call more than once.
// Subscribing to a closed broadcaster yields an already closed channel.
func (b *Broadcaster) Subscribe() (<-chan order.StateChanged, func()) {
	ch := make(chan order.StateChanged, b.buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.unsubscribe(id) })
	}
}

func (b *Broadcaster) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Subscribers reports the number of registered subscribers.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Broadcaster) Publish(_ context.Context, events ...order.StateChanged) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBroadcasterClosed
	}

	for _, e := range events {
		for id, ch := range b.subs {
			select {
			case ch <- e:
			default:
				b.logger.Warn("subscriber buffer full, event dropped",
					zap.Uint64("subscriber", id),
					zap.String("event_id", e.EventID.String()),
					zap.String("order_id", e.OrderID.String()))
			}
		}
	}
	return nil
}

// Close unregisters and closes every subscriber.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

// ErrBroadcasterClosed is returned by Publish after Close.
var ErrBroadcasterClosed = errors.New("broadcaster is closed")
