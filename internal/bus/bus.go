// Package bus implements a single-producer, many-consumer, bounded,
// drop-oldest fan-out primitive: one generic type shared by the PCM bus and
// the chat bus, each subscriber holding an independent buffered channel
// that drops its oldest item rather than block the producer when full.
package bus

import (
	"context"
	"sync"
	"sync/atomic"
)

// Bus is a fan-out broadcaster of capacity K: each Subscription holds an
// independent cursor over a bounded sliding window of published items.
// Publish never blocks the producer: a slow subscriber has its oldest
// undelivered items dropped rather than stalling the whole bus.
type Bus[T any] struct {
	capacity int

	mu     sync.RWMutex
	subs   map[uint64]*Subscription[T]
	nextID uint64
}

// New returns a Bus with per-subscriber queue depth capacity.
func New[T any](capacity int) *Bus[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Bus[T]{capacity: capacity, subs: make(map[uint64]*Subscription[T])}
}

// Subscription is one consumer's handle on a Bus. It is not safe to share a
// Subscription across goroutines; a Bus itself may be published to and
// subscribed from concurrently.
type Subscription[T any] struct {
	id      uint64
	bus     *Bus[T]
	ch      chan T
	lagged  atomic.Int64 // items dropped for this subscriber since its last reported lag
	closeMu sync.Once
}

// Subscribe creates a new subscriber at the live edge: it receives every
// item published after this call returns, never anything published before.
func (b *Bus[T]) Subscribe() *Subscription[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	sub := &Subscription[T]{
		id:  id,
		bus: b,
		ch:  make(chan T, b.capacity),
	}
	b.subs[id] = sub
	return sub
}

// Unsubscribe removes sub from the bus. Safe to call more than once and
// safe to call concurrently with Publish.
func (b *Bus[T]) Unsubscribe(sub *Subscription[T]) {
	b.mu.Lock()
	_, present := b.subs[sub.id]
	if present {
		delete(b.subs, sub.id)
	}
	b.mu.Unlock()

	if present {
		sub.closeMu.Do(func() { close(sub.ch) })
	}
}

// ActiveSubscribers returns the current subscriber count.
func (b *Bus[T]) ActiveSubscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish hands item to every current subscriber. It never blocks: a
// subscriber whose queue is full has its oldest queued item dropped to make
// room, and that subscriber's next Recv reports the drop as a lag signal
// before yielding the new item. Publishing with zero subscribers is a
// no-op — no allocation is retained.
func (b *Bus[T]) Publish(item T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		select {
		case sub.ch <- item:
		default:
			// Queue full: evict the oldest queued item, then retry. Safe
			// without a lock on the channel because Bus has exactly one
			// producer.
			select {
			case <-sub.ch:
				sub.lagged.Add(1)
			default:
			}
			select {
			case sub.ch <- item:
			default:
				// Lost a race with a concurrent drain by the subscriber
				// itself; count this item as dropped too rather than block.
				sub.lagged.Add(1)
			}
		}
	}
}

// Recv returns the next item for this subscription. If one or more items
// were dropped for this subscriber since the last Recv, the first call
// after that returns lagged > 0 and a zero value instead of an item. That
// call also discards every queued item but the newest (counting them in
// lagged), so the caller should log the lag and call Recv again to resume
// at the newest retained item. ok is false once the bus has unsubscribed
// this subscription and drained its queue; ctx cancellation also returns
// ok == false.
func (b *Bus[T]) Recv(ctx context.Context, sub *Subscription[T]) (item T, lagged int, ok bool) {
	if n := sub.lagged.Swap(0); n > 0 {
		for len(sub.ch) > 1 {
			if _, open := <-sub.ch; !open {
				break
			}
			n++
		}
		var zero T
		return zero, int(n), true
	}

	select {
	case v, open := <-sub.ch:
		if !open {
			var zero T
			return zero, 0, false
		}
		return v, 0, true
	case <-ctx.Done():
		var zero T
		return zero, 0, false
	}
}
