// Package live fans collection snapshots out to subscribers. Every write
// refreshes the affected hub, which reloads the whole collection and offers
// it to each subscriber. Subscribers that fall behind skip intermediate
// snapshots but always end up holding the latest one.
package live

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Snapshot is one full copy of a collection.
type Snapshot[T any] struct {
	Seq  uint64    `json:"seq"`
	At   time.Time `json:"at"`
	Data T         `json:"data"`
}

// Loader reads a whole collection.
type Loader[T any] func(ctx context.Context) (T, error)

// Hub owns the latest snapshot of one collection and its subscribers.
type Hub[T any] struct {
	load Loader[T]

	refreshMu sync.Mutex // serializes loads so snapshots apply in order

	mu     sync.Mutex
	latest Snapshot[T]
	loaded bool
	subs   map[*Subscription[T]]struct{}
}

// NewHub creates a hub that reads its collection with load.
func NewHub[T any](load Loader[T]) *Hub[T] {
	return &Hub[T]{
		load: load,
		subs: make(map[*Subscription[T]]struct{}),
	}
}

// Refresh reloads the collection and offers the new snapshot to every
// subscriber.
func (h *Hub[T]) Refresh(ctx context.Context) (Snapshot[T], error) {
	h.refreshMu.Lock()
	defer h.refreshMu.Unlock()

	data, err := h.load(ctx)
	if err != nil {
		return Snapshot[T]{}, fmt.Errorf("loading snapshot: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = Snapshot[T]{Seq: h.latest.Seq + 1, At: time.Now(), Data: data}
	h.loaded = true
	for s := range h.subs {
		s.offer(h.latest)
	}
	return h.latest, nil
}

// Latest returns the current snapshot, loading it on first use.
func (h *Hub[T]) Latest(ctx context.Context) (Snapshot[T], error) {
	h.mu.Lock()
	if h.loaded {
		snap := h.latest
		h.mu.Unlock()
		return snap, nil
	}
	h.mu.Unlock()
	return h.Refresh(ctx)
}

// Subscribers returns the number of open subscriptions.
func (h *Hub[T]) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Subscribe registers a subscriber. The current snapshot is waiting on C
// when Subscribe returns. The subscription ends when ctx is done or Close
// is called, after which C is closed.
func (h *Hub[T]) Subscribe(ctx context.Context) (*Subscription[T], error) {
	if _, err := h.Latest(ctx); err != nil {
		return nil, err
	}

	ch := make(chan Snapshot[T], 1)
	s := &Subscription[T]{C: ch, ch: ch, hub: h, done: make(chan struct{})}

	h.mu.Lock()
	s.offer(h.latest)
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()

	return s, nil
}

// Subscription receives snapshots from a hub.
type Subscription[T any] struct {
	C <-chan Snapshot[T]

	ch   chan Snapshot[T]
	hub  *Hub[T]
	once sync.Once
	done chan struct{}
}

// offer replaces any undelivered snapshot with snap. The caller holds the
// hub mutex.
func (s *Subscription[T]) offer(snap Snapshot[T]) {
	select {
	case <-s.ch:
	default:
	}
	s.ch <- snap
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		close(s.ch)
		s.hub.mu.Unlock()
		close(s.done)
	})
}
