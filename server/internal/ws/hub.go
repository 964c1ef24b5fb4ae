package ws

import (
	"sync"
	"sync/atomic"

	"github.com/topchat/topchat/pkg/types"
	"github.com/topchat/topchat/server/internal/telemetry"
)

// Subscription receives snapshots published after it was created.
// The channel holds at most one snapshot; an unread snapshot is replaced by
// the next one. The channel is closed when the Hub closes.
type Subscription struct {
	ch chan *types.Snapshot
}

// C returns the receive side of the subscription.
func (s *Subscription) C() <-chan *types.Snapshot { return s.ch }

// Hub fans out each published Snapshot to every subscriber.
// Publish never blocks on a slow subscriber.
type Hub struct {
	metrics *telemetry.Metrics
	latest  atomic.Pointer[types.Snapshot]

	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	closed bool
}

// NewHub creates an empty Hub. m may be nil.
func NewHub(m *telemetry.Metrics) *Hub {
	return &Hub{
		metrics: m,
		subs:    make(map[*Subscription]struct{}),
	}
}

// Subscribe registers a new subscriber. Subscribing to a closed Hub returns
// a subscription whose channel is already closed.
func (h *Hub) Subscribe() *Subscription {
	s := &Subscription{ch: make(chan *types.Snapshot, 1)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(s.ch)
		return s
	}
	h.subs[s] = struct{}{}
	return s
}

// Unsubscribe removes s. It is safe to call more than once and after Close.
func (h *Hub) Unsubscribe(s *Subscription) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
}

// Publish delivers snap to every subscriber, replacing any snapshot a
// subscriber has not consumed yet. Publishing to a closed Hub is a no-op.
func (h *Hub) Publish(snap *types.Snapshot) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	h.latest.Store(snap)
	h.metrics.Published()

	for s := range h.subs {
		select {
		case s.ch <- snap:
			continue
		default:
		}

		// Slot full: take the stale snapshot out and put the new one in.
		select {
		case <-s.ch:
			h.metrics.Replaced()
		default:
		}
		select {
		case s.ch <- snap:
		default:
		}
	}
}

// Close closes every subscriber channel. Subsequent Publish calls are
// dropped.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for s := range h.subs {
		close(s.ch)
		delete(h.subs, s)
	}
}

// Latest returns the most recently published snapshot, or nil.
func (h *Hub) Latest() *types.Snapshot {
	return h.latest.Load()
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
