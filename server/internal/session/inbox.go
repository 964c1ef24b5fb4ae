package session

import (
	"log/slog"

	"github.com/topchat/topchat/pkg/types"
	"github.com/topchat/topchat/server/internal/telemetry"
)

// DefaultInboxCapacity is used when NewInbox is given a non-positive capacity.
const DefaultInboxCapacity = 64

// Inbox is a bounded FIFO of chat messages awaiting distribution.
type Inbox struct {
	buf     chan types.ChatMessage
	metrics *telemetry.Metrics
}

// NewInbox creates an Inbox holding at most capacity messages.
// m may be nil.
func NewInbox(capacity int, m *telemetry.Metrics) *Inbox {
	if capacity <= 0 {
		capacity = DefaultInboxCapacity
	}
	return &Inbox{
		buf:     make(chan types.ChatMessage, capacity),
		metrics: m,
	}
}

// Push enqueues msg. If the inbox is full the oldest message is evicted to
// make room; evicted reports whether that happened. Push never blocks.
func (q *Inbox) Push(msg types.ChatMessage) (evicted bool) {
	for {
		select {
		case q.buf <- msg:
			q.metrics.Queued()
			return evicted
		default:
		}

		// Full: drop the oldest message, keep the newest.
		select {
		case old := <-q.buf:
			evicted = true
			q.metrics.Evicted()
			slog.Warn("inbox: full, evicted oldest message",
				"from_id", old.FromID, "capacity", cap(q.buf))
		default:
		}
	}
}

// Pop removes and returns the oldest queued message.
func (q *Inbox) Pop() (types.ChatMessage, bool) {
	select {
	case msg := <-q.buf:
		return msg, true
	default:
		return types.ChatMessage{}, false
	}
}

// Len returns the number of queued messages.
func (q *Inbox) Len() int { return len(q.buf) }

// Cap returns the maximum number of queued messages.
func (q *Inbox) Cap() int { return cap(q.buf) }
