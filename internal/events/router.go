package events

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// DefaultBufferSize is the default channel buffer size for subscribers.
const DefaultBufferSize = 100

type subscriber struct {
	ch    chan Event
	types map[EventType]struct{} // nil receives everything
}

func (s subscriber) wants(t EventType) bool {
	if s.types == nil {
		return true
	}
	_, ok := s.types[t]
	return ok
}

// Router fans events out from the controller to the journal and the view.
// Delivery never blocks the emitter: a full subscriber loses the event.
type Router struct {
	subscribers []subscriber
	bufferSize  int
	dropped     atomic.Int64
	mu          sync.RWMutex
	closed      bool
}

// NewRouter creates a router. A bufferSize of 0 or less selects
// DefaultBufferSize.
func NewRouter(bufferSize int) *Router {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Router{
		bufferSize: bufferSize,
	}
}

// Emit publishes an event to every interested subscriber.
// Emit is safe to call concurrently and after Close, where it is a no-op.
func (r *Router) Emit(event Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return
	}

	for _, sub := range r.subscribers {
		if !sub.wants(event.Type()) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			r.dropped.Add(1)
			slog.Warn("event dropped: subscriber channel full",
				"event_type", event.Type(),
				"source", event.Source(),
			)
		}
	}
}

// Subscribe returns a channel receiving every event, buffered with the
// router's default size. The channel is closed by Unsubscribe or Close.
func (r *Router) Subscribe() <-chan Event {
	return r.subscribe(r.bufferSize, nil)
}

// SubscribeBuffered is Subscribe with an explicit buffer size.
func (r *Router) SubscribeBuffered(size int) <-chan Event {
	return r.subscribe(size, nil)
}

// SubscribeTypes returns a channel receiving only the listed event types.
func (r *Router) SubscribeTypes(types ...EventType) <-chan Event {
	filter := make(map[EventType]struct{}, len(types))
	for _, t := range types {
		filter[t] = struct{}{}
	}
	return r.subscribe(r.bufferSize, filter)
}

func (r *Router) subscribe(size int, filter map[EventType]struct{}) <-chan Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, size)
	r.subscribers = append(r.subscribers, subscriber{ch: ch, types: filter})
	return ch
}

// Unsubscribe removes a subscription and closes its channel. Unknown
// channels are ignored.
func (r *Router) Unsubscribe(ch <-chan Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, sub := range r.subscribers {
		if sub.ch == ch {
			r.subscribers = append(r.subscribers[:i], r.subscribers[i+1:]...)
			close(sub.ch)
			return
		}
	}
}

// Dropped reports how many deliveries were lost to full subscribers.
func (r *Router) Dropped() int64 {
	return r.dropped.Load()
}

// Close closes all subscriber channels. Later Subscribe calls return closed
// channels. Close is idempotent.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	r.closed = true
	for _, sub := range r.subscribers {
		close(sub.ch)
	}
	r.subscribers = nil
}
