// internal/progress/hub.go
package progress

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Hamza-bouzid/pagine-bianche/api/schemas"
)

// Hub broadcasts events to any number of subscribers. Each subscriber gets a
// buffered channel; when it is full the event is dropped for that subscriber
// only, so a slow client can never stall a run.
type Hub struct {
	logger     *zap.Logger
	bufferSize int

	mu     sync.RWMutex
	subs   map[chan schemas.ProgressEvent]struct{}
	closed bool

	dropped atomic.Uint64
}

var _ Reporter = (*Hub)(nil)

// NewHub creates a hub whose subscriber channels hold bufferSize events.
func NewHub(logger *zap.Logger, bufferSize int) *Hub {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &Hub{
		logger:     logger.Named("progress_hub"),
		bufferSize: bufferSize,
		subs:       make(map[chan schemas.ProgressEvent]struct{}),
	}
}

// Report delivers ev to every subscriber without blocking.
func (h *Hub) Report(ev schemas.ProgressEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.dropped.Add(1)
		}
	}
}

// Subscribe registers a listener. The returned function unsubscribes and closes
// the channel; it is safe to call more than once.
func (h *Hub) Subscribe() (<-chan schemas.ProgressEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan schemas.ProgressEvent, h.bufferSize)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			// Close may already have closed the channel.
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
	return ch, unsubscribe
}

// Subscribers returns the number of active listeners.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Close closes every subscriber channel. Later reports are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		close(ch)
		delete(h.subs, ch)
	}
	h.logger.Debug("Progress hub closed.", zap.Uint64("dropped", h.dropped.Load()))
}
