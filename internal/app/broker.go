package app

import (
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/yt-backup-go/internal/domain"
)

// subscriberBuffer is the number of events held for a slow subscriber
// before further events are dropped for it.
const subscriberBuffer = 256

// EventBroker fans archive events out to any number of subscribers
type EventBroker struct {
	logger      *zap.Logger
	mu          sync.RWMutex
	subscribers map[chan domain.Event]struct{}
}

// NewEventBroker creates a new event broker
func NewEventBroker(logger *zap.Logger) *EventBroker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBroker{
		logger:      logger,
		subscribers: make(map[chan domain.Event]struct{}),
	}
}

// Publish delivers event to every subscriber without blocking
func (b *EventBroker) Publish(event domain.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			b.logger.Warn("Dropping event for slow subscriber",
				zap.String("kind", string(event.Kind)),
				zap.String("key", event.Key))
		}
	}
}

// Subscribe registers a new subscriber. The returned function unsubscribes
// and closes the channel.
func (b *EventBroker) Subscribe() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, subscriberBuffer)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// SubscriberCount returns the number of live subscribers
func (b *EventBroker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
