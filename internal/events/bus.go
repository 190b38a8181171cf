package events

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBufferSize is the per-subscriber channel capacity.
const DefaultBufferSize = 64

// Bus fans events out to subscribers. Publishing never blocks: a subscriber
// whose buffer is full misses the event and its drop counter is incremented.
type Bus struct {
	id     string
	buffer int
	logger *zap.Logger

	mu     sync.RWMutex
	subs   map[uuid.UUID]*Subscription
	closed bool
}

// Subscription is a single consumer registered on a Bus.
type Subscription struct {
	ID uuid.UUID

	bus     *Bus
	ch      chan Event
	topics  map[string]struct{}
	dropped atomic.Uint64
	once    sync.Once
}

// NewBus creates a bus. A nil logger disables logging.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		id:     uuid.NewString(),
		buffer: DefaultBufferSize,
		logger: logger,
		subs:   make(map[uuid.UUID]*Subscription),
	}
}

// ID identifies this bus as the origin of locally published events.
func (b *Bus) ID() string {
	return b.id
}

// Subscribe registers a consumer for the given topics, or for every topic when
// none are given. Subscribing to a closed bus returns an already closed
// subscription.
func (b *Bus) Subscribe(topics ...string) *Subscription {
	sub := &Subscription{
		ID:     uuid.New(),
		bus:    b,
		ch:     make(chan Event, b.buffer),
		topics: make(map[string]struct{}, len(topics)),
	}
	for _, t := range topics {
		sub.topics[t] = struct{}{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		sub.once.Do(func() { close(sub.ch) })
		return sub
	}
	b.subs[sub.ID] = sub
	b.logger.Debug("event subscriber registered",
		zap.String("subscription_id", sub.ID.String()),
		zap.Strings("topics", topics),
		zap.Int("subscribers", len(b.subs)))
	return sub
}

// Publish delivers evt to every matching subscriber. Events without an origin
// are stamped with this bus's ID.
func (b *Bus) Publish(evt Event) {
	if evt.Origin == "" {
		evt.Origin = b.id
	}
	b.deliver(evt)
}

// Deliver hands a remotely originated event to local subscribers without
// changing its origin.
func (b *Bus) Deliver(evt Event) {
	b.deliver(evt)
}

func (b *Bus) deliver(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	for _, sub := range b.subs {
		if !sub.matches(evt.Topic) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			n := sub.dropped.Add(1)
			b.logger.Warn("event dropped for slow subscriber",
				zap.String("subscription_id", sub.ID.String()),
				zap.String("type", evt.Type),
				zap.Uint64("dropped_total", n))
		}
	}
}

// Close unregisters and closes every subscription. Further publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		sub.once.Do(func() { close(sub.ch) })
	}
}

// Len reports the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// C returns the receive side of the subscription. It is closed when the
// subscription or its bus is closed.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Dropped reports how many events this subscriber missed because its buffer was full.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Close unregisters the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	delete(s.bus.subs, s.ID)
	s.once.Do(func() { close(s.ch) })
}

func (s *Subscription) matches(topic string) bool {
	if len(s.topics) == 0 {
		return true
	}
	_, ok := s.topics[topic]
	return ok
}
