package fleet

import (
	"sync"

	"go.uber.org/zap"

	domainFleet "github.com/andrescamacho/skamkraft-go/internal/domain/fleet"
)

// EventBus fans fleet events out to callback and channel subscribers.
// Callbacks run synchronously on the publishing goroutine; a panicking
// callback is logged and does not affect the others. Channel sends never
// block: a full buffer drops the event for that subscriber.
type EventBus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]func(domainFleet.Event)
	channels map[int]chan domainFleet.Event
	logger   *zap.Logger
}

// NewEventBus creates an empty bus
func NewEventBus(logger *zap.Logger) *EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBus{
		handlers: make(map[int]func(domainFleet.Event)),
		channels: make(map[int]chan domainFleet.Event),
		logger:   logger,
	}
}

// Subscribe registers fn and returns its unsubscribe function
func (b *EventBus) Subscribe(fn func(domainFleet.Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers, id)
		})
	}
}

// SubscribeChannel returns a buffered event channel. The unsubscribe
// function closes it.
func (b *EventBus) SubscribeChannel(buffer int) (<-chan domainFleet.Event, func()) {
	if buffer < 1 {
		buffer = 1
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan domainFleet.Event, buffer)
	b.channels[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.channels, id)
			close(ch)
		})
	}
}

// Publish delivers ev to every subscriber
func (b *EventBus) Publish(ev domainFleet.Event) {
	b.mu.RLock()
	handlers := make([]func(domainFleet.Event), 0, len(b.handlers))
	for _, fn := range b.handlers {
		handlers = append(handlers, fn)
	}
	for _, ch := range b.channels {
		select {
		case ch <- ev:
		default:
			b.logger.Debug("fleet-event-dropped", zap.String("type", string(ev.Type)))
		}
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		b.deliver(fn, ev)
	}
}

func (b *EventBus) deliver(fn func(domainFleet.Event), ev domainFleet.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("fleet-listener-panic",
				zap.String("type", string(ev.Type)),
				zap.Any("panic", r))
		}
	}()
	fn(ev)
}

// SubscriberCount returns the number of active subscriptions
func (b *EventBus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers) + len(b.channels)
}
