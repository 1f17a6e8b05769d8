package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bassista/dockdesk/internal/logger"
)

const defaultBufferSize = 256

type subscriber struct {
	id       string
	channels map[Channel]struct{}
	ch       chan Event
}

func (s *subscriber) wants(c Channel) bool {
	if len(s.channels) == 0 {
		return true
	}
	_, ok := s.channels[c]
	return ok
}

// Bus fans events out to subscribers without blocking the emitter.
type Bus struct {
	mu         sync.RWMutex
	subs       map[string]*subscriber
	bufferSize int
	closed     bool
}

// NewBus creates a bus whose subscribers each buffer up to bufferSize events.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Bus{subs: map[string]*subscriber{}, bufferSize: bufferSize}
}

// Subscribe registers a listener for the given channels, or for all channels
// when none are given. The returned cancel func unregisters it and closes the channel.
func (b *Bus) Subscribe(channels ...Channel) (<-chan Event, func()) {
	sub := &subscriber{
		id:       uuid.NewString(),
		channels: make(map[Channel]struct{}, len(channels)),
		ch:       make(chan Event, b.bufferSize),
	}
	for _, c := range channels {
		sub.channels[c] = struct{}{}
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	b.subs[sub.id] = sub
	total := len(b.subs)
	b.mu.Unlock()

	logger.WithComponent("events").Debugf("subscriber %s registered for %v (total: %d)", sub.id, channels, total)

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() { b.unsubscribe(sub.id) })
	}
}

func (b *Bus) unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub, ok := b.subs[id]
	if !ok {
		return
	}
	delete(b.subs, id)
	close(sub.ch)
	logger.WithComponent("events").Debugf("subscriber %s removed", id)
}

// Emit delivers e to every interested subscriber with a free buffer slot.
// It returns ErrDropped when at least one subscriber missed the event.
func (b *Bus) Emit(e Event) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	var dropped bool
	for _, sub := range b.subs {
		if !sub.wants(e.Channel) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			dropped = true
			logger.WithComponent("events").Tracef("subscriber %s buffer full, dropping %s line", sub.id, e.Channel)
		}
	}
	if dropped {
		return ErrDropped
	}
	return nil
}

// Subscribers returns the number of registered listeners.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close unregisters every subscriber. Later Subscribe calls get a closed channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, id)
	}
	logger.WithComponent("events").Info("event bus closed")
}
