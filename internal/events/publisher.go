// Package events provides the in-process broadcast channel for domain events
// and an optional Kafka relay for off-process consumers.
package events

import (
	"sync"

	"github.com/HeoJeongBo/expo-live-activity/internal/domain"
	"github.com/HeoJeongBo/expo-live-activity/internal/observability"
)

// DefaultBufferSize is the per-subscriber buffer. Matches the extra buffer
// the native event flow carries before it starts shedding.
const DefaultBufferSize = 10

// Publisher broadcasts events to all current subscribers. Publish never
// blocks: a subscriber whose buffer is full loses the event. There is no
// replay; a new subscriber sees only events published after it subscribed.
type Publisher struct {
	mu      sync.Mutex
	subs    map[int]chan domain.Event
	nextID  int
	bufSize int
	closed  bool
}

// NewPublisher constructs a Publisher with the default buffer size.
func NewPublisher() *Publisher {
	return NewPublisherWithBuffer(DefaultBufferSize)
}

// NewPublisherWithBuffer constructs a Publisher with a custom per-subscriber buffer.
func NewPublisherWithBuffer(size int) *Publisher {
	if size < 1 {
		size = 1
	}
	return &Publisher{
		subs:    make(map[int]chan domain.Event),
		bufSize: size,
	}
}

// Publish delivers event to every subscriber, best-effort.
func (p *Publisher) Publish(event domain.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	for _, ch := range p.subs {
		select {
		case ch <- event:
		default:
			observability.RecordEventDropped()
		}
	}
}

// Subscribe registers a new subscriber and returns its channel along with a
// cancel function. The channel is closed on cancel or publisher Close.
func (p *Publisher) Subscribe() (<-chan domain.Event, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan domain.Event, p.bufSize)
	if p.closed {
		close(ch)
		return ch, func() {}
	}

	id := p.nextID
	p.nextID++
	p.subs[id] = ch

	cancel := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if sub, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Close shuts the publisher down and closes all subscriber channels.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for id, ch := range p.subs {
		delete(p.subs, id)
		close(ch)
	}
}
