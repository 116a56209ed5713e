package testutil

import (
	"context"
	"sync"

	"github.com/radu9120/ZeroDue-sub000/internal/domain/events"
	"github.com/radu9120/ZeroDue-sub000/internal/publisher"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
)

var _ publisher.EventPublisher = (*InMemoryPublisherService)(nil)

// InMemoryPublisherService records published events for assertions
type InMemoryPublisherService struct {
	mu     sync.RWMutex
	events []*events.Event
	err    error
}

// NewInMemoryEventPublisher creates a new instance of InMemoryPublisherService
func NewInMemoryEventPublisher() *InMemoryPublisherService {
	return &InMemoryPublisherService{events: make([]*events.Event, 0)}
}

// Publish implements publisher.EventPublisher
func (p *InMemoryPublisherService) Publish(ctx context.Context, event *events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

// FailWith makes every following Publish return err, nil resets it
func (p *InMemoryPublisherService) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// GetEvents returns all published events
func (p *InMemoryPublisherService) GetEvents() []*events.Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*events.Event, len(p.events))
	copy(out, p.events)
	return out
}

// EventsNamed returns the published events with the given name
func (p *InMemoryPublisherService) EventsNamed(name types.DomainEventName) []*events.Event {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []*events.Event
	for _, e := range p.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// Clear removes all published events
func (p *InMemoryPublisherService) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = make([]*events.Event, 0)
	p.err = nil
}
