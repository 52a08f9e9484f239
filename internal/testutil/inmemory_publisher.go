package testutil

import (
	"context"
	"sync"

	"github.com/billingbridge/billingbridge/internal/publisher"
	"github.com/billingbridge/billingbridge/internal/types"
)

// InMemoryEventPublisher records published domain events for assertions
type InMemoryEventPublisher struct {
	mu     sync.RWMutex
	events []*types.DomainEvent
}

var _ publisher.EventPublisher = (*InMemoryEventPublisher)(nil)

func NewInMemoryEventPublisher() *InMemoryEventPublisher {
	return &InMemoryEventPublisher{
		events: make([]*types.DomainEvent, 0),
	}
}

func (p *InMemoryEventPublisher) Publish(ctx context.Context, event *types.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *InMemoryEventPublisher) Close() error {
	return nil
}

// Events returns a copy of all published events
func (p *InMemoryEventPublisher) Events() []*types.DomainEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*types.DomainEvent, len(p.events))
	copy(out, p.events)
	return out
}

// EventNames returns the names of all published events, in publish order
func (p *InMemoryEventPublisher) EventNames() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, len(p.events))
	for i, e := range p.events {
		names[i] = e.EventName
	}
	return names
}

func (p *InMemoryEventPublisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = p.events[:0]
}
