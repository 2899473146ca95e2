package events

import (
	"context"
	"sync"
)

// Bus is an in-process publisher/subscriber for single-instance deployments.
// Handlers run synchronously on the publishing goroutine; they must not
// block.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]func(Event)
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]func(Event))}
}

func (b *Bus) Publish(_ context.Context, stream string, event Event) error {
	b.mu.RLock()
	hs := b.handlers[stream]
	b.mu.RUnlock()

	for _, h := range hs {
		h(event)
	}
	return nil
}

func (b *Bus) Subscribe(_ context.Context, stream string, handler func(Event)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[stream] = append(b.handlers[stream], handler)
	return nil
}
