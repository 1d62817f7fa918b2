package bus

import (
	"context"
	"sync"
)

// MemoryBus is the in-process Bus used for single-node deployments and
// tests. Publish never blocks the turn pipeline: events overflow the buffer
// are dropped.
type MemoryBus struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

func NewMemoryBus(buffer int) *MemoryBus {
	if buffer <= 0 {
		buffer = 256
	}
	return &MemoryBus{ch: make(chan Event, buffer)}
}

func (b *MemoryBus) Publish(ctx context.Context, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	select {
	case b.ch <- ev:
	default:
		// Observability is best-effort; never stall a turn on a slow consumer.
	}
	return nil
}

func (b *MemoryBus) StartForwarder(ctx context.Context, onEvent func(ev Event)) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-b.ch:
				if !ok {
					return
				}
				onEvent(ev)
			}
		}
	}()
	return nil
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.ch)
	}
	return nil
}
