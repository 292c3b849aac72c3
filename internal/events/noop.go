package events

import (
	"context"
	"sync/atomic"
)

// NoopPublisher discards events. It stands in for NATS when no event bus is
// configured so callers never need a nil check before publishing.
type NoopPublisher struct {
	dropped atomic.Uint64
}

func (n *NoopPublisher) Publish(ctx context.Context, topic string, event any) error {
	n.dropped.Add(1)
	return nil
}

// Dropped reports how many events have been discarded since startup.
func (n *NoopPublisher) Dropped() uint64 {
	return n.dropped.Load()
}

func (n *NoopPublisher) Close() error {
	return nil
}
