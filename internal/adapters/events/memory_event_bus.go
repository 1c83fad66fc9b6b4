package events

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/zatekoja/symptomchecker/backend/internal/domain/entities"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/providers"
)

// ErrBusClosed is returned by a closed event bus.
var ErrBusClosed = errors.New("event bus is closed")

// MemoryEventBus delivers events within one process. It stands in for the
// Redis bus when Redis is not reachable.
type MemoryEventBus struct {
	subs   *fanout
	closed atomic.Bool
}

var _ providers.EventBus = (*MemoryEventBus)(nil)

// NewMemoryEventBus creates an in-process event bus.
func NewMemoryEventBus() *MemoryEventBus {
	return &MemoryEventBus{subs: newFanout()}
}

// Publish delivers event to the current subscribers of channel.
func (b *MemoryEventBus) Publish(_ context.Context, channel string, event *entities.SessionEvent) error {
	if b.closed.Load() {
		return ErrBusClosed
	}
	b.subs.broadcast(channel, event)
	return nil
}

// Subscribe returns a channel of events that is closed when ctx is done.
func (b *MemoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.SessionEvent, error) {
	if b.closed.Load() {
		return nil, ErrBusClosed
	}
	ch, _ := b.subs.add(channel)

	go func() {
		<-ctx.Done()
		b.subs.remove(channel, ch)
	}()
	return ch, nil
}

// SubscriberCount returns the number of open subscriptions.
func (b *MemoryEventBus) SubscriberCount() int {
	return b.subs.count()
}

// Close ends every subscription.
func (b *MemoryEventBus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	for _, channel := range b.subs.channels() {
		b.subs.closeChannel(channel)
	}
	return nil
}
