package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/entities"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/providers"
)

func receive(t *testing.T, ch <-chan *entities.SessionEvent) *entities.SessionEvent {
	t.Helper()
	select {
	case event, ok := <-ch:
		require.True(t, ok, "channel closed")
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestMemoryEventBus_DeliversToChannelSubscribers(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := bus.Subscribe(ctx, providers.SessionChannel("s1"))
	require.NoError(t, err)
	second, err := bus.Subscribe(ctx, providers.SessionChannel("s1"))
	require.NoError(t, err)
	other, err := bus.Subscribe(ctx, providers.SessionChannel("s2"))
	require.NoError(t, err)

	event := &entities.SessionEvent{ID: "e1", SessionID: "s1", Type: entities.SessionEventMedicationsChanged, Revision: 1}
	require.NoError(t, bus.Publish(context.Background(), providers.SessionChannel("s1"), event))

	assert.Equal(t, "e1", receive(t, first).ID)
	assert.Equal(t, "e1", receive(t, second).ID)
	select {
	case <-other:
		t.Fatal("event leaked to another session")
	default:
	}
	assert.Equal(t, 3, bus.SubscriberCount())
}

func TestMemoryEventBus_SubscriptionEndsWithContext(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := bus.Subscribe(ctx, "c")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription was not closed")
	}
	assert.Eventually(t, func() bool { return bus.SubscriberCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestMemoryEventBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := bus.Subscribe(ctx, "c")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			_ = bus.Publish(context.Background(), "c", &entities.SessionEvent{ID: "e"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestMemoryEventBus_Close(t *testing.T) {
	bus := NewMemoryEventBus()
	ch, err := bus.Subscribe(context.Background(), "c")
	require.NoError(t, err)

	require.NoError(t, bus.Close())

	_, ok := <-ch
	assert.False(t, ok)
	assert.ErrorIs(t, bus.Publish(context.Background(), "c", &entities.SessionEvent{}), ErrBusClosed)
	_, err = bus.Subscribe(context.Background(), "c")
	assert.ErrorIs(t, err, ErrBusClosed)
	assert.NoError(t, bus.Close())
}
