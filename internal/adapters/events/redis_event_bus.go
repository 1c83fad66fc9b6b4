package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/entities"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/providers"
	redisclient "github.com/zatekoja/symptomchecker/backend/internal/infrastructure/clients/redis"
)

// RedisEventBus implements the EventBus interface using Redis Pub/Sub. One
// Redis subscription is held per channel while it has local subscribers.
type RedisEventBus struct {
	client        *redisclient.Client
	subs          *fanout
	mu            sync.Mutex
	subscriptions map[string]*redisSubscription
	ctx           context.Context
	cancel        context.CancelFunc
}

// redisSubscription is reserved under the bus lock and set up outside it.
// ready is closed once pubsub or err is set.
type redisSubscription struct {
	ready  chan struct{}
	pubsub *redis.PubSub
	err    error
}

var _ providers.EventBus = (*RedisEventBus)(nil)

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) *RedisEventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client:        client,
		subs:          newFanout(),
		subscriptions: make(map[string]*redisSubscription),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Publish publishes an event to all subscribers
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.SessionEvent) error {
	if b.ctx.Err() != nil {
		return ErrBusClosed
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Client().Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Debug().Str("channel", channel).Str("event_id", event.ID).Msg("published session event")
	return nil
}

// Subscribe subscribes to events on a channel until ctx is done. It returns
// once Redis has confirmed the subscription, so events published afterwards
// are delivered.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.SessionEvent, error) {
	if b.ctx.Err() != nil {
		return nil, ErrBusClosed
	}

	b.mu.Lock()
	ch, _ := b.subs.add(channel)
	sub, exists := b.subscriptions[channel]
	if !exists {
		sub = &redisSubscription{ready: make(chan struct{})}
		b.subscriptions[channel] = sub
	}
	b.mu.Unlock()

	if !exists {
		b.establish(ctx, channel, sub)
	}

	select {
	case <-sub.ready:
	case <-ctx.Done():
		b.removeSubscriber(channel, ch)
		return nil, ctx.Err()
	}
	if sub.err != nil {
		b.removeSubscriber(channel, ch)
		return nil, sub.err
	}

	log.Debug().Str("channel", channel).Msg("subscribed to session events")

	go func() {
		select {
		case <-ctx.Done():
		case <-b.ctx.Done():
		}
		b.removeSubscriber(channel, ch)
	}()

	return ch, nil
}

// establish opens the Redis subscription for a reserved channel. A failed
// reservation is released so the next subscriber retries.
func (b *RedisEventBus) establish(ctx context.Context, channel string, sub *redisSubscription) {
	defer close(sub.ready)

	pubsub := b.client.Client().Subscribe(b.ctx, channel)
	_, err := pubsub.Receive(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case err != nil:
		_ = pubsub.Close()
		sub.err = fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	case b.subscriptions[channel] != sub:
		// Close ran while the subscription was being set up.
		_ = pubsub.Close()
		sub.err = ErrBusClosed
	default:
		sub.pubsub = pubsub
		go b.receiveMessages(channel, pubsub)
		return
	}
	if b.subscriptions[channel] == sub {
		delete(b.subscriptions, channel)
	}
}

// receiveMessages decodes messages from Redis and hands them to the local subscribers
func (b *RedisEventBus) receiveMessages(channel string, pubsub *redis.PubSub) {
	for msg := range pubsub.Channel() {
		var event entities.SessionEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			log.Warn().Err(err).Str("channel", channel).Msg("failed to decode session event")
			continue
		}
		b.subs.broadcast(channel, &event)
	}
}

func (b *RedisEventBus) removeSubscriber(channel string, ch chan *entities.SessionEvent) {
	b.mu.Lock()
	if !b.subs.remove(channel, ch) {
		b.mu.Unlock()
		return
	}
	sub, ok := b.subscriptions[channel]
	if ok {
		delete(b.subscriptions, channel)
	}
	b.mu.Unlock()

	if ok && sub.pubsub != nil {
		_ = sub.pubsub.Close()
		log.Debug().Str("channel", channel).Msg("closed session event subscription")
	}
}

// SubscriberCount returns the number of open local subscriptions.
func (b *RedisEventBus) SubscriberCount() int {
	return b.subs.count()
}

// Close closes the event bus and all subscriptions
func (b *RedisEventBus) Close() error {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	for channel, sub := range b.subscriptions {
		if sub.pubsub != nil {
			if err := sub.pubsub.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close subscription %s: %w", channel, err))
			}
		}
		delete(b.subscriptions, channel)
		b.subs.closeChannel(channel)
	}
	return errors.Join(errs...)
}
