package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/leagueflow/pkg/logger"
)

// RedisBroadcaster fans messages out through a Redis pub/sub channel, so
// subscribers in other processes receive them too. Messages are JSON encoded;
// T must round-trip through encoding/json.
type RedisBroadcaster[T any] struct {
	client     redis.UniversalClient
	channel    string
	bufferSize int
	log        *slog.Logger

	mu     sync.Mutex
	subs   map[*redisSubscriber[T]]struct{}
	closed bool
}

// NewRedisBroadcaster creates a broadcaster publishing on channel.
func NewRedisBroadcaster[T any](client redis.UniversalClient, channel string, bufferSize int, log *slog.Logger) *RedisBroadcaster[T] {
	if log == nil {
		log = slog.Default()
	}
	return &RedisBroadcaster[T]{
		client:     client,
		channel:    channel,
		bufferSize: max(bufferSize, 1),
		log:        log.With(logger.Component("broadcast.redis")),
		subs:       make(map[*redisSubscriber[T]]struct{}),
	}
}

// Broadcast publishes msg. Unlike the in-memory broadcaster it reports
// transport errors, since a lost publish cannot be detected by subscribers.
func (b *RedisBroadcaster[T]) Broadcast(ctx context.Context, msg Message[T]) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ErrClosed
	}

	data, err := json.Marshal(msg.Data)
	if err != nil {
		return errors.Join(ErrEncodeMessage, err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return errors.Join(ErrPublish, err)
	}
	return nil
}

// Subscribe returns once the Redis subscription is confirmed, so messages
// published after it returns are delivered. On failure the subscriber is
// returned already closed.
func (b *RedisBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	sub := &redisSubscriber[T]{
		subscriber: newSubscriber[T](b.bufferSize),
		done:       make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		_ = sub.subscriber.Close()
		return sub
	}
	b.mu.Unlock()

	sub.ps = b.client.Subscribe(ctx, b.channel)
	if _, err := sub.ps.Receive(ctx); err != nil {
		b.log.ErrorContext(ctx, "subscribe failed", slog.String("channel", b.channel), logger.Error(err))
		_ = sub.ps.Close()
		_ = sub.subscriber.Close()
		return sub
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		_ = sub.ps.Close()
		_ = sub.subscriber.Close()
		return sub
	}
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	go b.pump(sub)
	go func() {
		select {
		case <-ctx.Done():
			_ = sub.Close()
		case <-sub.done:
		}
	}()

	return sub
}

func (b *RedisBroadcaster[T]) pump(sub *redisSubscriber[T]) {
	defer func() {
		b.mu.Lock()
		delete(b.subs, sub)
		b.mu.Unlock()
		_ = sub.subscriber.Close()
		close(sub.done)
	}()

	for m := range sub.ps.Channel() {
		var v T
		if err := json.Unmarshal([]byte(m.Payload), &v); err != nil {
			b.log.Warn("dropping undecodable message", slog.String("channel", m.Channel), logger.Error(err))
			continue
		}
		if !sub.send(Message[T]{Data: v}) {
			b.log.Warn("dropping message for slow subscriber", slog.String("channel", m.Channel))
		}
	}
}

// Close closes every subscriber. The Redis client is owned by the caller.
func (b *RedisBroadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := make([]*redisSubscriber[T], 0, len(b.subs))
	for sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Close()
		<-sub.done
	}
	return nil
}

type redisSubscriber[T any] struct {
	*subscriber[T]
	ps   *redis.PubSub
	done chan struct{}
	once sync.Once
}

// Close unsubscribes; the receive channel closes once the pump drains.
func (s *redisSubscriber[T]) Close() error {
	var err error
	s.once.Do(func() {
		if s.ps != nil {
			err = s.ps.Close()
		}
	})
	return err
}
