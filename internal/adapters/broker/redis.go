// Package broker adapts Redis to the core Broker contract: string KV for
// the registry, pub/sub for cross-instance fan-out.
package broker

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/venlink/huddle/internal/core"
)

type Redis struct {
	rdb *redis.Client
}

// NewRedis connects to redis and verifies connectivity.
func NewRedis(ctx context.Context, addr string, db int) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Redis{rdb: rdb}, nil
}

func (b *Redis) Get(ctx context.Context, key string) (string, error) {
	val, err := b.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", core.ErrNotFound
	}
	return val, err
}

func (b *Redis) Set(ctx context.Context, key, value string) error {
	return b.rdb.Set(ctx, key, value, 0).Err()
}

func (b *Redis) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return b.rdb.Del(ctx, keys...).Err()
}

func (b *Redis) Keys(ctx context.Context, pattern string) ([]string, error) {
	return b.rdb.Keys(ctx, pattern).Result()
}

func (b *Redis) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.rdb.Publish(ctx, channel, payload).Err()
}

// Subscribe blocks until ctx is done, invoking fn for each message.
func (b *Redis) Subscribe(ctx context.Context, channel string, fn func(payload []byte)) {
	pubsub := b.rdb.Subscribe(ctx, channel)
	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			if err := pubsub.Close(); err != nil {
				log.Error().Err(err).Str("module", "adapters.broker").Msg("pubsub close")
			}
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fn([]byte(msg.Payload))
		}
	}
}

func (b *Redis) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}

func (b *Redis) Close() error {
	return b.rdb.Close()
}
