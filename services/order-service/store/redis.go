package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultRedisChannelPrefix namespaces the change channels.
const DefaultRedisChannelPrefix = "kv:changed:"

// RedisStore keeps each key as a plain string value. Every SET is paired with
// a PUBLISH of the new value on <prefix><key> inside one MULTI block.
type RedisStore struct {
	client        *redis.Client
	channelPrefix string
	logger        *zap.Logger
}

// NewRedisClient parses a redis:// URL and checks the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func NewRedisStore(client *redis.Client, channelPrefix string, logger *zap.Logger) *RedisStore {
	if channelPrefix == "" {
		channelPrefix = DefaultRedisChannelPrefix
	}
	return &RedisStore{client: client, channelPrefix: channelPrefix, logger: logger}
}

func (s *RedisStore) channel(key string) string {
	return s.channelPrefix + key
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, value, 0)
		pipe.Publish(ctx, s.channel(key), value)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Watch(ctx context.Context, key string) (<-chan []byte, error) {
	sub := s.client.Subscribe(ctx, s.channel(key))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", key, err)
	}

	out := make(chan []byte, 1)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					s.logger.Warn("redis subscription closed", zap.String("key", key))
					return
				}
				offer(out, []byte(msg.Payload))
			}
		}
	}()
	return out, nil
}

func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %s*: %w", prefix, err)
	}
	return keys, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
