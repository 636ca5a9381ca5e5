package keys

import (
	"context"
	"errors"
	"fmt"

	"orderpulse/internal/domain/weather"

	"github.com/redis/go-redis/v9"
)

const hashKey = "orderpulse:apikeys"

var _ weather.KeyStore = (*RedisKeyStore)(nil)

// RedisKeyStore keeps provider API keys in a Redis hash so they can be
// rotated at runtime through the HTTP surface and survive restarts.
type RedisKeyStore struct {
	client *redis.Client
}

// NewRedisKeyStore creates a new Redis-backed key store.
func NewRedisKeyStore(redisAddr, password string, db int) *RedisKeyStore {
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: password,
		DB:       db,
	})
	return &RedisKeyStore{client: client}
}

// Get returns the key for a service, or "" when unset.
func (s *RedisKeyStore) Get(ctx context.Context, service string) (string, error) {
	key, err := s.client.HGet(ctx, hashKey, service).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s API key: %w", service, err)
	}
	return key, nil
}

// SetAll stores the given service keys.
func (s *RedisKeyStore) SetAll(ctx context.Context, keys map[string]string) error {
	if len(keys) == 0 {
		return nil
	}
	fields := make([]any, 0, len(keys)*2)
	for service, key := range keys {
		fields = append(fields, service, key)
	}
	if err := s.client.HSet(ctx, hashKey, fields...).Err(); err != nil {
		return fmt.Errorf("storing API keys: %w", err)
	}
	return nil
}

// All returns every stored service key.
func (s *RedisKeyStore) All(ctx context.Context) (map[string]string, error) {
	keys, err := s.client.HGetAll(ctx, hashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("listing API keys: %w", err)
	}
	return keys, nil
}

// Close closes the Redis connection.
func (s *RedisKeyStore) Close() error {
	return s.client.Close()
}
