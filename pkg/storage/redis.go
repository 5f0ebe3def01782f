package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis is a Storage implementation backed by a Redis server.
// Used by server-side deployments of the client (the gateway binary)
// where cached responses are shared across processes.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed store.
func NewRedis(client *redis.Client) *Redis {
	if client == nil {
		panic("redis client cannot be nil")
	}
	return &Redis{client: client}
}

// Get returns the value stored under key.
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get: %w", err)
	}
	return value, nil
}

// Set stores value under key, overwriting any existing value.
// Entries carry their own expiry metadata, so no Redis TTL is set here.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes the value stored under key.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Keys returns all stored keys with the given prefix.
func (r *Redis) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return keys, nil
}
