// Package idempotency stores idempotency keys shared by every API instance.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"eventplanner/internal/domain"
)

const (
	keyPrefix = "idem"
	// pending marks a key whose first request has not finished yet.
	pending = "pending"
)

// RedisDeduper stores processed idempotency keys in Redis.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

var _ domain.Deduper = (*RedisDeduper)(nil)

// NewRedisDeduper creates a deduper using the provided Redis client and TTL.
func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

// Connect parses url, opens a client and pings it.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (r *RedisDeduper) key(userID, key string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, userID, key)
}

// Add records the key if it does not already exist. It returns true when the
// key was newly added.
func (r *RedisDeduper) Add(ctx context.Context, userID, key string) (bool, error) {
	return r.client.SetNX(ctx, r.key(userID, key), pending, r.ttl).Result()
}

// Complete stores the response for a key that is still recorded. The key keeps its TTL.
func (r *RedisDeduper) Complete(ctx context.Context, userID, key string, resp domain.StoredResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode stored response: %w", err)
	}
	err = r.client.SetArgs(ctx, r.key(userID, key), payload, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// Lookup returns the stored response for key. It returns nil when the key is
// unknown or its request is still in flight.
func (r *RedisDeduper) Lookup(ctx context.Context, userID, key string) (*domain.StoredResponse, error) {
	raw, err := r.client.Get(ctx, r.key(userID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if string(raw) == pending {
		return nil, nil
	}
	var resp domain.StoredResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode stored response: %w", err)
	}
	return &resp, nil
}

// Remove deletes a previously recorded key so the caller may retry after a failure.
func (r *RedisDeduper) Remove(ctx context.Context, userID, key string) error {
	return r.client.Del(ctx, r.key(userID, key)).Err()
}
