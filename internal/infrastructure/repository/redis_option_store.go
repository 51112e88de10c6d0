package repository

import (
	"context"
	"errors"
	"fmt"

	"supachat-woocommerce-layer/internal/ports"

	"github.com/redis/go-redis/v9"
)

// RedisOptionStore implements OptionStore on Redis. A key namespace isolates
// this module's options from anything else sharing the instance.
type RedisOptionStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisOptionStore creates an option store backed by an existing Redis
// client. keyPrefix defaults to "supachat:options:".
func NewRedisOptionStore(client *redis.Client, keyPrefix string) ports.OptionStore {
	if keyPrefix == "" {
		keyPrefix = "supachat:options:"
	}
	return &RedisOptionStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get returns the value and whether the key exists.
func (s *RedisOptionStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get option %s: %w", key, err)
	}
	return val, true, nil
}

// Put stores a value. Options have no TTL; they live until deleted.
func (s *RedisOptionStore) Put(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to put option %s: %w", key, err)
	}
	return nil
}

// Delete removes a key; deleting a missing key is a no-op.
func (s *RedisOptionStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete option %s: %w", key, err)
	}
	return nil
}

// Keys lists all option keys with the given prefix, namespace stripped.
// SCAN keeps this safe on shared instances; the option space is small.
func (s *RedisOptionStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.keyPrefix+prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val()[len(s.keyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan options: %w", err)
	}
	return keys, nil
}
