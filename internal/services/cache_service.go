// internal/services/cache_service.go
// TTL cache backed by Redis for derived read payloads, with
// prefix-based invalidation keyed by tournament.

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheService handles all TTL-cache operations for derived read payloads.
type CacheService struct {
	client *redis.Client
	logger *log.Logger
}

// NewCacheService creates a new cache service
func NewCacheService(client *redis.Client, logger *log.Logger) *CacheService {
	return &CacheService{
		client: client,
		logger: logger,
	}
}

// Set stores a value in cache with expiration
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	if err := s.client.Set(ctx, key, data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Get retrieves a value from cache
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return fmt.Errorf("key not found")
	}
	if err != nil {
		return fmt.Errorf("failed to get from cache: %w", err)
	}
	return json.Unmarshal(data, dest)
}

// Delete removes a key from cache
func (s *CacheService) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete from cache: %w", err)
	}
	return nil
}

// Exists checks if a key exists in cache
func (s *CacheService) Exists(ctx context.Context, key string) (bool, error) {
	count, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return count > 0, nil
}

// Increment increments a counter in cache, used by rate-sensitive read
// views (e.g. poll counters) rather than anything in the scoring path.
func (s *CacheService) Increment(ctx context.Context, key string, expiration time.Duration) (int, error) {
	pipe := s.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, expiration)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to increment: %w", err)
	}
	return int(incr.Val()), nil
}

// SetNX sets a key only if it doesn't exist, used to guard against two
// concurrent background jobs rebuilding the same export.
func (s *CacheService) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("failed to marshal value: %w", err)
	}
	ok, err := s.client.SetNX(ctx, key, data, expiration).Result()
	if err != nil {
		return false, fmt.Errorf("failed to setnx: %w", err)
	}
	return ok, nil
}

// GetOrSet gets a value from cache or computes and sets it if absent.
// Every read view routes through this: cache -> (miss) Store -> cache set.
func (s *CacheService) GetOrSet(ctx context.Context, key string, dest interface{}, fn func() (interface{}, error), expiration time.Duration) error {
	if err := s.Get(ctx, key, dest); err == nil {
		return nil
	}

	value, err := fn()
	if err != nil {
		return err
	}

	if err := s.Set(ctx, key, value, expiration); err != nil {
		s.logger.Printf("failed to cache value for key %s: %v", key, err)
	}

	data, _ := json.Marshal(value)
	return json.Unmarshal(data, dest)
}

// InvalidatePattern deletes all keys matching a pattern; every write
// calls this (via InvalidateTournament) with "<prefix>:*<tournament_id>*"
// so no stale read survives a commit.
func (s *CacheService) InvalidatePattern(ctx context.Context, pattern string) error {
	keys, err := s.client.Keys(ctx, pattern).Result()
	if err != nil {
		return fmt.Errorf("failed to get keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}

// InvalidateTournament deletes every cache entry for a tournament across
// all prefixes (reports, portal, api) in one call, the single
// invalidation point every write-path service calls after commit.
func (s *CacheService) InvalidateTournament(ctx context.Context, tournamentID string) error {
	prefixes := []string{"reports", "portal", "api"}
	for _, prefix := range prefixes {
		if err := s.InvalidatePattern(ctx, fmt.Sprintf("%s:*%s*", prefix, tournamentID)); err != nil {
			return err
		}
	}
	return nil
}

// Ping checks if cache is available
func (s *CacheService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
