// Package redis backs the session store with a redis-compatible server.
// Keys carry their own TTL, so leaked but never-rotated tokens are evicted
// by the server even if the sweeper never sees them.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aurora-backend/aurora/internal/apperrors"
)

const scanBatchSize = 100

type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Set(ctx context.Context, key string, marker string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// Already past expiry, nothing worth storing
		return nil
	}

	if err := s.client.Set(ctx, key, marker, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %q: %v", apperrors.ErrSessionStoreUnavailable, key, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	marker, err := s.client.Get(ctx, key).Result()

	switch {
	case err == nil:
		return marker, nil
	case errors.Is(err, redis.Nil):
		return "", fmt.Errorf("redis store: %w", apperrors.ErrSessionNotFound)
	default:
		return "", fmt.Errorf("%w: get %q: %v", apperrors.ErrSessionStoreUnavailable, key, err)
	}
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: del %q: %v", apperrors.ErrSessionStoreUnavailable, key, err)
	}
	return nil
}

func (s *Store) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string

	iter := s.client.Scan(ctx, 0, pattern, scanBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: scan %q: %v", apperrors.ErrSessionStoreUnavailable, pattern, err)
	}

	return keys, nil
}
