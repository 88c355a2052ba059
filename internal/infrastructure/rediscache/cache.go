// Package rediscache backs the engine's local cache store with Redis.
// Entries have no TTL: the engine owns their lifecycle and clears them
// explicitly on sign-out.
package rediscache

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/uniscout/identity-engine/internal/domain/repository"
)

type Store struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.rdb.Set(ctx, key, value, 0).Err()
}

func (s *Store) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

var _ repository.CacheStore = (*Store)(nil)
