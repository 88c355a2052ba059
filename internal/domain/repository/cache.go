package repository

import "context"

// CacheStore is the engine's local, durable key-value store. Values survive
// process restarts; the engine treats a miss and an empty value differently,
// hence the ok result.
type CacheStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}
