package cache

import (
	"context"

	"github.com/vmihailenco/msgpack/v5"

	apperrors "github.com/shopfabrik/catalog/pkg/errors"
)

// CacheService is the distributed key-value port the cached repository
// decorates reads with. Entries are opaque serialized bytes with a
// service-wide TTL; invalidation works by exact key, key list, or
// prefix sweep.
type CacheService interface {
	// Get returns the entry bytes and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores the entry bytes under key with the configured TTL.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes a single entry. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error

	// DeleteByPrefix scans the keyspace and removes every entry whose
	// key starts with prefix.
	DeleteByPrefix(ctx context.Context, prefix string) error

	// InvalidateKeys removes the listed keys in one sweep.
	InvalidateKeys(ctx context.Context, keys []string) error
}

// Get is the typed read helper: it fetches the entry bytes and decodes
// them into T. A decode failure is reported as a cache error so the
// caller can fall through to the source of truth.
func Get[T any](ctx context.Context, svc CacheService, key string) (T, bool, error) {
	var zero T

	data, ok, err := svc.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}

	var value T
	if err := msgpack.Unmarshal(data, &value); err != nil {
		return zero, false, apperrors.NewCache("decode cache entry "+key, err)
	}
	return value, true, nil
}

// Set is the typed write helper: it encodes value and stores the bytes
// under key.
func Set[T any](ctx context.Context, svc CacheService, key string, value T) error {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return apperrors.NewCache("encode cache entry "+key, err)
	}
	return svc.Set(ctx, key, data)
}
