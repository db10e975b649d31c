// Package cache stores computed proximity results between runs.
//
// Walking links depend only on the point set and a few numeric options, so
// a rebuild with unchanged stops can skip the pair scan. Entries are
// addressed by content hashes ([LinksKey], [AttachKey]) and carry a TTL.
//
// Three backends implement [Cache]:
//   - [FileCache]: JSON files under a directory (the CLI default)
//   - [RedisCache]: a shared Redis instance
//   - [NullCache]: stores nothing, for --no-cache
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/transitnet/pkg/observability"
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value for key and whether it was found. Expired
	// entries are reported as missing.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry owned by this cache.
	Clear(ctx context.Context) error

	// Close releases resources held by the cache.
	Close() error
}

// GetJSON looks up key and decodes it into v. A value that no longer
// decodes is treated as a miss. keyType labels the lookup for cache hooks.
func GetJSON(ctx context.Context, c Cache, keyType, key string, v any) (bool, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if ok && json.Unmarshal(data, v) == nil {
		observability.Cache().OnCacheHit(ctx, keyType)
		return true, nil
	}
	observability.Cache().OnCacheMiss(ctx, keyType)
	return false, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, c Cache, keyType, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := c.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
	return nil
}
