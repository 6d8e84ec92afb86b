package redis

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/labelwise/labelwise/internal/domain/ingredient"
	"github.com/labelwise/labelwise/pkg/errors"
)

// FactCache stores provider facts as JSON under
// "<prefix>:fact:<provider>:<canonical name>". A missing key is a cache
// miss, not an error: Get returns (nil, nil).
type FactCache struct {
	client *Client
}

// NewFactCache builds the shared fact cache over an established client.
func NewFactCache(client *Client) *FactCache {
	return &FactCache{client: client}
}

var _ ingredient.FactCache = (*FactCache)(nil)

// Get returns the cached fact, or nil on a miss.
func (f *FactCache) Get(ctx context.Context, provider ingredient.ProviderID, name ingredient.CanonicalName) (*ingredient.Fact, error) {
	key := f.client.key("fact", string(provider), string(name))
	raw, err := f.client.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeCacheError, "reading shared fact cache")
	}
	var fact ingredient.Fact
	if err := json.Unmarshal(raw, &fact); err != nil {
		// A corrupt entry is dropped so the next write heals it.
		_ = f.client.rdb.Del(ctx, key).Err()
		return nil, nil
	}
	return &fact, nil
}

// Set stores fact for ttl. Only successful facts are worth sharing;
// failures are dropped silently.
func (f *FactCache) Set(ctx context.Context, fact ingredient.Fact, ttl time.Duration) error {
	if !fact.Success || ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(fact)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "encoding fact")
	}
	key := f.client.key("fact", string(fact.Provider), fact.CanonicalName)
	if err := f.client.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		return errors.Wrap(err, errors.CodeCacheError, "writing shared fact cache")
	}
	return nil
}
