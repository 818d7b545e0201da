package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// evictMarkerTTL bounds how long an eviction blocks late writes for a key.
// It only has to outlive reads that were in flight when the key was evicted.
const evictMarkerTTL = time.Minute

var errEvicted = errors.New("view evicted")

// ViewCache is a generic JSON-backed Redis cache for read model projections.
// A zero ttl stores keys without expiry.
type ViewCache[T any] struct {
	client *goredis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewViewCache[T any](client *goredis.Client, ttl time.Duration, logger *zap.Logger) *ViewCache[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewCache[T]{client: client, ttl: ttl, logger: logger}
}

// Get returns (nil, false) on any miss or decode error.
func (c *ViewCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.logger.Warn("view cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Warn("view cache entry is corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &v, true
}

// Set stores value under key unless key was evicted within the last
// evictMarkerTTL. The marker is watched, so an Evict that lands while the
// write is in flight wins. Write failures are logged, not returned.
func (c *ViewCache[T]) Set(ctx context.Context, key string, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("view cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}

	marker := evictedKey(key)
	err = c.client.Watch(ctx, func(tx *goredis.Tx) error {
		evicted, err := tx.Exists(ctx, marker).Result()
		if err != nil {
			return err
		}
		if evicted > 0 {
			return errEvicted
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}, marker)

	switch {
	case err == nil:
	case errors.Is(err, errEvicted), errors.Is(err, goredis.TxFailedErr):
		c.logger.Debug("view cache write skipped, key was evicted", zap.String("key", key))
	default:
		c.logger.Warn("view cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Evict deletes key and blocks Set for it for evictMarkerTTL.
func (c *ViewCache[T]) Evict(ctx context.Context, key string) {
	_, err := c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, evictedKey(key), 1, evictMarkerTTL)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		c.logger.Warn("view cache evict failed", zap.String("key", key), zap.Error(err))
	}
}

func evictedKey(key string) string {
	return key + ":evicted"
}
