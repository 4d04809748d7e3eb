package certcache

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/adamscao/skillguard/internal/metrics"
)

// Cache is a best-effort URL-keyed view over a Store. Storage failures never
// surface to callers of Lookup, Store or Evict.
type Cache struct {
	store   Store
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New wraps store. A nil logger discards output and a nil metrics records nothing.
func New(store Store, logger *zap.Logger, m *metrics.Metrics) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		store:   store,
		logger:  logger.Named("certcache"),
		metrics: m,
	}
}

// Lookup returns the cached bytes for url. Any read failure counts as a miss.
func (c *Cache) Lookup(url string) ([]byte, bool) {
	key := Key(url)

	data, err := c.store.Get(key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.Debug("cache read failed", zap.String("key", key), zap.Error(err))
		}
		c.metrics.ObserveCache(metrics.CacheMiss)
		return nil, false
	}
	if len(data) == 0 {
		c.metrics.ObserveCache(metrics.CacheMiss)
		return nil, false
	}

	c.metrics.ObserveCache(metrics.CacheHit)
	return data, true
}

// Store saves data for url. Failures are logged and dropped.
func (c *Cache) Store(url string, data []byte) {
	key := Key(url)

	if err := c.store.Put(key, data); err != nil {
		c.logger.Warn("failed to store certificate", zap.String("key", key), zap.Error(err))
		c.metrics.ObserveCache(metrics.CacheStoreError)
		return
	}
	c.metrics.ObserveCache(metrics.CacheStore)
}

// Evict removes the entry for url if present
func (c *Cache) Evict(url string) {
	c.EvictKey(Key(url))
}

// EvictKey removes the entry stored under key if present
func (c *Cache) EvictKey(key string) {
	if err := c.store.Delete(key); err != nil {
		c.logger.Warn("failed to evict certificate", zap.String("key", key), zap.Error(err))
		return
	}
	c.metrics.ObserveCache(metrics.CacheEvict)
}

// Keys lists stored keys when the backend supports it
func (c *Cache) Keys() ([]string, error) {
	lister, ok := c.store.(Lister)
	if !ok {
		return nil, ErrNotListable
	}

	keys, err := lister.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list cache keys: %w", err)
	}
	return keys, nil
}

// Entry returns the bytes stored under key
func (c *Cache) Entry(key string) ([]byte, error) {
	return c.store.Get(key)
}

// Purge evicts every listed key and returns how many were removed
func (c *Cache) Purge() (int, error) {
	keys, err := c.Keys()
	if err != nil {
		return 0, err
	}

	for _, k := range keys {
		c.EvictKey(k)
	}
	return len(keys), nil
}

// Close releases the backing store if it holds resources
func (c *Cache) Close() error {
	if closer, ok := c.store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
