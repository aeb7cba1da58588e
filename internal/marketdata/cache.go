package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Alias1177/SignalLab/models"
)

// DefaultCacheTTL is how long fetched series are reused.
const DefaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	candles   []models.Candle
	fetchedAt time.Time
}

// Cache keeps recently fetched series in memory. Errors are not cached.
type Cache struct {
	source Source
	ttl    time.Duration
	now    func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewCache wraps source with a TTL cache.
func NewCache(source Source, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		source:  source,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func cacheKey(symbol, interval string, days int) string {
	return fmt.Sprintf("%s_%s_%d", symbol, interval, days)
}

// Candles returns a cached series or fetches it from the wrapped source.
func (c *Cache) Candles(ctx context.Context, symbol, interval string, days int) ([]models.Candle, error) {
	key := cacheKey(symbol, interval, days)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		return cloneCandles(entry.candles), nil
	}

	candles, err := c.source.Candles(ctx, symbol, interval, days)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{candles: cloneCandles(candles), fetchedAt: c.now()}
	c.mu.Unlock()

	return candles, nil
}

// Cleanup drops expired entries.
func (c *Cache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.entries {
		if now.Sub(entry.fetchedAt) >= c.ttl {
			delete(c.entries, key)
		}
	}
}

// Len reports the number of cached series.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func cloneCandles(candles []models.Candle) []models.Candle {
	if candles == nil {
		return nil
	}
	out := make([]models.Candle, len(candles))
	copy(out, candles)
	return out
}
