package quote

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

const cacheKeyPrefix = "quote:"

// CachedSource is a read-through Redis cache in front of another
// Source. It exists to keep the poll-happy refresh loop and interactive
// adds from hammering the rate-limited provider: quotes fetched within
// the TTL are served from Redis and only the missing symbols hit the
// upstream. Any Redis failure degrades to a direct fetch.
type CachedSource struct {
	source Source
	rdb    *redis.Client
	ttl    time.Duration
}

// NewCachedSource wraps source with a Redis cache holding each symbol's
// quote for ttl.
func NewCachedSource(source Source, rdb *redis.Client, ttl time.Duration) *CachedSource {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &CachedSource{source: source, rdb: rdb, ttl: ttl}
}

// GetPrices returns cached quotes where fresh and fetches the rest from
// the underlying source in one batch.
func (c *CachedSource) GetPrices(ctx context.Context, symbols []string) (map[string]Quote, error) {
	prices := make(map[string]Quote, len(symbols))
	missing := symbols

	if cached, err := c.lookup(ctx, symbols); err != nil {
		log.Printf("Quote cache unavailable, fetching directly: %v", err)
	} else {
		missing = missing[:0:0]
		for _, sym := range symbols {
			if q, ok := cached[sym]; ok {
				prices[sym] = q
			} else {
				missing = append(missing, sym)
			}
		}
	}

	if len(missing) == 0 {
		return prices, nil
	}

	fetched, err := c.source.GetPrices(ctx, missing)
	if err != nil {
		return nil, err
	}
	for sym, q := range fetched {
		prices[sym] = q
	}
	c.store(ctx, fetched)

	return prices, nil
}

func (c *CachedSource) lookup(ctx context.Context, symbols []string) (map[string]Quote, error) {
	keys := make([]string, len(symbols))
	for i, sym := range symbols {
		keys[i] = cacheKeyPrefix + sym
	}

	values, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	cached := make(map[string]Quote)
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var q Quote
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			continue
		}
		cached[symbols[i]] = q
	}
	return cached, nil
}

func (c *CachedSource) store(ctx context.Context, fetched map[string]Quote) {
	pipe := c.rdb.Pipeline()
	for sym, q := range fetched {
		data, err := json.Marshal(q)
		if err != nil {
			continue
		}
		pipe.Set(ctx, cacheKeyPrefix+sym, data, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("Quote cache write failed: %v", err)
	}
}
