package data

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ducminhle1904/crypto-grid-sim/internal/logger"
	"github.com/ducminhle1904/crypto-grid-sim/pkg/types"
)

const defaultRedisPrefix = "gridsim:prices:"

// RedisPriceCache implements PriceCache on Redis. Series are stored as JSON
// under prefix+query key and expire after ttl (no expiry when ttl is zero).
type RedisPriceCache struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
	log    *zap.Logger
}

// NewRedisPriceCache creates a cache on an existing client
func NewRedisPriceCache(rdb redis.Cmdable, ttl time.Duration, log *zap.Logger) *RedisPriceCache {
	return &RedisPriceCache{
		rdb:    rdb,
		ttl:    ttl,
		prefix: defaultRedisPrefix,
		log:    logger.OrNop(log),
	}
}

// NewRedisClient parses a redis:// URL and checks the connection
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// WithPrefix changes the key namespace
func (c *RedisPriceCache) WithPrefix(prefix string) *RedisPriceCache {
	c.prefix = prefix
	return c
}

func (c *RedisPriceCache) key(q PriceQuery) string {
	return c.prefix + q.Key()
}

// Get reads a series; Redis errors are logged and reported as a miss
func (c *RedisPriceCache) Get(ctx context.Context, q PriceQuery) ([]types.PriceSample, bool) {
	data, err := c.rdb.Get(ctx, c.key(q)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("redis cache read failed", zap.String("key", c.key(q)), zap.Error(err))
		}
		return nil, false
	}

	samples, err := decodeSamples(data)
	if err != nil {
		c.log.Warn("discarding corrupt cache entry", zap.String("key", c.key(q)), zap.Error(err))
		c.rdb.Del(ctx, c.key(q))
		return nil, false
	}
	return samples, true
}

// Set writes a series
func (c *RedisPriceCache) Set(ctx context.Context, q PriceQuery, samples []types.PriceSample) error {
	data, err := encodeSamples(samples)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, c.key(q), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", c.key(q), err)
	}
	return nil
}

// Invalidate deletes one series
func (c *RedisPriceCache) Invalidate(ctx context.Context, q PriceQuery) error {
	if err := c.rdb.Del(ctx, c.key(q)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", c.key(q), err)
	}
	return nil
}

// Clear deletes every series under the prefix
func (c *RedisPriceCache) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, c.prefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// cachedSeries is the JSON document stored per key
type cachedSeries struct {
	Timestamps []int64   `json:"t"` // unix milliseconds
	Prices     []float64 `json:"p"`
}

func encodeSamples(samples []types.PriceSample) ([]byte, error) {
	doc := cachedSeries{
		Timestamps: make([]int64, len(samples)),
		Prices:     make([]float64, len(samples)),
	}
	for i, s := range samples {
		doc.Timestamps[i] = s.Timestamp.UnixMilli()
		doc.Prices[i] = s.Price
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode series: %w", err)
	}
	return data, nil
}

func decodeSamples(data []byte) ([]types.PriceSample, error) {
	var doc cachedSeries
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode series: %w", err)
	}
	if len(doc.Timestamps) != len(doc.Prices) {
		return nil, fmt.Errorf("series has %d timestamps and %d prices", len(doc.Timestamps), len(doc.Prices))
	}
	samples := make([]types.PriceSample, len(doc.Prices))
	for i := range doc.Prices {
		samples[i] = types.PriceSample{Timestamp: time.UnixMilli(doc.Timestamps[i]).UTC(), Price: doc.Prices[i]}
	}
	return samples, nil
}
