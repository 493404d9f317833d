package data

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ducminhle1904/crypto-grid-sim/internal/logger"
	"github.com/ducminhle1904/crypto-grid-sim/internal/monitoring"
	"github.com/ducminhle1904/crypto-grid-sim/pkg/types"
)

// CachedProvider wraps a PriceProvider with an explicit PriceCache.
// Entries live until the caller invalidates them.
type CachedProvider struct {
	provider PriceProvider
	cache    PriceCache
	log      *zap.Logger

	assetsMu sync.RWMutex
	assets   map[string][]types.Asset
}

// NewCachedProvider creates a new cached provider
func NewCachedProvider(provider PriceProvider, cache PriceCache, log *zap.Logger) *CachedProvider {
	return &CachedProvider{
		provider: provider,
		cache:    cache,
		log:      logger.OrNop(log),
		assets:   make(map[string][]types.Asset),
	}
}

// Name returns the name of the data provider
func (p *CachedProvider) Name() string {
	return fmt.Sprintf("Cached(%s)", p.provider.Name())
}

// FetchPrices returns the cached series for the query or fetches and stores it
func (p *CachedProvider) FetchPrices(ctx context.Context, q PriceQuery) ([]types.PriceSample, error) {
	q = q.Normalize()

	if samples, ok := p.cache.Get(ctx, q); ok {
		monitoring.RecordCacheHit()
		p.log.Debug("price cache hit", zap.String("key", q.Key()), zap.Int("samples", len(samples)))
		return samples, nil
	}
	monitoring.RecordCacheMiss()

	start := time.Now()
	samples, err := p.provider.FetchPrices(ctx, q)
	monitoring.ObserveFetch(p.provider.Name(), time.Since(start))
	if err != nil {
		return nil, err
	}

	if err := p.cache.Set(ctx, q, samples); err != nil {
		p.log.Warn("failed to cache price series", zap.String("key", q.Key()), zap.Error(err))
	}

	p.log.Debug("price series fetched",
		zap.String("provider", p.provider.Name()),
		zap.String("key", q.Key()),
		zap.Int("samples", len(samples)),
		zap.Duration("elapsed", time.Since(start)))
	return samples, nil
}

// ListAssets returns the cached asset list for currency and limit, fetching it once
func (p *CachedProvider) ListAssets(ctx context.Context, currency string, limit int) ([]types.Asset, error) {
	key := fmt.Sprintf("%s:%d", strings.ToUpper(currency), limit)

	p.assetsMu.RLock()
	assets, ok := p.assets[key]
	p.assetsMu.RUnlock()
	if ok {
		return copyAssets(assets), nil
	}

	assets, err := p.provider.ListAssets(ctx, currency, limit)
	if err != nil {
		return nil, err
	}

	p.assetsMu.Lock()
	p.assets[key] = copyAssets(assets)
	p.assetsMu.Unlock()

	return assets, nil
}

// Invalidate drops one cached series
func (p *CachedProvider) Invalidate(ctx context.Context, q PriceQuery) error {
	return p.cache.Invalidate(ctx, q.Normalize())
}

// InvalidateAll drops every cached series and asset list
func (p *CachedProvider) InvalidateAll(ctx context.Context) error {
	p.InvalidateAssets()
	return p.cache.Clear(ctx)
}

// InvalidateAssets drops the cached asset lists
func (p *CachedProvider) InvalidateAssets() {
	p.assetsMu.Lock()
	defer p.assetsMu.Unlock()
	p.assets = make(map[string][]types.Asset)
}

func copyAssets(assets []types.Asset) []types.Asset {
	if assets == nil {
		return nil
	}
	out := make([]types.Asset, len(assets))
	copy(out, assets)
	return out
}
