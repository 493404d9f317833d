package config

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ducminhle1904/crypto-grid-sim/internal/exchange/bybit"
	"github.com/ducminhle1904/crypto-grid-sim/internal/grid"
	"github.com/ducminhle1904/crypto-grid-sim/internal/logger"
	"github.com/ducminhle1904/crypto-grid-sim/pkg/data"
)

// Connections holds the external endpoints a data stack may need.
// They come from the environment, never from config files.
type Connections struct {
	RedisURL       string
	DatabaseURL    string
	BybitTestnet   bool
	BybitAPIKey    string
	BybitAPISecret string
}

// DataStack is a price source behind the explicit cache
type DataStack struct {
	Provider *data.CachedProvider
	Source   data.PriceProvider
	Cache    data.PriceCache

	// Checks pings the external services the stack depends on, by name
	Checks map[string]func(ctx context.Context) error

	closers []func()
}

// Close releases the connections opened by OpenDataStack
func (s *DataStack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// OpenDataStack builds the configured provider and cache
func (d DataConfig) OpenDataStack(ctx context.Context, conn Connections, log *zap.Logger) (*DataStack, error) {
	log = logger.OrNop(log)
	stack := &DataStack{Checks: make(map[string]func(ctx context.Context) error)}

	switch d.Source {
	case SourceCSV, "":
		if d.File != "" {
			stack.Source = data.NewCSVFileProvider(d.File, log)
		} else {
			stack.Source = data.NewCSVProvider(d.Root, d.Exchange, d.Interval, log)
		}

	case SourceBybit:
		interval, err := bybit.ParseInterval(d.Interval)
		if err != nil {
			return nil, &grid.ConfigError{Field: "data.interval", Message: err.Error()}
		}
		client := bybit.NewClient(bybit.Config{
			APIKey:    conn.BybitAPIKey,
			APISecret: conn.BybitAPISecret,
			Testnet:   conn.BybitTestnet,
		})
		log.Info("using Bybit market data", zap.String("environment", client.GetEnvironment()))
		stack.Source = data.NewBybitProvider(client, interval, log)

	case SourcePostgres:
		if conn.DatabaseURL == "" {
			return nil, &grid.ConfigError{Field: "DATABASE_URL", Message: "is required for the postgres source"}
		}
		pool, err := data.NewPostgresPool(ctx, conn.DatabaseURL)
		if err != nil {
			return nil, err
		}
		stack.closers = append(stack.closers, pool.Close)
		stack.Checks["postgres"] = pool.Ping
		provider := data.NewPostgresProvider(pool, log)
		if err := provider.EnsureSchema(ctx); err != nil {
			stack.Close()
			return nil, err
		}
		stack.Source = provider

	default:
		return nil, &grid.ConfigError{Field: "data.source", Message: fmt.Sprintf("unknown source %q", d.Source)}
	}

	switch d.Cache {
	case CacheMemory, "":
		stack.Cache = data.NewMemoryPriceCache()

	case CacheRedis:
		if conn.RedisURL == "" {
			stack.Close()
			return nil, &grid.ConfigError{Field: "REDIS_URL", Message: "is required for the redis cache"}
		}
		rdb, err := data.NewRedisClient(ctx, conn.RedisURL)
		if err != nil {
			stack.Close()
			return nil, err
		}
		stack.closers = append(stack.closers, func() { _ = rdb.Close() })
		stack.Checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		stack.Cache = data.NewRedisPriceCache(rdb, d.CacheTTL, log)

	case CacheNone:
		stack.Cache = data.NopPriceCache{}

	default:
		stack.Close()
		return nil, &grid.ConfigError{Field: "data.cache", Message: fmt.Sprintf("unknown cache %q", d.Cache)}
	}

	stack.Provider = data.NewCachedProvider(stack.Source, stack.Cache, log)
	log.Debug("data stack ready",
		zap.String("provider", stack.Provider.Name()),
		zap.String("cache", d.Cache))
	return stack, nil
}
