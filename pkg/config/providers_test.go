package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/crypto-grid-sim/internal/grid"
	"github.com/ducminhle1904/crypto-grid-sim/pkg/data"
)

// TestOpenDataStack_CSV tests the default file stack with an in-memory cache
func TestOpenDataStack_CSV(t *testing.T) {
	cfg := NewDefaultSimulationConfig()

	stack, err := cfg.Data.OpenDataStack(context.Background(), Connections{}, nil)
	require.NoError(t, err)
	defer stack.Close()

	assert.IsType(t, &data.CSVProvider{}, stack.Source)
	assert.IsType(t, &data.MemoryPriceCache{}, stack.Cache)
	assert.Contains(t, stack.Provider.Name(), "CSV Archive")
	assert.Empty(t, stack.Checks)
}

// TestOpenDataStack_SingleFileNoCache tests a file source without caching
func TestOpenDataStack_SingleFileNoCache(t *testing.T) {
	d := DataConfig{Source: SourceCSV, File: "prices.csv", Cache: CacheNone}

	stack, err := d.OpenDataStack(context.Background(), Connections{}, nil)
	require.NoError(t, err)
	defer stack.Close()

	assert.Equal(t, data.NopPriceCache{}, stack.Cache)
	assert.Equal(t, "Cached(CSV File prices.csv)", stack.Provider.Name())
}

// TestOpenDataStack_Bybit tests that the exchange source needs no connection
func TestOpenDataStack_Bybit(t *testing.T) {
	d := DataConfig{Source: SourceBybit, Interval: "4h", Cache: CacheMemory}

	stack, err := d.OpenDataStack(context.Background(), Connections{BybitTestnet: true}, nil)
	require.NoError(t, err)
	defer stack.Close()

	assert.IsType(t, &data.BybitProvider{}, stack.Source)
}

// TestOpenDataStack_Errors tests configuration errors of the data stack
func TestOpenDataStack_Errors(t *testing.T) {
	tests := []struct {
		name  string
		data  DataConfig
		field string
	}{
		{"unknown source", DataConfig{Source: "ftp"}, "data.source"},
		{"bad interval", DataConfig{Source: SourceBybit, Interval: "7m"}, "data.interval"},
		{"postgres without url", DataConfig{Source: SourcePostgres}, "DATABASE_URL"},
		{"redis without url", DataConfig{Source: SourceCSV, Cache: CacheRedis}, "REDIS_URL"},
		{"unknown cache", DataConfig{Source: SourceCSV, Cache: "disk"}, "data.cache"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.data.OpenDataStack(context.Background(), Connections{}, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, grid.ErrInvalidConfig)

			var cfgErr *grid.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}
