package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/crypto-grid-sim/pkg/types"
)

func testQuery() PriceQuery {
	return PriceQuery{AssetID: "BTC", Currency: "USDT", From: baseTime, To: baseTime.Add(48 * time.Hour)}
}

// TestMemoryPriceCache tests the cache contract
func TestMemoryPriceCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryPriceCache()
	q := testQuery()
	series := []types.PriceSample{sample(0, 100), sample(1, 101)}

	_, ok := c.Get(ctx, q)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, q, series))
	got, ok := c.Get(ctx, q)
	require.True(t, ok)
	assert.Equal(t, series, got)

	// lower-case query resolves to the same entry
	got, ok = c.Get(ctx, PriceQuery{AssetID: "btc", Currency: "usdt", From: q.From, To: q.To})
	assert.True(t, ok)
	assert.Len(t, got, 2)

	require.NoError(t, c.Invalidate(ctx, q))
	_, ok = c.Get(ctx, q)
	assert.False(t, ok)
}

// TestMemoryPriceCache_CopiesSeries tests that callers cannot mutate cached data
func TestMemoryPriceCache_CopiesSeries(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryPriceCache()
	q := testQuery()
	series := []types.PriceSample{sample(0, 100)}

	require.NoError(t, c.Set(ctx, q, series))
	series[0].Price = 1

	got, _ := c.Get(ctx, q)
	got[0].Price = 2

	again, _ := c.Get(ctx, q)
	assert.Equal(t, 100.0, again[0].Price)
}

// TestMemoryPriceCache_Clear tests that clearing drops every entry
func TestMemoryPriceCache_Clear(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryPriceCache()
	other := testQuery()
	other.AssetID = "ETH"

	require.NoError(t, c.Set(ctx, testQuery(), []types.PriceSample{sample(0, 1)}))
	require.NoError(t, c.Set(ctx, other, []types.PriceSample{sample(0, 2)}))
	assert.Equal(t, 2, c.Size())

	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.Size())
}

// TestRedisCodec tests the stored JSON document
func TestRedisCodec(t *testing.T) {
	series := []types.PriceSample{sample(0, 100.5), sample(1, 101)}

	data, err := encodeSamples(series)
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":[1704067200000,1704070800000],"p":[100.5,101]}`, string(data))

	decoded, err := decodeSamples(data)
	require.NoError(t, err)
	assert.Equal(t, series, decoded)

	_, err = decodeSamples([]byte(`{"t":[1],"p":[]}`))
	assert.Error(t, err)
}

// TestRedisPriceCache_Key tests key namespacing
func TestRedisPriceCache_Key(t *testing.T) {
	c := NewRedisPriceCache(nil, time.Hour, nil)
	assert.Equal(t, "gridsim:prices:BTC:USDT:1704067200:1704240000", c.key(testQuery()))

	c.WithPrefix("test:")
	assert.Equal(t, "test:BTC:USDT:1704067200:1704240000", c.key(testQuery()))
}
