package data

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/crypto-grid-sim/internal/exchange/bybit"
)

// fakeKlineSource serves hourly klines from a fixed history, newest page first
type fakeKlineSource struct {
	history []bybit.Kline
	tickers []bybit.Ticker
	err     error
	calls   []bybit.KlineParams
}

func (f *fakeKlineSource) GetKlines(ctx context.Context, params bybit.KlineParams) ([]bybit.Kline, error) {
	f.calls = append(f.calls, params)
	if f.err != nil {
		return nil, f.err
	}

	var page []bybit.Kline
	for i := len(f.history) - 1; i >= 0 && len(page) < params.Limit; i-- {
		k := f.history[i]
		if params.End != nil && k.StartTime.After(*params.End) {
			continue
		}
		if params.Start != nil && k.StartTime.Before(*params.Start) {
			break
		}
		page = append([]bybit.Kline{k}, page...)
	}
	return page, nil
}

func (f *fakeKlineSource) GetTickers(ctx context.Context, category string) ([]bybit.Ticker, error) {
	return f.tickers, f.err
}

func hourlyKlines(count int) []bybit.Kline {
	klines := make([]bybit.Kline, count)
	for i := range klines {
		klines[i] = bybit.Kline{StartTime: baseTime.Add(time.Duration(i) * time.Hour), ClosePrice: float64(100 + i)}
	}
	return klines
}

// TestBybitProvider_FetchPrices_Paginates tests that ranges longer than a page are stitched together
func TestBybitProvider_FetchPrices_Paginates(t *testing.T) {
	source := &fakeKlineSource{history: hourlyKlines(2500)}
	p := NewBybitProvider(source, bybit.Interval1h, nil)

	q := PriceQuery{
		AssetID:  "btc",
		Currency: "usdt",
		From:     baseTime,
		To:       baseTime.Add(2499 * time.Hour),
	}
	samples, err := p.FetchPrices(context.Background(), q)

	require.NoError(t, err)
	require.Len(t, samples, 2500)
	assert.Equal(t, 100.0, samples[0].Price)
	assert.Equal(t, 2599.0, samples[2499].Price)
	assert.Len(t, source.calls, 3)
	assert.Equal(t, "BTCUSDT", source.calls[0].Symbol)
	assert.NoError(t, ValidateTimeSequence(samples))
}

// TestBybitProvider_FetchPrices_Empty tests that an empty history is reported as missing data
func TestBybitProvider_FetchPrices_Empty(t *testing.T) {
	p := NewBybitProvider(&fakeKlineSource{}, bybit.Interval1h, nil)

	_, err := p.FetchPrices(context.Background(), PriceQuery{AssetID: "BTC", Currency: "USDT", From: baseTime, To: baseTime.Add(time.Hour)})

	assert.True(t, errors.Is(err, ErrDataNotFound))
}

// TestBybitProvider_FetchPrices_UnknownSymbol tests mapping of invalid symbol errors
func TestBybitProvider_FetchPrices_UnknownSymbol(t *testing.T) {
	source := &fakeKlineSource{err: bybit.NewBybitError(bybit.ErrCodeInvalidParameter, "Not supported symbols")}
	p := NewBybitProvider(source, bybit.Interval1h, nil)

	_, err := p.FetchPrices(context.Background(), PriceQuery{AssetID: "NOPE", Currency: "USDT"})

	assert.True(t, errors.Is(err, ErrDataNotFound))
}

// TestBybitProvider_ListAssets tests filtering by quote currency and ranking by turnover
func TestBybitProvider_ListAssets(t *testing.T) {
	source := &fakeKlineSource{tickers: []bybit.Ticker{
		{Symbol: "ETHUSDT", LastPrice: 2300, Turnover24h: 500},
		{Symbol: "BTCUSDT", LastPrice: 42000, Turnover24h: 900},
		{Symbol: "ETHBTC", LastPrice: 0.05, Turnover24h: 1000},
		{Symbol: "SOLUSDT", LastPrice: 90, Turnover24h: 100},
	}}
	p := NewBybitProvider(source, "", nil)

	assets, err := p.ListAssets(context.Background(), "usdt", 2)

	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "BTC", assets[0].ID)
	assert.Equal(t, "ETH", assets[1].ID)
	assert.Equal(t, "USDT", assets[1].Currency)
	assert.Equal(t, 2300.0, assets[1].LastPrice)
}
