package bybit

import (
	"context"
	"errors"
	"testing"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInterval(t *testing.T) {
	tests := map[string]KlineInterval{
		"1m": Interval1m, "5": Interval5m, "1h": Interval1h, "60": Interval1h,
		"4h": Interval4h, "1d": Interval1d, "D": Interval1d, "1w": Interval1w,
	}
	for in, want := range tests {
		got, err := ParseInterval(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseInterval("7m")
	assert.Error(t, err)
}

func TestParseKlines_SortsOldestFirst(t *testing.T) {
	list := [][]string{
		{"1704070800000", "101", "103", "100", "102", "5", "510"},
		{"1704067200000", "100", "102", "99", "101", "4", "404"},
		{"1704063600000", "99"}, // incomplete
	}

	klines := parseKlines(list)

	require.Len(t, klines, 2)
	assert.Equal(t, time.UnixMilli(1704067200000).UTC(), klines[0].StartTime)
	assert.Equal(t, 101.0, klines[0].ClosePrice)
	assert.Equal(t, 102.0, klines[1].ClosePrice)
	assert.Equal(t, 510.0, klines[1].Turnover)
}

func TestDecodeResult(t *testing.T) {
	resp := &bybit_api.ServerResponse{
		RetCode: 0,
		Result: map[string]interface{}{
			"category": "spot",
			"list": []interface{}{
				map[string]interface{}{"symbol": "BTCUSDT", "lastPrice": "42000.5", "turnover24h": "1000000"},
			},
		},
	}

	var result tickerResult
	require.NoError(t, decodeResult(resp, &result))

	tickers := parseTickers(result)
	require.Len(t, tickers, 1)
	assert.Equal(t, "BTCUSDT", tickers[0].Symbol)
	assert.Equal(t, 42000.5, tickers[0].LastPrice)
	assert.Equal(t, 1000000.0, tickers[0].Turnover24h)
}

func TestDecodeResult_APIError(t *testing.T) {
	resp := &bybit_api.ServerResponse{RetCode: ErrCodeRateLimitExceeded, RetMsg: "too many visits"}

	err := decodeResult(resp, &tickerResult{})

	require.Error(t, err)
	assert.True(t, IsRateLimitError(err))
	assert.True(t, IsRetryableError(err))
}

func TestBybitError_DescribesKnownCodes(t *testing.T) {
	assert.Equal(t, "Bybit API error 10006: Rate limit exceeded", NewBybitError(ErrCodeRateLimitExceeded, "").Error())
	assert.Equal(t, "Bybit API error 99999: Unknown error code: 99999", NewBybitError(99999, "").Error())
	assert.Equal(t, "Bybit API error 10001: bad symbol (BTC)", NewBybitError(ErrCodeInvalidParameter, "bad symbol", "BTC").Error())
}

func TestDecodeResult_WrongType(t *testing.T) {
	err := decodeResult("nope", &tickerResult{})
	assert.Error(t, err)
}

func fastRetry(maxRetries int) RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxRetries = maxRetries
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = time.Millisecond
	cfg.JitterEnabled = false
	return cfg
}

func TestRetryWithConfig_RetriesRetryableErrors(t *testing.T) {
	c := NewClient(Config{})
	calls := 0

	err := c.RetryWithConfig(context.Background(), func() error {
		calls++
		if calls < 3 {
			return NewBybitError(503, "unavailable")
		}
		return nil
	}, fastRetry(3))

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithConfig_StopsOnPermanentError(t *testing.T) {
	c := NewClient(Config{})
	calls := 0
	permanent := NewBybitError(ErrCodeSymbolNotFound, "symbol not found")

	err := c.RetryWithConfig(context.Background(), func() error {
		calls++
		return permanent
	}, fastRetry(3))

	assert.Equal(t, 1, calls)
	assert.True(t, errors.Is(err, permanent))
}

func TestRetryWithConfig_Exhausted(t *testing.T) {
	c := NewClient(Config{})
	calls := 0

	err := c.RetryWithConfig(context.Background(), func() error {
		calls++
		return NewBybitError(ErrCodeRateLimitExceeded, "slow down")
	}, fastRetry(2))

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithConfig_ContextCancelled(t *testing.T) {
	c := NewClient(Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.RetryWithConfig(ctx, func() error { return nil }, fastRetry(1))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateDelay(t *testing.T) {
	cfg := RetryConfig{InitialDelay: time.Second, MaxDelay: 5 * time.Second, BackoffFactor: 2}

	assert.Equal(t, time.Second, calculateDelay(0, cfg))
	assert.Equal(t, 2*time.Second, calculateDelay(1, cfg))
	assert.Equal(t, 4*time.Second, calculateDelay(2, cfg))
	assert.Equal(t, 5*time.Second, calculateDelay(3, cfg))
}

func TestClient_Environment(t *testing.T) {
	assert.Equal(t, "mainnet", NewClient(Config{}).GetEnvironment())
	assert.Equal(t, "testnet", NewClient(Config{Testnet: true}).GetEnvironment())
}
