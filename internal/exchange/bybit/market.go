package bybit

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// KlineInterval represents the time interval for kline data
type KlineInterval string

const (
	Interval1m  KlineInterval = "1"
	Interval3m  KlineInterval = "3"
	Interval5m  KlineInterval = "5"
	Interval15m KlineInterval = "15"
	Interval30m KlineInterval = "30"
	Interval1h  KlineInterval = "60"
	Interval2h  KlineInterval = "120"
	Interval4h  KlineInterval = "240"
	Interval6h  KlineInterval = "360"
	Interval12h KlineInterval = "720"
	Interval1d  KlineInterval = "D"
	Interval1w  KlineInterval = "W"
	Interval1M  KlineInterval = "M"
)

// MaxKlineLimit is the largest page the kline endpoint returns
const MaxKlineLimit = 1000

// ParseInterval accepts both exchange codes ("60", "D") and the short
// names used on the command line ("1h", "1d").
func ParseInterval(s string) (KlineInterval, error) {
	switch s {
	case "1", "1m":
		return Interval1m, nil
	case "3", "3m":
		return Interval3m, nil
	case "5", "5m":
		return Interval5m, nil
	case "15", "15m":
		return Interval15m, nil
	case "30", "30m":
		return Interval30m, nil
	case "60", "1h":
		return Interval1h, nil
	case "120", "2h":
		return Interval2h, nil
	case "240", "4h":
		return Interval4h, nil
	case "360", "6h":
		return Interval6h, nil
	case "720", "12h":
		return Interval12h, nil
	case "D", "1d":
		return Interval1d, nil
	case "W", "1w":
		return Interval1w, nil
	case "M", "1M":
		return Interval1M, nil
	}
	return "", fmt.Errorf("unsupported interval: %s", s)
}

// KlineParams holds parameters for fetching kline data
type KlineParams struct {
	Category string        // "spot", "linear", "inverse"
	Symbol   string        // Trading pair symbol (e.g., "BTCUSDT")
	Interval KlineInterval // Time interval
	Start    *time.Time    // Start time (optional)
	End      *time.Time    // End time (optional)
	Limit    int           // Number of records to return (max 1000, default 200)
}

// GetKlines fetches kline/candlestick data from Bybit. The exchange returns
// newest first; the result is sorted oldest first.
func (c *Client) GetKlines(ctx context.Context, params KlineParams) ([]Kline, error) {
	if params.Category == "" {
		params.Category = "spot"
	}
	if params.Limit == 0 {
		params.Limit = 200
	}
	if params.Limit > MaxKlineLimit {
		params.Limit = MaxKlineLimit
	}

	reqParams := map[string]interface{}{
		"category": params.Category,
		"symbol":   params.Symbol,
		"interval": string(params.Interval),
		"limit":    params.Limit,
	}
	if params.Start != nil {
		reqParams["start"] = params.Start.UnixMilli()
	}
	if params.End != nil {
		reqParams["end"] = params.End.UnixMilli()
	}

	var result klineResult
	err := c.RetryWithConfig(ctx, func() error {
		resp, err := c.httpClient.NewUtaBybitServiceWithParams(reqParams).GetMarketKline(ctx)
		if err != nil {
			return err
		}
		return decodeResult(resp, &result)
	}, c.retry)
	if err != nil {
		return nil, WrapAPIError("get klines", err)
	}

	return parseKlines(result.List), nil
}

// GetTickers returns the 24h tickers of every symbol in a category
func (c *Client) GetTickers(ctx context.Context, category string) ([]Ticker, error) {
	if category == "" {
		category = "spot"
	}

	params := map[string]interface{}{
		"category": category,
	}

	var result tickerResult
	err := c.RetryWithConfig(ctx, func() error {
		resp, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetMarketTickers(ctx)
		if err != nil {
			return err
		}
		return decodeResult(resp, &result)
	}, c.retry)
	if err != nil {
		return nil, WrapAPIError("get tickers", err)
	}

	return parseTickers(result), nil
}

func parseKlines(list [][]string) []Kline {
	klines := make([]Kline, 0, len(list))
	for _, item := range list {
		if len(item) < 7 {
			continue // Skip incomplete data
		}

		// Bybit kline format: [startTime, openPrice, highPrice, lowPrice, closePrice, volume, turnover]
		klines = append(klines, Kline{
			StartTime:  time.UnixMilli(parseInt64(item[0])).UTC(),
			OpenPrice:  parseFloat64(item[1]),
			HighPrice:  parseFloat64(item[2]),
			LowPrice:   parseFloat64(item[3]),
			ClosePrice: parseFloat64(item[4]),
			Volume:     parseFloat64(item[5]),
			Turnover:   parseFloat64(item[6]),
		})
	}

	sort.Slice(klines, func(i, j int) bool {
		return klines[i].StartTime.Before(klines[j].StartTime)
	})
	return klines
}

func parseTickers(result tickerResult) []Ticker {
	tickers := make([]Ticker, 0, len(result.List))
	for _, t := range result.List {
		tickers = append(tickers, Ticker{
			Symbol:       t.Symbol,
			LastPrice:    parseFloat64(t.LastPrice),
			HighPrice24h: parseFloat64(t.HighPrice24h),
			LowPrice24h:  parseFloat64(t.LowPrice24h),
			Volume24h:    parseFloat64(t.Volume24h),
			Turnover24h:  parseFloat64(t.Turnover24h),
			Price24hPcnt: parseFloat64(t.Price24hPcnt),
		})
	}
	return tickers
}
