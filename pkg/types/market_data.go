package types

import "time"

// PriceSample is one observation of an asset's price in the quote currency
type PriceSample struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// Asset describes a tradable asset offered by a market data source
type Asset struct {
	ID        string  `json:"id"`                   // Base asset identifier, e.g. "BTC"
	Symbol    string  `json:"symbol"`               // Source-specific symbol, e.g. "BTCUSDT"
	Name      string  `json:"name"`                 // Display name
	Currency  string  `json:"currency"`             // Quote currency, e.g. "USDT"
	LastPrice float64 `json:"last_price,omitempty"` // Latest traded price when known
	Turnover  float64 `json:"turnover,omitempty"`   // 24h turnover in quote currency, used for ranking
}

// PriceRange returns the minimum and maximum price of a series.
// Both are zero for an empty series.
func PriceRange(samples []PriceSample) (low, high float64) {
	if len(samples) == 0 {
		return 0, 0
	}
	low, high = samples[0].Price, samples[0].Price
	for _, s := range samples[1:] {
		if s.Price < low {
			low = s.Price
		}
		if s.Price > high {
			high = s.Price
		}
	}
	return low, high
}

// CopySamples returns an independent copy of a series
func CopySamples(samples []PriceSample) []PriceSample {
	if samples == nil {
		return nil
	}
	out := make([]PriceSample, len(samples))
	copy(out, samples)
	return out
}
