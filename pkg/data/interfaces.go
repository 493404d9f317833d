package data

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ducminhle1904/crypto-grid-sim/pkg/types"
)

// ErrDataNotFound is returned when a source has no series for the requested asset
var ErrDataNotFound = errors.New("price data not found")

// PriceQuery identifies a historical price series. It is also the cache key.
type PriceQuery struct {
	AssetID  string    `json:"asset"`    // Base asset, e.g. "BTC"
	Currency string    `json:"currency"` // Quote currency, e.g. "USDT"
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
}

// Normalize upper-cases identifiers and strips whitespace
func (q PriceQuery) Normalize() PriceQuery {
	q.AssetID = strings.ToUpper(strings.TrimSpace(q.AssetID))
	q.Currency = strings.ToUpper(strings.TrimSpace(q.Currency))
	return q
}

// Validate checks that the query names an asset and a non-empty time range
func (q PriceQuery) Validate() error {
	if strings.TrimSpace(q.AssetID) == "" {
		return fmt.Errorf("asset is required")
	}
	if strings.TrimSpace(q.Currency) == "" {
		return fmt.Errorf("currency is required")
	}
	if !q.From.IsZero() && !q.To.IsZero() && !q.From.Before(q.To) {
		return fmt.Errorf("invalid time range: from %s must be before to %s",
			q.From.Format(time.RFC3339), q.To.Format(time.RFC3339))
	}
	return nil
}

// Symbol is the exchange style pair name, e.g. "BTCUSDT"
func (q PriceQuery) Symbol() string {
	n := q.Normalize()
	return n.AssetID + n.Currency
}

// Key is the stable cache key of the query: asset, currency, from and to
func (q PriceQuery) Key() string {
	n := q.Normalize()
	return fmt.Sprintf("%s:%s:%d:%d", n.AssetID, n.Currency, unixOrZero(n.From), unixOrZero(n.To))
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

// PriceProvider supplies historical price series and the assets it can serve
type PriceProvider interface {
	// FetchPrices returns the samples of the query's range in ascending timestamp order
	FetchPrices(ctx context.Context, q PriceQuery) ([]types.PriceSample, error)

	// ListAssets returns up to limit assets quoted in currency, best ranked first
	ListAssets(ctx context.Context, currency string, limit int) ([]types.Asset, error)

	// Name returns the name of the data provider
	Name() string
}

// PriceCache stores fetched series by query. The owner decides when entries are invalidated.
type PriceCache interface {
	Get(ctx context.Context, q PriceQuery) ([]types.PriceSample, bool)
	Set(ctx context.Context, q PriceQuery, samples []types.PriceSample) error
	Invalidate(ctx context.Context, q PriceQuery) error
	Clear(ctx context.Context) error
}

// CSVColumnMapping defines the column positions for different CSV formats
type CSVColumnMapping struct {
	TimestampCol int
	PriceCol     int
	MinColumns   int
	DateFormat   string // Layout of the timestamp column; numeric values are read as unix milliseconds
}

// Predefined CSV formats
var (
	// CandleCSVFormat reads the close price of timestamp,open,high,low,close,volume[,turnover] files
	CandleCSVFormat = CSVColumnMapping{
		TimestampCol: 0,
		PriceCol:     4,
		MinColumns:   5,
		DateFormat:   "2006-01-02 15:04:05",
	}

	// PriceCSVFormat reads two column timestamp,price files
	PriceCSVFormat = CSVColumnMapping{
		TimestampCol: 0,
		PriceCol:     1,
		MinColumns:   2,
		DateFormat:   "2006-01-02 15:04:05",
	}
)
