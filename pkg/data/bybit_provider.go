package data

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ducminhle1904/crypto-grid-sim/internal/exchange/bybit"
	"github.com/ducminhle1904/crypto-grid-sim/internal/logger"
	"github.com/ducminhle1904/crypto-grid-sim/pkg/types"
)

// KlineSource is the part of the Bybit client the provider needs
type KlineSource interface {
	GetKlines(ctx context.Context, params bybit.KlineParams) ([]bybit.Kline, error)
	GetTickers(ctx context.Context, category string) ([]bybit.Ticker, error)
}

// BybitProvider serves close prices of spot klines and ranks assets by 24h turnover
type BybitProvider struct {
	source   KlineSource
	category string
	interval bybit.KlineInterval
	log      *zap.Logger
	now      func() time.Time
}

// NewBybitProvider creates a provider on a Bybit client
func NewBybitProvider(source KlineSource, interval bybit.KlineInterval, log *zap.Logger) *BybitProvider {
	if interval == "" {
		interval = bybit.Interval1h
	}
	return &BybitProvider{
		source:   source,
		category: "spot",
		interval: interval,
		log:      logger.OrNop(log),
		now:      time.Now,
	}
}

// Name returns the name of the data provider
func (p *BybitProvider) Name() string {
	return "Bybit " + p.category
}

// FetchPrices pages backwards from the query end until the start is covered.
// An open start fetches a single page.
func (p *BybitProvider) FetchPrices(ctx context.Context, q PriceQuery) ([]types.PriceSample, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	q = q.Normalize()

	end := q.To
	if end.IsZero() {
		end = p.now()
	}

	var samples []types.PriceSample
	for page := 0; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageEnd := end
		params := bybit.KlineParams{
			Category: p.category,
			Symbol:   q.Symbol(),
			Interval: p.interval,
			End:      &pageEnd,
			Limit:    bybit.MaxKlineLimit,
		}
		if !q.From.IsZero() {
			from := q.From
			params.Start = &from
		}

		klines, err := p.source.GetKlines(ctx, params)
		if err != nil {
			// unknown symbols are rejected as invalid parameters
			if bybitErr, ok := bybit.AsBybitError(err); ok && bybitErr.Code == bybit.ErrCodeInvalidParameter {
				return nil, fmt.Errorf("%s: %w", q.Symbol(), ErrDataNotFound)
			}
			return nil, fmt.Errorf("fetch %s klines: %w", q.Symbol(), err)
		}
		if len(klines) == 0 {
			break
		}

		for _, k := range klines {
			samples = append(samples, types.PriceSample{Timestamp: k.StartTime, Price: k.ClosePrice})
		}

		p.log.Debug("fetched kline page",
			zap.String("symbol", q.Symbol()),
			zap.Int("page", page),
			zap.Int("klines", len(klines)),
			zap.Time("oldest", klines[0].StartTime))

		oldest := klines[0].StartTime
		if q.From.IsZero() || !oldest.After(q.From) || len(klines) < bybit.MaxKlineLimit {
			break
		}
		end = oldest.Add(-time.Millisecond)
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("%s: %w", q.Symbol(), ErrDataNotFound)
	}

	return Normalize(samples, q.From, q.To), nil
}

// ListAssets returns spot pairs quoted in currency, ranked by 24h turnover
func (p *BybitProvider) ListAssets(ctx context.Context, currency string, limit int) ([]types.Asset, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	tickers, err := p.source.GetTickers(ctx, p.category)
	if err != nil {
		return nil, fmt.Errorf("list %s assets: %w", currency, err)
	}

	assets := make([]types.Asset, 0, len(tickers))
	for _, t := range tickers {
		if currency != "" && (!strings.HasSuffix(t.Symbol, currency) || t.Symbol == currency) {
			continue
		}
		id := strings.TrimSuffix(t.Symbol, currency)
		assets = append(assets, types.Asset{
			ID:        id,
			Symbol:    t.Symbol,
			Name:      id,
			Currency:  currency,
			LastPrice: t.LastPrice,
			Turnover:  t.Turnover24h,
		})
	}

	sort.SliceStable(assets, func(i, j int) bool {
		return assets[i].Turnover > assets[j].Turnover
	})
	if limit > 0 && len(assets) > limit {
		assets = assets[:limit]
	}
	return assets, nil
}
