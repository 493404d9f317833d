package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/ducminhle1904/crypto-grid-sim/internal/errors"
	"github.com/ducminhle1904/crypto-grid-sim/internal/grid"
	"github.com/ducminhle1904/crypto-grid-sim/internal/monitoring"
	"github.com/ducminhle1904/crypto-grid-sim/internal/sweep"
	"github.com/ducminhle1904/crypto-grid-sim/pkg/config"
	"github.com/ducminhle1904/crypto-grid-sim/pkg/types"
)

const defaultSweepTop = 10

// listAssets handles GET /api/v1/assets
func (s *Server) listAssets(c *gin.Context) {
	currency := c.DefaultQuery("currency", config.DefaultCurrency)
	limit := config.DefaultAssetLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.badRequest(c, "INVALID_REQUEST", "limit must be a positive integer")
			return
		}
		limit = n
	}

	assets, err := s.source.ListAssets(c.Request.Context(), currency, limit)
	if err != nil {
		s.writeError(c, err, "list_assets")
		return
	}
	if assets == nil {
		assets = []types.Asset{}
	}

	c.JSON(http.StatusOK, AssetsResponse{Currency: currency, Assets: assets})
}

// getPrices handles GET /api/v1/prices
func (s *Server) getPrices(c *gin.Context) {
	var req SeriesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		s.badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	cfg := newSimulationConfig(req, GridParams{})
	if err := cfg.Validate(); err != nil {
		s.writeError(c, err, "get_prices")
		return
	}

	series, info, err := s.loadSeries(c.Request.Context(), cfg, nil)
	if err != nil {
		s.writeError(c, err, "get_prices")
		return
	}

	c.JSON(http.StatusOK, PricesResponse{Series: info, Prices: series})
}

// runSimulation handles POST /api/v1/simulations
func (s *Server) runSimulation(c *gin.Context) {
	var req SimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	cfg := newSimulationConfig(req.SeriesRequest, req.GridParams)
	if err := cfg.Validate(); err != nil {
		s.writeError(c, err, "simulate")
		return
	}

	series, info, err := s.loadSeries(c.Request.Context(), cfg, req.Prices)
	if err == nil {
		err = grid.ValidateSeries(series)
	}
	if err != nil {
		s.writeError(c, err, "simulate")
		return
	}
	cfg.ResolveBounds(series)

	start := time.Now()
	result, err := grid.Simulate(series, cfg.GridConfig())
	if err != nil {
		monitoring.RecordSimulation(time.Since(start), 0, 0, err)
		s.writeError(c, err, "simulate")
		return
	}
	monitoring.RecordSimulation(time.Since(start), result.Metrics.BuyCount, result.Metrics.SellCount, nil)

	resp := SimulationResponse{
		Series:    info,
		Config:    result.Config,
		Levels:    result.Grid.Levels,
		Metrics:   result.Metrics,
		FinalCash: result.FinalCash,
		FinalCoin: result.FinalCoin,
	}
	if !req.Options.OmitLedger {
		resp.Transactions = result.Transactions
		resp.OpenPositions = result.OpenPositions
	}
	if req.Options.IncludeTrace {
		resp.CashTrace = result.CashTrace
	}

	c.JSON(http.StatusOK, resp)
}

// runSweep handles POST /api/v1/sweeps
func (s *Server) runSweep(c *gin.Context) {
	var req SweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	cfg := newSimulationConfig(req.SeriesRequest, req.GridParams)
	cfg.Sweep = &req.Sweep
	if err := cfg.Validate(); err != nil {
		s.writeError(c, err, "sweep")
		return
	}

	series, info, err := s.loadSeries(c.Request.Context(), cfg, req.Prices)
	if err == nil {
		err = grid.ValidateSeries(series)
	}
	if err != nil {
		s.writeError(c, err, "sweep")
		return
	}
	cfg.ResolveBounds(series)

	configs, err := cfg.SweepSpace().Expand()
	switch {
	case err != nil:
		err = &grid.ConfigError{Field: "sweep", Message: err.Error()}
	case len(configs) == 0:
		err = &grid.ConfigError{Field: "sweep", Message: "contains no valid grid configuration"}
	case len(configs) > s.cfg.MaxSweepConfigs:
		err = &grid.ConfigError{
			Field:   "sweep",
			Message: "has " + strconv.Itoa(len(configs)) + " configurations, the limit is " + strconv.Itoa(s.cfg.MaxSweepConfigs),
		}
	}
	if err != nil {
		s.writeError(c, err, "sweep")
		return
	}

	report, err := sweep.NewRunner(s.cfg.Workers, s.log).Run(c.Request.Context(), series, configs)
	if err != nil {
		s.writeError(c, err, "sweep")
		return
	}

	top := req.Top
	if top <= 0 {
		top = defaultSweepTop
	}
	entries := make([]SweepEntry, 0, top)
	for i, res := range report.Top(top) {
		entries = append(entries, SweepEntry{Rank: i + 1, Config: res.Config, Metrics: res.Result.Metrics})
	}

	c.JSON(http.StatusOK, SweepResponse{
		ID:         report.ID,
		Series:     info,
		Configs:    len(report.Results),
		Failed:     report.Failed,
		DurationMS: report.Duration.Milliseconds(),
		Top:        entries,
	})
}

// invalidateCache handles DELETE /api/v1/cache. Without an asset every
// cached series is dropped.
func (s *Server) invalidateCache(c *gin.Context) {
	var req SeriesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		s.badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	ctx := c.Request.Context()
	if req.Asset == "" {
		if err := s.source.InvalidateAll(ctx); err != nil {
			s.writeError(c, err, "invalidate_cache")
			return
		}
		s.log.Info("price cache cleared")
		c.JSON(http.StatusOK, CacheResponse{Invalidated: "all"})
		return
	}

	cfg := newSimulationConfig(req, GridParams{})
	q, err := cfg.Query(s.clock())
	if err != nil {
		s.writeError(c, err, "invalidate_cache")
		return
	}
	if err := s.source.Invalidate(ctx, q); err != nil {
		s.writeError(c, err, "invalidate_cache")
		return
	}
	s.log.Info("price cache entry invalidated", zap.String("key", q.Key()))
	c.JSON(http.StatusOK, CacheResponse{Invalidated: q.Key()})
}

// loadSeries returns the inline prices, or fetches the configured range
func (s *Server) loadSeries(ctx context.Context, cfg *config.SimulationConfig, inline []types.PriceSample) ([]types.PriceSample, SeriesInfo, error) {
	info := SeriesInfo{Asset: cfg.Asset, Currency: cfg.Currency}

	var series []types.PriceSample
	if len(inline) > 0 {
		series = inline
		info.Source = "inline"
		info.From = series[0].Timestamp
		info.To = series[len(series)-1].Timestamp
	} else {
		q, err := cfg.Query(s.clock())
		if err != nil {
			return nil, info, err
		}
		series, err = s.source.FetchPrices(ctx, q)
		if err != nil {
			return nil, info, err
		}
		info.Source = s.source.Name()
		info.From, info.To = q.From, q.To
	}

	info.Samples = len(series)
	info.MinPrice, info.MaxPrice = types.PriceRange(series)
	return series, info, nil
}

// clock truncates to the hour so that default ranges share a cache key
func (s *Server) clock() time.Time {
	return s.now().UTC().Truncate(time.Hour)
}

func newSimulationConfig(series SeriesRequest, params GridParams) *config.SimulationConfig {
	cfg := &config.SimulationConfig{
		Asset:      series.Asset,
		Currency:   series.Currency,
		From:       series.From,
		To:         series.To,
		LowerLimit: params.LowerLimit,
		UpperLimit: params.UpperLimit,
		NumGrids:   params.NumGrids,
		Investment: params.Investment,
	}
	cfg.ApplyDefaults()
	return cfg
}

func (s *Server) badRequest(c *gin.Context, code, message string) {
	monitoring.RecordError("request")
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// writeError maps an error to its category status and the standard body
func (s *Server) writeError(c *gin.Context, err error, operation string) {
	appErr := apperrors.Categorize(err, "api", operation)
	monitoring.RecordError(string(appErr.Category))
	_ = c.Error(err)

	detail := ErrorDetail{Code: string(appErr.Category), Message: err.Error()}

	var cfgErr *grid.ConfigError
	var dataErr *grid.DataError
	switch {
	case stderrors.As(err, &cfgErr):
		detail.Details = map[string]interface{}{"field": cfgErr.Field}
	case stderrors.As(err, &dataErr):
		detail.Details = map[string]interface{}{"index": dataErr.Index}
	}

	if appErr.HTTPStatus() >= http.StatusInternalServerError {
		s.log.Error("request error", zap.String("operation", operation), zap.Error(err))
	}
	c.JSON(appErr.HTTPStatus(), ErrorResponse{Error: detail})
}
