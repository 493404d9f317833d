package api

import (
	"time"

	"github.com/ducminhle1904/crypto-grid-sim/internal/grid"
	"github.com/ducminhle1904/crypto-grid-sim/internal/sweep"
	"github.com/ducminhle1904/crypto-grid-sim/pkg/types"
)

// SeriesRequest selects a price series from the configured source
type SeriesRequest struct {
	Asset    string `json:"asset" form:"asset"`
	Currency string `json:"currency" form:"currency"`
	From     string `json:"from,omitempty" form:"from"` // YYYY-MM-DD or RFC3339
	To       string `json:"to,omitempty" form:"to"`
}

// GridParams are the grid settings of a request. Zero bounds are resolved
// from the series minimum and maximum.
type GridParams struct {
	LowerLimit float64 `json:"lower_limit,omitempty"`
	UpperLimit float64 `json:"upper_limit,omitempty"`
	NumGrids   int     `json:"num_grids,omitempty"`
	Investment float64 `json:"investment,omitempty"`
}

// SimulationRequest is the body of POST /api/v1/simulations. Inline prices
// replace the configured source.
type SimulationRequest struct {
	SeriesRequest
	GridParams
	Prices  []types.PriceSample `json:"prices,omitempty"`
	Options SimulationOptions   `json:"options,omitempty"`
}

// SimulationOptions trims the response
type SimulationOptions struct {
	IncludeTrace bool `json:"include_trace,omitempty"` // default: false
	OmitLedger   bool `json:"omit_ledger,omitempty"`   // drop transactions and open positions
}

// SweepRequest is the body of POST /api/v1/sweeps. Unset ranges stay at
// the base grid parameters.
type SweepRequest struct {
	SeriesRequest
	GridParams
	Prices []types.PriceSample `json:"prices,omitempty"`
	Sweep  sweep.Space         `json:"sweep"`
	Top    int                 `json:"top,omitempty"` // default: 10
}

// SeriesInfo describes the series a response was computed from
type SeriesInfo struct {
	Asset    string    `json:"asset"`
	Currency string    `json:"currency"`
	Source   string    `json:"source"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	Samples  int       `json:"samples"`
	MinPrice float64   `json:"min_price"`
	MaxPrice float64   `json:"max_price"`
}

// PricesResponse is returned by GET /api/v1/prices
type PricesResponse struct {
	Series SeriesInfo          `json:"series"`
	Prices []types.PriceSample `json:"prices"`
}

// AssetsResponse is returned by GET /api/v1/assets
type AssetsResponse struct {
	Currency string        `json:"currency"`
	Assets   []types.Asset `json:"assets"`
}

// SimulationResponse is returned by POST /api/v1/simulations
type SimulationResponse struct {
	Series        SeriesInfo         `json:"series"`
	Config        grid.Config        `json:"config"`
	Levels        []float64          `json:"levels"`
	Metrics       grid.Metrics       `json:"metrics"`
	FinalCash     float64            `json:"final_cash"`
	FinalCoin     float64            `json:"final_coin"`
	Transactions  []grid.Transaction `json:"transactions,omitempty"`
	OpenPositions []grid.Position    `json:"open_positions,omitempty"`
	CashTrace     []float64          `json:"cash_trace,omitempty"`
}

// SweepEntry is one ranked configuration of a sweep
type SweepEntry struct {
	Rank    int          `json:"rank"`
	Config  grid.Config  `json:"config"`
	Metrics grid.Metrics `json:"metrics"`
}

// SweepResponse is returned by POST /api/v1/sweeps
type SweepResponse struct {
	ID         string       `json:"id"`
	Series     SeriesInfo   `json:"series"`
	Configs    int          `json:"configs"`
	Failed     int          `json:"failed"`
	DurationMS int64        `json:"duration_ms"`
	Top        []SweepEntry `json:"top"`
}

// CacheResponse is returned by DELETE /api/v1/cache
type CacheResponse struct {
	Invalidated string `json:"invalidated"` // "all" or the query key
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine readable code and a message
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
