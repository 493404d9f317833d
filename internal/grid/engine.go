package grid

import (
	"fmt"

	"github.com/ducminhle1904/crypto-grid-sim/pkg/types"
)

// Config holds the parameters of one grid simulation
type Config struct {
	LowerLimit float64 `json:"lower_limit" yaml:"lower_limit"`
	UpperLimit float64 `json:"upper_limit" yaml:"upper_limit"`
	NumGrids   int     `json:"num_grids" yaml:"num_grids"`
	Investment float64 `json:"investment" yaml:"investment"`
}

// Validate checks the configuration before a run starts
func (c Config) Validate() error {
	if c.NumGrids <= 0 {
		return &ConfigError{Field: "num_grids", Message: fmt.Sprintf("must be positive, got: %d", c.NumGrids)}
	}
	if !isFinite(c.LowerLimit) || !isFinite(c.UpperLimit) {
		return &ConfigError{Field: "limits", Message: fmt.Sprintf("must be finite numbers, got: %f and %f", c.LowerLimit, c.UpperLimit)}
	}
	if c.LowerLimit <= 0 {
		return &ConfigError{Field: "lower_limit", Message: fmt.Sprintf("must be positive, got: %f", c.LowerLimit)}
	}
	if c.LowerLimit >= c.UpperLimit {
		return &ConfigError{
			Field:   "lower_limit",
			Message: fmt.Sprintf("must be less than upper_limit, got: %f >= %f", c.LowerLimit, c.UpperLimit),
		}
	}
	if !isFinite(c.Investment) || c.Investment <= 0 {
		return &ConfigError{Field: "investment", Message: fmt.Sprintf("must be positive, got: %f", c.Investment)}
	}
	return nil
}

// AmountPerOrder is the cash spent by every buy, fixed for the whole run
func (c Config) AmountPerOrder() float64 {
	return c.Investment / float64(c.NumGrids)
}

// Result is the outcome of one simulation run
type Result struct {
	Config         Config        `json:"config"`
	Grid           *Grid         `json:"grid"`
	AmountPerOrder float64       `json:"amount_per_order"`
	Transactions   []Transaction `json:"transactions"`   // Execution order
	OpenPositions  []Position    `json:"open_positions"` // Positions left open at the end of the run
	CashTrace      []float64     `json:"cash_trace"`     // Investment, then cash after every step
	FinalCash      float64       `json:"final_cash"`
	FinalCoin      float64       `json:"final_coin"`
	Metrics        Metrics       `json:"metrics"`
}

// Simulate replays a price series through a grid and returns the transaction
// log and metrics. Configuration and data problems are reported before any
// state is created. The series is read only and may be shared between
// concurrent calls.
func Simulate(series []types.PriceSample, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateSeries(series); err != nil {
		return nil, err
	}

	g, err := NewGrid(cfg.LowerLimit, cfg.UpperLimit, cfg.NumGrids)
	if err != nil {
		return nil, err
	}

	l := newLedger(g, cfg.AmountPerOrder(), cfg.Investment, len(series)-1)
	for t := 1; t < len(series); t++ {
		crossing := g.Crossed(series[t-1].Price, series[t].Price)
		l.apply(crossing, series[t].Timestamp)
		l.recordCash()
	}

	result := &Result{
		Config:         cfg,
		Grid:           g,
		AmountPerOrder: l.amountPerOrder,
		Transactions:   l.transactions,
		OpenPositions:  l.openPositions(),
		CashTrace:      l.cashTrace,
		FinalCash:      l.cash,
		FinalCoin:      l.coin,
	}
	result.Metrics = computeMetrics(result, series)
	return result, nil
}

// ValidateSeries checks that a series can be simulated: at least two samples,
// positive finite prices and timestamps that never go backwards.
func ValidateSeries(series []types.PriceSample) error {
	if len(series) < 2 {
		return &NoDataError{Samples: len(series)}
	}
	for i, s := range series {
		if !isFinite(s.Price) || s.Price <= 0 {
			return &DataError{Index: i, Message: fmt.Sprintf("price must be positive, got: %f", s.Price)}
		}
		if i > 0 && s.Timestamp.Before(series[i-1].Timestamp) {
			return &DataError{
				Index:   i,
				Message: fmt.Sprintf("timestamp %s is before previous sample %s", s.Timestamp, series[i-1].Timestamp),
			}
		}
	}
	return nil
}
