package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/ducminhle1904/crypto-grid-sim/internal/grid"
	"github.com/ducminhle1904/crypto-grid-sim/internal/sweep"
	"github.com/ducminhle1904/crypto-grid-sim/pkg/data"
	"github.com/ducminhle1904/crypto-grid-sim/pkg/types"
)

// SimulationConfig is the user-facing description of one simulation or sweep.
// Zero grid bounds are resolved from the fetched series.
type SimulationConfig struct {
	Asset    string `json:"asset" yaml:"asset"`
	Currency string `json:"currency" yaml:"currency"`
	From     string `json:"from,omitempty" yaml:"from,omitempty"` // RFC3339 or 2006-01-02
	To       string `json:"to,omitempty" yaml:"to,omitempty"`

	LowerLimit float64 `json:"lower_limit,omitempty" yaml:"lower_limit,omitempty"`
	UpperLimit float64 `json:"upper_limit,omitempty" yaml:"upper_limit,omitempty"`
	NumGrids   int     `json:"num_grids" yaml:"num_grids"`
	Investment float64 `json:"investment" yaml:"investment"`

	Data  DataConfig   `json:"data" yaml:"data"`
	Sweep *sweep.Space `json:"sweep,omitempty" yaml:"sweep,omitempty"`
}

// DataConfig selects the price source and cache
type DataConfig struct {
	Source   string        `json:"source" yaml:"source"`                         // csv, bybit or postgres
	File     string        `json:"file,omitempty" yaml:"file,omitempty"`         // single CSV file, overrides the archive
	Root     string        `json:"root,omitempty" yaml:"root,omitempty"`         // CSV archive root
	Exchange string        `json:"exchange,omitempty" yaml:"exchange,omitempty"` // archive exchange directory
	Interval string        `json:"interval,omitempty" yaml:"interval,omitempty"`
	Cache    string        `json:"cache,omitempty" yaml:"cache,omitempty"` // memory, redis or none
	CacheTTL time.Duration `json:"cache_ttl,omitempty" yaml:"cache_ttl,omitempty"`
}

// Data sources
const (
	SourceCSV      = "csv"
	SourceBybit    = "bybit"
	SourcePostgres = "postgres"
)

// Cache backends
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Defaults and limits of user-facing configuration
const (
	DefaultAsset      = "BTC"
	DefaultCurrency   = "USDT"
	DefaultNumGrids   = 33
	MinNumGrids       = 5
	MaxNumGrids       = 200
	DefaultInvestment = 1000.0
	MinInvestment     = 1000.0
	MaxInvestment     = 50000.0
	DefaultLookback   = 30 * 24 * time.Hour
	DefaultInterval   = "1h"
	DefaultAssetLimit = 100
)

// NewDefaultSimulationConfig returns a config with every default applied
func NewDefaultSimulationConfig() *SimulationConfig {
	cfg := &SimulationConfig{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields
func (c *SimulationConfig) ApplyDefaults() {
	if c.Asset == "" {
		c.Asset = DefaultAsset
	}
	if c.Currency == "" {
		c.Currency = DefaultCurrency
	}
	c.Asset = strings.ToUpper(strings.TrimSpace(c.Asset))
	c.Currency = strings.ToUpper(strings.TrimSpace(c.Currency))

	if c.NumGrids == 0 {
		c.NumGrids = DefaultNumGrids
	}
	if c.Investment == 0 {
		c.Investment = DefaultInvestment
	}

	if c.Data.Source == "" {
		c.Data.Source = SourceCSV
	}
	c.Data.Source = strings.ToLower(c.Data.Source)
	if c.Data.Root == "" {
		c.Data.Root = DefaultDataRoot
	}
	if c.Data.Exchange == "" {
		c.Data.Exchange = DefaultExchange
	}
	if c.Data.Interval == "" {
		c.Data.Interval = DefaultInterval
	}
	if c.Data.Cache == "" {
		c.Data.Cache = CacheMemory
	}
}

// Validate checks the config against the limits of the interactive surfaces
func (c *SimulationConfig) Validate() error {
	if c.Asset == "" {
		return &grid.ConfigError{Field: "asset", Message: "is required"}
	}
	if c.Currency == "" {
		return &grid.ConfigError{Field: "currency", Message: "is required"}
	}

	if c.NumGrids < MinNumGrids || c.NumGrids > MaxNumGrids {
		return &grid.ConfigError{
			Field:   "num_grids",
			Message: fmt.Sprintf("must be between %d and %d, got: %d", MinNumGrids, MaxNumGrids, c.NumGrids),
		}
	}
	if c.Investment < MinInvestment || c.Investment > MaxInvestment {
		return &grid.ConfigError{
			Field:   "investment",
			Message: fmt.Sprintf("must be between %.0f and %.0f, got: %.2f", MinInvestment, MaxInvestment, c.Investment),
		}
	}

	if c.LowerLimit < 0 {
		return &grid.ConfigError{Field: "lower_limit", Message: fmt.Sprintf("must not be negative, got: %f", c.LowerLimit)}
	}
	if c.UpperLimit < 0 {
		return &grid.ConfigError{Field: "upper_limit", Message: fmt.Sprintf("must not be negative, got: %f", c.UpperLimit)}
	}
	if c.LowerLimit > 0 && c.UpperLimit > 0 && c.LowerLimit >= c.UpperLimit {
		return &grid.ConfigError{
			Field:   "lower_limit",
			Message: fmt.Sprintf("must be less than upper_limit, got: %f >= %f", c.LowerLimit, c.UpperLimit),
		}
	}

	if _, _, err := c.TimeRange(time.Now()); err != nil {
		return err
	}

	switch c.Data.Source {
	case SourceCSV, SourceBybit, SourcePostgres:
	default:
		return &grid.ConfigError{
			Field:   "data.source",
			Message: fmt.Sprintf("must be one of csv, bybit, postgres, got: %s", c.Data.Source),
		}
	}
	switch c.Data.Cache {
	case CacheMemory, CacheRedis, CacheNone:
	default:
		return &grid.ConfigError{
			Field:   "data.cache",
			Message: fmt.Sprintf("must be one of memory, redis, none, got: %s", c.Data.Cache),
		}
	}

	if c.Sweep != nil {
		ranges := []struct {
			name string
			r    sweep.Range
		}{
			{"lower_limit", c.Sweep.LowerLimit},
			{"upper_limit", c.Sweep.UpperLimit},
			{"num_grids", c.Sweep.NumGrids},
			{"investment", c.Sweep.Investment},
		}
		for _, item := range ranges {
			if _, err := item.r.Values(); err != nil {
				return &grid.ConfigError{Field: "sweep." + item.name, Message: err.Error()}
			}
		}
	}
	return nil
}

// TimeRange resolves the date range. An empty To is now; an empty From is
// DefaultLookback before To.
func (c *SimulationConfig) TimeRange(now time.Time) (time.Time, time.Time, error) {
	to := now.UTC()
	if c.To != "" {
		t, err := ParseDate(c.To)
		if err != nil {
			return time.Time{}, time.Time{}, &grid.ConfigError{Field: "to", Message: err.Error()}
		}
		to = t
	}

	from := to.Add(-DefaultLookback)
	if c.From != "" {
		t, err := ParseDate(c.From)
		if err != nil {
			return time.Time{}, time.Time{}, &grid.ConfigError{Field: "from", Message: err.Error()}
		}
		from = t
	}

	if !from.Before(to) {
		return time.Time{}, time.Time{}, &grid.ConfigError{
			Field:   "from",
			Message: fmt.Sprintf("must be before to, got: %s >= %s", from.Format(time.RFC3339), to.Format(time.RFC3339)),
		}
	}
	return from, to, nil
}

// ParseDate accepts RFC3339 timestamps and plain dates (UTC midnight)
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC3339", s)
}

// Query builds the price query of the config
func (c *SimulationConfig) Query(now time.Time) (data.PriceQuery, error) {
	from, to, err := c.TimeRange(now)
	if err != nil {
		return data.PriceQuery{}, err
	}
	return data.PriceQuery{AssetID: c.Asset, Currency: c.Currency, From: from, To: to}.Normalize(), nil
}

// ResolveBounds fills zero grid bounds with the series minimum and maximum,
// rounded to cents. Raw values are kept when rounding would collapse the range.
func (c *SimulationConfig) ResolveBounds(series []types.PriceSample) {
	if c.LowerLimit > 0 && c.UpperLimit > 0 {
		return
	}

	low, high := types.PriceRange(series)
	roundedLow, roundedHigh := RoundPrice(low), RoundPrice(high)
	if roundedLow <= 0 || roundedLow >= roundedHigh {
		roundedLow, roundedHigh = low, high
	}

	if c.LowerLimit == 0 {
		c.LowerLimit = roundedLow
	}
	if c.UpperLimit == 0 {
		c.UpperLimit = roundedHigh
	}
}

// RoundPrice rounds half away from zero to two decimals
func RoundPrice(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// GridConfig is the engine configuration; call ResolveBounds first
func (c *SimulationConfig) GridConfig() grid.Config {
	return grid.Config{
		LowerLimit: c.LowerLimit,
		UpperLimit: c.UpperLimit,
		NumGrids:   c.NumGrids,
		Investment: c.Investment,
	}
}

// SweepSpace is the configured sweep with unset ranges fixed at the base values
func (c *SimulationConfig) SweepSpace() sweep.Space {
	space := sweep.FixedSpace(c.GridConfig())
	if c.Sweep == nil {
		return space
	}
	if !c.Sweep.LowerLimit.IsZero() {
		space.LowerLimit = c.Sweep.LowerLimit
	}
	if !c.Sweep.UpperLimit.IsZero() {
		space.UpperLimit = c.Sweep.UpperLimit
	}
	if !c.Sweep.NumGrids.IsZero() {
		space.NumGrids = c.Sweep.NumGrids
	}
	if !c.Sweep.Investment.IsZero() {
		space.Investment = c.Sweep.Investment
	}
	return space
}

// GetInfo returns formatted information about the configuration
func (c *SimulationConfig) GetInfo() string {
	bounds := "series min/max"
	if c.LowerLimit > 0 && c.UpperLimit > 0 {
		bounds = fmt.Sprintf("$%.2f - $%.2f", c.LowerLimit, c.UpperLimit)
	}
	from, to := c.From, c.To
	if from == "" {
		from = "last 30 days"
	}
	if to == "" {
		to = "now"
	}

	return fmt.Sprintf(
		"Simulation Configuration:\n"+
			"  Pair: %s/%s\n"+
			"  Range: %s to %s\n"+
			"  Grid Bounds: %s\n"+
			"  Grid Count: %d\n"+
			"  Investment: $%.2f\n"+
			"  Data Source: %s (cache: %s)",
		c.Asset, c.Currency, from, to, bounds, c.NumGrids, c.Investment, c.Data.Source, c.Data.Cache)
}

// LoadSimulationConfig reads a YAML (.yaml, .yml) or JSON file and applies defaults
func LoadSimulationConfig(path string) (*SimulationConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg SimulationConfig
	if isYAML(path) {
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	} else {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// Save writes the config as YAML or JSON depending on the extension
func (c *SimulationConfig) Save(path string) error {
	var (
		out []byte
		err error
	)
	if isYAML(path) {
		out, err = yaml.Marshal(c)
	} else {
		out, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
