package grid

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/ducminhle1904/crypto-grid-sim/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// samplesFromPrices builds an hourly series starting at a fixed time
func samplesFromPrices(prices ...float64) []types.PriceSample {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	samples := make([]types.PriceSample, len(prices))
	for i, p := range prices {
		samples[i] = types.PriceSample{Timestamp: start.Add(time.Duration(i) * time.Hour), Price: p}
	}
	return samples
}

// generateOscillatingData creates a noisy sine wave around base with a fixed seed
func generateOscillatingData(count int, base, amplitude float64, seed int64) []types.PriceSample {
	rng := rand.New(rand.NewSource(seed))
	prices := make([]float64, count)
	for i := range prices {
		wave := math.Sin(float64(i)/7.0) * amplitude
		noise := (rng.Float64() - 0.5) * amplitude * 0.4
		prices[i] = base + wave + noise
	}
	return samplesFromPrices(prices...)
}

func scenarioConfig() Config {
	return Config{LowerLimit: 90, UpperLimit: 110, NumGrids: 2, Investment: 200}
}

// TestSimulate_ConcreteScenario tests a short series with one round trip and one open position
func TestSimulate_ConcreteScenario(t *testing.T) {
	result, err := Simulate(samplesFromPrices(100, 90, 100, 110, 100), scenarioConfig())
	require.NoError(t, err)

	assert.Equal(t, 10.0, result.Grid.Size)
	assert.Equal(t, []float64{90, 100, 110}, result.Grid.Levels)
	assert.Equal(t, 100.0, result.AmountPerOrder)

	require.Len(t, result.Transactions, 3)

	buy1 := result.Transactions[0]
	assert.Equal(t, 1, buy1.ID)
	assert.Equal(t, ActionBuy, buy1.Action)
	assert.Equal(t, 90.0, buy1.Price)
	assert.InDelta(t, 100.0/90.0, buy1.Amount, 1e-12)
	assert.Nil(t, buy1.Gain)

	sell1 := result.Transactions[1]
	assert.Equal(t, 1, sell1.ID)
	assert.Equal(t, ActionSell, sell1.Action)
	assert.Equal(t, 100.0, sell1.Price)
	require.NotNil(t, sell1.Gain)
	assert.InDelta(t, 11.1111, *sell1.Gain, 1e-4)

	buy2 := result.Transactions[2]
	assert.Equal(t, 2, buy2.ID)
	assert.Equal(t, ActionBuy, buy2.Action)
	assert.Equal(t, 100.0, buy2.Price)
	assert.InDelta(t, 1.0, buy2.Amount, 1e-12)

	require.Len(t, result.OpenPositions, 1)
	open := result.OpenPositions[0]
	assert.Equal(t, 2, open.ID)
	require.NotNil(t, open.SellPrice)
	assert.Equal(t, 110.0, *open.SellPrice)

	require.Len(t, result.CashTrace, 5)
	assert.Equal(t, 200.0, result.CashTrace[0])
	assert.Equal(t, 100.0, result.CashTrace[1])
	assert.InDelta(t, 211.1111, result.CashTrace[2], 1e-4)
	assert.InDelta(t, 211.1111, result.CashTrace[3], 1e-4)
	assert.InDelta(t, 111.1111, result.CashTrace[4], 1e-4)

	assert.InDelta(t, 11.1111, result.Metrics.TotalProfit, 1e-4)
	assert.InDelta(t, 100.0, result.Metrics.MaxInvestedAmount, 1e-9)
	assert.InDelta(t, 0.0, result.Metrics.HodlProfit, 1e-9)
	assert.Equal(t, 1, result.Metrics.RoundTrips)
	assert.Equal(t, 1, result.Metrics.OpenPositions)
	assert.Equal(t, 90.0, result.Metrics.MinPrice)
	assert.Equal(t, 110.0, result.Metrics.MaxPrice)
	assert.InDelta(t, 10.0, result.Metrics.GridPercentageSize, 1e-12)
	assert.InDelta(t, 5.5556, result.Metrics.GainPercentage, 1e-4)
	assert.InDelta(t, 1.0, result.FinalCoin, 1e-12)
}

// TestSimulate_FlatSeries tests that an unchanged price produces no trades
func TestSimulate_FlatSeries(t *testing.T) {
	result, err := Simulate(samplesFromPrices(100, 100, 100, 100), scenarioConfig())
	require.NoError(t, err)

	assert.Empty(t, result.Transactions)
	assert.Empty(t, result.OpenPositions)
	assert.Equal(t, 0.0, result.Metrics.TotalProfit)
	assert.Equal(t, 0.0, result.Metrics.MaxInvestedAmount)
	assert.Equal(t, []float64{200, 200, 200, 200}, result.CashTrace)
}

// TestSimulate_FlatStepsAreTraced tests that steps without a price change still record cash
func TestSimulate_FlatStepsAreTraced(t *testing.T) {
	result, err := Simulate(samplesFromPrices(100, 90, 90, 90), scenarioConfig())
	require.NoError(t, err)

	assert.Equal(t, []float64{200, 100, 100, 100}, result.CashTrace)
	assert.Len(t, result.Transactions, 1)
}

// TestSimulate_InsufficientCapital tests that buys stop silently once cash runs out
func TestSimulate_InsufficientCapital(t *testing.T) {
	result, err := Simulate(samplesFromPrices(115, 85), scenarioConfig())
	require.NoError(t, err)

	require.Len(t, result.Transactions, 2)
	assert.Equal(t, 90.0, result.Transactions[0].Price)
	assert.Equal(t, 100.0, result.Transactions[1].Price)
	assert.Equal(t, 0.0, result.FinalCash)
	assert.Equal(t, 200.0, result.Metrics.MaxInvestedAmount)
	assert.Len(t, result.OpenPositions, 2)
}

// TestSimulate_TopLevelBuyHasNoTarget tests that a buy at the top level stays open for the rest of the run
func TestSimulate_TopLevelBuyHasNoTarget(t *testing.T) {
	result, err := Simulate(samplesFromPrices(120, 110, 120, 130), scenarioConfig())
	require.NoError(t, err)

	require.Len(t, result.Transactions, 1)
	assert.Equal(t, 110.0, result.Transactions[0].Price)

	require.Len(t, result.OpenPositions, 1)
	open := result.OpenPositions[0]
	assert.False(t, open.HasTarget())
	assert.Nil(t, open.SellPrice)
	assert.Equal(t, 110.0, open.BuyPrice)

	assert.Equal(t, 100.0, result.FinalCash)
	assert.Equal(t, 100.0, result.Metrics.MaxInvestedAmount)
	assert.Equal(t, 0.0, result.Metrics.TotalProfit)
	assert.InDelta(t, 100.0/110.0*130.0, result.Metrics.UnrealizedValue, 1e-9)
}

// TestSimulate_TargetAboveUpperLimitByRounding tests that a level whose target
// rounds just past the upper limit opens a position that is never sold
func TestSimulate_TargetAboveUpperLimitByRounding(t *testing.T) {
	cfg := Config{LowerLimit: 0.1, UpperLimit: 0.4, NumGrids: 3, Investment: 300}
	g, err := NewGrid(cfg.LowerLimit, cfg.UpperLimit, cfg.NumGrids)
	require.NoError(t, err)
	require.Greater(t, g.Levels[2]+g.Size, cfg.UpperLimit)

	result, err := Simulate(samplesFromPrices(0.35, 0.3, 0.45), cfg)
	require.NoError(t, err)

	require.Len(t, result.Transactions, 1)
	assert.Equal(t, ActionBuy, result.Transactions[0].Action)
	assert.Equal(t, g.Levels[2], result.Transactions[0].Price)

	require.Len(t, result.OpenPositions, 1)
	assert.False(t, result.OpenPositions[0].HasTarget())
	assert.Equal(t, 0.0, result.Metrics.TotalProfit)
	assert.InDelta(t, 100.0, result.Metrics.MaxInvestedAmount, 1e-9)
}

// TestSimulate_SellRequiresExactTarget tests that a sell happens only at a level
// equal to buy level plus grid size, even when rounding separates it from the next level
func TestSimulate_SellRequiresExactTarget(t *testing.T) {
	cfg := Config{LowerLimit: 25000.5, UpperLimit: 31000.25, NumGrids: 33, Investment: 3300}
	g, err := NewGrid(cfg.LowerLimit, cfg.UpperLimit, cfg.NumGrids)
	require.NoError(t, err)

	// find a level whose target does not land exactly on the next level
	idx := -1
	for i := 0; i < cfg.NumGrids-1; i++ {
		if g.Levels[i]+g.Size != g.Levels[i+1] {
			idx = i
			break
		}
	}
	require.NotEqual(t, -1, idx, "expected a level with a rounded target")

	above := (g.Levels[idx+1] + g.Levels[idx+2]) / 2
	result, err := Simulate(samplesFromPrices(above, g.Levels[idx], above), cfg)
	require.NoError(t, err)

	var sells int
	for _, tx := range result.Transactions {
		if tx.Action == ActionSell {
			sells++
		}
	}
	assert.Zero(t, sells)

	var atIdx *Position
	for i := range result.OpenPositions {
		if result.OpenPositions[i].BuyPrice == g.Levels[idx] {
			atIdx = &result.OpenPositions[i]
		}
	}
	require.NotNil(t, atIdx)
	require.True(t, atIdx.HasTarget())
	assert.Equal(t, g.Levels[idx]+g.Size, *atIdx.SellPrice)
	assert.NotEqual(t, g.Levels[idx+1], *atIdx.SellPrice)
}

// TestSimulate_MultipleMatchesClosedTogether tests that all positions targeting a level are sold in one step
func TestSimulate_MultipleMatchesClosedTogether(t *testing.T) {
	result, err := Simulate(samplesFromPrices(100, 90, 95, 90, 100), scenarioConfig())
	require.NoError(t, err)

	require.Len(t, result.Transactions, 4)
	assert.Equal(t, ActionBuy, result.Transactions[0].Action)
	assert.Equal(t, ActionBuy, result.Transactions[1].Action)

	sellA, sellB := result.Transactions[2], result.Transactions[3]
	assert.Equal(t, ActionSell, sellA.Action)
	assert.Equal(t, ActionSell, sellB.Action)
	assert.Equal(t, 1, sellA.ID)
	assert.Equal(t, 2, sellB.ID)
	assert.Equal(t, sellA.Time, sellB.Time)

	assert.Empty(t, result.OpenPositions)
	assert.InDelta(t, 2*10*100.0/90.0, result.Metrics.TotalProfit, 1e-9)
	assert.InDelta(t, 200+result.Metrics.TotalProfit, result.FinalCash, 1e-9)
	assert.InDelta(t, 0.0, result.FinalCoin, 1e-12)
}

// TestSimulate_ConfigErrors tests that invalid configurations never start a run
func TestSimulate_ConfigErrors(t *testing.T) {
	series := samplesFromPrices(100, 90, 100)

	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"zero grids", Config{LowerLimit: 90, UpperLimit: 110, NumGrids: 0, Investment: 200}, "num_grids"},
		{"equal limits", Config{LowerLimit: 100, UpperLimit: 100, NumGrids: 2, Investment: 200}, "lower_limit"},
		{"lower above upper", Config{LowerLimit: 120, UpperLimit: 100, NumGrids: 2, Investment: 200}, "lower_limit"},
		{"zero lower limit", Config{LowerLimit: 0, UpperLimit: 100, NumGrids: 2, Investment: 200}, "lower_limit"},
		{"zero investment", Config{LowerLimit: 90, UpperLimit: 110, NumGrids: 2, Investment: 0}, "investment"},
		{"negative investment", Config{LowerLimit: 90, UpperLimit: 110, NumGrids: 2, Investment: -5}, "investment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Simulate(series, tt.cfg)

			assert.Nil(t, result)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

// TestSimulate_NoData tests that short series are reported instead of returning zeroed results
func TestSimulate_NoData(t *testing.T) {
	for _, series := range [][]types.PriceSample{nil, {}, samplesFromPrices(100)} {
		result, err := Simulate(series, scenarioConfig())

		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrNoData)

		var noData *NoDataError
		require.ErrorAs(t, err, &noData)
		assert.Equal(t, len(series), noData.Samples)
	}
}

// TestSimulate_ConfigCheckedBeforeData tests that a bad config is reported even with no data
func TestSimulate_ConfigCheckedBeforeData(t *testing.T) {
	_, err := Simulate(nil, Config{LowerLimit: 90, UpperLimit: 110, NumGrids: 0, Investment: 200})

	assert.ErrorIs(t, err, ErrInvalidConfig)
}

// TestSimulate_InvalidSamples tests rejection of non-positive prices and reversed timestamps
func TestSimulate_InvalidSamples(t *testing.T) {
	negative := samplesFromPrices(100, -1, 100)
	_, err := Simulate(negative, scenarioConfig())
	assert.ErrorIs(t, err, ErrInvalidData)

	var dataErr *DataError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, 1, dataErr.Index)

	reversed := samplesFromPrices(100, 90, 100)
	reversed[2].Timestamp = reversed[0].Timestamp.Add(-time.Hour)
	_, err = Simulate(reversed, scenarioConfig())
	assert.ErrorIs(t, err, ErrInvalidData)
}

// TestSimulate_EqualTimestampsAllowed tests that repeated timestamps are accepted
func TestSimulate_EqualTimestampsAllowed(t *testing.T) {
	series := samplesFromPrices(100, 90)
	series[1].Timestamp = series[0].Timestamp

	_, err := Simulate(series, scenarioConfig())
	assert.NoError(t, err)
}

// TestSimulate_Deterministic tests that identical inputs give identical outputs
func TestSimulate_Deterministic(t *testing.T) {
	series := generateOscillatingData(500, 100, 15, 42)
	cfg := Config{LowerLimit: 85, UpperLimit: 115, NumGrids: 33, Investment: 1000}

	first, err := Simulate(series, cfg)
	require.NoError(t, err)
	second, err := Simulate(series, cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEmpty(t, first.Transactions)
}

// TestSimulate_DoesNotModifyInput tests that the price series is treated as read only
func TestSimulate_DoesNotModifyInput(t *testing.T) {
	series := generateOscillatingData(200, 100, 10, 7)
	original := types.CopySamples(series)

	_, err := Simulate(series, Config{LowerLimit: 90, UpperLimit: 110, NumGrids: 10, Investment: 1000})
	require.NoError(t, err)

	assert.Equal(t, original, series)
}

// TestSimulate_Invariants tests cash non-negativity, gain identity and conservation over many runs
func TestSimulate_Invariants(t *testing.T) {
	configs := []Config{
		{LowerLimit: 85, UpperLimit: 115, NumGrids: 33, Investment: 1000},
		{LowerLimit: 95, UpperLimit: 105, NumGrids: 5, Investment: 1000},
		{LowerLimit: 70, UpperLimit: 130, NumGrids: 200, Investment: 50000},
		{LowerLimit: 99.5, UpperLimit: 100.5, NumGrids: 7, Investment: 3000},
	}

	for seed := int64(1); seed <= 5; seed++ {
		series := generateOscillatingData(400, 100, 12, seed)
		for _, cfg := range configs {
			result, err := Simulate(series, cfg)
			require.NoError(t, err)

			for _, c := range result.CashTrace {
				assert.GreaterOrEqual(t, c, 0.0)
			}

			buys := make(map[int]Transaction)
			for _, tx := range result.Transactions {
				if tx.Action == ActionBuy {
					buys[tx.ID] = tx
					continue
				}
				buy, ok := buys[tx.ID]
				require.True(t, ok, "sell %d has no matching buy", tx.ID)
				require.NotNil(t, tx.Gain)
				assert.InDelta(t, (tx.Price-buy.Price)*tx.Amount, *tx.Gain, 1e-9)
				assert.Equal(t, buy.Amount, tx.Amount)
				assert.Greater(t, tx.Price, buy.Price)
			}

			openCost := float64(len(result.OpenPositions)) * result.AmountPerOrder
			reconciled := result.FinalCash + openCost - result.Metrics.TotalProfit
			assert.InDelta(t, cfg.Investment, reconciled, 1e-6*cfg.Investment)

			assert.Equal(t, result.Metrics.BuyCount, result.Metrics.SellCount+result.Metrics.OpenPositions)
			assert.Len(t, result.CashTrace, len(series))
		}
	}
}
