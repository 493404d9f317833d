package sweep

import (
	"context"
	"math"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/crypto-grid-sim/internal/grid"
	"github.com/ducminhle1904/crypto-grid-sim/pkg/types"
)

// generateSeries creates a random walk around base for sweep tests
func generateSeries(count int, base float64, seed int64) []types.PriceSample {
	rng := rand.New(rand.NewSource(seed))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make([]types.PriceSample, count)
	price := base
	for i := range series {
		price += (rng.Float64() - 0.5) * base * 0.02
		price = math.Max(price, base*0.5)
		series[i] = types.PriceSample{Timestamp: start.Add(time.Duration(i) * time.Hour), Price: price}
	}
	return series
}

// TestRange_Values tests inclusive range expansion
func TestRange_Values(t *testing.T) {
	values, err := Range{Start: 10, End: 50, Step: 10}.Values()
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, 30, 40, 50}, values)

	values, err = Range{Start: 0.1, End: 0.3, Step: 0.1}.Values()
	require.NoError(t, err)
	assert.Len(t, values, 3)

	values, err = Fixed(7).Values()
	require.NoError(t, err)
	assert.Equal(t, []float64{7}, values)

	_, err = Range{Start: 10, End: 5, Step: 1}.Values()
	assert.Error(t, err)
	_, err = Range{Start: 1, End: 5, Step: -1}.Values()
	assert.Error(t, err)
	_, err = Range{Start: 0, End: 1e9, Step: 1}.Values()
	assert.Error(t, err)
}

// TestParseRange tests the command line range syntax
func TestParseRange(t *testing.T) {
	r, err := ParseRange("1000:5000:1000")
	require.NoError(t, err)
	assert.Equal(t, Range{Start: 1000, End: 5000, Step: 1000}, r)

	r, err = ParseRange("5:10")
	require.NoError(t, err)
	assert.Equal(t, Range{Start: 5, End: 10, Step: 1}, r)

	r, err = ParseRange("42")
	require.NoError(t, err)
	assert.Equal(t, Fixed(42), r)

	_, err = ParseRange("a:b")
	assert.Error(t, err)
	_, err = ParseRange("1:2:3:4")
	assert.Error(t, err)
}

// TestParseSpace tests overrides on top of a base configuration
func TestParseSpace(t *testing.T) {
	base := grid.Config{LowerLimit: 90, UpperLimit: 110, NumGrids: 10, Investment: 1000}

	space, err := ParseSpace("grids=5:15:5, investment=1000:2000:1000", base)
	require.NoError(t, err)
	assert.Equal(t, Fixed(90), space.LowerLimit)
	assert.Equal(t, Range{Start: 5, End: 15, Step: 5}, space.NumGrids)

	_, err = ParseSpace("leverage=1:5", base)
	assert.Error(t, err)
	_, err = ParseSpace("grids", base)
	assert.Error(t, err)
}

// TestSpace_Expand tests the cartesian product and that invalid combinations are dropped
func TestSpace_Expand(t *testing.T) {
	space := Space{
		LowerLimit: Range{Start: 90, End: 110, Step: 10},
		UpperLimit: Fixed(110),
		NumGrids:   Range{Start: 5, End: 10, Step: 5},
		Investment: Fixed(1000),
	}

	configs, err := space.Expand()

	require.NoError(t, err)
	// lower=110 is not below upper and is dropped
	require.Len(t, configs, 4)
	assert.Equal(t, grid.Config{LowerLimit: 90, UpperLimit: 110, NumGrids: 5, Investment: 1000}, configs[0])
	assert.Equal(t, grid.Config{LowerLimit: 90, UpperLimit: 110, NumGrids: 10, Investment: 1000}, configs[1])
	assert.Equal(t, 100.0, configs[2].LowerLimit)
	for _, cfg := range configs {
		assert.NoError(t, cfg.Validate())
	}
}

// TestRunner_Run tests that parallel results match serial simulation in input order
func TestRunner_Run(t *testing.T) {
	series := generateSeries(500, 100, 7)
	space := Space{
		LowerLimit: Range{Start: 80, End: 95, Step: 5},
		UpperLimit: Range{Start: 105, End: 120, Step: 5},
		NumGrids:   Range{Start: 5, End: 25, Step: 10},
		Investment: Fixed(1000),
	}
	configs, err := space.Expand()
	require.NoError(t, err)

	var calls atomic.Int32
	report, err := NewRunner(4, nil).
		WithProgress(func(*ProgressTracker) { calls.Add(1) }).
		Run(context.Background(), series, configs)

	require.NoError(t, err)
	assert.NotEmpty(t, report.ID)
	require.Len(t, report.Results, len(configs))
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, int32(len(configs)), calls.Load())

	for i, res := range report.Results {
		require.NoError(t, res.Error)
		assert.Equal(t, i, res.Index)
		assert.Equal(t, configs[i], res.Config)

		serial, err := grid.Simulate(series, configs[i])
		require.NoError(t, err)
		assert.Equal(t, serial.Metrics, res.Result.Metrics)
	}
}

// TestReport_Ranked tests profit ordering and the best result
func TestReport_Ranked(t *testing.T) {
	series := generateSeries(300, 100, 11)
	configs := []grid.Config{
		{LowerLimit: 95, UpperLimit: 105, NumGrids: 5, Investment: 1000},
		{LowerLimit: 80, UpperLimit: 120, NumGrids: 40, Investment: 1000},
		{LowerLimit: 90, UpperLimit: 110, NumGrids: 20, Investment: 1000},
	}

	report, err := NewRunner(2, nil).Run(context.Background(), series, configs)
	require.NoError(t, err)

	ranked := report.Ranked()
	require.Len(t, ranked, 3)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Profit(), ranked[i].Profit())
	}
	assert.Equal(t, ranked[0].Index, report.Best().Index)
	assert.Len(t, report.Top(2), 2)
}

// TestRunner_Run_InvalidSeries tests that data errors are reported once
func TestRunner_Run_InvalidSeries(t *testing.T) {
	configs := []grid.Config{{LowerLimit: 90, UpperLimit: 110, NumGrids: 5, Investment: 1000}}

	_, err := NewRunner(2, nil).Run(context.Background(), generateSeries(1, 100, 1), configs)

	assert.ErrorIs(t, err, grid.ErrNoData)
}

// TestRunner_Run_Empty tests a sweep without configurations
func TestRunner_Run_Empty(t *testing.T) {
	report, err := NewRunner(2, nil).Run(context.Background(), generateSeries(10, 100, 1), nil)

	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Nil(t, report.Best())
}

// TestRunner_Run_Cancelled tests that a cancelled context stops the sweep
func TestRunner_Run_Cancelled(t *testing.T) {
	series := generateSeries(200, 100, 3)
	configs, err := Space{
		LowerLimit: Range{Start: 50, End: 99, Step: 1},
		UpperLimit: Fixed(150),
		NumGrids:   Range{Start: 10, End: 100, Step: 10},
		Investment: Fixed(1000),
	}.Expand()
	require.NoError(t, err)
	require.Len(t, configs, 500)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewRunner(2, nil).Run(ctx, series, configs)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Len(t, report.Results, len(configs))
}

// TestProgressTracker tests completion accounting
func TestProgressTracker(t *testing.T) {
	pt := NewProgressTracker(4)
	pt.Increment()
	pt.Increment()

	done, total, pct, _ := pt.GetProgress()
	assert.Equal(t, 2, done)
	assert.Equal(t, 4, total)
	assert.Equal(t, 50.0, pct)
}
