package grid

import (
	"fmt"
	"math"
)

// Grid is the fixed set of evenly spaced price levels used by one simulation run
type Grid struct {
	LowerLimit float64   `json:"lower_limit"`
	UpperLimit float64   `json:"upper_limit"`
	NumGrids   int       `json:"num_grids"`
	Size       float64   `json:"grid_size"` // (UpperLimit - LowerLimit) / NumGrids
	Levels     []float64 `json:"levels"`    // NumGrids+1 prices, ascending
}

// NewGrid derives the grid levels for the given bounds and level count.
// Level i is lowerLimit + i*size exactly; rounding may push the top level
// just above upperLimit, in which case it is never traded.
func NewGrid(lowerLimit, upperLimit float64, numGrids int) (*Grid, error) {
	if numGrids <= 0 {
		return nil, &ConfigError{Field: "num_grids", Message: fmt.Sprintf("must be positive, got: %d", numGrids)}
	}
	if !isFinite(lowerLimit) || !isFinite(upperLimit) {
		return nil, &ConfigError{Field: "limits", Message: fmt.Sprintf("must be finite numbers, got: %f and %f", lowerLimit, upperLimit)}
	}
	if lowerLimit <= 0 {
		return nil, &ConfigError{Field: "lower_limit", Message: fmt.Sprintf("must be positive, got: %f", lowerLimit)}
	}
	if lowerLimit >= upperLimit {
		return nil, &ConfigError{
			Field:   "lower_limit",
			Message: fmt.Sprintf("must be less than upper_limit, got: %f >= %f", lowerLimit, upperLimit),
		}
	}

	size := (upperLimit - lowerLimit) / float64(numGrids)
	levels := make([]float64, numGrids+1)
	for i := range levels {
		levels[i] = lowerLimit + float64(i)*size
	}

	return &Grid{
		LowerLimit: lowerLimit,
		UpperLimit: upperLimit,
		NumGrids:   numGrids,
		Size:       size,
		Levels:     levels,
	}, nil
}

// PercentageSize expresses the grid spacing as a percentage of the mid price
func (g *Grid) PercentageSize() float64 {
	mid := (g.LowerLimit + g.UpperLimit) / 2
	if mid == 0 {
		return 0
	}
	return g.Size / mid * 100
}

// tradable reports whether price lies inside the grid bounds
func (g *Grid) tradable(price float64) bool {
	return price >= g.LowerLimit && price <= g.UpperLimit
}

// sellTarget returns the price one grid size above a buy level. A target
// above the upper limit means the position is never sold.
func (g *Grid) sellTarget(level float64) (float64, bool) {
	target := level + g.Size
	if !g.tradable(target) {
		return 0, false
	}
	return target, true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
