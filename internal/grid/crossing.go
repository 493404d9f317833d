package grid

import "sort"

// Direction of a price move between two consecutive samples
type Direction int

const (
	DirectionNone Direction = iota
	DirectionDown
	DirectionUp
)

func (d Direction) String() string {
	switch d {
	case DirectionDown:
		return "down"
	case DirectionUp:
		return "up"
	default:
		return "none"
	}
}

// Crossing lists the grid levels crossed by one price step.
// Levels holds indices into Grid.Levels in ascending price order, whatever the direction.
type Crossing struct {
	Direction Direction
	Levels    []int
}

// Crossed determines which levels the price crossed moving from p0 to p1.
//
// A downward move crosses every level L with p1 <= L < p0 and an upward move
// every level L with p0 < L <= p1. A level equal to the new price counts as
// crossed, a level equal to the old price does not. Levels outside
// [LowerLimit, UpperLimit] are never crossed.
func (g *Grid) Crossed(p0, p1 float64) Crossing {
	limit := g.tradableLevels()
	switch {
	case p1 < p0:
		from := sort.SearchFloat64s(g.Levels[:limit], p1)
		to := sort.SearchFloat64s(g.Levels[:limit], p0)
		return Crossing{Direction: DirectionDown, Levels: indexRange(from, to)}
	case p1 > p0:
		from := sort.Search(limit, func(i int) bool { return g.Levels[i] > p0 })
		to := sort.Search(limit, func(i int) bool { return g.Levels[i] > p1 })
		return Crossing{Direction: DirectionUp, Levels: indexRange(from, to)}
	default:
		return Crossing{Direction: DirectionNone}
	}
}

// tradableLevels counts the leading levels that do not exceed UpperLimit
func (g *Grid) tradableLevels() int {
	return sort.Search(len(g.Levels), func(i int) bool { return !g.tradable(g.Levels[i]) })
}

func indexRange(from, to int) []int {
	if to <= from {
		return nil
	}
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}
