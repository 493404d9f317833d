package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGrid(t *testing.T) *Grid {
	t.Helper()
	g, err := NewGrid(90, 110, 4) // 90, 95, 100, 105, 110
	require.NoError(t, err)
	return g
}

// TestGrid_Crossed tests crossing detection in both directions
func TestGrid_Crossed(t *testing.T) {
	g := testGrid(t)

	tests := []struct {
		name      string
		p0, p1    float64
		direction Direction
		levels    []int
	}{
		{"no move", 100, 100, DirectionNone, nil},
		{"down between levels", 99, 96, DirectionDown, nil},
		{"down one level", 101, 99, DirectionDown, []int{2}},
		{"down onto level", 101, 100, DirectionDown, []int{2}},
		{"down from level excludes it", 100, 96, DirectionDown, nil},
		{"down from level onto next", 100, 95, DirectionDown, []int{1}},
		{"down through several levels ascending", 111, 94, DirectionDown, []int{1, 2, 3, 4}},
		{"down below grid", 92, 50, DirectionDown, []int{0}},
		{"up one level", 99, 101, DirectionUp, []int{2}},
		{"up onto level", 99, 100, DirectionUp, []int{2}},
		{"up from level excludes it", 100, 104, DirectionUp, nil},
		{"up through several levels ascending", 89, 106, DirectionUp, []int{0, 1, 2, 3}},
		{"up above grid", 108, 200, DirectionUp, []int{4}},
		{"entirely above grid", 120, 130, DirectionUp, nil},
		{"entirely below grid", 80, 70, DirectionDown, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := g.Crossed(tt.p0, tt.p1)

			assert.Equal(t, tt.direction, c.Direction)
			assert.Equal(t, tt.levels, c.Levels)
		})
	}
}

// TestDirection_String tests direction names
func TestDirection_String(t *testing.T) {
	assert.Equal(t, "down", DirectionDown.String())
	assert.Equal(t, "up", DirectionUp.String())
	assert.Equal(t, "none", DirectionNone.String())
}
