package captcha

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDragPathEndpoints(t *testing.T) {
	start := Point{X: 100, Y: 400}
	path := DragPath(start, 180)

	require.GreaterOrEqual(t, len(path), minDragSteps+2)
	require.LessOrEqual(t, len(path), maxDragSteps+2)

	assert.Equal(t, start, path[0])

	last := path[len(path)-1]
	assert.Equal(t, 280.0, last.X)
	assert.Equal(t, 400.0, last.Y)
}

func TestDragPathMovesMonotonicallyRight(t *testing.T) {
	path := DragPath(Point{X: 0, Y: 0}, 150)

	for i := 1; i < len(path); i++ {
		assert.GreaterOrEqual(t, path[i].X, path[i-1].X, "step %d moved backwards", i)
	}
}

func TestDragPathEasesOut(t *testing.T) {
	path := DragPath(Point{X: 0, Y: 0}, 200)

	// An eased-out curve covers more than half the distance in the
	// first half of the steps.
	mid := path[len(path)/2]
	assert.Greater(t, mid.X, 100.0)
}

func TestDragPathJitterStaysSmall(t *testing.T) {
	start := Point{X: 50, Y: 300}
	path := DragPath(start, 120)

	for i, p := range path {
		assert.InDelta(t, start.Y, p.Y, 1.0, "step %d wandered vertically", i)
	}
}

func TestDragPathVariesStepCount(t *testing.T) {
	seen := map[int]bool{}
	for i := 0; i < 50; i++ {
		seen[len(DragPath(Point{}, 100))] = true
	}
	assert.Greater(t, len(seen), 1, "step count should not be fixed")
}
