package captcha

import "math/rand/v2"

// Point is a page coordinate in CSS pixels.
type Point struct {
	X float64
	Y float64
}

// Step-count range for a drag gesture. A fixed count would be a
// fingerprint; humans also don't move in evenly spaced increments.
const (
	minDragSteps = 30
	maxDragSteps = 44
)

// DragPath synthesizes a human-like pointer trajectory for dragging the
// slider handle from start to start.X + distance. The path eases out
// (fast at first, decelerating toward the target, quadratic) with a
// little vertical wobble on each step. The first point is where the
// pointer goes down and the last is where it is released.
func DragPath(start Point, distance float64) []Point {
	steps := minDragSteps + rand.IntN(maxDragSteps-minDragSteps+1)

	path := make([]Point, 0, steps+2)
	path = append(path, start)

	for i := 1; i <= steps; i++ {
		progress := float64(i) / float64(steps)
		eased := 1 - (1-progress)*(1-progress)
		path = append(path, Point{
			X: start.X + distance*eased,
			Y: start.Y + (rand.Float64()-0.5)*2,
		})
	}

	// Release exactly on target, no wobble
	path = append(path, Point{X: start.X + distance, Y: start.Y})
	return path
}
