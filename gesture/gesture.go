// Package gesture classifies touch flings into swipe directions.
package gesture

import "math"

const (
	// MinDistance is the travel in pixels a fling needs to count as a swipe.
	MinDistance = 100
	// MinVelocity is the speed in pixels per second a swipe needs.
	MinVelocity = 100
)

// Direction is the direction of a swipe.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// Fling is a completed touch gesture in view coordinates, y growing
// downwards.
type Fling struct {
	StartX, StartY float64
	EndX, EndY     float64
	VelocityX      float64
	VelocityY      float64
}

// Classify returns the swipe direction of f. Horizontal movement is checked
// first, so a diagonal fling long enough on both axes is horizontal. The
// second result is false when f is too short or too slow.
func Classify(f Fling) (Direction, bool) {
	dx := f.StartX - f.EndX
	dy := f.StartY - f.EndY

	if math.Abs(f.VelocityX) > MinVelocity {
		switch {
		case dx > MinDistance:
			return Left, true
		case -dx > MinDistance:
			return Right, true
		}
	}
	if math.Abs(f.VelocityY) > MinVelocity {
		switch {
		case dy > MinDistance:
			return Up, true
		case -dy > MinDistance:
			return Down, true
		}
	}
	return 0, false
}
