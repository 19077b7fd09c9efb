package input

import (
	"github.com/vovakirdan/term2048/internal/core"
	"github.com/vovakirdan/term2048/internal/engine"
)

// DefaultSwipeDistance is the minimum pointer travel, in columns, for a
// press/release pair to count as a swipe.
const DefaultSwipeDistance = 3

// SwipeTracker turns a pointer press followed by a release into a direction.
// Terminal cells are roughly twice as tall as they are wide, so vertical
// travel counts double.
type SwipeTracker struct {
	minDistance int
	startX      int
	startY      int
	pressed     bool
}

// NewSwipeTracker creates a tracker with the given minimum travel.
func NewSwipeTracker(minDistance int) *SwipeTracker {
	if minDistance <= 0 {
		minDistance = DefaultSwipeDistance
	}
	return &SwipeTracker{minDistance: minDistance}
}

// Press records the start of a gesture.
func (s *SwipeTracker) Press(x, y int) {
	s.startX = x
	s.startY = y
	s.pressed = true
}

// Cancel drops any gesture in progress.
func (s *SwipeTracker) Cancel() {
	s.pressed = false
}

// Release ends the gesture and classifies it.
// Returns false for a release with no press or too little travel.
func (s *SwipeTracker) Release(x, y int) (engine.Direction, bool) {
	if !s.pressed {
		return 0, false
	}
	s.pressed = false

	dx := x - s.startX
	dy := (y - s.startY) * 2

	adx, ady := core.Abs(dx), core.Abs(dy)
	if adx < s.minDistance && ady < s.minDistance {
		return 0, false
	}

	if adx >= ady {
		if dx < 0 {
			return engine.DirLeft, true
		}
		return engine.DirRight, true
	}
	if dy < 0 {
		return engine.DirUp, true
	}
	return engine.DirDown, true
}
