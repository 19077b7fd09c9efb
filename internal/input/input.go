// Package input translates keyboard keys and swipe gestures into engine
// directions. Swipe input is throttled so a burst of gesture events starts
// at most one move per window; keyboard input is passed through as is.
package input

import (
	"sync"
	"time"

	"github.com/vovakirdan/term2048/internal/engine"
)

// DefaultThrottle is the minimum interval between accepted swipes.
const DefaultThrottle = 200 * time.Millisecond

// Source identifies where an input event came from.
type Source int

const (
	SourceKeyboard Source = iota
	SourceSwipe
)

// String returns the wire name of the source.
func (s Source) String() string {
	switch s {
	case SourceKeyboard:
		return "key"
	case SourceSwipe:
		return "swipe"
	default:
		return "unknown"
	}
}

// ParseSource converts a wire name to a Source. Unknown names are keyboard.
func ParseSource(s string) Source {
	if s == "swipe" {
		return SourceSwipe
	}
	return SourceKeyboard
}

// Event is one direction request.
type Event struct {
	Source    Source
	Direction engine.Direction
	At        time.Time
}

// Throttle accepts at most one event per interval.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	started  bool
}

// NewThrottle creates a throttle with the given minimum interval.
// A non-positive interval accepts everything.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Allow reports whether an event at now falls outside the current window,
// and if so opens a new window starting at now.
func (t *Throttle) Allow(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.interval <= 0 {
		return true
	}
	if t.started && now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	t.started = true
	return true
}

// Reset forgets the current window.
func (t *Throttle) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started = false
}

// Adapter forwards input events to the engine, throttling swipes.
type Adapter struct {
	swipe *Throttle
}

// NewAdapter creates an adapter with the given swipe throttle interval.
func NewAdapter(swipeInterval time.Duration) *Adapter {
	return &Adapter{swipe: NewThrottle(swipeInterval)}
}

// Dispatch returns the direction to apply and whether the event was accepted.
func (a *Adapter) Dispatch(ev Event) (engine.Direction, bool) {
	if ev.Source == SourceSwipe && !a.swipe.Allow(ev.At) {
		return ev.Direction, false
	}
	return ev.Direction, true
}

// Reset clears the swipe throttle window.
func (a *Adapter) Reset() {
	a.swipe.Reset()
}

// KeyDirection maps a key name to a direction.
// Arrow keys, WASD and vim-style hjkl are recognised.
func KeyDirection(key string) (engine.Direction, bool) {
	switch key {
	case "up", "w", "k":
		return engine.DirUp, true
	case "down", "s", "j":
		return engine.DirDown, true
	case "left", "a", "h":
		return engine.DirLeft, true
	case "right", "d", "l":
		return engine.DirRight, true
	}
	return 0, false
}
