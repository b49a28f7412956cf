package engine

import (
	"sync/atomic"
	"time"
)

// DefaultTickLength is the synchronized time advanced per frame (60 Hz).
const DefaultTickLength = time.Second / 60

// Clock is the logical frame clock shared by every rendering thread.
//
// Synchronized time is derived from the frame number, never from wall-clock
// time, so all threads see the same time for a frame and replays are
// deterministic.
//
// Thread-safety: reads are safe from any goroutine. Only the engine's
// control goroutine calls Next().
type Clock struct {
	frame atomic.Int64
	tick  time.Duration
}

// NewClock creates a clock at frame 0. A non-positive tick uses
// DefaultTickLength.
func NewClock(tick time.Duration) *Clock {
	if tick <= 0 {
		tick = DefaultTickLength
	}
	return &Clock{tick: tick}
}

// Next advances the clock one frame and returns the new frame number.
func (c *Clock) Next() int64 {
	return c.frame.Add(1)
}

// Current returns the current frame number without advancing.
func (c *Clock) Current() int64 {
	return c.frame.Load()
}

// Tick returns the synchronized time per frame.
func (c *Clock) Tick() time.Duration {
	return c.tick
}

// Elapsed returns the synchronized time of the current frame.
func (c *Clock) Elapsed() time.Duration {
	return time.Duration(c.Current()) * c.tick
}

// Seconds returns Elapsed in seconds.
func (c *Clock) Seconds() float64 {
	return c.Elapsed().Seconds()
}
