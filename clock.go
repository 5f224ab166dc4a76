package flourish

import "time"

// Clock supplies the monotonic time, in seconds, that the scene uses for
// frame deltas, cooldowns, delays, and repeat timers.
type Clock interface {
	Now() float64
}

// SystemClock reads the process monotonic clock.
type SystemClock struct {
	start time.Time
}

// NewSystemClock returns a clock whose zero is the moment of the call.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// Now returns seconds elapsed since the clock was created.
func (c *SystemClock) Now() float64 {
	return time.Since(c.start).Seconds()
}

// ManualClock only moves when told to. Tests and deterministic replays use it.
type ManualClock struct {
	t float64
}

// Now returns the current manual time.
func (c *ManualClock) Now() float64 {
	return c.t
}

// Advance moves the clock forward by d seconds. Negative values are ignored.
func (c *ManualClock) Advance(d float64) {
	if d > 0 {
		c.t += d
	}
}

// Set jumps the clock to t.
func (c *ManualClock) Set(t float64) {
	c.t = t
}
