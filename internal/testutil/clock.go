package testutil

import (
	"sync"
	"time"
)

// DefaultUnix is the instant test clocks start at: 2024-01-05T03:04:05Z.
const DefaultUnix int64 = 1704423845

// SteppingClock is a controllable clock for tests. It satisfies
// pipeline.Clock.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SteppingClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewSteppingClock creates a clock at DefaultUnix.
func NewSteppingClock() *SteppingClock {
	return &SteppingClock{now: time.Unix(DefaultUnix, 0).UTC()}
}

// Now returns the current instant without advancing.
func (c *SteppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new instant.
func (c *SteppingClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// Set moves the clock to t.
func (c *SteppingClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.UTC()
}

// Reset moves the clock back to DefaultUnix.
func (c *SteppingClock) Reset() {
	c.Set(time.Unix(DefaultUnix, 0))
}
