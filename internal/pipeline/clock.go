package pipeline

import "time"

// Clock supplies the current time to the pipeline. The `none` source
// stamps its version with Clock.Now.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant.
type FixedClock struct {
	At time.Time
}

// Now returns c.At.
func (c FixedClock) Now() time.Time {
	return c.At
}

// UnixClock returns a FixedClock at the given Unix second.
func UnixClock(sec int64) FixedClock {
	return FixedClock{At: time.Unix(sec, 0).UTC()}
}
