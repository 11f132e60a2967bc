package testutil

import (
	"sync"
	"time"
)

// DeterministicClock hands out request sequence numbers for tests.
//
// Unlike engine.Clock it can be reset, so one scenario run twice stamps
// identical Seq values on its install requests.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a clock whose first Next returns 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next increments and returns the next sequence number.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the current sequence number without incrementing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock so the next call to Next returns 1.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}

// FixedTime is the wall-clock instant recorded for runs in tests.
var FixedTime = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

// FixedNow returns FixedTime. It matches the func() time.Time shape the
// history store accepts for its clock.
func FixedNow() time.Time {
	return FixedTime
}
