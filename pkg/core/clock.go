package core

import (
	"sync"
	"time"
)

// TickClock issues strictly increasing instants. It remembers the last
// instant handed out and clamps each new one to be at least one
// millisecond later, so concurrent writers observe increasing timestamps
// even on clocks with coarse resolution. Access is serialized; the
// last-issued instant must never be read and advanced in a race.
type TickClock struct {
	mu   sync.Mutex
	last time.Time
}

// NewTickClock returns a clock starting from the current wall time.
func NewTickClock() *TickClock {
	return &TickClock{}
}

// Now returns the current instant, clamped to be strictly later than the
// previous instant this clock returned.
func (c *TickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UTC()
	if !now.After(c.last) {
		now = c.last.Add(time.Millisecond)
	}
	c.last = now
	return now
}

var defaultClock = NewTickClock()

// DefaultClock returns the process-wide clock shared by repositories that
// were not configured with their own. Sharing one clock keeps timestamps
// monotonic across collections.
func DefaultClock() *TickClock {
	return defaultClock
}
