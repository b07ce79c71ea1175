// Package clock provides the monotonic time source polled by the control loop.
package clock

import (
	"sync"
	"time"
)

// Clock returns the time elapsed since an arbitrary fixed origin.
// Values never decrease.
type Clock interface {
	Now() time.Duration
}

// Monotonic is a Clock backed by the runtime's monotonic clock.
type Monotonic struct {
	start time.Time
}

var _ Clock = (*Monotonic)(nil)

// NewMonotonic creates a Clock whose origin is the moment of the call.
func NewMonotonic() *Monotonic {
	return &Monotonic{start: time.Now()}
}

// Now returns the elapsed time since the clock was created.
func (m *Monotonic) Now() time.Duration {
	return time.Since(m.start)
}

// Manual is a Clock that only moves when told to. Used to drive debounce and
// step timing deterministically.
type Manual struct {
	mu  sync.Mutex
	now time.Duration
}

var _ Clock = (*Manual)(nil)

// NewManual creates a Manual clock starting at start.
func NewManual(start time.Duration) *Manual {
	return &Manual{now: start}
}

// Now returns the current simulated time.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d. Negative values are ignored.
func (m *Manual) Advance(d time.Duration) {
	if d < 0 {
		return
	}
	m.mu.Lock()
	m.now += d
	m.mu.Unlock()
}

// Set moves the clock to t if t is not in the past.
func (m *Manual) Set(t time.Duration) {
	m.mu.Lock()
	if t > m.now {
		m.now = t
	}
	m.mu.Unlock()
}
