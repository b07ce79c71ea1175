// Package mailbox hands the latest raw ADC sample from the sampling context to
// the control loop.
//
// The mailbox holds exactly one value. A write overwrites any value that has
// not been taken yet, so a slow consumer sees only the most recent sample.
// Samples are never queued.
package mailbox

import (
	"sync"
	"sync/atomic"
)

// Mailbox is a single-slot, single-producer/single-consumer handoff.
type Mailbox struct {
	mu    sync.Mutex
	value uint16
	ready atomic.Bool

	// overwritten counts samples replaced before they were taken.
	overwritten atomic.Uint64
}

// Put stores v, replacing any unread value.
func (m *Mailbox) Put(v uint16) {
	m.mu.Lock()
	if m.ready.Load() {
		m.overwritten.Add(1)
	}
	m.value = v
	m.ready.Store(true)
	m.mu.Unlock()
}

// Take returns the pending value and clears the ready flag in the same
// critical section. ok is false when nothing new was put since the last Take.
func (m *Mailbox) Take() (v uint16, ok bool) {
	// Fast path: the loop polls far more often than the sampler writes.
	if !m.ready.Load() {
		return 0, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready.Load() {
		return 0, false
	}
	v = m.value
	m.ready.Store(false)
	return v, true
}

// Pending reports whether an unread value is waiting.
func (m *Mailbox) Pending() bool {
	return m.ready.Load()
}

// Overwritten returns how many samples were dropped because the consumer had
// not taken the previous one yet.
func (m *Mailbox) Overwritten() uint64 {
	return m.overwritten.Load()
}
