// Package force smooths the force-sensitive resistor reading used to detect
// contact, slip and over-pressure.
package force

import "github.com/itohio/gripmate/pkg/mailbox"

// DefaultSize is the number of slots in the moving average.
const DefaultSize = 8

// Reading is one force sample.
type Reading struct {
	Raw      int // Value just read
	Smoothed int // Truncated mean of all slots
}

// Source returns a force reading on demand.
type Source interface {
	Read() Reading
}

// Reader performs one ADC read per call and averages it over a zero-filled
// ring. The first Size-1 readings are therefore biased towards zero.
type Reader struct {
	ch    mailbox.Channel
	slots []int
	pos   int
	sum   int
	last  Reading
}

// NewReader creates a reader with size slots (DefaultSize if size <= 0).
func NewReader(ch mailbox.Channel, size int) *Reader {
	if size <= 0 {
		size = DefaultSize
	}
	return &Reader{
		ch:    ch,
		slots: make([]int, size),
	}
}

// Read samples the channel once.
func (r *Reader) Read() Reading {
	raw := int(r.ch.Read())

	r.sum += raw - r.slots[r.pos]
	r.slots[r.pos] = raw
	r.pos = (r.pos + 1) % len(r.slots)

	r.last = Reading{Raw: raw, Smoothed: r.sum / len(r.slots)}
	return r.last
}

// Last returns the most recent reading without sampling.
func (r *Reader) Last() Reading {
	return r.last
}
