package mailbox

import (
	"context"
	"time"
)

const (
	// DefaultPeriod is the EMG acquisition period (1 kHz).
	DefaultPeriod = time.Millisecond

	// MaxRaw is the largest value a 12-bit converter produces.
	MaxRaw = 4095
)

// Channel is one analog input read on demand. Implementations return a 12-bit
// value in [0, MaxRaw] and are assumed to always succeed.
type Channel interface {
	Read() uint16
}

// ChannelFunc adapts a function to the Channel interface.
type ChannelFunc func() uint16

// Read implements Channel.
func (f ChannelFunc) Read() uint16 {
	return f()
}

// Sampler reads one sample per period from a Channel and publishes it into a
// Mailbox. It is the only writer of the mailbox.
type Sampler struct {
	ch     Channel
	box    *Mailbox
	period time.Duration
}

// NewSampler creates a sampler. A non-positive period selects DefaultPeriod.
func NewSampler(ch Channel, box *Mailbox, period time.Duration) *Sampler {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Sampler{
		ch:     ch,
		box:    box,
		period: period,
	}
}

// Sample performs a single acquisition. Values above MaxRaw are clamped.
func (s *Sampler) Sample() {
	v := s.ch.Read()
	if v > MaxRaw {
		v = MaxRaw
	}
	s.box.Put(v)
}

// Run samples at the configured period until ctx is cancelled.
func (s *Sampler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sample()
		}
	}
}
