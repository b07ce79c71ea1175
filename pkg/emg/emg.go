// Package emg turns raw muscle-signal ADC samples into an RMS activation
// envelope.
//
// Conditioning runs in single precision, in a fixed order: scale and
// midpoint removal, one-pole high-pass, exponential low-pass, then an RMS over
// a circular window that is fully recomputed on every sample.
package emg

import (
	"github.com/chewxy/math32"
)

// Params configures the conditioning chain.
type Params struct {
	VRef       float32 // ADC reference voltage (V)
	ADCMax     float32 // Full-scale ADC count
	Midpoint   float32 // Bias removed after scaling (V)
	HighPass   float32 // High-pass coefficient
	LowPass    float32 // Low-pass weight kept on history
	WindowSize int     // RMS window length in samples
}

// DefaultParams returns the tuning used on the reference hardware.
func DefaultParams() Params {
	return Params{
		VRef:       3.3,
		ADCMax:     4095,
		Midpoint:   1.65,
		HighPass:   0.9747,
		LowPass:    0.7,
		WindowSize: 200,
	}
}

// HighPass is a single-pole high-pass filter removing drift and DC offset.
type HighPass struct {
	a       float32
	prevIn  float32
	prevOut float32
}

// NewHighPass creates a high-pass filter with coefficient a.
func NewHighPass(a float32) *HighPass {
	return &HighPass{a: a}
}

// Filter feeds one sample through the filter.
func (f *HighPass) Filter(in float32) float32 {
	out := f.a * (f.prevOut + in - f.prevIn)
	f.prevIn = in
	f.prevOut = out
	return out
}

// LowPass is an exponential moving average. a is the weight kept on history,
// 1-a the weight given to the new sample.
type LowPass struct {
	a     float32
	state float32
}

// NewLowPass creates a low-pass filter with history weight a.
func NewLowPass(a float32) *LowPass {
	return &LowPass{a: a}
}

// Filter feeds one sample through the filter.
func (f *LowPass) Filter(in float32) float32 {
	f.state = f.a*f.state + (1-f.a)*in
	return f.state
}

// Window is a fixed-size circular buffer of conditioned samples. Slots start
// at zero and the oldest slot is overwritten first.
type Window struct {
	buf   []float32
	index int
}

// NewWindow creates a window of n zeroed slots. n < 1 is treated as 1.
func NewWindow(n int) *Window {
	if n < 1 {
		n = 1
	}
	return &Window{buf: make([]float32, n)}
}

// Push writes v at the current index and advances the index modulo the size.
func (w *Window) Push(v float32) {
	w.buf[w.index] = v
	w.index = (w.index + 1) % len(w.buf)
}

// RMS sums the squares of every slot and returns sqrt(sum/size).
func (w *Window) RMS() float32 {
	var sum float32
	for _, v := range w.buf {
		sum += v * v
	}
	return math32.Sqrt(sum / float32(len(w.buf)))
}

// Len returns the number of slots.
func (w *Window) Len() int {
	return len(w.buf)
}

// Conditioner is the full raw-sample to envelope pipeline.
type Conditioner struct {
	p        Params
	hp       *HighPass
	lp       *LowPass
	win      *Window
	last     float32
	envelope float32
}

// NewConditioner creates a conditioner with zeroed filter and window state.
func NewConditioner(p Params) *Conditioner {
	if p.ADCMax <= 0 {
		p.ADCMax = DefaultParams().ADCMax
	}
	return &Conditioner{
		p:   p,
		hp:  NewHighPass(p.HighPass),
		lp:  NewLowPass(p.LowPass),
		win: NewWindow(p.WindowSize),
	}
}

// Volts converts a raw sample to a midpoint-centred voltage.
func (c *Conditioner) Volts(raw uint16) float32 {
	return float32(raw)/c.p.ADCMax*c.p.VRef - c.p.Midpoint
}

// Condition processes one raw sample and returns the recomputed envelope.
//
// The window starts zero-filled, so the envelope is depressed for the first
// WindowSize calls.
func (c *Conditioner) Condition(raw uint16) float32 {
	v := c.Volts(raw)
	c.last = c.lp.Filter(c.hp.Filter(v))
	c.win.Push(c.last)
	c.envelope = c.win.RMS()
	return c.envelope
}

// Envelope returns the envelope computed by the last Condition call.
func (c *Conditioner) Envelope() float32 {
	return c.envelope
}

// Last returns the most recent filtered sample.
func (c *Conditioner) Last() float32 {
	return c.last
}
