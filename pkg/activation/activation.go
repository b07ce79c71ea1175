// Package activation debounces the EMG envelope into a stable "muscle active"
// flag.
package activation

import "time"

// Params configures the detector.
type Params struct {
	Threshold float32       // Envelope level that counts as contraction
	Confirm   time.Duration // Time above threshold before activating
	Release   time.Duration // Time below threshold before releasing
	Step      float32       // Operator threshold adjustment step
}

// DefaultParams returns the hand-tuned values from the reference session.
func DefaultParams() Params {
	return Params{
		Threshold: 0.055,
		Confirm:   300 * time.Millisecond,
		Release:   400 * time.Millisecond,
		Step:      0.005,
	}
}

// Detector compares the envelope to a threshold and only changes its output
// once the comparison has been stable for Confirm (rising) or Release
// (falling).
//
// The threshold is not validated. Driving it below zero makes the detector
// permanently active; driving it above the envelope range disables it.
type Detector struct {
	p Params

	threshold float32
	active    bool
	prevRaw   bool
	onset     time.Duration
	offset    time.Duration
}

// New creates an inactive detector. now is the start time; the release timer
// runs from it, as if the signal had just fallen.
func New(p Params, now time.Duration) *Detector {
	return &Detector{
		p:         p,
		threshold: p.Threshold,
		offset:    now,
	}
}

// Update feeds the latest envelope at time now and returns the debounced flag.
func (d *Detector) Update(envelope float32, now time.Duration) bool {
	raw := envelope > d.threshold

	if raw && !d.prevRaw {
		d.onset = now
	}
	if !raw && d.prevRaw {
		d.offset = now
	}
	if raw && now-d.onset >= d.p.Confirm {
		d.active = true
	}
	if !raw && now-d.offset >= d.p.Release {
		d.active = false
	}

	d.prevRaw = raw
	return d.active
}

// Active returns the debounced flag.
func (d *Detector) Active() bool {
	return d.active
}

// Raw returns the undebounced comparison from the last Update.
func (d *Detector) Raw() bool {
	return d.prevRaw
}

// Onset returns the time of the last raw rising edge.
func (d *Detector) Onset() time.Duration {
	return d.onset
}

// Offset returns the time of the last raw falling edge.
func (d *Detector) Offset() time.Duration {
	return d.offset
}

// Threshold returns the current threshold.
func (d *Detector) Threshold() float32 {
	return d.threshold
}

// SetThreshold replaces the threshold without any bounds check.
func (d *Detector) SetThreshold(v float32) {
	d.threshold = v
}

// Raise increases the threshold by one step and returns the new value.
func (d *Detector) Raise() float32 {
	d.threshold += d.p.Step
	return d.threshold
}

// Lower decreases the threshold by one step and returns the new value.
func (d *Detector) Lower() float32 {
	d.threshold -= d.p.Step
	return d.threshold
}
