package activation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const (
	high = float32(0.2)
	low  = float32(0.01)
)

// feed drives the detector once per millisecond from start to end (exclusive).
func feed(d *Detector, env float32, start, end time.Duration) bool {
	var active bool
	for now := start; now < end; now += time.Millisecond {
		active = d.Update(env, now)
	}
	return active
}

func TestDetector_ConfirmDelay(t *testing.T) {
	d := New(DefaultParams(), 0)

	// Rising edge at 1s.
	assert.False(t, feed(d, high, time.Second, time.Second+300*time.Millisecond))
	assert.Equal(t, time.Second, d.Onset())
	assert.True(t, d.Raw())

	// Exactly 300ms after the edge.
	assert.True(t, d.Update(high, time.Second+300*time.Millisecond))
}

func TestDetector_ReleaseDelay(t *testing.T) {
	d := New(DefaultParams(), 0)
	feed(d, high, 0, 500*time.Millisecond)
	assert.True(t, d.Active())

	// Falling edge at 500ms; stays active for 400ms.
	assert.True(t, feed(d, low, 500*time.Millisecond, 900*time.Millisecond))
	assert.Equal(t, 500*time.Millisecond, d.Offset())
	assert.False(t, d.Update(low, 900*time.Millisecond))
}

func TestDetector_FlickerNeverTriggers(t *testing.T) {
	d := New(DefaultParams(), 0)

	now := time.Duration(0)
	for range 50 {
		// 250ms above, 50ms below: never 300ms continuously above.
		for end := now + 250*time.Millisecond; now < end; now += time.Millisecond {
			assert.False(t, d.Update(high, now))
		}
		for end := now + 50*time.Millisecond; now < end; now += time.Millisecond {
			assert.False(t, d.Update(low, now))
		}
	}
}

func TestDetector_ShortDropDoesNotRelease(t *testing.T) {
	d := New(DefaultParams(), 0)
	feed(d, high, 0, time.Second)
	assert.True(t, d.Active())

	// 350ms dips separated by highs never reach the 400ms release.
	now := time.Second
	for range 10 {
		assert.True(t, feed(d, low, now, now+350*time.Millisecond))
		now += 350 * time.Millisecond
		assert.True(t, feed(d, high, now, now+10*time.Millisecond))
		now += 10 * time.Millisecond
	}
}

func TestDetector_EqualToThresholdIsNotAbove(t *testing.T) {
	p := DefaultParams()
	d := New(p, 0)
	assert.False(t, feed(d, p.Threshold, 0, time.Second))
	assert.False(t, d.Raw())
}

func TestDetector_ThresholdRoundTrip(t *testing.T) {
	d := New(DefaultParams(), 0)
	orig := d.Threshold()

	assert.InDelta(t, orig+0.005, d.Raise(), 1e-6)
	assert.InDelta(t, orig, d.Lower(), 1e-6)
}

func TestDetector_UnboundedThreshold(t *testing.T) {
	d := New(DefaultParams(), 0)

	// Negative threshold: a silent envelope still counts as contraction.
	for range 20 {
		d.Lower()
	}
	assert.Less(t, d.Threshold(), float32(0))
	assert.True(t, feed(d, 0, 0, 400*time.Millisecond))

	// Huge threshold: nothing ever activates, release still happens.
	d.SetThreshold(1000)
	assert.False(t, feed(d, 3.3, 400*time.Millisecond, 2*time.Second))
}
