package scope

import (
	"testing"
	"time"

	"github.com/itohio/gripmate/pkg/grip"
	"github.com/itohio/gripmate/pkg/meter"
	"github.com/itohio/gripmate/pkg/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplesAt(base time.Time, n int, step time.Duration) []sample.Sample {
	out := make([]sample.Sample, n)
	for i := range out {
		out[i] = sample.Sample{Timestamp: base.Add(time.Duration(i) * step)}
	}
	return out
}

func TestPlotMapping(t *testing.T) {
	p := plot{x: 10, y: 20, w: 100, h: 50}
	base := time.Now()

	assert.Equal(t, float32(10), p.px(base, base, base.Add(time.Second)))
	assert.Equal(t, float32(60), p.px(base.Add(500*time.Millisecond), base, base.Add(time.Second)))
	assert.Equal(t, float32(10), p.px(base, base, base), "zero span")

	assert.Equal(t, float32(70), p.py(0, 1))
	assert.Equal(t, float32(20), p.py(1, 1))
	assert.Equal(t, float32(45), p.py(0.5, 1))
	assert.Equal(t, float32(20), p.py(5, 1), "clamped top")
	assert.Equal(t, float32(70), p.py(-1, 1), "clamped bottom")
}

func TestAutoScale_Empty(t *testing.T) {
	s := &ScopeWidget{window: 10 * time.Second}
	s.updateAutoScale()

	assert.Equal(t, minEnvelopeRange, s.envMax)
	assert.Equal(t, minForceRange, s.forceMax)
	assert.Equal(t, 10*time.Second, s.xMax.Sub(s.xMin))
}

func TestAutoScale_Data(t *testing.T) {
	s := &ScopeWidget{window: time.Second, maxDisplayPoints: DefaultMaxPoints}
	base := time.Now()
	data := samplesAt(base, 30, 100*time.Millisecond)
	data[3].Envelope = 0.5
	data[4].Threshold = 0.2
	data[5].Force = 0.4

	s.setData(data, nil)

	assert.InDelta(t, 0.55, s.envMax, 1e-9)
	assert.InDelta(t, 0.44, s.forceMax, 1e-9)
	assert.Equal(t, base, s.xMin)
	assert.Equal(t, base.Add(2900*time.Millisecond), s.xMax)
}

func TestMapEpisodes_Downsampled(t *testing.T) {
	s := &ScopeWidget{window: time.Second, maxDisplayPoints: 10}
	base := time.Now()
	data := samplesAt(base, 100, 10*time.Millisecond)

	s.setData(data, []meter.Episode{
		{StartIndex: 20, EndIndex: 59},
		{StartIndex: 90, EndIndex: 200}, // out of range
	})

	require.Len(t, s.episodes, 1)
	e := s.episodes[0]
	assert.Less(t, e.StartIndex, e.EndIndex)
	assert.Less(t, e.EndIndex, len(s.displaySamples))
	assert.False(t, s.displaySamples[e.StartIndex].Timestamp.After(data[20].Timestamp))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "41° 12%", episodeLabel(meter.Episode{HoldAngle: 41, PeakForce: 0.12, Contact: true}))
	assert.Equal(t, "130° 0% empty", episodeLabel(meter.Episode{HoldAngle: 130}))
	assert.Equal(t, "45° 30% slip×2", episodeLabel(meter.Episode{HoldAngle: 45, PeakForce: 0.3, Contact: true, Slips: 2}))

	assert.Equal(t, "HOLDING  active  RMS 0.1000V / 0.0550V",
		statusLabel(sample.Sample{State: grip.KindHolding, Active: true, Envelope: 0.1, Threshold: 0.055}))

	assert.Equal(t, "0.50s", formatTime(500*time.Millisecond))
	assert.Equal(t, "2.5s", formatTime(2500*time.Millisecond))
}
