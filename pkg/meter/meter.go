// Package meter keeps a sliding time window of samples and extracts grasp
// episodes from it.
package meter

import (
	"sync"
	"time"

	"github.com/itohio/gripmate/pkg/grip"
	"github.com/itohio/gripmate/pkg/sample"
)

var _ GripMeter = (*Meter)(nil)

// Episode is one continuous stay in the Holding state.
type Episode struct {
	StartIndex int       // Start sample index in buffer (0 if it began before the window)
	EndIndex   int       // End sample index in buffer (updated while open)
	StartTime  time.Time // Start timestamp
	EndTime    time.Time // End timestamp (updated while open)
	HoldAngle  float64   // Jaw angle when holding began (deg)
	PeakForce  float64   // Highest smoothed force seen (fraction of full scale)
	Contact    bool      // Force was at contact level when holding began
	Slips      int       // Angle increases while holding
	Backoffs   int       // Angle decreases while holding
	Open       bool      // Still holding
}

// Duration returns the time spent holding so far.
func (e Episode) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// GripMeter processes samples, maintains the window, and detects episodes.
type GripMeter interface {
	ProcessSamples(input <-chan sample.Sample)
	Samples() []sample.Sample                                   // Current window, oldest first
	Episodes() []Episode                                        // Episodes within the window
	OnUpdate(func(samples []sample.Sample, episodes []Episode)) // Register callback for updates
}

// Meter implements GripMeter.
// Removal is based on timestamp (time window), not number of samples.
type Meter struct {
	samples  []sample.Sample
	episodes []Episode

	mu sync.RWMutex

	callbacks []func(samples []sample.Sample, episodes []Episode)
	cbMu      sync.RWMutex

	window  time.Duration
	contact float64

	// Set when the input channel closes; prevents further callbacks.
	shutdown bool
}

// DefaultWindow replaces a non-positive window in New.
const DefaultWindow = 10 * time.Second

// New creates a meter keeping window worth of samples. contact is the smoothed
// force (fraction of full scale) that counts as touching an object.
func New(window time.Duration, contact float64) *Meter {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Meter{
		samples:  make([]sample.Sample, 0),
		episodes: make([]Episode, 0),
		window:   window,
		contact:  contact,
	}
}

// ProcessSamples processes samples from the input channel until it closes.
// Afterwards no more callbacks are sent until ResetShutdown.
func (m *Meter) ProcessSamples(input <-chan sample.Sample) {
	for s := range input {
		m.processSample(s)
	}
	m.mu.Lock()
	m.shutdown = true
	m.mu.Unlock()
}

// processSample adds a sample to the window and updates episodes.
func (m *Meter) processSample(s sample.Sample) {
	m.mu.Lock()

	m.samples = append(m.samples, s)
	m.trim(s.Timestamp.Add(-m.window))
	m.updateEpisodes()

	shouldNotify := !m.shutdown
	m.mu.Unlock()

	if shouldNotify {
		m.notifyCallbacks()
	}
}

// trim drops samples at or before cutoff and shifts episode indices.
func (m *Meter) trim(cutoff time.Time) {
	cutoffIndex := 0
	for i, s := range m.samples {
		if s.Timestamp.After(cutoff) {
			cutoffIndex = i
			break
		}
	}
	if cutoffIndex == 0 {
		return
	}

	m.samples = m.samples[cutoffIndex:]

	valid := m.episodes[:0]
	for _, e := range m.episodes {
		e.StartIndex -= cutoffIndex
		e.EndIndex -= cutoffIndex
		if e.EndIndex < 0 {
			continue
		}
		if e.StartIndex < 0 {
			e.StartIndex = 0
		}
		valid = append(valid, e)
	}
	m.episodes = valid
}

// updateEpisodes extends, opens or closes the current episode for the newest
// sample.
func (m *Meter) updateEpisodes() {
	last := len(m.samples) - 1
	s := m.samples[last]

	var cur *Episode
	if n := len(m.episodes); n > 0 && m.episodes[n-1].Open {
		cur = &m.episodes[n-1]
	}

	if s.State != grip.KindHolding {
		if cur != nil {
			cur.Open = false
		}
		return
	}

	if cur == nil {
		m.episodes = append(m.episodes, Episode{
			StartIndex: last,
			EndIndex:   last,
			StartTime:  s.Timestamp,
			EndTime:    s.Timestamp,
			HoldAngle:  s.Angle,
			PeakForce:  s.Force,
			Contact:    s.Force >= m.contact,
			Open:       true,
		})
		return
	}

	prev := m.samples[cur.EndIndex]
	switch {
	case s.Angle > prev.Angle:
		cur.Slips++
	case s.Angle < prev.Angle:
		cur.Backoffs++
	}
	cur.EndIndex = last
	cur.EndTime = s.Timestamp
	cur.PeakForce = max(cur.PeakForce, s.Force)
}

// Samples returns a copy of the current samples buffer.
func (m *Meter) Samples() []sample.Sample {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]sample.Sample, len(m.samples))
	copy(result, m.samples)
	return result
}

// Episodes returns a copy of the current episodes.
func (m *Meter) Episodes() []Episode {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Episode, len(m.episodes))
	copy(result, m.episodes)
	return result
}

// OnUpdate registers a callback invoked after every processed sample.
// The callback should copy data quickly and return as fast as possible.
func (m *Meter) OnUpdate(callback func(samples []sample.Sample, episodes []Episode)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// ResetShutdown allows callbacks again before starting a new chain.
func (m *Meter) ResetShutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdown = false
}

// notifyCallbacks invokes all registered callbacks with copies of the data.
func (m *Meter) notifyCallbacks() {
	samples := m.Samples()
	episodes := m.Episodes()

	m.cbMu.RLock()
	callbacks := make([]func(samples []sample.Sample, episodes []Episode), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(samples, episodes)
		}
	}
}
