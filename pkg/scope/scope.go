// Package scope provides a Fyne widget that plots the controller's telemetry:
// the EMG envelope against its threshold and the gripper's force and angle,
// with grasp episodes shaded across both panels.
package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/gripmate/pkg/meter"
	"github.com/itohio/gripmate/pkg/sample"
)

const (
	// DefaultMaxPoints limits how many samples are drawn per trace.
	DefaultMaxPoints = 1000
	// MaxAngle is the top of the angle scale in degrees.
	MaxAngle = 180.0

	minEnvelopeRange = 0.1
	minForceRange    = 0.1
)

// ScopeWidget is a custom Fyne widget that displays oscilloscope-style graphs.
type ScopeWidget struct {
	widget.BaseWidget

	window time.Duration

	// Data (protected by mu)
	mu             sync.RWMutex
	displaySamples []sample.Sample
	episodes       []meter.Episode

	// Auto-scaling
	envMax     float64
	forceMax   float64
	xMin, xMax time.Time

	maxDisplayPoints int
}

// New creates a new ScopeWidget showing at least window worth of time.
func New(window time.Duration) *ScopeWidget {
	s := &ScopeWidget{
		window:           window,
		displaySamples:   make([]sample.Sample, 0, DefaultMaxPoints),
		maxDisplayPoints: DefaultMaxPoints,
	}
	s.updateAutoScale()
	s.ExtendBaseWidget(s)
	s.Refresh()
	return s
}

// UpdateData updates the widget with new meter data.
// This should be called from the meter callback using fyne.Do().
func (s *ScopeWidget) UpdateData(samples []sample.Sample, episodes []meter.Episode) {
	s.mu.Lock()
	s.setData(samples, episodes)
	s.mu.Unlock()

	// Refresh outside the lock; the renderer takes a read lock.
	s.Refresh()
}

func (s *ScopeWidget) setData(samples []sample.Sample, episodes []meter.Episode) {
	s.displaySamples = sample.DownsampleSamples(s.displaySamples, samples, s.maxDisplayPoints)
	s.episodes = mapEpisodes(episodes, samples, s.displaySamples)
	s.updateAutoScale()
}

// mapEpisodes keeps episodes as time spans; indices are rewritten against the
// downsampled buffer so the renderer can look up samples directly.
func mapEpisodes(episodes []meter.Episode, full, display []sample.Sample) []meter.Episode {
	out := make([]meter.Episode, 0, len(episodes))
	if len(display) == 0 {
		return out
	}
	for _, e := range episodes {
		if e.StartIndex < 0 || e.EndIndex >= len(full) || e.StartIndex > e.EndIndex {
			continue
		}
		e.StartIndex = indexAt(display, full[e.StartIndex].Timestamp)
		e.EndIndex = indexAt(display, full[e.EndIndex].Timestamp)
		out = append(out, e)
	}
	return out
}

// indexAt returns the index of the last sample at or before t (0 if none).
func indexAt(samples []sample.Sample, t time.Time) int {
	idx := 0
	for i, s := range samples {
		if s.Timestamp.After(t) {
			break
		}
		idx = i
	}
	return idx
}

// updateAutoScale calculates axis ranges from current data.
func (s *ScopeWidget) updateAutoScale() {
	s.envMax = minEnvelopeRange
	s.forceMax = minForceRange

	if len(s.displaySamples) == 0 {
		s.xMin = time.Now()
		s.xMax = s.xMin.Add(s.window)
		return
	}

	for _, smp := range s.displaySamples {
		s.envMax = max(s.envMax, smp.Envelope, smp.Threshold)
		s.forceMax = max(s.forceMax, smp.Force, smp.ForceRaw)
	}
	// 10% headroom
	s.envMax *= 1.1
	s.forceMax *= 1.1

	s.xMin = s.displaySamples[0].Timestamp
	s.xMax = s.displaySamples[len(s.displaySamples)-1].Timestamp
	if s.xMax.Sub(s.xMin) < s.window {
		s.xMax = s.xMin.Add(s.window)
	}
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	grid := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}) // Dark background
	return &scopeRenderer{
		scope:   s,
		grid:    grid,
		objects: []fyne.CanvasObject{grid},
	}
}
