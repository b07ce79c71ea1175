// Package telemetry carries controller snapshots off the device: as Teleplot
// lines over the console, and as JSON over websockets or MQTT.
package telemetry

import "time"

// DefaultInterval is the emission period (50 Hz).
const DefaultInterval = 20 * time.Millisecond

// Frame is one controller snapshot.
type Frame struct {
	Timestamp     time.Time `json:"ts,omitzero"`
	Envelope      float32   `json:"rms"`
	Threshold     float32   `json:"threshold"`
	Active        bool      `json:"muscle"`
	ForceRaw      int       `json:"fsrRaw"`
	ForceSmoothed int       `json:"fsrSmooth"`
	Angle         int       `json:"angle"`
	State         int       `json:"state"`
}

// Sink receives frames. Implementations must not block the control loop.
type Sink interface {
	Emit(f Frame)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Frame)

// Emit implements Sink.
func (fn SinkFunc) Emit(f Frame) { fn(f) }

// Multi fans a frame out to several sinks in order.
type Multi []Sink

// Emit implements Sink.
func (m Multi) Emit(f Frame) {
	for _, s := range m {
		s.Emit(f)
	}
}
