package sample

import (
	"log"
	"time"

	"github.com/itohio/gripmate/pkg/grip"
	"github.com/itohio/gripmate/pkg/mailbox"
	"github.com/itohio/gripmate/pkg/telemetry"
)

// Sample is a telemetry frame in display units.
type Sample struct {
	Timestamp time.Time
	Envelope  float64   // EMG RMS envelope (V)
	Threshold float64   // Activation threshold (V)
	Active    bool      // Debounced muscle activation
	Force     float64   // Smoothed force, fraction of full scale
	ForceRaw  float64   // Last force reading, fraction of full scale
	Angle     float64   // Jaw angle (deg)
	State     grip.Kind // Grip state
}

// Converter is a function type that converts a Frame channel to a Sample channel.
type Converter func(in <-chan telemetry.Frame) <-chan Sample

// NewConverter creates a converter function that transforms Frames to Samples.
func NewConverter(bufSize int) Converter {
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan telemetry.Frame) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			for f := range in {
				select {
				case out <- convertFrame(f):
				case <-time.After(time.Second):
					log.Printf("sample: converter output channel full, dropping sample")
				}
			}
		}()

		return out
	}
}

// convertFrame converts a Frame to a Sample. Frames without a timestamp are
// stamped with the current time.
func convertFrame(f telemetry.Frame) Sample {
	ts := f.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return Sample{
		Timestamp: ts,
		Envelope:  float64(f.Envelope),
		Threshold: float64(f.Threshold),
		Active:    f.Active,
		Force:     ForceFraction(f.ForceSmoothed),
		ForceRaw:  ForceFraction(f.ForceRaw),
		Angle:     float64(f.Angle),
		State:     grip.Kind(f.State),
	}
}

// ForceFraction converts a 12-bit force reading to a fraction of full scale.
func ForceFraction(adc int) float64 {
	return float64(adc) / mailbox.MaxRaw
}

// ForceCounts converts a full-scale fraction back to ADC counts.
func ForceCounts(fraction float64) int {
	return int(fraction*mailbox.MaxRaw + 0.5)
}
