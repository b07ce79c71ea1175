package sample

import (
	"log"
	"time"

	"github.com/itohio/gripmate/pkg/telemetry"
)

// DefaultOutputRate is the emission period of averaging converters.
const DefaultOutputRate = 100 * time.Millisecond

// NewAveragingConverter creates a converter that averages the last windowSize
// Frames and emits one Sample per output period. Continuous values are
// averaged; activation, state and threshold come from the newest frame.
func NewAveragingConverter(windowSize int, bufSize int, rate time.Duration) Converter {
	if windowSize <= 0 {
		windowSize = 1
	}
	if bufSize <= 0 {
		bufSize = 100
	}
	if rate <= 0 {
		rate = DefaultOutputRate
	}

	return func(in <-chan telemetry.Frame) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			var buffer []Sample
			ticker := time.NewTicker(rate)
			defer ticker.Stop()

			for {
				select {
				case f, ok := <-in:
					if !ok {
						if len(buffer) > 0 {
							select {
							case out <- averageSamples(buffer):
							default:
							}
						}
						return
					}

					buffer = append(buffer, convertFrame(f))
					if len(buffer) > windowSize {
						buffer = buffer[1:]
					}

				case <-ticker.C:
					if len(buffer) > 0 {
						select {
						case out <- averageSamples(buffer):
						default:
							log.Printf("sample: averaging converter output channel full")
						}
					}
				}
			}
		}()

		return out
	}
}

// averageSamples averages a slice of Samples.
func averageSamples(samples []Sample) Sample {
	if len(samples) == 0 {
		return Sample{}
	}

	var sumEnv, sumForce, sumRaw, sumAngle float64
	last := samples[len(samples)-1]

	for _, s := range samples {
		sumEnv += s.Envelope
		sumForce += s.Force
		sumRaw += s.ForceRaw
		sumAngle += s.Angle
	}

	n := float64(len(samples))
	return Sample{
		Timestamp: last.Timestamp,
		Envelope:  sumEnv / n,
		Threshold: last.Threshold,
		Active:    last.Active,
		Force:     sumForce / n,
		ForceRaw:  sumRaw / n,
		Angle:     sumAngle / n,
		State:     last.State,
	}
}
